package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter kinds shown in the sidebar.
const (
	CounterNotifications = "notifications"
	CounterMessages      = "messages"
	CounterRequests      = "requests"
)

// CounterTTL bounds drift between the cached counter and the database.
const CounterTTL = 24 * time.Hour

func counterKey(kind string, userID uint) string {
	return key("unread", kind, userID)
}

// GetCounter returns -1 on a miss so callers fall back to the database.
func GetCounter(ctx context.Context, kind string, userID uint) (int64, error) {
	if client == nil {
		return -1, ErrNotInitialized
	}

	n, err := client.Get(ctx, counterKey(kind, userID)).Int64()
	if err != nil {
		if IsMiss(err) {
			return -1, nil
		}
		return -1, fmt.Errorf("get %s counter: %w", kind, err)
	}
	return n, nil
}

// SetCounter seeds the counter after a database count.
func SetCounter(ctx context.Context, kind string, userID uint, n int64) error {
	if client == nil {
		return ErrNotInitialized
	}
	return client.Set(ctx, counterKey(kind, userID), n, CounterTTL).Err()
}

var incrIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return redis.call("INCR", KEYS[1])
end
return -1
`)

// IncrCounter only bumps a counter that is already cached; a missing key
// stays missing so the next read recounts from the database.
func IncrCounter(ctx context.Context, kind string, userIDs ...uint) error {
	if client == nil {
		return ErrNotInitialized
	}

	pipe := client.Pipeline()
	for _, id := range userIDs {
		incrIfExists.Eval(ctx, pipe, []string{counterKey(kind, id)})
	}
	if _, err := pipe.Exec(ctx); err != nil && !IsMiss(err) {
		return fmt.Errorf("incr %s counter: %w", kind, err)
	}
	return nil
}

// InvalidateCounter drops cached counters; the next read recounts.
func InvalidateCounter(ctx context.Context, kind string, userIDs ...uint) error {
	if client == nil {
		return ErrNotInitialized
	}
	if len(userIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, counterKey(kind, id))
	}
	return client.Del(ctx, keys...).Err()
}
