package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// PresenceTTL is twice the websocket heartbeat; a missed refresh expires it.
const PresenceTTL = 2 * time.Minute

func presenceKey(userID uint) string {
	return key("presence", userID)
}

func onlineSetKey() string {
	return key("online")
}

// SetOnline marks userID as connected.
func SetOnline(ctx context.Context, userID uint) error {
	if client == nil {
		return ErrNotInitialized
	}

	pipe := client.TxPipeline()
	pipe.Set(ctx, presenceKey(userID), time.Now().UTC().Unix(), PresenceTTL)
	pipe.SAdd(ctx, onlineSetKey(), userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set presence: %w", err)
	}
	return nil
}

// RefreshPresence extends the TTL on heartbeat.
func RefreshPresence(ctx context.Context, userID uint) error {
	if client == nil {
		return ErrNotInitialized
	}
	return client.Expire(ctx, presenceKey(userID), PresenceTTL).Err()
}

// SetOffline removes userID from the online set.
func SetOffline(ctx context.Context, userID uint) error {
	if client == nil {
		return ErrNotInitialized
	}

	pipe := client.TxPipeline()
	pipe.Del(ctx, presenceKey(userID))
	pipe.SRem(ctx, onlineSetKey(), userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("clear presence: %w", err)
	}
	return nil
}

// IsOnline checks the presence key, not the set, so expired users read offline.
func IsOnline(ctx context.Context, userID uint) (bool, error) {
	if client == nil {
		return false, ErrNotInitialized
	}
	n, err := client.Exists(ctx, presenceKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check presence: %w", err)
	}
	return n > 0, nil
}

// OnlineAmong filters ids down to the ones currently online.
func OnlineAmong(ctx context.Context, ids []uint) (map[uint]bool, error) {
	if client == nil {
		return nil, ErrNotInitialized
	}
	if len(ids) == 0 {
		return map[uint]bool{}, nil
	}

	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	flags, err := client.SMIsMember(ctx, onlineSetKey(), members...).Result()
	if err != nil {
		return nil, fmt.Errorf("online members: %w", err)
	}

	online := make(map[uint]bool, len(ids))
	for i, ok := range flags {
		if ok {
			online[ids[i]] = true
		}
	}
	return online, nil
}

// CleanExpiredPresence drops set members whose presence key expired.
func CleanExpiredPresence(ctx context.Context) error {
	if client == nil {
		return ErrNotInitialized
	}

	members, err := client.SMembers(ctx, onlineSetKey()).Result()
	if err != nil {
		return fmt.Errorf("list online users: %w", err)
	}

	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			client.SRem(ctx, onlineSetKey(), m)
			continue
		}
		if n, err := client.Exists(ctx, presenceKey(uint(id))).Result(); err == nil && n == 0 {
			client.SRem(ctx, onlineSetKey(), m)
		}
	}
	return nil
}
