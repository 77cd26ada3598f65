package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

func friendsKey(userID uint) string {
	return key("friends", userID)
}

// CacheFriendIDs stores the accepted-friend id list for the feed assembler.
func CacheFriendIDs(ctx context.Context, userID uint, ids []uint, ttl time.Duration) error {
	if client == nil {
		return ErrNotInitialized
	}
	if ids == nil {
		ids = []uint{}
	}

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal friend ids: %w", err)
	}
	return client.Set(ctx, friendsKey(userID), data, ttl).Err()
}

// GetFriendIDs reports ok=false on a miss.
func GetFriendIDs(ctx context.Context, userID uint) ([]uint, bool, error) {
	if client == nil {
		return nil, false, ErrNotInitialized
	}

	data, err := client.Get(ctx, friendsKey(userID)).Bytes()
	if err != nil {
		if IsMiss(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get friend ids: %w", err)
	}

	var ids []uint
	if err := json.Unmarshal(data, &ids); err != nil {
		// corrupt entry, treat as a miss
		client.Del(ctx, friendsKey(userID))
		return nil, false, nil
	}
	return ids, true, nil
}

// InvalidateFriendIDs must run for both users whenever an edge changes.
func InvalidateFriendIDs(ctx context.Context, userIDs ...uint) error {
	if client == nil {
		return ErrNotInitialized
	}
	if len(userIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, friendsKey(id))
	}
	return client.Del(ctx, keys...).Err()
}
