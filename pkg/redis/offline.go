package redis

import (
	"context"
	"fmt"
	"time"
)

// Frames for disconnected users are buffered until they reconnect.
const (
	OfflineTTL      = 7 * 24 * time.Hour
	MaxOfflineItems = 100
)

func offlineKey(userID uint) string {
	return key("offline", userID)
}

// PushOffline buffers one frame; the newest MaxOfflineItems survive.
func PushOffline(ctx context.Context, userID uint, frame []byte) error {
	if client == nil {
		return ErrNotInitialized
	}

	k := offlineKey(userID)
	pipe := client.TxPipeline()
	pipe.RPush(ctx, k, frame)
	pipe.LTrim(ctx, k, -MaxOfflineItems, -1)
	pipe.Expire(ctx, k, OfflineTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("buffer offline frame: %w", err)
	}
	return nil
}

// DrainOffline returns buffered frames oldest first and clears the buffer.
func DrainOffline(ctx context.Context, userID uint) ([][]byte, error) {
	if client == nil {
		return nil, ErrNotInitialized
	}

	k := offlineKey(userID)
	pipe := client.TxPipeline()
	rng := pipe.LRange(ctx, k, 0, -1)
	pipe.Del(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("drain offline frames: %w", err)
	}

	items := rng.Val()
	frames := make([][]byte, 0, len(items))
	for _, it := range items {
		frames = append(frames, []byte(it))
	}
	return frames, nil
}

// OfflineCount is the number of buffered frames.
func OfflineCount(ctx context.Context, userID uint) (int64, error) {
	if client == nil {
		return 0, ErrNotInitialized
	}
	return client.LLen(ctx, offlineKey(userID)).Result()
}
