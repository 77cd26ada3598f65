package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "gastbook:unread:messages:7", counterKey(CounterMessages, 7))
	assert.Equal(t, "gastbook:presence:3", presenceKey(3))
	assert.Equal(t, "gastbook:online", onlineSetKey())
	assert.Equal(t, "gastbook:offline:3", offlineKey(3))
	assert.Equal(t, "gastbook:friends:12", friendsKey(12))
}

func TestHelpersWithoutClient(t *testing.T) {
	ctx := context.Background()
	assert.False(t, Enabled())

	n, err := GetCounter(ctx, CounterNotifications, 1)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Equal(t, int64(-1), n)

	assert.ErrorIs(t, IncrCounter(ctx, CounterMessages, 1, 2), ErrNotInitialized)
	assert.ErrorIs(t, SetOnline(ctx, 1), ErrNotInitialized)
	assert.ErrorIs(t, PushOffline(ctx, 1, []byte("{}")), ErrNotInitialized)

	_, ok, err := GetFriendIDs(ctx, 1)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.ErrorIs(t, HealthCheck(ctx), ErrNotInitialized)
	assert.NoError(t, Close())
}
