package service

import (
	"testing"

	"gastbook/internal/event"
	"gastbook/internal/model"
	"gastbook/pkg/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSidebar_Counts(t *testing.T) {
	e := newEnv(t)
	a, b, c := e.user(t, "ana"), e.user(t, "ben"), e.user(t, "cy")
	e.befriend(t, a, b)

	_, _, err := e.friends.SendRequest(ctx, c, a)
	require.NoError(t, err)
	_, err = e.messages.Send(ctx, b, a, "hey")
	require.NoError(t, err)

	counts, err := e.sidebar.Counts(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Friends)
	assert.Equal(t, int64(1), counts.Requests)
	assert.Equal(t, int64(1), counts.Messages)
	// friend_accepted, friend_request and message
	assert.Equal(t, int64(3), counts.Notifications)
}

func TestRealtimeRelay(t *testing.T) {
	pusher := newFakePusher()
	relay := NewRealtimeRelay(pusher)

	require.NoError(t, relay.Handle(ctx, event.Event{Kind: event.FriendRequestSent, ActorID: 1, RecipientID: 2}))
	assert.Equal(t, []string{websocket.FrameRelationshipChanged, websocket.FrameCountsChanged}, pusher.types(1))
	assert.Equal(t, []string{websocket.FrameRelationshipChanged, websocket.FrameCountsChanged}, pusher.types(2))

	change := pusher.frames[1][0].Data.(RelationshipChange)
	assert.Equal(t, uint(2), change.UserID)
	assert.Equal(t, event.FriendRequestSent, change.Kind)

	require.NoError(t, relay.Handle(ctx, event.Event{Kind: event.PostLiked, ActorID: 3, RecipientID: 4}))
	assert.Empty(t, pusher.types(3))
	assert.Equal(t, []string{websocket.FrameCountsChanged}, pusher.types(4))

	require.NoError(t, relay.Handle(ctx, event.Event{Kind: event.PostLiked, ActorID: 5, RecipientID: 5}))
	assert.Empty(t, pusher.types(5))
}

func TestRealtimeRelay_OnBus(t *testing.T) {
	e := newEnv(t)
	e.bus.Subscribe("realtime", NewRealtimeRelay(e.pusher))
	a, b := e.user(t, "ana"), e.user(t, "ben")

	p := e.post(t, a, model.VisibilityPublic, "hello")
	_, err := e.posts.Like(ctx, b, p.ID)
	require.NoError(t, err)

	assert.Contains(t, e.pusher.types(a), websocket.FrameNotification)
	assert.Contains(t, e.pusher.types(a), websocket.FrameCountsChanged)
}
