package service

import (
	"context"

	"gastbook/internal/event"
	"gastbook/pkg/metrics"
	"gastbook/pkg/redis"
	"gastbook/pkg/websocket"
)

// relationshipKinds change the friendship edge between two users.
var relationshipKinds = map[event.Kind]bool{
	event.FriendRequestSent:     true,
	event.FriendRequestAccepted: true,
	event.FriendshipRemoved:     true,
	event.UserBlocked:           true,
	event.UserUnblocked:         true,
}

// RelationshipChange is the payload of a relationship_changed frame.
type RelationshipChange struct {
	Kind   event.Kind `json:"kind"`
	UserID uint       `json:"user_id"`
}

// RealtimeRelay tells both parties' clients to refresh after an event.
type RealtimeRelay struct {
	pusher Pusher
}

func NewRealtimeRelay(pusher Pusher) *RealtimeRelay {
	return &RealtimeRelay{pusher: pusher}
}

// Handle implements event.Subscriber.
func (r *RealtimeRelay) Handle(ctx context.Context, e event.Event) error {
	if relationshipKinds[e.Kind] {
		// the pending-request badge may have changed for either side
		_ = redis.InvalidateCounter(ctx, redis.CounterRequests, e.ActorID, e.RecipientID)

		r.pusher.Push(e.ActorID, websocket.Frame{
			Type: websocket.FrameRelationshipChanged,
			Data: RelationshipChange{Kind: e.Kind, UserID: e.RecipientID},
		})
		r.pusher.Push(e.RecipientID, websocket.Frame{
			Type: websocket.FrameRelationshipChanged,
			Data: RelationshipChange{Kind: e.Kind, UserID: e.ActorID},
		})
		r.pusher.Push(e.ActorID, websocket.Frame{Type: websocket.FrameCountsChanged})
	}

	if e.RecipientID != 0 && e.RecipientID != e.ActorID {
		r.pusher.Push(e.RecipientID, websocket.Frame{Type: websocket.FrameCountsChanged})
	}
	return nil
}

// CountEvents is the metrics subscriber.
func CountEvents(_ context.Context, e event.Event) error {
	metrics.EventPublished(string(e.Kind))
	return nil
}
