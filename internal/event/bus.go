package event

import (
	"context"
	"sync"

	"gastbook/pkg/logger"

	"go.uber.org/zap"
)

// Kind names a domain event.
type Kind string

const (
	FriendRequestSent     Kind = "friend_request_sent"
	FriendRequestAccepted Kind = "friend_request_accepted"
	FriendshipRemoved     Kind = "friendship_removed"
	UserBlocked           Kind = "user_blocked"
	UserUnblocked         Kind = "user_unblocked"
	GroupJoinRequested    Kind = "group_join_requested"
	GroupJoinAccepted     Kind = "group_join_accepted"
	PostLiked             Kind = "post_liked"
	CommentAdded          Kind = "comment_added"
	MessageSent           Kind = "message_sent"
)

// Event is what services publish after a successful write.
type Event struct {
	Kind        Kind
	ActorID     uint
	RecipientID uint
	// SubjectID is the post, group, edge or message the event is about.
	SubjectID uint
	// PostID links comment and like events back to their post.
	PostID  uint
	Message string
}

// Subscriber reacts to an event. Errors are logged, never returned to the publisher.
type Subscriber interface {
	Handle(ctx context.Context, e Event) error
}

// SubscriberFunc adapts a function.
type SubscriberFunc func(ctx context.Context, e Event) error

func (f SubscriberFunc) Handle(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Publisher is what services depend on.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type entry struct {
	name string
	sub  Subscriber
}

// Bus is a synchronous in-process observer.
type Bus struct {
	mu   sync.RWMutex
	subs map[Kind][]entry
	all  []entry
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Kind][]entry)}
}

// Subscribe registers sub for the given kinds, or for every kind when none are given.
func (b *Bus) Subscribe(name string, sub Subscriber, kinds ...Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := entry{name: name, sub: sub}
	if len(kinds) == 0 {
		b.all = append(b.all, e)
		return
	}
	for _, k := range kinds {
		b.subs[k] = append(b.subs[k], e)
	}
}

// Publish runs kind-specific subscribers, then catch-all ones, in
// subscription order. A panicking subscriber is logged like a failed one.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	targets := make([]entry, 0, len(b.subs[e.Kind])+len(b.all))
	targets = append(targets, b.subs[e.Kind]...)
	targets = append(targets, b.all...)
	b.mu.RUnlock()

	for _, t := range targets {
		b.dispatch(ctx, t, e)
	}
}

func (b *Bus) dispatch(ctx context.Context, t entry, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event subscriber panicked",
				zap.String("subscriber", t.name),
				zap.String("kind", string(e.Kind)),
				zap.Any("panic", r),
			)
		}
	}()

	if err := t.sub.Handle(ctx, e); err != nil {
		logger.Warn("event subscriber failed",
			zap.String("subscriber", t.name),
			zap.String("kind", string(e.Kind)),
			zap.Uint("actor_id", e.ActorID),
			zap.Uint("recipient_id", e.RecipientID),
			zap.Error(err),
		)
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
