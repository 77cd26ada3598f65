package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_OrderAndFiltering(t *testing.T) {
	bus := NewBus()
	var got []string

	record := func(name string) SubscriberFunc {
		return func(ctx context.Context, e Event) error {
			got = append(got, name+":"+string(e.Kind))
			return nil
		}
	}

	bus.Subscribe("first", record("first"), PostLiked)
	bus.Subscribe("second", record("second"), PostLiked, CommentAdded)
	bus.Subscribe("all", record("all"))

	bus.Publish(context.Background(), Event{Kind: PostLiked})
	bus.Publish(context.Background(), Event{Kind: MessageSent})

	assert.Equal(t, []string{
		"first:post_liked",
		"second:post_liked",
		"all:post_liked",
		"all:message_sent",
	}, got)
}

func TestBus_SubscriberFailuresDoNotPropagate(t *testing.T) {
	bus := NewBus()
	reached := false

	bus.Subscribe("failing", SubscriberFunc(func(ctx context.Context, e Event) error {
		return errors.New("boom")
	}))
	bus.Subscribe("panicking", SubscriberFunc(func(ctx context.Context, e Event) error {
		panic("bad subscriber")
	}))
	bus.Subscribe("last", SubscriberFunc(func(ctx context.Context, e Event) error {
		reached = true
		return nil
	}))

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), Event{Kind: CommentAdded})
	})
	assert.True(t, reached)
}
