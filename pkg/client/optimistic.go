package client

import (
	"context"
	"sync"

	"gastbook/pkg/command"
)

// LikeButton is the local like state of one post card. Toggle flips it at
// once and rolls back if the server refuses.
type LikeButton struct {
	mu     sync.Mutex
	postID uint
	liked  bool
	count  int64
}

func NewLikeButton(p *Post) *LikeButton {
	return &LikeButton{postID: p.ID, liked: p.LikedByViewer, count: p.LikeCount}
}

// State is what the card renders.
func (b *LikeButton) State() (liked bool, count int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.liked, b.count
}

func (b *LikeButton) set(liked bool, count int64) {
	b.mu.Lock()
	b.liked, b.count = liked, count
	b.mu.Unlock()
}

// Toggle likes or unlikes the post through c.
func (b *LikeButton) Toggle(ctx context.Context, c *Client) error {
	prevLiked, prevCount := b.State()
	next := !prevLiked

	return command.Execute(ctx, command.Func{
		ApplyFn: func() {
			delta := int64(1)
			if !next {
				delta = -1
			}
			b.set(next, prevCount+delta)
		},
		SendFn: func(ctx context.Context) error {
			call := c.Like
			if !next {
				call = c.Unlike
			}
			state, err := call(ctx, b.postID)
			if err != nil {
				return err
			}
			b.set(state.Liked, state.LikeCount)
			return nil
		},
		RevertFn: func() {
			b.set(prevLiked, prevCount)
		},
	})
}

// Friend button states.
const (
	FriendNone    = "none"
	FriendPending = "pending_outgoing"
)

// FriendButton is the "Add friend" / "Cancel request" button on a profile.
type FriendButton struct {
	mu        sync.Mutex
	userID    uint
	state     string
	requestID uint
}

func NewFriendButton(userID uint, state string) *FriendButton {
	if state == "" {
		state = FriendNone
	}
	return &FriendButton{userID: userID, state: state}
}

func (b *FriendButton) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *FriendButton) setState(state string, requestID uint) {
	b.mu.Lock()
	b.state, b.requestID = state, requestID
	b.mu.Unlock()
}

// Request shows the request as pending before the server confirms it.
func (b *FriendButton) Request(ctx context.Context, c *Client) error {
	b.mu.Lock()
	prev, prevID := b.state, b.requestID
	b.mu.Unlock()

	return command.Execute(ctx, command.Func{
		ApplyFn: func() { b.setState(FriendPending, 0) },
		SendFn: func(ctx context.Context) error {
			edge, err := c.SendFriendRequest(ctx, b.userID)
			if err != nil {
				return err
			}
			b.setState(FriendPending, edge.ID)
			return nil
		},
		RevertFn: func() { b.setState(prev, prevID) },
	})
}

// Cancel withdraws a pending request.
func (b *FriendButton) Cancel(ctx context.Context, c *Client) error {
	b.mu.Lock()
	prev, prevID := b.state, b.requestID
	b.mu.Unlock()

	return command.Execute(ctx, command.Func{
		ApplyFn: func() { b.setState(FriendNone, 0) },
		SendFn: func(ctx context.Context) error {
			return c.CancelFriendRequest(ctx, prevID)
		},
		RevertFn: func() { b.setState(prev, prevID) },
	})
}
