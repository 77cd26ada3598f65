package service

import (
	"context"
	"errors"
	"time"

	"gastbook/internal/event"
	"gastbook/internal/model"
	"gastbook/internal/repository"
	apperrors "gastbook/pkg/errors"
	"gastbook/pkg/redis"
)

// State is the relationship between a viewer and a subject.
type State string

const (
	StateNone            State = "none"
	StatePendingSent     State = "pending_sent"
	StatePendingReceived State = "pending_received"
	StateAccepted        State = "accepted"
)

// Resolver is the read side the visibility filter needs.
type Resolver interface {
	Resolve(ctx context.Context, viewerID, subjectID uint) (State, error)
}

type FriendshipService struct {
	repo     *repository.FriendshipRepository
	users    *repository.UserRepository
	bus      event.Publisher
	cacheTTL time.Duration
}

func NewFriendshipService(repo *repository.FriendshipRepository, users *repository.UserRepository, bus event.Publisher, cacheTTL time.Duration) *FriendshipService {
	if bus == nil {
		bus = event.Nop{}
	}
	return &FriendshipService{repo: repo, users: users, bus: bus, cacheTTL: cacheTTL}
}

// Resolve checks the forward edge first, then the reverse one. Blocked
// edges resolve to none.
func (s *FriendshipService) Resolve(ctx context.Context, viewerID, subjectID uint) (State, error) {
	if viewerID == 0 || subjectID == 0 {
		return StateNone, nil
	}
	if viewerID == subjectID {
		return StateNone, apperrors.Validation("cannot resolve a relationship with yourself")
	}

	forward, err := s.repo.FindDirected(ctx, viewerID, subjectID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return StateNone, err
	}
	if forward != nil {
		switch forward.Status {
		case model.FriendshipPending:
			return StatePendingSent, nil
		case model.FriendshipAccepted:
			return StateAccepted, nil
		}
	}

	reverse, err := s.repo.FindDirected(ctx, subjectID, viewerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return StateNone, err
	}
	if reverse != nil {
		switch reverse.Status {
		case model.FriendshipPending:
			return StatePendingReceived, nil
		case model.FriendshipAccepted:
			return StateAccepted, nil
		}
	}

	return StateNone, nil
}

// Blocked reports whether either party blocked the other.
func (s *FriendshipService) Blocked(ctx context.Context, a, b uint) (bool, error) {
	edge, err := s.repo.FindBetween(ctx, a, b)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return edge.Status == model.FriendshipBlocked, nil
}

// FriendIDs accepted friends, served from redis when cached.
func (s *FriendshipService) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	if ids, ok, _ := redis.GetFriendIDs(ctx, userID); ok {
		return ids, nil
	}
	ids, err := s.repo.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	_ = redis.CacheFriendIDs(ctx, userID, ids, s.cacheTTL)
	return ids, nil
}

// SendRequest is idempotent for a forward pending edge: it returns the
// existing edge with created=false.
func (s *FriendshipService) SendRequest(ctx context.Context, fromID, toID uint) (*model.Friendship, bool, error) {
	if fromID == toID {
		return nil, false, apperrors.Validation("cannot send a friend request to yourself")
	}
	if _, err := s.users.GetByID(ctx, toID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, apperrors.NotFound("user not found")
		}
		return nil, false, err
	}

	edge := &model.Friendship{RequesterID: fromID, AddresseeID: toID, Status: model.FriendshipPending}
	err := s.repo.Create(ctx, edge)
	if err == nil {
		s.bus.Publish(ctx, event.Event{
			Kind:        event.FriendRequestSent,
			ActorID:     fromID,
			RecipientID: toID,
			SubjectID:   edge.ID,
		})
		return edge, true, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return nil, false, err
	}

	// the pair already has an edge, possibly created by a concurrent request
	existing, err := s.repo.FindBetween(ctx, fromID, toID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, apperrors.Conflict("friend request changed concurrently, retry")
		}
		return nil, false, err
	}
	switch {
	case existing.Status == model.FriendshipBlocked:
		return nil, false, apperrors.Forbidden("cannot send a friend request to this user")
	case existing.Status == model.FriendshipAccepted:
		return nil, false, apperrors.Conflict("already friends")
	case existing.RequesterID == fromID:
		return existing, false, nil
	default:
		return nil, false, apperrors.Conflict("this user already sent you a friend request")
	}
}

// Accept is allowed for the addressee of a pending edge only.
func (s *FriendshipService) Accept(ctx context.Context, userID, edgeID uint) (*model.Friendship, error) {
	ok, err := s.repo.Accept(ctx, edgeID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NotFound("friend request not found")
	}

	edge, err := s.repo.GetByID(ctx, edgeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("friend request not found")
		}
		return nil, err
	}
	_ = redis.InvalidateFriendIDs(ctx, edge.RequesterID, edge.AddresseeID)

	s.bus.Publish(ctx, event.Event{
		Kind:        event.FriendRequestAccepted,
		ActorID:     userID,
		RecipientID: edge.RequesterID,
		SubjectID:   edge.ID,
	})
	return edge, nil
}

// DeleteRequest cancels or rejects a pending request; either party may.
func (s *FriendshipService) DeleteRequest(ctx context.Context, userID, edgeID uint) error {
	edge, err := s.repo.GetByID(ctx, edgeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("friend request not found")
		}
		return err
	}

	ok, err := s.repo.DeletePending(ctx, edgeID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("friend request not found")
	}

	s.bus.Publish(ctx, event.Event{
		Kind:        event.FriendshipRemoved,
		ActorID:     userID,
		RecipientID: edge.Other(userID),
		SubjectID:   edgeID,
	})
	return nil
}

// Unfriend deletes an accepted edge; either party may.
func (s *FriendshipService) Unfriend(ctx context.Context, userID, otherID uint) error {
	if userID == otherID {
		return apperrors.Validation("cannot unfriend yourself")
	}
	ok, err := s.repo.DeleteAccepted(ctx, userID, otherID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("friendship not found")
	}
	_ = redis.InvalidateFriendIDs(ctx, userID, otherID)

	s.bus.Publish(ctx, event.Event{Kind: event.FriendshipRemoved, ActorID: userID, RecipientID: otherID})
	return nil
}

// Block replaces any edge of the pair with a block by userID.
func (s *FriendshipService) Block(ctx context.Context, userID, targetID uint) (*model.Friendship, error) {
	if userID == targetID {
		return nil, apperrors.Validation("cannot block yourself")
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, err
	}

	edge, created, err := s.repo.Block(ctx, userID, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrBlockedByOther) {
			return nil, apperrors.Conflict("this user has blocked you")
		}
		return nil, err
	}
	if !created {
		return edge, nil
	}
	_ = redis.InvalidateFriendIDs(ctx, userID, targetID)

	s.bus.Publish(ctx, event.Event{Kind: event.UserBlocked, ActorID: userID, RecipientID: targetID, SubjectID: edge.ID})
	return edge, nil
}

// Unblock only the blocker can lift a block.
func (s *FriendshipService) Unblock(ctx context.Context, userID, targetID uint) error {
	ok, err := s.repo.DeleteBlocked(ctx, userID, targetID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("block not found")
	}
	s.bus.Publish(ctx, event.Event{Kind: event.UserUnblocked, ActorID: userID, RecipientID: targetID})
	return nil
}

// ListFriends returns accepted friends of userID.
func (s *FriendshipService) ListFriends(ctx context.Context, userID uint) ([]*model.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, err
	}
	ids, err := s.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// FriendRequest is a pending edge with the other party's profile.
type FriendRequest struct {
	Edge  *model.Friendship `json:"edge"`
	Other *Author           `json:"user"`
}

// ListRequests incoming or outgoing pending requests, newest first.
func (s *FriendshipService) ListRequests(ctx context.Context, userID uint, incoming bool) ([]FriendRequest, error) {
	edges, err := s.repo.ListPending(ctx, userID, incoming)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.Other(userID))
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]FriendRequest, 0, len(edges))
	for _, e := range edges {
		u, ok := users[e.Other(userID)]
		if !ok {
			continue
		}
		out = append(out, FriendRequest{Edge: e, Other: AuthorOf(u)})
	}
	return out, nil
}

func (s *FriendshipService) CountFriends(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountFriends(ctx, userID)
}
