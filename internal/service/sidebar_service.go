package service

import (
	"context"

	"gastbook/internal/repository"
	"gastbook/pkg/redis"
)

// SidebarCounts badges shown next to the navigation.
type SidebarCounts struct {
	Notifications int64 `json:"notifications"`
	Messages      int64 `json:"messages"`
	Friends       int64 `json:"friends"`
	Requests      int64 `json:"requests"`
}

type SidebarService struct {
	notifications *NotificationService
	messages      *MessageService
	friendships   *repository.FriendshipRepository
}

func NewSidebarService(notifications *NotificationService, messages *MessageService, friendships *repository.FriendshipRepository) *SidebarService {
	return &SidebarService{notifications: notifications, messages: messages, friendships: friendships}
}

func (s *SidebarService) Counts(ctx context.Context, userID uint) (*SidebarCounts, error) {
	var (
		out SidebarCounts
		err error
	)
	if out.Notifications, err = s.notifications.UnreadCount(ctx, userID); err != nil {
		return nil, err
	}
	if out.Messages, err = s.messages.UnreadCount(ctx, userID); err != nil {
		return nil, err
	}
	if out.Friends, err = s.friendships.CountFriends(ctx, userID); err != nil {
		return nil, err
	}
	if out.Requests, err = s.pendingRequests(ctx, userID); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SidebarService) pendingRequests(ctx context.Context, userID uint) (int64, error) {
	if n, err := redis.GetCounter(ctx, redis.CounterRequests, userID); err == nil && n >= 0 {
		return n, nil
	}
	n, err := s.friendships.CountIncoming(ctx, userID)
	if err != nil {
		return 0, err
	}
	_ = redis.SetCounter(ctx, redis.CounterRequests, userID, n)
	return n, nil
}
