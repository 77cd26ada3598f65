package service

import (
	"context"
	"fmt"

	"gastbook/internal/event"
	"gastbook/internal/model"
	"gastbook/internal/repository"
	apperrors "gastbook/pkg/errors"
	"gastbook/pkg/logger"
	"gastbook/pkg/mailer"
	"gastbook/pkg/metrics"
	"gastbook/pkg/push"
	"gastbook/pkg/redis"
	"gastbook/pkg/websocket"

	"go.uber.org/zap"
)

// Pusher sends a frame to a connected user.
type Pusher interface {
	Push(userID uint, frame websocket.Frame) bool
}

// JobQueue accepts out-of-band deliveries.
type JobQueue interface {
	Enqueue(job DispatchJob) bool
}

// NotificationView notification with the actor's profile.
type NotificationView struct {
	*model.Notification
	Actor *Author `json:"actor"`
}

type fanoutRule struct {
	typ     string
	link    func(e event.Event) string
	message func(actor string, e event.Event) string
}

var fanoutRules = map[event.Kind]fanoutRule{
	event.FriendRequestSent: {
		typ:  model.NotificationFriendRequest,
		link: func(event.Event) string { return "/friends/requests" },
		message: func(actor string, _ event.Event) string {
			return fmt.Sprintf("%s sent you a friend request", actor)
		},
	},
	event.FriendRequestAccepted: {
		typ:  model.NotificationFriendAccepted,
		link: func(e event.Event) string { return fmt.Sprintf("/users/%d", e.ActorID) },
		message: func(actor string, _ event.Event) string {
			return fmt.Sprintf("%s accepted your friend request", actor)
		},
	},
	event.GroupJoinRequested: {
		typ:  model.NotificationGroupRequest,
		link: func(e event.Event) string { return fmt.Sprintf("/groups/%d/requests", e.SubjectID) },
		message: func(actor string, e event.Event) string {
			return fmt.Sprintf("%s asked to join %s", actor, e.Message)
		},
	},
	event.GroupJoinAccepted: {
		typ:  model.NotificationGroupJoinAccepted,
		link: func(e event.Event) string { return fmt.Sprintf("/groups/%d", e.SubjectID) },
		message: func(_ string, e event.Event) string {
			return fmt.Sprintf("You've been accepted to join %s", e.Message)
		},
	},
	event.PostLiked: {
		typ:  model.NotificationLike,
		link: func(e event.Event) string { return fmt.Sprintf("/posts/%d", e.PostID) },
		message: func(actor string, _ event.Event) string {
			return fmt.Sprintf("%s liked your post", actor)
		},
	},
	event.CommentAdded: {
		typ:  model.NotificationComment,
		link: func(e event.Event) string { return fmt.Sprintf("/posts/%d", e.PostID) },
		message: func(actor string, _ event.Event) string {
			return fmt.Sprintf("%s commented on your post", actor)
		},
	},
	event.MessageSent: {
		typ:  model.NotificationMessage,
		link: func(e event.Event) string { return fmt.Sprintf("/messages/%d", e.ActorID) },
		message: func(actor string, _ event.Event) string {
			return fmt.Sprintf("New message from %s", actor)
		},
	},
}

// FanoutKinds are the events the fan-out subscribes to.
func FanoutKinds() []event.Kind {
	kinds := make([]event.Kind, 0, len(fanoutRules))
	for k := range fanoutRules {
		kinds = append(kinds, k)
	}
	return kinds
}

// Fanout turns domain events into notifications: row, counter, live frame,
// then email and push.
type Fanout struct {
	repo   *repository.NotificationRepository
	users  *repository.UserRepository
	pusher Pusher
	queue  JobQueue
}

func NewFanout(repo *repository.NotificationRepository, users *repository.UserRepository, pusher Pusher, queue JobQueue) *Fanout {
	return &Fanout{repo: repo, users: users, pusher: pusher, queue: queue}
}

// Handle implements event.Subscriber.
func (f *Fanout) Handle(ctx context.Context, e event.Event) error {
	_, err := f.OnEvent(ctx, e)
	return err
}

// OnEvent writes zero or one notification.
func (f *Fanout) OnEvent(ctx context.Context, e event.Event) (*model.Notification, error) {
	rule, ok := fanoutRules[e.Kind]
	if !ok || e.RecipientID == 0 || e.RecipientID == e.ActorID {
		return nil, nil
	}

	actorName := "Someone"
	var actor *model.User
	if u, err := f.users.GetByID(ctx, e.ActorID); err == nil {
		actor = u
		actorName = u.Name()
	}

	n := &model.Notification{
		RecipientID: e.RecipientID,
		ActorID:     e.ActorID,
		Type:        rule.typ,
		Message:     rule.message(actorName, e),
		Link:        rule.link(e),
	}
	if e.SubjectID != 0 {
		n.Meta = map[string]interface{}{"subject_id": e.SubjectID}
	}
	if err := f.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	metrics.NotificationDelivered(n.Type, "inapp")

	_ = redis.IncrCounter(ctx, redis.CounterNotifications, n.RecipientID)

	if f.pusher != nil {
		frame := websocket.Frame{
			Type: websocket.FrameNotification,
			Data: NotificationView{Notification: n, Actor: AuthorOf(actor)},
		}
		if f.pusher.Push(n.RecipientID, frame) {
			metrics.NotificationDelivered(n.Type, "ws")
		}
	}

	f.enqueue(ctx, n, actorName)
	return n, nil
}

// enqueue resolves recipient email, preferences and devices so workers never hit the database.
func (f *Fanout) enqueue(ctx context.Context, n *model.Notification, actorName string) {
	if f.queue == nil {
		return
	}
	pref, err := f.repo.GetPreference(ctx, n.RecipientID)
	if err != nil {
		logger.Warn("load notification preference", zap.Uint("user_id", n.RecipientID), zap.Error(err))
		return
	}

	job := DispatchJob{
		Type:    n.Type,
		Subject: mailer.Subject(n.Type, actorName),
		Message: n.Message,
		Link:    n.Link,
	}
	if pref.EmailAllows(n.Type) {
		if recipient, err := f.users.GetByID(ctx, n.RecipientID); err == nil {
			job.Email = recipient.Email
		}
	}
	if pref.PushEnabled {
		subs, err := f.repo.Devices(ctx, n.RecipientID)
		if err != nil {
			logger.Warn("load push devices", zap.Uint("user_id", n.RecipientID), zap.Error(err))
		}
		for _, s := range subs {
			job.Devices = append(job.Devices, push.Device{Token: s.Token, Platform: s.Platform})
		}
	}

	if job.Email == "" && len(job.Devices) == 0 {
		return
	}
	f.queue.Enqueue(job)
}

type NotificationService struct {
	repo  *repository.NotificationRepository
	users *repository.UserRepository
	cfg   pageConfig
}

// pageConfig default and max page size.
type pageConfig struct {
	def, max int
}

func NewNotificationService(repo *repository.NotificationRepository, users *repository.UserRepository, defaultPageSize, maxPageSize int) *NotificationService {
	return &NotificationService{repo: repo, users: users, cfg: pageConfig{def: defaultPageSize, max: maxPageSize}}
}

// List newest first, keyset paginated.
func (s *NotificationService) List(ctx context.Context, userID uint, cursor string, size int) (*Page[NotificationView], error) {
	cur, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	size = pageSize(size, s.cfg.def, s.cfg.max)

	rows, err := s.repo.List(ctx, userID, cur, size+1)
	if err != nil {
		return nil, err
	}
	rows, next := trimPage(rows, size, func(n *model.Notification) repository.Cursor {
		return repository.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})

	actorIDs := make([]uint, 0, len(rows))
	for _, n := range rows {
		actorIDs = append(actorIDs, n.ActorID)
	}
	actors, err := s.users.GetByIDs(ctx, actorIDs)
	if err != nil {
		return nil, err
	}

	items := make([]NotificationView, 0, len(rows))
	for _, n := range rows {
		items = append(items, NotificationView{Notification: n, Actor: AuthorOf(actors[n.ActorID])})
	}
	return &Page[NotificationView]{Items: items, NextCursor: next}, nil
}

// UnreadCount reads the redis counter and falls back to the database.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	if n, err := redis.GetCounter(ctx, redis.CounterNotifications, userID); err == nil && n >= 0 {
		return n, nil
	}
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	_ = redis.SetCounter(ctx, redis.CounterNotifications, userID, n)
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	ok, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("notification not found")
	}
	_ = redis.InvalidateCounter(ctx, redis.CounterNotifications, userID)
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	_ = redis.SetCounter(ctx, redis.CounterNotifications, userID, 0)
	return n, nil
}

// Dismiss deletes the notification.
func (s *NotificationService) Dismiss(ctx context.Context, userID, id uint) error {
	ok, err := s.repo.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("notification not found")
	}
	_ = redis.InvalidateCounter(ctx, redis.CounterNotifications, userID)
	return nil
}
