package service

import (
	"context"
	"errors"

	"gastbook/internal/event"
	"gastbook/internal/model"
	"gastbook/internal/repository"
	apperrors "gastbook/pkg/errors"
	"gastbook/pkg/redis"
	"gastbook/pkg/sanitize"
	"gastbook/pkg/websocket"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
	maxConversations    = 100
)

// Buffering is what the message service needs from the websocket manager.
type Buffering interface {
	PushOrBuffer(ctx context.Context, userID uint, frame websocket.Frame) bool
}

// HistoryPage messages newest first. NextBefore is 0 when there is nothing older.
type HistoryPage struct {
	Messages   []*model.Message `json:"messages"`
	NextBefore uint             `json:"next_before"`
}

// Conversation is one row of the inbox.
type Conversation struct {
	Peer        *Author        `json:"peer"`
	LastMessage *model.Message `json:"last_message"`
	Unread      int64          `json:"unread"`
	Online      bool           `json:"online"`
}

type MessageService struct {
	messages *repository.MessageRepository
	users    *repository.UserRepository
	friends  *FriendshipService
	realtime Buffering
	bus      event.Publisher
}

func NewMessageService(messages *repository.MessageRepository, users *repository.UserRepository, friends *FriendshipService, realtime Buffering, bus event.Publisher) *MessageService {
	if bus == nil {
		bus = event.Nop{}
	}
	return &MessageService{messages: messages, users: users, friends: friends, realtime: realtime, bus: bus}
}

// Send stores the message, pushes it live or buffers it, and publishes MessageSent.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID uint, content string) (*model.Message, error) {
	content = sanitize.Text(content, sanitize.MaxMessageLength)
	if content == "" {
		return nil, apperrors.Validation("message cannot be empty")
	}
	if receiverID == 0 || receiverID == senderID {
		return nil, apperrors.Validation("invalid receiver")
	}

	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, err
	}
	blocked, err := s.friends.Blocked(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, apperrors.Forbidden("you cannot message this user")
	}

	msg := &model.Message{SenderID: senderID, ReceiverID: receiverID, Content: content}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	_ = redis.IncrCounter(ctx, redis.CounterMessages, receiverID)
	if s.realtime != nil {
		s.realtime.PushOrBuffer(ctx, receiverID, websocket.Frame{Type: websocket.FrameMessage, Data: msg})
	}

	s.bus.Publish(ctx, event.Event{
		Kind:        event.MessageSent,
		ActorID:     senderID,
		RecipientID: receiverID,
		SubjectID:   msg.ID,
		Message:     content,
	})
	return msg, nil
}

// History keyset paginated by id.
func (s *MessageService) History(ctx context.Context, userID, peerID, beforeID uint, limit int) (*HistoryPage, error) {
	if peerID == 0 || peerID == userID {
		return nil, apperrors.Validation("invalid conversation")
	}
	limit = pageSize(limit, defaultHistoryLimit, maxHistoryLimit)

	rows, err := s.messages.History(ctx, userID, peerID, beforeID, limit+1)
	if err != nil {
		return nil, err
	}
	page := &HistoryPage{Messages: rows}
	if len(rows) > limit {
		page.Messages = rows[:limit]
		page.NextBefore = page.Messages[limit-1].ID
	}
	if page.Messages == nil {
		page.Messages = []*model.Message{}
	}
	return page, nil
}

// Conversations latest message per peer with unread counts.
func (s *MessageService) Conversations(ctx context.Context, userID uint) ([]Conversation, error) {
	latest, err := s.messages.LatestPerPeer(ctx, userID, maxConversations)
	if err != nil {
		return nil, err
	}
	unread, err := s.messages.UnreadBySender(ctx, userID)
	if err != nil {
		return nil, err
	}

	peerIDs := make([]uint, 0, len(latest))
	for _, m := range latest {
		peerIDs = append(peerIDs, peerOf(m, userID))
	}
	peers, err := s.users.GetByIDs(ctx, peerIDs)
	if err != nil {
		return nil, err
	}
	online, _ := redis.OnlineAmong(ctx, peerIDs)

	out := make([]Conversation, 0, len(latest))
	for _, m := range latest {
		peerID := peerOf(m, userID)
		peer, ok := peers[peerID]
		if !ok {
			continue
		}
		out = append(out, Conversation{
			Peer:        AuthorOf(peer),
			LastMessage: m,
			Unread:      unread[peerID],
			Online:      online[peerID],
		})
	}
	return out, nil
}

func peerOf(m *model.Message, userID uint) uint {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// MarkConversationRead also serves the websocket ack_read frame.
func (s *MessageService) MarkConversationRead(ctx context.Context, userID, peerID uint) (int64, error) {
	n, err := s.messages.MarkConversationRead(ctx, userID, peerID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		_ = redis.InvalidateCounter(ctx, redis.CounterMessages, userID)
	}
	return n, nil
}

// UnreadCount reads the redis counter and falls back to the database.
func (s *MessageService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	if n, err := redis.GetCounter(ctx, redis.CounterMessages, userID); err == nil && n >= 0 {
		return n, nil
	}
	n, err := s.messages.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	_ = redis.SetCounter(ctx, redis.CounterMessages, userID, n)
	return n, nil
}
