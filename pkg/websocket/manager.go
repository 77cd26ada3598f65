package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gastbook/pkg/logger"
	"gastbook/pkg/metrics"
	"gastbook/pkg/redis"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Frame types pushed to clients.
const (
	FrameNotification        = "notification"
	FrameMessage             = "message"
	FrameRelationshipChanged = "relationship_changed"
	FrameCountsChanged       = "counts_changed"
)

// Frame is the envelope of every server push.
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Client is one user's connection. Conn may be nil in tests.
type Client struct {
	UserID uint
	Conn   *websocket.Conn
	Send   chan []byte
}

func NewClient(userID uint, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}
}

// Manager tracks one live connection per user.
type Manager struct {
	clients map[uint]*Client
	lock    sync.RWMutex
}

var manager = NewManager()

func NewManager() *Manager {
	return &Manager{clients: make(map[uint]*Client)}
}

// GetManager returns the process-wide manager.
func GetManager() *Manager {
	return manager
}

// AddClient registers client, replacing any older connection of the same
// user, and flushes frames buffered while the user was away.
func (m *Manager) AddClient(client *Client) {
	m.lock.Lock()
	if old, ok := m.clients[client.UserID]; ok && old != client {
		close(old.Send)
	}
	m.clients[client.UserID] = client
	m.lock.Unlock()

	metrics.ConnectionOpened()
	go m.flushOffline(client)
}

// RemoveClient drops client unless it was already replaced.
func (m *Manager) RemoveClient(client *Client) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if cur, ok := m.clients[client.UserID]; ok && cur == client {
		close(cur.Send)
		delete(m.clients, client.UserID)
	}
	metrics.ConnectionClosed()
}

func (m *Manager) IsOnline(userID uint) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	_, ok := m.clients[userID]
	return ok
}

func (m *Manager) OnlineCount() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.clients)
}

// Push delivers frame if userID is connected and reports whether it did.
// A full send buffer counts as not delivered.
func (m *Manager) Push(userID uint, frame Frame) bool {
	data, err := json.Marshal(frame)
	if err != nil {
		logger.Error("marshal ws frame", zap.String("type", frame.Type), zap.Error(err))
		return false
	}
	return m.send(userID, data)
}

// PushOrBuffer delivers frame or keeps it in redis until the user reconnects.
func (m *Manager) PushOrBuffer(ctx context.Context, userID uint, frame Frame) bool {
	data, err := json.Marshal(frame)
	if err != nil {
		logger.Error("marshal ws frame", zap.String("type", frame.Type), zap.Error(err))
		return false
	}
	if m.send(userID, data) {
		return true
	}
	_ = redis.PushOffline(ctx, userID, data)
	return false
}

func (m *Manager) send(userID uint, data []byte) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()

	client, ok := m.clients[userID]
	if !ok {
		return false
	}
	select {
	case client.Send <- data:
		return true
	default:
		return false
	}
}

func (m *Manager) flushOffline(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	frames, err := redis.DrainOffline(ctx, client.UserID)
	if err != nil || len(frames) == 0 {
		return
	}

	for _, f := range frames {
		if !m.send(client.UserID, f) {
			// user left again or buffer is full; keep the rest for next time
			_ = redis.PushOffline(ctx, client.UserID, f)
		}
	}
}
