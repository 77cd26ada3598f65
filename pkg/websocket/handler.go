package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"gastbook/config"
	"gastbook/pkg/jwt"
	"gastbook/pkg/logger"
	"gastbook/pkg/redis"
	"gastbook/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// StatusUpdater persists online/offline status.
type StatusUpdater interface {
	SetStatus(ctx context.Context, userID uint, status string) error
}

// ReadAcker marks a conversation read when the client acknowledges it.
type ReadAcker interface {
	MarkConversationRead(ctx context.Context, userID, peerID uint) (int64, error)
}

// Handler upgrades /ws connections.
type Handler struct {
	jwt      *jwt.JWTService
	cfg      config.WebSocketConfig
	manager  *Manager
	status   StatusUpdater
	acker    ReadAcker
	upgrader websocket.Upgrader
}

func NewHandler(jwtSvc *jwt.JWTService, cfg config.WebSocketConfig, manager *Manager, status StatusUpdater, acker ReadAcker, allowedOrigins []string) *Handler {
	return &Handler{
		jwt:     jwtSvc,
		cfg:     cfg,
		manager: manager,
		status:  status,
		acker:   acker,
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(allowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

type inbound struct {
	Type   string `json:"type"`
	PeerID uint   `json:"peer_id"`
}

// ServeWS authenticates by ?token= or the Sec-WebSocket-Protocol header.
func (h *Handler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Sec-WebSocket-Protocol"), "Bearer ")
	}
	if token == "" {
		response.Unauthorized(c, "missing token")
		return
	}

	claims, err := h.jwt.Authenticate(c.Request.Context(), token)
	if err != nil {
		response.Unauthorized(c, "invalid or expired token")
		return
	}
	userID := claims.UserID()

	// echo the subprotocol so browsers accept the handshake
	respHeader := http.Header{}
	if protocol := c.GetHeader("Sec-WebSocket-Protocol"); protocol != "" {
		respHeader.Set("Sec-WebSocket-Protocol", protocol)
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, respHeader)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	defer conn.Close()

	client := NewClient(userID, conn)
	h.manager.AddClient(client)
	h.setStatus(userID, "online")

	defer func() {
		h.manager.RemoveClient(client)
		h.setStatus(userID, "offline")
	}()

	done := make(chan struct{})
	go h.writePump(client, done)

	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
		h.handleInbound(userID, payload)
	}
	close(done)
}

func (h *Handler) writePump(client *Client, done <-chan struct{}) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Handler) handleInbound(userID uint, payload []byte) {
	var msg inbound
	if err := json.Unmarshal(payload, &msg); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch msg.Type {
	case "heartbeat":
		_ = redis.RefreshPresence(ctx, userID)
	case "ack_read":
		if msg.PeerID == 0 || h.acker == nil {
			return
		}
		if _, err := h.acker.MarkConversationRead(ctx, userID, msg.PeerID); err != nil {
			logger.Warn("ws ack_read failed", zap.Uint("user_id", userID), zap.Error(err))
		}
	}
}

func (h *Handler) setStatus(userID uint, status string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if status == "online" {
		_ = redis.SetOnline(ctx, userID)
	} else {
		_ = redis.SetOffline(ctx, userID)
	}
	if h.status != nil {
		if err := h.status.SetStatus(ctx, userID, status); err != nil {
			logger.Warn("update user status", zap.Uint("user_id", userID), zap.Error(err))
		}
	}
}
