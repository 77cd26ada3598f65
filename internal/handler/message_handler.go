package handler

import (
	"gastbook/internal/service"
	"gastbook/pkg/jwt"
	"gastbook/pkg/response"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	service *service.MessageService
}

func NewMessageHandler(s *service.MessageService) *MessageHandler {
	return &MessageHandler{service: s}
}

type sendMessageRequest struct {
	ReceiverID uint   `json:"receiver_id" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

// Send
//
//	@Summary	Send a private message
//	@Tags		messages
//	@Security	BearerAuth
//	@Param		body	body	sendMessageRequest	true	"message"
//	@Router		/messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	var r sendMessageRequest
	if !bindJSON(c, &r) {
		return
	}
	msg, err := h.service.Send(c.Request.Context(), jwt.GetUserID(c), r.ReceiverID, r.Content)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "message sent", msg)
}

// History newest first; pass next_before as before for the next page.
//
//	@Summary	Conversation history
//	@Tags		messages
//	@Security	BearerAuth
//	@Param		user_id	path	int	true	"peer id"
//	@Param		before	query	int	false	"message id"
//	@Param		limit	query	int	false	"page size"
//	@Router		/conversations/{user_id}/messages [get]
func (h *MessageHandler) History(c *gin.Context) {
	peerID, ok := idParam(c, "user_id")
	if !ok {
		return
	}
	page, err := h.service.History(c.Request.Context(), jwt.GetUserID(c), peerID, uintQuery(c, "before"), intQuery(c, "limit"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, page)
}

func (h *MessageHandler) Conversations(c *gin.Context) {
	convs, err := h.service.Conversations(c.Request.Context(), jwt.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, convs)
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	peerID, ok := idParam(c, "user_id")
	if !ok {
		return
	}
	n, err := h.service.MarkConversationRead(c.Request.Context(), jwt.GetUserID(c), peerID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"marked": n})
}

func (h *MessageHandler) UnreadCount(c *gin.Context) {
	n, err := h.service.UnreadCount(c.Request.Context(), jwt.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"unread_count": n})
}
