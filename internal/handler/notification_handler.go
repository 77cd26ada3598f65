package handler

import (
	"gastbook/internal/service"
	"gastbook/pkg/jwt"
	"gastbook/pkg/response"

	"github.com/gin-gonic/gin"
)

// NotificationHandler also serves the sidebar badges.
type NotificationHandler struct {
	service *service.NotificationService
	sidebar *service.SidebarService
}

func NewNotificationHandler(s *service.NotificationService, sidebar *service.SidebarService) *NotificationHandler {
	return &NotificationHandler{service: s, sidebar: sidebar}
}

// List
//
//	@Summary	Notifications, newest first
//	@Tags		notifications
//	@Security	BearerAuth
//	@Param		cursor		query	string	false	"next_cursor of the previous page"
//	@Param		page_size	query	int		false	"page size"
//	@Router		/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), jwt.GetUserID(c), c.Query("cursor"), intQuery(c, "page_size"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, page)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.service.UnreadCount(c.Request.Context(), jwt.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"unread_count": n})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), jwt.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "marked read", nil)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.service.MarkAllRead(c.Request.Context(), jwt.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"marked": n})
}

func (h *NotificationHandler) Dismiss(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Dismiss(c.Request.Context(), jwt.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "notification dismissed", nil)
}

// SidebarCounts
//
//	@Summary	Unread and pending badge counts
//	@Tags		notifications
//	@Security	BearerAuth
//	@Success	200	{object}	response.Response{data=service.SidebarCounts}
//	@Router		/sidebar/counts [get]
func (h *NotificationHandler) SidebarCounts(c *gin.Context) {
	counts, err := h.sidebar.Counts(c.Request.Context(), jwt.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, counts)
}
