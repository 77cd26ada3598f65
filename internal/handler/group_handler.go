package handler

import (
	"gastbook/internal/service"
	"gastbook/pkg/jwt"
	"gastbook/pkg/response"

	"github.com/gin-gonic/gin"
)

type GroupHandler struct {
	service *service.GroupService
}

func NewGroupHandler(s *service.GroupService) *GroupHandler {
	return &GroupHandler{service: s}
}

// List public groups plus the ones the user belongs to.
//
//	@Summary	List groups
//	@Tags		groups
//	@Security	BearerAuth
//	@Router		/groups [get]
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.service.List(c.Request.Context(), jwt.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, groups)
}

// Create
//
//	@Summary	Create a group
//	@Tags		groups
//	@Security	BearerAuth
//	@Param		body	body	service.CreateGroupInput	true	"group"
//	@Router		/groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	var in service.CreateGroupInput
	if !bindJSON(c, &in) {
		return
	}
	group, err := h.service.Create(c.Request.Context(), jwt.GetUserID(c), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "group created", group)
}

func (h *GroupHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	group, err := h.service.Get(c.Request.Context(), jwt.GetUserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, group)
}

// Join is accepted at once for public groups and pending for private ones.
//
//	@Summary	Join a group
//	@Tags		groups
//	@Security	BearerAuth
//	@Param		id	path	int	true	"group id"
//	@Router		/groups/{id}/join [post]
func (h *GroupHandler) Join(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	member, err := h.service.Join(c.Request.Context(), jwt.GetUserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, member)
}

func (h *GroupHandler) Leave(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Leave(c.Request.Context(), jwt.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "left group", nil)
}

func (h *GroupHandler) Members(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	members, err := h.service.Members(c.Request.Context(), jwt.GetUserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, members)
}

// Requests pending join requests, moderators only.
func (h *GroupHandler) Requests(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	reqs, err := h.service.Requests(c.Request.Context(), jwt.GetUserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, reqs)
}

func (h *GroupHandler) Approve(c *gin.Context) {
	groupID, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := idParam(c, "user_id")
	if !ok {
		return
	}
	if err := h.service.Approve(c.Request.Context(), jwt.GetUserID(c), groupID, userID); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "request approved", nil)
}

func (h *GroupHandler) Reject(c *gin.Context) {
	groupID, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := idParam(c, "user_id")
	if !ok {
		return
	}
	if err := h.service.Reject(c.Request.Context(), jwt.GetUserID(c), groupID, userID); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "request rejected", nil)
}
