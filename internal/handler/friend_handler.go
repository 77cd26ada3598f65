package handler

import (
	"gastbook/internal/service"
	"gastbook/pkg/jwt"
	"gastbook/pkg/response"

	"github.com/gin-gonic/gin"
)

type FriendHandler struct {
	service *service.FriendshipService
}

func NewFriendHandler(s *service.FriendshipService) *FriendHandler {
	return &FriendHandler{service: s}
}

// List accepted friends of a user.
//
//	@Summary	Friends of a user
//	@Tags		friends
//	@Security	BearerAuth
//	@Param		id	path	int	true	"user id"
//	@Router		/users/{id}/friends [get]
func (h *FriendHandler) List(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	users, err := h.service.ListFriends(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	out := make([]*service.Author, 0, len(users))
	for _, u := range users {
		out = append(out, service.AuthorOf(u))
	}
	response.Success(c, out)
}

// Requests pending requests, incoming unless direction=outgoing.
//
//	@Summary	Pending friend requests
//	@Tags		friends
//	@Security	BearerAuth
//	@Param		direction	query	string	false	"incoming or outgoing"
//	@Router		/friends/requests [get]
func (h *FriendHandler) Requests(c *gin.Context) {
	var incoming bool
	switch c.DefaultQuery("direction", "incoming") {
	case "incoming":
		incoming = true
	case "outgoing":
	default:
		response.BadRequest(c, "direction must be incoming or outgoing")
		return
	}
	reqs, err := h.service.ListRequests(c.Request.Context(), jwt.GetUserID(c), incoming)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, reqs)
}

// SendRequest is idempotent: a repeated request returns the existing edge.
//
//	@Summary	Send a friend request
//	@Tags		friends
//	@Security	BearerAuth
//	@Param		id	path	int	true	"user id"
//	@Router		/friends/{id}/request [post]
func (h *FriendHandler) SendRequest(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	edge, created, err := h.service.SendRequest(c.Request.Context(), jwt.GetUserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"request": edge, "created": created})
}

func (h *FriendHandler) Accept(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	edge, err := h.service.Accept(c.Request.Context(), jwt.GetUserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "friend request accepted", edge)
}

// DeleteRequest cancels an outgoing request or rejects an incoming one.
func (h *FriendHandler) DeleteRequest(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteRequest(c.Request.Context(), jwt.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "friend request removed", nil)
}

func (h *FriendHandler) Unfriend(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Unfriend(c.Request.Context(), jwt.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "unfriended", nil)
}

func (h *FriendHandler) Block(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	edge, err := h.service.Block(c.Request.Context(), jwt.GetUserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "user blocked", edge)
}

func (h *FriendHandler) Unblock(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Unblock(c.Request.Context(), jwt.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "user unblocked", nil)
}
