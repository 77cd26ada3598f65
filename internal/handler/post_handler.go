package handler

import (
	"context"

	"gastbook/internal/service"
	"gastbook/pkg/jwt"
	"gastbook/pkg/response"

	"github.com/gin-gonic/gin"
)

// PostHandler posts, comments and likes.
type PostHandler struct {
	service *service.PostService
}

func NewPostHandler(s *service.PostService) *PostHandler {
	return &PostHandler{service: s}
}

// Create
//
//	@Summary	Create a post
//	@Tags		posts
//	@Security	BearerAuth
//	@Accept		json
//	@Param		body	body		service.CreatePostInput	true	"post"
//	@Success	200		{object}	response.Response{data=service.EnrichedPost}
//	@Router		/posts [post]
func (h *PostHandler) Create(c *gin.Context) {
	var in service.CreatePostInput
	if !bindJSON(c, &in) {
		return
	}
	post, err := h.service.Create(c.Request.Context(), jwt.GetUserID(c), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "post created", post)
}

// Get returns 404 for posts the viewer may not see.
//
//	@Summary	Get a post
//	@Tags		posts
//	@Param		id	path	int	true	"post id"
//	@Router		/posts/{id} [get]
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	post, err := h.service.Get(c.Request.Context(), jwt.GetUserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, post)
}

func (h *PostHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in service.UpdatePostInput
	if !bindJSON(c, &in) {
		return
	}
	post, err := h.service.Update(c.Request.Context(), jwt.GetUserID(c), id, in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, post)
}

func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), jwt.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "post deleted", nil)
}

// Like
//
//	@Summary	Like a post
//	@Tags		posts
//	@Security	BearerAuth
//	@Param		id	path		int	true	"post id"
//	@Success	200	{object}	response.Response{data=service.LikeState}
//	@Router		/posts/{id}/like [post]
func (h *PostHandler) Like(c *gin.Context) {
	h.toggle(c, h.service.Like)
}

func (h *PostHandler) Unlike(c *gin.Context) {
	h.toggle(c, h.service.Unlike)
}

func (h *PostHandler) LikeComment(c *gin.Context) {
	h.toggle(c, h.service.LikeComment)
}

func (h *PostHandler) UnlikeComment(c *gin.Context) {
	h.toggle(c, h.service.UnlikeComment)
}

type likeFunc = func(ctx context.Context, userID, id uint) (*service.LikeState, error)

func (h *PostHandler) toggle(c *gin.Context, fn likeFunc) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	state, err := fn(c.Request.Context(), jwt.GetUserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, state)
}

// Comments oldest first.
//
//	@Summary	Comments on a post
//	@Tags		posts
//	@Param		id	path	int	true	"post id"
//	@Router		/posts/{id}/comments [get]
func (h *PostHandler) Comments(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	comments, err := h.service.Comments(c.Request.Context(), jwt.GetUserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, comments)
}

func (h *PostHandler) AddComment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var r struct {
		Content string `json:"content" binding:"required"`
	}
	if !bindJSON(c, &r) {
		return
	}
	comment, err := h.service.AddComment(c.Request.Context(), jwt.GetUserID(c), id, r.Content)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "comment added", comment)
}

func (h *PostHandler) DeleteComment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteComment(c.Request.Context(), jwt.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "comment deleted", nil)
}
