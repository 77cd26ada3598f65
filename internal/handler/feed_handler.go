package handler

import (
	"gastbook/internal/service"
	"gastbook/pkg/jwt"
	"gastbook/pkg/response"

	"github.com/gin-gonic/gin"
)

// FeedHandler serves every keyset-paginated post list.
type FeedHandler struct {
	feed *service.FeedService
}

func NewFeedHandler(feed *service.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// Feed
//
//	@Summary	Home feed
//	@Tags		feed
//	@Param		scope		query		string	false	"friends or public"
//	@Param		cursor		query		string	false	"next_cursor of the previous page"
//	@Param		page_size	query		int		false	"page size"
//	@Success	200			{object}	response.Response{data=service.Page[service.EnrichedPost]}
//	@Router		/feed [get]
func (h *FeedHandler) Feed(c *gin.Context) {
	scope := c.DefaultQuery("scope", service.ScopeFriends)
	if scope != service.ScopeFriends && scope != service.ScopePublic {
		response.BadRequest(c, "scope must be friends or public")
		return
	}
	h.serve(c, service.Scope{Kind: scope})
}

// UserPosts a profile's timeline.
//
//	@Summary	Posts on a profile
//	@Tags		feed
//	@Param		id	path	int	true	"user id"
//	@Router		/users/{id}/posts [get]
func (h *FeedHandler) UserPosts(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.serve(c, service.Scope{Kind: service.ScopeProfile, ID: id})
}

// GroupPosts
//
//	@Summary	Posts in a group
//	@Tags		feed
//	@Param		id	path	int	true	"group id"
//	@Router		/groups/{id}/posts [get]
func (h *FeedHandler) GroupPosts(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.serve(c, service.Scope{Kind: service.ScopeGroup, ID: id})
}

func (h *FeedHandler) serve(c *gin.Context, scope service.Scope) {
	page, err := h.feed.Assemble(c.Request.Context(), jwt.GetUserID(c), scope, c.Query("cursor"), intQuery(c, "page_size"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, page)
}
