package handler

import (
	"gastbook/internal/service"
	"gastbook/pkg/jwt"
	"gastbook/pkg/response"

	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	service *service.SearchService
}

func NewSearchHandler(s *service.SearchService) *SearchHandler {
	return &SearchHandler{service: s}
}

// Search
//
//	@Summary	Search profiles, groups and posts
//	@Tags		search
//	@Param		q		query		string	true	"query"
//	@Param		type	query		string	false	"all, profiles, groups or posts"
//	@Success	200		{object}	response.Response{data=service.SearchResult}
//	@Router		/search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	result, err := h.service.Search(c.Request.Context(), jwt.GetUserID(c), c.Query("q"), c.Query("type"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, result)
}
