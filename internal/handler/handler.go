package handler

import (
	"strconv"

	"gastbook/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler so the router can be built in one place.
type Handlers struct {
	Users         *UserHandler
	Friends       *FriendHandler
	Feed          *FeedHandler
	Posts         *PostHandler
	Groups        *GroupHandler
	Messages      *MessageHandler
	Notifications *NotificationHandler
	Settings      *SettingsHandler
	Search        *SearchHandler
	Albums        *AlbumHandler
}

// idParam parses a positive numeric path parameter and answers 400 otherwise.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// intQuery returns 0 when the parameter is missing or not a number, which
// the services treat as "use the default".
func intQuery(c *gin.Context, name string) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func uintQuery(c *gin.Context, name string) uint {
	n, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}

// bindJSON answers 400 with the binding error.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.BadRequest(c, err.Error())
		return false
	}
	return true
}
