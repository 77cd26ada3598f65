package handler

import (
	"gastbook/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the /api/v1 surface. limit guards the public auth
// routes and may be nil.
func RegisterRoutes(r gin.IRouter, h *Handlers, auth *jwt.JWTService, limit gin.HandlerFunc) {
	v1 := r.Group("/api/v1")

	public := v1.Group("")
	if limit != nil {
		public.Use(limit)
	}
	{
		public.POST("/auth/register", h.Users.Register)
		public.POST("/auth/login", h.Users.Login)
		public.POST("/captcha/verify", h.Users.VerifyCaptcha)
	}

	optional := v1.Group("")
	optional.Use(auth.OptionalAuthMiddleware())
	{
		optional.GET("/feed", h.Feed.Feed)
		optional.GET("/users/:id/posts", h.Feed.UserPosts)
		optional.GET("/groups/:id/posts", h.Feed.GroupPosts)
		optional.GET("/posts/:id", h.Posts.Get)
		optional.GET("/posts/:id/comments", h.Posts.Comments)
		optional.GET("/search", h.Search.Search)
		optional.GET("/users/:id", h.Users.Profile)
	}

	authed := v1.Group("")
	authed.Use(auth.AuthMiddleware())
	{
		authed.GET("/users/me", h.Users.Me)
		authed.GET("/users/:id/relationship", h.Users.Relationship)
		authed.GET("/users/:id/friends", h.Friends.List)
		authed.GET("/users/:id/albums", h.Albums.ListByOwner)

		friends := authed.Group("/friends")
		friends.GET("/requests", h.Friends.Requests)
		friends.POST("/requests/:id/accept", h.Friends.Accept)
		friends.DELETE("/requests/:id", h.Friends.DeleteRequest)
		friends.POST("/:id/request", h.Friends.SendRequest)
		friends.DELETE("/:id", h.Friends.Unfriend)
		friends.POST("/:id/block", h.Friends.Block)
		friends.DELETE("/:id/block", h.Friends.Unblock)

		authed.POST("/posts", h.Posts.Create)
		authed.PUT("/posts/:id", h.Posts.Update)
		authed.DELETE("/posts/:id", h.Posts.Delete)
		authed.POST("/posts/:id/like", h.Posts.Like)
		authed.DELETE("/posts/:id/like", h.Posts.Unlike)
		authed.POST("/posts/:id/comments", h.Posts.AddComment)
		authed.DELETE("/comments/:id", h.Posts.DeleteComment)
		authed.POST("/comments/:id/like", h.Posts.LikeComment)
		authed.DELETE("/comments/:id/like", h.Posts.UnlikeComment)

		groups := authed.Group("/groups")
		groups.GET("", h.Groups.List)
		groups.POST("", h.Groups.Create)
		groups.GET("/:id", h.Groups.Get)
		groups.POST("/:id/join", h.Groups.Join)
		groups.DELETE("/:id/membership", h.Groups.Leave)
		groups.GET("/:id/members", h.Groups.Members)
		groups.GET("/:id/requests", h.Groups.Requests)
		groups.POST("/:id/requests/:user_id/approve", h.Groups.Approve)
		groups.DELETE("/:id/requests/:user_id", h.Groups.Reject)

		authed.POST("/messages", h.Messages.Send)
		authed.GET("/messages/conversations", h.Messages.Conversations)
		authed.GET("/messages/unread/count", h.Messages.UnreadCount)
		authed.GET("/conversations/:user_id/messages", h.Messages.History)
		authed.PUT("/conversations/:user_id/read", h.Messages.MarkRead)

		notifications := authed.Group("/notifications")
		notifications.GET("", h.Notifications.List)
		notifications.GET("/unread/count", h.Notifications.UnreadCount)
		notifications.PUT("/read-all", h.Notifications.MarkAllRead)
		notifications.PUT("/:id/read", h.Notifications.MarkRead)
		notifications.DELETE("/:id", h.Notifications.Dismiss)
		authed.GET("/sidebar/counts", h.Notifications.SidebarCounts)

		settings := authed.Group("/settings")
		settings.PUT("/profile", h.Settings.UpdateProfile)
		settings.PUT("/password", h.Settings.ChangePassword)
		settings.GET("/notifications", h.Settings.Preferences)
		settings.PUT("/notifications", h.Settings.UpdatePreferences)
		settings.DELETE("/account", h.Settings.DeleteAccount)

		authed.POST("/push/subscribe", h.Settings.Subscribe)
		authed.DELETE("/push/subscribe", h.Settings.Unsubscribe)

		authed.POST("/albums", h.Albums.Create)
		authed.POST("/albums/:id/photos", h.Albums.AddPhoto)
		authed.GET("/albums/:id/photos", h.Albums.Photos)
		authed.DELETE("/albums/:id", h.Albums.Delete)

		authed.POST("/uploads", h.Albums.Upload)
	}
}
