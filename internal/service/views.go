package service

import (
	"time"

	"gastbook/internal/model"
)

// Author is the profile snapshot embedded in posts, comments and lists.
type Author struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

func AuthorOf(u *model.User) *Author {
	if u == nil {
		return nil
	}
	return &Author{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// EnrichedPost is a post with everything a feed card shows.
type EnrichedPost struct {
	ID            uint                   `json:"id"`
	AuthorID      uint                   `json:"author_id"`
	Content       string                 `json:"content"`
	Visibility    string                 `json:"visibility"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
	Author        *Author                `json:"author"`
	LikeCount     int64                  `json:"like_count"`
	CommentCount  int64                  `json:"comment_count"`
	LikedByViewer bool                   `json:"liked_by_viewer"`
	Attachments   []model.PostAttachment `json:"attachments"`
}

// Page is one keyset page. An empty NextCursor means there is nothing more.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor"`
}

// CommentView comment with author and likes.
type CommentView struct {
	ID            uint      `json:"id"`
	PostID        uint      `json:"post_id"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	Author        *Author   `json:"author"`
	LikeCount     int64     `json:"like_count"`
	LikedByViewer bool      `json:"liked_by_viewer"`
}
