package model

import "time"

// Like on a post or a comment; exactly one of PostID and CommentID is set.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_user_post;uniqueIndex:idx_like_user_comment" json:"user_id"`
	PostID    *uint     `gorm:"uniqueIndex:idx_like_user_post;index" json:"post_id,omitempty"`
	CommentID *uint     `gorm:"uniqueIndex:idx_like_user_comment;index" json:"comment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Like) TableName() string { return "post_like" }

// Comment on a post, listed oldest first.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Comment) TableName() string { return "post_comment" }
