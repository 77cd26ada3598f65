package model

import (
	"time"

	"gorm.io/gorm"
)

// Post visibility flags
const (
	VisibilityPublic  = "public"
	VisibilityFriends = "friends"
	VisibilityPrivate = "private"
)

// ValidVisibility reports whether v is one of the known flags.
func ValidVisibility(v string) bool {
	switch v {
	case VisibilityPublic, VisibilityFriends, VisibilityPrivate:
		return true
	}
	return false
}

// Post is owned by its author; edits overwrite in place.
type Post struct {
	ID         uint           `gorm:"primaryKey;index:idx_post_created,priority:2" json:"id"`
	AuthorID   uint           `gorm:"not null;index" json:"author_id"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	Visibility string         `gorm:"type:varchar(16);not null;index" json:"visibility"`
	CreatedAt  time.Time      `gorm:"index:idx_post_created,priority:1" json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Post) TableName() string { return "post" }

// Attachment kinds
const (
	AttachmentPhoto = "photo"
	AttachmentURL   = "url"
)

// PostAttachment photo or link attached to a post. URL points at object storage or an external page.
type PostAttachment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Kind      string    `gorm:"type:varchar(16);not null" json:"kind"`
	URL       string    `gorm:"type:varchar(512);not null" json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostAttachment) TableName() string { return "post_attachment" }

// GroupPost links a post into a group.
type GroupPost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GroupID   uint      `gorm:"not null;uniqueIndex:idx_group_post" json:"group_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_group_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (GroupPost) TableName() string { return "group_post" }
