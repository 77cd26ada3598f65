package model

import (
	"time"

	"gorm.io/gorm"
)

// User account plus public profile.
// Username and email are unique; only the bcrypt hash of the password is stored.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"type:varchar(64);not null;uniqueIndex" json:"username"`
	Email        string         `gorm:"type:varchar(128);uniqueIndex" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	DisplayName  string         `gorm:"type:varchar(64)" json:"display_name"`
	Bio          string         `gorm:"type:varchar(500)" json:"bio"`
	AvatarURL    string         `gorm:"type:varchar(255)" json:"avatar_url"`
	Status       string         `gorm:"type:varchar(16);default:'offline'" json:"status"`
	LastSeen     time.Time      `json:"last_seen"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName singular table naming is global, so this is "user".
func (User) TableName() string { return "user" }

// Name is what other users see.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
