package model

import "time"

// Album photo album on a user's profile.
type Album struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OwnerID     uint      `gorm:"not null;index" json:"owner_id"`
	Title       string    `gorm:"type:varchar(100);not null" json:"title"`
	Description string    `gorm:"type:varchar(500)" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Album) TableName() string { return "album" }

type AlbumPhoto struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AlbumID   uint      `gorm:"not null;index" json:"album_id"`
	URL       string    `gorm:"type:varchar(512);not null" json:"url"`
	Caption   string    `gorm:"type:varchar(255)" json:"caption"`
	CreatedAt time.Time `json:"created_at"`
}

func (AlbumPhoto) TableName() string { return "album_photo" }
