package model

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types
const (
	NotificationFriendRequest     = "friend_request"
	NotificationFriendAccepted    = "friend_accepted"
	NotificationGroupRequest      = "group_request"
	NotificationGroupJoinAccepted = "group_join_accepted"
	NotificationLike              = "like"
	NotificationComment           = "comment"
	NotificationMessage           = "message"
)

// Notification is written by fan-out only; afterwards only IsRead changes.
type Notification struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	RecipientID uint              `gorm:"not null;index:idx_notification_recipient,priority:1" json:"recipient_id"`
	ActorID     uint              `gorm:"not null" json:"actor_id"`
	Type        string            `gorm:"type:varchar(32);not null" json:"type"`
	Message     string            `gorm:"type:varchar(255);not null" json:"message"`
	Link        string            `gorm:"type:varchar(255)" json:"link"`
	IsRead      bool              `gorm:"not null;index:idx_notification_recipient,priority:2" json:"read"`
	Meta        datatypes.JSONMap `gorm:"type:text" json:"meta,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (Notification) TableName() string { return "notification" }

// NotificationPreference per-user delivery switches.
// EmailTypes maps notification type to enabled; a missing type counts as enabled.
type NotificationPreference struct {
	UserID       uint              `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	EmailEnabled bool              `gorm:"not null" json:"email_enabled"`
	PushEnabled  bool              `gorm:"not null" json:"push_enabled"`
	EmailTypes   datatypes.JSONMap `gorm:"type:text" json:"email_types"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (NotificationPreference) TableName() string { return "notification_preference" }

// EmailAllows reports whether an email for notificationType may be sent.
func (p *NotificationPreference) EmailAllows(notificationType string) bool {
	if !p.EmailEnabled {
		return false
	}
	if v, ok := p.EmailTypes[notificationType]; ok {
		if enabled, isBool := v.(bool); isBool {
			return enabled
		}
	}
	return true
}

// DefaultPreference everything on.
func DefaultPreference(userID uint) *NotificationPreference {
	return &NotificationPreference{
		UserID:       userID,
		EmailEnabled: true,
		PushEnabled:  true,
		EmailTypes:   datatypes.JSONMap{},
	}
}

// PushSubscription device token registered for push delivery.
type PushSubscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"token"`
	Platform  string    `gorm:"type:varchar(16)" json:"platform"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PushSubscription) TableName() string { return "push_subscription" }
