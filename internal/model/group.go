package model

import (
	"time"

	"gorm.io/gorm"
)

// Membership roles and statuses
const (
	GroupRoleOwner  = "owner"
	GroupRoleAdmin  = "admin"
	GroupRoleMember = "member"

	MembershipPending  = "pending"
	MembershipAccepted = "accepted"
)

// Group. The owner always has an accepted membership row with role owner.
type Group struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	OwnerID     uint           `gorm:"not null;index" json:"owner_id"`
	Name        string         `gorm:"type:varchar(100);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsPublic    bool           `gorm:"not null" json:"is_public"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName "group" is a reserved word in SQL.
func (Group) TableName() string { return "user_group" }

// GroupMember also represents pending join requests.
type GroupMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GroupID   uint      `gorm:"not null;uniqueIndex:idx_group_member" json:"group_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_group_member;index" json:"user_id"`
	Role      string    `gorm:"type:varchar(16);not null" json:"role"`
	Status    string    `gorm:"type:varchar(16);not null;index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (GroupMember) TableName() string { return "group_member" }

// CanModerate owners and admins approve join requests.
func (m *GroupMember) CanModerate() bool {
	return m.Status == MembershipAccepted && (m.Role == GroupRoleOwner || m.Role == GroupRoleAdmin)
}
