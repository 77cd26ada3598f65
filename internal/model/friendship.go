package model

import (
	"time"

	"gorm.io/gorm"
)

// Friendship edge statuses
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
	FriendshipBlocked  = "blocked"
)

// Friendship is a directed edge; RequesterID initiated it.
// PairLow/PairHigh hold the unordered pair and carry the unique index,
// so a pair can never have more than one edge.
type Friendship struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RequesterID uint      `gorm:"not null;index" json:"requester_id"`
	AddresseeID uint      `gorm:"not null;index" json:"addressee_id"`
	PairLow     uint      `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"-"`
	PairHigh    uint      `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"-"`
	Status      string    `gorm:"type:varchar(16);not null;index" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Friendship) TableName() string { return "friendship" }

// BeforeCreate fills the ordered pair columns.
func (f *Friendship) BeforeCreate(tx *gorm.DB) error {
	f.PairLow, f.PairHigh = OrderedPair(f.RequesterID, f.AddresseeID)
	if f.Status == "" {
		f.Status = FriendshipPending
	}
	return nil
}

// Other returns the party of the edge that is not userID.
func (f *Friendship) Other(userID uint) uint {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}

// Involves reports whether userID is one of the two parties.
func (f *Friendship) Involves(userID uint) bool {
	return f.RequesterID == userID || f.AddresseeID == userID
}

// OrderedPair returns (min, max).
func OrderedPair(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}
