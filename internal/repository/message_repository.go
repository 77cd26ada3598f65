package repository

import (
	"context"

	"gastbook/internal/model"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// History messages between a and b, newest first, with id < beforeID when beforeID > 0.
func (r *MessageRepository) History(ctx context.Context, a, b uint, beforeID uint, limit int) ([]*model.Message, error) {
	q := r.db.WithContext(ctx).Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		a, b, b, a,
	)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}

	var messages []*model.Message
	err := q.Order("id DESC").Limit(limit).Find(&messages).Error
	return messages, err
}

// LatestPerPeer the newest message of every conversation userID is in, newest first.
func (r *MessageRepository) LatestPerPeer(ctx context.Context, userID uint, limit int) ([]*model.Message, error) {
	latest := r.db.Model(&model.Message{}).
		Select("MAX(id)").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Group("CASE WHEN sender_id = " + uintLiteral(userID) + " THEN receiver_id ELSE sender_id END")

	var messages []*model.Message
	err := r.db.WithContext(ctx).
		Where("id IN (?)", latest).
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// UnreadBySender unread counts addressed to userID, per sender.
func (r *MessageRepository) UnreadBySender(ctx context.Context, userID uint) (map[uint]int64, error) {
	var rows []idCount
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Select("sender_id AS ref_id, COUNT(*) AS total").
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Group("sender_id").
		Scan(&rows).Error
	return toMap(rows), err
}

func (r *MessageRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

// MarkConversationRead marks everything peerID sent to userID as read.
func (r *MessageRepository) MarkConversationRead(ctx context.Context, userID, peerID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", userID, peerID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
