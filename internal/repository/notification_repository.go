package repository

import (
	"context"

	"gastbook/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const notificationTable = "notification"

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// List newest first, keyset paginated.
func (r *NotificationRepository) List(ctx context.Context, recipientID uint, cur *Cursor, limit int) ([]*model.Notification, error) {
	q := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ?", recipientID)
	q = after(q, notificationTable, cur)

	var items []*model.Notification
	err := newestFirst(q, notificationTable).Limit(limit).Find(&items).Error
	return items, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&n).Error
	return n, err
}

// MarkRead matches only the recipient's own row. Already-read rows still count as found.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID uint) (bool, error) {
	var n model.Notification
	err := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		First(&n).Error
	if err != nil {
		if translate(err) == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	if n.IsRead {
		return true, nil
	}
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	return res.RowsAffected > 0, res.Error
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// Delete dismisses a notification.
func (r *NotificationRepository) Delete(ctx context.Context, id, recipientID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Delete(&model.Notification{})
	return res.RowsAffected > 0, res.Error
}

// GetPreference falls back to everything-on when the user never saved any.
func (r *NotificationRepository) GetPreference(ctx context.Context, userID uint) (*model.NotificationPreference, error) {
	var p model.NotificationPreference
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		if translate(err) == ErrNotFound {
			return model.DefaultPreference(userID), nil
		}
		return nil, err
	}
	if p.EmailTypes == nil {
		p.EmailTypes = model.DefaultPreference(userID).EmailTypes
	}
	return &p, nil
}

// SavePreference upserts the whole row.
func (r *NotificationRepository) SavePreference(ctx context.Context, p *model.NotificationPreference) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email_enabled", "push_enabled", "email_types", "updated_at"}),
		}).
		Create(p).Error
}

// SubscribePush registers token for userID; a token moves to whoever registered it last.
func (r *NotificationRepository) SubscribePush(ctx context.Context, s *model.PushSubscription) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "updated_at"}),
		}).
		Create(s).Error
}

func (r *NotificationRepository) UnsubscribePush(ctx context.Context, userID uint, token string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&model.PushSubscription{})
	return res.RowsAffected > 0, res.Error
}

func (r *NotificationRepository) Devices(ctx context.Context, userID uint) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error
	return subs, err
}
