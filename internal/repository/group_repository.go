package repository

import (
	"context"

	"gastbook/internal/model"

	"gorm.io/gorm"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// CreateWithOwner writes the group and the owner's accepted membership atomically.
func (r *GroupRepository) CreateWithOwner(ctx context.Context, g *model.Group) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(g).Error; err != nil {
			return err
		}
		owner := &model.GroupMember{
			GroupID: g.ID,
			UserID:  g.OwnerID,
			Role:    model.GroupRoleOwner,
			Status:  model.MembershipAccepted,
		}
		return tx.Create(owner).Error
	})
}

func (r *GroupRepository) GetByID(ctx context.Context, id uint) (*model.Group, error) {
	var g model.Group
	if err := r.db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (r *GroupRepository) GetMembership(ctx context.Context, groupID, userID uint) (*model.GroupMember, error) {
	var m model.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// AddMember fails with ErrDuplicate if the user already has a row.
func (r *GroupRepository) AddMember(ctx context.Context, m *model.GroupMember) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

// Approve flips a pending request to accepted.
func (r *GroupRepository) Approve(ctx context.Context, groupID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.GroupMember{}).
		Where("group_id = ? AND user_id = ? AND status = ?", groupID, userID, model.MembershipPending).
		Update("status", model.MembershipAccepted)
	return res.RowsAffected > 0, res.Error
}

// RejectRequest deletes a pending request.
func (r *GroupRepository) RejectRequest(ctx context.Context, groupID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ? AND status = ?", groupID, userID, model.MembershipPending).
		Delete(&model.GroupMember{})
	return res.RowsAffected > 0, res.Error
}

// Leave deletes any non-owner membership, pending requests included.
func (r *GroupRepository) Leave(ctx context.Context, groupID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ? AND role <> ?", groupID, userID, model.GroupRoleOwner).
		Delete(&model.GroupMember{})
	return res.RowsAffected > 0, res.Error
}

// ListMembers by status, oldest first.
func (r *GroupRepository) ListMembers(ctx context.Context, groupID uint, status string) ([]*model.GroupMember, error) {
	var members []*model.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND status = ?", groupID, status).
		Order("created_at ASC").Order("id ASC").
		Find(&members).Error
	return members, err
}

// ListVisible public groups plus every group userID belongs to, newest first.
func (r *GroupRepository) ListVisible(ctx context.Context, userID uint) ([]*model.Group, error) {
	q := r.db.WithContext(ctx).Model(&model.Group{})
	if userID == 0 {
		q = q.Where("is_public = ?", true)
	} else {
		member := r.db.Model(&model.GroupMember{}).Select("group_id").
			Where("user_id = ? AND status = ?", userID, model.MembershipAccepted)
		q = q.Where("is_public = ? OR owner_id = ? OR id IN (?)", true, userID, member)
	}

	var groups []*model.Group
	err := q.Order("created_at DESC").Order("id DESC").Find(&groups).Error
	return groups, err
}

// MemberCounts accepted members per group.
func (r *GroupRepository) MemberCounts(ctx context.Context, groupIDs []uint) (map[uint]int64, error) {
	if len(groupIDs) == 0 {
		return map[uint]int64{}, nil
	}
	var rows []idCount
	err := r.db.WithContext(ctx).Model(&model.GroupMember{}).
		Select("group_id AS ref_id, COUNT(*) AS total").
		Where("group_id IN ? AND status = ?", groupIDs, model.MembershipAccepted).
		Group("group_id").
		Scan(&rows).Error
	return toMap(rows), err
}

// Search matches name and description; only groups userID may see.
func (r *GroupRepository) Search(ctx context.Context, term string, userID uint, limit int) ([]*model.Group, error) {
	like := containsPattern(term)
	q := r.db.WithContext(ctx).Model(&model.Group{}).
		Where("LOWER(name) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!'", like, like)
	if userID == 0 {
		q = q.Where("is_public = ?", true)
	} else {
		member := r.db.Model(&model.GroupMember{}).Select("group_id").
			Where("user_id = ? AND status = ?", userID, model.MembershipAccepted)
		q = q.Where("is_public = ? OR id IN (?)", true, member)
	}

	var groups []*model.Group
	err := q.Order("name ASC").Limit(limit).Find(&groups).Error
	return groups, err
}
