package repository

import (
	"context"

	"gastbook/internal/model"

	"gorm.io/gorm"
)

// FriendshipRepository stores directed edges. Each state change is a
// single conditional statement; callers read RowsAffected to learn
// whether they won a race.
type FriendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

// Create fails with ErrDuplicate if the pair already has an edge.
func (r *FriendshipRepository) Create(ctx context.Context, f *model.Friendship) error {
	return translate(r.db.WithContext(ctx).Create(f).Error)
}

func (r *FriendshipRepository) GetByID(ctx context.Context, id uint) (*model.Friendship, error) {
	var f model.Friendship
	if err := r.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

// FindDirected looks up the edge requester -> addressee only.
func (r *FriendshipRepository) FindDirected(ctx context.Context, requesterID, addresseeID uint) (*model.Friendship, error) {
	var f model.Friendship
	err := r.db.WithContext(ctx).
		Where("requester_id = ? AND addressee_id = ?", requesterID, addresseeID).
		First(&f).Error
	if err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

// FindBetween returns the edge of the unordered pair, whichever direction.
func (r *FriendshipRepository) FindBetween(ctx context.Context, a, b uint) (*model.Friendship, error) {
	low, high := model.OrderedPair(a, b)
	var f model.Friendship
	err := r.db.WithContext(ctx).
		Where("pair_low = ? AND pair_high = ?", low, high).
		First(&f).Error
	if err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

// Accept flips a pending edge addressed to addresseeID.
func (r *FriendshipRepository) Accept(ctx context.Context, id, addresseeID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("id = ? AND addressee_id = ? AND status = ?", id, addresseeID, model.FriendshipPending).
		Update("status", model.FriendshipAccepted)
	return res.RowsAffected > 0, res.Error
}

// DeletePending cancels (requester) or rejects (addressee) a request.
func (r *FriendshipRepository) DeletePending(ctx context.Context, id, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ? AND (requester_id = ? OR addressee_id = ?)",
			id, model.FriendshipPending, userID, userID).
		Delete(&model.Friendship{})
	return res.RowsAffected > 0, res.Error
}

// DeleteAccepted unfriends; either party may do it.
func (r *FriendshipRepository) DeleteAccepted(ctx context.Context, a, b uint) (bool, error) {
	low, high := model.OrderedPair(a, b)
	res := r.db.WithContext(ctx).
		Where("pair_low = ? AND pair_high = ? AND status = ?", low, high, model.FriendshipAccepted).
		Delete(&model.Friendship{})
	return res.RowsAffected > 0, res.Error
}

// DeleteBlocked unblocks; only the blocker's edge matches.
func (r *FriendshipRepository) DeleteBlocked(ctx context.Context, blockerID, blockedID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("requester_id = ? AND addressee_id = ? AND status = ?", blockerID, blockedID, model.FriendshipBlocked).
		Delete(&model.Friendship{})
	return res.RowsAffected > 0, res.Error
}

// Block replaces whatever edge the pair has with blocker -> blocked. created
// is false when the blocker had already blocked the pair. An existing block
// by the other party is left alone and reported as ErrBlockedByOther.
func (r *FriendshipRepository) Block(ctx context.Context, blockerID, blockedID uint) (*model.Friendship, bool, error) {
	var edge *model.Friendship
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		low, high := model.OrderedPair(blockerID, blockedID)

		var existing model.Friendship
		err := tx.Where("pair_low = ? AND pair_high = ?", low, high).First(&existing).Error
		switch {
		case err == nil:
			if existing.Status == model.FriendshipBlocked {
				if existing.RequesterID != blockerID {
					return ErrBlockedByOther
				}
				edge = &existing
				return nil
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case translate(err) != ErrNotFound:
			return err
		}

		f := &model.Friendship{
			RequesterID: blockerID,
			AddresseeID: blockedID,
			Status:      model.FriendshipBlocked,
		}
		if err := tx.Create(f).Error; err != nil {
			return translate(err)
		}
		edge, created = f, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return edge, created, nil
}

// FriendIDs lists the other party of every accepted edge.
func (r *FriendshipRepository) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var edges []model.Friendship
	err := r.db.WithContext(ctx).
		Select("requester_id", "addressee_id").
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?", userID, userID, model.FriendshipAccepted).
		Find(&edges).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(edges))
	for i := range edges {
		ids = append(ids, edges[i].Other(userID))
	}
	return ids, nil
}

func (r *FriendshipRepository) CountFriends(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?", userID, userID, model.FriendshipAccepted).
		Count(&n).Error
	return n, err
}

// ListPending incoming: addressed to userID; otherwise sent by userID. Newest first.
func (r *FriendshipRepository) ListPending(ctx context.Context, userID uint, incoming bool) ([]*model.Friendship, error) {
	col := "requester_id"
	if incoming {
		col = "addressee_id"
	}

	var edges []*model.Friendship
	err := r.db.WithContext(ctx).
		Where(col+" = ? AND status = ?", userID, model.FriendshipPending).
		Order("created_at DESC").Order("id DESC").
		Find(&edges).Error
	return edges, err
}

func (r *FriendshipRepository) CountIncoming(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("addressee_id = ? AND status = ?", userID, model.FriendshipPending).
		Count(&n).Error
	return n, err
}
