package repository

import (
	"context"

	"gastbook/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementRepository likes and comments.
type EngagementRepository struct {
	db *gorm.DB
}

func NewEngagementRepository(db *gorm.DB) *EngagementRepository {
	return &EngagementRepository{db: db}
}

// LikePost is idempotent; created is false when the like already existed.
func (r *EngagementRepository) LikePost(ctx context.Context, userID, postID uint) (bool, error) {
	like := &model.Like{UserID: userID, PostID: &postID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(like)
	return res.RowsAffected > 0, res.Error
}

func (r *EngagementRepository) UnlikePost(ctx context.Context, userID, postID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&model.Like{})
	return res.RowsAffected > 0, res.Error
}

func (r *EngagementRepository) LikeComment(ctx context.Context, userID, commentID uint) (bool, error) {
	like := &model.Like{UserID: userID, CommentID: &commentID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(like)
	return res.RowsAffected > 0, res.Error
}

func (r *EngagementRepository) UnlikeComment(ctx context.Context, userID, commentID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Delete(&model.Like{})
	return res.RowsAffected > 0, res.Error
}

func (r *EngagementRepository) CreateComment(ctx context.Context, c *model.Comment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *EngagementRepository) GetComment(ctx context.Context, id uint) (*model.Comment, error) {
	var c model.Comment
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// ListComments oldest first.
func (r *EngagementRepository) ListComments(ctx context.Context, postID uint) ([]*model.Comment, error) {
	var comments []*model.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error
	return comments, err
}

// DeleteComment removes the comment and its likes.
func (r *EngagementRepository) DeleteComment(ctx context.Context, id uint) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Comment{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return tx.Where("comment_id = ?", id).Delete(&model.Like{}).Error
	})
	return deleted, err
}

func (r *EngagementRepository) CommentLikeCounts(ctx context.Context, commentIDs []uint) (map[uint]int64, error) {
	if len(commentIDs) == 0 {
		return map[uint]int64{}, nil
	}
	var rows []idCount
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Select("comment_id AS ref_id, COUNT(*) AS total").
		Where("comment_id IN ?", commentIDs).
		Group("comment_id").
		Scan(&rows).Error
	return toMap(rows), err
}

func (r *EngagementRepository) CommentsLikedBy(ctx context.Context, userID uint, commentIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if userID == 0 || len(commentIDs) == 0 {
		return out, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("user_id = ? AND comment_id IN ?", userID, commentIDs).
		Pluck("comment_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
