package repository

import (
	"context"
	"strings"
	"time"

	"gastbook/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	orm *gorm.DB
}

func NewUserRepository(orm *gorm.DB) *UserRepository {
	return &UserRepository{orm: orm}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return translate(r.orm.WithContext(ctx).Create(user).Error)
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := r.orm.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// GetByUsernameOrEmail login accepts either.
func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, identifier string) (*model.User, error) {
	var u model.User
	err := r.orm.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// Taken reports which of username and email already belong to an account,
// soft-deleted ones included since the unique index still holds them.
func (r *UserRepository) Taken(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	var users []model.User
	err = r.orm.WithContext(ctx).Unscoped().
		Select("username", "email").
		Where("username = ? OR email = ?", username, email).
		Find(&users).Error
	if err != nil {
		return false, false, err
	}
	for _, u := range users {
		if u.Username == username {
			usernameTaken = true
		}
		if u.Email == email {
			emailTaken = true
		}
	}
	return usernameTaken, emailTaken, nil
}

// GetByIDs returns the users found, keyed by id. Missing ids are absent.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*model.User, error) {
	out := make(map[uint]*model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []*model.User
	if err := r.orm.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// UpdateProfile writes only the given columns.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.orm.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.UpdateProfile(ctx, id, map[string]interface{}{"password_hash": hash})
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.orm.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":    status,
			"last_seen": time.Now().UTC(),
		}).Error
}

// Delete soft-deletes the account and, in the same transaction, removes its
// friendship edges, memberships, owned groups, push subscriptions, received
// notifications, posts, comments and likes. It returns the former friends.
func (r *UserRepository) Delete(ctx context.Context, id uint) ([]uint, error) {
	var friends []uint
	err := r.orm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		var edges []model.Friendship
		if err := tx.Where("requester_id = ? OR addressee_id = ?", id, id).Find(&edges).Error; err != nil {
			return err
		}
		for i := range edges {
			if edges[i].Status == model.FriendshipAccepted {
				friends = append(friends, edges[i].Other(id))
			}
		}
		if err := tx.Where("requester_id = ? OR addressee_id = ?", id, id).Delete(&model.Friendship{}).Error; err != nil {
			return err
		}

		var owned []uint
		if err := tx.Model(&model.Group{}).Where("owner_id = ?", id).Pluck("id", &owned).Error; err != nil {
			return err
		}
		if len(owned) > 0 {
			for _, m := range []interface{}{&model.GroupMember{}, &model.GroupPost{}} {
				if err := tx.Where("group_id IN ?", owned).Delete(m).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("id IN ?", owned).Delete(&model.Group{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", id).Delete(&model.GroupMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.PushSubscription{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.NotificationPreference{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipient_id = ?", id).Delete(&model.Notification{}).Error; err != nil {
			return err
		}

		var postIDs []uint
		if err := tx.Model(&model.Post{}).Where("author_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if err := purgePostRelations(tx, postIDs); err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Where("id IN ?", postIDs).Delete(&model.Post{}).Error; err != nil {
				return err
			}
		}

		// comments and likes left on other people's posts
		var commentIDs []uint
		if err := tx.Model(&model.Comment{}).Where("author_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&model.Like{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", commentIDs).Delete(&model.Comment{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("user_id = ?", id).Delete(&model.Like{}).Error
	})
	if err != nil {
		return nil, err
	}
	return friends, nil
}

// Search case-insensitive substring match on username, display name and bio.
func (r *UserRepository) Search(ctx context.Context, term string, limit int) ([]*model.User, error) {
	like := containsPattern(term)
	var users []*model.User
	err := r.orm.WithContext(ctx).
		Where("LOWER(username) LIKE ? ESCAPE '!' OR LOWER(display_name) LIKE ? ESCAPE '!' OR LOWER(bio) LIKE ? ESCAPE '!'", like, like, like).
		Order("username ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}
