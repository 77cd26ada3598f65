package repository

import (
	"context"

	"gastbook/internal/model"

	"gorm.io/gorm"
)

const postTable = "post"

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create writes the post, its attachments and the optional group link in one transaction.
func (r *PostRepository) Create(ctx context.Context, post *model.Post, attachments []model.PostAttachment, groupID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		if len(attachments) > 0 {
			for i := range attachments {
				attachments[i].PostID = post.ID
			}
			if err := tx.Create(&attachments).Error; err != nil {
				return err
			}
		}
		if groupID != 0 {
			link := &model.GroupPost{GroupID: groupID, PostID: post.ID}
			if err := tx.Create(link).Error; err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

func (r *PostRepository) GetByID(ctx context.Context, id uint) (*model.Post, error) {
	var p model.Post
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// Update only touches the author's own post.
func (r *PostRepository) Update(ctx context.Context, id, authorID uint, fields map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ? AND author_id = ?", id, authorID).
		Updates(fields)
	return res.RowsAffected > 0, res.Error
}

// Delete soft-deletes the author's post and removes its links, likes and comments.
func (r *PostRepository) Delete(ctx context.Context, id, authorID uint) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND author_id = ?", id, authorID).Delete(&model.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return purgePostRelations(tx, []uint{id})
	})
	return deleted, err
}

// purgePostRelations removes likes on the posts and on their comments, then
// the comments, attachments and group links.
func purgePostRelations(tx *gorm.DB, postIDs []uint) error {
	if len(postIDs) == 0 {
		return nil
	}
	var commentIDs []uint
	if err := tx.Model(&model.Comment{}).Where("post_id IN ?", postIDs).Pluck("id", &commentIDs).Error; err != nil {
		return err
	}
	if len(commentIDs) > 0 {
		if err := tx.Where("comment_id IN ?", commentIDs).Delete(&model.Like{}).Error; err != nil {
			return err
		}
	}
	for _, m := range []interface{}{&model.Like{}, &model.Comment{}, &model.PostAttachment{}, &model.GroupPost{}} {
		if err := tx.Where("post_id IN ?", postIDs).Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *PostRepository) page(ctx context.Context, scope func(*gorm.DB) *gorm.DB, cur *Cursor, limit int) ([]*model.Post, error) {
	q := r.db.WithContext(ctx).Model(&model.Post{}).Select(postTable + ".*")
	q = scope(q)
	q = after(q, postTable, cur)

	var posts []*model.Post
	err := newestFirst(q, postTable).Limit(limit).Find(&posts).Error
	return posts, err
}

// FriendsFeed the viewer's own posts plus friends' public and friends posts.
func (r *PostRepository) FriendsFeed(ctx context.Context, viewerID uint, friendIDs []uint, cur *Cursor, limit int) ([]*model.Post, error) {
	return r.page(ctx, func(q *gorm.DB) *gorm.DB {
		if len(friendIDs) == 0 {
			return q.Where("post.author_id = ?", viewerID)
		}
		return q.Where("post.author_id = ? OR (post.author_id IN ? AND post.visibility IN ?)",
			viewerID, friendIDs, []string{model.VisibilityPublic, model.VisibilityFriends})
	}, cur, limit)
}

// PublicFeed public posts by anyone outside excludeAuthors.
func (r *PostRepository) PublicFeed(ctx context.Context, excludeAuthors []uint, cur *Cursor, limit int) ([]*model.Post, error) {
	return r.page(ctx, func(q *gorm.DB) *gorm.DB {
		q = q.Where("post.visibility = ?", model.VisibilityPublic)
		if len(excludeAuthors) > 0 {
			q = q.Where("post.author_id NOT IN ?", excludeAuthors)
		}
		return q
	}, cur, limit)
}

// ByAuthor posts of one author limited to the given visibilities.
func (r *PostRepository) ByAuthor(ctx context.Context, authorID uint, visibilities []string, cur *Cursor, limit int) ([]*model.Post, error) {
	return r.page(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("post.author_id = ? AND post.visibility IN ?", authorID, visibilities)
	}, cur, limit)
}

// ByGroup posts linked into the group; publicOnly restricts to public visibility.
func (r *PostRepository) ByGroup(ctx context.Context, groupID uint, publicOnly bool, cur *Cursor, limit int) ([]*model.Post, error) {
	return r.page(ctx, func(q *gorm.DB) *gorm.DB {
		q = q.Joins("JOIN group_post ON group_post.post_id = post.id").
			Where("group_post.group_id = ?", groupID)
		if publicOnly {
			q = q.Where("post.visibility = ?", model.VisibilityPublic)
		}
		return q
	}, cur, limit)
}

// GroupIDsOf returns which of the posts are linked to which group.
func (r *PostRepository) GroupIDsOf(ctx context.Context, postIDs []uint) (map[uint]uint, error) {
	out := make(map[uint]uint, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var links []model.GroupPost
	if err := r.db.WithContext(ctx).Where("post_id IN ?", postIDs).Find(&links).Error; err != nil {
		return nil, err
	}
	for _, l := range links {
		out[l.PostID] = l.GroupID
	}
	return out, nil
}

// Search case-insensitive substring over content, newest first, restricted to
// posts the viewer may open: public ones, their own, friends posts of friends
// and anything linked into a group where the viewer is an accepted member.
// Anonymous viewers get public posts only.
func (r *PostRepository) Search(ctx context.Context, term string, viewerID uint, friendIDs []uint, limit int) ([]*model.Post, error) {
	q := r.db.WithContext(ctx).Model(&model.Post{}).
		Where("LOWER(post.content) LIKE ? ESCAPE '!'", containsPattern(term))

	if viewerID == 0 {
		q = q.Where("post.visibility = ?", model.VisibilityPublic)
	} else {
		memberPosts := r.db.Model(&model.GroupPost{}).Select("group_post.post_id").
			Joins("JOIN group_member ON group_member.group_id = group_post.group_id").
			Where("group_member.user_id = ? AND group_member.status = ?", viewerID, model.MembershipAccepted)
		allowed := r.db.Where("post.visibility = ?", model.VisibilityPublic).
			Or("post.author_id = ?", viewerID).
			Or("post.id IN (?)", memberPosts)
		if len(friendIDs) > 0 {
			allowed = allowed.Or("(post.visibility = ? AND post.author_id IN ?)", model.VisibilityFriends, friendIDs)
		}
		q = q.Where(allowed)
	}

	var posts []*model.Post
	err := newestFirst(q, postTable).Limit(limit).Find(&posts).Error
	return posts, err
}

// LikeCounts one grouped query for the whole page.
func (r *PostRepository) LikeCounts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	if len(postIDs) == 0 {
		return map[uint]int64{}, nil
	}
	var rows []idCount
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Select("post_id AS ref_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	return toMap(rows), err
}

func (r *PostRepository) CommentCounts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	if len(postIDs) == 0 {
		return map[uint]int64{}, nil
	}
	var rows []idCount
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Select("post_id AS ref_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	return toMap(rows), err
}

// LikedBy which of the posts userID has liked.
func (r *PostRepository) LikedBy(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if userID == 0 || len(postIDs) == 0 {
		return out, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *PostRepository) Attachments(ctx context.Context, postIDs []uint) (map[uint][]model.PostAttachment, error) {
	out := make(map[uint][]model.PostAttachment)
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []model.PostAttachment
	err := r.db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, a := range rows {
		out[a.PostID] = append(out[a.PostID], a)
	}
	return out, nil
}
