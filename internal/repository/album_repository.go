package repository

import (
	"context"

	"gastbook/internal/model"

	"gorm.io/gorm"
)

type AlbumRepository struct {
	db *gorm.DB
}

func NewAlbumRepository(db *gorm.DB) *AlbumRepository {
	return &AlbumRepository{db: db}
}

func (r *AlbumRepository) Create(ctx context.Context, a *model.Album) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AlbumRepository) GetByID(ctx context.Context, id uint) (*model.Album, error) {
	var a model.Album
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *AlbumRepository) ListByOwner(ctx context.Context, ownerID uint) ([]*model.Album, error) {
	var albums []*model.Album
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").Order("id DESC").
		Find(&albums).Error
	return albums, err
}

func (r *AlbumRepository) AddPhoto(ctx context.Context, p *model.AlbumPhoto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *AlbumRepository) ListPhotos(ctx context.Context, albumID uint) ([]*model.AlbumPhoto, error) {
	var photos []*model.AlbumPhoto
	err := r.db.WithContext(ctx).
		Where("album_id = ?", albumID).
		Order("id ASC").
		Find(&photos).Error
	return photos, err
}

// Delete removes the owner's album with its photos and returns the photo
// URLs so the caller can clean up storage.
func (r *AlbumRepository) Delete(ctx context.Context, id, ownerID uint) ([]string, bool, error) {
	var urls []string
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&model.Album{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		if err := tx.Model(&model.AlbumPhoto{}).Where("album_id = ?", id).Pluck("url", &urls).Error; err != nil {
			return err
		}
		return tx.Where("album_id = ?", id).Delete(&model.AlbumPhoto{}).Error
	})
	return urls, deleted, err
}
