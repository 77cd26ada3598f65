package service

import (
	"context"
	"errors"
	"strings"

	"gastbook/internal/model"
	"gastbook/internal/repository"
	apperrors "gastbook/pkg/errors"
	"gastbook/pkg/logger"
	"gastbook/pkg/sanitize"
	"gastbook/pkg/storage"

	"go.uber.org/zap"
)

const maxCaptionLength = 255

type AlbumInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type PhotoInput struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// AlbumService albums are public, like the owner's profile page.
type AlbumService struct {
	albums *repository.AlbumRepository
	users  *repository.UserRepository
	store  storage.Store
}

func NewAlbumService(albums *repository.AlbumRepository, users *repository.UserRepository, store storage.Store) *AlbumService {
	return &AlbumService{albums: albums, users: users, store: store}
}

func (s *AlbumService) Create(ctx context.Context, ownerID uint, in AlbumInput) (*model.Album, error) {
	title := sanitize.Text(in.Title, sanitize.MaxNameLength)
	if title == "" {
		return nil, apperrors.Validation("album title is required")
	}
	a := &model.Album{
		OwnerID:     ownerID,
		Title:       title,
		Description: sanitize.Text(in.Description, sanitize.MaxBioLength),
	}
	if err := s.albums.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AlbumService) ListByOwner(ctx context.Context, ownerID uint) ([]*model.Album, error) {
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, err
	}
	albums, err := s.albums.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if albums == nil {
		albums = []*model.Album{}
	}
	return albums, nil
}

func (s *AlbumService) get(ctx context.Context, albumID uint) (*model.Album, error) {
	a, err := s.albums.GetByID(ctx, albumID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("album not found")
		}
		return nil, err
	}
	return a, nil
}

// AddPhoto owner only. URL normally comes from the upload endpoint.
func (s *AlbumService) AddPhoto(ctx context.Context, ownerID, albumID uint, in PhotoInput) (*model.AlbumPhoto, error) {
	url := strings.TrimSpace(in.URL)
	if url == "" || len(url) > 512 {
		return nil, apperrors.Validation("invalid photo url")
	}
	a, err := s.get(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if a.OwnerID != ownerID {
		return nil, apperrors.Forbidden("you can only add photos to your own albums")
	}

	p := &model.AlbumPhoto{AlbumID: albumID, URL: url, Caption: sanitize.Text(in.Caption, maxCaptionLength)}
	if err := s.albums.AddPhoto(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *AlbumService) Photos(ctx context.Context, albumID uint) ([]*model.AlbumPhoto, error) {
	if _, err := s.get(ctx, albumID); err != nil {
		return nil, err
	}
	photos, err := s.albums.ListPhotos(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []*model.AlbumPhoto{}
	}
	return photos, nil
}

// Delete removes the album and its photos, then the stored objects.
func (s *AlbumService) Delete(ctx context.Context, ownerID, albumID uint) error {
	a, err := s.get(ctx, albumID)
	if err != nil {
		return err
	}
	if a.OwnerID != ownerID {
		return apperrors.Forbidden("you can only delete your own albums")
	}

	urls, ok, err := s.albums.Delete(ctx, albumID, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("album not found")
	}

	if s.store != nil {
		for _, u := range urls {
			if err := s.store.Delete(ctx, u); err != nil {
				logger.Warn("delete album object", zap.String("url", u), zap.Error(err))
			}
		}
	}
	return nil
}
