package service

import (
	"context"
	"errors"
	"io"

	apperrors "gastbook/pkg/errors"
	"gastbook/pkg/sanitize"
	"gastbook/pkg/storage"
)

// UploadService puts user files into object storage. Only the returned URL
// is ever stored by other services.
type UploadService struct {
	store   storage.Store
	allowed []string
}

func NewUploadService(store storage.Store, allowed []string) *UploadService {
	if len(allowed) == 0 {
		allowed = storage.ImageTypes
	}
	return &UploadService{store: store, allowed: allowed}
}

func (s *UploadService) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if filename == "" {
		return "", apperrors.Validation("file is required")
	}
	if !sanitize.AllowedFileType(filename, s.allowed) {
		return "", apperrors.Validation("file type not allowed")
	}
	url, err := s.store.Put(ctx, filename, r)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return "", apperrors.Validation("file is too large")
		}
		return "", err
	}
	return url, nil
}
