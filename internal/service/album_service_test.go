package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"gastbook/internal/repository"
	apperrors "gastbook/pkg/errors"
	"gastbook/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string]string
	deleted []string
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string]string)}
}

func (s *memStore) Put(_ context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if len(data) > 16 {
		return "", storage.ErrTooLarge
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	url := "/uploads/" + filename
	s.objects[url] = string(data)
	return url, nil
}

func (s *memStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, url)
	s.deleted = append(s.deleted, url)
	return nil
}

func TestAlbum_Lifecycle(t *testing.T) {
	e := newEnv(t)
	store := newMemStore()
	albums := NewAlbumService(repository.NewAlbumRepository(e.db), e.users, store)
	a, b := e.user(t, "ana"), e.user(t, "ben")

	_, err := albums.Create(ctx, a, AlbumInput{Title: "  "})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))

	album, err := albums.Create(ctx, a, AlbumInput{Title: "Summer", Description: "beach days"})
	require.NoError(t, err)

	_, err = albums.AddPhoto(ctx, a, album.ID, PhotoInput{URL: "/uploads/one.jpg", Caption: "sunset"})
	require.NoError(t, err)
	_, err = albums.AddPhoto(ctx, a, album.ID, PhotoInput{URL: "/uploads/two.jpg"})
	require.NoError(t, err)
	_, err = albums.AddPhoto(ctx, b, album.ID, PhotoInput{URL: "/uploads/x.jpg"})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeForbidden))

	list, err := albums.ListByOwner(ctx, a)
	require.NoError(t, err)
	require.Len(t, list, 1)

	photos, err := albums.Photos(ctx, album.ID)
	require.NoError(t, err)
	assert.Len(t, photos, 2)

	assert.True(t, apperrors.Is(albums.Delete(ctx, b, album.ID), apperrors.ErrCodeForbidden))
	require.NoError(t, albums.Delete(ctx, a, album.ID))
	assert.ElementsMatch(t, []string{"/uploads/one.jpg", "/uploads/two.jpg"}, store.deleted)

	_, err = albums.Photos(ctx, album.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
	_, err = albums.ListByOwner(ctx, 9999)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
}

func TestUpload(t *testing.T) {
	uploads := NewUploadService(newMemStore(), nil)

	url, err := uploads.Upload(ctx, "cat.png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/cat.png", url)

	tests := []struct {
		name     string
		filename string
		body     string
	}{
		{"no file", "", "x"},
		{"bad type", "run.exe", "x"},
		{"too large", "big.jpg", strings.Repeat("x", 17)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uploads.Upload(ctx, tt.filename, strings.NewReader(tt.body))
			assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
		})
	}
}
