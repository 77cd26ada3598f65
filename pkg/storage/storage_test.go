package storage

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"gastbook/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(config.StorageConfig{Dir: dir, BaseURL: "/uploads/", MaxUploadMB: 1})
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "Cat.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.Equal(t, ".png", path.Ext(url))

	data, err := os.ReadFile(filepath.Join(dir, path.Base(url)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, s.Delete(context.Background(), url))
	_, err = os.Stat(filepath.Join(dir, path.Base(url)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(context.Background(), "https://elsewhere/x.png"))
}

func TestLocalStore_TooLarge(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(config.StorageConfig{Dir: dir, BaseURL: "/uploads", MaxUploadMB: 1})
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "big.jpg", bytes.NewReader(make([]byte, 1<<20+1)))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
