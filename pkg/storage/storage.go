package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gastbook/config"

	"github.com/google/uuid"
)

// ErrTooLarge is returned once more than the configured limit was read.
var ErrTooLarge = errors.New("upload exceeds size limit")

// ImageTypes accepted by the upload endpoint.
var ImageTypes = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// Store keeps uploaded objects and hands back their public URL.
type Store interface {
	Put(ctx context.Context, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// LocalStore writes objects under Dir, served statically at BaseURL.
type LocalStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

func NewLocalStore(cfg config.StorageConfig) (*LocalStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{
		dir:      cfg.Dir,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		maxBytes: int64(cfg.MaxUploadMB) << 20,
	}, nil
}

// Dir is where objects live, for static serving.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Put stores r under a random name that keeps the original extension.
func (s *LocalStore) Put(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	defer dst.Close()

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(dst, src)
	if err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write object: %w", err)
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		_ = os.Remove(dst.Name())
		return "", ErrTooLarge
	}

	return s.baseURL + "/" + name, nil
}

// Delete removes an object previously returned by Put. Unknown URLs are ignored.
func (s *LocalStore) Delete(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return nil
	}
	name := path.Base(url)
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
