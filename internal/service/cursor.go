package service

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gastbook/internal/repository"
	apperrors "gastbook/pkg/errors"
)

// EncodeCursor packs (created_at, id) into an opaque token.
func EncodeCursor(c repository.Cursor) string {
	raw := fmt.Sprintf("%d:%d", c.CreatedAt.UTC().UnixNano(), c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor returns nil for an empty token.
func DecodeCursor(token string) (*repository.Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, apperrors.Validation("invalid cursor")
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return nil, apperrors.Validation("invalid cursor")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, apperrors.Validation("invalid cursor")
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || id == 0 {
		return nil, apperrors.Validation("invalid cursor")
	}
	return &repository.Cursor{CreatedAt: time.Unix(0, nanos).UTC(), ID: uint(id)}, nil
}

// pageSize applies the default and clamps to max.
func pageSize(requested, def, max int) int {
	if requested <= 0 {
		requested = def
	}
	if max > 0 && requested > max {
		requested = max
	}
	return requested
}

// trimPage drops the look-ahead row and builds the next cursor from the last kept one.
func trimPage[T any](rows []T, size int, key func(T) repository.Cursor) ([]T, string) {
	if len(rows) <= size {
		return rows, ""
	}
	rows = rows[:size]
	return rows, EncodeCursor(key(rows[len(rows)-1]))
}
