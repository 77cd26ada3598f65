package repository

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrNotFound no row matched.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate a unique index rejected the write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrBlockedByOther the pair is already blocked by the other party.
	ErrBlockedByOther = errors.New("blocked by the other party")
)

// translate maps gorm sentinel errors onto the package ones.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// Cursor is a keyset position: rows strictly after it in
// (created_at DESC, id DESC) order come next.
type Cursor struct {
	CreatedAt time.Time
	ID        uint
}

// after restricts q to rows past c.
func after(q *gorm.DB, table string, c *Cursor) *gorm.DB {
	if c == nil {
		return q
	}
	return q.Where(
		"("+table+".created_at < ?) OR ("+table+".created_at = ? AND "+table+".id < ?)",
		c.CreatedAt, c.CreatedAt, c.ID,
	)
}

func newestFirst(q *gorm.DB, table string) *gorm.DB {
	return q.Order(table + ".created_at DESC").Order(table + ".id DESC")
}

// idCount scans grouped COUNT(*) rows.
type idCount struct {
	RefID uint
	Total int64
}

func toMap(rows []idCount) map[uint]int64 {
	m := make(map[uint]int64, len(rows))
	for _, r := range rows {
		m[r.RefID] = r.Total
	}
	return m
}

// uintLiteral inlines an id where a driver cannot bind parameters, such as GROUP BY.
func uintLiteral(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// likeEscaper uses '!' since backslash is itself an escape in MySQL string literals.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern is a lower-cased LIKE pattern matching term literally.
// Pair it with ESCAPE '!'.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
