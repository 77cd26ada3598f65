// Package dbtest opens throwaway SQLite databases for tests.
package dbtest

import (
	"testing"

	"gastbook/internal/model"
	"gastbook/pkg/db"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated in-memory database private to the test.
// The pool is pinned to one connection so every statement sees the same memory database.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := db.GormConfig(false)
	cfg.Logger = logger.Default.LogMode(logger.Silent)
	cfg.PrepareStmt = false

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := gdb.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}
