package test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hrygo/taskpilot/internal/profile"
	"github.com/hrygo/taskpilot/store"
	"github.com/hrygo/taskpilot/store/db"
)

// NewTestingStore creates a store backed by a fresh SQLite database
// in a per-test temporary directory, with migrations applied.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "taskpilot_test.db"),
	}

	driver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create database driver: %v", err)
	}
	t.Cleanup(func() {
		driver.Close()
	})

	s := store.New(driver, p)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return s
}
