package database

import (
	"path/filepath"
	"testing"
)

// NewTestDB creates a migrated throwaway database rooted in the test's temp
// directory. It is closed automatically when the test finishes.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "cadence_test.db"),
		Profile: ProfileEphemeral,
		Name:    "test",
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}
