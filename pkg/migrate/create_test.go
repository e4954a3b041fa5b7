package migrate

import (
	"path/filepath"
	"testing"
	"time"
)

func TestCreateSQLMigrationRejectsExistingVersion(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 2, 9, 4, 0, 0, time.UTC)

	path, err := createSQLMigrationAt(dir, "close deadline index", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if want := filepath.Join(dir, "20260302090400_close_deadline_index.sql"); path != want {
		t.Fatalf("expected %s, got %s", want, path)
	}
	if _, err := createSQLMigrationAt(dir, "close deadline index", now); err == nil {
		t.Fatal("expected duplicate migration error")
	}
}
