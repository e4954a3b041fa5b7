package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/pintuan-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestGroupOrdersMigration(t *testing.T) {
	assertContains(t, readMigration(t, "create_group_orders"), []string{
		"CREATE TABLE IF NOT EXISTS group_orders",
		"settled_total numeric(12,2)",
		"CHECK (status = 'finished' OR (settled_total IS NULL AND actual_finish_time IS NULL))",
		"ON group_orders (status, close_deadline)",
		"DROP TABLE IF EXISTS group_orders",
	})
}

func TestIndividualOrdersMigration(t *testing.T) {
	assertContains(t, readMigration(t, "create_individual_orders"), []string{
		"CREATE TABLE IF NOT EXISTS individual_orders",
		"FOREIGN KEY (group_order_id) REFERENCES group_orders(id) ON DELETE SET NULL",
		"CHECK (refund_price IS NULL OR (refund_price > 0 AND refund_price <= total_price))",
		"ON individual_orders (group_order_id, created_at, id)",
		"DROP TABLE IF EXISTS individual_orders",
	})
}

func TestEnumsMigrationCoversStatuses(t *testing.T) {
	assertContains(t, readMigration(t, "create_order_enums"), []string{
		"CREATE TYPE group_order_status AS ENUM ('pending', 'open', 'finished', 'canceled')",
		"'refund_applying'",
		"'group_closed'",
		"DROP TYPE IF EXISTS group_order_status",
	})
}

func TestDeliveryMigration(t *testing.T) {
	assertContains(t, readMigration(t, "add_individual_order_delivery"), []string{
		"ALTER TYPE notification_type ADD VALUE IF NOT EXISTS 'order_shipped'",
		"CREATE TYPE delivery_type AS ENUM ('express', 'local_delivery', 'pickup')",
		"ADD COLUMN shipped_at timestamptz",
		"CHECK (delivery_type IS DISTINCT FROM 'express' OR (delivery_carrier IS NOT NULL AND delivery_tracking_no IS NOT NULL))",
		"DROP TYPE IF EXISTS delivery_type",
	})
}

func TestValidateDirAcceptsRepoMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestScanDirOrdersByVersion(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose StatementEnd\n\n-- +goose Down\nSELECT 1;\n"
	for _, name := range []string{"20260302090300_later.sql", "20260302090100_earlier.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	files, err := migrate.ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(files))
	}
	if files[0].Version != 20260302090100 || files[0].Name != "earlier" || files[1].Name != "later" {
		t.Fatalf("unexpected order %+v", files)
	}
}

func TestScanDirRepoMigrationsEndWithDelivery(t *testing.T) {
	files, err := migrate.ScanDir("migrations")
	if err != nil {
		t.Fatalf("ScanDir: %v", err)
	}
	if latest := files[len(files)-1]; latest.Name != "add_individual_order_delivery" {
		t.Fatalf("unexpected latest migration %+v", latest)
	}
}

func TestScanDirRejectsMalformedAnnotations(t *testing.T) {
	cases := map[string]string{
		"down before up":       "-- +goose Down\nSELECT 1;\n-- +goose Up\nSELECT 1;\n",
		"unterminated block":   "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\nSELECT 1;\n",
		"nested block":         "-- +goose Up\n-- +goose StatementBegin\n-- +goose StatementBegin\n-- +goose StatementEnd\n-- +goose Down\n",
		"stray end":            "-- +goose Up\n-- +goose StatementEnd\n-- +goose Down\n",
		"duplicate up section": "-- +goose Up\nSELECT 1;\n-- +goose Up\n-- +goose Down\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, "20260101000000_things.sql"), []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := migrate.ScanDir(dir); err == nil {
				t.Fatal("expected annotation error")
			}
		})
	}
}

func TestScanDirRejectsDuplicateVersions(t *testing.T) {
	dir := t.TempDir()
	body := []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n")
	for _, name := range []string{"20260101000000_a.sql", "20260101000000_b.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if _, err := migrate.ScanDir(dir); err == nil || !strings.Contains(err.Error(), "duplicate migration version") {
		t.Fatalf("expected duplicate version error, got %v", err)
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "create_things.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}

	dir = t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "20260101000000_things.sql"), []byte("-- +goose Up\nSELECT 1;\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil || !strings.Contains(err.Error(), "goose Down") {
		t.Fatalf("expected missing down annotation error, got %v", err)
	}

	if err := migrate.ValidateDir(t.TempDir()); err == nil {
		t.Fatal("expected empty dir error")
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Refund Index!")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_refund_index.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
	if _, err := migrate.CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatal("expected sanitized-empty name error")
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := migrate.ParseVersion("20260302090100"); err != nil || v != 20260302090100 {
		t.Fatalf("unexpected parse result %d %v", v, err)
	}
	for _, raw := range []string{"", "2026", "2026030209010x"} {
		if _, err := migrate.ParseVersion(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
