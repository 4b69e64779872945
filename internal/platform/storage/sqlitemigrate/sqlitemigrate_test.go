package sqlitemigrate

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestApplyRunsOnce(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"0001_create.sql": {Data: []byte(`-- +migrate Up
CREATE TABLE things (id TEXT PRIMARY KEY);
-- +migrate Down
DROP TABLE things;`)},
	}

	if err := Apply(db, fsys); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// Re-applying must skip the already-applied file; CREATE TABLE without
	// IF NOT EXISTS would fail otherwise.
	if err := Apply(db, fsys); err != nil {
		t.Fatalf("Apply again: %v", err)
	}

	if _, err := db.Exec("INSERT INTO things (id) VALUES ('a')"); err != nil {
		t.Fatalf("table not usable after migration: %v", err)
	}
}

func TestApplyOrdersByName(t *testing.T) {
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"0002_alter.sql":  {Data: []byte(`ALTER TABLE things ADD COLUMN name TEXT;`)},
		"0001_create.sql": {Data: []byte(`CREATE TABLE things (id TEXT PRIMARY KEY);`)},
	}

	if err := Apply(db, fsys); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := db.Exec("INSERT INTO things (id, name) VALUES ('a', 'b')"); err != nil {
		t.Fatalf("migrations applied out of order: %v", err)
	}
}

func TestUpSectionWithoutMarkers(t *testing.T) {
	sql := "CREATE TABLE t (id TEXT);"
	if got := upSection(sql); got != sql {
		t.Fatalf("upSection = %q, want full content", got)
	}
}
