package sqlitemigrate

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "migrate.db")
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

func TestApplyMigrationsRequiresDB(t *testing.T) {
	t.Parallel()

	err := ApplyMigrations(nil, fstest.MapFS{})
	if err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestApplyMigrationsRunsInOrderOnce(t *testing.T) {
	t.Parallel()

	sqlDB := openTestDB(t)
	migrationFS := fstest.MapFS{
		"0002_insert.sql": {Data: []byte("INSERT INTO notes (body) VALUES ('hello');")},
		"0001_create.sql": {Data: []byte("CREATE TABLE notes (body TEXT);")},
	}

	if err := ApplyMigrations(sqlDB, migrationFS); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	// A second run must be a no-op, not a duplicate insert.
	if err := ApplyMigrations(sqlDB, migrationFS); err != nil {
		t.Fatalf("re-apply migrations: %v", err)
	}

	var count int
	if err := sqlDB.QueryRow("SELECT COUNT(*) FROM notes").Scan(&count); err != nil {
		t.Fatalf("count notes: %v", err)
	}
	if count != 1 {
		t.Fatalf("notes count = %d, want 1", count)
	}
}

func TestApplyMigrationsRecordsFileNames(t *testing.T) {
	t.Parallel()

	sqlDB := openTestDB(t)
	migrationFS := fstest.MapFS{
		"0001_create.sql": {Data: []byte("CREATE TABLE widgets (id INTEGER);")},
	}
	if err := ApplyMigrations(sqlDB, migrationFS); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	var name string
	if err := sqlDB.QueryRow("SELECT name FROM schema_migrations").Scan(&name); err != nil {
		t.Fatalf("read schema_migrations: %v", err)
	}
	if name != "0001_create.sql" {
		t.Fatalf("migration name = %q, want %q", name, "0001_create.sql")
	}
}

func TestIsAlreadyExistsError(t *testing.T) {
	t.Parallel()

	if !IsAlreadyExistsError(errors.New("table notes already exists")) {
		t.Fatal("expected already-exists detection")
	}
	if IsAlreadyExistsError(errors.New("syntax error")) {
		t.Fatal("unexpected already-exists detection")
	}
}
