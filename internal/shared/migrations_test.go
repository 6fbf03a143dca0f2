package shared

import (
	"database/sql"
	"errors"
	"slices"
	"testing"
)

func newMigratedDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	return n == 1
}

func TestMigrations(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}
		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}
		if migrations[0].Version != 0 || migrations[0].Name != "create_history" {
			t.Errorf("unexpected first migration %d_%s", migrations[0].Version, migrations[0].Name)
		}
		if !slices.IsSortedFunc(migrations, func(a, b Migration) int { return a.Version - b.Version }) {
			t.Error("migrations not sorted by version")
		}
	})

	t.Run("creates the history schema", func(t *testing.T) {
		db := newMigratedDB(t)

		for _, table := range []string{"export_runs", "export_records", "schema_migrations"} {
			if !tableExists(t, db, table) {
				t.Errorf("expected table %s", table)
			}
		}

		version, applied, err := SchemaVersion(db)
		if err != nil {
			t.Fatalf("failed to read schema version: %v", err)
		}
		if !applied || version != 0 {
			t.Errorf("expected version 0 applied, got %d (applied=%v)", version, applied)
		}
	})

	t.Run("records cascade with their run", func(t *testing.T) {
		db := newMigratedDB(t)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			t.Fatalf("failed to enable foreign keys: %v", err)
		}

		_, err := db.Exec(`INSERT INTO export_runs (id, started_at, output_dir) VALUES ('r1', CURRENT_TIMESTAMP, '/out')`)
		if err != nil {
			t.Fatalf("failed to insert run: %v", err)
		}
		_, err = db.Exec(`INSERT INTO export_records (run_id, playlist_id, playlist_name, recorded_at)
			VALUES ('r1', 'p1', 'One', CURRENT_TIMESTAMP)`)
		if err != nil {
			t.Fatalf("failed to insert record: %v", err)
		}

		if _, err := db.Exec("DELETE FROM export_runs WHERE id = 'r1'"); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM export_records").Scan(&n); err != nil {
			t.Fatalf("failed to count records: %v", err)
		}
		if n != 0 {
			t.Errorf("expected records to be deleted with the run, got %d", n)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		db := newMigratedDB(t)
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}
		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d applied migrations, got %d", len(migrations), count)
		}
	})

	t.Run("rollback drops the history tables", func(t *testing.T) {
		db := newMigratedDB(t)

		version, err := RollbackMigration(db)
		if err != nil {
			t.Fatalf("failed to roll back: %v", err)
		}
		if version != 0 {
			t.Errorf("expected version 0 rolled back, got %d", version)
		}
		if tableExists(t, db, "export_runs") || tableExists(t, db, "export_records") {
			t.Error("history tables should be dropped")
		}
		if _, applied, _ := SchemaVersion(db); applied {
			t.Error("no migration should remain applied")
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to migrate again: %v", err)
		}
		if !tableExists(t, db, "export_runs") {
			t.Error("export_runs should be recreated")
		}
	})

	t.Run("rollback with nothing applied", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if _, err := RollbackMigration(db); !errors.Is(err, ErrNoMigrations) {
			t.Errorf("expected ErrNoMigrations, got %v", err)
		}
	})
}

func TestStatements(t *testing.T) {
	script := `
-- leading comment
CREATE TABLE a (id INTEGER); -- trailing
;

CREATE INDEX idx ON a(id);
`
	got := statements(script)
	want := []string{"CREATE TABLE a (id INTEGER)", "CREATE INDEX idx ON a(id)"}
	if !slices.Equal(got, want) {
		t.Errorf("statements() = %q, want %q", got, want)
	}
}
