package migrations

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db, SQLite); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	tables := []string{"business_units", "job_listings", "mocs", "moc_onets", "sync_runs", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestCheckDBMigrationStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	err := CheckDBMigrationStatus(db, SQLite)
	if err == nil {
		t.Fatal("CheckDBMigrationStatus() expected error for fresh database, got nil")
	}
	if err.Error() != "database has no schema version (needs migration)" {
		t.Errorf("CheckDBMigrationStatus() error = %q, want error about needing migration", err.Error())
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db, SQLite); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}
	if err := MigrateUp(db, SQLite); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}
	if err := CheckDBMigrationStatus(db, SQLite); err != nil {
		t.Errorf("CheckDBMigrationStatus() after double migration returned error: %v", err)
	}
}

func TestMigrateUp_UnknownDialect(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db, Dialect("oracle")); err == nil {
		t.Error("MigrateUp() expected error for unknown dialect")
	}
}

func TestSchema_PostgresFilesMatchSQLite(t *testing.T) {
	sqlite, err := migrationFiles.ReadDir("files/sqlite")
	if err != nil {
		t.Fatalf("reading sqlite migrations: %v", err)
	}
	postgres, err := migrationFiles.ReadDir("files/postgres")
	if err != nil {
		t.Fatalf("reading postgres migrations: %v", err)
	}
	if len(sqlite) != len(postgres) {
		t.Fatalf("sqlite has %d migration files, postgres has %d", len(sqlite), len(postgres))
	}
	for i := range sqlite {
		if sqlite[i].Name() != postgres[i].Name() {
			t.Errorf("migration %d: sqlite %s, postgres %s", i, sqlite[i].Name(), postgres[i].Name())
		}
	}
}

func TestForeignKeyConstraints(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db, SQLite); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	_, err := db.Exec(`
		INSERT INTO job_listings (uid, buid, title, link, date_new)
		VALUES (1, 999, 'Cook', 'http://example.com', datetime('now'))
	`)
	if err == nil {
		t.Error("Expected foreign key constraint violation, but insert succeeded")
	}
}

func TestSchema_JobUIDUnique(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db, SQLite); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO business_units (id, title) VALUES (13, 'Acme')"); err != nil {
		t.Fatalf("Failed to insert business unit: %v", err)
	}

	insert := "INSERT INTO job_listings (uid, buid, title, link, date_new) VALUES (1001, 13, 'Cook', 'http://example.com', datetime('now'))"
	if _, err := db.Exec(insert); err != nil {
		t.Fatalf("Failed to insert first job: %v", err)
	}
	if _, err := db.Exec(insert); err == nil {
		t.Error("Expected unique constraint violation for duplicate uid, but insert succeeded")
	}
}

// openTestDB opens an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}
	return db
}
