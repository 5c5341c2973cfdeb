package database

import (
	"database/sql"
	"fmt"

	"jobsync/internal/database/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

// NewSQLiteStore opens the SQLite database at path, which may be MemoryPath.
func NewSQLiteStore(path string) (*SQLStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLStore{db: db, dialect: migrations.SQLite, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection pool. Foreign keys
// are enforced on every pooled connection. An in-memory database is limited
// to a single connection since each connection would see its own database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
