package database

import (
	"context"
	"fmt"
	"path/filepath"

	"jobsync/internal/config"
)

// NewStoreFromConfig creates a store based on the database config type.
// An in-memory store is migrated on open; file and server databases are
// migrated explicitly.
func NewStoreFromConfig(ctx context.Context, cfg config.DatabaseConfig) (*SQLStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "jobsync.db"))
	case "memory":
		s, err := NewSQLiteStore(MemoryPath)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case "postgres":
		if cfg.URL == "" {
			return nil, fmt.Errorf("url required for postgres database")
		}
		return NewPostgresStore(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
