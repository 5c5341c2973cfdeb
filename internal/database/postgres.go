package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"jobsync/internal/database/migrations"
)

// NewPostgresStore connects to PostgreSQL through a pgx pool exposed as a
// *sql.DB. The pool is closed with the store.
func NewPostgresStore(ctx context.Context, url string) (*SQLStore, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to %s: %w", cfg.ConnConfig.Host, err)
	}

	return &SQLStore{
		db:      stdlib.OpenDBFromPool(pool),
		dialect: migrations.Postgres,
		path:    fmt.Sprintf("postgres://%s:%d/%s", cfg.ConnConfig.Host, cfg.ConnConfig.Port, cfg.ConnConfig.Database),
		onClose: pool.Close,
	}, nil
}
