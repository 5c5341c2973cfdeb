package database

import (
	"context"
	"testing"

	"jobsync/internal/config"
)

func TestNewStoreFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("memory database is migrated", func(t *testing.T) {
		got, err := NewStoreFromConfig(ctx, config.DatabaseConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("NewStoreFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if err := got.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() = %v, want nil", err)
		}
	})

	t.Run("sqlite database", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "sqlite", DataDir: t.TempDir()}
		got, err := NewStoreFromConfig(ctx, cfg)
		if err != nil {
			t.Fatalf("NewStoreFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if err := got.CheckMigrations(); err == nil {
			t.Error("CheckMigrations() on a fresh file database expected error")
		}
	})

	errorCases := []struct {
		name string
		cfg  config.DatabaseConfig
	}{
		{"sqlite database without data_dir", config.DatabaseConfig{Type: "sqlite"}},
		{"postgres database without url", config.DatabaseConfig{Type: "postgres"}},
		{"postgres database with bad url", config.DatabaseConfig{Type: "postgres", URL: "postgres://%zz"}},
		{"unknown database type", config.DatabaseConfig{Type: "unknown"}},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewStoreFromConfig(ctx, tt.cfg)
			if err == nil {
				t.Error("NewStoreFromConfig() expected error, got nil")
			}
			if got != nil {
				t.Error("NewStoreFromConfig() should return nil on error")
				got.Close()
			}
		})
	}
}
