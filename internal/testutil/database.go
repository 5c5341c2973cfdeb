package testutil

import (
	"context"
	"testing"

	"jobsync/internal/database"
	"jobsync/internal/model"
)

// NewTestStore creates a migrated in-memory SQLite store.
// The store is automatically closed when the test completes.
func NewTestStore(t *testing.T) *database.SQLStore {
	t.Helper()

	s, err := database.NewSQLiteStore(database.MemoryPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return s
}

// SeedBusinessUnit stores a business unit with the given id and title.
func SeedBusinessUnit(t *testing.T, s *database.SQLStore, id int64, title string) *model.BusinessUnit {
	t.Helper()

	bu := &model.BusinessUnit{ID: id, Title: title}
	if err := s.SaveBusinessUnit(context.Background(), bu); err != nil {
		t.Fatalf("failed to seed business unit %d: %v", id, err)
	}
	return bu
}
