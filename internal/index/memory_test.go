package index

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"jobsync/internal/model"
)

func doc(uid, buid int64) model.SearchDocument {
	return model.SearchDocument{ID: fmt.Sprintf("seo.joblisting.%d", uid), UID: uid, BUID: buid}
}

func TestMemoryIndex(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryIndex()

	var docs []model.SearchDocument
	for uid := int64(1); uid <= 5; uid++ {
		docs = append(docs, doc(uid, 13))
	}
	docs = append(docs, doc(100, 14))
	if err := m.Add(ctx, docs, 30*time.Second); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if m.CommitWithin() != 30*time.Second {
		t.Errorf("CommitWithin() = %v", m.CommitWithin())
	}

	if n, _ := m.Count(ctx, 13); n != 5 {
		t.Errorf("Count(13) = %d, want 5", n)
	}

	t.Run("pages are ordered by uid", func(t *testing.T) {
		first, _ := m.UIDs(ctx, 13, 0, 2)
		second, _ := m.UIDs(ctx, 13, 2, 2)
		third, _ := m.UIDs(ctx, 13, 4, 2)
		past, _ := m.UIDs(ctx, 13, 10, 2)

		if !reflect.DeepEqual(first, []int64{1, 2}) || !reflect.DeepEqual(second, []int64{3, 4}) || !reflect.DeepEqual(third, []int64{5}) {
			t.Errorf("pages = %v %v %v", first, second, third)
		}
		if len(past) != 0 {
			t.Errorf("page past end = %v, want empty", past)
		}
	})

	t.Run("re-adding replaces", func(t *testing.T) {
		updated := doc(3, 13)
		updated.Title = "Head Cook"
		if err := m.Add(ctx, []model.SearchDocument{updated}, time.Second); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if n, _ := m.Count(ctx, 13); n != 5 {
			t.Errorf("Count(13) = %d after replace, want 5", n)
		}
		if got, ok := m.Get(3); !ok || got.Title != "Head Cook" {
			t.Errorf("Get(3) = %+v, %v", got, ok)
		}
	})

	t.Run("deletes", func(t *testing.T) {
		if err := m.DeleteUIDs(ctx, []int64{1, 2, 999}); err != nil {
			t.Fatalf("DeleteUIDs() error = %v", err)
		}
		if n, _ := m.Count(ctx, 13); n != 3 {
			t.Errorf("Count(13) = %d, want 3", n)
		}

		if err := m.DeleteBusinessUnit(ctx, 13); err != nil {
			t.Fatalf("DeleteBusinessUnit() error = %v", err)
		}
		if n, _ := m.Count(ctx, 13); n != 0 {
			t.Errorf("Count(13) = %d, want 0", n)
		}
		if n, _ := m.Count(ctx, 14); n != 1 {
			t.Errorf("Count(14) = %d, want 1", n)
		}
	})
}
