package memory

import (
	"context"
	"testing"

	"github.com/light-autom8/mcp-server-go/storage"
	"github.com/light-autom8/mcp-server-go/storage/storagetest"
)

func TestMemoryStorage(t *testing.T) {
	storagetest.RunStorageTests(t, func(t *testing.T) storage.Storage {
		s, err := New(100)
		if err != nil {
			t.Fatalf("New() failed: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestNewRejectsInvalidSize(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for zero capacity")
	}
}

func TestEviction(t *testing.T) {
	s, err := New(2)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		if err := s.Set(ctx, k, []byte(k), storage.WithCollection("stores")); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}

	item, err := s.Get(ctx, "a", storage.WithCollection("stores"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if item != nil {
		t.Fatal("expected least recently used key to be evicted")
	}
	entries, err := s.List(ctx, storage.WithCollection("stores"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after eviction, got %d", len(entries))
	}
}

func TestPinnedCollectionsAreNotEvicted(t *testing.T) {
	s, err := New(2, WithPinnedCollections("stores"))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		if err := s.Set(ctx, k, []byte(k), storage.WithCollection("stores")); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}
	for _, k := range []string{"x", "y", "z"} {
		if err := s.Set(ctx, k, []byte(k), storage.WithCollection("files")); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}

	for _, k := range []string{"a", "b", "c"} {
		item, err := s.Get(ctx, k, storage.WithCollection("stores"))
		if err != nil || item == nil || string(item.Data) != k {
			t.Fatalf("pinned %s = %v, %v", k, item, err)
		}
	}
	files, err := s.List(ctx, storage.WithCollection("files"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected unpinned collection to stay bounded, got %d entries", len(files))
	}

	if err := s.Delete(ctx, storage.WithCollection("stores"), storage.WithKey("a")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	stores, err := s.List(ctx, storage.WithCollection("stores"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(stores) != 2 {
		t.Fatalf("expected 2 pinned entries after delete, got %d", len(stores))
	}
}

func TestPinnedCollectionsRunStorageTests(t *testing.T) {
	storagetest.RunStorageTests(t, func(t *testing.T) storage.Storage {
		s, err := New(100, WithPinnedCollections("", "a", "b", "files", "gone", "kept", "nothing-here", "stores"))
		if err != nil {
			t.Fatalf("New() failed: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
