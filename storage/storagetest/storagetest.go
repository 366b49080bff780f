// Package storagetest holds a conformance suite shared by storage backends.
package storagetest

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/light-autom8/mcp-server-go/storage"
)

// StorageFactory creates a new, empty storage instance for testing.
type StorageFactory func(t *testing.T) storage.Storage

// RunStorageTests runs the complete storage test suite against the provided factory.
func RunStorageTests(t *testing.T, factory StorageFactory) {
	t.Run("SetAndGet", func(t *testing.T) {
		testSetAndGet(t, factory(t))
	})
	t.Run("GetNonExistent", func(t *testing.T) {
		testGetNonExistent(t, factory(t))
	})
	t.Run("OverwriteKeepsCreatedAt", func(t *testing.T) {
		testOverwriteKeepsCreatedAt(t, factory(t))
	})
	t.Run("TTL", func(t *testing.T) {
		testTTL(t, factory(t))
	})
	t.Run("CollectionIsolation", func(t *testing.T) {
		testCollectionIsolation(t, factory(t))
	})
	t.Run("List", func(t *testing.T) {
		testList(t, factory(t))
	})
	t.Run("DeleteKey", func(t *testing.T) {
		testDeleteKey(t, factory(t))
	})
	t.Run("DeleteCollection", func(t *testing.T) {
		testDeleteCollection(t, factory(t))
	})
}

func testSetAndGet(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	key := "test-key"
	data := []byte("test data")

	if err := s.Set(ctx, key, data); err != nil {
		t.Fatalf("Failed to set data: %v", err)
	}

	item, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Failed to get data: %v", err)
	}
	if item == nil {
		t.Fatal("Expected item to exist, got nil")
	}
	if string(item.Data) != string(data) {
		t.Errorf("Expected data %s, got %s", data, item.Data)
	}
	if item.CreatedAt.IsZero() {
		t.Error("CreatedAt should not be zero")
	}
	if item.ExpiresAt != nil {
		t.Error("ExpiresAt should be nil for data without TTL")
	}
}

func testGetNonExistent(t *testing.T, s storage.Storage) {
	item, err := s.Get(context.Background(), "non-existent-key")
	if err != nil {
		t.Fatalf("Failed to get non-existent key: %v", err)
	}
	if item != nil {
		t.Error("Expected nil for non-existent key, got item")
	}
}

func testOverwriteKeepsCreatedAt(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	opt := storage.WithCollection("stores")

	if err := s.Set(ctx, "k", []byte("v1"), opt); err != nil {
		t.Fatalf("Set: %v", err)
	}
	first, err := s.Get(ctx, "k", opt)
	if err != nil || first == nil {
		t.Fatalf("Get: item=%v err=%v", first, err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := s.Set(ctx, "k", []byte("v2"), opt); err != nil {
		t.Fatalf("Set: %v", err)
	}
	second, err := s.Get(ctx, "k", opt)
	if err != nil || second == nil {
		t.Fatalf("Get: item=%v err=%v", second, err)
	}
	if string(second.Data) != "v2" {
		t.Fatalf("data = %s, want v2", second.Data)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("CreatedAt changed on overwrite: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
}

func testTTL(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	key := "ttl-key"
	ttl := 100 * time.Millisecond

	if err := s.Set(ctx, key, []byte("ttl data"), storage.WithTTL(ttl)); err != nil {
		t.Fatalf("Failed to set data with TTL: %v", err)
	}

	item, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Failed to get data: %v", err)
	}
	if item == nil {
		t.Fatal("Expected item to exist, got nil")
	}
	if item.ExpiresAt == nil {
		t.Fatal("ExpiresAt should not be nil for data with TTL")
	}

	time.Sleep(ttl + 50*time.Millisecond)

	item, err = s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Failed to get expired data: %v", err)
	}
	if item != nil {
		t.Error("Expected nil for expired data, got item")
	}
}

func testCollectionIsolation(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	key := "shared-key"

	if err := s.Set(ctx, key, []byte("a"), storage.WithCollection("a")); err != nil {
		t.Fatalf("Set a: %v", err)
	}
	if err := s.Set(ctx, key, []byte("b"), storage.WithCollection("b")); err != nil {
		t.Fatalf("Set b: %v", err)
	}

	for _, c := range []string{"a", "b"} {
		item, err := s.Get(ctx, key, storage.WithCollection(c))
		if err != nil || item == nil {
			t.Fatalf("Get %s: item=%v err=%v", c, item, err)
		}
		if string(item.Data) != c {
			t.Fatalf("collection %s returned %s", c, item.Data)
		}
	}

	item, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get global: %v", err)
	}
	if item != nil {
		t.Fatal("global collection should not see collection-scoped keys")
	}
}

func testList(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	opt := storage.WithCollection("files")

	for _, k := range []string{"f1", "f2", "f3"} {
		if err := s.Set(ctx, k, []byte(k), opt); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}
	if err := s.Set(ctx, "other", []byte("x"), storage.WithCollection("stores")); err != nil {
		t.Fatalf("Set other: %v", err)
	}

	entries, err := s.List(ctx, opt)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var keys []string
	for _, e := range entries {
		if string(e.Item.Data) != e.Key {
			t.Fatalf("entry %s has data %s", e.Key, e.Item.Data)
		}
		keys = append(keys, e.Key)
	}
	sort.Strings(keys)
	if len(keys) != 3 || keys[0] != "f1" || keys[1] != "f2" || keys[2] != "f3" {
		t.Fatalf("List keys = %v, want [f1 f2 f3]", keys)
	}

	empty, err := s.List(ctx, storage.WithCollection("nothing-here"))
	if err != nil {
		t.Fatalf("List empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty list, got %d entries", len(empty))
	}
}

func testDeleteKey(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	opt := storage.WithCollection("stores")

	if err := s.Set(ctx, "keep", []byte("1"), opt); err != nil {
		t.Fatalf("Set keep: %v", err)
	}
	if err := s.Set(ctx, "drop", []byte("2"), opt); err != nil {
		t.Fatalf("Set drop: %v", err)
	}
	if err := s.Delete(ctx, opt, storage.WithKey("drop")); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if item, _ := s.Get(ctx, "drop", opt); item != nil {
		t.Fatal("deleted key still present")
	}
	if item, _ := s.Get(ctx, "keep", opt); item == nil {
		t.Fatal("unrelated key was deleted")
	}
}

func testDeleteCollection(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	if err := s.Set(ctx, "k1", []byte("1"), storage.WithCollection("gone")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "k2", []byte("2"), storage.WithCollection("gone")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "k1", []byte("1"), storage.WithCollection("kept")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := s.Delete(ctx, storage.WithCollection("gone")); err != nil {
		t.Fatalf("Delete collection: %v", err)
	}

	entries, err := s.List(ctx, storage.WithCollection("gone"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected collection to be empty, got %d entries", len(entries))
	}
	if item, _ := s.Get(ctx, "k1", storage.WithCollection("kept")); item == nil {
		t.Fatal("other collection was affected by delete")
	}
}
