// Package memory provides an in-memory implementation of the storage interface
// using github.com/hashicorp/golang-lru/v2 for bounded caching with TTL support.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/light-autom8/mcp-server-go/storage"
)

// Storage implements the storage.Storage interface using in-memory storage
type Storage struct {
	mu     sync.RWMutex
	cache  *lru.Cache[string, *storage.StorageItem]
	pinned map[string]*storage.StorageItem
	keep   map[string]bool
}

// Option configures a memory Storage.
type Option func(*Storage)

// WithPinnedCollections keeps every entry of the named collections outside
// the LRU. Pinned entries are never evicted and do not count towards
// maxItems; they only leave through Delete or TTL expiry.
func WithPinnedCollections(collections ...string) Option {
	return func(s *Storage) {
		for _, c := range collections {
			s.keep[c] = true
		}
	}
}

// New creates a new in-memory storage implementation holding at most
// maxItems entries; the least recently used entry is evicted beyond that.
func New(maxItems int, opts ...Option) (*Storage, error) {
	cache, err := lru.New[string, *storage.StorageItem](maxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	s := &Storage{
		cache:  cache,
		pinned: make(map[string]*storage.StorageItem),
		keep:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get retrieves data for a specific key within the given collection
func (s *Storage) Get(ctx context.Context, key string, opts ...storage.Option) (*storage.StorageItem, error) {
	options := storage.Apply(opts...)
	storageKey := buildKey(options.Collection, key)
	pinned := s.keep[options.Collection]

	var (
		item   *storage.StorageItem
		exists bool
	)
	s.mu.RLock()
	if pinned {
		item, exists = s.pinned[storageKey]
	} else {
		item, exists = s.cache.Get(storageKey)
	}
	s.mu.RUnlock()

	if !exists {
		return nil, nil
	}

	if item.IsExpired() {
		s.mu.Lock()
		s.remove(options.Collection, storageKey)
		s.mu.Unlock()
		return nil, nil
	}

	return cloneItem(item), nil
}

// Set stores data for a specific key within the given collection
func (s *Storage) Set(ctx context.Context, key string, data []byte, opts ...storage.Option) error {
	options := storage.Apply(opts...)
	storageKey := buildKey(options.Collection, key)

	now := time.Now()
	item := &storage.StorageItem{
		Data:      make([]byte, len(data)),
		CreatedAt: now,
	}
	copy(item.Data, data)

	if options.TTL != nil {
		expiresAt := now.Add(*options.TTL)
		item.ExpiresAt = &expiresAt
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Overwrites keep the original creation time.
	if prev, ok := s.peek(options.Collection, storageKey); ok && !prev.IsExpired() {
		item.CreatedAt = prev.CreatedAt
	}
	if s.keep[options.Collection] {
		s.pinned[storageKey] = item
	} else {
		s.cache.Add(storageKey, item)
	}
	return nil
}

// List returns all live entries of a collection.
func (s *Storage) List(ctx context.Context, opts ...storage.Option) ([]storage.Entry, error) {
	options := storage.Apply(opts...)
	prefix := buildPrefix(options.Collection)

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []storage.Entry
	for _, key := range s.keys(options.Collection, prefix) {
		item, ok := s.peek(options.Collection, key)
		if !ok {
			continue
		}
		if item.IsExpired() {
			s.remove(options.Collection, key)
			continue
		}
		out = append(out, storage.Entry{Key: strings.TrimPrefix(key, prefix), Item: cloneItem(item)})
	}
	return out, nil
}

// Delete removes data within the given collection
func (s *Storage) Delete(ctx context.Context, opts ...storage.Option) error {
	options := storage.Apply(opts...)

	s.mu.Lock()
	defer s.mu.Unlock()

	if options.Key != nil {
		s.remove(options.Collection, buildKey(options.Collection, *options.Key))
		return nil
	}

	// LRU doesn't provide prefix iteration
	prefix := buildPrefix(options.Collection)
	for _, key := range s.keys(options.Collection, prefix) {
		s.remove(options.Collection, key)
	}
	return nil
}

// Close closes the storage backend and releases resources
func (s *Storage) Close() error {
	s.mu.Lock()
	s.cache.Purge()
	clear(s.pinned)
	s.mu.Unlock()
	return nil
}

// peek, remove and keys route a collection to the pinned map or the LRU.
// Callers hold s.mu.

func (s *Storage) peek(collection, storageKey string) (*storage.StorageItem, bool) {
	if s.keep[collection] {
		item, ok := s.pinned[storageKey]
		return item, ok
	}
	return s.cache.Peek(storageKey)
}

func (s *Storage) remove(collection, storageKey string) {
	if s.keep[collection] {
		delete(s.pinned, storageKey)
		return
	}
	s.cache.Remove(storageKey)
}

func (s *Storage) keys(collection, prefix string) []string {
	var out []string
	if s.keep[collection] {
		for key := range s.pinned {
			if strings.HasPrefix(key, prefix) {
				out = append(out, key)
			}
		}
		return out
	}
	for _, key := range s.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	return out
}

func buildPrefix(collection string) string {
	if collection == "" {
		return "global:"
	}
	return "collection:" + collection + ":"
}

func buildKey(collection, key string) string {
	return buildPrefix(collection) + key
}

func cloneItem(item *storage.StorageItem) *storage.StorageItem {
	out := *item
	out.Data = append([]byte(nil), item.Data...)
	return &out
}

// Compile-time interface check
var _ storage.Storage = (*Storage)(nil)
