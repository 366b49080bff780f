// Package storage provides the key/value persistence interface used by the
// vector store tool set. Keys live in named collections so one backend can
// hold several record kinds side by side.
package storage

import (
	"context"
	"errors"
	"time"
)

// Storage defines the primary interface for collection-scoped data storage
type Storage interface {
	// Get retrieves data for a specific key within the given collection
	// Returns nil StorageItem if key doesn't exist or has expired
	// Returns error only for legitimate storage system failures
	Get(ctx context.Context, key string, opts ...Option) (*StorageItem, error)

	// Set stores data for a specific key within the given collection
	Set(ctx context.Context, key string, data []byte, opts ...Option) error

	// List returns every live entry of the given collection in no particular
	// order. Expired items are skipped.
	List(ctx context.Context, opts ...Option) ([]Entry, error)

	// Delete removes data within the given collection
	// If no key specified via WithKey, removes the entire collection
	Delete(ctx context.Context, opts ...Option) error

	// Close closes the storage backend and releases resources
	Close() error
}

// StorageItem represents a stored piece of data with metadata
type StorageItem struct {
	Data      []byte     // The stored data
	CreatedAt time.Time  // When the item was created
	ExpiresAt *time.Time // When the item expires (nil = no expiration)
}

// IsExpired checks if the item has expired
func (si *StorageItem) IsExpired() bool {
	return si.ExpiresAt != nil && time.Now().After(*si.ExpiresAt)
}

// Entry pairs a key with its stored item in List results.
type Entry struct {
	Key  string
	Item *StorageItem
}

// Option configures storage operations
type Option func(*Options)

// Options contains configuration for storage operations
type Options struct {
	Collection string         // Optional: collection name ("" = global)
	Key        *string        // Optional: specific key (for Delete operations)
	TTL        *time.Duration // Optional: time-to-live for the data
}

// Apply builds Options from a list of Option values.
func Apply(opts ...Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithCollection scopes an operation to a named collection
func WithCollection(name string) Option {
	return func(opts *Options) {
		opts.Collection = name
	}
}

// WithKey specifies a specific key for Delete operations
// If not provided, Delete removes the entire collection
func WithKey(key string) Option {
	return func(opts *Options) {
		opts.Key = &key
	}
}

// WithTTL sets a time-to-live for the stored data
func WithTTL(ttl time.Duration) Option {
	return func(opts *Options) {
		opts.TTL = &ttl
	}
}

// Error types
var (
	// ErrInvalidOptions is returned when incompatible options are provided
	ErrInvalidOptions = errors.New("storage: invalid option combination")
)
