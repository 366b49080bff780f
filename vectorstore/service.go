package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/light-autom8/mcp-server-go/mcpservice"
	"github.com/light-autom8/mcp-server-go/storage"
)

const (
	// StoresCollection holds vector store records. Memory backends should
	// pin it so stores are never evicted.
	StoresCollection = "vector_stores"
	// FilesCollection holds uploaded file records.
	FilesCollection = "files"

	StatusReady    = "ready"
	StatusUploaded = "uploaded"

	// DefaultFileName is used when an upload does not name its file.
	DefaultFileName = "uploaded_file.txt"
)

// ErrStoreNotFound is returned when an operation references an unknown store.
var ErrStoreNotFound = errors.New("vector store not found")

// seedStore is present in every fresh backend.
var seedStore = Store{
	ID:        "vs_1",
	Name:      "Support FAQ",
	Status:    StatusReady,
	CreatedAt: time.Date(2024, time.September, 22, 23, 20, 0, 0, time.UTC),
}

// Store is a persisted vector store record.
type Store struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	FileCount int       `json:"file_count"`
}

// File is a persisted upload record.
type File struct {
	ID        string    `json:"file_id"`
	StoreID   string    `json:"vector_store_id"`
	Name      string    `json:"file_name"`
	Bytes     int       `json:"bytes"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Service owns the vector store records.
type Service struct {
	st    storage.Storage
	log   *slog.Logger
	now   func() time.Time
	newID func() string

	// serializes read-modify-write of store records
	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the generator for the random part of store and
// file identifiers.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewService constructs a Service over st.
func NewService(st storage.Storage, opts ...Option) *Service {
	s := &Service{
		st:    st,
		log:   slog.Default(),
		now:   time.Now,
		newID: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Seed installs the built-in "Support FAQ" store unless it already exists.
func (s *Service) Seed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getStore(ctx, seedStore.ID)
	if err != nil && !errors.Is(err, ErrStoreNotFound) {
		return err
	}
	if existing != nil {
		return nil
	}
	return s.putStore(ctx, seedStore)
}

// CreateStore persists a new ready store.
func (s *Service) CreateStore(ctx context.Context, name string) (Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Store{}, fmt.Errorf("%w: name must not be empty", mcpservice.ErrInvalidArguments)
	}

	st := Store{
		ID:        "vs_" + s.newID(),
		Name:      name,
		Status:    StatusReady,
		CreatedAt: s.timestamp(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.putStore(ctx, st); err != nil {
		return Store{}, err
	}
	s.log.InfoContext(ctx, "vectorstore.create.ok", slog.String("vector_store_id", st.ID))
	return st, nil
}

// UploadFile records an upload into an existing store and increments its file
// count. An empty fileName defaults to DefaultFileName.
func (s *Service) UploadFile(ctx context.Context, storeID, fileName, content string) (File, error) {
	if fileName == "" {
		fileName = DefaultFileName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.getStore(ctx, storeID)
	if err != nil {
		return File{}, err
	}

	f := File{
		ID:        "file_" + s.newID(),
		StoreID:   st.ID,
		Name:      fileName,
		Bytes:     len(content),
		Status:    StatusUploaded,
		CreatedAt: s.timestamp(),
	}
	data, err := json.Marshal(f)
	if err != nil {
		return File{}, fmt.Errorf("encode file record: %w", err)
	}
	if err := s.st.Set(ctx, f.ID, data, storage.WithCollection(FilesCollection)); err != nil {
		return File{}, fmt.Errorf("store file record: %w", err)
	}

	st.FileCount++
	if err := s.putStore(ctx, *st); err != nil {
		return File{}, err
	}
	s.log.InfoContext(ctx, "vectorstore.upload.ok",
		slog.String("vector_store_id", st.ID),
		slog.String("file_id", f.ID),
		slog.Int("bytes", f.Bytes))
	return f, nil
}

// GetStore returns the store with the given id or ErrStoreNotFound.
func (s *Service) GetStore(ctx context.Context, id string) (Store, error) {
	st, err := s.getStore(ctx, id)
	if err != nil {
		return Store{}, err
	}
	return *st, nil
}

// ListStores returns every store ordered by creation time, then id.
func (s *Service) ListStores(ctx context.Context) ([]Store, error) {
	entries, err := s.st.List(ctx, storage.WithCollection(StoresCollection))
	if err != nil {
		return nil, fmt.Errorf("list vector stores: %w", err)
	}
	out := make([]Store, 0, len(entries))
	for _, e := range entries {
		var st Store
		if err := json.Unmarshal(e.Item.Data, &st); err != nil {
			s.log.WarnContext(ctx, "vectorstore.list.skip_corrupt", slog.String("key", e.Key), slog.String("err", err.Error()))
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Service) getStore(ctx context.Context, id string) (*Store, error) {
	item, err := s.st.Get(ctx, id, storage.WithCollection(StoresCollection))
	if err != nil {
		return nil, fmt.Errorf("load vector store: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, id)
	}
	var st Store
	if err := json.Unmarshal(item.Data, &st); err != nil {
		return nil, fmt.Errorf("decode vector store %s: %w", id, err)
	}
	return &st, nil
}

func (s *Service) putStore(ctx context.Context, st Store) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode vector store: %w", err)
	}
	if err := s.st.Set(ctx, st.ID, data, storage.WithCollection(StoresCollection)); err != nil {
		return fmt.Errorf("store vector store: %w", err)
	}
	return nil
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}
