package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/light-autom8/mcp-server-go/mcpservice"
	"github.com/light-autom8/mcp-server-go/storage/memory"
)

type fixture struct {
	svc *Service
	now time.Time
	seq int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithCapacity(t, 100)
}

func newFixtureWithCapacity(t *testing.T, maxItems int) *fixture {
	t.Helper()
	st, err := memory.New(maxItems, memory.WithPinnedCollections(StoresCollection))
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	f := &fixture{now: time.Date(2025, time.January, 2, 3, 4, 5, 999, time.UTC)}
	f.svc = NewService(st,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time {
			f.now = f.now.Add(time.Second)
			return f.now
		}),
		WithIDGenerator(func() string {
			f.seq++
			return fmt.Sprintf("%03d", f.seq)
		}),
	)
	return f
}

func TestSeedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := f.svc.Seed(ctx); err != nil {
			t.Fatalf("Seed: %v", err)
		}
	}
	stores, err := f.svc.ListStores(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stores) != 1 || stores[0].ID != "vs_1" || stores[0].Name != "Support FAQ" || stores[0].Status != StatusReady {
		t.Fatalf("stores = %+v", stores)
	}
	if formatTime(stores[0]) != "2024-09-22T23:20:00Z" {
		t.Fatalf("created_at = %s", formatTime(stores[0]))
	}
}

func TestSeedDoesNotResetCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.svc.Seed(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.UploadFile(ctx, "vs_1", "", "faq"); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Seed(ctx); err != nil {
		t.Fatal(err)
	}
	st, err := f.svc.GetStore(ctx, "vs_1")
	if err != nil || st.FileCount != 1 {
		t.Fatalf("store = %+v, %v", st, err)
	}
}

func TestCreateStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.svc.CreateStore(ctx, "Test")
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	if st.ID != "vs_001" || st.Name != "Test" || st.Status != StatusReady || st.FileCount != 0 {
		t.Fatalf("store = %+v", st)
	}
	if st.CreatedAt.Nanosecond() != 0 {
		t.Fatalf("timestamps must be truncated to seconds: %v", st.CreatedAt)
	}

	got, err := f.svc.GetStore(ctx, st.ID)
	if err != nil || got.ID != st.ID || got.Name != st.Name || !got.CreatedAt.Equal(st.CreatedAt) {
		t.Fatalf("GetStore = %+v, %v", got, err)
	}

	for _, name := range []string{"", "   "} {
		if _, err := f.svc.CreateStore(ctx, name); !errors.Is(err, mcpservice.ErrInvalidArguments) {
			t.Fatalf("CreateStore(%q) err = %v", name, err)
		}
	}
}

func TestUploadFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, _ := f.svc.CreateStore(ctx, "Docs")

	file, err := f.svc.UploadFile(ctx, st.ID, "", "hello")
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if file.ID != "file_002" || file.StoreID != st.ID || file.Name != DefaultFileName || file.Bytes != 5 || file.Status != StatusUploaded {
		t.Fatalf("file = %+v", file)
	}
	if _, err := f.svc.UploadFile(ctx, st.ID, "b.txt", "x"); err != nil {
		t.Fatal(err)
	}

	got, _ := f.svc.GetStore(ctx, st.ID)
	if got.FileCount != 2 {
		t.Fatalf("file_count = %d", got.FileCount)
	}

	_, err = f.svc.UploadFile(ctx, "vs_missing", "a.txt", "x")
	if !errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("expected ErrStoreNotFound, got %v", err)
	}
}

func TestStoresSurviveFileEviction(t *testing.T) {
	f := newFixtureWithCapacity(t, 4)
	ctx := context.Background()
	if err := f.svc.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	st, err := f.svc.CreateStore(ctx, "Docs")
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	for i := 0; i < 6; i++ {
		if _, err := f.svc.UploadFile(ctx, st.ID, fmt.Sprintf("f%d.txt", i), "x"); err != nil {
			t.Fatalf("UploadFile %d: %v", i, err)
		}
	}
	if _, err := f.svc.UploadFile(ctx, "vs_1", "", "x"); err != nil {
		t.Fatalf("seeded store lost: %v", err)
	}

	stores, err := f.svc.ListStores(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stores) != 2 || stores[0].ID != "vs_1" || stores[0].FileCount != 1 || stores[1].ID != st.ID || stores[1].FileCount != 6 {
		t.Fatalf("stores = %+v", stores)
	}
}

func TestListStoresOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.svc.Seed(ctx)
	a, _ := f.svc.CreateStore(ctx, "A")
	b, _ := f.svc.CreateStore(ctx, "B")

	stores, err := f.svc.ListStores(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stores) != 3 || stores[0].ID != "vs_1" || stores[1].ID != a.ID || stores[2].ID != b.ID {
		t.Fatalf("order = %+v", stores)
	}
}

func TestToolsThroughExecutor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.svc.Seed(ctx)

	defs := f.svc.Tools()
	names := []string{}
	for _, d := range defs {
		names = append(names, d.Descriptor.Name)
	}
	if fmt.Sprint(names) != "[create_vector_store upload_file_to_vector_store list_vector_stores]" {
		t.Fatalf("names = %v", names)
	}

	create := defs[0].Descriptor.InputSchema
	if len(create.Required) != 1 || create.Required[0] != "name" || create.Properties["name"].Type != "string" {
		t.Fatalf("create schema = %+v", create)
	}
	upload := defs[1].Descriptor.InputSchema
	if fmt.Sprint(upload.Required) != "[vector_store_id file_content]" {
		t.Fatalf("upload required = %v", upload.Required)
	}
	if _, ok := upload.Properties["file_name"]; !ok {
		t.Fatalf("upload schema lacks file_name")
	}
	if list := defs[2].Descriptor.InputSchema; len(list.Properties) != 0 || len(list.Required) != 0 {
		t.Fatalf("list schema = %+v", list)
	}

	reg, err := mcpservice.NewRegistry(mcpservice.ToolDescriptors(defs...), nil)
	if err != nil {
		t.Fatal(err)
	}
	exec := mcpservice.NewToolExecutor(reg, defs...)

	out, err := exec.Execute(ctx, ToolCreateStore, json.RawMessage(`{"name":"Test"}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	created := out.(CreateStoreResult)
	if !created.Success || created.Status != "ready" || created.VectorStoreID != "vs_001" {
		t.Fatalf("created = %+v", created)
	}

	out, err = exec.Execute(ctx, ToolUploadFile, json.RawMessage(`{"vector_store_id":"vs_001","file_content":"abc"}`))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	up := out.(UploadFileResult)
	if !up.Success || up.FileName != "uploaded_file.txt" || up.Status != "uploaded" || up.Bytes != 3 {
		t.Fatalf("upload = %+v", up)
	}

	out, err = exec.Execute(ctx, ToolListStores, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	list := out.(ListStoresResult)
	if !list.Success || len(list.VectorStores) != 2 || list.VectorStores[0].CreatedAt != "2024-09-22T23:20:00Z" || list.VectorStores[1].FileCount != 1 {
		t.Fatalf("list = %+v", list)
	}

	if _, err := exec.Execute(ctx, ToolCreateStore, json.RawMessage(`{}`)); !errors.Is(err, mcpservice.ErrInvalidArguments) {
		t.Fatalf("missing name err = %v", err)
	}
	if _, err := exec.Execute(ctx, ToolUploadFile, json.RawMessage(`{"vector_store_id":"vs_x","file_content":"abc"}`)); !errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("unknown store err = %v", err)
	}
}
