// Package app wires configuration into a ready-to-serve dispatcher: storage
// backend, vector store tool set, resource catalog and content loader.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/light-autom8/mcp-server-go/internal/config"
	"github.com/light-autom8/mcp-server-go/internal/engine"
	"github.com/light-autom8/mcp-server-go/mcp"
	"github.com/light-autom8/mcp-server-go/mcpservice"
	"github.com/light-autom8/mcp-server-go/storage"
	"github.com/light-autom8/mcp-server-go/storage/memory"
	"github.com/light-autom8/mcp-server-go/storage/redis"
	"github.com/light-autom8/mcp-server-go/vectorstore"
)

// CustomerPoliciesURI is the built-in resource.
const CustomerPoliciesURI = "file://customer_policies.txt"

// DefaultResources is the resource catalog used when no YAML catalog is
// configured.
func DefaultResources() []mcp.Resource {
	return []mcp.Resource{{
		URI:         CustomerPoliciesURI,
		Name:        "Customer Policies",
		Description: "Customer policies and FAQ document",
		MimeType:    "text/plain",
	}}
}

// App is a fully wired server.
type App struct {
	Engine       *engine.Engine
	Server       mcpservice.ServerCapabilities
	VectorStores *vectorstore.Service

	cancel context.CancelFunc
	store  storage.Storage
}

// New builds the server described by cfg. The returned App must be closed to
// release the storage backend and stop the resource watcher.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)

	st, err := openStorage(ctx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	fail := func(err error) (*App, error) {
		cancel()
		_ = st.Close()
		return nil, err
	}

	vs := vectorstore.NewService(st, vectorstore.WithLogger(log))
	if err := vs.Seed(ctx); err != nil {
		return fail(fmt.Errorf("seed vector stores: %w", err))
	}
	tools := vs.Tools()

	resources := DefaultResources()
	if cfg.ResourceCatalog != "" {
		resources, err = mcpservice.LoadResourceCatalogFile(cfg.ResourceCatalog)
		if err != nil {
			return fail(err)
		}
	}

	reg, err := mcpservice.NewRegistry(mcpservice.ToolDescriptors(tools...), resources)
	if err != nil {
		return fail(fmt.Errorf("build registry: %w", err))
	}

	loaderOpts := []mcpservice.FileLoaderOption{mcpservice.WithFileLoaderLogger(log)}
	if cfg.ResourceWatch {
		loaderOpts = append(loaderOpts, mcpservice.WithFileCache())
	}
	loader := mcpservice.NewFileLoader(cfg.ResourceRoot, loaderOpts...)
	if cfg.ResourceWatch {
		if err := loader.Watch(ctx); err != nil {
			return fail(err)
		}
	}

	srv := mcpservice.NewServer(
		mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: cfg.ServerName, Version: cfg.ServerVersion}),
		mcpservice.WithRegistry(reg),
		mcpservice.WithToolExecutor(mcpservice.NewToolExecutor(reg, tools...)),
		mcpservice.WithResourceReader(mcpservice.NewResourceReader(reg, loader)),
	)

	eng := engine.NewEngine(srv,
		engine.WithLogger(log),
		engine.WithRequireInitialize(cfg.RequireInitialize),
	)

	log.InfoContext(ctx, "app.ready",
		slog.String("storage", cfg.Storage),
		slog.String("resource_root", loader.Root()),
		slog.Int("tool_count", len(reg.ListTools())),
		slog.Int("resource_count", len(reg.ListResources())))

	return &App{Engine: eng, Server: srv, VectorStores: vs, cancel: cancel, store: st}, nil
}

// Close stops background work and closes the storage backend.
func (a *App) Close() error {
	a.cancel()
	return a.store.Close()
}

func openStorage(ctx context.Context, cfg config.Config) (storage.Storage, error) {
	switch cfg.Storage {
	case config.StorageMemory, "":
		n := cfg.StorageMaxItems
		if n <= 0 {
			n = 10000
		}
		st, err := memory.New(n, memory.WithPinnedCollections(vectorstore.StoresCollection))
		if err != nil {
			return nil, fmt.Errorf("open memory storage: %w", err)
		}
		return st, nil
	case config.StorageRedis:
		st, err := redis.Dial(ctx, cfg.RedisAddr, cfg.StorageKeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("open redis storage: %w", err)
		}
		return st, nil
	default:
		return nil, errors.New("unknown storage backend " + cfg.Storage)
	}
}
