package mcpservice

import (
	"context"
	"encoding/json"

	"github.com/light-autom8/mcp-server-go/mcp"
)

// ServerCapabilities is everything the dispatcher needs from a server
// implementation.
type ServerCapabilities interface {
	// ServerInfo returns the implementation name and version surfaced in
	// initialize results.
	ServerInfo() mcp.ImplementationInfo

	// Registry returns the static capability catalog.
	Registry() *Registry

	// ToolExecutor returns the tool executor. A nil executor makes every
	// tools/call fail.
	ToolExecutor() ToolExecutor

	// ResourceReader returns the resource reader. A nil reader makes every
	// resources/read fail.
	ResourceReader() ResourceReader
}

// ToolExecutor maps a tool name and raw argument object to a result mapping.
//
// Implementations MUST validate the name against the Registry and SHOULD
// honor ctx for cancellation. Timeouts are the implementation's concern; the
// dispatcher imposes none.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args json.RawMessage) (any, error)
}

// ResourceReader maps a resource URI to its contents.
//
// Implementations MUST validate the URI against the Registry.
type ResourceReader interface {
	Read(ctx context.Context, uri string) (mcp.ResourceContents, error)
}

// ContentLoader fetches the raw bytes behind a resource descriptor.
type ContentLoader interface {
	Load(ctx context.Context, res mcp.Resource) ([]byte, error)
}
