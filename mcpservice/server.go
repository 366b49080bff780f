package mcpservice

import (
	"github.com/light-autom8/mcp-server-go/mcp"
)

// ServerOption configures a concrete ServerCapabilities implementation.
type ServerOption func(*server)

type server struct {
	info     mcp.ImplementationInfo
	registry *Registry
	tools    ToolExecutor
	reader   ResourceReader
}

// NewServer builds a ServerCapabilities using functional options. Without a
// registry option the server advertises an empty catalog.
func NewServer(opts ...ServerOption) ServerCapabilities {
	s := &server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry, _ = NewRegistry(nil, nil)
	}
	return s
}

// WithServerInfo sets a static server info value.
func WithServerInfo(info mcp.ImplementationInfo) ServerOption {
	return func(s *server) { s.info = info }
}

// WithRegistry sets the capability catalog.
func WithRegistry(reg *Registry) ServerOption {
	return func(s *server) { s.registry = reg }
}

// WithToolExecutor wires the tool executor.
func WithToolExecutor(exec ToolExecutor) ServerOption {
	return func(s *server) { s.tools = exec }
}

// WithResourceReader wires the resource reader.
func WithResourceReader(r ResourceReader) ServerOption {
	return func(s *server) { s.reader = r }
}

func (s *server) ServerInfo() mcp.ImplementationInfo { return s.info }

func (s *server) Registry() *Registry { return s.registry }

func (s *server) ToolExecutor() ToolExecutor { return s.tools }

func (s *server) ResourceReader() ResourceReader { return s.reader }
