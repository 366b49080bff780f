package mcpservice

import (
	"fmt"

	"github.com/elnormous/contenttype"
	"github.com/light-autom8/mcp-server-go/mcp"
)

// Registry is the static catalog of tools and resources a server advertises.
// It is built once and is read-only afterwards, so it is safe for concurrent
// use without locking.
type Registry struct {
	tools     []mcp.Tool
	toolIdx   map[string]int
	resources []mcp.Resource
	resIdx    map[string]int
}

// NewRegistry validates and indexes the given descriptors. Names and URIs must
// be non-empty and unique, tool input schemas must be objects and resource
// MIME types must parse as media types.
func NewRegistry(tools []mcp.Tool, resources []mcp.Resource) (*Registry, error) {
	r := &Registry{
		tools:     make([]mcp.Tool, 0, len(tools)),
		toolIdx:   make(map[string]int, len(tools)),
		resources: make([]mcp.Resource, 0, len(resources)),
		resIdx:    make(map[string]int, len(resources)),
	}

	for _, t := range tools {
		if t.Name == "" {
			return nil, fmt.Errorf("tool descriptor without name")
		}
		if _, dup := r.toolIdx[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", t.Name)
		}
		if t.InputSchema.Type != "object" {
			return nil, fmt.Errorf("tool %q: input schema type must be object, got %q", t.Name, t.InputSchema.Type)
		}
		if t.InputSchema.Properties == nil {
			t.InputSchema.Properties = map[string]mcp.SchemaProperty{}
		}
		r.toolIdx[t.Name] = len(r.tools)
		r.tools = append(r.tools, t)
	}

	for _, res := range resources {
		if res.URI == "" {
			return nil, fmt.Errorf("resource descriptor without uri")
		}
		if _, dup := r.resIdx[res.URI]; dup {
			return nil, fmt.Errorf("duplicate resource %q", res.URI)
		}
		mt, err := normalizeMediaType(res.MimeType)
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", res.URI, err)
		}
		res.MimeType = mt
		r.resIdx[res.URI] = len(r.resources)
		r.resources = append(r.resources, res)
	}

	return r, nil
}

// ListTools returns a copy of the tool catalog in registration order.
func (r *Registry) ListTools() []mcp.Tool {
	out := make([]mcp.Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// FindTool looks a tool up by exact name.
func (r *Registry) FindTool(name string) (mcp.Tool, bool) {
	i, ok := r.toolIdx[name]
	if !ok {
		return mcp.Tool{}, false
	}
	return r.tools[i], true
}

// ListResources returns a copy of the resource catalog in registration order.
func (r *Registry) ListResources() []mcp.Resource {
	out := make([]mcp.Resource, len(r.resources))
	copy(out, r.resources)
	return out
}

// FindResource looks a resource up by exact URI.
func (r *Registry) FindResource(uri string) (mcp.Resource, bool) {
	i, ok := r.resIdx[uri]
	if !ok {
		return mcp.Resource{}, false
	}
	return r.resources[i], true
}

// normalizeMediaType validates a MIME type. An empty type defaults to text/plain.
func normalizeMediaType(s string) (string, error) {
	if s == "" {
		return "text/plain", nil
	}
	mt := contenttype.NewMediaType(s)
	if mt.Type == "" || mt.Subtype == "" {
		return "", fmt.Errorf("invalid mime type %q", s)
	}
	return s, nil
}

// isTextMediaType reports whether content of the given type can be returned
// verbatim as text.
func isTextMediaType(s string) bool {
	mt := contenttype.NewMediaType(s)
	switch {
	case mt.Type == "text":
		return true
	case mt.Type == "application" && (mt.Subtype == "json" || mt.Subtype == "xml" || mt.Subtype == "yaml"):
		return true
	default:
		return false
	}
}
