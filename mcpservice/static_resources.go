package mcpservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"unicode/utf8"

	"github.com/light-autom8/mcp-server-go/mcp"
)

// StaticResourceReader serves resources whose descriptors live in a Registry
// and whose bytes come from a ContentLoader.
type StaticResourceReader struct {
	reg    *Registry
	loader ContentLoader
}

var _ ResourceReader = (*StaticResourceReader)(nil)

// NewResourceReader constructs a reader over the registry's resources.
func NewResourceReader(reg *Registry, loader ContentLoader) *StaticResourceReader {
	return &StaticResourceReader{reg: reg, loader: loader}
}

// Read validates uri against the registry, loads its content and returns it
// as text tagged with the descriptor's MIME type. Every failure is returned as
// a *ReadError.
func (r *StaticResourceReader) Read(ctx context.Context, uri string) (mcp.ResourceContents, error) {
	res, ok := r.reg.FindResource(uri)
	if !ok {
		return mcp.ResourceContents{}, &ReadError{URI: uri, Err: fmt.Errorf("%w: %s", ErrResourceNotFound, uri)}
	}
	if r.loader == nil {
		return mcp.ResourceContents{}, &ReadError{URI: uri, Err: errors.New("no content loader configured")}
	}
	data, err := r.loader.Load(ctx, res)
	if err != nil {
		return mcp.ResourceContents{}, &ReadError{URI: uri, Err: err}
	}
	if !isTextMediaType(res.MimeType) || !utf8.Valid(data) {
		return mcp.ResourceContents{}, &ReadError{URI: uri, Err: fmt.Errorf("resource %s is not text content", uri)}
	}
	return mcp.ResourceContents{URI: uri, MimeType: res.MimeType, Text: string(data)}, nil
}

// MapLoader is a ContentLoader backed by a fixed URI -> text map. It is
// useful as a test double and for embedded content.
type MapLoader map[string]string

// Load implements ContentLoader.
func (m MapLoader) Load(_ context.Context, res mcp.Resource) ([]byte, error) {
	s, ok := m[res.URI]
	if !ok {
		return nil, fmt.Errorf("load %s: %w", res.URI, fs.ErrNotExist)
	}
	return []byte(s), nil
}
