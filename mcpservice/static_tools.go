package mcpservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/light-autom8/mcp-server-go/mcp"
)

// ToolHandler is the function signature used to handle a tool invocation.
// args is the raw arguments object (never nil; "{}" when the caller sent
// none). The returned value is serialized as the tool's result mapping.
type ToolHandler func(ctx context.Context, args json.RawMessage) (any, error)

// StaticTool pairs an MCP tool descriptor with its handler.
type StaticTool struct {
	Descriptor mcp.Tool
	Handler    ToolHandler
}

// ToolDescriptors returns the descriptors of the given tools in order.
func ToolDescriptors(defs ...StaticTool) []mcp.Tool {
	out := make([]mcp.Tool, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Descriptor)
	}
	return out
}

// ToolOption configures NewTool behavior.
type ToolOption func(*toolConfig)

type toolConfig struct {
	description               string
	allowAdditionalProperties bool // default false (strict)
}

// WithToolDescription sets the tool description used in listings.
func WithToolDescription(desc string) ToolOption {
	return func(c *toolConfig) { c.description = desc }
}

// WithToolAllowAdditionalProperties controls whether unknown fields are allowed.
// When false (default), the generated schema sets additionalProperties=false and
// runtime decoding rejects unknown fields.
func WithToolAllowAdditionalProperties(allow bool) ToolOption {
	return func(c *toolConfig) { c.allowAdditionalProperties = allow }
}

// NewTool constructs a StaticTool from a typed args struct A and a typed
// result O. It:
//   - Reflects a JSON Schema from A using invopop/jsonschema
//   - Down-converts it to MCP's simplified ToolInputSchema
//   - Wraps fn with runtime JSON decoding (rejecting unknown fields by default)
//     and a presence check for every required property
func NewTool[A, O any](name string, fn func(ctx context.Context, args A) (O, error), opts ...ToolOption) StaticTool {
	cfg := toolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	input := reflectToMCPInputSchema[A](cfg.allowAdditionalProperties)
	desc := mcp.Tool{
		Name:        name,
		Description: cfg.description,
		InputSchema: input,
	}

	handler := func(ctx context.Context, raw json.RawMessage) (any, error) {
		a, err := decodeArgs[A](raw, input.Required, cfg.allowAdditionalProperties)
		if err != nil {
			return nil, err
		}
		return fn(ctx, a)
	}

	return StaticTool{Descriptor: desc, Handler: handler}
}

func decodeArgs[A any](raw json.RawMessage, required []string, allowAdditional bool) (A, error) {
	var a A
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = json.RawMessage("{}")
	}

	var present map[string]json.RawMessage
	if err := json.Unmarshal(raw, &present); err != nil {
		return a, fmt.Errorf("%w: arguments must be an object", ErrInvalidArguments)
	}
	for _, key := range required {
		v, ok := present[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return a, fmt.Errorf("%w: missing required argument %q", ErrInvalidArguments, key)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if !allowAdditional {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&a); err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return a, nil
}

// reflectToMCPInputSchema reflects a Go type A into a jsonschema.Schema, and
// converts it to the simplified mcp.ToolInputSchema. Unknown field policy is
// surfaced via the AdditionalProperties flag on the returned schema.
func reflectToMCPInputSchema[A any](allowAdditional bool) mcp.ToolInputSchema {
	// DoNotReference inlines the root. ExpandedStruct must stay unset: it
	// looks the root up by type name and anonymous structs have none.
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: allowAdditional,
	}
	// Reflect from a zero value pointer to capture struct tags consistently
	s := r.Reflect(new(A))

	// Only object schemas map cleanly to MCP ToolInputSchema. If not an object,
	// expose an empty object with the configured additionalProperties policy.
	if s == nil || s.Type != "object" {
		return mcp.ToolInputSchema{
			Type:                 "object",
			Properties:           map[string]mcp.SchemaProperty{},
			AdditionalProperties: allowAdditional,
		}
	}

	props := make(map[string]mcp.SchemaProperty)
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			props[el.Key] = toMCPProperty(el.Value)
		}
	}
	var required []string
	if len(s.Required) > 0 {
		required = append(required, s.Required...)
	}

	return mcp.ToolInputSchema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: allowAdditional,
	}
}

// toMCPProperty recursively maps a jsonschema.Schema to the simplified MCP SchemaProperty.
func toMCPProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	// Arrays
	if s.Type == "array" && s.Items != nil {
		item := toMCPProperty(s.Items)
		p.Items = &item
	}
	// Objects
	if s.Type == "object" && s.Properties != nil {
		m := make(map[string]mcp.SchemaProperty, s.Properties.Len())
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			m[el.Key] = toMCPProperty(el.Value)
		}
		p.Properties = m
	}
	return p
}

// StaticToolExecutor executes tools whose descriptors live in a Registry and
// whose handlers were supplied at construction.
type StaticToolExecutor struct {
	reg      *Registry
	handlers map[string]ToolHandler
}

var _ ToolExecutor = (*StaticToolExecutor)(nil)

// NewToolExecutor binds handlers to the registry. Tools present in defs but
// absent from the registry are never reachable; registry tools without a
// handler fail at call time.
func NewToolExecutor(reg *Registry, defs ...StaticTool) *StaticToolExecutor {
	e := &StaticToolExecutor{reg: reg, handlers: make(map[string]ToolHandler, len(defs))}
	for _, d := range defs {
		if d.Handler != nil {
			// last write wins on duplicate names
			e.handlers[d.Descriptor.Name] = d.Handler
		}
	}
	return e
}

// Execute validates name against the registry and runs the bound handler.
// Every failure is returned as an *ExecutionError.
func (e *StaticToolExecutor) Execute(ctx context.Context, name string, args json.RawMessage) (any, error) {
	if _, ok := e.reg.FindTool(name); !ok {
		return nil, &ExecutionError{Tool: name, Err: fmt.Errorf("%w: %s", ErrToolNotFound, name)}
	}
	h := e.handlers[name]
	if h == nil {
		return nil, &ExecutionError{Tool: name, Err: fmt.Errorf("tool %s has no handler", name)}
	}
	res, err := h(ctx, args)
	if err != nil {
		return nil, &ExecutionError{Tool: name, Err: err}
	}
	return res, nil
}
