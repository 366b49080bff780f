package mcpservice

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type echoArgs struct {
	Message string `json:"message" jsonschema:"description=Text to echo"`
	Times   int    `json:"times,omitempty"`
}

type echoResult struct {
	Echo string `json:"echo"`
}

func newEchoTool(opts ...ToolOption) StaticTool {
	return NewTool("echo", func(ctx context.Context, a echoArgs) (echoResult, error) {
		out := a.Message
		for i := 1; i < a.Times; i++ {
			out += a.Message
		}
		return echoResult{Echo: out}, nil
	}, append([]ToolOption{WithToolDescription("Echo a message")}, opts...)...)
}

func TestNewToolReflectsSchema(t *testing.T) {
	tool := newEchoTool()
	d := tool.Descriptor
	if d.Name != "echo" || d.Description != "Echo a message" {
		t.Fatalf("unexpected descriptor: %+v", d)
	}
	if d.InputSchema.Type != "object" {
		t.Fatalf("schema type = %q", d.InputSchema.Type)
	}
	p, ok := d.InputSchema.Properties["message"]
	if !ok || p.Type != "string" || p.Description != "Text to echo" {
		t.Fatalf("message property = %+v", p)
	}
	if p, ok := d.InputSchema.Properties["times"]; !ok || p.Type != "integer" {
		t.Fatalf("times property = %+v", p)
	}
	if len(d.InputSchema.Required) != 1 || d.InputSchema.Required[0] != "message" {
		t.Fatalf("required = %v", d.InputSchema.Required)
	}
}

func TestNewToolDecodesArguments(t *testing.T) {
	tool := newEchoTool()
	res, err := tool.Handler(context.Background(), json.RawMessage(`{"message":"hi","times":2}`))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res.(echoResult).Echo != "hihi" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestNewToolArgumentErrors(t *testing.T) {
	tool := newEchoTool()
	cases := map[string]string{
		"missing required": `{}`,
		"null required":    `{"message":null}`,
		"not an object":    `[1,2]`,
		"unknown field":    `{"message":"x","extra":1}`,
		"wrong type":       `{"message":5}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := tool.Handler(context.Background(), json.RawMessage(raw))
			if !errors.Is(err, ErrInvalidArguments) {
				t.Fatalf("expected ErrInvalidArguments, got %v", err)
			}
		})
	}
}

func TestNewToolLenientAllowsUnknownFields(t *testing.T) {
	tool := newEchoTool(WithToolAllowAdditionalProperties(true))
	if !tool.Descriptor.InputSchema.AdditionalProperties {
		t.Fatalf("expected additionalProperties in schema")
	}
	if _, err := tool.Handler(context.Background(), json.RawMessage(`{"message":"x","extra":1}`)); err != nil {
		t.Fatalf("handler: %v", err)
	}
}

func TestNewToolNilArgumentsAreEmptyObject(t *testing.T) {
	type noArgs struct{}
	tool := NewTool("noop", func(ctx context.Context, _ noArgs) (map[string]bool, error) {
		return map[string]bool{"ok": true}, nil
	})
	for _, raw := range []json.RawMessage{nil, json.RawMessage("null"), json.RawMessage(" {} ")} {
		if _, err := tool.Handler(context.Background(), raw); err != nil {
			t.Fatalf("handler(%q): %v", raw, err)
		}
	}
}

func TestNewToolAnonymousArgumentTypes(t *testing.T) {
	empty := NewTool("empty", func(ctx context.Context, _ struct{}) (any, error) { return "ok", nil })
	if s := empty.Descriptor.InputSchema; s.Type != "object" || len(s.Properties) != 0 || len(s.Required) != 0 {
		t.Fatalf("empty schema = %+v", s)
	}
	if _, err := empty.Handler(context.Background(), nil); err != nil {
		t.Fatalf("empty handler: %v", err)
	}

	inline := NewTool("inline", func(ctx context.Context, a struct {
		Query string `json:"query"`
		Limit int    `json:"limit,omitempty"`
	}) (string, error) {
		return a.Query, nil
	})
	s := inline.Descriptor.InputSchema
	if p, ok := s.Properties["query"]; !ok || p.Type != "string" {
		t.Fatalf("query property = %+v", s.Properties)
	}
	if len(s.Required) != 1 || s.Required[0] != "query" {
		t.Fatalf("required = %v", s.Required)
	}
	res, err := inline.Handler(context.Background(), json.RawMessage(`{"query":"faq"}`))
	if err != nil || res != "faq" {
		t.Fatalf("inline handler = %v, %v", res, err)
	}
}

func TestToolExecutor(t *testing.T) {
	boom := errors.New("boom")
	failing := NewTool("fail", func(ctx context.Context, _ struct{}) (any, error) { return nil, boom })
	echo := newEchoTool()
	orphan := StaticTool{Descriptor: objTool("orphan")}

	reg, err := NewRegistry(ToolDescriptors(echo, failing, orphan), nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	exec := NewToolExecutor(reg, echo, failing, orphan)
	ctx := context.Background()

	res, err := exec.Execute(ctx, "echo", json.RawMessage(`{"message":"a"}`))
	if err != nil || res.(echoResult).Echo != "a" {
		t.Fatalf("Execute(echo) = %v, %v", res, err)
	}

	_, err = exec.Execute(ctx, "nope", nil)
	var ee *ExecutionError
	if !errors.As(err, &ee) || !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ExecutionError wrapping ErrToolNotFound, got %v", err)
	}
	if err.Error() != "unknown tool: nope" {
		t.Fatalf("message = %q", err.Error())
	}

	_, err = exec.Execute(ctx, "fail", nil)
	if !errors.As(err, &ee) || ee.Tool != "fail" || !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if err.Error() != "boom" {
		t.Fatalf("message = %q", err.Error())
	}

	if _, err = exec.Execute(ctx, "orphan", nil); err == nil {
		t.Fatalf("expected error for tool without handler")
	}
}
