package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/light-autom8/mcp-server-go/internal/jsonrpc"
	"github.com/light-autom8/mcp-server-go/internal/logctx"
	"github.com/light-autom8/mcp-server-go/mcp"
	"github.com/light-autom8/mcp-server-go/mcpservice"
)

var (
	// ErrNotInitialized is returned in strict mode for any method other than
	// initialize before the handshake completed.
	ErrNotInitialized = errors.New("server not initialized")
	// ErrNoToolExecutor and ErrNoResourceReader report a server built without
	// the corresponding collaborator.
	ErrNoToolExecutor   = errors.New("no tool executor configured")
	ErrNoResourceReader = errors.New("no resource reader configured")
)

type handlerFunc func(ctx context.Context, req *jsonrpc.Request) (any, error)

// Engine is the dispatcher at the core of the server. It owns the session
// lifecycle flag, routes decoded requests through a static method table and
// turns every handler outcome into a response envelope. It is transport
// agnostic: the stdio loop feeds it one line at a time.
type Engine struct {
	srv mcpservice.ServerCapabilities
	log *slog.Logger

	requireInit bool
	initialized atomic.Bool

	handlers map[mcp.Method]handlerFunc
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger for the Engine.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRequireInitialize makes every method other than initialize fail until
// a successful initialize. The default is permissive.
func WithRequireInitialize(require bool) EngineOption {
	return func(e *Engine) { e.requireInit = require }
}

func NewEngine(srv mcpservice.ServerCapabilities, opts ...EngineOption) *Engine {
	e := &Engine{
		srv: srv,
		log: slog.Default(),
	}

	// Apply options (order matters; later options override earlier ones).
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	e.handlers = map[mcp.Method]handlerFunc{
		mcp.InitializeMethod:    e.handleInitialize,
		mcp.ToolsListMethod:     e.handleToolsList,
		mcp.ToolsCallMethod:     e.handleToolCall,
		mcp.ResourcesListMethod: e.handleResourcesList,
		mcp.ResourcesReadMethod: e.handleResourcesRead,
	}
	return e
}

// Initialized reports whether a successful initialize has been handled. The
// flag only ever transitions from false to true.
func (e *Engine) Initialized() bool { return e.initialized.Load() }

// HandleLine decodes one inbound line, dispatches it and returns the encoded
// response line without a trailing newline. It always returns exactly one
// line, including for notifications and undecodable input.
func (e *Engine) HandleLine(ctx context.Context, line []byte) []byte {
	var res *jsonrpc.Response

	req, err := jsonrpc.Decode(line)
	var decErr *jsonrpc.DecodeError
	switch {
	case err == nil:
		res = e.HandleRequest(ctx, req)
	case errors.As(err, &decErr):
		e.log.InfoContext(ctx, "engine.handle_line.invalid", slog.String("err", err.Error()))
		res = jsonrpc.NewErrorResponse(decErr.ID, jsonrpc.ErrorCodeInternalError, err.Error(), nil)
	default:
		e.log.InfoContext(ctx, "engine.handle_line.parse_error", slog.String("err", err.Error()))
		res = jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeParseError, "Parse error", nil)
	}

	out, err := jsonrpc.Encode(res)
	if err != nil {
		e.log.ErrorContext(ctx, "engine.handle_line.encode.fail", slog.String("err", err.Error()))
		out, _ = jsonrpc.Encode(jsonrpc.NewErrorResponse(res.ID, jsonrpc.ErrorCodeInternalError, err.Error(), nil))
	}
	return out
}

// HandleRequest routes a decoded request and converts the outcome into a
// response. It never returns nil and never panics.
func (e *Engine) HandleRequest(ctx context.Context, req *jsonrpc.Request) (res *jsonrpc.Response) {
	start := time.Now()

	msgType := "request"
	if req.IsNotification() {
		msgType = "notification"
	}
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: req.Method, ID: req.ID.String(), Type: msgType})
	log := e.log.With(slog.String("method", req.Method))

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "engine.handle_request.panic",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
				slog.Int64("dur_ms", time.Since(start).Milliseconds()))
			res = jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, fmt.Sprintf("internal error: %v", r), nil)
		}
	}()

	h, ok := e.handlers[mcp.Method(req.Method)]
	if !ok {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", "method not found"), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "Method not found: "+req.Method, nil)
	}

	if e.requireInit && req.Method != string(mcp.InitializeMethod) && !e.initialized.Load() {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", ErrNotInitialized.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, ErrNotInitialized.Error(), nil)
	}

	result, err := h(ctx, req)
	if err != nil {
		var rpcErr *jsonrpc.Error
		if errors.As(err, &rpcErr) {
			log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", rpcErr.Message), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
			return jsonrpc.NewErrorResponse(req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		}
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, err.Error(), nil)
	}

	res, err = jsonrpc.NewResultResponse(req.ID, result)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, err.Error(), nil)
	}

	log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	return res
}

func (e *Engine) handleInitialize(ctx context.Context, req *jsonrpc.Request) (any, error) {
	// Params are informational only; malformed or missing params are tolerated.
	var params mcp.InitializeRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			e.log.DebugContext(ctx, "engine.initialize.params_ignored", slog.String("err", err.Error()))
		}
	}

	if e.initialized.CompareAndSwap(false, true) {
		e.log.InfoContext(ctx, "engine.initialize",
			slog.String("client_name", params.ClientInfo.Name),
			slog.String("client_version", params.ClientInfo.Version),
			slog.String("client_protocol_version", params.ProtocolVersion))
	}

	return &mcp.InitializeResult{
		ProtocolVersion: mcp.ProtocolVersion,
		Capabilities: mcp.ServerCapabilities{
			Tools:     &mcp.ToolsCapability{},
			Resources: &mcp.ResourcesCapability{},
		},
		ServerInfo: e.srv.ServerInfo(),
	}, nil
}

func (e *Engine) handleToolsList(ctx context.Context, req *jsonrpc.Request) (any, error) {
	return &mcp.ListToolsResult{Tools: e.srv.Registry().ListTools()}, nil
}

func (e *Engine) handleToolCall(ctx context.Context, req *jsonrpc.Request) (any, error) {
	var params mcp.CallToolRequestReceived
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, fmt.Errorf("invalid tools/call params: %w", err)
		}
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: params.Name})

	exec := e.srv.ToolExecutor()
	if exec == nil {
		return nil, ErrNoToolExecutor
	}

	out, err := exec.Execute(ctx, params.Name, params.Arguments)
	if err != nil {
		return nil, err
	}

	text, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result of tool %s: %w", params.Name, err)
	}

	e.log.DebugContext(ctx, "engine.tool_call.ok", slog.Int("result_bytes", len(text)))

	return &mcp.CallToolResult{
		Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: string(text)}},
	}, nil
}

func (e *Engine) handleResourcesList(ctx context.Context, req *jsonrpc.Request) (any, error) {
	return &mcp.ListResourcesResult{Resources: e.srv.Registry().ListResources()}, nil
}

func (e *Engine) handleResourcesRead(ctx context.Context, req *jsonrpc.Request) (any, error) {
	var params mcp.ReadResourceRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, fmt.Errorf("invalid resources/read params: %w", err)
		}
	}

	ctx = logctx.WithResourceData(ctx, &logctx.ResourceData{URI: params.URI})

	reader := e.srv.ResourceReader()
	if reader == nil {
		return nil, ErrNoResourceReader
	}

	contents, err := reader.Read(ctx, params.URI)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{Contents: []mcp.ResourceContents{contents}}, nil
}
