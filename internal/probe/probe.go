// Package probe drives a running server over its line protocol and checks
// the answers of a fixed smoke-test script: initialize, tools/list,
// tools/call, resources/list and resources/read.
package probe

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/light-autom8/mcp-server-go/internal/jsonrpc"
	"github.com/light-autom8/mcp-server-go/mcp"
)

// Response is a decoded response line.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpc.Error  `json:"error,omitempty"`
	Raw     []byte          `json:"-"`
}

// ErrClientBroken is returned by Call after an earlier call was abandoned
// while waiting for its response. The stream position is unknown from then on.
var ErrClientBroken = errors.New("probe: client abandoned a pending read")

// Client writes one request line and reads one response line per call.
type Client struct {
	mu     sync.Mutex
	w      io.Writer
	r      *bufio.Reader
	nextID int
	broken bool
}

// NewClient wraps the server's stdin (w) and stdout (r).
func NewClient(w io.Writer, r io.Reader) *Client {
	return &Client{w: w, r: bufio.NewReaderSize(r, 64*1024)}
}

// Call sends method with params and waits for the matching response line.
// Request ids are sequential strings starting at "1".
func (c *Client) Call(ctx context.Context, method string, params any) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken {
		return nil, ErrClientBroken
	}
	c.nextID++
	id := strconv.Itoa(c.nextID)

	req := struct {
		JSONRPC string `json:"jsonrpc"`
		ID      string `json:"id"`
		Method  string `json:"method"`
		Params  any    `json:"params,omitempty"`
	}{JSONRPC: jsonrpc.ProtocolVersion, ID: id, Method: method, Params: params}

	line, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	if _, err := c.w.Write(append(line, '\n')); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	type read struct {
		line []byte
		err  error
	}
	ch := make(chan read, 1)
	go func() {
		l, err := c.r.ReadBytes('\n')
		ch <- read{l, err}
	}()

	var rd read
	select {
	case <-ctx.Done():
		// The reader goroutine still owns c.r.
		c.broken = true
		return nil, ctx.Err()
	case rd = <-ch:
	}
	if rd.err != nil && !(errors.Is(rd.err, io.EOF) && len(rd.line) > 0) {
		return nil, fmt.Errorf("read response: %w", rd.err)
	}

	var res Response
	if err := json.Unmarshal(rd.line, &res); err != nil {
		return nil, fmt.Errorf("decode response %q: %w", rd.line, err)
	}
	res.Raw = bytes.TrimSpace(rd.line)
	if want := strconv.Quote(id); string(res.ID) != want {
		return &res, fmt.Errorf("response id %s does not match request id %s", res.ID, want)
	}
	return &res, nil
}

// Step is one scripted call.
type Step struct {
	Name   string
	Method string
	Params any
	Check  func(*Response) error
}

// Result is the outcome of one step.
type Result struct {
	Step     Step
	Response *Response
	Err      error
	Duration time.Duration
}

// DefaultSteps mirrors a client session against the built-in tool and
// resource set.
func DefaultSteps() []Step {
	return []Step{
		{
			Name:   "initialize",
			Method: string(mcp.InitializeMethod),
			Params: map[string]any{
				"protocolVersion": mcp.ProtocolVersion,
				"capabilities":    map[string]any{},
				"clientInfo":      mcp.ImplementationInfo{Name: "mcp-probe", Version: "1.0.0"},
			},
			Check: func(r *Response) error {
				var res mcp.InitializeResult
				if err := decodeResult(r, &res); err != nil {
					return err
				}
				if res.ServerInfo.Name == "" || res.ProtocolVersion == "" {
					return errors.New("missing serverInfo.name or protocolVersion")
				}
				return nil
			},
		},
		{
			Name:   "tools/list",
			Method: string(mcp.ToolsListMethod),
			Check: func(r *Response) error {
				var res mcp.ListToolsResult
				if err := decodeResult(r, &res); err != nil {
					return err
				}
				if len(res.Tools) == 0 {
					return errors.New("no tools advertised")
				}
				return nil
			},
		},
		{
			Name:   "tools/call create_vector_store",
			Method: string(mcp.ToolsCallMethod),
			Params: map[string]any{
				"name":      "create_vector_store",
				"arguments": map[string]any{"name": "Test Vector Store"},
			},
			Check: func(r *Response) error {
				var res mcp.CallToolResult
				if err := decodeResult(r, &res); err != nil {
					return err
				}
				if len(res.Content) != 1 || res.Content[0].Type != mcp.ContentTypeText {
					return fmt.Errorf("unexpected content %+v", res.Content)
				}
				var out struct {
					Status string `json:"status"`
				}
				if err := json.Unmarshal([]byte(res.Content[0].Text), &out); err != nil {
					return fmt.Errorf("tool text is not JSON: %w", err)
				}
				if out.Status != "ready" {
					return fmt.Errorf("status %q, want ready", out.Status)
				}
				return nil
			},
		},
		{
			Name:   "resources/list",
			Method: string(mcp.ResourcesListMethod),
			Check: func(r *Response) error {
				var res mcp.ListResourcesResult
				return decodeResult(r, &res)
			},
		},
		{
			Name:   "resources/read customer_policies",
			Method: string(mcp.ResourcesReadMethod),
			Params: map[string]any{"uri": "file://customer_policies.txt"},
			Check: func(r *Response) error {
				var res mcp.ReadResourceResult
				if err := decodeResult(r, &res); err != nil {
					return err
				}
				if len(res.Contents) != 1 || res.Contents[0].MimeType != "text/plain" {
					return fmt.Errorf("unexpected contents %+v", res.Contents)
				}
				return nil
			},
		},
	}
}

func decodeResult(r *Response, v any) error {
	if r.Error != nil {
		return fmt.Errorf("error %d: %s", r.Error.Code, r.Error.Message)
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// Run executes steps in order. A transport failure aborts the remaining
// steps since the stream can no longer be trusted.
func Run(ctx context.Context, c *Client, steps []Step) []Result {
	results := make([]Result, 0, len(steps))
	for _, s := range steps {
		start := time.Now()
		res, err := c.Call(ctx, s.Method, s.Params)
		r := Result{Step: s, Response: res, Err: err, Duration: time.Since(start)}
		if err == nil && s.Check != nil {
			r.Err = s.Check(res)
		}
		results = append(results, r)
		if err != nil {
			break
		}
	}
	return results
}

// Report prints one line per result, plus the raw response when verbose, and
// returns the number of failed steps.
func Report(w io.Writer, results []Result, verbose bool) int {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			red.Fprint(w, "FAIL ")
			fmt.Fprintf(w, "%-36s %v\n", r.Step.Name, r.Err)
		} else {
			green.Fprint(w, "PASS ")
			fmt.Fprintf(w, "%-36s %s\n", r.Step.Name, r.Duration.Round(time.Microsecond))
		}
		if verbose && r.Response != nil {
			cyan.Fprintf(w, "     %s\n", r.Response.Raw)
		}
	}

	if failed > 0 {
		red.Fprintf(w, "%d of %d steps failed\n", failed, len(results))
	} else {
		green.Fprintf(w, "all %d steps passed\n", len(results))
	}
	return failed
}
