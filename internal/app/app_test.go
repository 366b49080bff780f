package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/light-autom8/mcp-server-go/internal/config"
	"github.com/light-autom8/mcp-server-go/mcp"
	"github.com/light-autom8/mcp-server-go/stdio"
)

const policies = "Returns are accepted within 30 days of purchase.\n"

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "customer_policies.txt"), []byte(policies), 0o644); err != nil {
		t.Fatal(err)
	}
	return config.Config{
		ServerName:      "light-autom8-mcp-server",
		ServerVersion:   "1.0.0",
		ResourceRoot:    root,
		Storage:         config.StorageMemory,
		StorageMaxItems: 1000,
	}
}

func newApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

type response struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// session pipes the given lines through the stdio loop and returns one
// decoded response per request.
func session(t *testing.T, a *App, lines ...string) []response {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	h := stdio.NewHandler(a.Engine, stdio.WithIO(in, &out), stdio.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err := h.Serve(context.Background()); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	var res []response
	for _, l := range strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n") {
		var r response
		if err := json.Unmarshal([]byte(l), &r); err != nil {
			t.Fatalf("decode %q: %v", l, err)
		}
		res = append(res, r)
	}
	if len(res) != len(lines) {
		t.Fatalf("got %d responses for %d requests", len(res), len(lines))
	}
	return res
}

func toolText(t *testing.T, r response) map[string]any {
	t.Helper()
	if r.Error != nil {
		t.Fatalf("unexpected error: %+v", r.Error)
	}
	var res mcp.CallToolResult
	if err := json.Unmarshal(r.Result, &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Content) != 1 || res.Content[0].Type != "text" {
		t.Fatalf("content = %+v", res.Content)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(res.Content[0].Text), &m); err != nil {
		t.Fatalf("tool text is not JSON: %q", res.Content[0].Text)
	}
	return m
}

func TestEndToEnd(t *testing.T) {
	a := newApp(t, testConfig(t))

	res := session(t, a,
		`{"jsonrpc":"2.0","id":"1","method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","id":"2","method":"tools/call","params":{"name":"create_vector_store","arguments":{"name":"Test"}}}`,
		`{"jsonrpc":"2.0","id":"3","method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":"4","method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":"5","method":"resources/read","params":{"uri":"file://customer_policies.txt"}}`,
		`{"jsonrpc":"2.0","id":"6","method":"resources/read","params":{"uri":"file://secrets.txt"}}`,
		`{"jsonrpc":"2.0","id":"7","method":"tools/call","params":{"name":"delete_everything","arguments":{}}}`,
	)

	// initialize
	var init mcp.InitializeResult
	if err := json.Unmarshal(res[0].Result, &init); err != nil || res[0].Error != nil {
		t.Fatalf("initialize: %v %+v", err, res[0].Error)
	}
	if string(res[0].ID) != `"1"` || init.ServerInfo.Name != "light-autom8-mcp-server" || init.ProtocolVersion == "" {
		t.Fatalf("initialize = %s", res[0].Result)
	}
	if !a.Engine.Initialized() {
		t.Fatalf("engine not initialized")
	}

	// tools/call create_vector_store
	created := toolText(t, res[1])
	id, _ := created["vector_store_id"].(string)
	if !strings.HasPrefix(id, "vs_") || len(id) <= len("vs_") || created["status"] != "ready" || created["success"] != true {
		t.Fatalf("create result = %v", created)
	}

	// tools/list
	var tools mcp.ListToolsResult
	if err := json.Unmarshal(res[2].Result, &tools); err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	if strings.Join(names, ",") != "create_vector_store,upload_file_to_vector_store,list_vector_stores" {
		t.Fatalf("tools = %v", names)
	}

	// resources/list
	var resources mcp.ListResourcesResult
	if err := json.Unmarshal(res[3].Result, &resources); err != nil {
		t.Fatal(err)
	}
	if len(resources.Resources) != 1 || resources.Resources[0] != DefaultResources()[0] {
		t.Fatalf("resources = %+v", resources.Resources)
	}

	// resources/read
	var read mcp.ReadResourceResult
	if err := json.Unmarshal(res[4].Result, &read); err != nil {
		t.Fatal(err)
	}
	if len(read.Contents) != 1 || read.Contents[0].MimeType != "text/plain" || read.Contents[0].Text != policies {
		t.Fatalf("read = %+v", read.Contents)
	}

	for _, r := range res[5:] {
		if r.Error == nil || r.Error.Code != -32603 {
			t.Fatalf("expected -32603 for id %s, got %+v", r.ID, r.Error)
		}
	}
	if res[6].Error.Message != "unknown tool: delete_everything" {
		t.Fatalf("message = %q", res[6].Error.Message)
	}
}

func TestVectorStoreWorkflow(t *testing.T) {
	a := newApp(t, testConfig(t))

	res := session(t, a,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"upload_file_to_vector_store","arguments":{"vector_store_id":"vs_1","file_content":"Q: hours? A: 9-5"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"upload_file_to_vector_store","arguments":{"vector_store_id":"vs_nope","file_content":"x"}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"list_vector_stores"}}`,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"create_vector_store","arguments":{}}}`,
	)

	up := toolText(t, res[0])
	if up["file_name"] != "uploaded_file.txt" || up["status"] != "uploaded" || up["vector_store_id"] != "vs_1" {
		t.Fatalf("upload = %v", up)
	}
	if res[1].Error == nil || !strings.Contains(res[1].Error.Message, "vector store not found") {
		t.Fatalf("unknown store = %+v", res[1].Error)
	}

	list := toolText(t, res[2])
	stores, _ := list["vector_stores"].([]any)
	if len(stores) != 1 {
		t.Fatalf("stores = %v", list)
	}
	first := stores[0].(map[string]any)
	if first["id"] != "vs_1" || first["name"] != "Support FAQ" || first["created_at"] != "2024-09-22T23:20:00Z" || first["file_count"] != float64(1) {
		t.Fatalf("seed store = %v", first)
	}

	if res[3].Error == nil || res[3].Error.Code != -32603 {
		t.Fatalf("missing name = %+v", res[3].Error)
	}
}

func TestMissingResourceFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.ResourceRoot = t.TempDir()
	a := newApp(t, cfg)

	res := session(t, a, `{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"file://customer_policies.txt"}}`)
	if res[0].Error == nil || res[0].Error.Code != -32603 {
		t.Fatalf("expected -32603, got %+v", res[0].Error)
	}
}

func TestResourceCatalogFile(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(filepath.Join(cfg.ResourceRoot, "faq.md"), []byte("# FAQ"), 0o644); err != nil {
		t.Fatal(err)
	}
	catalog := filepath.Join(t.TempDir(), "catalog.yaml")
	yaml := "resources:\n  - uri: file://faq.md\n    name: FAQ\n    description: Frequently asked questions\n    mimeType: text/markdown\n"
	if err := os.WriteFile(catalog, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.ResourceCatalog = catalog
	cfg.ResourceWatch = true
	a := newApp(t, cfg)

	res := session(t, a,
		`{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"file://faq.md"}}`,
		`{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"file://customer_policies.txt"}}`,
	)
	var read mcp.ReadResourceResult
	if err := json.Unmarshal(res[0].Result, &read); err != nil {
		t.Fatal(err)
	}
	if read.Contents[0].MimeType != "text/markdown" || read.Contents[0].Text != "# FAQ" {
		t.Fatalf("read = %+v", read.Contents)
	}
	if res[1].Error == nil {
		t.Fatalf("built-in resource must be replaced by the catalog")
	}
}

func TestRequireInitialize(t *testing.T) {
	cfg := testConfig(t)
	cfg.RequireInitialize = true
	a := newApp(t, cfg)

	res := session(t, a,
		`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":2,"method":"initialize"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/list"}`,
	)
	if res[0].Error == nil || res[0].Error.Message != "server not initialized" {
		t.Fatalf("pre-init = %+v", res[0].Error)
	}
	if res[2].Error != nil {
		t.Fatalf("post-init = %+v", res[2].Error)
	}
}

func TestNewRejectsBadCatalog(t *testing.T) {
	cfg := testConfig(t)
	cfg.ResourceCatalog = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error")
	}
}
