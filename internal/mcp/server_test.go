package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/domain/search"
	"github.com/aleysapc/docsearch/domain/task"
)

// fakeSearch implements Searcher with canned matches and records the
// options it was called with.
type fakeSearch struct {
	documents      []search.Match[document.Document]
	correspondence []search.Match[document.Correspondence]
	drafts         []search.Match[document.Draft]
	err            error
	lastQuery      string
	lastOptions    search.Options
}

func (f *fakeSearch) record(query string, opts []search.Option) {
	f.lastQuery = query
	f.lastOptions = search.NewOptions(opts...)
}

func (f *fakeSearch) Documents(_ context.Context, query string, opts ...search.Option) ([]search.Match[document.Document], error) {
	f.record(query, opts)
	return f.documents, f.err
}

func (f *fakeSearch) Correspondence(_ context.Context, query string, opts ...search.Option) ([]search.Match[document.Correspondence], error) {
	f.record(query, opts)
	return f.correspondence, f.err
}

func (f *fakeSearch) Drafts(_ context.Context, query string, opts ...search.Option) ([]search.Match[document.Draft], error) {
	f.record(query, opts)
	return f.drafts, f.err
}

// fakeJobs implements JobLookup over a map. Unknown ids are pending.
type fakeJobs struct {
	jobs map[string]task.Job
}

func (f *fakeJobs) Status(_ context.Context, id string) (task.Job, error) {
	if j, ok := f.jobs[id]; ok {
		return j, nil
	}
	return task.UnknownJob(id), nil
}

// sendMessage marshals a JSON-RPC request, sends it through HandleMessage,
// and returns the JSONRPCResponse.
func sendMessage(t *testing.T, srv *Server, method string, id int, params map[string]any) mcp.JSONRPCResponse {
	t.Helper()

	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		msg["params"] = params
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	result := srv.MCPServer().HandleMessage(context.Background(), raw)

	resp, ok := result.(mcp.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse, got %T: %+v", result, result)
	}
	return resp
}

// resultJSON re-marshals the Result field through JSON into dst.
func resultJSON(t *testing.T, resp mcp.JSONRPCResponse, dst any) {
	t.Helper()
	b, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		t.Fatalf("unmarshal result into %T: %v", dst, err)
	}
}

// textFromContent extracts the text of the first content item. It
// round-trips through JSON because in-process responses may hold the
// content as a map rather than a typed struct.
func textFromContent(t *testing.T, result mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	b, err := json.Marshal(result.Content[0])
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	var tc struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(b, &tc); err != nil {
		t.Fatalf("unmarshal text content: %v", err)
	}
	return tc.Text
}

func initializeParams() map[string]any {
	return map[string]any{
		"protocolVersion": "2025-06-18",
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    "test-client",
			"version": "0.0.1",
		},
	}
}

var fixedTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func testDocument() document.Document {
	return document.NewDocumentWithFields(
		42, "licencia.pdf", "/uploads/licencia.pdf", 0, "",
		document.NewEmbedded("Solicitud de licencia de obra menor", search.Vector{1, 0, 0}),
		fixedTime, fixedTime,
	)
}

func testFake() *fakeSearch {
	doc := testDocument()
	return &fakeSearch{
		documents: []search.Match[document.Document]{{Entity: doc, Score: 0.912345}},
		correspondence: []search.Match[document.Correspondence]{{
			Entity: document.NewCorrespondenceWithFields(3, "REF-2024-001", "Licencia de obra", "", []document.Document{doc}, fixedTime),
			Score:  0.8,
		}},
		drafts: []search.Match[document.Draft]{{
			Entity: document.NewDraftWithFields(5, document.DraftFields{Reference: "DR-1", Body: "Propuesta de presupuesto"},
				document.NewEmbedded("Propuesta de presupuesto", search.Vector{0, 1, 0}), fixedTime, fixedTime),
			Score: 0.7,
		}},
	}
}

func testServer(searcher Searcher) *Server {
	failed := task.NewJob("job-2", 42, "/uploads/licencia.pdf").Fail(errors.New("disk gone"))
	return NewServer(searcher, &fakeJobs{jobs: map[string]task.Job{"job-2": failed}}, "0.1.0-test", nil)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) mcp.CallToolResult {
	t.Helper()
	sendMessage(t, srv, "initialize", 1, initializeParams())
	resp := sendMessage(t, srv, "tools/call", 2, map[string]any{
		"name":      name,
		"arguments": args,
	})
	var result mcp.CallToolResult
	resultJSON(t, resp, &result)
	return result
}

func TestServer_Initialize(t *testing.T) {
	srv := testServer(testFake())
	resp := sendMessage(t, srv, "initialize", 1, initializeParams())

	var result mcp.InitializeResult
	resultJSON(t, resp, &result)

	if result.ServerInfo.Name != "docsearch" {
		t.Errorf("expected server name docsearch, got %s", result.ServerInfo.Name)
	}
	if result.ServerInfo.Version != "0.1.0-test" {
		t.Errorf("expected version 0.1.0-test, got %s", result.ServerInfo.Version)
	}
	if result.Capabilities.Tools == nil {
		t.Error("expected tools capability to be present")
	}
}

func TestServer_ListTools(t *testing.T) {
	srv := testServer(testFake())
	sendMessage(t, srv, "initialize", 1, initializeParams())

	resp := sendMessage(t, srv, "tools/list", 2, nil)

	var result mcp.ListToolsResult
	resultJSON(t, resp, &result)

	tools := map[string]mcp.Tool{}
	for _, tool := range result.Tools {
		tools[tool.Name] = tool
	}
	for _, name := range []string{"search_documents", "search_correspondence", "search_drafts", "job_status", "get_version"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing tool: %s", name)
		}
	}
	if len(result.Tools) != 5 {
		t.Errorf("expected 5 tools, got %d", len(result.Tools))
	}

	props := tools["search_documents"].InputSchema.Properties
	for _, param := range []string{"query", "threshold", "limit"} {
		if _, ok := props[param]; !ok {
			t.Errorf("search_documents missing %s parameter", param)
		}
	}
}

func TestServer_SearchDocuments(t *testing.T) {
	fake := testFake()
	result := callTool(t, testServer(fake), "search_documents", map[string]any{
		"query":     "licencia de obra",
		"threshold": 0.6,
		"limit":     3,
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", textFromContent(t, result))
	}

	var items []searchResult
	if err := json.Unmarshal([]byte(textFromContent(t, result)), &items); err != nil {
		t.Fatalf("unmarshal search results: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 result, got %d", len(items))
	}
	if items[0].ID != 42 || items[0].Name != "licencia.pdf" {
		t.Errorf("unexpected result %+v", items[0])
	}
	if items[0].URI != "docsearch://documents/42" {
		t.Errorf("expected document uri, got %s", items[0].URI)
	}
	if items[0].Similarity != 0.9123 {
		t.Errorf("expected similarity rounded to 0.9123, got %v", items[0].Similarity)
	}

	if fake.lastQuery != "licencia de obra" {
		t.Errorf("expected query to be forwarded, got %q", fake.lastQuery)
	}
	if fake.lastOptions.Threshold() != 0.6 || fake.lastOptions.Limit() != 3 {
		t.Errorf("expected threshold 0.6 and limit 3, got %v and %d", fake.lastOptions.Threshold(), fake.lastOptions.Limit())
	}
}

func TestServer_SearchDefaultsLeaveOptionsUnset(t *testing.T) {
	fake := testFake()
	result := callTool(t, testServer(fake), "search_drafts", map[string]any{"query": "presupuesto"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", textFromContent(t, result))
	}
	if fake.lastOptions.Threshold() != search.DefaultThreshold || fake.lastOptions.Limit() != 0 {
		t.Errorf("expected default options, got threshold %v limit %d", fake.lastOptions.Threshold(), fake.lastOptions.Limit())
	}

	var items []searchResult
	if err := json.Unmarshal([]byte(textFromContent(t, result)), &items); err != nil {
		t.Fatalf("unmarshal search results: %v", err)
	}
	if len(items) != 1 || items[0].Name != "DR-1" || items[0].URI != "docsearch://drafts/5" {
		t.Errorf("unexpected draft results %+v", items)
	}
}

func TestServer_SearchCorrespondence(t *testing.T) {
	result := callTool(t, testServer(testFake()), "search_correspondence", map[string]any{"query": "obra"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", textFromContent(t, result))
	}
	text := textFromContent(t, result)
	if !strings.Contains(text, "REF-2024-001") || !strings.Contains(text, "Licencia de obra") {
		t.Errorf("expected reference and subject in output, got: %s", text)
	}
}

func TestServer_SearchValidation(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing query", map[string]any{}, "query is required"},
		{"blank query", map[string]any{"query": "   "}, "query is required"},
		{"threshold above one", map[string]any{"query": "x", "threshold": 1.5}, "threshold must be between 0 and 1"},
		{"negative limit", map[string]any{"query": "x", "limit": -1}, "limit must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, testServer(testFake()), "search_documents", tt.args)
			if !result.IsError {
				t.Fatal("expected error response")
			}
			if text := textFromContent(t, result); !strings.Contains(text, tt.want) {
				t.Errorf("expected %q, got %s", tt.want, text)
			}
		})
	}
}

func TestServer_SearchFailure(t *testing.T) {
	fake := testFake()
	fake.err = errors.New("client closed")
	result := callTool(t, testServer(fake), "search_documents", map[string]any{"query": "x"})
	if !result.IsError {
		t.Fatal("expected error response")
	}
	if text := textFromContent(t, result); !strings.Contains(text, "client closed") {
		t.Errorf("expected cause in error, got %s", text)
	}
}

func TestServer_JobStatus(t *testing.T) {
	srv := testServer(testFake())

	result := callTool(t, srv, "job_status", map[string]any{"task_id": "job-2"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", textFromContent(t, result))
	}
	var failed struct {
		TaskID string `json:"task_id"`
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal([]byte(textFromContent(t, result)), &failed); err != nil {
		t.Fatalf("unmarshal job: %v", err)
	}
	if failed.TaskID != "job-2" || failed.Status != "failure" || failed.Error != "disk gone" {
		t.Errorf("unexpected job %+v", failed)
	}

	result = callTool(t, srv, "job_status", map[string]any{"task_id": "unknown"})
	if text := textFromContent(t, result); !strings.Contains(text, `"status":"pending"`) {
		t.Errorf("expected unknown job to be pending, got %s", text)
	}
}

func TestServer_GetVersion(t *testing.T) {
	result := callTool(t, testServer(testFake()), "get_version", map[string]any{})
	if result.IsError {
		t.Fatal("expected success, got error")
	}
	if text := textFromContent(t, result); text != "0.1.0-test" {
		t.Errorf("expected version 0.1.0-test, got %s", text)
	}
}

var (
	_ Searcher  = (*fakeSearch)(nil)
	_ JobLookup = (*fakeJobs)(nil)
)
