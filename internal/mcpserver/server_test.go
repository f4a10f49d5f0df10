package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/tikibase/internal/issue"
	"github.com/starford/tikibase/internal/service"
	"github.com/starford/tikibase/internal/testutil"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir, store := testutil.TestBase(t, map[string]string{
		"tikibase.json": `{"bidiLinks": true}`,
		"1.md":          "# One\ntext\n",
		"2.md":          "# Two\n[one](1.md)\n",
		"3.md":          "# Three\n[one](1.md)\n",
	})
	db := testutil.TestDB(t)
	svc := service.New(store, db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return New(svc, "test"), dir
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" helper, so the handlers are called directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "check":
		result, err = srv.check(ctx, req)
	case "fix":
		result, err = srv.fix(ctx, req)
	case "search":
		result, err = srv.search(ctx, req)
	case "read_document":
		result, err = srv.readDocument(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "stats":
		result, err = srv.stats(ctx, req)
	case "get_document_format":
		result, err = srv.getDocumentFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCheck(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "check", map[string]any{})
	if r.IsError {
		t.Fatalf("check failed: %s", resultText(r))
	}
	var msgs []issue.Message
	if err := json.Unmarshal([]byte(resultText(r)), &msgs); err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Errorf("issues = %d, want 3", len(msgs))
	}
}

func TestCheck_File(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "check", map[string]any{"file": "2.md"})
	if got := resultText(r); got != "[]" {
		t.Errorf("2.md issues = %q, want []", got)
	}
}

func TestFix(t *testing.T) {
	srv, dir := testServer(t)
	r := callTool(t, srv, "fix", map[string]any{})
	if r.IsError {
		t.Fatalf("fix failed: %s", resultText(r))
	}
	if !strings.Contains(testutil.ReadFile(t, dir, "1.md"), "### occurrences") {
		t.Error("occurrences section not written")
	}
	r = callTool(t, srv, "check", map[string]any{})
	if got := resultText(r); got != "[]" {
		t.Errorf("issues after fix = %q, want []", got)
	}
}

func TestReadDocument(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_document", map[string]any{"path": "2.md"})
	var doc service.DocumentDetail
	if err := json.Unmarshal([]byte(resultText(r)), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Content != "# Two\n[one](1.md)\n" {
		t.Errorf("content = %q", doc.Content)
	}
	if len(doc.Links) != 1 || doc.Links[0] != "1.md" {
		t.Errorf("links = %v, want [1.md]", doc.Links)
	}
}

func TestReadDocumentMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_document", map[string]any{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestGetBacklinks(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_backlinks", map[string]any{"path": "1.md"})
	if got := resultText(r); got != "2.md\n3.md" {
		t.Errorf("backlinks = %q, want 2.md and 3.md", got)
	}
	r = callTool(t, srv, "get_backlinks", map[string]any{"path": "2.md"})
	if got := resultText(r); got != "no backlinks found" {
		t.Errorf("backlinks = %q", got)
	}
}

func TestSearch(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "search", map[string]any{"query": "Three", "limit": 5})
	if !strings.Contains(resultText(r), `"path": "3.md"`) {
		t.Errorf("search = %q, want 3.md", resultText(r))
	}
	r = callTool(t, srv, "search", map[string]any{})
	if !r.IsError {
		t.Error("expected error without query")
	}
}

func TestStatsAndFormat(t *testing.T) {
	srv, _ := testServer(t)
	if got := resultText(callTool(t, srv, "stats", map[string]any{})); !strings.Contains(got, `"documents": 3`) {
		t.Errorf("stats = %q", got)
	}
	if got := resultText(callTool(t, srv, "get_document_format", map[string]any{})); got != DocumentFormatContract {
		t.Error("format contract mismatch")
	}
}

func TestSchemaResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readSchemaResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok || !strings.Contains(text.Text, "titleRegEx") {
		t.Errorf("schema resource = %+v", contents)
	}
}
