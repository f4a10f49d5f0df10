// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes tikibase tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/tikibase/internal/apperr"
	"github.com/starford/tikibase/internal/service"
	"github.com/starford/tikibase/internal/tree"
)

const (
	formatURI = "tikibase://document-format"
	schemaURI = "tikibase://config-schema"
)

// Server wraps the MCP server with tikibase tools.
type Server struct {
	mcp *server.MCPServer
	svc *service.Service
}

// New creates a new MCP server with all tikibase tools registered.
func New(svc *service.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Tikibase",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("check",
		mcp.WithDescription("Rescan the tikibase and list its issues. "+
			"Each issue has file, 1-based line (0 for the whole file), and text."),
		mcp.WithString("file", mcp.Description("Optional document path to limit the issues to")),
	), s.check)

	s.mcp.AddTool(mcp.NewTool("fix",
		mcp.WithDescription("Apply every automatic fix (occurrences, section capitalization, "+
			"section levels, empty sections, section order) and report what changed."),
	), s.fix)

	s.mcp.AddTool(mcp.NewTool("search",
		mcp.WithDescription("Full-text search through document titles, sections, and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.search)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read a document with its links, backlinks, and issues."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. folder/doc.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all documents that link to the specified document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the document to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("stats",
		mcp.WithDescription("Counts of documents, resources, sections, and links, plus section title frequencies."),
	), s.stats)

	s.mcp.AddTool(mcp.NewTool("get_document_format",
		mcp.WithDescription("Returns the Markdown conventions this tikibase enforces. "+
			"Call this before proposing edits to documents."),
	), s.getDocumentFormat)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Document Format",
			mcp.WithResourceDescription("Markdown conventions enforced by tikibase check."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	s.mcp.AddResource(
		mcp.NewResource(schemaURI, "Configuration Schema",
			mcp.WithResourceDescription("JSON schema of tikibase.json."),
			mcp.WithMIMEType("application/schema+json"),
		),
		s.readSchemaResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) check(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.svc.Refresh(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	msgs, err := s.svc.Issues(ctx, req.GetString("file", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(msgs)
}

func (s *Server) fix(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := s.svc.Fix(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(out)
}

func (s *Server) search(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.Document(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(doc)
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) stats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.svc.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(st)
}

func (s *Server) getDocumentFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}

func (s *Server) readSchemaResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	schema, err := tree.JSONSchema()
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      schemaURI,
			MIMEType: "application/schema+json",
			Text:     string(schema),
		},
	}, nil
}
