// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/domain/search"
	"github.com/aleysapc/docsearch/domain/task"
)

const previewLength = 200

// Searcher ranks stored records against a query.
type Searcher interface {
	Documents(ctx context.Context, query string, opts ...search.Option) ([]search.Match[document.Document], error)
	Correspondence(ctx context.Context, query string, opts ...search.Option) ([]search.Match[document.Correspondence], error)
	Drafts(ctx context.Context, query string, opts ...search.Option) ([]search.Match[document.Draft], error)
}

// JobLookup reports the state of indexing jobs.
type JobLookup interface {
	Status(ctx context.Context, id string) (task.Job, error)
}

// Server wraps the MCP server with docsearch tools.
type Server struct {
	mcpServer *server.MCPServer
	searcher  Searcher
	jobs      JobLookup
	version   string
	logger    *slog.Logger
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(searcher Searcher, jobs JobLookup, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		searcher: searcher,
		jobs:     jobs,
		version:  version,
		logger:   logger,
	}

	mcpServer := server.NewMCPServer(
		"docsearch",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions("Semantic search over uploaded documents, correspondence records and drafts. "+
			"Results carry a similarity between 0 and 1; higher is closer."),
	)
	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func searchTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language search text"),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Minimum similarity between 0 and 1 (default: server setting)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: server setting)"),
		),
	)
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		searchTool("search_documents", "Search uploaded documents by meaning"),
		s.handleSearchDocuments,
	)
	mcpServer.AddTool(
		searchTool("search_correspondence", "Search correspondence records by the text of their attached documents"),
		s.handleSearchCorrespondence,
	)
	mcpServer.AddTool(
		searchTool("search_drafts", "Search drafts by meaning"),
		s.handleSearchDrafts,
	)

	mcpServer.AddTool(mcp.NewTool("job_status",
		mcp.WithDescription("Get the status of a document indexing job"),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("The task id returned when the document was uploaded"),
		),
	), s.handleJobStatus)

	mcpServer.AddTool(mcp.NewTool("get_version",
		mcp.WithDescription("Get the docsearch server version"),
	), s.handleGetVersion)
}

type searchResult struct {
	ID         int64   `json:"id"`
	URI        string  `json:"uri"`
	Name       string  `json:"name"`
	Preview    string  `json:"preview"`
	Similarity float64 `json:"similarity"`
}

// searchArgs reads query, threshold and limit from a tool call.
func searchArgs(request mcp.CallToolRequest) (string, []search.Option, error) {
	query, err := request.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return "", nil, fmt.Errorf("query is required")
	}

	var opts []search.Option
	args := request.GetArguments()
	if _, ok := args["threshold"]; ok {
		t := request.GetFloat("threshold", search.DefaultThreshold)
		if t < 0 || t > 1 {
			return "", nil, fmt.Errorf("threshold must be between 0 and 1")
		}
		opts = append(opts, search.WithThreshold(t))
	}
	if _, ok := args["limit"]; ok {
		n := request.GetInt("limit", 0)
		if n < 0 {
			return "", nil, fmt.Errorf("limit must not be negative")
		}
		opts = append(opts, search.WithLimit(n))
	}
	return query, opts, nil
}

func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, opts, err := searchArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	matches, err := s.searcher.Documents(ctx, query, opts...)
	if err != nil {
		s.logger.Error("document search failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	results := make([]searchResult, len(matches))
	for i, m := range matches {
		results[i] = searchResult{
			ID:         m.Entity.ID(),
			URI:        NewRecordURI("documents", m.Entity.ID()).String(),
			Name:       m.Entity.Name(),
			Preview:    m.Entity.Preview(previewLength),
			Similarity: round4(m.Score),
		}
	}
	return jsonResult(results)
}

func (s *Server) handleSearchCorrespondence(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, opts, err := searchArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	matches, err := s.searcher.Correspondence(ctx, query, opts...)
	if err != nil {
		s.logger.Error("correspondence search failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	results := make([]searchResult, len(matches))
	for i, m := range matches {
		results[i] = searchResult{
			ID:         m.Entity.ID(),
			URI:        NewRecordURI("correspondence", m.Entity.ID()).String(),
			Name:       m.Entity.Reference(),
			Preview:    document.Preview(m.Entity.Subject(), previewLength),
			Similarity: round4(m.Score),
		}
	}
	return jsonResult(results)
}

func (s *Server) handleSearchDrafts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, opts, err := searchArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	matches, err := s.searcher.Drafts(ctx, query, opts...)
	if err != nil {
		s.logger.Error("draft search failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	results := make([]searchResult, len(matches))
	for i, m := range matches {
		results[i] = searchResult{
			ID:         m.Entity.ID(),
			URI:        NewRecordURI("drafts", m.Entity.ID()).String(),
			Name:       m.Entity.Reference(),
			Preview:    document.Preview(m.Entity.SourceText(), previewLength),
			Similarity: round4(m.Score),
		}
	}
	return jsonResult(results)
}

func (s *Server) handleJobStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("task_id")
	if err != nil || strings.TrimSpace(id) == "" {
		return mcp.NewToolResultError("task_id is required"), nil
	}
	job, err := s.jobs.Status(ctx, id)
	if err != nil {
		s.logger.Error("failed to get job", slog.String("task_id", id), slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to get job: %v", err)), nil
	}
	return jsonResult(job)
}

func (s *Server) handleGetVersion(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.version), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
