// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/snapvec/snapvec/application/service"
	"github.com/snapvec/snapvec/domain/embedding"
)

// Searcher provides the search operations exposed as MCP tools.
type Searcher interface {
	Search(ctx context.Context, query string, limit int, threshold *float64, scope service.Scope) (service.SearchOutcome, error)
	FindSimilar(ctx context.Context, ref embedding.EntityRef, limit int, threshold *float64) (service.SearchOutcome, error)
}

// Server wraps the MCP server with gallery search tools.
type Server struct {
	mcpServer *server.MCPServer
	search    Searcher
	logger    *slog.Logger
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(search Searcher, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		search: search,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"snapvec",
		version,
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

// MCPServer returns the underlying MCP server for transport mounting.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	searchTool := mcp.NewTool("search_gallery",
		mcp.WithDescription("Search the media gallery by meaning using embedding similarity"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The natural language search query"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Number of results to return"),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Minimum similarity score between 0 and 1"),
		),
		mcp.WithNumber("owner_id",
			mcp.Description("Restrict results to items owned by this user"),
		),
		mcp.WithNumber("album_id",
			mcp.Description("Restrict results to items in this album"),
		),
	)

	mcpServer.AddTool(searchTool, s.handleSearch)

	similarTool := mcp.NewTool("find_similar",
		mcp.WithDescription("Find gallery items similar to a given image or album"),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Entity kind: image or album"),
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("The entity ID"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Number of results to return"),
		),
	)

	mcpServer.AddTool(similarTool, s.handleSimilar)
}

type toolResult struct {
	Kind     string  `json:"kind"`
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Score    float64 `json:"score"`
	Fallback bool    `json:"fallback"`
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}

	limit := request.GetInt("limit", 0)

	var threshold *float64
	if t := request.GetFloat("threshold", -1); t >= 0 {
		threshold = &t
	}

	scope := service.Scope{
		OwnerID: int64(request.GetInt("owner_id", 0)),
		AlbumID: int64(request.GetInt("album_id", 0)),
	}

	outcome, err := s.search.Search(ctx, query, limit, threshold, scope)
	if err != nil {
		s.logger.Error("search failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return s.toolResults(outcome)
}

func (s *Server) handleSimilar(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := request.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("kind is required"), nil
	}
	if k := embedding.Kind(kind); k != embedding.KindImage && k != embedding.KindAlbum {
		return mcp.NewToolResultError(fmt.Sprintf("unknown kind %q", kind)), nil
	}

	id, err := request.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}

	limit := request.GetInt("limit", 0)
	ref := embedding.NewEntityRef(embedding.Kind(kind), int64(id))

	outcome, err := s.search.FindSimilar(ctx, ref, limit, nil)
	if err != nil {
		s.logger.Error("find similar failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("find similar failed: %v", err)), nil
	}

	return s.toolResults(outcome)
}

func (s *Server) toolResults(outcome service.SearchOutcome) (*mcp.CallToolResult, error) {
	results := make([]toolResult, len(outcome.Results))
	for i, res := range outcome.Results {
		results[i] = toolResult{
			Kind:     string(res.Ref().Kind()),
			ID:       res.Ref().ID(),
			Title:    res.Title(),
			Score:    res.Score(),
			Fallback: res.IsFallback(),
		}
	}

	jsonBytes, err := json.Marshal(results)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}
