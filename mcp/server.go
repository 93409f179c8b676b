// Package mcp provides an MCP (Model Context Protocol) adapter exposing
// read-only wiki tools over the sync engine: remote search, page reads,
// and local sync status. It uses stdio transport via mcp-go.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stackmd/stackmd"
)

// Server wraps the MCP server with stackmd tools.
type Server struct {
	engine    *stackmd.Engine
	client    stackmd.Client
	mcpServer *server.MCPServer
}

// ToolResult represents the result of a tool call.
type ToolResult struct {
	Content string
	IsError bool
}

// ToolInfo represents a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates a new MCP server with stackmd tools registered.
// client may be nil; remote tools then report an offline error.
func NewServer(engine *stackmd.Engine, client stackmd.Client) *Server {
	s := &Server{engine: engine, client: client}

	s.mcpServer = server.NewMCPServer(
		"stackmd",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// HandleMessage processes a raw JSON-RPC message and returns a response.
// This is primarily for testing the MCP protocol layer.
func (s *Server) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	return s.mcpServer.HandleMessage(ctx, message)
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{Name: "wiki_search", Description: "Search the wiki for shelves, books, chapters and pages"},
		{Name: "wiki_read_page", Description: "Read a wiki page's content as Markdown"},
		{Name: "sync_status", Description: "Report local cache statistics and the last structure sync"},
	}
}

// CallTool executes a tool by name with the given arguments.
// This is used for testing and direct invocation.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	switch name {
	case "wiki_search":
		return s.handleSearch(ctx, args)
	case "wiki_read_page":
		return s.handleReadPage(ctx, args)
	case "sync_status":
		return s.handleStatus(ctx, args)
	default:
		return &ToolResult{Content: fmt.Sprintf("unknown tool: %s", name), IsError: true}, nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("wiki_search",
		mcp.WithDescription("Search the wiki for shelves, books, chapters and pages matching a query. Read-only."),
		mcp.WithString("query",
			mcp.Description("The search query"),
			mcp.Required(),
		),
		mcp.WithNumber("count",
			mcp.Description("Maximum number of results to return (default: 20)"),
		),
	), s.mcpHandleSearch)

	s.mcpServer.AddTool(mcp.NewTool("wiki_read_page",
		mcp.WithDescription("Read a wiki page's content as Markdown by its page id. Read-only."),
		mcp.WithNumber("page_id",
			mcp.Description("The remote page id"),
			mcp.Required(),
		),
	), s.mcpHandleReadPage)

	s.mcpServer.AddTool(mcp.NewTool("sync_status",
		mcp.WithDescription("Report local cache statistics per entity kind and the time of the last structure sync."),
	), s.mcpHandleStatus)
}

func (s *Server) mcpHandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleSearch(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleReadPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleReadPage(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleStatus(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func toMCPResult(r *ToolResult) *mcp.CallToolResult {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: r.Content,
			},
		},
	}
	if r.IsError {
		result.IsError = true
	}
	return result
}

// Internal handlers

func (s *Server) handleSearch(ctx context.Context, args map[string]any) (*ToolResult, error) {
	if s.client == nil {
		return &ToolResult{Content: stackmd.ErrOffline.Error(), IsError: true}, nil
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return &ToolResult{Content: "query is required", IsError: true}, nil
	}
	count := 20
	if n, ok := args["count"].(float64); ok && n > 0 {
		count = int(n)
	}

	results, err := s.client.Search(ctx, query, 1, count)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("search failed: %v", err), IsError: true}, nil
	}

	payload, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, err
	}
	return &ToolResult{Content: string(payload)}, nil
}

func (s *Server) handleReadPage(ctx context.Context, args map[string]any) (*ToolResult, error) {
	if s.client == nil {
		return &ToolResult{Content: stackmd.ErrOffline.Error(), IsError: true}, nil
	}

	id, ok := args["page_id"].(float64)
	if !ok || id <= 0 {
		return &ToolResult{Content: "page_id is required", IsError: true}, nil
	}

	exported, err := s.client.ExportPage(ctx, int64(id), stackmd.FormatMarkdown)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("export failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: stackmd.DecodeAnchors(string(exported))}, nil
}

func (s *Server) handleStatus(ctx context.Context, _ map[string]any) (*ToolResult, error) {
	stats, err := s.engine.Store().Stats()
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("stats failed: %v", err), IsError: true}, nil
	}

	payload, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return nil, err
	}
	return &ToolResult{Content: string(payload)}, nil
}
