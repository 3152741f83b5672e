package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server *mcp.Server
}

// Config holds server dependencies.
type Config struct {
	Search  Searcher
	Index   IndexInfo
	Version string
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "v0.1.0"
	}
	impl := &mcp.Implementation{
		Name:    "pdfindex-server",
		Version: version,
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_pdfs",
		Description: "Semantic search over the indexed PDF documents. Returns the most similar text chunks with their file and page.",
	}, makeSearchHandler(cfg.Search))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_status",
		Description: "Get the vector store backend, collection name and number of indexed chunks.",
	}, makeStatusHandler(cfg.Index))

	return &Server{server: server}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
