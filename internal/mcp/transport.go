package mcp

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// HTTPHandlerOptions configures the HTTP transport behavior.
type HTTPHandlerOptions struct {
	// Stateless disables session management. Default: false (stateful).
	Stateless bool
}

// NewHTTPHandler serves the MCP server over Streamable HTTP.
// Mount it on "/mcp" next to the health endpoint:
//
//	mux := http.NewServeMux()
//	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))
//	mux.HandleFunc("/health", mcpserver.NewHealthHandler(store))
func NewHTTPHandler(server *Server, opts *HTTPHandlerOptions) http.Handler {
	if opts == nil {
		opts = &HTTPHandlerOptions{}
	}

	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server.MCPServer()
	}, &mcp.StreamableHTTPOptions{Stateless: opts.Stateless})
}

// NewMux routes /mcp to the MCP server and /health to the store health check.
func NewMux(server *Server, store HealthChecker, opts *HTTPHandlerOptions) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", NewHealthHandler(store))
	mux.Handle("/mcp", NewHTTPHandler(server, opts))
	return mux
}
