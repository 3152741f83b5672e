// Package mcp exposes the PDF index to MCP clients.
package mcp

// SearchPDFsInput defines the input parameters for the search_pdfs tool.
type SearchPDFsInput struct {
	// Query is the free-text question.
	Query string `json:"query" jsonschema:"the question or phrase to search the indexed PDFs for"`
	// TopK is the maximum number of chunks to return.
	TopK int `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return, defaults to 5"`
}

// SearchPDFsOutput contains the search results.
type SearchPDFsOutput struct {
	Results []SearchResult `json:"results"`
	// Message provides informational context (e.g., "No matching chunks found").
	Message string `json:"message,omitempty"`
}

// SearchResult is one chunk matched by semantic search.
type SearchResult struct {
	ID    string  `json:"id"`
	File  string  `json:"file"`
	Page  string  `json:"page"`
	Chunk string  `json:"chunk"`
	Score float64 `json:"score"`
}

// StatusInput defines the input parameters for the index_status tool.
type StatusInput struct{}

// StatusOutput describes the index.
type StatusOutput struct {
	Backend     string `json:"backend"`
	Collection  string `json:"collection"`
	TotalChunks int    `json:"total_chunks"`
}
