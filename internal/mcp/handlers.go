package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/pdfindex/internal/storage"
)

// Searcher answers free-text queries. A non-positive topK selects the default.
type Searcher interface {
	Query(ctx context.Context, text string, topK int) ([]storage.Result, error)
}

// IndexInfo describes the store backing the index.
type IndexInfo interface {
	Backend() string
	CollectionName() string
	Count(ctx context.Context) (int, error)
}

// makeSearchHandler creates the search_pdfs tool handler.
func makeSearchHandler(searcher Searcher) func(
	context.Context, *mcp.CallToolRequest, SearchPDFsInput,
) (*mcp.CallToolResult, SearchPDFsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchPDFsInput) (
		*mcp.CallToolResult, SearchPDFsOutput, error,
	) {
		found, err := searcher.Query(ctx, input.Query, input.TopK)
		if err != nil {
			return nil, SearchPDFsOutput{}, fmt.Errorf("search failed: %w", err)
		}

		if len(found) == 0 {
			return nil, SearchPDFsOutput{
				Results: []SearchResult{},
				Message: "No matching chunks found. Has the index been built?",
			}, nil
		}

		results := make([]SearchResult, 0, len(found))
		for _, r := range found {
			results = append(results, SearchResult{
				ID:    r.ID,
				File:  r.File(),
				Page:  r.Page(),
				Chunk: r.Chunk(),
				Score: r.Similarity,
			})
		}
		return nil, SearchPDFsOutput{Results: results}, nil
	}
}

// makeStatusHandler creates the index_status tool handler.
func makeStatusHandler(info IndexInfo) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		count, err := info.Count(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("store_error: failed to count records: %w", err)
		}
		return nil, StatusOutput{
			Backend:     info.Backend(),
			Collection:  info.CollectionName(),
			TotalChunks: count,
		}, nil
	}
}
