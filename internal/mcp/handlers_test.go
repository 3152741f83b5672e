package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/pdfindex/internal/storage"
)

type fakeSearcher struct {
	results []storage.Result
	err     error
	gotText string
	gotTopK int
}

func (f *fakeSearcher) Query(_ context.Context, text string, topK int) ([]storage.Result, error) {
	f.gotText = text
	f.gotTopK = topK
	return f.results, f.err
}

type fakeIndex struct {
	count     int
	err       error
	healthErr error
}

func (f *fakeIndex) Backend() string                    { return "chromem" }
func (f *fakeIndex) CollectionName() string             { return "pdf_embeddings" }
func (f *fakeIndex) Count(context.Context) (int, error) { return f.count, f.err }
func (f *fakeIndex) Health(context.Context) error       { return f.healthErr }

func TestSearchHandler(t *testing.T) {
	searcher := &fakeSearcher{results: []storage.Result{
		{
			ID:         "geo.pdf_page_0_chunk_0",
			Metadata:   map[string]string{storage.MetaFile: "geo.pdf", storage.MetaPage: "0", storage.MetaChunk: "Paris is the capital of France."},
			Similarity: 0.91,
		},
	}}
	handler := makeSearchHandler(searcher)

	_, out, err := handler(context.Background(), nil, SearchPDFsInput{Query: "capital of France", TopK: 3})
	require.NoError(t, err)

	assert.Equal(t, "capital of France", searcher.gotText)
	assert.Equal(t, 3, searcher.gotTopK)
	require.Len(t, out.Results, 1)
	assert.Equal(t, SearchResult{
		ID:    "geo.pdf_page_0_chunk_0",
		File:  "geo.pdf",
		Page:  "0",
		Chunk: "Paris is the capital of France.",
		Score: 0.91,
	}, out.Results[0])
	assert.Empty(t, out.Message)
}

func TestSearchHandler_NoResults(t *testing.T) {
	handler := makeSearchHandler(&fakeSearcher{results: []storage.Result{}})

	_, out, err := handler(context.Background(), nil, SearchPDFsInput{Query: "anything"})
	require.NoError(t, err)
	assert.NotNil(t, out.Results)
	assert.Empty(t, out.Results)
	assert.NotEmpty(t, out.Message)
}

func TestSearchHandler_Error(t *testing.T) {
	handler := makeSearchHandler(&fakeSearcher{err: errors.New("ollama down")})

	_, _, err := handler(context.Background(), nil, SearchPDFsInput{Query: "anything"})
	assert.ErrorContains(t, err, "ollama down")
}

func TestStatusHandler(t *testing.T) {
	handler := makeStatusHandler(&fakeIndex{count: 42})

	_, out, err := handler(context.Background(), nil, StatusInput{})
	require.NoError(t, err)
	assert.Equal(t, StatusOutput{Backend: "chromem", Collection: "pdf_embeddings", TotalChunks: 42}, out)

	handler = makeStatusHandler(&fakeIndex{err: storage.ErrStoreUnreachable})
	_, _, err = handler(context.Background(), nil, StatusInput{})
	assert.ErrorIs(t, err, storage.ErrStoreUnreachable)
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		healthErr  error
		wantCode   int
		wantStatus string
	}{
		{"healthy", nil, http.StatusOK, "healthy"},
		{"unhealthy", storage.ErrStoreUnreachable, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(&fakeIndex{healthErr: tc.healthErr})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.wantStatus, resp.Status)
			assert.Equal(t, "chromem", resp.Backend)
			assert.NotEmpty(t, resp.Timestamp)
		})
	}
}

func TestNewMux_Health(t *testing.T) {
	index := &fakeIndex{}
	server := NewServer(&Config{Search: &fakeSearcher{}, Index: index})
	srv := httptest.NewServer(NewMux(server, index, &HTTPHandlerOptions{Stateless: true}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_InMemorySession(t *testing.T) {
	ctx := context.Background()
	server := NewServer(&Config{Search: &fakeSearcher{}, Index: &fakeIndex{count: 7}})

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"search_pdfs", "index_status"}, names)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "index_status", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, `"total_chunks":7`)
}
