package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse represents the JSON response from the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Store     string `json:"store"`
	Backend   string `json:"backend"`
	Timestamp string `json:"timestamp"`
}

// HealthChecker is implemented by every storage backend.
type HealthChecker interface {
	Health(ctx context.Context) error
	Backend() string
}

// NewHealthHandler creates an HTTP handler for the /health endpoint.
// Responds 200 when the store is reachable and 503 otherwise.
func NewHealthHandler(store HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		err := store.Health(ctx)

		response := HealthResponse{
			Backend:   store.Backend(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		w.Header().Set("Content-Type", "application/json")

		if err != nil {
			response.Status = "unhealthy"
			response.Store = "disconnected"
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(response)
			return
		}

		response.Status = "healthy"
		response.Store = "connected"
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}
