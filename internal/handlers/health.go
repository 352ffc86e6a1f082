package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"memberqa/internal/contextutil"
	"memberqa/internal/rag"
)

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	ragEngine rag.Engine
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(ragEngine rag.Engine) *HealthHandler {
	return &HealthHandler{ragEngine: ragEngine}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// OK is true whenever the process is serving
	OK bool `json:"ok"`

	// Overall status: "healthy" or "degraded"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Snapshot describes the active corpus snapshot
	Snapshot rag.Status `json:"snapshot"`

	// List of issues (only present if status is degraded)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// The service keeps answering (with the fallback) while degraded, so the
// response is always 200.
//
// swagger:route GET /health healthCheck
//
// # Health check endpoint
//
// Returns the service status and the active corpus snapshot.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Service is up
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	st := h.ragEngine.Status()

	var issues []string
	if !st.Ready {
		issues = append(issues, "corpus_not_loaded")
	} else if st.Messages == 0 {
		issues = append(issues, "corpus_empty")
	}
	if st.Ready && !st.Semantic {
		issues = append(issues, "semantic_recall_unavailable")
	}
	if st.LastError != "" {
		issues = append(issues, "last_refresh_failed")
	}

	status := "healthy"
	if len(issues) > 0 {
		status = "degraded"
	}

	response := HealthResponse{
		OK:        true,
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Snapshot:  st,
		Issues:    issues,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}
