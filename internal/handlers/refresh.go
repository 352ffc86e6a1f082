package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"memberqa/internal/contextutil"
	"memberqa/internal/rag"
	"memberqa/internal/service"
)

// RefreshHandler handles HTTP requests for rebuilding the corpus snapshot.
type RefreshHandler struct {
	ragEngine rag.Engine
}

// NewRefreshHandler creates a new RefreshHandler.
func NewRefreshHandler(ragEngine rag.Engine) *RefreshHandler {
	return &RefreshHandler{ragEngine: ragEngine}
}

// RefreshResponse represents the response from the refresh endpoint.
//
// swagger:model RefreshResponse
type RefreshResponse struct {
	Message  string      `json:"message"`
	Status   string      `json:"status"`
	Snapshot *rag.Status `json:"snapshot,omitempty"`
}

// ServeHTTP handles HTTP requests for refreshing the corpus.
//
// By default the rebuild runs in the background and 202 is returned at
// once; with `wait=true` the handler blocks and returns the new snapshot.
//
// swagger:route POST /api/v1/refresh refreshCorpus
//
// # Refetch member messages and rebuild both indexes
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Snapshot rebuilt (wait=true)
//	  schema:
//	    "$ref": "#/definitions/RefreshResponse"
//	'202':
//	  description: Rebuild started
//	  schema:
//	    "$ref": "#/definitions/RefreshResponse"
//	'502':
//	  description: Messages API failed; the previous snapshot is still served
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'503':
//	  description: No message source configured
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if r.URL.Query().Get("wait") != "true" {
		logger.InfoContext(ctx, "corpus refresh triggered via API")

		// Keep the request logger but not its cancellation
		refreshCtx := context.WithoutCancel(ctx)
		go func() {
			if _, err := h.ragEngine.Refresh(refreshCtx); err != nil {
				logger.ErrorContext(refreshCtx, "corpus refresh failed", "error", err)
				return
			}
			logger.InfoContext(refreshCtx, "corpus refresh completed")
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(RefreshResponse{
			Message: "Refresh started. Check /health for the new snapshot.",
			Status:  "accepted",
		})
		return
	}

	st, err := h.ragEngine.Refresh(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "corpus refresh failed", "error", err)
		switch {
		case errors.Is(err, service.ErrNoEvidenceSource):
			writeError(w, http.StatusServiceUnavailable, "No message source configured")
		case errors.Is(err, service.ErrExternalService):
			writeError(w, http.StatusBadGateway, "Messages API unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "Refresh failed")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RefreshResponse{
		Message:  "Snapshot rebuilt.",
		Status:   "ok",
		Snapshot: &st,
	})
}
