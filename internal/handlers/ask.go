package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"memberqa/internal/contextutil"
	"memberqa/internal/rag"
	"memberqa/internal/service"
)

// maxQuestionLength bounds the question accepted over HTTP, in bytes.
const maxQuestionLength = 1000

// AskHandler answers questions over HTTP.
type AskHandler struct {
	ragEngine rag.Engine
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(ragEngine rag.Engine) *AskHandler {
	return &AskHandler{ragEngine: ragEngine}
}

// AskRequest represents the HTTP request payload for POST /api/v1/ask.
//
// swagger:model AskRequest
type AskRequest struct {
	Question string `json:"question"`
	Debug    bool   `json:"debug,omitempty"`
}

// AskResponse represents the HTTP response payload for questions.
//
// swagger:model AskResponse
type AskResponse struct {
	// The answer: a literal span from a member message, or the fixed fallback
	Answer string `json:"answer"`

	// Supported is false whenever the fallback was returned
	Supported bool `json:"supported"`

	// Reason is the guard decision (e.g., "supported", "guard_violation", "ambiguous_evidence")
	Reason string `json:"reason"`

	// Evidence lists the messages the answer was validated against, best first
	Evidence []EvidenceResponse `json:"evidence"`

	// Debug contains the per-stage trace when debug mode is enabled (via ?debug=true)
	Debug *rag.DebugInfo `json:"debug,omitempty"`
}

// EvidenceResponse represents one evidence message in the HTTP response.
//
// swagger:model EvidenceResponse
type EvidenceResponse struct {
	UserName  string `json:"user_name"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP handles HTTP requests for questions.
//
// swagger:route GET /ask askQuestionQuery
//
// # Ask a question about member messages
//
// The question is passed in the `question` query parameter. Use `debug=true`
// to include the retrieval trace.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Answer or the fallback
//	  schema:
//	    "$ref": "#/definitions/AskResponse"
//	'400':
//	  description: Missing or invalid question
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'503':
//	  description: No retrieval signal or no corpus source available
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//
// swagger:route POST /api/v1/ask askQuestion
//
// # Ask a question about member messages
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Answer or the fallback
//	  schema:
//	    "$ref": "#/definitions/AskResponse"
//	'400':
//	  description: Missing or invalid question
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'503':
//	  description: No retrieval signal or no corpus source available
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AskRequest
	switch r.Method {
	case http.MethodGet:
		req.Question = r.URL.Query().Get("question")
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.WarnContext(ctx, "invalid request body", "error", err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	default:
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		logger.WarnContext(ctx, "empty question in request")
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}
	if len(req.Question) > maxQuestionLength {
		logger.WarnContext(ctx, "question too long", "length", len(req.Question))
		writeError(w, http.StatusBadRequest, "Question is too long")
		return
	}

	debug := req.Debug
	if debugParam := r.URL.Query().Get("debug"); debugParam != "" {
		debug = strings.ToLower(debugParam) == "true" || debugParam == "1"
	}

	ragResp, err := h.ragEngine.Ask(ctx, rag.AskRequest{Question: req.Question, Debug: debug})
	if err != nil {
		h.handleRAGError(w, ctx, err)
		return
	}

	resp := AskResponse{
		Answer:    ragResp.Answer,
		Supported: ragResp.Supported,
		Reason:    string(ragResp.Reason),
		Evidence:  make([]EvidenceResponse, 0, len(ragResp.Evidence)),
		Debug:     ragResp.Debug,
	}
	for _, ev := range ragResp.Evidence {
		resp.Evidence = append(resp.Evidence, EvidenceResponse{
			UserName:  ev.UserName,
			Timestamp: ev.Timestamp.UTC().Format(time.RFC3339),
			Message:   ev.Message,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// handleRAGError maps engine errors to HTTP status codes.
func (h *AskHandler) handleRAGError(w http.ResponseWriter, ctx context.Context, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		logger.WarnContext(ctx, "invalid question", "error", err)
		writeError(w, http.StatusBadRequest, ve.Field+" "+ve.Message)
	case errors.Is(err, service.ErrInvalidInput):
		logger.WarnContext(ctx, "invalid question", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid question")
	case errors.Is(err, service.ErrModelUnavailable):
		logger.ErrorContext(ctx, "retrieval unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Retrieval models unavailable")
	case errors.Is(err, service.ErrNoEvidenceSource):
		logger.ErrorContext(ctx, "no evidence source", "error", err)
		writeError(w, http.StatusServiceUnavailable, "No message source configured")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.WarnContext(ctx, "question abandoned", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Request cancelled")
	default:
		logger.ErrorContext(ctx, "engine error", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to answer question")
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
