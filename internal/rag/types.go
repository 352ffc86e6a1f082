package rag

import (
	"time"

	"memberqa/internal/answer"
	"memberqa/internal/question"
)

// AskRequest represents a question for the pipeline.
type AskRequest struct {
	// Question is the user's question to answer.
	Question string `json:"question"`
	// Debug enables debug mode, returning the per-stage trace.
	Debug bool `json:"debug,omitempty"`
}

// Evidence is one message handed to the validator, in reranked order.
type Evidence struct {
	UserName  string    `json:"user_name"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// AskResponse is the only value that crosses the pipeline boundary.
type AskResponse struct {
	// Answer is a literal span from evidence, its formatted rewrite, or answer.Fallback.
	Answer string `json:"answer"`
	// Supported is false whenever Answer is the fallback.
	Supported bool `json:"supported"`
	// Reason is the guard decision code.
	Reason answer.Reason `json:"reason"`
	// Evidence is the top-K prefix of the reranked list.
	Evidence []Evidence `json:"evidence"`
	// Debug contains the trace when debug mode is enabled.
	Debug *DebugInfo `json:"debug,omitempty"`
}

// DebugInfo is a read-only trace of one question through the pipeline.
type DebugInfo struct {
	Profile         question.Profile   `json:"profile"`
	SnapshotVersion string             `json:"snapshot_version,omitempty"`
	CorpusSize      int                `json:"corpus_size"`
	Lexical         []RetrievedMessage `json:"lexical"`
	Semantic        []RetrievedMessage `json:"semantic"`
	Fused           []RetrievedMessage `json:"fused"`
	Reranked        []RetrievedMessage `json:"reranked"`
	Decision        answer.Decision    `json:"decision"`
	// SemanticDegraded is set when semantic recall was skipped or failed.
	SemanticDegraded bool   `json:"semantic_degraded,omitempty"`
	SemanticError    string `json:"semantic_error,omitempty"`
	// RerankDegraded is set when the fused order was kept.
	RerankDegraded bool     `json:"rerank_degraded,omitempty"`
	RerankError    string   `json:"rerank_error,omitempty"`
	Latency        *Latency `json:"latency,omitempty"`
}

// RetrievedMessage is a candidate at one stage with its score and rank.
type RetrievedMessage struct {
	// Doc is the message position in the snapshot.
	Doc      int     `json:"doc"`
	Rank     int     `json:"rank"`
	Score    float64 `json:"score"`
	UserName string  `json:"user_name"`
	// Text is the message text, truncated.
	Text string `json:"text"`
	// Ranks holds the per-list ranks that contributed to a fused score, 0 for absent.
	Ranks []int `json:"ranks,omitempty"`
	// FusedRank is the fused position of a reranked candidate.
	FusedRank int `json:"fused_rank,omitempty"`
}

// Latency contains timing information for each phase (milliseconds).
type Latency struct {
	RefreshMs   int64 `json:"refresh_ms"`
	RetrievalMs int64 `json:"retrieval_ms"`
	RerankMs    int64 `json:"rerank_ms"`
	ValidateMs  int64 `json:"validate_ms"`
	TotalMs     int64 `json:"total_ms"`
}

// Status describes the active snapshot.
type Status struct {
	Ready    bool      `json:"ready"`
	Messages int       `json:"messages"`
	Authors  int       `json:"authors"`
	BuiltAt  time.Time `json:"built_at,omitzero"`
	Version  string    `json:"version,omitempty"`
	Semantic bool      `json:"semantic"`
	// LastError is the error of the most recent failed refresh, cleared on success.
	LastError string `json:"last_error,omitempty"`
}
