package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"memberqa/internal/answer"
	"memberqa/internal/config"
	"memberqa/internal/http"
	"memberqa/internal/llm"
	"memberqa/internal/members"
	"memberqa/internal/rag"
	"memberqa/internal/rerank"
	"memberqa/internal/semantic"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers natural-language questions about members using only the messages they have sent.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Member QA API
//   description: |
//     Question answering over member messages. Answers are extracted from the
//     retrieved messages and returned with their evidence, or a fixed fallback
//     when the messages do not support an answer.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Member messages source
	fetcher := members.NewClient(cfg.MessagesBaseURL, cfg.MessagesPageSize, cfg.MessagesFetchAttempts, cfg.MessagesFetchTimeout)
	slog.Info("Messages source configured", "base_url", cfg.MessagesBaseURL, "page_size", cfg.MessagesPageSize)

	// Sentence encoder, with query vectors cached
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingVectorSize)
	encoder, err := semantic.NewCachingEncoder(embedder, cfg.QueryCacheSize)
	if err != nil {
		log.Fatalf("Failed to create query cache: %v", err)
	}

	// Cross-encoder is optional; a nil Scorer keeps the fused order
	var scorer rerank.Scorer
	if cfg.RerankBaseURL != "" {
		scorer = llm.NewRerankClient(cfg.RerankBaseURL, cfg.RerankAPIKey, cfg.RerankModelName)
		slog.Info("Reranker enabled", "base_url", cfg.RerankBaseURL, "model", cfg.RerankModelName)
	} else {
		slog.Info("Reranker disabled")
	}

	// Answer formatting is optional as well
	var formatter answer.Formatter
	if cfg.LLMAPIKey != "" {
		formatter = llm.NewAnswerFormatter(llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName))
		slog.Info("Answer formatter enabled", "model", cfg.LLMModelName)
	}
	validator := answer.NewValidator(formatter)

	ragEngine := rag.NewEngine(fetcher, encoder, scorer, validator, rag.Options{
		RecallDepth:     cfg.RecallDepth,
		FusedDepth:      cfg.FusedDepth,
		EvidenceK:       cfg.EvidenceK,
		RRFK:            cfg.RRFK,
		RefreshInterval: cfg.MessagesRefreshInterval,
		BatchSize:       cfg.EmbeddingBatchSize,
		DisableLexical:  !cfg.LexicalRecall,
	})
	slog.Info("RAG engine initialized")

	// Create router with dependencies
	deps := &http.Deps{
		RAGEngine:      ragEngine,
		RequestTimeout: cfg.AskTimeout,
	}
	router := http.NewRouter(deps)

	// Build the first snapshot in background after router is ready
	go func() {
		slog.Info("Loading member messages")
		status, err := ragEngine.Refresh(context.Background())
		if err != nil {
			slog.Error("Initial corpus load failed", "error", err)
			return
		}
		slog.Info("Corpus loaded", "messages", status.Messages, "authors", status.Authors, "semantic", status.Semantic)
	}()

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
