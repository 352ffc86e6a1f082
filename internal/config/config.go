package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	MessagesBaseURL         string
	MessagesPageSize        int
	MessagesFetchTimeout    time.Duration
	MessagesFetchAttempts   int
	MessagesRefreshInterval time.Duration

	EmbeddingBaseURL    string
	EmbeddingAPIKey     string
	EmbeddingModelName  string
	EmbeddingVectorSize int
	EmbeddingBatchSize  int

	// RerankBaseURL empty disables the cross-encoder.
	RerankBaseURL   string
	RerankAPIKey    string
	RerankModelName string

	LLMBaseURL   string
	LLMModelName string
	// LLMAPIKey empty disables the answer formatter.
	LLMAPIKey string

	LexicalRecall  bool
	RecallDepth    int
	FusedDepth     int
	EvidenceK      int
	RRFK           int
	QueryCacheSize int
	AskTimeout     time.Duration
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates numeric and duration values.
// If a .env file exists in the current directory or a parent, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		APIPort:   getEnv("API_PORT", "9000"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		MessagesBaseURL: strings.TrimRight(getEnv("MESSAGES_URL_BASE", "https://november7-730026606190.europe-west1.run.app"), "/"),

		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", ""),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "all-MiniLM-L6-v2"),

		RerankBaseURL:   getEnv("RERANK_BASE_URL", "http://localhost:8082"),
		RerankAPIKey:    getEnv("RERANK_API_KEY", ""),
		RerankModelName: getEnv("RERANK_MODEL_NAME", "ms-marco-MiniLM-L-6-v2"),

		LLMBaseURL:   getEnv("LLM_BASE_URL", "https://api.groq.com/openai"),
		LLMModelName: getEnv("LLM_MODEL", "llama-3.1-8b-instant"),
		LLMAPIKey:    getEnv("LLM_API_KEY", ""),
	}
	// An explicitly empty RERANK_BASE_URL turns the reranker off
	if v, ok := os.LookupEnv("RERANK_BASE_URL"); ok && strings.TrimSpace(v) == "" {
		cfg.RerankBaseURL = ""
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}

	ints := []struct {
		key  string
		def  int
		min  int
		dest *int
	}{
		{"MESSAGES_PAGE_SIZE", 500, 1, &cfg.MessagesPageSize},
		{"MESSAGES_FETCH_ATTEMPTS", 3, 1, &cfg.MessagesFetchAttempts},
		{"EMBEDDING_VECTOR_SIZE", 384, 1, &cfg.EmbeddingVectorSize},
		{"EMBEDDING_BATCH_SIZE", 64, 1, &cfg.EmbeddingBatchSize},
		{"RECALL_DEPTH", 100, 1, &cfg.RecallDepth},
		{"FUSED_DEPTH", 60, 1, &cfg.FusedDepth},
		{"EVIDENCE_K", 10, 1, &cfg.EvidenceK},
		{"RRF_K", 60, 1, &cfg.RRFK},
		{"QUERY_CACHE_SIZE", 256, 1, &cfg.QueryCacheSize},
	}
	for _, v := range ints {
		n, err := getInt(v.key, v.def)
		if err != nil {
			return nil, err
		}
		if n < v.min {
			return nil, fmt.Errorf("%s must be at least %d", v.key, v.min)
		}
		*v.dest = n
	}

	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"MESSAGES_FETCH_TIMEOUT", 30 * time.Second, &cfg.MessagesFetchTimeout},
		{"MESSAGES_REFRESH_INTERVAL", 10 * time.Minute, &cfg.MessagesRefreshInterval},
		{"ASK_TIMEOUT", 60 * time.Second, &cfg.AskTimeout},
	}
	for _, v := range durations {
		d, err := getDuration(v.key, v.def)
		if err != nil {
			return nil, err
		}
		*v.dest = d
	}
	if cfg.MessagesFetchTimeout <= 0 {
		return nil, fmt.Errorf("MESSAGES_FETCH_TIMEOUT must be greater than 0")
	}

	lexical, err := strconv.ParseBool(getEnv("LEXICAL_RECALL", "true"))
	if err != nil {
		return nil, fmt.Errorf("LEXICAL_RECALL must be a boolean: %w", err)
	}
	cfg.LexicalRecall = lexical

	if cfg.MessagesBaseURL == "" {
		return nil, fmt.Errorf("MESSAGES_URL_BASE is required")
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

// getDuration accepts Go durations ("90s", "10m") and bare seconds ("600").
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	var d time.Duration
	if secs, err := strconv.Atoi(raw); err == nil {
		d = time.Duration(secs) * time.Second
	} else if d, err = time.ParseDuration(raw); err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
