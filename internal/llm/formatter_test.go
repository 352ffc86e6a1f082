package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"memberqa/internal/corpus"
)

func TestAnswerFormatter_Format(t *testing.T) {
	evidence := []corpus.Message{{
		UserName:  "Vikram Desai",
		Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Text:      "I have 3 cars.",
	}}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 2 || req.Messages[0].Role != RoleSystem || req.Messages[1].Role != RoleUser {
			t.Errorf("messages = %+v", req.Messages)
			return
		}
		prompt := req.Messages[1].Content
		for _, want := range []string{
			"QUESTION:\nHow many cars does Vikram Desai have?",
			"ANSWER:\n3 cars",
			"- [Vikram Desai at 2025-01-01T00:00:00Z] I have 3 cars.",
		} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt missing %q:\n%s", want, prompt)
			}
		}
		if req.MaxTokens != maxAnswerTokens {
			t.Errorf("max_tokens = %d, want %d", req.MaxTokens, maxAnswerTokens)
		}
		if req.Temperature == nil || *req.Temperature != 0 {
			t.Errorf("temperature = %v, want 0", req.Temperature)
		}
		_ = json.NewEncoder(w).Encode(chatReply("  \"Vikram Desai has\n3 cars.\"  "))
	}))
	defer server.Close()

	f := NewAnswerFormatter(NewClient(server.URL, "key", "llama-3.1-8b-instant"))
	got, err := f.Format(context.Background(), "How many cars does Vikram Desai have?", "3 cars", evidence)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if got != "Vikram Desai has 3 cars." {
		t.Errorf("Format() = %q, want %q", got, "Vikram Desai has 3 cars.")
	}
}

func TestAnswerFormatter_EmptyReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatReply(`""`))
	}))
	defer server.Close()

	f := NewAnswerFormatter(NewClient(server.URL, "key", "m"))
	if _, err := f.Format(context.Background(), "q", "a", nil); err == nil {
		t.Error("Format() expected error for empty reply, got nil")
	}
}

func TestPostprocess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Layla flies on March 7.", "Layla flies on March 7."},
		{"straight quotes", `"Layla flies on March 7."`, "Layla flies on March 7."},
		{"curly quotes", "“Layla flies on March 7.”", "Layla flies on March 7."},
		{"newlines", "Layla flies\n\non March 7.", "Layla flies on March 7."},
		{"inner quotes kept", `Amira said "yes" twice`, `Amira said "yes" twice`},
		{"long", strings.Repeat("a", 600), strings.Repeat("a", 500)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := postprocess(tt.in); got != tt.want {
				t.Errorf("postprocess(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
