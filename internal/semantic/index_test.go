package semantic

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"memberqa/internal/corpus"
	"memberqa/internal/semantic/semantictest"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testMessages() []corpus.Message {
	return []corpus.Message{
		{UserName: "Amira Khan", Text: "Please reserve a table at the sushi restaurant."},
		{UserName: "Vikram Desai", Text: "Book a flight to Tokyo next month."},
		{UserName: "Lily Chen", Text: "Book a flight to Tokyo in March please."},
		{UserName: "Vikram Desai", Text: "Send the invoice again."},
	}
}

func TestBuildAndQuery(t *testing.T) {
	ctx := context.Background()
	enc := &semantictest.HashEncoder{}

	ix, err := Build(ctx, enc, testMessages(), 2)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if ix.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", ix.Len())
	}

	got, err := ix.Query(ctx, "sushi restaurant table", 10, "")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) == 0 || got[0].Doc != 0 {
		t.Fatalf("Query() top = %+v, want doc 0", got)
	}
	for i, c := range got {
		if c.Rank != i+1 {
			t.Errorf("candidate %d rank = %d, want %d", i, c.Rank, i+1)
		}
	}
}

func TestQueryPersonBoost(t *testing.T) {
	ctx := context.Background()
	ix, err := Build(ctx, &semantictest.HashEncoder{}, testMessages(), 0)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// docs 1 and 2 tie on similarity, so corpus order wins without a boost
	plain, err := ix.Query(ctx, "flight to Tokyo", 2, "")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(plain) != 2 || plain[0].Doc != 1 {
		t.Fatalf("Query() without boost = %+v, want doc 1 first", plain)
	}

	got, err := ix.Query(ctx, "flight to Tokyo", 2, "Lily Chen")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Query() returned %d candidates, want 2", len(got))
	}
	if got[0].Doc != 2 {
		t.Errorf("boosted person's message should rank first, got doc %d", got[0].Doc)
	}
}

func TestQueryBoostDoesNotLiftUnrelated(t *testing.T) {
	ctx := context.Background()
	ix, err := Build(ctx, &semantictest.HashEncoder{}, testMessages(), 0)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	got, err := ix.Query(ctx, "sushi restaurant table", 4, "Vikram Desai")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) == 0 || got[0].Doc != 0 {
		t.Errorf("strong non-boosted match should stay first, got %+v", got)
	}
}

func TestBoost(t *testing.T) {
	tests := []struct {
		name    string
		sim     float64
		boosted bool
		want    float64
	}{
		{"not boosted", 0.5, false, 0.5},
		{"boosted positive", 0.5, true, 0.5 * PersonBoost},
		{"boosted zero", 0, true, 0},
		{"boosted negative", -0.2, true, -0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Boost(tt.sim, tt.boosted); got != tt.want {
				t.Errorf("Boost(%f, %v) = %f, want %f", tt.sim, tt.boosted, got, tt.want)
			}
		})
	}
}

func TestBuildEncoderFailure(t *testing.T) {
	enc := &semantictest.HashEncoder{}
	enc.Fail.Store(true)

	if _, err := Build(context.Background(), enc, testMessages(), 2); err == nil {
		t.Error("Build() should fail when the encoder is unavailable")
	}
	if _, err := Build(context.Background(), nil, testMessages(), 2); err == nil {
		t.Error("Build() should fail without an encoder")
	}
}

func TestQueryEncoderFailure(t *testing.T) {
	ctx := context.Background()
	enc := &semantictest.HashEncoder{}
	ix, err := Build(ctx, enc, testMessages(), 0)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	enc.Fail.Store(true)
	if _, err := ix.Query(ctx, "flight", 5, ""); err == nil {
		t.Error("Query() should surface encoder failures")
	}
}

func TestQueryNoOverlap(t *testing.T) {
	ctx := context.Background()
	ix, err := Build(ctx, &semantictest.HashEncoder{}, testMessages(), 0)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	got, err := ix.Query(ctx, "?!", 5, "")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Query() with empty question vector = %v, want none", got)
	}
}

func TestCachingEncoder(t *testing.T) {
	ctx := context.Background()
	inner := &semantictest.HashEncoder{}
	enc, err := NewCachingEncoder(inner, 8)
	if err != nil {
		t.Fatalf("NewCachingEncoder() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := enc.EmbedTexts(ctx, []string{"how many cars"}); err != nil {
			t.Fatalf("EmbedTexts() error = %v", err)
		}
	}
	if calls := inner.Calls.Load(); calls != 1 {
		t.Errorf("inner encoder called %d times, want 1", calls)
	}

	if _, err := enc.EmbedTexts(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("EmbedTexts() batch error = %v", err)
	}
	if calls := inner.Calls.Load(); calls != 2 {
		t.Errorf("batch call should bypass the cache, inner calls = %d", calls)
	}

	if _, err := NewCachingEncoder(inner, 0); err == nil {
		t.Error("NewCachingEncoder() with size 0 should fail")
	}
}
