package rag_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"memberqa/internal/answer"
	"memberqa/internal/corpus"
	"memberqa/internal/question"
	"memberqa/internal/rag"
	"memberqa/internal/rag/mocks"
	rerankmocks "memberqa/internal/rerank/mocks"
	"memberqa/internal/semantic/semantictest"
	"memberqa/internal/service"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func msg(user, ts, text string) corpus.Message {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return corpus.Message{UserName: user, Timestamp: t, Text: text}
}

func members() []corpus.Message {
	return []corpus.Message{
		msg("Vikram Desai", "2025-01-01T00:00:00Z", "I have 3 cars."),
		msg("Vikram Desai", "2025-02-01T09:00:00Z", "Reserve a spa day for Saturday."),
		msg("Amira Khan", "2025-03-01T19:00:00Z", "Book a table at Le Bernardin for Friday."),
		msg("Hans Müller", "2025-03-02T08:00:00Z", "I need 2 tickets for the opera on Saturday."),
		msg("Layla Kawaguchi", "2025-02-01T10:00:00Z", "I fly to Tokyo on March 7."),
	}
}

func provider(t *testing.T, msgs []corpus.Message) *mocks.MockCorpusProvider {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockCorpusProvider(ctrl)
	p.EXPECT().FetchMessages(gomock.Any()).Return(msgs, nil).AnyTimes()
	return p
}

func newEngine(t *testing.T, msgs []corpus.Message) rag.Engine {
	return rag.NewEngine(provider(t, msgs), &semantictest.HashEncoder{}, nil, nil, rag.DefaultOptions())
}

func TestEngine_Ask(t *testing.T) {
	tests := []struct {
		name      string
		corpus    []corpus.Message
		question  string
		want      string
		contains  string
		supported bool
		reason    answer.Reason
	}{
		{
			name:      "count of cars",
			corpus:    members(),
			question:  "How many cars does Vikram Desai have?",
			contains:  "3",
			supported: true,
			reason:    answer.ReasonSupported,
		},
		{
			name:      "entity kept verbatim",
			corpus:    members(),
			question:  "Which restaurant did Amira book?",
			want:      "Le Bernardin",
			supported: true,
			reason:    answer.ReasonSupported,
		},
		{
			name:      "explicit date",
			corpus:    members(),
			question:  "When is Layla flying to Tokyo?",
			want:      "March 7",
			supported: true,
			reason:    answer.ReasonSupported,
		},
		{
			name:      "unfolded name finds folded author",
			corpus:    members(),
			question:  "How many tickets does Hans Muller need?",
			contains:  "2",
			supported: true,
			reason:    answer.ReasonSupported,
		},
		{
			name:     "relative date only",
			corpus:   []corpus.Message{msg("Layla Kawaguchi", "2025-03-01T19:00:00Z", "Please book a private jet to Paris for this Friday.")},
			question: "When is the Paris trip?",
			want:     answer.Fallback,
			reason:   answer.ReasonGuardViolation,
		},
		{
			name: "latest count wins",
			corpus: []corpus.Message{
				msg("Vikram Desai", "2025-01-01T00:00:00Z", "I have 2 cars."),
				msg("Vikram Desai", "2025-06-01T00:00:00Z", "I have 3 cars now."),
			},
			question:  "How many cars does Vikram Desai have?",
			want:      "3 cars",
			supported: true,
			reason:    answer.ReasonSupported,
		},
		{
			name:     "empty corpus",
			corpus:   nil,
			question: "How many cars does Vikram Desai have?",
			want:     answer.Fallback,
			reason:   answer.ReasonEmptyCorpus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newEngine(t, tt.corpus)
			got, err := engine.Ask(context.Background(), rag.AskRequest{Question: tt.question})
			if err != nil {
				t.Fatalf("Ask() error = %v", err)
			}
			if tt.want != "" && got.Answer != tt.want {
				t.Errorf("Ask() answer = %q, want %q", got.Answer, tt.want)
			}
			if tt.contains != "" && !strings.Contains(got.Answer, tt.contains) {
				t.Errorf("Ask() answer = %q, want it to contain %q", got.Answer, tt.contains)
			}
			if got.Supported != tt.supported {
				t.Errorf("Ask() supported = %v, want %v", got.Supported, tt.supported)
			}
			if got.Reason != tt.reason {
				t.Errorf("Ask() reason = %q, want %q", got.Reason, tt.reason)
			}
			if got.Debug != nil {
				t.Error("Ask() returned debug info without debug mode")
			}
			if len(got.Evidence) > rag.DefaultOptions().EvidenceK {
				t.Errorf("Ask() evidence = %d items, want at most %d", len(got.Evidence), rag.DefaultOptions().EvidenceK)
			}
		})
	}
}

func TestEngine_AskIdempotent(t *testing.T) {
	engine := newEngine(t, members())
	req := rag.AskRequest{Question: "How many cars does Vikram Desai have?"}

	first, err := engine.Ask(context.Background(), req)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := engine.Ask(context.Background(), req)
		if err != nil {
			t.Fatalf("Ask() error = %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Errorf("Ask() call %d = %+v, want %+v", i+2, again, first)
		}
	}
}

func TestEngine_AskDebug(t *testing.T) {
	engine := newEngine(t, members())
	got, err := engine.Ask(context.Background(), rag.AskRequest{Question: "How many cars does Vikram Desai have?", Debug: true})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	d := got.Debug
	if d == nil {
		t.Fatal("Ask() debug = nil, want trace")
	}
	if d.Profile.Type != question.Quantity || d.Profile.Person != "Vikram Desai" {
		t.Errorf("profile = %+v, want QUANTITY about Vikram Desai", d.Profile)
	}
	if d.CorpusSize != 5 || d.SnapshotVersion == "" {
		t.Errorf("corpus size = %d, version = %q", d.CorpusSize, d.SnapshotVersion)
	}
	if len(d.Lexical) == 0 || len(d.Semantic) == 0 || len(d.Fused) == 0 {
		t.Errorf("lexical = %d, semantic = %d, fused = %d, want all non-empty", len(d.Lexical), len(d.Semantic), len(d.Fused))
	}
	for _, f := range d.Fused {
		if len(f.Ranks) != 2 {
			t.Errorf("fused doc %d ranks = %v, want one rank per signal", f.Doc, f.Ranks)
		}
	}
	if len(d.Reranked) != len(d.Fused) {
		t.Errorf("reranked = %d, want %d", len(d.Reranked), len(d.Fused))
	}
	if !d.RerankDegraded {
		t.Error("rerank degraded = false, want true without a scorer")
	}
	if d.SemanticDegraded {
		t.Error("semantic degraded = true, want false")
	}
	if !d.Decision.Supported || d.Decision.Guard != "QUANTITY" {
		t.Errorf("decision = %+v", d.Decision)
	}
	if d.Latency == nil {
		t.Error("latency = nil")
	}
}

func TestEngine_AskWithScorer(t *testing.T) {
	ctrl := gomock.NewController(t)
	scorer := rerankmocks.NewMockScorer(ctrl)
	scorer.EXPECT().
		Score(gomock.Any(), "How many cars does Vikram Desai have?", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, docs []string) ([]float64, error) {
			// reverse the fused order
			scores := make([]float64, len(docs))
			for i := range docs {
				scores[i] = float64(i)
			}
			return scores, nil
		})

	engine := rag.NewEngine(provider(t, members()), &semantictest.HashEncoder{}, scorer, nil, rag.DefaultOptions())
	got, err := engine.Ask(context.Background(), rag.AskRequest{Question: "How many cars does Vikram Desai have?", Debug: true})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if got.Answer != "3 cars" {
		t.Errorf("Ask() answer = %q, want %q", got.Answer, "3 cars")
	}
	d := got.Debug
	if d.RerankDegraded {
		t.Error("rerank degraded = true, want false")
	}
	if n := len(d.Reranked); n == 0 || d.Reranked[0].FusedRank != n {
		t.Errorf("reranked = %+v, want fused order reversed", d.Reranked)
	}
}

func TestEngine_AskScorerFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	scorer := rerankmocks.NewMockScorer(ctrl)
	scorer.EXPECT().Score(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	engine := rag.NewEngine(provider(t, members()), &semantictest.HashEncoder{}, scorer, nil, rag.DefaultOptions())
	got, err := engine.Ask(context.Background(), rag.AskRequest{Question: "Which restaurant did Amira book?", Debug: true})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if got.Answer != "Le Bernardin" {
		t.Errorf("Ask() answer = %q, want %q", got.Answer, "Le Bernardin")
	}
	if !got.Debug.RerankDegraded || got.Debug.RerankError == "" {
		t.Errorf("debug = %+v, want degraded rerank with error", got.Debug)
	}
}

func TestEngine_AskSemanticUnavailable(t *testing.T) {
	enc := &semantictest.HashEncoder{}
	enc.Fail.Store(true)

	engine := rag.NewEngine(provider(t, members()), enc, nil, nil, rag.DefaultOptions())
	got, err := engine.Ask(context.Background(), rag.AskRequest{Question: "How many cars does Vikram Desai have?", Debug: true})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if got.Answer != "3 cars" {
		t.Errorf("Ask() answer = %q, want %q", got.Answer, "3 cars")
	}
	if !got.Debug.SemanticDegraded || len(got.Debug.Semantic) != 0 {
		t.Errorf("debug = %+v, want lexical-only recall", got.Debug)
	}
	if st := engine.Status(); st.Semantic || st.LastError == "" {
		t.Errorf("Status() = %+v, want semantic off with error", st)
	}
}

func TestEngine_AskNoRetrievalSignal(t *testing.T) {
	enc := &semantictest.HashEncoder{}
	enc.Fail.Store(true)
	opts := rag.DefaultOptions()
	opts.DisableLexical = true

	engine := rag.NewEngine(provider(t, members()), enc, nil, nil, opts)
	_, err := engine.Ask(context.Background(), rag.AskRequest{Question: "How many cars does Vikram Desai have?"})
	if !errors.Is(err, service.ErrModelUnavailable) {
		t.Errorf("Ask() error = %v, want ErrModelUnavailable", err)
	}
}

func TestEngine_AskErrors(t *testing.T) {
	tests := []struct {
		name     string
		engine   func(t *testing.T) rag.Engine
		question string
		wantErr  error
	}{
		{
			name:     "empty question",
			engine:   func(t *testing.T) rag.Engine { return newEngine(t, members()) },
			question: "   ",
			wantErr:  service.ErrInvalidInput,
		},
		{
			name: "no corpus provider",
			engine: func(t *testing.T) rag.Engine {
				return rag.NewEngine(nil, &semantictest.HashEncoder{}, nil, nil, rag.DefaultOptions())
			},
			question: "How many cars does Vikram Desai have?",
			wantErr:  service.ErrNoEvidenceSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.engine(t).Ask(context.Background(), rag.AskRequest{Question: tt.question})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Ask() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEngine_AskFetchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockCorpusProvider(ctrl)
	p.EXPECT().FetchMessages(gomock.Any()).Return(nil, errors.New("upstream down"))

	engine := rag.NewEngine(p, &semantictest.HashEncoder{}, nil, nil, rag.DefaultOptions())
	got, err := engine.Ask(context.Background(), rag.AskRequest{Question: "When is the Paris trip?"})
	if err != nil {
		t.Fatalf("Ask() error = %v, want fallback", err)
	}
	if got.Answer != answer.Fallback || got.Reason != answer.ReasonEmptyCorpus {
		t.Errorf("Ask() = %+v, want empty corpus fallback", got)
	}
	if st := engine.Status(); st.Ready || st.LastError == "" {
		t.Errorf("Status() = %+v, want not ready with error", st)
	}
}

func TestEngine_RefreshKeepsSnapshotOnFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockCorpusProvider(ctrl)
	gomock.InOrder(
		p.EXPECT().FetchMessages(gomock.Any()).Return(members(), nil),
		p.EXPECT().FetchMessages(gomock.Any()).Return(nil, errors.New("upstream down")),
		p.EXPECT().FetchMessages(gomock.Any()).Return([]corpus.Message{}, nil),
	)

	engine := rag.NewEngine(p, &semantictest.HashEncoder{}, nil, nil, rag.DefaultOptions())
	ctx := context.Background()

	st, err := engine.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if !st.Ready || st.Messages != 5 || st.Authors != 4 || !st.Semantic || st.Version == "" {
		t.Errorf("Refresh() status = %+v", st)
	}

	for _, name := range []string{"fetch error", "empty fetch"} {
		after, err := engine.Refresh(ctx)
		if !errors.Is(err, service.ErrExternalService) {
			t.Errorf("%s: Refresh() error = %v, want ErrExternalService", name, err)
		}
		if after.Version != st.Version || after.Messages != 5 {
			t.Errorf("%s: Refresh() status = %+v, want previous snapshot", name, after)
		}
		if after.LastError == "" {
			t.Errorf("%s: Refresh() last error is empty", name)
		}
	}

	got, err := engine.Ask(ctx, rag.AskRequest{Question: "How many cars does Vikram Desai have?"})
	if err != nil || got.Answer != "3 cars" {
		t.Errorf("Ask() = %q, %v, want answer from previous snapshot", got.Answer, err)
	}
}

func TestEngine_RefreshNoProvider(t *testing.T) {
	engine := rag.NewEngine(nil, nil, nil, nil, rag.DefaultOptions())
	if _, err := engine.Refresh(context.Background()); !errors.Is(err, service.ErrNoEvidenceSource) {
		t.Errorf("Refresh() error = %v, want ErrNoEvidenceSource", err)
	}
}

func TestEngine_AskConcurrent(t *testing.T) {
	engine := newEngine(t, members())
	questions := []string{
		"How many cars does Vikram Desai have?",
		"Which restaurant did Amira book?",
		"When is Layla flying to Tokyo?",
	}
	want := []string{"3 cars", "Le Bernardin", "March 7"}

	var wg sync.WaitGroup
	errs := make(chan string, 30)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q := i % len(questions)
			got, err := engine.Ask(context.Background(), rag.AskRequest{Question: questions[q]})
			if err != nil {
				errs <- err.Error()
				return
			}
			if got.Answer != want[q] {
				errs <- questions[q] + " -> " + got.Answer
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}
