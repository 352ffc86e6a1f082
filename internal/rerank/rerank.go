// Package rerank reorders fused candidates with a pairwise question/message
// relevance scorer.
package rerank

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_scorer.go -package=mocks memberqa/internal/rerank Scorer

import (
	"context"
	"fmt"
	"sort"

	"memberqa/internal/contextutil"
	"memberqa/internal/fusion"
)

// Scorer scores each document against the query. The returned slice is
// aligned with documents.
type Scorer interface {
	Score(ctx context.Context, query string, documents []string) ([]float64, error)
}

// Reranked is a fused candidate with its pairwise relevance score.
type Reranked struct {
	Doc       int
	Score     float64
	FusedRank int
}

// Result is the reranked list plus whether the scorer was bypassed.
type Result struct {
	Candidates []Reranked
	Degraded   bool
	Err        error
}

// Rerank scores every fused candidate against the question and sorts by
// score descending. Ties keep fused order. When scorer is nil or fails the
// fused order is returned unchanged and Degraded is set; the failure is
// reported in Err but never returned as an error, since fused order is a
// valid ranking on its own.
func Rerank(ctx context.Context, scorer Scorer, question string, fused []fusion.Fused, text func(doc int) string) Result {
	logger := contextutil.LoggerFromContext(ctx)

	if len(fused) == 0 {
		return Result{}
	}
	if scorer == nil {
		return Result{Candidates: passthrough(fused), Degraded: true}
	}

	docs := make([]string, len(fused))
	for i, f := range fused {
		docs[i] = text(f.Doc)
	}

	scores, err := scorer.Score(ctx, question, docs)
	if err == nil && len(scores) != len(fused) {
		err = fmt.Errorf("scorer returned %d scores for %d documents", len(scores), len(fused))
	}
	if err != nil {
		logger.WarnContext(ctx, "reranker unavailable, keeping fused order", "error", err)
		return Result{Candidates: passthrough(fused), Degraded: true, Err: err}
	}

	out := make([]Reranked, len(fused))
	for i, f := range fused {
		out[i] = Reranked{Doc: f.Doc, Score: scores[i], FusedRank: i + 1}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	logger.DebugContext(ctx, "reranked candidates", "count", len(out), "top_doc", out[0].Doc, "top_score", out[0].Score)
	return Result{Candidates: out}
}

// passthrough keeps fused order, scoring by fused score so the list stays
// monotone for callers that inspect Score.
func passthrough(fused []fusion.Fused) []Reranked {
	out := make([]Reranked, len(fused))
	for i, f := range fused {
		out[i] = Reranked{Doc: f.Doc, Score: f.Score, FusedRank: i + 1}
	}
	return out
}
