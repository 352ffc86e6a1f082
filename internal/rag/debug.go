package rag

import (
	"time"

	"memberqa/internal/answer"
	"memberqa/internal/corpus"
	"memberqa/internal/fusion"
	"memberqa/internal/question"
	"memberqa/internal/rerank"
)

const (
	// maxDebugCandidates caps every candidate list in a trace.
	maxDebugCandidates = 20
	maxDebugText       = 200
)

// stageTimes collects phase boundaries for the latency breakdown.
type stageTimes struct {
	start, refreshed, retrieved, reranked, validated time.Time
}

func (t stageTimes) latency() *Latency {
	ms := func(from, to time.Time) int64 {
		if from.IsZero() || to.IsZero() {
			return 0
		}
		return to.Sub(from).Milliseconds()
	}
	return &Latency{
		RefreshMs:   ms(t.start, t.refreshed),
		RetrievalMs: ms(t.refreshed, t.retrieved),
		RerankMs:    ms(t.retrieved, t.reranked),
		ValidateMs:  ms(t.reranked, t.validated),
		TotalMs:     ms(t.start, t.validated),
	}
}

// trace is the per-question record behind DebugInfo. Every stage writes to
// it unconditionally; it is only converted when the caller asked for debug.
type trace struct {
	profile     question.Profile
	lexical     []corpus.Candidate
	semantic    []corpus.Candidate
	semanticErr error
	semanticOff bool
	fused       []fusion.Fused
	reranked    rerank.Result
	decision    answer.Decision
	times       stageTimes
}

// buildDebugInfo converts t against the snapshot it ran on.
func buildDebugInfo(snap *snapshot, t *trace, maxCandidates int) *DebugInfo {
	info := &DebugInfo{
		Profile:        t.profile,
		Decision:       t.decision,
		RerankDegraded: t.reranked.Degraded,
		Latency:        t.times.latency(),
		Lexical:        []RetrievedMessage{},
		Semantic:       []RetrievedMessage{},
		Fused:          []RetrievedMessage{},
		Reranked:       []RetrievedMessage{},
	}
	if t.reranked.Err != nil {
		info.RerankError = t.reranked.Err.Error()
	}
	if t.semanticOff || t.semanticErr != nil {
		info.SemanticDegraded = true
	}
	if t.semanticErr != nil {
		info.SemanticError = t.semanticErr.Error()
	}
	if snap == nil {
		return info
	}
	info.SnapshotVersion = snap.version
	info.CorpusSize = len(snap.messages)

	message := func(doc, rank int, score float64) RetrievedMessage {
		m := snap.messages[doc]
		return RetrievedMessage{
			Doc:      doc,
			Rank:     rank,
			Score:    score,
			UserName: m.UserName,
			Text:     truncate(m.Text, maxDebugText),
		}
	}

	for i, c := range t.lexical {
		if i >= maxCandidates {
			break
		}
		info.Lexical = append(info.Lexical, message(c.Doc, c.Rank, c.Score))
	}
	for i, c := range t.semantic {
		if i >= maxCandidates {
			break
		}
		info.Semantic = append(info.Semantic, message(c.Doc, c.Rank, c.Score))
	}
	for i, f := range t.fused {
		if i >= maxCandidates {
			break
		}
		rm := message(f.Doc, f.Rank, f.Score)
		rm.Ranks = f.Ranks
		info.Fused = append(info.Fused, rm)
	}
	for i, r := range t.reranked.Candidates {
		if i >= maxCandidates {
			break
		}
		rm := message(r.Doc, i+1, r.Score)
		rm.FusedRank = r.FusedRank
		info.Reranked = append(info.Reranked, rm)
	}
	return info
}

// truncate cuts s to at most n runes, marking the cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
