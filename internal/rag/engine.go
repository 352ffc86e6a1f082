// Package rag runs the question pipeline: recall, fusion, reranking and
// validation over an atomically swapped corpus snapshot.
package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks memberqa/internal/rag Engine,CorpusProvider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"memberqa/internal/answer"
	"memberqa/internal/contextutil"
	"memberqa/internal/corpus"
	"memberqa/internal/fusion"
	"memberqa/internal/question"
	"memberqa/internal/rerank"
	"memberqa/internal/semantic"
	"memberqa/internal/service"
)

// Engine answers questions against the member message corpus.
type Engine interface {
	// Ask answers one question. Evidence problems yield the fallback
	// answer, not an error.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
	// Refresh fetches the corpus and publishes a new snapshot. On failure
	// the previous snapshot stays active.
	Refresh(ctx context.Context) (Status, error)
	// Status describes the active snapshot.
	Status() Status
}

// CorpusProvider supplies the raw messages.
type CorpusProvider interface {
	FetchMessages(ctx context.Context) ([]corpus.Message, error)
}

// maxRetryBackoff caps how long a failed background rebuild holds off the
// next one.
const maxRetryBackoff = 30 * time.Second

// Options tunes the pipeline depths and snapshot lifetime.
type Options struct {
	// RecallDepth is the number of candidates taken from each signal.
	RecallDepth int
	// FusedDepth is the number of fused candidates sent to the reranker.
	FusedDepth int
	// EvidenceK is the number of reranked messages given to the validator.
	EvidenceK int
	// RRFK is the fusion damping constant.
	RRFK int
	// RefreshInterval is the snapshot lifetime; zero disables expiry.
	RefreshInterval time.Duration
	// BatchSize is the encoder batch size at build time.
	BatchSize int
	// DisableLexical turns off BM25 recall, leaving semantic recall alone.
	DisableLexical bool
}

// DefaultOptions returns the production pipeline settings.
func DefaultOptions() Options {
	return Options{
		RecallDepth:     100,
		FusedDepth:      60,
		EvidenceK:       10,
		RRFK:            fusion.DefaultK,
		RefreshInterval: 10 * time.Minute,
		BatchSize:       semantic.DefaultBatchSize,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.RecallDepth <= 0 {
		o.RecallDepth = d.RecallDepth
	}
	if o.FusedDepth <= 0 {
		o.FusedDepth = d.FusedDepth
	}
	if o.EvidenceK <= 0 {
		o.EvidenceK = d.EvidenceK
	}
	if o.RRFK <= 0 {
		o.RRFK = d.RRFK
	}
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	return o
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	provider  CorpusProvider
	encoder   semantic.Encoder
	scorer    rerank.Scorer
	validator *answer.Validator
	opts      Options

	current  atomic.Pointer[snapshot]
	rebuilds singleflight.Group

	mu       sync.Mutex
	lastErr  error
	failedAt time.Time

	// background tracks stale-snapshot rebuilds started by questions
	background sync.WaitGroup

	now func() time.Time
}

// NewEngine creates a new engine. encoder, scorer and validator may be nil:
// without an encoder recall is lexical only, without a scorer the fused
// order is kept, and a nil validator validates without formatting.
func NewEngine(provider CorpusProvider, encoder semantic.Encoder, scorer rerank.Scorer, validator *answer.Validator, opts Options) Engine {
	if validator == nil {
		validator = answer.NewValidator(nil)
	}
	return &ragEngine{
		provider:  provider,
		encoder:   encoder,
		scorer:    scorer,
		validator: validator,
		opts:      opts.withDefaults(),
		now:       time.Now,
	}
}

// Ask runs the pipeline for one question.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	q := question.Normalize(req.Question)
	if q == "" {
		return AskResponse{}, &service.ValidationError{Field: "question", Message: "cannot be empty"}
	}
	logger.InfoContext(ctx, "question received", "question", q, "debug", req.Debug)

	t := &trace{}
	t.times.start = e.now()

	snap, err := e.ensureSnapshot(ctx)
	if err != nil {
		return AskResponse{}, err
	}
	t.times.refreshed = e.now()

	if snap == nil || len(snap.messages) == 0 {
		t.profile = question.Analyze(q, nil)
		res := answer.Unsupported(t.profile.Type.String(), answer.ReasonEmptyCorpus, nil)
		t.decision = res.Decision
		t.times.validated = e.now()
		logger.InfoContext(ctx, "no messages available, returning fallback")
		return e.respond(req, snap, t, res), nil
	}

	t.profile = question.Analyze(q, snap.names)
	logger.DebugContext(ctx, "question analyzed",
		"type", t.profile.Type.String(),
		"person", t.profile.Person,
		"person_score", t.profile.PersonScore,
		"focus_terms", t.profile.FocusTerms,
	)

	if err := e.recall(ctx, snap, t); err != nil {
		return AskResponse{}, err
	}
	t.fused = fusion.Fuse(e.opts.RRFK, e.opts.FusedDepth, t.lexical, t.semantic)
	t.times.retrieved = e.now()
	logger.DebugContext(ctx, "recall completed",
		"lexical", len(t.lexical),
		"semantic", len(t.semantic),
		"fused", len(t.fused),
		"semantic_degraded", t.semanticOff || t.semanticErr != nil,
	)

	t.reranked = rerank.Rerank(ctx, e.scorer, q, t.fused, snap.text)
	t.times.reranked = e.now()

	evidence := make([]corpus.Message, 0, e.opts.EvidenceK)
	for _, c := range t.reranked.Candidates {
		if len(evidence) == e.opts.EvidenceK {
			break
		}
		evidence = append(evidence, snap.messages[c.Doc])
	}

	res := e.validator.Validate(ctx, t.profile, evidence)
	res = e.validator.Finalize(ctx, t.profile, res)
	t.decision = res.Decision
	t.times.validated = e.now()

	logger.InfoContext(ctx, "question answered",
		"supported", res.Supported,
		"reason", res.Decision.Reason,
		"guard", res.Decision.Guard,
		"evidence", len(evidence),
		"total_ms", t.times.validated.Sub(t.times.start).Milliseconds(),
	)
	return e.respond(req, snap, t, res), nil
}

// recall runs both retrieval signals in parallel. A semantic failure
// degrades to lexical recall; having neither signal is ErrModelUnavailable.
func (e *ragEngine) recall(ctx context.Context, snap *snapshot, t *trace) error {
	logger := contextutil.LoggerFromContext(ctx)

	g, gctx := errgroup.WithContext(ctx)
	if !e.opts.DisableLexical {
		terms := indexTerms(t.profile.Raw)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t.lexical = snap.lexical.Query(terms, e.opts.RecallDepth)
			return nil
		})
	}

	if snap.semantic == nil {
		t.semanticOff = true
		t.semanticErr = snap.semanticErr
	} else {
		g.Go(func() error {
			cands, err := snap.semantic.Query(gctx, t.profile.Raw, e.opts.RecallDepth, t.profile.Person)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.WarnContext(ctx, "semantic recall failed, using lexical only", "error", err)
				t.semanticErr = err
				return nil
			}
			t.semantic = cands
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	semanticOK := !t.semanticOff && t.semanticErr == nil
	if e.opts.DisableLexical && !semanticOK {
		cause := t.semanticErr
		if cause == nil {
			cause = errors.New("no encoder configured")
		}
		return fmt.Errorf("%w: no retrieval signal available: %w", service.ErrModelUnavailable, cause)
	}
	return nil
}

func (e *ragEngine) respond(req AskRequest, snap *snapshot, t *trace, res answer.Result) AskResponse {
	resp := AskResponse{
		Answer:    res.Text,
		Supported: res.Supported,
		Reason:    res.Decision.Reason,
		Evidence:  make([]Evidence, 0, len(res.Evidence)),
	}
	for _, m := range res.Evidence {
		resp.Evidence = append(resp.Evidence, Evidence{
			UserName:  m.UserName,
			Timestamp: m.Timestamp,
			Message:   m.Text,
		})
	}
	if req.Debug {
		resp.Debug = buildDebugInfo(snap, t, maxDebugCandidates)
	}
	return resp
}

// ensureSnapshot returns the active snapshot. An expired snapshot keeps
// serving while a rebuild runs in the background; only the very first build
// happens on the caller's time. With no snapshot and a failed build it
// returns nil.
func (e *ragEngine) ensureSnapshot(ctx context.Context) (*snapshot, error) {
	logger := contextutil.LoggerFromContext(ctx)

	snap := e.current.Load()
	if snap != nil && !e.stale(snap) {
		return snap, nil
	}
	if e.provider == nil {
		if snap != nil {
			return snap, nil
		}
		return nil, service.ErrNoEvidenceSource
	}

	if snap != nil {
		e.refreshInBackground(ctx)
		return snap, nil
	}

	if _, err := e.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.WarnContext(ctx, "corpus refresh failed, no snapshot to serve", "error", err)
	}
	return e.current.Load(), nil
}

// refreshInBackground starts a shared rebuild unless one failed within the
// retry backoff.
func (e *ragEngine) refreshInBackground(ctx context.Context) {
	if !e.retryDue() {
		return
	}
	ctx = context.WithoutCancel(ctx)
	ch := e.rebuilds.DoChan("rebuild", func() (any, error) {
		return e.rebuild(ctx)
	})
	e.background.Add(1)
	go func() {
		defer e.background.Done()
		if res := <-ch; res.Err != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "background corpus refresh failed, serving previous snapshot", "error", res.Err)
		}
	}()
}

func (e *ragEngine) retryDue() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failedAt.IsZero() {
		return true
	}
	backoff := min(e.opts.RefreshInterval, maxRetryBackoff)
	return e.now().Sub(e.failedAt) >= backoff
}

func (e *ragEngine) stale(snap *snapshot) bool {
	return e.opts.RefreshInterval > 0 && e.now().Sub(snap.builtAt) >= e.opts.RefreshInterval
}

// Refresh rebuilds the snapshot. Concurrent callers share one rebuild; a
// caller that gives up does not cancel it for the others.
func (e *ragEngine) Refresh(ctx context.Context) (Status, error) {
	if e.provider == nil {
		return e.Status(), service.ErrNoEvidenceSource
	}

	ch := e.rebuilds.DoChan("rebuild", func() (any, error) {
		return e.rebuild(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return e.Status(), ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return e.Status(), res.Err
		}
		return e.Status(), nil
	}
}

func (e *ragEngine) rebuild(ctx context.Context) (*snapshot, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := e.now()

	msgs, err := e.provider.FetchMessages(ctx)
	if err != nil {
		err = fmt.Errorf("%w: fetch messages: %w", service.ErrExternalService, err)
		e.recordFailure(err)
		return nil, err
	}

	prev := e.current.Load()
	if len(msgs) == 0 && prev != nil && len(prev.messages) > 0 {
		err := fmt.Errorf("%w: messages API returned no messages", service.ErrExternalService)
		e.recordFailure(err)
		return nil, err
	}

	snap := buildSnapshot(ctx, msgs, e.encoder, e.opts.BatchSize, e.now())
	e.current.Store(snap)
	e.mu.Lock()
	e.lastErr = snap.semanticErr
	e.failedAt = time.Time{}
	e.mu.Unlock()

	logger.InfoContext(ctx, "corpus snapshot published",
		"version", snap.version,
		"messages", len(snap.messages),
		"authors", len(snap.names),
		"semantic", snap.semantic != nil,
		"duration_ms", e.now().Sub(start).Milliseconds(),
	)
	return snap, nil
}

func (e *ragEngine) recordFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastErr = err
	e.failedAt = e.now()
}

// Status describes the active snapshot.
func (e *ragEngine) Status() Status {
	var st Status
	if snap := e.current.Load(); snap != nil {
		st = snap.status()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	return st
}
