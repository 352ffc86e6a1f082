package rag

import (
	"context"
	"time"

	"github.com/google/uuid"

	"memberqa/internal/contextutil"
	"memberqa/internal/corpus"
	"memberqa/internal/lexical"
	"memberqa/internal/semantic"
	"memberqa/internal/textnorm"
)

// snapshot is one fully built corpus with both indexes. It is never
// mutated after publication; a refresh builds a new one and swaps it in.
type snapshot struct {
	messages []corpus.Message
	names    []string
	lexical  *lexical.Index
	// semantic is nil when the encoder failed at build time.
	semantic    *semantic.Index
	semanticErr error
	builtAt     time.Time
	version     string
}

// indexTerms are the BM25 terms for text; messages and questions go
// through the same path.
func indexTerms(text string) []string {
	tokens := textnorm.FilterStopwords(textnorm.Tokenize(text))
	for i, tok := range tokens {
		tokens[i] = textnorm.Stem(tok)
	}
	return tokens
}

// buildSnapshot indexes msgs. A semantic build failure is logged and
// recorded; the snapshot still serves lexical recall.
func buildSnapshot(ctx context.Context, msgs []corpus.Message, enc semantic.Encoder, batchSize int, now time.Time) *snapshot {
	logger := contextutil.LoggerFromContext(ctx)

	docs := make([][]string, len(msgs))
	for i, m := range msgs {
		docs[i] = indexTerms(m.IndexText())
	}

	snap := &snapshot{
		messages: msgs,
		names:    corpus.Names(msgs),
		lexical:  lexical.Build(docs),
		builtAt:  now,
		version:  uuid.NewString(),
	}

	if enc == nil || len(msgs) == 0 {
		return snap
	}
	ix, err := semantic.Build(ctx, enc, msgs, batchSize)
	if err != nil {
		logger.WarnContext(ctx, "semantic index unavailable, serving lexical recall only", "error", err)
		snap.semanticErr = err
		return snap
	}
	snap.semantic = ix
	return snap
}

func (s *snapshot) status() Status {
	return Status{
		Ready:    true,
		Messages: len(s.messages),
		Authors:  len(s.names),
		BuiltAt:  s.builtAt,
		Version:  s.version,
		Semantic: s.semantic != nil,
	}
}

// text is the reranker's view of message doc.
func (s *snapshot) text(doc int) string {
	return s.messages[doc].IndexText()
}
