// Package semantic ranks messages by cosine similarity between sentence
// embeddings of the question and of each message.
package semantic

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"memberqa/internal/contextutil"
	"memberqa/internal/corpus"
	"memberqa/internal/vectorstore"
)

// PersonBoost multiplies the similarity of messages written by the person
// named in the question. It is applied to positive similarities only, so a
// message with no similarity is never lifted.
const PersonBoost = 1.15

// DefaultBatchSize is the number of texts sent per encoder call at build time.
const DefaultBatchSize = 64

const maxParallelBatches = 4

// Encoder turns texts into fixed-dimension vectors.
type Encoder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Index holds one vector per message, index-aligned with the message slice
// it was built from.
type Index struct {
	store   vectorstore.VectorStore
	embed   Encoder
	authors []string
	dim     int
}

// Build encodes every message in batches and stores the vectors in a fresh
// in-memory vector store. The returned Index is read-only.
func Build(ctx context.Context, enc Encoder, msgs []corpus.Message, batchSize int) (*Index, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if enc == nil {
		return nil, fmt.Errorf("no encoder configured")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	store, err := vectorstore.NewChromemStore("messages")
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(msgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelBatches)
	for start := 0; start < len(msgs); start += batchSize {
		end := min(start+batchSize, len(msgs))
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, m := range msgs[start:end] {
				texts = append(texts, m.IndexText())
			}
			embs, err := enc.EmbedTexts(gctx, texts)
			if err != nil {
				return fmt.Errorf("failed to embed messages %d-%d: %w", start, end, err)
			}
			if len(embs) != len(texts) {
				return fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embs))
			}
			copy(vectors[start:end], embs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ix := &Index{
		store:   store,
		embed:   enc,
		authors: make([]string, len(msgs)),
	}

	points := make([]vectorstore.Point, 0, len(msgs))
	for i, m := range msgs {
		ix.authors[i] = m.UserName
		vec := vectors[i]
		if ix.dim == 0 {
			ix.dim = len(vec)
		}
		if len(vec) != ix.dim {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(vec), ix.dim)
		}
		if isZero(vec) {
			// a zero vector has no direction; it can never be similar to anything
			continue
		}
		points = append(points, vectorstore.Point{
			ID:   strconv.Itoa(i),
			Vec:  vec,
			Text: m.Text,
			Meta: map[string]string{"user_name": m.UserName},
		})
	}
	if err := store.Upsert(ctx, points); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "semantic index built", "messages", len(msgs), "vectors", len(points), "dim", ix.dim)
	return ix, nil
}

// Len returns the number of messages the index was built from.
func (ix *Index) Len() int {
	return len(ix.authors)
}

// Query encodes question and ranks messages by cosine similarity. When
// person is non-empty, that person's messages get PersonBoost before
// ranking. At most topN candidates are returned; ties keep corpus order.
func (ix *Index) Query(ctx context.Context, question string, topN int, person string) ([]corpus.Candidate, error) {
	if topN <= 0 || ix.store.Count() == 0 {
		return nil, nil
	}

	embs, err := ix.embed.EmbedTexts(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(embs) == 0 {
		return nil, fmt.Errorf("no embedding returned for question")
	}
	qvec := embs[0]
	if len(qvec) != ix.dim {
		return nil, fmt.Errorf("question embedding has size %d, expected %d", len(qvec), ix.dim)
	}
	if isZero(qvec) {
		return nil, nil
	}

	// rank everything so the boost can reorder before truncation
	results, err := ix.store.Search(ctx, qvec, ix.store.Count(), nil)
	if err != nil {
		return nil, err
	}

	cands := make([]corpus.Candidate, 0, len(results))
	for _, r := range results {
		doc, err := strconv.Atoi(r.PointID)
		if err != nil || doc < 0 || doc >= len(ix.authors) {
			continue
		}
		cands = append(cands, corpus.Candidate{
			Doc:   doc,
			Score: Boost(float64(r.Similarity), ix.authors[doc] == person && person != ""),
		})
	}

	// chromem orders by similarity only; re-sort for a stable corpus-order tie-break
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Doc < cands[j].Doc })
	corpus.SortCandidates(cands)
	if len(cands) > topN {
		cands = cands[:topN]
	}
	return cands, nil
}

// Boost applies PersonBoost to a positive similarity.
func Boost(similarity float64, boosted bool) float64 {
	if !boosted || similarity <= 0 {
		return similarity
	}
	return similarity * PersonBoost
}

func isZero(vec []float32) bool {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum) == 0
}
