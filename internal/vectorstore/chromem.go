package vectorstore

import (
	"context"
	"fmt"
	"runtime"

	chromem "github.com/philippgille/chromem-go"

	"memberqa/internal/contextutil"
)

// ChromemStore implements VectorStore with an in-process chromem-go
// collection. Nothing is persisted; a store lives as long as the index
// snapshot that owns it.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewChromemStore creates an empty in-memory store with one collection.
func NewChromemStore(collection string) (*ChromemStore, error) {
	db := chromem.NewDB()
	col, err := db.CreateCollection(collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", collection, err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
	}, nil
}

// Upsert inserts or updates points. Points are keyed by ID.
func (s *ChromemStore) Upsert(ctx context.Context, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(points))
	for _, point := range points {
		if len(point.Vec) == 0 {
			return fmt.Errorf("point %s has an empty vector", point.ID)
		}
		docs = append(docs, chromem.Document{
			ID:        point.ID,
			Embedding: point.Vec,
			Content:   point.Text,
			Metadata:  point.Meta,
		})
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.DebugContext(ctx, "upserted points", "count", len(points))
	return nil
}

// Search returns up to k points ordered by cosine similarity. k larger than
// the store is clamped to the store size.
func (s *ChromemStore) Search(ctx context.Context, query []float32, k int, filters map[string]string) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	var where map[string]string
	if len(filters) > 0 {
		where = filters
	}

	results, err := s.collection.QueryEmbedding(ctx, query, k, where, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector store: %w", err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			PointID:    r.ID,
			Similarity: r.Similarity,
			Meta:       r.Metadata,
		}
	}
	return out, nil
}

// Count returns the number of stored points.
func (s *ChromemStore) Count() int {
	return s.collection.Count()
}
