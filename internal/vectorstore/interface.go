package vectorstore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Text string
	Meta map[string]string
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID    string
	Similarity float32
	Meta       map[string]string
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// Upsert inserts or updates points.
	Upsert(ctx context.Context, points []Point) error

	// Search returns the k most similar points to query, optionally filtered
	// by exact metadata matches.
	Search(ctx context.Context, query []float32, k int, filters map[string]string) ([]SearchResult, error)

	// Count returns the number of stored points.
	Count() int
}
