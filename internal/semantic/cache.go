package semantic

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// CachingEncoder memoizes single-text encodings, which is the query-time
// call pattern. Batch calls pass through uncached.
type CachingEncoder struct {
	next  Encoder
	cache *lru.Cache
}

// NewCachingEncoder wraps next with an LRU cache holding up to size vectors.
func NewCachingEncoder(next Encoder, size int) (*CachingEncoder, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return &CachingEncoder{next: next, cache: cache}, nil
}

// EmbedTexts implements Encoder.
func (c *CachingEncoder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) != 1 {
		return c.next.EmbedTexts(ctx, texts)
	}

	if v, ok := c.cache.Get(texts[0]); ok {
		if vec, ok := v.([]float32); ok {
			return [][]float32{vec}, nil
		}
	}

	embs, err := c.next.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(embs) == 1 {
		c.cache.Add(texts[0], embs[0])
	}
	return embs, nil
}
