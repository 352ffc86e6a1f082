// Package semantictest provides a deterministic bag-of-words encoder for
// tests that need a Semantic Index without a model server.
package semantictest

import (
	"context"
	"errors"
	"hash/fnv"
	"sync/atomic"

	"memberqa/internal/textnorm"
)

// Dim is the vector size produced by HashEncoder.
const Dim = 64

// ErrUnavailable is returned by HashEncoder when Fail is set.
var ErrUnavailable = errors.New("encoder unavailable")

// HashEncoder hashes stemmed content words into Dim buckets.
type HashEncoder struct {
	// Fail makes every call return ErrUnavailable.
	Fail atomic.Bool
	// Calls counts EmbedTexts invocations.
	Calls atomic.Int64
}

// EmbedTexts implements semantic.Encoder.
func (e *HashEncoder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	e.Calls.Add(1)
	if e.Fail.Load() {
		return nil, ErrUnavailable
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, Dim)
		for _, tok := range textnorm.FilterStopwords(textnorm.Tokenize(text)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(textnorm.Stem(tok)))
			vec[h.Sum32()%Dim]++
		}
		out[i] = vec
	}
	return out, nil
}
