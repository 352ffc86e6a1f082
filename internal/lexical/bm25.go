// Package lexical implements a BM25 Okapi index over tokenized messages.
// An Index is immutable after Build; a corpus change requires a new Index.
package lexical

import (
	"math"

	"memberqa/internal/corpus"
)

const (
	// K1 controls term-frequency saturation.
	K1 = 1.5
	// B controls document-length normalization.
	B = 0.75
	// Epsilon floors non-positive idf values at a fraction of the mean
	// positive idf, so terms common to most messages still count a little.
	Epsilon = 0.25
)

// Index is a BM25 index over pre-tokenized documents.
type Index struct {
	termFreqs []map[string]int
	docLens   []int
	avgDocLen float64
	idf       map[string]float64
}

// Build indexes docs, where docs[i] is the token sequence of message i.
func Build(docs [][]string) *Index {
	ix := &Index{
		termFreqs: make([]map[string]int, len(docs)),
		docLens:   make([]int, len(docs)),
		idf:       make(map[string]float64),
	}

	docFreq := make(map[string]int)
	var totalLen int
	for i, tokens := range docs {
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for tok := range tf {
			docFreq[tok]++
		}
		ix.termFreqs[i] = tf
		ix.docLens[i] = len(tokens)
		totalLen += len(tokens)
	}

	n := len(docs)
	if n == 0 {
		return ix
	}
	ix.avgDocLen = float64(totalLen) / float64(n)

	var positiveSum float64
	var positive int
	var negative []string
	for term, df := range docFreq {
		idf := math.Log(float64(n-df)+0.5) - math.Log(float64(df)+0.5)
		ix.idf[term] = idf
		if idf > 0 {
			positiveSum += idf
			positive++
		} else {
			negative = append(negative, term)
		}
	}
	floor := Epsilon
	if positive > 0 {
		floor = Epsilon * positiveSum / float64(positive)
	}
	for _, term := range negative {
		ix.idf[term] = floor
	}

	return ix
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	return len(ix.docLens)
}

// Score returns the BM25 score of document doc for the query terms.
func (ix *Index) Score(terms []string, doc int) float64 {
	if doc < 0 || doc >= len(ix.docLens) || ix.avgDocLen == 0 {
		return 0
	}
	tf := ix.termFreqs[doc]
	norm := K1 * (1 - B + B*float64(ix.docLens[doc])/ix.avgDocLen)

	var score float64
	for _, term := range terms {
		f, ok := tf[term]
		if !ok {
			continue
		}
		freq := float64(f)
		score += ix.idf[term] * (freq * (K1 + 1)) / (freq + norm)
	}
	return score
}

// Query ranks documents with a positive score for terms and returns at most
// topN of them. Ties are broken by corpus order.
func (ix *Index) Query(terms []string, topN int) []corpus.Candidate {
	if len(terms) == 0 || topN <= 0 {
		return nil
	}

	cands := make([]corpus.Candidate, 0)
	for doc := range ix.docLens {
		score := ix.Score(terms, doc)
		if score <= 0 {
			continue
		}
		cands = append(cands, corpus.Candidate{Doc: doc, Score: score})
	}

	corpus.SortCandidates(cands)
	if len(cands) > topN {
		cands = cands[:topN]
	}
	return cands
}
