// Package fusion merges ranked candidate lists with reciprocal rank fusion.
package fusion

import (
	"sort"

	"memberqa/internal/corpus"
)

// DefaultK is the RRF damping constant.
const DefaultK = 60

// Fused is one candidate after fusion. Ranks holds the 1-based rank the
// candidate had in each input list, in input order; 0 means absent.
type Fused struct {
	Doc   int
	Score float64
	Ranks []int
	Rank  int
}

// MinRank returns the best rank across contributing lists, or 0 if the
// candidate appeared in none.
func (f Fused) MinRank() int {
	best := 0
	for _, r := range f.Ranks {
		if r > 0 && (best == 0 || r < best) {
			best = r
		}
	}
	return best
}

// Fuse scores each candidate as the sum of 1/(k+rank) over the lists it
// appears in and returns at most topN candidates ordered by score, then by
// best rank, then by corpus order. Only ranks are used; raw scores of the
// input lists are ignored.
func Fuse(k, topN int, lists ...[]corpus.Candidate) []Fused {
	if k <= 0 {
		k = DefaultK
	}
	if topN <= 0 {
		return nil
	}

	byDoc := make(map[int]*Fused)
	for li, list := range lists {
		for pos, c := range list {
			rank := c.Rank
			if rank <= 0 {
				rank = pos + 1
			}
			f, ok := byDoc[c.Doc]
			if !ok {
				f = &Fused{Doc: c.Doc, Ranks: make([]int, len(lists))}
				byDoc[c.Doc] = f
			}
			if f.Ranks[li] != 0 {
				// duplicate entry within one list keeps its better rank
				continue
			}
			f.Ranks[li] = rank
			f.Score += 1.0 / float64(k+rank)
		}
	}

	fused := make([]Fused, 0, len(byDoc))
	for _, f := range byDoc {
		fused = append(fused, *f)
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		mi, mj := fused[i].MinRank(), fused[j].MinRank()
		if mi != mj {
			return mi < mj
		}
		return fused[i].Doc < fused[j].Doc
	})

	if len(fused) > topN {
		fused = fused[:topN]
	}
	for i := range fused {
		fused[i].Rank = i + 1
	}
	return fused
}
