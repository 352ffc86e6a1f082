package answer

import (
	"time"

	"memberqa/internal/corpus"
)

// Fact is one candidate answer value read from one evidence message.
type Fact struct {
	Evidence  int       `json:"evidence"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	Value     string    `json:"value"`
	// Key is the comparison form of Value; facts with equal keys agree.
	Key string `json:"-"`
}

func newFact(i int, m corpus.Message, value, key string) Fact {
	return Fact{Evidence: i, Author: m.UserName, Timestamp: m.Timestamp, Value: value, Key: key}
}

// Resolve picks one fact from facts, which are in evidence order. Facts that
// all agree resolve to the best-ranked one. Disagreeing facts from a single
// author resolve to the latest message; a timestamp tie between
// disagreeing values, or disagreement between different authors, is
// ambiguous.
func Resolve(facts []Fact) (Fact, Reason) {
	if len(facts) == 0 {
		return Fact{}, ReasonGuardViolation
	}

	first := facts[0]
	agree := true
	sameAuthor := true
	for _, f := range facts[1:] {
		if f.Key != first.Key {
			agree = false
		}
		if f.Author != first.Author {
			sameAuthor = false
		}
	}
	if agree {
		return first, ReasonSupported
	}
	if !sameAuthor {
		return Fact{}, ReasonAmbiguous
	}

	latest := first
	tie := false
	for _, f := range facts[1:] {
		switch {
		case f.Timestamp.After(latest.Timestamp):
			latest, tie = f, false
		case f.Timestamp.Equal(latest.Timestamp) && f.Key != latest.Key:
			tie = true
		}
	}
	if tie {
		return Fact{}, ReasonAmbiguous
	}
	return latest, ReasonSupported
}
