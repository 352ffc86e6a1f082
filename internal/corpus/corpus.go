// Package corpus defines the member message records that every retrieval
// and validation stage works over.
package corpus

import (
	"sort"
	"time"
)

// Message is one member message as returned by the messages API.
// Messages are immutable once fetched.
type Message struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	UserName  string    `json:"user_name"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"message"`
}

// IndexText is the text both indexes are built from. The author's name is
// included so a name in the question contributes to recall.
func (m Message) IndexText() string {
	if m.UserName == "" {
		return m.Text
	}
	return m.UserName + " " + m.Text
}

// Candidate is one hit from a single retrieval signal. Doc is the position
// of the message in the snapshot's message slice; Rank is 1-based.
// Scores from different signals are not comparable.
type Candidate struct {
	Doc   int
	Score float64
	Rank  int
}

// Names returns the distinct, non-empty author names in sorted order.
func Names(msgs []Message) []string {
	seen := make(map[string]struct{}, len(msgs))
	names := make([]string, 0)
	for _, m := range msgs {
		if m.UserName == "" {
			continue
		}
		if _, ok := seen[m.UserName]; ok {
			continue
		}
		seen[m.UserName] = struct{}{}
		names = append(names, m.UserName)
	}
	sort.Strings(names)
	return names
}

// SortCandidates orders candidates by score descending, breaking ties by
// corpus order, and assigns 1-based ranks.
func SortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].Doc < cands[j].Doc
	})
	for i := range cands {
		cands[i].Rank = i + 1
	}
}
