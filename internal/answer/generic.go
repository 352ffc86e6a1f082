package answer

import (
	"strings"

	"github.com/jdkato/prose/v2"

	"memberqa/internal/question"
	"memberqa/internal/textnorm"
)

const (
	coverageLengthScale = 2.0
	maxCoverageScore    = 1.0
)

// Sentences splits text into sentences. Segmentation failures fall back to
// the whole text as one sentence.
func Sentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithTokenization(false),
	)
	if err != nil {
		return []string{text}
	}
	var out []string
	for _, s := range doc.Sentences() {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

// covers reports whether sentence mentions every focus term.
func covers(sentence string, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	for _, term := range terms {
		if !question.Mentions(sentence, term) {
			return false
		}
	}
	return true
}

// coverageScore rewards sentences where the focus terms make up a large
// share of the words. The score is capped so long sentences with repeats
// cannot run away.
func coverageScore(terms []string, sentence string) float64 {
	tokens := textnorm.Tokenize(sentence)
	if len(tokens) == 0 || len(terms) == 0 {
		return 0
	}

	freq := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		freq[textnorm.Stem(tok)]++
	}

	var matches int
	for _, term := range terms {
		for _, part := range strings.Fields(term) {
			matches += freq[textnorm.Stem(part)]
		}
	}

	score := float64(matches) / (1 + float64(len(tokens))) * coverageLengthScale
	if score > maxCoverageScore {
		return maxCoverageScore
	}
	return score
}
