package question

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"memberqa/internal/textnorm"
)

// PersonThreshold is the minimum token-set similarity (0..100) for a member
// name to count as detected.
const PersonThreshold = 70.0

var capitalizedSpanRe = regexp.MustCompile(`\p{Lu}[\p{L}'’\-]+(?:\s+\p{Lu}[\p{L}'’\-]+)*`)

// DetectPerson fuzzy-matches the question against known member names. The
// longest capitalized span is tried first, then the whole question; the
// best name scoring at least PersonThreshold wins. Ties prefer the name
// sharing more tokens with the query, then the earlier name in names.
func DetectPerson(question string, names []string) (string, float64) {
	if len(names) == 0 || strings.TrimSpace(question) == "" {
		return "", 0
	}

	var queries [][]string
	if span := longestSpan(capitalizedSpanRe.FindAllString(question, -1)); len(span) > 0 {
		queries = append(queries, span)
	}
	queries = append(queries, textnorm.FilterStopwords(textnorm.Tokenize(question)))

	best, bestScore, bestOverlap := "", 0.0, 0
	for _, query := range queries {
		if len(query) == 0 {
			continue
		}
		for _, name := range names {
			score, overlap := tokenSetRatio(query, textnorm.Tokenize(name))
			if score > bestScore || (score == bestScore && overlap > bestOverlap) {
				best, bestScore, bestOverlap = name, score, overlap
			}
		}
	}

	if bestScore < PersonThreshold {
		return "", 0
	}
	return best, bestScore
}

// longestSpan returns the tokens of the longest capitalized span once
// question words are removed, so "Did Layla" counts as "layla".
func longestSpan(spans []string) []string {
	var longest []string
	longestLen := 0
	for _, s := range spans {
		var tokens []string
		n := 0
		for _, tok := range textnorm.Tokenize(s) {
			if isGeneric(tok) || textnorm.IsStopword(tok) {
				continue
			}
			tokens = append(tokens, tok)
			n += len(tok)
		}
		if n > longestLen {
			longest, longestLen = tokens, n
		}
	}
	return longest
}

// tokenSetRatio compares two token sets the way fuzzy matchers usually do:
// a full score when one set contains the other, otherwise the best
// normalized edit-distance similarity between the shared tokens and each
// side's remainder. It also returns the number of shared tokens.
func tokenSetRatio(a, b []string) (float64, int) {
	setA, setB := toSet(a), toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0, 0
	}

	var sect, onlyA, onlyB []string
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			sect = append(sect, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if _, ok := setA[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}
	if len(sect) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100, len(sect)
	}

	sort.Strings(sect)
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	sectJoined := strings.Join(sect, " ")
	aJoined := joinNonEmpty(sectJoined, strings.Join(onlyA, " "))
	bJoined := joinNonEmpty(sectJoined, strings.Join(onlyB, " "))

	score := ratio(aJoined, bJoined)
	if sectJoined != "" {
		score = max(score, ratio(sectJoined, aJoined), ratio(sectJoined, bJoined))
	}
	return score, len(sect)
}

// ratio is 100 * (1 - distance / longer length), in runes.
func ratio(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(d)/float64(longest))
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
