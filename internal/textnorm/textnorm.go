// Package textnorm folds and tokenizes text so that messages, questions and
// member names are compared on the same footing.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "was": {}, "were": {}, "with": {},
}

// Fold lowercases text and strips combining marks, so "Müller" and "Muller"
// compare equal. The input string itself is never modified.
func Fold(text string) string {
	if text == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

// Tokenize folds text and splits it into letter/digit runs. Apostrophes
// inside a word are dropped and a trailing possessive "'s" is removed.
// Empty or punctuation-only input yields nil.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	folded := Fold(text)
	builder.Grow(len(folded))
	rs := []rune(folded)
	for i, r := range rs {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			builder.WriteRune(r)
		case isApostrophe(r):
			if i+1 < len(rs) && rs[i+1] == 's' && (i+2 == len(rs) || !unicode.IsLetter(rs[i+2])) {
				builder.WriteRune(' ')
				continue
			}
		default:
			builder.WriteRune(' ')
		}
	}

	tokens := strings.Fields(builder.String())
	if len(tokens) == 0 {
		return nil
	}
	// the possessive branch leaves a lone "s" behind
	out := tokens[:0]
	for i, tok := range tokens {
		if tok == "s" && i > 0 {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’'
}

// FilterStopwords removes common function words.
func FilterStopwords(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if IsStopword(token) {
			continue
		}
		result = append(result, token)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// IsStopword reports whether a folded token is a function word.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// Stem applies a light plural strip ("cars" -> "car", "tickets" -> "ticket").
func Stem(token string) string {
	n := len(token)
	switch {
	case n > 4 && strings.HasSuffix(token, "ies"):
		return token[:n-3] + "y"
	case n > 3 && strings.HasSuffix(token, "ss"):
		return token
	case n > 3 && strings.HasSuffix(token, "s"):
		return token[:n-1]
	}
	return token
}

// StemSet tokenizes text and returns the set of stemmed tokens.
func StemSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[Stem(tok)] = struct{}{}
	}
	return set
}
