package question

import (
	"regexp"
	"strings"
	"unicode"

	"memberqa/internal/textnorm"
)

const maxFocusTerms = 5

// generic holds request vocabulary that says nothing about which message
// answers the question.
var generic = map[string]struct{}{
	"what": {}, "which": {}, "who": {}, "when": {}, "where": {}, "why": {}, "how": {}, "much": {}, "many": {},
	"plan": {}, "planning": {}, "trip": {}, "travel": {}, "vacation": {}, "book": {}, "booking": {},
	"secure": {}, "arrange": {}, "need": {}, "want": {},
	"restaurant": {}, "restaurants": {}, "dinner": {}, "reservation": {}, "reservations": {},
	"table": {}, "tables": {}, "seat": {}, "seats": {},
	"family": {}, "please": {}, "thanks": {}, "thank": {}, "you": {}, "my": {}, "his": {}, "her": {}, "their": {},
	"the": {}, "a": {}, "an": {}, "at": {}, "for": {}, "to": {}, "in": {}, "on": {}, "with": {}, "of": {}, "and": {}, "or": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "do": {}, "does": {}, "did": {}, "have": {}, "has": {}, "had": {},
	"say": {}, "said": {}, "tell": {}, "about": {}, "any": {}, "there": {}, "this": {}, "that": {},
	"can": {}, "could": {}, "would": {}, "will": {},
}

func isGeneric(token string) bool {
	_, ok := generic[token]
	return ok
}

var quotedRe = regexp.MustCompile(`"([^"]+)"|“([^”]+)”`)

// FocusTerms returns up to five folded terms that a responsive message must
// contain: quoted phrases first, then content words. The person's name
// tokens, generic request words and tokens of two characters or fewer are
// dropped.
func FocusTerms(question, person string) []string {
	var candidates []string
	for _, m := range quotedRe.FindAllStringSubmatch(question, -1) {
		for _, group := range m[1:] {
			if phrase := strings.Join(textnorm.Tokenize(group), " "); phrase != "" {
				candidates = append(candidates, phrase)
			}
		}
	}

	nameTokens := make(map[string]struct{})
	for _, tok := range textnorm.Tokenize(person) {
		nameTokens[tok] = struct{}{}
	}

	for _, tok := range textnorm.Tokenize(question) {
		if len([]rune(tok)) <= 2 || !unicode.IsLetter([]rune(tok)[0]) {
			continue
		}
		if _, ok := nameTokens[tok]; ok {
			continue
		}
		if isGeneric(tok) || textnorm.IsStopword(tok) {
			continue
		}
		candidates = append(candidates, tok)
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, maxFocusTerms)
	for _, term := range candidates {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
		if len(out) == maxFocusTerms {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Mentions reports whether text covers a focus term. Single words match on
// their stem, phrases match as folded substrings.
func Mentions(text, term string) bool {
	if strings.Contains(term, " ") {
		joined := " " + strings.Join(textnorm.Tokenize(text), " ") + " "
		return strings.Contains(joined, " "+term+" ")
	}
	_, ok := textnorm.StemSet(text)[textnorm.Stem(term)]
	return ok
}
