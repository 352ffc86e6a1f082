package answer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"memberqa/internal/textnorm"
)

// word is a whitespace-delimited token with surrounding punctuation split
// off. Start and End are byte offsets of Core in the source text.
type word struct {
	Raw        string
	Core       string
	Start, End int
	// EndsSentence is set when the punctuation after Core closes a sentence
	// or clause, so a phrase must not continue past this word.
	EndsSentence bool
	// ClauseBreak is set for any trailing punctuation, commas included.
	ClauseBreak bool
}

var fieldRe = regexp.MustCompile(`\S+`)

func scanWords(text string) []word {
	locs := fieldRe.FindAllStringIndex(text, -1)
	words := make([]word, 0, len(locs))
	for _, loc := range locs {
		raw := text[loc[0]:loc[1]]
		lead := len(raw) - len(strings.TrimLeftFunc(raw, isEdgePunct))
		trimmed := strings.TrimRightFunc(raw[lead:], isEdgePunct)
		if trimmed == "" {
			continue
		}
		trail := raw[lead+len(trimmed):]
		words = append(words, word{
			Raw:          raw,
			Core:         trimmed,
			Start:        loc[0] + lead,
			End:          loc[0] + lead + len(trimmed),
			EndsSentence: strings.ContainsAny(trail, ".!?;:"),
			ClauseBreak:  trail != "",
		})
	}
	return words
}

func isEdgePunct(r rune) bool {
	if r == '#' || r == '$' || r == '€' || r == '£' || r == '+' {
		return false
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// folded is the comparison form of a word: folded, possessive stripped.
func (w word) folded() string {
	tokens := textnorm.Tokenize(w.Core)
	if len(tokens) == 0 {
		return ""
	}
	return strings.Join(tokens, " ")
}

func (w word) capitalized() bool {
	r, _ := utf8.DecodeRuneInString(w.Core)
	return unicode.IsUpper(r)
}

// atSentenceStart reports whether words[i] opens a sentence.
func atSentenceStart(words []word, i int) bool {
	return i == 0 || words[i-1].EndsSentence
}

func tokenSet(texts ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range texts {
		for _, tok := range textnorm.Tokenize(t) {
			set[tok] = struct{}{}
		}
	}
	return set
}
