package answer

import (
	"strings"
)

// connectors may sit inside a proper-noun span when lowercase ("Bank of
// America", "Hôtel de Crillon") but never start or end one.
var connectors = map[string]struct{}{
	"of": {}, "the": {}, "de": {}, "la": {}, "le": {}, "du": {}, "des": {}, "von": {}, "van": {},
	"da": {}, "del": {}, "di": {},
}

// sentenceOpeners are capitalized only because they start a sentence.
var sentenceOpeners = map[string]struct{}{
	"i": {}, "im": {}, "my": {}, "we": {}, "our": {}, "you": {}, "your": {}, "he": {}, "she": {}, "they": {},
	"it": {}, "this": {}, "that": {}, "these": {}, "those": {}, "there": {}, "here": {}, "the": {}, "a": {}, "an": {},
	"please": {}, "can": {}, "could": {}, "would": {}, "will": {}, "should": {}, "may": {}, "must": {},
	"book": {}, "reserve": {}, "arrange": {}, "send": {}, "get": {}, "find": {}, "make": {}, "set": {},
	"need": {}, "want": {}, "let": {}, "also": {}, "just": {}, "thanks": {}, "thank": {}, "hi": {},
	"hello": {}, "hey": {}, "yes": {}, "no": {}, "ok": {}, "okay": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "who": {}, "how": {}, "is": {}, "are": {}, "do": {}, "does": {}, "did": {}, "and": {},
	"but": {}, "so": {}, "if": {}, "for": {}, "in": {}, "on": {}, "at": {}, "to": {}, "from": {},
	"confirm": {}, "cancel": {}, "tell": {}, "ask": {}, "change": {}, "update": {}, "remember": {}, "note": {}, "kindly": {},
	"have": {}, "has": {}, "had": {}, "as": {}, "after": {}, "before": {}, "once": {},
}

var calendarWords = map[string]struct{}{
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {}, "friday": {}, "saturday": {}, "sunday": {},
	"january": {}, "february": {}, "march": {}, "april": {}, "may": {}, "june": {}, "july": {},
	"august": {}, "september": {}, "october": {}, "november": {}, "december": {},
	"jan": {}, "feb": {}, "mar": {}, "apr": {}, "jun": {}, "jul": {}, "aug": {}, "sep": {}, "sept": {},
	"oct": {}, "nov": {}, "dec": {},
}

// EntitySpans returns the distinct proper-noun spans of text, verbatim and
// in order of appearance. Words in exclude (folded) are never part of a
// span; callers pass the author's and the question's own tokens there so
// only new entities remain.
func EntitySpans(text string, exclude map[string]struct{}) []string {
	words := scanWords(text)
	capable := make([]bool, len(words))
	for i := range words {
		capable[i] = entityWord(words, i, exclude)
	}

	var spans []string
	seen := make(map[string]struct{})
	for i := 0; i < len(words); {
		if !capable[i] {
			i++
			continue
		}
		end := i
		j := i
		for j < len(words) {
			if words[j].ClauseBreak {
				break
			}
			k := j + 1
			for k < len(words) && isConnector(words[k]) && !words[k].ClauseBreak {
				k++
			}
			if k < len(words) && capable[k] {
				j, end = k, k
				continue
			}
			break
		}
		span := text[words[i].Start:words[end].End]
		if _, ok := seen[span]; !ok {
			seen[span] = struct{}{}
			spans = append(spans, span)
		}
		i = end + 1
	}
	return spans
}

func entityWord(words []word, i int, exclude map[string]struct{}) bool {
	w := words[i]
	if !w.capitalized() || len([]rune(w.Core)) < 2 {
		return false
	}
	f := w.folded()
	if f == "" {
		return false
	}
	if _, ok := calendarWords[f]; ok {
		return false
	}
	if _, ok := exclude[f]; ok {
		return false
	}
	if atSentenceStart(words, i) {
		if _, ok := sentenceOpeners[f]; ok {
			return false
		}
		// a lone capitalized first word is usually just a sentence start;
		// keep it only when the name continues ("Le Bernardin is ...")
		if w.ClauseBreak || i+1 >= len(words) || !entityWord(words, i+1, exclude) {
			return false
		}
	}
	return true
}

func isConnector(w word) bool {
	if w.capitalized() {
		return false
	}
	_, ok := connectors[strings.ToLower(w.Core)]
	return ok
}
