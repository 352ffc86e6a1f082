package answer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_formatter.go -package=mocks memberqa/internal/answer Formatter

import (
	"context"
	"regexp"
	"strings"

	"memberqa/internal/contextutil"
	"memberqa/internal/corpus"
	"memberqa/internal/question"
	"memberqa/internal/textnorm"
)

// Formatter rephrases an accepted answer into one sentence. Its output is
// untrusted and is rechecked before use.
type Formatter interface {
	Format(ctx context.Context, question, answer string, evidence []corpus.Message) (string, error)
}

// Finalize passes a supported result through the formatter. A formatter
// error keeps the literal answer; formatter output that fails Recheck is
// replaced by Fallback. Unsupported results pass through untouched.
func (v *Validator) Finalize(ctx context.Context, p question.Profile, res Result) Result {
	if !res.Supported || v.Formatter == nil {
		return res
	}
	logger := contextutil.LoggerFromContext(ctx)

	formatted, err := v.Formatter.Format(ctx, p.Raw, res.Text, res.Evidence)
	if err != nil {
		logger.WarnContext(ctx, "answer formatter failed, keeping literal answer", "error", err)
		return res
	}

	if !Recheck(p, formatted, res.Decision.Literal, res.Evidence) {
		logger.InfoContext(ctx, "formatted answer failed recheck", "guard", res.Decision.Guard)
		res.Text = Fallback
		res.Supported = false
		res.Decision.Supported = false
		res.Decision.Reason = ReasonFormatterRejected
		res.Decision.Formatted = formatted
		return res
	}

	res.Text = formatted
	res.Decision.Formatted = formatted
	return res
}

// lowercase or function words that may be capitalized at the start of a
// formatted sentence without naming anything
var formatterOpeners = map[string]struct{}{
	"he": {}, "she": {}, "they": {}, "it": {}, "the": {}, "a": {}, "an": {}, "on": {}, "in": {}, "at": {},
	"their": {}, "his": {}, "her": {}, "yes": {}, "no": {}, "according": {}, "there": {}, "this": {},
	"i": {}, "for": {}, "by": {}, "from": {}, "to": {},
}

var digitRunRe = regexp.MustCompile(`\d+`)

// Recheck reports whether formatted still satisfies the guard for p, keeps
// the literal value, and adds no numbers or proper nouns absent from the
// question and evidence.
func Recheck(p question.Profile, formatted, literal string, evidence []corpus.Message) bool {
	formatted = strings.TrimSpace(formatted)
	if formatted == "" || formatted == Fallback || strings.ContainsAny(formatted, "\r\n") {
		return false
	}
	if !containsLiteral(p.Type, formatted, literal) {
		return false
	}

	switch p.Type {
	case question.Temporal:
		if len(ExplicitDates(formatted)) == 0 {
			return false
		}
	case question.Quantity:
		if len(quantitiesFor(formatted, p.CountNoun)) == 0 {
			return false
		}
	}

	sources := make([]string, 0, len(evidence)+1)
	sources = append(sources, p.Raw)
	for _, m := range evidence {
		sources = append(sources, m.Text, m.UserName)
	}
	return !introducesFacts(formatted, sources)
}

// containsLiteral checks that the extracted value survives formatting. An
// entity must appear verbatim; other values may be re-cased.
func containsLiteral(t question.Type, formatted, literal string) bool {
	if literal == "" {
		return true
	}
	if t == question.Entity {
		return strings.Contains(formatted, literal)
	}
	if t == question.Generic {
		return true
	}
	f := " " + strings.Join(textnorm.Tokenize(formatted), " ") + " "
	for _, part := range strings.Split(literal, ", ") {
		want := strings.Join(textnorm.Tokenize(part), " ")
		if want != "" && !strings.Contains(f, " "+want+" ") {
			return false
		}
	}
	return true
}

func introducesFacts(formatted string, sources []string) bool {
	joined := strings.Join(sources, " ")

	known := make(map[string]struct{})
	for _, d := range digitRunRe.FindAllString(joined, -1) {
		known[d] = struct{}{}
	}
	for _, d := range digitRunRe.FindAllString(formatted, -1) {
		if _, ok := known[d]; !ok {
			return true
		}
	}

	vocab := tokenSet(joined)
	words := scanWords(formatted)
	for i, w := range words {
		if !w.capitalized() || allKnown(w.Core, vocab) {
			continue
		}
		if atSentenceStart(words, i) {
			if _, ok := formatterOpeners[w.folded()]; ok {
				continue
			}
		}
		return true
	}
	return false
}

func allKnown(text string, vocab map[string]struct{}) bool {
	for _, tok := range textnorm.Tokenize(text) {
		if _, ok := vocab[tok]; !ok {
			return false
		}
	}
	return true
}
