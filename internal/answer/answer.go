// Package answer applies type-specific grounding guards to reranked
// evidence and either extracts a literal answer or returns the fixed
// fallback.
package answer

import (
	"context"
	"strings"

	"memberqa/internal/contextutil"
	"memberqa/internal/corpus"
	"memberqa/internal/question"
	"memberqa/internal/textnorm"
)

// Fallback is returned, byte for byte, whenever the evidence does not
// support an answer.
const Fallback = "I don't have enough information to answer from the messages."

// Reason explains a guard decision.
type Reason string

const (
	ReasonSupported         Reason = "supported"
	ReasonEmptyCorpus       Reason = "empty_corpus"
	ReasonNoEvidence        Reason = "no_evidence"
	ReasonNotResponsive     Reason = "not_responsive"
	ReasonAmbiguous         Reason = "ambiguous_evidence"
	ReasonGuardViolation    Reason = "guard_violation"
	ReasonFormatterRejected Reason = "formatter_rejected"
)

// Decision is the traceable outcome of validation.
type Decision struct {
	Guard      string  `json:"guard"`
	Supported  bool    `json:"supported"`
	Reason     Reason  `json:"reason"`
	Responsive []int   `json:"responsive,omitempty"`
	Facts      []Fact  `json:"facts,omitempty"`
	Chosen     *Fact   `json:"chosen,omitempty"`
	Literal    string  `json:"literal,omitempty"`
	Formatted  string  `json:"formatted,omitempty"`
	Score      float64 `json:"score,omitempty"`
}

// Result is what validation hands back to the caller.
type Result struct {
	Text      string
	Supported bool
	Evidence  []corpus.Message
	Decision  Decision
}

// Unsupported builds the fallback result for reason.
func Unsupported(guard string, reason Reason, evidence []corpus.Message) Result {
	return Result{
		Text:     Fallback,
		Evidence: evidence,
		Decision: Decision{Guard: guard, Reason: reason},
	}
}

// Validator checks evidence against the guard for the question type and
// optionally passes accepted answers through a Formatter.
type Validator struct {
	Formatter Formatter
}

// NewValidator returns a validator; formatter may be nil.
func NewValidator(formatter Formatter) *Validator {
	return &Validator{Formatter: formatter}
}

// Validate applies the guard for p.Type to evidence, which must be in
// reranked order. It never returns a partial answer: the result text is
// either a literal span from one evidence message or Fallback.
func (v *Validator) Validate(ctx context.Context, p question.Profile, evidence []corpus.Message) Result {
	logger := contextutil.LoggerFromContext(ctx)
	guard := p.Type.String()

	if len(evidence) == 0 {
		return Unsupported(guard, ReasonNoEvidence, evidence)
	}

	responsive := Responsive(p, evidence)
	if len(responsive) == 0 {
		logger.DebugContext(ctx, "no responsive evidence", "person", p.Person, "focus_terms", p.FocusTerms)
		return Unsupported(guard, ReasonNotResponsive, evidence)
	}

	var (
		facts []Fact
		score float64
	)
	switch p.Type {
	case question.Temporal:
		facts = temporalFacts(evidence, responsive)
	case question.Quantity:
		facts = quantityFacts(evidence, responsive, p.CountNoun)
	case question.Entity:
		var ambiguous bool
		facts, ambiguous = entityFacts(p, evidence, responsive)
		// Different names from different messages are only one attribute
		// changing over time when the messages talk about the same thing.
		if !ambiguous && !agreeing(facts) && !sharedAnchor(p, evidence, facts) {
			ambiguous = true
		}
		if ambiguous {
			res := Unsupported(guard, ReasonAmbiguous, evidence)
			res.Decision.Responsive = responsive
			res.Decision.Facts = facts
			return res
		}
	default:
		var f Fact
		var ok bool
		f, score, ok = genericFact(p, evidence, responsive)
		if ok {
			facts = []Fact{f}
		}
	}

	chosen, reason := Resolve(facts)
	decision := Decision{
		Guard:      guard,
		Reason:     reason,
		Responsive: responsive,
		Facts:      facts,
		Score:      score,
	}
	if reason != ReasonSupported {
		logger.DebugContext(ctx, "guard rejected evidence", "guard", guard, "reason", reason, "facts", len(facts))
		return Result{Text: Fallback, Evidence: evidence, Decision: decision}
	}

	decision.Supported = true
	decision.Chosen = &chosen
	decision.Literal = chosen.Value
	logger.DebugContext(ctx, "guard accepted evidence", "guard", guard, "value", chosen.Value, "evidence", chosen.Evidence)
	return Result{Text: chosen.Value, Supported: true, Evidence: evidence, Decision: decision}
}

// Responsive returns the indexes of evidence items that can answer p: the
// detected person's own messages, mentioning at least one focus term when
// the question has any.
func Responsive(p question.Profile, evidence []corpus.Message) []int {
	var out []int
	for i, m := range evidence {
		if p.HasPerson() && m.UserName != p.Person {
			continue
		}
		if len(p.FocusTerms) > 0 && !mentionsAny(m.Text, p.FocusTerms) {
			continue
		}
		out = append(out, i)
	}
	return out
}

func mentionsAny(text string, terms []string) bool {
	for _, term := range terms {
		if question.Mentions(text, term) {
			return true
		}
	}
	return false
}

func temporalFacts(evidence []corpus.Message, responsive []int) []Fact {
	var facts []Fact
	for _, i := range responsive {
		dates := ExplicitDates(evidence[i].Text)
		if len(dates) == 0 {
			continue
		}
		value := strings.Join(dates, ", ")
		facts = append(facts, newFact(i, evidence[i], value, textnorm.Fold(value)))
	}
	return facts
}

func quantityFacts(evidence []corpus.Message, responsive []int, noun string) []Fact {
	var facts []Fact
	for _, i := range responsive {
		qs := quantitiesFor(evidence[i].Text, noun)
		if len(qs) == 0 {
			continue
		}
		parts := make([]string, 0, len(qs))
		seen := make(map[string]struct{}, len(qs))
		for _, q := range qs {
			if _, ok := seen[q.Text]; ok {
				continue
			}
			seen[q.Text] = struct{}{}
			parts = append(parts, q.Text)
		}
		value := strings.Join(parts, " and ")
		facts = append(facts, newFact(i, evidence[i], value, textnorm.Fold(value)))
	}
	return facts
}

func quantitiesFor(text, noun string) []Quantity {
	if noun == "" {
		return Quantities(text)
	}
	return Quantities(text, noun)
}

// entityFacts reads one entity per responsive message. A message offering
// several distinct entities makes the whole answer ambiguous.
func entityFacts(p question.Profile, evidence []corpus.Message, responsive []int) ([]Fact, bool) {
	var facts []Fact
	for _, i := range responsive {
		m := evidence[i]
		exclude := tokenSet(p.Raw, p.Person, m.UserName)
		spans := EntitySpans(m.Text, exclude)
		switch len(spans) {
		case 0:
			continue
		case 1:
			facts = append(facts, newFact(i, m, spans[0], textnorm.Fold(spans[0])))
		default:
			for _, s := range spans {
				facts = append(facts, newFact(i, m, s, textnorm.Fold(s)))
			}
			return facts, true
		}
	}
	return facts, false
}

func agreeing(facts []Fact) bool {
	for _, f := range facts {
		if f.Key != facts[0].Key {
			return false
		}
	}
	return true
}

// sharedAnchor reports whether one focus or topic term is mentioned by the
// message behind every fact.
func sharedAnchor(p question.Profile, evidence []corpus.Message, facts []Fact) bool {
	anchors := append(append([]string(nil), p.FocusTerms...), question.TopicKeywords(p.Topic)...)
	for _, term := range anchors {
		all := true
		for _, f := range facts {
			if !question.Mentions(evidence[f.Evidence].Text, term) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// genericFact picks the sentence that covers every focus term with the best
// coverage score; ties go to the better-ranked message.
func genericFact(p question.Profile, evidence []corpus.Message, responsive []int) (Fact, float64, bool) {
	var (
		best      Fact
		bestScore float64
		found     bool
	)
	for _, i := range responsive {
		for _, sentence := range Sentences(evidence[i].Text) {
			if !covers(sentence, p.FocusTerms) {
				continue
			}
			score := coverageScore(p.FocusTerms, sentence)
			if !found || score > bestScore {
				best = newFact(i, evidence[i], sentence, textnorm.Fold(sentence))
				bestScore = score
				found = true
			}
		}
	}
	return best, bestScore, found
}
