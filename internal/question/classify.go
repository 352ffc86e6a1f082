package question

import (
	"strings"

	"memberqa/internal/textnorm"
)

var temporalPhrases = []string{
	"what date", "what day", "what time", "which date", "which day", "what month", "which month",
}

var quantityPhrases = []string{"how many", "how much", "number of"}

var entityWords = map[string]struct{}{
	"which": {}, "what": {}, "who": {}, "whom": {}, "whose": {}, "where": {},
}

// Classify assigns a question type from surface patterns. Temporal
// interrogatives win over quantity ones, which win over entity ones.
func Classify(question string) Type {
	tokens := textnorm.Tokenize(question)
	if len(tokens) == 0 {
		return Generic
	}
	joined := " " + strings.Join(tokens, " ") + " "

	for _, tok := range tokens {
		if tok == "when" {
			return Temporal
		}
	}
	for _, phrase := range temporalPhrases {
		if strings.Contains(joined, " "+phrase+" ") {
			return Temporal
		}
	}
	for _, phrase := range quantityPhrases {
		if strings.Contains(joined, " "+phrase+" ") {
			return Quantity
		}
	}
	for _, tok := range tokens {
		if _, ok := entityWords[tok]; ok {
			return Entity
		}
	}
	return Generic
}

// CountNoun returns the stemmed noun a "how many" question counts, such as
// "car" for "How many cars does Vikram have?". It returns "" when the
// question names none.
func CountNoun(question string) string {
	tokens := textnorm.Tokenize(question)
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i] != "how" || tokens[i+1] != "many" {
			continue
		}
		if i+2 < len(tokens) {
			next := tokens[i+2]
			if textnorm.IsStopword(next) || isAuxiliary(next) {
				return ""
			}
			return textnorm.Stem(next)
		}
	}
	return ""
}

func isAuxiliary(token string) bool {
	switch token {
	case "do", "does", "did", "is", "are", "was", "were", "has", "have", "had", "will", "would", "can":
		return true
	}
	return false
}

var topics = []struct {
	name     string
	keywords []string
}{
	{"travel", []string{"book", "flight", "hotel", "suite", "room", "villa", "check-in", "itinerary", "trip", "travel"}},
	{"dining", []string{"restaurant", "dinner", "table", "reservation", "chef's table"}},
	{"billing", []string{"invoice", "billing", "charge", "payment", "renewal", "transaction", "points", "loyalty"}},
}

// TopicKeywords returns the folded keywords of topic, phrases joined by
// single spaces. The "general" topic has none.
func TopicKeywords(topic string) []string {
	for _, t := range topics {
		if t.name != topic {
			continue
		}
		out := make([]string, 0, len(t.keywords))
		for _, kw := range t.keywords {
			out = append(out, strings.Join(textnorm.Tokenize(kw), " "))
		}
		return out
	}
	return nil
}

// DetectTopic is a coarse keyword classifier. Its keywords anchor entity
// answers drawn from several messages.
func DetectTopic(question string) string {
	q := strings.ReplaceAll(textnorm.Fold(question), "’", "'")
	for _, topic := range topics {
		for _, kw := range topic.keywords {
			if strings.Contains(q, kw) {
				return topic.name
			}
		}
	}
	return "general"
}
