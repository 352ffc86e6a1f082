// Package question profiles an incoming question: who it is about, what kind
// of answer it asks for, and which content words the evidence must contain.
package question

import (
	"strings"
)

// Type is the kind of answer a question asks for.
type Type int

const (
	Generic Type = iota
	Temporal
	Quantity
	Entity
)

func (t Type) String() string {
	switch t {
	case Temporal:
		return "TEMPORAL"
	case Quantity:
		return "QUANTITY"
	case Entity:
		return "ENTITY"
	default:
		return "GENERIC"
	}
}

// MarshalText lets Type render by name in JSON debug output.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Profile is computed once per question and not modified afterwards.
type Profile struct {
	Raw         string   `json:"raw"`
	Person      string   `json:"person,omitempty"`
	PersonScore float64  `json:"person_score,omitempty"`
	Type        Type     `json:"type"`
	Topic       string   `json:"topic"`
	FocusTerms  []string `json:"focus_terms,omitempty"`
	CountNoun   string   `json:"count_noun,omitempty"`
}

// HasPerson reports whether a member was detected in the question.
func (p Profile) HasPerson() bool {
	return p.Person != ""
}

// Analyze builds the profile of question against the known member names.
// It is a pure function of its inputs.
func Analyze(question string, names []string) Profile {
	q := Normalize(question)
	person, score := DetectPerson(q, names)
	p := Profile{
		Raw:         q,
		Person:      person,
		PersonScore: score,
		Type:        Classify(q),
		Topic:       DetectTopic(q),
		FocusTerms:  FocusTerms(q, person),
	}
	if p.Type == Quantity {
		p.CountNoun = CountNoun(q)
	}
	return p
}

// Normalize collapses runs of whitespace and trims the ends.
func Normalize(question string) string {
	return strings.Join(strings.Fields(question), " ")
}
