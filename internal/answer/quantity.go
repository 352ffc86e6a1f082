package answer

import (
	"regexp"
	"strings"
	"unicode"

	"memberqa/internal/textnorm"
)

// maxNounGap is how many words may sit between a number and its count
// noun ("3 VIP tickets", "two more first-class seats").
const maxNounGap = 2

var countNouns = map[string]struct{}{
	"ticket": {}, "seat": {}, "car": {}, "people": {}, "person": {}, "guest": {}, "adult": {},
	"kid": {}, "child": {}, "children": {}, "passenger": {}, "room": {}, "suite": {}, "bag": {},
	"suitcase": {}, "night": {}, "day": {}, "week": {}, "hour": {}, "bottle": {}, "table": {},
	"member": {}, "friend": {}, "pet": {}, "dog": {}, "cat": {}, "vehicle": {}, "bedroom": {},
	"pax": {}, "item": {}, "copy": {}, "villa": {}, "yacht": {}, "jet": {}, "flight": {},
	"point": {}, "mile": {}, "course": {}, "bike": {}, "house": {}, "home": {}, "property": {},
}

var numberWords = map[string]struct{}{
	"one": {}, "two": {}, "three": {}, "four": {}, "five": {}, "six": {}, "seven": {}, "eight": {},
	"nine": {}, "ten": {}, "eleven": {}, "twelve": {}, "thirteen": {}, "fourteen": {}, "fifteen": {},
	"sixteen": {}, "seventeen": {}, "eighteen": {}, "nineteen": {}, "twenty": {}, "thirty": {},
	"forty": {}, "fifty": {}, "sixty": {}, "seventy": {}, "eighty": {}, "ninety": {}, "hundred": {},
	"dozen": {}, "couple": {},
}

// identifierWords introduce numbers that label rather than count.
var identifierWords = map[string]struct{}{
	"number": {}, "no": {}, "id": {}, "code": {}, "pin": {}, "ext": {}, "extension": {},
	"account": {}, "membership": {}, "flyer": {}, "confirmation": {}, "reference": {}, "ref": {},
	"phone": {}, "fax": {}, "call": {}, "text": {}, "dial": {},
}

var plainNumberRe = regexp.MustCompile(`^(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?$`)

// Quantity is a number tied to the thing it counts.
type Quantity struct {
	Text   string `json:"text"`
	Number string `json:"number"`
	Noun   string `json:"noun"`
}

// Quantities finds "N <count noun>" phrases in text, allowing up to two
// words between the number and the noun. When nouns are given only those
// count; otherwise the built-in count-noun vocabulary is used. Numbers
// shaped like phone numbers, IDs or codes never qualify.
func Quantities(text string, nouns ...string) []Quantity {
	words := scanWords(text)
	if len(words) == 0 {
		return nil
	}

	only := make(map[string]struct{}, len(nouns))
	for _, n := range nouns {
		if n != "" {
			only[textnorm.Stem(textnorm.Fold(n))] = struct{}{}
		}
	}

	var out []Quantity
	for i, w := range words {
		if !isNumberWord(w) || labelled(words, i) {
			continue
		}
		if w.EndsSentence {
			continue
		}
		for j := i + 1; j < len(words) && j <= i+1+maxNounGap; j++ {
			next := words[j]
			if isNumberWord(next) {
				break
			}
			stem := nounStem(next)
			matched := false
			if len(only) > 0 {
				_, matched = only[stem]
			} else {
				_, matched = countNouns[stem]
			}
			if matched {
				out = append(out, Quantity{
					Text:   text[w.Start:next.End],
					Number: w.Core,
					Noun:   stem,
				})
				break
			}
			if next.ClauseBreak {
				break
			}
		}
	}
	return out
}

func nounStem(w word) string {
	tokens := textnorm.Tokenize(w.Core)
	if len(tokens) != 1 {
		return ""
	}
	return textnorm.Stem(tokens[0])
}

func isNumberWord(w word) bool {
	if IsPIINumber(w.Core) {
		return false
	}
	if plainNumberRe.MatchString(w.Core) {
		return true
	}
	_, ok := numberWords[strings.ToLower(w.Core)]
	return ok
}

// labelled reports whether the number at i is an identifier: it carries a
// "#" or follows a word like "number" or "ID".
func labelled(words []word, i int) bool {
	if strings.HasPrefix(words[i].Core, "#") {
		return true
	}
	if i == 0 {
		return false
	}
	prev := strings.ToLower(strings.TrimSuffix(words[i-1].Core, "."))
	_, ok := identifierWords[prev]
	return ok
}

// IsPIINumber reports whether token looks like a phone, fax, membership or
// frequent-flyer number rather than a count: seven or more digits, digit
// groups joined by separators, or a leading "+" or "(".
func IsPIINumber(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	digits, groups := 0, 0
	inDigits := false
	separated := false
	for i, r := range token {
		switch {
		case unicode.IsDigit(r):
			digits++
			if !inDigits {
				groups++
			}
			inDigits = true
		case r == '-' || r == '(' || r == ')' || r == '/' || r == '.' || r == ' ':
			if inDigits && i+1 < len(token) {
				separated = true
			}
			inDigits = false
		default:
			inDigits = false
		}
	}
	if digits == 0 {
		return false
	}
	if digits >= 7 {
		return true
	}
	if strings.HasPrefix(token, "+") || strings.HasPrefix(token, "(") {
		return true
	}
	if separated && groups >= 2 && !plainNumberRe.MatchString(token) && !strings.Contains(token, "/") {
		return true
	}
	// letters mixed with digits read as codes ("AB1234", "FF-90211")
	hasLetter := strings.IndexFunc(token, unicode.IsLetter) >= 0
	return hasLetter && digits >= 3
}
