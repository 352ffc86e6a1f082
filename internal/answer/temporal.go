package answer

import (
	"regexp"
	"strconv"
	"strings"
)

const monthPattern = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

const weekdayPattern = `(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)s?`

// Alternatives are ordered longest first; the regexp engine takes the
// leftmost alternative that matches.
var dateRe = regexp.MustCompile(`(?i)` +
	`(?P<week>\b(?:first|second|third|fourth|last)\s+week\s+of\s+` + monthPattern + `\b)` +
	`|(?P<daymonth>\b\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthPattern + `\b(?:,?\s+\d{4})?)` +
	`|(?P<monthday>\b` + monthPattern + `\b\.?(?:\s+\d{1,2}(?:st|nd|rd|th)?\b)?(?:,?\s+\d{4}\b)?)` +
	`|(?P<iso>\b\d{4}-\d{2}-\d{2}\b)` +
	`|(?P<numeric>\b\d{1,2}[/.-]\d{1,2}(?:[/.-]\d{2,4})?\b)` +
	`|(?P<weekday>\b` + weekdayPattern + `\b)`)

var relativeModifiers = map[string]struct{}{
	"this": {}, "next": {}, "coming": {}, "last": {}, "past": {},
}

// ExplicitDates returns the date expressions literally present in text, in
// order of appearance: ISO and numeric dates, month names (with an optional
// day and year), "first week of <month>", and weekday names. Relative words
// such as "tonight" or "tomorrow" never match, and a weekday preceded by a
// relative modifier ("this Friday", "next Tuesday") is not explicit either.
func ExplicitDates(text string) []string {
	if text == "" {
		return nil
	}

	var out []string
	names := dateRe.SubexpNames()
	for _, m := range dateRe.FindAllStringSubmatchIndex(text, -1) {
		kind := ""
		for g := 1; g < len(names); g++ {
			if m[2*g] >= 0 {
				kind = names[g]
				break
			}
		}
		span := text[m[0]:m[1]]

		switch kind {
		case "daymonth":
			if !explicitDayMonth(span) {
				continue
			}
		case "monthday":
			if !explicitMonth(span, text[:m[0]]) {
				continue
			}
		case "numeric":
			if !plausibleNumericDate(span) || partOfLongerNumber(text, m[0], m[1]) {
				continue
			}
		case "weekday":
			if relativeBefore(text[:m[0]]) {
				continue
			}
		}
		out = append(out, span)
	}
	return out
}

var monthPrepositions = map[string]struct{}{
	"in": {}, "of": {}, "early": {}, "late": {}, "mid": {}, "since": {}, "until": {}, "by": {}, "through": {},
}

var monthWordRe = regexp.MustCompile(`(?i)\b` + monthPattern + `\b`)

var yearSuffixRe = regexp.MustCompile(`\d{4}$`)

// explicitDayMonth accepts "7 March" and "3rd of May" but not a count
// followed by a lowercase word ("2 may arrive", "3 mar short"). A trailing
// year makes any casing explicit.
func explicitDayMonth(span string) bool {
	if yearSuffixRe.MatchString(span) {
		return true
	}
	month := monthWordRe.FindString(span)
	return month != "" && isCapitalized(month)
}

func isCapitalized(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

// explicitMonth rejects bare abbreviations, lowercase month names ("march
// to the venue") and the modal "may" unless a day or year is attached. A
// capitalized "May" after a preposition ("in May") still counts.
func explicitMonth(span, prefix string) bool {
	fields := strings.Fields(span)
	if len(fields) > 1 {
		return true
	}
	if !isCapitalized(fields[0]) {
		return false
	}
	name := strings.TrimSuffix(strings.ToLower(fields[0]), ".")
	switch name {
	case "may":
		if fields[0] != "May" {
			return false
		}
		before := strings.Fields(strings.ToLower(prefix))
		if len(before) == 0 {
			return false
		}
		_, ok := monthPrepositions[before[len(before)-1]]
		return ok
	case "mar", "jan", "jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec", "feb", "apr":
		return false
	}
	return true
}

func plausibleNumericDate(span string) bool {
	parts := strings.FieldsFunc(span, func(r rune) bool { return r == '/' || r == '.' || r == '-' })
	if len(parts) < 2 {
		return false
	}
	// "3.5" is a decimal, not a date
	if strings.Contains(span, ".") && len(parts) != 3 {
		return false
	}
	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	if errA != nil || errB != nil || a == 0 || b == 0 || a > 31 || b > 31 {
		return false
	}
	// one side has to be a month
	return a <= 12 || b <= 12
}

// partOfLongerNumber catches "3.5.2" style runs and decimals glued to other
// digits or separators.
func partOfLongerNumber(text string, start, end int) bool {
	if end < len(text) && strings.ContainsAny(text[end:end+1], "/.-") && end+1 < len(text) && isDigit(text[end+1]) {
		return true
	}
	if start > 0 && strings.ContainsAny(text[start-1:start], "/.-") {
		return true
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func relativeBefore(prefix string) bool {
	fields := strings.Fields(strings.ToLower(prefix))
	if len(fields) == 0 {
		return false
	}
	_, ok := relativeModifiers[strings.Trim(fields[len(fields)-1], ",.;:!?\"'")]
	return ok
}
