package federation

import (
	"math"
	"regexp"
)

var malformedStringPattern = regexp.MustCompile(`(?i)^(unknown|n/?a|-|none)$`)

// wellFormedFloat reports whether v is present and finite (§4.5.1).
func wellFormedFloat(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// wellFormedString reports whether s is non-empty and not a placeholder
// value matching ^(unknown|n/?a|-|none)$ case-insensitively (§4.5.1).
func wellFormedString(s string) bool {
	if s == "" {
		return false
	}
	return !malformedStringPattern.MatchString(s)
}

// pickFloat keeps acc if well-formed, otherwise accepts next (accumulator
// has priority, §4.5.1).
func pickFloat(acc, next *float64) *float64 {
	if wellFormedFloat(acc) {
		return acc
	}
	if wellFormedFloat(next) {
		return next
	}
	return acc
}

// pickString keeps acc if well-formed, otherwise accepts next.
func pickString(acc, next string) string {
	if wellFormedString(acc) {
		return acc
	}
	if wellFormedString(next) {
		return next
	}
	return acc
}
