package code

import (
	"regexp"
	"strings"
)

var reCode = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{0,15}$`)

// IsCode returns true if s is a valid account code: uppercase alphanumerics
// and dashes, 1-16 chars, starting with an alphanumeric.
func IsCode(s string) bool {
	return reCode.MatchString(s)
}

// Normalize converts s to code form: uppercase, any other rune becomes '-',
// repeats collapse, leading/trailing dashes are trimmed, capped at 16 chars.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	out := make([]rune, 0, len(s))
	prevDash := false
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
			prevDash = false
		} else if !prevDash {
			out = append(out, '-')
			prevDash = true
		}
		if len(out) >= 16 {
			break
		}
	}
	return strings.Trim(string(out), "-")
}
