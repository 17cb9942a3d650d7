package generation

import (
	"regexp"
	"strings"
)

var (
	openingJSONFence = regexp.MustCompile("(?i)^```json\\s*")
	closingFence     = regexp.MustCompile("\\s*```$")
	openingFence     = regexp.MustCompile("^```\\s*")
)

// Sanitize strips Markdown code fences that models wrap around JSON output.
// Passes repeat until the text stops changing, so Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	for {
		next := stripFences(s)
		if next == s {
			return s
		}
		s = next
	}
}

// stripFences removes the json-tagged opening fence before the bare one,
// otherwise "```json" would leave a stray "json" behind.
func stripFences(s string) string {
	s = openingJSONFence.ReplaceAllString(s, "")
	s = closingFence.ReplaceAllString(s, "")
	s = openingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
