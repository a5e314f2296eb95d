package license

import (
	"regexp"
	"strings"
)

// Unknown is the placeholder registries publish when no license was declared
const Unknown = "UNKNOWN"

var (
	parenthesized = regexp.MustCompile(`\(.+\)`)
	spaceRuns     = regexp.MustCompile(` {2,}`)
)

// Normalize reduces a raw license label to a single comparable string.
// Only the first line is kept, commas become spaces, a parenthesized span is
// dropped and spaces are collapsed. An empty result means no license.
func Normalize(raw string) string {
	text, _, _ := strings.Cut(raw, "\n")
	text = strings.ReplaceAll(text, ",", " ")
	text = parenthesized.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	return spaceRuns.ReplaceAllString(text, " ")
}

// IsUnknown reports whether a normalized label is the UNKNOWN sentinel
func IsUnknown(normalized string) bool {
	return normalized == Unknown
}
