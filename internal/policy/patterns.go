package policy

import (
	"fmt"
	"regexp"
	"strings"
)

// pattern is a compiled policy pattern anchored at the start of the text
type pattern struct {
	source string
	regex  *regexp.Regexp
}

// PatternSet is an ordered list of prefix-anchored license patterns
type PatternSet []pattern

// CompilePatterns compiles raw patterns, discarding blank entries. A pattern
// matches when it matches at the beginning of the text; the end is free,
// so "MIT" matches "MIT License".
func CompilePatterns(raw []string) (PatternSet, error) {
	set := make(PatternSet, 0, len(raw))
	for _, source := range raw {
		if strings.TrimSpace(source) == "" {
			continue
		}

		// unbalanced groups only surface before wrapping
		if _, err := regexp.Compile(source); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", source, err)
		}
		regex, err := regexp.Compile(`^(?:` + source + `)`)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", source, err)
		}
		set = append(set, pattern{source: source, regex: regex})
	}

	return set, nil
}

// Matches reports whether any pattern matches text
func (s PatternSet) Matches(text string) bool {
	_, ok := s.Match(text)
	return ok
}

// Match returns the first pattern matching text
func (s PatternSet) Match(text string) (string, bool) {
	for _, p := range s {
		if p.regex.MatchString(text) {
			return p.source, true
		}
	}
	return "", false
}

// Sources returns the patterns as written in the policy file
func (s PatternSet) Sources() []string {
	sources := make([]string, len(s))
	for i, p := range s {
		sources[i] = p.source
	}
	return sources
}
