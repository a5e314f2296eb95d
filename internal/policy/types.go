package policy

import "fmt"

// Decision represents the policy decision for one license
type Decision string

const (
	DecisionAllow    Decision = "allow"
	DecisionBlock    Decision = "block"
	DecisionUnlisted Decision = "unlisted"
)

// Policy is the allow/deny/ignore/errata rule set of a run
type Policy struct {
	Allowed    PatternSet
	Disallowed PatternSet
	Ignored    map[string]struct{}
	Missing    map[string]string
}

// IsIgnored reports whether name is exempt from checking
func (p *Policy) IsIgnored(name string) bool {
	_, ok := p.Ignored[name]
	return ok
}

// Errata returns the manual license override for name. Any key present
// in the policy counts, even with an empty value.
func (p *Policy) Errata(name string) (string, bool) {
	lic, ok := p.Missing[name]
	return lic, ok
}

// PolicyResult represents the result of a policy decision
type PolicyResult struct {
	Decision Decision
	Reason   string
}

// Evaluate decides a license. Disallowed patterns are checked first, so a
// license matching both lists is blocked.
func (p *Policy) Evaluate(license string) PolicyResult {
	if pattern, ok := p.Disallowed.Match(license); ok {
		return PolicyResult{
			Decision: DecisionBlock,
			Reason:   fmt.Sprintf("matches disallowed pattern %q", pattern),
		}
	}

	if pattern, ok := p.Allowed.Match(license); ok {
		return PolicyResult{
			Decision: DecisionAllow,
			Reason:   fmt.Sprintf("matches allowed pattern %q", pattern),
		}
	}

	return PolicyResult{
		Decision: DecisionUnlisted,
		Reason:   "matches no allowed pattern",
	}
}

// ShouldBlock returns true unless the license is allowed
func (pr PolicyResult) ShouldBlock() bool {
	return pr.Decision != DecisionAllow
}
