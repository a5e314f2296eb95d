package policy

import (
	"context"
	"sort"

	"github.com/Pirikara/licensecheck/internal/logger"
	"github.com/Pirikara/licensecheck/internal/registry"
	"github.com/Pirikara/licensecheck/internal/report"
)

// Engine checks package licenses against a policy
type Engine struct {
	policy   *Policy
	resolver registry.Resolver
	logger   *logger.Logger
}

// NewEngine creates a new compliance engine
func NewEngine(policy *Policy, resolver registry.Resolver, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		policy:   policy,
		resolver: resolver,
		logger:   log,
	}
}

// Check resolves and evaluates every distinct non-empty name. Packages are
// resolved one at a time; unresolvable packages land in the fail bucket
// unless the policy carries errata for them.
//
// Names and license groups are visited in sorted order. A package whose
// licenses disagree can appear in both success and fail, and within a
// bucket the last license written wins.
//
// Check stops with ctx.Err() once ctx is done, so an interrupted run never
// reports the remaining packages as not found.
func (e *Engine) Check(ctx context.Context, names []string) (*report.Report, error) {
	rep := report.New()
	groups := make(map[string][]string)

	for _, name := range distinct(names) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.policy.IsIgnored(name) {
			e.logger.Debug("package_ignored", "Skipping ignored package", map[string]interface{}{
				"name": name,
			})
			rep.AddIgnored(name)
			continue
		}

		licenses, err := e.candidates(ctx, name, rep)
		if err != nil {
			return nil, err
		}
		for _, lic := range licenses {
			groups[lic] = append(groups[lic], name)
		}
	}

	licenses := make([]string, 0, len(groups))
	for lic := range groups {
		licenses = append(licenses, lic)
	}
	sort.Strings(licenses)

	for _, lic := range licenses {
		result := e.policy.Evaluate(lic)
		for _, name := range groups[lic] {
			e.logger.LogLicenseCheck(name, lic, string(result.Decision), result.Reason)
			if result.ShouldBlock() {
				rep.AddFail(name, lic)
			} else {
				rep.AddSuccess(name, lic)
			}
		}
	}

	e.logger.Info("check_complete", "License check finished", map[string]interface{}{
		"ignored": len(rep.Ignored),
		"success": len(rep.Success),
		"fail":    len(rep.Fail),
	})

	return rep, nil
}

// candidates returns the licenses to evaluate for name, recording a
// failure in rep when there are none.
func (e *Engine) candidates(ctx context.Context, name string, rep *report.Report) ([]string, error) {
	res := e.resolver.Resolve(ctx, name)

	if res.Status == registry.StatusResolved {
		return res.Licenses, nil
	}
	// a lookup cut short by cancellation says nothing about the package
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if lic, ok := e.policy.Errata(name); ok {
		e.logger.Debug("errata_applied", "Using manual license override", map[string]interface{}{
			"name":    name,
			"license": lic,
			"status":  string(res.Status),
		})
		return []string{lic}, nil
	}

	reason := res.Err().Error()
	e.logger.Warn("package_unresolved", "Could not determine package license", map[string]interface{}{
		"name":   name,
		"reason": reason,
	})
	rep.AddFail(name, reason)

	return nil, nil
}

// distinct returns the sorted set of non-empty names
func distinct(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
