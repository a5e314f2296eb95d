// Package report holds the result of a license audit and renders it.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Exit codes returned by the CLI
const (
	ExitSuccess = 0 // every package passed
	ExitFailure = 1 // at least one package failed
	ExitConfig  = 2 // settings or manifests could not be loaded
)

// Report is the per-bucket outcome of one run
type Report struct {
	Ignored []string          `json:"ignored"`
	Success map[string]string `json:"success"`
	Fail    map[string]string `json:"fail"`
}

// New returns an empty report
func New() *Report {
	return &Report{
		Ignored: []string{},
		Success: map[string]string{},
		Fail:    map[string]string{},
	}
}

// AddIgnored records an ignored package, keeping the list sorted
func (r *Report) AddIgnored(name string) {
	i := sort.SearchStrings(r.Ignored, name)
	if i < len(r.Ignored) && r.Ignored[i] == name {
		return
	}
	r.Ignored = append(r.Ignored, "")
	copy(r.Ignored[i+1:], r.Ignored[i:])
	r.Ignored[i] = name
}

// AddSuccess records a passing package. A later write for the same name wins.
func (r *Report) AddSuccess(name, license string) {
	r.Success[name] = license
}

// AddFail records a failing package with a license or a reason. A later
// write for the same name wins.
func (r *Report) AddFail(name, reason string) {
	r.Fail[name] = reason
}

// Failed reports whether any package failed
func (r *Report) Failed() bool {
	return len(r.Fail) > 0
}

// ExitCode maps the report to the process exit status
func (r *Report) ExitCode() int {
	if r.Failed() {
		return ExitFailure
	}
	return ExitSuccess
}

// Write renders the report as indented JSON. In verbose mode the whole
// report is written; otherwise only the fail bucket, and only on failure.
func Write(w io.Writer, r *Report, verbose bool) error {
	var v any
	switch {
	case verbose:
		v = r
	case r.Failed():
		v = r.Fail
	default:
		return nil
	}

	if err := json.MarshalWrite(w, v, json.Deterministic(true), jsontext.WithIndent("  ")); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
