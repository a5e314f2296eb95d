// Package manifest reads requirement-style dependency manifests.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	// optional npm scope ("@types/"), then the bare package name
	namePattern   = regexp.MustCompile(`^(?:@[A-Za-z0-9][A-Za-z0-9._-]*/)?[A-Za-z0-9][A-Za-z0-9_-]*`)
	pinnedPattern = regexp.MustCompile(`^\s*(?:\[[^\]]*\])?\s*==\s*([^\s,;#]+)`)
)

// MissingManifestError reports a manifest file that does not exist
type MissingManifestError struct {
	Path string
}

func (e *MissingManifestError) Error() string {
	return fmt.Sprintf("manifest %s does not exist", e.Path)
}

// Requirement is one dependency line
type Requirement struct {
	Name string
	// Specifier is everything after the name, trimmed (extras, versions, markers)
	Specifier string
	// Pinned is set when the specifier pins an exact semver-compatible version
	Pinned *semver.Version
}

// ParseLine extracts the requirement on a manifest line. Comments, blank
// lines and option lines such as "-r base.txt" yield false.
func ParseLine(line string) (Requirement, bool) {
	if strings.HasPrefix(strings.TrimSpace(line), "#") {
		return Requirement{}, false
	}

	name := namePattern.FindString(line)
	if name == "" {
		return Requirement{}, false
	}

	req := Requirement{
		Name:      name,
		Specifier: strings.TrimSpace(line[len(name):]),
	}
	if m := pinnedPattern.FindStringSubmatch(req.Specifier); m != nil {
		if v, err := semver.NewVersion(m[1]); err == nil {
			req.Pinned = v
		}
	}

	return req, true
}

// Parse reads every requirement from r
func Parse(r io.Reader) ([]Requirement, error) {
	var reqs []Requirement

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if req, ok := ParseLine(scanner.Text()); ok {
			reqs = append(reqs, req)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return reqs, nil
}

// ReadFile reads the requirements of one manifest
func ReadFile(path string) ([]Requirement, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingManifestError{Path: path}
		}
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	reqs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return reqs, nil
}

// ReadFiles reads several manifests in order. The first unreadable file
// aborts the read.
func ReadFiles(paths []string) ([]Requirement, error) {
	var all []Requirement
	for _, path := range paths {
		reqs, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, reqs...)
	}
	return all, nil
}

// Names returns the package names of reqs, duplicates included
func Names(reqs []Requirement) []string {
	names := make([]string, len(reqs))
	for i, req := range reqs {
		names[i] = req.Name
	}
	return names
}

// WithoutPath removes every occurrence of skip from paths. Pre-commit hooks
// pass all changed files, including the settings file itself.
func WithoutPath(paths []string, skip string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != skip {
			out = append(out, p)
		}
	}
	return out
}
