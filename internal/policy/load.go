package policy

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultSettingsPath is the policy file used when none is given
const DefaultSettingsPath = ".licenses.yaml"

// SettingsLoadError reports a policy file that cannot be used. It is fatal:
// no package is checked when the policy fails to load.
type SettingsLoadError struct {
	Path string
	Err  error
}

func (e *SettingsLoadError) Error() string {
	return fmt.Sprintf("error while loading settings file %s: %v", e.Path, e.Err)
}

func (e *SettingsLoadError) Unwrap() error {
	return e.Err
}

// settingsFile mirrors the policy YAML document. Pointer elements let
// null list entries be told apart and dropped.
type settingsFile struct {
	Allowed    []*string         `yaml:"allowed"`
	Disallowed []*string         `yaml:"disallowed"`
	Ignored    []*string         `yaml:"ignored"`
	Missing    map[string]string `yaml:"missing"`
}

// LoadFile reads and compiles the policy at path
func LoadFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SettingsLoadError{Path: path, Err: err}
	}

	p, err := Parse(data)
	if err != nil {
		return nil, &SettingsLoadError{Path: path, Err: err}
	}
	return p, nil
}

// Parse compiles a policy from its YAML form. Absent keys default to empty.
func Parse(data []byte) (*Policy, error) {
	var file settingsFile
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, err
		}
	}

	allowed, err := CompilePatterns(compact(file.Allowed))
	if err != nil {
		return nil, fmt.Errorf("allowed: %w", err)
	}

	disallowed, err := CompilePatterns(compact(file.Disallowed))
	if err != nil {
		return nil, fmt.Errorf("disallowed: %w", err)
	}

	ignored := make(map[string]struct{}, len(file.Ignored))
	for _, name := range compact(file.Ignored) {
		ignored[name] = struct{}{}
	}

	missing := file.Missing
	if missing == nil {
		missing = map[string]string{}
	}

	return &Policy{
		Allowed:    allowed,
		Disallowed: disallowed,
		Ignored:    ignored,
		Missing:    missing,
	}, nil
}

func compact(values []*string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != nil && *v != "" {
			out = append(out, *v)
		}
	}
	return out
}
