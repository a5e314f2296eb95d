package ecosystem

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// NamePlaceholder is substituted with the package name in registry URLs
const NamePlaceholder = "{name}"

// Config represents the ecosystems configuration
type Config struct {
	Ecosystems []EcosystemConfig `yaml:"ecosystems"`
}

// EcosystemConfig represents a single ecosystem configuration
type EcosystemConfig struct {
	ID           EcosystemID     `yaml:"id"`
	RegistryURL  string          `yaml:"registry_url"`
	ProbePackage string          `yaml:"probe_package"`
	Manifests    []PatternConfig `yaml:"manifests"`
}

// PatternConfig represents a manifest file name pattern
type PatternConfig struct {
	Name      string `yaml:"name"`
	PathRegex string `yaml:"path_regex"`

	// Compiled regex (not in YAML)
	compiledRegex *regexp.Regexp
}

// LoadConfig loads ecosystem configuration with 3-level fallback:
// 1. Explicit path (--ecosystems-config flag)
// 2. Home directory (~/.licensecheck/ecosystems.yaml)
// 3. Embedded default (passed as defaultData)
func LoadConfig(path string, defaultData []byte) (*Config, error) {
	data, err := readConfig(path, defaultData)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse ecosystems config: %w", err)
	}

	if err := config.compile(); err != nil {
		return nil, err
	}

	return &config, nil
}

func readConfig(path string, defaultData []byte) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}

	if home, err := os.UserHomeDir(); err == nil {
		homeConfig := filepath.Join(home, ".licensecheck", "ecosystems.yaml")
		if fileExists(homeConfig) {
			if data, err := os.ReadFile(homeConfig); err == nil {
				return data, nil
			}
		}
	}

	return defaultData, nil
}

// compile validates registry templates and compiles manifest patterns
func (c *Config) compile() error {
	for i := range c.Ecosystems {
		eco := &c.Ecosystems[i]
		if eco.ID == "" {
			return fmt.Errorf("ecosystem #%d has no id", i)
		}
		if !strings.Contains(eco.RegistryURL, NamePlaceholder) {
			return fmt.Errorf("ecosystem %s: registry_url must contain %s", eco.ID, NamePlaceholder)
		}

		for j := range eco.Manifests {
			pattern := &eco.Manifests[j]
			regex, err := regexp.Compile(pattern.PathRegex)
			if err != nil {
				return fmt.Errorf("ecosystem %s: pattern %s: %w", eco.ID, pattern.Name, err)
			}
			pattern.compiledRegex = regex
		}
	}

	return nil
}

// Lookup returns the configuration of the given ecosystem
func (c *Config) Lookup(id EcosystemID) (EcosystemConfig, bool) {
	for _, eco := range c.Ecosystems {
		if strings.EqualFold(string(eco.ID), string(id)) {
			return eco, true
		}
	}
	return EcosystemConfig{}, false
}

// IDs lists the configured ecosystems in file order
func (c *Config) IDs() []EcosystemID {
	ids := make([]EcosystemID, 0, len(c.Ecosystems))
	for _, eco := range c.Ecosystems {
		ids = append(ids, eco.ID)
	}
	return ids
}

// PackageURL expands a registry URL template for one package
func PackageURL(template, name string) string {
	return strings.ReplaceAll(template, NamePlaceholder, url.PathEscape(name))
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
