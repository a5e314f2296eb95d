package ecosystem

import (
	"path/filepath"
)

// Detector guesses the ecosystem of a manifest from its file name
type Detector struct {
	config *Config
}

// NewDetector creates a new Detector
func NewDetector(config *Config) *Detector {
	return &Detector{config: config}
}

// DetectFromManifest returns the first ecosystem whose manifest patterns
// match path. Paths are compared in slash form.
func (d *Detector) DetectFromManifest(path string) (EcosystemID, bool) {
	slashed := filepath.ToSlash(path)

	for _, eco := range d.config.Ecosystems {
		for _, pattern := range eco.Manifests {
			if pattern.compiledRegex != nil && pattern.compiledRegex.MatchString(slashed) {
				return eco.ID, true
			}
		}
	}

	return "", false
}

// Detect returns the ecosystem shared by the first recognised manifest,
// falling back to def when none is recognised.
func (d *Detector) Detect(paths []string, def EcosystemID) EcosystemID {
	for _, path := range paths {
		if id, ok := d.DetectFromManifest(path); ok {
			return id
		}
	}
	return def
}
