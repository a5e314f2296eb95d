package ecosystem

// EcosystemID represents a package ecosystem identifier
type EcosystemID string

const (
	EcosystemPyPI EcosystemID = "PyPI"
	EcosystemNPM  EcosystemID = "npm"
)

// PackageIdentity represents a unique package identification
type PackageIdentity struct {
	Ecosystem EcosystemID `json:"ecosystem"`
	Name      string      `json:"name"`
}

// String returns a string representation of the package identity
func (p PackageIdentity) String() string {
	return string(p.Ecosystem) + ":" + p.Name
}
