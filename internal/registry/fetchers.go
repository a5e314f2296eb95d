package registry

import (
	"context"
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/Pirikara/licensecheck/internal/ecosystem"
)

// NewFetcher returns the fetcher for an ecosystem. registryURL is a template
// containing ecosystem.NamePlaceholder.
func NewFetcher(id ecosystem.EcosystemID, registryURL string, getter *JSONGetter) (Fetcher, error) {
	switch id {
	case ecosystem.EcosystemPyPI:
		return &PyPIFetcher{registryURL: registryURL, getter: getter}, nil
	case ecosystem.EcosystemNPM:
		return &NPMFetcher{registryURL: registryURL, getter: getter}, nil
	default:
		return nil, fmt.Errorf("no registry support for ecosystem %q", id)
	}
}

// PyPIFetcher reads the PyPI JSON API
type PyPIFetcher struct {
	registryURL string
	getter      *JSONGetter
}

type pypiDocument struct {
	Info struct {
		License           string   `json:"license"`
		LicenseExpression string   `json:"license_expression"`
		Classifiers       []string `json:"classifiers"`
	} `json:"info"`
}

// Fetch implements Fetcher
func (f *PyPIFetcher) Fetch(ctx context.Context, name string) (*Record, error) {
	var doc pypiDocument
	if err := f.getter.Get(ctx, ecosystem.PackageURL(f.registryURL, name), &doc); err != nil {
		return nil, err
	}

	// PEP 639 metadata moves the label into license_expression
	declared := doc.Info.License
	if declared == "" {
		declared = doc.Info.LicenseExpression
	}

	return &Record{
		License:     declared,
		Classifiers: doc.Info.Classifiers,
	}, nil
}

// NPMFetcher reads npm packuments
type NPMFetcher struct {
	registryURL string
	getter      *JSONGetter
}

type npmDocument struct {
	License  jsontext.Value   `json:"license"`
	Licenses []jsontext.Value `json:"licenses"`
}

// Fetch implements Fetcher
func (f *NPMFetcher) Fetch(ctx context.Context, name string) (*Record, error) {
	var doc npmDocument
	if err := f.getter.Get(ctx, ecosystem.PackageURL(f.registryURL, name), &doc); err != nil {
		return nil, err
	}

	declared := npmLicense(doc.License)
	for _, legacy := range doc.Licenses {
		if declared != "" {
			break
		}
		declared = npmLicense(legacy)
	}

	return &Record{License: declared}, nil
}

// npmLicense accepts both "MIT" and the legacy {"type": "MIT"} form
func npmLicense(v jsontext.Value) string {
	if len(v) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}

	var obj struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(v, &obj); err == nil {
		return obj.Type
	}

	return ""
}
