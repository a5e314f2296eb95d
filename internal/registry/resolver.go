package registry

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/Pirikara/licensecheck/internal/license"
	"github.com/Pirikara/licensecheck/internal/logger"
)

// ClassifierPrefix namespaces license classifiers in package metadata
const ClassifierPrefix = "License ::"

// Client resolves license candidates through a registry Fetcher
type Client struct {
	fetcher Fetcher
	logger  *logger.Logger
}

// NewClient creates a registry-backed Resolver
func NewClient(fetcher Fetcher, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		fetcher: fetcher,
		logger:  log,
	}
}

// Resolve implements Resolver. Every fetch failure, including network
// errors, is reported as not found.
func (c *Client) Resolve(ctx context.Context, name string) Resolution {
	record, err := c.fetcher.Fetch(ctx, name)
	if err != nil {
		data := map[string]interface{}{"name": name}
		if !errors.Is(err, errMissingRecord) {
			data["error"] = err.Error()
		}
		c.logger.Debug("registry_lookup_failed", "Package not found in registry", data)
		return NotFound()
	}

	licenses := Licenses(record)
	if len(licenses) == 0 {
		c.logger.Debug("registry_no_license", "Package declares no usable license", map[string]interface{}{
			"name": name,
		})
		return NoLicense()
	}

	c.logger.Debug("registry_lookup", "Resolved package licenses", map[string]interface{}{
		"name":     name,
		"licenses": licenses,
	})
	return Resolved(licenses...)
}

// Licenses extracts the distinct normalized license candidates of a record:
// the declared label plus the last segment of every license classifier.
func Licenses(record *Record) []string {
	if record == nil {
		return nil
	}

	seen := make(map[string]struct{})
	add := func(raw string) {
		normalized := license.Normalize(raw)
		if normalized == "" || license.IsUnknown(normalized) {
			return
		}
		seen[normalized] = struct{}{}
	}

	add(record.License)
	for _, classifier := range record.Classifiers {
		if !strings.HasPrefix(classifier, ClassifierPrefix) {
			continue
		}
		idx := strings.LastIndex(classifier, "::")
		add(strings.TrimSpace(classifier[idx+2:]))
	}

	licenses := make([]string, 0, len(seen))
	for l := range seen {
		licenses = append(licenses, l)
	}
	sort.Strings(licenses)

	return licenses
}
