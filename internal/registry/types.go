package registry

import (
	"context"
	"errors"
)

// Resolution failures. The error text is what ends up in the fail bucket.
var (
	ErrNotFound  = errors.New("NOT FOUND")
	ErrNoLicense = errors.New("NO LICENSE")
)

// Status discriminates the outcome of a license lookup
type Status string

const (
	StatusResolved  Status = "resolved"
	StatusNotFound  Status = "not_found"
	StatusNoLicense Status = "no_license"
)

// Resolution is the outcome of resolving one package
type Resolution struct {
	Status   Status
	Licenses []string // set when Status is StatusResolved, sorted and distinct
}

// Resolved builds a successful resolution
func Resolved(licenses ...string) Resolution {
	return Resolution{Status: StatusResolved, Licenses: licenses}
}

// NotFound builds a resolution for a package the registry does not know
func NotFound() Resolution {
	return Resolution{Status: StatusNotFound}
}

// NoLicense builds a resolution for a package without a usable license
func NoLicense() Resolution {
	return Resolution{Status: StatusNoLicense}
}

// Err returns the failure as an error, nil when resolved
func (r Resolution) Err() error {
	switch r.Status {
	case StatusResolved:
		return nil
	case StatusNoLicense:
		return ErrNoLicense
	default:
		return ErrNotFound
	}
}

// Resolver looks up the license candidates of a package by exact name
type Resolver interface {
	Resolve(ctx context.Context, name string) Resolution
}

// Record is the part of a registry metadata document licenses come from
type Record struct {
	License     string
	Classifiers []string
}

// Fetcher retrieves the metadata record of one package
type Fetcher interface {
	Fetch(ctx context.Context, name string) (*Record, error)
}
