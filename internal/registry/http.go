package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-json-experiment/json"
	"golang.org/x/time/rate"
)

// errMissingRecord is returned by fetchers when the registry answers 404
var errMissingRecord = errors.New("registry has no record")

// HTTPConfig holds registry HTTP client options
type HTTPConfig struct {
	// Timeout is the total request timeout (default: 30s)
	Timeout time.Duration

	// UserAgent sent with every registry request
	UserAgent string

	// RateLimit caps registry requests per second (0 = unlimited)
	RateLimit float64
}

// DefaultHTTPConfig returns the defaults used by the CLI
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:   30 * time.Second,
		UserAgent: "licensecheck",
	}
}

// JSONGetter performs paced JSON GET requests against a registry
type JSONGetter struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewJSONGetter creates a getter from cfg, applying defaults for zero values
func NewJSONGetter(cfg HTTPConfig) *JSONGetter {
	defaults := DefaultHTTPConfig()
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &JSONGetter{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:   limiter,
		userAgent: cfg.UserAgent,
	}
}

// Get fetches url and decodes the JSON body into out
func (g *JSONGetter) Get(ctx context.Context, url string, out any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to query registry: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errMissingRecord
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("registry returned %s", resp.Status)
	}

	if err := json.UnmarshalRead(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode registry response: %w", err)
	}

	return nil
}
