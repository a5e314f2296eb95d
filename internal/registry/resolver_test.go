package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pirikara/licensecheck/internal/ecosystem"
)

func TestLicenses(t *testing.T) {
	tests := []struct {
		name   string
		record *Record
		want   []string
	}{
		{name: "nil record", record: nil, want: nil},
		{name: "declared only", record: &Record{License: "BSD-3-Clause"}, want: []string{"BSD-3-Clause"}},
		{name: "declared is normalized", record: &Record{License: "MIT (see LICENSE)\nfull text"}, want: []string{"MIT"}},
		{name: "unknown dropped", record: &Record{License: "UNKNOWN"}, want: []string{}},
		{name: "blank dropped", record: &Record{License: "  "}, want: []string{}},
		{
			name: "classifiers",
			record: &Record{Classifiers: []string{
				"Development Status :: 5 - Production/Stable",
				"License :: OSI Approved :: MIT",
				"Programming Language :: Python :: 3",
			}},
			want: []string{"MIT"},
		},
		{
			name: "declared and classifiers deduplicated",
			record: &Record{
				License: "MIT",
				Classifiers: []string{
					"License :: OSI Approved :: MIT",
					"License :: OSI Approved :: Apache Software License",
				},
			},
			want: []string{"Apache Software License", "MIT"},
		},
		{
			name:   "classifier needs license namespace",
			record: &Record{Classifiers: []string{"Topic :: License :: MIT"}},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Licenses(tt.record))
		})
	}
}

type stubFetcher struct {
	record *Record
	err    error
}

func (f stubFetcher) Fetch(context.Context, string) (*Record, error) {
	return f.record, f.err
}

func TestClient_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		fetcher    stubFetcher
		wantStatus Status
		wantErr    error
		want       []string
	}{
		{
			name:       "resolved",
			fetcher:    stubFetcher{record: &Record{License: "BSD-3-Clause"}},
			wantStatus: StatusResolved,
			want:       []string{"BSD-3-Clause"},
		},
		{
			name:       "missing record",
			fetcher:    stubFetcher{err: errMissingRecord},
			wantStatus: StatusNotFound,
			wantErr:    ErrNotFound,
		},
		{
			name:       "transport failure counts as not found",
			fetcher:    stubFetcher{err: errors.New("connection reset")},
			wantStatus: StatusNotFound,
			wantErr:    ErrNotFound,
		},
		{
			name:       "no usable license",
			fetcher:    stubFetcher{record: &Record{License: "UNKNOWN"}},
			wantStatus: StatusNoLicense,
			wantErr:    ErrNoLicense,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewClient(tt.fetcher, nil).Resolve(context.Background(), "pkg")

			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.want, res.Licenses)
			if tt.wantErr == nil {
				assert.NoError(t, res.Err())
			} else {
				assert.ErrorIs(t, res.Err(), tt.wantErr)
			}
		})
	}
}

func TestResolutionErrText(t *testing.T) {
	assert.Equal(t, "NOT FOUND", NotFound().Err().Error())
	assert.Equal(t, "NO LICENSE", NoLicense().Err().Error())
}

func newRegistryServer(t *testing.T, docs map[string]string) (*httptest.Server, *int32) {
	t.Helper()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		body, ok := docs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, &hits
}

func TestPyPIFetcher(t *testing.T) {
	srv, _ := newRegistryServer(t, map[string]string{
		"/pypi/django/json":  `{"info": {"license": "BSD-3-Clause", "classifiers": ["License :: OSI Approved :: BSD License"]}}`,
		"/pypi/pytest/json":  `{"info": {"license": null, "classifiers": ["License :: OSI Approved :: MIT"]}}`,
		"/pypi/modern/json":  `{"info": {"license": "", "license_expression": "Apache-2.0"}}`,
		"/pypi/noinfo/json":  `{"releases": {}}`,
		"/pypi/garbage/json": `not json`,
	})

	fetcher, err := NewFetcher(ecosystem.EcosystemPyPI, srv.URL+"/pypi/{name}/json", NewJSONGetter(HTTPConfig{}))
	require.NoError(t, err)
	client := NewClient(fetcher, nil)
	ctx := context.Background()

	assert.Equal(t, Resolved("BSD License", "BSD-3-Clause"), client.Resolve(ctx, "django"))
	assert.Equal(t, Resolved("MIT"), client.Resolve(ctx, "pytest"))
	assert.Equal(t, Resolved("Apache-2.0"), client.Resolve(ctx, "modern"))
	assert.Equal(t, StatusNoLicense, client.Resolve(ctx, "noinfo").Status)
	assert.Equal(t, StatusNotFound, client.Resolve(ctx, "garbage").Status)
	assert.Equal(t, StatusNotFound, client.Resolve(ctx, "ghostpkg").Status)
}

func TestNPMFetcher(t *testing.T) {
	srv, _ := newRegistryServer(t, map[string]string{
		"/lodash":      `{"name": "lodash", "license": "MIT"}`,
		"/object":      `{"license": {"type": "ISC", "url": "https://example.com"}}`,
		"/legacy":      `{"licenses": [{"type": "BSD-2-Clause"}, {"type": "MIT"}]}`,
		"/unlicens":    `{"name": "unlicens"}`,
		"/@types/node": `{"name": "@types/node", "license": "MIT"}`,
	})

	fetcher, err := NewFetcher(ecosystem.EcosystemNPM, srv.URL+"/{name}", NewJSONGetter(HTTPConfig{}))
	require.NoError(t, err)
	client := NewClient(fetcher, nil)
	ctx := context.Background()

	assert.Equal(t, Resolved("MIT"), client.Resolve(ctx, "lodash"))
	assert.Equal(t, Resolved("ISC"), client.Resolve(ctx, "object"))
	assert.Equal(t, Resolved("BSD-2-Clause"), client.Resolve(ctx, "legacy"))
	assert.Equal(t, StatusNoLicense, client.Resolve(ctx, "unlicens").Status)
	assert.Equal(t, Resolved("MIT"), client.Resolve(ctx, "@types/node"))
}

func TestNewFetcher_UnknownEcosystem(t *testing.T) {
	_, err := NewFetcher("crates.io", "https://crates.io/{name}", NewJSONGetter(HTTPConfig{}))
	assert.Error(t, err)
}

func TestJSONGetter_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "licensecheck/test", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	var out map[string]any
	err := NewJSONGetter(HTTPConfig{UserAgent: "licensecheck/test"}).Get(context.Background(), srv.URL, &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errMissingRecord)
}

func TestJSONGetter_CancelledContext(t *testing.T) {
	srv, hits := newRegistryServer(t, map[string]string{"/x": `{}`})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out map[string]any
	err := NewJSONGetter(HTTPConfig{RateLimit: 1}).Get(ctx, srv.URL+"/x", &out)
	assert.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}
