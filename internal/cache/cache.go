package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-json-experiment/json"
	bolt "go.etcd.io/bbolt"

	"github.com/Pirikara/licensecheck/internal/ecosystem"
	"github.com/Pirikara/licensecheck/internal/logger"
	"github.com/Pirikara/licensecheck/internal/registry"
)

// FileName is the database file created inside the cache directory
const FileName = "licenses.db"

// bucketName holds one nested bucket per registry URL template
var bucketName = []byte("licenses")

// Options selects the cache file and the registry whose answers it holds
type Options struct {
	// Dir is created when missing
	Dir string
	// Ecosystem and RegistryURL scope every entry, so switching to another
	// index never serves answers fetched from the previous one
	Ecosystem   ecosystem.EcosystemID
	RegistryURL string
	// TTL bounds entry age; 0 keeps entries forever
	TTL time.Duration
}

// entry is the stored form of a resolved package
type entry struct {
	Licenses  []string  `json:"licenses"`
	FetchedAt time.Time `json:"fetched_at"`
}

// LicenseCache wraps a Resolver and remembers resolved licenses on disk.
// Only successful resolutions are stored; a package the registry could not
// serve is asked for again on the next run.
type LicenseCache struct {
	db        *bolt.DB
	next      registry.Resolver
	ecosystem ecosystem.EcosystemID
	registry  []byte
	ttl       time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

// Open creates the cache directory if needed and opens the database
func Open(opts Options, next registry.Resolver, log *logger.Logger) (*LicenseCache, error) {
	if log == nil {
		log = logger.Nop()
	}
	if opts.RegistryURL == "" {
		return nil, fmt.Errorf("cache needs the registry URL it caches for")
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(filepath.Join(opts.Dir, FileName), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	registryKey := []byte(opts.RegistryURL)
	err = db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		_, err = root.CreateBucketIfNotExists(registryKey)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise cache: %w", err)
	}

	return &LicenseCache{
		db:        db,
		next:      next,
		ecosystem: opts.Ecosystem,
		registry:  registryKey,
		ttl:       opts.TTL,
		logger:    log,
		now:       time.Now,
	}, nil
}

// Close releases the database
func (c *LicenseCache) Close() error {
	return c.db.Close()
}

// Resolve implements registry.Resolver
func (c *LicenseCache) Resolve(ctx context.Context, name string) registry.Resolution {
	key := c.key(name)

	if e, ok := c.lookup(key); ok {
		c.logger.Debug("cache_hit", "Using cached licenses", map[string]interface{}{
			"package":  key,
			"licenses": e.Licenses,
		})
		return registry.Resolved(e.Licenses...)
	}

	res := c.next.Resolve(ctx, name)
	if res.Status == registry.StatusResolved {
		c.store(key, res.Licenses)
	}

	return res
}

func (c *LicenseCache) key(name string) string {
	return ecosystem.PackageIdentity{Ecosystem: c.ecosystem, Name: name}.String()
}

func (c *LicenseCache) bucket(tx *bolt.Tx) *bolt.Bucket {
	return tx.Bucket(bucketName).Bucket(c.registry)
}

func (c *LicenseCache) lookup(key string) (entry, bool) {
	var e entry
	found := false

	err := c.db.View(func(tx *bolt.Tx) error {
		data := c.bucket(tx).Get([]byte(key))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		c.logger.Warn("cache_read_failed", "Ignoring unreadable cache entry", map[string]interface{}{
			"package": key,
			"error":   err.Error(),
		})
		return entry{}, false
	}

	if !found || len(e.Licenses) == 0 {
		return entry{}, false
	}
	if c.ttl > 0 && c.now().Sub(e.FetchedAt) > c.ttl {
		return entry{}, false
	}

	return e, true
}

func (c *LicenseCache) store(key string, licenses []string) {
	data, err := json.Marshal(entry{Licenses: licenses, FetchedAt: c.now().UTC()})
	if err == nil {
		err = c.db.Update(func(tx *bolt.Tx) error {
			return c.bucket(tx).Put([]byte(key), data)
		})
	}
	if err != nil {
		c.logger.Warn("cache_write_failed", "Failed to cache licenses", map[string]interface{}{
			"package": key,
			"error":   err.Error(),
		})
	}
}
