// Package config assembles the options of a license check run.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/Pirikara/licensecheck/internal/policy"
)

// Environment variables read by FromEnv
const (
	EnvEcosystem   = "LICENSECHECK_ECOSYSTEM"
	EnvRegistryURL = "LICENSECHECK_REGISTRY_URL"
	EnvCacheDir    = "LICENSECHECK_CACHE_DIR"
	EnvCacheTTL    = "LICENSECHECK_CACHE_TTL"
	EnvRateLimit   = "LICENSECHECK_RATE_LIMIT"
	EnvTimeout     = "LICENSECHECK_TIMEOUT"
	EnvLogLevel    = "LICENSECHECK_LOG_LEVEL"
)

// DefaultEnvFile is read when present in the working directory
const DefaultEnvFile = ".env"

// Config represents the complete run configuration
type Config struct {
	SettingsPath     string        `yaml:"settings" validate:"required"`
	Manifests        []string      `yaml:"manifests" validate:"min=1,dive,required"`
	Verbose          bool          `yaml:"verbose"`
	LogLevel         string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	Ecosystem        string        `yaml:"ecosystem"`
	EcosystemsConfig string        `yaml:"ecosystems_config,omitempty"`
	RegistryURL      string        `yaml:"registry_url,omitempty" validate:"omitempty,startswith=http,contains={name}"`
	CacheDir         string        `yaml:"cache_dir,omitempty"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	RateLimit        float64       `yaml:"rate_limit" validate:"gte=0"`
	Timeout          time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		SettingsPath: policy.DefaultSettingsPath,
		LogLevel:     "warn",
		CacheTTL:     24 * time.Hour,
		Timeout:      30 * time.Second,
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed %q check", fe.Field(), fe.Tag())
		}
		return err
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid CacheTTL: must not be negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid Timeout: must not be negative")
	}

	return nil
}

// Env is a set of environment values
type Env map[string]string

// FromEnv collects the LICENSECHECK_* values of the process environment,
// falling back to the values in envFile. A missing envFile is not an error.
func FromEnv(envFile string) (Env, error) {
	env := Env{}

	if envFile != "" {
		values, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		for k, v := range values {
			env[k] = v
		}
	}

	for _, key := range []string{EnvEcosystem, EnvRegistryURL, EnvCacheDir, EnvCacheTTL, EnvRateLimit, EnvTimeout, EnvLogLevel} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}

	return env, nil
}

// Apply copies env values into fields whose flag was not set explicitly.
// isSet reports whether the flag backing a field was given on the command line.
func (c *Config) Apply(env Env, isSet func(flag string) bool) error {
	setString := func(flag, key string, dst *string) {
		if v, ok := env[key]; ok && v != "" && !isSet(flag) {
			*dst = v
		}
	}
	setDuration := func(flag, key string, dst *time.Duration) error {
		v, ok := env[key]
		if !ok || v == "" || isSet(flag) {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	setString("ecosystem", EnvEcosystem, &c.Ecosystem)
	setString("registry-url", EnvRegistryURL, &c.RegistryURL)
	setString("cache-dir", EnvCacheDir, &c.CacheDir)
	setString("log-level", EnvLogLevel, &c.LogLevel)

	if err := setDuration("cache-ttl", EnvCacheTTL, &c.CacheTTL); err != nil {
		return err
	}
	if err := setDuration("timeout", EnvTimeout, &c.Timeout); err != nil {
		return err
	}

	if v, ok := env[EnvRateLimit]; ok && v != "" && !isSet("rate-limit") {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRateLimit, err)
		}
		c.RateLimit = rps
	}

	return nil
}
