package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Pirikara/licensecheck/internal/cache"
	"github.com/Pirikara/licensecheck/internal/config"
	"github.com/Pirikara/licensecheck/internal/ecosystem"
	"github.com/Pirikara/licensecheck/internal/logger"
	"github.com/Pirikara/licensecheck/internal/manifest"
	"github.com/Pirikara/licensecheck/internal/policy"
	"github.com/Pirikara/licensecheck/internal/registry"
	"github.com/Pirikara/licensecheck/internal/report"
)

// Default ecosystem registry endpoints
//
//go:embed ecosystems.yaml
var defaultEcosystemsYAML []byte

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	// Global flags
	opts    = config.Default()
	debug   bool
	envFile string
)

// exitError carries a process exit status out of a command
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	rootCmd := newRootCmd()

	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(report.ExitConfig)
	}
}

func newRootCmd() *cobra.Command {
	opts = config.Default()

	rootCmd := &cobra.Command{
		Use:   "licensecheck [flags] MANIFEST...",
		Short: "License Check - dependency license policy gate",
		Long: `License Check resolves the published license of every package listed in
the given requirement manifests and checks it against an allow/deny policy.
The exit status is non-zero when any package fails.`,
		Example: `  licensecheck requirements.txt
  licensecheck -s .licenses.yaml -v requirements.txt requirements-dev.txt
  licensecheck --ecosystem npm --cache-dir ~/.licensecheck/cache npm-packages.txt`,
		Args:          cobra.MinimumNArgs(1),
		RunE:          runCheck,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.SettingsPath, "settings", "s", opts.SettingsPath, "File containing license settings")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Print the full report")
	flags.BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	flags.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level: debug, info, warn, error")
	flags.StringVar(&opts.Ecosystem, "ecosystem", "", "Package ecosystem: PyPI or npm (default: detected from manifest names, else PyPI)")
	flags.StringVar(&opts.EcosystemsConfig, "ecosystems-config", "", "Path to ecosystems config file")
	flags.StringVar(&opts.RegistryURL, "registry-url", "", "Registry metadata URL template containing {name}")
	flags.StringVar(&opts.CacheDir, "cache-dir", "", "Directory for the resolved license cache (disabled when empty)")
	flags.DurationVar(&opts.CacheTTL, "cache-ttl", opts.CacheTTL, "How long cached licenses stay valid (0 = forever)")
	flags.Float64Var(&opts.RateLimit, "rate-limit", 0, "Maximum registry requests per second (0 = unlimited)")
	flags.DurationVar(&opts.Timeout, "timeout", opts.Timeout, "Registry request timeout")
	flags.StringVar(&envFile, "env-file", config.DefaultEnvFile, "Optional dotenv file with LICENSECHECK_* settings")

	rootCmd.AddCommand(newSelfCheckCmd())
	rootCmd.AddCommand(newPrintConfigCmd())

	return rootCmd
}

// loadConfig merges flags, environment and the dotenv file
func loadConfig(cmd *cobra.Command, manifests []string) (config.Config, error) {
	cfg := opts

	env, err := config.FromEnv(envFile)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Apply(env, cmd.Flags().Changed); err != nil {
		return cfg, err
	}
	if debug {
		cfg.LogLevel = string(logger.LevelDebug)
	}

	// pre-commit passes the settings file along with the manifests
	cfg.Manifests = manifest.WithoutPath(manifests, cfg.SettingsPath)

	return cfg, nil
}

func newLogger(cfg config.Config) *logger.Logger {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logger.LevelWarn
	}
	return logger.NewLogger(os.Stderr, level).WithRunID(uuid.NewString())
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(cfg.Manifests) == 0 {
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := newLogger(cfg)
	defer log.Sync()

	pol, err := policy.LoadFile(cfg.SettingsPath)
	if err != nil {
		log.Error("settings_load_failed", err.Error(), nil)
		return &exitError{code: report.ExitConfig}
	}
	log.Debug("policy_loaded", "Policy loaded", map[string]interface{}{
		"allowed":    pol.Allowed.Sources(),
		"disallowed": pol.Disallowed.Sources(),
		"ignored":    len(pol.Ignored),
		"missing":    len(pol.Missing),
	})

	reqs, err := manifest.ReadFiles(cfg.Manifests)
	if err != nil {
		log.Error("manifest_load_failed", err.Error(), nil)
		return &exitError{code: report.ExitConfig}
	}
	for _, req := range reqs {
		if req.Pinned != nil {
			log.Debug("requirement_pinned", "Pinned requirement", map[string]interface{}{
				"name":    req.Name,
				"version": req.Pinned.String(),
			})
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver, closeResolver, err := buildResolver(cfg, log)
	if err != nil {
		return err
	}
	defer closeResolver()

	engine := policy.NewEngine(pol, resolver, log)
	rep, err := engine.Check(ctx, manifest.Names(reqs))
	if err != nil {
		log.Warn("check_interrupted", "License check aborted", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("license check interrupted: %w", err)
	}

	if err := report.Write(cmd.OutOrStdout(), rep, cfg.Verbose); err != nil {
		return err
	}

	if code := rep.ExitCode(); code != report.ExitSuccess {
		return &exitError{code: code}
	}
	return nil
}

// buildResolver wires the registry client for the selected ecosystem,
// wrapped in the on-disk cache when a cache directory is configured.
func buildResolver(cfg config.Config, log *logger.Logger) (registry.Resolver, func(), error) {
	ecoConfig, err := ecosystem.LoadConfig(cfg.EcosystemsConfig, defaultEcosystemsYAML)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load ecosystem config: %w", err)
	}

	eco, err := selectEcosystem(cfg, ecoConfig)
	if err != nil {
		return nil, nil, err
	}

	registryURL := eco.RegistryURL
	if cfg.RegistryURL != "" {
		registryURL = cfg.RegistryURL
	}

	getter := registry.NewJSONGetter(registry.HTTPConfig{
		Timeout:   cfg.Timeout,
		UserAgent: "licensecheck/" + version,
		RateLimit: cfg.RateLimit,
	})
	fetcher, err := registry.NewFetcher(eco.ID, registryURL, getter)
	if err != nil {
		return nil, nil, err
	}

	log.Debug("registry_selected", "Using registry", map[string]interface{}{
		"ecosystem":    string(eco.ID),
		"registry_url": registryURL,
	})

	var resolver registry.Resolver = registry.NewClient(fetcher, log)
	if cfg.CacheDir == "" {
		return resolver, func() {}, nil
	}

	licenseCache, err := cache.Open(cache.Options{
		Dir:         cfg.CacheDir,
		Ecosystem:   eco.ID,
		RegistryURL: registryURL,
		TTL:         cfg.CacheTTL,
	}, resolver, log)
	if err != nil {
		return nil, nil, err
	}
	return licenseCache, func() { licenseCache.Close() }, nil
}

func selectEcosystem(cfg config.Config, ecoConfig *ecosystem.Config) (ecosystem.EcosystemConfig, error) {
	id := ecosystem.EcosystemID(cfg.Ecosystem)
	if id == "" {
		id = ecosystem.NewDetector(ecoConfig).Detect(cfg.Manifests, ecosystem.EcosystemPyPI)
	}

	eco, ok := ecoConfig.Lookup(id)
	if !ok {
		return ecosystem.EcosystemConfig{}, fmt.Errorf("unknown ecosystem %q (configured: %v)", id, ecoConfig.IDs())
	}
	return eco, nil
}
