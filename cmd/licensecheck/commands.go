package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Pirikara/licensecheck/internal/ecosystem"
	"github.com/Pirikara/licensecheck/internal/policy"
	"github.com/Pirikara/licensecheck/internal/registry"
)

func newSelfCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-check",
		Short: "Check License Check installation and configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "License Check self-check")
			fmt.Fprintln(out, "========================")

			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				fmt.Fprintf(out, "❌ Failed to load configuration: %v\n", err)
				return err
			}

			ecoConfig, err := ecosystem.LoadConfig(cfg.EcosystemsConfig, defaultEcosystemsYAML)
			if err != nil {
				fmt.Fprintf(out, "❌ Failed to load ecosystem config: %v\n", err)
				return err
			}
			fmt.Fprintf(out, "✅ Ecosystem config loaded: %d ecosystems\n", len(ecoConfig.Ecosystems))

			if _, statErr := os.Stat(cfg.SettingsPath); statErr == nil {
				pol, err := policy.LoadFile(cfg.SettingsPath)
				if err != nil {
					fmt.Fprintf(out, "❌ %v\n", err)
					return err
				}
				fmt.Fprintf(out, "✅ Policy %s loaded: %d allowed, %d disallowed, %d ignored, %d errata\n",
					cfg.SettingsPath, len(pol.Allowed), len(pol.Disallowed), len(pol.Ignored), len(pol.Missing))
			} else {
				fmt.Fprintf(out, "⚠️  Policy file %s not found\n", cfg.SettingsPath)
			}

			eco, err := selectEcosystem(cfg, ecoConfig)
			if err != nil {
				fmt.Fprintf(out, "❌ %v\n", err)
				return err
			}

			log := newLogger(cfg)
			defer log.Sync()

			resolver, closeResolver, err := buildResolver(cfg, log)
			if err != nil {
				fmt.Fprintf(out, "❌ Failed to set up registry client: %v\n", err)
				return err
			}
			defer closeResolver()

			fmt.Fprintf(out, "\nTesting %s registry with %q...\n", eco.ID, eco.ProbePackage)

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			res := resolver.Resolve(ctx, eco.ProbePackage)
			if res.Status != registry.StatusResolved {
				fmt.Fprintf(out, "❌ Lookup failed: %v\n", res.Err())
				return res.Err()
			}
			fmt.Fprintf(out, "✅ Registry reachable (%s: %v)\n", eco.ProbePackage, res.Licenses)

			fmt.Fprintln(out, "\n✅ License Check is ready to use!")
			return nil
		},
	}
}

func newPrintConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print-config [MANIFEST...]",
		Short: "Print current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()

			return enc.Encode(cfg)
		},
	}
}
