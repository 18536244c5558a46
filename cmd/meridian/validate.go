package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file, apply defaults and environment overrides,
and report any validation problems. All routing and recording patterns
are compiled during validation, so a malformed pattern shows up here
instead of at proxy startup.

Examples:
  # Validate the default config
  meridian validate

  # Validate a specific file
  meridian validate --config /etc/meridian/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("✓ Configuration valid: %s\n", cfgFile)
	fmt.Println()
	fmt.Printf("  Proxy listen address: %s\n", cfg.Proxy.ListenAddress)
	fmt.Printf("  Mock backend: %s://%s:%d\n", cfg.MockBackend.Scheme, cfg.MockBackend.Host, cfg.MockBackend.Port)
	fmt.Printf("  Routing rules: %d mock patterns, %d real patterns, %d mock domains\n",
		len(cfg.Routing.MockPatterns), len(cfg.Routing.RealPatterns), len(cfg.Routing.MockDomains))
	if cfg.Routing.Source.Type != "none" {
		fmt.Printf("  Rule source: %s (%s)\n", cfg.Routing.Source.Type, cfg.Routing.Source.Path)
	}
	fmt.Printf("  Fallback: enabled=%t status_codes=%v\n", cfg.Fallback.Enabled, cfg.Fallback.StatusCodes)
	fmt.Printf("  Enhancement: enabled=%t\n", cfg.Enhance.Enabled)
	if cfg.Recording.Enabled {
		fmt.Printf("  Recording to: %s\n", cfg.Recording.Path)
		if cfg.Recording.Index.Enabled {
			fmt.Printf("  Recording index: %s\n", cfg.Recording.Index.Path)
		}
	}

	return nil
}
