package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"meridian-hq/meridian/pkg/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "meridian",
	Short: "Meridian - HTTP traffic interception engine for mobile E2E testing",
	Long: `Meridian is an HTTP traffic interception engine for mobile end-to-end
testing. It sits between the app under test and its backends as an HTTP
proxy, routing each request to the real backend or a local mock server.

It provides:
  - Pattern- and header-driven routing between real and mock backends
  - Automatic fallback to the mock backend on real-backend errors
  - Blending of supplemental mock data into real responses
  - Selective recording of exchanges as replayable JSONL logs
  - Compilation of recorded traffic into Mockoon route tables`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration file with environment overrides
// applied. The verbose flag forces debug logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}
