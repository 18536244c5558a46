package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"meridian-hq/meridian/pkg/config"
	"meridian-hq/meridian/pkg/mocktable"
	"meridian-hq/meridian/pkg/telemetry/logging"
)

var compileFlags struct {
	output   string
	name     string
	port     int
	hostname string
}

var compileCmd = &cobra.Command{
	Use:   "compile <recordings.jsonl>",
	Short: "Compile a recordings log into a Mockoon environment",
	Long: `Compile a JSONL recordings log into a Mockoon environment document.

Recordings that differ only in numeric or UUID-like path segments are
collapsed into a single templated route (/users/42 and /users/17 become
/users/:id), with the first-seen response as the canonical body.

Examples:
  # Compile with defaults from the config file
  meridian compile recordings.jsonl

  # Name the environment and pick the serving port
  meridian compile recordings.jsonl -o checkout-mocks.json --name "Checkout API" --port 3001`,
	Args: cobra.ExactArgs(1),
	RunE: compileRecordings,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileFlags.output, "output", "o", "mockoon-env.json", "output file path")
	compileCmd.Flags().StringVar(&compileFlags.name, "name", "", "environment name (overrides config)")
	compileCmd.Flags().IntVar(&compileFlags.port, "port", 0, "mock server port (overrides config)")
	compileCmd.Flags().StringVar(&compileFlags.hostname, "hostname", "", "mock server bind host (overrides config)")
}

func compileRecordings(cmd *cobra.Command, args []string) error {
	// Compilation is offline: a missing config file falls back to
	// defaults instead of failing.
	cfg, err := loadConfig()
	if err != nil {
		cfg = config.Default()
	}

	if compileFlags.name != "" {
		cfg.Compiler.Name = compileFlags.name
	}
	if compileFlags.port != 0 {
		cfg.Compiler.Port = compileFlags.port
	}
	if compileFlags.hostname != "" {
		cfg.Compiler.Hostname = compileFlags.hostname
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	})
	if err != nil {
		return err
	}

	in, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open recordings log: %w", err)
	}
	defer in.Close()

	compiler := mocktable.NewCompiler(mocktable.Config{
		Name:     cfg.Compiler.Name,
		Port:     cfg.Compiler.Port,
		Hostname: cfg.Compiler.Hostname,
	}, mocktable.UUIDGenerator{}, logger)

	env, stats, err := compiler.Compile(in)
	if err != nil {
		return fmt.Errorf("compilation failed: %w", err)
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode environment: %w", err)
	}
	if err := os.WriteFile(compileFlags.output, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", compileFlags.output, err)
	}

	fmt.Printf("✓ Compiled %d recordings into %d routes\n", stats.Recordings, stats.Routes)
	if stats.Malformed > 0 {
		fmt.Printf("  Skipped %d malformed lines\n", stats.Malformed)
	}
	fmt.Printf("✓ Wrote %s\n", compileFlags.output)

	return nil
}
