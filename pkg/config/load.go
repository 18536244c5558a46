package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults, and
// validates the result. Malformed rule patterns fail here, at load time,
// never per request.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies MERIDIAN_* environment variable overrides. Environment
// variables always take precedence over file values.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate the final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies MERIDIAN_SECTION_FIELD environment variable
// overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("MERIDIAN_PROXY_LISTEN_ADDRESS"); val != "" {
		cfg.Proxy.ListenAddress = val
	}
	if val := os.Getenv("MERIDIAN_PROXY_UPSTREAM_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Proxy.UpstreamTimeout = d
		}
	}

	if val := os.Getenv("MERIDIAN_MOCK_BACKEND_SCHEME"); val != "" {
		cfg.MockBackend.Scheme = val
	}
	if val := os.Getenv("MERIDIAN_MOCK_BACKEND_HOST"); val != "" {
		cfg.MockBackend.Host = val
	}
	if val := os.Getenv("MERIDIAN_MOCK_BACKEND_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.MockBackend.Port = i
		}
	}

	if val := os.Getenv("MERIDIAN_ROUTING_EMULATOR_LOOPBACK"); val != "" {
		cfg.Routing.EmulatorLoopback = val
	}
	if val := os.Getenv("MERIDIAN_ROUTING_LOOPBACK_REWRITE"); val != "" {
		cfg.Routing.LoopbackRewrite = val
	}
	if val := os.Getenv("MERIDIAN_ROUTING_FORCE_REAL_WINS"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Routing.ForceRealWins = b
		}
	}

	if val := os.Getenv("MERIDIAN_FALLBACK_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Fallback.Enabled = b
		}
	}
	if val := os.Getenv("MERIDIAN_FALLBACK_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Fallback.Timeout = d
		}
	}

	if val := os.Getenv("MERIDIAN_ENHANCE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Enhance.Enabled = b
		}
	}
	if val := os.Getenv("MERIDIAN_ENHANCE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Enhance.Timeout = d
		}
	}

	if val := os.Getenv("MERIDIAN_RECORDING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Recording.Enabled = b
		}
	}
	if val := os.Getenv("MERIDIAN_RECORDING_PATH"); val != "" {
		cfg.Recording.Path = val
	}
	if val := os.Getenv("MERIDIAN_RECORDING_INDEX_PATH"); val != "" {
		cfg.Recording.Index.Path = val
	}

	if val := os.Getenv("MERIDIAN_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("MERIDIAN_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
}
