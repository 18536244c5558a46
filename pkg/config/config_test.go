package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Proxy.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q", cfg.Proxy.ListenAddress)
	}
	if cfg.MockBackend.Scheme != "http" || cfg.MockBackend.Host != "localhost" || cfg.MockBackend.Port != 3000 {
		t.Errorf("mock backend = %+v", cfg.MockBackend)
	}
	if cfg.Routing.EmulatorLoopback != "10.0.2.2" || cfg.Routing.LoopbackRewrite != "localhost" {
		t.Errorf("loopback = %q -> %q", cfg.Routing.EmulatorLoopback, cfg.Routing.LoopbackRewrite)
	}
	if cfg.Routing.Source.Type != "none" {
		t.Errorf("source type = %q", cfg.Routing.Source.Type)
	}
	if len(cfg.Fallback.StatusCodes) != 4 {
		t.Errorf("fallback status codes = %v", cfg.Fallback.StatusCodes)
	}
	if cfg.Recording.AsyncBuffer != DefaultAsyncBuffer {
		t.Errorf("AsyncBuffer = %d", cfg.Recording.AsyncBuffer)
	}
	if cfg.Compiler.Port != 3000 || cfg.Compiler.Hostname != "0.0.0.0" {
		t.Errorf("compiler = %+v", cfg.Compiler)
	}
	if cfg.Telemetry.Metrics.Namespace != "meridian" {
		t.Errorf("metrics namespace = %q", cfg.Telemetry.Metrics.Namespace)
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
proxy:
  listen_address: "0.0.0.0:8085"
  upstream_timeout: 30s
mock_backend:
  host: mockoon
  port: 3001
routing:
  mock_patterns:
    - "^/api/v1/mocked/.*"
  real_patterns:
    - "^/api/v1/payments/.*"
  mock_domains:
    - staging
  force_real_wins: true
fallback:
  enabled: true
  status_codes: [500, 503]
recording:
  enabled: true
  path: /tmp/recordings.jsonl
  exclude_patterns:
    - "^/api/v1/analytics.*"
  retention:
    max_age: 168h
    max_records: 5000
    schedule: "0 3 * * *"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Proxy.ListenAddress != "0.0.0.0:8085" {
		t.Errorf("ListenAddress = %q", cfg.Proxy.ListenAddress)
	}
	if cfg.Proxy.UpstreamTimeout != 30*time.Second {
		t.Errorf("UpstreamTimeout = %v", cfg.Proxy.UpstreamTimeout)
	}
	if cfg.MockBackend.Host != "mockoon" || cfg.MockBackend.Port != 3001 {
		t.Errorf("mock backend = %+v", cfg.MockBackend)
	}
	// Unset fields are defaulted.
	if cfg.MockBackend.Scheme != "http" {
		t.Errorf("Scheme = %q, want defaulted http", cfg.MockBackend.Scheme)
	}
	if !cfg.Routing.ForceRealWins {
		t.Error("ForceRealWins not set")
	}
	if len(cfg.Routing.MockPatterns) != 1 || len(cfg.Routing.RealPatterns) != 1 {
		t.Errorf("patterns = %v / %v", cfg.Routing.MockPatterns, cfg.Routing.RealPatterns)
	}
	if len(cfg.Fallback.StatusCodes) != 2 {
		t.Errorf("StatusCodes = %v", cfg.Fallback.StatusCodes)
	}
	if cfg.Recording.Retention.MaxAge != 168*time.Hour || cfg.Recording.Retention.MaxRecords != 5000 {
		t.Errorf("retention = %+v", cfg.Recording.Retention)
	}
	if cfg.Recording.Retention.Schedule != "0 3 * * *" {
		t.Errorf("Schedule = %q", cfg.Recording.Retention.Schedule)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "proxy: [not a mapping")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
mock_backend:
  host: from-file
`)

	t.Setenv("MERIDIAN_PROXY_LISTEN_ADDRESS", "127.0.0.1:9999")
	t.Setenv("MERIDIAN_MOCK_BACKEND_HOST", "from-env")
	t.Setenv("MERIDIAN_MOCK_BACKEND_PORT", "3100")
	t.Setenv("MERIDIAN_FALLBACK_ENABLED", "true")
	t.Setenv("MERIDIAN_TELEMETRY_LOGGING_LEVEL", "debug")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() failed: %v", err)
	}

	if cfg.Proxy.ListenAddress != "127.0.0.1:9999" {
		t.Errorf("ListenAddress = %q", cfg.Proxy.ListenAddress)
	}
	if cfg.MockBackend.Host != "from-env" {
		t.Errorf("Host = %q, want env override", cfg.MockBackend.Host)
	}
	if cfg.MockBackend.Port != 3100 {
		t.Errorf("Port = %d", cfg.MockBackend.Port)
	}
	if !cfg.Fallback.Enabled {
		t.Error("Fallback.Enabled not overridden")
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Telemetry.Logging.Level)
	}
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "bad listen address",
			mutate: func(c *Config) { c.Proxy.ListenAddress = "no-port" },
			want:   "proxy.listen_address",
		},
		{
			name:   "bad mock scheme",
			mutate: func(c *Config) { c.MockBackend.Scheme = "ftp" },
			want:   "mock_backend.scheme",
		},
		{
			name:   "mock port out of range",
			mutate: func(c *Config) { c.MockBackend.Port = 70000 },
			want:   "mock_backend.port",
		},
		{
			name:   "invalid mock pattern",
			mutate: func(c *Config) { c.Routing.MockPatterns = []string{"[invalid"} },
			want:   "routing.mock_patterns",
		},
		{
			name:   "invalid exclude pattern",
			mutate: func(c *Config) { c.Recording.ExcludePatterns = []string{"("} },
			want:   "recording.exclude_patterns",
		},
		{
			name:   "unknown source type",
			mutate: func(c *Config) { c.Routing.Source.Type = "http" },
			want:   "routing.source.type",
		},
		{
			name: "git source without URL",
			mutate: func(c *Config) {
				c.Routing.Source.Type = "git"
				c.Routing.Source.Path = "rules.yaml"
			},
			want: "routing.source.git.url",
		},
		{
			name:   "bad fallback status",
			mutate: func(c *Config) { c.Fallback.StatusCodes = []int{999} },
			want:   "fallback.status_codes",
		},
		{
			name: "recording enabled without path",
			mutate: func(c *Config) {
				c.Recording.Enabled = true
				c.Recording.Path = ""
			},
			want: "recording.path",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Telemetry.Logging.Level = "trace" },
			want:   "telemetry.logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate() returned nil")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T", err)
			}
			if !strings.Contains(verr.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", verr.Error(), tt.want)
			}
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Proxy.ListenAddress = "bad"
	cfg.MockBackend.Scheme = "gopher"
	cfg.Routing.MockPatterns = []string{"["}

	err := Validate(cfg)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T", err)
	}
	if len(verr.Problems) != 3 {
		t.Errorf("collected %d problems, want 3: %v", len(verr.Problems), verr.Problems)
	}
}
