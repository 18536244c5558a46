package config

import "time"

// Default values applied to unset configuration fields.
const (
	DefaultListenAddress   = "127.0.0.1:8085"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 90 * time.Second
	DefaultMaxHeaderBytes  = 1 << 20
	DefaultUpstreamTimeout = 60 * time.Second

	DefaultMockScheme = "http"
	DefaultMockHost   = "localhost"
	DefaultMockPort   = 3000

	DefaultEmulatorLoopback = "10.0.2.2"
	DefaultLoopbackRewrite  = "localhost"

	DefaultFallbackTimeout = 5 * time.Second
	DefaultEnhanceTimeout  = 2 * time.Second

	DefaultRecordingPath   = "data/recordings.jsonl"
	DefaultAsyncBuffer     = 1000
	DefaultWriteTimeoutRec = 5 * time.Second

	DefaultCompilerName     = "Recorded API Mocks"
	DefaultCompilerPort     = 3000
	DefaultCompilerHostname = "0.0.0.0"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsAddress   = "127.0.0.1:9095"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "meridian"

	DefaultGitPollInterval = time.Minute
)

// DefaultFallbackStatusCodes is the real-backend error set that triggers
// fallback to the mock backend.
var DefaultFallbackStatusCodes = []int{500, 502, 503, 504}

// ApplyDefaults fills unset fields of cfg with default values.
func ApplyDefaults(cfg *Config) {
	if cfg.Proxy.ListenAddress == "" {
		cfg.Proxy.ListenAddress = DefaultListenAddress
	}
	if cfg.Proxy.ReadTimeout == 0 {
		cfg.Proxy.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Proxy.WriteTimeout == 0 {
		cfg.Proxy.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Proxy.IdleTimeout == 0 {
		cfg.Proxy.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Proxy.MaxHeaderBytes == 0 {
		cfg.Proxy.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Proxy.UpstreamTimeout == 0 {
		cfg.Proxy.UpstreamTimeout = DefaultUpstreamTimeout
	}

	if cfg.MockBackend.Scheme == "" {
		cfg.MockBackend.Scheme = DefaultMockScheme
	}
	if cfg.MockBackend.Host == "" {
		cfg.MockBackend.Host = DefaultMockHost
	}
	if cfg.MockBackend.Port == 0 {
		cfg.MockBackend.Port = DefaultMockPort
	}

	if cfg.Routing.EmulatorLoopback == "" {
		cfg.Routing.EmulatorLoopback = DefaultEmulatorLoopback
	}
	if cfg.Routing.LoopbackRewrite == "" {
		cfg.Routing.LoopbackRewrite = DefaultLoopbackRewrite
	}
	if cfg.Routing.Source.Type == "" {
		cfg.Routing.Source.Type = "none"
	}
	if cfg.Routing.Source.Git.PollInterval == 0 {
		cfg.Routing.Source.Git.PollInterval = DefaultGitPollInterval
	}

	if len(cfg.Fallback.StatusCodes) == 0 {
		cfg.Fallback.StatusCodes = append([]int(nil), DefaultFallbackStatusCodes...)
	}
	if cfg.Fallback.Timeout == 0 {
		cfg.Fallback.Timeout = DefaultFallbackTimeout
	}

	if cfg.Enhance.Timeout == 0 {
		cfg.Enhance.Timeout = DefaultEnhanceTimeout
	}

	if cfg.Recording.Path == "" {
		cfg.Recording.Path = DefaultRecordingPath
	}
	if cfg.Recording.AsyncBuffer == 0 {
		cfg.Recording.AsyncBuffer = DefaultAsyncBuffer
	}
	if cfg.Recording.WriteTimeout == 0 {
		cfg.Recording.WriteTimeout = DefaultWriteTimeoutRec
	}

	if cfg.Compiler.Name == "" {
		cfg.Compiler.Name = DefaultCompilerName
	}
	if cfg.Compiler.Port == 0 {
		cfg.Compiler.Port = DefaultCompilerPort
	}
	if cfg.Compiler.Hostname == "" {
		cfg.Compiler.Hostname = DefaultCompilerHostname
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
