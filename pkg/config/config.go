package config

import "time"

// Config is the root configuration for the Meridian interception engine.
// It is loaded from YAML, filled with defaults, optionally overridden by
// MERIDIAN_* environment variables, and validated before use.
type Config struct {
	// Proxy configures the intercepting HTTP proxy listener.
	Proxy ProxyConfig `yaml:"proxy"`

	// MockBackend is the address of the local mock server that canned
	// responses are served from.
	MockBackend MockBackendConfig `yaml:"mock_backend"`

	// Routing configures the per-request routing decision rules.
	Routing RoutingConfig `yaml:"routing"`

	// Fallback configures retry-against-mock on real-backend errors.
	Fallback FallbackConfig `yaml:"fallback"`

	// Enhance configures blending of mock data into real responses.
	Enhance EnhanceConfig `yaml:"enhance"`

	// Recording configures selective exchange recording.
	Recording RecordingConfig `yaml:"recording"`

	// Compiler configures the offline recorded-log-to-route-table
	// compiler.
	Compiler CompilerConfig `yaml:"compiler"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyConfig contains settings for the proxy listener.
type ProxyConfig struct {
	// ListenAddress is the host:port the proxy listens on.
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// MaxHeaderBytes limits request header size.
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// UpstreamTimeout bounds a single forwarded request to either
	// backend.
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
}

// MockBackendConfig is the mock server address. It is configuration, not
// a constant: test rigs run the mock server on varying hosts and ports.
type MockBackendConfig struct {
	Scheme string `yaml:"scheme"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
}

// RoutingConfig contains the routing decision rules.
type RoutingConfig struct {
	// MockPatterns are allow patterns: request paths matching any of
	// them are routed to the mock backend. Patterns are regular
	// expressions anchored at the start of the path.
	MockPatterns []string `yaml:"mock_patterns"`

	// RealPatterns are deny patterns: paths matching any of them always
	// go to the real backend, carving exceptions out of broader mock
	// patterns.
	RealPatterns []string `yaml:"real_patterns"`

	// MockDomains routes requests whose host contains any of these
	// substrings to the mock backend.
	MockDomains []string `yaml:"mock_domains"`

	// EmulatorLoopback is the emulator's alias for the host machine
	// (Android emulators see the host as 10.0.2.2).
	EmulatorLoopback string `yaml:"emulator_loopback"`

	// LoopbackRewrite is the host-machine alias the emulator loopback
	// is rewritten to.
	LoopbackRewrite string `yaml:"loopback_rewrite"`

	// ForceRealWins flips the conflict policy when a request carries
	// both X-Force-Mock and X-Force-Real. Default: force-mock wins.
	ForceRealWins bool `yaml:"force_real_wins"`

	// Source optionally loads and hot-reloads the pattern rules from an
	// external document instead of this file.
	Source RuleSourceConfig `yaml:"source"`
}

// RuleSourceConfig selects where routing rules are loaded from.
type RuleSourceConfig struct {
	// Type is "none", "file", or "git".
	Type string `yaml:"type"`

	// Path is the rules document path. For the git source it is the
	// path within the repository.
	Path string `yaml:"path"`

	// Watch enables hot reload of the rules document.
	Watch bool `yaml:"watch"`

	// Git configures the git rule source.
	Git GitRuleSourceConfig `yaml:"git"`
}

// GitRuleSourceConfig configures rule sets shared through a git
// repository.
type GitRuleSourceConfig struct {
	// URL is the repository URL (any transport go-git supports,
	// including local paths).
	URL string `yaml:"url"`

	// Branch is the branch to track. Empty tracks the repository
	// default.
	Branch string `yaml:"branch"`

	// CheckoutDir is the local clone directory.
	CheckoutDir string `yaml:"checkout_dir"`

	// PollInterval is how often to pull for rule changes when watching.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// FallbackConfig controls retry-against-mock on real-backend errors.
type FallbackConfig struct {
	Enabled bool `yaml:"enabled"`

	// StatusCodes is the real-backend status set that triggers
	// fallback.
	StatusCodes []int `yaml:"status_codes"`

	// Timeout bounds the retry against the mock backend.
	Timeout time.Duration `yaml:"timeout"`
}

// EnhanceConfig controls blending of supplemental mock data into real
// success responses.
type EnhanceConfig struct {
	Enabled bool `yaml:"enabled"`

	// Timeout bounds the supplemental fetch from the mock backend.
	Timeout time.Duration `yaml:"timeout"`
}

// RecordingConfig controls selective exchange recording.
type RecordingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Path is the append-only JSONL recordings log.
	Path string `yaml:"path"`

	// IncludePatterns are paths to record (case-sensitive, anchored
	// regular expressions).
	IncludePatterns []string `yaml:"include_patterns"`

	// ExcludePatterns are paths never to record. They are checked
	// before include patterns and match case-insensitively.
	ExcludePatterns []string `yaml:"exclude_patterns"`

	// AsyncBuffer is the size of the async write channel.
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds a single store append.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Index optionally mirrors recordings into a queryable SQLite
	// index.
	Index IndexConfig `yaml:"index"`

	// Retention prunes the recordings log on a schedule.
	Retention RetentionConfig `yaml:"retention"`
}

// IndexConfig configures the SQLite exchange index.
type IndexConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// RetentionConfig configures pruning of the recordings log.
type RetentionConfig struct {
	// MaxAge drops recordings older than this. Zero disables the age
	// check.
	MaxAge time.Duration `yaml:"max_age"`

	// MaxRecords caps the log at the newest N recordings. Zero
	// disables the cap.
	MaxRecords int `yaml:"max_records"`

	// Schedule is a cron expression for automatic pruning. Empty
	// disables scheduled pruning.
	Schedule string `yaml:"schedule"`
}

// CompilerConfig contains serving metadata stamped into compiled route
// tables.
type CompilerConfig struct {
	// Name is the environment name of the generated route table.
	Name string `yaml:"name"`

	// Port is the port the mock server will serve the table on.
	Port int `yaml:"port"`

	// Hostname is the mock server bind host.
	Hostname string `yaml:"hostname"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn",
	// "error").
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the admin listener (metrics + health) address.
	ListenAddress string `yaml:"listen_address"`

	// Path is the metrics endpoint path.
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	Namespace string `yaml:"namespace"`
}
