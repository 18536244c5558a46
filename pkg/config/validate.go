package config

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// ValidationError aggregates configuration problems found at load time.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Problems, "; "))
}

// Validate checks the configuration for errors. All rule patterns are
// compiled here so that a malformed pattern is a startup failure instead
// of a per-request one.
func Validate(cfg *Config) error {
	var problems []string

	if _, _, err := net.SplitHostPort(cfg.Proxy.ListenAddress); err != nil {
		problems = append(problems, fmt.Sprintf("proxy.listen_address %q: %v", cfg.Proxy.ListenAddress, err))
	}

	switch cfg.MockBackend.Scheme {
	case "http", "https":
	default:
		problems = append(problems, fmt.Sprintf("mock_backend.scheme %q: must be http or https", cfg.MockBackend.Scheme))
	}
	if cfg.MockBackend.Host == "" {
		problems = append(problems, "mock_backend.host: must not be empty")
	}
	if cfg.MockBackend.Port < 1 || cfg.MockBackend.Port > 65535 {
		problems = append(problems, fmt.Sprintf("mock_backend.port %d: out of range", cfg.MockBackend.Port))
	}

	problems = append(problems, checkPatterns("routing.mock_patterns", cfg.Routing.MockPatterns)...)
	problems = append(problems, checkPatterns("routing.real_patterns", cfg.Routing.RealPatterns)...)
	problems = append(problems, checkPatterns("recording.include_patterns", cfg.Recording.IncludePatterns)...)
	problems = append(problems, checkPatterns("recording.exclude_patterns", cfg.Recording.ExcludePatterns)...)

	switch cfg.Routing.Source.Type {
	case "none", "file", "git":
	default:
		problems = append(problems, fmt.Sprintf("routing.source.type %q: must be none, file, or git", cfg.Routing.Source.Type))
	}
	if cfg.Routing.Source.Type == "file" && cfg.Routing.Source.Path == "" {
		problems = append(problems, "routing.source.path: required for the file source")
	}
	if cfg.Routing.Source.Type == "git" {
		if cfg.Routing.Source.Git.URL == "" {
			problems = append(problems, "routing.source.git.url: required for the git source")
		}
		if cfg.Routing.Source.Path == "" {
			problems = append(problems, "routing.source.path: required for the git source")
		}
	}

	for _, code := range cfg.Fallback.StatusCodes {
		if code < 100 || code > 599 {
			problems = append(problems, fmt.Sprintf("fallback.status_codes: %d is not an HTTP status", code))
		}
	}
	if cfg.Fallback.Timeout <= 0 {
		problems = append(problems, "fallback.timeout: must be positive")
	}
	if cfg.Enhance.Timeout <= 0 {
		problems = append(problems, "enhance.timeout: must be positive")
	}

	if cfg.Recording.Enabled && cfg.Recording.Path == "" {
		problems = append(problems, "recording.path: required when recording is enabled")
	}
	if cfg.Recording.Index.Enabled && cfg.Recording.Index.Path == "" {
		problems = append(problems, "recording.index.path: required when the index is enabled")
	}
	if cfg.Recording.AsyncBuffer < 1 {
		problems = append(problems, "recording.async_buffer: must be at least 1")
	}
	if cfg.Recording.Retention.MaxRecords < 0 {
		problems = append(problems, "recording.retention.max_records: must not be negative")
	}

	if cfg.Compiler.Port < 1 || cfg.Compiler.Port > 65535 {
		problems = append(problems, fmt.Sprintf("compiler.port %d: out of range", cfg.Compiler.Port))
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("telemetry.logging.level %q: must be debug, info, warn, or error", cfg.Telemetry.Logging.Level))
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("telemetry.logging.format %q: must be json or text", cfg.Telemetry.Logging.Format))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// checkPatterns compiles each pattern and reports the ones that fail.
func checkPatterns(field string, patterns []string) []string {
	var problems []string
	for _, pat := range patterns {
		if _, err := regexp.Compile(pat); err != nil {
			problems = append(problems, fmt.Sprintf("%s: invalid pattern %q: %v", field, pat, err))
		}
	}
	return problems
}
