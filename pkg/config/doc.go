// Package config loads, defaults, overrides, and validates the Meridian
// configuration.
//
// Configuration is a YAML document:
//
//	proxy:
//	  listen_address: "127.0.0.1:8085"
//	mock_backend:
//	  host: mockoon
//	  port: 3000
//	routing:
//	  mock_patterns:
//	    - '^/api/v1/users/.*'
//	  real_patterns:
//	    - '^/api/v1/health$'
//	recording:
//	  enabled: true
//	  path: data/recordings.jsonl
//	  include_patterns: ['^/api/v1/.*']
//	  exclude_patterns: ['.*analytics.*']
//
// Values not present in the file receive defaults (ApplyDefaults), and
// MERIDIAN_* environment variables override both (see
// LoadConfigWithEnvOverrides).
//
// Validation compiles every rule pattern, so configuration errors are
// fatal at load time; the per-request decision path never sees a
// malformed rule.
package config
