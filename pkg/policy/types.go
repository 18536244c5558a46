package policy

import (
	"net/http"
	"net/url"
)

// Backend identifies which upstream a flow is routed to.
type Backend int

const (
	// BackendReal is the upstream service the client intended to call.
	BackendReal Backend = iota
	// BackendMock is the local mock server.
	BackendMock
)

// String returns the backend name for logging and metrics labels.
func (b Backend) String() string {
	if b == BackendMock {
		return "mock"
	}
	return "real"
}

// RequestProfile is the read-only view of a request that the engine
// decides on.
type RequestProfile struct {
	// Method is the HTTP method.
	Method string

	// Host is the addressed host, with or without port.
	Host string

	// Path is the request path.
	Path string

	// Query is the parsed query string.
	Query url.Values

	// Header is the request header set.
	Header http.Header
}

// Decision is the transient outcome of rule evaluation for one request.
// It is computed fresh per flow and never persisted.
type Decision struct {
	// Backend is the chosen upstream.
	Backend Backend

	// NormalizedHost is non-empty when the emulator loopback alias was
	// rewritten to the local-machine alias. It applies to real-backend
	// flows; mock flows are retargeted wholesale.
	NormalizedHost string

	// TargetScheme, TargetHost and TargetPort describe the mock backend
	// when Backend is BackendMock.
	TargetScheme string
	TargetHost   string
	TargetPort   int

	// InjectHeaders are debug and scenario headers to add to the
	// forwarded request.
	InjectHeaders map[string]string

	// StripQueryKeys are query parameters to remove before forwarding.
	StripQueryKeys []string

	// Scenario is the test scenario forwarded to the mock backend, when
	// present.
	Scenario string

	// Reason records which rule class produced the decision, for
	// logging and metrics.
	Reason string
}

// Decision reasons, by rule class.
const (
	ReasonLoopback     = "loopback"
	ReasonForceMock    = "force_mock"
	ReasonForceReal    = "force_real"
	ReasonModeHeader   = "mode_header"
	ReasonQueryFlag    = "query_flag"
	ReasonScenario     = "scenario"
	ReasonDenyPattern  = "deny_pattern"
	ReasonAllowPattern = "allow_pattern"
	ReasonAllowDomain  = "allow_domain"
	ReasonPassthrough  = "passthrough"
)
