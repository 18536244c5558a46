package intercept

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"meridian-hq/meridian/pkg/policy"
)

// FallbackConfig configures the fallback supervisor.
type FallbackConfig struct {
	// Enabled turns the supervisor on.
	Enabled bool

	// StatusCodes are the real-backend statuses that trigger a mock
	// retry.
	StatusCodes []int

	// Timeout bounds the mock retry.
	Timeout time.Duration

	// MockScheme, MockHost and MockPort address the mock backend.
	MockScheme string
	MockHost   string
	MockPort   int
}

// Supervisor retries real-backend server errors against the mock
// backend. The client sees the original error only when the mock has
// nothing better to offer.
type Supervisor struct {
	cfg      FallbackConfig
	statuses map[int]struct{}
	forward  *Interceptor
	logger   *slog.Logger
}

// NewSupervisor creates a fallback supervisor. A nil transport uses
// http.DefaultTransport.
func NewSupervisor(cfg FallbackConfig, transport http.RoundTripper, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}

	statuses := make(map[int]struct{}, len(cfg.StatusCodes))
	for _, code := range cfg.StatusCodes {
		statuses[code] = struct{}{}
	}

	return &Supervisor{
		cfg:      cfg,
		statuses: statuses,
		forward:  NewInterceptor(transport, 0, logger),
		logger:   logger.With("component", "intercept.fallback"),
	}
}

// Apply inspects a completed flow and, when it carries a qualifying
// real-backend error, retries it against the mock backend. On success
// the mock response replaces the flow's response; a mock 404 or any
// retry failure preserves the original error.
func (s *Supervisor) Apply(ctx context.Context, flow *Flow) {
	if !s.eligible(flow) {
		return
	}

	originalStatus := flow.StatusCode

	status, header, body, err := s.retryAgainstMock(ctx, flow)
	if err != nil {
		s.logger.Warn("fallback retry failed, keeping original error",
			"method", flow.Method,
			"path", flow.Path,
			"status", originalStatus,
			"error", err,
		)
		return
	}

	if status == http.StatusNotFound {
		s.logger.Debug("no mock route for failed request",
			"method", flow.Method,
			"path", flow.Path,
			"status", originalStatus,
		)
		return
	}

	// Overlay the mock response onto the flow, dropping headers tied
	// to the original connection or payload.
	merged := cloneHeader(flow.ResponseHeader)
	for name, values := range header {
		merged[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}
	for _, name := range []string{"Content-Length", "Transfer-Encoding", "Content-Encoding", "Connection", "Keep-Alive"} {
		merged.Del(name)
	}
	merged.Set(policy.HeaderFallbackMock, "true")

	flow.SetResponse(status, merged, body)
	flow.FallbackApplied = true

	s.logger.Info("replaced server error with mock response",
		"method", flow.Method,
		"path", flow.Path,
		"original_status", originalStatus,
		"mock_status", status,
	)
}

// eligible reports whether the flow qualifies for a mock retry.
func (s *Supervisor) eligible(flow *Flow) bool {
	if !s.cfg.Enabled || flow.FromMock {
		return false
	}
	_, ok := s.statuses[flow.StatusCode]
	return ok
}

// retryAgainstMock re-issues the flow's request against the mock
// backend.
func (s *Supervisor) retryAgainstMock(ctx context.Context, flow *Flow) (int, http.Header, []byte, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	target := fmt.Sprintf("%s://%s%s", s.cfg.MockScheme,
		net.JoinHostPort(s.cfg.MockHost, strconv.Itoa(s.cfg.MockPort)), flow.Path)
	if flow.Query != "" {
		target += "?" + flow.Query
	}

	req, err := Replay(ctx, flow, target)
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set(policy.HeaderMockedBy, policy.MockedByValue)

	return s.forward.Forward(ctx, req, policy.BackendMock)
}

// cloneHeader deep-copies an http.Header. A nil header clones to an
// empty one.
func cloneHeader(h http.Header) http.Header {
	clone := make(http.Header, len(h))
	for name, values := range h {
		clone[name] = append([]string(nil), values...)
	}
	return clone
}
