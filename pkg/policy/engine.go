package policy

import (
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"sync"
)

// Config describes one engine's rule set. Multiple independently
// configured engines can coexist; there is no process-wide rule state.
type Config struct {
	// MockPatterns are allow patterns (anchored regular expressions
	// over the request path).
	MockPatterns []string

	// RealPatterns are deny patterns: always-real exceptions checked
	// before the allow patterns.
	RealPatterns []string

	// MockDomains are host substrings routed to the mock backend.
	MockDomains []string

	// EmulatorLoopback and LoopbackRewrite configure host
	// normalization. Leaving either empty disables it.
	EmulatorLoopback string
	LoopbackRewrite  string

	// MockScheme, MockHost and MockPort address the mock backend.
	MockScheme string
	MockHost   string
	MockPort   int

	// ForceRealWins resolves the force-mock/force-real conflict in
	// favor of the real backend. Default false: force-mock wins.
	ForceRealWins bool
}

// ruleSet is one compiled, immutable rule set. Reload swaps the whole
// set atomically, so Decide never observes a half-updated one.
type ruleSet struct {
	cfg          Config
	mockPatterns []*regexp.Regexp
	realPatterns []*regexp.Regexp
}

// Engine evaluates routing rules against request profiles.
type Engine struct {
	mu     sync.RWMutex
	rules  *ruleSet
	logger *slog.Logger
}

// New creates an engine from cfg. All patterns are compiled here; a
// malformed pattern is a construction error, never a per-request one.
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	rules, err := compileRules(cfg)
	if err != nil {
		return nil, err
	}

	return &Engine{
		rules:  rules,
		logger: logger.With("component", "policy.engine"),
	}, nil
}

// Reload atomically replaces the active rule set. On error the previous
// rule set stays in effect.
func (e *Engine) Reload(cfg Config) error {
	rules, err := compileRules(cfg)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.rules = rules
	e.mu.Unlock()

	e.logger.Info("routing rules reloaded",
		"mock_patterns", len(cfg.MockPatterns),
		"real_patterns", len(cfg.RealPatterns),
		"mock_domains", len(cfg.MockDomains),
	)
	return nil
}

// compileRules compiles a Config into an immutable rule set.
func compileRules(cfg Config) (*ruleSet, error) {
	allow, err := compilePatterns(cfg.MockPatterns, false)
	if err != nil {
		return nil, &ConfigError{Field: "mock_patterns", Cause: err}
	}
	deny, err := compilePatterns(cfg.RealPatterns, false)
	if err != nil {
		return nil, &ConfigError{Field: "real_patterns", Cause: err}
	}
	return &ruleSet{cfg: cfg, mockPatterns: allow, realPatterns: deny}, nil
}

// compilePatterns compiles patterns anchored at the start of the
// subject, optionally case-insensitive.
func compilePatterns(patterns []string, caseInsensitive bool) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pat := range patterns {
		full := `\A(?:` + pat + `)`
		if caseInsensitive {
			full = `(?i)` + full
		}
		re, err := regexp.Compile(full)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pat, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Decide computes the routing decision for one request. It is pure:
// deterministic given the rule set and the profile, with no side
// effects.
func (e *Engine) Decide(p *RequestProfile) *Decision {
	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()

	d := &Decision{Backend: BackendReal, Reason: ReasonPassthrough}
	hostname := hostOnly(p.Host)

	// Host normalization applies first, independent of every other
	// rule.
	if rules.cfg.EmulatorLoopback != "" && hostname == rules.cfg.EmulatorLoopback &&
		rules.cfg.LoopbackRewrite != "" {
		d.NormalizedHost = rules.cfg.LoopbackRewrite
	}

	backend, reason, resolved := rules.decideOverrides(p)
	if !resolved {
		backend, reason = rules.decidePatterns(hostname, p.Path)
	}
	d.Backend = backend
	d.Reason = reason

	if d.Backend == BackendMock {
		rules.retarget(d, p, hostname)
	}

	return d
}

// decideOverrides evaluates the explicit per-request overrides, which
// take precedence over pattern rules.
func (rs *ruleSet) decideOverrides(p *RequestProfile) (Backend, string, bool) {
	forceMock := isTruthy(p.Header.Get(HeaderForceMock))
	forceReal := isTruthy(p.Header.Get(HeaderForceReal))

	if forceMock && forceReal {
		if rs.cfg.ForceRealWins {
			return BackendReal, ReasonForceReal, true
		}
		return BackendMock, ReasonForceMock, true
	}
	if forceMock {
		return BackendMock, ReasonForceMock, true
	}
	if forceReal {
		return BackendReal, ReasonForceReal, true
	}

	switch strings.ToLower(p.Header.Get(HeaderMockMode)) {
	case "mock", "true":
		return BackendMock, ReasonModeHeader, true
	case "real", "false":
		return BackendReal, ReasonModeHeader, true
	}

	if isTruthy(p.Query.Get(QueryFlagMock)) {
		return BackendMock, ReasonQueryFlag, true
	}

	if p.Header.Get(HeaderTestScenario) != "" {
		return BackendMock, ReasonScenario, true
	}

	return BackendReal, "", false
}

// decidePatterns evaluates the pattern rules: deny first, then allow.
func (rs *ruleSet) decidePatterns(hostname, path string) (Backend, string) {
	for _, re := range rs.realPatterns {
		if re.MatchString(path) {
			return BackendReal, ReasonDenyPattern
		}
	}
	for _, re := range rs.mockPatterns {
		if re.MatchString(path) {
			return BackendMock, ReasonAllowPattern
		}
	}
	for _, domain := range rs.cfg.MockDomains {
		if domain != "" && strings.Contains(hostname, domain) {
			return BackendMock, ReasonAllowDomain
		}
	}
	return BackendReal, ReasonPassthrough
}

// retarget fills in the mock backend target and the header/query
// mutations the interceptor will apply.
func (rs *ruleSet) retarget(d *Decision, p *RequestProfile, hostname string) {
	d.TargetScheme = rs.cfg.MockScheme
	if d.TargetScheme == "" {
		d.TargetScheme = "http"
	}
	d.TargetHost = rs.cfg.MockHost
	d.TargetPort = rs.cfg.MockPort

	d.InjectHeaders = map[string]string{
		HeaderMockedBy:     MockedByValue,
		HeaderOriginalHost: hostname,
	}

	if scenario := p.Header.Get(HeaderTestScenario); scenario != "" {
		d.Scenario = scenario
		d.InjectHeaders[HeaderMockScenario] = scenario
	}

	// The flag must not be re-interpreted downstream of the engine.
	if isTruthy(p.Query.Get(QueryFlagMock)) {
		d.StripQueryKeys = append(d.StripQueryKeys, QueryFlagMock)
	}
}

// isTruthy reports whether a header or flag value means "yes".
func isTruthy(val string) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// hostOnly strips an optional port from a host.
func hostOnly(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// ConfigError reports a malformed rule set. It is fatal at load time.
type ConfigError struct {
	Field string
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("policy config error [field=%s]: %v", e.Field, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
