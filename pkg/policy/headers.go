package policy

// Client override headers recognized by the decision engine. Names are
// matched case-insensitively and forwarded case-preserving.
const (
	// HeaderForceMock forces the mock backend, even for paths matching
	// an always-real pattern.
	HeaderForceMock = "X-Force-Mock"

	// HeaderForceReal forces the real backend, even for paths matching
	// a mock-allow pattern.
	HeaderForceReal = "X-Force-Real"

	// HeaderMockMode selects the backend per request:
	// "mock"/"true" → mock, "real"/"false" → real.
	HeaderMockMode = "X-Mock-Mode"

	// HeaderTestScenario names a mock scenario; its presence routes to
	// the mock backend and the value is forwarded as HeaderMockScenario.
	HeaderTestScenario = "X-Test-Scenario"

	// HeaderEnhanceResponse requests that a real success response be
	// blended with supplemental mock data.
	HeaderEnhanceResponse = "X-Enhance-Response"

	// QueryFlagMock is the boolean query flag equivalent of forcing the
	// mock backend (mock=true|1|yes). The flag is stripped before
	// forwarding so it is not re-interpreted downstream.
	QueryFlagMock = "mock"
)

// Debug headers injected by the engine.
const (
	// HeaderMockedBy marks requests redirected to the mock backend.
	HeaderMockedBy = "X-Mocked-By"

	// HeaderOriginalHost carries the host the client originally
	// addressed.
	HeaderOriginalHost = "X-Original-Host"

	// HeaderMockScenario forwards the test scenario to the mock backend
	// and tags the response when a scenario was used.
	HeaderMockScenario = "X-Mock-Scenario"

	// HeaderFallbackMock tags responses replaced by the fallback
	// supervisor.
	HeaderFallbackMock = "X-Fallback-Mock"

	// HeaderEnhanced tags responses blended with supplemental mock
	// data.
	HeaderEnhanced = "X-Enhanced"

	// HeaderOriginalPath carries the original request path on
	// supplemental-data fetches.
	HeaderOriginalPath = "X-Original-Path"
)

// MockedByValue is the HeaderMockedBy value stamped on redirected
// requests.
const MockedByValue = "meridian"

// Response-side values for HeaderMockMode.
const (
	MockModeMocked = "mocked"
	MockModeReal   = "real"
)
