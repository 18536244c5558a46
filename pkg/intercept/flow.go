package intercept

import (
	"net/http"
	"time"

	"meridian-hq/meridian/pkg/policy"
)

// Flow is the mutable record of one proxied request. It is created by
// the proxy handler, threaded through the interception stages, and
// finally handed to the recorder. A Flow belongs to a single goroutine.
type Flow struct {
	// StartedAt is when the proxy accepted the request.
	StartedAt time.Time

	// Method is the HTTP method.
	Method string

	// OriginalURL is the full URL the client requested, before any
	// rewriting.
	OriginalURL string

	// Path is the request path.
	Path string

	// Query is the raw query string after flag stripping.
	Query string

	// RequestHeader and RequestBody capture the request as forwarded.
	RequestHeader http.Header
	RequestBody   []byte

	// Decision is the routing decision the flow was executed under.
	Decision *policy.Decision

	// StatusCode, ResponseHeader and ResponseBody capture the response
	// as it will be returned to the client.
	StatusCode     int
	ResponseHeader http.Header
	ResponseBody   []byte

	// FromMock reports whether the response came from the mock backend
	// on the first attempt.
	FromMock bool

	// FallbackApplied reports whether the fallback supervisor replaced
	// a real-backend error with a mock response.
	FallbackApplied bool

	// Enhanced reports whether supplemental mock data was blended into
	// the response body.
	Enhanced bool
}

// Mocked reports whether the response ultimately came from the mock
// backend, either by routing or by fallback.
func (f *Flow) Mocked() bool {
	return f.FromMock || f.FallbackApplied
}

// SetResponse records a response on the flow, replacing any previous
// one.
func (f *Flow) SetResponse(statusCode int, header http.Header, body []byte) {
	f.StatusCode = statusCode
	f.ResponseHeader = header
	f.ResponseBody = body
}
