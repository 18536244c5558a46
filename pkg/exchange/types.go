package exchange

import (
	"strings"
	"time"

	"meridian-hq/meridian/pkg/jsonval"
)

// Exchange is one recorded request/response pair. It is immutable once
// recorded: the recorder builds it, appends it, and nothing updates it
// afterwards.
type Exchange struct {
	Timestamp time.Time `json:"timestamp"`
	Request   Request   `json:"request"`
	Response  Response  `json:"response"`
}

// Request is the request half of an exchange.
type Request struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Path    string            `json:"path"`
	Query   map[string]string `json:"query"`
	Headers map[string]string `json:"headers"`
	Body    jsonval.Value     `json:"body"`
}

// Response is the response half of an exchange.
type Response struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       jsonval.Value     `json:"body"`
}

// connectionScoped lists headers that describe one hop's transport
// framing rather than the payload. They must never appear in compiled
// routes or in fallback-replaced responses.
var connectionScoped = map[string]struct{}{
	"content-length":    {},
	"transfer-encoding": {},
	"content-encoding":  {},
	"connection":        {},
	"keep-alive":        {},
	"host":              {},
}

// IsConnectionScoped reports whether the named header is connection
// scoped. Header names are matched case-insensitively.
func IsConnectionScoped(name string) bool {
	_, ok := connectionScoped[strings.ToLower(name)]
	return ok
}
