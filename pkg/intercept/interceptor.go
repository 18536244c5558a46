package intercept

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"meridian-hq/meridian/pkg/policy"
)

// hopByHopHeaders are connection-scoped request and response headers
// that must not be forwarded through the proxy.
var hopByHopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// RemoveHopByHop strips connection-scoped headers, including any named
// by the Connection header itself.
func RemoveHopByHop(h http.Header) {
	for _, field := range h.Values("Connection") {
		for _, name := range strings.Split(field, ",") {
			if name = strings.TrimSpace(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
}

// Interceptor rewrites requests per a routing decision and forwards
// them upstream.
type Interceptor struct {
	transport http.RoundTripper
	timeout   time.Duration
	logger    *slog.Logger
}

// NewInterceptor creates an interceptor. A nil transport uses
// http.DefaultTransport; a zero timeout disables the per-request
// deadline.
func NewInterceptor(transport http.RoundTripper, timeout time.Duration, logger *slog.Logger) *Interceptor {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Interceptor{
		transport: transport,
		timeout:   timeout,
		logger:    logger.With("component", "intercept"),
	}
}

// Rewrite mutates req in place per the decision: mock flows are
// retargeted wholesale, real flows get at most the loopback host
// rewrite.
func (i *Interceptor) Rewrite(req *http.Request, d *policy.Decision) {
	if d.Backend == policy.BackendMock {
		target := net.JoinHostPort(d.TargetHost, strconv.Itoa(d.TargetPort))
		req.URL.Scheme = d.TargetScheme
		req.URL.Host = target
		req.Host = target

		for name, value := range d.InjectHeaders {
			req.Header.Set(name, value)
		}

		if len(d.StripQueryKeys) > 0 {
			q := req.URL.Query()
			for _, key := range d.StripQueryKeys {
				q.Del(key)
			}
			req.URL.RawQuery = q.Encode()
		}
		return
	}

	if d.NormalizedHost != "" {
		host := d.NormalizedHost
		if _, port, err := net.SplitHostPort(req.URL.Host); err == nil {
			host = net.JoinHostPort(d.NormalizedHost, port)
		}
		req.URL.Host = host
		req.Host = host
	}
}

// Forward sends req upstream and reads the full response. The response
// body is fully buffered so downstream stages can inspect and replace
// it.
func (i *Interceptor) Forward(ctx context.Context, req *http.Request, backend policy.Backend) (int, http.Header, []byte, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	RemoveHopByHop(req.Header)
	if req.Body == nil && req.ContentLength == 0 {
		req.Body = http.NoBody
	}

	resp, err := i.transport.RoundTrip(req.WithContext(ctx))
	if err != nil {
		return 0, nil, nil, NewTransportError(backend, req.URL.String(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, NewTransportError(backend, req.URL.String(), err)
	}

	return resp.StatusCode, resp.Header, body, nil
}

// Replay builds a fresh outbound request that repeats a flow's request
// against a different target URL. The recorded request body is reused.
func Replay(ctx context.Context, flow *Flow, targetURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, flow.Method, targetURL, bytes.NewReader(flow.RequestBody))
	if err != nil {
		return nil, err
	}
	for name, values := range flow.RequestHeader {
		req.Header[name] = append([]string(nil), values...)
	}
	RemoveHopByHop(req.Header)
	req.Header.Del("Host")
	return req, nil
}
