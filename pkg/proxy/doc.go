// Package proxy is the HTTP interception engine's serving layer.
//
// The Handler runs each plain-HTTP request through the full pipeline:
// decide (pkg/policy), rewrite and forward (pkg/intercept), fallback,
// enhance, record (pkg/exchange/recorder), respond. CONNECT requests
// are tunneled byte-for-byte; TLS traffic is never decrypted, only the
// tunnel target is subject to loopback rewriting.
//
// Server owns the listener lifecycle: the proxy endpoint itself plus
// an optional admin endpoint serving /healthz and /metrics, both shut
// down gracefully on signal or context cancellation.
package proxy
