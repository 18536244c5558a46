package proxy

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"meridian-hq/meridian/pkg/exchange/recorder"
	"meridian-hq/meridian/pkg/intercept"
	"meridian-hq/meridian/pkg/policy"
	"meridian-hq/meridian/pkg/telemetry/metrics"
)

// maxRequestBody bounds how much of a request body is buffered for
// forwarding and recording.
const maxRequestBody = 10 << 20

// Handler proxies HTTP traffic through the interception pipeline.
type Handler struct {
	engine      *policy.Engine
	interceptor *intercept.Interceptor
	fallback    *intercept.Supervisor
	enhancer    *intercept.Enhancer
	recorder    *recorder.Recorder
	collector   *metrics.Collector
	logger      *slog.Logger
}

// NewHandler assembles the pipeline. recorder may be nil when
// recording is disabled; a nil collector gets a disabled one.
func NewHandler(
	engine *policy.Engine,
	interceptor *intercept.Interceptor,
	fallback *intercept.Supervisor,
	enhancer *intercept.Enhancer,
	rec *recorder.Recorder,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Handler {
	if collector == nil {
		collector = metrics.NewCollector(metrics.Config{})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine:      engine,
		interceptor: interceptor,
		fallback:    fallback,
		enhancer:    enhancer,
		recorder:    rec,
		collector:   collector,
		logger:      logger.With("component", "proxy"),
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodConnect {
		h.tunnel(w, r)
		return
	}

	started := time.Now()
	flow, err := h.run(r)
	if err != nil {
		h.logger.Error("request pipeline failed",
			"method", r.Method,
			"url", r.URL.String(),
			"error", err,
		)
		http.Error(w, "proxy error", http.StatusBadGateway)
		return
	}

	h.collector.ObserveRequest(flow.Decision.Backend.String(), time.Since(started))

	if h.recorder != nil {
		h.recorder.Offer(flow)
	}

	h.write(w, flow)
}

// run executes the interception pipeline for one request and returns
// the completed flow.
func (h *Handler) run(r *http.Request) (*intercept.Flow, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	r.Body.Close()

	host := r.Host
	if r.URL.Host != "" {
		host = r.URL.Host
	}

	profile := &policy.RequestProfile{
		Method: r.Method,
		Host:   host,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header,
	}
	decision := h.engine.Decide(profile)
	h.collector.RecordDecision(decision.Backend.String(), decision.Reason)

	outbound, originalURL, err := h.outboundRequest(r, body)
	if err != nil {
		return nil, err
	}
	h.interceptor.Rewrite(outbound, decision)

	flow := &intercept.Flow{
		StartedAt:     time.Now(),
		Method:        r.Method,
		OriginalURL:   originalURL,
		Path:          r.URL.Path,
		Query:         outbound.URL.RawQuery,
		RequestHeader: outbound.Header,
		RequestBody:   body,
		Decision:      decision,
	}

	status, header, respBody, err := h.interceptor.Forward(r.Context(), outbound, decision.Backend)
	if err != nil {
		// The fallback supervisor may still rescue the flow, so the
		// transport failure becomes a synthetic 502 rather than an
		// immediate error to the client.
		h.logger.Warn("upstream request failed",
			"backend", decision.Backend.String(),
			"url", outbound.URL.String(),
			"error", err,
		)
		flow.SetResponse(http.StatusBadGateway, http.Header{
			"Content-Type": []string{"text/plain; charset=utf-8"},
		}, []byte("upstream unreachable"))
	} else {
		flow.SetResponse(status, header, respBody)
		flow.FromMock = decision.Backend == policy.BackendMock
	}

	if h.fallback != nil {
		h.fallback.Apply(r.Context(), flow)
		if flow.FallbackApplied {
			h.collector.RecordFallback("applied")
		}
	}
	if h.enhancer != nil {
		h.enhancer.Apply(r.Context(), flow)
		if flow.Enhanced {
			h.collector.RecordEnhancement("applied")
		}
	}

	return flow, nil
}

// outboundRequest builds the upstream request from the inbound one.
// Absolute-form URLs (normal proxy requests) are used as-is;
// origin-form requests are completed from the Host header.
func (h *Handler) outboundRequest(r *http.Request, body []byte) (*http.Request, string, error) {
	target := *r.URL
	if target.Host == "" {
		target.Host = r.Host
	}
	if target.Scheme == "" {
		target.Scheme = "http"
	}
	originalURL := target.String()

	outbound, err := http.NewRequest(r.Method, originalURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build upstream request: %w", err)
	}
	outbound.Header = r.Header.Clone()
	if len(body) > 0 {
		outbound.Body = io.NopCloser(bytes.NewReader(body))
		outbound.ContentLength = int64(len(body))
	}
	return outbound, originalURL, nil
}

// write sends the flow's response to the client, tagged with the
// serving mode.
func (h *Handler) write(w http.ResponseWriter, flow *intercept.Flow) {
	header := flow.ResponseHeader
	if header == nil {
		header = http.Header{}
	}
	intercept.RemoveHopByHop(header)
	header.Del("Content-Length")

	mode := policy.MockModeReal
	if flow.Mocked() {
		mode = policy.MockModeMocked
	}
	header.Set(policy.HeaderMockMode, mode)
	if flow.Decision.Scenario != "" && flow.Mocked() {
		header.Set(policy.HeaderMockScenario, flow.Decision.Scenario)
	}

	dst := w.Header()
	for name, values := range header {
		dst[name] = values
	}
	w.WriteHeader(flow.StatusCode)
	if len(flow.ResponseBody) > 0 {
		w.Write(flow.ResponseBody)
	}
}
