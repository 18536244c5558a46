package intercept

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"meridian-hq/meridian/pkg/jsonval"
	"meridian-hq/meridian/pkg/policy"
)

// EnhanceConfig configures the response enhancer.
type EnhanceConfig struct {
	// Enabled turns the enhancer on.
	Enabled bool

	// Timeout bounds the supplemental-data fetch.
	Timeout time.Duration

	// MockScheme, MockHost and MockPort address the mock backend.
	MockScheme string
	MockHost   string
	MockPort   int
}

// Enhancer blends supplemental mock data into successful real-backend
// responses, on request. Enhancement is strictly best-effort: every
// failure leaves the response untouched.
type Enhancer struct {
	cfg     EnhanceConfig
	forward *Interceptor
	logger  *slog.Logger
}

// NewEnhancer creates a response enhancer. A nil transport uses
// http.DefaultTransport.
func NewEnhancer(cfg EnhanceConfig, transport http.RoundTripper, logger *slog.Logger) *Enhancer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enhancer{
		cfg:     cfg,
		forward: NewInterceptor(transport, 0, logger),
		logger:  logger.With("component", "intercept.enhance"),
	}
}

// Apply enhances the flow's response when all conditions hold: the
// client sent the enhance header, the response is a real-backend 200,
// and both bodies are structured JSON that merge cleanly.
func (e *Enhancer) Apply(ctx context.Context, flow *Flow) {
	if !e.eligible(flow) {
		return
	}

	real, err := jsonval.Decode(flow.ResponseBody)
	if err != nil || !real.IsStructured() {
		return
	}

	supplemental, err := e.fetchSupplemental(ctx, flow)
	if err != nil {
		e.logger.Warn("supplemental data fetch failed, response unchanged",
			"path", flow.Path,
			"error", err,
		)
		return
	}

	merged, ok := jsonval.Merge(real, supplemental)
	if !ok {
		e.logger.Debug("response and supplemental shapes do not merge",
			"path", flow.Path,
		)
		return
	}

	body, err := merged.Encode()
	if err != nil {
		e.logger.Warn("failed to encode merged response", "error", err)
		return
	}

	header := cloneHeader(flow.ResponseHeader)
	header.Del("Content-Length")
	header.Set(policy.HeaderEnhanced, "true")

	flow.SetResponse(flow.StatusCode, header, body)
	flow.Enhanced = true

	e.logger.Info("blended supplemental mock data into response",
		"method", flow.Method,
		"path", flow.Path,
	)
}

// eligible reports whether the flow qualifies for enhancement.
func (e *Enhancer) eligible(flow *Flow) bool {
	if !e.cfg.Enabled || flow.Mocked() {
		return false
	}
	if flow.StatusCode != http.StatusOK {
		return false
	}
	return flow.RequestHeader.Get(policy.HeaderEnhanceResponse) == "true"
}

// fetchSupplemental asks the mock backend for data to blend into the
// response for the flow's original path.
func (e *Enhancer) fetchSupplemental(ctx context.Context, flow *Flow) (jsonval.Value, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	target := fmt.Sprintf("%s://%s/enhance?path=%s", e.cfg.MockScheme,
		net.JoinHostPort(e.cfg.MockHost, strconv.Itoa(e.cfg.MockPort)),
		url.QueryEscape(flow.Path))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return jsonval.Null(), err
	}
	req.Header.Set(policy.HeaderOriginalPath, flow.Path)

	status, _, body, err := e.forward.Forward(ctx, req, policy.BackendMock)
	if err != nil {
		return jsonval.Null(), err
	}
	if status != http.StatusOK {
		return jsonval.Null(), fmt.Errorf("enhance endpoint returned status %d", status)
	}

	supplemental, err := jsonval.Decode(body)
	if err != nil {
		return jsonval.Null(), fmt.Errorf("enhance endpoint returned invalid JSON: %w", err)
	}
	return supplemental, nil
}
