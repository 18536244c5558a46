package intercept

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"meridian-hq/meridian/pkg/policy"
)

// mockTarget extracts the host and port of an httptest server.
func mockTarget(t *testing.T, srv *httptest.Server) (string, int) {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("failed to parse server URL: %v", err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatalf("failed to split server host: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func TestRemoveHopByHop(t *testing.T) {
	h := http.Header{}
	h.Set("Connection", "close, X-Custom-Session")
	h.Set("Keep-Alive", "timeout=5")
	h.Set("Transfer-Encoding", "chunked")
	h.Set("X-Custom-Session", "abc")
	h.Set("Content-Type", "application/json")

	RemoveHopByHop(h)

	for _, name := range []string{"Connection", "Keep-Alive", "Transfer-Encoding", "X-Custom-Session"} {
		if h.Get(name) != "" {
			t.Errorf("header %s survived RemoveHopByHop", name)
		}
	}
	if h.Get("Content-Type") != "application/json" {
		t.Error("end-to-end header was dropped")
	}
}

func TestInterceptor_Rewrite_MockRetarget(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/api/v1/users/7?mock=true&page=2", nil)

	d := &policy.Decision{
		Backend:      policy.BackendMock,
		TargetScheme: "http",
		TargetHost:   "mockoon",
		TargetPort:   3000,
		InjectHeaders: map[string]string{
			policy.HeaderMockedBy:     policy.MockedByValue,
			policy.HeaderOriginalHost: "api.example.com",
		},
		StripQueryKeys: []string{policy.QueryFlagMock},
	}

	NewInterceptor(nil, 0, nil).Rewrite(req, d)

	if req.URL.Scheme != "http" || req.URL.Host != "mockoon:3000" || req.Host != "mockoon:3000" {
		t.Errorf("target = %s://%s (host %s)", req.URL.Scheme, req.URL.Host, req.Host)
	}
	if req.Header.Get(policy.HeaderMockedBy) != policy.MockedByValue {
		t.Error("debug header not injected")
	}
	if req.Header.Get(policy.HeaderOriginalHost) != "api.example.com" {
		t.Error("original host header not injected")
	}
	q := req.URL.Query()
	if q.Has("mock") {
		t.Error("mock flag survived query stripping")
	}
	if q.Get("page") != "2" {
		t.Error("unrelated query parameter was dropped")
	}
}

func TestInterceptor_Rewrite_LoopbackHost(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://10.0.2.2:8080/api/v1/data", nil)

	NewInterceptor(nil, 0, nil).Rewrite(req, &policy.Decision{
		Backend:        policy.BackendReal,
		NormalizedHost: "localhost",
	})

	if req.URL.Host != "localhost:8080" || req.Host != "localhost:8080" {
		t.Errorf("host = %s (req.Host %s), want localhost:8080", req.URL.Host, req.Host)
	}
}

func TestInterceptor_Rewrite_PassthroughUntouched(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/api/v1/data?a=1", nil)

	NewInterceptor(nil, 0, nil).Rewrite(req, &policy.Decision{Backend: policy.BackendReal})

	if req.URL.Host != "api.example.com" || req.URL.RawQuery != "a=1" {
		t.Errorf("passthrough request was mutated: %s?%s", req.URL.Host, req.URL.RawQuery)
	}
}

func TestInterceptor_Forward(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/x", nil)
	status, header, body, err := NewInterceptor(nil, time.Second, nil).Forward(context.Background(), req, policy.BackendReal)
	if err != nil {
		t.Fatalf("Forward() failed: %v", err)
	}
	if status != http.StatusCreated {
		t.Errorf("status = %d, want 201", status)
	}
	if header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", header.Get("Content-Type"))
	}
	if string(body) != `{"id":1}` {
		t.Errorf("body = %q", body)
	}
}

func TestInterceptor_Forward_TransportError(t *testing.T) {
	// A closed server gives a connection error.
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	req, _ := http.NewRequest(http.MethodGet, addr+"/x", nil)
	_, _, _, err := NewInterceptor(nil, time.Second, nil).Forward(context.Background(), req, policy.BackendReal)
	if err == nil {
		t.Fatal("Forward() succeeded against a closed server")
	}
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("error type = %T, want *TransportError", err)
	}
	if terr.Backend != policy.BackendReal {
		t.Errorf("TransportError.Backend = %s, want real", terr.Backend)
	}
}

// failedFlow builds a flow representing a real-backend error response.
func failedFlow(status int) *Flow {
	return &Flow{
		Method:        http.MethodGet,
		Path:          "/api/v1/users/7",
		Query:         "page=2",
		RequestHeader: http.Header{"Accept": []string{"application/json"}},
		StatusCode:    status,
		ResponseHeader: http.Header{
			"Content-Type": []string{"text/plain"},
			"X-Request-Id": []string{"r1"},
		},
		ResponseBody: []byte("upstream exploded"),
	}
}

func supervisorFor(t *testing.T, srv *httptest.Server, enabled bool) *Supervisor {
	t.Helper()
	host, port := mockTarget(t, srv)
	return NewSupervisor(FallbackConfig{
		Enabled:     enabled,
		StatusCodes: []int{500, 502, 503, 504},
		Timeout:     5 * time.Second,
		MockScheme:  "http",
		MockHost:    host,
		MockPort:    port,
	}, nil, nil)
}

func TestSupervisor_Apply_ReplacesServerError(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":7}`))
	}))
	defer srv.Close()

	flow := failedFlow(http.StatusServiceUnavailable)
	supervisorFor(t, srv, true).Apply(context.Background(), flow)

	if !flow.FallbackApplied {
		t.Fatal("fallback was not applied")
	}
	if gotPath != "/api/v1/users/7" || gotQuery != "page=2" {
		t.Errorf("mock saw %s?%s", gotPath, gotQuery)
	}
	if flow.StatusCode != http.StatusOK || string(flow.ResponseBody) != `{"id":7}` {
		t.Errorf("response = %d %q", flow.StatusCode, flow.ResponseBody)
	}
	if flow.ResponseHeader.Get("Content-Type") != "application/json" {
		t.Error("mock header did not overlay the original")
	}
	if flow.ResponseHeader.Get("X-Request-Id") != "r1" {
		t.Error("original header not in overlay result")
	}
	if flow.ResponseHeader.Get(policy.HeaderFallbackMock) != "true" {
		t.Error("fallback marker header missing")
	}
}

func TestSupervisor_Apply_MockNotFoundPreservesError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	flow := failedFlow(http.StatusInternalServerError)
	supervisorFor(t, srv, true).Apply(context.Background(), flow)

	if flow.FallbackApplied {
		t.Fatal("fallback applied despite mock 404")
	}
	if flow.StatusCode != http.StatusInternalServerError || string(flow.ResponseBody) != "upstream exploded" {
		t.Errorf("original error was not preserved: %d %q", flow.StatusCode, flow.ResponseBody)
	}
}

func TestSupervisor_Apply_Skips(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("mock backend should not have been contacted")
	}))
	defer srv.Close()

	t.Run("disabled", func(t *testing.T) {
		flow := failedFlow(http.StatusInternalServerError)
		supervisorFor(t, srv, false).Apply(context.Background(), flow)
		if flow.FallbackApplied {
			t.Error("fallback applied while disabled")
		}
	})

	t.Run("non-qualifying status", func(t *testing.T) {
		flow := failedFlow(http.StatusBadRequest)
		supervisorFor(t, srv, true).Apply(context.Background(), flow)
		if flow.FallbackApplied {
			t.Error("fallback applied for a client error")
		}
	})

	t.Run("already mocked", func(t *testing.T) {
		flow := failedFlow(http.StatusInternalServerError)
		flow.FromMock = true
		supervisorFor(t, srv, true).Apply(context.Background(), flow)
		if flow.FallbackApplied {
			t.Error("fallback applied to a mock response")
		}
	})
}

func TestSupervisor_Apply_TransportErrorPreservesOriginal(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	supervisor := supervisorFor(t, srv, true)
	srv.Close()

	flow := failedFlow(http.StatusBadGateway)
	supervisor.Apply(context.Background(), flow)

	if flow.FallbackApplied || flow.StatusCode != http.StatusBadGateway {
		t.Errorf("original error not preserved: %+v", flow.StatusCode)
	}
}

// okFlow builds a flow for a successful real-backend JSON response.
func okFlow(body string, enhance bool) *Flow {
	h := http.Header{}
	if enhance {
		h.Set(policy.HeaderEnhanceResponse, "true")
	}
	return &Flow{
		Method:         http.MethodGet,
		Path:           "/api/v1/users/7",
		RequestHeader:  h,
		StatusCode:     http.StatusOK,
		ResponseHeader: http.Header{"Content-Type": []string{"application/json"}},
		ResponseBody:   []byte(body),
	}
}

func enhancerFor(t *testing.T, srv *httptest.Server) *Enhancer {
	t.Helper()
	host, port := mockTarget(t, srv)
	return NewEnhancer(EnhanceConfig{
		Enabled:    true,
		Timeout:    2 * time.Second,
		MockScheme: "http",
		MockHost:   host,
		MockPort:   port,
	}, nil, nil)
}

func TestEnhancer_Apply_MergesSupplementalData(t *testing.T) {
	var gotPath, gotOriginal string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotOriginal = r.Header.Get(policy.HeaderOriginalPath)
		w.Write([]byte(`{"premium":true,"credits":100}`))
	}))
	defer srv.Close()

	flow := okFlow(`{"id":7,"name":"ada"}`, true)
	enhancerFor(t, srv).Apply(context.Background(), flow)

	if !flow.Enhanced {
		t.Fatal("response was not enhanced")
	}
	if gotPath != "/enhance?path="+url.QueryEscape("/api/v1/users/7") {
		t.Errorf("enhance fetch path = %q", gotPath)
	}
	if gotOriginal != "/api/v1/users/7" {
		t.Errorf("original path header = %q", gotOriginal)
	}

	var merged map[string]interface{}
	if err := json.Unmarshal(flow.ResponseBody, &merged); err != nil {
		t.Fatalf("merged body is not JSON: %v", err)
	}
	for _, key := range []string{"id", "name", "premium", "credits"} {
		if _, ok := merged[key]; !ok {
			t.Errorf("merged body missing key %q", key)
		}
	}
	if flow.ResponseHeader.Get(policy.HeaderEnhanced) != "true" {
		t.Error("enhanced marker header missing")
	}
}

func TestEnhancer_Apply_Skips(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"extra":1}`))
	}))
	defer srv.Close()
	enhancer := enhancerFor(t, srv)

	tests := []struct {
		name string
		flow *Flow
	}{
		{"no enhance header", okFlow(`{"id":7}`, false)},
		{"non-200 status", func() *Flow {
			f := okFlow(`{"id":7}`, true)
			f.StatusCode = http.StatusNoContent
			return f
		}()},
		{"mocked response", func() *Flow {
			f := okFlow(`{"id":7}`, true)
			f.FromMock = true
			return f
		}()},
		{"non-JSON body", okFlow(`<html></html>`, true)},
		{"scalar body", okFlow(`42`, true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := string(tt.flow.ResponseBody)
			enhancer.Apply(context.Background(), tt.flow)
			if tt.flow.Enhanced {
				t.Error("flow was enhanced")
			}
			if string(tt.flow.ResponseBody) != before {
				t.Error("response body changed")
			}
		})
	}
}

func TestEnhancer_Apply_FetchFailureLeavesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	flow := okFlow(`{"id":7}`, true)
	enhancerFor(t, srv).Apply(context.Background(), flow)

	if flow.Enhanced || string(flow.ResponseBody) != `{"id":7}` {
		t.Errorf("response changed after failed fetch: %q", flow.ResponseBody)
	}
}

func TestEnhancer_Apply_IncompatibleShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[1,2,3]`))
	}))
	defer srv.Close()

	flow := okFlow(`{"id":7}`, true)
	enhancerFor(t, srv).Apply(context.Background(), flow)

	if flow.Enhanced {
		t.Error("object merged with array supplement")
	}
}
