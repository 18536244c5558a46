package recorder

import (
	"net/http"
	"sync"
	"testing"

	"meridian-hq/meridian/pkg/exchange/storage"
	"meridian-hq/meridian/pkg/intercept"
	"meridian-hq/meridian/pkg/jsonval"
)

func TestFilter_ShouldRecord(t *testing.T) {
	filter, err := NewFilter(
		[]string{`^/api/v1/users/.*`, `^/api/v1/orders.*`},
		[]string{`^/api/v1/analytics.*`, `^/api/v1/telemetry.*`},
	)
	if err != nil {
		t.Fatalf("NewFilter() failed: %v", err)
	}

	tests := []struct {
		path string
		want bool
	}{
		{"/api/v1/users/42", true},
		{"/api/v1/orders", true},
		{"/api/v1/products", false},
		{"/api/v1/analytics/events", false},
		// Excludes win even when an include also matches, and match
		// case-insensitively.
		{"/API/V1/ANALYTICS/events", false},
		{"/API/V1/USERS/42", false},
		{"/nested/api/v1/users/42", false},
	}

	for _, tt := range tests {
		if got := filter.ShouldRecord(tt.path); got != tt.want {
			t.Errorf("ShouldRecord(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestFilter_ExcludeBeatsInclude(t *testing.T) {
	filter, err := NewFilter(
		[]string{`^/api/.*`},
		[]string{`^/api/v1/analytics.*`},
	)
	if err != nil {
		t.Fatalf("NewFilter() failed: %v", err)
	}

	if filter.ShouldRecord("/api/v1/analytics/batch") {
		t.Error("excluded path was admitted by the broad include")
	}
	if !filter.ShouldRecord("/api/v1/users/1") {
		t.Error("included path was rejected")
	}
}

func TestFilter_EmptyIncludeAdmitsAll(t *testing.T) {
	filter, err := NewFilter(nil, []string{`^/internal/.*`})
	if err != nil {
		t.Fatalf("NewFilter() failed: %v", err)
	}

	if !filter.ShouldRecord("/anything/at/all") {
		t.Error("empty include list rejected a path")
	}
	if filter.ShouldRecord("/internal/state") {
		t.Error("exclude was ignored with an empty include list")
	}
}

func TestNewFilter_InvalidPattern(t *testing.T) {
	if _, err := NewFilter([]string{`(`}, nil); err == nil {
		t.Error("NewFilter() accepted a malformed include pattern")
	}
	if _, err := NewFilter(nil, []string{`(`}); err == nil {
		t.Error("NewFilter() accepted a malformed exclude pattern")
	}
}

// sampleFlow builds a completed flow for path.
func sampleFlow(path string) *intercept.Flow {
	return &intercept.Flow{
		Method:      http.MethodGet,
		OriginalURL: "https://api.example.com" + path + "?page=2&page=3",
		Path:        path,
		Query:       "page=2&page=3",
		RequestHeader: http.Header{
			"Accept":     []string{"application/json"},
			"User-Agent": []string{"meridian-test"},
		},
		RequestBody: nil,
		StatusCode:  http.StatusOK,
		ResponseHeader: http.Header{
			"Content-Type": []string{"application/json"},
		},
		ResponseBody: []byte(`{"id":7}`),
	}
}

func TestFromFlow(t *testing.T) {
	ex := FromFlow(sampleFlow("/api/v1/users/7"))

	if ex.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
	if ex.Request.Method != http.MethodGet || ex.Request.Path != "/api/v1/users/7" {
		t.Errorf("request = %+v", ex.Request)
	}
	if ex.Request.Query["page"] != "2" {
		t.Errorf("query = %v, want first value of repeated parameter", ex.Request.Query)
	}
	if ex.Request.Headers["Accept"] != "application/json" {
		t.Errorf("headers = %v", ex.Request.Headers)
	}
	if ex.Request.Body.Kind != jsonval.KindNull {
		t.Errorf("empty request body decoded to %s", ex.Request.Body.Kind)
	}
	if ex.Response.StatusCode != http.StatusOK {
		t.Errorf("status = %d", ex.Response.StatusCode)
	}
	if ex.Response.Body.Kind != jsonval.KindObject {
		t.Errorf("response body kind = %s, want object", ex.Response.Body.Kind)
	}
}

func TestFromFlow_NonJSONBodyKeptRaw(t *testing.T) {
	flow := sampleFlow("/page")
	flow.ResponseBody = []byte("<html>hello</html>")

	ex := FromFlow(flow)
	if ex.Response.Body.Kind != jsonval.KindString || ex.Response.Body.Str != "<html>hello</html>" {
		t.Errorf("body = %+v, want raw string", ex.Response.Body)
	}
}

func TestRecorder_RecordsThroughWorker(t *testing.T) {
	store := storage.NewMemory()
	rec, err := New(Config{
		Enabled:         true,
		ExcludePatterns: []string{`^/api/v1/analytics.*`},
	}, store, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	rec.Offer(sampleFlow("/api/v1/users/7"))
	rec.Offer(sampleFlow("/api/v1/analytics/events"))
	rec.Offer(sampleFlow("/api/v1/orders"))

	// Close drains the buffer.
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	got := store.Exchanges()
	if len(got) != 2 {
		t.Fatalf("recorded %d exchanges, want 2", len(got))
	}
	for _, ex := range got {
		if ex.Request.Path == "/api/v1/analytics/events" {
			t.Error("excluded path was recorded")
		}
	}
}

func TestRecorder_DisabledRecordsNothing(t *testing.T) {
	store := storage.NewMemory()
	rec, err := New(Config{Enabled: false}, store, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	rec.Offer(sampleFlow("/api/v1/users/7"))
	rec.Close()

	if len(store.Exchanges()) != 0 {
		t.Error("disabled recorder persisted an exchange")
	}
}

func TestRecorder_OfferAfterClose(t *testing.T) {
	store := storage.NewMemory()
	rec, err := New(Config{Enabled: true}, store, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	rec.Close()

	// Must not panic or block.
	rec.Offer(sampleFlow("/api/v1/users/7"))

	if len(store.Exchanges()) != 0 {
		t.Error("exchange recorded after Close()")
	}
}

func TestRecorder_OutcomeHook(t *testing.T) {
	var mu sync.Mutex
	outcomes := map[string]int{}
	store := storage.NewMemory()
	rec, err := New(Config{
		Enabled:         true,
		ExcludePatterns: []string{`^/skip.*`},
		Outcome: func(name string) {
			mu.Lock()
			outcomes[name]++
			mu.Unlock()
		},
	}, store, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	rec.Offer(sampleFlow("/api/v1/users/7"))
	rec.Offer(sampleFlow("/skip/this"))
	rec.Close()

	if outcomes[OutcomeRecorded] != 1 || outcomes[OutcomeSkipped] != 1 {
		t.Errorf("outcomes = %v", outcomes)
	}
}
