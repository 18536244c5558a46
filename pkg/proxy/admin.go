package proxy

import (
	"encoding/json"
	"net/http"

	"meridian-hq/meridian/pkg/telemetry/metrics"
)

// NewAdminMux builds the admin endpoint: liveness plus the metrics
// scrape handler.
func NewAdminMux(collector *metrics.Collector, metricsPath, version string) *http.ServeMux {
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if collector != nil {
		mux.Handle(metricsPath, collector.Handler())
	}
	return mux
}
