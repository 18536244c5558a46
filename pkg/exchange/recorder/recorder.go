package recorder

import (
	"log/slog"
	"net/url"
	"sync"
	"time"

	"meridian-hq/meridian/pkg/exchange"
	"meridian-hq/meridian/pkg/exchange/storage"
	"meridian-hq/meridian/pkg/intercept"
	"meridian-hq/meridian/pkg/jsonval"
)

// Recording outcomes reported to the Outcome hook.
const (
	OutcomeRecorded = "recorded"
	OutcomeSkipped  = "skipped"
	OutcomeDropped  = "dropped"
	OutcomeFailed   = "failed"
)

// Config configures a Recorder.
type Config struct {
	// Enabled turns recording on.
	Enabled bool

	// IncludePatterns and ExcludePatterns drive the path filter.
	IncludePatterns []string
	ExcludePatterns []string

	// Buffer is the capacity of the async channel.
	Buffer int

	// Outcome, when set, is called once per offered flow with the
	// recording outcome. Used for metrics.
	Outcome func(outcome string)
}

// Recorder captures exchanges asynchronously.
type Recorder struct {
	cfg    Config
	filter *Filter
	store  storage.Store
	logger *slog.Logger

	ch chan *exchange.Exchange
	wg sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New creates a recorder writing to store and starts its worker.
func New(cfg Config, store storage.Store, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1000
	}

	filter, err := NewFilter(cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	r := &Recorder{
		cfg:    cfg,
		filter: filter,
		store:  store,
		logger: logger.With("component", "recorder"),
		ch:     make(chan *exchange.Exchange, cfg.Buffer),
	}

	r.wg.Add(1)
	go r.worker()

	return r, nil
}

// Offer enqueues a completed flow for recording. It never blocks: when
// the buffer is full the exchange is dropped and logged.
func (r *Recorder) Offer(flow *intercept.Flow) {
	if !r.cfg.Enabled {
		return
	}
	if !r.filter.ShouldRecord(flow.Path) {
		r.outcome(OutcomeSkipped)
		return
	}

	ex := FromFlow(flow)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.outcome(OutcomeDropped)
		return
	}

	select {
	case r.ch <- ex:
	default:
		r.outcome(OutcomeDropped)
		r.logger.Warn("recording buffer full, dropping exchange",
			"method", ex.Request.Method,
			"path", ex.Request.Path,
		)
	}
}

// Close stops accepting exchanges and drains the buffer before
// returning. The store is not closed; its owner does that.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()

	r.wg.Wait()
	return nil
}

// worker drains the channel into the store.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for ex := range r.ch {
		if err := r.store.Append(ex); err != nil {
			r.outcome(OutcomeFailed)
			r.logger.Error("failed to record exchange",
				"method", ex.Request.Method,
				"path", ex.Request.Path,
				"error", err,
			)
			continue
		}
		r.outcome(OutcomeRecorded)
	}
}

func (r *Recorder) outcome(name string) {
	if r.cfg.Outcome != nil {
		r.cfg.Outcome(name)
	}
}

// FromFlow converts a completed flow into a recordable exchange.
// Multi-valued query parameters and headers keep their first value,
// matching the shape the mock table compiler consumes.
func FromFlow(flow *intercept.Flow) *exchange.Exchange {
	query := map[string]string{}
	if values, err := url.ParseQuery(flow.Query); err == nil {
		for key, vals := range values {
			if len(vals) > 0 {
				query[key] = vals[0]
			}
		}
	}

	return &exchange.Exchange{
		Timestamp: time.Now().UTC(),
		Request: exchange.Request{
			Method:  flow.Method,
			URL:     flow.OriginalURL,
			Path:    flow.Path,
			Query:   query,
			Headers: firstValues(flow.RequestHeader),
			Body:    jsonval.FromText(string(flow.RequestBody)),
		},
		Response: exchange.Response{
			StatusCode: flow.StatusCode,
			Headers:    firstValues(flow.ResponseHeader),
			Body:       jsonval.FromText(string(flow.ResponseBody)),
		},
	}
}

func firstValues(h map[string][]string) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if len(values) > 0 {
			out[name] = values[0]
		}
	}
	return out
}
