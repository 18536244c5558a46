// Package retention ages recorded exchanges out of the log on a
// schedule, keeping recording sessions from growing without bound.
package retention

import (
	"log/slog"
	"time"

	"meridian-hq/meridian/pkg/exchange/storage"
)

// Config bounds how long and how many recordings are kept.
type Config struct {
	// MaxAge removes exchanges older than this. Zero disables the age
	// bound.
	MaxAge time.Duration

	// MaxRecords caps the number of kept exchanges, newest first. Zero
	// disables the cap.
	MaxRecords int

	// Schedule is a cron expression for automatic pruning. Empty
	// disables the scheduler.
	Schedule string
}

// Pruner applies retention bounds to the JSONL exchange log and,
// optionally, the SQLite index alongside it.
type Pruner struct {
	cfg    Config
	log    *storage.JSONLStore
	index  *storage.SQLiteIndex
	logger *slog.Logger
	now    func() time.Time
}

// NewPruner creates a pruner over log. index may be nil.
func NewPruner(cfg Config, log *storage.JSONLStore, index *storage.SQLiteIndex, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		cfg:    cfg,
		log:    log,
		index:  index,
		logger: logger.With("component", "retention"),
		now:    time.Now,
	}
}

// Prune applies the configured bounds once. Returns the number of
// removed log records.
func (p *Pruner) Prune() (int, error) {
	if p.cfg.MaxAge <= 0 && p.cfg.MaxRecords <= 0 {
		return 0, nil
	}

	cutoff := time.Time{}
	if p.cfg.MaxAge > 0 {
		cutoff = p.now().Add(-p.cfg.MaxAge)
	}

	removed, err := p.log.Prune(cutoff, p.cfg.MaxRecords)
	if err != nil {
		return 0, err
	}

	if p.index != nil && !cutoff.IsZero() {
		if _, err := p.index.Prune(cutoff); err != nil {
			p.logger.Warn("failed to prune exchange index", "error", err)
		}
	}

	return removed, nil
}
