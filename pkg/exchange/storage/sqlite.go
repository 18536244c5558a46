package storage

import (
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"meridian-hq/meridian/pkg/exchange"
)

// sqliteSchema indexes recorded exchanges for querying without
// scanning the JSONL log.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at TEXT    NOT NULL,
	method      TEXT    NOT NULL,
	path        TEXT    NOT NULL,
	status_code INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exchanges_route ON exchanges (method, path);
CREATE INDEX IF NOT EXISTS idx_exchanges_recorded_at ON exchanges (recorded_at);
`

// SQLiteIndex is a queryable index of recorded exchanges. It stores
// route-level facts only; request and response payloads live in the
// JSONL log.
type SQLiteIndex struct {
	db     *sql.DB
	logger *slog.Logger
}

// RouteSummary aggregates the recordings of one method and path.
type RouteSummary struct {
	Method     string
	Path       string
	Count      int
	LastStatus int
	LastSeen   time.Time
}

// NewSQLiteIndex opens (creating if needed) the index database at
// path.
func NewSQLiteIndex(path string, logger *slog.Logger) (*SQLiteIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, exchange.NewStorageError("sqlite", "open", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, exchange.NewStorageError("sqlite", "open", err)
	}
	// modernc's driver serializes access per connection; a single
	// connection avoids table-lock errors under concurrent appends.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, exchange.NewStorageError("sqlite", "migrate", err)
	}

	return &SQLiteIndex{
		db:     db,
		logger: logger.With("component", "storage.sqlite"),
	}, nil
}

// Append implements Store.
func (s *SQLiteIndex) Append(ex *exchange.Exchange) error {
	_, err := s.db.Exec(
		`INSERT INTO exchanges (recorded_at, method, path, status_code) VALUES (?, ?, ?, ?)`,
		ex.Timestamp.UTC().Format(time.RFC3339Nano),
		ex.Request.Method,
		ex.Request.Path,
		ex.Response.StatusCode,
	)
	if err != nil {
		return exchange.NewStorageError("sqlite", "append", err)
	}
	return nil
}

// Summarize returns per-route recording counts, most recent first.
func (s *SQLiteIndex) Summarize() ([]RouteSummary, error) {
	rows, err := s.db.Query(`
		SELECT method, path, COUNT(*),
		       (SELECT status_code FROM exchanges e2
		        WHERE e2.method = e.method AND e2.path = e.path
		        ORDER BY e2.id DESC LIMIT 1),
		       MAX(recorded_at)
		FROM exchanges e
		GROUP BY method, path
		ORDER BY MAX(recorded_at) DESC`)
	if err != nil {
		return nil, exchange.NewStorageError("sqlite", "summarize", err)
	}
	defer rows.Close()

	var summaries []RouteSummary
	for rows.Next() {
		var sum RouteSummary
		var lastSeen string
		if err := rows.Scan(&sum.Method, &sum.Path, &sum.Count, &sum.LastStatus, &lastSeen); err != nil {
			return nil, exchange.NewStorageError("sqlite", "summarize", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, lastSeen); err == nil {
			sum.LastSeen = t
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, exchange.NewStorageError("sqlite", "summarize", err)
	}
	return summaries, nil
}

// Prune removes index rows recorded before cutoff. Returns the number
// of removed rows.
func (s *SQLiteIndex) Prune(cutoff time.Time) (int, error) {
	res, err := s.db.Exec(`DELETE FROM exchanges WHERE recorded_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, exchange.NewStorageError("sqlite", "prune", err)
	}
	removed, _ := res.RowsAffected()
	return int(removed), nil
}

// Close implements Store.
func (s *SQLiteIndex) Close() error {
	if err := s.db.Close(); err != nil {
		return exchange.NewStorageError("sqlite", "close", err)
	}
	return nil
}
