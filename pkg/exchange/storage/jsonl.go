package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"meridian-hq/meridian/pkg/exchange"
)

// maxLineBytes bounds a single recorded exchange line.
const maxLineBytes = 1 << 20

// JSONLStore appends exchanges to a JSON Lines file. Each exchange is
// one complete line, written with a single write call under a mutex so
// lines from concurrent appends never interleave.
type JSONLStore struct {
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	file *os.File
}

// NewJSONLStore opens (creating if needed) the log file at path in
// append mode.
func NewJSONLStore(path string, logger *slog.Logger) (*JSONLStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, exchange.NewStorageError("jsonl", "open", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, exchange.NewStorageError("jsonl", "open", err)
	}

	return &JSONLStore{
		path:   path,
		logger: logger.With("component", "storage.jsonl"),
		file:   file,
	}, nil
}

// Path returns the log file location.
func (s *JSONLStore) Path() string {
	return s.path
}

// Append implements Store.
func (s *JSONLStore) Append(ex *exchange.Exchange) error {
	data, err := json.Marshal(ex)
	if err != nil {
		return exchange.NewStorageError("jsonl", "append", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return exchange.NewStorageError("jsonl", "append", fmt.Errorf("store is closed"))
	}
	if _, err := s.file.Write(data); err != nil {
		return exchange.NewStorageError("jsonl", "append", err)
	}
	return nil
}

// Prune rewrites the log keeping only exchanges at or after cutoff,
// and at most maxRecords of the newest ones (zero means unlimited).
// Lines that do not parse are preserved verbatim rather than silently
// dropped. Returns the number of removed records.
func (s *JSONLStore) Prune(cutoff time.Time, maxRecords int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return 0, exchange.NewStorageError("jsonl", "prune", fmt.Errorf("store is closed"))
	}

	in, err := os.Open(s.path)
	if err != nil {
		return 0, exchange.NewStorageError("jsonl", "prune", err)
	}

	var kept []string
	removed := 0

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var ex exchange.Exchange
		if err := json.Unmarshal([]byte(line), &ex); err != nil {
			kept = append(kept, line)
			continue
		}
		if ex.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	scanErr := scanner.Err()
	in.Close()
	if scanErr != nil {
		return 0, exchange.NewStorageError("jsonl", "prune", scanErr)
	}

	if maxRecords > 0 && len(kept) > maxRecords {
		removed += len(kept) - maxRecords
		kept = kept[len(kept)-maxRecords:]
	}

	tmp := s.path + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, exchange.NewStorageError("jsonl", "prune", err)
	}
	w := bufio.NewWriter(out)
	for _, line := range kept {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		out.Close()
		os.Remove(tmp)
		return 0, exchange.NewStorageError("jsonl", "prune", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return 0, exchange.NewStorageError("jsonl", "prune", err)
	}

	// Swap the pruned file in and reopen the append handle on it.
	s.file.Close()
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return 0, exchange.NewStorageError("jsonl", "prune", err)
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		s.file = nil
		return 0, exchange.NewStorageError("jsonl", "prune", err)
	}
	s.file = file

	s.logger.Info("pruned exchange log",
		"path", s.path,
		"removed", removed,
		"kept", len(kept),
	)
	return removed, nil
}

// Close implements Store.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return exchange.NewStorageError("jsonl", "close", err)
	}
	return nil
}
