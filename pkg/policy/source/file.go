package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileSource loads routing rules from a YAML file on disk and watches
// it for changes. Editors replace files rather than rewriting them in
// place, so the watch is registered on the parent directory and events
// are filtered to the target file name.
type FileSource struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	timer   *time.Timer
}

// NewFileSource creates a file-based rule source for path.
func NewFileSource(path string, logger *slog.Logger) (*FileSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileSource{
		path:     path,
		debounce: 100 * time.Millisecond,
		logger:   logger.With("component", "policy.source.file"),
		watcher:  watcher,
	}, nil
}

// Load reads and parses the rules file.
func (s *FileSource) Load(ctx context.Context) (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %q: %w", s.path, err)
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("rules file %q: %w", s.path, err)
	}

	s.logger.Debug("loaded rules file",
		"path", s.path,
		"mock_patterns", len(doc.MockPatterns),
		"real_patterns", len(doc.RealPatterns),
	)
	return doc, nil
}

// Watch blocks until ctx is cancelled, invoking onChange with each
// successfully reloaded document. Parse failures are logged and the
// previous document stays in effect.
func (s *FileSource) Watch(ctx context.Context, onChange func(*Document)) error {
	dir := filepath.Dir(s.path)
	if err := s.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %q: %w", dir, err)
	}

	s.logger.Info("watching rules file", "path", s.path)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("rules file watcher stopped")
			return nil

		case event, ok := <-s.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !s.isTargetEvent(event) {
				continue
			}
			s.trigger(ctx, onChange)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			// Keep watching despite transient errors.
			s.logger.Error("rules file watcher error", "error", err)
		}
	}
}

// isTargetEvent reports whether a filesystem event concerns the rules
// file itself.
func (s *FileSource) isTargetEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(s.path)
}

// trigger schedules a debounced reload so a burst of write events
// produces one onChange call.
func (s *FileSource) trigger(ctx context.Context, onChange func(*Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		doc, err := s.Load(ctx)
		if err != nil {
			s.logger.Error("rules reload failed, keeping previous rules", "error", err)
			return
		}
		s.logger.Info("rules file changed", "path", s.path)
		onChange(doc)
	})
}

// Close stops the watcher and cancels any pending reload.
func (s *FileSource) Close() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	return s.watcher.Close()
}
