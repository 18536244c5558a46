package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// GitConfig describes a git-hosted rules repository.
type GitConfig struct {
	// URL is the repository URL. Local paths work too.
	URL string

	// Branch is the branch to track. Empty means the remote default.
	Branch string

	// Path is the rules file path inside the repository.
	Path string

	// CheckoutDir is the local clone location. Empty defaults to a
	// directory under os.TempDir.
	CheckoutDir string

	// PollInterval is how often the remote is polled for changes.
	PollInterval time.Duration
}

// GitSource loads routing rules from a git repository, polling the
// remote for new commits.
type GitSource struct {
	cfg    GitConfig
	logger *slog.Logger

	mu   sync.Mutex
	repo *gogit.Repository
}

// NewGitSource creates a git-backed rule source.
func NewGitSource(cfg GitConfig, logger *slog.Logger) (*GitSource, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("git source: repository URL cannot be empty")
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("git source: rules file path cannot be empty")
	}
	if cfg.CheckoutDir == "" {
		cfg.CheckoutDir = filepath.Join(os.TempDir(), "meridian-rules")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &GitSource{
		cfg:    cfg,
		logger: logger.With("component", "policy.source.git"),
	}, nil
}

// Load ensures a local checkout exists and parses the rules file from
// it.
func (s *GitSource) Load(ctx context.Context) (*Document, error) {
	if err := s.ensureCheckout(ctx); err != nil {
		return nil, err
	}
	return s.loadFromCheckout()
}

// Watch polls the remote on the configured interval until ctx is
// cancelled, invoking onChange when HEAD moved and the rules file
// parsed.
func (s *GitSource) Watch(ctx context.Context, onChange func(*Document)) error {
	if err := s.ensureCheckout(ctx); err != nil {
		return err
	}

	s.logger.Info("polling rules repository",
		"url", s.cfg.URL,
		"interval", s.cfg.PollInterval,
	)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("rules repository polling stopped")
			return nil
		case <-ticker.C:
			doc, changed, err := s.Poll(ctx)
			if err != nil {
				s.logger.Error("rules repository poll failed", "error", err)
				continue
			}
			if changed {
				onChange(doc)
			}
		}
	}
}

// Poll pulls the remote once. It returns the freshly parsed document
// and true when HEAD moved, and (nil, false, nil) when already up to
// date.
func (s *GitSource) Poll(ctx context.Context) (*Document, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo == nil {
		return nil, false, fmt.Errorf("git source: checkout not initialized")
	}

	head, err := s.repo.Head()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get HEAD: %w", err)
	}
	before := head.Hash()

	worktree, err := s.repo.Worktree()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get worktree: %w", err)
	}

	err = worktree.PullContext(ctx, &gogit.PullOptions{RemoteName: "origin"})
	if err != nil && err != gogit.NoErrAlreadyUpToDate {
		return nil, false, fmt.Errorf("failed to pull: %w", err)
	}

	head, err = s.repo.Head()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get new HEAD: %w", err)
	}
	if head.Hash() == before {
		return nil, false, nil
	}

	s.logger.Info("rules repository updated",
		"from", before.String()[:8],
		"to", head.Hash().String()[:8],
	)

	doc, err := s.loadFromCheckout()
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// ensureCheckout clones the repository if no checkout exists yet, or
// opens the existing one.
func (s *GitSource) ensureCheckout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		return nil
	}

	if _, err := os.Stat(filepath.Join(s.cfg.CheckoutDir, ".git")); err == nil {
		repo, err := gogit.PlainOpen(s.cfg.CheckoutDir)
		if err != nil {
			return fmt.Errorf("failed to open existing checkout: %w", err)
		}
		s.repo = repo
		return nil
	}

	if err := os.MkdirAll(s.cfg.CheckoutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create checkout directory: %w", err)
	}

	opts := &gogit.CloneOptions{URL: s.cfg.URL}
	if s.cfg.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(s.cfg.Branch)
		opts.SingleBranch = true
	}

	repo, err := gogit.PlainCloneContext(ctx, s.cfg.CheckoutDir, false, opts)
	if err != nil {
		return fmt.Errorf("failed to clone rules repository: %w", err)
	}

	s.logger.Info("cloned rules repository",
		"url", s.cfg.URL,
		"checkout", s.cfg.CheckoutDir,
	)
	s.repo = repo
	return nil
}

// loadFromCheckout parses the rules file from the local checkout. The
// caller holds the lock or is Load's single-threaded init path.
func (s *GitSource) loadFromCheckout() (*Document, error) {
	path := filepath.Join(s.cfg.CheckoutDir, s.cfg.Path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %q: %w", path, err)
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("rules file %q: %w", path, err)
	}
	return doc, nil
}

// Close releases the source. The checkout directory is kept so the
// next start reuses it.
func (s *GitSource) Close() error {
	return nil
}
