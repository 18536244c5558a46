package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ServerConfig configures the serving layer.
type ServerConfig struct {
	// ListenAddress is the proxy endpoint address.
	ListenAddress string

	// ReadTimeout, WriteTimeout, IdleTimeout and MaxHeaderBytes are
	// passed to the underlying http.Server.
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// AdminAddress, when non-empty, serves the admin mux on a second
	// listener.
	AdminAddress string

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// Server runs the proxy endpoint and, optionally, the admin endpoint.
type Server struct {
	cfg     ServerConfig
	handler http.Handler
	admin   http.Handler
	logger  *slog.Logger

	httpServer   *http.Server
	adminServer  *http.Server
	shutdownOnce sync.Once

	mu      sync.RWMutex
	running bool
}

// NewServer creates a server. admin may be nil to disable the admin
// listener regardless of AdminAddress.
func NewServer(cfg ServerConfig, handler http.Handler, admin http.Handler, logger *slog.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		handler: handler,
		admin:   admin,
		logger:  logger.With("component", "proxy.server"),
	}
}

// Start runs the listeners and blocks until ctx is cancelled, a
// shutdown signal arrives, or a listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true

	s.httpServer = &http.Server{
		Addr:           s.cfg.ListenAddress,
		Handler:        s.handler,
		ReadTimeout:    s.cfg.ReadTimeout,
		WriteTimeout:   s.cfg.WriteTimeout,
		IdleTimeout:    s.cfg.IdleTimeout,
		MaxHeaderBytes: s.cfg.MaxHeaderBytes,
	}
	if s.admin != nil && s.cfg.AdminAddress != "" {
		s.adminServer = &http.Server{
			Addr:    s.cfg.AdminAddress,
			Handler: s.admin,
		}
	}
	s.mu.Unlock()

	errChan := make(chan error, 2)

	go func() {
		s.logger.Info("proxy endpoint listening", "address", s.cfg.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("proxy listener: %w", err)
		}
	}()

	if s.adminServer != nil {
		go func() {
			s.logger.Info("admin endpoint listening", "address", s.cfg.AdminAddress)
			if err := s.adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- fmt.Errorf("admin listener: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, shutting down")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.Shutdown(context.Background())
		return err
	}
}

// Shutdown gracefully stops both listeners.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				shutdownErr = fmt.Errorf("proxy shutdown: %w", err)
			}
		}
		if s.adminServer != nil {
			if err := s.adminServer.Shutdown(shutdownCtx); err != nil && shutdownErr == nil {
				shutdownErr = fmt.Errorf("admin shutdown: %w", err)
			}
		}

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
