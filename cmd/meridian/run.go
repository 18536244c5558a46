package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"meridian-hq/meridian/pkg/config"
	"meridian-hq/meridian/pkg/exchange/recorder"
	"meridian-hq/meridian/pkg/exchange/retention"
	"meridian-hq/meridian/pkg/exchange/storage"
	"meridian-hq/meridian/pkg/intercept"
	"meridian-hq/meridian/pkg/policy"
	"meridian-hq/meridian/pkg/policy/source"
	"meridian-hq/meridian/pkg/proxy"
	"meridian-hq/meridian/pkg/telemetry/logging"
	"meridian-hq/meridian/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Meridian interception proxy",
	Long: `Start the Meridian interception proxy with the specified configuration.

The proxy listens on the configured address and routes each request
through the policy engine to the real backend or the local mock server,
applying fallback, enhancement and recording along the way.

Examples:
  # Start with default config
  meridian run

  # Start with custom config
  meridian run --config /etc/meridian/config.yaml

  # Override listen address
  meridian run --listen 0.0.0.0:8085

  # Validate config without starting the proxy
  meridian run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the proxy")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Proxy.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	collector := metrics.NewCollector(metrics.Config{
		Enabled:   cfg.Telemetry.Metrics.Enabled,
		Namespace: cfg.Telemetry.Metrics.Namespace,
	})

	engine, err := policy.New(policyConfig(cfg), logger)
	if err != nil {
		return fmt.Errorf("failed to build routing rules: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bind the external rule source, when one is configured. The
	// config-file rules stay in effect until the source delivers a
	// document.
	src, err := newRuleSource(cfg, logger)
	if err != nil {
		return err
	}
	if src != nil {
		defer src.Close()

		doc, err := src.Load(ctx)
		if err != nil {
			slog.Warn("failed to load routing rules from source, keeping config-file rules", "error", err)
		} else if err := engine.Reload(policyConfigFromDocument(cfg, doc)); err != nil {
			slog.Warn("rule source document rejected, keeping config-file rules", "error", err)
		} else {
			fmt.Printf("✓ Routing rules loaded from %s source (%d mock patterns)\n",
				cfg.Routing.Source.Type, len(doc.MockPatterns))
		}

		if cfg.Routing.Source.Watch {
			go func() {
				err := src.Watch(ctx, func(doc *source.Document) {
					if err := engine.Reload(policyConfigFromDocument(cfg, doc)); err != nil {
						slog.Warn("rejected updated routing rules", "error", err)
						return
					}
					slog.Info("routing rules reloaded",
						"mock_patterns", len(doc.MockPatterns),
						"real_patterns", len(doc.RealPatterns),
					)
				})
				if err != nil && ctx.Err() == nil {
					slog.Error("rule source watch failed", "error", err)
				}
			}()
		}
	}

	// Recording pipeline: JSONL log, optional SQLite index, async
	// recorder, scheduled retention.
	var rec *recorder.Recorder
	if cfg.Recording.Enabled {
		slog.Info("initializing exchange recording", "path", cfg.Recording.Path)

		logStore, err := storage.NewJSONLStore(cfg.Recording.Path, logger)
		if err != nil {
			return fmt.Errorf("failed to open recordings log: %w", err)
		}

		var index *storage.SQLiteIndex
		if cfg.Recording.Index.Enabled {
			index, err = storage.NewSQLiteIndex(cfg.Recording.Index.Path, logger)
			if err != nil {
				logStore.Close()
				return fmt.Errorf("failed to open recordings index: %w", err)
			}
		}

		store := storage.Store(logStore)
		if index != nil {
			store = storage.Multi(logStore, index)
		}
		defer store.Close()

		rec, err = recorder.New(recorder.Config{
			Enabled:         true,
			IncludePatterns: cfg.Recording.IncludePatterns,
			ExcludePatterns: cfg.Recording.ExcludePatterns,
			Buffer:          cfg.Recording.AsyncBuffer,
			Outcome:         collector.RecordRecording,
		}, store, logger)
		if err != nil {
			return fmt.Errorf("failed to start recorder: %w", err)
		}
		defer rec.Close()

		pruner := retention.NewPruner(retention.Config{
			MaxAge:     cfg.Recording.Retention.MaxAge,
			MaxRecords: cfg.Recording.Retention.MaxRecords,
			Schedule:   cfg.Recording.Retention.Schedule,
		}, logStore, index, logger)
		scheduler := retention.NewScheduler(pruner)
		if err := scheduler.Start(ctx); err != nil {
			slog.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer scheduler.Stop()
			if next := scheduler.NextRun(); next != nil {
				slog.Debug("retention scheduler started", "next_pruning", next)
			}
		}

		fmt.Println("✓ Exchange recording initialized")
	}

	interceptor := intercept.NewInterceptor(nil, cfg.Proxy.UpstreamTimeout, logger)
	supervisor := intercept.NewSupervisor(intercept.FallbackConfig{
		Enabled:     cfg.Fallback.Enabled,
		StatusCodes: cfg.Fallback.StatusCodes,
		Timeout:     cfg.Fallback.Timeout,
		MockScheme:  cfg.MockBackend.Scheme,
		MockHost:    cfg.MockBackend.Host,
		MockPort:    cfg.MockBackend.Port,
	}, nil, logger)
	enhancer := intercept.NewEnhancer(intercept.EnhanceConfig{
		Enabled:    cfg.Enhance.Enabled,
		Timeout:    cfg.Enhance.Timeout,
		MockScheme: cfg.MockBackend.Scheme,
		MockHost:   cfg.MockBackend.Host,
		MockPort:   cfg.MockBackend.Port,
	}, nil, logger)

	handler := proxy.NewHandler(engine, interceptor, supervisor, enhancer, rec, collector, logger)

	var admin http.Handler
	if cfg.Telemetry.Metrics.Enabled {
		admin = proxy.NewAdminMux(collector, cfg.Telemetry.Metrics.Path, Version)
	}

	srv := proxy.NewServer(proxy.ServerConfig{
		ListenAddress:  cfg.Proxy.ListenAddress,
		ReadTimeout:    cfg.Proxy.ReadTimeout,
		WriteTimeout:   cfg.Proxy.WriteTimeout,
		IdleTimeout:    cfg.Proxy.IdleTimeout,
		MaxHeaderBytes: cfg.Proxy.MaxHeaderBytes,
		AdminAddress:   cfg.Telemetry.Metrics.ListenAddress,
	}, handler, admin, logger)

	fmt.Println()
	fmt.Printf("✓ Proxy listening on %s\n", cfg.Proxy.ListenAddress)
	if admin != nil {
		fmt.Printf("✓ Health endpoint: http://%s/healthz\n", cfg.Telemetry.Metrics.ListenAddress)
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Telemetry.Metrics.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	return srv.Start(ctx)
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Meridian v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	slog.Debug("mock backend",
		"scheme", cfg.MockBackend.Scheme,
		"host", cfg.MockBackend.Host,
		"port", cfg.MockBackend.Port,
	)
	slog.Debug("routing rules",
		"mock_patterns", len(cfg.Routing.MockPatterns),
		"real_patterns", len(cfg.Routing.RealPatterns),
		"mock_domains", len(cfg.Routing.MockDomains),
		"source", cfg.Routing.Source.Type,
	)
	if cfg.Fallback.Enabled {
		slog.Debug("fallback enabled", "status_codes", cfg.Fallback.StatusCodes)
	}
	if cfg.Enhance.Enabled {
		slog.Debug("enhancement enabled")
	}
}

// policyConfig builds the engine rule set from the configuration file.
func policyConfig(cfg *config.Config) policy.Config {
	return policy.Config{
		MockPatterns:     cfg.Routing.MockPatterns,
		RealPatterns:     cfg.Routing.RealPatterns,
		MockDomains:      cfg.Routing.MockDomains,
		EmulatorLoopback: cfg.Routing.EmulatorLoopback,
		LoopbackRewrite:  cfg.Routing.LoopbackRewrite,
		MockScheme:       cfg.MockBackend.Scheme,
		MockHost:         cfg.MockBackend.Host,
		MockPort:         cfg.MockBackend.Port,
		ForceRealWins:    cfg.Routing.ForceRealWins,
	}
}

// policyConfigFromDocument replaces the pattern rules with a sourced
// document while keeping the backend and loopback settings from the
// configuration file.
func policyConfigFromDocument(cfg *config.Config, doc *source.Document) policy.Config {
	pc := policyConfig(cfg)
	pc.MockPatterns = doc.MockPatterns
	pc.RealPatterns = doc.RealPatterns
	pc.MockDomains = doc.MockDomains
	return pc
}

// newRuleSource builds the configured external rule source, or nil when
// rules come from the configuration file alone.
func newRuleSource(cfg *config.Config, logger *slog.Logger) (source.Source, error) {
	switch cfg.Routing.Source.Type {
	case "file":
		return source.NewFileSource(cfg.Routing.Source.Path, logger)
	case "git":
		return source.NewGitSource(source.GitConfig{
			URL:          cfg.Routing.Source.Git.URL,
			Branch:       cfg.Routing.Source.Git.Branch,
			Path:         cfg.Routing.Source.Path,
			CheckoutDir:  cfg.Routing.Source.Git.CheckoutDir,
			PollInterval: cfg.Routing.Source.Git.PollInterval,
		}, logger)
	default:
		return nil, nil
	}
}
