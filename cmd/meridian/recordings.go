package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"meridian-hq/meridian/pkg/exchange/retention"
	"meridian-hq/meridian/pkg/exchange/storage"
	"meridian-hq/meridian/pkg/telemetry/logging"
)

var recordingsCmd = &cobra.Command{
	Use:   "recordings",
	Short: "Inspect and maintain recorded exchanges",
	Long: `Inspect and maintain the exchange recordings produced by the proxy.

Examples:
  # Per-route recording counts
  meridian recordings stats

  # Apply the configured retention bounds once
  meridian recordings prune`,
}

var recordingsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-route recording counts",
	Long: `Show how many exchanges have been recorded per method and path, most
recently recorded routes first. Requires the SQLite recording index
(recording.index.enabled).`,
	RunE: recordingsStats,
}

var recordingsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply retention bounds to the recordings log once",
	Long: `Apply the configured retention bounds (recording.retention.max_age and
recording.retention.max_records) to the recordings log and index once,
outside the scheduled pruning.`,
	RunE: recordingsPrune,
}

func init() {
	rootCmd.AddCommand(recordingsCmd)
	recordingsCmd.AddCommand(recordingsStatsCmd)
	recordingsCmd.AddCommand(recordingsPruneCmd)
}

func recordingsStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Recording.Index.Enabled {
		return fmt.Errorf("recording.index must be enabled to query recording stats")
	}

	index, err := storage.NewSQLiteIndex(cfg.Recording.Index.Path, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to open recordings index: %w", err)
	}
	defer index.Close()

	summaries, err := index.Summarize()
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No recordings indexed.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tCOUNT\tLAST STATUS\tLAST SEEN")
	total := 0
	for _, sum := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			sum.Method, sum.Path, sum.Count, sum.LastStatus,
			sum.LastSeen.Local().Format(time.RFC3339))
		total += sum.Count
	}
	w.Flush()
	fmt.Printf("\n%d recordings across %d routes\n", total, len(summaries))

	return nil
}

func recordingsPrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	})
	if err != nil {
		return err
	}

	logStore, err := storage.NewJSONLStore(cfg.Recording.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open recordings log: %w", err)
	}
	defer logStore.Close()

	var index *storage.SQLiteIndex
	if cfg.Recording.Index.Enabled {
		index, err = storage.NewSQLiteIndex(cfg.Recording.Index.Path, logger)
		if err != nil {
			return fmt.Errorf("failed to open recordings index: %w", err)
		}
		defer index.Close()
	}

	pruner := retention.NewPruner(retention.Config{
		MaxAge:     cfg.Recording.Retention.MaxAge,
		MaxRecords: cfg.Recording.Retention.MaxRecords,
	}, logStore, index, logger)

	removed, err := pruner.Prune()
	if err != nil {
		return fmt.Errorf("pruning failed: %w", err)
	}

	if removed == 0 {
		fmt.Println("Nothing to remove.")
	} else {
		fmt.Printf("✓ Removed %d recordings\n", removed)
	}

	return nil
}
