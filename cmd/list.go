package cmd

import (
	"fmt"
	"time"

	"github.com/bimmerbailey/logkeep/internal/archive"
	"github.com/bimmerbailey/logkeep/internal/config"
	"github.com/bimmerbailey/logkeep/internal/naming"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived log files",
	Long: `List the files in the archive folder, newest first.

Files whose names do not follow the archive naming scheme are shown as
unrecognized; they still count toward the retention cap.

Examples:
  logkeep list
  logkeep list --since 24h --format table
  logkeep list --since 2025-01-01 --format json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().String("since", "", "only show archives created since timestamp or duration (e.g. 24h, 7d)")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	sinceStr, _ := cmd.Flags().GetString("since")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	var since time.Time
	if sinceStr != "" {
		since, err = config.ParseTimeRef(sinceStr, time.Now())
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
	}

	namer := naming.New(cfg.Archive.Prefix, cfg.Archive.Extension, cfg.Archive.LegacySeconds, cfg.Location())
	entries := archive.ListEntries(cfg.TargetDir(), namer)

	if !since.IsZero() {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Valid && !e.Timestamp.Before(since) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	return newWriter(cmd, cfg).WriteEntries(entries)
}
