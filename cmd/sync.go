package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bimmerbailey/logkeep/internal/config"
	"github.com/bimmerbailey/logkeep/internal/metrics"
	"github.com/bimmerbailey/logkeep/internal/syncer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Archive new log files and trim the archive",
	Long: `Run a single sync pass: copy every log file in the source directory
that has not been archived yet, purge local paths from its lines and
delete the oldest archives beyond the retention cap.

Files that fail to copy are reported and skipped; the pass always
continues with the next file.

Examples:
  logkeep sync
  logkeep sync --dry-run
  logkeep sync --timeout 30s --format json`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().Bool("dry-run", false, "report what would be archived and evicted without writing")
	syncCmd.Flags().String("timeout", "", "abort copying after this long (e.g. 30s, 5m)")

	_ = viper.BindPFlag("timeout", syncCmd.Flags().Lookup("timeout"))

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, stop := passContext(commandContext(cmd))
	defer stop()

	rep, err := runPass(ctx, cfg, logger, dryRun)
	if err != nil {
		return err
	}

	exportMetrics(metrics.NewRecorder(), cfg.MetricsFile, rep, logger)

	if err := newWriter(cmd, cfg).WriteReport(rep); err != nil {
		return err
	}
	return reportError(rep)
}

// passContext is cancelled by SIGINT or SIGTERM, so an interrupt stops the
// pass between files instead of killing the process mid-copy.
func passContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// runPass runs one sync pass. Dry runs validate the configuration up front;
// real passes report configuration errors in the Report.
func runPass(ctx context.Context, cfg *config.Config, logger *slog.Logger, dryRun bool) (*syncer.Report, error) {
	if !dryRun {
		return syncer.RunSync(ctx, cfg, logger), nil
	}

	eng, err := syncer.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return eng.DryRun(ctx), nil
}
