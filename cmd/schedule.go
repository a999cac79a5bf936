package cmd

import (
	"context"
	"fmt"

	"github.com/bimmerbailey/logkeep/internal/metrics"
	"github.com/bimmerbailey/logkeep/internal/syncer"
	"github.com/bimmerbailey/logkeep/internal/trigger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run sync passes on a cron schedule",
	Long: `Run sync passes periodically until interrupted.

The schedule is a standard five-field cron expression or a descriptor
such as @hourly or @every 30m. A pass that is still running when the
next one is due causes that run to be skipped.

Examples:
  logkeep schedule --cron "@every 1h"
  logkeep schedule --cron "0 */6 * * *" --metrics-file /var/lib/node_exporter/logkeep.prom`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().String("cron", "", "cron expression (e.g. \"@hourly\", \"*/15 * * * *\")")
	scheduleCmd.Flags().Bool("now", false, "run one pass immediately before waiting for the schedule")

	_ = viper.BindPFlag("schedule", scheduleCmd.Flags().Lookup("cron"))

	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	runNow, _ := cmd.Flags().GetBool("now")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Schedule == "" {
		return fmt.Errorf("no schedule: set --cron or schedule in the config file")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	rec := metrics.NewRecorder()
	wr := newWriter(cmd, cfg)

	job := func(ctx context.Context) {
		rep := syncer.RunSync(ctx, cfg, logger)
		exportMetrics(rec, cfg.MetricsFile, rep, logger)
		if err := wr.WriteReport(rep); err != nil {
			logger.Error("failed to write report", "error", err)
		}
	}

	sched, err := trigger.NewScheduler(cfg.Schedule, job, logger)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if runNow {
		job(ctx)
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	if next := sched.NextRun(); next != nil {
		logger.Info("scheduler started", "schedule", cfg.Schedule, "next", next.Format("2006-01-02 15:04:05"))
	}

	if sig, err := trigger.WaitSignal(ctx); err == nil {
		logger.Info("stopping scheduler", "signal", sig.String())
	}
	return nil
}
