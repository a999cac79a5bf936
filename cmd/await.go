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

var awaitCmd = &cobra.Command{
	Use:   "await",
	Short: "Wait for the application to exit, then sync",
	Long: `Block until the application shuts down and run one sync pass.

Shutdown is an interrupt or termination signal, or the removal of the
lock file the application holds while running. The pass runs once,
whichever happens first.

Examples:
  logkeep await
  logkeep await --lock-file ~/app/data/app.lock`,
	Args: cobra.NoArgs,
	RunE: runAwait,
}

func init() {
	awaitCmd.Flags().String("lock-file", "", "sync once this lock file is removed")

	_ = viper.BindPFlag("lock_file", awaitCmd.Flags().Lookup("lock-file"))

	rootCmd.AddCommand(awaitCmd)
}

func runAwait(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	ctx := commandContext(cmd)

	var hooks trigger.Hooks
	var rep *syncer.Report
	hooks.Handle(func(ctx context.Context) {
		rep = syncer.RunSync(ctx, cfg, logger)
	})

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Both waiters report on the same channels; the first one wins.
	fired := make(chan string, 2)
	errCh := make(chan error, 2)

	go func() {
		sig, err := trigger.WaitSignal(waitCtx)
		if err == nil {
			fired <- "signal " + sig.String()
		}
	}()

	if cfg.LockFile != "" {
		go func() {
			err := trigger.NewLockWatcher(cfg.LockFile, logger).Wait(waitCtx)
			switch {
			case err == nil:
				fired <- "lock file released"
			case waitCtx.Err() == nil:
				errCh <- err
			}
		}()
	}

	select {
	case reason := <-fired:
		logger.Info("shutdown detected", "trigger", reason)
	case err := <-errCh:
		return fmt.Errorf("lock file watch failed: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}
	cancel()

	passCtx, stop := passContext(ctx)
	defer stop()
	hooks.Run(passCtx)

	exportMetrics(metrics.NewRecorder(), cfg.MetricsFile, rep, logger)

	if err := newWriter(cmd, cfg).WriteReport(rep); err != nil {
		return err
	}
	return reportError(rep)
}
