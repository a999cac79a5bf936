package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bimmerbailey/logkeep/internal/config"
	"github.com/bimmerbailey/logkeep/internal/metrics"
	"github.com/bimmerbailey/logkeep/internal/output"
	"github.com/bimmerbailey/logkeep/internal/syncer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "logkeep",
	Short: "Archive and rotate application log files",
	Long: `Logkeep copies the log files an application leaves behind into an
archive folder inside its data directory, names each copy after the
source file's modification time and keeps only the newest archives.

Local paths are purged from every archived line before it is written.

Examples:
  logkeep sync --source ~/.config/app/logs --data-dir ~/app/data
  logkeep await --lock-file /run/app.lock
  logkeep schedule --cron "@every 1h"
  logkeep list --since 7d`,
}

// Execute is called by main.main(). It runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.logkeep.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "output format (text, json, table, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().String("metrics-file", "", "write prometheus metrics to this file after each pass")
	rootCmd.PersistentFlags().StringP("source", "s", "", "directory the application writes its logs to")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "application data directory holding the archive")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))
	_ = viper.BindPFlag("metrics_file", rootCmd.PersistentFlags().Lookup("metrics-file"))
	_ = viper.BindPFlag("source_dir", rootCmd.PersistentFlags().Lookup("source"))
	_ = viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".logkeep")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("LOGKEEP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// setDefaults registers every config key so environment variables are
// picked up by Unmarshal.
func setDefaults() {
	def := config.Default()

	viper.SetDefault("format", def.Format)
	viper.SetDefault("verbose", false)
	viper.SetDefault("no_color", false)
	viper.SetDefault("source_dir", "")
	viper.SetDefault("data_dir", "")
	viper.SetDefault("sensitive_root", "")
	viper.SetDefault("timeout", "")
	viper.SetDefault("schedule", "")
	viper.SetDefault("lock_file", "")
	viper.SetDefault("metrics_file", "")

	viper.SetDefault("archive.folder", def.Archive.Folder)
	viper.SetDefault("archive.extension", def.Archive.Extension)
	viper.SetDefault("archive.meta_extension", def.Archive.MetaExtension)
	viper.SetDefault("archive.prefix", def.Archive.Prefix)
	viper.SetDefault("archive.max_files", def.Archive.MaxFiles)
	viper.SetDefault("archive.legacy_seconds", false)
	viper.SetDefault("archive.utc", false)

	viper.SetDefault("redaction.paths", def.Redaction.Paths)
	viper.SetDefault("redaction.enabled", false)
	viper.SetDefault("redaction.patterns", []string{})
}

// loadConfig unmarshals viper's settings over the built-in defaults.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newWriter(cmd *cobra.Command, cfg *config.Config) *output.Writer {
	mode := output.ColorAuto
	if cfg.NoColor {
		mode = output.ColorNever
	}
	return output.New(cmd.OutOrStdout(), output.ParseFormat(cfg.Format)).WithColor(mode)
}

// exportMetrics records rep and rewrites the metrics file when one is set.
// A failed write is logged; it never fails the pass.
func exportMetrics(rec *metrics.Recorder, path string, rep *syncer.Report, logger *slog.Logger) {
	if path == "" || rep == nil || rep.DryRun {
		return
	}
	rec.Observe(rep)
	if err := rec.WriteTextfile(path); err != nil {
		logger.Error("failed to write metrics", "path", path, "error", err)
	}
}

// reportError turns an unsuccessful pass into the command's exit error.
func reportError(rep *syncer.Report) error {
	if rep.OK() {
		return nil
	}
	return fmt.Errorf("sync pass incomplete: %s", rep.Summary())
}
