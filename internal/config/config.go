// Package config provides configuration types and helpers for logkeep.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Defaults for the archive layout. Existing archives depend on these values,
// so they only change through configuration.
const (
	DefaultArchiveFolder = "Logs"
	DefaultLogExtension  = ".log"
	DefaultMetaExtension = ".meta"
	DefaultFilePrefix    = "Log_"
	DefaultMaxFiles      = 50
)

// Config holds the application-wide configuration.
type Config struct {
	Format  string `mapstructure:"format"`
	Verbose bool   `mapstructure:"verbose"`
	NoColor bool   `mapstructure:"no_color"`

	// SourceDir is where the host application writes its logs. Read-only.
	SourceDir string `mapstructure:"source_dir"`

	// DataDir is the host application's data directory. The archive lives
	// inside it and its path is what gets redacted from log lines.
	DataDir string `mapstructure:"data_dir"`

	// SensitiveRoot overrides DataDir as the path to redact.
	SensitiveRoot string `mapstructure:"sensitive_root"`

	Archive   ArchiveConfig   `mapstructure:"archive"`
	Redaction RedactionConfig `mapstructure:"redaction"`

	// Timeout bounds a whole sync pass, e.g. "30s". Empty means no limit.
	Timeout string `mapstructure:"timeout"`

	Schedule    string `mapstructure:"schedule"`     // cron expression for `logkeep schedule`
	LockFile    string `mapstructure:"lock_file"`    // host lock file watched by `logkeep await`
	MetricsFile string `mapstructure:"metrics_file"` // prometheus textfile output
}

// ArchiveConfig describes the archive folder layout and retention cap.
type ArchiveConfig struct {
	Folder        string `mapstructure:"folder"`
	Extension     string `mapstructure:"extension"`
	MetaExtension string `mapstructure:"meta_extension"`
	Prefix        string `mapstructure:"prefix"`
	MaxFiles      int    `mapstructure:"max_files"`

	// LegacySeconds renders seconds without zero padding, matching archives
	// written by older tooling. Names then stop sorting chronologically
	// within a minute.
	LegacySeconds bool `mapstructure:"legacy_seconds"`

	// UTC encodes timestamps in UTC instead of local time.
	UTC bool `mapstructure:"utc"`
}

// RedactionConfig holds configuration for scrubbing archived log text.
type RedactionConfig struct {
	// Paths removes the sensitive root path from every archived line.
	Paths bool `mapstructure:"paths"`

	// Enabled turns on secret pattern scrubbing in addition to paths.
	Enabled bool `mapstructure:"enabled"`

	// Patterns specifies which secret patterns to use
	// Available: ipv4, email, api_key, aws_key, jwt, private_key, mac_address, uuid
	Patterns []string `mapstructure:"patterns"`
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Format: "text",
		Archive: ArchiveConfig{
			Folder:        DefaultArchiveFolder,
			Extension:     DefaultLogExtension,
			MetaExtension: DefaultMetaExtension,
			Prefix:        DefaultFilePrefix,
			MaxFiles:      DefaultMaxFiles,
		},
		Redaction: RedactionConfig{
			Paths: true,
		},
	}
}

// TargetDir returns the archive folder inside the data directory.
func (c *Config) TargetDir() string {
	return filepath.Join(c.DataDir, c.Archive.Folder)
}

// RedactionRoot returns the path whose segments are purged from log lines.
func (c *Config) RedactionRoot() string {
	if c.SensitiveRoot != "" {
		return c.SensitiveRoot
	}
	return c.DataDir
}

// Location returns the time zone used to encode archive names.
func (c *Config) Location() *time.Location {
	if c.Archive.UTC {
		return time.UTC
	}
	return time.Local
}

// SyncTimeout parses Timeout. Zero means the pass is not bounded.
func (c *Config) SyncTimeout() (time.Duration, error) {
	if strings.TrimSpace(c.Timeout) == "" {
		return 0, nil
	}
	d, err := ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout: %w", err)
	}
	return d, nil
}

// Validate checks the settings a sync pass depends on.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("source_dir is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Archive.Folder == "" {
		return fmt.Errorf("archive.folder must not be empty")
	}
	if !strings.HasPrefix(c.Archive.Extension, ".") {
		return fmt.Errorf("archive.extension must start with a dot: %q", c.Archive.Extension)
	}
	if c.Archive.MetaExtension != "" && !strings.HasPrefix(c.Archive.MetaExtension, ".") {
		return fmt.Errorf("archive.meta_extension must start with a dot: %q", c.Archive.MetaExtension)
	}
	if c.Archive.MaxFiles < 1 {
		return fmt.Errorf("archive.max_files must be at least 1, got %d", c.Archive.MaxFiles)
	}
	if _, err := c.SyncTimeout(); err != nil {
		return err
	}

	source, err := filepath.Abs(c.SourceDir)
	if err != nil {
		return fmt.Errorf("resolve source_dir: %w", err)
	}
	target, err := filepath.Abs(c.TargetDir())
	if err != nil {
		return fmt.Errorf("resolve archive folder: %w", err)
	}
	if source == target {
		return fmt.Errorf("source_dir and archive folder are the same: %s", source)
	}

	return nil
}
