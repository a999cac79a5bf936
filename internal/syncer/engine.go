// Package syncer copies closed log files from the host's log folder into the
// archive folder.
//
// A pass runs these phases in order, with no retry or rollback:
//
//  1. Ensure - create the archive folder if needed
//  2. Inventory - collect timestamp keys of files already archived
//  3. Discover - list candidate logs in the source folder
//  4. Transfer - copy and redact every log whose key is new
//  5. Evict - trim the archive back to its file cap
//
// The key is the source file's last-write time, not a content hash: a file
// rewritten without a new timestamp is never copied again.
//
// One process is assumed to own the archive folder. Hosts that run several
// instances must serialize passes themselves, e.g. with a file lock.
package syncer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bimmerbailey/logkeep/internal/archive"
	"github.com/bimmerbailey/logkeep/internal/config"
	"github.com/bimmerbailey/logkeep/internal/naming"
	"github.com/bimmerbailey/logkeep/internal/redact"
	"github.com/google/uuid"
)

// maxLineSize bounds a single log line read during redaction.
const maxLineSize = 64 * 1024 * 1024

// Engine runs sync passes for one configuration.
type Engine struct {
	cfg      *config.Config
	namer    *naming.Namer
	redactor redact.Chain
	evictor  *archive.Evictor
	logger   *slog.Logger
	now      func() time.Time

	// Testing hook.
	open func(name string) (*os.File, error)
}

// New creates an Engine. The configuration is validated here so a pass
// itself never has to fail on bad settings.
func New(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	chain, err := redact.New(redact.Options{
		SensitiveRoot: cfg.RedactionRoot(),
		Paths:         cfg.Redaction.Paths,
		Secrets:       cfg.Redaction.Enabled,
		Patterns:      cfg.Redaction.Patterns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build redactor: %w", err)
	}

	return &Engine{
		cfg:      cfg,
		namer:    naming.New(cfg.Archive.Prefix, cfg.Archive.Extension, cfg.Archive.LegacySeconds, cfg.Location()),
		redactor: chain,
		evictor:  archive.NewEvictor(cfg.Archive.Extension, cfg.Archive.MetaExtension, logger),
		logger:   logger.With("component", "syncer"),
		now:      time.Now,
		open:     os.Open,
	}, nil
}

// Namer returns the namer the engine writes archive names with.
func (e *Engine) Namer() *naming.Namer {
	return e.namer
}

// RunSync validates cfg and runs a single pass, bounded by cfg.Timeout when
// set. Configuration errors are reported in the returned Report.
func RunSync(ctx context.Context, cfg *config.Config, logger *slog.Logger) *Report {
	eng, err := New(cfg, logger)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("log sync not started", "error", err)
		return &Report{
			RunID:     uuid.NewString(),
			StartedAt: time.Now(),
			SourceDir: cfg.SourceDir,
			TargetDir: cfg.TargetDir(),
			Error:     err.Error(),
		}
	}

	if timeout, _ := cfg.SyncTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return eng.Run(ctx)
}

// Run performs one sync pass. It is safe to call repeatedly: files already
// archived are skipped.
func (e *Engine) Run(ctx context.Context) *Report {
	return e.run(ctx, false)
}

// DryRun reports what Run would archive and evict without touching the disk.
func (e *Engine) DryRun(ctx context.Context) *Report {
	return e.run(ctx, true)
}

func (e *Engine) run(ctx context.Context, dryRun bool) *Report {
	rep := &Report{
		RunID:     uuid.NewString(),
		StartedAt: e.now(),
		SourceDir: e.cfg.SourceDir,
		TargetDir: e.cfg.TargetDir(),
		DryRun:    dryRun,
		Archived:  []string{},
	}
	log := e.logger.With("run_id", rep.RunID)
	defer func() {
		rep.Duration = e.now().Sub(rep.StartedAt)
		log.Info("log sync finished",
			"archived", len(rep.Archived),
			"skipped", rep.Skipped,
			"failed", len(rep.Failed),
			"evicted", len(rep.Evicted),
			"stored", rep.Stored,
			"dry_run", dryRun,
		)
	}()

	target := rep.TargetDir

	// Ensure
	if !dryRun {
		if err := os.MkdirAll(target, 0o755); err != nil {
			log.Error("cannot create archive folder", "path", target, "error", err)
			rep.Error = fmt.Sprintf("create archive folder: %v", err)
			return rep
		}
		e.sweepTemp(log, target)
	}

	// Inventory
	existing := archive.ListLogFiles(target, e.cfg.Archive.Extension)
	archived, invalid := archive.ExtractTimestampKeys(existing, e.namer, log)
	rep.Invalid = invalid
	stored := len(existing)

	// Discover
	sources := archive.ListLogFiles(e.cfg.SourceDir, e.cfg.Archive.Extension)
	rep.Discovered = len(sources)
	log.Debug("log sync inventory", "archived", stored, "candidates", len(sources))

	// Transfer
	var planned []string
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			log.Warn("log sync interrupted", "error", err)
			rep.Error = fmt.Sprintf("interrupted: %v", err)
			break
		}

		info, err := os.Stat(src)
		if err != nil {
			e.fail(log, rep, &FileError{Path: src, Op: "stat", Err: err})
			continue
		}

		key := e.namer.Key(info.ModTime())
		if _, ok := archived[key]; ok {
			rep.Skipped++
			continue
		}

		name := e.namer.FileName(info.ModTime())
		if dryRun {
			planned = append(planned, filepath.Join(target, name))
		} else {
			purged, err := e.transfer(src, info, filepath.Join(target, name))
			if err != nil {
				e.fail(log, rep, err)
				continue
			}
			rep.Purged += purged
			if purged > 0 {
				log.Debug("purged sensitive paths", "source", src, "count", purged)
			}
		}

		archived[key] = struct{}{}
		rep.Archived = append(rep.Archived, name)
		stored++
		log.Info("archived log file", "source", src, "name", name)
	}

	// Evict
	if stored > e.cfg.Archive.MaxFiles {
		if dryRun {
			_, drop := archive.SelectEvictions(append(existing, planned...), e.cfg.Archive.MaxFiles)
			rep.Evicted = drop
			stored -= len(drop)
		} else {
			res := e.evictor.Evict(target, e.cfg.Archive.MaxFiles)
			rep.Evicted = res.Removed
			rep.Sidecars = res.Sidecars
			for _, f := range res.Failed {
				rep.Failed = append(rep.Failed, &FileError{Path: f.Path, Op: "evict", Err: f.Err})
			}
		}
	}

	if dryRun {
		rep.Stored = stored
	} else {
		rep.Stored = len(archive.ListLogFiles(target, e.cfg.Archive.Extension))
	}
	return rep
}

func (e *Engine) fail(log *slog.Logger, rep *Report, err *FileError) {
	log.Error("failed to archive log file", "path", err.Path, "op", err.Op, "error", err.Err)
	rep.Failed = append(rep.Failed, err)
}

// tempPattern names in-flight copies inside the archive folder.
const tempPattern = ".logkeep-*.tmp"

// sweepTemp removes copies left behind by a pass that died before renaming
// them into place.
func (e *Engine) sweepTemp(log *slog.Logger, folder string) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return
	}
	for _, ent := range entries {
		if ok, _ := filepath.Match(tempPattern, ent.Name()); !ok || !ent.Type().IsRegular() {
			continue
		}
		path := filepath.Join(folder, ent.Name())
		if err := os.Remove(path); err != nil {
			log.Warn("failed to remove stale temp file", "path", path, "error", err)
			continue
		}
		log.Info("removed stale temp file", "path", path)
	}
}

// transfer writes the redacted content of src to dst. The content goes to a
// temporary file first, so a failed copy never leaves a partial archive
// entry whose name would suppress a retry.
func (e *Engine) transfer(src string, info os.FileInfo, dst string) (purged int, ferr *FileError) {
	if _, err := os.Stat(dst); err == nil {
		return 0, &FileError{Path: src, Op: "write", Err: fmt.Errorf("%s already exists", filepath.Base(dst))}
	}

	in, err := e.open(src)
	if err != nil {
		return 0, &FileError{Path: src, Op: "open", Err: err}
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), tempPattern)
	if err != nil {
		return 0, &FileError{Path: src, Op: "create", Err: err}
	}
	defer func() {
		if ferr != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	purged, err = e.copyContent(tmp, in)
	if err != nil {
		return 0, &FileError{Path: src, Op: "copy", Err: err}
	}
	if err := tmp.Chmod(0o644); err != nil {
		return 0, &FileError{Path: src, Op: "chmod", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return 0, &FileError{Path: src, Op: "write", Err: err}
	}
	if err := os.Chtimes(tmp.Name(), info.ModTime(), info.ModTime()); err != nil {
		return 0, &FileError{Path: src, Op: "chtimes", Err: err}
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return 0, &FileError{Path: src, Op: "rename", Err: err}
	}
	return purged, nil
}

// copyContent copies r to w verbatim, or line by line through the redactor
// when one is configured. Redacted output always uses "\n" line endings. It
// returns the number of paths purged.
func (e *Engine) copyContent(w io.Writer, r io.Reader) (int, error) {
	if e.redactor.Empty() {
		_, err := io.Copy(w, r)
		return 0, err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	purged := 0
	bw := bufio.NewWriter(w)
	for scanner.Scan() {
		line, n := e.redactor.RedactAndCount(scanner.Text())
		purged += n
		if _, err := bw.WriteString(line); err != nil {
			return purged, err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return purged, err
		}
	}
	if err := scanner.Err(); err != nil {
		return purged, err
	}
	return purged, bw.Flush()
}
