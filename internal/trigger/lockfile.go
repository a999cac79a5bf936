package trigger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherClosed is returned when the file watcher stops delivering events.
var ErrWatcherClosed = errors.New("watcher closed unexpectedly")

// LockWatcher waits for a host's lock file to be removed or renamed away,
// which is how a host without a shutdown hook signals that it has exited.
type LockWatcher struct {
	path    string
	logger  *slog.Logger
	watcher *fsnotify.Watcher
}

// NewLockWatcher creates a watcher for the lock file at path.
func NewLockWatcher(path string, logger *slog.Logger) *LockWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LockWatcher{
		path:   filepath.Clean(path),
		logger: logger.With("component", "trigger.lockfile"),
	}
}

// Wait blocks until the lock file is gone. It returns immediately when the
// file does not exist, and returns the context's error if ctx ends first.
func (lw *LockWatcher) Wait(ctx context.Context) error {
	// The directory is watched rather than the file, so removal is seen even
	// when the file is replaced before the watch is set up.
	if err := lw.setupWatcher(); err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}
	defer lw.watcher.Close()

	if _, err := os.Stat(lw.path); errors.Is(err, fs.ErrNotExist) {
		lw.logger.Info("lock file already gone", "path", lw.path)
		return nil
	}

	lw.logger.Info("waiting for lock file removal", "path", lw.path)
	return lw.watch(ctx)
}

func (lw *LockWatcher) setupWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	lw.watcher = watcher

	if err := watcher.Add(filepath.Dir(lw.path)); err != nil {
		watcher.Close()
		return err
	}
	return nil
}

func (lw *LockWatcher) watch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-lw.watcher.Events:
			if !ok {
				return ErrWatcherClosed
			}
			if lw.released(event) {
				lw.logger.Info("lock file released", "path", lw.path, "op", event.Op.String())
				return nil
			}

		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// released reports whether event means the lock file no longer exists.
func (lw *LockWatcher) released(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != lw.path {
		return false
	}
	if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	// A rename onto the same name leaves a file in place.
	_, err := os.Stat(lw.path)
	return errors.Is(err, fs.ErrNotExist)
}
