package archive

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sort"
)

// Evictor keeps the archive folder under its file cap by deleting the
// oldest archived logs along with their sidecar metadata files.
type Evictor struct {
	Extension     string // archived log extension, e.g. ".log"
	MetaExtension string // sidecar suffix appended to the full name, e.g. ".meta"
	logger        *slog.Logger
}

// NewEvictor creates an Evictor. A nil logger falls back to slog.Default.
func NewEvictor(ext, metaExt string, logger *slog.Logger) *Evictor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evictor{
		Extension:     ext,
		MetaExtension: metaExt,
		logger:        logger.With("component", "archive.evictor"),
	}
}

// EvictResult lists what an eviction pass removed.
type EvictResult struct {
	Kept     int
	Removed  []string
	Sidecars []string
	Failed   []EvictFailure
}

// EvictFailure is an archived file that could not be deleted.
type EvictFailure struct {
	Path string
	Err  error
}

// Plan splits the archived files in folder into the newest limit to keep
// and the rest to drop.
func (ev *Evictor) Plan(folder string, limit int) (keep, drop []string) {
	return SelectEvictions(ListLogFiles(folder, ev.Extension), limit)
}

// SelectEvictions sorts files by name, newest first, and splits them at
// limit. Names are compared as plain strings, which matches recency because
// the timestamp keys are fixed-width. The input slice is reordered.
func SelectEvictions(files []string, limit int) (keep, drop []string) {
	sort.Strings(files)
	// Newest first.
	for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
		files[i], files[j] = files[j], files[i]
	}

	if limit < 0 {
		limit = 0
	}
	if len(files) <= limit {
		return files, nil
	}
	return files[:limit], files[limit:]
}

// Evict deletes every archived file beyond the newest limit. A file that
// cannot be deleted is logged and reported; the rest are still processed.
func (ev *Evictor) Evict(folder string, limit int) EvictResult {
	keep, drop := ev.Plan(folder, limit)
	res := EvictResult{Kept: len(keep)}

	for _, path := range drop {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			ev.logger.Error("failed to evict archived log", "path", path, "error", err)
			res.Failed = append(res.Failed, EvictFailure{Path: path, Err: err})
			res.Kept++
			continue
		}
		res.Removed = append(res.Removed, path)
		ev.logger.Info("evicted archived log", "path", path)

		if sidecar, ok := ev.removeSidecar(path); ok {
			res.Sidecars = append(res.Sidecars, sidecar)
		}
	}
	return res
}

// removeSidecar deletes path+MetaExtension if it exists. Failures are only
// logged.
func (ev *Evictor) removeSidecar(path string) (string, bool) {
	if ev.MetaExtension == "" {
		return "", false
	}
	sidecar := path + ev.MetaExtension
	err := os.Remove(sidecar)
	switch {
	case err == nil:
		return sidecar, true
	case errors.Is(err, fs.ErrNotExist):
		return "", false
	default:
		ev.logger.Warn("failed to remove sidecar file", "path", sidecar, "error", err)
		return "", false
	}
}
