// Package archive reads and trims the folder of archived log files.
//
// The folder is owned by logkeep: files are created by the sync engine, read
// by the scanner and removed only by the Evictor.
package archive

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bimmerbailey/logkeep/internal/naming"
)

// ListLogFiles returns the paths of all files directly inside folder whose
// extension equals ext. Symlinks count when they resolve to a regular file;
// directories and dangling links are skipped. A missing or unreadable folder
// yields an empty list. The order carries no meaning.
func ListLogFiles(folder, ext string) []string {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return []string{}
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ext {
			continue
		}
		path := filepath.Join(folder, e.Name())
		if !isRegularFile(path, e) {
			continue
		}
		files = append(files, path)
	}
	return files
}

func isRegularFile(path string, e fs.DirEntry) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ExtractTimestampKeys maps archive paths to their timestamp keys. Names that
// do not carry a key are logged and left out of the set.
func ExtractTimestampKeys(paths []string, namer *naming.Namer, logger *slog.Logger) (map[string]struct{}, []string) {
	keys := make(map[string]struct{}, len(paths))
	var invalid []string

	for _, p := range paths {
		key, err := namer.KeyFromFileName(p)
		if err != nil {
			logger.Warn("skipping unrecognized archive file", "path", p, "error", err)
			invalid = append(invalid, p)
			continue
		}
		keys[key] = struct{}{}
	}
	return keys, invalid
}

// Entry describes one archived log file.
type Entry struct {
	FileName  string    `json:"file_name" yaml:"file_name"`
	Path      string    `json:"path" yaml:"path"`
	Key       string    `json:"key,omitempty" yaml:"key,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Size      int64     `json:"size" yaml:"size"`
	ModTime   time.Time `json:"mod_time" yaml:"mod_time"`
	Valid     bool      `json:"valid" yaml:"valid"`
}

// ListEntries describes every archived log file in folder, newest name first.
func ListEntries(folder string, namer *naming.Namer) []Entry {
	paths := ListLogFiles(folder, namer.Extension)
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))

	entries := make([]Entry, 0, len(paths))
	for _, p := range paths {
		e := Entry{
			FileName: filepath.Base(p),
			Path:     p,
		}
		if info, err := os.Stat(p); err == nil {
			e.Size = info.Size()
			e.ModTime = info.ModTime()
		}
		if key, err := namer.KeyFromFileName(p); err == nil {
			e.Key = key
			if ts, err := namer.ParseKey(key); err == nil {
				e.Timestamp = ts
				e.Valid = true
			}
		}
		entries = append(entries, e)
	}
	return entries
}
