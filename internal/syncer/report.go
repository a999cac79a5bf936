package syncer

import (
	"encoding/json"
	"fmt"
	"time"
)

// FileError records a failure to transfer a single source file.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

type fileErrorView struct {
	Path  string `json:"path" yaml:"path"`
	Op    string `json:"op" yaml:"op"`
	Error string `json:"error" yaml:"error"`
}

func (e *FileError) view() fileErrorView {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return fileErrorView{Path: e.Path, Op: e.Op, Error: msg}
}

// MarshalJSON implements json.Marshaler for FileError.
func (e *FileError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.view())
}

// MarshalYAML implements yaml.Marshaler for FileError.
func (e *FileError) MarshalYAML() (interface{}, error) {
	return e.view(), nil
}

// Report summarizes one sync pass. Failures never escape a pass as errors;
// they are collected here and logged.
type Report struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration_ns" yaml:"duration"`
	SourceDir string        `json:"source_dir" yaml:"source_dir"`
	TargetDir string        `json:"target_dir" yaml:"target_dir"`
	DryRun    bool          `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`

	Discovered int          `json:"discovered" yaml:"discovered"`
	Archived   []string     `json:"archived" yaml:"archived"`
	Skipped    int          `json:"skipped" yaml:"skipped"`
	Failed     []*FileError `json:"failed,omitempty" yaml:"failed,omitempty"`
	Invalid    []string     `json:"invalid,omitempty" yaml:"invalid,omitempty"`
	Evicted    []string     `json:"evicted,omitempty" yaml:"evicted,omitempty"`
	Sidecars   []string     `json:"sidecars,omitempty" yaml:"sidecars,omitempty"`
	Stored     int          `json:"stored" yaml:"stored"`

	// Purged counts sensitive paths removed from archived lines.
	Purged int `json:"purged" yaml:"purged"`

	// Error is set when the pass stopped early: the archive folder could
	// not be created or the context ended.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the pass finished without any failure.
func (r *Report) OK() bool {
	return r.Error == "" && len(r.Failed) == 0
}

// Summary returns a one-line description of the pass.
func (r *Report) Summary() string {
	verb := "archived"
	if r.DryRun {
		verb = "would archive"
	}
	s := fmt.Sprintf("%s %d, skipped %d, failed %d, evicted %d, stored %d",
		verb, len(r.Archived), r.Skipped, len(r.Failed), len(r.Evicted), r.Stored)
	if r.Error != "" {
		s += " (" + r.Error + ")"
	}
	return s
}
