// Package naming maps log file timestamps to archive file names and back.
//
// Archive names look like Log_2025-01-26_10-04-09.log. The timestamp key is
// fixed-width, so sorting names as plain strings sorts them by time. The
// retention evictor relies on that.
package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	// KeyLayout is the zero-padded, sortable key format.
	KeyLayout = "2006-01-02_15-04-05"

	// LegacyKeyLayout renders seconds without padding. It is byte-compatible
	// with archives written by older tooling but does not sort within a minute.
	LegacyKeyLayout = "2006-01-02_15-04-5"

	// MinKeyLen is the shortest key either layout renders.
	MinKeyLen = len(LegacyKeyLayout)
)

// InvalidNameError reports an archive file name that does not carry a
// timestamp key.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid archive file name %q: %s", e.Name, e.Reason)
}

// Namer converts between timestamps, keys and archive file names.
type Namer struct {
	Prefix        string
	Extension     string
	LegacySeconds bool
	Location      *time.Location
}

// New returns a Namer using the given prefix and extension.
func New(prefix, extension string, legacySeconds bool, loc *time.Location) *Namer {
	if loc == nil {
		loc = time.Local
	}
	return &Namer{
		Prefix:        prefix,
		Extension:     extension,
		LegacySeconds: legacySeconds,
		Location:      loc,
	}
}

func (n *Namer) layout() string {
	if n.LegacySeconds {
		return LegacyKeyLayout
	}
	return KeyLayout
}

// Key encodes t as a sortable timestamp key with one-second granularity.
func (n *Namer) Key(t time.Time) string {
	return t.In(n.Location).Truncate(time.Second).Format(n.layout())
}

// BaseName returns the archive name for t without the extension.
func (n *Namer) BaseName(t time.Time) string {
	return n.Prefix + n.Key(t)
}

// FileName returns the archive file name for t.
func (n *Namer) FileName(t time.Time) string {
	return n.BaseName(t) + n.Extension
}

// KeyFromFileName extracts the timestamp key from an archive file name or
// path. Keys that parse as timestamps are re-encoded with the current
// layout, so padded and legacy names written for the same second agree.
func (n *Namer) KeyFromFileName(name string) (string, error) {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	if len(base) < len(n.Prefix)+MinKeyLen {
		return "", &InvalidNameError{Name: name, Reason: "too short to hold a timestamp"}
	}
	if !strings.HasPrefix(base, n.Prefix) {
		return "", &InvalidNameError{Name: name, Reason: fmt.Sprintf("missing prefix %q", n.Prefix)}
	}

	key := base[len(n.Prefix):]
	if t, err := n.ParseKey(key); err == nil {
		return n.Key(t), nil
	}
	return key, nil
}

// ParseKey decodes a timestamp key. Both padded and unpadded seconds are
// accepted.
func (n *Namer) ParseKey(key string) (time.Time, error) {
	// The unpadded seconds element also accepts two digits.
	t, err := time.ParseInLocation(LegacyKeyLayout, key, n.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp key %q: %w", key, err)
	}
	return t, nil
}
