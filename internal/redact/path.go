package redact

import (
	"strings"
)

// PurgeMarker replaces the removed part of a sensitive path.
const PurgeMarker = "<Filepath purged>/"

// PathRedactor removes a known root path from log lines.
//
// Only exact, in-order occurrences of the root's segments are removed, so
// the redaction is conservative: paths under a different root survive.
type PathRedactor struct {
	segments []string
}

// NewPathRedactor creates a PathRedactor for the given root. Both forward and
// backward slashes separate segments.
func NewPathRedactor(root string) *PathRedactor {
	return &PathRedactor{
		segments: splitSegments(root),
	}
}

// Segments returns the non-empty segments of the root, in order.
func (p *PathRedactor) Segments() []string {
	return append([]string(nil), p.segments...)
}

// Redact purges the root path from a single line. The line is rescanned
// after every successful pass, since it may hold several occurrences.
//
// Example:
//
//	root "C:/Users/me/project"
//	"error at C:/Users/me/project/src/foo.cs" → "error at <Filepath purged>/src/foo.cs"
func (p *PathRedactor) Redact(line string) string {
	if len(p.segments) == 0 {
		return line
	}

	for {
		next, ok := p.redactOnce(line)
		if !ok {
			return line
		}
		line = next
	}
}

// RedactLines applies Redact to every line, in place.
func (p *PathRedactor) RedactLines(lines []string) []string {
	for i, line := range lines {
		lines[i] = p.Redact(line)
	}
	return lines
}

// RedactAndCount redacts the line and returns how many purge markers were
// inserted.
func (p *PathRedactor) RedactAndCount(line string) (string, int) {
	if len(p.segments) == 0 {
		return line, 0
	}

	count := 0
	for {
		next, ok := p.redactOnce(line)
		if !ok {
			return line, count
		}
		line = next
		count++
	}
}

// redactOnce walks the segments from the start of the line. Each matching
// segment is cut out along with one trailing separator, and the next segment
// is searched from the cut position. The walk stops at the first miss. If
// anything was cut, the marker goes where the first cut happened.
func (p *PathRedactor) redactOnce(line string) (string, bool) {
	first := -1
	cursor := 0

	for _, seg := range p.segments {
		idx := indexOutsideMarkers(line, seg, cursor)
		if idx < 0 {
			break
		}

		end := idx + len(seg)
		if end < len(line) && isSeparator(line[end]) {
			end++
		}
		line = line[:idx] + line[end:]

		if first < 0 {
			first = idx
		}
		cursor = idx
	}

	if first < 0 {
		return line, false
	}
	return line[:first] + PurgeMarker + line[first:], true
}

// indexOutsideMarkers returns the index of the first occurrence of seg at or
// after from that does not overlap a purge marker, or -1.
func indexOutsideMarkers(line, seg string, from int) int {
	for from <= len(line)-len(seg) {
		rel := strings.Index(line[from:], seg)
		if rel < 0 {
			return -1
		}
		idx := from + rel
		if !overlapsMarker(line, idx, idx+len(seg)) {
			return idx
		}
		from = idx + 1
	}
	return -1
}

func overlapsMarker(line string, start, end int) bool {
	offset := 0
	for {
		rel := strings.Index(line[offset:], PurgeMarker)
		if rel < 0 {
			return false
		}
		mStart := offset + rel
		mEnd := mStart + len(PurgeMarker)
		if mStart >= end {
			return false
		}
		if start < mEnd {
			return true
		}
		offset = mEnd
	}
}

func isSeparator(c byte) bool {
	return c == '/' || c == '\\'
}

func splitSegments(root string) []string {
	parts := strings.FieldsFunc(root, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	return parts
}

// Redact purges sensitiveRoot from line. It is a convenience for one-off
// calls; reuse a PathRedactor when redacting many lines.
func Redact(line, sensitiveRoot string) string {
	return NewPathRedactor(sensitiveRoot).Redact(line)
}
