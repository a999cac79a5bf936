// Package output renders sync reports and archive listings.
// It supports text, JSON, table and YAML formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/bimmerbailey/logkeep/internal/archive"
	"github.com/bimmerbailey/logkeep/internal/syncer"
	"gopkg.in/yaml.v3"
)

// Format represents an output format type.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	case "yaml", "yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// Writer handles writing formatted output.
type Writer struct {
	w      io.Writer
	format Format
	color  ColorMode
}

// New creates a new output Writer with automatic color detection.
func New(w io.Writer, format Format) *Writer {
	return &Writer{w: w, format: format, color: ColorAuto}
}

// WithColor sets the color mode used by text output.
func (wr *Writer) WithColor(mode ColorMode) *Writer {
	wr.color = mode
	return wr
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML outputs any value as YAML.
func (wr *Writer) WriteYAML(v interface{}) error {
	enc := yaml.NewEncoder(wr.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// WriteReport outputs the result of a sync pass in the configured format.
func (wr *Writer) WriteReport(rep *syncer.Report) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(rep)
	case FormatYAML:
		return wr.WriteYAML(rep)
	case FormatTable:
		return wr.writeReportTable(rep)
	default:
		return wr.writeReportText(rep)
	}
}

func (wr *Writer) writeReportText(rep *syncer.Report) error {
	colorize := shouldColorize(wr.color, wr.w)

	for _, name := range rep.Archived {
		fmt.Fprintln(wr.w, paint(colorize, colorGreen, "+ "+name))
	}
	for _, path := range rep.Evicted {
		fmt.Fprintln(wr.w, paint(colorize, colorYellow, "- "+filepath.Base(path)))
	}
	for _, f := range rep.Failed {
		fmt.Fprintln(wr.w, paint(colorize, colorRed, "! "+f.Error()))
	}
	for _, path := range rep.Invalid {
		fmt.Fprintln(wr.w, paint(colorize, colorGray, "? "+filepath.Base(path)))
	}

	summary := rep.Summary()
	if !rep.OK() {
		summary = paint(colorize, colorBold+colorRed, summary)
	}
	_, err := fmt.Fprintln(wr.w, summary)
	return err
}

func (wr *Writer) writeReportTable(rep *syncer.Report) error {
	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTION\tFILE\tDETAIL")
	fmt.Fprintln(tw, "------\t----\t------")

	for _, name := range rep.Archived {
		fmt.Fprintf(tw, "archived\t%s\t\n", name)
	}
	for _, path := range rep.Evicted {
		fmt.Fprintf(tw, "evicted\t%s\t\n", filepath.Base(path))
	}
	for _, f := range rep.Failed {
		fmt.Fprintf(tw, "failed\t%s\t%s: %v\n", filepath.Base(f.Path), f.Op, f.Err)
	}
	for _, path := range rep.Invalid {
		fmt.Fprintf(tw, "invalid\t%s\t\n", filepath.Base(path))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(wr.w, "\n%s\n", rep.Summary())
	return err
}

// WriteEntries outputs an archive listing in the configured format.
func (wr *Writer) WriteEntries(entries []archive.Entry) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(entries)
	case FormatYAML:
		return wr.WriteYAML(entries)
	case FormatTable:
		return wr.writeEntriesTable(entries)
	default:
		return wr.writeEntriesText(entries)
	}
}

func (wr *Writer) writeEntriesText(entries []archive.Entry) error {
	colorize := shouldColorize(wr.color, wr.w)
	for _, e := range entries {
		line := e.FileName
		if !e.Valid {
			line = paint(colorize, colorGray, line+" (unrecognized name)")
		}
		fmt.Fprintln(wr.w, line)
	}
	return nil
}

func (wr *Writer) writeEntriesTable(entries []archive.Entry) error {
	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tTIMESTAMP\tSIZE")
	fmt.Fprintln(tw, "----\t---------\t----")

	for _, e := range entries {
		ts := "-"
		if e.Valid {
			ts = e.Timestamp.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.FileName, ts, humanSize(e.Size))
	}

	return tw.Flush()
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
