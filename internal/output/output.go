// Package output formats command results for the terminal or for scripts.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Format selects how results are printed.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text or json)", s)
	}
}

// Writer provides formatted output for CLI.
type Writer struct {
	out    io.Writer
	format Format
}

// New creates a text Writer.
func New(out io.Writer) *Writer {
	return &Writer{out: out, format: FormatText}
}

// NewWithFormat creates a Writer for the given format.
func NewWithFormat(out io.Writer, f Format) *Writer {
	return &Writer{out: out, format: f}
}

// JSONMode reports whether results are printed as JSON.
func (w *Writer) JSONMode() bool {
	return w.format == FormatJSON
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if w.JSONMode() {
		return
	}
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	if w.JSONMode() {
		return
	}
	_, _ = fmt.Fprintln(w.out)
}

// List prints one item per line in text mode, or a JSON array.
func (w *Writer) List(items []string) error {
	if w.JSONMode() {
		if items == nil {
			items = []string{}
		}
		return w.JSON(items)
	}
	for _, it := range items {
		if _, err := fmt.Fprintln(w.out, it); err != nil {
			return err
		}
	}
	return nil
}

// KeyValues prints aligned "key: value" rows in text mode, or a JSON
// object.
func (w *Writer) KeyValues(keys []string, values map[string]any) error {
	if w.JSONMode() {
		return w.JSON(values)
	}
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}
	for _, k := range keys {
		if _, err := fmt.Fprintf(w.out, "%-*s  %v\n", width+1, k+":", values[k]); err != nil {
			return err
		}
	}
	return nil
}

// JSON writes v as indented JSON regardless of format.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
