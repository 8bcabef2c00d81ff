// Package output renders CLI output: status lines, tables and JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
)

// Format selects text or JSON rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

// Writer provides formatted output for the CLI.
type Writer struct {
	out    io.Writer
	styles Styles
	color  bool
}

// New returns a Writer for out. Colour is used only when out is a terminal
// and NO_COLOR is unset.
func New(out io.Writer) *Writer {
	color := IsTTY(out) && !NoColor()
	styles := PlainStyles()
	if color {
		styles = DefaultStyles()
	}
	return &Writer{out: out, styles: styles, color: color}
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NoColor reports whether NO_COLOR is set.
func NoColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

// Status prints msg after icon. An empty icon indents instead.
// Write errors are ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon == "" {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
		return
	}
	_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
}

// Statusf is Status with formatting.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success line.
func (w *Writer) Success(msg string) {
	w.Status(w.styles.Success.Render("✓"), msg)
}

// Successf is Success with formatting.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning line.
func (w *Writer) Warning(msg string) {
	w.Status(w.styles.Warning.Render("!"), msg)
}

// Warningf is Warning with formatting.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error line.
func (w *Writer) Error(msg string) {
	w.Status(w.styles.Error.Render("✗"), msg)
}

// Header prints a section heading.
func (w *Writer) Header(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(msg))
}

// KeyValue prints an aligned "key: value" line.
func (w *Writer) KeyValue(key string, value any) {
	_, _ = fmt.Fprintf(w.out, "  %s %v\n", w.styles.Label.Render(fmt.Sprintf("%-12s", key+":")), value)
}

// Code prints content indented, framed by blank lines.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(content, "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", w.styles.Dim.Render(line))
	}
	_, _ = fmt.Fprintln(w.out)
}

// Table prints rows under headers with a rounded border.
func (w *Writer) Table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(w.styles.Border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return w.styles.Header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	_, _ = fmt.Fprintln(w.out, t.String())
}

// JSON writes v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Progress redraws an in-place progress line.
func (w *Writer) Progress(current, total int, msg string) {
	if total <= 0 {
		return
	}
	const width = 30
	filled := current * width / total
	filled = max(0, min(filled, width))
	bar := w.styles.Success.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled)
	_, _ = fmt.Fprintf(w.out, "\r[%s] %3d%% %s", bar, current*100/total, msg)
	if current >= total {
		_, _ = fmt.Fprintln(w.out)
	}
}
