package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tessro/cody/internal/core"
)

var (
	out io.Writer = os.Stdout

	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1DB954"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	successColor = color.New(color.FgGreen, color.Bold)
)

// render prints the envelope as JSON when --json is set, otherwise hands the
// data of a successful response to pretty. A failed response is an error in
// both modes.
func render[T any](resp core.Response[T], pretty func(T) error) error {
	if JSONOutput() {
		if err := printJSON(resp); err != nil {
			return err
		}
		return resp.Err()
	}
	if !resp.OK() {
		return resp.Err()
	}
	return pretty(resp.Data)
}

// check unwraps a response for commands that need the data before printing.
func check[T any](resp core.Response[T]) (T, error) {
	if !resp.OK() {
		var zero T
		return zero, resp.Err()
	}
	return resp.Data, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// done prints a confirmation line, or a small JSON object in --json mode.
func done(fields map[string]any, format string, args ...any) error {
	if JSONOutput() {
		return printJSON(fields)
	}
	_, _ = successColor.Fprintf(out, format+"\n", args...)
	return nil
}

// newTable returns a rounded go-pretty table writing to stdout.
func newTable(headers ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	if len(headers) > 0 {
		t.AppendHeader(table.Row(headers))
	}
	return t
}

// StatusIcon returns an icon for the given boolean status.
func StatusIcon(active bool) string {
	if active {
		return color.GreenString("●")
	}
	return color.HiBlackString("○")
}

// TruncateString truncates a string to maxLen runes, adding "..." if truncated.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// FormatDuration formats a duration as m:ss or h:mm:ss.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int(d.Round(time.Second) / time.Second)
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatProgress renders a progress bar of the given width.
func FormatProgress(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	filled = max(0, min(filled, width))
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}

// FormatAdded renders an added-at time relative to now.
func FormatAdded(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}
