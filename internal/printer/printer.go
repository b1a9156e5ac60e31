// Package printer formats CLI output with color. Color is disabled
// automatically when the writer is not a terminal or NO_COLOR is set.
package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/teslashibe/lightnav/pkg/fixes"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
)

// Success prints a success line in green with a checkmark prefix
func Success(w io.Writer, format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprintln(w, msg)
}

// Info prints an informational line in the default color
func Info(w io.Writer, format string, a ...any) {
	fmt.Fprintf(w, format+"\n", a...)
}

// Warning prints a warning line in yellow with a warning prefix
func Warning(w io.Writer, format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠") {
		msg = "⚠️  " + msg
	}
	yellow.Fprintln(w, msg)
}

// Error prints a titled error with an explanation and suggestions, and
// returns a plain error carrying the title for cobra.
func Error(w io.Writer, title, explanation string, suggestions ...string) error {
	red.Fprintf(w, "%s\n\n", title)
	fmt.Fprintf(w, "%s\n", explanation)

	if len(suggestions) > 0 {
		fmt.Fprintln(w)
		if len(suggestions) == 1 {
			fmt.Fprintf(w, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(w, "Either:\n")
			for i, s := range suggestions {
				fmt.Fprintf(w, "  %d. %s\n", i+1, s)
			}
		}
	}
	return fmt.Errorf("%s", title)
}

// Header prints a bold section title
func Header(w io.Writer, format string, a ...any) {
	bold.Fprintf(w, format+"\n", a...)
}

// Fixes prints one row per fix, grouped by channel:
//
//	ch  sensor  pan       tilt     dir  raw pan   intensity
func Fixes(w io.Writer, list []fixes.Fix) {
	if len(list) == 0 {
		Warning(w, "no fixes")
		return
	}

	bold.Fprintf(w, "%-4s %-12s %9s %8s %4s %9s %10s\n", "ch", "sensor", "pan", "tilt", "dir", "raw pan", "intensity")
	for _, f := range list {
		cyan.Fprintf(w, "%-4d ", f.Channel)
		fmt.Fprintf(w, "%-12s ", f.SensorID)
		green.Fprintf(w, "%9.3f ", f.Pan)
		fmt.Fprintf(w, "%8.3f %+4d %9.3f %10.2f\n", f.Tilt, f.Direction, f.RawPan, f.Intensity)
	}
}
