// Package ui writes colored status lines and cell values for run reports
// and posting tables.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"

	"github.com/athifer/biodsjobs/internal/models"
)

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ANSI palette indexes plus the link hex color.
const (
	colorBad   = "1"
	colorGood  = "2"
	colorWarn  = "3"
	colorInfo  = "4"
	colorPlain = "7"
	colorLink  = "#87CEEB"
)

// Score bands for relevance cells.
const (
	StrongScore   = 60.0
	ModerateScore = 30.0
)

type UI struct {
	Out          io.Writer
	Err          io.Writer
	Output       *termenv.Output
	ErrOutput    *termenv.Output
	ColorEnabled bool
}

func New(out io.Writer, err io.Writer, mode ColorMode, disableColor bool) *UI {
	output := termenv.NewOutput(out)
	return &UI{
		Out:          out,
		Err:          err,
		Output:       output,
		ErrOutput:    termenv.NewOutput(err),
		ColorEnabled: colorEnabled(output, mode, disableColor),
	}
}

func colorEnabled(output *termenv.Output, mode ColorMode, disableColor bool) bool {
	if disableColor {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return output.ColorProfile() != termenv.Ascii
	}
}

func NormalizeColorMode(value string) ColorMode {
	switch ColorMode(strings.ToLower(strings.TrimSpace(value))) {
	case ColorAlways:
		return ColorAlways
	case ColorNever:
		return ColorNever
	default:
		return ColorAuto
	}
}

func (u *UI) Errorf(format string, args ...any) {
	u.line(u.Err, u.ErrOutput, colorBad, format, args...)
}

// Warnf reports a degraded but non-fatal condition, such as a failed target.
func (u *UI) Warnf(format string, args ...any) {
	u.line(u.Err, u.ErrOutput, colorWarn, format, args...)
}

func (u *UI) Infof(format string, args ...any) {
	u.line(u.Out, u.Output, colorInfo, format, args...)
}

func (u *UI) Successf(format string, args ...any) {
	u.line(u.Out, u.Output, colorGood, format, args...)
}

func (u *UI) line(w io.Writer, output *termenv.Output, color, format string, args ...any) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	fmt.Fprintln(w, Paint(output, u.ColorEnabled, color, msg))
}

// TargetStatus colors a run status: green for ok, yellow for timed-out and
// red for anything else.
func (u *UI) TargetStatus(status models.TargetStatus) string {
	color := colorBad
	switch status {
	case models.TargetOK:
		color = colorGood
	case models.TargetTimedOut:
		color = colorWarn
	}
	return Paint(u.Output, u.ColorEnabled, color, string(status))
}

// Paint colors text with a palette index or hex color. Disabled color or a
// nil output returns text unchanged.
func Paint(output *termenv.Output, enabled bool, color, text string) string {
	if !enabled || output == nil {
		return text
	}
	return output.String(text).Foreground(output.Color(color)).String()
}

func Link(output *termenv.Output, enabled bool, text string) string {
	return Paint(output, enabled, colorLink, text)
}

// Score renders a relevance score with one decimal, colored by band.
func Score(output *termenv.Output, enabled bool, value float64) string {
	color := colorPlain
	switch {
	case value >= StrongScore:
		color = colorGood
	case value >= ModerateScore:
		color = colorWarn
	}
	return Paint(output, enabled, color, fmt.Sprintf("%.1f", value))
}
