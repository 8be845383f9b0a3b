package ui

import "fmt"

// ANSI256 color codes.
const (
	colorAccent = 74  // blue
	colorOK     = 71  // green
	colorWarn   = 179 // amber
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
)

var noColor bool

func paint(code int, s string) string {
	if noColor || !ShouldUseColor() {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderWarning returns s in the warning (amber) color.
func RenderWarning(s string) string { return paint(colorWarn, s) }

// RenderEnabled renders a correlation enabled flag: green when on, gray
// otherwise.
func RenderEnabled(enabled bool) string {
	if enabled {
		return paint(colorOK, "enabled")
	}
	return paint(colorMuted, "disabled")
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
