// Package cli provides the terminal formatting shared by newtcheck output:
// ANSI colors, dot padding, status labels and aligned tables.
package cli

import (
	"os"
	"strings"
)

// colorEnabled is false when NO_COLOR env var is set (per no-color.org).
var colorEnabled = os.Getenv("NO_COLOR") == ""

const reset = "\033[0m"

func paint(code, s string) string {
	if !colorEnabled {
		return s
	}
	return code + s + reset
}

// Green wraps s in ANSI green. Returns s unchanged when NO_COLOR is set.
func Green(s string) string { return paint("\033[32m", s) }

// Yellow wraps s in ANSI yellow. Returns s unchanged when NO_COLOR is set.
func Yellow(s string) string { return paint("\033[33m", s) }

// Red wraps s in ANSI red. Returns s unchanged when NO_COLOR is set.
func Red(s string) string { return paint("\033[31m", s) }

// Bold wraps s in ANSI bold. Returns s unchanged when NO_COLOR is set.
func Bold(s string) string { return paint("\033[1m", s) }

// Dim wraps s in ANSI dim. Returns s unchanged when NO_COLOR is set.
func Dim(s string) string { return paint("\033[2m", s) }

var badges = map[string]string{
	"success": "PASS",
	"failure": "FAIL",
	"error":   "ERROR",
	"skipped": "SKIP",
}

// Status colors a result status: green for success, red for failure and
// error, yellow for skipped.
func Status(status string) string {
	switch status {
	case "success":
		return Green(status)
	case "failure", "error":
		return Red(status)
	case "skipped":
		return Yellow(status)
	}
	return status
}

// Badge returns the colored short label for status (PASS, FAIL, ERROR,
// SKIP), or status itself when it has none.
func Badge(status string) string {
	b, ok := badges[status]
	if !ok {
		return status
	}
	switch status {
	case "success":
		return Green(b)
	case "skipped":
		return Yellow(b)
	}
	return Red(b)
}

// DotPad pads name with dots to the given width.
// Example: DotPad("leaf1", 12) → "leaf1 ......"
func DotPad(name string, width int) string {
	if width <= 0 || len(name) >= width-1 {
		return name
	}
	dots := width - len(name) - 1
	return name + " " + strings.Repeat(".", dots)
}
