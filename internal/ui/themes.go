// Package ui holds the terminal color theme shared by the command-line
// reporters and the fatal error handler.
package ui

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// Theme maps output roles to ANSI escape codes.
type Theme struct {
	Name string
	// Accent highlights numbers being factored.
	Accent string
	// Muted is used for separators and timestamps.
	Muted string
	// Success marks accepted factors and complete factorizations.
	Success string
	// Warning marks partial results.
	Warning string
	// Error marks rejected factors and failures.
	Error string
	Bold  string
	Reset string
}

var (
	// DefaultTheme uses 256-color codes readable on dark and light backgrounds.
	DefaultTheme = Theme{
		Name:    "default",
		Accent:  "\033[38;5;39m",
		Muted:   "\033[38;5;245m",
		Success: "\033[38;5;34m",
		Warning: "\033[38;5;214m",
		Error:   "\033[38;5;160m",
		Bold:    "\033[1m",
		Reset:   "\033[0m",
	}

	// NoColorTheme emits no escape codes.
	NoColorTheme = Theme{Name: "none"}

	currentTheme = DefaultTheme
	themeMutex   sync.RWMutex
)

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme replaces the active theme. Tests use it to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// InitTheme selects the theme for output written to out. Colors are
// disabled when noColor is set, when NO_COLOR is present in the
// environment (https://no-color.org/), or when out is not a terminal.
func InitTheme(noColor bool, out *os.File) {
	t := DefaultTheme
	if noColor || !colorCapable(out) {
		t = NoColorTheme
	}
	SetCurrentTheme(t)
}

func colorCapable(out *os.File) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	if out == nil {
		return false
	}
	fd := out.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
