// Package ui provides the progress reporting interface injected into the
// sync engine, plus a styled console implementation. Components never write
// to the terminal directly; they report through a Reporter, and tests inject
// the no-op implementation.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Reporter receives user-facing progress and status messages.
type Reporter interface {
	Infof(format string, args ...any)
	Successf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Console is a Reporter that renders styled lines to a terminal. Styling is
// disabled automatically when the output profile supports no color.
type Console struct {
	out     io.Writer
	success lipgloss.Style
	warn    lipgloss.Style
	errs    lipgloss.Style
}

// NewConsole creates a Console writing to out (os.Stderr when nil).
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stderr
	}
	c := &Console{out: out}
	if termenv.EnvColorProfile() != termenv.Ascii {
		c.success = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
		c.warn = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
		c.errs = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	}
	return c
}

// Infof implements Reporter.
func (c *Console) Infof(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

// Successf implements Reporter.
func (c *Console) Successf(format string, args ...any) {
	fmt.Fprintln(c.out, c.success.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Warnf implements Reporter.
func (c *Console) Warnf(format string, args ...any) {
	fmt.Fprintln(c.out, c.warn.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Errorf implements Reporter.
func (c *Console) Errorf(format string, args ...any) {
	fmt.Fprintln(c.out, c.errs.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Noop is a Reporter that discards everything.
type Noop struct{}

// Infof implements Reporter.
func (Noop) Infof(string, ...any) {}

// Successf implements Reporter.
func (Noop) Successf(string, ...any) {}

// Warnf implements Reporter.
func (Noop) Warnf(string, ...any) {}

// Errorf implements Reporter.
func (Noop) Errorf(string, ...any) {}
