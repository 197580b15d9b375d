package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/vijay-prabhu/emlsave/internal/session"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
)

// Terminal provides terminal-aware output utilities
type Terminal struct {
	IsTerminal bool
	UseColor   bool
	out        io.Writer
}

// NewTerminal creates a Terminal writing progress to stderr
func NewTerminal() *Terminal {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))
	return &Terminal{
		IsTerminal: isTerminal,
		UseColor:   isTerminal, // Only use color in terminal
		out:        os.Stderr,
	}
}

// ClearLine clears the current line (terminal only)
func (t *Terminal) ClearLine() {
	if t.IsTerminal {
		fmt.Fprint(t.out, "\r\033[K")
	}
}

// Color wraps text in ANSI color codes (terminal only)
func (t *Terminal) Color(color, text string) string {
	if !t.UseColor {
		return text
	}
	return color + text + ColorReset
}

// State shows a download state transition. On a terminal the line is
// rewritten in place; otherwise each state gets its own line.
func (t *Terminal) State(s session.State) {
	switch s {
	case session.Idle:
		return
	case session.Done, session.Failed:
		t.ClearLine()
		return
	}

	label := t.Color(StateColor(s), s.String()+"...")
	if t.IsTerminal {
		t.ClearLine()
		fmt.Fprint(t.out, label)
		return
	}
	fmt.Fprintln(t.out, label)
}

// Errorf prints an error line
func (t *Terminal) Errorf(format string, args ...any) {
	fmt.Fprintln(t.out, t.Color(ColorRed, fmt.Sprintf(format, args...)))
}

// Hintf prints guidance under an error
func (t *Terminal) Hintf(format string, args ...any) {
	fmt.Fprintln(t.out, t.Color(ColorYellow, fmt.Sprintf(format, args...)))
}

// StateColor returns the color for a download state
func StateColor(s session.State) string {
	switch s {
	case session.Authenticating:
		return ColorCyan
	case session.Fetching:
		return ColorBlue
	case session.Reconstructing:
		return ColorPurple
	case session.Delivering:
		return ColorGreen
	case session.Failed:
		return ColorRed
	default:
		return ColorGray
	}
}
