// Package console provides operator console used by chat server and client to show lines to the user.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Console - operator console.
type Console interface {
	WriteLine(text string)
}

// Discard - console dropping every line.
var Discard Console = discard{}

type discard struct{}

func (discard) WriteLine(string) {}

// Terminal - console over io.Writer, lines from concurrent writers are never interleaved.
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	private *color.Color
	failure *color.Color
}

// NewTerminal - builds console over out.
// Colors are enabled only when out is a terminal.
func NewTerminal(out io.Writer) *Terminal {
	t := &Terminal{
		out:     out,
		private: color.New(color.FgCyan),
		failure: color.New(color.FgRed),
	}
	colored := false
	if f, ok := out.(*os.File); ok {
		colored = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	if colored && os.Getenv("NO_COLOR") == "" {
		t.private.EnableColor()
		t.failure.EnableColor()
	} else {
		t.private.DisableColor()
		t.failure.DisableColor()
	}
	return t
}

// WriteLine - prints single line.
func (t *Terminal) WriteLine(text string) {
	switch {
	case strings.HasPrefix(text, "[PM]"):
		text = t.private.Sprint(text)
	case strings.HasPrefix(text, "ERROR"):
		text = t.failure.Sprint(text)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, text)
}

// Errorf - prints formatted error line.
func (t *Terminal) Errorf(format string, v ...interface{}) {
	t.WriteLine("ERROR: " + fmt.Sprintf(format, v...))
}

// Prompt - prints text without line break.
func (t *Terminal) Prompt(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.out, text)
}
