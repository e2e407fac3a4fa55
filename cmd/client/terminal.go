package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dgnsrekt/asciitv/internal/tv"
)

const (
	clearScreen = "\033[H\033[2J"
	helpLine    = "[p] power  [1-9] channel  [+/-] volume  [m] mute  [i] info  [q] quit"
)

// terminal paints the TV screen on an ANSI terminal: the picture, then a
// footer with the set's info line and the key help.
type terminal struct {
	out io.Writer

	mu     sync.Mutex
	screen string
	footer string
}

var _ tv.Display = (*terminal)(nil)

func newTerminal(out io.Writer) *terminal {
	return &terminal{out: out}
}

func (t *terminal) ShowContent(text string) { t.show(text) }
func (t *terminal) ShowStatus(text string)  { t.show(text) }

// SetFooter replaces the info line and repaints.
func (t *terminal) SetFooter(footer string) {
	t.mu.Lock()
	t.footer = footer
	t.mu.Unlock()
	t.Redraw()
}

func (t *terminal) show(text string) {
	t.mu.Lock()
	t.screen = text
	t.mu.Unlock()
	t.Redraw()
}

// Redraw paints the current screen again.
func (t *terminal) Redraw() {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(t.screen)
	if !strings.HasSuffix(t.screen, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("-", len(helpLine)))
	fmt.Fprintf(&b, "\n%s\n%s\n> ", t.footer, helpLine)
	io.WriteString(t.out, b.String())
}
