package tv

import (
	"strings"
	"sync"
)

// MaxLines is how many received lines the display keeps.
const MaxLines = 50

// DisplayBuffer accumulates streamed text and keeps only the most recent lines.
// A trailing partial line counts as a line.
type DisplayBuffer struct {
	mu   sync.Mutex
	max  int
	text string
}

// NewDisplayBuffer creates a buffer holding at most max lines.
func NewDisplayBuffer(max int) *DisplayBuffer {
	return &DisplayBuffer{max: max}
}

// Write appends p and drops lines from the front beyond the limit. It never fails.
func (b *DisplayBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.text += string(p)
	b.trim()
	return len(p), nil
}

func (b *DisplayBuffer) trim() {
	// Cheap check before splitting: max complete lines plus a partial one fit.
	if strings.Count(b.text, "\n") < b.max {
		return
	}
	lines := strings.SplitAfter(b.text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > b.max {
		b.text = strings.Join(lines[len(lines)-b.max:], "")
	}
}

// String returns the buffered text.
func (b *DisplayBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

// lines returns the buffered lines without their terminators.
func (b *DisplayBuffer) lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(b.text, "\n"), "\n")
}

// Reset empties the buffer.
func (b *DisplayBuffer) Reset() {
	b.mu.Lock()
	b.text = ""
	b.mu.Unlock()
}
