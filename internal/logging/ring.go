package logging

import (
	"strings"
	"sync"
)

// Ring is an io.Writer that keeps the last N log lines in memory.
// The TUI reads it for the Logs pane.
type Ring struct {
	mu      sync.Mutex
	lines   []string
	max     int
	partial string
}

// NewRing creates a ring holding up to max lines.
func NewRing(max int) *Ring {
	if max <= 0 {
		max = 200
	}
	return &Ring{max: max}
}

// Write splits p into lines. An unterminated tail is held until the next write.
func (r *Ring) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := r.partial + string(p)
	parts := strings.Split(data, "\n")
	r.partial = parts[len(parts)-1]

	for _, line := range parts[:len(parts)-1] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		r.lines = append(r.lines, line)
	}
	if len(r.lines) > r.max {
		r.lines = r.lines[len(r.lines)-r.max:]
	}
	return len(p), nil
}

// Lines returns a copy of the buffered lines, oldest first.
func (r *Ring) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Tail returns up to n of the newest lines.
func (r *Ring) Tail(n int) []string {
	lines := r.Lines()
	if n >= 0 && len(lines) > n {
		return lines[len(lines)-n:]
	}
	return lines
}
