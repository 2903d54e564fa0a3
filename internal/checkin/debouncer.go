package checkin

import (
	"sync"
	"time"
)

// DefaultDebounceWindow is how long a repeat of the same code is ignored.
const DefaultDebounceWindow = 2 * time.Second

// Debouncer drops repeats of the most recently accepted code within a window.
// It remembers a single code, so alternating codes are never suppressed.
type Debouncer struct {
	mu       sync.Mutex
	window   time.Duration
	lastCode string
	lastTime time.Time
	seen     bool
}

// NewDebouncer returns a debouncer; a non-positive window selects
// DefaultDebounceWindow.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{window: window}
}

func (d *Debouncer) Window() time.Duration {
	return d.window
}

// ShouldProcess reports whether code at now should go through the pipeline.
// A suppressed call leaves the state untouched, so the window is measured
// from the last processed scan, not the last seen one.
func (d *Debouncer) ShouldProcess(code string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.seen && code == d.lastCode && now.Sub(d.lastTime) < d.window {
		return false
	}

	d.lastCode = code
	d.lastTime = now
	d.seen = true
	return true
}
