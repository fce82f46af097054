// Package search turns a keystroke stream into place-name lookups.
package search

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultIdle is the quiet period after the last keystroke before a lookup fires.
const DefaultIdle = 500 * time.Millisecond

// Debouncer issues at most one lookup per burst of keystrokes: when the input
// has been idle for the configured window, or on an explicit Submit.
type Debouncer struct {
	clock  clock.Clock
	idle   time.Duration
	submit func(text string)

	// issueMu is held from the decision to look up until submit returns, so
	// lookups reach submit in the order they were decided.
	issueMu sync.Mutex

	mu        sync.Mutex
	text      string
	composing bool
	gen       uint64
	timer     *clock.Timer
}

// NewDebouncer returns a debouncer that calls submit with the settled text.
// submit runs on the timer goroutine for idle expiries. Calls to submit never
// overlap and must not call back into the debouncer's Submit.
func NewDebouncer(clk clock.Clock, idle time.Duration, submit func(text string)) *Debouncer {
	if clk == nil {
		clk = clock.New()
	}
	if idle <= 0 {
		idle = DefaultIdle
	}
	return &Debouncer{clock: clk, idle: idle, submit: submit}
}

// Input records the current text and restarts the idle window.
func (d *Debouncer) Input(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.text = text
	d.composing = true
	d.gen++
	d.stopLocked()

	gen := d.gen
	d.timer = d.clock.AfterFunc(d.idle, func() { d.fire(gen) })
}

// Submit cancels the idle window and looks up the current text immediately.
func (d *Debouncer) Submit() {
	d.issueMu.Lock()
	defer d.issueMu.Unlock()

	d.mu.Lock()
	d.gen++
	d.stopLocked()
	d.composing = false
	text := d.text
	d.mu.Unlock()

	d.submit(text)
}

// Text returns the current input text.
func (d *Debouncer) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

// IsComposing reports whether keystrokes arrived since the last lookup.
func (d *Debouncer) IsComposing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.composing
}

// Stop cancels a pending idle lookup.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	d.stopLocked()
}

func (d *Debouncer) fire(gen uint64) {
	d.issueMu.Lock()
	defer d.issueMu.Unlock()

	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.composing = false
	text := d.text
	d.mu.Unlock()

	d.submit(text)
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
