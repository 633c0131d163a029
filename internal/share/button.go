// Package share copies the page link for the user and reports a short-lived
// acknowledgement.
package share

import (
	"sync"
	"time"
)

const (
	ShareLabel  = "Share"
	CopiedLabel = "Copied!"

	// DefaultResetAfter is how long the copied acknowledgement stays up.
	DefaultResetAfter = time.Second
)

// Clipboard puts text on the user's clipboard.
type Clipboard interface {
	Copy(text string) error
}

// Button is the share control: pressing it copies a URL and flips the
// label to CopiedLabel until resetAfter passes.
type Button struct {
	clip       Clipboard
	resetAfter time.Duration
	onChange   func(copied bool)

	mu      sync.Mutex
	copied  bool
	gen     int
	timer   *time.Timer
	stopped bool
}

// NewButton returns a button over clip. onChange, if set, is called after
// every label change, outside the button's lock.
func NewButton(clip Clipboard, resetAfter time.Duration, onChange func(copied bool)) *Button {
	if resetAfter <= 0 {
		resetAfter = DefaultResetAfter
	}
	return &Button{clip: clip, resetAfter: resetAfter, onChange: onChange}
}

// Press copies url. On failure the label is left alone and the error is
// returned.
func (b *Button) Press(url string) error {
	if err := b.clip.Copy(url); err != nil {
		return err
	}

	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	b.copied = true
	b.gen++
	gen := b.gen
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.resetAfter, func() { b.reset(gen) })
	b.mu.Unlock()

	b.notify(true)
	return nil
}

func (b *Button) reset(gen int) {
	b.mu.Lock()
	if b.stopped || gen != b.gen {
		b.mu.Unlock()
		return
	}
	b.copied = false
	b.mu.Unlock()

	b.notify(false)
}

func (b *Button) notify(copied bool) {
	if b.onChange != nil {
		b.onChange(copied)
	}
}

// Copied reports whether the acknowledgement is showing.
func (b *Button) Copied() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.copied
}

// Label is the text the control shows right now.
func (b *Button) Label() string {
	if b.Copied() {
		return CopiedLabel
	}
	return ShareLabel
}

// Stop cancels a pending reset; no further changes are reported.
func (b *Button) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	if b.timer != nil {
		b.timer.Stop()
	}
}
