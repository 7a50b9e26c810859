// Package toggle provides a standalone boolean flag.
package toggle

import "sync/atomic"

// Toggle is a boolean with explicit set, clear and flip operations. Each
// Toggle is independent; none are persisted.
type Toggle struct {
	v atomic.Bool
}

// New returns a Toggle holding initial.
func New(initial bool) *Toggle {
	t := &Toggle{}
	t.v.Store(initial)
	return t
}

// Get returns the current value.
func (t *Toggle) Get() bool {
	return t.v.Load()
}

// Toggle flips the value and returns the new one.
func (t *Toggle) Toggle() bool {
	for {
		old := t.v.Load()
		if t.v.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (t *Toggle) SetTrue() {
	t.v.Store(true)
}

func (t *Toggle) SetFalse() {
	t.v.Store(false)
}
