// Package slots assigns texture handles to the numbered binding slots of
// one batch.
//
// Slot 0 is reserved for "no texture"; bound textures occupy slots 1..N
// in first-use order. A handle keeps its slot until Reset.
package slots

import (
	"errors"

	"github.com/gogpu/imdraw/texture"
)

// ErrSlotsExhausted reports that every slot is taken by another texture.
// The batcher treats it as a signal to flush, never as a user error.
var ErrSlotsExhausted = errors.New("slots: exhausted")

// Allocator tracks the textures bound to the batch being built.
type Allocator struct {
	bound []texture.Handle
	cap   int
}

// New returns an allocator with capacity slots.
func New(capacity int) *Allocator {
	return &Allocator{bound: make([]texture.Handle, 0, capacity), cap: capacity}
}

// Resolve returns the slot of h, binding it to the next free slot if it
// is not bound yet. The zero handle always resolves to slot 0.
func (a *Allocator) Resolve(h texture.Handle) (uint32, error) {
	if h == 0 {
		return 0, nil
	}
	for i, b := range a.bound {
		if b == h {
			return uint32(i + 1), nil
		}
	}
	if len(a.bound) >= a.cap {
		return 0, ErrSlotsExhausted
	}
	a.bound = append(a.bound, h)
	return uint32(len(a.bound)), nil
}

// Bound returns the bound handles; index i holds slot i+1. The slice is
// reused after Reset.
func (a *Allocator) Bound() []texture.Handle { return a.bound }

// Len returns the number of occupied slots.
func (a *Allocator) Len() int { return len(a.bound) }

// Capacity returns the number of slots.
func (a *Allocator) Capacity() int { return a.cap }

// Reset frees every slot.
func (a *Allocator) Reset() { a.bound = a.bound[:0] }
