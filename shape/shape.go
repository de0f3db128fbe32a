// Package shape describes the primitives the renderer draws and emits
// their vertices.
//
// Every primitive is a plain value. Validate rejects malformed input,
// Emit appends vertices and indices to a Mesh after mapping positions
// through a Space. Emitters never allocate GPU resources and never see
// texture handles, only the slot index the batcher resolved for them.
package shape

import (
	"errors"
	"fmt"

	"github.com/gogpu/imdraw/texture"
)

// ErrInvalidGeometry is returned for NaN or infinite coordinates,
// negative sizes and similar malformed input.
var ErrInvalidGeometry = errors.New("shape: invalid geometry")

// Shape is implemented by every drawable primitive.
type Shape interface {
	// Validate reports malformed geometry. Emit may assume it passed.
	Validate() error
	// Texture returns the texture the shape samples, or 0.
	Texture() texture.Handle
	// Rounded reports whether any vertex carries non-zero rounding.
	Rounded() bool
	// Emit appends the shape to m using slot as the texture slot.
	Emit(m *Mesh, sp Space, slot uint32)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidGeometry, fmt.Sprintf(format, args...))
}
