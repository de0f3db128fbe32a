// Package batch groups emitted shapes into draw batches.
//
// An Accumulator collects the vertices of consecutive shapes into one
// Batch for as long as they share a shader variant and their textures fit
// the slot allocator. When either constraint breaks, the open batch is
// handed to a Submitter and a new one starts, so the sequence of batches
// replays the draw calls in the order they were made.
package batch

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/imdraw/internal/shader"
	"github.com/gogpu/imdraw/internal/slots"
	"github.com/gogpu/imdraw/internal/vertex"
	"github.com/gogpu/imdraw/shape"
	"github.com/gogpu/imdraw/texture"
)

// ErrVariantMismatch is returned when a shape needs textures or rounding
// but the accumulator was configured for the colour-only variant.
var ErrVariantMismatch = errors.New("batch: shape needs a textured variant")

// FlushError wraps an error returned by the Submitter. The batch it was
// handed is gone once Flush returns.
type FlushError struct {
	Seq uint64
	Err error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("batch: flush %d: %v", e.Seq, e.Err)
}

func (e *FlushError) Unwrap() error { return e.Err }

// Textures looks up registered texture handles.
type Textures interface {
	Lookup(h texture.Handle) (texture.Entry, bool)
}

// Draw records where one shape landed inside a batch.
type Draw struct {
	Order      uint64 // frame-wide draw order
	FirstIndex uint32
	IndexCount uint32
}

// Batch is one draw call worth of geometry. Its slices are owned by the
// Accumulator and only valid during Submitter.Flush.
type Batch struct {
	Seq      uint64
	Variant  shader.Variant
	Vertices []vertex.Vertex
	Indices  []uint32
	Textures []texture.Handle // Textures[i] is bound to slot i+1
	Draws    []Draw
}

// Empty reports whether the batch has nothing to draw.
func (b *Batch) Empty() bool { return len(b.Indices) == 0 }

// Submitter consumes flushed batches.
type Submitter interface {
	Flush(b *Batch) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(b *Batch) error

// Flush implements Submitter.
func (f SubmitterFunc) Flush(b *Batch) error { return f(b) }

// Stats counts the work of one frame.
type Stats struct {
	Batches  int
	Shapes   int
	Vertices int
	Indices  int
}

// Accumulator builds batches for one frame at a time. It is not safe for
// concurrent use.
type Accumulator struct {
	sub      Submitter
	textures Textures // nil skips the handle check
	textured shader.Variant
	slots    *slots.Allocator
	cur      Batch
	mesh     shape.Mesh
	open     bool // cur.Variant is meaningful

	seq   uint64
	order uint64
	stats Stats

	highWater   int
	maxVertices uint64
}

// New returns an accumulator submitting to sub. variant is the textured
// variant used for textured or rounded shapes; shader.Color makes the
// accumulator reject them.
func New(sub Submitter, variant shader.Variant) *Accumulator {
	return &Accumulator{
		sub:         sub,
		textured:    variant,
		slots:       slots.New(variant.Slots()),
		maxVertices: math.MaxUint32,
	}
}

// SetTextures makes Submit reject shapes whose texture handle is not
// registered in t.
func (a *Accumulator) SetTextures(t Textures) { a.textures = t }

// Variant returns the configured textured variant.
func (a *Accumulator) Variant() shader.Variant { return a.textured }

// Submit appends s, flushing the open batch first when s cannot join it.
// Shapes that fail validation are rejected without side effects.
func (a *Accumulator) Submit(s shape.Shape, sp shape.Space) error {
	if err := s.Validate(); err != nil {
		return err
	}
	req := shader.Color
	if s.Texture() != 0 || s.Rounded() {
		if !a.textured.Textured() {
			return ErrVariantMismatch
		}
		req = a.textured
	}
	if h := s.Texture(); h != 0 && a.textures != nil {
		if _, ok := a.textures.Lookup(h); !ok {
			return fmt.Errorf("batch: texture %d: %w", h, texture.ErrUnknownTexture)
		}
	}
	if err := a.selectVariant(req); err != nil {
		return err
	}

	slot, err := a.resolve(s.Texture(), req)
	if err != nil {
		return err
	}
	a.mesh.Reset()
	s.Emit(&a.mesh, sp, slot)
	if a.mesh.Empty() {
		return nil
	}

	if uint64(len(a.mesh.Vertices)) > a.maxVertices {
		return fmt.Errorf("%w: %d vertices exceed 32-bit indices", shape.ErrInvalidGeometry, len(a.mesh.Vertices))
	}
	if uint64(len(a.cur.Vertices)+len(a.mesh.Vertices)) > a.maxVertices {
		if err := a.Flush(); err != nil {
			return err
		}
		a.startBatch(req)
		if slot, err = a.resolve(s.Texture(), req); err != nil {
			return err
		}
		a.mesh.Reset()
		s.Emit(&a.mesh, sp, slot)
	}
	a.append()
	return nil
}

func (a *Accumulator) selectVariant(req shader.Variant) error {
	switch {
	case !a.open:
		a.startBatch(req)
	case a.cur.Variant.Supports(req):
	case req.Supports(a.cur.Variant):
		// a colour batch upgrades in place: its vertices all use slot 0
		a.cur.Variant = req
	default:
		if err := a.Flush(); err != nil {
			return err
		}
		a.startBatch(req)
	}
	return nil
}

func (a *Accumulator) startBatch(v shader.Variant) {
	a.cur.Variant = v
	a.open = true
}

// resolve binds h, flushing once when the slots are exhausted.
func (a *Accumulator) resolve(h texture.Handle, req shader.Variant) (uint32, error) {
	slot, err := a.slots.Resolve(h)
	if !errors.Is(err, slots.ErrSlotsExhausted) {
		return slot, err
	}
	if err := a.Flush(); err != nil {
		return 0, err
	}
	a.startBatch(req)
	return a.slots.Resolve(h)
}

func (a *Accumulator) append() {
	base := uint32(len(a.cur.Vertices))
	first := uint32(len(a.cur.Indices))
	a.cur.Vertices = append(a.cur.Vertices, a.mesh.Vertices...)
	for _, i := range a.mesh.Indices {
		a.cur.Indices = append(a.cur.Indices, base+i)
	}
	a.cur.Draws = append(a.cur.Draws, Draw{
		Order:      a.order,
		FirstIndex: first,
		IndexCount: uint32(len(a.mesh.Indices)),
	})
	a.order++
	a.stats.Shapes++
	a.highWater = max(a.highWater, len(a.cur.Vertices))
}

// Flush submits the open batch if it holds anything and starts a new
// one. An empty batch is never submitted.
func (a *Accumulator) Flush() error {
	defer a.resetBatch()
	if a.cur.Empty() {
		return nil
	}
	a.cur.Seq = a.seq
	a.cur.Textures = a.slots.Bound()
	a.seq++
	a.stats.Batches++
	a.stats.Vertices += len(a.cur.Vertices)
	a.stats.Indices += len(a.cur.Indices)
	if err := a.sub.Flush(&a.cur); err != nil {
		return &FlushError{Seq: a.cur.Seq, Err: err}
	}
	return nil
}

func (a *Accumulator) resetBatch() {
	a.cur.Vertices = a.cur.Vertices[:0]
	a.cur.Indices = a.cur.Indices[:0]
	a.cur.Draws = a.cur.Draws[:0]
	a.cur.Textures = nil
	a.open = false
	a.slots.Reset()
}

// Finish flushes the last batch of the frame.
func (a *Accumulator) Finish() error {
	return a.Flush()
}

// Reset discards the open batch and restarts sequence and draw-order
// numbering for a new frame.
func (a *Accumulator) Reset() {
	a.resetBatch()
	a.seq = 0
	a.order = 0
	a.stats = Stats{}
}

// Stats returns counters for the current frame.
func (a *Accumulator) Stats() Stats { return a.stats }

// HighWater returns the largest vertex count a batch has reached; the
// host arenas keep at least that much capacity.
func (a *Accumulator) HighWater() int { return a.highWater }
