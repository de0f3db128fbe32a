package imdraw

import (
	"errors"
	"fmt"

	"github.com/gogpu/imdraw/internal/batch"
	"github.com/gogpu/imdraw/shape"
	"github.com/gogpu/imdraw/surface"
	"github.com/gogpu/imdraw/text"
	"github.com/gogpu/imdraw/texture"
)

// LineStyle controls Line and Polyline.
type LineStyle struct {
	Width float32
	Join  shape.Join
}

// Stats counts the work of one frame.
type Stats struct {
	Batches  int
	Shapes   int
	Vertices int
	Indices  int
}

type state struct {
	transform shape.Affine
	color     shape.Color
	line      LineStyle
}

func defaultState() state {
	return state{
		transform: shape.Identity(),
		color:     shape.White,
		line:      LineStyle{Width: 1, Join: shape.JoinMiter},
	}
}

// Frame collects the draw calls of one frame. Shapes are drawn in the
// order they are submitted, later shapes over earlier ones.
//
// A Frame belongs to the goroutine that began it. Draw calls after End
// return ErrFrameClosed.
type Frame struct {
	r      *Renderer
	target surface.Target
	width  int
	height int

	cur   state
	stack []state

	done  bool
	err   error // fatal, returned by every later call
	stats Stats
}

func newFrame(r *Renderer, t surface.Target, width, height int) *Frame {
	return &Frame{r: r, target: t, width: width, height: height, cur: defaultState()}
}

// Size returns the size of the frame's target in pixels.
func (f *Frame) Size() (width, height int) { return f.width, f.height }

// Target returns the surface target the frame draws into.
func (f *Frame) Target() surface.Target { return f.target }

func (f *Frame) space() shape.Space {
	return shape.Space{
		Transform: f.cur.transform,
		Width:     float32(f.width),
		Height:    float32(f.height),
	}
}

func (f *Frame) fail(err error) {
	if f.err == nil {
		f.err = err
	}
}

// Submit draws s with the current transform. A shape that fails
// validation or names an unknown texture is rejected and the frame
// continues. A failed flush, including a DeviceError, ends the frame:
// every later call and End return it.
func (f *Frame) Submit(s shape.Shape) error {
	if f.done {
		return ErrFrameClosed
	}
	if f.err != nil {
		return f.err
	}
	if !f.cur.transform.Finite() {
		return fmt.Errorf("%w: non-finite transform", ErrInvalidGeometry)
	}
	if err := f.r.acc.Submit(s, f.space()); err != nil {
		var fe *batch.FlushError
		if errors.As(err, &fe) {
			f.fail(err)
		}
		return err
	}
	return nil
}

// Rect fills a rectangle with the current colour.
func (f *Frame) Rect(x, y, w, h float32) error {
	return f.Submit(shape.Rect{Pos: shape.V(x, y), Size: shape.V(w, h), Color: f.cur.color})
}

// RoundedRect fills a rectangle whose corners are rounded with radius r.
func (f *Frame) RoundedRect(x, y, w, h, r float32) error {
	return f.Submit(shape.Rect{
		Pos:   shape.V(x, y),
		Size:  shape.V(w, h),
		Radii: shape.Uniform(r),
		Color: f.cur.color,
	})
}

// Circle fills a circle.
func (f *Frame) Circle(cx, cy, r float32) error {
	return f.Submit(shape.Circle(shape.V(cx, cy), r, f.cur.color))
}

// Ellipse fills an axis-aligned ellipse.
func (f *Frame) Ellipse(cx, cy, rx, ry float32) error {
	return f.Submit(shape.Ellipse{Center: shape.V(cx, cy), Radius: shape.V(rx, ry), Color: f.cur.color})
}

// Line draws a segment with the current line width.
func (f *Frame) Line(x0, y0, x1, y1 float32) error {
	return f.Submit(shape.Line{
		From:  shape.V(x0, y0),
		To:    shape.V(x1, y1),
		Width: f.cur.line.Width,
		Color: f.cur.color,
	})
}

// Polyline draws connected segments through points with the current line
// style.
func (f *Frame) Polyline(points ...shape.Vec2) error {
	pts := make([]shape.LinePoint, len(points))
	for i, p := range points {
		pts[i] = shape.LinePoint{Pos: p, Width: f.cur.line.Width, Join: f.cur.line.Join}
	}
	return f.Submit(shape.Polyline{Points: pts, Color: f.cur.color})
}

// Triangle fills a triangle with the current colour.
func (f *Frame) Triangle(a, b, c shape.Vec2) error {
	return f.Submit(shape.Triangle{Points: [3]shape.Vec2{a, b, c}, Color: f.cur.color})
}

// TexturedTriangle fills a triangle from tex. uv holds normalized texture
// coordinates and the current colour tints the samples.
func (f *Frame) TexturedTriangle(tex texture.Handle, points, uv [3]shape.Vec2) error {
	return f.Submit(shape.Triangle{Points: points, UV: &uv, Tex: tex, Color: f.cur.color})
}

// Image draws tex at its natural size with its top-left corner at (x, y).
func (f *Frame) Image(tex texture.Handle, x, y float32) error {
	w, h, err := f.textureSize(tex)
	if err != nil {
		return err
	}
	return f.ImageSource(tex, shape.Bounds{}, shape.Bounds{Min: shape.V(x, y), Max: shape.V(x+w, y+h)})
}

// ImageScaled draws tex stretched over the rectangle (x, y, w, h).
func (f *Frame) ImageScaled(tex texture.Handle, x, y, w, h float32) error {
	return f.ImageSource(tex, shape.Bounds{}, shape.Bounds{Min: shape.V(x, y), Max: shape.V(x+w, y+h)})
}

// ImageSource draws the src pixel region of tex into dst. A zero src
// selects the whole texture. The current colour tints the samples.
func (f *Frame) ImageSource(tex texture.Handle, src, dst shape.Bounds) error {
	w, h, err := f.textureSize(tex)
	if err != nil {
		return err
	}
	return f.Submit(shape.Image{
		Tex:     tex,
		TexSize: shape.V(w, h),
		Pos:     dst.Min,
		Size:    dst.Size(),
		Source:  src,
		Tint:    f.cur.color,
	})
}

func (f *Frame) textureSize(tex texture.Handle) (float32, float32, error) {
	if f.done {
		return 0, 0, ErrFrameClosed
	}
	w, h, err := f.r.textures.Size(tex)
	if err != nil {
		return 0, 0, err
	}
	return float32(w), float32(h), nil
}

// Text draws s in the current colour with its first line's top-left
// corner at (x, y). The face's atlas must live in the renderer's texture
// registry.
func (f *Frame) Text(face *text.Face, s string, x, y float32) error {
	if f.done {
		return ErrFrameClosed
	}
	glyphs, err := face.AppendGlyphs(f.r.glyphs[:0], s, shape.V(x, y), f.cur.color)
	f.r.glyphs = glyphs
	if err != nil {
		return fmt.Errorf("imdraw: layout text: %w", err)
	}
	for _, g := range glyphs {
		if err := f.Submit(g); err != nil {
			return err
		}
	}
	return nil
}

// Push saves the transform, colour and line style.
func (f *Frame) Push() {
	f.stack = append(f.stack, f.cur)
}

// Pop restores the state saved by the matching Push.
func (f *Frame) Pop() error {
	if len(f.stack) == 0 {
		return ErrStackUnderflow
	}
	f.cur = f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return nil
}

// Translate moves the origin of later draw calls by (x, y).
func (f *Frame) Translate(x, y float32) {
	f.cur.transform = f.cur.transform.Multiply(shape.Translate(x, y))
}

// Rotate rotates later draw calls by angle radians about the current
// origin.
func (f *Frame) Rotate(angle float32) {
	f.cur.transform = f.cur.transform.Multiply(shape.Rotate(angle))
}

// Scale scales later draw calls about the current origin.
func (f *Frame) Scale(sx, sy float32) {
	f.cur.transform = f.cur.transform.Multiply(shape.Scale(sx, sy))
}

// SetTransform replaces the current transform.
func (f *Frame) SetTransform(m shape.Affine) { f.cur.transform = m }

// Transform returns the current transform.
func (f *Frame) Transform() shape.Affine { return f.cur.transform }

// SetColor sets the fill colour, or the tint for images and textured
// triangles.
func (f *Frame) SetColor(c shape.Color) { f.cur.color = c }

// Color returns the current colour.
func (f *Frame) Color() shape.Color { return f.cur.color }

// SetLineStyle sets the width and join used by Line and Polyline.
func (f *Frame) SetLineStyle(s LineStyle) { f.cur.line = s }

// LineStyle returns the current line style.
func (f *Frame) LineStyle() LineStyle { return f.cur.line }

// Stats returns the counters of the frame so far, or of the whole frame
// after End.
func (f *Frame) Stats() Stats {
	if f.done {
		return f.stats
	}
	return Stats(f.r.acc.Stats())
}

// End flushes the last batch, finishes the frame on the device and
// presents the target. Calling End again is a no-op returning nil.
func (f *Frame) End() error {
	if f.done {
		return nil
	}
	f.done = true
	return f.r.endFrame(f)
}
