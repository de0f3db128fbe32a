package shape

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/imdraw/texture"
)

// Rect is a filled rectangle, optionally rotated about its top-left corner and
// with independently rounded corners.
type Rect struct {
	Pos      Vec2
	Size     Vec2
	Rotation float32
	Radii    Corners
	Color    Color
}

// Validate implements Shape.
func (r Rect) Validate() error {
	if !r.Pos.finite() || !r.Size.finite() || !finite(r.Rotation) {
		return invalid("rect has non-finite coordinates")
	}
	if r.Size.X < 0 || r.Size.Y < 0 {
		return invalid("rect has negative size %vx%v", r.Size.X, r.Size.Y)
	}
	if !r.Radii.valid() {
		return invalid("rect has negative or non-finite radius")
	}
	return nil
}

// Texture implements Shape.
func (Rect) Texture() texture.Handle { return 0 }

// Rounded implements Shape.
func (r Rect) Rounded() bool { return !r.Radii.IsZero() }

// Emit implements Shape.
func (r Rect) Emit(m *Mesh, sp Space, slot uint32) {
	a := plain(r.Color, slot)
	uv0, uv1 := centerUV, centerUV
	if r.Rounded() {
		major := math32.Max(r.Size.X, r.Size.Y)
		box := Vec2{1, 1}
		if major > 0 {
			box = Vec2{r.Size.X / major, r.Size.Y / major}
		}
		a.box = [4]float32{0, 0, box.X, box.Y}
		a.rounding = r.Radii.quantize(major)
		uv0, uv1 = Vec2{}, box
	}
	m.rotatedQuad(sp, a, r.Pos, r.Size, r.Pos, r.Rotation, uv0, uv1)
}
