package shape

import "github.com/gogpu/imdraw/texture"

// Ellipse is a filled ellipse. Circle builds the common case.
type Ellipse struct {
	Center   Vec2
	Radius   Vec2
	Rotation float32
	Color    Color
}

// Circle returns a circle of radius r.
func Circle(center Vec2, r float32, c Color) Ellipse {
	return Ellipse{Center: center, Radius: Vec2{r, r}, Color: c}
}

// Validate implements Shape.
func (e Ellipse) Validate() error {
	if !e.Center.finite() || !e.Radius.finite() || !finite(e.Rotation) {
		return invalid("ellipse has non-finite coordinates")
	}
	if e.Radius.X < 0 || e.Radius.Y < 0 {
		return invalid("ellipse has negative radius")
	}
	return nil
}

// Texture implements Shape.
func (Ellipse) Texture() texture.Handle { return 0 }

// Rounded implements Shape.
func (Ellipse) Rounded() bool { return true }

// Emit implements Shape. The ellipse is a quad whose unit UV box is
// rounded by the maximum amount at every corner.
func (e Ellipse) Emit(m *Mesh, sp Space, slot uint32) {
	a := plain(e.Color, slot)
	a.rounding = [4]uint8{255, 255, 255, 255}
	m.rotatedQuad(sp, a, e.Center.Sub(e.Radius), e.Radius.Mul(2), e.Center, e.Rotation, Vec2{}, Vec2{1, 1})
}
