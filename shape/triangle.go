package shape

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/imdraw/texture"
)

// Triangle is a filled triangle. When Tex is set, UV supplies the
// normalized texture coordinate of each point.
type Triangle struct {
	Points [3]Vec2
	UV     *[3]Vec2
	Tex    texture.Handle
	Color  Color
}

// Validate implements Shape.
func (t Triangle) Validate() error {
	for _, p := range t.Points {
		if !p.finite() {
			return invalid("triangle has non-finite coordinates")
		}
	}
	if t.UV != nil {
		for _, uv := range t.UV {
			if !uv.finite() {
				return invalid("triangle has non-finite uv")
			}
		}
	} else if t.Tex != 0 {
		return invalid("textured triangle needs uv coordinates")
	}
	return nil
}

// Texture implements Shape.
func (t Triangle) Texture() texture.Handle { return t.Tex }

// Rounded implements Shape.
func (Triangle) Rounded() bool { return false }

// Emit implements Shape. The rounding box is the UV bounding box so the
// rounding test never discards inside the triangle.
func (t Triangle) Emit(m *Mesh, sp Space, slot uint32) {
	a := plain(t.Color, slot)
	uv := [3]Vec2{centerUV, centerUV, centerUV}
	if t.UV != nil {
		uv = *t.UV
		lo := Vec2{math32.Min(uv[0].X, math32.Min(uv[1].X, uv[2].X)), math32.Min(uv[0].Y, math32.Min(uv[1].Y, uv[2].Y))}
		hi := Vec2{math32.Max(uv[0].X, math32.Max(uv[1].X, uv[2].X)), math32.Max(uv[0].Y, math32.Max(uv[1].Y, uv[2].Y))}
		a.box = [4]float32{lo.X, lo.Y, hi.X - lo.X, hi.Y - lo.Y}
	}
	m.tri(
		a.at(sp.Map(t.Points[0]), uv[0]),
		a.at(sp.Map(t.Points[1]), uv[1]),
		a.at(sp.Map(t.Points[2]), uv[2]),
	)
}
