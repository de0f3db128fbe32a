package shape

import "github.com/gogpu/imdraw/texture"

// Glyph is one rasterized glyph: a coverage region of an atlas texture
// copied to Dst and tinted by Color.
type Glyph struct {
	Atlas texture.Handle
	Dst   Bounds // pixels
	UV    Bounds // normalized atlas coordinates
	Color Color
}

// Validate implements Shape.
func (g Glyph) Validate() error {
	if g.Atlas == 0 {
		return invalid("glyph has no atlas")
	}
	if !g.Dst.Min.finite() || !g.Dst.Max.finite() || !g.UV.Min.finite() || !g.UV.Max.finite() {
		return invalid("glyph has non-finite coordinates")
	}
	return nil
}

// Texture implements Shape.
func (g Glyph) Texture() texture.Handle { return g.Atlas }

// Rounded implements Shape.
func (Glyph) Rounded() bool { return false }

// Emit implements Shape.
func (g Glyph) Emit(m *Mesh, sp Space, slot uint32) {
	a := plain(g.Color, slot)
	uvs := g.UV.Size()
	a.box = [4]float32{g.UV.Min.X, g.UV.Min.Y, uvs.X, uvs.Y}
	m.rotatedQuad(sp, a, g.Dst.Min, g.Dst.Size(), Vec2{}, 0, g.UV.Min, g.UV.Max)
}
