package shape

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/imdraw/texture"
)

// Image draws a region of a registered texture into a destination
// rectangle, optionally rotated about its top-left corner and with rounded
// corners. Tint multiplies the sampled colour.
type Image struct {
	Tex      texture.Handle
	TexSize  Vec2 // texture size in pixels
	Pos      Vec2
	Size     Vec2
	Source   Bounds // pixels; zero means the whole texture
	Rotation float32
	Radii    Corners
	Tint     Color
}

// Validate implements Shape.
func (im Image) Validate() error {
	if im.Tex == 0 {
		return invalid("image has no texture")
	}
	if !im.TexSize.finite() || im.TexSize.X <= 0 || im.TexSize.Y <= 0 {
		return invalid("image texture size %vx%v", im.TexSize.X, im.TexSize.Y)
	}
	if !im.Pos.finite() || !im.Size.finite() || !finite(im.Rotation) {
		return invalid("image has non-finite coordinates")
	}
	if im.Size.X < 0 || im.Size.Y < 0 {
		return invalid("image has negative size")
	}
	if !im.Source.Min.finite() || !im.Source.Max.finite() {
		return invalid("image source has non-finite coordinates")
	}
	if s := im.Source.Size(); s.X < 0 || s.Y < 0 {
		return invalid("image source is inverted")
	}
	if !im.Radii.valid() {
		return invalid("image has negative or non-finite radius")
	}
	return nil
}

// Texture implements Shape.
func (im Image) Texture() texture.Handle { return im.Tex }

// Rounded implements Shape.
func (im Image) Rounded() bool { return !im.Radii.IsZero() }

// Emit implements Shape.
func (im Image) Emit(m *Mesh, sp Space, slot uint32) {
	src := im.Source
	if src == (Bounds{}) {
		src = Bounds{Max: im.TexSize}
	}
	uv0 := Vec2{src.Min.X / im.TexSize.X, src.Min.Y / im.TexSize.Y}
	uv1 := Vec2{src.Max.X / im.TexSize.X, src.Max.Y / im.TexSize.Y}
	a := plain(im.Tint, slot)
	a.box = [4]float32{uv0.X, uv0.Y, uv1.X - uv0.X, uv1.Y - uv0.Y}
	a.rounding = im.Radii.quantize(math32.Max(im.Size.X, im.Size.Y))
	m.rotatedQuad(sp, a, im.Pos, im.Size, im.Pos, im.Rotation, uv0, uv1)
}
