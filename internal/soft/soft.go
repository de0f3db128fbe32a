// Package soft rasterizes batches on the CPU.
//
// Rasterizer consumes the same batches as the GPU backend and reproduces
// the fragment programs: flat texture slot and rounding attributes taken
// from the first vertex of each triangle, the rounding discard test,
// bilinear or nearest sampling with clamp-to-edge addressing, and
// straight-alpha source-over blending into a premultiplied target.
package soft

import (
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"golang.org/x/image/draw"

	"github.com/gogpu/imdraw/internal/batch"
	"github.com/gogpu/imdraw/internal/rounding"
	"github.com/gogpu/imdraw/internal/vertex"
	"github.com/gogpu/imdraw/texture"
)

// Textures resolves texture handles to pixels.
type Textures interface {
	Lookup(h texture.Handle) (texture.Entry, bool)
}

// Rasterizer draws batches into an *image.RGBA.
type Rasterizer struct {
	dst      *image.RGBA
	textures Textures
	bound    []sampler
}

// New returns a rasterizer drawing into dst. textures may be nil when
// only untextured batches are drawn.
func New(dst *image.RGBA, textures Textures) *Rasterizer {
	return &Rasterizer{dst: dst, textures: textures}
}

// SetTarget redirects subsequent batches to dst.
func (r *Rasterizer) SetTarget(dst *image.RGBA) { r.dst = dst }

// Target returns the current target image.
func (r *Rasterizer) Target() *image.RGBA { return r.dst }

// Clear fills the target with c.
func (r *Rasterizer) Clear(c color.Color) {
	if r.dst == nil {
		return
	}
	draw.Draw(r.dst, r.dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// Flush implements batch.Submitter.
func (r *Rasterizer) Flush(b *batch.Batch) error {
	if r.dst == nil {
		return fmt.Errorf("soft: no target")
	}
	if err := r.bind(b.Textures); err != nil {
		return err
	}
	textured := b.Variant.Textured()
	for i := 0; i+2 < len(b.Indices); i += 3 {
		v0 := b.Vertices[b.Indices[i]]
		v1 := b.Vertices[b.Indices[i+1]]
		v2 := b.Vertices[b.Indices[i+2]]
		r.triangle(v0, v1, v2, textured)
	}
	return nil
}

func (r *Rasterizer) bind(handles []texture.Handle) error {
	r.bound = r.bound[:0]
	for _, h := range handles {
		if r.textures == nil {
			return fmt.Errorf("soft: texture %d: %w", h, texture.ErrUnknownTexture)
		}
		e, ok := r.textures.Lookup(h)
		if !ok {
			return fmt.Errorf("soft: texture %d: %w", h, texture.ErrUnknownTexture)
		}
		r.bound = append(r.bound, sampler{img: e.Pixels, nearest: e.Filter == texture.Nearest})
	}
	return nil
}

type point struct{ x, y float32 }

// edge is positive when p lies on the interior side of a->b for a
// triangle with positive area.
func edge(a, b, p point) float32 {
	return (b.x-a.x)*(p.y-a.y) - (b.y-a.y)*(p.x-a.x)
}

// topLeft reports whether a->b is a top or left edge, which own the
// pixels whose centres lie exactly on them.
func topLeft(a, b point) bool {
	dx, dy := b.x-a.x, b.y-a.y
	return (dy == 0 && dx > 0) || dy < 0
}

func covers(w float32, tl bool) bool {
	return w > 0 || (w == 0 && tl)
}

func (r *Rasterizer) triangle(v0, v1, v2 vertex.Vertex, textured bool) {
	bounds := r.dst.Bounds()
	w, h := float32(bounds.Dx()), float32(bounds.Dy())
	toPixel := func(v vertex.Vertex) point {
		return point{v.Position[0] * w, v.Position[1] * h}
	}
	p0, p1, p2 := toPixel(v0), toPixel(v1), toPixel(v2)
	a1, a2 := v1, v2
	area := edge(p0, p1, p2)
	if area == 0 || math32.IsNaN(area) {
		return
	}
	if area < 0 {
		p1, p2 = p2, p1
		a1, a2 = a2, a1
		area = -area
	}

	minX := max(int(math32.Floor(min(p0.x, p1.x, p2.x))), 0)
	minY := max(int(math32.Floor(min(p0.y, p1.y, p2.y))), 0)
	maxX := min(int(math32.Ceil(max(p0.x, p1.x, p2.x))), bounds.Dx()-1)
	maxY := min(int(math32.Ceil(max(p0.y, p1.y, p2.y))), bounds.Dy()-1)

	tl0, tl1, tl2 := topLeft(p1, p2), topLeft(p2, p0), topLeft(p0, p1)

	// flat attributes come from the first vertex
	box := rounding.Box{X: v0.RoundingBox[0], Y: v0.RoundingBox[1], W: v0.RoundingBox[2], H: v0.RoundingBox[3]}
	values := rounding.FromUnorm(v0.Rounding)
	slot := v0.Slot

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := point{float32(x) + 0.5, float32(y) + 0.5}
			w0 := edge(p1, p2, p)
			w1 := edge(p2, p0, p)
			w2 := edge(p0, p1, p)
			if !covers(w0, tl0) || !covers(w1, tl1) || !covers(w2, tl2) {
				continue
			}
			b0, b1, b2 := w0/area, w1/area, w2/area
			u := b0*v0.UV[0] + b1*a1.UV[0] + b2*a2.UV[0]
			vv := b0*v0.UV[1] + b1*a1.UV[1] + b2*a2.UV[1]
			if textured && !rounding.Keep(box, values, u, vv) {
				continue
			}
			var c [4]float32
			for i := range c {
				c[i] = (b0*float32(v0.Color[i]) + b1*float32(a1.Color[i]) + b2*float32(a2.Color[i])) / 255
			}
			if textured && slot > 0 && int(slot) <= len(r.bound) {
				s := r.bound[slot-1].sample(u, vv)
				for i := range c {
					c[i] *= s[i]
				}
			}
			r.blend(bounds.Min.X+x, bounds.Min.Y+y, c)
		}
	}
}

// blend composites a straight-alpha colour over the premultiplied target.
func (r *Rasterizer) blend(x, y int, c [4]float32) {
	a := clamp01(c[3])
	if a == 0 {
		return
	}
	i := r.dst.PixOffset(x, y)
	px := r.dst.Pix[i : i+4 : i+4]
	inv := 1 - a
	for k := range 3 {
		px[k] = unorm(clamp01(c[k])*a + float32(px[k])/255*inv)
	}
	px[3] = unorm(a + float32(px[3])/255*inv)
}

func clamp01(f float32) float32 {
	return math32.Max(0, math32.Min(1, f))
}

func unorm(f float32) uint8 {
	return uint8(clamp01(f)*255 + 0.5)
}

// sampler reads a straight-alpha texture with clamp-to-edge addressing.
type sampler struct {
	img     *image.NRGBA
	nearest bool
}

func (s sampler) texel(x, y int) [4]float32 {
	b := s.img.Bounds()
	x = min(max(x, 0), b.Dx()-1)
	y = min(max(y, 0), b.Dy()-1)
	i := s.img.PixOffset(b.Min.X+x, b.Min.Y+y)
	p := s.img.Pix[i : i+4 : i+4]
	return [4]float32{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255, float32(p[3]) / 255}
}

func (s sampler) sample(u, v float32) [4]float32 {
	if s.img == nil {
		return [4]float32{1, 1, 1, 1}
	}
	w, h := float32(s.img.Bounds().Dx()), float32(s.img.Bounds().Dy())
	if s.nearest {
		return s.texel(int(math32.Floor(u*w)), int(math32.Floor(v*h)))
	}
	x, y := u*w-0.5, v*h-0.5
	x0, y0 := math32.Floor(x), math32.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)
	t00, t10 := s.texel(ix, iy), s.texel(ix+1, iy)
	t01, t11 := s.texel(ix, iy+1), s.texel(ix+1, iy+1)
	var out [4]float32
	for k := range out {
		top := t00[k] + (t10[k]-t00[k])*fx
		bottom := t01[k] + (t11[k]-t01[k])*fx
		out[k] = top + (bottom-top)*fy
	}
	return out
}
