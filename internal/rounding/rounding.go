// Package rounding is the CPU form of the per-fragment corner test run by
// the textured shader variants. The WGSL function rounding_keep in
// internal/shader evaluates the same formula; the software rasterizer and
// the tests use this one.
package rounding

import "github.com/chewxy/math32"

// Corner indexes into a rounding value quadruple.
const (
	TopLeft = iota
	TopRight
	BottomLeft
	BottomRight
)

// Box is a rounding box in UV space.
type Box struct {
	X, Y, W, H float32
}

// Values holds per-corner diameters in [0, 1] as fractions of the box's
// larger side, in TopLeft, TopRight, BottomLeft, BottomRight order.
type Values [4]float32

// FromUnorm converts the packed unorm8 representation carried by a vertex.
func FromUnorm(v [4]uint8) Values {
	return Values{
		float32(v[0]) / 255,
		float32(v[1]) / 255,
		float32(v[2]) / 255,
		float32(v[3]) / 255,
	}
}

// Radius returns the arc radius used for the corner at index c: half the
// stored diameter scaled by the larger side, clamped so that opposite arcs
// never overlap.
func Radius(b Box, v Values, c int) float32 {
	r := v[c] * 0.5 * math32.Max(b.W, b.H)
	return math32.Min(r, 0.5*math32.Min(b.W, b.H))
}

// Quadrant returns the corner nearest to (u, v), decided per axis against
// the box midpoint.
func Quadrant(b Box, u, v float32) int {
	c := TopLeft
	if u > b.X+0.5*b.W {
		c++
	}
	if v > b.Y+0.5*b.H {
		c += 2
	}
	return c
}

// Keep reports whether a fragment at (u, v) survives the rounding test.
//
// Fragments outside the box are dropped. Inside, the quadrant's corner arc
// is centred r inward from that corner on both axes; a fragment that lies
// past the centre toward the corner on both axes and farther than r from it
// is dropped.
func Keep(b Box, v Values, u, w float32) bool {
	if u < b.X || w < b.Y || u > b.X+b.W || w > b.Y+b.H {
		return false
	}
	c := Quadrant(b, u, w)
	r := Radius(b, v, c)
	if r <= 0 {
		return true
	}

	right := c == TopRight || c == BottomRight
	bottom := c == BottomLeft || c == BottomRight

	cx, sx := b.X+r, float32(-1)
	if right {
		cx, sx = b.X+b.W-r, 1
	}
	cy, sy := b.Y+r, float32(-1)
	if bottom {
		cy, sy = b.Y+b.H-r, 1
	}

	dx, dy := u-cx, w-cy
	if dx*sx <= 0 || dy*sy <= 0 {
		return true
	}
	return dx*dx+dy*dy <= r*r
}
