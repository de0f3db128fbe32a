package shape

import "github.com/chewxy/math32"

// Vec2 is a point or vector in pixels.
type Vec2 struct {
	X, Y float32
}

// V is shorthand for Vec2{x, y}.
func V(x, y float32) Vec2 { return Vec2{X: x, Y: y} }

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Mul scales v by s.
func (v Vec2) Mul(s float32) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the Euclidean length of v.
func (v Vec2) Len() float32 { return math32.Hypot(v.X, v.Y) }

// Normalize returns v scaled to unit length, or the zero vector.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Perp returns v rotated a quarter turn counter-clockwise.
func (v Vec2) Perp() Vec2 { return Vec2{-v.Y, v.X} }

// Rotate returns v rotated by angle radians about the origin.
func (v Vec2) Rotate(angle float32) Vec2 {
	sin, cos := math32.Sincos(angle)
	return Vec2{v.X*cos - v.Y*sin, v.X*sin + v.Y*cos}
}

func (v Vec2) finite() bool { return finite(v.X) && finite(v.Y) }

// Bounds is an axis-aligned rectangle.
type Bounds struct {
	Min, Max Vec2
}

// Size returns Max-Min.
func (b Bounds) Size() Vec2 { return b.Max.Sub(b.Min) }

// Empty reports whether b has no area.
func (b Bounds) Empty() bool { return b.Max.X <= b.Min.X || b.Max.Y <= b.Min.Y }

// Corners holds per-corner radii in pixels.
type Corners struct {
	TopLeft, TopRight, BottomLeft, BottomRight float32
}

// Uniform returns Corners with every radius set to r.
func Uniform(r float32) Corners { return Corners{r, r, r, r} }

// IsZero reports whether no corner is rounded.
func (c Corners) IsZero() bool {
	return c.TopLeft == 0 && c.TopRight == 0 && c.BottomLeft == 0 && c.BottomRight == 0
}

func (c Corners) valid() bool {
	for _, r := range [4]float32{c.TopLeft, c.TopRight, c.BottomLeft, c.BottomRight} {
		if !finite(r) || r < 0 {
			return false
		}
	}
	return true
}

// quantize converts pixel radii into unorm8 diameters relative to major,
// the larger side of the shape.
func (c Corners) quantize(major float32) [4]uint8 {
	if major <= 0 {
		return [4]uint8{}
	}
	q := func(r float32) uint8 {
		return unorm8(2 * r / major)
	}
	return [4]uint8{q(c.TopLeft), q(c.TopRight), q(c.BottomLeft), q(c.BottomRight)}
}

// Affine is a 2D affine transform in row-major order:
//
//	| A  B  C |
//	| D  E  F |
//
// mapping (x, y) to (A*x + B*y + C, D*x + E*y + F).
type Affine struct {
	A, B, C float32
	D, E, F float32
}

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{A: 1, E: 1}
}

// Translate returns a translation.
func Translate(x, y float32) Affine {
	return Affine{A: 1, C: x, E: 1, F: y}
}

// Scale returns a scaling transform.
func Scale(x, y float32) Affine {
	return Affine{A: x, E: y}
}

// Rotate returns a rotation by angle radians.
func Rotate(angle float32) Affine {
	sin, cos := math32.Sincos(angle)
	return Affine{
		A: cos, B: -sin,
		D: sin, E: cos,
	}
}

// Multiply returns m*o: o is applied first.
func (m Affine) Multiply(o Affine) Affine {
	return Affine{
		A: m.A*o.A + m.B*o.D,
		B: m.A*o.B + m.B*o.E,
		C: m.A*o.C + m.B*o.F + m.C,
		D: m.D*o.A + m.E*o.D,
		E: m.D*o.B + m.E*o.E,
		F: m.D*o.C + m.E*o.F + m.F,
	}
}

// Apply transforms a point.
func (m Affine) Apply(p Vec2) Vec2 {
	return Vec2{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// Finite reports whether every coefficient of m is finite.
func (m Affine) Finite() bool {
	return finite(m.A) && finite(m.B) && finite(m.C) && finite(m.D) && finite(m.E) && finite(m.F)
}

// IsIdentity reports whether m is the identity.
func (m Affine) IsIdentity() bool {
	return m == Identity()
}

func finite(f float32) bool { return !math32.IsNaN(f) && !math32.IsInf(f, 0) }

func unorm8(f float32) uint8 {
	v := f * 255.9
	switch {
	case v <= 0 || math32.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
