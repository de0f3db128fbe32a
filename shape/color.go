package shape

import "image/color"

// Color is a straight-alpha colour with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Common colours.
var (
	White       = Color{1, 1, 1, 1}
	Black       = Color{0, 0, 0, 1}
	Transparent = Color{}
)

// RGB returns an opaque colour.
func RGB(r, g, b float32) Color { return Color{r, g, b, 1} }

// RGBA returns a colour with alpha.
func RGBA(r, g, b, a float32) Color { return Color{r, g, b, a} }

// FromColor converts any color.Color.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{
		R: float32(n.R) / 255,
		G: float32(n.G) / 255,
		B: float32(n.B) / 255,
		A: float32(n.A) / 255,
	}
}

// Hex parses "RGB", "RGBA", "RRGGBB" or "RRGGBBAA", with or without a
// leading '#'. Malformed input yields opaque black.
func Hex(s string) Color {
	if s != "" && s[0] == '#' {
		s = s[1:]
	}
	var v [4]uint8
	v[3] = 255
	switch len(s) {
	case 3, 4:
		for i := range len(s) {
			d, ok := hexDigit(s[i])
			if !ok {
				return Black
			}
			v[i] = d * 17
		}
	case 6, 8:
		for i := 0; i < len(s); i += 2 {
			hi, ok1 := hexDigit(s[i])
			lo, ok2 := hexDigit(s[i+1])
			if !ok1 || !ok2 {
				return Black
			}
			v[i/2] = hi<<4 | lo
		}
	default:
		return Black
	}
	return Color{float32(v[0]) / 255, float32(v[1]) / 255, float32(v[2]) / 255, float32(v[3]) / 255}
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// NRGBA converts to the standard library's straight-alpha colour.
func (c Color) NRGBA() color.NRGBA {
	v := c.unorm()
	return color.NRGBA{R: v[0], G: v[1], B: v[2], A: v[3]}
}

// WithAlpha returns c with alpha replaced.
func (c Color) WithAlpha(a float32) Color {
	c.A = a
	return c
}

func (c Color) unorm() [4]uint8 {
	return [4]uint8{unorm8(c.R), unorm8(c.G), unorm8(c.B), unorm8(c.A)}
}
