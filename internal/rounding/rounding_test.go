package rounding

import (
	"testing"

	"github.com/chewxy/math32"
)

const gridSteps = 200

func forGrid(b Box, fn func(u, v float32)) {
	for i := 0; i <= gridSteps; i++ {
		for j := 0; j <= gridSteps; j++ {
			u := math32.Min(b.X+b.W*float32(i)/gridSteps, b.X+b.W)
			v := math32.Min(b.Y+b.H*float32(j)/gridSteps, b.Y+b.H)
			fn(u, v)
		}
	}
}

func TestZeroRadiiKeepsWholeBox(t *testing.T) {
	boxes := []Box{
		{0, 0, 1, 1},
		{0, 0, 1, 0.25},
		{0.2, 0.1, 0.5, 0.7},
	}
	for _, b := range boxes {
		forGrid(b, func(u, v float32) {
			if !Keep(b, Values{}, u, v) {
				t.Fatalf("box %+v: fragment (%v, %v) discarded with zero radii", b, u, v)
			}
		})
	}
}

func TestOutsideBoxDiscarded(t *testing.T) {
	b := Box{0.25, 0.25, 0.5, 0.5}
	cases := [][2]float32{
		{0.2, 0.5}, {0.8, 0.5}, {0.5, 0.2}, {0.5, 0.8}, {0, 0}, {1, 1},
	}
	for _, c := range cases {
		if Keep(b, Values{}, c[0], c[1]) {
			t.Errorf("fragment %v outside %+v was kept", c, b)
		}
	}
}

func TestFullRadiiMatchCircle(t *testing.T) {
	const eps = 1e-4
	boxes := []Box{
		{0, 0, 1, 1},
		{0.1, 0.3, 0.4, 0.4},
	}
	full := Values{1, 1, 1, 1}
	for _, b := range boxes {
		cx, cy, r := b.X+b.W/2, b.Y+b.H/2, b.W/2
		forGrid(b, func(u, v float32) {
			d := math32.Hypot(u-cx, v-cy)
			if math32.Abs(d-r) < eps {
				return // on the rim, either answer is within tolerance
			}
			want := d <= r
			if got := Keep(b, full, u, v); got != want {
				t.Fatalf("box %+v: (%v, %v) dist %v: Keep = %v, circle says %v", b, u, v, d, got, want)
			}
		})
	}
}

func TestQuadrantSymmetry(t *testing.T) {
	// A single rounded corner must produce the mirror image of the same
	// radius on the opposite corner.
	b := Box{0, 0, 1, 1}
	for c := TopLeft; c <= BottomRight; c++ {
		var v Values
		v[c] = 0.6
		var mirror Values
		mirror[3-c] = 0.6
		r := Radius(b, v, c)
		cx, cy := r, r
		if c == TopRight || c == BottomRight {
			cx = 1 - r
		}
		if c == BottomLeft || c == BottomRight {
			cy = 1 - r
		}
		forGrid(b, func(u, w float32) {
			if math32.Abs(math32.Hypot(u-cx, w-cy)-r) < 1e-4 {
				return
			}
			if Keep(b, v, u, w) != Keep(b, mirror, 1-u, 1-w) {
				t.Fatalf("corner %d: (%v, %v) not symmetric with corner %d", c, u, w, 3-c)
			}
		})
	}
}

func TestIndependentCorners(t *testing.T) {
	b := Box{0, 0, 1, 1}
	v := Values{1, 0, 0, 0}
	// Far corners of the other quadrants stay filled.
	for _, p := range [][2]float32{{1, 0}, {0, 1}, {1, 1}} {
		if !Keep(b, v, p[0], p[1]) {
			t.Errorf("square corner %v discarded", p)
		}
	}
	if Keep(b, v, 0.01, 0.01) {
		t.Error("rounded top-left corner tip was kept")
	}
}

func TestRadiusClampedToShortSide(t *testing.T) {
	b := Box{0, 0, 1, 0.2}
	if r := Radius(b, Values{1, 1, 1, 1}, TopLeft); r != 0.1 {
		t.Errorf("Radius = %v, want 0.1", r)
	}
	if r := Radius(b, Values{0.1, 0, 0, 0}, TopLeft); math32.Abs(r-0.05) > 1e-6 {
		t.Errorf("Radius = %v, want 0.05", r)
	}
}

func TestFromUnorm(t *testing.T) {
	v := FromUnorm([4]uint8{0, 255, 51, 102})
	want := Values{0, 1, 0.2, 0.4}
	for i := range v {
		if math32.Abs(v[i]-want[i]) > 1e-6 {
			t.Errorf("value %d = %v, want %v", i, v[i], want[i])
		}
	}
}
