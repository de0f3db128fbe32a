package shape

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"

	"github.com/gogpu/imdraw/internal/vertex"
)

const eps = 1e-4

func near(a, b float32) bool { return math32.Abs(a-b) <= eps }

func nearVec(v [2]float32, x, y float32) bool { return near(v[0], x) && near(v[1], y) }

func emit(t *testing.T, s Shape, sp Space) *Mesh {
	t.Helper()
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	var m Mesh
	s.Emit(&m, sp, 0)
	return &m
}

func TestRectEmitsOneQuad(t *testing.T) {
	m := emit(t, Rect{Pos: V(10, 5), Size: V(20, 10), Color: White}, NewSpace(100, 50))

	if len(m.Vertices) != 4 {
		t.Fatalf("vertices = %d, want 4", len(m.Vertices))
	}
	want := []uint32{0, 1, 2, 2, 1, 3}
	for i, idx := range want {
		if m.Indices[i] != idx {
			t.Fatalf("indices = %v, want %v", m.Indices, want)
		}
	}
	pos := [][2]float32{{0.1, 0.1}, {0.3, 0.1}, {0.1, 0.3}, {0.3, 0.3}}
	for i, p := range pos {
		if !nearVec(m.Vertices[i].Position, p[0], p[1]) {
			t.Errorf("vertex %d at %v, want %v", i, m.Vertices[i].Position, p)
		}
		if m.Vertices[i].Rounding != [4]uint8{} {
			t.Errorf("vertex %d rounding = %v, want zero", i, m.Vertices[i].Rounding)
		}
		if m.Vertices[i].Color != [4]uint8{255, 255, 255, 255} {
			t.Errorf("vertex %d color = %v", i, m.Vertices[i].Color)
		}
	}
}

func TestRoundedRectBox(t *testing.T) {
	r := Rect{Pos: V(0, 0), Size: V(20, 10), Radii: Corners{TopLeft: 5}, Color: White}
	if !r.Rounded() {
		t.Fatal("Rounded() = false")
	}
	m := emit(t, r, NewSpace(1, 1))

	v := m.Vertices[0]
	if v.RoundingBox != [4]float32{0, 0, 1, 0.5} {
		t.Errorf("box = %v, want [0 0 1 0.5]", v.RoundingBox)
	}
	// diameter 10 of major side 20
	if v.Rounding != [4]uint8{127, 0, 0, 0} {
		t.Errorf("rounding = %v", v.Rounding)
	}
	if !nearVec(m.Vertices[3].UV, 1, 0.5) {
		t.Errorf("bottom-right uv = %v", m.Vertices[3].UV)
	}
}

func TestRectRotatesAboutPosition(t *testing.T) {
	r := Rect{Pos: V(10, 10), Size: V(4, 2), Rotation: math32.Pi / 2, Color: White}
	m := emit(t, r, NewSpace(1, 1))

	if !nearVec(m.Vertices[0].Position, 10, 10) {
		t.Errorf("pivot moved to %v", m.Vertices[0].Position)
	}
	if !nearVec(m.Vertices[1].Position, 10, 14) {
		t.Errorf("top-right = %v, want (10, 14)", m.Vertices[1].Position)
	}
}

func TestEllipseFullyRounded(t *testing.T) {
	m := emit(t, Circle(V(50, 50), 10, White), NewSpace(100, 100))

	if len(m.Vertices) != 4 {
		t.Fatalf("vertices = %d", len(m.Vertices))
	}
	for _, v := range m.Vertices {
		if v.Rounding != [4]uint8{255, 255, 255, 255} {
			t.Errorf("rounding = %v", v.Rounding)
		}
		if v.RoundingBox != [4]float32{0, 0, 1, 1} {
			t.Errorf("box = %v", v.RoundingBox)
		}
	}
	if !nearVec(m.Vertices[0].Position, 0.4, 0.4) || !nearVec(m.Vertices[3].Position, 0.6, 0.6) {
		t.Errorf("bounds %v..%v", m.Vertices[0].Position, m.Vertices[3].Position)
	}
}

func TestValidateRejects(t *testing.T) {
	nan := math32.NaN()
	tests := []struct {
		name  string
		shape Shape
	}{
		{"nan rect", Rect{Pos: V(nan, 0), Size: V(1, 1)}},
		{"negative rect", Rect{Size: V(-1, 1)}},
		{"negative radius", Rect{Size: V(1, 1), Radii: Uniform(-1)}},
		{"inf ellipse", Ellipse{Radius: V(math32.Inf(1), 1)}},
		{"negative line", Line{To: V(1, 1), Width: -2}},
		{"short polyline", Polyline{Points: []LinePoint{{Pos: V(0, 0), Width: 1}}}},
		{"bad join", Polyline{Points: []LinePoint{{Width: 1}, {Pos: V(1, 0), Width: 1, Join: 42}}}},
		{"textured triangle without uv", Triangle{Tex: 3}},
		{"image without texture", Image{TexSize: V(1, 1), Size: V(1, 1)}},
		{"image without size", Image{Tex: 1, Size: V(1, 1)}},
		{"inverted source", Image{Tex: 1, TexSize: V(4, 4), Size: V(1, 1), Source: Bounds{Min: V(3, 3), Max: V(1, 1)}}},
		{"glyph without atlas", Glyph{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.shape.Validate()
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("Validate() = %v, want ErrInvalidGeometry", err)
			}
		})
	}
}

func polyline(join Join, pts ...Vec2) Polyline {
	p := Polyline{Color: White}
	for _, v := range pts {
		p.Points = append(p.Points, LinePoint{Pos: v, Width: 2, Join: join})
	}
	return p
}

func TestPolylineJoinGeometry(t *testing.T) {
	corner := []Vec2{V(0, 0), V(10, 0), V(10, 10)}
	tests := []struct {
		join     Join
		vertices int
		indices  int
	}{
		{JoinNone, 8, 12},
		{JoinMerge, 8, 12},
		{JoinBevel, 14, 18},
		{JoinMiter, 20, 24},
		{JoinMiterUnlimited, 20, 24},
		{JoinRound, 12, 18},
	}
	for _, tt := range tests {
		t.Run(tt.join.String(), func(t *testing.T) {
			m := emit(t, polyline(tt.join, corner...), NewSpace(1, 1))
			if len(m.Vertices) != tt.vertices || len(m.Indices) != tt.indices {
				t.Errorf("got %d vertices / %d indices, want %d / %d",
					len(m.Vertices), len(m.Indices), tt.vertices, tt.indices)
			}
			for _, idx := range m.Indices {
				if int(idx) >= len(m.Vertices) {
					t.Fatalf("index %d out of range", idx)
				}
			}
		})
	}
}

func TestPolylineMiterPoints(t *testing.T) {
	m := emit(t, polyline(JoinMiter, V(0, 0), V(10, 0), V(10, 10)), NewSpace(1, 1))

	// triangles after the two segment quads: (c, bl, al), (ml, bl, al), (c, br, ar), (mr, br, ar)
	if !nearVec(m.Vertices[11].Position, 9, 1) {
		t.Errorf("inner miter = %v, want (9, 1)", m.Vertices[11].Position)
	}
	if !nearVec(m.Vertices[17].Position, 11, -1) {
		t.Errorf("outer miter = %v, want (11, -1)", m.Vertices[17].Position)
	}
}

func TestPolylineMiterLimit(t *testing.T) {
	pts := []Vec2{V(0, 0), V(100, 0), V(0, 1)}
	c := V(100, 0)
	dist := func(v vertex.Vertex) float32 {
		return V(v.Position[0], v.Position[1]).Sub(c).Len()
	}

	limited := emit(t, polyline(JoinMiter, pts...), NewSpace(1, 1))
	for _, i := range []int{11, 17} {
		if d := dist(limited.Vertices[i]); d > 4+eps {
			t.Errorf("limited miter vertex %d is %v from the corner, want <= 4", i, d)
		}
	}

	unlimited := emit(t, polyline(JoinMiterUnlimited, pts...), NewSpace(1, 1))
	far := false
	for _, i := range []int{11, 17} {
		if dist(unlimited.Vertices[i]) > 4 {
			far = true
		}
	}
	if !far {
		t.Error("unlimited miter should reach beyond twice the width")
	}
}

func TestPolylineParallelMiterFallsBack(t *testing.T) {
	m := emit(t, polyline(JoinMiterUnlimited, V(0, 0), V(10, 0), V(20, 0)), NewSpace(1, 1))
	if !nearVec(m.Vertices[11].Position, 10, 0) {
		t.Errorf("parallel miter = %v, want the join point", m.Vertices[11].Position)
	}
}

func TestPolylineMergeSharesEdge(t *testing.T) {
	m := emit(t, polyline(JoinMerge, V(0, 0), V(10, 0), V(10, 10)), NewSpace(1, 1))
	// first quad: al, bl, ar, br; second quad starts at 4
	if m.Vertices[1].Position != m.Vertices[4].Position || m.Vertices[3].Position != m.Vertices[6].Position {
		t.Errorf("merged ends differ: %v/%v and %v/%v",
			m.Vertices[1].Position, m.Vertices[4].Position, m.Vertices[3].Position, m.Vertices[6].Position)
	}
}

func TestPolylineRounded(t *testing.T) {
	if polyline(JoinBevel, V(0, 0), V(1, 0), V(1, 1)).Rounded() {
		t.Error("bevel polyline reports rounding")
	}
	p := polyline(JoinRound, V(0, 0), V(1, 0), V(1, 1))
	if !p.Rounded() {
		t.Fatal("round join not reported")
	}
	m := emit(t, p, NewSpace(1, 1))
	if m.Vertices[8].Rounding != [4]uint8{255, 255, 255, 255} {
		t.Errorf("join disc rounding = %v", m.Vertices[8].Rounding)
	}
	for _, v := range m.Vertices[:8] {
		if v.Rounding != [4]uint8{} {
			t.Errorf("segment vertex rounded: %v", v.Rounding)
		}
	}
}

func TestPolylineSkipsDuplicatePoints(t *testing.T) {
	m := emit(t, polyline(JoinBevel, V(0, 0), V(0, 0), V(5, 0), V(5, 0)), NewSpace(1, 1))
	if len(m.Vertices) != 4 {
		t.Fatalf("vertices = %d, want a single segment", len(m.Vertices))
	}
	for _, v := range m.Vertices {
		if !finite(v.Position[0]) || !finite(v.Position[1]) {
			t.Fatalf("non-finite vertex %v", v.Position)
		}
	}
}

func TestLineIsRotatedRect(t *testing.T) {
	m := emit(t, Line{From: V(0, 0), To: V(0, 10), Width: 4, Color: White}, NewSpace(1, 1))
	if len(m.Vertices) != 4 {
		t.Fatalf("vertices = %d", len(m.Vertices))
	}
	xs := map[float32]bool{}
	for _, v := range m.Vertices {
		xs[v.Position[0]] = true
	}
	if !xs[-2] || !xs[2] {
		t.Errorf("line edges at x = %v, want ±2", xs)
	}
}

func TestTriangleUVBox(t *testing.T) {
	uv := [3]Vec2{V(0.2, 0.1), V(0.8, 0.1), V(0.5, 0.9)}
	tri := Triangle{Points: [3]Vec2{V(0, 0), V(1, 0), V(0, 1)}, UV: &uv, Tex: 7, Color: White}
	m := emit(t, tri, NewSpace(1, 1))

	box := m.Vertices[0].RoundingBox
	want := [4]float32{0.2, 0.1, 0.6, 0.8}
	for i := range box {
		if !near(box[i], want[i]) {
			t.Fatalf("box = %v, want %v", box, want)
		}
	}
	if tri.Texture() != 7 {
		t.Errorf("Texture() = %d", tri.Texture())
	}
}

func TestImageSourceUV(t *testing.T) {
	im := Image{
		Tex:     2,
		TexSize: V(64, 32),
		Pos:     V(0, 0),
		Size:    V(32, 16),
		Source:  Bounds{Min: V(16, 8), Max: V(48, 24)},
		Tint:    White,
	}
	var m Mesh
	if err := im.Validate(); err != nil {
		t.Fatal(err)
	}
	im.Emit(&m, NewSpace(32, 16), 3)

	if !nearVec(m.Vertices[0].UV, 0.25, 0.25) || !nearVec(m.Vertices[3].UV, 0.75, 0.75) {
		t.Errorf("uv %v..%v", m.Vertices[0].UV, m.Vertices[3].UV)
	}
	if m.Vertices[0].RoundingBox != [4]float32{0.25, 0.25, 0.5, 0.5} {
		t.Errorf("box = %v", m.Vertices[0].RoundingBox)
	}
	for _, v := range m.Vertices {
		if v.Slot != 3 {
			t.Fatalf("slot = %d, want 3", v.Slot)
		}
	}
}

func TestImageWholeTexture(t *testing.T) {
	im := Image{Tex: 1, TexSize: V(8, 8), Size: V(8, 8), Tint: White}
	m := emit(t, im, NewSpace(8, 8))
	if !nearVec(m.Vertices[0].UV, 0, 0) || !nearVec(m.Vertices[3].UV, 1, 1) {
		t.Errorf("uv %v..%v", m.Vertices[0].UV, m.Vertices[3].UV)
	}
}

func TestGlyphQuad(t *testing.T) {
	g := Glyph{Atlas: 4, Dst: Bounds{Min: V(2, 2), Max: V(6, 10)}, UV: Bounds{Min: V(0, 0), Max: V(0.5, 0.25)}, Color: Black}
	m := emit(t, g, NewSpace(1, 1))
	if !nearVec(m.Vertices[3].Position, 6, 10) || !nearVec(m.Vertices[3].UV, 0.5, 0.25) {
		t.Errorf("bottom-right %v uv %v", m.Vertices[3].Position, m.Vertices[3].UV)
	}
}

func TestSpaceAppliesTransform(t *testing.T) {
	sp := Space{Transform: Translate(10, 0).Multiply(Scale(2, 2)), Width: 100, Height: 100}
	got := sp.Map(V(5, 5))
	if !near(got.X, 0.2) || !near(got.Y, 0.1) {
		t.Errorf("Map = %v, want (0.2, 0.1)", got)
	}
}

func TestAffine(t *testing.T) {
	m := Translate(3, 4).Multiply(Rotate(math32.Pi / 2))
	p := m.Apply(V(1, 0))
	if !near(p.X, 3) || !near(p.Y, 5) {
		t.Errorf("Apply = %v, want (3, 5)", p)
	}
	if !Identity().IsIdentity() || m.IsIdentity() {
		t.Error("IsIdentity mismatch")
	}
}

func TestHex(t *testing.T) {
	tests := []struct {
		in   string
		want [4]uint8
	}{
		{"#fff", [4]uint8{255, 255, 255, 255}},
		{"ff000080", [4]uint8{255, 0, 0, 128}},
		{"#0f08", [4]uint8{0, 255, 0, 136}},
		{"zz", [4]uint8{0, 0, 0, 255}},
	}
	for _, tt := range tests {
		if got := Hex(tt.in).unorm(); got != tt.want {
			t.Errorf("Hex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestUnorm8Clamps(t *testing.T) {
	for _, tt := range []struct {
		in   float32
		want uint8
	}{{-1, 0}, {0, 0}, {0.5, 127}, {1, 255}, {2, 255}} {
		if got := unorm8(tt.in); got != tt.want {
			t.Errorf("unorm8(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
