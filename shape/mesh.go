package shape

import "github.com/gogpu/imdraw/internal/vertex"

// Mesh receives emitted geometry. Indices are local to the mesh; the
// batcher rebases them when appending to a batch.
type Mesh struct {
	Vertices []vertex.Vertex
	Indices  []uint32
}

// Reset empties the mesh while keeping its storage.
func (m *Mesh) Reset() {
	m.Vertices = m.Vertices[:0]
	m.Indices = m.Indices[:0]
}

// Empty reports whether nothing has been emitted.
func (m *Mesh) Empty() bool { return len(m.Indices) == 0 }

// quad appends a quadrilateral given as top-left, top-right, bottom-left,
// bottom-right.
func (m *Mesh) quad(tl, tr, bl, br vertex.Vertex) {
	n := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, tl, tr, bl, br)
	m.Indices = append(m.Indices, n, n+1, n+2, n+2, n+1, n+3)
}

func (m *Mesh) tri(a, b, c vertex.Vertex) {
	n := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, a, b, c)
	m.Indices = append(m.Indices, n, n+1, n+2)
}

// attrs are the per-vertex values shared by every corner of a primitive.
type attrs struct {
	color    [4]uint8
	box      [4]float32
	rounding [4]uint8
	slot     uint32
}

// plain returns attributes for untextured, unrounded geometry: the UV
// sits in the middle of a unit box, so the rounding test always passes.
func plain(c Color, slot uint32) attrs {
	return attrs{color: c.unorm(), box: [4]float32{0, 0, 1, 1}, slot: slot}
}

var centerUV = Vec2{0.5, 0.5}

func (a attrs) at(pos, uv Vec2) vertex.Vertex {
	return vertex.Vertex{
		Position:    [2]float32{pos.X, pos.Y},
		UV:          [2]float32{uv.X, uv.Y},
		Color:       a.color,
		RoundingBox: a.box,
		Rounding:    a.rounding,
		Slot:        a.slot,
	}
}

// rotatedQuad emits the rectangle pos..pos+size rotated by angle about
// pivot, with uv spanning uv0..uv1.
func (m *Mesh) rotatedQuad(sp Space, a attrs, pos, size, pivot Vec2, angle float32, uv0, uv1 Vec2) {
	corner := func(p Vec2) Vec2 {
		if angle != 0 {
			p = p.Sub(pivot).Rotate(angle).Add(pivot)
		}
		return sp.Map(p)
	}
	m.quad(
		a.at(corner(pos), uv0),
		a.at(corner(Vec2{pos.X + size.X, pos.Y}), Vec2{uv1.X, uv0.Y}),
		a.at(corner(Vec2{pos.X, pos.Y + size.Y}), Vec2{uv0.X, uv1.Y}),
		a.at(corner(pos.Add(size)), uv1),
	)
}
