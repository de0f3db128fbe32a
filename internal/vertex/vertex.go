// Package vertex defines the single vertex format shared by every shape and
// every shader variant, and packs it into the byte layout the GPU expects.
package vertex

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
)

// Stride is the byte size of one packed vertex.
//
// Layout:
//
//	position        (vec2<f32>)       = 8 bytes  (location 0, offset 0)
//	uv              (vec2<f32>)       = 8 bytes  (location 1, offset 8)
//	colour          (unorm8x4)        = 4 bytes  (location 2, offset 16)
//	rounding_box    (vec4<f32>)       = 16 bytes (location 3, offset 20)
//	rounding_values (unorm8x4)        = 4 bytes  (location 4, offset 36)
//	tex_slot        (u32)             = 4 bytes  (location 5, offset 40)
//
// Total = 44 bytes per vertex.
const Stride = 44

// IndexSize is the byte size of one index (uint32).
const IndexSize = 4

// Attribute offsets within a packed vertex.
const (
	offPosition = 0
	offUV       = 8
	offColor    = 16
	offBox      = 20
	offRounding = 36
	offSlot     = 40
)

// Shader input locations.
const (
	LocPosition = 0
	LocUV       = 1
	LocColor    = 2
	LocBox      = 3
	LocRounding = 4
	LocSlot     = 5
)

// Vertex is one corner of an emitted triangle.
//
// Slot 0 means "no texture"; slots 1..N index the textures bound to the
// batch the vertex belongs to. RoundingBox is origin.xy then size.xy in the
// shape's UV space. Rounding holds the top-left, top-right, bottom-left and
// bottom-right corner diameters as fractions of the box's larger side.
type Vertex struct {
	Position    [2]float32
	UV          [2]float32
	Color       [4]uint8
	RoundingBox [4]float32
	Rounding    [4]uint8
	Slot        uint32
}

// Layout returns the vertex buffer layout matching VertexInput in the
// embedded WGSL programs.
func Layout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: Stride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: offPosition, ShaderLocation: LocPosition},
				{Format: gputypes.VertexFormatFloat32x2, Offset: offUV, ShaderLocation: LocUV},
				{Format: gputypes.VertexFormatUnorm8x4, Offset: offColor, ShaderLocation: LocColor},
				{Format: gputypes.VertexFormatFloat32x4, Offset: offBox, ShaderLocation: LocBox},
				{Format: gputypes.VertexFormatUnorm8x4, Offset: offRounding, ShaderLocation: LocRounding},
				{Format: gputypes.VertexFormatUint32, Offset: offSlot, ShaderLocation: LocSlot},
			},
		},
	}
}

// AppendVertices packs vs in little-endian order onto dst and returns the
// extended slice.
func AppendVertices(dst []byte, vs []Vertex) []byte {
	n := len(dst)
	dst = grow(dst, len(vs)*Stride)
	for i := range vs {
		put(dst[n+i*Stride:], &vs[i])
	}
	return dst
}

// AppendIndices packs idx in little-endian order onto dst.
func AppendIndices(dst []byte, idx []uint32) []byte {
	n := len(dst)
	dst = grow(dst, len(idx)*IndexSize)
	for i, v := range idx {
		binary.LittleEndian.PutUint32(dst[n+i*IndexSize:], v)
	}
	return dst
}

// Decode unpacks one vertex from b, which must hold at least Stride bytes.
func Decode(b []byte) Vertex {
	var v Vertex
	v.Position[0] = getf(b[offPosition:])
	v.Position[1] = getf(b[offPosition+4:])
	v.UV[0] = getf(b[offUV:])
	v.UV[1] = getf(b[offUV+4:])
	copy(v.Color[:], b[offColor:offColor+4])
	for i := range v.RoundingBox {
		v.RoundingBox[i] = getf(b[offBox+4*i:])
	}
	copy(v.Rounding[:], b[offRounding:offRounding+4])
	v.Slot = binary.LittleEndian.Uint32(b[offSlot:])
	return v
}

func put(b []byte, v *Vertex) {
	putf(b[offPosition:], v.Position[0])
	putf(b[offPosition+4:], v.Position[1])
	putf(b[offUV:], v.UV[0])
	putf(b[offUV+4:], v.UV[1])
	copy(b[offColor:offColor+4], v.Color[:])
	for i, f := range v.RoundingBox {
		putf(b[offBox+4*i:], f)
	}
	copy(b[offRounding:offRounding+4], v.Rounding[:])
	binary.LittleEndian.PutUint32(b[offSlot:], v.Slot)
}

func putf(b []byte, f float32) { binary.LittleEndian.PutUint32(b, math.Float32bits(f)) }

func getf(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) }

func grow(b []byte, n int) []byte {
	if cap(b)-len(b) < n {
		nb := make([]byte, len(b), 2*cap(b)+n)
		copy(nb, b)
		b = nb
	}
	return b[:len(b)+n]
}
