package recording

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gogpu/imdraw/internal/batch"
	"github.com/gogpu/imdraw/internal/shader"
	"github.com/gogpu/imdraw/internal/vertex"
	"github.com/gogpu/imdraw/texture"
)

// FormatVersion is written into every encoded recording.
const FormatVersion = 1

var magic = [4]byte{'I', 'M', 'D', 'R'}

// Errors.
var (
	// ErrBadFormat is returned by Decode for data that is not a recording or
	// uses an unknown format version.
	ErrBadFormat = errors.New("recording: bad format")

	// ErrMissingTexture is returned by ReplayInto when a batch refers to a
	// texture the recording holds no snapshot of.
	ErrMissingTexture = errors.New("recording: missing texture snapshot")
)

// Draw mirrors one shape's index range inside a batch.
type Draw struct {
	Order      uint64 `msgpack:"order"`
	FirstIndex uint32 `msgpack:"first"`
	IndexCount uint32 `msgpack:"count"`
}

// Batch is a recorded draw call.
type Batch struct {
	Frame   uint64 `msgpack:"frame"`
	Seq     uint64 `msgpack:"seq"`
	Variant uint8  `msgpack:"variant"`
	// Vertices are packed in the GPU vertex format.
	Vertices []byte   `msgpack:"vertices"`
	Indices  []uint32 `msgpack:"indices"`
	// Textures are the handles bound to slots 1..N at record time, and
	// Snapshots the matching indices into Recording.Textures.
	Textures  []uint32 `msgpack:"textures"`
	Snapshots []int    `msgpack:"snapshots"`
	Draws     []Draw   `msgpack:"draws"`
}

// VertexCount returns the number of recorded vertices.
func (b *Batch) VertexCount() int { return len(b.Vertices) / vertex.Stride }

// Texture is a pixel snapshot of one texture version.
type Texture struct {
	Handle  uint32 `msgpack:"handle"`
	Version uint64 `msgpack:"version"`
	Label   string `msgpack:"label"`
	Filter  uint8  `msgpack:"filter"`
	Width   int    `msgpack:"w"`
	Height  int    `msgpack:"h"`
	// Pix is straight-alpha RGBA, Width*4 bytes per row.
	Pix []byte `msgpack:"pix"`
}

// Image returns the snapshot as an image sharing Pix.
func (t *Texture) Image() *image.NRGBA {
	return &image.NRGBA{Pix: t.Pix, Stride: 4 * t.Width, Rect: image.Rect(0, 0, t.Width, t.Height)}
}

// Frame describes one recorded frame.
type Frame struct {
	Width  int `msgpack:"w"`
	Height int `msgpack:"h"`
	// FirstBatch indexes Recording.Batches.
	FirstBatch int `msgpack:"first"`
}

// Recording is an immutable capture of submitted batches.
type Recording struct {
	Version  int       `msgpack:"version"`
	Frames   []Frame   `msgpack:"frames"`
	Batches  []Batch   `msgpack:"batches"`
	Textures []Texture `msgpack:"textures"`
}

// Encode writes the recording to w.
func (r *Recording) Encode(w io.Writer) error {
	if _, err := w.Write(magic[:]); err != nil {
		return fmt.Errorf("recording: write header: %w", err)
	}
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("recording: create zstd writer: %w", err)
	}
	defer zw.Close()

	if err := msgpack.NewEncoder(zw).Encode(r); err != nil {
		return fmt.Errorf("recording: encode: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("recording: close zstd writer: %w", err)
	}
	return nil
}

// Decode reads a recording written by Encode.
func Decode(rd io.Reader) (*Recording, error) {
	br := bufio.NewReader(rd)
	head, err := br.Peek(len(magic))
	if err != nil || !bytes.Equal(head, magic[:]) {
		return nil, fmt.Errorf("%w: missing header", ErrBadFormat)
	}
	_, _ = br.Discard(len(magic))

	zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("recording: create zstd reader: %w", err)
	}
	defer zr.Close()

	var r Recording
	if err := msgpack.NewDecoder(zr).Decode(&r); err != nil {
		return nil, fmt.Errorf("recording: decode: %w", err)
	}
	if r.Version != FormatVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadFormat, r.Version)
	}
	return &r, nil
}

// Replay submits every batch in recorded order with its original texture
// handles. It stops at the first error.
func (r *Recording) Replay(sub batch.Submitter) error {
	return r.replay(sub, func(b *Batch) ([]texture.Handle, error) {
		hs := make([]texture.Handle, len(b.Textures))
		for i, h := range b.Textures {
			hs[i] = texture.Handle(h)
		}
		return hs, nil
	})
}

// ReplayInto registers the texture snapshots in reg and submits every batch
// with its textures remapped to the new handles.
func (r *Recording) ReplayInto(sub batch.Submitter, reg *texture.Registry) error {
	handles := make([]texture.Handle, len(r.Textures))
	for i := range r.Textures {
		t := &r.Textures[i]
		h, err := reg.Register(t.Image(), texture.WithLabel(t.Label), texture.WithFilter(texture.Filter(t.Filter)))
		if err != nil {
			return fmt.Errorf("recording: register texture %d: %w", t.Handle, err)
		}
		handles[i] = h
	}
	return r.replay(sub, func(b *Batch) ([]texture.Handle, error) {
		hs := make([]texture.Handle, len(b.Snapshots))
		for i, s := range b.Snapshots {
			if s < 0 || s >= len(handles) {
				return nil, fmt.Errorf("%w: batch %d slot %d", ErrMissingTexture, b.Seq, i+1)
			}
			hs[i] = handles[s]
		}
		return hs, nil
	})
}

func (r *Recording) replay(sub batch.Submitter, textures func(*Batch) ([]texture.Handle, error)) error {
	var out batch.Batch
	for i := range r.Batches {
		rb := &r.Batches[i]
		hs, err := textures(rb)
		if err != nil {
			return err
		}
		out.Seq = rb.Seq
		out.Variant = shader.Variant(rb.Variant)
		out.Textures = hs
		out.Indices = rb.Indices
		out.Vertices = out.Vertices[:0]
		for off := 0; off+vertex.Stride <= len(rb.Vertices); off += vertex.Stride {
			out.Vertices = append(out.Vertices, vertex.Decode(rb.Vertices[off:]))
		}
		out.Draws = out.Draws[:0]
		for _, d := range rb.Draws {
			out.Draws = append(out.Draws, batch.Draw(d))
		}
		if err := sub.Flush(&out); err != nil {
			return fmt.Errorf("recording: replay batch %d: %w", i, err)
		}
	}
	return nil
}
