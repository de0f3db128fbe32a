package recording

import (
	"fmt"

	"github.com/gogpu/imdraw/internal/batch"
	"github.com/gogpu/imdraw/internal/vertex"
	"github.com/gogpu/imdraw/texture"
)

// Textures resolves handles to pixel snapshots. *texture.Registry
// implements it.
type Textures interface {
	Lookup(h texture.Handle) (texture.Entry, bool)
}

type snapshotKey struct {
	handle  texture.Handle
	version uint64
}

// Recorder is a batch.Submitter that copies every batch before passing it
// on. It is not safe for concurrent use.
type Recorder struct {
	next     batch.Submitter
	textures Textures
	rec      Recording
	frame    uint64
	started  bool
	snaps    map[snapshotKey]int
	// MaxBatches stops recording once reached; zero means unlimited.
	MaxBatches int
}

// NewRecorder creates a recorder that snapshots textures from textures,
// which may be nil to record geometry only.
func NewRecorder(textures Textures) *Recorder {
	return &Recorder{
		textures: textures,
		rec:      Recording{Version: FormatVersion},
		snaps:    make(map[snapshotKey]int),
	}
}

// SetNext sets the submitter batches are forwarded to. A nil next only
// records.
func (r *Recorder) SetNext(next batch.Submitter) { r.next = next }

// BeginFrame marks the start of a frame drawn at width x height.
func (r *Recorder) BeginFrame(width, height int) {
	if r.started {
		r.frame++
	}
	r.started = true
	r.rec.Frames = append(r.rec.Frames, Frame{Width: width, Height: height, FirstBatch: len(r.rec.Batches)})
}

// Flush implements batch.Submitter. The batch is recorded even when the
// next submitter fails.
func (r *Recorder) Flush(b *batch.Batch) error {
	if r.MaxBatches == 0 || len(r.rec.Batches) < r.MaxBatches {
		if err := r.record(b); err != nil {
			return err
		}
	}
	if r.next == nil {
		return nil
	}
	return r.next.Flush(b)
}

func (r *Recorder) record(b *batch.Batch) error {
	if !r.started {
		r.BeginFrame(0, 0)
	}
	rb := Batch{
		Frame:     r.frame,
		Seq:       b.Seq,
		Variant:   uint8(b.Variant),
		Vertices:  vertex.AppendVertices(make([]byte, 0, len(b.Vertices)*vertex.Stride), b.Vertices),
		Indices:   append([]uint32(nil), b.Indices...),
		Textures:  make([]uint32, len(b.Textures)),
		Snapshots: make([]int, len(b.Textures)),
		Draws:     make([]Draw, len(b.Draws)),
	}
	for i, d := range b.Draws {
		rb.Draws[i] = Draw(d)
	}
	for i, h := range b.Textures {
		rb.Textures[i] = uint32(h)
		rb.Snapshots[i] = -1
		if r.textures == nil {
			continue
		}
		idx, err := r.snapshot(h)
		if err != nil {
			return err
		}
		rb.Snapshots[i] = idx
	}
	r.rec.Batches = append(r.rec.Batches, rb)
	return nil
}

func (r *Recorder) snapshot(h texture.Handle) (int, error) {
	e, ok := r.textures.Lookup(h)
	if !ok {
		return -1, fmt.Errorf("%w: %d", texture.ErrUnknownTexture, h)
	}
	key := snapshotKey{h, e.Version}
	if idx, ok := r.snaps[key]; ok {
		return idx, nil
	}
	w, hgt := e.Size()
	pix := make([]byte, 0, 4*w*hgt)
	for y := range hgt {
		off := y * e.Pixels.Stride
		pix = append(pix, e.Pixels.Pix[off:off+4*w]...)
	}
	r.rec.Textures = append(r.rec.Textures, Texture{
		Handle:  uint32(h),
		Version: e.Version,
		Label:   e.Label,
		Filter:  uint8(e.Filter),
		Width:   w,
		Height:  hgt,
		Pix:     pix,
	})
	idx := len(r.rec.Textures) - 1
	r.snaps[key] = idx
	return idx, nil
}

// Recording returns what was recorded so far. The result shares storage
// with the recorder until Reset.
func (r *Recorder) Recording() *Recording {
	rec := r.rec
	return &rec
}

// Len returns the number of recorded batches.
func (r *Recorder) Len() int { return len(r.rec.Batches) }

// Reset discards everything recorded.
func (r *Recorder) Reset() {
	r.rec = Recording{Version: FormatVersion}
	r.frame = 0
	r.started = false
	clear(r.snaps)
}

var _ batch.Submitter = (*Recorder)(nil)
