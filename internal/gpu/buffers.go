package gpu

import (
	"math/bits"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// minBufferSize is the smallest vertex or index buffer allocated.
const minBufferSize = 1024

// bufferSize rounds needed up to the next power of two, at least
// minBufferSize.
func bufferSize(needed uint64) uint64 {
	n := max(needed, minBufferSize)
	if n&(n-1) == 0 {
		return n
	}
	return 1 << bits.Len64(n)
}

// growBuffer is a GPU buffer reused across flushes and replaced by a
// larger one when a batch does not fit.
type growBuffer struct {
	label string
	usage gputypes.BufferUsage
	buf   hal.Buffer
	size  uint64
}

// ensure makes room for needed bytes. The replaced buffer is retired
// rather than destroyed because in-flight submissions may still read it.
func (b *Backend) ensure(g *growBuffer, needed uint64) error {
	if g.buf != nil && g.size >= needed {
		return nil
	}
	size := bufferSize(needed)
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: g.label,
		Size:  size,
		Usage: g.usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return deviceError("create "+g.label, err)
	}
	if old := g.buf; old != nil {
		b.retire(func() { b.device.DestroyBuffer(old) })
	}
	slogger().Debug("buffer grown", "label", g.label, "from", g.size, "to", size)
	g.buf, g.size = buf, size
	return nil
}

func (b *Backend) upload(g *growBuffer, data []byte) error {
	if err := b.ensure(g, uint64(len(data))); err != nil {
		return err
	}
	if err := b.queue.WriteBuffer(g.buf, 0, data); err != nil {
		return deviceError("write "+g.label, err)
	}
	return nil
}

// retired is a resource waiting for the submission that last used it.
type retired struct {
	after   uint64
	release func()
}

// retire schedules release once the latest submission has completed.
func (b *Backend) retire(release func()) {
	b.retired = append(b.retired, retired{after: b.lastSubmit, release: release})
}

// collect releases resources whose last submission has completed.
func (b *Backend) collect() {
	if len(b.retired) == 0 {
		return
	}
	done := b.queue.PollCompleted()
	kept := b.retired[:0]
	for _, r := range b.retired {
		if r.after <= done {
			r.release()
			continue
		}
		kept = append(kept, r)
	}
	clear(b.retired[len(kept):])
	b.retired = kept
}
