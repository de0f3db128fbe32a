// Package gpu submits batches to a GPU through the wgpu hardware
// abstraction layer.
//
// A Backend owns one pipeline per shader variant, created on first use,
// a vertex and an index buffer that grow by powers of two, and an LRU
// cache of texture bind groups. Every flushed batch becomes one render
// pass with a single indexed draw, submitted immediately so that the next
// batch can reuse the same buffers.
package gpu

import (
	"errors"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gogpu/imdraw/internal/batch"
	"github.com/gogpu/imdraw/internal/shader"
	"github.com/gogpu/imdraw/internal/vertex"
	"github.com/gogpu/imdraw/texture"
)

// DefaultBindGroupCache is the default number of cached bind groups.
const DefaultBindGroupCache = 64

// Textures resolves handles to uploaded textures.
type Textures interface {
	Lookup(h texture.Handle) (texture.Entry, bool)
}

// Config configures a Backend.
type Config struct {
	Device hal.Device
	Queue  hal.Queue

	// Format is the render target format. Defaults to BGRA8Unorm.
	Format gputypes.TextureFormat

	Textures Textures

	// BindGroupCache bounds the bind group cache. Defaults to
	// DefaultBindGroupCache.
	BindGroupCache int
}

// Stats reports backend state for logging and tests.
type Stats struct {
	Flushes          int // batches submitted in the current frame
	Pipelines        int
	BindGroups       int
	VertexBufferSize uint64
	IndexBufferSize  uint64
	Retired          int
}

// Backend implements batch.Submitter on a hal device.
type Backend struct {
	device   hal.Device
	queue    hal.Queue
	format   gputypes.TextureFormat
	textures Textures

	pipelines   [len(shader.Variants)]*pipeline
	placeholder placeholder
	vertices    growBuffer
	indices     growBuffer
	groups      *lru.Cache[groupKey, hal.BindGroup]
	retired     []retired
	lastSubmit  uint64

	target  hal.TextureView
	clear   gputypes.Color
	cleared bool
	err     error
	flushes int

	vbytes []byte
	ibytes []byte
}

var _ batch.Submitter = (*Backend)(nil)

// New creates a backend. GPU objects are created lazily.
func New(cfg Config) (*Backend, error) {
	if cfg.Device == nil || cfg.Queue == nil {
		return nil, errors.New("gpu: device and queue are required")
	}
	if cfg.Format == gputypes.TextureFormatUndefined {
		cfg.Format = gputypes.TextureFormatBGRA8Unorm
	}
	if cfg.BindGroupCache <= 0 {
		cfg.BindGroupCache = DefaultBindGroupCache
	}
	b := &Backend{
		device:   cfg.Device,
		queue:    cfg.Queue,
		format:   cfg.Format,
		textures: cfg.Textures,
		vertices: growBuffer{label: "imdraw_vertices", usage: gputypes.BufferUsageVertex},
		indices:  growBuffer{label: "imdraw_indices", usage: gputypes.BufferUsageIndex},
	}
	groups, err := lru.NewWithEvict(cfg.BindGroupCache, func(_ groupKey, g hal.BindGroup) {
		b.retire(func() { b.device.DestroyBindGroup(g) })
	})
	if err != nil {
		return nil, err
	}
	b.groups = groups
	return b, nil
}

// BeginFrame directs subsequent batches at target. The first pass of the
// frame clears it to clear.
func (b *Backend) BeginFrame(target hal.TextureView, clear gputypes.Color) {
	b.target = target
	b.clear = clear
	b.cleared = false
	b.err = nil
	b.flushes = 0
	b.collect()
}

// Flush implements batch.Submitter. After a device error every further
// call in the frame returns the same error.
func (b *Backend) Flush(bt *batch.Batch) error {
	if b.err != nil {
		return b.err
	}
	if b.target == nil {
		return ErrNoTarget
	}
	if bt.Empty() {
		return nil
	}
	if err := b.flush(bt); err != nil {
		var de *DeviceError
		if errors.As(err, &de) {
			b.err = err
		}
		return err
	}
	return nil
}

func (b *Backend) flush(bt *batch.Batch) error {
	p, err := b.pipeline(bt.Variant)
	if err != nil {
		return err
	}
	var group hal.BindGroup
	if bt.Variant.Textured() {
		if group, err = b.bindGroup(p, bt.Textures); err != nil {
			return err
		}
	}

	b.vbytes = vertex.AppendVertices(b.vbytes[:0], bt.Vertices)
	b.ibytes = vertex.AppendIndices(b.ibytes[:0], bt.Indices)
	if err := b.upload(&b.vertices, b.vbytes); err != nil {
		return err
	}
	if err := b.upload(&b.indices, b.ibytes); err != nil {
		return err
	}

	count := uint32(len(bt.Indices)) //nolint:gosec // the accumulator bounds batches to 32-bit indices
	err = b.pass(func(rp hal.RenderPassEncoder) {
		rp.SetPipeline(p.render)
		if group != nil {
			rp.SetBindGroup(0, group, nil)
		}
		rp.SetVertexBuffer(0, b.vertices.buf, 0)
		rp.SetIndexBuffer(b.indices.buf, gputypes.IndexFormatUint32, 0)
		rp.DrawIndexed(count, 1, 0, 0, 0)
	})
	if err != nil {
		return err
	}
	b.flushes++
	return nil
}

func (b *Backend) pipeline(v shader.Variant) (*pipeline, error) {
	if int(v) >= len(b.pipelines) {
		return nil, shader.ErrUnsupportedSlots
	}
	if p := b.pipelines[v]; p != nil {
		return p, nil
	}
	p, err := createPipeline(b.device, v, b.format)
	if err != nil {
		return nil, deviceError("create pipeline", err)
	}
	b.pipelines[v] = p
	return p, nil
}

// pass encodes one render pass and submits it. The pass clears the target
// when nothing has been drawn to it this frame and loads it otherwise.
func (b *Backend) pass(draw func(rp hal.RenderPassEncoder)) error {
	enc, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "imdraw_encoder"})
	if err != nil {
		return deviceError("create command encoder", err)
	}
	if err := enc.BeginEncoding("imdraw_frame"); err != nil {
		return deviceError("begin encoding", err)
	}
	load := gputypes.LoadOpLoad
	if !b.cleared {
		load = gputypes.LoadOpClear
	}
	rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "imdraw_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       b.target,
			LoadOp:     load,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: b.clear,
		}},
	})
	if draw != nil {
		draw(rp)
	}
	rp.End()

	cmd, err := enc.EndEncoding()
	if err != nil {
		return deviceError("end encoding", err)
	}
	idx, err := b.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		b.device.FreeCommandBuffer(cmd)
		return deviceError("submit", err)
	}
	b.cleared = true
	b.lastSubmit = idx
	b.retire(func() { b.device.FreeCommandBuffer(cmd) })
	return nil
}

// EndFrame finishes the frame. A frame in which nothing was drawn still
// clears its target.
func (b *Backend) EndFrame() error {
	defer func() { b.target = nil }()
	if b.err != nil {
		return b.err
	}
	if b.target == nil {
		return ErrNoTarget
	}
	if !b.cleared {
		if err := b.pass(nil); err != nil {
			b.err = err
			return err
		}
	}
	slogger().Debug("frame submitted", "flushes", b.flushes, "submission", b.lastSubmit)
	b.collect()
	return nil
}

// Stats returns current counters.
func (b *Backend) Stats() Stats {
	s := Stats{
		Flushes:          b.flushes,
		BindGroups:       b.groups.Len(),
		VertexBufferSize: b.vertices.size,
		IndexBufferSize:  b.indices.size,
		Retired:          len(b.retired),
	}
	for _, p := range b.pipelines {
		if p != nil {
			s.Pipelines++
		}
	}
	return s
}

// Destroy waits for the device to go idle and releases every GPU object
// the backend created. Texture objects belong to the registry.
func (b *Backend) Destroy() {
	if err := b.device.WaitIdle(); err != nil {
		slogger().Warn("wait idle before destroy", "err", err)
	}
	b.groups.Purge()
	for _, r := range b.retired {
		r.release()
	}
	b.retired = nil
	for _, g := range []*growBuffer{&b.vertices, &b.indices} {
		if g.buf != nil {
			b.device.DestroyBuffer(g.buf)
			g.buf, g.size = nil, 0
		}
	}
	b.destroyPlaceholder()
	for i, p := range b.pipelines {
		if p != nil {
			p.destroy(b.device)
			b.pipelines[i] = nil
		}
	}
}
