package imdraw

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/imdraw/internal/batch"
	"github.com/gogpu/imdraw/internal/gpu"
	"github.com/gogpu/imdraw/internal/shader"
	"github.com/gogpu/imdraw/internal/soft"
	"github.com/gogpu/imdraw/recording"
	"github.com/gogpu/imdraw/shape"
	"github.com/gogpu/imdraw/surface"
	"github.com/gogpu/imdraw/texture"
)

// Renderer turns the draw calls of one frame at a time into batches and
// submits them to the GPU or, for image targets, to a CPU rasterizer.
//
// A Renderer is not safe for concurrent use. Only one frame may be open at
// a time.
type Renderer struct {
	opts    options
	variant shader.Variant

	textures    *texture.Registry
	ownTextures bool
	surface     surface.Surface
	ownSurface  bool

	gpu  *gpu.Backend // nil without a device
	soft *soft.Rasterizer
	rec  *recording.Recorder
	acc  *batch.Accumulator

	glyphs []shape.Glyph

	sink   batch.Submitter // receives the current frame's batches
	onGPU  bool
	frame  *Frame
	closed bool
}

// New creates a renderer.
//
// Without WithDevice every frame is rasterized on the CPU into an offscreen
// image. With a device, view targets are drawn by the GPU backend; image
// targets still use the CPU.
func New(opts ...Option) (*Renderer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if (o.device == nil) != (o.queue == nil) {
		return nil, errors.New("imdraw: device and queue must be given together")
	}
	variant, err := chooseVariant(o.slots, o.limits)
	if err != nil {
		return nil, err
	}

	r := &Renderer{opts: o, variant: variant, rec: o.recorder}
	useGPU := o.device != nil && !o.software

	r.textures = o.textures
	if r.textures == nil {
		r.textures = texture.NewRegistry()
		r.ownTextures = true
	}
	if useGPU {
		if err := r.textures.Attach(o.device, o.queue); err != nil {
			r.release()
			return nil, fmt.Errorf("imdraw: attach textures: %w", err)
		}
	}

	if err := r.openSurface(useGPU); err != nil {
		r.release()
		return nil, err
	}

	if useGPU {
		format := o.format
		if sc, ok := r.surface.(*surface.Swapchain); ok && format == gputypes.TextureFormatUndefined {
			format = sc.Format()
		}
		r.gpu, err = gpu.New(gpu.Config{
			Device:         o.device,
			Queue:          o.queue,
			Format:         format,
			Textures:       r.textures,
			BindGroupCache: o.bindGroupCache,
		})
		if err != nil {
			r.release()
			return nil, fmt.Errorf("imdraw: create backend: %w", err)
		}
	}
	r.soft = soft.New(nil, r.textures)
	r.acc = batch.New(batch.SubmitterFunc(r.flush), variant)
	r.acc.SetTextures(r.textures)

	w, h := r.surface.Size()
	Logger().Info("renderer created",
		"gpu", r.gpu != nil,
		"variant", variant.String(),
		"surface", fmt.Sprintf("%T", r.surface),
		"width", w, "height", h)
	return r, nil
}

// NewFromProvider creates a renderer on a device owned by a host
// application. The provider must expose its hal objects through
// HalDevice() any and HalQueue() any. The host keeps ownership of the
// device.
func NewFromProvider(p gpucontext.DeviceProvider, opts ...Option) (*Renderer, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := p.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider %T does not expose hal types", ErrNoAdapter, p)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrNoAdapter)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrNoAdapter)
	}
	info := p.AdapterInfo()
	Logger().Info("using host device", "adapter", info.Name, "type", info.Type.String())

	base := []Option{WithDevice(device, queue)}
	if f := p.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		base = append(base, WithFormat(f))
	}
	return New(append(base, opts...)...)
}

func chooseVariant(slots int, l gputypes.Limits) (shader.Variant, error) {
	if slots < 0 {
		return shader.Best(l), nil
	}
	v, err := shader.ForSlots(slots)
	if err != nil {
		return shader.Color, fmt.Errorf("%w: %w", ErrVariantMismatch, err)
	}
	if limit := shader.MaxSlots(l); v.Slots() > limit {
		return shader.Color, fmt.Errorf("%w: %d slots requested, device binds %d", ErrVariantMismatch, slots, limit)
	}
	return v, nil
}

func (r *Renderer) openSurface(useGPU bool) error {
	o := r.opts
	if o.surface != nil {
		r.surface = o.surface
		return nil
	}
	so := surface.Options{
		Width:  o.width,
		Height: o.height,
		Format: o.format,
	}
	var (
		s   surface.Surface
		err error
	)
	if useGPU {
		so.Device, so.Queue, so.Window = o.device, o.queue, o.window
		s, err = surface.NewSurface(so)
	} else {
		s, err = surface.NewSurfaceByName("offscreen", so)
	}
	if err != nil {
		return fmt.Errorf("imdraw: create surface: %w", err)
	}
	r.surface = s
	r.ownSurface = true
	return nil
}

// Textures returns the registry textures are registered in.
func (r *Renderer) Textures() *texture.Registry { return r.textures }

// Surface returns the surface frames are drawn into.
func (r *Renderer) Surface() surface.Surface { return r.surface }

// Slots returns how many textures one batch binds.
func (r *Renderer) Slots() int { return r.variant.Slots() }

// GPU reports whether the renderer has a device backend.
func (r *Renderer) GPU() bool { return r.gpu != nil }

// BeginFrame acquires the next target from the surface and starts a frame.
// It blocks while the surface has no target available.
func (r *Renderer) BeginFrame(ctx context.Context) (*Frame, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if r.frame != nil {
		return nil, ErrFrameInProgress
	}
	t, err := r.surface.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("imdraw: acquire target: %w", err)
	}

	var sink batch.Submitter
	switch tt := t.(type) {
	case surface.ViewTarget:
		if r.gpu == nil {
			r.discard(t)
			return nil, fmt.Errorf("imdraw: %T target needs a device", t)
		}
		r.gpu.BeginFrame(tt.View(), gpuColor(r.opts.clear))
		sink = r.gpu
		r.onGPU = true
	case surface.ImageTarget:
		r.soft.SetTarget(tt.Image())
		r.soft.Clear(r.opts.clear.NRGBA())
		sink = r.soft
		r.onGPU = false
	default:
		r.discard(t)
		return nil, fmt.Errorf("imdraw: unsupported target %T", t)
	}

	w, h := t.Size()
	if r.rec != nil {
		r.rec.SetNext(sink)
		r.rec.BeginFrame(w, h)
		sink = r.rec
	}
	r.sink = sink
	r.acc.Reset()
	r.frame = newFrame(r, t, w, h)
	return r.frame, nil
}

func (r *Renderer) flush(b *batch.Batch) error {
	if r.sink == nil {
		return ErrFrameClosed
	}
	return r.sink.Flush(b)
}

// endFrame submits what is left of f and presents its target. The
// renderer is ready for the next frame afterwards whatever the outcome.
func (r *Renderer) endFrame(f *Frame) error {
	defer func() {
		r.frame = nil
		r.sink = nil
		r.onGPU = false
		r.soft.SetTarget(nil)
	}()

	err := f.err
	if err == nil {
		err = r.acc.Finish()
	}
	f.stats = Stats(r.acc.Stats())
	if r.onGPU {
		if e := r.gpu.EndFrame(); err == nil {
			err = e
		}
	}
	if err != nil {
		r.discard(f.target)
		return err
	}
	if err := r.surface.Present(f.target); err != nil {
		return fmt.Errorf("imdraw: present: %w", err)
	}
	Logger().Debug("frame presented",
		"batches", f.stats.Batches,
		"shapes", f.stats.Shapes,
		"vertices", f.stats.Vertices)
	return nil
}

func (r *Renderer) discard(t surface.Target) {
	if d, ok := r.surface.(interface{ Discard(surface.Target) }); ok {
		d.Discard(t)
	}
}

// Replay draws a recording as one new frame. Its texture snapshots are
// registered in the renderer's registry, where they stay.
func (r *Renderer) Replay(ctx context.Context, rec *recording.Recording) error {
	f, err := r.BeginFrame(ctx)
	if err != nil {
		return err
	}
	if err := rec.ReplayInto(r.sink, r.textures); err != nil {
		f.fail(err)
	}
	return f.End()
}

// Resize changes the size of the surface. It fails while a frame is open
// and for surfaces that cannot be resized.
func (r *Renderer) Resize(width, height int) error {
	if r.frame != nil {
		return ErrFrameInProgress
	}
	rs, ok := r.surface.(surface.Resizer)
	if !ok {
		return fmt.Errorf("imdraw: %T cannot be resized", r.surface)
	}
	return rs.Resize(width, height)
}

// Close ends an open frame and releases everything the renderer created.
// Devices, surfaces and registries passed in by the caller are left
// alone. Close is idempotent.
func (r *Renderer) Close() error {
	if r.closed {
		return nil
	}
	var err error
	if r.frame != nil {
		err = r.frame.End()
	}
	r.closed = true
	return errors.Join(err, r.release())
}

func (r *Renderer) release() error {
	var errs []error
	if r.gpu != nil {
		r.gpu.Destroy()
		r.gpu = nil
	}
	if r.ownSurface {
		if c, ok := r.surface.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
		r.ownSurface = false
	}
	if r.ownTextures && r.textures != nil {
		r.textures.Destroy()
		r.ownTextures = false
	}
	return errors.Join(errs...)
}

func gpuColor(c shape.Color) gputypes.Color {
	return gputypes.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)}
}
