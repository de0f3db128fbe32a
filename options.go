package imdraw

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/imdraw/recording"
	"github.com/gogpu/imdraw/shape"
	"github.com/gogpu/imdraw/surface"
	"github.com/gogpu/imdraw/texture"
)

// DefaultWidth and DefaultHeight size the offscreen surface a renderer
// creates when it is given neither a surface nor a size.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Option configures a Renderer during creation.
//
// Example:
//
//	// Software rendering into a 640x480 image
//	r, err := imdraw.New(imdraw.WithSize(640, 480))
//
//	// GPU rendering into a window surface
//	r, err := imdraw.New(
//	    imdraw.WithDevice(device, queue),
//	    imdraw.WithWindow(halSurface),
//	    imdraw.WithSlots(16),
//	)
type Option func(*options)

type options struct {
	device hal.Device
	queue  hal.Queue
	limits gputypes.Limits
	format gputypes.TextureFormat

	surface       surface.Surface
	window        hal.Surface
	width, height int

	slots          int // -1 picks the widest variant the limits allow
	clear          shape.Color
	recorder       *recording.Recorder
	textures       *texture.Registry
	bindGroupCache int
	software       bool
}

func defaultOptions() options {
	return options{
		limits: gputypes.DefaultLimits(),
		width:  DefaultWidth,
		height: DefaultHeight,
		slots:  -1,
		clear:  shape.RGBA(0, 0, 0, 0),
	}
}

// WithDevice renders with a hal device and queue the caller owns. The
// renderer never destroys them.
func WithDevice(device hal.Device, queue hal.Queue) Option {
	return func(o *options) {
		o.device = device
		o.queue = queue
	}
}

// WithLimits sets the device limits used to choose the shader variant.
// Defaults to gputypes.DefaultLimits.
func WithLimits(l gputypes.Limits) Option {
	return func(o *options) {
		o.limits = l
	}
}

// WithFormat sets the render target format for GPU rendering.
func WithFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithSurface draws into s. The caller keeps ownership of s.
func WithSurface(s surface.Surface) Option {
	return func(o *options) {
		o.surface = s
	}
}

// WithWindow presents to a hal surface through a swapchain the renderer
// creates and owns. It requires WithDevice.
func WithWindow(w hal.Surface) Option {
	return func(o *options) {
		o.window = w
	}
}

// WithSize sets the size of the surface the renderer creates. It is
// ignored when WithSurface is given.
func WithSize(width, height int) Option {
	return func(o *options) {
		o.width = width
		o.height = height
	}
}

// WithSlots sets how many textures one batch may bind: 0, 4 or 16. Zero
// makes a colour-only renderer that rejects textured and rounded shapes.
// By default the widest variant the device limits allow is used.
func WithSlots(n int) Option {
	return func(o *options) {
		o.slots = n
	}
}

// WithClearColor sets the colour each frame starts from. Defaults to
// transparent black.
func WithClearColor(c shape.Color) Option {
	return func(o *options) {
		o.clear = c
	}
}

// WithRecorder copies every submitted batch into rec.
func WithRecorder(rec *recording.Recorder) Option {
	return func(o *options) {
		o.recorder = rec
	}
}

// WithTextures shares a texture registry with the renderer. Without it
// the renderer creates and owns one.
func WithTextures(reg *texture.Registry) Option {
	return func(o *options) {
		o.textures = reg
	}
}

// WithBindGroupCache bounds the number of texture bind groups the GPU
// backend keeps alive.
func WithBindGroupCache(n int) Option {
	return func(o *options) {
		o.bindGroupCache = n
	}
}

// WithSoftware forces CPU rasterization into an offscreen image even when
// a device is configured.
func WithSoftware() Option {
	return func(o *options) {
		o.software = true
	}
}
