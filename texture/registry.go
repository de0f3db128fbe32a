package texture

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/draw"
)

// Registry errors.
var (
	// ErrUnknownTexture is returned for a handle that was never registered
	// or has been released.
	ErrUnknownTexture = errors.New("texture: unknown handle")

	// ErrEmptyImage is returned when registering an image with no pixels.
	ErrEmptyImage = errors.New("texture: empty image")
)

// Handle identifies a registered texture. The zero Handle means "no texture".
type Handle uint32

// Filter selects the sampler a texture is drawn with.
type Filter uint8

const (
	// Linear filtering, the default.
	Linear Filter = iota
	// Nearest filtering, for pixel art.
	Nearest
)

// Option configures a texture at registration.
type Option func(*Entry)

// WithFilter selects the sampler filter.
func WithFilter(f Filter) Option {
	return func(e *Entry) { e.Filter = f }
}

// WithLabel sets the GPU debug label.
func WithLabel(label string) Option {
	return func(e *Entry) { e.Label = label }
}

// Entry is a snapshot of one registered texture.
//
// Pixels is straight (non-premultiplied) alpha and must be treated as read
// only. Texture, View and Sampler are nil until a device is attached.
type Entry struct {
	Label   string
	Filter  Filter
	Pixels  *image.NRGBA
	Texture hal.Texture
	View    hal.TextureView
	Sampler hal.Sampler
	// Version increases on every Update.
	Version uint64
}

// Size returns the texture dimensions in pixels.
func (e Entry) Size() (width, height int) {
	b := e.Pixels.Bounds()
	return b.Dx(), b.Dy()
}

// Registry stores textures by handle. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	next    Handle
	entries map[Handle]*Entry

	device   hal.Device
	queue    hal.Queue
	samplers [2]hal.Sampler
}

// NewRegistry creates an empty registry holding CPU copies only.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Handle]*Entry)}
}

// Attach binds the registry to a device. Every texture registered so far is
// uploaded, and later registrations upload immediately.
func (r *Registry) Attach(device hal.Device, queue hal.Queue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device != nil {
		r.destroyGPULocked()
	}
	r.device = device
	r.queue = queue
	for _, e := range r.entries {
		if err := r.uploadLocked(e); err != nil {
			return err
		}
	}
	return nil
}

// Register stores a straight-alpha copy of img and returns its handle.
func (r *Registry) Register(img image.Image, opts ...Option) (Handle, error) {
	pix, err := toNRGBA(img)
	if err != nil {
		return 0, err
	}
	e := &Entry{Pixels: pix}
	for _, opt := range opts {
		opt(e)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device != nil {
		if err := r.uploadLocked(e); err != nil {
			return 0, err
		}
	}
	r.next++
	r.entries[r.next] = e
	return r.next, nil
}

// Update replaces the pixels of h. A same-sized image is written into the
// existing GPU texture; a resize recreates it.
func (r *Registry) Update(h Handle, img image.Image) error {
	pix, err := toNRGBA(img)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, h)
	}
	sameSize := e.Pixels.Bounds().Size() == pix.Bounds().Size()
	e.Pixels = pix
	e.Version++

	if r.device == nil {
		return nil
	}
	if sameSize && e.Texture != nil {
		return r.writeLocked(e)
	}
	r.destroyEntryLocked(e)
	return r.uploadLocked(e)
}

// Lookup returns a snapshot of h.
func (r *Registry) Lookup(h Handle) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[h]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Size returns the dimensions of h.
func (r *Registry) Size(h Handle) (width, height int, err error) {
	e, ok := r.Lookup(h)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %d", ErrUnknownTexture, h)
	}
	width, height = e.Size()
	return width, height, nil
}

// Len returns the number of registered textures.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Release forgets h and frees its GPU texture. Releasing an unknown handle
// is a no-op.
func (r *Registry) Release(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[h]
	if !ok {
		return
	}
	r.destroyEntryLocked(e)
	delete(r.entries, h)
}

// Destroy frees every GPU resource and detaches the device. CPU copies
// survive, so the registry can be attached again.
func (r *Registry) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroyGPULocked()
	r.device = nil
	r.queue = nil
}

func (r *Registry) destroyGPULocked() {
	for _, e := range r.entries {
		r.destroyEntryLocked(e)
	}
	for i, s := range r.samplers {
		if s != nil {
			r.device.DestroySampler(s)
			r.samplers[i] = nil
		}
	}
}

func (r *Registry) destroyEntryLocked(e *Entry) {
	if r.device == nil {
		return
	}
	if e.View != nil {
		r.device.DestroyTextureView(e.View)
		e.View = nil
	}
	if e.Texture != nil {
		r.device.DestroyTexture(e.Texture)
		e.Texture = nil
	}
	e.Sampler = nil
}

func (r *Registry) uploadLocked(e *Entry) error {
	w, h := e.Size()
	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         e.Label,
		Size:          hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}, //nolint:gosec // image bounds are non-negative
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("texture: create %q: %w", e.Label, err)
	}
	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         e.Label,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		r.device.DestroyTexture(tex)
		return fmt.Errorf("texture: create view %q: %w", e.Label, err)
	}
	sampler, err := r.samplerLocked(e.Filter)
	if err != nil {
		r.device.DestroyTextureView(view)
		r.device.DestroyTexture(tex)
		return err
	}
	e.Texture, e.View, e.Sampler = tex, view, sampler
	return r.writeLocked(e)
}

func (r *Registry) writeLocked(e *Entry) error {
	w, h := e.Size()
	err := r.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: e.Texture, Aspect: gputypes.TextureAspectAll},
		e.Pixels.Pix,
		&hal.ImageDataLayout{BytesPerRow: uint32(e.Pixels.Stride), RowsPerImage: uint32(h)}, //nolint:gosec // image bounds are non-negative
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},          //nolint:gosec // image bounds are non-negative
	)
	if err != nil {
		return fmt.Errorf("texture: upload %q: %w", e.Label, err)
	}
	return nil
}

func (r *Registry) samplerLocked(f Filter) (hal.Sampler, error) {
	if s := r.samplers[f]; s != nil {
		return s, nil
	}
	mode := gputypes.FilterModeLinear
	label := "imdraw_linear_sampler"
	if f == Nearest {
		mode = gputypes.FilterModeNearest
		label = "imdraw_nearest_sampler"
	}
	s, err := r.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    mode,
		MinFilter:    mode,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMaxClamp:  32,
	})
	if err != nil {
		return nil, fmt.Errorf("texture: create sampler: %w", err)
	}
	r.samplers[f] = s
	return s, nil
}

// toNRGBA copies img into a zero-origin straight-alpha image.
func toNRGBA(img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(dst, image.Point{}, img, b, draw.Src, nil)
	return dst, nil
}
