package texture

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// countingQueue records texture uploads.
type countingQueue struct {
	hal.Queue
	writes []hal.Extent3D
}

func (q *countingQueue) WriteTexture(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D) error {
	q.writes = append(q.writes, *size)
	return q.Queue.WriteTexture(dst, data, layout, size)
}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRegisterLookupCPU(t *testing.T) {
	reg := NewRegistry()
	h, err := reg.Register(solid(3, 2, color.NRGBA{R: 255, A: 128}), WithLabel("red"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if h == 0 {
		t.Fatal("Register returned the zero handle")
	}
	e, ok := reg.Lookup(h)
	if !ok {
		t.Fatal("Lookup failed for registered handle")
	}
	if w, hh := e.Size(); w != 3 || hh != 2 {
		t.Errorf("Size = %dx%d, want 3x2", w, hh)
	}
	if e.Texture != nil || e.View != nil {
		t.Error("GPU objects exist without an attached device")
	}
	got := e.Pixels.NRGBAAt(1, 1)
	if got.A != 128 || got.R < 250 {
		t.Errorf("pixel = %+v, want straight-alpha red at 128", got)
	}
	if e.Label != "red" {
		t.Errorf("Label = %q", e.Label)
	}
}

func TestRegisterRebasesOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 14, 12))
	src.Set(10, 10, color.White)
	reg := NewRegistry()
	h, err := reg.Register(src)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	e, _ := reg.Lookup(h)
	if e.Pixels.Bounds().Min != (image.Point{}) {
		t.Errorf("bounds = %v, want zero origin", e.Pixels.Bounds())
	}
	if e.Pixels.NRGBAAt(0, 0).A != 255 {
		t.Error("top-left pixel was not copied")
	}
}

func TestRegisterRejectsEmpty(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Register(nil); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("nil image: err = %v", err)
	}
	if _, err := reg.Register(image.NewRGBA(image.Rectangle{})); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("empty image: err = %v", err)
	}
}

func TestHandlesAreDistinct(t *testing.T) {
	reg := NewRegistry()
	seen := map[Handle]bool{}
	for i := 0; i < 20; i++ {
		h, err := reg.Register(solid(1, 1, color.White))
		if err != nil {
			t.Fatal(err)
		}
		if seen[h] {
			t.Fatalf("handle %d issued twice", h)
		}
		seen[h] = true
	}
	if reg.Len() != 20 {
		t.Errorf("Len = %d, want 20", reg.Len())
	}
}

func TestUpdateAndRelease(t *testing.T) {
	reg := NewRegistry()
	h, _ := reg.Register(solid(2, 2, color.White))
	if err := reg.Update(h, solid(4, 4, color.Black)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	e, _ := reg.Lookup(h)
	if e.Version != 1 {
		t.Errorf("Version = %d, want 1", e.Version)
	}
	if w, _ := e.Size(); w != 4 {
		t.Errorf("width after update = %d, want 4", w)
	}

	reg.Release(h)
	reg.Release(h)
	if _, ok := reg.Lookup(h); ok {
		t.Error("Lookup succeeded after Release")
	}
	if err := reg.Update(h, solid(1, 1, color.White)); !errors.Is(err, ErrUnknownTexture) {
		t.Errorf("Update after Release: err = %v", err)
	}
	if _, _, err := reg.Size(h); !errors.Is(err, ErrUnknownTexture) {
		t.Errorf("Size after Release: err = %v", err)
	}
}

func TestAttachUploads(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	q := &countingQueue{Queue: queue}

	reg := NewRegistry()
	before, _ := reg.Register(solid(8, 4, color.White))
	if err := reg.Attach(device, q); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	after, err := reg.Register(solid(2, 2, color.White), WithFilter(Nearest))
	if err != nil {
		t.Fatalf("Register after Attach: %v", err)
	}
	if len(q.writes) != 2 {
		t.Fatalf("uploads = %d, want 2", len(q.writes))
	}
	if q.writes[0].Width != 8 || q.writes[0].Height != 4 {
		t.Errorf("first upload size = %+v", q.writes[0])
	}

	for _, h := range []Handle{before, after} {
		e, _ := reg.Lookup(h)
		if e.Texture == nil || e.View == nil || e.Sampler == nil {
			t.Errorf("handle %d missing GPU objects after Attach", h)
		}
	}
	if reg.samplers[Linear] == nil || reg.samplers[Nearest] == nil {
		t.Error("expected one sampler per filter")
	}

	// Same size: rewritten in place.
	if err := reg.Update(after, solid(2, 2, color.Black)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(q.writes) != 3 {
		t.Errorf("uploads after update = %d, want 3", len(q.writes))
	}

	reg.Destroy()
	e, _ := reg.Lookup(before)
	if e.Texture != nil || e.Pixels == nil {
		t.Error("Destroy should drop GPU objects and keep pixels")
	}
}
