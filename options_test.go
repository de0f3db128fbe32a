package imdraw

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/imdraw/recording"
	"github.com/gogpu/imdraw/shape"
	"github.com/gogpu/imdraw/surface"
	"github.com/gogpu/imdraw/texture"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.width != DefaultWidth || o.height != DefaultHeight {
		t.Errorf("size = %dx%d", o.width, o.height)
	}
	if o.slots != -1 {
		t.Errorf("slots = %d, want -1 (auto)", o.slots)
	}
	if o.clear.A != 0 {
		t.Errorf("clear = %v, want transparent", o.clear)
	}
	if o.device != nil || o.surface != nil || o.software {
		t.Error("defaults should render in software without a device")
	}
}

func TestOptionsApply(t *testing.T) {
	reg := texture.NewRegistry()
	rec := recording.NewRecorder(reg)
	off := surface.NewOffscreen(4, 4)
	limits := gputypes.DefaultLimits()
	limits.MaxSamplersPerShaderStage = 4

	o := defaultOptions()
	for _, opt := range []Option{
		WithSize(10, 20),
		WithSlots(4),
		WithClearColor(shape.Black),
		WithRecorder(rec),
		WithTextures(reg),
		WithSurface(off),
		WithBindGroupCache(3),
		WithLimits(limits),
		WithFormat(gputypes.TextureFormatRGBA8Unorm),
		WithSoftware(),
	} {
		opt(&o)
	}

	switch {
	case o.width != 10 || o.height != 20:
		t.Errorf("size = %dx%d", o.width, o.height)
	case o.slots != 4 || o.bindGroupCache != 3:
		t.Errorf("slots %d, cache %d", o.slots, o.bindGroupCache)
	case o.clear != shape.Black:
		t.Errorf("clear = %v", o.clear)
	case o.recorder != rec || o.textures != reg || o.surface != off:
		t.Error("recorder, textures or surface not stored")
	case o.limits.MaxSamplersPerShaderStage != 4 || o.format != gputypes.TextureFormatRGBA8Unorm:
		t.Error("limits or format not stored")
	case !o.software:
		t.Error("WithSoftware not stored")
	}
}

func TestSoftwareIgnoresDevice(t *testing.T) {
	_, device, queue := createNoopDevice(t)
	r := newRenderer(t, WithDevice(device, queue), WithSoftware())
	if r.GPU() {
		t.Error("WithSoftware should not create a GPU backend")
	}
	if _, ok := r.Surface().(*surface.Offscreen); !ok {
		t.Errorf("surface = %T, want *surface.Offscreen", r.Surface())
	}
}
