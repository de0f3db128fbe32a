package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/imdraw/internal/shader"
	"github.com/gogpu/imdraw/texture"
)

// maxSlots bounds the slot arrays of a cache key.
const maxSlots = 16

// groupKey identifies a bind group by variant and the exact texture
// contents bound to each slot.
type groupKey struct {
	variant  shader.Variant
	textures [maxSlots]texture.Handle
	versions [maxSlots]uint64
}

// placeholder fills slots a batch leaves unused.
type placeholder struct {
	tex     hal.Texture
	view    hal.TextureView
	sampler hal.Sampler
}

func (b *Backend) ensurePlaceholder() error {
	if b.placeholder.view != nil {
		return nil
	}
	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "imdraw_placeholder",
		Size:          hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return deviceError("create placeholder texture", err)
	}
	b.placeholder.tex = tex

	err = b.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
		[]byte{255, 255, 255, 255},
		&hal.ImageDataLayout{BytesPerRow: 4, RowsPerImage: 1},
		&hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return deviceError("upload placeholder texture", err)
	}

	view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           "imdraw_placeholder_view",
		Format:          gputypes.TextureFormatRGBA8Unorm,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return deviceError("create placeholder view", err)
	}
	b.placeholder.view = view

	sampler, err := b.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "imdraw_placeholder_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMaxClamp:  32,
	})
	if err != nil {
		return deviceError("create placeholder sampler", err)
	}
	b.placeholder.sampler = sampler
	return nil
}

func (b *Backend) destroyPlaceholder() {
	if b.placeholder.sampler != nil {
		b.device.DestroySampler(b.placeholder.sampler)
	}
	if b.placeholder.view != nil {
		b.device.DestroyTextureView(b.placeholder.view)
	}
	if b.placeholder.tex != nil {
		b.device.DestroyTexture(b.placeholder.tex)
	}
	b.placeholder = placeholder{}
}

// bindGroup returns a bind group for handles under p, creating and caching
// it on first use.
func (b *Backend) bindGroup(p *pipeline, handles []texture.Handle) (hal.BindGroup, error) {
	if len(handles) > p.variant.Slots() {
		return nil, fmt.Errorf("gpu: %d textures exceed %s slots", len(handles), p.variant)
	}
	key := groupKey{variant: p.variant}
	var views [maxSlots]hal.TextureView
	var samplers [maxSlots]hal.Sampler
	for i, h := range handles {
		var e texture.Entry
		ok := false
		if b.textures != nil {
			e, ok = b.textures.Lookup(h)
		}
		if !ok || e.View == nil || e.Sampler == nil {
			return nil, fmt.Errorf("gpu: texture %d: %w", h, texture.ErrUnknownTexture)
		}
		key.textures[i], key.versions[i] = h, e.Version
		views[i], samplers[i] = e.View, e.Sampler
	}
	if g, ok := b.groups.Get(key); ok {
		return g, nil
	}

	if err := b.ensurePlaceholder(); err != nil {
		return nil, err
	}
	entries := make([]gputypes.BindGroupEntry, 0, 2*p.variant.Slots())
	for k := 1; k <= p.variant.Slots(); k++ {
		view, sampler := b.placeholder.view, b.placeholder.sampler
		if k <= len(handles) {
			view, sampler = views[k-1], samplers[k-1]
		}
		entries = append(entries,
			gputypes.BindGroupEntry{Binding: shader.TextureBinding(k), Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			gputypes.BindGroupEntry{Binding: shader.SamplerBinding(k), Resource: gputypes.SamplerBinding{Sampler: sampler.NativeHandle()}},
		)
	}
	g, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "imdraw_" + p.variant.String() + "_textures",
		Layout:  p.groupLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, deviceError("create bind group", err)
	}
	b.groups.Add(key, g)
	return g, nil
}
