package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/imdraw/internal/shader"
	"github.com/gogpu/imdraw/internal/vertex"
)

// pipeline holds the GPU objects of one shader variant.
type pipeline struct {
	variant     shader.Variant
	module      hal.ShaderModule
	groupLayout hal.BindGroupLayout // nil for the colour variant
	layout      hal.PipelineLayout
	render      hal.RenderPipeline
}

// groupLayoutEntries returns a texture and a sampler entry per slot:
// texture k at binding 2(k-1), its sampler at 2(k-1)+1.
func groupLayoutEntries(v shader.Variant) []gputypes.BindGroupLayoutEntry {
	entries := make([]gputypes.BindGroupLayoutEntry, 0, 2*v.Slots())
	for k := 1; k <= v.Slots(); k++ {
		entries = append(entries,
			gputypes.BindGroupLayoutEntry{
				Binding:    shader.TextureBinding(k),
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			gputypes.BindGroupLayoutEntry{
				Binding:    shader.SamplerBinding(k),
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		)
	}
	return entries
}

// createPipeline compiles the variant's program and creates its layouts
// and render pipeline with straight-alpha blending.
func createPipeline(device hal.Device, v shader.Variant, format gputypes.TextureFormat) (*pipeline, error) {
	p := &pipeline{variant: v}
	label := "imdraw_" + v.String()

	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label + "_shader",
		Source: hal.ShaderSource{WGSL: shader.Source(v)},
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s shader: %w", v, err)
	}
	p.module = module

	var groups []hal.BindGroupLayout
	if v.Textured() {
		gl, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   label + "_textures",
			Entries: groupLayoutEntries(v),
		})
		if err != nil {
			p.destroy(device)
			return nil, fmt.Errorf("create %s bind group layout: %w", v, err)
		}
		p.groupLayout = gl
		groups = append(groups, gl)
	}

	layout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_layout",
		BindGroupLayouts: groups,
	})
	if err != nil {
		p.destroy(device)
		return nil, fmt.Errorf("create %s pipeline layout: %w", v, err)
	}
	p.layout = layout

	blend := gputypes.BlendStateAlpha()
	render, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label + "_pipeline",
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: shader.VertexEntry,
			Buffers:    vertex.Layout(),
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: shader.FragmentEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    format,
				Blend:     &blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.destroy(device)
		return nil, fmt.Errorf("create %s pipeline: %w", v, err)
	}
	p.render = render
	slogger().Debug("pipeline created", "variant", v.String(), "format", format)
	return p, nil
}

// destroy releases the pipeline objects in reverse creation order.
func (p *pipeline) destroy(device hal.Device) {
	if p.render != nil {
		device.DestroyRenderPipeline(p.render)
		p.render = nil
	}
	if p.layout != nil {
		device.DestroyPipelineLayout(p.layout)
		p.layout = nil
	}
	if p.groupLayout != nil {
		device.DestroyBindGroupLayout(p.groupLayout)
		p.groupLayout = nil
	}
	if p.module != nil {
		device.DestroyShaderModule(p.module)
		p.module = nil
	}
}
