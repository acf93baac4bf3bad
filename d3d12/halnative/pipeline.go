// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halnative

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/hello/d3d12"
	"github.com/gogpu/hello/shader"
)

// maxRootConstantBuffers bounds the root signature to what one bind group
// layout covers here.
const maxRootConstantBuffers = 4

type rootBuffers [maxRootConstantBuffers]*Buffer

// PipelineState implements d3d12.PipelineState as a hal render pipeline.
// The root signature's constant-buffer slots are bindings 0..n-1 of bind
// group 0.
type PipelineState struct {
	device *Device
	desc   d3d12.GraphicsPipelineStateDesc

	modules  []hal.ShaderModule
	bgLayout hal.BindGroupLayout
	layout   hal.PipelineLayout
	pipeline hal.RenderPipeline
	groups   map[rootBuffers]hal.BindGroup
	released bool
}

var _ d3d12.PipelineState = (*PipelineState)(nil)

// CreateGraphicsPipelineState implements d3d12.Device. Shader sources are
// checked with naga before reaching the driver.
func (d *Device) CreateGraphicsPipelineState(desc d3d12.GraphicsPipelineStateDesc) (_ d3d12.PipelineState, ferr error) {
	if desc.RootConstantBuffers > maxRootConstantBuffers {
		return nil, fmt.Errorf("%w: %d root constant buffers", d3d12.ErrInvalidArg, desc.RootConstantBuffers)
	}
	target, err := textureFormat(desc.RTVFormat)
	if err != nil {
		return nil, err
	}
	buffers, err := vertexLayout(desc)
	if err != nil {
		return nil, err
	}

	p := &PipelineState{device: d, desc: desc, groups: make(map[rootBuffers]hal.BindGroup)}
	defer func() {
		if ferr != nil {
			p.Release()
		}
	}()

	vs, err := p.module(desc.Label+"_vs", desc.VS.Source)
	if err != nil {
		return nil, err
	}
	ps := vs
	if desc.PS.Source != desc.VS.Source {
		if ps, err = p.module(desc.Label+"_ps", desc.PS.Source); err != nil {
			return nil, err
		}
	}

	var layouts []hal.BindGroupLayout
	if desc.RootConstantBuffers > 0 {
		entries := make([]gputypes.BindGroupLayoutEntry, desc.RootConstantBuffers)
		for i := range entries {
			entries[i] = gputypes.BindGroupLayoutEntry{
				Binding:    uint32(i),
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			}
		}
		p.bgLayout, err = d.hal.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   desc.Label + "_root_signature",
			Entries: entries,
		})
		if err != nil {
			return nil, fmt.Errorf("halnative: create root signature: %w", err)
		}
		layouts = append(layouts, p.bgLayout)
	}

	p.layout, err = d.hal.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_layout",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("halnative: create pipeline layout: %w", err)
	}

	p.pipeline, err = d.hal.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     vs,
			EntryPoint: desc.VS.EntryPoint,
			Buffers:    buffers,
		},
		Fragment: &hal.FragmentState{
			Module:     ps,
			EntryPoint: desc.PS.EntryPoint,
			Targets: []gputypes.ColorTargetState{
				{Format: target, WriteMask: gputypes.ColorWriteMaskAll},
			},
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
		return nil, fmt.Errorf("halnative: create pipeline %q: %w", desc.Label, err)
	}
	return p, nil
}

func (p *PipelineState) module(label, src string) (hal.ShaderModule, error) {
	if err := shader.Validate(src); err != nil {
		return nil, fmt.Errorf("halnative: %s: %w", label, err)
	}
	m, err := p.device.hal.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{WGSL: src},
	})
	if err != nil {
		return nil, fmt.Errorf("halnative: create shader module %s: %w", label, err)
	}
	p.modules = append(p.modules, m)
	return m, nil
}

// bindGroup returns the bind group for the given root buffers, creating it
// on first use.
func (p *PipelineState) bindGroup(roots rootBuffers) (hal.BindGroup, error) {
	if bg, ok := p.groups[roots]; ok {
		return bg, nil
	}
	entries := make([]gputypes.BindGroupEntry, p.desc.RootConstantBuffers)
	for i := range entries {
		buf := roots[i]
		if buf == nil {
			return nil, fmt.Errorf("%w: root constant buffer %d not set", d3d12.ErrInvalidArg, i)
		}
		entries[i] = gputypes.BindGroupEntry{
			Binding: uint32(i),
			Resource: gputypes.BufferBinding{
				Buffer: buf.hal.NativeHandle(),
				Offset: 0,
				Size:   buf.size,
			},
		}
	}
	bg, err := p.device.hal.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.desc.Label + "_root_cbv",
		Layout:  p.bgLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("halnative: create bind group: %w", err)
	}
	p.groups[roots] = bg
	return bg, nil
}

// Release implements d3d12.PipelineState.
func (p *PipelineState) Release() {
	if p.released {
		return
	}
	p.released = true
	d := p.device.hal
	for _, bg := range p.groups {
		d.DestroyBindGroup(bg)
	}
	if p.pipeline != nil {
		d.DestroyRenderPipeline(p.pipeline)
	}
	if p.layout != nil {
		d.DestroyPipelineLayout(p.layout)
	}
	if p.bgLayout != nil {
		d.DestroyBindGroupLayout(p.bgLayout)
	}
	for _, m := range p.modules {
		d.DestroyShaderModule(m)
	}
}

// vertexLayout groups the input layout by slot.
func vertexLayout(desc d3d12.GraphicsPipelineStateDesc) ([]gputypes.VertexBufferLayout, error) {
	var layouts []gputypes.VertexBufferLayout
	slots := make(map[uint32]int)
	for loc, e := range desc.InputLayout {
		format, err := vertexFormat(e.Format)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.SemanticName, err)
		}
		i, ok := slots[e.InputSlot]
		if !ok {
			if int(e.InputSlot) != len(layouts) {
				return nil, fmt.Errorf("%w: input slots must be dense, got slot %d", d3d12.ErrInvalidArg, e.InputSlot)
			}
			i = len(layouts)
			slots[e.InputSlot] = i
			layouts = append(layouts, gputypes.VertexBufferLayout{StepMode: gputypes.VertexStepModeVertex})
		}
		l := &layouts[i]
		l.Attributes = append(l.Attributes, gputypes.VertexAttribute{
			Format:         format,
			Offset:         uint64(e.AlignedByteOffset),
			ShaderLocation: uint32(loc),
		})
		if end := uint64(e.AlignedByteOffset + e.Format.Size()); end > l.ArrayStride {
			l.ArrayStride = end
		}
	}
	return layouts, nil
}

func vertexFormat(f d3d12.Format) (gputypes.VertexFormat, error) {
	switch f {
	case d3d12.FormatR32G32Float:
		return gputypes.VertexFormatFloat32x2, nil
	case d3d12.FormatR32G32B32Float:
		return gputypes.VertexFormatFloat32x3, nil
	case d3d12.FormatR32G32B32A32Float:
		return gputypes.VertexFormatFloat32x4, nil
	default:
		return 0, fmt.Errorf("%w: vertex format %s", ErrUnsupportedFormat, f)
	}
}

func textureFormat(f d3d12.Format) (gputypes.TextureFormat, error) {
	switch f {
	case d3d12.FormatR8G8B8A8Unorm:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case d3d12.FormatB8G8R8A8Unorm:
		return gputypes.TextureFormatBGRA8Unorm, nil
	default:
		return 0, fmt.Errorf("%w: render target format %s", ErrUnsupportedFormat, f)
	}
}
