// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halnative

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/hello"
	"github.com/gogpu/hello/d3d12"
)

// CommandList implements d3d12.GraphicsCommandList on a hal command encoder.
// A clear starts a render pass on its target with a clear load op; draws
// go into the open pass, or into a new pass that loads the bound target.
// Barriers and target changes end the open pass.
type CommandList struct {
	device *Device

	alloc     *Allocator
	pso       *PipelineState
	encoder   hal.CommandEncoder
	pass      hal.RenderPassEncoder
	passView  *renderTargetView
	recording bool
	cmdBuf    hal.CommandBuffer
	err       error

	target   *renderTargetView
	viewport *d3d12.Viewport
	scissor  *d3d12.Rect
	vertex   []vertexBinding
	roots    rootBuffers
}

type vertexBinding struct {
	slot uint32
	buf  *Buffer
}

var _ d3d12.GraphicsCommandList = (*CommandList)(nil)

// Reset implements d3d12.GraphicsCommandList.
func (l *CommandList) Reset(alloc d3d12.CommandAllocator, pso d3d12.PipelineState) error {
	a, ok := d3d12.Native(alloc).(*Allocator)
	if !ok || a.device != l.device {
		return fmt.Errorf("%w: allocator %T", d3d12.ErrWrongObject, alloc)
	}
	var p *PipelineState
	if pso != nil {
		if p, ok = d3d12.Native(pso).(*PipelineState); !ok {
			return fmt.Errorf("%w: pipeline state %T", d3d12.ErrWrongObject, pso)
		}
	}
	if l.recording {
		return d3d12.ErrListOpen
	}

	encoder, err := l.device.hal.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "d3d12_command_list",
	})
	if err != nil {
		return fmt.Errorf("halnative: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("d3d12_frame"); err != nil {
		return fmt.Errorf("halnative: begin encoding: %w", err)
	}

	l.alloc = a
	l.pso = p
	l.encoder = encoder
	l.pass = nil
	l.passView = nil
	l.recording = true
	l.cmdBuf = nil
	l.err = nil
	l.target = nil
	l.viewport = nil
	l.scissor = nil
	l.vertex = l.vertex[:0]
	l.roots = rootBuffers{}
	return nil
}

// Close implements d3d12.GraphicsCommandList.
func (l *CommandList) Close() error {
	if !l.recording {
		return d3d12.ErrListClosed
	}
	l.recording = false
	l.endPass()

	encoder := l.encoder
	l.encoder = nil
	if l.err != nil {
		encoder.DiscardEncoding()
		return l.err
	}
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("halnative: end encoding: %w", err)
	}
	l.cmdBuf = cmdBuf
	l.alloc.track(cmdBuf)
	return nil
}

// Release implements d3d12.GraphicsCommandList. Command buffers belong to
// the allocator.
func (l *CommandList) Release() {
	if l.recording {
		l.endPass()
		l.encoder.DiscardEncoding()
		l.encoder = nil
		l.recording = false
	}
}

// open reports whether recording may continue, noting misuse otherwise.
func (l *CommandList) open(op string) bool {
	if !l.recording {
		l.fail(fmt.Errorf("%w: %s", d3d12.ErrListClosed, op))
		return false
	}
	return l.err == nil
}

func (l *CommandList) fail(err error) {
	if l.err == nil {
		l.err = err
	}
}

func (l *CommandList) endPass() {
	if l.pass != nil {
		l.pass.End()
		l.pass = nil
		l.passView = nil
	}
}

func (l *CommandList) beginPass(rtv *renderTargetView, load gputypes.LoadOp, c hello.Color) {
	l.endPass()
	l.pass = l.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "d3d12_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       rtv.view,
			LoadOp:     load,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)},
		}},
	})
	l.passView = rtv
}

// RSSetViewports implements d3d12.GraphicsCommandList. Only the first
// viewport is used.
func (l *CommandList) RSSetViewports(viewports ...d3d12.Viewport) {
	if !l.open("RSSetViewports") || len(viewports) == 0 {
		return
	}
	vp := viewports[0]
	l.viewport = &vp
}

// RSSetScissorRects implements d3d12.GraphicsCommandList. Only the first
// rectangle is used.
func (l *CommandList) RSSetScissorRects(rects ...d3d12.Rect) {
	if !l.open("RSSetScissorRects") || len(rects) == 0 {
		return
	}
	r := rects[0]
	l.scissor = &r
}

// ResourceBarrier implements d3d12.GraphicsCommandList.
func (l *CommandList) ResourceBarrier(barriers ...d3d12.ResourceBarrier) {
	if !l.open("ResourceBarrier") {
		return
	}
	l.endPass()
	halBarriers := make([]hal.TextureBarrier, 0, len(barriers))
	for _, b := range barriers {
		bb, ok := d3d12.Native(b.Resource).(*backBuffer)
		if !ok {
			l.fail(fmt.Errorf("%w: barrier on %T", d3d12.ErrWrongObject, b.Resource))
			return
		}
		before, err := textureUsage(b.StateBefore)
		if err != nil {
			l.fail(err)
			return
		}
		after, err := textureUsage(b.StateAfter)
		if err != nil {
			l.fail(err)
			return
		}
		halBarriers = append(halBarriers, hal.TextureBarrier{
			Texture: bb.tex,
			Usage:   hal.TextureUsageTransition{OldUsage: before, NewUsage: after},
		})
	}
	l.encoder.TransitionTextures(halBarriers)
}

// OMSetRenderTargets implements d3d12.GraphicsCommandList.
func (l *CommandList) OMSetRenderTargets(rtv d3d12.CPUDescriptorHandle) {
	if !l.open("OMSetRenderTargets") {
		return
	}
	view, err := l.device.renderTarget(rtv)
	if err != nil {
		l.fail(err)
		return
	}
	if view != l.passView {
		l.endPass()
	}
	l.target = view
}

// ClearRenderTargetView implements d3d12.GraphicsCommandList.
func (l *CommandList) ClearRenderTargetView(rtv d3d12.CPUDescriptorHandle, c hello.Color) {
	if !l.open("ClearRenderTargetView") {
		return
	}
	view, err := l.device.renderTarget(rtv)
	if err != nil {
		l.fail(err)
		return
	}
	l.beginPass(view, gputypes.LoadOpClear, c)
}

// IASetPrimitiveTopology implements d3d12.GraphicsCommandList. Pipelines
// are built for triangle lists, the only topology accepted.
func (l *CommandList) IASetPrimitiveTopology(topology d3d12.PrimitiveTopology) {
	if !l.open("IASetPrimitiveTopology") {
		return
	}
	if topology != d3d12.PrimitiveTopologyTriangleList {
		l.fail(fmt.Errorf("%w: topology %s", d3d12.ErrInvalidArg, topology))
	}
}

// IASetVertexBuffers implements d3d12.GraphicsCommandList.
func (l *CommandList) IASetVertexBuffers(startSlot uint32, views ...d3d12.VertexBufferView) {
	if !l.open("IASetVertexBuffers") {
		return
	}
	for i, v := range views {
		buf, ok := d3d12.Native(v.Buffer).(*Buffer)
		if !ok || buf.device != l.device {
			l.fail(fmt.Errorf("%w: vertex buffer %T", d3d12.ErrWrongObject, v.Buffer))
			return
		}
		l.vertex = append(l.vertex, vertexBinding{slot: startSlot + uint32(i), buf: buf})
	}
}

// SetGraphicsRootConstantBufferView implements d3d12.GraphicsCommandList.
func (l *CommandList) SetGraphicsRootConstantBufferView(rootIndex uint32, b d3d12.Buffer) {
	if !l.open("SetGraphicsRootConstantBufferView") {
		return
	}
	buf, ok := d3d12.Native(b).(*Buffer)
	if !ok || buf.device != l.device {
		l.fail(fmt.Errorf("%w: constant buffer %T", d3d12.ErrWrongObject, b))
		return
	}
	if l.pso == nil || rootIndex >= l.pso.desc.RootConstantBuffers {
		l.fail(fmt.Errorf("%w: root index %d not in the pipeline's root signature", d3d12.ErrInvalidArg, rootIndex))
		return
	}
	l.roots[rootIndex] = buf
}

// DrawInstanced implements d3d12.GraphicsCommandList. Without a pipeline
// there is nothing to rasterize and the draw is dropped.
func (l *CommandList) DrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance uint32) {
	if !l.open("DrawInstanced") {
		return
	}
	if l.pso == nil {
		slogger().Debug("halnative: draw without pipeline state dropped", "vertices", vertexCountPerInstance)
		return
	}
	if l.target == nil {
		l.fail(fmt.Errorf("%w: draw without a render target", d3d12.ErrInvalidArg))
		return
	}
	if l.pass == nil || l.passView != l.target {
		l.beginPass(l.target, gputypes.LoadOpLoad, hello.Color{})
	}

	rp := l.pass
	rp.SetPipeline(l.pso.pipeline)
	if vp := l.viewport; vp != nil {
		rp.SetViewport(vp.TopLeftX, vp.TopLeftY, vp.Width, vp.Height, vp.MinDepth, vp.MaxDepth)
	}
	if r := l.scissor; r != nil {
		rp.SetScissorRect(uint32(r.Left), uint32(r.Top), uint32(r.Right-r.Left), uint32(r.Bottom-r.Top))
	}
	if l.pso.desc.RootConstantBuffers > 0 {
		bg, err := l.pso.bindGroup(l.roots)
		if err != nil {
			l.fail(err)
			return
		}
		rp.SetBindGroup(0, bg, nil)
	}
	for _, v := range l.vertex {
		rp.SetVertexBuffer(v.slot, v.buf.hal, 0)
	}
	rp.Draw(vertexCountPerInstance, instanceCount, startVertex, startInstance)
}

// textureUsage maps a resource state to the hal usage it stands for.
func textureUsage(s d3d12.ResourceState) (gputypes.TextureUsage, error) {
	switch s {
	case d3d12.ResourceStatePresent, d3d12.ResourceStateCopySource:
		return gputypes.TextureUsageCopySrc, nil
	case d3d12.ResourceStateRenderTarget:
		return gputypes.TextureUsageRenderAttachment, nil
	default:
		return 0, fmt.Errorf("%w: no texture usage for state %s", d3d12.ErrInvalidArg, s)
	}
}
