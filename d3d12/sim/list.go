package sim

import (
	"fmt"

	"github.com/gogpu/hello"
	"github.com/gogpu/hello/d3d12"
)

// Command is one recorded command.
type Command struct {
	Op       string
	Target   *Texture // barrier resource or bound render target
	Before   d3d12.ResourceState
	After    d3d12.ResourceState
	Color    hello.Color
	Count    uint32 // vertex count for draws
	Topology d3d12.PrimitiveTopology
	Buffer   *Buffer
}

// CommandList implements d3d12.GraphicsCommandList.
type CommandList struct {
	*object
	api    *API
	device *Device

	alloc     *Allocator
	pso       d3d12.PipelineState
	recording bool
	target    *Texture
	commands  []Command
	err       error
}

var _ d3d12.GraphicsCommandList = (*CommandList)(nil)

func (l *CommandList) begin(alloc *Allocator, pso d3d12.PipelineState) {
	l.alloc = alloc
	l.pso = pso
	l.recording = true
	l.target = nil
	l.commands = l.commands[:0]
	l.err = nil
}

// Commands returns the commands recorded since the last Reset.
func (l *CommandList) Commands() []Command {
	return append([]Command(nil), l.commands...)
}

// Recording reports whether the list is open.
func (l *CommandList) Recording() bool { return l.recording }

// Reset implements d3d12.GraphicsCommandList.
func (l *CommandList) Reset(alloc d3d12.CommandAllocator, pso d3d12.PipelineState) error {
	a, ok := d3d12.Native(alloc).(*Allocator)
	if !ok {
		return fmt.Errorf("%w: allocator %T", d3d12.ErrWrongObject, alloc)
	}
	if l.recording {
		return d3d12.ErrListOpen
	}
	if err := l.api.check("CommandList.Reset"); err != nil {
		return err
	}
	l.api.record("CommandList.Reset", 0, "")
	l.begin(a, pso)
	return nil
}

// Close implements d3d12.GraphicsCommandList.
func (l *CommandList) Close() error {
	if !l.recording {
		return d3d12.ErrListClosed
	}
	l.recording = false
	if err := l.api.check("CommandList.Close"); err != nil {
		return err
	}
	l.api.record("CommandList.Close", uint64(len(l.commands)), "")
	return l.err
}

// add appends cmd, or notes the misuse when the list is closed.
func (l *CommandList) add(cmd Command) bool {
	if !l.recording {
		if l.err == nil {
			l.err = fmt.Errorf("%w: %s", d3d12.ErrListClosed, cmd.Op)
		}
		return false
	}
	l.commands = append(l.commands, cmd)
	return true
}

func (l *CommandList) fail(err error) {
	if l.err == nil {
		l.err = err
	}
}

// RSSetViewports implements d3d12.GraphicsCommandList.
func (l *CommandList) RSSetViewports(viewports ...d3d12.Viewport) {
	if l.add(Command{Op: "RSSetViewports", Count: uint32(len(viewports))}) {
		l.api.record("RSSetViewports", uint64(len(viewports)), "")
	}
}

// RSSetScissorRects implements d3d12.GraphicsCommandList.
func (l *CommandList) RSSetScissorRects(rects ...d3d12.Rect) {
	if l.add(Command{Op: "RSSetScissorRects", Count: uint32(len(rects))}) {
		l.api.record("RSSetScissorRects", uint64(len(rects)), "")
	}
}

// ResourceBarrier implements d3d12.GraphicsCommandList.
func (l *CommandList) ResourceBarrier(barriers ...d3d12.ResourceBarrier) {
	for _, b := range barriers {
		tex, ok := d3d12.Native(b.Resource).(*Texture)
		if !ok {
			l.fail(fmt.Errorf("%w: barrier on %T", d3d12.ErrWrongObject, b.Resource))
			continue
		}
		if l.add(Command{Op: "ResourceBarrier", Target: tex, Before: b.StateBefore, After: b.StateAfter}) {
			l.api.record("ResourceBarrier", uint64(tex.index),
				fmt.Sprintf("%s->%s", b.StateBefore, b.StateAfter))
		}
	}
}

// OMSetRenderTargets implements d3d12.GraphicsCommandList.
func (l *CommandList) OMSetRenderTargets(rtv d3d12.CPUDescriptorHandle) {
	h, slot, err := l.device.lookup(rtv)
	if err != nil {
		l.fail(err)
		return
	}
	tex := h.views[slot]
	if tex == nil {
		l.fail(fmt.Errorf("%w: no view in rtv slot %d", d3d12.ErrInvalidArg, slot))
		return
	}
	if l.add(Command{Op: "OMSetRenderTargets", Target: tex}) {
		l.target = tex
		l.api.record("OMSetRenderTargets", uint64(tex.index), "")
	}
}

// ClearRenderTargetView implements d3d12.GraphicsCommandList.
func (l *CommandList) ClearRenderTargetView(rtv d3d12.CPUDescriptorHandle, c hello.Color) {
	h, slot, err := l.device.lookup(rtv)
	if err != nil {
		l.fail(err)
		return
	}
	if l.add(Command{Op: "ClearRenderTargetView", Target: h.views[slot], Color: c}) {
		l.api.record("ClearRenderTargetView", uint64(slot), c.String())
	}
}

// IASetPrimitiveTopology implements d3d12.GraphicsCommandList.
func (l *CommandList) IASetPrimitiveTopology(topology d3d12.PrimitiveTopology) {
	if l.add(Command{Op: "IASetPrimitiveTopology", Topology: topology}) {
		l.api.record("IASetPrimitiveTopology", 0, topology.String())
	}
}

// IASetVertexBuffers implements d3d12.GraphicsCommandList.
func (l *CommandList) IASetVertexBuffers(startSlot uint32, views ...d3d12.VertexBufferView) {
	for _, v := range views {
		buf, ok := d3d12.Native(v.Buffer).(*Buffer)
		if !ok {
			l.fail(fmt.Errorf("%w: vertex buffer %T", d3d12.ErrWrongObject, v.Buffer))
			return
		}
		if l.add(Command{Op: "IASetVertexBuffers", Buffer: buf, Count: v.SizeInBytes / max(v.StrideInBytes, 1)}) {
			l.api.record("IASetVertexBuffers", uint64(startSlot), "")
		}
	}
}

// SetGraphicsRootConstantBufferView implements d3d12.GraphicsCommandList.
func (l *CommandList) SetGraphicsRootConstantBufferView(rootIndex uint32, b d3d12.Buffer) {
	buf, ok := d3d12.Native(b).(*Buffer)
	if !ok {
		l.fail(fmt.Errorf("%w: constant buffer %T", d3d12.ErrWrongObject, b))
		return
	}
	if pso, ok := d3d12.Native(l.pso).(*PipelineState); !ok || rootIndex >= pso.Desc.RootConstantBuffers {
		l.fail(fmt.Errorf("%w: root index %d not in the pipeline's root signature", d3d12.ErrInvalidArg, rootIndex))
		return
	}
	if l.add(Command{Op: "SetGraphicsRootConstantBufferView", Buffer: buf, Count: rootIndex}) {
		l.api.record("SetGraphicsRootConstantBufferView", uint64(rootIndex), "")
	}
}

// DrawInstanced implements d3d12.GraphicsCommandList.
func (l *CommandList) DrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance uint32) {
	if l.add(Command{Op: "DrawInstanced", Target: l.target, Count: vertexCountPerInstance * instanceCount}) {
		l.api.record("DrawInstanced", uint64(vertexCountPerInstance), fmt.Sprintf("instances=%d", instanceCount))
	}
}

// apply runs the list's effects on resources at execution: barrier state
// checks and transitions, clears and draw counts.
func (l *CommandList) apply() error {
	for _, c := range l.commands {
		switch c.Op {
		case "ResourceBarrier":
			if c.Target.state != c.Before {
				return fmt.Errorf("%w: buffer %d is in %s, barrier expects %s",
					d3d12.ErrInvalidBarrier, c.Target.index, c.Target.state, c.Before)
			}
			c.Target.state = c.After
		case "ClearRenderTargetView":
			if c.Target.state != d3d12.ResourceStateRenderTarget {
				return fmt.Errorf("%w: clear of buffer %d in state %s",
					d3d12.ErrInvalidBarrier, c.Target.index, c.Target.state)
			}
			c.Target.clear = c.Color.Array()
		case "DrawInstanced":
			if c.Target != nil {
				c.Target.draws++
			}
		}
	}
	return nil
}
