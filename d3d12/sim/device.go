package sim

import (
	"fmt"

	"github.com/gogpu/hello/d3d12"
)

// rtvIncrement is the descriptor stride the simulated device reports.
const rtvIncrement = 32

// Device implements d3d12.Device.
type Device struct {
	*object
	api     *API
	adapter d3d12.AdapterDesc

	heaps []*DescriptorHeap
}

var _ d3d12.Device = (*Device)(nil)

// Adapter returns the description of the adapter the device runs on.
func (d *Device) Adapter() d3d12.AdapterDesc { return d.adapter }

// CreateCommandQueue implements d3d12.Device.
func (d *Device) CreateCommandQueue(typ d3d12.CommandListType) (d3d12.CommandQueue, error) {
	if err := d.api.check("CreateCommandQueue"); err != nil {
		return nil, err
	}
	d.api.record("CreateCommandQueue", 0, typ.String())
	return &Queue{object: d.api.newObject("CommandQueue", nil), api: d.api}, nil
}

// CreateCommandAllocator implements d3d12.Device.
func (d *Device) CreateCommandAllocator(typ d3d12.CommandListType) (d3d12.CommandAllocator, error) {
	if err := d.api.check("CreateCommandAllocator"); err != nil {
		return nil, err
	}
	d.api.record("CreateCommandAllocator", 0, typ.String())
	return &Allocator{object: d.api.newObject("CommandAllocator", nil), api: d.api}, nil
}

// CreateCommandList implements d3d12.Device.
func (d *Device) CreateCommandList(typ d3d12.CommandListType, alloc d3d12.CommandAllocator, pso d3d12.PipelineState) (d3d12.GraphicsCommandList, error) {
	a, ok := d3d12.Native(alloc).(*Allocator)
	if !ok {
		return nil, fmt.Errorf("%w: allocator %T", d3d12.ErrWrongObject, alloc)
	}
	if err := d.api.check("CreateCommandList"); err != nil {
		return nil, err
	}
	d.api.record("CreateCommandList", 0, typ.String())
	l := &CommandList{object: d.api.newObject("CommandList", nil), api: d.api, device: d}
	l.begin(a, pso)
	return l, nil
}

// CreateDescriptorHeap implements d3d12.Device.
func (d *Device) CreateDescriptorHeap(desc d3d12.DescriptorHeapDesc) (d3d12.DescriptorHeap, error) {
	if err := d.api.check("CreateDescriptorHeap"); err != nil {
		return nil, err
	}
	d.api.record("CreateDescriptorHeap", uint64(desc.NumDescriptors), "")
	d.api.mu.Lock()
	start := d.api.nextHeap
	d.api.nextHeap += 1 << 16
	d.api.mu.Unlock()

	h := &DescriptorHeap{
		desc:  desc,
		start: start,
		views: make([]*Texture, desc.NumDescriptors),
	}
	h.object = d.api.newObject("DescriptorHeap", func() {
		for i, x := range d.heaps {
			if x == h {
				d.heaps = append(d.heaps[:i], d.heaps[i+1:]...)
				break
			}
		}
	})
	d.heaps = append(d.heaps, h)
	return h, nil
}

// DescriptorHandleIncrementSize implements d3d12.Device.
func (d *Device) DescriptorHandleIncrementSize(d3d12.DescriptorHeapType) uint32 {
	return rtvIncrement
}

// CreateRenderTargetView implements d3d12.Device.
func (d *Device) CreateRenderTargetView(res d3d12.Resource, dest d3d12.CPUDescriptorHandle) error {
	tex, ok := d3d12.Native(res).(*Texture)
	if !ok {
		return fmt.Errorf("%w: resource %T is not a texture", d3d12.ErrWrongObject, res)
	}
	if err := d.api.check("CreateRenderTargetView"); err != nil {
		return err
	}
	h, slot, err := d.lookup(dest)
	if err != nil {
		return err
	}
	d.api.record("CreateRenderTargetView", uint64(slot), fmt.Sprintf("buffer%d", tex.index))
	h.views[slot] = tex
	return nil
}

// lookup resolves a descriptor handle to its heap and slot.
func (d *Device) lookup(handle d3d12.CPUDescriptorHandle) (*DescriptorHeap, int, error) {
	for _, h := range d.heaps {
		if handle.Ptr < h.start {
			continue
		}
		off := handle.Ptr - h.start
		if off%rtvIncrement != 0 {
			continue
		}
		slot := int(off / rtvIncrement)
		if slot < len(h.views) {
			return h, slot, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: descriptor handle %#x", d3d12.ErrInvalidArg, handle.Ptr)
}

// CreateFence implements d3d12.Device.
func (d *Device) CreateFence(initial uint64) (d3d12.Fence, error) {
	if err := d.api.check("CreateFence"); err != nil {
		return nil, err
	}
	d.api.record("CreateFence", initial, "")
	return &Fence{object: d.api.newObject("Fence", nil), api: d.api, completed: initial}, nil
}

// CreateGraphicsPipelineState implements d3d12.Device.
func (d *Device) CreateGraphicsPipelineState(desc d3d12.GraphicsPipelineStateDesc) (d3d12.PipelineState, error) {
	if err := d.api.check("CreateGraphicsPipelineState"); err != nil {
		return nil, err
	}
	if desc.VS.Source == "" || desc.PS.Source == "" {
		return nil, fmt.Errorf("%w: pipeline %q has no shader source", d3d12.ErrInvalidArg, desc.Label)
	}
	d.api.record("CreateGraphicsPipelineState", uint64(desc.RootConstantBuffers), desc.Label)
	return &PipelineState{object: d.api.newObject("PipelineState", nil), Desc: desc}, nil
}

// CreateUploadBuffer implements d3d12.Device.
func (d *Device) CreateUploadBuffer(size uint64) (d3d12.Buffer, error) {
	if err := d.api.check("CreateUploadBuffer"); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, fmt.Errorf("%w: zero-sized buffer", d3d12.ErrInvalidArg)
	}
	d.api.record("CreateUploadBuffer", size, "")
	return &Buffer{object: d.api.newObject("Buffer", nil), data: make([]byte, size)}, nil
}

// DescriptorHeap implements d3d12.DescriptorHeap.
type DescriptorHeap struct {
	*object
	desc  d3d12.DescriptorHeapDesc
	start uintptr
	views []*Texture
}

// Desc implements d3d12.DescriptorHeap.
func (h *DescriptorHeap) Desc() d3d12.DescriptorHeapDesc { return h.desc }

// CPUDescriptorHandleForHeapStart implements d3d12.DescriptorHeap.
func (h *DescriptorHeap) CPUDescriptorHandleForHeapStart() d3d12.CPUDescriptorHandle {
	return d3d12.CPUDescriptorHandle{Ptr: h.start}
}

// PipelineState implements d3d12.PipelineState.
type PipelineState struct {
	*object
	Desc d3d12.GraphicsPipelineStateDesc
}

// Buffer implements d3d12.Buffer.
type Buffer struct {
	*object
	data []byte
}

// Size implements d3d12.Buffer.
func (b *Buffer) Size() uint64 { return uint64(len(b.data)) }

// Write implements d3d12.Buffer.
func (b *Buffer) Write(offset uint64, data []byte) error {
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return fmt.Errorf("%w: write of %d bytes at %d into %d-byte buffer",
			d3d12.ErrInvalidArg, len(data), offset, len(b.data))
	}
	copy(b.data[offset:], data)
	return nil
}

// Bytes returns the buffer contents.
func (b *Buffer) Bytes() []byte { return b.data }

// Texture is a simulated back buffer.
type Texture struct {
	*object
	index         int
	width, height int
	state         d3d12.ResourceState
	clear         [4]float32
	draws         int
}

// Index returns the back buffer index.
func (t *Texture) Index() int { return t.index }

// State returns the state the texture is in after all executed work.
func (t *Texture) State() d3d12.ResourceState { return t.state }

// Draws returns the number of executed draws into the texture.
func (t *Texture) Draws() int { return t.draws }

// bufferRef is the reference SwapChain.Buffer hands out; releasing it
// does not free the back buffer.
type bufferRef struct {
	*object
	tex *Texture
}

func (r *bufferRef) Unwrap() any { return r.tex }
