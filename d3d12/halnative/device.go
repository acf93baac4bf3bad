// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halnative

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/hello/d3d12"
)

// descriptorSize is the distance between two descriptor handles. Handles
// are indices into Device-owned tables, not addresses.
const descriptorSize = 64

// heapStride separates the handle ranges of two heaps.
const heapStride = 1 << 20

// Device implements d3d12.Device over a hal device and queue.
type Device struct {
	api      *API
	hal      hal.Device
	queue    hal.Queue
	external bool

	mu         sync.Mutex
	nextHeap   uintptr
	heaps      map[uintptr]*DescriptorHeap
	submission uint64
	released   bool
}

var _ d3d12.Device = (*Device)(nil)

func newDevice(api *API, device hal.Device, queue hal.Queue, external bool) *Device {
	return &Device{
		api:      api,
		hal:      device,
		queue:    queue,
		external: external,
		nextHeap: heapStride,
		heaps:    make(map[uintptr]*DescriptorHeap),
	}
}

// Hal returns the underlying hal device and queue.
func (d *Device) Hal() (hal.Device, hal.Queue) { return d.hal, d.queue }

// submit hands bufs to the hal queue and records the submission index.
func (d *Device) submit(bufs []hal.CommandBuffer) (uint64, error) {
	idx, err := d.queue.Submit(bufs)
	if err != nil {
		return 0, fmt.Errorf("halnative: submit: %w", err)
	}
	d.mu.Lock()
	if idx > d.submission {
		d.submission = idx
	}
	d.mu.Unlock()
	return idx, nil
}

// lastSubmission returns the index of the latest submission, 0 before
// the first.
func (d *Device) lastSubmission() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submission
}

// waitSubmission blocks until submission idx has completed. hal has no
// per-submission wait, so an unfinished submission waits for the device
// to go idle.
func (d *Device) waitSubmission(idx uint64) error {
	if d.queue.PollCompleted() >= idx {
		return nil
	}
	if err := d.hal.WaitIdle(); err != nil {
		return fmt.Errorf("halnative: wait for submission %d: %w", idx, err)
	}
	return nil
}

// CreateCommandQueue implements d3d12.Device. Every queue shares the
// device's hal queue.
func (d *Device) CreateCommandQueue(typ d3d12.CommandListType) (d3d12.CommandQueue, error) {
	if typ != d3d12.CommandListTypeDirect {
		return nil, fmt.Errorf("%w: %s queues are not supported", d3d12.ErrInvalidArg, typ)
	}
	return &Queue{device: d}, nil
}

// CreateCommandAllocator implements d3d12.Device.
func (d *Device) CreateCommandAllocator(typ d3d12.CommandListType) (d3d12.CommandAllocator, error) {
	if typ != d3d12.CommandListTypeDirect {
		return nil, fmt.Errorf("%w: %s allocators are not supported", d3d12.ErrInvalidArg, typ)
	}
	return &Allocator{device: d}, nil
}

// CreateCommandList implements d3d12.Device.
func (d *Device) CreateCommandList(typ d3d12.CommandListType, alloc d3d12.CommandAllocator, pso d3d12.PipelineState) (d3d12.GraphicsCommandList, error) {
	if typ != d3d12.CommandListTypeDirect {
		return nil, fmt.Errorf("%w: %s lists are not supported", d3d12.ErrInvalidArg, typ)
	}
	l := &CommandList{device: d}
	if err := l.Reset(alloc, pso); err != nil {
		return nil, err
	}
	return l, nil
}

// CreateDescriptorHeap implements d3d12.Device.
func (d *Device) CreateDescriptorHeap(desc d3d12.DescriptorHeapDesc) (d3d12.DescriptorHeap, error) {
	if desc.NumDescriptors == 0 || desc.NumDescriptors > heapStride/descriptorSize {
		return nil, fmt.Errorf("%w: %d descriptors", d3d12.ErrInvalidArg, desc.NumDescriptors)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	h := &DescriptorHeap{
		device: d,
		desc:   desc,
		base:   d.nextHeap,
		views:  make([]*renderTargetView, desc.NumDescriptors),
	}
	d.nextHeap += heapStride
	d.heaps[h.base] = h
	return h, nil
}

// DescriptorHandleIncrementSize implements d3d12.Device.
func (d *Device) DescriptorHandleIncrementSize(d3d12.DescriptorHeapType) uint32 {
	return descriptorSize
}

// lookup resolves a descriptor handle to its heap and slot.
func (d *Device) lookup(h d3d12.CPUDescriptorHandle) (*DescriptorHeap, int, error) {
	base := h.Ptr - h.Ptr%heapStride
	d.mu.Lock()
	heap, ok := d.heaps[base]
	d.mu.Unlock()
	if !ok {
		return nil, 0, fmt.Errorf("%w: descriptor handle %#x", d3d12.ErrInvalidArg, h.Ptr)
	}
	off := h.Ptr - base
	slot := int(off / descriptorSize)
	if off%descriptorSize != 0 || slot >= len(heap.views) {
		return nil, 0, fmt.Errorf("%w: descriptor handle %#x", d3d12.ErrInvalidArg, h.Ptr)
	}
	return heap, slot, nil
}

// renderTarget returns the view stored at h.
func (d *Device) renderTarget(h d3d12.CPUDescriptorHandle) (*renderTargetView, error) {
	heap, slot, err := d.lookup(h)
	if err != nil {
		return nil, err
	}
	rtv := heap.views[slot]
	if rtv == nil {
		return nil, fmt.Errorf("%w: no view in descriptor slot %d", d3d12.ErrInvalidArg, slot)
	}
	return rtv, nil
}

// CreateRenderTargetView implements d3d12.Device.
func (d *Device) CreateRenderTargetView(res d3d12.Resource, dest d3d12.CPUDescriptorHandle) error {
	bb, ok := d3d12.Native(res).(*backBuffer)
	if !ok {
		return fmt.Errorf("%w: render target %T", d3d12.ErrWrongObject, res)
	}
	heap, slot, err := d.lookup(dest)
	if err != nil {
		return err
	}
	if heap.desc.Type != d3d12.DescriptorHeapTypeRTV {
		return fmt.Errorf("%w: render target view in a non-RTV heap", d3d12.ErrInvalidArg)
	}
	view, err := d.hal.CreateTextureView(bb.tex, &hal.TextureViewDescriptor{
		Label: fmt.Sprintf("back_buffer_%d_rtv", bb.index),
	})
	if err != nil {
		return fmt.Errorf("halnative: create render target view: %w", err)
	}
	if old := heap.views[slot]; old != nil {
		d.hal.DestroyTextureView(old.view)
	}
	heap.views[slot] = &renderTargetView{view: view, buffer: bb}
	return nil
}

// CreateFence implements d3d12.Device.
func (d *Device) CreateFence(initial uint64) (d3d12.Fence, error) {
	return &Fence{device: d, completed: initial}, nil
}

// CreateUploadBuffer implements d3d12.Device.
func (d *Device) CreateUploadBuffer(size uint64) (d3d12.Buffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("%w: empty buffer", d3d12.ErrInvalidArg)
	}
	buf, err := d.hal.CreateBuffer(&hal.BufferDescriptor{
		Label: "upload_buffer",
		Size:  size,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("halnative: create upload buffer: %w", err)
	}
	return &Buffer{device: d, hal: buf, size: size}, nil
}

// Release implements d3d12.Device. External devices are left alone.
func (d *Device) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return
	}
	d.released = true
	if !d.external {
		if err := d.hal.WaitIdle(); err != nil {
			slogger().Warn("halnative: device released while busy", "error", err)
		}
		d.hal.Destroy()
	}
}

// DescriptorHeap implements d3d12.DescriptorHeap. RTV heaps hold hal
// texture views.
type DescriptorHeap struct {
	device *Device
	desc   d3d12.DescriptorHeapDesc
	base   uintptr
	views  []*renderTargetView
}

type renderTargetView struct {
	view   hal.TextureView
	buffer *backBuffer
}

// Desc implements d3d12.DescriptorHeap.
func (h *DescriptorHeap) Desc() d3d12.DescriptorHeapDesc { return h.desc }

// CPUDescriptorHandleForHeapStart implements d3d12.DescriptorHeap.
func (h *DescriptorHeap) CPUDescriptorHandleForHeapStart() d3d12.CPUDescriptorHandle {
	return d3d12.CPUDescriptorHandle{Ptr: h.base}
}

// Release implements d3d12.DescriptorHeap.
func (h *DescriptorHeap) Release() {
	d := h.device
	d.mu.Lock()
	if _, ok := d.heaps[h.base]; !ok {
		d.mu.Unlock()
		return
	}
	delete(d.heaps, h.base)
	d.mu.Unlock()

	for i, v := range h.views {
		if v != nil {
			d.hal.DestroyTextureView(v.view)
			h.views[i] = nil
		}
	}
}

// Buffer implements d3d12.Buffer on a hal buffer written through the queue.
type Buffer struct {
	device   *Device
	hal      hal.Buffer
	size     uint64
	released bool
}

// Size implements d3d12.Buffer.
func (b *Buffer) Size() uint64 { return b.size }

// Write implements d3d12.Buffer.
func (b *Buffer) Write(offset uint64, data []byte) error {
	if b.released {
		return fmt.Errorf("%w: write to released buffer", d3d12.ErrInvalidArg)
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("%w: write of %d bytes at %d overflows %d-byte buffer",
			d3d12.ErrInvalidArg, len(data), offset, b.size)
	}
	if err := b.device.queue.WriteBuffer(b.hal, offset, data); err != nil {
		return fmt.Errorf("halnative: write buffer: %w", err)
	}
	return nil
}

// Release implements d3d12.Buffer.
func (b *Buffer) Release() {
	if b.released {
		return
	}
	b.released = true
	b.device.hal.DestroyBuffer(b.hal)
}
