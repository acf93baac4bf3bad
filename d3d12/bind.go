package d3d12

import (
	"fmt"

	"github.com/gogpu/hello"
)

// DefaultBufferCount is the number of back buffers Bind creates when
// BindOptions.BufferCount is zero.
const DefaultBufferCount = 2

// BindOptions configures Bind.
type BindOptions struct {
	BufferCount int
	Format      Format
}

// Resources is everything bound to one window. It exclusively owns each
// object and releases each exactly once.
type Resources struct {
	device    Device
	queue     CommandQueue
	swapChain SwapChain
	rtvHeap   DescriptorHeap
	rtvSize   uint32
	targets   []Resource
	allocator CommandAllocator
	list      GraphicsCommandList
	fence     *FenceSync

	viewport   Viewport
	scissor    Rect
	frameIndex uint32

	releasers []func() // in creation order
	released  bool
}

// Bind creates, for window, a direct queue, a swap chain with
// opts.BufferCount back buffers, one render target view per buffer, the
// viewport and scissor covering the client area, a command allocator, a
// closed command list and a fence at 0. Alt+Enter fullscreen is disabled
// for the window.
//
// Bind is all-or-nothing: on failure every object created so far is
// released and the error carries hello.PhaseSetup.
func Bind(factory Factory, device Device, window Window, opts BindOptions) (*Resources, error) {
	res, err := bind(factory, device, window, opts)
	if err != nil {
		return nil, hello.SetupError("bind window", err)
	}
	return res, nil
}

func bind(factory Factory, device Device, window Window, opts BindOptions) (_ *Resources, ferr error) {
	if opts.BufferCount == 0 {
		opts.BufferCount = DefaultBufferCount
	}
	if opts.Format == FormatUnknown {
		opts.Format = FormatR8G8B8A8Unorm
	}
	if opts.BufferCount < 2 {
		return nil, fmt.Errorf("%w: buffer count %d", ErrInvalidArg, opts.BufferCount)
	}
	width, height := window.ClientSize()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: window client size %dx%d", ErrInvalidArg, width, height)
	}

	r := &Resources{device: device}
	defer func() {
		if ferr != nil {
			r.Release()
		}
	}()

	queue, err := device.CreateCommandQueue(CommandListTypeDirect)
	if err != nil {
		return nil, fmt.Errorf("create command queue: %w", err)
	}
	r.queue = queue
	r.own(queue.Release)

	swapChain, err := factory.CreateSwapChain(queue, window, SwapChainDesc{
		BufferCount: opts.BufferCount,
		Width:       width,
		Height:      height,
		Format:      opts.Format,
		SwapEffect:  SwapEffectFlipDiscard,
	})
	if err != nil {
		return nil, fmt.Errorf("create swap chain: %w", err)
	}
	r.swapChain = swapChain
	r.own(swapChain.Release)

	if err := factory.MakeWindowAssociation(window, WindowAssociationNoAltEnter); err != nil {
		return nil, fmt.Errorf("make window association: %w", err)
	}

	heap, err := device.CreateDescriptorHeap(DescriptorHeapDesc{
		Type:           DescriptorHeapTypeRTV,
		NumDescriptors: uint32(opts.BufferCount),
	})
	if err != nil {
		return nil, fmt.Errorf("create rtv heap: %w", err)
	}
	r.rtvHeap = heap
	r.own(heap.Release)
	r.rtvSize = device.DescriptorHandleIncrementSize(DescriptorHeapTypeRTV)

	start := heap.CPUDescriptorHandleForHeapStart()
	for i := range opts.BufferCount {
		buf, err := swapChain.Buffer(uint32(i))
		if err != nil {
			return nil, fmt.Errorf("get back buffer %d: %w", i, err)
		}
		r.targets = append(r.targets, buf)
		r.own(buf.Release)
		if err := device.CreateRenderTargetView(buf, start.Offset(i, r.rtvSize)); err != nil {
			return nil, fmt.Errorf("create rtv %d: %w", i, err)
		}
	}

	r.viewport = Viewport{Width: float32(width), Height: float32(height), MaxDepth: 1}
	r.scissor = Rect{Right: int32(width), Bottom: int32(height)}

	alloc, err := device.CreateCommandAllocator(CommandListTypeDirect)
	if err != nil {
		return nil, fmt.Errorf("create command allocator: %w", err)
	}
	r.allocator = alloc
	r.own(alloc.Release)

	list, err := device.CreateCommandList(CommandListTypeDirect, alloc, nil)
	if err != nil {
		return nil, fmt.Errorf("create command list: %w", err)
	}
	r.list = list
	r.own(list.Release)
	// Lists are created recording; the frame loop expects a closed one.
	if err := list.Close(); err != nil {
		return nil, fmt.Errorf("close command list: %w", err)
	}

	fence, err := NewFenceSync(device, queue)
	if err != nil {
		return nil, err
	}
	r.fence = fence
	r.own(fence.Release)

	r.frameIndex = swapChain.CurrentBackBufferIndex()
	if err := r.checkBuffer(r.frameIndex); err != nil {
		return nil, fmt.Errorf("swap chain back buffer index: %w", err)
	}

	slogger().Info("d3d12: window bound",
		"width", width,
		"height", height,
		"buffers", opts.BufferCount,
		"format", opts.Format.String(),
		"frame_index", r.frameIndex,
	)
	return r, nil
}

func (r *Resources) own(release func()) {
	r.releasers = append(r.releasers, release)
}

// Release releases every object in reverse creation order. Later calls
// are no-ops.
func (r *Resources) Release() {
	if r == nil || r.released {
		return
	}
	r.released = true
	for i := len(r.releasers) - 1; i >= 0; i-- {
		r.releasers[i]()
	}
	r.releasers = nil
	r.queue, r.swapChain, r.rtvHeap, r.allocator, r.list, r.fence = nil, nil, nil, nil, nil, nil
	r.targets = nil
}

// Released reports whether Release was called.
func (r *Resources) Released() bool { return r.released }

// Device returns the device the resources were created on.
func (r *Resources) Device() Device { return r.device }

// Queue returns the direct command queue.
func (r *Resources) Queue() CommandQueue { return r.queue }

// SwapChain returns the swap chain.
func (r *Resources) SwapChain() SwapChain { return r.swapChain }

// BufferCount returns the number of back buffers.
func (r *Resources) BufferCount() int { return len(r.targets) }

// RenderTarget returns back buffer i.
func (r *Resources) RenderTarget(i uint32) (Resource, error) {
	if err := r.checkBuffer(i); err != nil {
		return nil, err
	}
	return r.targets[i], nil
}

// RTV returns the render target view handle of back buffer i.
func (r *Resources) RTV(i uint32) (CPUDescriptorHandle, error) {
	if err := r.checkBuffer(i); err != nil {
		return CPUDescriptorHandle{}, err
	}
	return r.rtvHeap.CPUDescriptorHandleForHeapStart().Offset(int(i), r.rtvSize), nil
}

func (r *Resources) checkBuffer(i uint32) error {
	if r.released {
		return ErrReleased
	}
	if int(i) >= len(r.targets) {
		return fmt.Errorf("%w: back buffer %d out of range [0, %d)", ErrInvalidArg, i, len(r.targets))
	}
	return nil
}

// Viewport returns the viewport covering the client area.
func (r *Resources) Viewport() Viewport { return r.viewport }

// Scissor returns the scissor rectangle covering the client area.
func (r *Resources) Scissor() Rect { return r.scissor }

// FrameIndex returns the current back buffer index.
func (r *Resources) FrameIndex() uint32 { return r.frameIndex }

// Fence returns the fence synchronizer.
func (r *Resources) Fence() *FenceSync { return r.fence }

// Allocator returns the command allocator.
func (r *Resources) Allocator() CommandAllocator { return r.allocator }

// CommandList returns the command list.
func (r *Resources) CommandList() GraphicsCommandList { return r.list }
