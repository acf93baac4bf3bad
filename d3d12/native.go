package d3d12

import (
	"image"

	"github.com/gogpu/hello"
)

// API is the entry point of a native implementation: the process-wide
// debug switch and factory creation.
type API interface {
	// EnableDebugLayer turns on validation for devices created afterwards.
	// It fails with ErrDebugLayerAfterDevice once any device exists.
	EnableDebugLayer() error

	// CreateFactory creates a factory, with debug instrumentation if asked.
	CreateFactory(debug bool) (Factory, error)
}

// Factory enumerates adapters and creates devices and swap chains.
type Factory interface {
	// EnumAdapters returns the adapter at index, or ErrNotFound past the end.
	EnumAdapters(index int) (Adapter, error)

	// EnumWarpAdapter returns the software rasterizer.
	EnumWarpAdapter() (Adapter, error)

	// CreateDevice creates a device on adapter supporting at least minLevel.
	CreateDevice(adapter Adapter, minLevel FeatureLevel) (Device, error)

	// CreateSwapChain creates a swap chain presenting queue's output to window.
	CreateSwapChain(queue CommandQueue, window Window, desc SwapChainDesc) (SwapChain, error)

	// MakeWindowAssociation restricts what the factory does with window.
	MakeWindowAssociation(window Window, flags WindowAssociation) error

	Release()
}

// Adapter is a physical or software device candidate.
type Adapter interface {
	Desc() AdapterDesc
	Release()
}

// Device creates every GPU object.
type Device interface {
	CreateCommandQueue(typ CommandListType) (CommandQueue, error)
	CreateCommandAllocator(typ CommandListType) (CommandAllocator, error)

	// CreateCommandList creates a list in the recording state.
	CreateCommandList(typ CommandListType, alloc CommandAllocator, pso PipelineState) (GraphicsCommandList, error)

	CreateDescriptorHeap(desc DescriptorHeapDesc) (DescriptorHeap, error)
	DescriptorHandleIncrementSize(typ DescriptorHeapType) uint32
	CreateRenderTargetView(res Resource, dest CPUDescriptorHandle) error

	CreateFence(initial uint64) (Fence, error)

	CreateGraphicsPipelineState(desc GraphicsPipelineStateDesc) (PipelineState, error)

	// CreateUploadBuffer creates a CPU-writable buffer usable as vertex or
	// constant buffer.
	CreateUploadBuffer(size uint64) (Buffer, error)

	Release()
}

// CommandQueue executes command lists and signals fences.
type CommandQueue interface {
	ExecuteCommandLists(lists ...GraphicsCommandList) error

	// Signal sets fence to value once all previously submitted work completes.
	Signal(fence Fence, value uint64) error

	Release()
}

// CommandAllocator backs the memory of recorded commands.
type CommandAllocator interface {
	// Reset reclaims the memory. The caller guarantees no list recorded from
	// the allocator is still executing.
	Reset() error
	Release()
}

// GraphicsCommandList records commands. Recording methods do not return
// errors; the first recording error is reported by Close.
type GraphicsCommandList interface {
	Reset(alloc CommandAllocator, pso PipelineState) error
	Close() error

	RSSetViewports(viewports ...Viewport)
	RSSetScissorRects(rects ...Rect)
	ResourceBarrier(barriers ...ResourceBarrier)
	OMSetRenderTargets(rtv CPUDescriptorHandle)
	ClearRenderTargetView(rtv CPUDescriptorHandle, color hello.Color)
	IASetPrimitiveTopology(topology PrimitiveTopology)
	IASetVertexBuffers(startSlot uint32, views ...VertexBufferView)
	SetGraphicsRootConstantBufferView(rootIndex uint32, buf Buffer)
	DrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance uint32)

	Release()
}

// DescriptorHeap is an array of descriptors.
type DescriptorHeap interface {
	Desc() DescriptorHeapDesc
	CPUDescriptorHandleForHeapStart() CPUDescriptorHandle
	Release()
}

// Fence is a monotonically increasing counter set by the GPU.
type Fence interface {
	// CompletedValue returns the last value the GPU reached.
	CompletedValue() uint64

	// SetEventOnCompletion signals ev once the fence reaches value.
	SetEventOnCompletion(value uint64, ev *Event) error

	Release()
}

// SwapChain owns a ring of back buffers presented to a window.
type SwapChain interface {
	Desc() SwapChainDesc

	// CurrentBackBufferIndex is in [0, BufferCount) and changes only in Present.
	CurrentBackBufferIndex() uint32

	Buffer(index uint32) (Resource, error)
	Present(syncInterval uint32, flags PresentFlags) error
	Release()
}

// Resource is a texture or buffer.
type Resource interface {
	Release()
}

// Buffer is an upload-heap buffer.
type Buffer interface {
	Resource
	Size() uint64
	// Write copies data into the buffer at offset.
	Write(offset uint64, data []byte) error
}

// PipelineState is a compiled graphics pipeline with its root signature.
type PipelineState interface {
	Release()
}

// Window is what a swap chain presents to.
type Window interface {
	ClientSize() (width, height int)
}

// Presenter is implemented by windows that display swap-chain images
// handed to them by an offscreen swap chain.
type Presenter interface {
	PresentImage(img *image.RGBA, syncInterval uint32) error
}

// AltEnterToggler is implemented by windows with an Alt+Enter fullscreen
// shortcut that a factory can switch off.
type AltEnterToggler interface {
	SetAltEnterFullscreen(enabled bool)
}

// Wrapper is implemented by objects that decorate a native object, such as
// the debug layer's.
type Wrapper interface {
	Unwrap() any
}

// Native strips every decorating layer from v. Implementations use it to
// get back their own objects from arguments.
func Native(v any) any {
	for {
		w, ok := v.(Wrapper)
		if !ok {
			return v
		}
		v = w.Unwrap()
	}
}
