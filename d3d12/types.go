package d3d12

import "fmt"

// FeatureLevel is a Direct3D feature level.
type FeatureLevel uint32

// Feature levels, with the D3D_FEATURE_LEVEL encodings.
const (
	FeatureLevel11_0 FeatureLevel = 0xb000
	FeatureLevel11_1 FeatureLevel = 0xb100
	FeatureLevel12_0 FeatureLevel = 0xc000
	FeatureLevel12_1 FeatureLevel = 0xc100
)

func (l FeatureLevel) String() string {
	switch l {
	case FeatureLevel11_0:
		return "11_0"
	case FeatureLevel11_1:
		return "11_1"
	case FeatureLevel12_0:
		return "12_0"
	case FeatureLevel12_1:
		return "12_1"
	default:
		return fmt.Sprintf("Unknown(%#x)", uint32(l))
	}
}

// AdapterFlag describes an adapter.
type AdapterFlag uint32

const (
	AdapterFlagNone AdapterFlag = 0
	// AdapterFlagSoftware marks the WARP rasterizer and other CPU adapters.
	AdapterFlagSoftware AdapterFlag = 2
)

// AdapterDesc is what enumeration reports about an adapter.
type AdapterDesc struct {
	Index       int
	Description string
	VendorID    uint32
	DeviceID    uint32
	Flags       AdapterFlag
	// MaxFeatureLevel is the highest level a device on this adapter supports.
	MaxFeatureLevel FeatureLevel
}

// Software reports whether the adapter is a software rasterizer.
func (d AdapterDesc) Software() bool { return d.Flags&AdapterFlagSoftware != 0 }

// CommandListType selects the queue and list kind.
type CommandListType int

const (
	CommandListTypeDirect CommandListType = iota
	CommandListTypeCopy
)

func (t CommandListType) String() string {
	switch t {
	case CommandListTypeDirect:
		return "Direct"
	case CommandListTypeCopy:
		return "Copy"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// Format is a DXGI pixel or vertex attribute format.
type Format int

const (
	FormatUnknown Format = iota
	FormatR8G8B8A8Unorm
	FormatB8G8R8A8Unorm
	FormatR32G32Float
	FormatR32G32B32Float
	FormatR32G32B32A32Float
)

// Size returns the size in bytes of one element of the format.
func (f Format) Size() uint32 {
	switch f {
	case FormatR8G8B8A8Unorm, FormatB8G8R8A8Unorm:
		return 4
	case FormatR32G32Float:
		return 8
	case FormatR32G32B32Float:
		return 12
	case FormatR32G32B32A32Float:
		return 16
	default:
		return 0
	}
}

func (f Format) String() string {
	switch f {
	case FormatUnknown:
		return "Unknown"
	case FormatR8G8B8A8Unorm:
		return "R8G8B8A8_UNORM"
	case FormatB8G8R8A8Unorm:
		return "B8G8R8A8_UNORM"
	case FormatR32G32Float:
		return "R32G32_FLOAT"
	case FormatR32G32B32Float:
		return "R32G32B32_FLOAT"
	case FormatR32G32B32A32Float:
		return "R32G32B32A32_FLOAT"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ResourceState is the usage a resource is transitioned into by a barrier.
type ResourceState uint32

// Resource states, with the D3D12_RESOURCE_STATES encodings.
const (
	ResourceStatePresent                 ResourceState = 0
	ResourceStateVertexAndConstantBuffer ResourceState = 0x1
	ResourceStateRenderTarget            ResourceState = 0x4
	ResourceStateCopySource              ResourceState = 0x800
	ResourceStateGenericRead             ResourceState = 0xac3
)

// ResourceStateCommon aliases Present, as in D3D12.
const ResourceStateCommon = ResourceStatePresent

func (s ResourceState) String() string {
	switch s {
	case ResourceStatePresent:
		return "Present"
	case ResourceStateVertexAndConstantBuffer:
		return "VertexAndConstantBuffer"
	case ResourceStateRenderTarget:
		return "RenderTarget"
	case ResourceStateCopySource:
		return "CopySource"
	case ResourceStateGenericRead:
		return "GenericRead"
	default:
		return fmt.Sprintf("Unknown(%#x)", uint32(s))
	}
}

// ResourceBarrier is a transition barrier.
type ResourceBarrier struct {
	Resource    Resource
	StateBefore ResourceState
	StateAfter  ResourceState
}

// Transition returns a transition barrier for res.
func Transition(res Resource, before, after ResourceState) ResourceBarrier {
	return ResourceBarrier{Resource: res, StateBefore: before, StateAfter: after}
}

// PrimitiveTopology is the input assembler topology.
type PrimitiveTopology int

const (
	PrimitiveTopologyUndefined PrimitiveTopology = iota
	PrimitiveTopologyTriangleList
	PrimitiveTopologyTriangleStrip
)

func (t PrimitiveTopology) String() string {
	switch t {
	case PrimitiveTopologyUndefined:
		return "Undefined"
	case PrimitiveTopologyTriangleList:
		return "TriangleList"
	case PrimitiveTopologyTriangleStrip:
		return "TriangleStrip"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// Viewport is a rasterizer viewport.
type Viewport struct {
	TopLeftX, TopLeftY float32
	Width, Height      float32
	MinDepth, MaxDepth float32
}

// Rect is a scissor rectangle.
type Rect struct {
	Left, Top, Right, Bottom int32
}

// DescriptorHeapType selects what a descriptor heap holds.
type DescriptorHeapType int

const (
	DescriptorHeapTypeRTV DescriptorHeapType = iota
	DescriptorHeapTypeCBVSRVUAV
)

// DescriptorHeapDesc describes a descriptor heap.
type DescriptorHeapDesc struct {
	Type           DescriptorHeapType
	NumDescriptors uint32
}

// CPUDescriptorHandle addresses one descriptor in a heap.
type CPUDescriptorHandle struct {
	Ptr uintptr
}

// Offset returns the handle index descriptors further on, for a heap whose
// descriptors are increment bytes apart.
func (h CPUDescriptorHandle) Offset(index int, increment uint32) CPUDescriptorHandle {
	return CPUDescriptorHandle{Ptr: h.Ptr + uintptr(index)*uintptr(increment)}
}

// SwapEffect is the presentation model of a swap chain.
type SwapEffect int

const (
	SwapEffectFlipDiscard SwapEffect = iota
	SwapEffectFlipSequential
)

// SwapChainDesc describes a swap chain.
type SwapChainDesc struct {
	BufferCount int
	Width       int
	Height      int
	Format      Format
	SwapEffect  SwapEffect
}

// PresentFlags modify Present.
type PresentFlags uint32

// WindowAssociation flags for Factory.MakeWindowAssociation.
type WindowAssociation uint32

const (
	// WindowAssociationNoAltEnter stops Alt+Enter from toggling fullscreen.
	WindowAssociationNoAltEnter WindowAssociation = 1 << 1
)

// ShaderBytecode names a shader entry point in a WGSL module.
type ShaderBytecode struct {
	Source     string
	EntryPoint string
}

// InputElementDesc describes one vertex attribute.
type InputElementDesc struct {
	SemanticName      string
	Format            Format
	InputSlot         uint32
	AlignedByteOffset uint32
}

// GraphicsPipelineStateDesc describes a graphics pipeline and its root
// signature. The root signature holds RootConstantBuffers constant-buffer
// views in slots 0..n-1, visible to every stage.
type GraphicsPipelineStateDesc struct {
	Label               string
	VS                  ShaderBytecode
	PS                  ShaderBytecode
	InputLayout         []InputElementDesc
	RootConstantBuffers uint32
	RTVFormat           Format
}

// Stride returns the vertex stride implied by the input layout.
func (d GraphicsPipelineStateDesc) Stride() uint32 {
	var stride uint32
	for _, e := range d.InputLayout {
		if end := e.AlignedByteOffset + e.Format.Size(); end > stride {
			stride = end
		}
	}
	return stride
}

// VertexBufferView binds part of a buffer as vertex input.
type VertexBufferView struct {
	Buffer        Buffer
	SizeInBytes   uint32
	StrideInBytes uint32
}
