// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halnative

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/hello"
	"github.com/gogpu/hello/d3d12"
	"github.com/gogpu/hello/shader"
)

type testWindow struct {
	w, h     int
	altEnter *bool
}

func (w *testWindow) ClientSize() (int, int) { return w.w, w.h }

func (w *testWindow) SetAltEnterFullscreen(enabled bool) { w.altEnter = &enabled }

// createDevice runs DeviceFactory on the noop backend. The noop adapter may
// report itself as software, so the hardware path falls back to WARP.
func createDevice(t *testing.T, api *API, debug bool) (d3d12.Factory, d3d12.Device) {
	t.Helper()
	factory, device, err := d3d12.DeviceFactory{EnableDebugLayer: debug}.Create(api)
	if errors.Is(err, d3d12.ErrNoSuitableAdapter) {
		factory, device, err = d3d12.DeviceFactory{EnableDebugLayer: debug, UseWARP: true}.Create(api)
	}
	if err != nil {
		t.Fatalf("DeviceFactory.Create() = %v", err)
	}
	t.Cleanup(func() {
		device.Release()
		factory.Release()
	})
	return factory, device
}

func TestNoopFactoryAdapters(t *testing.T) {
	f, err := New(WithNoop()).CreateFactory(false)
	if err != nil {
		t.Fatalf("CreateFactory() = %v", err)
	}
	defer f.Release()

	a, err := f.EnumAdapters(0)
	if err != nil {
		t.Fatalf("EnumAdapters(0) = %v", err)
	}
	desc := a.Desc()
	if desc.Index != 0 {
		t.Errorf("Index = %d, want 0", desc.Index)
	}
	if desc.Software() && desc.MaxFeatureLevel != softwareFeatureLevel {
		t.Errorf("software adapter reports %s", desc.MaxFeatureLevel)
	}

	n := 1
	for ; ; n++ {
		if _, err := f.EnumAdapters(n); err != nil {
			if !errors.Is(err, d3d12.ErrNotFound) {
				t.Fatalf("EnumAdapters(%d) = %v, want ErrNotFound", n, err)
			}
			break
		}
	}
	if _, err := f.EnumAdapters(-1); !errors.Is(err, d3d12.ErrNotFound) {
		t.Errorf("EnumAdapters(-1) = %v, want ErrNotFound", err)
	}
}

func TestListAdapters(t *testing.T) {
	infos, err := New(WithNoop()).ListAdapters()
	if err != nil {
		t.Fatalf("ListAdapters() = %v", err)
	}
	if len(infos) == 0 {
		t.Fatal("ListAdapters() returned no adapters")
	}
	for _, info := range infos {
		if info.Software != isSoftware(info.DeviceType) {
			t.Errorf("%s: Software = %v for device type %v", info.Name, info.Software, info.DeviceType)
		}
	}
}

func TestDebugLayerAfterDevice(t *testing.T) {
	api := New(WithNoop())
	if err := api.EnableDebugLayer(); err != nil {
		t.Fatalf("EnableDebugLayer() before devices = %v", err)
	}
	createDevice(t, api, false)
	if err := api.EnableDebugLayer(); !errors.Is(err, d3d12.ErrDebugLayerAfterDevice) {
		t.Errorf("EnableDebugLayer() after device = %v, want ErrDebugLayerAfterDevice", err)
	}
}

func TestFeatureLevelRejected(t *testing.T) {
	f, err := New(WithNoop()).CreateFactory(false)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Release()
	a, err := f.EnumAdapters(0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.CreateDevice(a, d3d12.FeatureLevel12_1); !errors.Is(err, d3d12.ErrFeatureLevel) {
		t.Errorf("CreateDevice(12_1) = %v, want ErrFeatureLevel", err)
	}
}

func TestRendererOnNoop(t *testing.T) {
	for _, debug := range []bool{false, true} {
		name := "plain"
		if debug {
			name = "debug"
		}
		t.Run(name, func(t *testing.T) {
			factory, device := createDevice(t, New(WithNoop()), debug)
			win := &testWindow{w: 320, h: 240}
			res, err := d3d12.Bind(factory, device, win, d3d12.BindOptions{})
			if err != nil {
				t.Fatalf("Bind() = %v", err)
			}
			if win.altEnter == nil || *win.altEnter {
				t.Error("Bind did not disable Alt+Enter")
			}

			var stats []d3d12.FrameStats
			r, err := d3d12.NewRenderer(res, d3d12.WithFrameObserver(func(s d3d12.FrameStats) {
				stats = append(stats, s)
			}))
			if err != nil {
				t.Fatalf("NewRenderer() = %v", err)
			}
			for i := 0; i < 5; i++ {
				if err := r.Render(); err != nil {
					t.Fatalf("Render() frame %d = %v", i, err)
				}
			}
			if err := r.Close(); err != nil {
				t.Fatalf("Close() = %v", err)
			}

			wantIndex := []uint32{0, 1, 0, 1, 0}
			for i, s := range stats {
				if s.FenceValue != uint64(i+1) {
					t.Errorf("frame %d fence = %d, want %d", i, s.FenceValue, i+1)
				}
				if s.BackBufferIndex != wantIndex[i] {
					t.Errorf("frame %d back buffer = %d, want %d", i, s.BackBufferIndex, wantIndex[i])
				}
			}
			if len(stats) != 5 {
				t.Errorf("observed %d frames, want 5", len(stats))
			}
		})
	}
}

func triangleDesc() d3d12.GraphicsPipelineStateDesc {
	return d3d12.GraphicsPipelineStateDesc{
		Label: "triangle",
		VS:    d3d12.ShaderBytecode{Source: shader.ConstantBufferWGSL, EntryPoint: shader.VertexEntry},
		PS:    d3d12.ShaderBytecode{Source: shader.ConstantBufferWGSL, EntryPoint: shader.FragmentEntry},
		InputLayout: []d3d12.InputElementDesc{
			{SemanticName: "POSITION", Format: d3d12.FormatR32G32B32Float},
			{SemanticName: "COLOR", Format: d3d12.FormatR32G32B32A32Float, AlignedByteOffset: 12},
		},
		RootConstantBuffers: 1,
		RTVFormat:           d3d12.FormatR8G8B8A8Unorm,
	}
}

func TestPipelineState(t *testing.T) {
	_, device := createDevice(t, New(WithNoop()), false)

	pso, err := device.CreateGraphicsPipelineState(triangleDesc())
	if err != nil {
		t.Fatalf("CreateGraphicsPipelineState() = %v", err)
	}
	pso.Release()
	pso.Release()

	bad := triangleDesc()
	bad.RTVFormat = d3d12.FormatR32G32Float
	if _, err := device.CreateGraphicsPipelineState(bad); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("bad RTV format = %v, want ErrUnsupportedFormat", err)
	}

	bad = triangleDesc()
	bad.VS.Source = "not wgsl"
	bad.PS.Source = "not wgsl"
	if _, err := device.CreateGraphicsPipelineState(bad); err == nil {
		t.Error("invalid WGSL accepted")
	}

	bad = triangleDesc()
	bad.RootConstantBuffers = maxRootConstantBuffers + 1
	if _, err := device.CreateGraphicsPipelineState(bad); !errors.Is(err, d3d12.ErrInvalidArg) {
		t.Errorf("too many root buffers = %v, want ErrInvalidArg", err)
	}
}

func TestVertexLayout(t *testing.T) {
	layouts, err := vertexLayout(triangleDesc())
	if err != nil {
		t.Fatalf("vertexLayout() = %v", err)
	}
	if len(layouts) != 1 {
		t.Fatalf("got %d layouts, want 1", len(layouts))
	}
	l := layouts[0]
	if l.ArrayStride != 28 {
		t.Errorf("ArrayStride = %d, want 28", l.ArrayStride)
	}
	if len(l.Attributes) != 2 || l.Attributes[1].ShaderLocation != 1 || l.Attributes[1].Offset != 12 {
		t.Errorf("Attributes = %+v", l.Attributes)
	}

	sparse := triangleDesc()
	sparse.InputLayout[1].InputSlot = 2
	if _, err := vertexLayout(sparse); !errors.Is(err, d3d12.ErrInvalidArg) {
		t.Errorf("sparse slots = %v, want ErrInvalidArg", err)
	}
}

func TestUploadBufferBounds(t *testing.T) {
	_, device := createDevice(t, New(WithNoop()), false)
	buf, err := device.CreateUploadBuffer(256)
	if err != nil {
		t.Fatalf("CreateUploadBuffer() = %v", err)
	}
	defer buf.Release()

	if err := buf.Write(0, make([]byte, 256)); err != nil {
		t.Errorf("Write(full) = %v", err)
	}
	if err := buf.Write(200, make([]byte, 64)); !errors.Is(err, d3d12.ErrInvalidArg) {
		t.Errorf("Write(overflow) = %v, want ErrInvalidArg", err)
	}
	if _, err := device.CreateUploadBuffer(0); !errors.Is(err, d3d12.ErrInvalidArg) {
		t.Errorf("CreateUploadBuffer(0) = %v, want ErrInvalidArg", err)
	}
}

func TestCommandListMisuse(t *testing.T) {
	_, device := createDevice(t, New(WithNoop()), false)
	alloc, err := device.CreateCommandAllocator(d3d12.CommandListTypeDirect)
	if err != nil {
		t.Fatal(err)
	}
	defer alloc.Release()
	list, err := device.CreateCommandList(d3d12.CommandListTypeDirect, alloc, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer list.Release()

	if err := list.Reset(alloc, nil); !errors.Is(err, d3d12.ErrListOpen) {
		t.Errorf("Reset while recording = %v, want ErrListOpen", err)
	}
	list.OMSetRenderTargets(d3d12.CPUDescriptorHandle{Ptr: 12345})
	if err := list.Close(); !errors.Is(err, d3d12.ErrInvalidArg) {
		t.Errorf("Close after bad handle = %v, want ErrInvalidArg", err)
	}
	if err := list.Close(); !errors.Is(err, d3d12.ErrListClosed) {
		t.Errorf("second Close = %v, want ErrListClosed", err)
	}

	if _, err := device.CreateCommandQueue(d3d12.CommandListTypeCopy); !errors.Is(err, d3d12.ErrInvalidArg) {
		t.Errorf("copy queue = %v, want ErrInvalidArg", err)
	}
}

func TestTextureUsage(t *testing.T) {
	tests := []struct {
		state d3d12.ResourceState
		want  gputypes.TextureUsage
	}{
		{d3d12.ResourceStatePresent, gputypes.TextureUsageCopySrc},
		{d3d12.ResourceStateCopySource, gputypes.TextureUsageCopySrc},
		{d3d12.ResourceStateRenderTarget, gputypes.TextureUsageRenderAttachment},
	}
	for _, tt := range tests {
		got, err := textureUsage(tt.state)
		if err != nil || got != tt.want {
			t.Errorf("textureUsage(%s) = %v, %v; want %v", tt.state, got, err, tt.want)
		}
	}
	if _, err := textureUsage(d3d12.ResourceStateGenericRead); !errors.Is(err, d3d12.ErrInvalidArg) {
		t.Errorf("textureUsage(GenericRead) = %v, want ErrInvalidArg", err)
	}
}

func TestUnpadRows(t *testing.T) {
	src := []byte{
		1, 2, 3, 4, 9, 9,
		5, 6, 7, 8, 9, 9,
	}
	dst := make([]byte, 8)
	unpadRows(dst, src, 4, 6, 2)
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst = %v, want %v", dst, want)
		}
	}

	pix := []byte{10, 20, 30, 40}
	swapRB(pix)
	if pix[0] != 30 || pix[2] != 10 {
		t.Errorf("swapRB = %v", pix)
	}
}

func TestParseBackend(t *testing.T) {
	for _, name := range []string{"auto", "vulkan", "noop"} {
		if _, err := ParseBackend(name); err != nil {
			t.Errorf("ParseBackend(%q) = %v", name, err)
		}
	}
	if _, err := ParseBackend("glide"); !errors.Is(err, hello.ErrInvalidConfig) {
		t.Errorf("ParseBackend(glide) = %v, want ErrInvalidConfig", err)
	}
}

// halProvider is a gpucontext.DeviceProvider that also exposes hal objects.
type halProvider struct {
	device hal.Device
	queue  hal.Queue
}

type providerDevice struct{}

func (providerDevice) Poll(bool) {}
func (providerDevice) Destroy()  {}

type providerQueue struct{}

type providerAdapter struct{}

func (p *halProvider) Device() gpucontext.Device             { return providerDevice{} }
func (p *halProvider) Queue() gpucontext.Queue               { return providerQueue{} }
func (p *halProvider) Adapter() gpucontext.Adapter           { return providerAdapter{} }
func (p *halProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }
func (p *halProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "provider gpu", Type: gpucontext.AdapterTypeSoftware}
}
func (p *halProvider) HalDevice() any { return p.device }
func (p *halProvider) HalQueue() any                         { return p.queue }

// plainProvider exposes no hal objects.
type plainProvider struct{ halProvider }

func (p *plainProvider) HalDevice() {}

func TestDeviceProvider(t *testing.T) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	defer instance.Destroy()
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer openDev.Device.Destroy()

	api := New(WithDeviceProvider(&halProvider{device: openDev.Device, queue: openDev.Queue}))
	f, err := api.CreateFactory(false)
	if err != nil {
		t.Fatalf("CreateFactory() = %v", err)
	}
	defer f.Release()
	if _, err := f.EnumAdapters(1); !errors.Is(err, d3d12.ErrNotFound) {
		t.Errorf("EnumAdapters(1) = %v, want ErrNotFound", err)
	}
	a, err := f.EnumAdapters(0)
	if err != nil {
		t.Fatalf("EnumAdapters(0) = %v", err)
	}
	if desc := a.Desc(); desc.Description != "provider gpu" || !desc.Software() {
		t.Errorf("provider adapter = %+v, want the provider's software adapter", desc)
	}

	_, device, err := d3d12.DeviceFactory{Factory: f, UseWARP: true}.Create(api)
	if err != nil {
		t.Fatalf("DeviceFactory.Create() = %v", err)
	}
	dev := device.(*Device)
	if !dev.external {
		t.Error("provider device not marked external")
	}
	if d, q := dev.Hal(); d != openDev.Device || q != openDev.Queue {
		t.Error("provider device does not use the provider's hal objects")
	}
	device.Release()

	_, err = New(WithDeviceProvider(&plainProvider{})).CreateFactory(false)
	if !errors.Is(err, ErrNoHalProvider) {
		t.Errorf("CreateFactory(plain provider) = %v, want ErrNoHalProvider", err)
	}
}

func TestFenceTimeline(t *testing.T) {
	_, device := createDevice(t, New(WithNoop()), false)
	queue, err := device.CreateCommandQueue(d3d12.CommandListTypeDirect)
	if err != nil {
		t.Fatal(err)
	}
	defer queue.Release()
	fence, err := device.CreateFence(3)
	if err != nil {
		t.Fatal(err)
	}
	defer fence.Release()

	if got := fence.CompletedValue(); got != 3 {
		t.Errorf("initial CompletedValue() = %d, want 3", got)
	}
	ev := d3d12.NewEvent()
	if err := fence.SetEventOnCompletion(4, ev); !errors.Is(err, d3d12.ErrInvalidArg) {
		t.Errorf("SetEventOnCompletion(unsignaled) = %v, want ErrInvalidArg", err)
	}

	// The noop queue completes submissions as they are made.
	if err := queue.Signal(fence, 4); err != nil {
		t.Fatalf("Signal(4) = %v", err)
	}
	if got := fence.CompletedValue(); got != 4 {
		t.Errorf("CompletedValue() after Signal(4) = %d, want 4", got)
	}
	if err := fence.SetEventOnCompletion(4, ev); err != nil {
		t.Fatalf("SetEventOnCompletion(4) = %v", err)
	}
	if !ev.Signaled() {
		t.Error("event not signaled for a completed value")
	}
}

func TestFencePointsComplete(t *testing.T) {
	f := &Fence{}
	f.pending = []fencePoint{{value: 1, submission: 2}, {value: 2, submission: 5}}
	if got := f.advance(3); got != 1 {
		t.Errorf("advance(3) = %d, want 1", got)
	}
	if s, ok := f.submissionFor(2); !ok || s != 5 {
		t.Errorf("submissionFor(2) = %d, %v; want 5, true", s, ok)
	}
	if got := f.advance(5); got != 2 {
		t.Errorf("advance(5) = %d, want 2", got)
	}
	if _, ok := f.submissionFor(2); ok {
		t.Error("completed point still pending")
	}
}
