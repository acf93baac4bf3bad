package d3d12_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/hello"
	"github.com/gogpu/hello/d3d12"
	"github.com/gogpu/hello/d3d12/sim"
)

func TestBind(t *testing.T) {
	api := sim.New()
	factory, device := createDevice(t, api, false)
	win := &testWindow{w: 800, h: 600}

	res, err := d3d12.Bind(factory, device, win, d3d12.BindOptions{})
	if err != nil {
		t.Fatalf("Bind() = %v", err)
	}
	defer res.Release()

	if got := res.BufferCount(); got != 2 {
		t.Errorf("BufferCount() = %d, want 2", got)
	}
	if vp := res.Viewport(); vp.Width != 800 || vp.Height != 600 || vp.MinDepth != 0 || vp.MaxDepth != 1 {
		t.Errorf("Viewport() = %+v", vp)
	}
	if sc := res.Scissor(); sc != (d3d12.Rect{Right: 800, Bottom: 600}) {
		t.Errorf("Scissor() = %+v", sc)
	}
	if res.FrameIndex() != 0 {
		t.Errorf("FrameIndex() = %d, want 0", res.FrameIndex())
	}
	if nativeList(t, res).Recording() {
		t.Error("command list is still recording after Bind")
	}
	if res.Fence().Completed() != 0 || res.Fence().NextValue() != 1 {
		t.Errorf("fence completed=%d next=%d, want 0 and 1", res.Fence().Completed(), res.Fence().NextValue())
	}
	if !win.altEnterSet || win.altEnter {
		t.Error("Alt+Enter fullscreen was not disabled for the window")
	}
	if f := factory.(*sim.Factory); f.Association(win)&d3d12.WindowAssociationNoAltEnter == 0 {
		t.Error("window association lacks NoAltEnter")
	}
	if n := len(api.Calls("CreateRenderTargetView")); n != 2 {
		t.Errorf("CreateRenderTargetView called %d times, want 2", n)
	}
	rtv0, err := res.RTV(0)
	if err != nil {
		t.Fatalf("RTV(0) = %v", err)
	}
	rtv1, err := res.RTV(1)
	if err != nil {
		t.Fatalf("RTV(1) = %v", err)
	}
	if rtv0 == rtv1 {
		t.Error("both back buffers share one render target view")
	}
	if _, err := res.RTV(2); !errors.Is(err, d3d12.ErrInvalidArg) {
		t.Errorf("RTV(2) = %v, want ErrInvalidArg", err)
	}
}

func TestBindBufferCount(t *testing.T) {
	api := sim.New()
	factory, device := createDevice(t, api, false)

	res, err := d3d12.Bind(factory, device, &testWindow{w: 64, h: 64}, d3d12.BindOptions{BufferCount: 3})
	if err != nil {
		t.Fatalf("Bind() = %v", err)
	}
	defer res.Release()
	if res.BufferCount() != 3 {
		t.Errorf("BufferCount() = %d, want 3", res.BufferCount())
	}

	_, err = d3d12.Bind(factory, device, &testWindow{w: 64, h: 64}, d3d12.BindOptions{BufferCount: 1})
	if !errors.Is(err, d3d12.ErrInvalidArg) {
		t.Errorf("Bind() with one buffer = %v, want ErrInvalidArg", err)
	}
}

func TestBindAllOrNothing(t *testing.T) {
	steps := []string{
		"CreateCommandQueue",
		"CreateSwapChain",
		"MakeWindowAssociation",
		"CreateDescriptorHeap",
		"CreateRenderTargetView",
		"CreateCommandAllocator",
		"CreateCommandList",
		"CommandList.Close",
		"CreateFence",
	}
	for _, debug := range []bool{false, true} {
		for _, step := range steps {
			name := step
			if debug {
				name += "/debug"
			}
			t.Run(name, func(t *testing.T) {
				api := sim.New(sim.WithFailure(step, 0))
				factory, device := createDevice(t, api, debug)
				before := api.Live()

				res, err := d3d12.Bind(factory, device, &testWindow{w: 64, h: 64}, d3d12.BindOptions{})
				if !errors.Is(err, sim.ErrInjected) {
					t.Fatalf("Bind() error = %v, want ErrInjected", err)
				}
				if !hello.IsSetup(err) {
					t.Errorf("error %v does not carry the setup phase", err)
				}
				if res != nil {
					t.Error("Bind() returned resources alongside an error")
				}
				if after := api.Live(); !slices.Equal(after, before) {
					t.Errorf("live objects after failed Bind = %v, want %v", after, before)
				}
				if n := api.DoubleReleases(); n != 0 {
					t.Errorf("%d objects released twice", n)
				}
			})
		}
	}
}

func TestResourcesReleaseOnce(t *testing.T) {
	api := sim.New()
	factory, device := createDevice(t, api, false)
	res, err := d3d12.Bind(factory, device, &testWindow{w: 64, h: 64}, d3d12.BindOptions{})
	if err != nil {
		t.Fatal(err)
	}

	res.Release()
	res.Release()

	if !res.Released() {
		t.Error("Released() = false after Release")
	}
	if live := api.Live(); !slices.Equal(live, []string{"Device", "Factory"}) {
		t.Errorf("live objects = %v, want [Device Factory]", live)
	}
	if n := api.DoubleReleases(); n != 0 {
		t.Errorf("%d objects released twice", n)
	}
	if _, err := d3d12.NewRenderer(res); !errors.Is(err, d3d12.ErrReleased) {
		t.Errorf("NewRenderer(released) = %v, want ErrReleased", err)
	}
}

func TestBindRejectsBackBufferIndex(t *testing.T) {
	api := sim.New(sim.WithInitialBackBufferIndex(2))
	factory, device := createDevice(t, api, false)
	before := api.Live()

	res, err := d3d12.Bind(factory, device, &testWindow{w: 64, h: 64}, d3d12.BindOptions{BufferCount: 2})
	if !errors.Is(err, d3d12.ErrInvalidArg) || !hello.IsSetup(err) {
		t.Fatalf("Bind() = %v, want a setup ErrInvalidArg", err)
	}
	if res != nil {
		t.Error("Bind() returned resources alongside an error")
	}
	if after := api.Live(); !slices.Equal(after, before) {
		t.Errorf("live objects after failed Bind = %v, want %v", after, before)
	}
}

func TestReleasedResourcesAccessors(t *testing.T) {
	api := sim.New()
	factory, device := createDevice(t, api, false)
	res, err := d3d12.Bind(factory, device, &testWindow{w: 64, h: 64}, d3d12.BindOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := res.RenderTarget(5); !errors.Is(err, d3d12.ErrInvalidArg) {
		t.Errorf("RenderTarget(5) = %v, want ErrInvalidArg", err)
	}

	res.Release()
	if _, err := res.RTV(0); !errors.Is(err, d3d12.ErrReleased) {
		t.Errorf("RTV(0) after Release = %v, want ErrReleased", err)
	}
	if _, err := res.RenderTarget(0); !errors.Is(err, d3d12.ErrReleased) {
		t.Errorf("RenderTarget(0) after Release = %v, want ErrReleased", err)
	}
}
