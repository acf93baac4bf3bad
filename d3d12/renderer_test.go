package d3d12_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/hello"
	"github.com/gogpu/hello/d3d12"
	"github.com/gogpu/hello/d3d12/sim"
)

func renderFrames(t *testing.T, r *d3d12.Renderer, n int) {
	t.Helper()
	for i := range n {
		if err := r.Render(); err != nil {
			t.Fatalf("Render() frame %d = %v", i+1, err)
		}
		if r.State() != d3d12.StateReady {
			t.Fatalf("state after frame %d = %s, want Ready", i+1, r.State())
		}
	}
}

func TestRendererFiveFrames(t *testing.T) {
	tests := []struct {
		name  string
		opts  []sim.Option
		debug bool
		want  []uint32
	}{
		{"eager", nil, false, []uint32{0, 1, 0, 1, 0}},
		{"lazy", []sim.Option{sim.WithLazyGPU()}, false, []uint32{0, 1, 0, 1, 0}},
		{"debug", []sim.Option{sim.WithLazyGPU()}, true, []uint32{0, 1, 0, 1, 0}},
		{"start at 1", []sim.Option{sim.WithInitialBackBufferIndex(1)}, false, []uint32{1, 0, 1, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, res := bindSim(t, tt.debug, tt.opts...)

			var stats []d3d12.FrameStats
			r, err := d3d12.NewRenderer(res, d3d12.WithFrameObserver(func(s d3d12.FrameStats) {
				stats = append(stats, s)
			}))
			if err != nil {
				t.Fatalf("NewRenderer() = %v", err)
			}
			defer r.Close()
			if r.State() != d3d12.StateReady {
				t.Fatalf("state after NewRenderer = %s, want Ready", r.State())
			}

			renderFrames(t, r, 5)

			var fences []uint64
			var indices []uint32
			for _, s := range stats {
				fences = append(fences, s.FenceValue)
				indices = append(indices, s.BackBufferIndex)
				if s.NextIndex >= uint32(res.BufferCount()) {
					t.Errorf("frame %d: next index %d out of range", s.Frame, s.NextIndex)
				}
			}
			if want := []uint64{1, 2, 3, 4, 5}; !slices.Equal(fences, want) {
				t.Errorf("fence values = %v, want %v", fences, want)
			}
			if !slices.Equal(indices, tt.want) {
				t.Errorf("back buffer indices = %v, want %v", indices, tt.want)
			}

			var signals []uint64
			for _, c := range api.Calls("Signal") {
				signals = append(signals, c.Value)
			}
			if want := []uint64{1, 2, 3, 4, 5}; !slices.Equal(signals, want) {
				t.Errorf("queue signals = %v, want %v", signals, want)
			}
			if r.Frames() != 5 {
				t.Errorf("Frames() = %d, want 5", r.Frames())
			}
		})
	}
}

func TestRendererFrameOrder(t *testing.T) {
	api, res := bindSim(t, false)
	r, err := d3d12.NewRenderer(res)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	api.ResetTrace()
	renderFrames(t, r, 1)

	want := []string{
		"Allocator.Reset",
		"CommandList.Reset",
		"RSSetViewports",
		"RSSetScissorRects",
		"ResourceBarrier",
		"OMSetRenderTargets",
		"ClearRenderTargetView",
		"IASetPrimitiveTopology",
		"DrawInstanced",
		"ResourceBarrier",
		"CommandList.Close",
		"ExecuteCommandLists",
		"Present",
		"Signal",
		"GPU.Complete",
	}
	if got := ops(api); !slices.Equal(got, want) {
		t.Errorf("frame trace =\n%v\nwant\n%v", got, want)
	}

	draw := api.Calls("DrawInstanced")[0]
	if draw.Value != 3 || draw.Detail != "instances=1" {
		t.Errorf("draw = %v, want 3 vertices, 1 instance", draw)
	}
	present := api.Calls("Present")[0]
	if present.Detail != "sync=1" {
		t.Errorf("present = %v, want sync interval 1", present)
	}
	clear := api.Calls("ClearRenderTargetView")[0]
	if clear.Detail != hello.CornflowerNavy.String() {
		t.Errorf("clear color = %s, want %s", clear.Detail, hello.CornflowerNavy)
	}
}

func TestRendererBarrierSymmetry(t *testing.T) {
	_, res := bindSim(t, false, sim.WithAdapters(sim.DefaultAdapters...))
	var lists [][]sim.Command
	r, err := d3d12.NewRenderer(res, d3d12.WithFrameObserver(func(d3d12.FrameStats) {
		lists = append(lists, nativeList(t, res).Commands())
	}))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	renderFrames(t, r, 4)

	for frame, cmds := range lists {
		toRT := map[*sim.Texture]int{}
		toPresent := map[*sim.Texture]int{}
		for _, c := range cmds {
			if c.Op != "ResourceBarrier" {
				continue
			}
			switch {
			case c.Before == d3d12.ResourceStatePresent && c.After == d3d12.ResourceStateRenderTarget:
				toRT[c.Target]++
			case c.Before == d3d12.ResourceStateRenderTarget && c.After == d3d12.ResourceStatePresent:
				toPresent[c.Target]++
			default:
				t.Errorf("frame %d: unexpected barrier %s -> %s", frame+1, c.Before, c.After)
			}
		}
		if len(toRT) != 1 || len(toPresent) != 1 {
			t.Fatalf("frame %d: barriers touch %d/%d resources, want exactly one", frame+1, len(toRT), len(toPresent))
		}
		for tex, n := range toRT {
			if n != 1 || toPresent[tex] != 1 {
				t.Errorf("frame %d: buffer %d has %d to-RT and %d to-Present barriers, want 1 each",
					frame+1, tex.Index(), n, toPresent[tex])
			}
			if tex.State() != d3d12.ResourceStatePresent {
				t.Errorf("frame %d: buffer %d left in %s", frame+1, tex.Index(), tex.State())
			}
		}
	}
}

func TestRendererNoPrematureReset(t *testing.T) {
	api, res := bindSim(t, false, sim.WithLazyGPU())
	r, err := d3d12.NewRenderer(res)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	renderFrames(t, r, 5)

	// Every allocator reset after the first frame must come after the GPU
	// completed the previous frame's fence value.
	var completed uint64
	var submitted uint64
	for _, c := range api.Trace() {
		switch c.Op {
		case "GPU.Complete":
			completed = c.Value
		case "Signal":
			submitted = c.Value
		case "Allocator.Reset":
			if completed < submitted {
				t.Fatalf("allocator reset with fence completed %d < signaled %d", completed, submitted)
			}
			if c.Detail != "" {
				t.Fatalf("allocator reset reported %q", c.Detail)
			}
		}
	}
}

func TestRendererBufferIndexValidity(t *testing.T) {
	api := sim.New()
	factory, device := createDevice(t, api, false)
	res, err := d3d12.Bind(factory, device, &testWindow{w: 32, h: 32}, d3d12.BindOptions{BufferCount: 3})
	if err != nil {
		t.Fatal(err)
	}
	var indices []uint32
	r, err := d3d12.NewRenderer(res, d3d12.WithFrameObserver(func(s d3d12.FrameStats) {
		indices = append(indices, s.NextIndex)
	}))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	renderFrames(t, r, 7)

	if want := []uint32{1, 2, 0, 1, 2, 0, 1}; !slices.Equal(indices, want) {
		t.Errorf("indices after present = %v, want %v", indices, want)
	}
}

func TestRendererStickyFailure(t *testing.T) {
	_, res := bindSim(t, false, sim.WithFailure("Present", 2))
	var handled []error
	r, err := d3d12.NewRenderer(res, d3d12.WithErrorHandler(func(err error) {
		handled = append(handled, err)
	}))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	renderFrames(t, r, 2)

	err = r.Render()
	if !errors.Is(err, sim.ErrInjected) {
		t.Fatalf("third Render() = %v, want ErrInjected", err)
	}
	if !hello.IsFrame(err) {
		t.Errorf("error %v does not carry the frame phase", err)
	}
	if r.State() != d3d12.StateFailed {
		t.Errorf("state = %s, want Failed", r.State())
	}

	err = r.Render()
	if !errors.Is(err, d3d12.ErrRendererFailed) || !errors.Is(err, sim.ErrInjected) {
		t.Errorf("Render() after failure = %v, want ErrRendererFailed wrapping the first error", err)
	}
	if len(handled) != 1 {
		t.Errorf("error handler called %d times, want 1", len(handled))
	}
	if r.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2", r.Frames())
	}
}

func TestRendererCloseFlushesAndReleases(t *testing.T) {
	api, res := bindSim(t, false, sim.WithLazyGPU())
	r, err := d3d12.NewRenderer(res)
	if err != nil {
		t.Fatal(err)
	}
	renderFrames(t, r, 2)

	if err := r.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if r.State() != d3d12.StateIdle {
		t.Errorf("state after Close = %s, want Idle", r.State())
	}
	if signals := api.Calls("Signal"); signals[len(signals)-1].Value != 3 {
		t.Errorf("last signal = %v, want the flush at 3", signals[len(signals)-1])
	}
	if !res.Released() {
		t.Error("Close did not release the resources")
	}
	if live := api.Live(); !slices.Equal(live, []string{"Device", "Factory"}) {
		t.Errorf("live objects after Close = %v", live)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if err := r.Render(); !errors.Is(err, d3d12.ErrReleased) {
		t.Errorf("Render() after Close = %v, want ErrReleased", err)
	}
}

func TestRendererPipelineHook(t *testing.T) {
	api, res := bindSim(t, false)
	var during d3d12.State
	var r *d3d12.Renderer
	r, err := d3d12.NewRenderer(res,
		d3d12.WithClearColor(hello.Slate),
		d3d12.WithSyncInterval(0),
		d3d12.WithPipeline(d3d12.Pipeline{
			Bind: func(list d3d12.GraphicsCommandList) {
				during = r.State()
			},
			VertexCount: 6,
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	renderFrames(t, r, 1)

	if during != d3d12.StateRecording {
		t.Errorf("state inside pipeline hook = %s, want Recording", during)
	}
	if draw := api.Calls("DrawInstanced")[0]; draw.Value != 6 {
		t.Errorf("draw vertex count = %d, want 6", draw.Value)
	}
	if p := api.Calls("Present")[0]; p.Detail != "sync=0" {
		t.Errorf("present = %v, want sync=0", p)
	}
	if c := api.Calls("ClearRenderTargetView")[0]; c.Detail != hello.Slate.String() {
		t.Errorf("clear = %s, want %s", c.Detail, hello.Slate)
	}
}

func TestNewRendererNotBound(t *testing.T) {
	if _, err := d3d12.NewRenderer(nil); !errors.Is(err, d3d12.ErrNotBound) {
		t.Errorf("NewRenderer(nil) = %v, want ErrNotBound", err)
	}
}

func TestStateString(t *testing.T) {
	tests := map[d3d12.State]string{
		d3d12.StateIdle:      "Idle",
		d3d12.StateReady:     "Ready",
		d3d12.StateRecording: "Recording",
		d3d12.StateSubmitted: "Submitted",
		d3d12.StateFailed:    "Failed",
		d3d12.State(42):      "Unknown(42)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

func TestRendererAfterResourcesRelease(t *testing.T) {
	api, res := bindSim(t, false)
	r, err := d3d12.NewRenderer(res)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Render(); err != nil {
		t.Fatalf("Render() = %v", err)
	}

	res.Release()
	signals := len(api.Calls("Signal"))

	err = r.Render()
	if !errors.Is(err, d3d12.ErrReleased) || !hello.IsFrame(err) {
		t.Errorf("Render() after Release = %v, want a frame ErrReleased", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() after Release = %v", err)
	}
	if r.State() != d3d12.StateIdle {
		t.Errorf("state after Close = %s, want Idle", r.State())
	}
	if n := len(api.Calls("Signal")); n != signals {
		t.Errorf("Close flushed released resources: %d signals, want %d", n, signals)
	}
	if n := api.DoubleReleases(); n != 0 {
		t.Errorf("%d objects released twice", n)
	}
}
