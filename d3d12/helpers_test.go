package d3d12_test

import (
	"slices"
	"testing"

	"github.com/gogpu/hello/d3d12"
	"github.com/gogpu/hello/d3d12/sim"
)

type testWindow struct {
	w, h        int
	altEnterSet bool
	altEnter    bool
}

func (w *testWindow) ClientSize() (int, int) { return w.w, w.h }

func (w *testWindow) SetAltEnterFullscreen(enabled bool) {
	w.altEnterSet = true
	w.altEnter = enabled
}

// createDevice runs DeviceFactory against api and fails the test on error.
func createDevice(t *testing.T, api *sim.API, debug bool) (d3d12.Factory, d3d12.Device) {
	t.Helper()
	factory, device, err := d3d12.DeviceFactory{EnableDebugLayer: debug}.Create(api)
	if err != nil {
		t.Fatalf("DeviceFactory.Create() = %v", err)
	}
	t.Cleanup(func() {
		device.Release()
		factory.Release()
	})
	return factory, device
}

// bindSim creates a simulated device and binds a 640x480 window.
func bindSim(t *testing.T, debug bool, opts ...sim.Option) (*sim.API, *d3d12.Resources) {
	t.Helper()
	api := sim.New(opts...)
	factory, device := createDevice(t, api, debug)
	res, err := d3d12.Bind(factory, device, &testWindow{w: 640, h: 480}, d3d12.BindOptions{})
	if err != nil {
		t.Fatalf("Bind() = %v", err)
	}
	return api, res
}

// ops returns the trace ops, optionally filtered to the given set.
func ops(api *sim.API, keep ...string) []string {
	var out []string
	for _, c := range api.Trace() {
		if len(keep) == 0 || slices.Contains(keep, c.Op) {
			out = append(out, c.Op)
		}
	}
	return out
}

func nativeList(t *testing.T, res *d3d12.Resources) *sim.CommandList {
	t.Helper()
	l, ok := d3d12.Native(res.CommandList()).(*sim.CommandList)
	if !ok {
		t.Fatalf("command list is %T, want *sim.CommandList", res.CommandList())
	}
	return l
}
