package d3d12_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/hello"
	"github.com/gogpu/hello/d3d12"
	"github.com/gogpu/hello/d3d12/sim"
)

// recordFrame records the body of a frame into list, transitioning target
// from before to RenderTarget and back to Present.
func recordFrame(res *d3d12.Resources, before d3d12.ResourceState) error {
	list := res.CommandList()
	if err := res.Allocator().Reset(); err != nil {
		return err
	}
	if err := list.Reset(res.Allocator(), nil); err != nil {
		return err
	}
	target, err := res.RenderTarget(res.FrameIndex())
	if err != nil {
		return err
	}
	rtv, err := res.RTV(res.FrameIndex())
	if err != nil {
		return err
	}
	list.ResourceBarrier(d3d12.Transition(target, before, d3d12.ResourceStateRenderTarget))
	list.OMSetRenderTargets(rtv)
	list.ClearRenderTargetView(rtv, hello.CornflowerNavy)
	list.ResourceBarrier(d3d12.Transition(target, d3d12.ResourceStateRenderTarget, d3d12.ResourceStatePresent))
	return list.Close()
}

func TestDebugLayerBarrierMismatch(t *testing.T) {
	_, res := bindSim(t, true)
	defer res.Release()

	// Submit one correct frame so the layer knows the buffer is in Present.
	if err := recordFrame(res, d3d12.ResourceStatePresent); err != nil {
		t.Fatalf("valid frame: %v", err)
	}
	if err := res.Queue().ExecuteCommandLists(res.CommandList()); err != nil {
		t.Fatal(err)
	}
	if err := res.Fence().Flush(); err != nil {
		t.Fatal(err)
	}

	err := recordFrame(res, d3d12.ResourceStateCopySource)
	if !errors.Is(err, d3d12.ErrInvalidBarrier) {
		t.Errorf("Close() after mismatched barrier = %v, want ErrInvalidBarrier", err)
	}
}

func TestDebugLayerAllocatorInFlight(t *testing.T) {
	_, res := bindSim(t, true, sim.WithLazyGPU())
	defer res.Release()

	if err := recordFrame(res, d3d12.ResourceStatePresent); err != nil {
		t.Fatal(err)
	}
	if err := res.Queue().ExecuteCommandLists(res.CommandList()); err != nil {
		t.Fatal(err)
	}

	// Executed but never fenced.
	if err := res.Allocator().Reset(); !errors.Is(err, d3d12.ErrAllocatorInFlight) {
		t.Fatalf("Reset() before signal = %v, want ErrAllocatorInFlight", err)
	}

	// Fenced but the lazy GPU has not reached the value.
	if err := res.Queue().Signal(res.Fence().Fence(), 1); err != nil {
		t.Fatal(err)
	}
	if err := res.Allocator().Reset(); !errors.Is(err, d3d12.ErrAllocatorInFlight) {
		t.Fatalf("Reset() before completion = %v, want ErrAllocatorInFlight", err)
	}

	// Waiting lets the GPU finish; the reset is now legal.
	ev := d3d12.NewEvent()
	if err := res.Fence().Fence().SetEventOnCompletion(1, ev); err != nil {
		t.Fatal(err)
	}
	ev.Wait()
	if err := res.Allocator().Reset(); err != nil {
		t.Errorf("Reset() after completion = %v", err)
	}
}

func TestDebugLayerWrapsObjects(t *testing.T) {
	_, res := bindSim(t, true)
	defer res.Release()

	for name, obj := range map[string]any{
		"queue":     res.Queue(),
		"allocator": res.Allocator(),
		"list":      res.CommandList(),
	} {
		if _, ok := obj.(d3d12.Wrapper); !ok {
			t.Errorf("%s %T is not wrapped", name, obj)
		}
	}
	if _, ok := d3d12.Native(res.Queue()).(*sim.Queue); !ok {
		t.Errorf("Native(queue) = %T, want *sim.Queue", d3d12.Native(res.Queue()))
	}
}

func TestDebugLayerRejectsForeignObjects(t *testing.T) {
	api := sim.New()
	_, device := createDevice(t, api, true)
	plain := sim.New()
	_, other := createDevice(t, plain, false)

	alloc, err := other.CreateCommandAllocator(d3d12.CommandListTypeDirect)
	if err != nil {
		t.Fatal(err)
	}
	defer alloc.Release()

	if _, err := device.CreateCommandList(d3d12.CommandListTypeDirect, alloc, nil); !errors.Is(err, d3d12.ErrWrongObject) {
		t.Errorf("CreateCommandList(foreign allocator) = %v, want ErrWrongObject", err)
	}
}

func TestDebugLayerReportsClosedListUse(t *testing.T) {
	var buf bytes.Buffer
	orig := hello.Logger()
	t.Cleanup(func() { hello.SetLogger(orig) })
	hello.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	api, res := bindSim(t, true)
	defer res.Release()

	if err := recordFrame(res, d3d12.ResourceStatePresent); err != nil {
		t.Fatal(err)
	}
	rtv, err := res.RTV(res.FrameIndex())
	if err != nil {
		t.Fatal(err)
	}
	api.ResetTrace()

	list := res.CommandList()
	list.OMSetRenderTargets(rtv)
	list.ClearRenderTargetView(rtv, hello.CornflowerNavy)

	for _, op := range []string{"OMSetRenderTargets", "ClearRenderTargetView"} {
		if !strings.Contains(buf.String(), d3d12.ErrListClosed.Error()+": "+op) {
			t.Errorf("no closed-list report for %s in log:\n%s", op, buf.String())
		}
		if calls := api.Calls(op); len(calls) != 0 {
			t.Errorf("%s reached the native list after Close: %v", op, calls)
		}
	}
}
