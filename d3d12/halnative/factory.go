// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halnative

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/hello/d3d12"
)

// hal has no feature levels; hardware adapters report 12_0 and software
// ones 11_0.
const (
	hardwareFeatureLevel = d3d12.FeatureLevel12_0
	softwareFeatureLevel = d3d12.FeatureLevel11_0
)

// Adapter implements d3d12.Adapter over a hal exposed adapter.
type Adapter struct {
	hal  hal.Adapter
	desc d3d12.AdapterDesc

	// external is set for the provider's adapter.
	external *OpenDevice
}

// OpenDevice is a hal device and its queue.
type OpenDevice struct {
	Device hal.Device
	Queue  hal.Queue
}

var _ d3d12.Adapter = (*Adapter)(nil)

func newAdapter(index int, e hal.ExposedAdapter) *Adapter {
	desc := d3d12.AdapterDesc{
		Index:           index,
		Description:     e.Info.Name,
		MaxFeatureLevel: hardwareFeatureLevel,
	}
	if isSoftware(e.Info.DeviceType) {
		desc.Flags |= d3d12.AdapterFlagSoftware
		desc.MaxFeatureLevel = softwareFeatureLevel
	}
	return &Adapter{hal: e.Adapter, desc: desc}
}

// Desc implements d3d12.Adapter.
func (a *Adapter) Desc() d3d12.AdapterDesc { return a.desc }

// Release implements d3d12.Adapter. Adapters belong to their instance.
func (a *Adapter) Release() {}

// Factory implements d3d12.Factory over a hal instance.
type Factory struct {
	api      *API
	instance hal.Instance // nil for provider factories
	adapters []*Adapter
	debug    bool
	released bool
}

var _ d3d12.Factory = (*Factory)(nil)

func newProviderFactory(api *API, p gpucontext.DeviceProvider) (*Factory, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := p.(halProvider)
	if !ok {
		return nil, ErrNoHalProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHalProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHalProvider)
	}

	info := p.AdapterInfo()
	desc := d3d12.AdapterDesc{
		Description:     info.Name,
		MaxFeatureLevel: hardwareFeatureLevel,
	}
	if desc.Description == "" {
		desc.Description = "external device"
	}
	if info.Type == gpucontext.AdapterTypeSoftware {
		desc.Flags |= d3d12.AdapterFlagSoftware
		desc.MaxFeatureLevel = softwareFeatureLevel
	}
	adapter := &Adapter{
		desc:     desc,
		external: &OpenDevice{Device: device, Queue: queue},
	}
	return &Factory{api: api, adapters: []*Adapter{adapter}}, nil
}

// EnumAdapters implements d3d12.Factory.
func (f *Factory) EnumAdapters(index int) (d3d12.Adapter, error) {
	if index < 0 || index >= len(f.adapters) {
		return nil, d3d12.ErrNotFound
	}
	return f.adapters[index], nil
}

// EnumWarpAdapter implements d3d12.Factory by returning the first software
// adapter.
func (f *Factory) EnumWarpAdapter() (d3d12.Adapter, error) {
	for _, a := range f.adapters {
		if a.desc.Software() {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: no software adapter", d3d12.ErrNotFound)
}

// CreateDevice implements d3d12.Factory.
func (f *Factory) CreateDevice(adapter d3d12.Adapter, minLevel d3d12.FeatureLevel) (d3d12.Device, error) {
	a, ok := d3d12.Native(adapter).(*Adapter)
	if !ok {
		return nil, fmt.Errorf("%w: adapter %T", d3d12.ErrWrongObject, adapter)
	}
	if a.desc.MaxFeatureLevel < minLevel {
		return nil, fmt.Errorf("%w: %s supports %s, want %s",
			d3d12.ErrFeatureLevel, a.desc.Description, a.desc.MaxFeatureLevel, minLevel)
	}

	var dev *Device
	if a.external != nil {
		dev = newDevice(f.api, a.external.Device, a.external.Queue, true)
	} else {
		open, err := a.hal.Open(gputypes.Features(0), gputypes.DefaultLimits())
		if err != nil {
			return nil, fmt.Errorf("halnative: open %s: %w", a.desc.Description, err)
		}
		dev = newDevice(f.api, open.Device, open.Queue, false)
	}
	f.api.deviceCreated()
	slogger().Debug("halnative: device created", "adapter", a.desc.Description, "external", a.external != nil)
	return dev, nil
}

// CreateSwapChain implements d3d12.Factory.
func (f *Factory) CreateSwapChain(queue d3d12.CommandQueue, window d3d12.Window, desc d3d12.SwapChainDesc) (d3d12.SwapChain, error) {
	q, ok := d3d12.Native(queue).(*Queue)
	if !ok {
		return nil, fmt.Errorf("%w: queue %T", d3d12.ErrWrongObject, queue)
	}
	return newSwapChain(q.device, window, desc)
}

// MakeWindowAssociation implements d3d12.Factory.
func (f *Factory) MakeWindowAssociation(window d3d12.Window, flags d3d12.WindowAssociation) error {
	if t, ok := window.(d3d12.AltEnterToggler); ok {
		t.SetAltEnterFullscreen(flags&d3d12.WindowAssociationNoAltEnter == 0)
	}
	return nil
}

// Release implements d3d12.Factory.
func (f *Factory) Release() {
	if f.released {
		return
	}
	f.released = true
	if f.instance != nil {
		f.instance.Destroy()
	}
}
