package sim

import (
	"fmt"

	"github.com/gogpu/hello/d3d12"
)

// Factory implements d3d12.Factory.
type Factory struct {
	*object
	api *API

	associations map[d3d12.Window]d3d12.WindowAssociation
}

var _ d3d12.Factory = (*Factory)(nil)

// Adapter implements d3d12.Adapter.
type Adapter struct {
	*object
	desc   d3d12.AdapterDesc
	broken bool
}

// Desc implements d3d12.Adapter.
func (a *Adapter) Desc() d3d12.AdapterDesc { return a.desc }

func (f *Factory) newAdapter(i int, spec AdapterSpec) *Adapter {
	desc := d3d12.AdapterDesc{
		Index:           i,
		Description:     spec.Description,
		VendorID:        0x1414,
		DeviceID:        uint32(0x100 + i),
		MaxFeatureLevel: spec.MaxFeatureLevel,
	}
	if spec.Software {
		desc.Flags |= d3d12.AdapterFlagSoftware
	}
	return &Adapter{object: f.api.newObject("Adapter", nil), desc: desc, broken: spec.Broken}
}

// EnumAdapters implements d3d12.Factory.
func (f *Factory) EnumAdapters(index int) (d3d12.Adapter, error) {
	f.api.record("EnumAdapters", uint64(index), "")
	if index < 0 || index >= len(f.api.adapters) {
		return nil, d3d12.ErrNotFound
	}
	return f.newAdapter(index, f.api.adapters[index]), nil
}

// EnumWarpAdapter implements d3d12.Factory.
func (f *Factory) EnumWarpAdapter() (d3d12.Adapter, error) {
	f.api.record("EnumWarpAdapter", 0, "")
	for i, spec := range f.api.adapters {
		if spec.Software {
			return f.newAdapter(i, spec), nil
		}
	}
	return nil, d3d12.ErrNotFound
}

// CreateDevice implements d3d12.Factory.
func (f *Factory) CreateDevice(adapter d3d12.Adapter, minLevel d3d12.FeatureLevel) (d3d12.Device, error) {
	a, ok := d3d12.Native(adapter).(*Adapter)
	if !ok {
		return nil, fmt.Errorf("%w: adapter %T", d3d12.ErrWrongObject, adapter)
	}
	f.api.record("CreateDevice", uint64(a.desc.Index), a.desc.Description)
	if err := f.api.check("CreateDevice"); err != nil {
		return nil, err
	}
	if a.broken {
		return nil, fmt.Errorf("%w: adapter %q is broken", ErrInjected, a.desc.Description)
	}
	if a.desc.MaxFeatureLevel < minLevel {
		return nil, fmt.Errorf("%w: %s < %s", d3d12.ErrFeatureLevel, a.desc.MaxFeatureLevel, minLevel)
	}

	f.api.mu.Lock()
	f.api.devicesCreated++
	f.api.mu.Unlock()

	d := &Device{api: f.api, adapter: a.desc}
	d.object = f.api.newObject("Device", nil)
	return d, nil
}

// CreateSwapChain implements d3d12.Factory.
func (f *Factory) CreateSwapChain(queue d3d12.CommandQueue, window d3d12.Window, desc d3d12.SwapChainDesc) (d3d12.SwapChain, error) {
	q, ok := d3d12.Native(queue).(*Queue)
	if !ok {
		return nil, fmt.Errorf("%w: queue %T", d3d12.ErrWrongObject, queue)
	}
	if err := f.api.check("CreateSwapChain"); err != nil {
		return nil, err
	}
	if desc.BufferCount < 2 || desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: swap chain %+v", d3d12.ErrInvalidArg, desc)
	}
	f.api.record("CreateSwapChain", uint64(desc.BufferCount), fmt.Sprintf("%dx%d", desc.Width, desc.Height))

	sc := &SwapChain{
		api:    f.api,
		queue:  q,
		window: window,
		desc:   desc,
		index:  f.api.initialIndex,
	}
	for i := range desc.BufferCount {
		sc.buffers = append(sc.buffers, &Texture{
			object: f.api.newObject("BackBuffer", nil),
			index:  i,
			width:  desc.Width,
			height: desc.Height,
			state:  d3d12.ResourceStatePresent,
		})
	}
	sc.object = f.api.newObject("SwapChain", func() {
		for _, b := range sc.buffers {
			b.Release()
		}
	})
	return sc, nil
}

// MakeWindowAssociation implements d3d12.Factory.
func (f *Factory) MakeWindowAssociation(window d3d12.Window, flags d3d12.WindowAssociation) error {
	if err := f.api.check("MakeWindowAssociation"); err != nil {
		return err
	}
	f.api.record("MakeWindowAssociation", uint64(flags), "")
	if f.associations == nil {
		f.associations = make(map[d3d12.Window]d3d12.WindowAssociation)
	}
	f.associations[window] = flags
	if t, ok := window.(d3d12.AltEnterToggler); ok {
		t.SetAltEnterFullscreen(flags&d3d12.WindowAssociationNoAltEnter == 0)
	}
	return nil
}

// Association returns the flags last set for window.
func (f *Factory) Association(window d3d12.Window) d3d12.WindowAssociation {
	return f.associations[window]
}
