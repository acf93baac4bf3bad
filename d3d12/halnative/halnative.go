// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package halnative implements the d3d12 native interfaces on the gogpu
// hardware abstraction layer: Vulkan by default, another registered hal
// backend through WithBackend, or the noop backend.
//
// The d3d12 model maps onto hal as follows:
//
//   - a Factory is a hal instance and its exposed adapters;
//   - command allocators own the hal command buffers recorded from them;
//   - a command list is a hal command encoder, with clears and draws
//     collected into render passes;
//   - resource barriers become texture usage transitions (Present is the
//     copy-source usage, RenderTarget the render-attachment usage);
//   - a Fence is a timeline over queue submission indices;
//   - the swap chain is an offscreen ring of textures. Present reads the
//     current texture back and hands it to the window when the window
//     implements d3d12.Presenter.
package halnative

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/hello"
	"github.com/gogpu/hello/d3d12"
)

var (
	// ErrBackendUnavailable is returned when the requested hal backend is
	// not compiled in or not supported on this platform.
	ErrBackendUnavailable = errors.New("halnative: backend not available")

	// ErrNoHalProvider is returned by WithDeviceProvider providers that do
	// not expose hal objects.
	ErrNoHalProvider = errors.New("halnative: provider does not expose HAL types")

	// ErrUnsupportedFormat is returned for formats with no hal equivalent.
	ErrUnsupportedFormat = errors.New("halnative: unsupported format")
)

// Option configures an API.
type Option func(*API)

// WithBackend selects the hal backend. The default is Vulkan.
func WithBackend(b gputypes.Backend) Option {
	return func(a *API) { a.backend = b }
}

// WithNoop selects the noop backend, which accepts every call and renders
// nothing. It exposes a single software adapter.
func WithNoop() Option {
	return func(a *API) { a.noop = true }
}

// WithDeviceProvider makes factories expose one adapter whose device is the
// provider's hal device and queue. Devices created on it are never destroyed
// by this package.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(a *API) { a.provider = p }
}

// API implements d3d12.API on hal.
type API struct {
	mu       sync.Mutex
	backend  gputypes.Backend
	noop     bool
	provider gpucontext.DeviceProvider

	debug   bool
	devices int
}

var _ d3d12.API = (*API)(nil)

// New returns an API for the configured backend.
func New(opts ...Option) *API {
	a := &API{backend: gputypes.BackendVulkan}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// EnableDebugLayer implements d3d12.API. hal validation is configured per
// instance, so this only records the request for factories created later.
func (a *API) EnableDebugLayer() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.devices > 0 {
		return d3d12.ErrDebugLayerAfterDevice
	}
	a.debug = true
	return nil
}

// DebugLayerEnabled reports whether EnableDebugLayer succeeded.
func (a *API) DebugLayerEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.debug
}

func (a *API) deviceCreated() {
	a.mu.Lock()
	a.devices++
	a.mu.Unlock()
}

// CreateFactory implements d3d12.API.
func (a *API) CreateFactory(debug bool) (d3d12.Factory, error) {
	if a.provider != nil {
		return newProviderFactory(a, a.provider)
	}

	instance, err := a.createInstance()
	if err != nil {
		return nil, err
	}
	exposed := instance.EnumerateAdapters(nil)
	f := &Factory{api: a, instance: instance, debug: debug || a.DebugLayerEnabled()}
	for i := range exposed {
		f.adapters = append(f.adapters, newAdapter(i, exposed[i]))
	}
	slogger().Debug("halnative: factory created",
		"backend", a.backendName(), "adapters", len(f.adapters), "debug", f.debug)
	return f, nil
}

func (a *API) createInstance() (hal.Instance, error) {
	if a.noop {
		instance, err := noop.API{}.CreateInstance(nil)
		if err != nil {
			return nil, fmt.Errorf("halnative: create noop instance: %w", err)
		}
		return instance, nil
	}
	backend, ok := hal.GetBackend(a.backend)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, a.backend)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("halnative: create instance: %w", err)
	}
	return instance, nil
}

func (a *API) backendName() string {
	if a.noop {
		return "noop"
	}
	return fmt.Sprint(a.backend)
}

// AdapterInfo is what ListAdapters reports.
type AdapterInfo struct {
	Name       string
	DeviceType gputypes.DeviceType
	Software   bool
}

// ListAdapters enumerates the adapters of the API's backend without
// creating any device.
func (a *API) ListAdapters() ([]AdapterInfo, error) {
	instance, err := a.createInstance()
	if err != nil {
		return nil, err
	}
	defer instance.Destroy()

	exposed := instance.EnumerateAdapters(nil)
	infos := make([]AdapterInfo, 0, len(exposed))
	for i := range exposed {
		infos = append(infos, AdapterInfo{
			Name:       exposed[i].Info.Name,
			DeviceType: exposed[i].Info.DeviceType,
			Software:   isSoftware(exposed[i].Info.DeviceType),
		})
	}
	return infos, nil
}

// ParseBackend maps a backend name to an Option: "vulkan" (or "auto") and
// "noop".
func ParseBackend(name string) (Option, error) {
	switch name {
	case "vulkan", "vk", "auto", "":
		return WithBackend(gputypes.BackendVulkan), nil
	case "noop":
		return WithNoop(), nil
	default:
		return nil, fmt.Errorf("%w: backend %q", hello.ErrInvalidConfig, name)
	}
}

func isSoftware(t gputypes.DeviceType) bool {
	return t != gputypes.DeviceTypeDiscreteGPU && t != gputypes.DeviceTypeIntegratedGPU
}
