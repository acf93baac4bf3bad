package d3d12

import (
	"errors"
	"fmt"

	"github.com/gogpu/hello"
)

// DefaultMaxAdapters bounds the hardware adapter probe when
// DeviceFactory.MaxAdapters is zero.
const DefaultMaxAdapters = 16

// DeviceFactory selects an adapter and creates the logical device.
type DeviceFactory struct {
	// EnableDebugLayer turns on the API's debug layer before any device is
	// created and wraps the device in the validation layer.
	EnableDebugLayer bool

	// UseWARP takes the software adapter instead of probing hardware ones.
	UseWARP bool

	// Factory is an externally supplied factory. When nil, Create makes one
	// from the API and releases it again on failure.
	Factory Factory

	// MinFeatureLevel is the probe level; zero means FeatureLevel11_0.
	MinFeatureLevel FeatureLevel

	// MaxAdapters bounds the hardware enumeration; zero means
	// DefaultMaxAdapters.
	MaxAdapters int
}

// Create returns the factory and a device on the selected adapter.
// api may be nil only when Factory is set and the debug layer is off.
// Every error carries hello.PhaseSetup.
func (f DeviceFactory) Create(api API) (Factory, Device, error) {
	factory, device, err := f.create(api)
	if err != nil {
		return nil, nil, hello.SetupError("create device", err)
	}
	return factory, device, nil
}

func (f DeviceFactory) create(api API) (_ Factory, _ Device, ferr error) {
	if (f.EnableDebugLayer || f.Factory == nil) && api == nil {
		return nil, nil, ErrNoAPI
	}

	// Enabling the debug layer after device creation removes the device,
	// so this has to come first.
	if f.EnableDebugLayer {
		if err := api.EnableDebugLayer(); err != nil {
			return nil, nil, fmt.Errorf("enable debug layer: %w", err)
		}
	}

	factory := f.Factory
	if factory == nil {
		created, err := api.CreateFactory(f.EnableDebugLayer)
		if err != nil {
			return nil, nil, fmt.Errorf("create factory: %w", err)
		}
		factory = created
		defer func() {
			if ferr != nil {
				factory.Release()
			}
		}()
	}

	adapter, err := f.selectAdapter(factory)
	if err != nil {
		return nil, nil, err
	}
	defer adapter.Release()

	device, err := factory.CreateDevice(adapter, f.minLevel())
	if err != nil {
		return nil, nil, fmt.Errorf("create device on %q: %w", adapter.Desc().Description, err)
	}

	desc := adapter.Desc()
	slogger().Info("d3d12: device created",
		"adapter", desc.Description,
		"index", desc.Index,
		"software", desc.Software(),
		"debug", f.EnableDebugLayer,
	)

	if f.EnableDebugLayer {
		device = newDebugDevice(device)
	}
	return factory, device, nil
}

func (f DeviceFactory) minLevel() FeatureLevel {
	if f.MinFeatureLevel == 0 {
		return FeatureLevel11_0
	}
	return f.MinFeatureLevel
}

// selectAdapter returns the WARP adapter, or the first hardware adapter
// on which a device can be created at the minimum feature level.
func (f DeviceFactory) selectAdapter(factory Factory) (Adapter, error) {
	if f.UseWARP {
		a, err := factory.EnumWarpAdapter()
		if err != nil {
			return nil, fmt.Errorf("enum warp adapter: %w", err)
		}
		return a, nil
	}

	limit := f.MaxAdapters
	if limit <= 0 {
		limit = DefaultMaxAdapters
	}
	for i := range limit {
		a, err := factory.EnumAdapters(i)
		if errors.Is(err, ErrNotFound) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("enum adapter %d: %w", i, err)
		}

		desc := a.Desc()
		if desc.Software() {
			slogger().Debug("d3d12: skipping software adapter", "index", i, "adapter", desc.Description)
			a.Release()
			continue
		}

		// Probe only: the device is not kept.
		probe, err := factory.CreateDevice(a, f.minLevel())
		if err != nil {
			slogger().Debug("d3d12: adapter failed probe", "index", i, "adapter", desc.Description, "err", err)
			a.Release()
			continue
		}
		probe.Release()
		return a, nil
	}
	return nil, fmt.Errorf("%w (probed up to %d adapters at feature level %s)", ErrNoSuitableAdapter, limit, f.minLevel())
}
