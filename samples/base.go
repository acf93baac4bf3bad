package samples

import (
	"github.com/gogpu/hello"
	"github.com/gogpu/hello/d3d12"
)

// base owns what every sample creates: the factory, the device, the bound
// resources and the renderer. Sample-specific objects are released through
// own, before the device.
type base struct {
	name     string
	factory  d3d12.Factory
	device   d3d12.Device
	renderer *d3d12.Renderer

	releasers []func()
	closed    bool
}

// open creates the device and binds the window.
func (b *base) open(env Env) (*d3d12.Resources, error) {
	cfg := env.Config
	if err := cfg.Validate(); err != nil {
		return nil, hello.SetupError("config", err)
	}
	factory, device, err := d3d12.DeviceFactory{
		EnableDebugLayer: cfg.DebugLayer,
		UseWARP:          cfg.WARP,
		MaxAdapters:      cfg.MaxAdapters,
	}.Create(env.API)
	if err != nil {
		return nil, err
	}
	b.factory, b.device = factory, device

	res, err := d3d12.Bind(factory, device, env.Window, d3d12.BindOptions{BufferCount: cfg.BufferCount})
	if err != nil {
		b.release()
		return nil, err
	}
	return res, nil
}

// start creates the renderer, taking ownership of res.
func (b *base) start(env Env, res *d3d12.Resources, def hello.Color, p d3d12.Pipeline) error {
	r, err := d3d12.NewRenderer(res,
		d3d12.WithClearColor(env.Config.ClearColorOr(def)),
		d3d12.WithSyncInterval(uint32(env.Config.VSync)),
		d3d12.WithPipeline(p),
	)
	if err != nil {
		res.Release()
		b.release()
		return err
	}
	b.renderer = r
	hello.SampleLogger(b.name).Info("sample ready", "buffers", res.BufferCount())
	return nil
}

func (b *base) own(release func()) {
	b.releasers = append(b.releasers, release)
}

// release frees sample objects in reverse order, then the device and the
// factory.
func (b *base) release() {
	for i := len(b.releasers) - 1; i >= 0; i-- {
		b.releasers[i]()
	}
	b.releasers = nil
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.factory != nil {
		b.factory.Release()
		b.factory = nil
	}
}

// Name implements hello.Sample.
func (b *base) Name() string { return b.name }

// Update implements hello.Sample.
func (b *base) Update() {}

// Render implements hello.Sample.
func (b *base) Render() error {
	return b.renderer.Render()
}

// Renderer returns the sample's renderer.
func (b *base) Renderer() *d3d12.Renderer { return b.renderer }

// Close implements hello.Sample. The renderer flushes the GPU before the
// objects it used are released.
func (b *base) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	var err error
	if b.renderer != nil {
		err = b.renderer.Close()
	}
	b.release()
	return err
}
