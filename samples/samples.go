// Package samples holds the Direct3D12-model samples and the registry the
// commands pick them from.
//
// Every sample follows the same sequence: DeviceFactory creates the device,
// d3d12.Bind creates the swap chain and per-frame objects, the sample adds
// its pipeline and buffers, and a d3d12.Renderer records each frame.
package samples

import (
	"github.com/gogpu/hello"
	"github.com/gogpu/hello/d3d12"
)

// Env is what a sample needs from its host.
type Env struct {
	API    d3d12.API
	Window d3d12.Window
	Config hello.Config
}

// Factory creates a sample.
type Factory func(Env) (hello.Sample, error)

var registry hello.Registry[Factory]

// Register makes a sample available under name.
func Register(name string, f Factory) {
	registry.Register(name, f)
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, error) {
	return registry.MustGet(name)
}

// Names returns the registered sample names in sorted order.
func Names() []string {
	return registry.Available()
}

// New creates the sample registered under name.
func New(name string, env Env) (hello.Sample, error) {
	f, err := Lookup(name)
	if err != nil {
		return nil, hello.SetupError("lookup", err)
	}
	return f(env)
}

func init() {
	Register(HelloWindowName, NewHelloWindow)
	Register(HelloTriangleName, NewHelloTriangle)
	Register(HelloConstantBufferName, NewHelloConstantBuffer)
}
