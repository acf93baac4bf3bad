package samples

import (
	"github.com/gogpu/hello"
	"github.com/gogpu/hello/d3d12"
)

// HelloWindowName is the registry name of HelloWindow.
const HelloWindowName = "d3d12/hello-window"

// HelloWindow clears the window every frame. It binds no pipeline, so the
// draw call has nothing to rasterize.
type HelloWindow struct {
	base
}

// NewHelloWindow implements Factory.
func NewHelloWindow(env Env) (hello.Sample, error) {
	s := &HelloWindow{base: base{name: HelloWindowName}}
	res, err := s.open(env)
	if err != nil {
		return nil, err
	}
	if err := s.start(env, res, hello.CornflowerNavy, d3d12.Pipeline{}); err != nil {
		return nil, err
	}
	return s, nil
}
