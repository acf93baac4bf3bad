package samples

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/hello"
	"github.com/gogpu/hello/d3d12"
	"github.com/gogpu/hello/shader"
)

// HelloConstantBufferName is the registry name of HelloConstantBuffer.
const HelloConstantBufferName = "d3d12/hello-constant-buffer"

// ConstantBufferSize is the size of the scene constants; constant buffers
// are 256-byte aligned.
const ConstantBufferSize = 256

// Offset animation: the triangle slides right and re-enters from the left.
const (
	offsetStep  = 0.005
	offsetLimit = 1.25
)

// HelloConstantBuffer is HelloTriangle moved every frame by an offset held
// in a constant buffer.
type HelloConstantBuffer struct {
	HelloTriangle
	constants d3d12.Buffer
	offset    hello.Wrap
	dirty     bool
}

// NewHelloConstantBuffer implements Factory.
func NewHelloConstantBuffer(env Env) (hello.Sample, error) {
	s := &HelloConstantBuffer{
		HelloTriangle: HelloTriangle{base: base{name: HelloConstantBufferName}},
		offset:        hello.Wrap{Step: offsetStep, Min: -offsetLimit, Max: offsetLimit},
		dirty:         true,
	}
	res, err := s.open(env)
	if err != nil {
		return nil, err
	}
	p, err := s.setup(env)
	if err != nil {
		res.Release()
		s.release()
		return nil, hello.SetupError("constant buffer", err)
	}
	if err := s.start(env, res, hello.CornflowerNavy, p); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *HelloConstantBuffer) setup(env Env) (d3d12.Pipeline, error) {
	p, err := s.setupTriangle(env, shader.ConstantBufferWGSL, 1)
	if err != nil {
		return p, err
	}
	cb, err := s.device.CreateUploadBuffer(ConstantBufferSize)
	if err != nil {
		return p, err
	}
	s.own(cb.Release)
	s.constants = cb

	bindVertices := p.Bind
	p.Bind = func(list d3d12.GraphicsCommandList) {
		bindVertices(list)
		list.SetGraphicsRootConstantBufferView(0, cb)
	}
	return p, nil
}

// ConstantBuffer returns the buffer holding the scene constants.
func (s *HelloConstantBuffer) ConstantBuffer() d3d12.Buffer { return s.constants }

// Offset returns the current horizontal offset.
func (s *HelloConstantBuffer) Offset() float32 { return s.offset.Value }

// Update implements hello.Sample.
func (s *HelloConstantBuffer) Update() {
	s.offset.Advance()
	s.dirty = true
}

// Render implements hello.Sample. The constant buffer is rewritten before
// recording; the previous frame's fence wait guarantees the GPU is done
// reading it.
func (s *HelloConstantBuffer) Render() error {
	if s.dirty {
		if err := s.constants.Write(0, EncodeConstants(s.offset.Value)); err != nil {
			return hello.FrameError("update constants", err)
		}
		s.dirty = false
	}
	return s.base.Render()
}

// EncodeConstants packs the scene constants: a float4 offset (x, 0, 0, 0)
// padded to ConstantBufferSize.
func EncodeConstants(offsetX float32) []byte {
	out := make([]byte, ConstantBufferSize)
	binary.LittleEndian.PutUint32(out, math.Float32bits(offsetX))
	return out
}
