package samples

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/hello"
	"github.com/gogpu/hello/d3d12"
	"github.com/gogpu/hello/shader"
)

// HelloTriangleName is the registry name of HelloTriangle.
const HelloTriangleName = "d3d12/hello-triangle"

// Vertex is a position and an RGBA color, 28 bytes on the wire.
type Vertex struct {
	Position [3]float32
	Color    hello.Color
}

// vertexStride is the encoded size of a Vertex.
const vertexStride = 7 * 4

// inputLayout matches Vertex and the WGSL vertex inputs.
var inputLayout = []d3d12.InputElementDesc{
	{SemanticName: "POSITION", Format: d3d12.FormatR32G32B32Float},
	{SemanticName: "COLOR", Format: d3d12.FormatR32G32B32A32Float, AlignedByteOffset: 12},
}

// TriangleVertices returns the sample triangle for a window of the given
// aspect ratio (width / height).
func TriangleVertices(aspect float32) []Vertex {
	return []Vertex{
		{Position: [3]float32{0, 0.25 * aspect, 0}, Color: hello.Red},
		{Position: [3]float32{0.25, -0.25 * aspect, 0}, Color: hello.Green},
		{Position: [3]float32{-0.25, -0.25 * aspect, 0}, Color: hello.Blue},
	}
}

// EncodeVertices packs vertices as little-endian float32s.
func EncodeVertices(vs []Vertex) []byte {
	out := make([]byte, 0, len(vs)*vertexStride)
	for _, v := range vs {
		for _, f := range [...]float32{
			v.Position[0], v.Position[1], v.Position[2],
			v.Color.R, v.Color.G, v.Color.B, v.Color.A,
		} {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
	}
	return out
}

func aspectRatio(w d3d12.Window) float32 {
	width, height := w.ClientSize()
	if height == 0 {
		return 1
	}
	return float32(width) / float32(height)
}

// HelloTriangle draws one colored triangle.
type HelloTriangle struct {
	base
	vertices d3d12.Buffer
}

// NewHelloTriangle implements Factory.
func NewHelloTriangle(env Env) (hello.Sample, error) {
	s := &HelloTriangle{base: base{name: HelloTriangleName}}
	res, err := s.open(env)
	if err != nil {
		return nil, err
	}
	p, err := s.setupTriangle(env, shader.TriangleWGSL, 0)
	if err != nil {
		res.Release()
		s.release()
		return nil, hello.SetupError("triangle", err)
	}
	if err := s.start(env, res, hello.CornflowerNavy, p); err != nil {
		return nil, err
	}
	return s, nil
}

// VertexBuffer returns the buffer holding the triangle.
func (s *HelloTriangle) VertexBuffer() d3d12.Buffer { return s.vertices }

// setupTriangle creates the pipeline state and the vertex buffer. The
// returned pipeline binds the vertex buffer; callers add root buffers.
func (s *HelloTriangle) setupTriangle(env Env, wgsl string, rootBuffers uint32) (d3d12.Pipeline, error) {
	pso, err := s.device.CreateGraphicsPipelineState(d3d12.GraphicsPipelineStateDesc{
		Label:               s.name,
		VS:                  d3d12.ShaderBytecode{Source: wgsl, EntryPoint: shader.VertexEntry},
		PS:                  d3d12.ShaderBytecode{Source: wgsl, EntryPoint: shader.FragmentEntry},
		InputLayout:         inputLayout,
		RootConstantBuffers: rootBuffers,
		RTVFormat:           d3d12.FormatR8G8B8A8Unorm,
	})
	if err != nil {
		return d3d12.Pipeline{}, fmt.Errorf("create pipeline state: %w", err)
	}
	s.own(pso.Release)

	data := EncodeVertices(TriangleVertices(aspectRatio(env.Window)))
	vb, err := s.device.CreateUploadBuffer(uint64(len(data)))
	if err != nil {
		return d3d12.Pipeline{}, fmt.Errorf("create vertex buffer: %w", err)
	}
	s.own(vb.Release)
	if err := vb.Write(0, data); err != nil {
		return d3d12.Pipeline{}, fmt.Errorf("upload vertices: %w", err)
	}
	s.vertices = vb

	view := d3d12.VertexBufferView{
		Buffer:        vb,
		SizeInBytes:   uint32(len(data)),
		StrideInBytes: vertexStride,
	}
	return d3d12.Pipeline{
		State:       pso,
		VertexCount: 3,
		Bind: func(list d3d12.GraphicsCommandList) {
			list.IASetVertexBuffers(0, view)
		},
	}, nil
}
