package glsample

import "github.com/go-gl/gl/v4.1-core/gl"

// VertexArray is a vertex array object with one interleaved float32 buffer.
type VertexArray struct {
	vao, vbo uint32
	count    int32
}

// NewVertexArray uploads data and describes it with layout: attribute i
// has layout[i] float components and lives at location i.
func NewVertexArray(data []float32, layout ...int32) *VertexArray {
	stride := vertexSize(layout)
	va := &VertexArray{count: int32(len(data)) / stride}

	gl.GenVertexArrays(1, &va.vao)
	gl.GenBuffers(1, &va.vbo)
	gl.BindVertexArray(va.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, va.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	var offset int32
	for i, n := range layout {
		gl.VertexAttribPointer(uint32(i), n, gl.FLOAT, false, stride*4, gl.PtrOffset(int(offset*4)))
		gl.EnableVertexAttribArray(uint32(i))
		offset += n
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return va
}

// vertexSize returns the float count of one vertex.
func vertexSize(layout []int32) int32 {
	var n int32
	for _, c := range layout {
		n += c
	}
	return n
}

// Count returns the number of vertices.
func (va *VertexArray) Count() int32 { return va.count }

// Draw draws the vertices as triangles.
func (va *VertexArray) Draw() {
	gl.BindVertexArray(va.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, va.count)
}

// Delete frees the array and its buffer.
func (va *VertexArray) Delete() {
	if va == nil || va.vao == 0 {
		return
	}
	gl.DeleteVertexArrays(1, &va.vao)
	gl.DeleteBuffers(1, &va.vbo)
	va.vao, va.vbo = 0, 0
}
