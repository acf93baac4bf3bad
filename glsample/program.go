package glsample

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/gogpu/hello/shader"
)

var (
	// ErrCompile is returned when a shader stage fails to compile. The error
	// text carries the driver's info log.
	ErrCompile = errors.New("glsample: shader compile failed")

	// ErrLink is returned when a program fails to link.
	ErrLink = errors.New("glsample: program link failed")

	// ErrGL is returned when glGetError reports a failure after a frame.
	ErrGL = errors.New("glsample: GL error")
)

// Program is a linked vertex/fragment program.
type Program struct {
	handle uint32
}

// NewProgram compiles and links src.
func NewProgram(src shader.GLSL) (*Program, error) {
	vs, err := compileShader(src.Vertex, gl.VERTEX_SHADER)
	if err != nil {
		return nil, fmt.Errorf("vertex shader: %w", err)
	}
	defer gl.DeleteShader(vs)

	fs, err := compileShader(src.Fragment, gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, fmt.Errorf("fragment shader: %w", err)
	}
	defer gl.DeleteShader(fs)

	handle := gl.CreateProgram()
	gl.AttachShader(handle, vs)
	gl.AttachShader(handle, fs)
	gl.LinkProgram(handle)
	gl.DetachShader(handle, vs)
	gl.DetachShader(handle, fs)

	var status int32
	gl.GetProgramiv(handle, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetProgramiv(handle, gl.INFO_LOG_LENGTH, &n)
		msg := strings.Repeat("\x00", int(n+1))
		gl.GetProgramInfoLog(handle, n, nil, gl.Str(msg))
		gl.DeleteProgram(handle)
		return nil, fmt.Errorf("%w: %s", ErrLink, trimLog(msg))
	}
	return &Program{handle: handle}, nil
}

func compileShader(src string, typ uint32) (uint32, error) {
	handle := gl.CreateShader(typ)
	csrc, free := gl.Strs(cstring(src))
	gl.ShaderSource(handle, 1, csrc, nil)
	free()
	gl.CompileShader(handle)

	var status int32
	gl.GetShaderiv(handle, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetShaderiv(handle, gl.INFO_LOG_LENGTH, &n)
		msg := strings.Repeat("\x00", int(n+1))
		gl.GetShaderInfoLog(handle, n, nil, gl.Str(msg))
		gl.DeleteShader(handle)
		return 0, fmt.Errorf("%w: %s", ErrCompile, trimLog(msg))
	}
	return handle, nil
}

// cstring NUL-terminates s for gl.Strs and gl.Str.
func cstring(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func trimLog(msg string) string {
	return strings.TrimSpace(strings.TrimRight(msg, "\x00"))
}

// Use makes p the current program.
func (p *Program) Use() {
	gl.UseProgram(p.handle)
}

// UniformLocation returns the location of the named uniform, or -1 when
// the program has none by that name.
func (p *Program) UniformLocation(name string) int32 {
	if name == "" {
		return -1
	}
	return gl.GetUniformLocation(p.handle, gl.Str(cstring(name)))
}

// Delete frees the program. It is safe on a nil or deleted program.
func (p *Program) Delete() {
	if p == nil || p.handle == 0 {
		return
	}
	gl.DeleteProgram(p.handle)
	p.handle = 0
}

// checkError drains glGetError.
func checkError() error {
	var codes []string
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		codes = append(codes, fmt.Sprintf("0x%04x", code))
		if len(codes) == 8 {
			break
		}
	}
	if len(codes) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrGL, strings.Join(codes, ", "))
}
