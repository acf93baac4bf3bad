package glsample

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/hello"
	"github.com/gogpu/hello/shader"
)

// Registry names.
const (
	TriangleColorName  = "gl/triangle-color"
	TriangleMatrixName = "gl/triangle-matrix"
	TriangleMovingName = "gl/triangle-moving"
)

// Horizontal sweep shared by the animated samples.
const (
	sweepMin  = -0.5
	sweepMax  = 0.5
	sweepStep = 0.005
)

// Def describes one sample: which program draws which vertices, and how
// the animated value reaches the program.
type Def struct {
	Name    string
	Program string

	// Vertices are interleaved float32s; Layout gives the component count
	// of each attribute in location order.
	Vertices []float32
	Layout   []int32

	Clear hello.Color

	// Uniform is the animated uniform, empty for static samples.
	Uniform string
	set     func(loc int32, x float32)
}

// Animated reports whether the sample sweeps a uniform.
func (d Def) Animated() bool { return d.Uniform != "" }

// Env is what a GL sample needs from its host.
type Env struct {
	Config hello.Config

	// ShaderDir, if set, holds override sources and enables hot reload.
	ShaderDir string
}

var registry hello.Registry[Def]

// Register makes a sample available under d.Name.
func Register(d Def) {
	registry.Register(d.Name, d)
}

// Lookup returns the sample registered under name.
func Lookup(name string) (Def, error) {
	return registry.MustGet(name)
}

// Names returns the registered sample names in sorted order.
func Names() []string {
	return registry.Available()
}

// MatrixAt returns the transform of the triangle-matrix sample: a
// translation by x along the x axis.
func MatrixAt(x float32) mgl32.Mat4 {
	return mgl32.Translate3D(x, 0, 0)
}

func setMatrix(loc int32, x float32) {
	m := MatrixAt(x)
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

func setOffset(loc int32, x float32) {
	gl.Uniform1f(loc, x)
}

func init() {
	Register(Def{
		Name:    TriangleColorName,
		Program: "triangle-color",
		Vertices: []float32{
			-0.5, -0.5, 1, 0, 0,
			0, 0.5, 0, 1, 0,
			0.5, -0.5, 0, 0, 1,
		},
		Layout: []int32{2, 3},
		Clear:  hello.DarkTeal,
	})
	Register(Def{
		Name:     TriangleMatrixName,
		Program:  "triangle-matrix",
		Vertices: []float32{-0.5, -0.5, 0.5, -0.5, 0, 0.5},
		Layout:   []int32{2},
		Clear:    hello.DarkTeal,
		Uniform:  "matrix",
		set:      setMatrix,
	})
	Register(Def{
		Name:     TriangleMovingName,
		Program:  "triangle-moving",
		Vertices: []float32{-0.5, -0.5, 0.5, -0.5, 0, 0.5},
		Layout:   []int32{2},
		Clear:    hello.Slate,
		Uniform:  "offset",
		set:      setOffset,
	})
}

// Sample runs one Def. It implements hello.Sample; the host swaps buffers
// after Render.
type Sample struct {
	def    Def
	clear  hello.Color
	prog   *Program
	loc    int32
	va     *VertexArray
	sweep  hello.Bounce
	reload *Reloader
	closed bool
}

var _ hello.Sample = (*Sample)(nil)

// New creates the sample registered under name. The GL context must be
// current.
func New(name string, env Env) (*Sample, error) {
	def, err := Lookup(name)
	if err != nil {
		return nil, hello.SetupError("lookup", err)
	}
	src, err := loadSource(def.Program, env.ShaderDir)
	if err != nil {
		return nil, hello.SetupError("load shaders", err)
	}
	prog, err := NewProgram(src)
	if err != nil {
		return nil, hello.SetupError("build program", fmt.Errorf("%s: %w", def.Program, err))
	}

	s := &Sample{
		def:   def,
		clear: env.Config.ClearColorOr(def.Clear),
		prog:  prog,
		loc:   prog.UniformLocation(def.Uniform),
		sweep: hello.NewBounce(sweepMin, sweepMax, sweepStep),
	}
	s.va = NewVertexArray(def.Vertices, def.Layout...)

	if env.ShaderDir != "" {
		s.reload, err = NewReloader(env.ShaderDir, def.Program, s.rebuild)
		if err != nil {
			s.Close()
			return nil, hello.SetupError("watch shaders", err)
		}
	}
	hello.SampleLogger(def.Name).Info("sample ready", "vertices", s.va.Count())
	return s, nil
}

func loadSource(program, dir string) (shader.GLSL, error) {
	if dir == "" {
		return shader.LookupGLSL(program)
	}
	return shader.LoadGLSL(dir, program)
}

// rebuild swaps in a program built from src, leaving the current one in
// place when the build fails.
func (s *Sample) rebuild(src shader.GLSL) error {
	prog, err := NewProgram(src)
	if err != nil {
		return err
	}
	s.prog.Delete()
	s.prog = prog
	s.loc = prog.UniformLocation(s.def.Uniform)
	return nil
}

// Name implements hello.Sample.
func (s *Sample) Name() string { return s.def.Name }

// Value returns the animated value.
func (s *Sample) Value() float32 { return s.sweep.Value }

// Update implements hello.Sample.
func (s *Sample) Update() {
	if s.def.Animated() {
		s.sweep.Advance()
	}
	if s.reload != nil {
		s.reload.Poll()
	}
}

// Render implements hello.Sample.
func (s *Sample) Render() error {
	if s.closed {
		return hello.FrameError("render", fmt.Errorf("%w: sample closed", ErrGL))
	}
	gl.ClearColor(s.clear.R, s.clear.G, s.clear.B, s.clear.A)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	s.prog.Use()
	if s.def.set != nil && s.loc >= 0 {
		s.def.set(s.loc, s.sweep.Value)
	}
	s.va.Draw()

	if err := checkError(); err != nil {
		return hello.FrameError("render", err)
	}
	return nil
}

// Close implements hello.Sample.
func (s *Sample) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var err error
	if s.reload != nil {
		err = s.reload.Close()
	}
	s.va.Delete()
	s.prog.Delete()
	return err
}
