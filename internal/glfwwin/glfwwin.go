// Package glfwwin wraps a GLFW 3.3 window for the commands. A Window is an
// eventloop.Source, a d3d12.Window and, when it has a GL context, a
// d3d12.Presenter that shows swap-chain images.
//
// GLFW must be used from the main thread: call runtime.LockOSThread in an
// init function of package main before Init.
package glfwwin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/hello"
	"github.com/gogpu/hello/d3d12"
	"github.com/gogpu/hello/eventloop"
)

// ErrNoContext is returned by GL operations on a window created with NoAPI.
var ErrNoContext = errors.New("glfwwin: window has no GL context")

// ClientAPI selects what the window's surface is used for.
type ClientAPI int

const (
	// OpenGL creates a 4.1 core, forward-compatible context.
	OpenGL ClientAPI = iota
	// NoAPI creates a bare window for Vulkan-style backends.
	NoAPI
)

// String returns the string representation of ClientAPI.
func (a ClientAPI) String() string {
	switch a {
	case OpenGL:
		return "OpenGL"
	case NoAPI:
		return "NoAPI"
	default:
		return fmt.Sprintf("Unknown(%d)", int(a))
	}
}

// Config describes the window to create.
type Config struct {
	Title         string
	Width, Height int
	API           ClientAPI
	Resizable     bool
	// SwapInterval is the initial GL swap interval.
	SwapInterval int
	// IdleWait, if positive, makes the event pump block up to that long
	// for window events instead of polling. Windows without a vsync'd
	// swap use it to pace their loop.
	IdleWait time.Duration
}

// Init initializes GLFW.
func Init() error {
	if err := glfw.Init(); err != nil {
		return hello.SetupError("glfw init", err)
	}
	return nil
}

// Terminate shuts GLFW down. Every window must be closed first.
func Terminate() {
	glfw.Terminate()
}

// Window is a GLFW window.
type Window struct {
	win   *glfw.Window
	api   ClientAPI
	queue *eventloop.Queue

	altEnter   bool
	fullscreen bool
	windowed   [4]int

	swapInterval int
	blit         *blitter
}

var (
	_ eventloop.Source      = (*Window)(nil)
	_ d3d12.Window          = (*Window)(nil)
	_ d3d12.Presenter       = (*Window)(nil)
	_ d3d12.AltEnterToggler = (*Window)(nil)
)

// New creates a window and, for OpenGL, makes its context current and
// loads the GL functions.
func New(cfg Config) (*Window, error) {
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.Resizable, boolHint(cfg.Resizable))
	switch cfg.API {
	case NoAPI:
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	default:
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 1)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	}

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return nil, hello.SetupError("create window", err)
	}
	w := &Window{
		win:          win,
		api:          cfg.API,
		altEnter:     true,
		swapInterval: cfg.SwapInterval,
	}
	pump := glfw.PollEvents
	if cfg.IdleWait > 0 {
		timeout := cfg.IdleWait.Seconds()
		pump = func() { glfw.WaitEventsTimeout(timeout) }
	}
	w.queue = eventloop.NewQueue(pump)

	if cfg.API == OpenGL {
		win.MakeContextCurrent()
		if err := gl.Init(); err != nil {
			win.Destroy()
			return nil, hello.SetupError("gl init", err)
		}
		glfw.SwapInterval(cfg.SwapInterval)
		hello.Logger().Info("glfwwin: context ready",
			"version", gl.GoStr(gl.GetString(gl.VERSION)),
			"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
		)
	}

	win.SetCloseCallback(func(*glfw.Window) {
		w.queue.Push(eventloop.Event{Kind: eventloop.CloseRequested})
	})
	win.SetKeyCallback(w.onKey)
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if w.api == OpenGL {
			gl.Viewport(0, 0, int32(width), int32(height))
		}
		w.queue.Push(eventloop.Event{Kind: eventloop.Resized, Width: width, Height: height})
	})
	return w, nil
}

func boolHint(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

func (w *Window) onKey(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	if isAltEnter(key, mods) {
		if w.altEnter {
			w.toggleFullscreen()
		}
		return
	}
	w.queue.Push(eventloop.Event{Kind: eventloop.KeyPressed, Key: mapKey(key)})
}

func isAltEnter(key glfw.Key, mods glfw.ModifierKey) bool {
	return (key == glfw.KeyEnter || key == glfw.KeyKPEnter) && mods&glfw.ModAlt != 0
}

func mapKey(key glfw.Key) eventloop.Key {
	switch key {
	case glfw.KeyEscape:
		return eventloop.KeyEscape
	case glfw.KeyEnter, glfw.KeyKPEnter:
		return eventloop.KeyEnter
	case glfw.KeySpace:
		return eventloop.KeySpace
	default:
		return eventloop.KeyUnknown
	}
}

func (w *Window) toggleFullscreen() {
	if w.fullscreen {
		x, y, width, height := w.windowed[0], w.windowed[1], w.windowed[2], w.windowed[3]
		w.win.SetMonitor(nil, x, y, width, height, 0)
		w.fullscreen = false
		return
	}
	monitor := glfw.GetPrimaryMonitor()
	if monitor == nil {
		return
	}
	x, y := w.win.GetPos()
	width, height := w.win.GetSize()
	w.windowed = [4]int{x, y, width, height}
	mode := monitor.GetVideoMode()
	w.win.SetMonitor(monitor, 0, 0, mode.Width, mode.Height, mode.RefreshRate)
	w.fullscreen = true
}

// SetAltEnterFullscreen implements d3d12.AltEnterToggler.
func (w *Window) SetAltEnterFullscreen(enabled bool) {
	w.altEnter = enabled
	hello.Logger().Debug("glfwwin: alt+enter", "enabled", enabled)
}

// Fullscreen reports whether the window covers the primary monitor.
func (w *Window) Fullscreen() bool { return w.fullscreen }

// NextEvent implements eventloop.Source.
func (w *Window) NextEvent(ctx context.Context) (eventloop.Event, error) {
	return w.queue.NextEvent(ctx)
}

// RequestRedraw implements eventloop.Source.
func (w *Window) RequestRedraw() {
	w.queue.RequestRedraw()
}

// ClientSize implements d3d12.Window. It is the framebuffer size in pixels.
func (w *Window) ClientSize() (int, int) {
	return w.win.GetFramebufferSize()
}

// SwapBuffers shows the GL back buffer.
func (w *Window) SwapBuffers() {
	if w.api == OpenGL {
		w.win.SwapBuffers()
	}
}

// Close destroys the window and its GL objects.
func (w *Window) Close() {
	if w.win == nil {
		return
	}
	if w.blit != nil {
		w.blit.delete()
		w.blit = nil
	}
	w.win.Destroy()
	w.win = nil
}
