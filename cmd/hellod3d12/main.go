// Command hellod3d12 runs the Direct3D12-model samples.
//
// Usage:
//
//	hellod3d12 [-sample name] [-backend sim|noop|vulkan|auto] [-warp] [-debug]
//	           [-frames n] [-vsync n] [-width w] [-height h] [-config file.toml]
//	           [-screenshot out.png] [-headless] [-list] [-v]
//
// Frames are presented into a GLFW window. With -headless no window is
// opened and -frames defaults to 1; combine it with -screenshot to render
// a sample to an image file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"github.com/gogpu/hello"
	"github.com/gogpu/hello/d3d12"
	"github.com/gogpu/hello/d3d12/halnative"
	"github.com/gogpu/hello/d3d12/sim"
	"github.com/gogpu/hello/eventloop"
	"github.com/gogpu/hello/internal/cli"
	"github.com/gogpu/hello/internal/glfwwin"
	"github.com/gogpu/hello/samples"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

type options struct {
	sample     string
	frames     int
	screenshot string
	headless   bool
}

func main() {
	var (
		sample     = flag.String("sample", samples.HelloTriangleName, "sample to run")
		backend    = flag.String("backend", "auto", "device backend: sim, noop, vulkan or auto")
		warp       = flag.Bool("warp", false, "use the software adapter")
		debug      = flag.Bool("debug", false, "enable the debug layer")
		frames     = flag.Int("frames", 0, "exit after n frames (0: run until closed)")
		vsync      = flag.Int("vsync", 1, "present sync interval")
		width      = flag.Int("width", 1280, "window width")
		height     = flag.Int("height", 720, "window height")
		configPath = flag.String("config", "", "TOML config file")
		screenshot = flag.String("screenshot", "", "save the last frame to this .png, .bmp or .tiff file")
		headless   = flag.Bool("headless", false, "render without a window")
		list       = flag.Bool("list", false, "list samples and exit")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *list {
		for _, name := range samples.Names() {
			fmt.Println(name)
		}
		return
	}
	cli.SetupLogging(*verbose)

	cfg, err := cli.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("hellod3d12: %v", err)
	}
	cli.Override(&cfg, cli.Visited(flag.CommandLine), map[string]hello.Option{
		"backend": hello.WithBackend(*backend),
		"warp":    hello.WithWARP(*warp),
		"debug":   hello.WithDebugLayer(*debug),
		"vsync":   hello.WithVSync(*vsync),
		"width":   func(c *hello.Config) { c.Width = *width },
		"height":  func(c *hello.Config) { c.Height = *height },
	})

	opts := options{
		sample:     *sample,
		frames:     *frames,
		screenshot: *screenshot,
		headless:   *headless,
	}
	if opts.headless && opts.frames == 0 {
		opts.frames = 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, cfg, opts); err != nil {
		log.Fatalf("hellod3d12: %v", err)
	}
}

// newAPI returns the device backend named by cfg.Backend.
func newAPI(name string) (d3d12.API, error) {
	if name == "sim" {
		return sim.New(), nil
	}
	opt, err := halnative.ParseBackend(name)
	if err != nil {
		return nil, err
	}
	return halnative.New(opt), nil
}

// offscreen is the window of a headless run.
type offscreen struct{ width, height int }

func (w offscreen) ClientSize() (int, int) { return w.width, w.height }

func run(ctx context.Context, cfg hello.Config, opts options) (err error) {
	if err := cfg.Validate(); err != nil {
		return hello.SetupError("config", err)
	}
	api, err := newAPI(cfg.Backend)
	if err != nil {
		return hello.SetupError("backend", err)
	}

	var (
		window d3d12.Window
		source eventloop.Source
	)
	if opts.headless {
		window = offscreen{width: cfg.Width, height: cfg.Height}
		source = eventloop.NewQueue(nil)
	} else {
		if err := glfwwin.Init(); err != nil {
			return err
		}
		defer glfwwin.Terminate()
		win, err := glfwwin.New(glfwwin.Config{
			Title:        cfg.Title,
			Width:        cfg.Width,
			Height:       cfg.Height,
			API:          glfwwin.OpenGL,
			SwapInterval: cfg.VSync,
		})
		if err != nil {
			return err
		}
		defer win.Close()
		window, source = win, win
	}

	capt := newCapture(window, opts.screenshot != "")
	s, err := samples.New(opts.sample, samples.Env{API: api, Window: capt, Config: cfg})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	loop := eventloop.Loop{
		Source: source,
		Redraw: func() error {
			s.Update()
			return s.Render()
		},
		OnResize: func(width, height int) {
			slog.Debug("window resized; the swap chain keeps its size", "width", width, "height", height)
		},
		ExitOnEscape: true,
		MaxFrames:    opts.frames,
	}
	if err := loop.Run(ctx); err != nil {
		return err
	}
	slog.Info("done", "sample", s.Name(), "frames", loop.Frames())

	if opts.screenshot != "" {
		img := capt.Last()
		if img == nil {
			return fmt.Errorf("screenshot: no frame was presented")
		}
		if err := hello.SaveImage(opts.screenshot, img); err != nil {
			return err
		}
		slog.Info("screenshot saved", "path", opts.screenshot)
	}
	return nil
}
