// Command hellowindow opens an empty window without a GL context, the way
// a Vulkan-style backend would, and logs the adapters the backend reports.
// Escape or closing the window exits.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/gogpu/hello"
	"github.com/gogpu/hello/d3d12/halnative"
	"github.com/gogpu/hello/eventloop"
	"github.com/gogpu/hello/internal/cli"
	"github.com/gogpu/hello/internal/glfwwin"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	var (
		backend = flag.String("backend", "auto", "backend to list adapters of: vulkan, noop or auto")
		width   = flag.Int("width", 800, "window width")
		height  = flag.Int("height", 600, "window height")
		frames  = flag.Int("frames", 0, "exit after n frames (0: run until closed)")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()
	cli.SetupLogging(*verbose)

	if err := listAdapters(*backend); err != nil {
		// The window is still useful without a GPU backend.
		slog.Warn("adapter enumeration failed", "backend", *backend, "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, *width, *height, *frames); err != nil {
		log.Fatalf("hellowindow: %v", err)
	}
}

func listAdapters(backend string) error {
	opt, err := halnative.ParseBackend(backend)
	if err != nil {
		return err
	}
	infos, err := halnative.New(opt).ListAdapters()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		slog.Warn("no adapters", "backend", backend)
	}
	for i, info := range infos {
		slog.Info("adapter",
			"index", i,
			"name", info.Name,
			"type", info.DeviceType,
			"software", info.Software,
		)
	}
	return nil
}

func run(ctx context.Context, width, height, frames int) error {
	if err := glfwwin.Init(); err != nil {
		return err
	}
	defer glfwwin.Terminate()

	win, err := glfwwin.New(glfwwin.Config{
		Title:    "hello window",
		Width:    width,
		Height:   height,
		API:      glfwwin.NoAPI,
		IdleWait: time.Second / 60,
	})
	if err != nil {
		return err
	}
	defer win.Close()

	loop := eventloop.Loop{
		Source: win,
		OnResize: func(w, h int) {
			hello.Logger().Debug("resized", "width", w, "height", h)
		},
		ExitOnEscape: true,
		MaxFrames:    frames,
	}
	return loop.Run(ctx)
}
