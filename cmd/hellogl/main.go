// Command hellogl runs the OpenGL samples.
//
// With -shaders dir, the program sources are read from
// dir/<program>.vert and dir/<program>.frag when present and reloaded
// whenever either file is saved.
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
	"github.com/gogpu/hello/eventloop"
	"github.com/gogpu/hello/glsample"
	"github.com/gogpu/hello/internal/cli"
	"github.com/gogpu/hello/internal/glfwwin"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	var (
		sample     = flag.String("sample", glsample.TriangleColorName, "sample to run")
		shaders    = flag.String("shaders", "", "directory of shader overrides, watched for changes")
		configPath = flag.String("config", "", "TOML config file")
		frames     = flag.Int("frames", 0, "exit after n frames (0: run until closed)")
		list       = flag.Bool("list", false, "list samples and exit")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *list {
		for _, name := range glsample.Names() {
			fmt.Println(name)
		}
		return
	}
	cli.SetupLogging(*verbose)

	cfg, err := cli.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("hellogl: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, cfg, *sample, *shaders, *frames); err != nil {
		log.Fatalf("hellogl: %v", err)
	}
}

func run(ctx context.Context, cfg hello.Config, name, shaders string, frames int) (err error) {
	if err := cfg.Validate(); err != nil {
		return hello.SetupError("config", err)
	}
	if err := glfwwin.Init(); err != nil {
		return err
	}
	defer glfwwin.Terminate()

	win, err := glfwwin.New(glfwwin.Config{
		Title:        cfg.Title,
		Width:        cfg.Width,
		Height:       cfg.Height,
		API:          glfwwin.OpenGL,
		Resizable:    true,
		SwapInterval: cfg.VSync,
	})
	if err != nil {
		return err
	}
	defer win.Close()

	s, err := glsample.New(name, glsample.Env{Config: cfg, ShaderDir: shaders})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	loop := eventloop.Loop{
		Source: win,
		Redraw: func() error {
			s.Update()
			if err := s.Render(); err != nil {
				return err
			}
			win.SwapBuffers()
			return nil
		},
		ExitOnEscape: true,
		MaxFrames:    frames,
	}
	if err := loop.Run(ctx); err != nil {
		return err
	}
	slog.Info("done", "sample", s.Name(), "frames", loop.Frames())
	return nil
}
