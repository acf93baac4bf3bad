package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/gogpu/hello"
	"github.com/gogpu/hello/samples"
)

type recordingWindow struct {
	offscreen
	presented int
	altEnter  *bool
}

func (w *recordingWindow) PresentImage(*image.RGBA, uint32) error {
	w.presented++
	return nil
}

func (w *recordingWindow) SetAltEnterFullscreen(enabled bool) { w.altEnter = &enabled }

func TestCaptureCopiesAndForwards(t *testing.T) {
	w := &recordingWindow{offscreen: offscreen{width: 4, height: 2}}
	c := newCapture(w, true)

	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	if err := c.PresentImage(img, 1); err != nil {
		t.Fatal(err)
	}
	img.Set(1, 1, color.RGBA{B: 255, A: 255})

	if w.presented != 1 {
		t.Errorf("window saw %d presents, want 1", w.presented)
	}
	if got := c.Last().RGBAAt(1, 1); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("captured pixel = %v, want the color at present time", got)
	}

	c.SetAltEnterFullscreen(false)
	if w.altEnter == nil || *w.altEnter {
		t.Error("alt+enter setting not forwarded")
	}
	if width, height := c.ClientSize(); width != 4 || height != 2 {
		t.Errorf("ClientSize() = %dx%d", width, height)
	}
}

func TestCaptureWithoutKeep(t *testing.T) {
	c := newCapture(offscreen{width: 1, height: 1}, false)
	if err := c.PresentImage(image.NewRGBA(image.Rect(0, 0, 1, 1)), 0); err != nil {
		t.Fatal(err)
	}
	if c.Last() != nil {
		t.Error("capture kept an image it was not asked to keep")
	}
}

func TestRunHeadlessScreenshot(t *testing.T) {
	path := t.TempDir() + "/frame.png"
	cfg := hello.NewConfig(hello.WithSize(64, 48), hello.WithBackend("sim"))
	err := run(t.Context(), cfg, options{
		sample:     samples.HelloWindowName,
		frames:     2,
		screenshot: path,
		headless:   true,
	})
	if err != nil {
		t.Fatalf("run() = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Size(); got != image.Pt(64, 48) {
		t.Errorf("screenshot size = %v, want 64x48", got)
	}
	want := hello.CornflowerNavy.NRGBA()
	if got := color.NRGBAModel.Convert(img.At(10, 10)).(color.NRGBA); got != want {
		t.Errorf("screenshot pixel = %v, want %v", got, want)
	}
}

func TestRunUnknownBackend(t *testing.T) {
	cfg := hello.NewConfig(hello.WithBackend("metal"))
	err := run(t.Context(), cfg, options{sample: samples.HelloWindowName, headless: true, frames: 1})
	if !hello.IsSetup(err) {
		t.Errorf("run() = %v, want a setup error", err)
	}
}
