package main

import (
	"image"

	"github.com/gogpu/hello/d3d12"
)

// capture decorates the sample's window: it keeps a copy of the last
// presented image and passes frames on to the real window when that can
// display them.
type capture struct {
	window d3d12.Window
	keep   bool
	last   *image.RGBA
}

var (
	_ d3d12.Presenter       = (*capture)(nil)
	_ d3d12.AltEnterToggler = (*capture)(nil)
)

func newCapture(w d3d12.Window, keep bool) *capture {
	return &capture{window: w, keep: keep}
}

func (c *capture) ClientSize() (int, int) { return c.window.ClientSize() }

func (c *capture) PresentImage(img *image.RGBA, syncInterval uint32) error {
	if c.keep {
		if c.last == nil || c.last.Rect != img.Rect {
			c.last = image.NewRGBA(img.Rect)
		}
		copy(c.last.Pix, img.Pix)
	}
	if p, ok := c.window.(d3d12.Presenter); ok {
		return p.PresentImage(img, syncInterval)
	}
	return nil
}

func (c *capture) SetAltEnterFullscreen(enabled bool) {
	if t, ok := c.window.(d3d12.AltEnterToggler); ok {
		t.SetAltEnterFullscreen(enabled)
	}
}

// Last returns the last presented image, or nil.
func (c *capture) Last() *image.RGBA { return c.last }
