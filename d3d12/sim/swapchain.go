package sim

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/gogpu/hello"
	"github.com/gogpu/hello/d3d12"
)

// SwapChain implements d3d12.SwapChain.
type SwapChain struct {
	*object
	api      *API
	queue    *Queue
	window   d3d12.Window
	desc     d3d12.SwapChainDesc
	buffers  []*Texture
	index    uint32
	presents uint64
}

var _ d3d12.SwapChain = (*SwapChain)(nil)

// Desc implements d3d12.SwapChain.
func (s *SwapChain) Desc() d3d12.SwapChainDesc { return s.desc }

// CurrentBackBufferIndex implements d3d12.SwapChain.
func (s *SwapChain) CurrentBackBufferIndex() uint32 { return s.index }

// Presents returns the number of successful presents.
func (s *SwapChain) Presents() uint64 { return s.presents }

// BackBuffer returns back buffer i for inspection.
func (s *SwapChain) BackBuffer(i int) *Texture { return s.buffers[i] }

// Buffer implements d3d12.SwapChain.
func (s *SwapChain) Buffer(index uint32) (d3d12.Resource, error) {
	if int(index) >= len(s.buffers) {
		return nil, fmt.Errorf("%w: back buffer %d of %d", d3d12.ErrInvalidArg, index, len(s.buffers))
	}
	return &bufferRef{object: s.api.newObject("BackBufferRef", nil), tex: s.buffers[index]}, nil
}

// Present implements d3d12.SwapChain. The current back buffer must be in
// the Present state. Windows implementing d3d12.Presenter receive an image
// filled with the buffer's last clear color.
func (s *SwapChain) Present(syncInterval uint32, flags d3d12.PresentFlags) error {
	if err := s.api.check("Present"); err != nil {
		return err
	}
	cur := s.buffers[s.index]
	if cur.state != d3d12.ResourceStatePresent {
		return fmt.Errorf("%w: presenting buffer %d in state %s", d3d12.ErrInvalidBarrier, cur.index, cur.state)
	}
	s.api.record("Present", uint64(s.index), fmt.Sprintf("sync=%d", syncInterval))

	if p, ok := s.window.(d3d12.Presenter); ok {
		if err := p.PresentImage(cur.image(), syncInterval); err != nil {
			return fmt.Errorf("present image: %w", err)
		}
	}
	s.index = (s.index + 1) % uint32(len(s.buffers))
	s.presents++
	return nil
}

// image renders the buffer as its clear color.
func (t *Texture) image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	c := hello.Color{R: t.clear[0], G: t.clear[1], B: t.clear[2], A: t.clear[3]}.NRGBA()
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}
