// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halnative

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/hello/d3d12"
)

// copyPitchAlignment is the row alignment of texture-to-buffer copies.
const copyPitchAlignment = 256

// backBuffer is one texture of a swap chain's ring.
type backBuffer struct {
	tex    hal.Texture
	index  int
	width  uint32
	height uint32
}

// Release is a no-op; the swap chain owns its textures.
func (b *backBuffer) Release() {}

// SwapChain implements d3d12.SwapChain as an offscreen ring of textures.
type SwapChain struct {
	device    *Device
	desc      d3d12.SwapChainDesc
	buffers   []*backBuffer
	index     uint32
	presenter d3d12.Presenter

	staging    hal.Buffer
	stagingRow uint32
	last       *image.RGBA
	released   bool
}

var _ d3d12.SwapChain = (*SwapChain)(nil)

func newSwapChain(d *Device, window d3d12.Window, desc d3d12.SwapChainDesc) (_ *SwapChain, ferr error) {
	if desc.BufferCount < 2 {
		return nil, fmt.Errorf("%w: swap chain needs at least 2 buffers, got %d", d3d12.ErrInvalidArg, desc.BufferCount)
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		w, h := window.ClientSize()
		desc.Width, desc.Height = w, h
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: swap chain size %dx%d", d3d12.ErrInvalidArg, desc.Width, desc.Height)
	}
	format, err := textureFormat(desc.Format)
	if err != nil {
		return nil, err
	}

	sc := &SwapChain{device: d, desc: desc}
	sc.presenter, _ = window.(d3d12.Presenter)
	defer func() {
		if ferr != nil {
			sc.Release()
		}
	}()

	w, h := uint32(desc.Width), uint32(desc.Height)
	for i := 0; i < desc.BufferCount; i++ {
		tex, err := d.hal.CreateTexture(&hal.TextureDescriptor{
			Label:         fmt.Sprintf("back_buffer_%d", i),
			Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        format,
			Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
		})
		if err != nil {
			return nil, fmt.Errorf("halnative: create back buffer %d: %w", i, err)
		}
		sc.buffers = append(sc.buffers, &backBuffer{tex: tex, index: i, width: w, height: h})
	}

	if err := sc.initialTransition(); err != nil {
		return nil, err
	}

	if sc.presenter != nil {
		sc.stagingRow = (w*4 + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
		sc.staging, err = d.hal.CreateBuffer(&hal.BufferDescriptor{
			Label: "swap_chain_readback",
			Size:  uint64(sc.stagingRow) * uint64(h),
			Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("halnative: create readback buffer: %w", err)
		}
	}
	return sc, nil
}

// initialTransition moves every back buffer into the present (copy-source)
// usage so the first frame's Present->RenderTarget barrier holds.
func (sc *SwapChain) initialTransition() error {
	barriers := make([]hal.TextureBarrier, len(sc.buffers))
	for i, b := range sc.buffers {
		barriers[i] = hal.TextureBarrier{
			Texture: b.tex,
			Usage:   hal.TextureUsageTransition{OldUsage: 0, NewUsage: gputypes.TextureUsageCopySrc},
		}
	}
	return sc.submit("swap_chain_init", func(enc hal.CommandEncoder) {
		enc.TransitionTextures(barriers)
	})
}

// submit records, submits and waits for a one-off command buffer.
func (sc *SwapChain) submit(label string, record func(hal.CommandEncoder)) error {
	d := sc.device
	enc, err := d.hal.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("halnative: %s: create encoder: %w", label, err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return fmt.Errorf("halnative: %s: begin encoding: %w", label, err)
	}
	record(enc)
	cmdBuf, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("halnative: %s: end encoding: %w", label, err)
	}
	defer d.hal.FreeCommandBuffer(cmdBuf)

	idx, err := d.submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("halnative: %s: %w", label, err)
	}
	if err := d.waitSubmission(idx); err != nil {
		return fmt.Errorf("halnative: %s: %w", label, err)
	}
	return nil
}

// Desc implements d3d12.SwapChain.
func (sc *SwapChain) Desc() d3d12.SwapChainDesc { return sc.desc }

// CurrentBackBufferIndex implements d3d12.SwapChain.
func (sc *SwapChain) CurrentBackBufferIndex() uint32 { return sc.index }

// Buffer implements d3d12.SwapChain.
func (sc *SwapChain) Buffer(index uint32) (d3d12.Resource, error) {
	if int(index) >= len(sc.buffers) {
		return nil, fmt.Errorf("%w: back buffer %d of %d", d3d12.ErrInvalidArg, index, len(sc.buffers))
	}
	return sc.buffers[index], nil
}

// LastImage returns the image handed to the window by the last Present, or
// nil when the window is not a d3d12.Presenter.
func (sc *SwapChain) LastImage() *image.RGBA { return sc.last }

// Present implements d3d12.SwapChain. The current back buffer must be in
// the present state.
func (sc *SwapChain) Present(syncInterval uint32, _ d3d12.PresentFlags) error {
	if sc.released {
		return fmt.Errorf("%w: present on released swap chain", d3d12.ErrInvalidArg)
	}
	if sc.presenter != nil {
		img, err := sc.readback(sc.buffers[sc.index])
		if err != nil {
			return err
		}
		sc.last = img
		if err := sc.presenter.PresentImage(img, syncInterval); err != nil {
			return fmt.Errorf("halnative: present: %w", err)
		}
	}
	sc.index = (sc.index + 1) % uint32(len(sc.buffers))
	return nil
}

// readback copies b into a new image.
func (sc *SwapChain) readback(b *backBuffer) (*image.RGBA, error) {
	err := sc.submit("swap_chain_readback", func(enc hal.CommandEncoder) {
		enc.CopyTextureToBuffer(b.tex, sc.staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: sc.stagingRow, RowsPerImage: b.height},
			TextureBase:  hal.ImageCopyTexture{Texture: b.tex, MipLevel: 0},
			Size:         hal.Extent3D{Width: b.width, Height: b.height, DepthOrArrayLayers: 1},
		}})
	})
	if err != nil {
		return nil, err
	}

	size := uint64(sc.stagingRow) * uint64(b.height)
	d := sc.device.hal
	mapping, err := d.MapBuffer(sc.staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("halnative: map back buffer %d: %w", b.index, err)
	}
	data := unsafe.Slice((*byte)(mapping.Ptr), size)
	img := image.NewRGBA(image.Rect(0, 0, int(b.width), int(b.height)))
	unpadRows(img.Pix, data, int(b.width)*4, int(sc.stagingRow), int(b.height))
	if err := d.UnmapBuffer(sc.staging); err != nil {
		return nil, fmt.Errorf("halnative: unmap back buffer %d: %w", b.index, err)
	}
	if sc.desc.Format == d3d12.FormatB8G8R8A8Unorm {
		swapRB(img.Pix)
	}
	return img, nil
}

// unpadRows copies rows rowBytes long from src, whose rows are pitch
// apart, into the tightly packed dst.
func unpadRows(dst, src []byte, rowBytes, pitch, rows int) {
	for y := 0; y < rows; y++ {
		copy(dst[y*rowBytes:(y+1)*rowBytes], src[y*pitch:y*pitch+rowBytes])
	}
}

// swapRB converts BGRA pixels to RGBA in place.
func swapRB(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}

// Release implements d3d12.SwapChain.
func (sc *SwapChain) Release() {
	if sc.released {
		return
	}
	sc.released = true
	d := sc.device.hal
	if sc.staging != nil {
		d.DestroyBuffer(sc.staging)
	}
	for _, b := range sc.buffers {
		d.DestroyTexture(b.tex)
	}
	sc.buffers = nil
}
