package glfwwin

import (
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/hello"
)

// blitter copies an RGBA image to the default framebuffer through a
// texture attached to a read framebuffer.
type blitter struct {
	tex, fbo      uint32
	width, height int
}

func newBlitter() *blitter {
	b := &blitter{}
	gl.GenTextures(1, &b.tex)
	gl.BindTexture(gl.TEXTURE_2D, b.tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.GenFramebuffers(1, &b.fbo)
	return b
}

func (b *blitter) upload(img *image.RGBA) {
	size := img.Rect.Size()
	gl.BindTexture(gl.TEXTURE_2D, b.tex)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	if size.X != b.width || size.Y != b.height {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(size.X), int32(size.Y), 0,
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
		b.width, b.height = size.X, size.Y

		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, b.fbo)
		gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, b.tex, 0)
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(size.X), int32(size.Y),
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	}
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
}

// draw scales the texture over dst, flipping rows: image rows run top
// down, GL framebuffer rows bottom up.
func (b *blitter) draw(dstW, dstH int) {
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, b.fbo)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.BlitFramebuffer(
		0, 0, int32(b.width), int32(b.height),
		0, int32(dstH), int32(dstW), 0,
		gl.COLOR_BUFFER_BIT, gl.LINEAR,
	)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
}

func (b *blitter) delete() {
	gl.DeleteFramebuffers(1, &b.fbo)
	gl.DeleteTextures(1, &b.tex)
}

// PresentImage implements d3d12.Presenter: img is shown on the next swap,
// which happens before PresentImage returns.
func (w *Window) PresentImage(img *image.RGBA, syncInterval uint32) error {
	if w.api != OpenGL {
		return hello.FrameError("present image", ErrNoContext)
	}
	if img == nil || img.Rect.Empty() {
		return nil
	}
	if w.blit == nil {
		w.blit = newBlitter()
	}
	if int(syncInterval) != w.swapInterval {
		glfw.SwapInterval(int(syncInterval))
		w.swapInterval = int(syncInterval)
	}
	w.blit.upload(img)
	width, height := w.win.GetFramebufferSize()
	w.blit.draw(width, height)
	w.win.SwapBuffers()
	return nil
}
