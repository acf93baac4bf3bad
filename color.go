package hello

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is a linear RGBA clear or vertex color.
// Each component is in the range [0, 1].
type Color struct {
	R, G, B, A float32
}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float32) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// NRGBA converts c to an 8-bit non-premultiplied color.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: to8(c.R),
		G: to8(c.G),
		B: to8(c.B),
		A: to8(c.A),
	}
}

// Array returns the components in R, G, B, A order.
func (c Color) Array() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

// Hex creates a color from a hex string.
// Supports formats: "RGB", "RGBA", "RRGGBB", "RRGGBBAA", with or without '#'.
func Hex(hex string) (Color, error) {
	s := strings.TrimPrefix(hex, "#")

	var width int
	switch len(s) {
	case 3, 4:
		width = 1
	case 6, 8:
		width = 2
	default:
		return Color{}, fmt.Errorf("hello: invalid hex color %q", hex)
	}

	c := [4]float32{0, 0, 0, 1}
	for i := 0; i*width < len(s); i++ {
		v, err := strconv.ParseUint(s[i*width:(i+1)*width], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("hello: invalid hex color %q", hex)
		}
		if width == 1 {
			v *= 17
		}
		c[i] = float32(v) / 255
	}
	return Color{R: c[0], G: c[1], B: c[2], A: c[3]}, nil
}

// String returns the color as "#RRGGBBAA".
func (c Color) String() string {
	n := c.NRGBA()
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so colors can be
// written as hex strings in config files.
func (c *Color) UnmarshalText(text []byte) error {
	v, err := Hex(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func to8(x float32) uint8 {
	x = x*255 + 0.5
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x)
}

// Clear colors used by the samples.
var (
	// CornflowerNavy is the D3D12 hello-window background.
	CornflowerNavy = Color{R: 0, G: 0.2, B: 0.4, A: 1}
	// DarkTeal is the background of the GL color and matrix triangles.
	DarkTeal = Color{R: 0, G: 0.1, B: 0.1, A: 1}
	// Slate is the background of the GL moving triangle.
	Slate = Color{R: 0.2, G: 0.3, B: 0.3, A: 1}

	Red   = RGB(1, 0, 0)
	Green = RGB(0, 1, 0)
	Blue  = RGB(0, 0, 1)
)
