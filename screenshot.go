package hello

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// EncodeImage writes img to w in the given format ("png", "bmp" or "tiff").
func EncodeImage(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	case "tif", "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedImageFormat, format)
	}
}

// SaveImage writes img to path, choosing the encoder from the extension.
func SaveImage(path string, img image.Image) (err error) {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("save image: %w", cerr)
		}
	}()
	if err := EncodeImage(f, img, format); err != nil {
		return fmt.Errorf("save image %s: %w", path, err)
	}
	return nil
}
