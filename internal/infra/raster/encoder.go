// Package raster paints decoded frames onto offscreen surfaces and encodes
// them as portable images.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/ysyms/lastFrameV2/internal/domain/port"
	"golang.org/x/image/draw"
)

type Encoder struct {
	compression png.CompressionLevel
}

func NewEncoder(compression png.CompressionLevel) *Encoder {
	return &Encoder{compression: compression}
}

// Rasterize paints the session's current frame onto a width x height surface.
// A frame of a different size is scaled to fill it.
func (e *Encoder) Rasterize(session port.DecodeSession, width, height int) (port.Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("surface unavailable for %dx%d", width, height)
	}
	frame, err := session.CurrentFrame()
	if err != nil {
		return nil, fmt.Errorf("current frame: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	src := frame.Bounds()
	if src.Dx() == width && src.Dy() == height {
		draw.Draw(dst, dst.Bounds(), frame, src.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), frame, src, draw.Src, nil)
	}

	return &surface{img: dst, compression: e.compression}, nil
}

type surface struct {
	img         *image.RGBA
	compression png.CompressionLevel
}

func (s *surface) Image() image.Image {
	return s.img
}

func (s *surface) Encode(format string) ([]byte, error) {
	switch format {
	case "png":
		var buf bytes.Buffer
		enc := png.Encoder{CompressionLevel: s.compression}
		if err := enc.Encode(&buf, s.img); err != nil {
			return nil, fmt.Errorf("png encode: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
}

// ParseCompression maps a config value to a PNG compression level.
func ParseCompression(s string) (png.CompressionLevel, error) {
	switch s {
	case "", "default":
		return png.DefaultCompression, nil
	case "none":
		return png.NoCompression, nil
	case "speed":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	default:
		return 0, fmt.Errorf("unknown png compression %q", s)
	}
}
