package pixbuf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"

	// Raster formats the standard codec can decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrNoSVGSupport is returned when SVG data reaches a codec that has no
// rasterizer configured.
var ErrNoSVGSupport = errors.New("pixbuf: no SVG rasterizer configured")

// Codec decodes image bytes into pixbufs. The icon theme engine treats it
// as an opaque collaborator; tests substitute fakes.
type Codec interface {
	// Decode decodes data at its natural size.
	Decode(data []byte) (*Pixbuf, error)

	// DecodeAtSize decodes data scaled to fit within width x height,
	// preserving the aspect ratio. For vector data this rasterizes
	// directly at the target size with no intermediate raster.
	DecodeAtSize(data []byte, width, height int) (*Pixbuf, error)
}

// SVGRasterizer renders SVG markup at a target pixel size. Implementations
// are provided by the embedding application; the engine only synthesizes
// and forwards markup.
type SVGRasterizer interface {
	Rasterize(svg []byte, width, height int) (*Pixbuf, error)
}

// StdCodec decodes the common raster formats (PNG, JPEG, GIF, BMP, WebP)
// with the standard image registry and delegates SVG data to an optional
// rasterizer.
type StdCodec struct {
	// SVG handles vector data when non-nil; SVG input errors otherwise.
	SVG SVGRasterizer
}

var _ Codec = (*StdCodec)(nil)

// SupportsSVG reports whether vector data can be decoded. The theme
// engine skips SVG candidates when it returns false.
func (c *StdCodec) SupportsSVG() bool { return c.SVG != nil }

// Decode implements Codec.
func (c *StdCodec) Decode(data []byte) (*Pixbuf, error) {
	if IsSVGData(data) {
		if c.SVG == nil {
			return nil, ErrNoSVGSupport
		}
		return c.SVG.Rasterize(data, 0, 0)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("pixbuf: decode: %w", err)
	}
	return FromImage(img), nil
}

// DecodeAtSize implements Codec.
func (c *StdCodec) DecodeAtSize(data []byte, width, height int) (*Pixbuf, error) {
	if IsSVGData(data) {
		if c.SVG == nil {
			return nil, ErrNoSVGSupport
		}
		return c.SVG.Rasterize(data, width, height)
	}
	src, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	w, h := fitWithin(src.Width(), src.Height(), width, height)
	if w == src.Width() && h == src.Height() {
		return src, nil
	}
	return src.ScaleSimple(w, h, InterpBilinear), nil
}

// DecodeFile decodes the image file at path at its natural size.
func DecodeFile(c Codec, path string) (*Pixbuf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pixbuf: read %s: %w", path, err)
	}
	return c.Decode(data)
}

// IsSVGData sniffs whether data looks like SVG markup.
func IsSVGData(data []byte) bool {
	head := bytes.TrimLeft(data, " \t\r\n\xef\xbb\xbf")
	return bytes.HasPrefix(head, []byte("<?xml")) ||
		bytes.HasPrefix(head, []byte("<svg")) ||
		bytes.HasPrefix(head, []byte("<!DOCTYPE svg"))
}

// fitWithin computes the largest size within maxW x maxH that preserves
// the w:h aspect ratio. Zero or negative bounds mean "natural size".
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return w, h
	}
	scaleW := float64(maxW) / float64(w)
	scaleH := float64(maxH) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	outW := int(float64(w)*scale + 0.5)
	outH := int(float64(h)*scale + 0.5)
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	return outW, outH
}
