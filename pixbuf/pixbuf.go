// Package pixbuf provides the raster image handle used by the icon theme
// engine, plus the codec boundary for decoding and rescaling image files.
package pixbuf

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Interp selects the interpolation used for rescaling.
type Interp int

const (
	// InterpBilinear is a fast quality/speed tradeoff, good for icon sizes.
	InterpBilinear Interp = iota
	// InterpCatmullRom is a high-quality interpolator for downscaling.
	InterpCatmullRom
	// InterpNearest is nearest-neighbor, for pixel-exact tests.
	InterpNearest
)

func (i Interp) scaler() xdraw.Scaler {
	switch i {
	case InterpCatmullRom:
		return xdraw.CatmullRom
	case InterpNearest:
		return xdraw.NearestNeighbor
	default:
		return xdraw.BiLinear
	}
}

// Pixbuf is a decoded raster image. The pixel storage is shared between
// copies made with SharePixels, which is how the engine hands out proxy
// handles without duplicating pixels.
type Pixbuf struct {
	img     *image.NRGBA
	release func()
}

// New creates a transparent pixbuf of the given size.
func New(width, height int) *Pixbuf {
	return &Pixbuf{img: image.NewNRGBA(image.Rect(0, 0, width, height))}
}

// FromImage converts any image into a pixbuf, copying pixels.
func FromImage(src image.Image) *Pixbuf {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		out := image.NewNRGBA(n.Rect)
		copy(out.Pix, n.Pix)
		return &Pixbuf{img: out}
	}
	b := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), src, b.Min, draw.Src)
	return &Pixbuf{img: out}
}

// Width returns the pixel width.
func (p *Pixbuf) Width() int { return p.img.Rect.Dx() }

// Height returns the pixel height.
func (p *Pixbuf) Height() int { return p.img.Rect.Dy() }

// Image exposes the backing image. Callers must treat it as read-only
// unless they own the pixbuf.
func (p *Pixbuf) Image() *image.NRGBA { return p.img }

// Pix returns the raw pixel storage. Two pixbufs share storage exactly
// when their Pix slices alias the same array.
func (p *Pixbuf) Pix() []uint8 { return p.img.Pix }

// Copy returns a deep copy with private pixel storage.
func (p *Pixbuf) Copy() *Pixbuf {
	out := image.NewNRGBA(p.img.Rect)
	copy(out.Pix, p.img.Pix)
	return &Pixbuf{img: out}
}

// SharePixels returns a new handle over the same pixel storage.
func (p *Pixbuf) SharePixels() *Pixbuf {
	shared := *p.img
	return &Pixbuf{img: &shared}
}

// Proxy returns a handle over the same pixel storage whose Release
// method invokes onRelease exactly once. The icon cache uses this to
// learn when a caller is done with a rendered image.
func (p *Pixbuf) Proxy(onRelease func()) *Pixbuf {
	shared := *p.img
	return &Pixbuf{img: &shared, release: onRelease}
}

// Release signals that the caller no longer needs this handle. It is a
// no-op on handles not produced by Proxy, and on second and later calls.
func (p *Pixbuf) Release() {
	if p.release != nil {
		fn := p.release
		p.release = nil
		fn()
	}
}

// ScaleSimple returns a new pixbuf scaled to width x height.
func (p *Pixbuf) ScaleSimple(width, height int, interp Interp) *Pixbuf {
	if width <= 0 || height <= 0 {
		return New(0, 0)
	}
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	interp.scaler().Scale(out, out.Bounds(), p.img, p.img.Bounds(), xdraw.Over, nil)
	return &Pixbuf{img: out}
}

// Composite scales src to width x height and draws it over p at (x, y).
func (p *Pixbuf) Composite(src *Pixbuf, x, y, width, height int, interp Interp) {
	if width <= 0 || height <= 0 {
		return
	}
	dst := image.Rect(x, y, x+width, y+height)
	interp.scaler().Scale(p.img, dst, src.img, src.img.Bounds(), xdraw.Over, nil)
}
