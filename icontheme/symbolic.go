package icontheme

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/icontheme/pixbuf"
)

// RGBA is a color with channels in [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// Default colors for the optional symbolic states.
var (
	DefaultSuccessColor = RGBA{R: 78.0 / 255, G: 154.0 / 255, B: 6.0 / 255, A: 1}
	DefaultWarningColor = RGBA{R: 245.0 / 255, G: 121.0 / 255, B: 0, A: 1}
	DefaultErrorColor   = RGBA{R: 204.0 / 255, G: 0, B: 0, A: 1}
)

// symbolicColorTolerance is the per-channel slop within which two color
// tuples reuse the same rendered raster.
const symbolicColorTolerance = 1e-4

// symbolicNode is one memoized recolored rendering. The chain is small
// in practice, rarely more than a handful of color tuples, so a linear
// scan beats any keyed structure.
type symbolicNode struct {
	colors [4]RGBA
	pb     *pixbuf.Pixbuf
	next   *symbolicNode
}

// IsSymbolic reports whether the resolved file is a vector image whose
// name carries the symbolic suffix. Classification is by name only,
// never content.
func (info *IconInfo) IsSymbolic() bool {
	if !info.isSVG {
		return false
	}
	base, _ := stripIconExtension(filepath.Base(info.filename))
	return strings.HasSuffix(base, "-symbolic")
}

// LoadSymbolic renders the icon recolored for the given foreground and
// optional state colors; nil state colors fall back to the defaults.
// Non-symbolic icons load normally, reported by the second return. The
// rendered raster is memoized per effective color tuple.
func (info *IconInfo) LoadSymbolic(fg RGBA, success, warning, errColor *RGBA) (*pixbuf.Pixbuf, bool, error) {
	if !info.IsSymbolic() {
		pb, err := info.LoadIcon()
		return pb, false, err
	}

	info.mu.Lock()
	defer info.mu.Unlock()

	key := symbolicMatchKey(fg, success, warning, errColor)
	if node := info.findSymbolicLocked(key); node != nil {
		return info.proxyLocked(node.pb), true, nil
	}

	pb, err := info.renderSymbolicLocked(fg, success, warning, errColor)
	if err != nil {
		return nil, true, err
	}
	info.symbolic = &symbolicNode{colors: key, pb: pb, next: info.symbolic}
	return info.proxyLocked(pb), true, nil
}

func (info *IconInfo) findSymbolicLocked(key [4]RGBA) *symbolicNode {
	for node := info.symbolic; node != nil; node = node.next {
		if colorTuplesNear(node.colors, key) {
			return node
		}
	}
	return nil
}

func (info *IconInfo) renderSymbolicLocked(fg RGBA, success, warning, errColor *RGBA) (*pixbuf.Pixbuf, error) {
	data, err := os.ReadFile(info.filename)
	if err != nil {
		return nil, &LoadError{Path: info.filename, Err: err}
	}

	size := info.desiredSize * info.desiredScale
	if size <= 0 {
		size = info.dirSize * info.dirScale
	}
	doc := symbolicSVG(data, size, size,
		fg,
		colorOrDefault(success, DefaultSuccessColor),
		colorOrDefault(warning, DefaultWarningColor),
		colorOrDefault(errColor, DefaultErrorColor))

	pb, err := info.codec.DecodeAtSize(doc, size, size)
	if err != nil {
		return nil, &LoadError{Path: info.filename, Err: err}
	}
	if len(info.emblems) > 0 {
		pb = info.compositeEmblemsLocked(pb)
	}
	return pb, nil
}

// symbolicSVG wraps the source markup in a document that overrides the
// default fill and the warning/error/success classes, embedding the
// original via an XInclude data URI so its own markup needs no escaping.
func symbolicSVG(source []byte, width, height int, fg, success, warning, errColor RGBA) []byte {
	encoded := base64.StdEncoding.EncodeToString(source)
	doc := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg version="1.1"
     xmlns="http://www.w3.org/2000/svg"
     xmlns:xi="http://www.w3.org/2001/XInclude"
     width="%d"
     height="%d">
  <style type="text/css">
    rect,path {
      fill: %s !important;
    }
    .warning {
      fill: %s !important;
    }
    .error {
      fill: %s !important;
    }
    .success {
      fill: %s !important;
    }
  </style>
  <xi:include href="data:text/xml;base64,%s"/>
</svg>`,
		width, height,
		cssColor(fg), cssColor(warning), cssColor(errColor), cssColor(success),
		encoded)
	return []byte(doc)
}

func cssColor(c RGBA) string {
	return fmt.Sprintf("rgb(%d,%d,%d)", channelByte(c.R), channelByte(c.G), channelByte(c.B))
}

func channelByte(v float64) int {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return int(v*255 + 0.5)
}

// symbolicMatchKey builds the tuple used for memoization matching. An
// unset optional color matches as fully transparent, which is distinct
// from any default it renders with.
func symbolicMatchKey(fg RGBA, success, warning, errColor *RGBA) [4]RGBA {
	key := [4]RGBA{fg}
	if success != nil {
		key[1] = *success
	}
	if warning != nil {
		key[2] = *warning
	}
	if errColor != nil {
		key[3] = *errColor
	}
	return key
}

func colorOrDefault(c *RGBA, fallback RGBA) RGBA {
	if c != nil {
		return *c
	}
	return fallback
}

func colorTuplesNear(a, b [4]RGBA) bool {
	for i := range a {
		if !colorsNear(a[i], b[i]) {
			return false
		}
	}
	return true
}

func colorsNear(a, b RGBA) bool {
	return absf(a.R-b.R) <= symbolicColorTolerance &&
		absf(a.G-b.G) <= symbolicColorTolerance &&
		absf(a.B-b.B) <= symbolicColorTolerance &&
		absf(a.A-b.A) <= symbolicColorTolerance
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
