package icontheme

import (
	"path/filepath"
	"strings"
)

// FormatMask records which image formats exist for one icon base name in
// one directory. Bits are ordered by rising preference.
type FormatMask uint8

const (
	FormatNone FormatMask = 0
	FormatXPM  FormatMask = 1 << 0
	FormatSVG  FormatMask = 1 << 1
	FormatPNG  FormatMask = 1 << 2

	// FormatIconFile flags the presence of a sidecar ".icon" descriptor;
	// it never wins a format choice on its own.
	FormatIconFile FormatMask = 1 << 3
)

// formatForPath classifies a filename by extension.
func formatForPath(path string) FormatMask {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG
	case ".svg":
		return FormatSVG
	case ".xpm":
		return FormatXPM
	case ".icon":
		return FormatIconFile
	}
	return FormatNone
}

// bestFormat picks the highest-priority usable format out of mask.
// PNG beats SVG beats XPM; SVG is skipped unless allowed.
func bestFormat(mask FormatMask, allowSVG bool) FormatMask {
	if mask&FormatPNG != 0 {
		return FormatPNG
	}
	if allowSVG && mask&FormatSVG != 0 {
		return FormatSVG
	}
	if mask&FormatXPM != 0 {
		return FormatXPM
	}
	return FormatNone
}

func (m FormatMask) extension() string {
	switch m {
	case FormatPNG:
		return ".png"
	case FormatSVG:
		return ".svg"
	case FormatXPM:
		return ".xpm"
	case FormatIconFile:
		return ".icon"
	}
	return ""
}

// stripIconExtension removes a recognized image extension from a
// filename, returning the icon base name.
func stripIconExtension(name string) (string, FormatMask) {
	format := formatForPath(name)
	if format == FormatNone {
		return name, FormatNone
	}
	return name[:len(name)-len(filepath.Ext(name))], format
}
