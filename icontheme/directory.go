package icontheme

import (
	"os"
	"path/filepath"
)

// DirType is the size-matching policy an icon directory declares.
type DirType int

const (
	// DirFixed matches only its nominal size.
	DirFixed DirType = iota
	// DirScalable matches any size within [MinSize, MaxSize].
	DirScalable
	// DirThreshold matches sizes within Threshold pixels of nominal.
	DirThreshold
	// DirUnthemed marks loose fallback files outside any theme; they
	// never participate in directory distance ranking.
	DirUnthemed
)

func (t DirType) String() string {
	switch t {
	case DirFixed:
		return "Fixed"
	case DirScalable:
		return "Scalable"
	case DirThreshold:
		return "Threshold"
	case DirUnthemed:
		return "Unthemed"
	}
	return "Unknown"
}

// DirIndex is a pre-built icon listing for one theme root, standing in
// for per-directory filesystem scans. Implementations typically read an
// on-disk cache file; the engine only queries, never writes.
type DirIndex interface {
	// HasDir reports whether the theme-relative subdirectory is indexed.
	HasDir(subdir string) bool
	// IconFormats returns the format mask recorded for name under subdir.
	IconFormats(subdir, name string) FormatMask
	// Icons enumerates the icon base names recorded under subdir.
	Icons(subdir string) []string
}

// DirIndexOpener produces a DirIndex for a theme root directory, or nil
// when no usable index exists there.
type DirIndexOpener func(themeRoot string) DirIndex

// themeDir is one concrete icon directory of a theme: a subdirectory
// declared in the theme descriptor, under one search-path root.
type themeDir struct {
	typ       DirType
	context   string
	size      int
	minSize   int
	maxSize   int
	threshold int
	scale     int

	// subdir is the theme-relative path, path the absolute one.
	subdir string
	path   string

	// Exactly one of icons or index is populated.
	icons map[string]FormatMask
	index DirIndex
}

// iconFormats returns the formats available for an icon base name.
func (d *themeDir) iconFormats(name string) FormatMask {
	if d.index != nil {
		return d.index.IconFormats(d.subdir, name)
	}
	return d.icons[name]
}

// iconNames enumerates the base names the directory provides.
func (d *themeDir) iconNames() []string {
	if d.index != nil {
		return d.index.Icons(d.subdir)
	}
	names := make([]string, 0, len(d.icons))
	for name := range d.icons {
		names = append(names, name)
	}
	return names
}

// iconPath builds the absolute path for name in the given format.
func (d *themeDir) iconPath(name string, format FormatMask) string {
	return filepath.Join(d.path, name+format.extension())
}

// matchesSize reports an exact match for the requested size and scale.
func (d *themeDir) matchesSize(size, scale int) bool {
	if d.scale != scale {
		return false
	}
	switch d.typ {
	case DirFixed:
		return d.size == size
	case DirScalable:
		return d.minSize <= size && size <= d.maxSize
	case DirThreshold:
		return d.size-d.threshold <= size && size <= d.size+d.threshold
	}
	return false
}

// sizeDistance computes how far the directory is from the requested
// size and scale, in scaled pixels. Exact matches are distance 0.
func (d *themeDir) sizeDistance(size, scale int) int {
	scaled := size * scale
	switch d.typ {
	case DirFixed:
		return abs(d.size*d.scale - scaled)
	case DirScalable:
		if scaled < d.minSize*d.scale {
			return d.minSize*d.scale - scaled
		}
		if scaled > d.maxSize*d.scale {
			return scaled - d.maxSize*d.scale
		}
		return 0
	case DirThreshold:
		if scaled < (d.size-d.threshold)*d.scale {
			return d.minSize*d.scale - scaled
		}
		if scaled > (d.size+d.threshold)*d.scale {
			return scaled - d.maxSize*d.scale
		}
		return 0
	}
	return abs(d.size*d.scale - scaled)
}

// isBetterMatch ranks candidate directory a against the running best b
// for one lookup. The precedence, highest first: exact match; nominal
// size at or above the request (downscaling beats upscaling); smaller
// distance; exact scale factor; non-Scalable policy; smaller scaled
// size difference, with ties kept by the earlier-seen directory.
func isBetterMatch(a *themeDir, distA int, b *themeDir, distB int, size, scale int) bool {
	if b == nil {
		return true
	}

	exactA := a.matchesSize(size, scale)
	exactB := b.matchesSize(size, scale)
	if exactA != exactB {
		return exactA
	}

	if !exactA {
		downA := a.size >= size
		downB := b.size >= size
		if downA != downB {
			return downA
		}
	}

	if distA != distB {
		return distA < distB
	}

	scaleA := a.scale == scale
	scaleB := b.scale == scale
	if scaleA != scaleB {
		return scaleA
	}

	sizedA := a.typ != DirScalable
	sizedB := b.typ != DirScalable
	if sizedA != sizedB {
		return sizedA
	}

	scaled := size * scale
	return abs(scaled-a.size*a.scale) < abs(scaled-b.size*b.scale)
}

// scanDirectory reads a directory once and records every recognized
// icon file's format, plus sidecar descriptor presence.
func scanDirectory(path string) map[string]FormatMask {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil
	}
	icons := make(map[string]FormatMask, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base, format := stripIconExtension(entry.Name())
		if format == FormatNone {
			continue
		}
		icons[base] |= format
	}
	if len(icons) == 0 {
		return nil
	}
	return icons
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
