package icontheme

import (
	"os"
	"path/filepath"

	"github.com/bnema/icontheme/internal/keyfile"
)

const (
	// DefaultThemeName always terminates the active theme list, with or
	// without an on-disk descriptor.
	DefaultThemeName = "hicolor"

	// compatThemeName is appended right before the default theme so
	// legacy icon sets keep resolving.
	compatThemeName = "gnome"

	themeIndexFile = "index.theme"
	themeMainGroup = "Icon Theme"
)

// theme is one loaded icon theme: ordered directories plus descriptor
// metadata. Inherited ancestors are separate theme entries appended
// after it in the registry's active list.
type theme struct {
	name        string
	displayName string
	comment     string
	example     string
	dirs        []*themeDir
}

// insertThemeLocked loads name and, recursively, its Inherits ancestors
// into t.themes. Already-inserted names are skipped, which both
// de-duplicates diamonds and terminates inheritance cycles. Insertion
// order is search order, so ancestors rank after the themes that pulled
// them in.
func (t *IconTheme) insertThemeLocked(name string) {
	for _, existing := range t.themes {
		if existing.name == name {
			return
		}
	}

	var kf *keyfile.File
	for _, root := range t.searchPath {
		themeRoot := filepath.Join(root, name)
		t.trackDirLocked(themeRoot)
		if kf != nil {
			continue
		}
		loaded, err := keyfile.Load(filepath.Join(themeRoot, themeIndexFile))
		if err == nil {
			kf = loaded
		}
	}

	if kf == nil {
		// The default theme always gets an entry so builtins and its
		// bare directories stay reachable.
		if name == DefaultThemeName {
			t.themes = append(t.themes, &theme{name: name, displayName: name})
		}
		return
	}

	subdirs := kf.StringList(themeMainGroup, "Directories")
	if len(subdirs) == 0 {
		t.log.Warn().Str("theme", name).Msg("theme descriptor lacks Directories key")
		if name == DefaultThemeName {
			t.themes = append(t.themes, &theme{name: name, displayName: name})
		}
		return
	}
	subdirs = append(subdirs, kf.StringList(themeMainGroup, "ScaledDirectories")...)

	th := &theme{
		name:        name,
		displayName: kf.LocaleString(themeMainGroup, "Name"),
		comment:     kf.LocaleString(themeMainGroup, "Comment"),
		example:     kf.String(themeMainGroup, "Example"),
	}
	if th.displayName == "" {
		th.displayName = name
	}
	t.themes = append(t.themes, th)

	for _, subdir := range subdirs {
		t.themeSubdirLoadLocked(th, kf, subdir)
	}

	for _, parent := range kf.StringList(themeMainGroup, "Inherits") {
		t.insertThemeLocked(parent)
	}
}

// themeSubdirLoadLocked creates one themeDir per search-path root that
// actually contains the subdirectory, in root-priority order. A subdir
// section without a usable Size is rejected with a warning.
func (t *IconTheme) themeSubdirLoadLocked(th *theme, kf *keyfile.File, subdir string) {
	if !kf.HasSection(subdir) {
		t.log.Warn().Str("theme", th.name).Str("dir", subdir).
			Msg("theme descriptor has no section for listed directory")
		return
	}

	size, err := kf.Integer(subdir, "Size")
	if err != nil {
		t.log.Warn().Str("theme", th.name).Str("dir", subdir).
			Msg("theme directory lacks a Size, ignoring")
		return
	}

	typ := DirThreshold
	switch kf.String(subdir, "Type") {
	case "Fixed":
		typ = DirFixed
	case "Scalable":
		typ = DirScalable
	}

	minSize, maxSize := size, size
	if kf.HasKey(subdir, "MinSize") {
		if v, err := kf.Integer(subdir, "MinSize"); err == nil {
			minSize = v
		}
	}
	if kf.HasKey(subdir, "MaxSize") {
		if v, err := kf.Integer(subdir, "MaxSize"); err == nil {
			maxSize = v
		}
	}
	threshold := 2
	if kf.HasKey(subdir, "Threshold") {
		if v, err := kf.Integer(subdir, "Threshold"); err == nil {
			threshold = v
		}
	}
	scale := 1
	if kf.HasKey(subdir, "Scale") {
		if v, err := kf.Integer(subdir, "Scale"); err == nil && v >= 1 {
			scale = v
		}
	}
	context := kf.String(subdir, "Context")

	for _, root := range t.searchPath {
		full := filepath.Join(root, th.name, subdir)
		dir := &themeDir{
			typ:       typ,
			context:   context,
			size:      size,
			minSize:   minSize,
			maxSize:   maxSize,
			threshold: threshold,
			scale:     scale,
			subdir:    subdir,
			path:      full,
		}

		if idx := t.indexForRootLocked(filepath.Join(root, th.name)); idx != nil && idx.HasDir(subdir) {
			dir.index = idx
		} else if fi, err := os.Stat(full); err != nil || !fi.IsDir() {
			continue
		} else {
			dir.icons = scanDirectory(full)
			if dir.icons == nil {
				continue
			}
		}

		for _, name := range dir.iconNames() {
			t.allIcons[name] = struct{}{}
		}
		th.dirs = append(th.dirs, dir)
	}
}

// lookupIcon resolves name within this one theme, scanning directories
// in declared order and keeping a running best match. Builtin icons are
// logically part of the default theme and are ranked before, but
// against, its directories.
func (th *theme) lookupIcon(t *IconTheme, name string, size, scale int, allowSVG, useBuiltin bool) *IconInfo {
	var closestBuiltin *builtinIcon
	builtinDiff := 0
	if useBuiltin && th.name == DefaultThemeName {
		closestBuiltin, builtinDiff = findBuiltinIcon(name, size, scale, t.builtinSlack)
		if closestBuiltin != nil && builtinDiff == 0 {
			return newBuiltinIconInfo(t, closestBuiltin)
		}
	}

	var best *themeDir
	bestFmt := FormatNone
	bestDist := 0
	for _, dir := range th.dirs {
		format := bestFormat(dir.iconFormats(name), allowSVG)
		if format == FormatNone {
			continue
		}
		dist := dir.sizeDistance(size, scale)
		if isBetterMatch(dir, dist, best, bestDist, size, scale) {
			best, bestFmt, bestDist = dir, format, dist
		}
	}

	if best == nil || (closestBuiltin != nil && !best.matchesSize(size, scale) && builtinDiff < bestDist) {
		if closestBuiltin != nil {
			return newBuiltinIconInfo(t, closestBuiltin)
		}
		return nil
	}

	info := newIconInfo(t, best.iconPath(name, bestFmt), best)
	if best.iconFormats(name)&FormatIconFile != 0 {
		info.dataPath = filepath.Join(best.path, name+FormatIconFile.extension())
	}
	return info
}

// listIcons collects the theme's icon names, optionally restricted to
// directories declaring the given context.
func (th *theme) listIcons(into map[string]struct{}, context string) {
	for _, dir := range th.dirs {
		if context != "" && dir.context != context {
			continue
		}
		for _, name := range dir.iconNames() {
			into[name] = struct{}{}
		}
	}
}
