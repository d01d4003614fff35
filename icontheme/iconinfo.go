package icontheme

import (
	"image"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/bnema/icontheme/pixbuf"
)

// IconInfo is one resolved icon lookup. Raster data is loaded lazily on
// the first render request and kept for the info's lifetime; a failed
// load is sticky and re-returned without retrying.
//
// Infos are shared, reference-counted handles. Lookups return them with
// one reference owned by the caller; Unref releases it. The registry's
// LRU side-list briefly keeps recently released infos alive so warm
// lookups skip the decode work.
type IconInfo struct {
	owner  atomic.Pointer[IconTheme]
	key    cacheKey
	cached bool
	refs   atomic.Int32

	codec pixbuf.Codec
	log   *zerolog.Logger

	filename string
	dataPath string
	isSVG    bool
	builtin  *pixbuf.Pixbuf

	// Provenance of the directory the lookup matched.
	dirType   DirType
	dirSize   int
	dirScale  int
	threshold int

	// unscaledScale relates this match to the same theme's scale=1
	// match, so logically-identical assets render identically across
	// display scales. Stays 1 when no relation was established.
	unscaledScale float64

	desiredSize    int
	desiredScale   int
	forcedSize     bool
	rawCoordinates bool

	mu             sync.Mutex
	scale          float64
	scaleComputed  bool
	pb             *pixbuf.Pixbuf
	loadErr        error
	emblems        []*IconInfo
	emblemsApplied bool
	proxies        int
	symbolic       *symbolicNode
	data           *IconData
	dataLoaded     bool
}

func newIconInfo(t *IconTheme, path string, dir *themeDir) *IconInfo {
	info := &IconInfo{
		codec:         t.codec,
		log:           t.log,
		filename:      path,
		isSVG:         formatForPath(path) == FormatSVG,
		dirType:       dir.typ,
		dirSize:       dir.size,
		dirScale:      dir.scale,
		threshold:     dir.threshold,
		unscaledScale: 1,
	}
	info.refs.Store(1)
	return info
}

func newUnthemedIconInfo(t *IconTheme, path string) *IconInfo {
	info := &IconInfo{
		codec:         t.codec,
		log:           t.log,
		filename:      path,
		isSVG:         formatForPath(path) == FormatSVG,
		dirType:       DirUnthemed,
		dirScale:      1,
		unscaledScale: 1,
	}
	info.refs.Store(1)
	return info
}

func newBuiltinIconInfo(t *IconTheme, b *builtinIcon) *IconInfo {
	info := &IconInfo{
		codec:         t.codec,
		log:           t.log,
		builtin:       b.pixbuf,
		dirType:       DirFixed,
		dirSize:       b.size,
		dirScale:      b.scale,
		unscaledScale: 1,
	}
	info.refs.Store(1)
	return info
}

// NewIconInfoForFile wraps an arbitrary image file as an IconInfo,
// bypassing theme resolution. The image is rendered at exactly the
// requested size, upscaling if needed. The info is never cached by the
// registry.
func (t *IconTheme) NewIconInfoForFile(path string, size, scale int) *IconInfo {
	info := newUnthemedIconInfo(t, path)
	info.desiredSize = size
	info.desiredScale = scale
	info.forcedSize = true
	return info
}

// NewIconInfoForPixbuf wraps an already-decoded raster as an IconInfo.
// The raster is used at exactly the requested size.
func (t *IconTheme) NewIconInfoForPixbuf(pb *pixbuf.Pixbuf, size, scale int) *IconInfo {
	info := &IconInfo{
		codec:         t.codec,
		log:           t.log,
		builtin:       pb,
		dirType:       DirUnthemed,
		dirScale:      1,
		unscaledScale: 1,
		desiredSize:   size,
		desiredScale:  scale,
		forcedSize:    true,
	}
	info.refs.Store(1)
	return info
}

// Ref adds a reference and returns info for chaining.
func (info *IconInfo) Ref() *IconInfo {
	info.refs.Add(1)
	return info
}

func (info *IconInfo) ref() { info.refs.Add(1) }

// Unref releases one reference. When the last reference goes away the
// info is purged from its registry's cache, unless a rendered-image
// handle is still outstanding: the handle's release then decides the
// info's fate.
func (info *IconInfo) Unref() {
	if info.refs.Add(-1) > 0 {
		return
	}
	info.mu.Lock()
	outstanding := info.proxies > 0
	info.mu.Unlock()
	if outstanding {
		return
	}
	if t := info.owner.Load(); t != nil {
		t.uncache(info)
	}
}

// Filename returns the resolved file path, or "" for builtin rasters.
func (info *IconInfo) Filename() string { return info.filename }

// BaseSize returns the nominal size of the matched directory, 0 when
// the icon came from an unthemed fallback file.
func (info *IconInfo) BaseSize() int { return info.dirSize }

// BaseScale returns the scale factor of the matched directory.
func (info *IconInfo) BaseScale() int { return info.dirScale }

// BuiltinPixbuf returns the pre-registered raster backing a builtin
// match, nil otherwise.
func (info *IconInfo) BuiltinPixbuf() *pixbuf.Pixbuf { return info.builtin }

// AddEmblem appends an emblem to be composited onto the rendered base
// image. Must be called before the first render request.
func (info *IconInfo) AddEmblem(emblem *IconInfo) {
	info.mu.Lock()
	defer info.mu.Unlock()
	info.emblems = append(info.emblems, emblem)
}

// LoadIcon renders the icon at the size it was looked up for and
// returns a shared handle over the rendered pixels. Callers release the
// handle with its Release method when done.
func (info *IconInfo) LoadIcon() (*pixbuf.Pixbuf, error) {
	info.mu.Lock()
	defer info.mu.Unlock()
	if err := info.ensureScaleAndPixbufLocked(false); err != nil {
		return nil, err
	}
	return info.proxyLocked(info.pb), nil
}

// RenderScale returns the real-valued factor the source image is (or
// would be) scaled by to satisfy the lookup. For vector sources this is
// known without decoding.
func (info *IconInfo) RenderScale() (float64, error) {
	info.mu.Lock()
	defer info.mu.Unlock()
	if err := info.ensureScaleAndPixbufLocked(true); err != nil {
		return 0, err
	}
	return info.scale, nil
}

// ensureScaleAndPixbufLocked drives the load pipeline: compute the
// render scale (without decoding whenever directory metadata makes it
// unambiguous), decode, rescale, composite emblems. Errors are cached
// so a failed load is never retried.
func (info *IconInfo) ensureScaleAndPixbufLocked(scaleOnly bool) error {
	if info.loadErr != nil {
		return info.loadErr
	}
	if info.pb != nil {
		if !scaleOnly {
			info.applyEmblemsLocked()
		}
		return nil
	}

	scaledDesired := info.desiredSize * info.desiredScale
	if scaledDesired <= 0 {
		scaledDesired = info.dirSize * info.dirScale
	}

	if info.isSVG {
		// SVG viewports are authored against a 1000-unit convention.
		info.scale = float64(scaledDesired) / 1000
		info.scaleComputed = true
		if scaleOnly {
			return nil
		}
		data, err := os.ReadFile(info.filename)
		if err != nil {
			info.loadErr = &LoadError{Path: info.filename, Err: err}
			return info.loadErr
		}
		pb, err := info.codec.DecodeAtSize(data, scaledDesired, scaledDesired)
		if err != nil {
			info.loadErr = &LoadError{Path: info.filename, Err: err}
			return info.loadErr
		}
		info.pb = pb
		info.applyEmblemsLocked()
		return nil
	}

	inBand := scaledDesired >= (info.dirSize-info.threshold)*info.dirScale &&
		scaledDesired <= (info.dirSize+info.threshold)*info.dirScale
	switch {
	case info.forcedSize || info.dirType == DirUnthemed:
		// Exact-size scaling needs the source dimensions.
		info.scaleComputed = false
	case info.dirType == DirFixed, info.dirType == DirThreshold && inBand:
		info.scale = info.unscaledScale
		info.scaleComputed = true
	case info.dirSize > 0:
		info.scale = float64(scaledDesired) / float64(info.dirSize*info.dirScale)
		info.scaleComputed = true
	}
	if scaleOnly && info.scaleComputed {
		return nil
	}

	source := info.builtin
	if source == nil {
		data, err := os.ReadFile(info.filename)
		if err != nil {
			info.loadErr = &LoadError{Path: info.filename, Err: err}
			return info.loadErr
		}
		source, err = info.codec.Decode(data)
		if err != nil {
			info.loadErr = &LoadError{Path: info.filename, Err: err}
			return info.loadErr
		}
	}

	if !info.scaleComputed {
		longest := source.Width()
		if source.Height() > longest {
			longest = source.Height()
		}
		if longest < 1 {
			longest = 1
		}
		scale := float64(scaledDesired) / float64(longest)
		// Loose fallback files are never upscaled unless size is forced.
		if info.dirType == DirUnthemed && !info.forcedSize && scale > 1 {
			scale = 1
		}
		info.scale = scale
		info.scaleComputed = true
	}

	if info.scale == 1.0 {
		info.pb = source
	} else {
		w := scaleDim(source.Width(), info.scale)
		h := scaleDim(source.Height(), info.scale)
		info.pb = source.ScaleSimple(w, h, pixbuf.InterpBilinear)
	}
	info.applyEmblemsLocked()
	return nil
}

// applyEmblemsLocked replaces the rendered base with an emblem-laden
// copy. A zero-emblem info keeps its base raster untouched, no copy.
func (info *IconInfo) applyEmblemsLocked() {
	if info.emblemsApplied {
		return
	}
	info.emblemsApplied = true
	if len(info.emblems) == 0 || info.pb == nil {
		return
	}
	info.pb = info.compositeEmblemsLocked(info.pb)
}

// compositeEmblemsLocked draws the emblems onto a copy of base,
// anchored to corners in southeast, northeast, northwest, southwest
// order, wrapping for a fifth and beyond. Emblems at least as large as
// the base are shrunk to 75% of it.
func (info *IconInfo) compositeEmblemsLocked(base *pixbuf.Pixbuf) *pixbuf.Pixbuf {
	out := base.Copy()
	w, h := out.Width(), out.Height()
	pos := 0
	for _, emblem := range info.emblems {
		epb, err := emblem.renderedPixbuf()
		if err != nil {
			info.log.Warn().Err(err).Str("icon", emblem.filename).Msg("skipping unloadable emblem")
			continue
		}
		ew, eh := epb.Width(), epb.Height()
		if ew >= w || eh >= h {
			ew = w * 3 / 4
			eh = h * 3 / 4
		}
		var x, y int
		switch pos % 4 {
		case 0: // southeast
			x, y = w-ew, h-eh
		case 1: // northeast
			x, y = w-ew, 0
		case 2: // northwest
			x, y = 0, 0
		case 3: // southwest
			x, y = 0, h-eh
		}
		out.Composite(epb, x, y, ew, eh, pixbuf.InterpBilinear)
		pos++
	}
	return out
}

// renderedPixbuf loads an emblem's own pixels, recursively through the
// same pipeline.
func (info *IconInfo) renderedPixbuf() (*pixbuf.Pixbuf, error) {
	info.mu.Lock()
	defer info.mu.Unlock()
	if err := info.ensureScaleAndPixbufLocked(false); err != nil {
		return nil, err
	}
	return info.pb, nil
}

// proxyLocked hands out a rendered-image handle and counts it. When the
// last outstanding handle is released the info parks itself in the
// registry's LRU instead of dying with its caller.
func (info *IconInfo) proxyLocked(pb *pixbuf.Pixbuf) *pixbuf.Pixbuf {
	info.proxies++
	return pb.Proxy(info.proxyReleased)
}

func (info *IconInfo) proxyReleased() {
	info.mu.Lock()
	info.proxies--
	last := info.proxies == 0
	info.mu.Unlock()
	if owner := info.owner.Load(); last && owner != nil {
		owner.parkInfo(info)
	}
}

// DisplayName returns the localized name from the icon's sidecar
// descriptor, or "" when none exists.
func (info *IconInfo) DisplayName() string {
	info.mu.Lock()
	defer info.mu.Unlock()
	if d := info.iconDataLocked(); d != nil {
		return d.DisplayName
	}
	return ""
}

// EmbeddedRect returns the area reserved for embedded text, scaled to
// the rendered size unless raw coordinates were requested.
func (info *IconInfo) EmbeddedRect() (image.Rectangle, bool) {
	info.mu.Lock()
	defer info.mu.Unlock()
	d := info.iconDataLocked()
	if d == nil || !d.HasEmbeddedRect {
		return image.Rectangle{}, false
	}
	if info.rawCoordinates {
		return d.EmbeddedRect, true
	}
	if err := info.ensureScaleAndPixbufLocked(true); err != nil {
		return image.Rectangle{}, false
	}
	return scaleRect(d.EmbeddedRect, info.scale), true
}

// AttachPoints returns the sidecar-declared attach points, scaled like
// EmbeddedRect.
func (info *IconInfo) AttachPoints() []image.Point {
	info.mu.Lock()
	defer info.mu.Unlock()
	d := info.iconDataLocked()
	if d == nil || len(d.AttachPoints) == 0 {
		return nil
	}
	if info.rawCoordinates {
		return append([]image.Point(nil), d.AttachPoints...)
	}
	if err := info.ensureScaleAndPixbufLocked(true); err != nil {
		return nil
	}
	points := make([]image.Point, len(d.AttachPoints))
	for i, p := range d.AttachPoints {
		points[i] = image.Point{X: scaleDim(p.X, info.scale), Y: scaleDim(p.Y, info.scale)}
	}
	return points
}

// SetRawCoordinates switches EmbeddedRect and AttachPoints to source
// coordinates instead of rendered ones.
func (info *IconInfo) SetRawCoordinates(raw bool) {
	info.mu.Lock()
	defer info.mu.Unlock()
	info.rawCoordinates = raw
}

func (info *IconInfo) iconDataLocked() *IconData {
	if !info.dataLoaded {
		info.dataLoaded = true
		if info.dataPath != "" {
			d, err := loadIconData(info.dataPath)
			if err != nil {
				info.log.Warn().Err(err).Str("path", info.dataPath).Msg("ignoring malformed icon descriptor")
			} else {
				info.data = d
			}
		}
	}
	return info.data
}

// dup snapshots the resolution inputs into a detached info for
// background rendering. Rendered state is deliberately not copied.
func (info *IconInfo) dup() *IconInfo {
	info.mu.Lock()
	defer info.mu.Unlock()
	c := &IconInfo{
		codec:          info.codec,
		log:            info.log,
		filename:       info.filename,
		dataPath:       info.dataPath,
		isSVG:          info.isSVG,
		builtin:        info.builtin,
		dirType:        info.dirType,
		dirSize:        info.dirSize,
		dirScale:       info.dirScale,
		threshold:      info.threshold,
		unscaledScale:  info.unscaledScale,
		desiredSize:    info.desiredSize,
		desiredScale:   info.desiredScale,
		forcedSize:     info.forcedSize,
		rawCoordinates: info.rawCoordinates,
		emblems:        append([]*IconInfo(nil), info.emblems...),
	}
	c.refs.Store(1)
	return c
}

func scaleDim(v int, scale float64) int {
	out := int(float64(v)*scale + 0.5)
	if out < 1 && v > 0 {
		out = 1
	}
	return out
}

func scaleRect(r image.Rectangle, scale float64) image.Rectangle {
	return image.Rect(
		int(float64(r.Min.X)*scale+0.5),
		int(float64(r.Min.Y)*scale+0.5),
		int(float64(r.Max.X)*scale+0.5),
		int(float64(r.Max.Y)*scale+0.5),
	)
}
