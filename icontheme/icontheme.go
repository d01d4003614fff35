// Package icontheme resolves symbolic icon names into rendered raster
// images by searching freedesktop-style icon themes, with theme
// inheritance, size-policy directory matching, an LRU-backed lookup
// cache, symbolic recoloring, and filesystem staleness detection.
package icontheme

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/icontheme/internal/cache"
	"github.com/bnema/icontheme/internal/logging"
	"github.com/bnema/icontheme/internal/xdg"
	"github.com/bnema/icontheme/pixbuf"
)

// themeRescanInterval rate-limits the staleness re-stat pass so hot
// lookups stay cheap.
const themeRescanInterval = 5 * time.Second

// dirMtime records one tracked directory's state at load time; any
// deviation later marks the whole theme set stale.
type dirMtime struct {
	path   string
	mtime  time.Time
	exists bool
}

// unthemedIcon is a loose icon file found directly on a search-path
// root, outside any theme structure.
type unthemedIcon struct {
	svg   string
	noSVG string
}

// IconTheme is the lookup registry: the active theme list, the search
// path, the unthemed fallback table, and the resolution caches. All
// methods are safe for concurrent use; lookups and cache mutation are
// serialized on one internal lock.
type IconTheme struct {
	mu sync.Mutex

	log          *zerolog.Logger
	codec        pixbuf.Codec
	svgSupported bool
	builtinSlack int
	indexOpener  DirIndexOpener

	searchPath []string
	themeName  string

	themes      []*theme
	unthemed    map[string]*unthemedIcon
	allIcons    map[string]struct{}
	indexes     map[string]DirIndex
	dirMtimes   []dirMtime
	trackedDirs map[string]struct{}

	themesValid   bool
	loadingThemes bool
	lastStamp     time.Time

	infoCache map[cacheKey]*IconInfo
	lru       *cache.LRU[cacheKey, *IconInfo]

	changeHandlers map[int]func()
	nextHandler    int
	changePending  bool

	closed bool
}

// Option configures a registry at construction.
type Option func(*IconTheme)

// WithSearchPath replaces the default XDG-derived search path.
func WithSearchPath(paths []string) Option {
	return func(t *IconTheme) { t.searchPath = append([]string(nil), paths...) }
}

// WithThemeName sets the current theme. The default theme is always
// searched last regardless.
func WithThemeName(name string) Option {
	return func(t *IconTheme) {
		if name != "" {
			t.themeName = name
		}
	}
}

// WithCodec substitutes the image codec used for decode and rescale.
func WithCodec(c pixbuf.Codec) Option {
	return func(t *IconTheme) { t.codec = c }
}

// WithLogger routes diagnostics to the given logger.
func WithLogger(log zerolog.Logger) Option {
	return func(t *IconTheme) { t.log = &log }
}

// WithBuiltinSlack overrides the pixel tolerance for builtin icon
// exact matches.
func WithBuiltinSlack(pixels int) Option {
	return func(t *IconTheme) {
		if pixels >= 0 {
			t.builtinSlack = pixels
		}
	}
}

// WithDirIndexOpener installs a provider of pre-built per-theme icon
// indexes, consulted before scanning directories on disk.
func WithDirIndexOpener(open DirIndexOpener) Option {
	return func(t *IconTheme) { t.indexOpener = open }
}

// New creates a registry with the XDG search path, the standard codec,
// and the process default logger unless options say otherwise. Themes
// load lazily on first lookup.
func New(opts ...Option) *IconTheme {
	t := &IconTheme{
		log:          logging.Default(),
		codec:        &pixbuf.StdCodec{},
		builtinSlack: DefaultBuiltinSlack,
		themeName:    DefaultThemeName,
		infoCache:    make(map[cacheKey]*IconInfo),
	}
	t.lru = cache.NewLRU[cacheKey, *IconInfo](infoCacheLRUSize)
	t.lru.OnEvict(func(_ cacheKey, info *IconInfo) {
		// Runs under t.mu: the LRU is only written while it is held.
		if info.refs.Add(-1) <= 0 {
			t.uncacheLocked(info)
		}
	})
	for _, opt := range opts {
		opt(t)
	}
	if t.searchPath == nil {
		t.searchPath = xdg.IconSearchPath()
	}
	t.svgSupported = codecSupportsSVG(t.codec)
	return t
}

func codecSupportsSVG(c pixbuf.Codec) bool {
	if s, ok := c.(interface{ SupportsSVG() bool }); ok {
		return s.SupportsSVG()
	}
	return true
}

// Close drops every cache and handler. The registry must not be used
// afterwards.
func (t *IconTheme) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blowThemesLocked()
	t.changeHandlers = nil
	t.closed = true
}

// SearchPath returns a copy of the active search path.
func (t *IconTheme) SearchPath() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.searchPath...)
}

// SetSearchPath replaces the search path and invalidates all cached
// theme state.
func (t *IconTheme) SetSearchPath(paths []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.searchPath = append([]string(nil), paths...)
	t.themeChangedLocked()
}

// AppendSearchPath adds a root at the lowest priority.
func (t *IconTheme) AppendSearchPath(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.searchPath = append(t.searchPath, path)
	t.themeChangedLocked()
}

// PrependSearchPath adds a root at the highest priority.
func (t *IconTheme) PrependSearchPath(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.searchPath = append([]string{path}, t.searchPath...)
	t.themeChangedLocked()
}

// ThemeName returns the configured current theme name.
func (t *IconTheme) ThemeName() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.themeName
}

// SetCustomTheme swaps the current theme; an empty name restores the
// default. A real change invalidates all cached theme state.
func (t *IconTheme) SetCustomTheme(name string) {
	if name == "" {
		name = DefaultThemeName
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if name == t.themeName {
		return
	}
	t.themeName = name
	t.themeChangedLocked()
}

// OnChanged registers a handler fired (asynchronously, at most once per
// invalidation) when the active theme set changes: theme swap, search
// path mutation, or detected on-disk changes. The returned function
// unregisters it.
func (t *IconTheme) OnChanged(fn func()) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.changeHandlers == nil {
		t.changeHandlers = make(map[int]func())
	}
	id := t.nextHandler
	t.nextHandler++
	t.changeHandlers[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.changeHandlers, id)
	}
}

// RescanIfNeeded re-stats the tracked directories immediately and, on
// any change, tears down the theme set for lazy reload. Reports whether
// a change was detected.
func (t *IconTheme) RescanIfNeeded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.themesValid {
		return false
	}
	if !t.staleLocked() {
		t.lastStamp = time.Now()
		return false
	}
	t.themeChangedLocked()
	return true
}

// LookupIcon resolves a single icon name at scale 1.
func (t *IconTheme) LookupIcon(name string, size int, flags LookupFlags) (*IconInfo, error) {
	return t.ChooseIconForScale([]string{name}, size, 1, flags)
}

// LookupIconForScale resolves a single icon name for a display scale
// factor.
func (t *IconTheme) LookupIconForScale(name string, size, scale int, flags LookupFlags) (*IconInfo, error) {
	return t.ChooseIconForScale([]string{name}, size, scale, flags)
}

// ChooseIcon resolves the first matching name of a caller-ordered
// candidate list at scale 1.
func (t *IconTheme) ChooseIcon(names []string, size int, flags LookupFlags) (*IconInfo, error) {
	return t.ChooseIconForScale(names, size, 1, flags)
}

// ChooseIconForScale is the full lookup entry point. The returned info
// carries one reference owned by the caller; release it with Unref.
func (t *IconTheme) ChooseIconForScale(names []string, size, scale int, flags LookupFlags) (*IconInfo, error) {
	if err := validateRequest(names, size, scale, flags); err != nil {
		return nil, err
	}
	if flags.Has(LookupGenericFallback) {
		names = expandFallbackNames(names)
	}

	t.mu.Lock()
	info := t.chooseIconLocked(names, size, scale, flags)
	themeName := t.themeName
	t.mu.Unlock()

	if info == nil {
		return nil, &NotFoundError{Names: names, Theme: themeName}
	}
	return info, nil
}

// LoadIcon resolves and renders in one step.
func (t *IconTheme) LoadIcon(name string, size int, flags LookupFlags) (*pixbuf.Pixbuf, error) {
	return t.LoadIconForScale(name, size, 1, flags)
}

// LoadIconForScale resolves and renders for a display scale factor. The
// returned handle should be released with its Release method.
func (t *IconTheme) LoadIconForScale(name string, size, scale int, flags LookupFlags) (*pixbuf.Pixbuf, error) {
	info, err := t.LookupIconForScale(name, size, scale, flags)
	if err != nil {
		return nil, err
	}
	defer info.Unref()
	return info.LoadIcon()
}

// LookupEmblemedIcon resolves a base icon and attaches emblem icons for
// composition onto its corners. Emblems resolve at the same size and
// scale but never forced, and a missing emblem is skipped with a
// warning rather than failing the base lookup. The returned info is
// private to the caller and not shared through the lookup cache.
func (t *IconTheme) LookupEmblemedIcon(name string, emblems []string, size, scale int, flags LookupFlags) (*IconInfo, error) {
	base, err := t.LookupIconForScale(name, size, scale, flags)
	if err != nil {
		return nil, err
	}
	info := base.dup()
	base.Unref()

	for _, emblemName := range emblems {
		e, err := t.LookupIconForScale(emblemName, size, scale, flags&^LookupForceSize)
		if err != nil {
			t.log.Warn().Err(err).Str("emblem", emblemName).Msg("skipping unresolvable emblem")
			continue
		}
		info.emblems = append(info.emblems, e.dup())
		e.Unref()
	}
	return info, nil
}

// HasIcon reports whether any active theme, unthemed fallback, or
// registered builtin provides the name.
func (t *IconTheme) HasIcon(name string) bool {
	t.mu.Lock()
	t.ensureValidLocked()
	_, ok := t.allIcons[name]
	t.mu.Unlock()
	return ok || HasBuiltinIcon(name)
}

// ListIcons returns the sorted icon names the active themes provide,
// restricted to directories declaring context when it is non-empty.
// With no context filter, unthemed fallback names are included.
func (t *IconTheme) ListIcons(context string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureValidLocked()
	set := make(map[string]struct{})
	for _, th := range t.themes {
		th.listIcons(set, context)
	}
	if context == "" {
		for name := range t.unthemed {
			set[name] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// ListContexts returns the sorted set of context tags the active
// themes' directories declare.
func (t *IconTheme) ListContexts() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureValidLocked()
	set := make(map[string]struct{})
	for _, th := range t.themes {
		for _, dir := range th.dirs {
			if dir.context != "" {
				set[dir.context] = struct{}{}
			}
		}
	}
	return sortedKeys(set)
}

// IconSizes returns the sizes name is available at across the active
// themes; -1 stands in for "any size" from Scalable directories.
func (t *IconTheme) IconSizes(name string) []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureValidLocked()
	seen := make(map[int]struct{})
	var sizes []int
	for _, th := range t.themes {
		for _, dir := range th.dirs {
			if dir.iconFormats(name) == FormatNone {
				continue
			}
			size := dir.size
			if dir.typ == DirScalable {
				size = -1
			}
			if _, ok := seen[size]; !ok {
				seen[size] = struct{}{}
				sizes = append(sizes, size)
			}
		}
	}
	sort.Ints(sizes)
	return sizes
}

// ExampleIconName returns the highest-priority theme's declared example
// icon, or "" when none declares one.
func (t *IconTheme) ExampleIconName() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureValidLocked()
	for _, th := range t.themes {
		if th.example != "" {
			return th.example
		}
	}
	return ""
}

func validateRequest(names []string, size, scale int, flags LookupFlags) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: empty name list", ErrInvalidRequest)
	}
	for _, name := range names {
		if name == "" {
			return fmt.Errorf("%w: empty icon name", ErrInvalidRequest)
		}
	}
	if size <= 0 {
		return fmt.Errorf("%w: size %d", ErrInvalidRequest, size)
	}
	if scale < 1 {
		return fmt.Errorf("%w: scale %d", ErrInvalidRequest, scale)
	}
	if flags.Has(LookupNoSVG | LookupForceSVG) {
		return fmt.Errorf("%w: LookupNoSVG and LookupForceSVG are mutually exclusive", ErrInvalidRequest)
	}
	return nil
}

// chooseIconLocked implements the search order: cache, symbolic-first
// pass, themes by priority with names in caller order, unthemed
// fallback, then a one-time installation diagnostic.
func (t *IconTheme) chooseIconLocked(names []string, size, scale int, flags LookupFlags) *IconInfo {
	if t.closed {
		return nil
	}
	t.ensureValidLocked()

	key := newCacheKey(names, size, scale, flags)
	if info := t.cachedInfoLocked(key); info != nil {
		return info
	}

	allowSVG := t.svgSupported
	if flags.Has(LookupForceSVG) {
		allowSVG = true
	} else if flags.Has(LookupNoSVG) {
		allowSVG = false
	}
	useBuiltin := flags.Has(LookupUseBuiltin)

	var (
		info         *IconInfo
		matchedTheme *theme
		matchedName  string
	)

	// A symbolic request searches every theme for the symbolic name
	// before any other candidate, so a parent theme's symbolic asset
	// beats the current theme's non-symbolic alternative.
	if strings.HasSuffix(names[0], "-symbolic") {
		for _, th := range t.themes {
			if found := th.lookupIcon(t, names[0], size, scale, allowSVG, useBuiltin); found != nil {
				info, matchedTheme, matchedName = found, th, names[0]
				break
			}
		}
	}

	if info == nil {
	themes:
		for _, th := range t.themes {
			for _, name := range names {
				if found := th.lookupIcon(t, name, size, scale, allowSVG, useBuiltin); found != nil {
					info, matchedTheme, matchedName = found, th, name
					break themes
				}
			}
		}
	}

	if info == nil {
		for _, name := range names {
			if found := t.lookupUnthemedLocked(name, allowSVG); found != nil {
				info = found
				break
			}
		}
	}

	if info == nil {
		t.warnMissingDefaultThemeLocked()
		return nil
	}

	info.desiredSize = size
	info.desiredScale = scale
	info.forcedSize = flags.Has(LookupForceSize)

	// Relate a scaled match to its scale=1 counterpart so both render
	// the logically-same asset identically. A miss keeps the ratio at 1.
	if scale != 1 && matchedTheme != nil && info.builtin == nil && info.dirSize > 0 {
		if unscaled := matchedTheme.lookupIcon(t, matchedName, size, 1, allowSVG, false); unscaled != nil {
			if unscaled.builtin == nil && unscaled.dirSize > 0 {
				info.unscaledScale = float64(unscaled.dirSize*scale) / float64(info.dirSize*info.dirScale)
			}
		}
	}

	t.storeInfoLocked(key, info)
	return info
}

func (t *IconTheme) lookupUnthemedLocked(name string, allowSVG bool) *IconInfo {
	u := t.unthemed[name]
	if u == nil {
		return nil
	}
	path := u.noSVG
	// SVG wins only over lower-priority raster formats.
	if allowSVG && u.svg != "" && (path == "" || formatForPath(path) != FormatPNG) {
		path = u.svg
	}
	if path == "" {
		return nil
	}
	return newUnthemedIconInfo(t, path)
}

// ensureValidLocked makes the theme set usable: full load if never
// loaded, staleness check at most once per rescan interval otherwise.
// The in-progress flag stops load side effects from recursing.
func (t *IconTheme) ensureValidLocked() {
	if t.loadingThemes {
		return
	}
	t.loadingThemes = true
	defer func() { t.loadingThemes = false }()

	if t.themesValid {
		if time.Since(t.lastStamp) < themeRescanInterval {
			return
		}
		if !t.staleLocked() {
			t.lastStamp = time.Now()
			return
		}
		t.themeChangedLocked()
	}
	t.loadThemesLocked()
}

// loadThemesLocked rebuilds the active theme list from scratch: the
// configured theme with its inheritance chain, then the compatibility
// theme, then the default theme, then the unthemed fallback table.
func (t *IconTheme) loadThemesLocked() {
	t.themes = nil
	t.unthemed = make(map[string]*unthemedIcon)
	t.allIcons = make(map[string]struct{})
	t.indexes = make(map[string]DirIndex)
	t.dirMtimes = nil
	t.trackedDirs = make(map[string]struct{})

	t.insertThemeLocked(t.themeName)
	t.insertThemeLocked(compatThemeName)
	t.insertThemeLocked(DefaultThemeName)

	for _, root := range t.searchPath {
		t.trackDirLocked(root)
		t.scanUnthemedLocked(root)
	}

	t.themesValid = true
	t.lastStamp = time.Now()
	t.log.Debug().Int("themes", len(t.themes)).Int("unthemed", len(t.unthemed)).
		Str("theme", t.themeName).Msg("icon themes loaded")
}

// scanUnthemedLocked records loose icon files directly under a search
// root. The first root providing a format slot for a base name wins;
// later PNGs still displace an XPM.
func (t *IconTheme) scanUnthemedLocked(root string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base, format := stripIconExtension(entry.Name())
		if format == FormatNone || format == FormatIconFile {
			continue
		}
		u := t.unthemed[base]
		if u == nil {
			u = &unthemedIcon{}
			t.unthemed[base] = u
		}
		path := filepath.Join(root, entry.Name())
		if format == FormatSVG {
			if u.svg == "" {
				u.svg = path
			}
		} else if u.noSVG == "" || (format == FormatPNG && formatForPath(u.noSVG) == FormatXPM) {
			u.noSVG = path
		}
		t.allIcons[base] = struct{}{}
	}
}

// themeChangedLocked tears the loaded theme set down and queues the
// changed notification. No-op while nothing is loaded.
func (t *IconTheme) themeChangedLocked() {
	if !t.themesValid {
		return
	}
	t.log.Debug().Msg("icon theme state invalidated")
	t.blowThemesLocked()
	t.queueChangedLocked()
}

func (t *IconTheme) blowThemesLocked() {
	t.themes = nil
	t.unthemed = nil
	t.allIcons = nil
	t.indexes = nil
	t.dirMtimes = nil
	t.trackedDirs = nil
	t.dropCachesLocked()
	t.themesValid = false
}

// trackDirLocked records a directory's existence and mtime for the
// staleness pass, once per path per load.
func (t *IconTheme) trackDirLocked(path string) {
	if _, ok := t.trackedDirs[path]; ok {
		return
	}
	t.trackedDirs[path] = struct{}{}
	dm := dirMtime{path: path}
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		dm.exists = true
		dm.mtime = fi.ModTime()
	}
	t.dirMtimes = append(t.dirMtimes, dm)
}

func (t *IconTheme) staleLocked() bool {
	for _, dm := range t.dirMtimes {
		fi, err := os.Stat(dm.path)
		exists := err == nil && fi.IsDir()
		if exists != dm.exists {
			return true
		}
		if exists && !fi.ModTime().Equal(dm.mtime) {
			return true
		}
	}
	return false
}

func (t *IconTheme) indexForRootLocked(themeRoot string) DirIndex {
	if t.indexOpener == nil {
		return nil
	}
	if idx, ok := t.indexes[themeRoot]; ok {
		return idx
	}
	idx := t.indexOpener(themeRoot)
	t.indexes[themeRoot] = idx
	return idx
}

func (t *IconTheme) queueChangedLocked() {
	if t.changePending {
		return
	}
	t.changePending = true
	go func() {
		t.mu.Lock()
		t.changePending = false
		handlers := make([]func(), 0, len(t.changeHandlers))
		for _, fn := range t.changeHandlers {
			handlers = append(handlers, fn)
		}
		t.mu.Unlock()
		for _, fn := range handlers {
			fn()
		}
	}()
}

// The default-theme installation hint is emitted at most once per
// process, no matter how many registries miss.
var missingDefaultThemeCheck sync.Once

func (t *IconTheme) warnMissingDefaultThemeLocked() {
	missingDefaultThemeCheck.Do(func() {
		for _, root := range t.searchPath {
			if _, err := os.Stat(filepath.Join(root, DefaultThemeName, themeIndexFile)); err == nil {
				return
			}
		}
		t.log.Warn().Str("theme", DefaultThemeName).
			Msg("default icon theme not found on the search path; icon lookups will mostly fail")
	})
}

// expandFallbackNames grows each candidate by progressively stripping
// trailing hyphenated segments. When any input is symbolic, all
// symbolic variants rank before all non-symbolic ones.
func expandFallbackNames(names []string) []string {
	seen := make(map[string]struct{})
	var symbolic, plain []string
	add := func(list []string, name string) []string {
		if _, ok := seen[name]; ok {
			return list
		}
		seen[name] = struct{}{}
		return append(list, name)
	}

	anySymbolic := false
	for _, name := range names {
		isSymbolic := strings.HasSuffix(name, "-symbolic")
		if isSymbolic {
			anySymbolic = true
		}
		base := strings.TrimSuffix(name, "-symbolic")
		for current := base; ; {
			if isSymbolic {
				symbolic = add(symbolic, current+"-symbolic")
			}
			plain = add(plain, current)
			i := strings.LastIndex(current, "-")
			if i < 0 {
				break
			}
			current = current[:i]
		}
	}
	if anySymbolic {
		return append(symbolic, plain...)
	}
	return plain
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
