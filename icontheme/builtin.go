package icontheme

import (
	"math"
	"sync"

	"github.com/bnema/icontheme/pixbuf"
)

// DefaultBuiltinSlack is the pixel tolerance within which a registered
// builtin size counts as an exact match. Overridable per registry with
// WithBuiltinSlack.
const DefaultBuiltinSlack = 2

// builtinIcon is one pre-registered in-memory icon at a fixed size.
type builtinIcon struct {
	size   int
	scale  int
	pixbuf *pixbuf.Pixbuf
}

// The builtin table is process-wide, append-only state shared by every
// registry; entries are never removed once registered.
var (
	builtinMu    sync.RWMutex
	builtinIcons = map[string][]*builtinIcon{}
)

// RegisterBuiltinIcon adds an in-memory icon usable as a lookup fallback
// independent of any on-disk theme. Registration is permanent for the
// process lifetime. Lookups only consider builtins when the caller
// passes LookupUseBuiltin.
func RegisterBuiltinIcon(name string, size int, pb *pixbuf.Pixbuf) {
	RegisterBuiltinIconForScale(name, size, 1, pb)
}

// RegisterBuiltinIconForScale registers a builtin authored for a
// specific display scale factor.
func RegisterBuiltinIconForScale(name string, size, scale int, pb *pixbuf.Pixbuf) {
	if name == "" || size <= 0 || scale < 1 || pb == nil {
		return
	}
	builtinMu.Lock()
	defer builtinMu.Unlock()
	builtinIcons[name] = append(builtinIcons[name], &builtinIcon{size: size, scale: scale, pixbuf: pb})
}

// HasBuiltinIcon reports whether any size is registered under name.
func HasBuiltinIcon(name string) bool {
	builtinMu.RLock()
	defer builtinMu.RUnlock()
	return len(builtinIcons[name]) > 0
}

// findBuiltinIcon scans name's registered sizes for the best fit at the
// requested size and scale. A candidate within slack pixels of the
// scaled request is treated as exact. Otherwise the closest larger size
// beats any smaller one, so builtins follow the same downscale
// preference as theme directories. Returns the best candidate and its
// difference so callers can rank it against a directory match.
func findBuiltinIcon(name string, size, scale, slack int) (*builtinIcon, int) {
	builtinMu.RLock()
	defer builtinMu.RUnlock()

	scaled := size * scale
	minDiff := math.MaxInt
	var best *builtinIcon
	hasLarger := false

	for _, candidate := range builtinIcons[name] {
		diff := candidate.size*candidate.scale - scaled
		if abs(diff) <= slack {
			return candidate, 0
		}
		if hasLarger {
			if diff > 0 && diff < minDiff {
				minDiff = diff
				best = candidate
			}
			continue
		}
		if diff > 0 || abs(diff) < minDiff {
			minDiff = abs(diff)
			best = candidate
			if diff > 0 {
				hasLarger = true
			}
		}
	}
	return best, minDiff
}

// resetBuiltinIcons clears the process-wide table. Test use only.
func resetBuiltinIcons() {
	builtinMu.Lock()
	defer builtinMu.Unlock()
	builtinIcons = map[string][]*builtinIcon{}
}
