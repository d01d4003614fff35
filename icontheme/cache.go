package icontheme

import "strings"

// infoCacheLRUSize bounds the side-list of recently-unreferenced
// IconInfos kept alive to absorb cache churn.
const infoCacheLRUSize = 32

// cacheKey is the exact lookup identity: candidate names in caller
// order, size, scale, and flags. Different name orderings are different
// keys.
type cacheKey struct {
	names string
	size  int
	scale int
	flags LookupFlags
}

func newCacheKey(names []string, size, scale int, flags LookupFlags) cacheKey {
	return cacheKey{
		names: strings.Join(names, "\x00"),
		size:  size,
		scale: scale,
		flags: flags,
	}
}

// cachedInfoLocked returns the live cache entry for key, transferring
// or adding a reference for the caller. A hit on a parked entry removes
// it from the LRU: live membership and LRU membership are exclusive.
func (t *IconTheme) cachedInfoLocked(key cacheKey) *IconInfo {
	info, ok := t.infoCache[key]
	if !ok {
		return nil
	}
	if t.lru.Remove(key) {
		// The LRU's borrowed reference becomes the caller's.
		return info
	}
	info.ref()
	return info
}

// storeInfoLocked inserts a freshly resolved info under its
// fully-populated key. The caller keeps its reference; the map itself
// is a weak registry purged when the last reference goes away.
func (t *IconTheme) storeInfoLocked(key cacheKey, info *IconInfo) {
	info.key = key
	info.cached = true
	info.owner.Store(t)
	t.infoCache[key] = info
}

// parkInfo moves info into the LRU side-list with a borrowed reference
// so it survives the release of its last rendered-image proxy. A park
// of an existing member promotes it to most-recently-used.
func (t *IconTheme) parkInfo(info *IconInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !info.cached || t.infoCache[info.key] != info {
		return
	}
	if !t.lru.Contains(info.key) {
		info.ref()
	}
	t.lru.Set(info.key, info)
}

// uncacheLocked detaches info from the registry's cache structures.
// Called with the registry lock held, on final release or teardown.
func (t *IconTheme) uncacheLocked(info *IconInfo) {
	if !info.cached {
		return
	}
	if t.infoCache[info.key] == info {
		delete(t.infoCache, info.key)
	}
	info.cached = false
	info.owner.Store(nil)
}

// uncache is the unlocked entry point used by IconInfo release.
func (t *IconTheme) uncache(info *IconInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.uncacheLocked(info)
}

// dropCachesLocked empties both cache structures. Parked entries lose
// their borrowed reference; live entries are detached so they neither
// re-park into stale state nor purge a rebuilt cache later.
func (t *IconTheme) dropCachesLocked() {
	for _, key := range t.lru.Keys() {
		if info, ok := t.infoCache[key]; ok {
			t.uncacheLocked(info)
			info.refs.Add(-1)
		}
	}
	t.lru.Clear()
	for _, info := range t.infoCache {
		info.cached = false
		info.owner.Store(nil)
	}
	t.infoCache = make(map[cacheKey]*IconInfo)
}
