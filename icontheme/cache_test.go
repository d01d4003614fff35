package icontheme

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCacheIdentity(t *testing.T) {
	root := t.TempDir()
	writeHicolor(t, root)
	registry := New(WithSearchPath([]string{root}))

	first, err := registry.LookupIcon("edit-cut", 32, 0)
	require.NoError(t, err)
	second, err := registry.LookupIcon("edit-cut", 32, 0)
	require.NoError(t, err)

	assert.Same(t, first, second, "identical requests must share one resolution")

	// Each caller holds its own reference: releasing one leaves the
	// other fully usable.
	first.Unref()
	pb, err := second.LoadIcon()
	require.NoError(t, err)
	pb.Release()
	second.Unref()

	// Different parameters are different entries.
	a, err := registry.LookupIcon("edit-cut", 32, 0)
	require.NoError(t, err)
	defer a.Unref()
	b, err := registry.LookupIcon("edit-cut", 48, 0)
	require.NoError(t, err)
	defer b.Unref()
	c, err := registry.LookupIcon("edit-cut", 32, LookupForceSize)
	require.NoError(t, err)
	defer c.Unref()
	assert.NotSame(t, a, b)
	assert.NotSame(t, a, c)
}

func TestParkedResolutionReuse(t *testing.T) {
	root := t.TempDir()
	writeHicolor(t, root)
	registry := New(WithSearchPath([]string{root}))

	first, err := registry.LookupIcon("folder", 32, 0)
	require.NoError(t, err)
	pb, err := first.LoadIcon()
	require.NoError(t, err)

	// Dropping the proxy last parks the rendered resolution rather than
	// discarding it.
	first.Unref()
	pb.Release()

	registry.mu.Lock()
	parked := registry.lru.Len()
	registry.mu.Unlock()
	assert.Equal(t, 1, parked)

	second, err := registry.LookupIcon("folder", 32, 0)
	require.NoError(t, err)
	defer second.Unref()
	assert.Same(t, first, second, "a parked resolution must be revived, not rebuilt")

	// Reviving pulls it back out of the retention list.
	registry.mu.Lock()
	parked = registry.lru.Len()
	registry.mu.Unlock()
	assert.Equal(t, 0, parked)
}

func TestParkedRetentionBound(t *testing.T) {
	root := t.TempDir()
	subdir := "16x16/actions"
	writeThemeIndex(t, root, DefaultThemeName, nil, []testDir{
		{subdir: subdir, size: 16, typ: "Fixed", context: "Actions"},
	}, nil)
	for i := 0; i < 40; i++ {
		writeIcon(t, root, DefaultThemeName, subdir, fmt.Sprintf("icon-%02d", i), 16)
	}
	registry := New(WithSearchPath([]string{root}))

	for i := 0; i < 40; i++ {
		info, err := registry.LookupIcon(fmt.Sprintf("icon-%02d", i), 16, 0)
		require.NoError(t, err)
		pb, err := info.LoadIcon()
		require.NoError(t, err)
		pb.Release()
		info.Unref()
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	assert.Equal(t, infoCacheLRUSize, registry.lru.Len())
	assert.Len(t, registry.infoCache, infoCacheLRUSize,
		"evicted resolutions must leave the registry entirely")

	// The oldest parks were evicted, the newest survive.
	assert.NotContains(t, registry.infoCache, newCacheKey([]string{"icon-00"}, 16, 1, 0))
	assert.Contains(t, registry.infoCache, newCacheKey([]string{"icon-39"}, 16, 1, 0))
}

func TestParkPromotesToFront(t *testing.T) {
	root := t.TempDir()
	writeHicolor(t, root)
	registry := New(WithSearchPath([]string{root}))

	park := func(name string) {
		info, err := registry.LookupIcon(name, 16, 0)
		require.NoError(t, err)
		pb, err := info.LoadIcon()
		require.NoError(t, err)
		info.Unref()
		pb.Release()
	}

	park("edit-cut")
	park("folder")
	park("edit-cut")

	registry.mu.Lock()
	keys := registry.lru.Keys()
	registry.mu.Unlock()
	require.Len(t, keys, 2)
	assert.Equal(t, newCacheKey([]string{"edit-cut"}, 16, 1, 0), keys[0])
}

func TestInvalidationDropsParkedEntries(t *testing.T) {
	root := t.TempDir()
	writeHicolor(t, root)
	registry := New(WithSearchPath([]string{root}))

	info, err := registry.LookupIcon("edit-cut", 16, 0)
	require.NoError(t, err)
	pb, err := info.LoadIcon()
	require.NoError(t, err)
	info.Unref()
	pb.Release()

	held, err := registry.LookupIcon("folder", 16, 0)
	require.NoError(t, err)
	defer held.Unref()

	registry.SetSearchPath([]string{root})

	registry.mu.Lock()
	parked := registry.lru.Len()
	cached := len(registry.infoCache)
	registry.mu.Unlock()
	assert.Equal(t, 0, parked)
	assert.Equal(t, 0, cached)

	// The live reference keeps working against its resolved file even
	// though it is no longer cached.
	out, err := held.LoadIcon()
	require.NoError(t, err)
	out.Release()

	// A fresh request resolves anew.
	again, err := registry.LookupIcon("folder", 16, 0)
	require.NoError(t, err)
	defer again.Unref()
	assert.NotSame(t, held, again)
}
