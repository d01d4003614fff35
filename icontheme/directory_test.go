package icontheme

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedDir(size int) *themeDir {
	return &themeDir{typ: DirFixed, size: size, minSize: size, maxSize: size, threshold: 2, scale: 1}
}

func thresholdDir(size, threshold int) *themeDir {
	return &themeDir{typ: DirThreshold, size: size, minSize: size, maxSize: size, threshold: threshold, scale: 1}
}

func scalableDir(size, min, max int) *themeDir {
	return &themeDir{typ: DirScalable, size: size, minSize: min, maxSize: max, threshold: 2, scale: 1}
}

func TestDirMatchesSize(t *testing.T) {
	t.Run("fixed", func(t *testing.T) {
		d := fixedDir(32)
		assert.True(t, d.matchesSize(32, 1))
		assert.False(t, d.matchesSize(33, 1))
		assert.False(t, d.matchesSize(32, 2))
	})

	t.Run("threshold", func(t *testing.T) {
		d := thresholdDir(22, 2)
		assert.True(t, d.matchesSize(20, 1))
		assert.True(t, d.matchesSize(24, 1))
		assert.False(t, d.matchesSize(25, 1))
		assert.False(t, d.matchesSize(19, 1))
	})

	t.Run("scalable", func(t *testing.T) {
		d := scalableDir(128, 16, 256)
		assert.True(t, d.matchesSize(16, 1))
		assert.True(t, d.matchesSize(256, 1))
		assert.False(t, d.matchesSize(257, 1))
		assert.False(t, d.matchesSize(256, 2))
	})

	t.Run("scale factor must match exactly", func(t *testing.T) {
		d := fixedDir(32)
		d.scale = 2
		assert.True(t, d.matchesSize(32, 2))
		assert.False(t, d.matchesSize(64, 1))
	})
}

func TestDirSizeDistance(t *testing.T) {
	assert.Equal(t, 16, fixedDir(48).sizeDistance(32, 1))
	assert.Equal(t, 0, fixedDir(48).sizeDistance(24, 2))
	assert.Equal(t, 0, thresholdDir(22, 2).sizeDistance(24, 1))
	assert.Equal(t, 3, thresholdDir(22, 2).sizeDistance(25, 1))
	assert.Equal(t, 0, scalableDir(128, 16, 256).sizeDistance(100, 1))
	assert.Equal(t, 8, scalableDir(128, 16, 256).sizeDistance(8, 1))
	assert.Equal(t, 44, scalableDir(128, 16, 256).sizeDistance(300, 1))
}

func TestIsBetterMatch(t *testing.T) {
	t.Run("exact beats any non-exact", func(t *testing.T) {
		exact := fixedDir(48)
		closeScalable := scalableDir(128, 16, 256) // distance 0 but not exact at scale mismatch
		closeScalable.scale = 2
		assert.True(t, isBetterMatch(exact, exact.sizeDistance(48, 1), closeScalable, closeScalable.sizeDistance(48, 1), 48, 1))
		assert.False(t, isBetterMatch(closeScalable, closeScalable.sizeDistance(48, 1), exact, exact.sizeDistance(48, 1), 48, 1))
	})

	t.Run("fixed exact beats closer scalable", func(t *testing.T) {
		// A Scalable directory covering the request is exact too, so set
		// one that is merely nearby.
		exact := fixedDir(48)
		near := scalableDir(52, 50, 52)
		assert.True(t, isBetterMatch(exact, exact.sizeDistance(48, 1), near, near.sizeDistance(48, 1), 48, 1))
	})

	t.Run("downscale preferred over upscale", func(t *testing.T) {
		smaller := fixedDir(32)
		larger := fixedDir(96)
		// 32 is numerically closer to 48, but 96 can be downscaled.
		assert.True(t, isBetterMatch(larger, larger.sizeDistance(48, 1), smaller, smaller.sizeDistance(48, 1), 48, 1))
		assert.False(t, isBetterMatch(smaller, smaller.sizeDistance(48, 1), larger, larger.sizeDistance(48, 1), 48, 1))
	})

	t.Run("smaller distance wins within one direction", func(t *testing.T) {
		a := fixedDir(64)
		b := fixedDir(96)
		assert.True(t, isBetterMatch(a, a.sizeDistance(48, 1), b, b.sizeDistance(48, 1), 48, 1))
	})

	t.Run("matching scale factor wins", func(t *testing.T) {
		atScale := fixedDir(36)
		atScale.scale = 2
		offScale := fixedDir(72)
		// Same scaled distance (72 vs 64), both downscale candidates.
		assert.True(t, isBetterMatch(atScale, atScale.sizeDistance(32, 2), offScale, offScale.sizeDistance(32, 2), 32, 2))
	})

	t.Run("never cyclic", func(t *testing.T) {
		dirs := []*themeDir{
			fixedDir(16), fixedDir(22), fixedDir(32), fixedDir(48), fixedDir(96),
			thresholdDir(22, 2), thresholdDir(24, 4),
			scalableDir(128, 16, 256), scalableDir(48, 32, 64),
		}
		for _, size := range []int{16, 24, 48, 200} {
			for _, a := range dirs {
				for _, b := range dirs {
					if a == b {
						continue
					}
					ab := isBetterMatch(a, a.sizeDistance(size, 1), b, b.sizeDistance(size, 1), size, 1)
					ba := isBetterMatch(b, b.sizeDistance(size, 1), a, a.sizeDistance(size, 1), size, 1)
					assert.False(t, ab && ba, "both better than each other at size %d", size)
				}
			}
		}
	})

	t.Run("scan order independent", func(t *testing.T) {
		base := []*themeDir{
			fixedDir(16), fixedDir(32), fixedDir(96),
			thresholdDir(22, 2), scalableDir(128, 64, 256),
		}
		pick := func(dirs []*themeDir, size int) *themeDir {
			var best *themeDir
			bestDist := 0
			for _, d := range dirs {
				dist := d.sizeDistance(size, 1)
				if isBetterMatch(d, dist, best, bestDist, size, 1) {
					best, bestDist = d, dist
				}
			}
			return best
		}
		rng := rand.New(rand.NewSource(1))
		for _, size := range []int{17, 24, 48, 80, 300} {
			want := pick(base, size)
			for i := 0; i < 20; i++ {
				shuffled := append([]*themeDir(nil), base...)
				rng.Shuffle(len(shuffled), func(a, b int) {
					shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
				})
				got := pick(shuffled, size)
				assert.Equal(t, want.size, got.size, "size %d", size)
				assert.Equal(t, want.typ, got.typ, "size %d", size)
			}
		}
	})
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"folder.png", "folder.svg", "folder.icon", "edit-cut.xpm", "README"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.png"), 0o755))

	icons := scanDirectory(dir)
	require.NotNil(t, icons)
	assert.Equal(t, FormatPNG|FormatSVG|FormatIconFile, icons["folder"])
	assert.Equal(t, FormatXPM, icons["edit-cut"])
	assert.NotContains(t, icons, "README")
	assert.NotContains(t, icons, "subdir")

	assert.Nil(t, scanDirectory(filepath.Join(dir, "missing")))
}

func TestBestFormat(t *testing.T) {
	assert.Equal(t, FormatPNG, bestFormat(FormatPNG|FormatSVG|FormatXPM, true))
	assert.Equal(t, FormatSVG, bestFormat(FormatSVG|FormatXPM, true))
	assert.Equal(t, FormatXPM, bestFormat(FormatSVG|FormatXPM, false))
	assert.Equal(t, FormatNone, bestFormat(FormatSVG, false))
	assert.Equal(t, FormatNone, bestFormat(FormatIconFile, true))
}
