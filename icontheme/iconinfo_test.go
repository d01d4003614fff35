package icontheme

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/icontheme/pixbuf"
)

func solidPixbuf(w, h int, r, g, b uint8) *pixbuf.Pixbuf {
	pb := pixbuf.New(w, h)
	pix := pb.Pix()
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = r, g, b, 0xff
	}
	return pb
}

func pixelAt(pb *pixbuf.Pixbuf, x, y int) [4]uint8 {
	i := pb.Image().PixOffset(x, y)
	pix := pb.Pix()
	return [4]uint8{pix[i], pix[i+1], pix[i+2], pix[i+3]}
}

func TestIconInfoForFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "pic.png")
	writeTestFile(t, path, pngBytes(t, 16))
	registry := New(WithSearchPath([]string{root}))

	info := registry.NewIconInfoForFile(path, 48, 1)
	defer info.Unref()
	assert.Equal(t, path, info.Filename())

	// File-backed infos honor the requested size exactly.
	pb, err := info.LoadIcon()
	require.NoError(t, err)
	defer pb.Release()
	assert.Equal(t, 48, pb.Width())
	assert.Equal(t, 48, pb.Height())

	scale, err := info.RenderScale()
	require.NoError(t, err)
	assert.InDelta(t, 3.0, scale, 1e-9)
}

func TestIconInfoForPixbuf(t *testing.T) {
	registry := New(WithSearchPath([]string{t.TempDir()}))
	src := solidPixbuf(32, 32, 0, 0, 0xff)

	info := registry.NewIconInfoForPixbuf(src, 16, 1)
	defer info.Unref()

	pb, err := info.LoadIcon()
	require.NoError(t, err)
	defer pb.Release()
	assert.Equal(t, 16, pb.Width())
}

func TestRenderScaleByDirectoryType(t *testing.T) {
	root := t.TempDir()
	writeThemeIndex(t, root, DefaultThemeName, nil, []testDir{
		{subdir: "fixed/32", size: 32, typ: "Fixed"},
		{subdir: "thresh/24", size: 24, typ: "Threshold", threshold: 4},
		{subdir: "scalable", size: 128, typ: "Scalable", min: 8, max: 256},
	}, nil)
	writeIcon(t, root, DefaultThemeName, "fixed/32", "raster-fixed", 32)
	writeIcon(t, root, DefaultThemeName, "thresh/24", "raster-thresh", 24)
	writeIcon(t, root, DefaultThemeName, "scalable", "raster-free", 128)
	registry := New(WithSearchPath([]string{root}))

	renderScale := func(t *testing.T, name string, size int) float64 {
		info, err := registry.LookupIcon(name, size, 0)
		require.NoError(t, err)
		defer info.Unref()
		scale, err := info.RenderScale()
		require.NoError(t, err)
		return scale
	}

	t.Run("fixed keeps its nominal size", func(t *testing.T) {
		assert.InDelta(t, 1.0, renderScale(t, "raster-fixed", 20), 1e-9)
	})

	t.Run("threshold inside the band keeps nominal size", func(t *testing.T) {
		assert.InDelta(t, 1.0, renderScale(t, "raster-thresh", 26), 1e-9)
	})

	t.Run("threshold outside the band rescales", func(t *testing.T) {
		// 24's band reaches 28; at 48 the only candidates are outside
		// their comfort zone and the raster is stretched by ratio.
		assert.InDelta(t, 2.0, renderScale(t, "raster-thresh", 48), 1e-9)
	})

	t.Run("scalable tracks the request", func(t *testing.T) {
		assert.InDelta(t, 0.5, renderScale(t, "raster-free", 64), 1e-9)
		pb, err := registry.LoadIcon("raster-free", 64, 0)
		require.NoError(t, err)
		defer pb.Release()
		assert.Equal(t, 64, pb.Width())
	})
}

func TestEmblemComposition(t *testing.T) {
	registry := New(WithSearchPath([]string{t.TempDir()}))

	newBase := func() (*IconInfo, *pixbuf.Pixbuf) {
		src := solidPixbuf(32, 32, 0, 0, 0xff)
		return registry.NewIconInfoForPixbuf(src, 32, 1), src
	}
	newEmblem := func() *IconInfo {
		return registry.NewIconInfoForPixbuf(solidPixbuf(8, 8, 0xff, 0, 0), 8, 1)
	}

	t.Run("corners in order", func(t *testing.T) {
		base, src := newBase()
		defer base.Unref()
		for i := 0; i < 4; i++ {
			e := newEmblem()
			defer e.Unref()
			base.AddEmblem(e)
		}

		pb, err := base.LoadIcon()
		require.NoError(t, err)
		defer pb.Release()

		red := [4]uint8{0xff, 0, 0, 0xff}
		assert.Equal(t, red, pixelAt(pb, 31, 31), "first emblem south-east")
		assert.Equal(t, red, pixelAt(pb, 31, 0), "second emblem north-east")
		assert.Equal(t, red, pixelAt(pb, 0, 0), "third emblem north-west")
		assert.Equal(t, red, pixelAt(pb, 0, 31), "fourth emblem south-west")
		assert.Equal(t, [4]uint8{0, 0, 0xff, 0xff}, pixelAt(pb, 16, 16), "center untouched")

		// Composition happens on a copy, never on the base raster.
		assert.Equal(t, [4]uint8{0, 0, 0xff, 0xff}, pixelAt(src, 31, 31))
	})

	t.Run("single emblem leaves other corners alone", func(t *testing.T) {
		base, _ := newBase()
		defer base.Unref()
		e := newEmblem()
		defer e.Unref()
		base.AddEmblem(e)

		pb, err := base.LoadIcon()
		require.NoError(t, err)
		defer pb.Release()
		assert.Equal(t, [4]uint8{0xff, 0, 0, 0xff}, pixelAt(pb, 31, 31))
		assert.Equal(t, [4]uint8{0, 0, 0xff, 0xff}, pixelAt(pb, 0, 0))
	})

	t.Run("oversized emblem shrinks to three quarters", func(t *testing.T) {
		base, _ := newBase()
		defer base.Unref()
		big := registry.NewIconInfoForPixbuf(solidPixbuf(32, 32, 0xff, 0, 0), 32, 1)
		defer big.Unref()
		base.AddEmblem(big)

		pb, err := base.LoadIcon()
		require.NoError(t, err)
		defer pb.Release()
		// Shrunk to 24x24 in the south-east corner: (7,7) is outside it.
		assert.Equal(t, [4]uint8{0xff, 0, 0, 0xff}, pixelAt(pb, 31, 31))
		assert.Equal(t, [4]uint8{0, 0, 0xff, 0xff}, pixelAt(pb, 7, 7))
	})

	t.Run("no emblems means no copy", func(t *testing.T) {
		base, src := newBase()
		defer base.Unref()
		pb, err := base.LoadIcon()
		require.NoError(t, err)
		defer pb.Release()
		assert.Same(t, &src.Pix()[0], &pb.Pix()[0])
	})
}

func TestIconSidecarData(t *testing.T) {
	root := t.TempDir()
	writeThemeIndex(t, root, DefaultThemeName, nil, []testDir{
		{subdir: "32x32/apps", size: 32, typ: "Fixed", context: "Applications"},
	}, nil)
	writeIcon(t, root, DefaultThemeName, "32x32/apps", "mail", 32)
	writeTestFile(t, filepath.Join(root, DefaultThemeName, "32x32/apps/mail.icon"), []byte(
		"[Icon Data]\n"+
			"DisplayName=Mail Reader\n"+
			"EmbeddedTextRectangle=4,8,28,24\n"+
			"AttachPoints=2,2|30,30\n"))
	registry := New(WithSearchPath([]string{root}))

	t.Run("exposed at nominal size", func(t *testing.T) {
		info, err := registry.LookupIcon("mail", 32, 0)
		require.NoError(t, err)
		defer info.Unref()

		assert.Equal(t, "Mail Reader", info.DisplayName())
		rect, ok := info.EmbeddedRect()
		require.True(t, ok)
		assert.Equal(t, image.Rect(4, 8, 28, 24), rect)
		assert.Equal(t, []image.Point{{X: 2, Y: 2}, {X: 30, Y: 30}}, info.AttachPoints())
	})

	t.Run("coordinates follow the render scale", func(t *testing.T) {
		info, err := registry.LookupIcon("mail", 32, LookupForceSize)
		require.NoError(t, err)
		defer info.Unref()
		// Force a 16px render: coordinates shrink with it.
		info.desiredSize = 16
		rect, ok := info.EmbeddedRect()
		require.True(t, ok)
		assert.Equal(t, image.Rect(2, 4, 14, 12), rect)

		info.SetRawCoordinates(true)
		raw, ok := info.EmbeddedRect()
		require.True(t, ok)
		assert.Equal(t, image.Rect(4, 8, 28, 24), raw)
	})

	t.Run("absent sidecar", func(t *testing.T) {
		loose := filepath.Join(root, "plain.png")
		writeTestFile(t, loose, pngBytes(t, 16))
		info := registry.NewIconInfoForFile(loose, 16, 1)
		defer info.Unref()
		assert.Equal(t, "", info.DisplayName())
		_, ok := info.EmbeddedRect()
		assert.False(t, ok)
		assert.Nil(t, info.AttachPoints())
	})
}
