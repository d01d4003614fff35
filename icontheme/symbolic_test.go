package icontheme

import (
	"encoding/base64"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func symbolicFixture(t *testing.T) (*IconTheme, *fakeRasterizer) {
	t.Helper()
	root := t.TempDir()
	writeThemeIndex(t, root, DefaultThemeName, nil, []testDir{
		{subdir: "scalable/status", size: 16, typ: "Scalable", min: 8, max: 512, context: "Status"},
	}, nil)
	writeTestFile(t, filepath.Join(root, DefaultThemeName, "scalable/status/battery-low-symbolic.svg"), []byte(testSVG))
	writeIcon(t, root, DefaultThemeName, "scalable/status", "plain", 16)
	codec, raster := svgCodec()
	return New(WithSearchPath([]string{root}), WithCodec(codec)), raster
}

func TestIsSymbolic(t *testing.T) {
	registry, _ := symbolicFixture(t)

	sym, err := registry.LookupIcon("battery-low-symbolic", 16, 0)
	require.NoError(t, err)
	defer sym.Unref()
	assert.True(t, sym.IsSymbolic())

	plain, err := registry.LookupIcon("plain", 16, 0)
	require.NoError(t, err)
	defer plain.Unref()
	assert.False(t, plain.IsSymbolic(), "raster icons are never symbolic")
}

func TestLoadSymbolicDocument(t *testing.T) {
	registry, raster := symbolicFixture(t)

	info, err := registry.LookupIcon("battery-low-symbolic", 24, 0)
	require.NoError(t, err)
	defer info.Unref()

	white := RGBA{R: 1, G: 1, B: 1, A: 1}
	pb, wasSymbolic, err := info.LoadSymbolic(white, nil, nil, nil)
	require.NoError(t, err)
	defer pb.Release()
	assert.True(t, wasSymbolic)

	require.Equal(t, 1, raster.calls)
	doc := string(raster.lastDoc)
	assert.Contains(t, doc, `width="24"`)
	assert.Contains(t, doc, "rgb(255,255,255)")
	assert.Contains(t, doc, "rgb(78,154,6)", "default success color")
	assert.Contains(t, doc, "rgb(245,121,0)", "default warning color")
	assert.Contains(t, doc, "rgb(204,0,0)", "default error color")
	assert.Contains(t, doc, base64.StdEncoding.EncodeToString([]byte(testSVG)),
		"source markup must ride along unescaped")
	assert.Equal(t, 24, raster.lastW)

	t.Run("custom state colors", func(t *testing.T) {
		crimson := RGBA{R: 0.86, G: 0.08, B: 0.24, A: 1}
		pb2, _, err := info.LoadSymbolic(white, nil, nil, &crimson)
		require.NoError(t, err)
		defer pb2.Release()
		assert.Contains(t, string(raster.lastDoc), "rgb(219,20,61)")
	})
}

func TestLoadSymbolicMemoization(t *testing.T) {
	registry, raster := symbolicFixture(t)

	info, err := registry.LookupIcon("battery-low-symbolic", 16, 0)
	require.NoError(t, err)
	defer info.Unref()

	fg := RGBA{R: 0.2, G: 0.4, B: 0.6, A: 1}
	first, _, err := info.LoadSymbolic(fg, nil, nil, nil)
	require.NoError(t, err)
	defer first.Release()
	require.Equal(t, 1, raster.calls)

	t.Run("near colors reuse the raster", func(t *testing.T) {
		near := RGBA{R: 0.2 + 5e-5, G: 0.4, B: 0.6, A: 1}
		pb, _, err := info.LoadSymbolic(near, nil, nil, nil)
		require.NoError(t, err)
		defer pb.Release()
		assert.Equal(t, 1, raster.calls)
		assert.Same(t, &first.Pix()[0], &pb.Pix()[0])
	})

	t.Run("distinct colors render anew", func(t *testing.T) {
		other := RGBA{R: 0.21, G: 0.4, B: 0.6, A: 1}
		pb, _, err := info.LoadSymbolic(other, nil, nil, nil)
		require.NoError(t, err)
		defer pb.Release()
		assert.Equal(t, 2, raster.calls)
	})

	t.Run("explicit default is not the unset tuple", func(t *testing.T) {
		// Passing the default success color explicitly renders the same
		// pixels but memoizes under its own tuple.
		s := DefaultSuccessColor
		pb, _, err := info.LoadSymbolic(fg, &s, nil, nil)
		require.NoError(t, err)
		defer pb.Release()
		assert.Equal(t, 3, raster.calls)
	})
}

func TestLoadSymbolicPassthrough(t *testing.T) {
	registry, raster := symbolicFixture(t)

	info, err := registry.LookupIcon("plain", 16, 0)
	require.NoError(t, err)
	defer info.Unref()

	pb, wasSymbolic, err := info.LoadSymbolic(RGBA{A: 1}, nil, nil, nil)
	require.NoError(t, err)
	defer pb.Release()
	assert.False(t, wasSymbolic)
	assert.Equal(t, 0, raster.calls)
	assert.Equal(t, 16, pb.Width())
}
