package icontheme

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIconData(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		writeTestFile(t, path, []byte(content))
		return path
	}

	t.Run("full descriptor", func(t *testing.T) {
		path := write("full.icon",
			"[Icon Data]\n"+
				"DisplayName=Web Browser\n"+
				"EmbeddedTextRectangle=4,4,44,40\n"+
				"AttachPoints=0,0|47,47|24,24\n")
		data, err := loadIconData(path)
		require.NoError(t, err)
		assert.Equal(t, "Web Browser", data.DisplayName)
		assert.True(t, data.HasEmbeddedRect)
		assert.Equal(t, image.Rect(4, 4, 44, 40), data.EmbeddedRect)
		assert.Equal(t, []image.Point{{0, 0}, {47, 47}, {24, 24}}, data.AttachPoints)
	})

	t.Run("name only", func(t *testing.T) {
		path := write("name.icon", "[Icon Data]\nDisplayName=Thing\n")
		data, err := loadIconData(path)
		require.NoError(t, err)
		assert.Equal(t, "Thing", data.DisplayName)
		assert.False(t, data.HasEmbeddedRect)
		assert.Nil(t, data.AttachPoints)
	})

	t.Run("malformed rectangle", func(t *testing.T) {
		path := write("badrect.icon", "[Icon Data]\nEmbeddedTextRectangle=1,2,3\n")
		_, err := loadIconData(path)
		assert.Error(t, err)
	})

	t.Run("malformed attach point", func(t *testing.T) {
		path := write("badpoint.icon", "[Icon Data]\nAttachPoints=1,2|nope\n")
		_, err := loadIconData(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadIconData(filepath.Join(dir, "absent.icon"))
		assert.Error(t, err)
	})
}
