package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	m, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.Equal(t, "", cfg.Theme)
	assert.Equal(t, 2, cfg.Lookup.BuiltinSlack)
	assert.Equal(t, 48, cfg.Render.Size)
	assert.Equal(t, 1, cfg.Render.Scale)
	assert.Equal(t, "#2e3436", cfg.Symbolic.Foreground)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(
		"theme: Adwaita\n"+
			"search_path:\n"+
			"  - /opt/icons\n"+
			"render:\n"+
			"  size: 64\n"+
			"  scale: 2\n"), 0o644))

	m, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.Equal(t, "Adwaita", cfg.Theme)
	assert.Equal(t, []string{"/opt/icons"}, cfg.SearchPath)
	assert.Equal(t, 64, cfg.Render.Size)
	assert.Equal(t, 2, cfg.Render.Scale)
	// Untouched sections keep their defaults.
	assert.Equal(t, 2, cfg.Lookup.BuiltinSlack)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ICONTHEME_THEME", "Papirus")
	t.Setenv("ICONTHEME_RENDER_SIZE", "128")
	t.Setenv("ICONTHEME_LOG_LEVEL", "debug")

	m, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.Equal(t, "Papirus", cfg.Theme)
	assert.Equal(t, 128, cfg.Render.Size)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidation(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("bad size", func(t *testing.T) {
		t.Setenv("ICONTHEME_RENDER_SIZE", "0")
		m, err := NewManager()
		require.NoError(t, err)
		assert.Error(t, m.Load())
	})

	t.Run("bad format", func(t *testing.T) {
		t.Setenv("ICONTHEME_LOG_FORMAT", "xml")
		m, err := NewManager()
		require.NoError(t, err)
		assert.Error(t, m.Load())
	})
}
