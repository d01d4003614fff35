// Package config handles configuration loading for the icon theme
// engine and CLI, backed by Viper with file, environment, and default
// layering.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	Theme      string         `mapstructure:"theme" yaml:"theme"`
	SearchPath []string       `mapstructure:"search_path" yaml:"search_path"`
	Lookup     LookupConfig   `mapstructure:"lookup" yaml:"lookup"`
	Render     RenderConfig   `mapstructure:"render" yaml:"render"`
	Symbolic   SymbolicConfig `mapstructure:"symbolic" yaml:"symbolic"`
	Logging    LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// LookupConfig tunes icon resolution.
type LookupConfig struct {
	// BuiltinSlack is the size tolerance within which a registered
	// builtin raster counts as an exact match.
	BuiltinSlack int `mapstructure:"builtin_slack" yaml:"builtin_slack"`
	// GenericFallback enables hyphen-segment fallback for every lookup
	// issued by the CLI.
	GenericFallback bool `mapstructure:"generic_fallback" yaml:"generic_fallback"`
	// NoSVG hides vector icons from resolution.
	NoSVG bool `mapstructure:"no_svg" yaml:"no_svg"`
}

// RenderConfig holds defaults for the render command.
type RenderConfig struct {
	Size        int    `mapstructure:"size" yaml:"size"`
	Scale       int    `mapstructure:"scale" yaml:"scale"`
	ForceSize   bool   `mapstructure:"force_size" yaml:"force_size"`
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir"`
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"`
}

// SymbolicConfig holds the recoloring palette as #rrggbb strings. Empty
// state colors fall back to the engine defaults.
type SymbolicConfig struct {
	Foreground string `mapstructure:"foreground" yaml:"foreground"`
	Success    string `mapstructure:"success" yaml:"success"`
	Warning    string `mapstructure:"warning" yaml:"warning"`
	Error      string `mapstructure:"error" yaml:"error"`
}

// LoggingConfig holds logging preferences.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Manager handles configuration loading, watching, and reloading.
type Manager struct {
	config    *Config
	viper     *viper.Viper
	mu        sync.RWMutex
	callbacks []func(*Config)
	watching  bool
}

// NewManager creates a configuration manager rooted at the user config
// directory.
func NewManager() (*Manager, error) {
	v := viper.New()
	v.SetConfigName("config")

	configDir, err := Dir()
	if err != nil {
		return nil, fmt.Errorf("resolve config directory: %w", err)
	}
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	v.SetEnvPrefix("ICONTHEME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"theme":                  "THEME",
		"lookup.builtin_slack":   "LOOKUP_BUILTIN_SLACK",
		"lookup.no_svg":          "LOOKUP_NO_SVG",
		"render.size":            "RENDER_SIZE",
		"render.scale":           "RENDER_SCALE",
		"render.output_dir":      "RENDER_OUTPUT_DIR",
		"render.concurrency":     "RENDER_CONCURRENCY",
		"symbolic.foreground":    "SYMBOLIC_FOREGROUND",
		"logging.level":          "LOG_LEVEL",
		"logging.format":         "LOG_FORMAT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "ICONTHEME_"+env); err != nil {
			return nil, fmt.Errorf("bind environment variable %s: %w", env, err)
		}
	}

	return &Manager{viper: v}, nil
}

// Dir returns the configuration directory, creating nothing.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "icontheme"), nil
}

// Load reads the configuration from file and environment. A missing
// config file is not an error; defaults apply.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setDefaults()

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := m.viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Get returns the current configuration. Load must have succeeded.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// OnChange registers a callback invoked with the fresh configuration
// after a successful reload.
func (m *Manager) OnChange(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Watch starts watching the config file for changes.
func (m *Manager) Watch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watching {
		return
	}
	m.watching = true

	m.viper.WatchConfig()
	m.viper.OnConfigChange(func(_ fsnotify.Event) {
		cfg := &Config{}
		if err := m.viper.Unmarshal(cfg); err != nil {
			return
		}
		if err := validate(cfg); err != nil {
			return
		}
		m.mu.Lock()
		m.config = cfg
		callbacks := append([]func(*Config){}, m.callbacks...)
		m.mu.Unlock()
		for _, fn := range callbacks {
			fn(cfg)
		}
	})
}

func validate(cfg *Config) error {
	if cfg.Render.Size <= 0 {
		return fmt.Errorf("render.size must be positive, got %d", cfg.Render.Size)
	}
	if cfg.Render.Scale < 1 {
		return fmt.Errorf("render.scale must be at least 1, got %d", cfg.Render.Scale)
	}
	if cfg.Lookup.BuiltinSlack < 0 {
		return fmt.Errorf("lookup.builtin_slack must not be negative, got %d", cfg.Lookup.BuiltinSlack)
	}
	switch cfg.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", cfg.Logging.Format)
	}
	return nil
}
