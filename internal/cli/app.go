// Package cli wires the configuration, logger, and icon registry behind
// the CLI commands.
package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bnema/icontheme/icontheme"
	"github.com/bnema/icontheme/internal/cli/styles"
	"github.com/bnema/icontheme/internal/config"
	"github.com/bnema/icontheme/internal/logging"
)

// App holds CLI dependencies.
type App struct {
	Config   *config.Config
	Manager  *config.Manager
	Log      zerolog.Logger
	Theme    *styles.Theme
	Registry *icontheme.IconTheme
}

// NewApp loads the configuration and builds the icon registry from it.
func NewApp() (*App, error) {
	manager, err := config.NewManager()
	if err != nil {
		return nil, err
	}
	if err := manager.Load(); err != nil {
		return nil, err
	}
	cfg := manager.Get()

	log := logging.New(logging.Config{
		Level:      parseLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		TimeFormat: "15:04:05",
	})

	opts := []icontheme.Option{
		icontheme.WithLogger(log),
		icontheme.WithBuiltinSlack(cfg.Lookup.BuiltinSlack),
	}
	if cfg.Theme != "" {
		opts = append(opts, icontheme.WithThemeName(cfg.Theme))
	}
	if len(cfg.SearchPath) > 0 {
		opts = append(opts, icontheme.WithSearchPath(cfg.SearchPath))
	}

	return &App{
		Config:   cfg,
		Manager:  manager,
		Log:      log,
		Theme:    styles.NewTheme(),
		Registry: icontheme.New(opts...),
	}, nil
}

// Close releases the registry.
func (a *App) Close() error {
	a.Registry.Close()
	return nil
}

// LookupFlags translates the configured lookup preferences.
func (a *App) LookupFlags() icontheme.LookupFlags {
	var flags icontheme.LookupFlags
	if a.Config.Lookup.GenericFallback {
		flags |= icontheme.LookupGenericFallback
	}
	if a.Config.Lookup.NoSVG {
		flags |= icontheme.LookupNoSVG
	}
	if a.Config.Render.ForceSize {
		flags |= icontheme.LookupForceSize
	}
	return flags
}

// SymbolicPalette resolves the configured recoloring palette. State
// colors left empty stay nil so the engine defaults apply.
func (a *App) SymbolicPalette() (fg icontheme.RGBA, success, warning, errColor *icontheme.RGBA, err error) {
	fg, err = ParseHexColor(a.Config.Symbolic.Foreground)
	if err != nil {
		return fg, nil, nil, nil, fmt.Errorf("symbolic.foreground: %w", err)
	}
	parse := func(key, value string) (*icontheme.RGBA, error) {
		if value == "" {
			return nil, nil
		}
		c, err := ParseHexColor(value)
		if err != nil {
			return nil, fmt.Errorf("symbolic.%s: %w", key, err)
		}
		return &c, nil
	}
	if success, err = parse("success", a.Config.Symbolic.Success); err != nil {
		return fg, nil, nil, nil, err
	}
	if warning, err = parse("warning", a.Config.Symbolic.Warning); err != nil {
		return fg, nil, nil, nil, err
	}
	if errColor, err = parse("error", a.Config.Symbolic.Error); err != nil {
		return fg, nil, nil, nil, err
	}
	return fg, success, warning, errColor, nil
}

// ParseHexColor parses "#rgb" or "#rrggbb" into an opaque color.
func ParseHexColor(s string) (icontheme.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	var r, g, b int
	var err error
	switch len(hex) {
	case 3:
		_, err = fmt.Sscanf(hex, "%1x%1x%1x", &r, &g, &b)
		r, g, b = r*17, g*17, b*17
	case 6:
		_, err = fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	default:
		return icontheme.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	if err != nil {
		return icontheme.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return icontheme.RGBA{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
		A: 1,
	}, nil
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
