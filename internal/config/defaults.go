package config

import "runtime"

func (m *Manager) setDefaults() {
	m.viper.SetDefault("theme", "")
	m.viper.SetDefault("search_path", []string{})

	m.viper.SetDefault("lookup.builtin_slack", 2)
	m.viper.SetDefault("lookup.generic_fallback", false)
	m.viper.SetDefault("lookup.no_svg", false)

	m.viper.SetDefault("render.size", 48)
	m.viper.SetDefault("render.scale", 1)
	m.viper.SetDefault("render.force_size", false)
	m.viper.SetDefault("render.output_dir", ".")
	m.viper.SetDefault("render.concurrency", runtime.NumCPU())

	m.viper.SetDefault("symbolic.foreground", "#2e3436")
	m.viper.SetDefault("symbolic.success", "")
	m.viper.SetDefault("symbolic.warning", "")
	m.viper.SetDefault("symbolic.error", "")

	m.viper.SetDefault("logging.level", "info")
	m.viper.SetDefault("logging.format", "console")
}
