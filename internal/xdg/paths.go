// Package xdg resolves the XDG base directories used to build the default
// icon search path.
// spec: https://specifications.freedesktop.org/icon-theme-spec/icon-theme-spec-latest.html
package xdg

import (
	"os"
	"path/filepath"
	"strings"
)

// DataHome returns $XDG_DATA_HOME, defaulting to ~/.local/share.
func DataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share")
}

// DataDirs returns $XDG_DATA_DIRS, defaulting to the spec's
// /usr/local/share:/usr/share.
func DataDirs() []string {
	dirs := os.Getenv("XDG_DATA_DIRS")
	if dirs == "" {
		return []string{"/usr/local/share", "/usr/share"}
	}
	var out []string
	for _, d := range strings.Split(dirs, string(os.PathListSeparator)) {
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

// IconSearchPath returns the default icon search path: the user icon
// directory, the legacy ~/.icons dotfile directory, then <data-dir>/icons
// and <data-dir>/pixmaps for every system data directory, in that order.
func IconSearchPath() []string {
	var path []string

	if dataHome := DataHome(); dataHome != "" {
		path = append(path, filepath.Join(dataHome, "icons"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		path = append(path, filepath.Join(home, ".icons"))
	}
	for _, dir := range DataDirs() {
		path = append(path, filepath.Join(dir, "icons"))
	}
	for _, dir := range DataDirs() {
		path = append(path, filepath.Join(dir, "pixmaps"))
	}
	return path
}
