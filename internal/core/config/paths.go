package config

import (
	"os"
	"path/filepath"
	"strings"
)

const appName = "histop"

// HomeDir returns $HOME, falling back to the OS lookup.
func HomeDir() string {
	if home := strings.TrimSpace(os.Getenv("HOME")); home != "" {
		return home
	}
	home, _ := os.UserHomeDir()
	return home
}

// ExpandHome replaces a leading "~/" with the home directory.
func ExpandHome(path string) string {
	if path == "~" {
		return HomeDir()
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(HomeDir(), rest)
	}
	return path
}

func xdgDir(envKey string, fallback ...string) string {
	if dir := strings.TrimSpace(os.Getenv(envKey)); dir != "" && filepath.IsAbs(dir) {
		return filepath.Join(dir, appName)
	}
	home := HomeDir()
	if home == "" {
		return ""
	}
	return filepath.Join(append(append([]string{home}, fallback...), appName)...)
}

// DefaultConfigPath is $XDG_CONFIG_HOME/histop/config.toml or
// ~/.config/histop/config.toml.
func DefaultConfigPath() string {
	dir := xdgDir("XDG_CONFIG_HOME", ".config")
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// DefaultArchivePath is $XDG_DATA_HOME/histop/archive.db or
// ~/.local/share/histop/archive.db.
func DefaultArchivePath() string {
	dir := xdgDir("XDG_DATA_HOME", ".local", "share")
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "archive.db")
}

// StateDir is where the TUI log file lives.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", ".local", "state")
}
