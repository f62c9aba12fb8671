package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	content := `
ignore = ["ls", " cd ", ""]
bar_size = 40
count = 10
more_than = 2
color = "Never"
subcommands = true
dialect = "zsh"
output = "json"

[archive]
enabled = true
path = "~/runs.db"

[watch]
debounce = "1s"
max_refresh_per_second = 5.5

[observability]
metrics_addr = "127.0.0.1:9464"
`
	cfg, err := Load(writeConfig(t, t.TempDir(), content))
	require.NoError(t, err)

	assert.Equal(t, []string{"ls", "cd"}, cfg.Ignore)
	assert.Equal(t, 40, cfg.BarSize)
	assert.Equal(t, 10, cfg.Count)
	assert.Equal(t, 2, cfg.MoreThan)
	assert.Equal(t, "never", cfg.Color)
	assert.True(t, cfg.Subcommands)
	assert.Equal(t, "zsh", cfg.Dialect)
	assert.Equal(t, "json", cfg.Output)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, filepath.Join(HomeDir(), "runs.db"), cfg.Archive.Path)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, 5.5, cfg.Watch.MaxRefreshPerSecond)
	assert.Equal(t, "127.0.0.1:9464", cfg.Observability.MetricsAddr)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("XDG_DATA_HOME", "")

	cfg, err := Load(writeConfig(t, t.TempDir(), `count = 5`))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Count)
	assert.Equal(t, DefaultBarSize, cfg.BarSize)
	assert.Equal(t, "auto", cfg.Color)
	assert.Equal(t, "auto", cfg.Dialect)
	assert.Equal(t, "text", cfg.Output)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, DefaultRefreshHz, cfg.Watch.MaxRefreshPerSecond)
	assert.Equal(t, "/home/tester/.local/share/histop/archive.db", cfg.Archive.Path)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"malformed", "bad = toml = format", "parse"},
		{"unknown key", "colour = \"never\"", "unknown config keys: colour"},
		{"unknown nested key", "[watch]\ninterval = \"1s\"", "watch.interval"},
		{"wrong type", `count = "ten"`, "parse"},
		{"zero bar size", "bar_size = 0", "bar_size must be a positive integer"},
		{"zero count", "count = 0", "count must be a positive integer"},
		{"negative more_than", "more_than = -1", "more_than must be a non-negative integer"},
		{"bad color", `color = "sometimes"`, "color must be one of"},
		{"bad dialect", `dialect = "nushell"`, "dialect must be one of"},
		{"bad output", `output = "xml"`, "output must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, t.TempDir(), tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BarSize = 0
	cfg.Count = -1
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bar_size")
	assert.Contains(t, err.Error(), "count")
}

func TestLoadLayered(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	t.Run("explicit file overrides default file", func(t *testing.T) {
		defaultPath := writeConfig(t, t.TempDir(), "count = 5\nbar_size = 10\n")
		explicit := writeConfig(t, t.TempDir(), "count = 7\n")

		cfg, err := LoadLayered(defaultPath, explicit)
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.Count)
		assert.Equal(t, 10, cfg.BarSize)
	})

	t.Run("missing default file is fine", func(t *testing.T) {
		cfg, err := LoadLayered(filepath.Join(t.TempDir(), "missing.toml"), "")
		require.NoError(t, err)
		assert.Equal(t, DefaultCount, cfg.Count)
	})

	t.Run("invalid default file is skipped", func(t *testing.T) {
		defaultPath := writeConfig(t, t.TempDir(), "count = 3\nnope = 1\n")
		cfg, err := LoadLayered(defaultPath, "")
		require.NoError(t, err)
		assert.Equal(t, DefaultCount, cfg.Count)
	})

	t.Run("explicit file must exist", func(t *testing.T) {
		_, err := LoadLayered("", filepath.Join(t.TempDir(), "missing.toml"))
		assert.Error(t, err)
	})

	t.Run("env overrides files", func(t *testing.T) {
		t.Setenv("HISTOP_COUNT", "3")
		t.Setenv("HISTOP_IGNORE", "ls | cd|")
		t.Setenv("HISTOP_WATCH_DEBOUNCE", "2s")
		t.Setenv("HISTOP_ARCHIVE_ENABLED", "true")
		t.Setenv("HISTOP_BAR_SIZE", "not-a-number")
		explicit := writeConfig(t, t.TempDir(), "count = 7\n")

		cfg, err := LoadLayered("", explicit)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Count)
		assert.Equal(t, []string{"ls", "cd"}, cfg.Ignore)
		assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
		assert.True(t, cfg.Archive.Enabled)
		assert.Equal(t, DefaultBarSize, cfg.BarSize)
	})
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	t.Setenv("XDG_CONFIG_HOME", "")
	assert.Equal(t, "/home/tester/.config/histop/config.toml", DefaultConfigPath())

	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	assert.Equal(t, "/xdg/config/histop/config.toml", DefaultConfigPath())

	t.Setenv("XDG_CONFIG_HOME", "relative/ignored")
	assert.Equal(t, "/home/tester/.config/histop/config.toml", DefaultConfigPath())

	t.Setenv("XDG_STATE_HOME", "")
	assert.Equal(t, "/home/tester/.local/state/histop", StateDir())

	assert.Equal(t, "/home/tester/x", ExpandHome("~/x"))
	assert.Equal(t, "/abs/x", ExpandHome("/abs/x"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"ls", "cd", "git*"}, SplitList(" ls|cd || git* "))
	assert.Nil(t, SplitList(""))
}
