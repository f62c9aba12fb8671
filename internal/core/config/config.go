package config

import (
	"strings"
	"time"
)

const (
	DefaultBarSize   = 25
	DefaultCount     = 25
	DefaultDebounce  = 500 * time.Millisecond
	DefaultRefreshHz = 2.0
)

// Config is the on-disk configuration of histop. Command-line flags are
// applied on top of it by the caller.
type Config struct {
	Ignore        []string      `toml:"ignore"`
	BarSize       int           `toml:"bar_size"`
	Count         int           `toml:"count"`
	MoreThan      int           `toml:"more_than"`
	Color         string        `toml:"color"`
	Subcommands   bool          `toml:"subcommands"`
	Dialect       string        `toml:"dialect"`
	Output        string        `toml:"output"`
	MaxLabelWidth int           `toml:"max_label_width"`
	Archive       Archive       `toml:"archive"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Archive struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Watch struct {
	Debounce            time.Duration `toml:"debounce"`
	MaxRefreshPerSecond float64       `toml:"max_refresh_per_second"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

// DefaultConfig returns the built-in settings. Files are decoded on top of
// it, so keys a file leaves out keep these values.
func DefaultConfig() *Config {
	return &Config{
		BarSize: DefaultBarSize,
		Count:   DefaultCount,
		Color:   "auto",
		Dialect: "auto",
		Output:  "text",
		Watch: Watch{
			Debounce:            DefaultDebounce,
			MaxRefreshPerSecond: DefaultRefreshHz,
		},
	}
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Color) == "" {
		cfg.Color = "auto"
	}
	if strings.TrimSpace(cfg.Dialect) == "" {
		cfg.Dialect = "auto"
	}
	if strings.TrimSpace(cfg.Output) == "" {
		cfg.Output = "text"
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}
	if cfg.Watch.MaxRefreshPerSecond == 0 {
		cfg.Watch.MaxRefreshPerSecond = DefaultRefreshHz
	}
	if strings.TrimSpace(cfg.Archive.Path) == "" {
		cfg.Archive.Path = DefaultArchivePath()
	}
}

func normalize(cfg *Config) {
	cfg.Color = strings.ToLower(strings.TrimSpace(cfg.Color))
	cfg.Dialect = strings.ToLower(strings.TrimSpace(cfg.Dialect))
	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))
	cfg.Archive.Path = ExpandHome(strings.TrimSpace(cfg.Archive.Path))

	ignore := cfg.Ignore[:0]
	for _, entry := range cfg.Ignore {
		if entry = strings.TrimSpace(entry); entry != "" {
			ignore = append(ignore, entry)
		}
	}
	cfg.Ignore = ignore
}
