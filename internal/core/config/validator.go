package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	colorModes    = []string{"auto", "always", "never"}
	dialectNames  = []string{"auto", "shell", "bash", "zsh", "ash", "sh", "fish", "tcsh", "csh", "powershell", "pwsh"}
	outputFormats = []string{"text", "json", "csv", "yaml", "yml"}
)

// Validate reports every invalid setting in cfg.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.BarSize <= 0 {
		errs = append(errs, fmt.Errorf("bar_size must be a positive integer, got %d", cfg.BarSize))
	}
	if cfg.Count <= 0 {
		errs = append(errs, fmt.Errorf("count must be a positive integer, got %d", cfg.Count))
	}
	if cfg.MoreThan < 0 {
		errs = append(errs, fmt.Errorf("more_than must be a non-negative integer, got %d", cfg.MoreThan))
	}
	if cfg.MaxLabelWidth < 0 {
		errs = append(errs, fmt.Errorf("max_label_width must be >= 0, got %d", cfg.MaxLabelWidth))
	}
	if !slices.Contains(colorModes, cfg.Color) {
		errs = append(errs, fmt.Errorf("color must be one of: auto, always, never (got %q)", cfg.Color))
	}
	if !slices.Contains(dialectNames, cfg.Dialect) {
		errs = append(errs, fmt.Errorf("dialect must be one of: auto, shell, fish, tcsh, powershell (got %q)", cfg.Dialect))
	}
	if !slices.Contains(outputFormats, cfg.Output) {
		errs = append(errs, fmt.Errorf("output must be one of: text, json, csv, yaml (got %q)", cfg.Output))
	}
	if cfg.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative"))
	}
	if cfg.Watch.MaxRefreshPerSecond < 0 {
		errs = append(errs, fmt.Errorf("watch.max_refresh_per_second must not be negative"))
	}
	if cfg.Archive.Enabled && cfg.Archive.Path == "" {
		errs = append(errs, fmt.Errorf("archive.path must not be empty when archive.enabled=true"))
	}

	return errors.Join(errs...)
}
