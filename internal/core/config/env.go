package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: HISTOP_[SECTION]_[KEY] (e.g., HISTOP_WATCH_DEBOUNCE).
func ApplyEnvOverrides(cfg *Config) {
	setEnvList(&cfg.Ignore, "HISTOP_IGNORE")
	setEnvInt(&cfg.BarSize, "HISTOP_BAR_SIZE")
	setEnvInt(&cfg.Count, "HISTOP_COUNT")
	setEnvInt(&cfg.MoreThan, "HISTOP_MORE_THAN")
	setEnvString(&cfg.Color, "HISTOP_COLOR")
	setEnvBool(&cfg.Subcommands, "HISTOP_SUBCOMMANDS")
	setEnvString(&cfg.Dialect, "HISTOP_DIALECT")
	setEnvString(&cfg.Output, "HISTOP_OUTPUT")
	setEnvInt(&cfg.MaxLabelWidth, "HISTOP_MAX_LABEL_WIDTH")

	// Archive
	setEnvBool(&cfg.Archive.Enabled, "HISTOP_ARCHIVE_ENABLED")
	setEnvString(&cfg.Archive.Path, "HISTOP_ARCHIVE_PATH")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "HISTOP_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRefreshPerSecond, "HISTOP_WATCH_MAX_REFRESH_PER_SECOND")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "HISTOP_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "HISTOP_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList splits on '|' like the -i flag.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = SplitList(val)
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(val))); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
		}
	}
}

// SplitList splits a '|' separated list, trimming entries and dropping
// empty ones.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
