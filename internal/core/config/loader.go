package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads one configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	return finish(cfg)
}

// LoadLayered builds the effective file configuration: defaults, then the
// default file when it exists, then the explicit file which must exist. An
// unreadable or invalid default file is logged and skipped. Environment
// overrides are applied last.
func LoadLayered(defaultPath, explicitPath string) (*Config, error) {
	cfg := DefaultConfig()

	if defaultPath != "" && explicitPath != defaultPath {
		if err := decodeFile(defaultPath, cfg); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				slog.Warn("ignoring default config file", "path", defaultPath, "error", err)
				cfg = DefaultConfig()
			}
		}
	}
	if explicitPath != "" {
		if err := decodeFile(explicitPath, cfg); err != nil {
			return nil, err
		}
	}

	ApplyEnvOverrides(cfg)
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	applyDefaults(cfg)
	normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeFile decodes path into cfg, rejecting keys that Config does not
// know.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return fmt.Errorf("%s: unknown config keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}
