package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the config directories.
const FileName = "signal.yaml"

// Env holds the environment overrides applied after the YAML file. Unset
// variables leave the file values alone.
type Env struct {
	Tick     *time.Duration `env:"SIGNAL_TICK"`
	Autosave *time.Duration `env:"SIGNAL_AUTOSAVE"`
	Settle   *time.Duration `env:"SIGNAL_SETTLE"`
	GridSize int            `env:"SIGNAL_GRID_SIZE"`
	DB       string         `env:"SIGNAL_DB"`
}

// Load loads the game configuration and applies environment overrides.
// Search order: customPath -> ~/.signal-archive/configs/signal.yaml ->
// ./configs/signal.yaml -> embedded default -> DefaultSignalConfig.
func Load(customPath string) (SignalConfig, error) {
	cfg, err := loadFile(customPath)
	if err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(customPath string) (SignalConfig, error) {
	var cfg SignalConfig

	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	if path := UserConfigPath(); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return cfg, nil
			}
		}
	}

	if data, err := os.ReadFile(filepath.Join("configs", FileName)); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return cfg, nil
		}
	}

	if err := yaml.Unmarshal(defaultSignalYAML, &cfg); err != nil {
		return DefaultSignalConfig(), nil
	}
	return cfg, nil
}

// ApplyEnv overrides timing and grid size from SIGNAL_* variables.
func ApplyEnv(cfg *SignalConfig) error {
	e, err := ParseEnv()
	if err != nil {
		return err
	}
	if e.GridSize > 0 {
		cfg.Grid.Size = e.GridSize
	}
	if e.Tick != nil {
		cfg.Timing.Tick = *e.Tick
	}
	if e.Autosave != nil {
		cfg.Timing.Autosave = *e.Autosave
	}
	if e.Settle != nil {
		cfg.Timing.Settle = *e.Settle
	}
	return nil
}

// ParseEnv reads the SIGNAL_* environment variables.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return e, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// UserConfigPath returns the per-user config file, or empty if home is
// unavailable.
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".signal-archive", "configs", FileName)
}

// DefaultDBPath returns the database path: SIGNAL_DB if set, otherwise
// ~/.signal-archive/archive.db.
func DefaultDBPath() string {
	if e, err := ParseEnv(); err == nil && e.DB != "" {
		return e.DB
	}
	return "~/.signal-archive/archive.db"
}
