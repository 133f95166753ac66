package cadence

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/TheBitDrifter/bark"
	"github.com/caarlos0/env/v11"
)

const (
	// ConfigFileName is the file LoadDefaultConfig looks for
	ConfigFileName = "Cadence.toml"
	// EnvPrefix prefixes the environment variables that override file values
	EnvPrefix = "CADENCE_"

	DefaultTeardownTimeout = 5 * time.Second
)

// Config holds the settings a host reads once at startup
type Config struct {
	// TeardownTimeout bounds the time teardown hooks get once the game exits
	TeardownTimeout time.Duration `toml:"teardown_timeout" env:"TEARDOWN_TIMEOUT"`
	// MainStep is the step of ticking systems
	MainStep time.Duration `toml:"main_step" env:"MAIN_STEP"`
	// Root is the directory game data is resolved against
	Root string `toml:"root" env:"ROOT"`
	// MaxCatchUp caps fixed-step iterations per system per tick. Negative disables the cap.
	MaxCatchUp int `toml:"max_catch_up" env:"MAX_CATCH_UP"`
}

func DefaultConfig() Config {
	return Config{
		TeardownTimeout: DefaultTeardownTimeout,
		MainStep:        DefaultMainStep,
		Root:            ".",
		MaxCatchUp:      DefaultMaxCatchUp,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.MainStep <= 0 {
		errs = append(errs, fmt.Errorf("main_step must be positive, got %v", c.MainStep))
	}
	if c.TeardownTimeout < 0 {
		errs = append(errs, fmt.Errorf("teardown_timeout must not be negative, got %v", c.TeardownTimeout))
	}
	if c.MaxCatchUp == 0 {
		errs = append(errs, errors.New("max_catch_up must not be zero"))
	}
	return errors.Join(errs...)
}

// SchedulerConfig derives the scheduler settings of c
func (c Config) SchedulerConfig(logger *slog.Logger) SchedulerConfig {
	return SchedulerConfig{
		MainStep:   c.MainStep,
		MaxCatchUp: c.MaxCatchUp,
		Logger:     logger,
	}
}

// LoadConfig reads a TOML config file and applies CADENCE_* environment overrides.
// Values missing from both keep their defaults. An empty root resolves to the directory of path.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	cfg.Root = ""
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if cfg.Root == "" {
		cfg.Root = filepath.Dir(path)
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return Config{}, fmt.Errorf("failed to resolve root %s: %w", cfg.Root, err)
	}
	cfg.Root = root

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefaultConfig searches for Cadence.toml in the working directory and its ancestors, then
// next to the executable. It falls back to DefaultConfig when no file is found or it fails to load.
func LoadDefaultConfig(logger *slog.Logger) Config {
	if logger == nil {
		logger = bark.For("config")
	}
	path, ok := lookupConfig(ConfigFileName)
	if !ok {
		logger.Debug("config file not found, using defaults", "path", ConfigFileName)
		return DefaultConfig()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		logger.Debug("config file failed to load, using defaults", "path", path, "error", err)
		return DefaultConfig()
	}
	logger.Debug("config loaded", "path", path)
	return cfg
}

func lookupConfig(name string) (string, bool) {
	if cwd, err := os.Getwd(); err == nil {
		if path, ok := lookupAncestors(cwd, name); ok {
			return path, true
		}
	}
	if exe, err := os.Executable(); err == nil {
		if path, ok := lookupAncestors(filepath.Dir(exe), name); ok {
			return path, true
		}
	}
	return "", false
}

func lookupAncestors(dir, name string) (string, bool) {
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
