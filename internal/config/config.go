// Package config resolves directories and settings from defaults, config.toml,
// .env, and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	// AppName is the application directory name.
	AppName = "todo"

	// ConfigFile is the optional TOML settings file in the config directory.
	ConfigFile = "config.toml"

	// EnvFile is the optional dotenv file in the config directory.
	EnvFile = ".env"

	// DefaultLogLevel is used when nothing else sets a level.
	DefaultLogLevel = "warn"

	// DefaultLogFormat is used when nothing else sets a format.
	DefaultLogFormat = "text"

	// DefaultWriteTimeout bounds a single storage write.
	DefaultWriteTimeout = 5 * time.Second
)

// Environment variables that override the config file.
const (
	EnvDataDir      = "TODO_DATA_DIR"
	EnvLogLevel     = "TODO_LOG_LEVEL"
	EnvLogFormat    = "TODO_LOG_FORMAT"
	EnvWriteTimeout = "TODO_WRITE_TIMEOUT"
	EnvDotEnv       = "TODO_DOTENV"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// DataDir is where the task list is stored.
	DataDir string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// LogFormat is one of text, json, logfmt.
	LogFormat string

	// WriteTimeout bounds each storage write.
	WriteTimeout time.Duration

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// fileConfig mirrors config.toml.
type fileConfig struct {
	DataDir      string `toml:"data_dir"`
	LogLevel     string `toml:"log_level"`
	LogFormat    string `toml:"log_format"`
	WriteTimeout string `toml:"write_timeout"`
}

// New creates a Config with defaults only.
// If configDir is empty, uses XDG_CONFIG_HOME/todo or $HOME/.config/todo.
func New(configDir string) *Config {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:          dir,
		DataDir:      DefaultDataDir(),
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		WriteTimeout: DefaultWriteTimeout,
	}
}

// Load creates a Config and applies config.toml, .env and environment overrides.
// Missing files are not an error; malformed ones are.
func Load(configDir string) (*Config, error) {
	cfg := New(configDir)

	if err := cfg.loadFile(cfg.FilePath()); err != nil {
		return nil, err
	}
	if err := cfg.loadDotEnv(); err != nil {
		return nil, err
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	cfg.DataDir = expandHome(cfg.DataDir)
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// DefaultDataDir returns the default data directory.
// Uses XDG_DATA_HOME if set, otherwise $HOME/.local/share.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(AppName, "data")
	}
	return filepath.Join(home, ".local", "share", AppName)
}

// FilePath returns the path to config.toml.
func (c *Config) FilePath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// EnvPath returns the path to the dotenv file.
func (c *Config) EnvPath() string {
	return filepath.Join(c.Dir, EnvFile)
}

// EffectiveLogLevel returns the log level after applying Debug.
func (c *Config) EffectiveLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}

func (c *Config) loadFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading config file %s: %w", path, err)
	}

	if fc.DataDir != "" {
		dir := fc.DataDir
		if !filepath.IsAbs(expandHome(dir)) {
			// Relative data dirs are relative to the config directory.
			dir = filepath.Join(c.Dir, dir)
		}
		c.DataDir = dir
	}
	if fc.LogLevel != "" {
		c.LogLevel = strings.ToLower(fc.LogLevel)
	}
	if fc.LogFormat != "" {
		c.LogFormat = strings.ToLower(fc.LogFormat)
	}
	if fc.WriteTimeout != "" {
		d, err := parseTimeout(fc.WriteTimeout)
		if err != nil {
			return fmt.Errorf("loading config file %s: write_timeout: %w", path, err)
		}
		c.WriteTimeout = d
	}
	return nil
}

// loadDotEnv sets variables from the dotenv file that are not already set.
func (c *Config) loadDotEnv() error {
	if dotEnvDisabled() {
		return nil
	}
	if err := godotenv.Load(c.EnvPath()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", c.EnvPath(), err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		c.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		c.LogFormat = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvWriteTimeout)); v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWriteTimeout, err)
		}
		c.WriteTimeout = d
	}
	return nil
}

func parseTimeout(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", s)
	}
	return d, nil
}

func dotEnvDisabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvDotEnv))) {
	case "0", "false", "off", "no":
		return true
	default:
		return false
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
