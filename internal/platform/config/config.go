package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const FileName = "tally.yaml"

type Config struct {
	DataDir string `mapstructure:"-"`
	DBPath  string `mapstructure:"-"`

	TickInterval      time.Duration `mapstructure:"tick_interval"`
	Currency          string        `mapstructure:"currency"`
	DefaultHourlyRate float64       `mapstructure:"default_hourly_rate"`
	Log               LogConfig     `mapstructure:"log"`
	Validation        ValidationCfg `mapstructure:"validation"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// File is relative to the data dir unless absolute. "-" logs to stderr.
	File string `mapstructure:"file"`
}

type ValidationCfg struct {
	MaxNameLength int `mapstructure:"max_name_length"`
}

func Default() Config {
	return Config{
		TickInterval: time.Second,
		Currency:     "USD",
		Log:          LogConfig{Level: "info", File: "tally.log"},
		Validation:   ValidationCfg{MaxNameLength: 255},
	}
}

// DefaultDataDir is $XDG_DATA_HOME/tally, falling back to
// ~/.local/share/tally and then to ./.tally.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "tally")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "tally")
	}
	return ".tally"
}

// New resolves paths for dataDir and applies defaults without reading files.
func New(dataDir string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	cfg := Default()
	cfg.DataDir = dataDir
	cfg.DBPath = filepath.Join(dataDir, "tally.db")
	return cfg, nil
}

// Load reads <dataDir>/tally.yaml when present and TALLY_* environment
// overrides on top of the defaults.
func Load(dataDir string) (Config, error) {
	cfg, err := New(dataDir)
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v, cfg)
	v.SetConfigFile(filepath.Join(dataDir, FileName))
	v.SetEnvPrefix("TALLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil && !isMissingConfig(err) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.DefaultHourlyRate < 0 {
		return fmt.Errorf("default_hourly_rate must not be negative")
	}
	if c.Validation.MaxNameLength <= 0 {
		return fmt.Errorf("validation.max_name_length must be positive")
	}
	return nil
}

// LogPath returns "" when logging should go to stderr.
func (c Config) LogPath() string {
	switch {
	case c.Log.File == "-":
		return ""
	case c.Log.File == "":
		return filepath.Join(c.DataDir, "tally.log")
	case filepath.IsAbs(c.Log.File):
		return c.Log.File
	default:
		return filepath.Join(c.DataDir, c.Log.File)
	}
}

// DefaultRateCents is the hourly rate used for projects without their own.
func (c Config) DefaultRateCents() int64 {
	return int64(c.DefaultHourlyRate*100 + 0.5)
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("tick_interval", cfg.TickInterval)
	v.SetDefault("currency", cfg.Currency)
	v.SetDefault("default_hourly_rate", cfg.DefaultHourlyRate)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("validation.max_name_length", cfg.Validation.MaxNameLength)
}

func isMissingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}
