package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// OSDREC_CAPTURE_BUFFER_SLOTS.
const EnvPrefix = "OSDREC"

// Config represents the complete osdrec configuration
type Config struct {
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Player  PlayerConfig  `mapstructure:"player" yaml:"player"`
}

// CaptureConfig controls the capture session and its frame buffer
type CaptureConfig struct {
	// BufferSlots is the ring size N; N-1 frames can be pending at once
	BufferSlots int `mapstructure:"buffer_slots" yaml:"buffer_slots"`
	// MaxGridCells bounds width*height of an accepted frame; each side is
	// further capped at 255 by the log header
	MaxGridCells int `mapstructure:"max_grid_cells" yaml:"max_grid_cells"`
	// Extension replaces the video file's extension to name the OSD log
	Extension string `mapstructure:"extension" yaml:"extension"`
}

// LoggingConfig controls the debug log
type LoggingConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Level   string `mapstructure:"level" yaml:"level"`
	// Dir is where osdrec.log is written. Empty logs to stderr.
	Dir        string `mapstructure:"dir" yaml:"dir"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// PlayerConfig controls the terminal player
type PlayerConfig struct {
	// Speed is the initial playback multiplier
	Speed float64 `mapstructure:"speed" yaml:"speed"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			BufferSlots:  10,
			MaxGridCells: 2000,
			Extension:    ".osd",
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Player: PlayerConfig{
			Speed: 1.0,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("capture.buffer_slots", defaults.Capture.BufferSlots)
	viper.SetDefault("capture.max_grid_cells", defaults.Capture.MaxGridCells)
	viper.SetDefault("capture.extension", defaults.Capture.Extension)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)

	viper.SetDefault("player.speed", defaults.Player.Speed)
}

// BindEnv makes every key overridable through OSDREC_* environment variables.
func BindEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults when the
// loaded configuration is invalid.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "osdrec")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".osdrec"
	}
	return filepath.Join(home, ".config", "osdrec")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
