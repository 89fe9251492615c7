package cmd

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/osdrec/internal/config"
	"github.com/Iron-Ham/osdrec/internal/errors"
	"github.com/Iron-Ham/osdrec/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "osdrec",
	Short: "Record, inspect and replay goggles OSD logs",
	Long: `osdrec captures OSD grid frames next to a DVR recording into a compact
binary log (.osd), and provides tools to inspect and play those logs back.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/osdrec/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	// OSDREC_CAPTURE_BUFFER_SLOTS overrides capture.buffer_slots, and so on.
	config.BindEnv()

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// loadConfig returns the validated configuration. Unlike config.Get it
// surfaces validation errors, since commands should not silently run with
// defaults the user did not ask for.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the command logger from the logging section.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLoggerWithRotation(cfg.Logging.Dir, cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	})
}

var watchOnce sync.Once

// watchLogLevel re-applies logging.level whenever the config file changes,
// so a long recording can be switched to debug without restarting it.
func watchLogLevel(logger *logging.Logger) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	watchOnce.Do(func() {
		viper.OnConfigChange(func(e fsnotify.Event) {
			applyLogLevel(logger, e)
		})
		viper.WatchConfig()
	})
}

func applyLogLevel(logger *logging.Logger, e fsnotify.Event) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}
	level := strings.ToLower(viper.GetString("logging.level"))
	if !isValidLevel(level) {
		logger.Warn("ignoring invalid log level from config", "file", e.Name, "level", level)
		return
	}
	if logging.ParseLevel(level) == logger.Level() {
		return
	}
	logger.Info("log level changed", "file", e.Name, "from", logger.Level(), "to", logging.ParseLevel(level))
	logger.SetLevel(level)
}

// requirePositive rejects a numeric flag that is zero or negative.
func requirePositive(flag string, v float64) error {
	if v > 0 {
		return nil
	}
	return errors.NewValidationError("must be positive").WithField(flag).WithValue(v)
}

func isValidLevel(level string) bool {
	return slices.Contains(config.ValidLogLevels(), level)
}
