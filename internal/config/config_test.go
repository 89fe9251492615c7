package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Capture.BufferSlots != 10 {
		t.Errorf("Capture.BufferSlots = %d, want 10", cfg.Capture.BufferSlots)
	}
	if cfg.Capture.MaxGridCells != 2000 {
		t.Errorf("Capture.MaxGridCells = %d, want 2000", cfg.Capture.MaxGridCells)
	}
	if cfg.Capture.Extension != ".osd" {
		t.Errorf("Capture.Extension = %q, want .osd", cfg.Capture.Extension)
	}
	if !cfg.Logging.Enabled || cfg.Logging.Level != "info" {
		t.Errorf("Logging = %+v, want enabled at info", cfg.Logging)
	}
	if cfg.Player.Speed != 1.0 {
		t.Errorf("Player.Speed = %v, want 1.0", cfg.Player.Speed)
	}

	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default() should validate, got %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		if got := ConfigDir(); got != "/custom/config/osdrec" {
			t.Errorf("ConfigDir() = %q, want /custom/config/osdrec", got)
		}
	})

	t.Run("falls back to ~/.config", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory")
		}
		want := filepath.Join(home, ".config", "osdrec")
		if got := ConfigDir(); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got := ConfigFile(); got != "/custom/config/osdrec/config.yaml" {
		t.Errorf("ConfigFile() = %q", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "capture:\n  buffer_slots: 32\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Capture.BufferSlots != 32 {
		t.Errorf("BufferSlots = %d, want 32", cfg.Capture.BufferSlots)
	}
	if cfg.Capture.MaxGridCells != 2000 {
		t.Errorf("MaxGridCells = %d, want default 2000", cfg.Capture.MaxGridCells)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadFromEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
	BindEnv()

	t.Setenv("OSDREC_CAPTURE_MAX_GRID_CELLS", "1060")
	t.Setenv("OSDREC_PLAYER_SPEED", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Capture.MaxGridCells != 1060 {
		t.Errorf("MaxGridCells = %d, want 1060", cfg.Capture.MaxGridCells)
	}
	if cfg.Player.Speed != 2.5 {
		t.Errorf("Player.Speed = %v, want 2.5", cfg.Player.Speed)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("capture.buffer_slots", 1)

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail for buffer_slots=1")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok || len(verrs) != 1 || verrs[0].Field != "capture.buffer_slots" {
		t.Errorf("Load() error = %v", err)
	}
}

func TestGet(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("player.speed", 0)

	cfg := Get()
	if cfg.Player.Speed != 1.0 {
		t.Errorf("Get() should fall back to defaults on invalid config, speed = %v", cfg.Player.Speed)
	}
}
