package config

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"buffer too small", func(c *Config) { c.Capture.BufferSlots = 1 }, "capture.buffer_slots"},
		{"zero cells", func(c *Config) { c.Capture.MaxGridCells = 0 }, "capture.max_grid_cells"},
		{"too many cells", func(c *Config) { c.Capture.MaxGridCells = MaxGridCellsLimit + 1 }, "capture.max_grid_cells"},
		{"extension without dot", func(c *Config) { c.Capture.Extension = "osd" }, "capture.extension"},
		{"bare dot extension", func(c *Config) { c.Capture.Extension = "." }, "capture.extension"},
		{"extension with separator", func(c *Config) { c.Capture.Extension = ".a/b" }, "capture.extension"},
		{"unknown level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"negative log size", func(c *Config) { c.Logging.MaxSizeMB = -1 }, "logging.max_size_mb"},
		{"huge log size", func(c *Config) { c.Logging.MaxSizeMB = 5000 }, "logging.max_size_mb"},
		{"negative backups", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.max_backups"},
		{"zero speed", func(c *Config) { c.Player.Speed = 0 }, "player.speed"},
		{"too fast", func(c *Config) { c.Player.Speed = 17 }, "player.speed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			errs := cfg.Validate()
			if len(errs) != 1 {
				t.Fatalf("Validate() returned %d errors, want 1: %v", len(errs), errs)
			}
			if errs[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", errs[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidateAcceptsEdges(t *testing.T) {
	cfg := Default()
	cfg.Capture.BufferSlots = MinBufferSlots
	cfg.Capture.MaxGridCells = MaxGridCellsLimit
	cfg.Logging.Level = "WARN"
	cfg.Logging.MaxSizeMB = 0
	cfg.Player.Speed = MaxPlayerSpeed

	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Validate() = %v, want no errors", errs)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	if got := (ValidationErrors{}).Error(); got != "" {
		t.Errorf("empty Error() = %q", got)
	}

	single := ValidationErrors{{Field: "player.speed", Value: 0, Message: "must be positive"}}
	if got := single.Error(); got != "player.speed: must be positive (got: 0)" {
		t.Errorf("single Error() = %q", got)
	}

	multi := ValidationErrors{
		{Field: "a", Value: 1, Message: "bad"},
		{Field: "b", Value: 2, Message: "worse"},
	}
	got := multi.Error()
	if !strings.HasPrefix(got, "2 validation errors:") || !strings.Contains(got, "2. b: worse") {
		t.Errorf("multi Error() = %q", got)
	}
}
