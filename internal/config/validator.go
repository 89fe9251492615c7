package config

import (
	"fmt"
	"slices"
	"strings"
)

// Bounds enforced by Validate.
const (
	MinBufferSlots = 2
	// MaxGridCellsLimit keeps every payload under the decoder's frame size cap.
	MaxGridCellsLimit = 65535
	MaxPlayerSpeed    = 16.0
	maxLogSizeMB      = 1000
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "capture.buffer_slots")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.validateCapture()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validatePlayer()...)
	return errors
}

func (c *Config) validateCapture() []ValidationError {
	var errors []ValidationError

	if c.Capture.BufferSlots < MinBufferSlots {
		errors = append(errors, ValidationError{
			Field:   "capture.buffer_slots",
			Value:   c.Capture.BufferSlots,
			Message: fmt.Sprintf("must be at least %d (one slot is always kept empty)", MinBufferSlots),
		})
	}

	if c.Capture.MaxGridCells < 1 || c.Capture.MaxGridCells > MaxGridCellsLimit {
		errors = append(errors, ValidationError{
			Field:   "capture.max_grid_cells",
			Value:   c.Capture.MaxGridCells,
			Message: fmt.Sprintf("must be between 1 and %d", MaxGridCellsLimit),
		})
	}

	if !strings.HasPrefix(c.Capture.Extension, ".") || len(c.Capture.Extension) < 2 {
		errors = append(errors, ValidationError{
			Field:   "capture.extension",
			Value:   c.Capture.Extension,
			Message: "must start with '.' followed by a name",
		})
	} else if strings.ContainsAny(c.Capture.Extension, `/\`) {
		errors = append(errors, ValidationError{
			Field:   "capture.extension",
			Value:   c.Capture.Extension,
			Message: "must not contain path separators",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// 0 disables rotation
	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative",
		})
	}
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validatePlayer() []ValidationError {
	if c.Player.Speed <= 0 || c.Player.Speed > MaxPlayerSpeed {
		return []ValidationError{{
			Field:   "player.speed",
			Value:   c.Player.Speed,
			Message: fmt.Sprintf("must be greater than 0 and at most %g", MaxPlayerSpeed),
		}}
	}
	return nil
}
