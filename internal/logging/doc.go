// Package logging provides structured logging for osdrec.
//
// The package wraps log/slog with a JSON handler and adds persistent context
// attributes, a runtime-adjustable level, and size-based log rotation.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/var/log/osdrec", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	sessionLogger := logger.WithSession("DJI_0001.osd")
//	sessionLogger.Info("capture started", "slots", 10)
//
// # Log Rotation
//
//	logger, err := logging.NewLoggerWithRotation(dir, "INFO", logging.RotationConfig{
//	    MaxSizeMB:  10,
//	    MaxBackups: 3,
//	    Compress:   true,
//	})
//
// Rotated files are named osdrec.log.1, osdrec.log.2, and so on, where .1 is
// the most recent backup.
//
// # Level Changes
//
// SetLevel changes the threshold of a logger and every child derived from it,
// which lets a config reload take effect without rebuilding the logger.
//
// # Testing
//
// Use [NopLogger] to discard all output.
package logging
