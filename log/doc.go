// Package log provides a simple, leveled logging interface used across the
// engine, storage and model layers.
//
// # Log Levels
//
// The package supports five log levels, in order of increasing severity:
//
//   - LogLevelDebug: Detailed debugging information for development
//   - LogLevelInfo: General informational messages about normal operation
//   - LogLevelWarn: Warning messages for potentially problematic situations
//   - LogLevelError: Error messages for failures that need attention
//   - LogLevelNone: Disables all logging output
//
// # Logger Interface
//
// The Logger interface provides four main logging methods:
//
//   - Debug: For detailed troubleshooting information
//   - Info: For general application flow information
//   - Warn: For issues that don't stop execution but need attention
//   - Error: For failures and exceptions
//
// # Example usage
//
//	logger := log.NewDefaultLogger(log.LogLevelInfo)
//	logger.Info("engine starting")
//	logger.Debug("node %s viable, deps satisfied", nodeID)
//	logger.Error("node %s failed: %v", nodeID, err)
//
// # golog integration
//
// For structured, leveled output the package provides a thin wrapper over
// github.com/kataras/golog:
//
//	glogger := golog.New()
//	logger := log.NewGologLogger(glogger)
//	logger.SetLevel(log.LogLevelDebug)
//
// # Thread safety
//
// Both implementations are safe for concurrent use; the engine's dispatcher
// thread and auxiliary worker pools log through the same Logger instance.
package log
