// Package logging provides structured logging for the krachkiste daemon.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the daemon. It provides both general logging
// functions and specialized functions for the networking state machine and
// the configuration portal.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (raw radio events, form parsing)
//   - Info: Normal operations (state transitions, portal requests)
//   - Warn: Non-fatal issues (connect retries, ignored deinit failures)
//   - Error: Fatal issues (startup failures, storage errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Station connected",
//	    zap.String("ssid", "MyNetwork"),
//	    zap.Int("attempt", 1),
//	)
//
// # Configuration
//
// Initialize logging at daemon startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// CLI commands that want silent mode by default should use
// InitializeFromEnv, which only enables output when KRACHKISTE_LOG_LEVEL
// is set.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
