package navigation

import "sync/atomic"

// debugLoggingEnabled controls whether per-tick debug logging is enabled.
// Set via EnableDebugLogging() during initialization based on config.LogLevel.
var debugLoggingEnabled atomic.Bool

// EnableDebugLogging enables or disables debug logging for the navigation subsystem.
// Must be called during initialization (e.g., from main.go after parsing config).
func EnableDebugLogging(enabled bool) {
	debugLoggingEnabled.Store(enabled)
}

// IsDebugEnabled returns true if debug logging is enabled.
// Use this to guard debug log calls on the tick path:
//
//	if navigation.IsDebugEnabled() {
//	    slog.Debug("waypoint reached", "target", target)
//	}
func IsDebugEnabled() bool {
	return debugLoggingEnabled.Load()
}
