package pgreap

// Logger provides a pluggable logging interface for pgreap operations.
// Implementations must be safe for concurrent use by multiple goroutines,
// since drop sequences log from their own goroutines.
type Logger interface {
	// Verbose logs detailed diagnostic information.
	// Only logged when verbose mode is enabled.
	Verbose(format string, args ...interface{})

	// Info logs informational messages about normal operations.
	Info(format string, args ...interface{})

	// Error logs error messages.
	Error(format string, args ...interface{})
}
