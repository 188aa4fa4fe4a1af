package pgreap

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	_, err := r.Run(ctx, cfg)
//	if errors.Is(err, pgreap.ErrClientNotFound) {
//	    // psql is not installed
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrClientNotFound indicates the database client executable is missing.
	ErrClientNotFound = errors.New("database client not found")

	// ErrQueryFailed indicates the discovery query failed.
	ErrQueryFailed = errors.New("query failed")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrDropFailures indicates at least one database could not be dropped.
	ErrDropFailures = errors.New("drop failures")

	// ErrMissingSecret indicates the environment variable holding a CI secret is unset.
	ErrMissingSecret = errors.New("missing secret")

	// ErrUnsupportedAuthMethod indicates the requested authentication method
	// is not available for the selected backend.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// ClientNotFoundError reports that the client executable could not be located.
type ClientNotFoundError struct {
	Name string
	Err  error
}

func (e *ClientNotFoundError) Error() string {
	return fmt.Sprintf("%s not found in PATH.", e.Name)
}

func (e *ClientNotFoundError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrClientNotFound) hold for any ClientNotFoundError.
func (e *ClientNotFoundError) Is(target error) bool {
	return target == ErrClientNotFound
}

// CommandError reports a statement rejected by the client or the server.
// ExitCode is the psql exit status, or 0 when the error did not come from a
// subprocess.
type CommandError struct {
	SQL      string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("command exited with status %d", e.ExitCode)
}

func (e *CommandError) Unwrap() error { return e.Err }

// usageErrorPatterns are the message prefixes cobra and pflag use for
// command-line mistakes.
var usageErrorPatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"required flag",
	"invalid argument",
	"flag needs an argument",
	"if any flags in the group",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// the client's own status for failed psql commands, and ExitGeneralError (1)
// for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrClientNotFound):
		return ExitClientNotFound
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrDropFailures):
		return ExitDropFailures
	case errors.Is(err, ErrMissingSecret):
		return ExitGeneralError
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
		return cmdErr.ExitCode
	}
	if errors.Is(err, ErrQueryFailed) {
		return ExitQueryFailed
	}

	errStr := err.Error()
	for _, pattern := range usageErrorPatterns {
		if strings.HasPrefix(errStr, pattern) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
