package pgreap

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error, or the psql client is missing
//   - 3+: Application-specific errors
//
// A failed discovery query through psql exits with psql's own status instead.
const (
	ExitSuccess         = 0  // Run completed, aborted, dry run, or nothing to do
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (invalid flags or arguments)
	ExitClientNotFound  = 2  // psql executable not found in PATH
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration
	ExitConnectionError = 11 // Failed to connect to database
	ExitDropFailures    = 13 // Some databases failed to drop (only with --fail-on-error)
	ExitQueryFailed     = 14 // Discovery query failed without a client exit status
)

// Connection defaults used when no flag, environment variable or config file
// supplies a value.
const (
	DefaultHost          = "localhost"
	DefaultPort          = 5432
	DefaultUser          = "postgres"
	DefaultMaintenanceDB = "postgres"
	DefaultPassword      = "password"
	DefaultSSLMode       = "prefer"
)

const (
	// DefaultPattern matches the throwaway databases created by the API test suite:
	// a fixed prefix followed by a simple-hex UUID body.
	DefaultPattern = `^cpast_api_tests_[0-9a-f-]{32}$`

	// DefaultDatabasePrefix is the literal prefix of DefaultPattern, used when seeding.
	DefaultDatabasePrefix = "cpast_api_tests_"

	// DefaultMaxParallel caps the number of terminate-then-drop sequences in flight.
	DefaultMaxParallel = 64

	// DefaultClientBinary is the psql executable looked up in PATH.
	DefaultClientBinary = "psql"
)

const (
	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 10 * time.Second

	// DefaultRetryMaxAttempts is the default maximum number of connect retries.
	DefaultRetryMaxAttempts = 3
)

// CI secret injection defaults.
const (
	DefaultSecretsFile = "cpast_api/configuration/base.yaml"
	DefaultSecretsKey  = "llm.api_key"
	DefaultSecretsEnv  = "GOOGLE_API_KEY"
)
