package pgreap

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Backend selects the DatabaseClient implementation.
type Backend string

const (
	// BackendPsql shells out to the psql executable for every statement.
	BackendPsql Backend = "psql"
	// BackendPgx talks to the server through a pgx connection pool.
	BackendPgx Backend = "pgx"
)

// IsValid returns true for a known backend.
func (b Backend) IsValid() bool {
	return b == BackendPsql || b == BackendPgx
}

// Config is the complete, immutable description of one reap run.
// It is built once by the CLI and passed by value; nothing mutates it afterwards.
type Config struct {
	// Connection describes how to reach the maintenance database.
	Connection ConnectionConfig

	// Pattern is the regular expression a database name must fully match.
	Pattern string

	// MaxParallel caps in-flight terminate-then-drop sequences.
	// Zero is treated as one worker.
	MaxParallel int

	// DryRun stops after listing candidates.
	DryRun bool

	// AssumeYes skips the confirmation prompt.
	AssumeYes bool

	// CallTimeout bounds every individual client call. Zero disables it.
	CallTimeout time.Duration

	// FailOnError turns drop failures into a non-zero exit.
	FailOnError bool

	// Backend selects psql or pgx.
	Backend Backend
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Connection:  DefaultConnectionConfig(),
		Pattern:     DefaultPattern,
		MaxParallel: DefaultMaxParallel,
		Backend:     BackendPsql,
	}
}

// Validate checks if the Config has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c Config) Validate() error {
	var errs []error

	if c.Pattern == "" {
		errs = append(errs, fmt.Errorf("pattern is required: %w", ErrInvalidConfig))
	} else if _, err := regexp.Compile(c.Pattern); err != nil {
		errs = append(errs, fmt.Errorf("pattern %q does not compile: %v: %w", c.Pattern, err, ErrInvalidConfig))
	}

	if c.MaxParallel < 0 {
		errs = append(errs, fmt.Errorf("max parallel cannot be negative: %w", ErrInvalidConfig))
	}

	if c.CallTimeout < 0 {
		errs = append(errs, fmt.Errorf("call timeout cannot be negative: %w", ErrInvalidConfig))
	}

	if !c.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("unknown backend %q (want psql or pgx): %w", c.Backend, ErrInvalidConfig))
	}

	if err := c.Connection.Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.Backend == BackendPsql && c.Connection.AuthMethod == AuthMethodGoogleIAM {
		errs = append(errs, fmt.Errorf("%s authentication requires the pgx backend: %w", c.Connection.AuthMethod, ErrUnsupportedAuthMethod))
	}

	return errors.Join(errs...)
}

// ConnectionConfig represents resolved connection parameters for the
// maintenance database.
type ConnectionConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	SSLMode  string

	// Database is the maintenance database every statement runs in.
	Database string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// MaxConns sizes the pgx pool. Zero leaves the connector default.
	MaxConns int32

	// AWS RDS IAM parameters (AuthMethodAWSIAM)
	AWSRegion string

	// Google Cloud SQL instance connection name, project:region:instance (AuthMethodGoogleIAM)
	GoogleInstance string

	// Azure Entra ID parameters (AuthMethodAzureEntraID).
	// If all three are provided, Service Principal authentication is used,
	// otherwise the DefaultAzureCredential chain.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// DefaultConnectionConfig returns localhost:5432 as postgres/password on the
// postgres maintenance database.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		Host:             DefaultHost,
		Port:             DefaultPort,
		Username:         DefaultUser,
		Password:         DefaultPassword,
		Database:         DefaultMaintenanceDB,
		SSLMode:          DefaultSSLMode,
		AuthMethod:       AuthMethodStandard,
		AdditionalParams: map[string]string{},
	}
}

// Validate reports missing or out-of-range connection fields.
func (c ConnectionConfig) Validate() error {
	var errs []error

	if c.Host == "" {
		errs = append(errs, fmt.Errorf("host is required: %w", ErrInvalidConfig))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d is out of range: %w", c.Port, ErrInvalidConfig))
	}
	if c.Username == "" {
		errs = append(errs, fmt.Errorf("username is required: %w", ErrInvalidConfig))
	}
	if c.Database == "" {
		errs = append(errs, fmt.Errorf("maintenance database is required: %w", ErrInvalidConfig))
	}
	if !c.AuthMethod.IsValid() {
		errs = append(errs, fmt.Errorf("auth method %v: %w", c.AuthMethod, ErrUnsupportedAuthMethod))
	}

	return errors.Join(errs...)
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// Report summarises one reap run.
type Report struct {
	// Candidates is the discovered Candidate Set in order.
	Candidates []string

	Succeeded int
	Failed    int

	// DryRun is true when the run stopped after listing.
	DryRun bool

	// Aborted is true when the operator declined the prompt.
	Aborted bool
}

// String renders the final summary line.
func (r Report) String() string {
	return fmt.Sprintf("Done. Success: %d, Failed: %d", r.Succeeded, r.Failed)
}
