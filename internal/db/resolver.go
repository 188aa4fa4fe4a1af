package db

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vvka-141/pgreap/internal/config"
	"github.com/vvka-141/pgreap/pkg/pgreap"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U).
//
// There is deliberately no password flag. Use $PGPASSWORD or a connection
// string instead.
type GranularConnFlags struct {
	Host          string
	Port          int
	Username      string
	MaintenanceDB string
	SSLMode       string
}

// IsEmpty returns true if no server-selecting flag was given. MaintenanceDB
// is excluded because it may refine a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// CloudFlags selects a cloud authentication method.
type CloudFlags struct {
	AWS       bool
	AWSRegion string

	Google         bool
	GoogleInstance string

	// Azure client secret is read from $AZURE_CLIENT_SECRET only.
	Azure         bool
	AzureTenantID string
	AzureClientID string
}

// EnvVars holds the environment variables that take part in resolution.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST     string
	PGPORT     string
	PGUSER     string
	PGPASSWORD string
	PGDATABASE string
	PGSSLMODE  string

	PGREAP_CONNECTION_STRING string
	DATABASE_URL             string

	AWS_REGION string

	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
}

// LoadFromEnvironment snapshots the relevant environment variables.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:                   os.Getenv("PGHOST"),
		PGPORT:                   os.Getenv("PGPORT"),
		PGUSER:                   os.Getenv("PGUSER"),
		PGPASSWORD:               os.Getenv("PGPASSWORD"),
		PGDATABASE:               os.Getenv("PGDATABASE"),
		PGSSLMODE:                os.Getenv("PGSSLMODE"),
		PGREAP_CONNECTION_STRING: os.Getenv("PGREAP_CONNECTION_STRING"),
		DATABASE_URL:             os.Getenv("DATABASE_URL"),
		AWS_REGION:               os.Getenv("AWS_REGION"),
		AZURE_TENANT_ID:          os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:          os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET:      os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// connectionStringFromEnv returns the first non-empty connection string
// variable, PGREAP_CONNECTION_STRING before DATABASE_URL.
func (e *EnvVars) connectionStringFromEnv() string {
	if e.PGREAP_CONNECTION_STRING != "" {
		return e.PGREAP_CONNECTION_STRING
	}
	return e.DATABASE_URL
}

// ResolveConnectionParams resolves the maintenance connection:
//
//  1. --connection flag, parsed as URI or ADO.NET
//  2. $PGREAP_CONNECTION_STRING or $DATABASE_URL, when no granular flag is set
//  3. granular flags > PG* environment > pgreap.yaml > defaults, per field
//
// The password comes from the connection string, then $PGPASSWORD, then the
// built-in default. Supplying --connection together with granular flags is an
// error wrapping pgreap.ErrInvalidConfig.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*pgreap.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf("cannot specify both --connection and granular flags (-h, -p, -U, --sslmode): %w", pgreap.ErrInvalidConfig)
	}

	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	var cfg *pgreap.ConnectionConfig
	var err error

	connStr := connStringFlag
	if connStr == "" && granularFlags.IsEmpty() {
		connStr = envVars.connectionStringFromEnv()
	}

	if connStr != "" {
		cfg, err = resolveFromConnectionString(connStr, granularFlags, envVars)
	} else {
		cfg, err = resolveFromGranularParams(granularFlags, envVars, pc)
	}
	if err != nil {
		return nil, err
	}

	if err := applyCloudAuth(cfg, cloudFlags, envVars, pc); err != nil {
		return nil, err
	}

	return cfg, nil
}

func resolveFromConnectionString(connStr string, flags *GranularConnFlags, envVars *EnvVars) (*pgreap.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %v: %w", err, pgreap.ErrInvalidConfig)
	}

	if flags.MaintenanceDB != "" {
		cfg.Database = flags.MaintenanceDB
	}
	if cfg.Password == "" {
		cfg.Password = firstNonEmpty(envVars.PGPASSWORD, pgreap.DefaultPassword)
	}

	return cfg, nil
}

func resolveFromGranularParams(flags *GranularConnFlags, envVars *EnvVars, pc config.ConnectionConfig) (*pgreap.ConnectionConfig, error) {
	cfg := pgreap.DefaultConnectionConfig()

	cfg.Host = firstNonEmpty(flags.Host, envVars.PGHOST, pc.Host, pgreap.DefaultHost)
	cfg.Username = firstNonEmpty(flags.Username, envVars.PGUSER, pc.Username, pgreap.DefaultUser)
	cfg.Database = firstNonEmpty(flags.MaintenanceDB, envVars.PGDATABASE, pc.MaintenanceDatabase, pgreap.DefaultMaintenanceDB)
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, pc.SSLMode, pgreap.DefaultSSLMode)
	cfg.Password = firstNonEmpty(envVars.PGPASSWORD, pgreap.DefaultPassword)

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value %q: must be an integer: %w", envVars.PGPORT, pgreap.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	}

	return &cfg, nil
}

// applyCloudAuth selects the auth method from flags, falling back to
// connection.auth_method in pgreap.yaml.
func applyCloudAuth(cfg *pgreap.ConnectionConfig, flags *CloudFlags, env *EnvVars, pc config.ConnectionConfig) error {
	selected := 0
	for _, on := range []bool{flags.AWS, flags.Google, flags.Azure} {
		if on {
			selected++
		}
	}
	if selected > 1 {
		return fmt.Errorf("--aws, --google and --azure are mutually exclusive: %w", pgreap.ErrInvalidConfig)
	}

	method := pgreap.AuthMethodStandard
	switch {
	case flags.AWS:
		method = pgreap.AuthMethodAWSIAM
	case flags.Google:
		method = pgreap.AuthMethodGoogleIAM
	case flags.Azure:
		method = pgreap.AuthMethodAzureEntraID
	case pc.AuthMethod != "":
		m, err := ParseAuthMethod(pc.AuthMethod)
		if err != nil {
			return err
		}
		method = m
	}

	cfg.AuthMethod = method
	switch method {
	case pgreap.AuthMethodAWSIAM:
		cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, env.AWS_REGION, pc.AWSRegion)
	case pgreap.AuthMethodGoogleIAM:
		cfg.GoogleInstance = firstNonEmpty(flags.GoogleInstance, pc.GoogleInstance)
	case pgreap.AuthMethodAzureEntraID:
		cfg.AzureTenantID = firstNonEmpty(flags.AzureTenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
		cfg.AzureClientID = firstNonEmpty(flags.AzureClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	}
	return nil
}

// ParseAuthMethod maps the pgreap.yaml spelling of an auth method.
func ParseAuthMethod(s string) (pgreap.AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return pgreap.AuthMethodStandard, nil
	case "aws", "aws_iam":
		return pgreap.AuthMethodAWSIAM, nil
	case "google", "google_iam":
		return pgreap.AuthMethodGoogleIAM, nil
	case "azure", "azure_entra_id":
		return pgreap.AuthMethodAzureEntraID, nil
	default:
		return pgreap.AuthMethodStandard, fmt.Errorf("auth method %q: %w", s, pgreap.ErrUnsupportedAuthMethod)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
