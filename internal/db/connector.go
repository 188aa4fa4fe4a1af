package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgreap/internal/logging"
	"github.com/vvka-141/pgreap/internal/retry"
	"github.com/vvka-141/pgreap/pkg/pgreap"
)

const (
	// DefaultMaxConns is used when the config does not size the pool.
	DefaultMaxConns = 4

	// DefaultMaxConnIdleTime releases idle connections between scheduled runs.
	DefaultMaxConnIdleTime = 5 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config, cfg *pgreap.ConnectionConfig) {
	poolConfig.MaxConns = DefaultMaxConns
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = 0
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
}

func newConnectExecutor(logger pgreap.Logger) *retry.Executor {
	strategy := retry.NewExponentialBackoff(pgreap.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(pgreap.DefaultRetryInitialDelay),
		retry.WithMaxDelay(pgreap.DefaultRetryMaxDelay),
	)
	return retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), strategy,
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Verbose("connect attempt %d failed, retrying in %v: %v", attempt+1, delay.Round(time.Millisecond), err)
		}),
	)
}

// openPool parses connStr, applies pool settings and pings the server.
func openPool(ctx context.Context, connStr string, cfg *pgreap.ConnectionConfig, tweak func(*pgxpool.Config)) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %v: %w", err, pgreap.ErrInvalidConfig)
	}

	configurePool(poolConfig, cfg)
	if tweak != nil {
		tweak(poolConfig)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// StandardConnector connects with username and password, retrying
// transient failures.
type StandardConnector struct {
	config        *pgreap.ConnectionConfig
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a StandardConnector. A nil logger discards
// retry diagnostics.
func NewStandardConnector(config *pgreap.ConnectionConfig, logger pgreap.Logger) *StandardConnector {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &StandardConnector{
		config:        config,
		retryExecutor: newConnectExecutor(logger),
	}
}

func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	connStr := BuildConnectionString(c.config)

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		var err error
		pool, err = openPool(ctx, connStr, c.config, nil)
		return err
	})
	if err != nil {
		return nil, wrapConnectionError(err, c.config)
	}
	return pool, nil
}

// NewConnector picks the Connector for config.AuthMethod.
func NewConnector(config *pgreap.ConnectionConfig, logger pgreap.Logger) (pgreap.Connector, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	switch config.AuthMethod {
	case pgreap.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case pgreap.AuthMethodAWSIAM, pgreap.AuthMethodAzureEntraID:
		provider, err := NewTokenProvider(config)
		if err != nil {
			return nil, err
		}
		return NewTokenBasedConnector(config, provider, logger), nil
	case pgreap.AuthMethodGoogleIAM:
		if config.GoogleInstance == "" {
			return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", pgreap.ErrInvalidConfig)
		}
		return NewGoogleCloudSQLConnector(config, config.GoogleInstance), nil
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, pgreap.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError adds a hint for the common failure causes and marks
// the error with pgreap.ErrConnectionFailed. Config errors pass through.
func wrapConnectionError(err error, cfg *pgreap.ConnectionConfig) error {
	if errors.Is(err, pgreap.ErrInvalidConfig) || errors.Is(err, context.Canceled) {
		return err
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	errStr := strings.ToLower(err.Error())

	var hint string
	switch {
	case strings.Contains(errStr, "connection refused"):
		hint = fmt.Sprintf("is PostgreSQL running? check: pg_isready -h %s -p %d", cfg.Host, cfg.Port)
	case strings.Contains(errStr, "no such host"):
		hint = fmt.Sprintf("cannot resolve host %q", cfg.Host)
	case strings.Contains(errStr, "password authentication failed"):
		hint = fmt.Sprintf("check $PGPASSWORD for user %q", cfg.Username)
	case strings.Contains(errStr, "does not exist"):
		hint = fmt.Sprintf("maintenance database %q does not exist, pick another with --maintenance-db", cfg.Database)
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		hint = "server did not answer in time"
	case strings.Contains(errStr, "too many connections"):
		hint = "server is out of connection slots, lower --max-parallel"
	}

	if hint == "" {
		return fmt.Errorf("failed to connect to %s: %w: %w", addr, pgreap.ErrConnectionFailed, err)
	}
	return fmt.Errorf("failed to connect to %s (%s): %w: %w", addr, hint, pgreap.ErrConnectionFailed, err)
}
