package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgreap/internal/logging"
	"github.com/vvka-141/pgreap/internal/retry"
	"github.com/vvka-141/pgreap/pkg/pgreap"
)

// tokenExpiryWarning is the remaining lifetime below which a token is
// reported as about to expire.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector authenticates with a short-lived token (AWS IAM,
// Azure Entra ID) used as the password. A fresh token is fetched on every
// connect attempt.
type TokenBasedConnector struct {
	config        *pgreap.ConnectionConfig
	tokenProvider TokenProvider
	retryExecutor *retry.Executor
	logger        pgreap.Logger
}

func NewTokenBasedConnector(config *pgreap.ConnectionConfig, tokenProvider TokenProvider, logger pgreap.Logger) *TokenBasedConnector {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		retryExecutor: newConnectExecutor(logger),
		logger:        logger,
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		token, expiresOn, err := c.tokenProvider.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire token from %s: %w", c.tokenProvider, err)
		}
		if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
			c.logger.Info("Warning: token from %s expires in %v", c.tokenProvider, remaining.Round(time.Second))
		}

		withToken := *c.config
		withToken.Password = token

		pool, err = openPool(ctx, BuildConnectionString(&withToken), c.config, nil)
		return err
	})
	if err != nil {
		return nil, wrapConnectionError(err, c.config)
	}
	return pool, nil
}
