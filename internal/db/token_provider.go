package db

import (
	"context"
	"fmt"
	"time"

	"github.com/vvka-141/pgreap/pkg/pgreap"
)

// TokenProvider abstracts cloud token acquisition for database authentication.
// The token is used as the PostgreSQL password.
type TokenProvider interface {
	// GetToken returns a token and its expiry.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider without secrets.
	String() string
}

// AzurePostgreSQLScope is the OAuth scope for Azure Database for PostgreSQL.
const AzurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"

// NewTokenProvider returns the provider for AWS IAM or Azure Entra ID.
func NewTokenProvider(config *pgreap.ConnectionConfig) (TokenProvider, error) {
	switch config.AuthMethod {
	case pgreap.AuthMethodAWSIAM:
		endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)
		provider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, pgreap.ErrInvalidConfig)
		}
		return provider, nil

	case pgreap.AuthMethodAzureEntraID:
		if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
			return NewAzureServicePrincipalProvider(config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
		}
		return NewAzureDefaultCredentialProvider()

	default:
		return nil, fmt.Errorf("%v does not use tokens: %w", config.AuthMethod, pgreap.ErrUnsupportedAuthMethod)
	}
}

// ResolvePassword returns the password a client process should use: the
// configured one for standard auth, or a freshly minted token.
func ResolvePassword(ctx context.Context, config *pgreap.ConnectionConfig) (string, error) {
	switch config.AuthMethod {
	case pgreap.AuthMethodStandard:
		return config.Password, nil
	case pgreap.AuthMethodGoogleIAM:
		return "", fmt.Errorf("%v authentication requires the pgx backend: %w", config.AuthMethod, pgreap.ErrUnsupportedAuthMethod)
	}

	provider, err := NewTokenProvider(config)
	if err != nil {
		return "", err
	}
	token, _, err := provider.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", provider, pgreap.ErrConnectionFailed, err)
	}
	return token, nil
}
