package pgreap

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connector establishes the pgx connection pool used by the native backend.
// Implementations differ by authentication method (password, AWS IAM,
// Azure Entra ID, Google Cloud SQL IAM).
type Connector interface {
	// Connect opens a pool to the maintenance database.
	// The caller closes the returned pool.
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}
