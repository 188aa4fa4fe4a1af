package pgreap

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBConnection abstracts the pool operations the native backend needs.
// This keeps pgx pool types out of the manager so it can be tested with
// hand-written doubles.
//
// Thread-Safety: pool-backed implementations are safe for concurrent use.
type DBConnection interface {
	// Exec executes a statement without returning rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// Query executes a statement returning rows. The caller must Close them.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// Acquire obtains a dedicated connection, required for statements that
	// cannot run inside a transaction block such as DROP DATABASE.
	// Caller must call Release() on the returned PooledConnection when done.
	Acquire(ctx context.Context) (PooledConnection, error)
}

// Rows is the subset of pgx.Rows used to read query results.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// PooledConnection represents a connection acquired from a pool.
type PooledConnection interface {
	// Exec executes a statement on this specific connection.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// Release returns the connection to the pool.
	Release()
}
