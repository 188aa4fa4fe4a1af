package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/pgreap/pkg/pgreap"
)

const (
	queryListDatabases = "SELECT datname FROM pg_database WHERE datname ~ $1 ORDER BY datname"

	queryTerminateConnections = `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()
	`
)

// Manager issues reaper statements through a DBConnection.
type Manager struct {
	conn pgreap.DBConnection
}

// New creates a Manager bound to conn.
func New(conn pgreap.DBConnection) *Manager {
	return &Manager{conn: conn}
}

// ListDatabases returns the databases whose name matches pattern, sorted.
func (m *Manager) ListDatabases(ctx context.Context, pattern string) ([]string, error) {
	rows, err := m.conn.Query(ctx, queryListDatabases, pattern)
	if err != nil {
		return nil, queryError(queryListDatabases, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, queryError(queryListDatabases, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(queryListDatabases, err)
	}
	return names, nil
}

// TerminateConnections ends the other sessions on dbName.
func (m *Manager) TerminateConnections(ctx context.Context, dbName string) pgreap.BestEffort {
	_, err := m.conn.Exec(ctx, queryTerminateConnections, dbName)
	return pgreap.BestEffort{Err: err}
}

// DropDatabase drops dbName if it exists.
func (m *Manager) DropDatabase(ctx context.Context, dbName string) error {
	return m.execDedicated(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", pgx.Identifier{dbName}.Sanitize()))
}

// CreateDatabase creates an empty database.
func (m *Manager) CreateDatabase(ctx context.Context, dbName string) error {
	return m.execDedicated(ctx, fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{dbName}.Sanitize()))
}

func (m *Manager) execDedicated(ctx context.Context, sql string) error {
	pooledConn, err := m.conn.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer pooledConn.Release()

	if _, err := pooledConn.Exec(ctx, sql); err != nil {
		return statementError(sql, err)
	}
	return nil
}

// statementError turns a server rejection into a CommandError. Anything
// else (cancellation, a broken connection) is returned wrapped but untyped.
func statementError(sql string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &pgreap.CommandError{SQL: sql, Err: err}
	}
	return fmt.Errorf("%s: %w", sql, err)
}

func queryError(sql string, err error) error {
	return &pgreap.CommandError{SQL: sql, Err: fmt.Errorf("%w: %w", pgreap.ErrQueryFailed, err)}
}

var _ pgreap.DatabaseClient = (*Manager)(nil)
