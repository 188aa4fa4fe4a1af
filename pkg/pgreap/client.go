package pgreap

import "context"

// DatabaseClient issues the catalog and lifecycle statements the reaper needs
// against the maintenance database. Implementations must be safe for
// concurrent use: the dropper calls TerminateConnections and DropDatabase
// from many goroutines at once.
type DatabaseClient interface {
	// ListDatabases returns the names in pg_database matching the POSIX
	// regular expression pattern, sorted ascending.
	ListDatabases(ctx context.Context, pattern string) ([]string, error)

	// TerminateConnections asks the server to end every other backend
	// connected to dbName. The result is advisory only.
	TerminateConnections(ctx context.Context, dbName string) BestEffort

	// DropDatabase drops dbName if it exists. Dropping a missing database
	// succeeds.
	DropDatabase(ctx context.Context, dbName string) error

	// CreateDatabase creates an empty database named dbName.
	CreateDatabase(ctx context.Context, dbName string) error
}

// BestEffort is the outcome of a step whose failure must never change what
// happens next. Err is kept for tests and debugging; callers discard the value
// explicitly with Discard.
type BestEffort struct {
	Err error
}

// Failed reports whether the step did not complete.
func (b BestEffort) Failed() bool {
	return b.Err != nil
}

// Discard marks the outcome as intentionally unused.
func (BestEffort) Discard() {}
