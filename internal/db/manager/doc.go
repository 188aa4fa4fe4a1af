// Package manager implements pgreap.DatabaseClient over a pgx connection pool.
//
// Names are bound as parameters wherever PostgreSQL allows it; DROP and
// CREATE DATABASE take identifiers, which are quoted with
// pgx.Identifier.Sanitize. Both statements refuse to run inside a
// transaction block, so they are issued on a dedicated acquired connection.
//
//	pool, err := connector.Connect(ctx)
//	client := manager.New(db.NewPoolAdapter(pool))
//	names, err := client.ListDatabases(ctx, `^ci_[0-9a-f]{32}$`)
//
// # Thread Safety
//
// Manager holds no state of its own and is safe for concurrent use as long as
// the injected DBConnection is, which a pgxpool-backed one is.
package manager
