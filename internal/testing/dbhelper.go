// Package testing holds helpers shared by pgreap's integration tests.
package testing

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgreap/internal/db"
	"github.com/vvka-141/pgreap/internal/db/manager"
	"github.com/vvka-141/pgreap/internal/testinfra"
	"github.com/vvka-141/pgreap/pkg/pgreap"
)

// TestConnEnv names the variable that points integration tests at an
// existing server instead of a container.
const TestConnEnv = "PGREAP_TEST_CONN"

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		container, err := testinfra.StartPostgres(context.Background())
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns $PGREAP_TEST_CONN, or the connection string
// of a container started once per test binary. Skips when neither is available.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv(TestConnEnv); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("%s not set and Docker unavailable: %v", TestConnEnv, err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// TestConnectionConfig parses connString into a ConnectionConfig.
func TestConnectionConfig(t *testing.T, connString string) *pgreap.ConnectionConfig {
	t.Helper()

	cfg, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}
	return cfg
}

// NewTestClient returns a pgx-backed client on connString's maintenance
// database. The pool is closed when the test completes.
func NewTestClient(t *testing.T, connString string) *manager.Manager {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return manager.New(db.NewPoolAdapter(pool))
}

// CreateTestDBs creates each named database and drops any survivors when the
// test completes.
func CreateTestDBs(t *testing.T, client pgreap.DatabaseClient, names ...string) {
	t.Helper()

	ctx := context.Background()
	for _, name := range names {
		if err := client.CreateDatabase(ctx, name); err != nil {
			t.Fatalf("Failed to create test database %s: %v", name, err)
		}
	}

	t.Cleanup(func() {
		for _, name := range names {
			client.TerminateConnections(ctx, name).Discard()
			if err := client.DropDatabase(ctx, name); err != nil {
				t.Logf("Warning: Failed to drop database %s: %v", name, err)
			}
		}
	})
}
