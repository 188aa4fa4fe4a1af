package manager_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgreap/internal/db"
	testhelpers "github.com/vvka-141/pgreap/internal/testing"
)

func TestManager_Integration_Lifecycle(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)
	ctx := context.Background()
	client := testhelpers.NewTestClient(t, connString)

	names := []string{
		"cpast_api_tests_00000000000000000000000000000001",
		"cpast_api_tests_00000000000000000000000000000002",
	}
	testhelpers.CreateTestDBs(t, client, names...)

	found, err := client.ListDatabases(ctx, `^cpast_api_tests_0{31}[12]$`)
	require.NoError(t, err)
	assert.Equal(t, names, found)

	// Hold a session open on the first database; termination must clear it.
	cfg := testhelpers.TestConnectionConfig(t, connString)
	cfg.Database = names[0]
	holder, err := pgxpool.New(ctx, db.BuildConnectionString(cfg))
	require.NoError(t, err)
	defer holder.Close()
	require.NoError(t, holder.Ping(ctx))

	assert.False(t, client.TerminateConnections(ctx, names[0]).Failed())
	// pg_terminate_backend only signals; the backend may take a moment to exit.
	require.Eventually(t, func() bool {
		return client.DropDatabase(ctx, names[0]) == nil
	}, 5*time.Second, 50*time.Millisecond)
	require.NoError(t, client.DropDatabase(ctx, names[0]), "dropping a missing database succeeds")

	found, err = client.ListDatabases(ctx, `^cpast_api_tests_0{31}[12]$`)
	require.NoError(t, err)
	assert.Equal(t, names[1:], found)
}
