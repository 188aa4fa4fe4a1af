//go:build conntest

package conntest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgreap/internal/db"
	"github.com/vvka-141/pgreap/internal/logging"
	"github.com/vvka-141/pgreap/pkg/pgreap"
)

func TestStandardConnection_UserPassword(t *testing.T) {
	pool := connectWithConfig(t, parseStdConnString(t))
	pingSucceeds(t, pool)

	var version string
	require.NoError(t, pool.QueryRow(context.Background(), "SELECT version()").Scan(&version))
	assert.Contains(t, version, "PostgreSQL")
}

func TestStandardConnection_WrongPassword(t *testing.T) {
	config := parseStdConnString(t)
	config.Password = "definitely-wrong-password"

	connector, err := db.NewConnector(config, logging.NewNullLogger())
	require.NoError(t, err)

	_, err = connector.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, pgreap.ErrConnectionFailed), "got %v", err)
	assert.Equal(t, pgreap.ExitConnectionError, pgreap.ExitCodeForError(err))
}

func TestPrecedence_FlagOverridesEnv(t *testing.T) {
	config := parseStdConnString(t)
	t.Setenv("PGHOST", "unreachable.invalid")
	t.Setenv("PGPASSWORD", config.Password)

	resolved, err := db.ResolveConnectionParams("",
		&db.GranularConnFlags{Host: config.Host, Port: config.Port, Username: config.Username, SSLMode: "disable"},
		nil,
		db.LoadFromEnvironment(),
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, config.Host, resolved.Host)

	pingSucceeds(t, connectWithConfig(t, resolved))
}
