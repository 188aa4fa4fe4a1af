package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgreap/internal/config"
	"github.com/vvka-141/pgreap/internal/db/psql"
	"github.com/vvka-141/pgreap/internal/logging"
	"github.com/vvka-141/pgreap/pkg/pgreap"
)

// clearConnEnv isolates tests from the developer's PG* and cloud settings.
func clearConnEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE", "PGSSLMODE",
		"PGREAP_CONNECTION_STRING", "DATABASE_URL",
		"AWS_REGION", "AZURE_TENANT_ID", "AZURE_CLIENT_ID", "AZURE_CLIENT_SECRET",
	} {
		t.Setenv(name, "")
	}
}

func newTestCommand(register func(*cobra.Command)) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().BoolP("verbose", "v", false, "")
	cmd.Flags().String("config", "", "")
	register(cmd)
	return cmd
}

func TestRootCmd_Subcommands(t *testing.T) {
	want := map[string]bool{"reap": false, "seed": false, "ci-secrets": false, "version": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		assert.True(t, found, "subcommand %q not registered", name)
	}
}

func TestRootCmd_HostShorthandIsFree(t *testing.T) {
	f := reapCmd.Flags().ShorthandLookup("h")
	require.NotNil(t, f)
	assert.Equal(t, "host", f.Name)
}

func TestReapCmd_RejectsPositionalArgs(t *testing.T) {
	err := reapCmd.Args(reapCmd, []string{"extra"})
	require.Error(t, err)
	assert.Equal(t, pgreap.ExitUsageError, pgreap.ExitCodeForError(err))
}

func TestBuildReapConfig_Defaults(t *testing.T) {
	clearConnEnv(t)
	cmd := newTestCommand(registerReapFlags)

	cfg, expr, err := buildReapConfig(cmd, nil)
	require.NoError(t, err)

	assert.Empty(t, expr)
	assert.Equal(t, pgreap.DefaultPattern, cfg.Pattern)
	assert.Equal(t, pgreap.DefaultMaxParallel, cfg.MaxParallel)
	assert.Equal(t, pgreap.BackendPsql, cfg.Backend)
	assert.False(t, cfg.DryRun)
	assert.False(t, cfg.AssumeYes)
	assert.Zero(t, cfg.CallTimeout)

	conn := cfg.Connection
	assert.Equal(t, pgreap.DefaultHost, conn.Host)
	assert.Equal(t, pgreap.DefaultPort, conn.Port)
	assert.Equal(t, pgreap.DefaultUser, conn.Username)
	assert.Equal(t, pgreap.DefaultMaintenanceDB, conn.Database)
	assert.Equal(t, pgreap.DefaultPassword, conn.Password)
}

func TestBuildReapConfig_ProjectConfigApplies(t *testing.T) {
	clearConnEnv(t)
	cmd := newTestCommand(registerReapFlags)

	project := &config.ProjectConfig{
		Reap: config.ReapConfig{
			Pattern:     `^ci_[0-9]+$`,
			MaxParallel: 8,
			Backend:     "pgx",
			CallTimeout: "45s",
			FailOnError: true,
		},
	}

	cfg, _, err := buildReapConfig(cmd, project)
	require.NoError(t, err)

	assert.Equal(t, `^ci_[0-9]+$`, cfg.Pattern)
	assert.Equal(t, 8, cfg.MaxParallel)
	assert.Equal(t, pgreap.BackendPgx, cfg.Backend)
	assert.Equal(t, 45*time.Second, cfg.CallTimeout)
	assert.True(t, cfg.FailOnError)
}

func TestBuildReapConfig_FlagsBeatProjectConfig(t *testing.T) {
	clearConnEnv(t)
	cmd := newTestCommand(registerReapFlags)
	require.NoError(t, cmd.Flags().Set("pattern", `^mine$`))
	require.NoError(t, cmd.Flags().Set("max-parallel", "2"))
	require.NoError(t, cmd.Flags().Set("backend", "psql"))
	require.NoError(t, cmd.Flags().Set("call-timeout", "3s"))

	project := &config.ProjectConfig{
		Reap: config.ReapConfig{Pattern: `^theirs$`, MaxParallel: 8, Backend: "pgx", CallTimeout: "1m"},
	}

	cfg, _, err := buildReapConfig(cmd, project)
	require.NoError(t, err)

	assert.Equal(t, `^mine$`, cfg.Pattern)
	assert.Equal(t, 2, cfg.MaxParallel)
	assert.Equal(t, pgreap.BackendPsql, cfg.Backend)
	assert.Equal(t, 3*time.Second, cfg.CallTimeout)
}

func TestBuildReapConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		flags   map[string]string
		project *config.ProjectConfig
		want    error
	}{
		{
			name:  "connection with granular flags",
			flags: map[string]string{"connection": "postgresql://u@db/postgres", "host": "other"},
			want:  pgreap.ErrInvalidConfig,
		},
		{
			name:  "negative max parallel",
			flags: map[string]string{"max-parallel": "-1"},
			want:  pgreap.ErrInvalidConfig,
		},
		{
			name:  "bad pattern",
			flags: map[string]string{"pattern": "("},
			want:  pgreap.ErrInvalidConfig,
		},
		{
			name:  "unknown backend",
			flags: map[string]string{"backend": "jdbc"},
			want:  pgreap.ErrInvalidConfig,
		},
		{
			name:  "google needs pgx",
			flags: map[string]string{"google": "true", "google-instance": "p:r:i"},
			want:  pgreap.ErrUnsupportedAuthMethod,
		},
		{
			name:  "schedule needs yes or dry run",
			flags: map[string]string{"schedule": "@hourly"},
			want:  pgreap.ErrInvalidConfig,
		},
		{
			name:  "schedule must parse",
			flags: map[string]string{"schedule": "every tuesday", "yes": "true"},
			want:  pgreap.ErrInvalidConfig,
		},
		{
			name:    "bad call timeout in project config",
			project: &config.ProjectConfig{Reap: config.ReapConfig{CallTimeout: "soon"}},
			want:    pgreap.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConnEnv(t)
			cmd := newTestCommand(registerReapFlags)
			for k, v := range tt.flags {
				require.NoError(t, cmd.Flags().Set(k, v))
			}

			_, _, err := buildReapConfig(cmd, tt.project)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, pgreap.ExitConfigError, pgreap.ExitCodeForError(err))
		})
	}
}

func TestBuildReapConfig_ScheduleFromProjectConfig(t *testing.T) {
	clearConnEnv(t)
	cmd := newTestCommand(registerReapFlags)
	require.NoError(t, cmd.Flags().Set("dry-run", "true"))

	_, expr, err := buildReapConfig(cmd, &config.ProjectConfig{Reap: config.ReapConfig{Schedule: "*/5 * * * *"}})
	require.NoError(t, err)
	assert.Equal(t, "*/5 * * * *", expr)
}

func TestBuildSeedConfig(t *testing.T) {
	clearConnEnv(t)

	t.Run("defaults", func(t *testing.T) {
		cmd := newTestCommand(registerSeedFlags)
		cfg, err := buildSeedConfig(cmd)
		require.NoError(t, err)
		assert.Equal(t, pgreap.BackendPsql, cfg.Backend)
		assert.Equal(t, 10, seedFlags.count)
		assert.Equal(t, pgreap.DefaultDatabasePrefix, seedFlags.prefix)
	})

	t.Run("zero count", func(t *testing.T) {
		cmd := newTestCommand(registerSeedFlags)
		require.NoError(t, cmd.Flags().Set("count", "0"))
		_, err := buildSeedConfig(cmd)
		assert.ErrorIs(t, err, pgreap.ErrInvalidConfig)
	})

	t.Run("empty prefix", func(t *testing.T) {
		cmd := newTestCommand(registerSeedFlags)
		require.NoError(t, cmd.Flags().Set("prefix", ""))
		_, err := buildSeedConfig(cmd)
		assert.ErrorIs(t, err, pgreap.ErrInvalidConfig)
	})
}

func TestOpenClient(t *testing.T) {
	logger := logging.NewNullLogger()
	conn := pgreap.DefaultConnectionConfig()

	t.Run("psql", func(t *testing.T) {
		client, closeClient, err := openClient(context.Background(), pgreap.BackendPsql, conn, 4, logger)
		require.NoError(t, err)
		defer closeClient()
		assert.IsType(t, &psql.Client{}, client)
	})

	t.Run("psql rejects google", func(t *testing.T) {
		google := conn
		google.AuthMethod = pgreap.AuthMethodGoogleIAM
		_, closeClient, err := openClient(context.Background(), pgreap.BackendPsql, google, 4, logger)
		closeClient()
		assert.ErrorIs(t, err, pgreap.ErrUnsupportedAuthMethod)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, closeClient, err := openClient(context.Background(), pgreap.Backend("odbc"), conn, 4, logger)
		closeClient()
		assert.ErrorIs(t, err, pgreap.ErrInvalidConfig)
	})
}

func TestLoadProjectConfig(t *testing.T) {
	t.Run("explicit file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		require.NoError(t, os.WriteFile(path, []byte("reap:\n  max_parallel: 3\n"), 0o644))

		cmd := newTestCommand(func(*cobra.Command) {})
		require.NoError(t, cmd.Flags().Set("config", path))

		cfg, err := loadProjectConfig(cmd)
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, 3, cfg.Reap.MaxParallel)
	})

	t.Run("explicit file missing", func(t *testing.T) {
		cmd := newTestCommand(func(*cobra.Command) {})
		require.NoError(t, cmd.Flags().Set("config", filepath.Join(t.TempDir(), "absent.yaml")))

		_, err := loadProjectConfig(cmd)
		assert.ErrorIs(t, err, pgreap.ErrInvalidConfig)
	})

	t.Run("implicit file missing", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cmd := newTestCommand(func(*cobra.Command) {})

		cfg, err := loadProjectConfig(cmd)
		require.NoError(t, err)
		assert.Nil(t, cfg)
	})
}

func TestResolveSecretsTarget(t *testing.T) {
	project := &config.ProjectConfig{
		Secrets: config.SecretsConfig{File: "conf/app.yaml", Key: "llm.token", Env: "LLM_TOKEN"},
	}

	t.Run("project config fills unset flags", func(t *testing.T) {
		cmd := newTestCommand(registerCISecretsFlags)
		file, key, env := resolveSecretsTarget(cmd, project)
		assert.Equal(t, "conf/app.yaml", file)
		assert.Equal(t, "llm.token", key)
		assert.Equal(t, "LLM_TOKEN", env)
	})

	t.Run("flags win", func(t *testing.T) {
		cmd := newTestCommand(registerCISecretsFlags)
		require.NoError(t, cmd.Flags().Set("env", "OTHER"))
		_, _, env := resolveSecretsTarget(cmd, project)
		assert.Equal(t, "OTHER", env)
	})

	t.Run("defaults", func(t *testing.T) {
		cmd := newTestCommand(registerCISecretsFlags)
		file, key, env := resolveSecretsTarget(cmd, nil)
		assert.Equal(t, pgreap.DefaultSecretsFile, file)
		assert.Equal(t, pgreap.DefaultSecretsKey, key)
		assert.Equal(t, pgreap.DefaultSecretsEnv, env)
	})
}

func TestRunCISecrets(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("base.yaml", []byte("llm:\n  api_key: old\n"), 0o644))
	t.Setenv("GOOGLE_API_KEY", "fresh")

	cmd := newTestCommand(registerCISecretsFlags)
	require.NoError(t, cmd.Flags().Set("file", "base.yaml"))
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, runCISecrets(cmd, nil))
	assert.Contains(t, out.String(), "Updated api_key successfully")

	data, err := os.ReadFile("base.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "api_key: fresh")
}

func TestRunCISecrets_MissingEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("base.yaml", []byte("llm:\n  api_key: old\n"), 0o644))
	t.Setenv("GOOGLE_API_KEY", "")

	cmd := newTestCommand(registerCISecretsFlags)
	require.NoError(t, cmd.Flags().Set("file", "base.yaml"))
	var out bytes.Buffer
	cmd.SetOut(&out)

	err := runCISecrets(cmd, nil)
	require.ErrorIs(t, err, pgreap.ErrMissingSecret)
	assert.Equal(t, 1, pgreap.ExitCodeForError(err))
	assert.Contains(t, out.String(), "No changes made")
}
