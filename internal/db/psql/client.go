// Package psql implements pgreap.DatabaseClient by running the psql
// executable once per statement.
//
// The password travels only in the child's environment as PGPASSWORD; it is
// never placed on the command line.
package psql

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgreap/pkg/pgreap"
)

// Client runs statements through psql against the maintenance database.
// It is safe for concurrent use; every call starts its own process.
type Client struct {
	conn     pgreap.ConnectionConfig
	password string
	binary   string

	lookPath       func(file string) (string, error)
	commandContext func(ctx context.Context, name string, args ...string) *exec.Cmd
	environ        func() []string

	resolveOnce sync.Once
	path        string
	resolveErr  error
}

// Option configures a Client.
type Option func(*Client)

// WithBinary overrides the executable name looked up in PATH.
func WithBinary(name string) Option {
	return func(c *Client) { c.binary = name }
}

// WithPassword overrides conn.Password, for example with a cloud IAM token.
func WithPassword(password string) Option {
	return func(c *Client) { c.password = password }
}

// WithLookPath replaces exec.LookPath.
func WithLookPath(f func(string) (string, error)) Option {
	return func(c *Client) { c.lookPath = f }
}

// WithCommandContext replaces exec.CommandContext.
func WithCommandContext(f func(ctx context.Context, name string, args ...string) *exec.Cmd) Option {
	return func(c *Client) { c.commandContext = f }
}

// WithEnviron replaces os.Environ as the base of the child environment.
func WithEnviron(f func() []string) Option {
	return func(c *Client) { c.environ = f }
}

// New creates a Client. The executable is located on first use.
func New(conn pgreap.ConnectionConfig, opts ...Option) *Client {
	c := &Client{
		conn:           conn,
		password:       conn.Password,
		binary:         pgreap.DefaultClientBinary,
		lookPath:       exec.LookPath,
		commandContext: exec.CommandContext,
		environ:        os.Environ,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Args returns the psql argument vector for sql.
func (c *Client) Args(sql string) []string {
	return []string{
		"--no-align",
		"--tuples-only",
		"--quiet",
		"-h", c.conn.Host,
		"-p", strconv.Itoa(c.conn.Port),
		"-U", c.conn.Username,
		"-d", c.conn.Database,
		"-v", "ON_ERROR_STOP=1",
		"-c", sql,
	}
}

// ListDatabases runs the catalog query and returns the trimmed, non-empty
// output lines.
func (c *Client) ListDatabases(ctx context.Context, pattern string) ([]string, error) {
	sql := fmt.Sprintf("SELECT datname FROM pg_database WHERE datname ~ %s ORDER BY datname;", QuoteLiteral(pattern))

	out, err := c.run(ctx, sql, false)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// TerminateConnections runs pg_terminate_backend for every other session on
// dbName with output discarded.
func (c *Client) TerminateConnections(ctx context.Context, dbName string) pgreap.BestEffort {
	sql := fmt.Sprintf(
		"SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = %s AND pid <> pg_backend_pid();",
		QuoteLiteral(dbName))
	_, err := c.run(ctx, sql, true)
	return pgreap.BestEffort{Err: err}
}

func (c *Client) DropDatabase(ctx context.Context, dbName string) error {
	_, err := c.run(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s;", pgx.Identifier{dbName}.Sanitize()), false)
	return err
}

func (c *Client) CreateDatabase(ctx context.Context, dbName string) error {
	_, err := c.run(ctx, fmt.Sprintf("CREATE DATABASE %s;", pgx.Identifier{dbName}.Sanitize()), false)
	return err
}

func (c *Client) resolve() (string, error) {
	c.resolveOnce.Do(func() {
		path, err := c.lookPath(c.binary)
		if err != nil {
			c.resolveErr = &pgreap.ClientNotFoundError{Name: c.binary, Err: err}
			return
		}
		c.path = path
	})
	return c.path, c.resolveErr
}

// run executes sql and returns stdout. In quiet mode both output streams are
// discarded.
func (c *Client) run(ctx context.Context, sql string, quiet bool) (string, error) {
	path, err := c.resolve()
	if err != nil {
		return "", err
	}

	cmd := c.commandContext(ctx, path, c.Args(sql)...)
	cmd.Env = c.childEnv()

	var stdout, stderr bytes.Buffer
	if quiet {
		cmd.Stdout, cmd.Stderr = io.Discard, io.Discard
	} else {
		cmd.Stdout, cmd.Stderr = &stdout, &stderr
	}

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%s: %w", c.binary, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &pgreap.CommandError{
				SQL:      sql,
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
				Err:      err,
			}
		}
		return "", fmt.Errorf("run %s: %w", c.binary, err)
	}
	return stdout.String(), nil
}

func (c *Client) childEnv() []string {
	env := append([]string{}, c.environ()...)
	env = append(env, "PGPASSWORD="+c.password)
	if c.conn.SSLMode != "" {
		env = append(env, "PGSSLMODE="+c.conn.SSLMode)
	}
	if c.conn.AppName != "" {
		env = append(env, "PGAPPNAME="+c.conn.AppName)
	}
	if c.conn.ConnectTimeout > 0 {
		env = append(env, "PGCONNECT_TIMEOUT="+strconv.Itoa(int(c.conn.ConnectTimeout.Seconds())))
	}
	return env
}

// QuoteLiteral renders s as a standard SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

var _ pgreap.DatabaseClient = (*Client)(nil)
