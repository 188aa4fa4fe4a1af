package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vvka-141/pgreap/internal/logging"
	"github.com/vvka-141/pgreap/internal/reaper"
	"github.com/vvka-141/pgreap/pkg/pgreap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create throwaway databases for trying out reap",
	Long: `Seed creates --count empty databases named <prefix><32 hex digits>,
the shape the default reap pattern matches. It uses the same connection
and backend settings as reap.

Examples:
  pgreap seed --count 20
  pgreap reap --dry-run`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

type seedFlagValues struct {
	conn        connFlagValues
	count       int
	prefix      string
	maxParallel int
}

var seedFlags seedFlagValues

func init() {
	rootCmd.AddCommand(seedCmd)
	registerSeedFlags(seedCmd)
}

func registerSeedFlags(cmd *cobra.Command) {
	seedFlags = seedFlagValues{}
	seedFlags.conn.register(cmd)

	cmd.Flags().IntVarP(&seedFlags.count, "count", "n", 10, "Number of databases to create")
	cmd.Flags().StringVar(&seedFlags.prefix, "prefix", pgreap.DefaultDatabasePrefix, "Database name prefix")
	cmd.Flags().IntVar(&seedFlags.maxParallel, "max-parallel", 8, "Maximum concurrent CREATE DATABASE statements")
}

// buildSeedConfig reuses pgreap.Config so connection and backend checks
// match reap exactly.
func buildSeedConfig(cmd *cobra.Command) (pgreap.Config, error) {
	if seedFlags.count < 1 {
		return pgreap.Config{}, fmt.Errorf("--count must be at least 1: %w", pgreap.ErrInvalidConfig)
	}
	if seedFlags.prefix == "" {
		return pgreap.Config{}, fmt.Errorf("--prefix cannot be empty: %w", pgreap.ErrInvalidConfig)
	}

	projectCfg, err := loadProjectConfig(cmd)
	if err != nil {
		return pgreap.Config{}, err
	}

	conn, err := seedFlags.conn.resolveConnection(projectCfg)
	if err != nil {
		return pgreap.Config{}, err
	}

	cfg := pgreap.DefaultConfig()
	cfg.Connection = *conn
	cfg.MaxParallel = seedFlags.maxParallel
	cfg.Backend = seedFlags.conn.resolveBackend(projectCfg)

	if err := cfg.Validate(); err != nil {
		return pgreap.Config{}, err
	}
	return cfg, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)
	logger := logging.NewConsoleLogger(verbose)
	loadDotEnv(logger)

	cfg, err := buildSeedConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, closeClient, err := openClient(ctx, cfg.Backend, cfg.Connection, reaper.Workers(cfg.MaxParallel, seedFlags.count), logger)
	defer closeClient()
	if err != nil {
		return err
	}

	created, err := reaper.Seed(ctx, client, seedFlags.prefix, seedFlags.count, cfg.MaxParallel)
	out := cmd.OutOrStdout()
	for _, name := range created {
		fmt.Fprintf(out, "Created %s\n", name)
	}
	fmt.Fprintf(out, "Created %d of %d databases\n", len(created), seedFlags.count)
	if err != nil {
		return fmt.Errorf("seeding stopped: %w", err)
	}
	return nil
}
