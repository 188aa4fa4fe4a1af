package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/vvka-141/pgreap/internal/config"
	"github.com/vvka-141/pgreap/pkg/pgreap"
)

var rootCmd = &cobra.Command{
	Use:   "pgreap",
	Short: "Drop leftover PostgreSQL test databases",
	Long: `pgreap finds databases whose names fully match a naming convention,
lists them, asks for confirmation, then terminates their connections and
drops them with bounded concurrency.

The default pattern matches the throwaway databases created by the API test
suite: ` + pgreap.DefaultPattern + `

Settings are resolved per field: flag > environment > pgreap.yaml > default.
A .env file in the working directory is loaded before resolution.

Exit Codes:
  0  - Success (including dry runs, aborts and runs with drop failures)
  1  - General error, or missing CI secret
  2  - CLI usage error, or psql not found in PATH
  3  - Panic or unexpected system error
  N  - psql's own exit status when the discovery query fails
  10 - Invalid configuration
  11 - Database connection failed (pgx backend)
  13 - Drop failures with --fail-on-error
  14 - Discovery query failed (pgx backend)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	// Defining --help without a shorthand leaves -h free for --host.
	rootCmd.PersistentFlags().Bool("help", false, "Help for pgreap")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().String("config", "",
		"Path to a pgreap.yaml file (default: ./pgreap.yaml when present)")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

// loadProjectConfig reads the file named by --config, or pgreap.yaml in the
// working directory. Only the implicit file may be absent.
func loadProjectConfig(cmd *cobra.Command) (*config.ProjectConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w: %w", path, pgreap.ErrInvalidConfig, err)
		}
		return cfg, nil
	}

	cfg, err := config.Load(".")
	if errors.Is(err, config.ErrConfigNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w: %w", config.ConfigFileName, pgreap.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// loadDotEnv loads ./.env without overriding variables already set.
func loadDotEnv(logger pgreap.Logger) {
	if err := godotenv.Load(); err == nil {
		logger.Verbose("loaded environment from .env")
	}
}

// commandContext returns cmd's context, or Background when the command was
// not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
