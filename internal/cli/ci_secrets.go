package cli

import (
	"github.com/spf13/cobra"
	"github.com/vvka-141/pgreap/internal/config"
	"github.com/vvka-141/pgreap/internal/logging"
	"github.com/vvka-141/pgreap/internal/secrets"
	"github.com/vvka-141/pgreap/pkg/pgreap"
)

var ciSecretsCmd = &cobra.Command{
	Use:   "ci-secrets",
	Short: "Write the CI API key into the application config",
	Long: `ci-secrets copies an environment variable (default GOOGLE_API_KEY) into
a key of a YAML file (default llm.api_key in ` + pgreap.DefaultSecretsFile + `),
then runs "git update-index --assume-unchanged" on the file so the secret is
not committed. Comments and key order in the file are kept.

Run it from the project root, usually as a CI step.`,
	Args: cobra.NoArgs,
	RunE: runCISecrets,
}

type ciSecretsFlagValues struct {
	file, key, env string
}

var ciSecretsFlags ciSecretsFlagValues

func init() {
	rootCmd.AddCommand(ciSecretsCmd)
	registerCISecretsFlags(ciSecretsCmd)
}

func registerCISecretsFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ciSecretsFlags.file, "file", pgreap.DefaultSecretsFile, "YAML file to update")
	cmd.Flags().StringVar(&ciSecretsFlags.key, "key", pgreap.DefaultSecretsKey, "Dotted key path to set")
	cmd.Flags().StringVar(&ciSecretsFlags.env, "env", pgreap.DefaultSecretsEnv, "Environment variable holding the secret")
}

// resolveSecretsTarget applies pgreap.yaml's secrets section where the flag
// was not given.
func resolveSecretsTarget(cmd *cobra.Command, projectCfg *config.ProjectConfig) (file, key, env string) {
	file, key, env = ciSecretsFlags.file, ciSecretsFlags.key, ciSecretsFlags.env
	if projectCfg == nil {
		return file, key, env
	}

	sc := projectCfg.Secrets
	flags := cmd.Flags()
	if sc.File != "" && !flags.Changed("file") {
		file = sc.File
	}
	if sc.Key != "" && !flags.Changed("key") {
		key = sc.Key
	}
	if sc.Env != "" && !flags.Changed("env") {
		env = sc.Env
	}
	return file, key, env
}

func runCISecrets(cmd *cobra.Command, args []string) error {
	logger := logging.NewConsoleLogger(getVerboseFlag(cmd))
	loadDotEnv(logger)

	projectCfg, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}

	file, key, env := resolveSecretsTarget(cmd, projectCfg)
	logger.Verbose("setting %s in %s from $%s", key, file, env)

	return secrets.New(secrets.WithOutput(cmd.OutOrStdout())).Inject(commandContext(cmd), file, key, env)
}
