package cmd

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/yumyai/roaryviz/config"
	"github.com/yumyai/roaryviz/internal/util"
	"github.com/yumyai/roaryviz/logger"
	"go.uber.org/zap"
)

var configureFlags struct {
	baseDir string
	set     map[string]string
}

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Prepare a deployment directory",
	Long: `Create the logs, tmp and data directories under --base-dir and write a .env
file with the deployment settings. An existing .env is kept as .env.backup and
its values are carried over unless overridden with --set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configure(configureFlags.baseDir, configureFlags.set)
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)

	configureCmd.Flags().StringVar(&configureFlags.baseDir, "base-dir", ".", "deployment directory")
	configureCmd.Flags().StringToStringVar(&configureFlags.set, "set", nil, "extra KEY=VALUE settings for .env")
}

// deploymentEnv is written to .env for a fresh deployment under baseDir.
func deploymentEnv(baseDir string) map[string]string {
	return map[string]string{
		config.EnvPrefix + "_DATA_DIR":         filepath.Join(baseDir, "data"),
		config.EnvPrefix + "_LOG_FILE":         filepath.Join(baseDir, "logs", "app.log"),
		config.EnvPrefix + "_LOG_LEVEL":        "info",
		config.EnvPrefix + "_LOG_MAX_SIZE_MB":  "10",
		config.EnvPrefix + "_LOG_MAX_BACKUPS":  "5",
		config.EnvPrefix + "_SERVER_ADDR":      ":8080",
		config.EnvPrefix + "_METRICS_ENABLED":  "true",
		config.EnvPrefix + "_SESSION_TTL":      "1h",
		config.EnvPrefix + "_UPLOAD_MAX_SIZE":  "104857600",
		config.EnvPrefix + "_ANALYSIS_WORKERS": "4",
	}
}

func configure(baseDir string, set map[string]string) error {

	for _, dir := range []string{"logs", "tmp", "data", filepath.Join("data", "uploads"), filepath.Join("data", "db")} {
		path := filepath.Join(baseDir, dir)
		if err := util.EnsureDir(path); err != nil {
			return err
		}
		logger.Info("Created directory", zap.String("path", path))
	}

	env := deploymentEnv(baseDir)

	envFile := filepath.Join(baseDir, ".env")
	existing, err := godotenv.Read(envFile)
	switch {
	case err == nil:
		for k, val := range existing {
			env[k] = val
		}
		data, err := os.ReadFile(envFile)
		if err != nil {
			return err
		}
		backup := envFile + ".backup"
		if err := os.WriteFile(backup, data, 0o600); err != nil {
			return err
		}
		logger.Info("Backed up existing .env", zap.String("backup", backup))
	case errors.Is(err, fs.ErrNotExist):
	default:
		return err
	}

	for k, val := range set {
		env[k] = val
	}

	if err := godotenv.Write(env, envFile); err != nil {
		return err
	}
	logger.Info("Wrote .env", zap.String("path", envFile), zap.Int("settings", len(env)))
	return nil
}
