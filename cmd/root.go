// Package cmd is the roaryviz command line: the web server and offline analysis
package cmd

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/yumyai/roaryviz/config"
	"github.com/yumyai/roaryviz/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const Version = "0.1.0"

var (
	v       = config.New()
	cfg     *config.Config
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "roaryviz",
	Short: "Explore Roary pan-genome results",
	Long: `Classify genes into core, soft-core, shell and cloud, list gene frequency
patterns and estimate gene accumulation (rarefaction) curves from a Roary
gene_presence_absence table, on the command line or in a web interface.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:    true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().String("log-level", "info", "debug, info, warn or error")
	rootCmd.PersistentFlags().String("data-dir", "./data", "data directory")

	v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	v.BindPFlag("data.dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

// setup loads .env and the configuration, then starts the logger.
func setup(cmd *cobra.Command, args []string) error {

	// Try load env
	dotenvErr := godotenv.Load()

	var err error
	cfg, err = config.Load(v, cfgFile)
	if err != nil {
		return err
	}

	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	if err := logger.InitLogger(level, logger.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}); err != nil {
		return err
	}

	if dotenvErr != nil {
		logger.Debug("No .env found, using local environment")
	}
	logger.Debug("Configuration loaded", zap.String("command", cmd.Name()), zap.String("data_dir", cfg.Data.Dir))
	return nil
}
