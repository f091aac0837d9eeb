package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/yumyai/roaryviz/config"
	"github.com/yumyai/roaryviz/internal/util"
	"github.com/yumyai/roaryviz/logger"
	"github.com/yumyai/roaryviz/pkg/db"
	"go.uber.org/zap"
)

// backupEntries are archived relative to the deployment directory.
var backupEntries = []string{".env", "data", "logs"}

var maintainFlags struct {
	baseDir string
	maxAge  time.Duration
	output  string
	input   string
}

var maintainCmd = &cobra.Command{
	Use:   "maintain",
	Short: "Deployment housekeeping",
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove upload sessions older than --max-age",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		uploads, err := db.NewUploadStore(cfg.Data.UploadDir, false)
		if err != nil {
			return err
		}
		removed, err := uploads.RemoveOlderThan(maintainFlags.maxAge, time.Now())
		for _, id := range removed {
			logger.Debug("Removed upload", zap.String("dataset_id", id))
		}
		logger.Info("Cleanup finished", zap.Int("removed", len(removed)), zap.Duration("max_age", maintainFlags.maxAge))
		return err
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Archive .env, data and logs into a tar.gz file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := maintainFlags.output
		if out == "" {
			out = filepath.Join(maintainFlags.baseDir, "backups",
				fmt.Sprintf("backup_%s.tar.gz", time.Now().Format("20060102_150405")))
		}
		if err := util.EnsureDir(filepath.Dir(out)); err != nil {
			return err
		}
		n, err := util.CreateArchive(out, maintainFlags.baseDir, backupEntries...)
		if err != nil {
			return err
		}
		logger.Info("Created backup", zap.String("path", out), zap.Int("files", n))
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Unpack a backup into the deployment directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := util.ExtractArchive(maintainFlags.input, maintainFlags.baseDir)
		if err != nil {
			return err
		}
		logger.Info("Restored backup", zap.String("path", maintainFlags.input), zap.Int("files", n))
		return nil
	},
}

var rotateCmd = &cobra.Command{
	Use:   "rotate-logs",
	Short: "Start a new log file, keeping the configured number of backups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Log.File == "" {
			return fmt.Errorf("no log file configured (set log.file or %s_LOG_FILE)", config.EnvPrefix)
		}
		if err := logger.Rotate(); err != nil {
			return err
		}
		logger.Info("Log rotated", zap.String("file", cfg.Log.File))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(maintainCmd)
	maintainCmd.AddCommand(cleanupCmd, backupCmd, restoreCmd, rotateCmd)

	maintainCmd.PersistentFlags().StringVar(&maintainFlags.baseDir, "base-dir", ".", "deployment directory")
	cleanupCmd.Flags().DurationVar(&maintainFlags.maxAge, "max-age", 7*24*time.Hour, "remove uploads older than this")
	backupCmd.Flags().StringVarP(&maintainFlags.output, "output", "o", "", "archive path (default <base-dir>/backups/backup_<time>.tar.gz)")
	restoreCmd.Flags().StringVarP(&maintainFlags.input, "input", "i", "", "archive to restore")
	restoreCmd.MarkFlagRequired("input")
}
