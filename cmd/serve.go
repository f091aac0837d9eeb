package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/yumyai/roaryviz/logger"
	"github.com/yumyai/roaryviz/pkg/db"
	"github.com/yumyai/roaryviz/pkg/handler"
	"github.com/yumyai/roaryviz/pkg/metrics"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("genetable", "", "ggtable sqlite database (default <data-dir>/db/gene_table.db)")
	v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	v.BindPFlag("data.genetable_db", serveCmd.Flags().Lookup("genetable"))
}

func serve(ctx context.Context) error {

	logger.Info("Start:", zap.String("Version", Version))

	uploads, err := db.NewUploadStore(cfg.Data.UploadDir, true)
	if err != nil {
		return err
	}
	// Uploads of a previous run are no longer reachable.
	if removed, err := uploads.RemoveOlderThan(0, time.Now()); err != nil {
		logger.Warn("Could not clear old uploads", zap.Error(err))
	} else if len(removed) > 0 {
		logger.Info("Cleared old uploads", zap.Int("count", len(removed)))
	}

	var geneTable *db.GeneTable
	if _, err := os.Stat(cfg.Data.GeneTableDB); err == nil {
		geneTable, err = db.OpenGeneTable(ctx, cfg.Data.GeneTableDB)
		if err != nil {
			return err
		}
		defer geneTable.Close()
		logger.Info("Open database on", zap.String("DB_LOC", cfg.Data.GeneTableDB))
	} else {
		logger.Warn("No gene table database, /genetable is disabled", zap.String("DB_LOC", cfg.Data.GeneTableDB))
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	app := handler.NewAppContext(cfg, uploads, geneTable, m, logger.L())
	defer app.Close()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler.NewRouter(app),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go pruneJobs(ctx, app)

	errc := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("addr", cfg.Server.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Error starting server:", zap.String("error message", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// pruneJobs forgets finished jobs once their dataset could have expired.
func pruneJobs(ctx context.Context, app *handler.AppContext) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := app.Jobs.Prune(now.Add(-cfg.Session.TTL)); n > 0 {
				logger.Debug("Pruned jobs", zap.Int("count", n))
			}
		}
	}
}
