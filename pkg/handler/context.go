package handler

// DI for all handlers alike.

import (
	"github.com/yumyai/roaryviz/config"
	"github.com/yumyai/roaryviz/pkg/cache"
	"github.com/yumyai/roaryviz/pkg/db"
	"github.com/yumyai/roaryviz/pkg/metrics"
	"go.uber.org/zap"
)

type AppContext struct {
	Config    *config.Config
	Datasets  *DatasetStore
	Jobs      *JobManager
	Uploads   *db.UploadStore
	GeneTable *db.GeneTable // nil when no database is configured
	Cache     *cache.ResultCache
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// NewAppContext wires the stores together. geneTable and m may be nil.
func NewAppContext(cfg *config.Config, uploads *db.UploadStore, geneTable *db.GeneTable, m *metrics.Metrics, logger *zap.Logger) *AppContext {

	app := &AppContext{
		Config:    cfg,
		Uploads:   uploads,
		GeneTable: geneTable,
		Metrics:   m,
		Logger:    logger,
	}

	if cfg.Cache.Enabled {
		app.Cache = cache.New(cfg.Cache.MaxSize, cfg.Cache.TTL)
	}

	app.Datasets = NewDatasetStore(cfg.Session.MaxDatasets, cfg.Session.TTL, app.datasetEvicted)
	app.Jobs = NewJobManager(m.JobStatus)

	if m != nil {
		m.TrackDatasets(app.Datasets.Len)
		if app.Cache != nil {
			m.RegisterCache("results", app.Cache)
		}
	}

	return app
}

func (app *AppContext) datasetEvicted(ds *Dataset) {
	app.Logger.Info("Dataset evicted", zap.String("dataset_id", ds.ID), zap.String("source", ds.Source))

	if app.Cache != nil {
		app.Cache.Invalidate(ds.ID + ":")
	}
	if ds.Source == SourceUpload && app.Uploads != nil {
		if err := app.Uploads.Remove(ds.ID); err != nil {
			app.Logger.Warn("Could not remove upload", zap.String("dataset_id", ds.ID), zap.Error(err))
		}
	}
}

// Close stops background jobs.
func (app *AppContext) Close() {
	app.Jobs.Close()
}
