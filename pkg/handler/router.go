package handler

import (
	"net/http"

	"github.com/yumyai/roaryviz/pkg/middle"
)

func NewRouter(app *AppContext) http.Handler {
	mux := http.NewServeMux()

	// Error route
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	// Main routes
	mux.HandleFunc("GET /{$}", app.MainPage)
	mux.HandleFunc("POST /upload", app.UploadHandler)
	mux.HandleFunc("GET /genetable", app.GeneTablePage)
	mux.HandleFunc("GET /dataset/{id}", app.DatasetPage)
	mux.HandleFunc("GET /dataset/{id}/gene/{gene_id}", app.GenePage)
	mux.HandleFunc("POST /dataset/{id}/rarefaction", app.StartRarefaction)
	mux.HandleFunc("GET /jobs/{job_id}", app.JobPage)

	// API routes
	mux.HandleFunc("GET /api/v1/health", app.HealthCheck)
	mux.HandleFunc("GET /api/v1/datasets/{id}/distribution", app.DistributionAPI)
	mux.HandleFunc("GET /api/v1/datasets/{id}/frequencies", app.FrequenciesAPI)
	mux.HandleFunc("GET /api/v1/datasets/{id}/categories", app.CategoriesAPI)
	mux.HandleFunc("GET /api/v1/datasets/{id}/genes/{gene_id}", app.GeneAPI)
	mux.HandleFunc("GET /api/v1/datasets/{id}/rarefaction", app.RarefactionAPI)
	mux.HandleFunc("GET /api/v1/jobs/{job_id}", app.JobAPI)

	mws := []func(http.Handler) http.Handler{
		middle.RequestIDMiddleware(app.Logger),
		middle.LoggingMiddleware(app.Logger),
	}

	if app.Metrics != nil && app.Config.Metrics.Enabled {
		mux.Handle("GET "+app.Config.Metrics.Path, app.Metrics.Handler())
		mws = append(mws, middle.MetricsMiddleware(app.Metrics))
	}

	return middle.Chain(mux, mws...)
}
