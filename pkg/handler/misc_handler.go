// Handler for miscellaneous endpoints such as health check

package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/yumyai/roaryviz/pkg/render"
)

type HealthResponse struct {
	Health    string    `json:"health"`
	Timestamp time.Time `json:"timestamp"`
	Datasets  int       `json:"datasets"`
	GeneTable bool      `json:"genetable"`
}

func (app *AppContext) HealthCheck(w http.ResponseWriter, r *http.Request) {

	response := HealthResponse{
		Health:    "ok",
		Timestamp: time.Now(),
		Datasets:  app.Datasets.Len(),
		GeneTable: app.GeneTable != nil,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)

}

// MainPage shows the upload form and the datasets still in memory.
func (app *AppContext) MainPage(w http.ResponseWriter, r *http.Request) {
	app.renderUploadPage(w, r, http.StatusOK, "")
}

func (app *AppContext) renderUploadPage(w http.ResponseWriter, r *http.Request, status int, message string) {

	data := render.UploadPageData{
		ErrorMessage: message,
		MaxUploadMB:  app.Config.Upload.MaxSize >> 20,
		HasGeneTable: app.GeneTable != nil,
	}
	for _, ds := range app.Datasets.List() {
		data.Datasets = append(data.Datasets, render.DatasetLink{
			ID:         ds.ID,
			Name:       ds.Name,
			NumGenes:   ds.Matrix.NumGenes(),
			NumGenomes: ds.Matrix.NumGenomes(),
			CreatedAt:  ds.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := render.RenderUploadPage(w, data); err != nil {
		app.report(r, err)
	}
}
