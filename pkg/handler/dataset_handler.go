package handler

import (
	"net/http"

	"github.com/yumyai/roaryviz/pkg/handler/request"
	"github.com/yumyai/roaryviz/pkg/model"
	"github.com/yumyai/roaryviz/pkg/render"
)

// Longest frequency table shown on the page; the API returns all rows.
const maxFrequencyRows = 500

var patternNames = []string{
	model.PatternAll.String(),
	model.PatternRare.String(),
	model.PatternCommon.String(),
	model.PatternVariable.String(),
}

// dataset resolves the {id} path value. The gene table datasets are reloaded when
// they expired.
func (app *AppContext) dataset(r *http.Request) (*Dataset, error) {
	id := r.PathValue("id")
	ds, err := app.Datasets.Get(id)
	if err == nil {
		return ds, nil
	}
	if app.GeneTable != nil && (id == GeneTableID || id == GeneTableRegionsID) {
		return app.loadGeneTable(r.Context(), id == GeneTableRegionsID)
	}
	return nil, err
}

// DatasetPage renders distribution, frequencies and a presence/absence preview.
func (app *AppContext) DatasetPage(w http.ResponseWriter, r *http.Request) {

	ds, err := app.dataset(r)
	if err != nil {
		app.httpError(w, r, err)
		return
	}

	q := r.URL.Query()
	t, err := request.Thresholds(q, app.Config.Analysis.Thresholds)
	if err != nil {
		app.httpError(w, r, err)
		return
	}
	pattern, err := request.Pattern(q)
	if err != nil {
		app.httpError(w, r, err)
		return
	}

	ctx := r.Context()
	dist, err := app.distribution(ctx, ds, t)
	if err != nil {
		app.httpError(w, r, err)
		return
	}
	genes, err := app.categories(ctx, ds, t)
	if err != nil {
		app.httpError(w, r, err)
		return
	}
	freqs, err := app.frequencies(ctx, ds, pattern)
	if err != nil {
		app.httpError(w, r, err)
		return
	}
	hist, err := app.histogram(ctx, ds)
	if err != nil {
		app.httpError(w, r, err)
		return
	}

	shown := freqs
	if len(shown) > maxFrequencyRows {
		shown = shown[:maxFrequencyRows]
	}

	data := render.DatasetPageData{
		ID:                  ds.ID,
		Name:                ds.Name,
		Source:              ds.Source,
		Files:               ds.Files,
		NumGenes:            ds.Matrix.NumGenes(),
		NumGenomes:          ds.Matrix.NumGenomes(),
		TotalPresence:       ds.Matrix.TotalPresence(),
		Thresholds:          t,
		Distribution:        dist,
		Summary:             ds.Summary,
		Chart:               render.NewChartData(dist, hist),
		Pattern:             pattern.String(),
		Patterns:            patternNames,
		Frequencies:         shown,
		FrequencyTotal:      len(freqs),
		Preview:             render.BuildPreview(ds.Matrix, genes, app.Config.Analysis.MaxGenesDisplay),
		DefaultPermutations: app.Config.Analysis.Permutations,
		MaxPermutations:     app.Config.Analysis.MaxPermutations,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.RenderDatasetPage(w, data); err != nil {
		app.report(r, err)
	}
}
