package handler

import (
	"context"
	"math/rand/v2"
	"net/http"

	"github.com/yumyai/roaryviz/pkg/handler/request"
	"github.com/yumyai/roaryviz/pkg/model"
)

type DistributionResponse struct {
	DatasetID  string                  `json:"dataset_id"`
	Thresholds model.Thresholds        `json:"thresholds"`
	Genomes    int                     `json:"genomes"`
	Result     *model.GeneDistribution `json:"distribution"`
}

type FrequenciesResponse struct {
	DatasetID string                `json:"dataset_id"`
	Pattern   string                `json:"pattern"`
	Genomes   int                   `json:"genomes"`
	Genes     []model.GeneFrequency `json:"genes"`
}

type CategoriesResponse struct {
	DatasetID  string                  `json:"dataset_id"`
	Thresholds model.Thresholds        `json:"thresholds"`
	Genes      []model.CategorizedGene `json:"genes"`
}

type RarefactionResponse struct {
	DatasetID    string                   `json:"dataset_id"`
	Permutations int                      `json:"permutations"`
	Seed         int64                    `json:"seed"`
	Points       []model.RarefactionPoint `json:"points"`
}

func (app *AppContext) DistributionAPI(w http.ResponseWriter, r *http.Request) {

	ds, err := app.dataset(r)
	if err != nil {
		app.jsonError(w, r, err)
		return
	}
	t, err := request.Thresholds(r.URL.Query(), app.Config.Analysis.Thresholds)
	if err != nil {
		app.jsonError(w, r, err)
		return
	}

	dist, err := app.distribution(r.Context(), ds, t)
	if err != nil {
		app.jsonError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, DistributionResponse{
		DatasetID:  ds.ID,
		Thresholds: t,
		Genomes:    ds.Matrix.NumGenomes(),
		Result:     dist,
	})
}

func (app *AppContext) FrequenciesAPI(w http.ResponseWriter, r *http.Request) {

	ds, err := app.dataset(r)
	if err != nil {
		app.jsonError(w, r, err)
		return
	}
	pattern, err := request.Pattern(r.URL.Query())
	if err != nil {
		app.jsonError(w, r, err)
		return
	}

	freqs, err := app.frequencies(r.Context(), ds, pattern)
	if err != nil {
		app.jsonError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, FrequenciesResponse{
		DatasetID: ds.ID,
		Pattern:   pattern.String(),
		Genomes:   ds.Matrix.NumGenomes(),
		Genes:     freqs,
	})
}

func (app *AppContext) CategoriesAPI(w http.ResponseWriter, r *http.Request) {

	ds, err := app.dataset(r)
	if err != nil {
		app.jsonError(w, r, err)
		return
	}
	t, err := request.Thresholds(r.URL.Query(), app.Config.Analysis.Thresholds)
	if err != nil {
		app.jsonError(w, r, err)
		return
	}

	genes, err := app.categories(r.Context(), ds, t)
	if err != nil {
		app.jsonError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CategoriesResponse{DatasetID: ds.ID, Thresholds: t, Genes: genes})
}

// rarefactionParams reads permutations and seed. Without a seed a random one is
// drawn so the result can be reproduced later.
func (app *AppContext) rarefactionParams(r *http.Request) (int, int64, error) {
	if err := r.ParseForm(); err != nil {
		return 0, 0, err
	}
	permutations, err := request.Permutations(r.Form, app.Config.Analysis.Permutations, app.Config.Analysis.MaxPermutations)
	if err != nil {
		return 0, 0, err
	}
	seed, ok, err := request.Seed(r.Form)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		seed = rand.Int64()
	}
	return permutations, seed, nil
}

// RarefactionAPI computes the curve within the request, bounded by
// analysis.timeout. Large requests should use a job instead.
func (app *AppContext) RarefactionAPI(w http.ResponseWriter, r *http.Request) {

	ds, err := app.dataset(r)
	if err != nil {
		app.jsonError(w, r, err)
		return
	}
	permutations, seed, err := app.rarefactionParams(r)
	if err != nil {
		app.jsonError(w, r, err)
		return
	}

	ctx := r.Context()
	if timeout := app.Config.Analysis.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	points, err := app.rarefy(ctx, ds, permutations, seed, nil)
	if err != nil {
		app.jsonError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RarefactionResponse{
		DatasetID:    ds.ID,
		Permutations: permutations,
		Seed:         seed,
		Points:       points,
	})
}

func (app *AppContext) JobAPI(w http.ResponseWriter, r *http.Request) {
	job, err := app.Jobs.GetJob(r.PathValue("job_id"))
	if err != nil {
		app.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
