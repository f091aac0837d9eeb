package handler

import (
	"context"
	"net/http"

	"github.com/yumyai/roaryviz/pkg/handler/request"
	"github.com/yumyai/roaryviz/pkg/middle"
	"github.com/yumyai/roaryviz/pkg/model"
	"github.com/yumyai/roaryviz/pkg/render"
	"go.uber.org/zap"
)

type GeneResponse struct {
	DatasetID string             `json:"dataset_id"`
	Gene      *model.GeneProfile `json:"gene"`
	Cluster   *model.ClusterInfo `json:"cluster,omitempty"`
}

// gene profiles {gene_id} of the dataset. Rows of a gene table dataset are
// clusters, so their members are looked up as well.
func (app *AppContext) gene(r *http.Request) (*GeneResponse, *Dataset, error) {

	ds, err := app.dataset(r)
	if err != nil {
		return nil, nil, err
	}
	t, err := request.Thresholds(r.URL.Query(), app.Config.Analysis.Thresholds)
	if err != nil {
		return nil, nil, err
	}

	geneID := r.PathValue("gene_id")
	profile, err := model.ProfileGene(ds.Matrix, geneID, t)
	if err != nil {
		return nil, nil, err
	}

	resp := &GeneResponse{DatasetID: ds.ID, Gene: profile}
	if ds.Source == SourceGeneTable && app.GeneTable != nil {
		if resp.Cluster, err = app.cluster(r.Context(), geneID); err != nil {
			return nil, nil, err
		}
	}
	return resp, ds, nil
}

func (app *AppContext) cluster(ctx context.Context, clusterID string) (*model.ClusterInfo, error) {
	middle.Logger(ctx).Debug("Searching for", zap.String("cluster", clusterID))
	return app.GeneTable.Cluster(ctx, clusterID)
}

func (app *AppContext) GenePage(w http.ResponseWriter, r *http.Request) {

	resp, ds, err := app.gene(r)
	if err != nil {
		app.httpError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = render.RenderGenePage(w, render.GenePageData{
		DatasetID:   ds.ID,
		DatasetName: ds.Name,
		Profile:     resp.Gene,
		GenomeNames: ds.GenomeNames,
		Cluster:     resp.Cluster,
	})
	if err != nil {
		app.report(r, err)
	}
}

func (app *AppContext) GeneAPI(w http.ResponseWriter, r *http.Request) {

	resp, _, err := app.gene(r)
	if err != nil {
		app.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
