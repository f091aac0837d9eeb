package handler

import (
	"context"
	"net/http"

	"github.com/yumyai/roaryviz/pkg/handler/request"
	"github.com/yumyai/roaryviz/pkg/middle"
	"go.uber.org/zap"
)

const (
	GeneTableID        = "genetable"
	GeneTableRegionsID = "genetable-regions"
)

// GeneTablePage loads the configured gene table database as a dataset. With
// ?regions=1 unannotated region matches count as presence too.
func (app *AppContext) GeneTablePage(w http.ResponseWriter, r *http.Request) {

	ds, err := app.loadGeneTable(r.Context(), request.Flag(r.URL.Query(), request.KeyRegions))
	if err != nil {
		app.httpError(w, r, err)
		return
	}

	http.Redirect(w, r, "/dataset/"+ds.ID, http.StatusSeeOther)
}

func (app *AppContext) loadGeneTable(ctx context.Context, includeRegions bool) (*Dataset, error) {

	if app.GeneTable == nil {
		return nil, ErrNoGeneTable
	}

	id, name := GeneTableID, "Gene table"
	if includeRegions {
		id, name = GeneTableRegionsID, "Gene table (with regions)"
	}

	if ds, err := app.Datasets.Get(id); err == nil {
		return ds, nil
	}

	defer app.measure(ctx, "genetable_load", middle.SlowAnalysis)()

	m, err := app.GeneTable.LoadPresenceAbsence(ctx, includeRegions)
	if err != nil {
		return nil, err
	}
	names, err := app.GeneTable.GenomeNames(ctx)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		ID:          id,
		Name:        name,
		Source:      SourceGeneTable,
		Files:       []string{app.Config.Data.GeneTableDB},
		Matrix:      m,
		GenomeNames: names,
	}
	app.Datasets.Add(ds)

	middle.Logger(ctx).Info("Gene table loaded",
		zap.Int("clusters", m.NumGenes()),
		zap.Int("genomes", m.NumGenomes()),
		zap.Bool("regions", includeRegions),
	)
	return ds, nil
}
