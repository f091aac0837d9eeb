package handler

import (
	"context"
	"net/http"

	"github.com/yumyai/roaryviz/pkg/middle"
	"github.com/yumyai/roaryviz/pkg/model"
	"github.com/yumyai/roaryviz/pkg/render"
	"go.uber.org/zap"
)

// Seconds between reloads of a running job page.
const jobRefreshSeconds = 2

// StartRarefaction queues a background rarefaction job and redirects to its page.
func (app *AppContext) StartRarefaction(w http.ResponseWriter, r *http.Request) {

	ds, err := app.dataset(r)
	if err != nil {
		app.httpError(w, r, err)
		return
	}
	permutations, seed, err := app.rarefactionParams(r)
	if err != nil {
		app.httpError(w, r, err)
		return
	}

	job := app.Jobs.NewJob(ds.ID, permutations, seed)
	log := middle.Logger(r.Context()).With(zap.String("job_id", job.ID))

	app.Jobs.Start(job.ID, app.Config.Analysis.Timeout, func(ctx context.Context, progress func(done, total int)) ([]model.RarefactionPoint, error) {
		// Jobs run detached from the request context.
		ctx = middle.WithLogger(ctx, log)
		points, err := app.rarefy(ctx, ds, permutations, seed, progress)
		if err != nil {
			log.Warn("Rarefaction job failed", zap.Error(err))
			app.Metrics.RecordError(toAppError(err).Kind)
		}
		return points, err
	})

	log.Info("Rarefaction job queued", zap.String("dataset_id", ds.ID), zap.Int("permutations", permutations))
	http.Redirect(w, r, "/jobs/"+job.ID, http.StatusSeeOther)
}

func (app *AppContext) JobPage(w http.ResponseWriter, r *http.Request) {

	job, err := app.Jobs.GetJob(r.PathValue("job_id"))
	if err != nil {
		app.httpError(w, r, err)
		return
	}

	name := job.DatasetID
	if ds, err := app.Datasets.Get(job.DatasetID); err == nil {
		name = ds.Name
	}

	data := render.JobPageData{
		JobID:                  job.ID,
		DatasetID:              job.DatasetID,
		DatasetName:            name,
		Permutations:           job.Permutations,
		Seed:                   job.Seed,
		Status:                 string(job.Status),
		Done:                   job.Done,
		Points:                 job.Points,
		ErrorMessage:           job.Error,
		ShouldRefresh:          !job.Finished(),
		RefreshIntervalSeconds: jobRefreshSeconds,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.RenderJobPage(w, data); err != nil {
		app.report(r, err)
	}
}
