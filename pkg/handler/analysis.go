package handler

import (
	"context"
	"time"

	"github.com/yumyai/roaryviz/pkg/cache"
	"github.com/yumyai/roaryviz/pkg/middle"
	"github.com/yumyai/roaryviz/pkg/model"
)

// measure logs and records the duration of one analysis operation.
func (app *AppContext) measure(ctx context.Context, operation string, threshold time.Duration) func() {
	stop := middle.MeasurePerformance(ctx, operation, threshold)
	return func() {
		app.Metrics.ObserveAnalysis(operation, stop())
	}
}

func (app *AppContext) distribution(ctx context.Context, ds *Dataset, t model.Thresholds) (*model.GeneDistribution, error) {
	key := cache.Key(ds.ID, "distribution", t.Core, t.Softcore, t.Shell)
	return cache.Remember(app.Cache, key, func() (*model.GeneDistribution, error) {
		defer app.measure(ctx, "distribution", middle.SlowAnalysis)()
		return model.Classify(ds.Matrix, t)
	})
}

func (app *AppContext) categories(ctx context.Context, ds *Dataset, t model.Thresholds) ([]model.CategorizedGene, error) {
	key := cache.Key(ds.ID, "categories", t.Core, t.Softcore, t.Shell)
	return cache.Remember(app.Cache, key, func() ([]model.CategorizedGene, error) {
		defer app.measure(ctx, "categories", middle.SlowAnalysis)()
		return model.CategorizeGenes(ds.Matrix, t)
	})
}

func (app *AppContext) frequencies(ctx context.Context, ds *Dataset, p model.Pattern) ([]model.GeneFrequency, error) {
	key := cache.Key(ds.ID, "frequencies", p)
	return cache.Remember(app.Cache, key, func() ([]model.GeneFrequency, error) {
		defer app.measure(ctx, "frequencies", middle.SlowAnalysis)()
		return model.AnalyzePattern(ds.Matrix, p)
	})
}

func (app *AppContext) histogram(ctx context.Context, ds *Dataset) ([]int, error) {
	return cache.Remember(app.Cache, cache.Key(ds.ID, "histogram"), func() ([]int, error) {
		defer app.measure(ctx, "histogram", middle.SlowAnalysis)()
		return model.FrequencyHistogram(ds.Matrix)
	})
}

// rarefy computes a curve. Seeded curves are reproducible and therefore cached.
func (app *AppContext) rarefy(ctx context.Context, ds *Dataset, permutations int, seed int64, progress func(done, total int)) ([]model.RarefactionPoint, error) {
	key := cache.Key(ds.ID, "rarefaction", permutations, seed)
	return cache.Remember(app.Cache, key, func() ([]model.RarefactionPoint, error) {
		defer app.measure(ctx, "rarefaction", middle.SlowRarefaction)()

		opts := []model.RarefyOption{
			model.WithSeed(seed),
			model.WithWorkers(app.Config.Analysis.Workers),
		}
		if progress != nil {
			opts = append(opts, model.WithProgress(progress))
		}
		return model.Rarefy(ctx, ds.Matrix, permutations, opts...)
	})
}
