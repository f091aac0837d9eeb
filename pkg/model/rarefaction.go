package model

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/willf/bitset"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

const DefaultPermutations = 50

type rarefyOptions struct {
	seed     uint64
	seeded   bool
	workers  int
	progress func(done, total int)
}

type RarefyOption func(*rarefyOptions)

// WithSeed makes the curve reproducible: the same matrix, permutation count and
// seed always give the same points, whatever the number of workers.
func WithSeed(seed int64) RarefyOption {
	return func(o *rarefyOptions) {
		o.seed = uint64(seed)
		o.seeded = true
	}
}

// WithWorkers spreads the permutations over n goroutines.
func WithWorkers(n int) RarefyOption {
	return func(o *rarefyOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithProgress is called after every finished permutation. Calls are serialized.
func WithProgress(fn func(done, total int)) RarefyOption {
	return func(o *rarefyOptions) {
		o.progress = fn
	}
}

// Rarefy estimates the gene accumulation curve. For every permutation the genome
// columns are shuffled and the genes seen in the first k columns are counted, so
// each prefix is a uniform random k-subset drawn without replacement. Point k-1
// of the result holds the mean (and spread) of those counts over all
// permutations, for k = 1..NumGenomes.
func Rarefy(ctx context.Context, m *Matrix, permutations int, opts ...RarefyOption) ([]RarefactionPoint, error) {

	if permutations <= 0 {
		return nil, fmt.Errorf("%w: got %d, must be positive", ErrInvalidPermutations, permutations)
	}
	if err := m.checkNotEmpty(); err != nil {
		return nil, err
	}

	o := rarefyOptions{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.seeded {
		o.seed = rand.Uint64()
	}

	nGenomes, nGenes := m.NumGenomes(), m.NumGenes()

	// draws[k-1][p] is the distinct gene count of permutation p after k genomes.
	draws := make([][]float64, nGenomes)
	for k := range draws {
		draws[k] = make([]float64, permutations)
	}

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for p := 0; p < permutations; p++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			// One generator per permutation keeps results independent of scheduling.
			rng := rand.New(rand.NewPCG(o.seed, uint64(p)))
			seen := bitset.New(uint(nGenes))

			for k, col := range rng.Perm(nGenomes) {
				seen.InPlaceUnion(m.columns[col])
				draws[k][p] = float64(seen.Count())
			}

			if o.progress != nil {
				mu.Lock()
				done++
				o.progress(done, permutations)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	points := make([]RarefactionPoint, nGenomes)
	for k, sizes := range draws {
		mean, std := stat.MeanStdDev(sizes, nil)
		if permutations < 2 {
			std = 0
		}
		points[k] = RarefactionPoint{
			Genomes:   k + 1,
			MeanGenes: mean,
			StdDev:    std,
		}
	}

	return points, nil
}

// ExpectedCurve is the closed form of the curve Rarefy estimates: a gene present
// in f of n genomes is missed by a random k-subset with probability
// C(n-f, k) / C(n, k).
func ExpectedCurve(m *Matrix) ([]RarefactionPoint, error) {

	if err := m.checkNotEmpty(); err != nil {
		return nil, err
	}

	n := m.NumGenomes()
	points := make([]RarefactionPoint, n)

	for k := 1; k <= n; k++ {
		expected := 0.0
		for _, f := range m.freqs {
			if f == 0 {
				continue
			}
			missed := 1.0
			for i := 0; i < k; i++ {
				if n-f-i <= 0 {
					missed = 0
					break
				}
				missed *= float64(n-f-i) / float64(n-i)
			}
			expected += 1 - missed
		}
		points[k-1] = RarefactionPoint{Genomes: k, MeanGenes: expected}
	}

	return points, nil
}
