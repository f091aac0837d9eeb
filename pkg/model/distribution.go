package model

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

const (
	DefaultCoreThreshold     = 0.99
	DefaultSoftcoreThreshold = 0.95
	DefaultShellThreshold    = 0.15
)

// Thresholds are the fractions of genomes separating the pan-genome categories.
type Thresholds struct {
	Core     float64 `json:"core" mapstructure:"core_threshold"`
	Softcore float64 `json:"softcore" mapstructure:"softcore_threshold"`
	Shell    float64 `json:"shell" mapstructure:"shell_threshold"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Core:     DefaultCoreThreshold,
		Softcore: DefaultSoftcoreThreshold,
		Shell:    DefaultShellThreshold,
	}
}

// Validate requires every threshold in [0,1] and Core > Softcore > Shell.
func (t Thresholds) Validate() error {
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"core", t.Core},
		{"softcore", t.Softcore},
		{"shell", t.Shell},
	} {
		// Written this way so NaN fails too.
		if !(v.value >= 0 && v.value <= 1) {
			return fmt.Errorf("%w: %s threshold %v is outside [0, 1]", ErrInvalidThresholds, v.name, v.value)
		}
	}

	if !(t.Core > t.Softcore && t.Softcore > t.Shell) {
		return fmt.Errorf("%w: core (%v) > soft-core (%v) > shell (%v) must be maintained",
			ErrInvalidThresholds, t.Core, t.Softcore, t.Shell)
	}
	return nil
}

// Categorize places a gene found in freq of totalGenomes genomes into a category.
// Thresholds are assumed valid.
func (t Thresholds) Categorize(freq, totalGenomes int) GeneCategory {
	f, n := float64(freq), float64(totalGenomes)
	switch {
	case f >= n*t.Core:
		return CategoryCore
	case f >= n*t.Softcore:
		return CategorySoftcore
	case f >= n*t.Shell:
		return CategoryShell
	default:
		return CategoryCloud
	}
}

// Classify counts the genes of every category and the mean number of genomes
// each gene is present in.
func Classify(m *Matrix, t Thresholds) (*GeneDistribution, error) {

	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := m.checkNotEmpty(); err != nil {
		return nil, err
	}

	n := m.NumGenomes()
	dist := &GeneDistribution{TotalGenes: m.NumGenes()}

	freqs := make([]float64, len(m.freqs))
	for i, f := range m.freqs {
		freqs[i] = float64(f)

		switch t.Categorize(f, n) {
		case CategoryCore:
			dist.CoreGenes++
		case CategorySoftcore:
			dist.SoftcoreGenes++
		case CategoryShell:
			dist.ShellGenes++
		case CategoryCloud:
			dist.CloudGenes++
		}
	}

	dist.GenesPerGenome = stat.Mean(freqs, nil)

	return dist, nil
}

// CategorizeGenes returns every gene with its category, in matrix order.
func CategorizeGenes(m *Matrix, t Thresholds) ([]CategorizedGene, error) {

	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := m.checkNotEmpty(); err != nil {
		return nil, err
	}

	n := m.NumGenomes()
	out := make([]CategorizedGene, len(m.freqs))
	for i, f := range m.freqs {
		out[i] = CategorizedGene{
			GeneID:           m.geneIDs[i],
			PresentInGenomes: f,
			Category:         t.Categorize(f, n),
		}
	}
	return out, nil
}
