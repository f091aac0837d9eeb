package model

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Pattern selects a subset of genes by how widely they occur.
type Pattern int

const (
	PatternAll Pattern = iota
	PatternRare
	PatternCommon
	PatternVariable
)

func (p Pattern) String() string {
	switch p {
	case PatternAll:
		return "all"
	case PatternRare:
		return "rare"
	case PatternCommon:
		return "common"
	case PatternVariable:
		return "variable"
	default:
		return "unknown"
	}
}

// ParsePattern accepts the pattern names case-insensitively. Empty means all.
func ParsePattern(s string) (Pattern, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "":
		return PatternAll, nil
	case "rare":
		return PatternRare, nil
	case "common":
		return PatternCommon, nil
	case "variable":
		return PatternVariable, nil
	default:
		return PatternAll, fmt.Errorf("%w: %q (expected rare, common, variable or all)", ErrUnknownPattern, s)
	}
}

// match compares counts with integer arithmetic so bounds like 10% of 30 genomes
// are exact.
func (p Pattern) match(freq, totalGenomes int) bool {
	switch p {
	case PatternRare:
		return 10*freq <= totalGenomes
	case PatternCommon:
		return 10*freq >= 9*totalGenomes
	case PatternVariable:
		return 10*freq > 3*totalGenomes && 10*freq < 7*totalGenomes
	default:
		return true
	}
}

// Frequencies lists every gene with the number and percentage of genomes it is
// present in, most widespread first.
func Frequencies(m *Matrix) ([]GeneFrequency, error) {
	return AnalyzePattern(m, PatternAll)
}

// AnalyzePattern filters the frequency table by p. Rare genes are sorted
// ascending, everything else descending. Ties keep matrix order.
func AnalyzePattern(m *Matrix, p Pattern) ([]GeneFrequency, error) {

	if err := m.checkNotEmpty(); err != nil {
		return nil, err
	}
	if p < PatternAll || p > PatternVariable {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPattern, int(p))
	}

	n := m.NumGenomes()
	out := make([]GeneFrequency, 0, len(m.freqs))

	for i, f := range m.freqs {
		if !p.match(f, n) {
			continue
		}
		out = append(out, GeneFrequency{
			GeneID:           m.geneIDs[i],
			PresentInGenomes: f,
			Percentage:       round2(100 * float64(f) / float64(n)),
		})
	}

	ascending := p == PatternRare
	sort.SliceStable(out, func(a, b int) bool {
		if ascending {
			return out[a].PresentInGenomes < out[b].PresentInGenomes
		}
		return out[a].PresentInGenomes > out[b].PresentInGenomes
	})

	return out, nil
}

// FrequencyHistogram counts genes by the number of genomes they occur in; index k
// holds the number of genes present in exactly k genomes.
func FrequencyHistogram(m *Matrix) ([]int, error) {
	if err := m.checkNotEmpty(); err != nil {
		return nil, err
	}
	hist := make([]int, m.NumGenomes()+1)
	for _, f := range m.freqs {
		hist[f]++
	}
	return hist, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
