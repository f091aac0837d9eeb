package model

import (
	"fmt"

	"github.com/willf/bitset"
)

// Matrix is an immutable gene (row) by genome (column) presence/absence table.
type Matrix struct {
	geneIDs   []string
	genomeIDs []string
	cells     []uint8 // row-major, len(geneIDs) * len(genomeIDs)

	// Derived once at construction.
	freqs   []int
	columns []*bitset.BitSet // genes present in each genome
}

// NewMatrix validates and copies the given table. Every row must have one cell
// per genome, cells must be 0 or 1 and identifiers must be unique.
func NewMatrix(geneIDs, genomeIDs []string, cells [][]uint8) (*Matrix, error) {

	if len(cells) != len(geneIDs) {
		return nil, fmt.Errorf("%w: %d gene ids for %d rows", ErrInvalidMatrix, len(geneIDs), len(cells))
	}
	if err := checkUnique("gene", geneIDs); err != nil {
		return nil, err
	}
	if err := checkUnique("genome", genomeIDs); err != nil {
		return nil, err
	}

	nGenes, nGenomes := len(geneIDs), len(genomeIDs)

	m := &Matrix{
		geneIDs:   append([]string(nil), geneIDs...),
		genomeIDs: append([]string(nil), genomeIDs...),
		cells:     make([]uint8, 0, nGenes*nGenomes),
		freqs:     make([]int, nGenes),
		columns:   make([]*bitset.BitSet, nGenomes),
	}

	for j := range m.columns {
		m.columns[j] = bitset.New(uint(nGenes))
	}

	for i, row := range cells {
		if len(row) != nGenomes {
			return nil, fmt.Errorf("%w: row %q has %d cells, expected %d", ErrInvalidMatrix, geneIDs[i], len(row), nGenomes)
		}
		for j, v := range row {
			switch v {
			case 0:
			case 1:
				m.freqs[i]++
				m.columns[j].Set(uint(i))
			default:
				return nil, &CellError{Row: i, Col: j, Value: v}
			}
		}
		m.cells = append(m.cells, row...)
	}

	return m, nil
}

func checkUnique(kind string, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate %s id %q", ErrInvalidMatrix, kind, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (m *Matrix) NumGenes() int   { return len(m.geneIDs) }
func (m *Matrix) NumGenomes() int { return len(m.genomeIDs) }

func (m *Matrix) GeneIDs() []string   { return append([]string(nil), m.geneIDs...) }
func (m *Matrix) GenomeIDs() []string { return append([]string(nil), m.genomeIDs...) }

func (m *Matrix) GeneID(i int) string   { return m.geneIDs[i] }
func (m *Matrix) GenomeID(j int) string { return m.genomeIDs[j] }

// Present reports whether gene i is present in genome j.
func (m *Matrix) Present(i, j int) bool {
	return m.cells[i*len(m.genomeIDs)+j] == 1
}

// Row returns a copy of the cells of gene i.
func (m *Matrix) Row(i int) []uint8 {
	n := len(m.genomeIDs)
	return append([]uint8(nil), m.cells[i*n:(i+1)*n]...)
}

// GeneFrequencies returns, for every gene, the number of genomes it occurs in.
func (m *Matrix) GeneFrequencies() []int {
	return append([]int(nil), m.freqs...)
}

// TotalPresence is the sum of all cells.
func (m *Matrix) TotalPresence() int {
	total := 0
	for _, f := range m.freqs {
		total += f
	}
	return total
}

// DistinctGenes counts genes present in at least one genome.
func (m *Matrix) DistinctGenes() int {
	n := 0
	for _, f := range m.freqs {
		if f > 0 {
			n++
		}
	}
	return n
}

func (m *Matrix) checkNotEmpty() error {
	if m == nil || len(m.geneIDs) == 0 || len(m.genomeIDs) == 0 {
		return ErrEmptyMatrix
	}
	return nil
}
