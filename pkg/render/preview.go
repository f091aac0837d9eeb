package render

import (
	"github.com/yumyai/roaryviz/pkg/model"
)

// Cell represents a single table cell's data for a genome column.
type Cell struct {
	Present bool
	Color   string
}

type PreviewRow struct {
	GeneID   string
	Category model.GeneCategory
	Present  int
	Cells    []Cell
}

// Preview is the presence/absence table shown on the dataset page.
type Preview struct {
	GenomeIDs []string
	Rows      []PreviewRow
	Shown     int
	Total     int
}

// SampleRows picks at most max of n row indices, evenly spread and in order.
func SampleRows(n, max int) []int {
	if n <= 0 || max <= 0 {
		return nil
	}
	if n <= max {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, max)
	for i := range idx {
		idx[i] = i * n / max
	}
	return idx
}

// BuildPreview arranges up to max genes of m with cells colored by category.
// genes must be CategorizeGenes(m, ...) output in matrix order.
func BuildPreview(m *model.Matrix, genes []model.CategorizedGene, max int) Preview {

	p := Preview{
		GenomeIDs: m.GenomeIDs(),
		Total:     m.NumGenes(),
	}

	for _, i := range SampleRows(m.NumGenes(), max) {
		g := genes[i]
		cells := make([]Cell, m.NumGenomes())
		for j := range cells {
			present := m.Present(i, j)
			cells[j] = Cell{Present: present, Color: presenceColor(g.Category, present)}
		}
		p.Rows = append(p.Rows, PreviewRow{
			GeneID:   g.GeneID,
			Category: g.Category,
			Present:  g.PresentInGenomes,
			Cells:    cells,
		})
	}
	p.Shown = len(p.Rows)
	return p
}
