package model

import "fmt"

// Pan-genome category of a gene.
type GeneCategory int

const (
	CategoryCore GeneCategory = iota
	CategorySoftcore
	CategoryShell
	CategoryCloud
)

func (c GeneCategory) String() string {
	switch c {
	case CategoryCore:
		return "core"
	case CategorySoftcore:
		return "softcore"
	case CategoryShell:
		return "shell"
	case CategoryCloud:
		return "cloud"
	default:
		return "unknown"
	}
}

// Label is the human readable name used on pages and charts.
func (c GeneCategory) Label() string {
	switch c {
	case CategoryCore:
		return "Core"
	case CategorySoftcore:
		return "Soft-core"
	case CategoryShell:
		return "Shell"
	case CategoryCloud:
		return "Cloud"
	default:
		return "Unknown"
	}
}

func (c GeneCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *GeneCategory) UnmarshalText(text []byte) error {
	for _, cat := range AllCategories {
		if cat.String() == string(text) {
			*c = cat
			return nil
		}
	}
	return fmt.Errorf("unknown gene category %q", text)
}

// AllCategories in display order.
var AllCategories = []GeneCategory{CategoryCore, CategorySoftcore, CategoryShell, CategoryCloud}

type GeneDistribution struct {
	TotalGenes     int     `json:"total_genes"`
	CoreGenes      int     `json:"core_genes"`
	SoftcoreGenes  int     `json:"softcore_genes"`
	ShellGenes     int     `json:"shell_genes"`
	CloudGenes     int     `json:"cloud_genes"`
	GenesPerGenome float64 `json:"genes_per_genome"`
}

// Count returns the number of genes in category c.
func (d *GeneDistribution) Count(c GeneCategory) int {
	switch c {
	case CategoryCore:
		return d.CoreGenes
	case CategorySoftcore:
		return d.SoftcoreGenes
	case CategoryShell:
		return d.ShellGenes
	case CategoryCloud:
		return d.CloudGenes
	}
	return 0
}

// Percent returns the share of category c in the whole pan-genome, 0-100.
func (d *GeneDistribution) Percent(c GeneCategory) float64 {
	if d.TotalGenes == 0 {
		return 0
	}
	return round2(100 * float64(d.Count(c)) / float64(d.TotalGenes))
}

type GeneFrequency struct {
	GeneID           string  `json:"gene_id"`
	PresentInGenomes int     `json:"present_in_genomes"`
	Percentage       float64 `json:"percentage"`
}

// A gene and the category it was classified into.
type CategorizedGene struct {
	GeneID           string       `json:"gene_id"`
	PresentInGenomes int          `json:"present_in_genomes"`
	Category         GeneCategory `json:"category"`
}

// One point of the gene accumulation curve.
type RarefactionPoint struct {
	Genomes   int     `json:"genomes"`
	MeanGenes float64 `json:"mean_genes"`
	StdDev    float64 `json:"std_dev"`
}
