package model

import "fmt"

// GeneIndex returns the row of geneID.
func (m *Matrix) GeneIndex(geneID string) (int, bool) {
	for i, id := range m.geneIDs {
		if id == geneID {
			return i, true
		}
	}
	return -1, false
}

type GenomePresence struct {
	GenomeID string `json:"genome_id"`
	Present  bool   `json:"present"`
}

// GeneProfile is one row of the matrix with its frequency and category.
type GeneProfile struct {
	GeneID           string           `json:"gene_id"`
	PresentInGenomes int              `json:"present_in_genomes"`
	Percentage       float64          `json:"percentage"`
	Category         GeneCategory     `json:"category"`
	Genomes          []GenomePresence `json:"genomes"`
}

// Absent lists the genomes missing the gene.
func (p *GeneProfile) Absent() []string {
	var out []string
	for _, g := range p.Genomes {
		if !g.Present {
			out = append(out, g.GenomeID)
		}
	}
	return out
}

func ProfileGene(m *Matrix, geneID string, t Thresholds) (*GeneProfile, error) {

	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := m.checkNotEmpty(); err != nil {
		return nil, err
	}

	i, ok := m.GeneIndex(geneID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrGeneNotFound, geneID)
	}

	n := m.NumGenomes()
	p := &GeneProfile{
		GeneID:           geneID,
		PresentInGenomes: m.freqs[i],
		Percentage:       round2(100 * float64(m.freqs[i]) / float64(n)),
		Category:         t.Categorize(m.freqs[i], n),
		Genomes:          make([]GenomePresence, n),
	}
	for j, id := range m.genomeIDs {
		p.Genomes[j] = GenomePresence{GenomeID: id, Present: m.Present(i, j)}
	}
	return p, nil
}

// ClusterInfo describes a gene cluster of a ggtable database and its members.
type ClusterInfo struct {
	ClusterID           string         `json:"cluster_id"`
	CogID               string         `json:"cog_id,omitempty"`
	RepresentativeGene  string         `json:"representative_gene,omitempty"`
	ExpectedLength      int            `json:"expected_length,omitempty"`
	FunctionDescription string         `json:"function_description,omitempty"`
	Matches             []ClusterMatch `json:"matches"`
}

// ClusterMatch is a gene ("gene") or an unannotated homologous region ("region")
// of a cluster.
type ClusterMatch struct {
	Kind     string `json:"kind"`
	GenomeID string `json:"genome_id"`
	ContigID string `json:"contig_id"`
	GeneID   string `json:"gene_id,omitempty"`
	Start    int    `json:"start,omitempty"`
	End      int    `json:"end,omitempty"`
}

// Counts returns the number of gene and region matches.
func (c *ClusterInfo) Counts() (genes, regions int) {
	for _, m := range c.Matches {
		if m.Kind == "region" {
			regions++
		} else {
			genes++
		}
	}
	return genes, regions
}
