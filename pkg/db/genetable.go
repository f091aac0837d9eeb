package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yumyai/roaryviz/pkg/model"

	_ "modernc.org/sqlite"
)

var ErrSchema = errors.New("gene table schema mismatch")

// Tables a ggtable database must provide.
var requiredTables = []string{"genome_info", "gene_clusters", "gene_matches", "region_matches"}

// GeneTable reads a ggtable sqlite database as a presence/absence matrix.
type GeneTable struct {
	db *sql.DB
}

func NewGeneTable(db *sql.DB) *GeneTable {
	return &GeneTable{db: db}
}

// OpenGeneTable opens the database at path and checks its schema.
func OpenGeneTable(ctx context.Context, path string) (*GeneTable, error) {

	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	gt := NewGeneTable(sqldb)
	if err := gt.CheckSchema(ctx); err != nil {
		sqldb.Close()
		return nil, err
	}
	return gt, nil
}

func (g *GeneTable) Close() error {
	return g.db.Close()
}

func (g *GeneTable) CheckSchema(ctx context.Context) error {

	rows, err := g.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return fmt.Errorf("CheckSchema: query failed: %w", err)
	}
	defer rows.Close()

	found := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("CheckSchema: scan failed: %w", err)
		}
		found[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, t := range requiredTables {
		if !found[t] {
			return fmt.Errorf("%w: missing table %s", ErrSchema, t)
		}
	}
	return nil
}

// GenomeNames maps genome ids to their full names.
func (g *GeneTable) GenomeNames(ctx context.Context) (map[string]string, error) {

	rows, err := g.db.QueryContext(ctx, `SELECT genome_id, genome_fullname FROM genome_info`)
	if err != nil {
		return nil, fmt.Errorf("GenomeNames: query failed: %w", err)
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var id string
		var fullname sql.NullString
		if err := rows.Scan(&id, &fullname); err != nil {
			return nil, fmt.Errorf("GenomeNames: scan failed: %w", err)
		}
		m[id] = fullname.String
	}
	return m, rows.Err()
}

func (g *GeneTable) queryColumn(ctx context.Context, query string) ([]string, error) {

	rows, err := g.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LoadPresenceAbsence builds the matrix: one row per gene cluster, one column per
// genome, a cell is 1 when the cluster has a gene match in the genome. With
// includeRegions, unannotated region matches count as well. Matches that point to
// unknown clusters or genomes are ignored.
func (g *GeneTable) LoadPresenceAbsence(ctx context.Context, includeRegions bool) (*model.Matrix, error) {

	genomes, err := g.queryColumn(ctx, `SELECT genome_id FROM genome_info ORDER BY genome_id`)
	if err != nil {
		return nil, fmt.Errorf("LoadPresenceAbsence: genomes: %w", err)
	}
	clusters, err := g.queryColumn(ctx, `SELECT cluster_id FROM gene_clusters ORDER BY cluster_id`)
	if err != nil {
		return nil, fmt.Errorf("LoadPresenceAbsence: clusters: %w", err)
	}

	genomeIdx := make(map[string]int, len(genomes))
	for j, id := range genomes {
		genomeIdx[id] = j
	}
	clusterIdx := make(map[string]int, len(clusters))
	for i, id := range clusters {
		clusterIdx[id] = i
	}

	cells := make([][]uint8, len(clusters))
	for i := range cells {
		cells[i] = make([]uint8, len(genomes))
	}

	qstring := `SELECT DISTINCT cluster_id, genome_id FROM gene_matches`
	if includeRegions {
		qstring += `
		UNION
		SELECT DISTINCT cluster_id, genome_id FROM region_matches`
	}

	rows, err := g.db.QueryContext(ctx, qstring)
	if err != nil {
		return nil, fmt.Errorf("LoadPresenceAbsence: matches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var clusterID, genomeID sql.NullString
		if err := rows.Scan(&clusterID, &genomeID); err != nil {
			return nil, fmt.Errorf("LoadPresenceAbsence: scan failed: %w", err)
		}
		i, ok := clusterIdx[clusterID.String]
		if !ok {
			continue
		}
		j, ok := genomeIdx[genomeID.String]
		if !ok {
			continue
		}
		cells[i][j] = 1
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return model.NewMatrix(clusters, genomes, cells)
}

var ErrClusterNotFound = errors.New("cluster not found")

// Cluster returns the properties of a gene cluster and every gene and region
// assigned to it, ordered by genome.
func (g *GeneTable) Cluster(ctx context.Context, clusterID string) (*model.ClusterInfo, error) {

	var (
		c                             = model.ClusterInfo{ClusterID: clusterID}
		cog, representative, function sql.NullString
		expected                      sql.NullInt64
	)

	err := g.db.QueryRowContext(ctx, `
		SELECT cog_id, representative_gene, expected_length, function_description
		FROM gene_clusters
		WHERE cluster_id = ?`, clusterID).Scan(&cog, &representative, &expected, &function)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrClusterNotFound, clusterID)
	}
	if err != nil {
		return nil, fmt.Errorf("Cluster: query failed: %w", err)
	}
	c.CogID = cog.String
	c.RepresentativeGene = representative.String
	c.ExpectedLength = int(expected.Int64)
	c.FunctionDescription = function.String

	rows, err := g.db.QueryContext(ctx, `
		SELECT 'gene' AS kind, genome_id, contig_id, gene_id, 0 AS start_location, 0 AS end_location
		FROM gene_matches
		WHERE cluster_id = ?
		UNION ALL
		SELECT 'region' AS kind, genome_id, contig_id, '' AS gene_id, start_location, end_location
		FROM region_matches
		WHERE cluster_id = ?
		ORDER BY genome_id, kind, gene_id, start_location`, clusterID, clusterID)
	if err != nil {
		return nil, fmt.Errorf("Cluster: matches: %w", err)
	}
	defer rows.Close()

	c.Matches = make([]model.ClusterMatch, 0, 16)
	for rows.Next() {
		var (
			m                    model.ClusterMatch
			genome, contig, gene sql.NullString
			start, end           sql.NullInt64
		)
		if err := rows.Scan(&m.Kind, &genome, &contig, &gene, &start, &end); err != nil {
			return nil, fmt.Errorf("Cluster: scan failed: %w", err)
		}
		m.GenomeID = genome.String
		m.ContigID = contig.String
		m.GeneID = gene.String
		m.Start = int(start.Int64)
		m.End = int(end.Int64)
		c.Matches = append(c.Matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &c, nil
}
