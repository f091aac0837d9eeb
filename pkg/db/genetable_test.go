package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/yumyai/roaryviz/pkg/model"
)

const schema = `
CREATE TABLE genome_info (genome_id TEXT PRIMARY KEY, genome_fullname TEXT);
CREATE TABLE gene_clusters (cluster_id TEXT PRIMARY KEY, cog_id TEXT, representative_gene TEXT,
	expected_length INTEGER, function_description TEXT);
CREATE TABLE gene_matches (cluster_id TEXT, genome_id TEXT, contig_id TEXT, gene_id TEXT);
CREATE TABLE region_matches (cluster_id TEXT, genome_id TEXT, contig_id TEXT,
	start_location INTEGER, end_location INTEGER);

INSERT INTO genome_info VALUES ('MCC17', 'Pythium MCC17'), ('KCB09', 'Pythium KCB09'), ('P45BR', NULL);
INSERT INTO gene_clusters (cluster_id) VALUES ('c2'), ('c3');
INSERT INTO gene_clusters VALUES ('c1', 'COG0459', 'KCB09_00001', 1644, 'chaperonin GroEL');
INSERT INTO gene_matches VALUES
	('c1', 'KCB09', 'contig1', 'KCB09_00001'),
	('c1', 'KCB09', 'contig1', 'KCB09_00002'),
	('c1', 'MCC17', 'contig4', 'MCC17_00010'),
	('c2', 'P45BR', 'contig2', 'P45BR_00003'),
	('c9', 'P45BR', 'contig2', 'P45BR_00004'),
	('c2', 'XXXXX', 'contig2', 'XXXXX_00004');
INSERT INTO region_matches VALUES ('c3', 'MCC17', 'contig7', 100, 400);
`

func newTestTable(t *testing.T) *GeneTable {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gene_table.db")
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := sqldb.Exec(schema); err != nil {
		t.Fatalf("schema: %v", err)
	}
	sqldb.Close()

	gt, err := OpenGeneTable(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenGeneTable: %v", err)
	}
	t.Cleanup(func() { gt.Close() })
	return gt
}

func TestLoadPresenceAbsence(t *testing.T) {
	gt := newTestTable(t)

	tests := []struct {
		name           string
		includeRegions bool
		want           [][]uint8
	}{
		{"genes only", false, [][]uint8{{1, 1, 0}, {0, 0, 1}, {0, 0, 0}}},
		{"with regions", true, [][]uint8{{1, 1, 0}, {0, 0, 1}, {0, 1, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := gt.LoadPresenceAbsence(context.Background(), tt.includeRegions)
			if err != nil {
				t.Fatalf("LoadPresenceAbsence: %v", err)
			}

			if got := m.GeneIDs(); !reflect.DeepEqual(got, []string{"c1", "c2", "c3"}) {
				t.Errorf("gene ids = %v", got)
			}
			if got := m.GenomeIDs(); !reflect.DeepEqual(got, []string{"KCB09", "MCC17", "P45BR"}) {
				t.Errorf("genome ids = %v", got)
			}
			for i, want := range tt.want {
				if got := m.Row(i); !reflect.DeepEqual(got, want) {
					t.Errorf("row %d = %v, want %v", i, got, want)
				}
			}
		})
	}
}

func TestGenomeNames(t *testing.T) {
	gt := newTestTable(t)

	names, err := gt.GenomeNames(context.Background())
	if err != nil {
		t.Fatalf("GenomeNames: %v", err)
	}

	want := map[string]string{"KCB09": "Pythium KCB09", "MCC17": "Pythium MCC17", "P45BR": ""}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("GenomeNames() = %v, want %v", names, want)
	}
}

func TestOpenGeneTable_Schema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.db")
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sqldb.Exec(`CREATE TABLE genome_info (genome_id TEXT)`); err != nil {
		t.Fatal(err)
	}
	sqldb.Close()

	_, err = OpenGeneTable(context.Background(), path)
	if !errors.Is(err, ErrSchema) {
		t.Errorf("expected ErrSchema, got %v", err)
	}
}

func TestCluster(t *testing.T) {
	gt := newTestTable(t)
	ctx := context.Background()

	c, err := gt.Cluster(ctx, "c1")
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if c.CogID != "COG0459" || c.ExpectedLength != 1644 || c.FunctionDescription != "chaperonin GroEL" {
		t.Errorf("cluster properties = %+v", c)
	}
	want := []model.ClusterMatch{
		{Kind: "gene", GenomeID: "KCB09", ContigID: "contig1", GeneID: "KCB09_00001"},
		{Kind: "gene", GenomeID: "KCB09", ContigID: "contig1", GeneID: "KCB09_00002"},
		{Kind: "gene", GenomeID: "MCC17", ContigID: "contig4", GeneID: "MCC17_00010"},
	}
	if !reflect.DeepEqual(c.Matches, want) {
		t.Errorf("matches = %+v", c.Matches)
	}

	c, err = gt.Cluster(ctx, "c3")
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if genes, regions := c.Counts(); genes != 0 || regions != 1 {
		t.Errorf("counts = %d genes, %d regions", genes, regions)
	}
	if r := c.Matches[0]; r.Start != 100 || r.End != 400 || r.ContigID != "contig7" {
		t.Errorf("region = %+v", r)
	}

	if _, err := gt.Cluster(ctx, "missing"); !errors.Is(err, ErrClusterNotFound) {
		t.Errorf("expected ErrClusterNotFound, got %v", err)
	}
}
