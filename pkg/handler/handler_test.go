package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yumyai/roaryviz/config"
	"github.com/yumyai/roaryviz/pkg/db"
	"github.com/yumyai/roaryviz/pkg/metrics"
	"github.com/yumyai/roaryviz/pkg/model"
	"go.uber.org/zap"
)

const rtab = "Gene\tA\tB\tC\n" +
	"g1\t1\t1\t1\n" +
	"g2\t1\t1\t0\n" +
	"g3\t0\t0\t1\n" +
	"g4\t0\t0\t0\n"

const summary = "Core genes\t(99% <= strains <= 100%)\t1\n" +
	"Total genes\t(0% <= strains <= 100%)\t4\n"

func newTestApp(t *testing.T, geneTable *db.GeneTable) (*AppContext, http.Handler) {
	t.Helper()

	v := config.New()
	v.Set("data.dir", t.TempDir())
	v.Set("upload.max_size", 1<<20)
	cfg, err := config.Load(v, "")
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	uploads, err := db.NewUploadStore(cfg.Data.UploadDir, true)
	if err != nil {
		t.Fatalf("uploads: %v", err)
	}

	app := NewAppContext(cfg, uploads, geneTable, metrics.New(), zap.NewNop())
	t.Cleanup(app.Close)
	return app, NewRouter(app)
}

type upload struct {
	name    string
	content string
}

func multipartRequest(t *testing.T, files ...upload) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		fw, err := mw.CreateFormFile("files", f.name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(f.content))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	return serve(h, httptest.NewRequest(http.MethodGet, target, nil))
}

// uploadDataset posts the test matrix and returns the new dataset id.
func uploadDataset(t *testing.T, h http.Handler) string {
	t.Helper()

	rr := serve(h, multipartRequest(t,
		upload{"gene_presence_absence.Rtab", rtab},
		upload{"summary_statistics.txt", summary},
	))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("upload status = %d, body = %s", rr.Code, rr.Body.String())
	}
	loc := rr.Header().Get("Location")
	if !strings.HasPrefix(loc, "/dataset/") {
		t.Fatalf("Location = %q", loc)
	}
	return strings.TrimPrefix(loc, "/dataset/")
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v (body %s)", err, rr.Body.String())
	}
}

func TestUploadAndDatasetPage(t *testing.T) {
	app, h := newTestApp(t, nil)
	id := uploadDataset(t, h)

	ds, err := app.Datasets.Get(id)
	if err != nil {
		t.Fatalf("dataset not stored: %v", err)
	}
	if ds.Matrix.NumGenes() != 4 || len(ds.Summary) != 2 {
		t.Errorf("dataset = %d genes, %d summary rows", ds.Matrix.NumGenes(), len(ds.Summary))
	}

	rr := get(h, "/dataset/"+id+"?pattern=rare")
	if rr.Code != http.StatusOK {
		t.Fatalf("page status = %d", rr.Code)
	}
	for _, want := range []string{"gene_presence_absence.Rtab", "Mean genes per genome: 1.50", "Total genes", "<strong>rare</strong>"} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Errorf("page misses %q", want)
		}
	}

	rr = get(h, "/")
	if !strings.Contains(rr.Body.String(), "/dataset/"+id) {
		t.Errorf("main page does not list the dataset")
	}
}

func TestUploadRejected(t *testing.T) {
	_, h := newTestApp(t, nil)

	tests := []struct {
		name   string
		files  []upload
		status int
		want   string
	}{
		{"unsupported extension", []upload{{"report.pdf", "x"}}, http.StatusBadRequest, "unsupported file type"},
		{"summary only", []upload{{"summary_statistics.txt", summary}}, http.StatusBadRequest, "gene_presence_absence"},
		{"bad matrix", []upload{{"gene_presence_absence.Rtab", "Gene\tA\ng1\t7\n"}}, http.StatusBadRequest, "is not 0 or 1"},
		{"too large", []upload{{"gene_presence_absence.csv", strings.Repeat("x", 2<<20)}}, http.StatusRequestEntityTooLarge, "larger than 1 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(h, multipartRequest(t, tt.files...))
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
			if !strings.Contains(rr.Body.String(), tt.want) {
				t.Errorf("body misses %q", tt.want)
			}
		})
	}
}

func TestUploadCleanupOnFailure(t *testing.T) {
	app, h := newTestApp(t, nil)

	serve(h, multipartRequest(t, upload{"summary_statistics.txt", summary}))

	entries, err := os.ReadDir(app.Uploads.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("failed upload left %d folders", len(entries))
	}
}

func TestDistributionAPI(t *testing.T) {
	_, h := newTestApp(t, nil)
	id := uploadDataset(t, h)

	rr := get(h, "/api/v1/datasets/"+id+"/distribution")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp DistributionResponse
	decode(t, rr, &resp)

	want := model.GeneDistribution{TotalGenes: 4, CoreGenes: 1, SoftcoreGenes: 0, ShellGenes: 2, CloudGenes: 1, GenesPerGenome: 1.5}
	if *resp.Result != want {
		t.Errorf("distribution = %+v, want %+v", *resp.Result, want)
	}

	// 2 of 3 genomes is core at 0.6.
	rr = get(h, "/api/v1/datasets/"+id+"/distribution?core=0.6&softcore=0.5&shell=0.1")
	decode(t, rr, &resp)
	if resp.Result.CoreGenes != 2 || resp.Thresholds.Core != 0.6 {
		t.Errorf("custom thresholds = %+v", resp)
	}
}

func TestAPIErrors(t *testing.T) {
	_, h := newTestApp(t, nil)
	id := uploadDataset(t, h)

	tests := []struct {
		target string
		status int
		kind   string
	}{
		{"/api/v1/datasets/nope/distribution", http.StatusNotFound, KindNotFound},
		{"/api/v1/datasets/" + id + "/distribution?core=0.1", http.StatusBadRequest, KindValidation},
		{"/api/v1/datasets/" + id + "/frequencies?pattern=often", http.StatusBadRequest, KindValidation},
		{"/api/v1/datasets/" + id + "/rarefaction?permutations=0", http.StatusBadRequest, KindValidation},
		{"/api/v1/datasets/" + id + "/rarefaction?permutations=100000", http.StatusBadRequest, KindValidation},
		{"/api/v1/jobs/unknown", http.StatusNotFound, KindNotFound},
	}

	for _, tt := range tests {
		rr := get(h, tt.target)
		if rr.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.target, rr.Code, tt.status)
			continue
		}
		var resp ErrorResponse
		decode(t, rr, &resp)
		if resp.Kind != tt.kind || resp.RequestID == "" {
			t.Errorf("%s: error = %+v", tt.target, resp)
		}
	}
}

func TestFrequenciesAndCategoriesAPI(t *testing.T) {
	_, h := newTestApp(t, nil)
	id := uploadDataset(t, h)

	var freqs FrequenciesResponse
	decode(t, get(h, "/api/v1/datasets/"+id+"/frequencies?pattern=common"), &freqs)
	if len(freqs.Genes) != 1 || freqs.Genes[0].GeneID != "g1" || freqs.Pattern != "common" {
		t.Errorf("common genes = %+v", freqs)
	}

	decode(t, get(h, "/api/v1/datasets/"+id+"/frequencies"), &freqs)
	if len(freqs.Genes) != 4 || freqs.Genes[1].Percentage != 66.67 {
		t.Errorf("all genes = %+v", freqs.Genes)
	}

	var cats struct {
		Genes []struct {
			GeneID   string `json:"gene_id"`
			Category string `json:"category"`
		} `json:"genes"`
	}
	decode(t, get(h, "/api/v1/datasets/"+id+"/categories"), &cats)
	if len(cats.Genes) != 4 || cats.Genes[0].Category != "core" || cats.Genes[3].Category != "cloud" {
		t.Errorf("categories = %+v", cats.Genes)
	}
}

func TestRarefactionAPI(t *testing.T) {
	_, h := newTestApp(t, nil)
	id := uploadDataset(t, h)

	var first, second RarefactionResponse
	decode(t, get(h, "/api/v1/datasets/"+id+"/rarefaction?permutations=20&seed=7"), &first)
	decode(t, get(h, "/api/v1/datasets/"+id+"/rarefaction?permutations=20&seed=7"), &second)

	if len(first.Points) != 3 {
		t.Fatalf("points = %+v", first.Points)
	}
	if first.Points[2].MeanGenes != 3 {
		t.Errorf("all genomes should see 3 genes, got %v", first.Points[2].MeanGenes)
	}
	for i := range first.Points {
		if first.Points[i] != second.Points[i] {
			t.Errorf("seeded curves differ at %d: %+v vs %+v", i, first.Points[i], second.Points[i])
		}
	}

	var unseeded RarefactionResponse
	decode(t, get(h, "/api/v1/datasets/"+id+"/rarefaction"), &unseeded)
	if unseeded.Permutations != 50 || len(unseeded.Points) != 3 {
		t.Errorf("default request = %+v", unseeded)
	}
}

func TestRarefactionJob(t *testing.T) {
	_, h := newTestApp(t, nil)
	id := uploadDataset(t, h)

	form := url.Values{"permutations": {"10"}, "seed": {"3"}}
	req := httptest.NewRequest(http.MethodPost, "/dataset/"+id+"/rarefaction", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := serve(h, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	jobID := strings.TrimPrefix(rr.Header().Get("Location"), "/jobs/")

	var job RarefactionJob
	deadline := time.Now().Add(5 * time.Second)
	for {
		decode(t, get(h, "/api/v1/jobs/"+jobID), &job)
		if job.Finished() || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if job.Status != JobCompleted || len(job.Points) != 3 || job.Done != 10 || job.Seed != 3 {
		t.Fatalf("job = %+v", job)
	}

	rr = get(h, "/jobs/"+jobID)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "completed") {
		t.Errorf("job page = %d %s", rr.Code, rr.Body.String())
	}
}

func TestDatasetNotFound(t *testing.T) {
	_, h := newTestApp(t, nil)

	for _, target := range []string{"/dataset/missing", "/jobs/missing", "/genetable"} {
		if rr := get(h, target); rr.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d", target, rr.Code)
		}
	}
}

func TestGeneTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gene_table.db")
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = sqldb.Exec(`
		CREATE TABLE genome_info (genome_id TEXT PRIMARY KEY, genome_fullname TEXT);
		CREATE TABLE gene_clusters (cluster_id TEXT PRIMARY KEY, cog_id TEXT, representative_gene TEXT,
			expected_length INTEGER, function_description TEXT);
		CREATE TABLE gene_matches (cluster_id TEXT, genome_id TEXT, contig_id TEXT, gene_id TEXT);
		CREATE TABLE region_matches (cluster_id TEXT, genome_id TEXT, contig_id TEXT,
			start_location INTEGER, end_location INTEGER);
		INSERT INTO genome_info VALUES ('A', 'Genome A'), ('B', 'Genome B');
		INSERT INTO gene_clusters (cluster_id, function_description) VALUES ('c1', 'chaperonin GroEL'), ('c2', NULL);
		INSERT INTO gene_matches VALUES ('c1', 'A', 'ctg1', 'A_001'), ('c1', 'B', 'ctg9', 'B_007');
		INSERT INTO region_matches VALUES ('c2', 'B', 'ctg3', 10, 90);
	`)
	sqldb.Close()
	if err != nil {
		t.Fatal(err)
	}

	gt, err := db.OpenGeneTable(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	defer gt.Close()

	app, h := newTestApp(t, gt)

	rr := get(h, "/genetable?regions=1")
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/dataset/"+GeneTableRegionsID {
		t.Fatalf("genetable = %d %s", rr.Code, rr.Header().Get("Location"))
	}

	var resp DistributionResponse
	decode(t, get(h, "/api/v1/datasets/"+GeneTableRegionsID+"/distribution"), &resp)
	if resp.Result.TotalGenes != 2 || resp.Result.CoreGenes != 1 || resp.Genomes != 2 {
		t.Errorf("distribution = %+v", resp.Result)
	}

	var gene GeneResponse
	decode(t, get(h, "/api/v1/datasets/"+GeneTableID+"/genes/c1"), &gene)
	if gene.Cluster == nil || len(gene.Cluster.Matches) != 2 || gene.Cluster.FunctionDescription != "chaperonin GroEL" {
		t.Errorf("cluster = %+v", gene.Cluster)
	}
	if rr := get(h, "/dataset/"+GeneTableRegionsID+"/gene/c2"); !strings.Contains(rr.Body.String(), "B|ctg3:10-90") {
		t.Errorf("gene page = %d %s", rr.Code, rr.Body.String())
	}

	// Expired gene table datasets are loaded again on demand.
	app.Datasets.Remove(GeneTableID)
	if rr := get(h, "/api/v1/datasets/"+GeneTableID+"/frequencies"); rr.Code != http.StatusOK {
		t.Errorf("reload status = %d", rr.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	_, h := newTestApp(t, nil)
	uploadDataset(t, h)

	var health HealthResponse
	decode(t, get(h, "/api/v1/health"), &health)
	if health.Health != "ok" || health.Datasets != 1 || health.GeneTable {
		t.Errorf("health = %+v", health)
	}

	get(h, "/dataset/missing")
	body := get(h, "/metrics").Body.String()
	for _, want := range []string{
		`roaryviz_http_requests_total{method="POST",route="POST /upload",status="303"} 1`,
		`roaryviz_errors_total{kind="not_found"} 1`,
		`roaryviz_upload_file_bytes_count{kind="gene_presence_absence"} 1`,
		"roaryviz_datasets 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics miss %s", want)
		}
	}
}

func TestDatasetEviction(t *testing.T) {
	app, h := newTestApp(t, nil)
	id := uploadDataset(t, h)

	if _, err := app.Uploads.Files(id); err != nil {
		t.Fatalf("upload missing: %v", err)
	}

	app.Datasets.Remove(id)

	if _, err := app.Uploads.Files(id); !errors.Is(err, db.ErrNoUpload) {
		t.Errorf("upload folder kept after eviction: %v", err)
	}
}

func TestJobManager(t *testing.T) {
	var transitions []string
	m := NewJobManager(func(from, to string) { transitions = append(transitions, from+">"+to) })
	defer m.Close()

	job := m.NewJob("ds", 5, 1)
	done := make(chan struct{})
	m.Start(job.ID, 0, func(ctx context.Context, progress func(int, int)) ([]model.RarefactionPoint, error) {
		defer close(done)
		panic("boom")
	})
	<-done
	m.Close()

	got, err := m.GetJob(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != JobFailed || got.Error != "Internal server error" {
		t.Errorf("job = %+v", got)
	}
	want := []string{">queued", "queued>running", "running>failed"}
	if strings.Join(transitions, ",") != strings.Join(want, ",") {
		t.Errorf("transitions = %v", transitions)
	}

	if n := m.Prune(time.Now().Add(time.Minute)); n != 1 {
		t.Errorf("Prune = %d", n)
	}
	if _, err := m.GetJob(job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("pruned job still found")
	}
}

func TestGeneEndpoints(t *testing.T) {
	_, h := newTestApp(t, nil)
	id := uploadDataset(t, h)

	var resp GeneResponse
	decode(t, get(h, "/api/v1/datasets/"+id+"/genes/g2"), &resp)
	if resp.Gene == nil || resp.Gene.PresentInGenomes != 2 || resp.Gene.Category != model.CategoryShell || resp.Cluster != nil {
		t.Fatalf("gene = %+v", resp)
	}
	if len(resp.Gene.Genomes) != 3 || resp.Gene.Genomes[2].Present {
		t.Errorf("genomes = %+v", resp.Gene.Genomes)
	}

	rr := get(h, "/dataset/"+id+"/gene/g2")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Missing from: C") {
		t.Errorf("gene page = %d %s", rr.Code, rr.Body.String())
	}

	if rr := get(h, "/api/v1/datasets/"+id+"/genes/nope"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown gene status = %d", rr.Code)
	}
	if rr := get(h, "/dataset/"+id+"/gene/g1?core=0.1"); rr.Code != http.StatusBadRequest {
		t.Errorf("bad thresholds status = %d", rr.Code)
	}
}
