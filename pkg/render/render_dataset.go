package render

import (
	"html/template"
	"io"

	"github.com/yumyai/roaryviz/logger"
	"github.com/yumyai/roaryviz/pkg/model"
	"github.com/yumyai/roaryviz/pkg/roary"
	"go.uber.org/zap"
)

var datasetPageTemplate *template.Template

type CategorySlice struct {
	Category string  `json:"category"`
	Label    string  `json:"label"`
	Count    int     `json:"count"`
	Percent  float64 `json:"percent"`
	Color    string  `json:"color"`
}

// ChartData is embedded in the page as JSON for client side charts.
type ChartData struct {
	Categories []CategorySlice `json:"categories"`
	// Histogram[f] is the number of genes present in exactly f genomes.
	Histogram []int `json:"histogram"`
}

func NewChartData(dist *model.GeneDistribution, histogram []int) ChartData {
	c := ChartData{Histogram: histogram}
	for _, cat := range model.AllCategories {
		c.Categories = append(c.Categories, CategorySlice{
			Category: cat.String(),
			Label:    cat.Label(),
			Count:    dist.Count(cat),
			Percent:  dist.Percent(cat),
			Color:    categoryColor(cat),
		})
	}
	return c
}

type DatasetPageData struct {
	ID            string
	Name          string
	Source        string
	Files         []string
	NumGenes      int
	NumGenomes    int
	TotalPresence int

	Thresholds   model.Thresholds
	Distribution *model.GeneDistribution
	Summary      []roary.SummaryRow
	Chart        ChartData

	Pattern        string
	Patterns       []string
	Frequencies    []model.GeneFrequency
	FrequencyTotal int

	Preview Preview

	DefaultPermutations int
	MaxPermutations     int
}

func init() {
	mainTmpl := `
	<!DOCTYPE html>
	<html>
	<head>
		<title>{{ .Name }} - Roary pan-genome viewer</title>
		{{ template "style" }}
		<script>
		const chartData = {{ .Chart }};
		</script>
	</head>
	<body>
		<p><a href="/">&larr; Upload</a></p>
		<h1>{{ .Name }}</h1>
		{{ template "info" . }}
		{{ template "distribution" . }}
		{{ if .Summary }}{{ template "summary" . }}{{ end }}
		{{ template "rarefaction" . }}
		{{ template "frequencies" . }}
		{{ template "preview" .Preview }}
	</body>
	</html>`

	infoTmpl := `{{ define "info" }}
		<table>
			<tr><th>Dataset</th><td>{{ .ID }}</td></tr>
			<tr><th>Source</th><td>{{ .Source }}</td></tr>
			{{ range .Files }}<tr><th>File</th><td>{{ . }}</td></tr>{{ end }}
			<tr><th>Genes</th><td>{{ .NumGenes }}</td></tr>
			<tr><th>Genomes</th><td>{{ .NumGenomes }}</td></tr>
			<tr><th>Presence calls</th><td>{{ .TotalPresence }}</td></tr>
		</table>
	{{ end }}`

	distributionTmpl := `{{ define "distribution" }}
		<h2>Gene distribution</h2>
		<form method="get">
			<label>Core &ge; <input name="core" size="4" value="{{ .Thresholds.Core }}"></label>
			<label>Soft-core &ge; <input name="softcore" size="4" value="{{ .Thresholds.Softcore }}"></label>
			<label>Shell &ge; <input name="shell" size="4" value="{{ .Thresholds.Shell }}"></label>
			<input type="hidden" name="pattern" value="{{ .Pattern }}">
			<button type="submit">Reclassify</button>
		</form>
		<table>
			<tr><th>Category</th><th>Genes</th><th>%</th></tr>
			{{ range .Chart.Categories }}
			<tr>
				<td><span class="pill" style="background: {{ .Color }}">{{ .Label }}</span></td>
				<td>{{ .Count }}</td>
				<td>{{ printf "%.2f" .Percent }}</td>
			</tr>
			{{ end }}
			<tr><th>Total</th><th>{{ .Distribution.TotalGenes }}</th><th></th></tr>
		</table>
		<p>Mean genes per genome: {{ printf "%.2f" .Distribution.GenesPerGenome }}</p>
	{{ end }}`

	summaryTmpl := `{{ define "summary" }}
		<h2>Roary summary statistics</h2>
		<table>
			{{ range .Summary }}
			<tr><td>{{ .Category }}</td><td>{{ .Range }}</td><td>{{ .Count }}</td></tr>
			{{ end }}
		</table>
	{{ end }}`

	rarefactionTmpl := `{{ define "rarefaction" }}
		<h2>Rarefaction</h2>
		<form action="/dataset/{{ .ID }}/rarefaction" method="post">
			<label>Permutations <input name="permutations" size="5" value="{{ .DefaultPermutations }}"></label>
			<label>Seed <input name="seed" size="8" placeholder="random"></label>
			<button type="submit">Compute curve</button>
			<small>at most {{ .MaxPermutations }} permutations</small>
		</form>
	{{ end }}`

	frequenciesTmpl := `{{ define "frequencies" }}
		<h2>Gene frequencies</h2>
		<p>
		{{ $pattern := .Pattern }}{{ $t := .Thresholds }}
		{{ range .Patterns }}
			{{ if eq . $pattern }}<strong>{{ . }}</strong>
			{{ else }}<a href="?pattern={{ . }}&core={{ $t.Core }}&softcore={{ $t.Softcore }}&shell={{ $t.Shell }}">{{ . }}</a>{{ end }}
		{{ end }}
		</p>
		<p>{{ .FrequencyTotal }} genes match{{ if lt (len .Frequencies) .FrequencyTotal }}, first {{ len .Frequencies }} shown{{ end }}.</p>
		<table>
			<tr><th>Gene</th><th>Genomes</th><th>%</th></tr>
			{{ range .Frequencies }}
			<tr>
				<td><a href="/dataset/{{ $.ID }}/gene/{{ .GeneID }}">{{ .GeneID }}</a></td>
				<td>{{ .PresentInGenomes }}</td>
				<td style="background: {{ frequencyColor .Percentage }}">{{ printf "%.2f" .Percentage }}</td>
			</tr>
			{{ end }}
		</table>
	{{ end }}`

	previewTmpl := `{{ define "preview" }}
		<h2>Presence / absence</h2>
		{{ if lt .Shown .Total }}<p>{{ .Shown }} of {{ .Total }} genes, evenly sampled.</p>{{ end }}
		<table>
			<tr><th>Gene</th>{{ range .GenomeIDs }}<th>{{ . }}</th>{{ end }}</tr>
			{{ range .Rows }}
			<tr>
				<td title="{{ .Category.Label }}, {{ .Present }} genomes">{{ .GeneID }}</td>
				{{ range .Cells }}<td class="cell" style="background: {{ .Color }}"></td>{{ end }}
			</tr>
			{{ end }}
		</table>
	{{ end }}`

	funcMap := template.FuncMap{
		"frequencyColor": calculateColorByFrequency,
	}

	datasetPageTemplate = template.New("dataset_page").Funcs(funcMap)
	datasetPageTemplate = template.Must(datasetPageTemplate.Parse(mainTmpl))
	datasetPageTemplate = template.Must(datasetPageTemplate.Parse(infoTmpl))
	datasetPageTemplate = template.Must(datasetPageTemplate.Parse(distributionTmpl))
	datasetPageTemplate = template.Must(datasetPageTemplate.Parse(summaryTmpl))
	datasetPageTemplate = template.Must(datasetPageTemplate.Parse(rarefactionTmpl))
	datasetPageTemplate = template.Must(datasetPageTemplate.Parse(frequenciesTmpl))
	datasetPageTemplate = template.Must(datasetPageTemplate.Parse(previewTmpl))
	template.Must(datasetPageTemplate.New("style").Parse(pageStyle))
}

// RenderDatasetPage renders the analysis page of one dataset.
func RenderDatasetPage(w io.Writer, data DatasetPageData) error {
	logger.Debug("Rendering dataset page", zap.String("dataset_id", data.ID), zap.Int("preview_rows", data.Preview.Shown))
	return datasetPageTemplate.ExecuteTemplate(w, "dataset_page", data)
}
