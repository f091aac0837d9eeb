package render

import (
	"html/template"
	"io"

	"github.com/yumyai/roaryviz/logger"
	"github.com/yumyai/roaryviz/pkg/model"
	"go.uber.org/zap"
)

var jobPageTemplate *template.Template

// JobPageData describes the state of a rarefaction job for rendering.
type JobPageData struct {
	JobID                  string
	DatasetID              string
	DatasetName            string
	Permutations           int
	Seed                   int64
	Status                 string
	Done                   int
	Points                 []model.RarefactionPoint
	ErrorMessage           string
	ShouldRefresh          bool
	RefreshIntervalSeconds int
}

// init initializes the templates used for rendering the HTML page.
func init() {
	mainTmpl := `
	<!DOCTYPE html>
	<html>
	<head>
		<title>Rarefaction - Roary pan-genome viewer</title>
		{{ template "style" }}
		{{ if .ShouldRefresh }}
		<script>
			setTimeout(function () { window.location.reload(); }, {{ mul .RefreshIntervalSeconds 1000 }});
		</script>
		{{ end }}
		{{ if .Points }}
		<script>
		const curve = {{ .Points }};
		</script>
		{{ end }}
	</head>
	<body>
		<p><a href="/dataset/{{ .DatasetID }}">&larr; {{ .DatasetName }}</a></p>
		<h1>Rarefaction curve</h1>
		<p><strong>Job ID:</strong> {{ .JobID }}</p>
		<p><strong>Permutations:</strong> {{ .Permutations }} (seed {{ .Seed }})</p>
		<p><strong>Status:</strong> {{ .Status }}</p>
		{{ if .ErrorMessage }}
			<p class="error">{{ .ErrorMessage }}</p>
		{{ else if .Points }}
			<table>
				<tr><th>Genomes</th><th>Mean genes</th><th>Std. dev.</th></tr>
				{{ $n := len .Points }}
				{{ range $i, $p := .Points }}
				<tr>
					<td style="background: {{ curveColor $i $n }}">{{ $p.Genomes }}</td>
					<td>{{ printf "%.2f" $p.MeanGenes }}</td>
					<td>{{ printf "%.2f" $p.StdDev }}</td>
				</tr>
				{{ end }}
			</table>
		{{ else }}
			<p>{{ .Done }} of {{ .Permutations }} permutations done. This page refreshes every {{ .RefreshIntervalSeconds }} seconds.</p>
		{{ end }}
	</body>
	</html>`

	jobPageTemplate = template.New("job_page").Funcs(template.FuncMap{
		"mul":        func(a, b int) int { return a * b },
		"curveColor": curveColor,
	})
	jobPageTemplate = template.Must(jobPageTemplate.Parse(mainTmpl))
	template.Must(jobPageTemplate.New("style").Parse(pageStyle))
}

func RenderJobPage(w io.Writer, data JobPageData) error {
	logger.Info("Rendering job page", zap.String("job_id", data.JobID), zap.String("status", data.Status))
	return jobPageTemplate.ExecuteTemplate(w, "job_page", data)
}
