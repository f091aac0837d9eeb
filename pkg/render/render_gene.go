// Render HTML for viewing a single gene

package render

import (
	"html/template"
	"io"

	"github.com/yumyai/roaryviz/logger"
	"github.com/yumyai/roaryviz/pkg/model"
	"go.uber.org/zap"
)

var genePageTemplate *template.Template

type GenePageData struct {
	DatasetID   string
	DatasetName string
	Profile     *model.GeneProfile
	// Display names of genomes, when the source provides them.
	GenomeNames map[string]string
	// Only for gene table datasets.
	Cluster *model.ClusterInfo
}

func init() {
	mainTmpl := `
	<!DOCTYPE html>
	<html>
	<head>
		<title>Gene {{ .Profile.GeneID }} - Roary pan-genome viewer</title>
		{{ template "style" }}
	</head>
	<body>
		<p><a href="/dataset/{{ .DatasetID }}">&larr; {{ .DatasetName }}</a></p>
		<h1>Gene {{ .Profile.GeneID }}</h1>
		{{ template "gene_summary" . }}
		{{ template "gene_genomes" . }}
		{{ with .Cluster }}{{ template "cluster_info" . }}{{ end }}
	</body>
	</html>`

	geneSummaryTmpl := `
	{{ define "gene_summary" }}
		<p>
			Present in {{ .Profile.PresentInGenomes }} of {{ len .Profile.Genomes }} genomes
			(<span style="background: {{ frequencyColor .Profile.Percentage }}">{{ printf "%.2f" .Profile.Percentage }}%</span>),
			classified as <strong style="color: {{ categoryColor .Profile.Category }}">{{ .Profile.Category.Label }}</strong>.
		</p>
		{{ with .Profile.Absent }}<p>Missing from: {{ range $i, $g := . }}{{ if $i }}, {{ end }}{{ $g }}{{ end }}</p>{{ end }}
	{{ end }}`

	genomesTmpl := `
	{{ define "gene_genomes" }}
		<table>
			<tr><th>Genome</th><th>Name</th><th>Present</th></tr>
			{{ range .Profile.Genomes }}
			<tr>
				<td>{{ .GenomeID }}</td>
				<td>{{ index $.GenomeNames .GenomeID }}</td>
				<td style="background: {{ presenceColor $.Profile.Category .Present }}">{{ if .Present }}yes{{ else }}no{{ end }}</td>
			</tr>
			{{ end }}
		</table>
	{{ end }}`

	clusterInfoTmpl := `
	{{ define "cluster_info" }}
		<h2>Cluster {{ .ClusterID }}</h2>
		{{ $counts := clusterCounts . }}
		<p>{{ index $counts 0 }} gene members and {{ index $counts 1 }} homologous genomic regions.</p>
		{{ if .FunctionDescription }}<p>Function: {{ .FunctionDescription }}</p>{{ end }}
		{{ if .CogID }}<p>COG: {{ .CogID }}</p>{{ end }}
		{{ if .RepresentativeGene }}<p>Representative gene: {{ .RepresentativeGene }}{{ if .ExpectedLength }} ({{ .ExpectedLength }} bp){{ end }}</p>{{ end }}
		<table>
			<tr><th>Genome ID</th><th>Match</th><th>Contig ID</th><th>Start</th><th>Stop</th><th>Length (bp)</th></tr>
			{{ range .Matches }}
			<tr class="{{ .Kind }}">
				<td>{{ .GenomeID }}</td>
				{{ if eq .Kind "region" }}
					<td>Region - {{ .GenomeID }}|{{ .ContigID }}:{{ .Start }}-{{ .End }}</td>
				{{ else }}
					<td>{{ .GeneID }}</td>
				{{ end }}
				<td>{{ .ContigID }}</td>
				{{ if .End }}
					<td>{{ .Start }}</td>
					<td>{{ .End }}</td>
					<td>{{ regionLength .Start .End }}</td>
				{{ else }}
					<td>N/A</td>
					<td>N/A</td>
					<td>N/A</td>
				{{ end }}
			</tr>
			{{ end }}
		</table>
	{{ end }}`

	funcMap := template.FuncMap{
		"frequencyColor": calculateColorByFrequency,
		"categoryColor":  categoryColor,
		"presenceColor":  presenceColor,
		"regionLength":   regionLength,
		"clusterCounts": func(c *model.ClusterInfo) []int {
			genes, regions := c.Counts()
			return []int{genes, regions}
		},
	}

	genePageTemplate = template.New("gene_page").Funcs(funcMap)
	genePageTemplate = template.Must(genePageTemplate.Parse(mainTmpl))
	template.Must(genePageTemplate.Parse(geneSummaryTmpl))
	template.Must(genePageTemplate.Parse(genomesTmpl))
	template.Must(genePageTemplate.Parse(clusterInfoTmpl))
	template.Must(genePageTemplate.New("style").Parse(pageStyle))
}

// regionLength counts both ends, whichever strand the region is on.
func regionLength(start, end int) int {
	if end < start {
		start, end = end, start
	}
	return end - start + 1
}

func RenderGenePage(w io.Writer, data GenePageData) error {
	logger.Info("Rendering gene page", zap.String("dataset_id", data.DatasetID), zap.String("gene_id", data.Profile.GeneID))
	return genePageTemplate.ExecuteTemplate(w, "gene_page", data)
}
