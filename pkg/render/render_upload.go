package render

import (
	"html/template"
	"io"
	"time"
)

var uploadPageTemplate *template.Template

// DatasetLink is a dataset still held in memory.
type DatasetLink struct {
	ID         string
	Name       string
	NumGenes   int
	NumGenomes int
	CreatedAt  time.Time
}

type UploadPageData struct {
	ErrorMessage string
	MaxUploadMB  int64
	HasGeneTable bool
	Datasets     []DatasetLink
}

const pageStyle = `
	<style>
	body { font-family: sans-serif; margin: 2em; }
	table { border-collapse: collapse; }
	th, td { border: 1px solid #ddd; padding: 4px 8px; text-align: left; }
	td.cell { width: 10px; height: 10px; padding: 0; border: 1px solid #fff; }
	.error { color: red; }
	.pill { display: inline-block; padding: 2px 8px; border-radius: 8px; color: #fff; }
	pre { white-space: pre-wrap; word-wrap: break-word; }
	</style>`

func init() {
	mainTmpl := `
	<!DOCTYPE html>
	<html>
	<head>
		<title>Roary pan-genome viewer</title>
		{{ template "style" }}
	</head>
	<body>
		<h1>Roary pan-genome viewer</h1>
		{{ if .ErrorMessage }}<p class="error">{{ .ErrorMessage }}</p>{{ end }}
		<form action="/upload" method="post" enctype="multipart/form-data">
			<p>
				Upload <code>gene_presence_absence.csv</code> (or <code>.Rtab</code>),
				optionally with <code>summary_statistics.txt</code> and the accessory tree (<code>.newick</code>).
				Files may be gzipped. Up to {{ .MaxUploadMB }} MB.
			</p>
			<input type="file" name="files" multiple required>
			<button type="submit">Analyze</button>
		</form>
		{{ if .HasGeneTable }}
		<p>Or open the <a href="/genetable">gene table database</a>
			(<a href="/genetable?regions=1">including unannotated regions</a>).</p>
		{{ end }}
		{{ if .Datasets }}
		<h2>Recent datasets</h2>
		<table>
			<tr><th>Name</th><th>Genes</th><th>Genomes</th><th>Loaded</th></tr>
			{{ range .Datasets }}
			<tr>
				<td><a href="/dataset/{{ .ID }}">{{ .Name }}</a></td>
				<td>{{ .NumGenes }}</td>
				<td>{{ .NumGenomes }}</td>
				<td>{{ .CreatedAt.Format "Jan _2 15:04" }}</td>
			</tr>
			{{ end }}
		</table>
		{{ end }}
	</body>
	</html>`

	uploadPageTemplate = template.Must(template.New("upload_page").Parse(mainTmpl))
	template.Must(uploadPageTemplate.New("style").Parse(pageStyle))
}

func RenderUploadPage(w io.Writer, data UploadPageData) error {
	return uploadPageTemplate.ExecuteTemplate(w, "upload_page", data)
}
