// elDGE: a tool for differential gene expression and enrichment
// reports for RNA-seq count data.
// Copyright (c) 2022-2023 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/eldge/blob/master/LICENSE.txt>.

// Package report renders the analysis results as a single HTML
// document with tables, embedded SVG plots, and narrative text.
package report

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"os"
	"strings"

	"github.com/exascience/eldge/dge"
	"github.com/exascience/eldge/enrich"
	"github.com/exascience/eldge/gsea"
)

// SampleInfo summarizes one sample of the dataset.
type SampleInfo struct {
	Name        string
	Condition   string
	LibrarySize float64
}

// Plot is a named inline SVG figure.
type Plot struct {
	Title string
	SVG   template.HTML
}

// Data is everything that goes into the rendered report.
type Data struct {
	Title       string
	RunID       string
	Program     string
	CommandLine string
	Date        string

	Samples []SampleInfo
	Genes   int

	Contrast    string
	Alpha       float64
	MinLfc      float64
	TestedGenes int
	UpGenes     int
	DownGenes   int
	TopGenes    []dge.Result

	Enrichment []enrich.Result
	GSEA       []gsea.Result
	ShareLink  string

	Notes []string
	Plots []Plot
}

func formatNumber(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return fmt.Sprintf("%.3g", v)
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"num": formatNumber,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em auto; max-width: 70em; color: #222; }
h1, h2 { color: #204060; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { border: 1px solid #bbb; padding: 0.3em 0.6em; text-align: left; }
th { background: #eef2f6; }
p.meta { color: #666; font-size: 0.9em; }
figure { margin: 1em 0; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">{{.Program}}<br>
run {{.RunID}} on {{.Date}}<br>
{{.CommandLine}}</p>

{{range .Notes}}<p>{{.}}</p>
{{end}}

<h2>Dataset</h2>
<p>{{.Genes}} genes quantified over {{len .Samples}} samples.</p>
<table>
<tr><th>sample</th><th>condition</th><th>library size</th></tr>
{{range .Samples}}<tr><td>{{.Name}}</td><td>{{.Condition}}</td><td>{{printf "%.0f" .LibrarySize}}</td></tr>
{{end}}</table>

<h2>Differential expression</h2>
<p>Contrast {{.Contrast}}: {{.TestedGenes}} genes tested,
{{.UpGenes}} up- and {{.DownGenes}} downregulated at
padj &lt; {{num .Alpha}} and |log2 fold change| &ge; {{num .MinLfc}}.</p>
{{if .TopGenes}}<table>
<tr><th>gene</th><th>baseMean</th><th>log2FC</th><th>lfcSE</th><th>stat</th><th>p-value</th><th>padj</th><th>shrunken log2FC</th></tr>
{{range .TopGenes}}<tr><td>{{.Gene}}</td><td>{{num .BaseMean}}</td><td>{{num .Log2FC}}</td><td>{{num .LfcSE}}</td><td>{{num .Stat}}</td><td>{{num .PValue}}</td><td>{{num .PAdj}}</td><td>{{num .ShrunkenLFC}}</td></tr>
{{end}}</table>{{end}}

{{if .Enrichment}}<h2>Over-represented gene sets</h2>
<table>
<tr><th>set</th><th>overlap</th><th>set size</th><th>odds ratio</th><th>p-value</th><th>q-value</th></tr>
{{range .Enrichment}}<tr><td>{{.Set}}</td><td>{{.Overlap}}/{{.ListSize}}</td><td>{{.SetSize}}</td><td>{{num .OddsRatio}}</td><td>{{num .PValue}}</td><td>{{num .QValue}}</td></tr>
{{end}}</table>{{end}}

{{if .GSEA}}<h2>Gene set enrichment analysis</h2>
<table>
<tr><th>set</th><th>size</th><th>ES</th><th>NES</th><th>p-value</th><th>q-value</th></tr>
{{range .GSEA}}<tr><td>{{.Set}}</td><td>{{.Size}}</td><td>{{num .ES}}</td><td>{{num .NES}}</td><td>{{num .PValue}}</td><td>{{num .QValue}}</td></tr>
{{end}}</table>{{end}}

{{if .ShareLink}}<p>Interactive enrichment results:
<a href="{{.ShareLink}}">{{.ShareLink}}</a></p>{{end}}

{{range .Plots}}<figure>
<h2>{{.Title}}</h2>
{{.SVG}}
</figure>
{{end}}
</body>
</html>
`))

// Render writes the report as HTML.
func Render(w io.Writer, data *Data) error {
	return reportTemplate.Execute(w, data)
}

// RenderFile writes the report to a file.
func RenderFile(filename string, data *Data) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		nerr := file.Close()
		if err == nil {
			err = nerr
		}
	}()
	return Render(file, data)
}

// LoadSVG reads an SVG file for inline embedding. The file must start
// with an svg or XML declaration.
func LoadSVG(filename string) (template.HTML, error) {
	payload, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	trimmed := strings.TrimSpace(string(payload))
	if !strings.HasPrefix(trimmed, "<svg") && !strings.HasPrefix(trimmed, "<?xml") {
		return "", fmt.Errorf("%v does not look like an SVG file", filename)
	}
	if i := strings.Index(trimmed, "<svg"); i > 0 {
		trimmed = trimmed[i:]
	}
	return template.HTML(trimmed), nil
}

// SummarizeDGE fills in the differential expression section of the
// report data from a result table.
func SummarizeDGE(data *Data, t *dge.Table, alpha, minLfc float64, top int) {
	data.Contrast = fmt.Sprintf("%v vs %v", t.Treatment, t.Reference)
	data.Alpha = alpha
	data.MinLfc = minLfc
	up, down := t.Significant(alpha, minLfc)
	data.UpGenes = len(up)
	data.DownGenes = len(down)
	for i := range t.Results {
		if !math.IsNaN(t.Results[i].PValue) {
			data.TestedGenes++
		}
	}
	if top > len(t.Results) {
		top = len(t.Results)
	}
	data.TopGenes = t.Results[:top]
}

// SummarizeEnrichment fills in the over-representation section.
func SummarizeEnrichment(data *Data, t *enrich.Table, top int) {
	if top > len(t.Results) {
		top = len(t.Results)
	}
	data.Enrichment = t.Results[:top]
}

// SummarizeGSEA fills in the GSEA section.
func SummarizeGSEA(data *Data, t *gsea.Table, top int) {
	if top > len(t.Results) {
		top = len(t.Results)
	}
	data.GSEA = t.Results[:top]
}
