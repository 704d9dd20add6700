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

// Package render draws the diagnostic and summary plots of the
// analysis as SVG files.
package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/exascience/eldge/counts"
	"github.com/exascience/eldge/dge"
	"github.com/exascience/eldge/enrich"
)

var (
	grey   = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	red    = color.RGBA{R: 200, G: 40, B: 40, A: 255}
	blue   = color.RGBA{R: 40, G: 80, B: 200, A: 255}
	orange = color.RGBA{R: 230, G: 140, B: 0, A: 255}
)

// conditionPalette colors the sample conditions in the PCA plot.
var conditionPalette = []color.RGBA{blue, red, orange,
	{R: 60, G: 160, B: 90, A: 255},
	{R: 150, G: 60, B: 170, A: 255},
	{R: 90, G: 90, B: 90, A: 255},
}

func newScatter(xys plotter.XYs, c color.RGBA, radius vg.Length) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = radius
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	return s, nil
}

// MAPlot draws mean expression against log2 fold change, with the
// genes significant at the given alpha highlighted.
func MAPlot(t *dge.Table, alpha float64, filename string) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = fmt.Sprintf("MA plot: %v vs %v", t.Treatment, t.Reference)
	p.X.Label.Text = "log10 mean of normalized counts"
	p.Y.Label.Text = "log2 fold change"

	var plain, significant plotter.XYs
	for i := range t.Results {
		r := &t.Results[i]
		if math.IsNaN(r.Log2FC) || r.BaseMean <= 0 {
			continue
		}
		point := plotter.XY{X: math.Log10(r.BaseMean), Y: r.Log2FC}
		if !math.IsNaN(r.PAdj) && r.PAdj < alpha {
			significant = append(significant, point)
		} else {
			plain = append(plain, point)
		}
	}
	background, err := newScatter(plain, grey, vg.Points(1))
	if err != nil {
		return err
	}
	highlight, err := newScatter(significant, red, vg.Points(1.5))
	if err != nil {
		return err
	}
	p.Add(background, highlight)
	p.Legend.Add(fmt.Sprintf("padj < %g", alpha), highlight)
	p.Legend.Top = true
	return p.Save(6*vg.Inch, 4*vg.Inch, filename)
}

// VolcanoPlot draws log2 fold change against -log10 p-value, with the
// genes beyond the significance and fold change thresholds
// highlighted.
func VolcanoPlot(t *dge.Table, alpha, minLfc float64, filename string) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = fmt.Sprintf("Volcano plot: %v vs %v", t.Treatment, t.Reference)
	p.X.Label.Text = "log2 fold change"
	p.Y.Label.Text = "-log10 p-value"

	var plain, up, down plotter.XYs
	for i := range t.Results {
		r := &t.Results[i]
		if math.IsNaN(r.Log2FC) || math.IsNaN(r.PValue) {
			continue
		}
		pvalue := math.Max(r.PValue, 1e-300)
		point := plotter.XY{X: r.Log2FC, Y: -math.Log10(pvalue)}
		switch {
		case math.IsNaN(r.PAdj) || r.PAdj >= alpha || math.Abs(r.Log2FC) < minLfc:
			plain = append(plain, point)
		case r.Log2FC > 0:
			up = append(up, point)
		default:
			down = append(down, point)
		}
	}
	background, err := newScatter(plain, grey, vg.Points(1))
	if err != nil {
		return err
	}
	upScatter, err := newScatter(up, red, vg.Points(1.5))
	if err != nil {
		return err
	}
	downScatter, err := newScatter(down, blue, vg.Points(1.5))
	if err != nil {
		return err
	}
	p.Add(background, upScatter, downScatter)
	p.Legend.Add("up", upScatter)
	p.Legend.Add("down", downScatter)
	p.Legend.Top = true
	return p.Save(6*vg.Inch, 4*vg.Inch, filename)
}

// PCAPlot draws the samples on the first two principal components of
// the log2 CPM matrix, colored by condition.
func PCAPlot(m *counts.Matrix, sheet *counts.SampleSheet, filename string) error {
	nsamples := len(m.Samples)
	ngenes := len(m.Genes)
	if nsamples < 2 || ngenes < 2 {
		return fmt.Errorf("pca plot needs at least 2 samples and 2 genes, got %v samples and %v genes", nsamples, ngenes)
	}

	logCPM := m.LogCPM(1)
	data := mat.NewDense(nsamples, ngenes, nil)
	for i := 0; i < ngenes; i++ {
		for j := 0; j < nsamples; j++ {
			data.Set(j, i, logCPM[i][j])
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return fmt.Errorf("principal component decomposition failed")
	}
	var vectors mat.Dense
	pc.VectorsTo(&vectors)
	variances := pc.VarsTo(nil)
	totalVariance := 0.0
	for _, v := range variances {
		totalVariance += v
	}

	// center the data and project onto the first two components
	for i := 0; i < ngenes; i++ {
		column := mat.Col(nil, i, data)
		mean := stat.Mean(column, nil)
		for j := range column {
			data.Set(j, i, column[j]-mean)
		}
	}
	var projected mat.Dense
	projected.Mul(data, vectors.Slice(0, ngenes, 0, 2))

	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "PCA of log2 CPM"
	p.X.Label.Text = fmt.Sprintf("PC1 (%.1f%%)", variances[0]/totalVariance*100)
	p.Y.Label.Text = fmt.Sprintf("PC2 (%.1f%%)", variances[1]/totalVariance*100)

	conditions := sheet.ConditionNames()
	for c, condition := range conditions {
		var xys plotter.XYs
		for j, sample := range m.Samples {
			if sampleCondition, ok := sheet.Condition(sample); ok && sampleCondition == condition {
				xys = append(xys, plotter.XY{X: projected.At(j, 0), Y: projected.At(j, 1)})
			}
		}
		scatter, err := newScatter(xys, conditionPalette[c%len(conditionPalette)], vg.Points(3))
		if err != nil {
			return err
		}
		p.Add(scatter)
		p.Legend.Add(condition, scatter)
	}
	p.Legend.Top = true
	return p.Save(5*vg.Inch, 4*vg.Inch, filename)
}

// DispersionPlot draws the gene-wise dispersion estimates, the fitted
// trend, and the final estimates against the mean of normalized
// counts, on log10 axes.
func DispersionPlot(d *dge.Dispersions, filename string) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "Dispersion estimates"
	p.X.Label.Text = "log10 mean of normalized counts"
	p.Y.Label.Text = "log10 dispersion"

	var geneWise, final plotter.XYs
	var trend plotter.XYs
	for i, mean := range d.BaseMeans {
		if mean <= 0 {
			continue
		}
		x := math.Log10(mean)
		if !math.IsNaN(d.GeneWise[i]) {
			geneWise = append(geneWise, plotter.XY{X: x, Y: math.Log10(d.GeneWise[i])})
		}
		if !math.IsNaN(d.Final[i]) {
			final = append(final, plotter.XY{X: x, Y: math.Log10(d.Final[i])})
		}
		if !math.IsNaN(d.Trend[i]) {
			trend = append(trend, plotter.XY{X: x, Y: math.Log10(d.Trend[i])})
		}
	}
	geneWiseScatter, err := newScatter(geneWise, grey, vg.Points(1))
	if err != nil {
		return err
	}
	finalScatter, err := newScatter(final, blue, vg.Points(1))
	if err != nil {
		return err
	}
	trendScatter, err := newScatter(trend, red, vg.Points(1))
	if err != nil {
		return err
	}
	p.Add(geneWiseScatter, finalScatter, trendScatter)
	p.Legend.Add("gene-wise", geneWiseScatter)
	p.Legend.Add("final", finalScatter)
	p.Legend.Add("trend", trendScatter)
	p.Legend.Top = true
	return p.Save(6*vg.Inch, 4*vg.Inch, filename)
}

// EnrichmentPlot draws the top sets of an enrichment table as a
// horizontal bar chart of -log10 q-values.
func EnrichmentPlot(t *enrich.Table, top int, filename string) error {
	if top > len(t.Results) {
		top = len(t.Results)
	}
	if top == 0 {
		return fmt.Errorf("enrichment plot: empty table")
	}

	values := make(plotter.Values, top)
	names := make([]string, top)
	// reversed so the most significant set draws at the top
	for i := 0; i < top; i++ {
		r := &t.Results[top-1-i]
		q := math.Max(r.QValue, 1e-300)
		values[i] = -math.Log10(q)
		names[i] = r.Set
	}

	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "Top enriched gene sets"
	p.X.Label.Text = "-log10 q-value"

	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return err
	}
	bars.Horizontal = true
	bars.Color = blue
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(names...)
	return p.Save(7*vg.Inch, 4.5*vg.Inch, filename)
}
