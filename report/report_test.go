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

package report

import (
	"bytes"
	"html/template"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/eldge/dge"
	"github.com/exascience/eldge/enrich"
	"github.com/exascience/eldge/gsea"
)

func TestRender(t *testing.T) {
	data := &Data{
		Title:       "T-ALL vs reference",
		RunID:       "0f9c2d6a",
		Program:     "eldge 1.0.2",
		CommandLine: "eldge report /tmp/out",
		Date:        "2023-05-11",
		Samples: []SampleInfo{
			{Name: "T1", Condition: "T", LibrarySize: 1.2e7},
			{Name: "R1", Condition: "R", LibrarySize: 1.1e7},
		},
		Genes: 18000,
		Notes: []string{"First paragraph.", "Second paragraph."},
		Plots: []Plot{{Title: "MA plot", SVG: template.HTML(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)}},
		GSEA: []gsea.Result{
			{Set: "NOTCH_SIGNALING", Size: 42, ES: 0.7, NES: 2.1, PValue: 0.001, QValue: 0.004},
		},
		ShareLink: "https://maayanlab.cloud/Enrichr/enrich?dataset=abc123",
	}
	SummarizeDGE(data, &dge.Table{
		Reference: "R",
		Treatment: "T",
		Results: []dge.Result{
			{Gene: "NOTCH1", BaseMean: 250, Log2FC: 2, LfcSE: 0.15, Stat: 13.3, PValue: 1e-30, PAdj: 2e-30, ShrunkenLFC: 1.9},
			{Gene: "zero", BaseMean: 0, Log2FC: math.NaN(), LfcSE: math.NaN(), Stat: math.NaN(), PValue: math.NaN(), PAdj: math.NaN(), ShrunkenLFC: math.NaN()},
		},
	}, 0.05, 1, 20)
	SummarizeEnrichment(data, &enrich.Table{Results: []enrich.Result{
		{Set: "NOTCH_SIGNALING", Overlap: 12, SetSize: 42, ListSize: 80, UniverseSize: 18000, OddsRatio: 35, PValue: 1e-10, QValue: 4e-10},
	}}, 20)

	var rendered bytes.Buffer
	require.NoError(t, Render(&rendered, data))
	html := rendered.String()

	assert.Contains(t, html, "<title>T-ALL vs reference</title>")
	assert.Contains(t, html, "run 0f9c2d6a on 2023-05-11")
	assert.Contains(t, html, "18000 genes quantified over 2 samples")
	assert.Contains(t, html, "<td>T1</td><td>T</td>")
	assert.Contains(t, html, "Contrast T vs R: 1 genes tested")
	assert.Contains(t, html, "<td>NOTCH1</td>")
	assert.Contains(t, html, "<td>NA</td>", "untested genes should show NA")
	assert.Contains(t, html, "<td>12/80</td>")
	assert.Contains(t, html, "<td>NOTCH_SIGNALING</td>")
	assert.Contains(t, html, `<a href="https://maayanlab.cloud/Enrichr/enrich?dataset=abc123">`)
	assert.Contains(t, html, "<p>First paragraph.</p>")
	assert.Contains(t, html, `<svg xmlns="http://www.w3.org/2000/svg">`, "SVG plots should be embedded unescaped")
	assert.Contains(t, html, "<h2>MA plot</h2>")
}

func TestSummarizeDGE(t *testing.T) {
	data := new(Data)
	table := &dge.Table{
		Reference: "R",
		Treatment: "T",
		Results: []dge.Result{
			{Gene: "up", PAdj: 0.001, Log2FC: 2, ShrunkenLFC: 1.9, PValue: 0.0001},
			{Gene: "down", PAdj: 0.001, Log2FC: -2, ShrunkenLFC: -1.8, PValue: 0.0001},
			{Gene: "flat", PAdj: 0.9, Log2FC: 0.1, ShrunkenLFC: 0.05, PValue: 0.8},
		},
	}
	SummarizeDGE(data, table, 0.05, 1, 2)
	assert.Equal(t, "T vs R", data.Contrast)
	assert.Equal(t, 3, data.TestedGenes)
	assert.Equal(t, 1, data.UpGenes)
	assert.Equal(t, 1, data.DownGenes)
	assert.Len(t, data.TopGenes, 2)
}

func TestLoadSVG(t *testing.T) {
	directory := t.TempDir()

	filename := filepath.Join(directory, "plot.svg")
	require.NoError(t, os.WriteFile(filename, []byte("<?xml version=\"1.0\"?>\n<svg width=\"100\"></svg>"), 0666))
	svg, err := LoadSVG(filename)
	require.NoError(t, err)
	assert.True(t, len(svg) > 0 && string(svg)[:4] == "<svg", "XML declaration should be stripped")

	bad := filepath.Join(directory, "plot.txt")
	require.NoError(t, os.WriteFile(bad, []byte("just text"), 0666))
	_, err = LoadSVG(bad)
	require.Error(t, err)
}
