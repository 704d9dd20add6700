// elDGE: a tool for differential gene expression and enrichment
// reports for RNA-seq count data.
// Copyright (c) 2021-2023 imec vzw.

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

package dge

import (
	"math"
	"testing"

	"github.com/exascience/eldge/counts"
)

func waldTestData() (*counts.Matrix, *counts.SampleSheet, []float64, *Dispersions) {
	m := &counts.Matrix{
		Genes:   []string{"de", "flat", "zero"},
		Samples: []string{"s1", "s2", "s3", "s4", "s5", "s6"},
		Counts: [][]float64{
			{100, 100, 100, 400, 400, 400},
			{100, 100, 100, 100, 100, 100},
			{0, 0, 0, 0, 0, 0},
		},
	}
	sheet := &counts.SampleSheet{
		Samples:    []string{"s1", "s2", "s3", "s4", "s5", "s6"},
		Conditions: []string{"control", "control", "control", "treated", "treated", "treated"},
	}
	ones := []float64{1, 1, 1, 1, 1, 1}
	dispersions := &Dispersions{
		BaseMeans: []float64{250, 100, 0},
		Final:     []float64{0.01, 0.01, math.NaN()},
	}
	return m, sheet, ones, dispersions
}

func TestWaldTest(t *testing.T) {
	m, sheet, ones, dispersions := waldTestData()
	table, err := WaldTest(m, sheet, ones, dispersions, TestOptions{
		Reference: "control",
		Treatment: "treated",
	})
	if err != nil {
		t.Fatal(err)
	}
	if table.Reference != "control" || table.Treatment != "treated" {
		t.Error("contrast not recorded")
	}

	de := &table.Results[0]
	if math.Abs(de.Log2FC-math.Log2(400.5/100.5)) > 1e-9 {
		t.Error("fold change failed: ", de.Log2FC)
	}
	if de.PValue > 1e-6 {
		t.Error("clearly differential gene should have a tiny p-value, got ", de.PValue)
	}
	if de.Stat <= 0 {
		t.Error("upregulated gene should have a positive statistic")
	}

	flat := &table.Results[1]
	if math.Abs(flat.Log2FC) > 0.01 {
		t.Error("flat gene fold change should be near zero, got ", flat.Log2FC)
	}
	if flat.PValue < 0.5 {
		t.Error("flat gene should not be significant, got p ", flat.PValue)
	}

	zero := &table.Results[2]
	if !math.IsNaN(zero.PValue) || !math.IsNaN(zero.PAdj) {
		t.Error("all-zero gene should not be tested")
	}

	up, down := table.Significant(0.05, 1)
	if len(up) != 1 || up[0] != "de" || len(down) != 0 {
		t.Error("Significant failed: ", up, down)
	}

	genes, scores := table.RankedGenes()
	if len(genes) != 2 || genes[0] != "de" || genes[1] != "flat" {
		t.Error("RankedGenes failed: ", genes)
	}
	if scores[0] < scores[1] {
		t.Error("RankedGenes scores not decreasing")
	}
}

func TestWaldTestMissingReplicates(t *testing.T) {
	m, sheet, ones, dispersions := waldTestData()
	sheet.Conditions[1] = "other"
	sheet.Conditions[2] = "other"
	if _, err := WaldTest(m, sheet, ones, dispersions, TestOptions{
		Reference: "control",
		Treatment: "treated",
	}); err == nil {
		t.Error("WaldTest should require at least 2 replicates per condition")
	}
}

func TestAdjustBH(t *testing.T) {
	adjusted := AdjustBH([]float64{0.005, 0.1, 0.9})
	expected := []float64{0.015, 0.15, 0.9}
	for i := range expected {
		if math.Abs(adjusted[i]-expected[i]) > 1e-12 {
			t.Error("AdjustBH failed: ", adjusted)
		}
	}
}

func TestAdjustBHWithNaN(t *testing.T) {
	adjusted := AdjustBH([]float64{0.01, math.NaN(), 0.02})
	if math.Abs(adjusted[0]-0.02) > 1e-12 || math.Abs(adjusted[2]-0.02) > 1e-12 {
		t.Error("AdjustBH with NaN failed: ", adjusted)
	}
	if !math.IsNaN(adjusted[1]) {
		t.Error("AdjustBH should keep NaN entries NaN")
	}
}
