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

package counts

import (
	"math"
	"testing"
)

func testMatrix() *Matrix {
	return &Matrix{
		Genes:   []string{"g1", "g2", "g3"},
		Samples: []string{"s1", "s2"},
		Counts: [][]float64{
			{10, 20},
			{0, 5},
			{90, 75},
		},
	}
}

func TestLibrarySizes(t *testing.T) {
	sizes := testMatrix().LibrarySizes()
	if len(sizes) != 2 || sizes[0] != 100 || sizes[1] != 100 {
		t.Error("LibrarySizes failed: ", sizes)
	}
}

func TestCPM(t *testing.T) {
	cpm := testMatrix().CPM()
	if cpm[0][0] != 1e5 || cpm[0][1] != 2e5 {
		t.Error("CPM 1 failed: ", cpm[0])
	}
	if cpm[1][0] != 0 || cpm[1][1] != 5e4 {
		t.Error("CPM 2 failed: ", cpm[1])
	}
}

func TestLogCPM(t *testing.T) {
	logCPM := testMatrix().LogCPM(1)
	if math.Abs(logCPM[0][0]-math.Log2(1e5+1)) > 1e-12 {
		t.Error("LogCPM failed: ", logCPM[0][0])
	}
	if logCPM[1][0] != 0 {
		t.Error("LogCPM of zero count with pseudocount 1 should be 0, got ", logCPM[1][0])
	}
}

func TestFilterLowCounts(t *testing.T) {
	m := testMatrix()
	filtered := m.FilterLowCounts(10, 2)
	if len(filtered.Genes) != 2 || filtered.Genes[0] != "g1" || filtered.Genes[1] != "g3" {
		t.Error("FilterLowCounts failed: ", filtered.Genes)
	}
	if len(m.Genes) != 3 {
		t.Error("FilterLowCounts modified its input")
	}
	all := m.FilterLowCounts(0, 0)
	if len(all.Genes) != 3 {
		t.Error("FilterLowCounts with zero thresholds failed")
	}
}

func TestSelectSamples(t *testing.T) {
	selected := testMatrix().SelectSamples([]string{"s2", "s1"})
	if selected.Samples[0] != "s2" || selected.Samples[1] != "s1" {
		t.Error("SelectSamples order failed: ", selected.Samples)
	}
	if selected.Counts[0][0] != 20 || selected.Counts[0][1] != 10 {
		t.Error("SelectSamples counts failed: ", selected.Counts[0])
	}
}

func TestSampleSheet(t *testing.T) {
	sheet := &SampleSheet{
		Samples:    []string{"s1", "s2", "s3", "s4"},
		Conditions: []string{"control", "treated", "control", "treated"},
	}
	if condition, ok := sheet.Condition("s3"); !ok || condition != "control" {
		t.Error("Condition failed")
	}
	if _, ok := sheet.Condition("nope"); ok {
		t.Error("Condition for unknown sample should fail")
	}
	names := sheet.ConditionNames()
	if len(names) != 2 || names[0] != "control" || names[1] != "treated" {
		t.Error("ConditionNames failed: ", names)
	}
	treated := sheet.SamplesFor("treated")
	if len(treated) != 2 || treated[0] != "s2" || treated[1] != "s4" {
		t.Error("SamplesFor failed: ", treated)
	}
}

func TestSampleName(t *testing.T) {
	if SampleName("/data/SRR123.counts.txt") != "SRR123" {
		t.Error("SampleName 1 failed")
	}
	if SampleName("jurkat_rep1.tsv") != "jurkat_rep1" {
		t.Error("SampleName 2 failed")
	}
}
