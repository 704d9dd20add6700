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
	"path/filepath"
	"testing"
)

func TestTableRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "results.tsv")
	table := &Table{
		Reference: "control",
		Treatment: "treated",
		Results: []Result{
			{Gene: "NOTCH1", BaseMean: 250, Log2FC: 2, LfcSE: 0.15, Stat: 13.3, PValue: 1e-30, PAdj: 2e-30, ShrunkenLFC: 1.9},
			{Gene: "zero", BaseMean: 0, Log2FC: math.NaN(), LfcSE: math.NaN(), Stat: math.NaN(), PValue: math.NaN(), PAdj: math.NaN(), ShrunkenLFC: math.NaN()},
		},
	}
	WriteTable(table, filename)
	parsed := ParseTable(filename)
	if parsed.Reference != "control" || parsed.Treatment != "treated" {
		t.Error("table round trip lost the contrast")
	}
	if len(parsed.Results) != 2 {
		t.Fatal("table round trip changed the number of results")
	}
	if parsed.Results[0].Gene != "NOTCH1" || parsed.Results[0].Log2FC != 2 {
		t.Error("table round trip changed values")
	}
	if !math.IsNaN(parsed.Results[1].PValue) {
		t.Error("table round trip should keep NA as NaN")
	}
}

func TestSortByPAdj(t *testing.T) {
	table := &Table{
		Results: []Result{
			{Gene: "c", PAdj: math.NaN()},
			{Gene: "b", PAdj: 0.2},
			{Gene: "a", PAdj: 0.01},
		},
	}
	table.SortByPAdj()
	if table.Results[0].Gene != "a" || table.Results[1].Gene != "b" || table.Results[2].Gene != "c" {
		t.Error("SortByPAdj failed: ", table.Results)
	}
}

func TestSignificantUsesShrunkenLFC(t *testing.T) {
	table := &Table{
		Results: []Result{
			{Gene: "shrunkaway", PAdj: 0.01, Log2FC: 1.5, ShrunkenLFC: 0.3},
			{Gene: "robust", PAdj: 0.01, Log2FC: -2, ShrunkenLFC: -1.8},
		},
	}
	up, down := table.Significant(0.05, 1)
	if len(up) != 0 {
		t.Error("gene with shrunken fold change below the cutoff should not be reported: ", up)
	}
	if len(down) != 1 || down[0] != "robust" {
		t.Error("Significant down failed: ", down)
	}
}
