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

func TestSizeFactors(t *testing.T) {
	m := &counts.Matrix{
		Genes:   []string{"g1", "g2", "g3", "g4"},
		Samples: []string{"s1", "s2"},
		Counts: [][]float64{
			{10, 20},
			{30, 60},
			{50, 100},
			{0, 5}, // excluded from the reference
		},
	}
	factors, err := SizeFactors(m)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(factors[0]-1/math.Sqrt2) > 1e-12 {
		t.Error("SizeFactors 1 failed: ", factors[0])
	}
	if math.Abs(factors[1]-math.Sqrt2) > 1e-12 {
		t.Error("SizeFactors 2 failed: ", factors[1])
	}
	if math.Abs(factors[1]/factors[0]-2) > 1e-12 {
		t.Error("SizeFactors ratio failed: ", factors[1]/factors[0])
	}
}

func TestSizeFactorsNoReferenceGenes(t *testing.T) {
	m := &counts.Matrix{
		Genes:   []string{"g1", "g2"},
		Samples: []string{"s1", "s2"},
		Counts: [][]float64{
			{0, 20},
			{30, 0},
		},
	}
	if _, err := SizeFactors(m); err == nil {
		t.Error("SizeFactors should fail without reference genes")
	}
}

func TestNormalizedCounts(t *testing.T) {
	m := &counts.Matrix{
		Genes:   []string{"g1"},
		Samples: []string{"s1", "s2"},
		Counts:  [][]float64{{10, 20}},
	}
	normalized := NormalizedCounts(m, []float64{0.5, 2})
	if normalized[0][0] != 20 || normalized[0][1] != 10 {
		t.Error("NormalizedCounts failed: ", normalized[0])
	}
}
