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

// Package dge implements two-group differential gene expression
// testing on read count matrices: median-of-ratios normalization,
// negative binomial dispersion estimation, Wald tests with
// Benjamini-Hochberg correction, and log fold change shrinkage. The
// statistical model follows the standard published methods for count
// based RNA-seq analysis.
package dge

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/exascience/eldge/counts"
)

// SizeFactors computes per-sample normalization factors with the
// median-of-ratios method: each sample's factor is the median ratio
// of its counts to the geometric mean pseudo-reference, over the
// genes with nonzero counts in all samples.
func SizeFactors(m *counts.Matrix) ([]float64, error) {
	nsamples := len(m.Samples)
	if nsamples == 0 {
		return nil, fmt.Errorf("size factors: count matrix has no samples")
	}

	// log geometric means of the reference genes
	logMeans := make([]float64, 0, len(m.Genes))
	reference := make([][]float64, 0, len(m.Genes))
	for _, row := range m.Counts {
		logSum := 0.0
		usable := true
		for _, c := range row {
			if c <= 0 {
				usable = false
				break
			}
			logSum += math.Log(c)
		}
		if usable {
			logMeans = append(logMeans, logSum/float64(nsamples))
			reference = append(reference, row)
		}
	}
	if len(reference) == 0 {
		return nil, fmt.Errorf("size factors: no gene has nonzero counts in all samples")
	}

	factors := make([]float64, nsamples)
	ratios := make([]float64, len(reference))
	for j := range factors {
		for i, row := range reference {
			ratios[i] = math.Log(row[j]) - logMeans[i]
		}
		sort.Float64s(ratios)
		factors[j] = math.Exp(stat.Quantile(0.5, stat.Empirical, ratios, nil))
	}
	return factors, nil
}

// NormalizedCounts divides each sample column by its size factor.
func NormalizedCounts(m *counts.Matrix, sizeFactors []float64) [][]float64 {
	normalized := make([][]float64, len(m.Genes))
	for i, row := range m.Counts {
		out := make([]float64, len(row))
		for j, c := range row {
			out[j] = c / sizeFactors[j]
		}
		normalized[i] = out
	}
	return normalized
}
