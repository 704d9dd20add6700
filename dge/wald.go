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
	"fmt"
	"math"

	"github.com/exascience/pargo/parallel"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/exascience/eldge/counts"
)

// lfcPseudoCount is added to the group means on the normalized counts
// scale, so that fold changes and their standard errors stay finite
// for groups with zero counts.
const lfcPseudoCount = 0.5

// TestOptions are the options for WaldTest.
type TestOptions struct {
	// Reference and Treatment name the two conditions of the
	// contrast. The reported fold changes are treatment over
	// reference.
	Reference, Treatment string

	// MinBaseMean excludes genes with a lower mean of normalized
	// counts from testing. Excluded genes report NaN statistics and
	// do not take part in the multiple testing correction.
	MinBaseMean float64

	// Shrink enables normal-prior shrinkage of the log2 fold changes.
	Shrink bool
}

func groupColumns(m *counts.Matrix, sheet *counts.SampleSheet, condition string) ([]int, error) {
	index := m.SampleIndex()
	var columns []int
	for _, sample := range sheet.SamplesFor(condition) {
		if j, ok := index[sample]; ok {
			columns = append(columns, j)
		}
	}
	if len(columns) < 2 {
		return nil, fmt.Errorf("condition %v has %v samples in the count matrix, need at least 2 replicates", condition, len(columns))
	}
	return columns, nil
}

// WaldTest performs a per-gene two-group negative binomial Wald test
// of the treatment condition against the reference condition. The
// returned table runs parallel to the gene rows of the count matrix.
func WaldTest(m *counts.Matrix, sheet *counts.SampleSheet, sizeFactors []float64, dispersions *Dispersions, options TestOptions) (*Table, error) {
	referenceColumns, err := groupColumns(m, sheet, options.Reference)
	if err != nil {
		return nil, err
	}
	treatmentColumns, err := groupColumns(m, sheet, options.Treatment)
	if err != nil {
		return nil, err
	}

	normalized := NormalizedCounts(m, sizeFactors)
	table := &Table{
		Reference: options.Reference,
		Treatment: options.Treatment,
		Results:   make([]Result, len(m.Genes)),
	}

	// Var(log2 of a group mean) under the negative binomial variance
	// model var = mu/s + alpha*mu^2, by the delta method.
	groupLogVariance := func(mu, alpha float64, columns []int) float64 {
		sum := 0.0
		for _, j := range columns {
			sum += 1/(mu*sizeFactors[j]) + alpha
		}
		n := float64(len(columns))
		return sum / (n * n * math.Ln2 * math.Ln2)
	}

	parallel.Range(0, len(m.Genes), 0, func(low, high int) {
		for i := low; i < high; i++ {
			r := &table.Results[i]
			r.Gene = m.Genes[i]
			r.BaseMean = dispersions.BaseMeans[i]
			r.ShrunkenLFC = math.NaN()

			alpha := dispersions.Final[i]
			if r.BaseMean <= 0 || r.BaseMean < options.MinBaseMean || math.IsNaN(alpha) {
				r.Log2FC = math.NaN()
				r.LfcSE = math.NaN()
				r.Stat = math.NaN()
				r.PValue = math.NaN()
				continue
			}

			row := normalized[i]
			muReference, muTreatment := 0.0, 0.0
			for _, j := range referenceColumns {
				muReference += row[j]
			}
			muReference = muReference/float64(len(referenceColumns)) + lfcPseudoCount
			for _, j := range treatmentColumns {
				muTreatment += row[j]
			}
			muTreatment = muTreatment/float64(len(treatmentColumns)) + lfcPseudoCount

			r.Log2FC = math.Log2(muTreatment) - math.Log2(muReference)
			variance := groupLogVariance(muReference, alpha, referenceColumns) +
				groupLogVariance(muTreatment, alpha, treatmentColumns)
			r.LfcSE = math.Sqrt(variance)
			r.Stat = r.Log2FC / r.LfcSE
			r.PValue = 2 * distuv.UnitNormal.CDF(-math.Abs(r.Stat))
		}
	})

	pvalues := make([]float64, len(table.Results))
	for i := range table.Results {
		pvalues[i] = table.Results[i].PValue
	}
	adjusted := AdjustBH(pvalues)
	for i := range table.Results {
		table.Results[i].PAdj = adjusted[i]
	}

	if options.Shrink {
		ShrinkLFC(table)
	}
	return table, nil
}
