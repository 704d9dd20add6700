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
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const minPriorVariance = 0.0625

// ShrinkLFC fills in the ShrunkenLFC column with normal-prior
// posterior estimates of the log2 fold changes. The prior is a zero
// centered normal whose variance is chosen so that the prior matches
// the upper tail of the observed fold change distribution: noisy
// estimates with large standard errors are pulled toward zero, while
// precisely estimated fold changes are mostly preserved.
func ShrinkLFC(t *Table) {
	var absLfcs, squaredSEs []float64
	for i := range t.Results {
		r := &t.Results[i]
		if math.IsNaN(r.Log2FC) || math.IsNaN(r.LfcSE) {
			continue
		}
		absLfcs = append(absLfcs, math.Abs(r.Log2FC))
		squaredSEs = append(squaredSEs, r.LfcSE*r.LfcSE)
	}
	if len(absLfcs) == 0 {
		return
	}
	sort.Float64s(absLfcs)
	sort.Float64s(squaredSEs)

	upper := stat.Quantile(0.95, stat.Empirical, absLfcs, nil)
	z := distuv.UnitNormal.Quantile(0.975)
	medianSE2 := stat.Quantile(0.5, stat.Empirical, squaredSEs, nil)
	priorVariance := upper*upper/(z*z) - medianSE2
	if priorVariance < minPriorVariance {
		priorVariance = minPriorVariance
	}

	for i := range t.Results {
		r := &t.Results[i]
		if math.IsNaN(r.Log2FC) || math.IsNaN(r.LfcSE) {
			continue
		}
		r.ShrunkenLFC = r.Log2FC * priorVariance / (priorVariance + r.LfcSE*r.LfcSE)
	}
}
