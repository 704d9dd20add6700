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
	"gonum.org/v1/gonum/stat"

	"github.com/exascience/eldge/counts"
)

const (
	minDispersion = 1e-8
	maxDispersion = 10.0
)

// Dispersions holds the per-gene negative binomial dispersion
// estimates, aligned with the gene rows of the count matrix. GeneWise
// entries are NaN for genes whose moments estimate is not positive;
// such genes fall back to the fitted trend.
type Dispersions struct {
	BaseMeans []float64
	GeneWise  []float64
	Trend     []float64
	Final     []float64

	// TrendA0 and TrendA1 are the coefficients of the fitted
	// mean-dispersion trend alpha(mu) = a0 + a1/mu.
	TrendA0, TrendA1 float64
}

// trigamma approximates the trigamma function with its asymptotic
// expansion, after raising small arguments by recurrence.
func trigamma(x float64) float64 {
	result := 0.0
	for x < 6 {
		result += 1 / (x * x)
		x++
	}
	return result + 1/x + 1/(2*x*x) + 1/(6*x*x*x)
}

// EstimateDispersions estimates negative binomial dispersions per
// gene: method-of-moments gene-wise estimates, a mean-dispersion
// trend fitted by iteratively reweighted least squares, and shrinkage
// of the gene-wise estimates toward the trend in log space. Gene-wise
// estimates far above the trend are kept as is.
func EstimateDispersions(m *counts.Matrix, sizeFactors []float64) (*Dispersions, error) {
	nsamples := len(m.Samples)
	if nsamples < 3 {
		return nil, fmt.Errorf("dispersion estimation requires at least 3 samples, got %v", nsamples)
	}

	xi := 0.0
	for _, s := range sizeFactors {
		xi += 1 / s
	}
	xi /= float64(nsamples)

	normalized := NormalizedCounts(m, sizeFactors)
	d := &Dispersions{
		BaseMeans: make([]float64, len(m.Genes)),
		GeneWise:  make([]float64, len(m.Genes)),
		Trend:     make([]float64, len(m.Genes)),
		Final:     make([]float64, len(m.Genes)),
	}

	// gene-wise moments estimates
	parallel.Range(0, len(m.Genes), 0, func(low, high int) {
		for i := low; i < high; i++ {
			row := normalized[i]
			mean, variance := stat.MeanVariance(row, nil)
			d.BaseMeans[i] = mean
			if mean <= 0 {
				d.GeneWise[i] = math.NaN()
				continue
			}
			alpha := (variance - xi*mean) / (mean * mean)
			if alpha <= 0 {
				d.GeneWise[i] = math.NaN()
			} else {
				d.GeneWise[i] = math.Min(alpha, maxDispersion)
			}
		}
	})

	// mean-dispersion trend alpha(mu) = a0 + a1/mu, fitted by
	// iteratively reweighted least squares on the genes with a
	// gene-wise estimate
	var xs, ys, ws []float64
	for i, alpha := range d.GeneWise {
		if !math.IsNaN(alpha) && d.BaseMeans[i] > 0 {
			xs = append(xs, 1/d.BaseMeans[i])
			ys = append(ys, alpha)
			ws = append(ws, 1)
		}
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("dispersion estimation: only %v genes with a gene-wise estimate", len(xs))
	}
	a0, a1 := 0.0, 0.0
	for iteration := 0; iteration < 10; iteration++ {
		intercept, slope := stat.LinearRegression(xs, ys, ws, false)
		if slope < 0 {
			slope = 0
		}
		if intercept < minDispersion {
			intercept = minDispersion
		}
		converged := iteration > 0 &&
			math.Abs(intercept-a0) < 1e-6*(a0+1e-6) &&
			math.Abs(slope-a1) < 1e-6*(a1+1e-6)
		a0, a1 = intercept, slope
		if converged {
			break
		}
		for k, x := range xs {
			fitted := a0 + a1*x
			if fitted < minDispersion {
				fitted = minDispersion
			}
			ws[k] = 1 / (fitted * fitted)
		}
	}
	d.TrendA0, d.TrendA1 = a0, a1

	for i, mean := range d.BaseMeans {
		if mean > 0 {
			d.Trend[i] = math.Min(math.Max(a0+a1/mean, minDispersion), maxDispersion)
		} else {
			d.Trend[i] = math.NaN()
		}
	}

	// spread of the gene-wise estimates around the trend, corrected
	// for the expected sampling variance of a log dispersion estimate
	var residuals []float64
	for i, alpha := range d.GeneWise {
		if !math.IsNaN(alpha) && !math.IsNaN(d.Trend[i]) {
			residuals = append(residuals, math.Log(alpha)-math.Log(d.Trend[i]))
		}
	}
	samplingVariance := trigamma(float64(nsamples-1) / 2)
	priorVariance := stat.Variance(residuals, nil) - samplingVariance
	if priorVariance < 0.25 {
		priorVariance = 0.25
	}
	weight := priorVariance / (priorVariance + samplingVariance)
	outlierBound := 2 * math.Sqrt(priorVariance+samplingVariance)

	for i := range d.Final {
		alpha, trend := d.GeneWise[i], d.Trend[i]
		switch {
		case math.IsNaN(trend):
			d.Final[i] = math.NaN()
		case math.IsNaN(alpha):
			d.Final[i] = trend
		case math.Log(alpha)-math.Log(trend) > outlierBound:
			// dispersion outlier, not shrunk
			d.Final[i] = alpha
		default:
			logFinal := weight*math.Log(alpha) + (1-weight)*math.Log(trend)
			d.Final[i] = math.Min(math.Max(math.Exp(logFinal), minDispersion), maxDispersion)
		}
	}
	return d, nil
}
