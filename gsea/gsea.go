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

// Package gsea implements preranked gene set enrichment analysis: a
// weighted Kolmogorov-Smirnov style running sum over a ranked gene
// list, with a gene permutation null for normalized enrichment scores
// and FDR q-values.
package gsea

import (
	"fmt"
	"math"
	"sort"

	"github.com/exascience/pargo/parallel"

	"github.com/exascience/eldge/geneset"
	"github.com/exascience/eldge/internal"
)

// Options are the options for Preranked.
type Options struct {
	// Permutations is the number of gene permutations for the null
	// distribution.
	Permutations int

	// MinSetSize and MaxSetSize restrict the tested sets to those
	// with that many members in the ranked list.
	MinSetSize, MaxSetSize int

	// Weight is the exponent on the ranking scores in the running
	// sum. 1 is the standard weighted statistic, 0 the classic
	// Kolmogorov-Smirnov statistic.
	Weight float64

	// Seed fixes the permutation stream.
	Seed int64
}

// DefaultOptions are the conventional GSEA settings.
var DefaultOptions = Options{
	Permutations: 1000,
	MinSetSize:   15,
	MaxSetSize:   500,
	Weight:       1,
	Seed:         149,
}

// Result holds the enrichment statistics for one gene set.
type Result struct {
	Set         string
	Description string
	Size        int
	ES          float64
	NES         float64
	PValue      float64
	QValue      float64
	LeadingEdge []string
}

// Table holds the GSEA results, most significant set first.
type Table struct {
	Results []Result
}

// enrichmentScore computes the running sum statistic for the member
// positions (ascending) in a ranked list with the given scores. It
// returns the extreme deviation and the position in the ranked list
// where it is attained.
func enrichmentScore(positions []int, scores []float64, weight float64) (es float64, peak int) {
	total := len(scores)
	nhits := len(positions)
	if nhits == 0 || nhits == total {
		return 0, 0
	}
	missDecrement := 1 / float64(total-nhits)

	sumWeights := 0.0
	for _, p := range positions {
		sumWeights += math.Pow(math.Abs(scores[p]), weight)
	}
	if sumWeights == 0 {
		return 0, 0
	}

	running := 0.0
	previous := -1
	for _, p := range positions {
		running -= float64(p-previous-1) * missDecrement
		if math.Abs(running) > math.Abs(es) {
			es, peak = running, p-1
		}
		running += math.Pow(math.Abs(scores[p]), weight) / sumWeights
		if math.Abs(running) > math.Abs(es) {
			es, peak = running, p
		}
		previous = p
	}
	// the tail after the last hit only walks back toward zero
	return es, peak
}

// samplePositions draws nhits distinct positions from 0..total-1,
// ascending, reusing the scratch permutation buffer.
func samplePositions(r *internal.Rand, scratch []int, nhits int, out []int) []int {
	total := len(scratch)
	for i := 0; i < nhits; i++ {
		j := i + int(r.Int31n(int32(total-i)))
		scratch[i], scratch[j] = scratch[j], scratch[i]
	}
	out = out[:0]
	out = append(out, scratch[:nhits]...)
	sort.Ints(out)
	return out
}

// Preranked runs preranked GSEA of the collection against the ranked
// gene list. The genes must be ordered by decreasing score. The
// returned table contains the sets within the size bounds, sorted by
// q-value.
func Preranked(genes []string, scores []float64, collection *geneset.Collection, options Options) (*Table, error) {
	if len(genes) != len(scores) {
		return nil, fmt.Errorf("gsea: %v ranked genes with %v scores", len(genes), len(scores))
	}
	if len(genes) == 0 {
		return nil, fmt.Errorf("gsea: empty ranked gene list")
	}
	if options.Permutations < 1 {
		return nil, fmt.Errorf("gsea: invalid number of permutations %v", options.Permutations)
	}
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[i-1] {
			return nil, fmt.Errorf("gsea: ranked gene list is not sorted by decreasing score")
		}
	}

	universe := geneset.NewUniverse(genes)

	// tested sets and their member positions in the ranked list
	type testedSet struct {
		set       *geneset.Set
		positions []int
	}
	var tested []testedSet
	for i := range collection.Sets {
		set := &collection.Sets[i]
		var positions []int
		for _, gene := range set.Genes {
			if p, ok := universe.Index(gene); ok {
				positions = append(positions, p)
			}
		}
		sort.Ints(positions)
		if len(positions) >= options.MinSetSize && len(positions) <= options.MaxSetSize {
			tested = append(tested, testedSet{set, positions})
		}
	}
	if len(tested) == 0 {
		return nil, fmt.Errorf("gsea: no gene set within the size bounds %v..%v", options.MinSetSize, options.MaxSetSize)
	}

	results := make([]Result, len(tested))
	nullNES := make([][]float64, len(tested))

	parallel.Range(0, len(tested), 0, func(low, high int) {
		scratch := make([]int, len(genes))
		var positions []int
		for s := low; s < high; s++ {
			set, memberPositions := tested[s].set, tested[s].positions
			es, peak := enrichmentScore(memberPositions, scores, options.Weight)

			// same permutation stream for a set regardless of how the
			// sets are distributed over goroutines
			r := internal.NewRand(options.Seed + int64(s))
			for i := range scratch {
				scratch[i] = i
			}
			nullES := make([]float64, options.Permutations)
			for b := range nullES {
				positions = samplePositions(r, scratch, len(memberPositions), positions)
				nullES[b], _ = enrichmentScore(positions, scores, options.Weight)
			}

			// normalize by the mean null magnitude of matching sign
			meanPositive, meanNegative := 0.0, 0.0
			countPositive, countNegative := 0, 0
			for _, e := range nullES {
				if e >= 0 {
					meanPositive += e
					countPositive++
				} else {
					meanNegative -= e
					countNegative++
				}
			}
			if countPositive > 0 {
				meanPositive /= float64(countPositive)
			}
			if countNegative > 0 {
				meanNegative /= float64(countNegative)
			}
			normalize := func(e float64) float64 {
				if e >= 0 {
					if meanPositive > 0 {
						return e / meanPositive
					}
				} else if meanNegative > 0 {
					return e / meanNegative
				}
				return 0
			}

			nes := normalize(es)
			extreme := 0
			sameSign := 0
			for _, e := range nullES {
				if (e >= 0) == (es >= 0) {
					sameSign++
					if math.Abs(e) >= math.Abs(es) {
						extreme++
					}
				}
			}
			pvalue := 1.0
			if sameSign > 0 {
				pvalue = float64(extreme+1) / float64(sameSign+1)
			}

			normalizedNull := make([]float64, len(nullES))
			for b, e := range nullES {
				normalizedNull[b] = normalize(e)
			}
			nullNES[s] = normalizedNull

			var leadingEdge []string
			if es >= 0 {
				for _, p := range memberPositions {
					if p <= peak {
						leadingEdge = append(leadingEdge, genes[p])
					}
				}
			} else {
				for _, p := range memberPositions {
					if p >= peak {
						leadingEdge = append(leadingEdge, genes[p])
					}
				}
			}

			results[s] = Result{
				Set:         set.Name,
				Description: set.Description,
				Size:        len(memberPositions),
				ES:          es,
				NES:         nes,
				PValue:      pvalue,
				LeadingEdge: leadingEdge,
			}
		}
	})

	fillQValues(results, nullNES)

	table := &Table{Results: results}
	sort.SliceStable(table.Results, func(i, j int) bool {
		r1, r2 := &table.Results[i], &table.Results[j]
		if r1.QValue != r2.QValue {
			return r1.QValue < r2.QValue
		}
		if r1.PValue != r2.PValue {
			return r1.PValue < r2.PValue
		}
		return math.Abs(r2.NES) < math.Abs(r1.NES)
	})
	return table, nil
}

// fillQValues computes FDR q-values as the ratio of the null and
// observed tail proportions at each observed NES, per sign.
func fillQValues(results []Result, nullNES [][]float64) {
	var observed []float64
	var pool []float64
	for i := range results {
		observed = append(observed, results[i].NES)
	}
	for _, null := range nullNES {
		pool = append(pool, null...)
	}

	tailProportion := func(values []float64, nes float64) float64 {
		total, tail := 0, 0
		for _, v := range values {
			if (v >= 0) == (nes >= 0) {
				total++
				if math.Abs(v) >= math.Abs(nes) {
					tail++
				}
			}
		}
		if total == 0 {
			return 0
		}
		return float64(tail) / float64(total)
	}

	for i := range results {
		nes := results[i].NES
		numerator := tailProportion(pool, nes)
		denominator := tailProportion(observed, nes)
		q := 1.0
		if denominator > 0 {
			q = numerator / denominator
		}
		if q > 1 {
			q = 1
		}
		results[i].QValue = q
	}
}
