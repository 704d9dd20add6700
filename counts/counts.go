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

// Package counts implements genes x samples read count matrices and
// the tab-separated file formats they are exchanged in.
package counts

import (
	"log"
	"math"
)

// Matrix is a dense genes x samples matrix of read counts. Counts are
// stored as float64 because everything downstream of the raw counts
// (normalization, dispersions, fold changes) is floating point.
type Matrix struct {
	Genes   []string
	Samples []string
	Counts  [][]float64
}

// NewMatrix allocates a zero matrix for the given genes and samples.
func NewMatrix(genes, samples []string) *Matrix {
	counts := make([][]float64, len(genes))
	for i := range counts {
		counts[i] = make([]float64, len(samples))
	}
	return &Matrix{Genes: genes, Samples: samples, Counts: counts}
}

// GeneIndex returns a map from gene identifier to row index.
func (m *Matrix) GeneIndex() map[string]int {
	index := make(map[string]int, len(m.Genes))
	for i, gene := range m.Genes {
		index[gene] = i
	}
	return index
}

// SampleIndex returns a map from sample name to column index.
func (m *Matrix) SampleIndex() map[string]int {
	index := make(map[string]int, len(m.Samples))
	for j, sample := range m.Samples {
		index[sample] = j
	}
	return index
}

// LibrarySizes returns the total counts per sample.
func (m *Matrix) LibrarySizes() []float64 {
	sizes := make([]float64, len(m.Samples))
	for _, row := range m.Counts {
		for j, c := range row {
			sizes[j] += c
		}
	}
	return sizes
}

// CPM returns the counts scaled to counts per million reads per
// sample.
func (m *Matrix) CPM() [][]float64 {
	sizes := m.LibrarySizes()
	cpm := make([][]float64, len(m.Genes))
	for i, row := range m.Counts {
		out := make([]float64, len(row))
		for j, c := range row {
			if sizes[j] > 0 {
				out[j] = c / sizes[j] * 1e6
			}
		}
		cpm[i] = out
	}
	return cpm
}

// LogCPM returns log2(CPM + pseudocount) per gene and sample.
func (m *Matrix) LogCPM(pseudocount float64) [][]float64 {
	cpm := m.CPM()
	for _, row := range cpm {
		for j, v := range row {
			row[j] = math.Log2(v + pseudocount)
		}
	}
	return cpm
}

// FilterLowCounts returns a new matrix that keeps only genes with at
// least minCount reads in at least minSamples samples. The gene order
// of the input is preserved.
func (m *Matrix) FilterLowCounts(minCount float64, minSamples int) *Matrix {
	var genes []string
	var rows [][]float64
	for i, row := range m.Counts {
		n := 0
		for _, c := range row {
			if c >= minCount {
				n++
			}
		}
		if n >= minSamples {
			genes = append(genes, m.Genes[i])
			rows = append(rows, row)
		}
	}
	return &Matrix{Genes: genes, Samples: m.Samples, Counts: rows}
}

// SelectSamples returns a new matrix restricted to the given samples,
// in the given order. Unknown sample names are an error.
func (m *Matrix) SelectSamples(samples []string) *Matrix {
	index := m.SampleIndex()
	columns := make([]int, len(samples))
	for j, sample := range samples {
		column, ok := index[sample]
		if !ok {
			log.Panicf("unknown sample %v in count matrix", sample)
		}
		columns[j] = column
	}
	counts := make([][]float64, len(m.Genes))
	for i, row := range m.Counts {
		out := make([]float64, len(columns))
		for j, column := range columns {
			out[j] = row[column]
		}
		counts[i] = out
	}
	return &Matrix{Genes: m.Genes, Samples: samples, Counts: counts}
}

// SampleSheet maps samples to their experimental condition. Samples
// and Conditions run in parallel.
type SampleSheet struct {
	Samples    []string
	Conditions []string
}

// Condition returns the condition for the given sample.
func (s *SampleSheet) Condition(sample string) (string, bool) {
	for i, name := range s.Samples {
		if name == sample {
			return s.Conditions[i], true
		}
	}
	return "", false
}

// ConditionNames returns the distinct conditions in order of first
// appearance.
func (s *SampleSheet) ConditionNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, condition := range s.Conditions {
		if !seen[condition] {
			seen[condition] = true
			names = append(names, condition)
		}
	}
	return names
}

// SamplesFor returns the samples recorded for the given condition.
func (s *SampleSheet) SamplesFor(condition string) []string {
	var samples []string
	for i, name := range s.Samples {
		if s.Conditions[i] == condition {
			samples = append(samples, name)
		}
	}
	return samples
}
