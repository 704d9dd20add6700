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
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"sort"
	"strings"

	psort "github.com/exascience/pargo/sort"

	"github.com/exascience/eldge/internal"
)

// Result holds the per-gene differential expression statistics.
type Result struct {
	Gene        string
	BaseMean    float64
	Log2FC      float64
	LfcSE       float64
	Stat        float64
	PValue      float64
	PAdj        float64
	ShrunkenLFC float64
}

// Table holds the differential expression results for a two-group
// contrast, treatment versus reference.
type Table struct {
	Reference string
	Treatment string
	Results   []Result
}

// lessByPAdj orders by adjusted p-value, untested genes last.
func lessByPAdj(r1, r2 *Result) bool {
	p1, p2 := r1.PAdj, r2.PAdj
	switch {
	case math.IsNaN(p1):
		return false
	case math.IsNaN(p2):
		return true
	case p1 != p2:
		return p1 < p2
	}
	return math.Abs(r2.Stat) < math.Abs(r1.Stat)
}

type stableResultSorter []Result

func (s stableResultSorter) SequentialSort(i, j int) {
	sort.SliceStable(s[i:j], func(k, l int) bool {
		return lessByPAdj(&s[i+k], &s[i+l])
	})
}

func (s stableResultSorter) NewTemp() psort.StableSorter {
	return stableResultSorter(make([]Result, len(s)))
}

func (s stableResultSorter) Len() int {
	return len(s)
}

func (s stableResultSorter) Less(i, j int) bool {
	return lessByPAdj(&s[i], &s[j])
}

func (s stableResultSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(stableResultSorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// SortByPAdj sorts the results by adjusted p-value using a parallel
// stable sort. Untested genes sort last.
func (t *Table) SortByPAdj() {
	psort.StableSort(stableResultSorter(t.Results))
}

// Significant returns the genes with adjusted p-value below alpha and
// absolute shrunken log2 fold change of at least minLfc.
func (t *Table) Significant(alpha, minLfc float64) (up, down []string) {
	for i := range t.Results {
		r := &t.Results[i]
		if math.IsNaN(r.PAdj) || r.PAdj >= alpha {
			continue
		}
		lfc := r.ShrunkenLFC
		if math.IsNaN(lfc) {
			lfc = r.Log2FC
		}
		switch {
		case lfc >= minLfc:
			up = append(up, r.Gene)
		case lfc <= -minLfc:
			down = append(down, r.Gene)
		}
	}
	return up, down
}

// RankedGenes returns the tested genes ordered by the Wald statistic,
// most upregulated first. This is the input ranking for preranked
// GSEA.
func (t *Table) RankedGenes() (genes []string, scores []float64) {
	type ranked struct {
		gene  string
		score float64
	}
	var list []ranked
	for i := range t.Results {
		r := &t.Results[i]
		if math.IsNaN(r.Stat) {
			continue
		}
		list = append(list, ranked{r.Gene, r.Stat})
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].score > list[j].score
	})
	genes = make([]string, len(list))
	scores = make([]float64, len(list))
	for i, r := range list {
		genes[i] = r.gene
		scores[i] = r.score
	}
	return genes, scores
}

// AdjustBH computes Benjamini-Hochberg adjusted p-values. NaN entries
// are left out of the adjustment and stay NaN.
func AdjustBH(pvalues []float64) []float64 {
	type indexed struct {
		p float64
		i int
	}
	var tested []indexed
	for i, p := range pvalues {
		if !math.IsNaN(p) {
			tested = append(tested, indexed{p, i})
		}
	}
	adjusted := make([]float64, len(pvalues))
	for i := range adjusted {
		adjusted[i] = math.NaN()
	}
	sort.SliceStable(tested, func(i, j int) bool {
		return tested[i].p < tested[j].p
	})
	m := float64(len(tested))
	minimum := 1.0
	for k := len(tested) - 1; k >= 0; k-- {
		adj := tested[k].p * m / float64(k+1)
		if adj < minimum {
			minimum = adj
		}
		adjusted[tested[k].i] = minimum
	}
	return adjusted
}

const tableHeader = "gene\tbaseMean\tlog2FoldChange\tlfcSE\tstat\tpvalue\tpadj\tshrunkenLFC"

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return fmt.Sprintf("%g", v)
}

func parseValue(s string) float64 {
	if s == "NA" {
		return math.NaN()
	}
	return internal.ParseFloat(s, 64)
}

// Format writes the result table in the format parsed by ParseTable.
// The contrast is recorded in a comment line.
func (t *Table) Format(w io.Writer) {
	out := bufio.NewWriter(w)
	fmt.Fprintf(out, "# contrast: %v vs %v\n", t.Treatment, t.Reference)
	fmt.Fprintln(out, tableHeader)
	for i := range t.Results {
		r := &t.Results[i]
		fmt.Fprintf(out, "%v\t%v\t%v\t%v\t%v\t%v\t%v\t%v\n",
			r.Gene, formatValue(r.BaseMean), formatValue(r.Log2FC), formatValue(r.LfcSE),
			formatValue(r.Stat), formatValue(r.PValue), formatValue(r.PAdj), formatValue(r.ShrunkenLFC))
	}
	if err := out.Flush(); err != nil {
		log.Panic(err)
	}
}

// WriteTable writes the result table to a file.
func WriteTable(t *Table, filename string) {
	file := internal.FileCreate(filename)
	defer internal.Close(file)
	t.Format(file)
}

// ParseTable parses a result table file.
func ParseTable(filename string) *Table {
	file := internal.FileOpen(filename)
	defer internal.Close(file)

	t := new(Table)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "# contrast: ") {
			contrast := strings.SplitN(strings.TrimPrefix(line, "# contrast: "), " vs ", 2)
			if len(contrast) == 2 {
				t.Treatment = contrast[0]
				t.Reference = contrast[1]
			}
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") || line == tableHeader {
			continue
		}
		data := strings.Split(line, "\t")
		if len(data) != 8 {
			log.Panicf("badly formatted result table %v - invalid number of columns", filename)
		}
		t.Results = append(t.Results, Result{
			Gene:        data[0],
			BaseMean:    parseValue(data[1]),
			Log2FC:      parseValue(data[2]),
			LfcSE:       parseValue(data[3]),
			Stat:        parseValue(data[4]),
			PValue:      parseValue(data[5]),
			PAdj:        parseValue(data[6]),
			ShrunkenLFC: parseValue(data[7]),
		})
	}
	if err := scanner.Err(); err != nil {
		log.Panic(err)
	}
	return t
}
