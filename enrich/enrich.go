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

// Package enrich implements over-representation analysis of gene
// lists against gene set collections, with hypergeometric tests and
// Benjamini-Hochberg correction, and a client for Enrichr compatible
// web services that turn a gene list into a shareable link.
package enrich

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"sort"
	"strings"

	"github.com/exascience/eldge/dge"
	"github.com/exascience/eldge/geneset"
	"github.com/exascience/eldge/internal"
)

// Result holds the over-representation statistics for one gene set.
type Result struct {
	Set          string
	Description  string
	Overlap      int
	SetSize      int
	ListSize     int
	UniverseSize int
	OddsRatio    float64
	PValue       float64
	QValue       float64
	Genes        []string
}

// Table holds the over-representation results for a gene list, most
// significant set first.
type Table struct {
	Results []Result
}

func lchoose(n, k int) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	a, _ := math.Lgamma(float64(n + 1))
	b, _ := math.Lgamma(float64(k + 1))
	c, _ := math.Lgamma(float64(n - k + 1))
	return a - b - c
}

// HypergeometricUpperTail returns P(X >= k) for the hypergeometric
// distribution with universe size N, K annotated genes, and a list of
// n genes. The tail is summed in log space.
func HypergeometricUpperTail(k, K, n, N int) float64 {
	if k <= 0 {
		return 1
	}
	upper := K
	if n < K {
		upper = n
	}
	if k > upper {
		return 0
	}
	denominator := lchoose(N, n)
	maximum := math.Inf(-1)
	terms := make([]float64, 0, upper-k+1)
	for x := k; x <= upper; x++ {
		term := lchoose(K, x) + lchoose(N-K, n-x) - denominator
		terms = append(terms, term)
		if term > maximum {
			maximum = term
		}
	}
	if math.IsInf(maximum, -1) {
		return 0
	}
	sum := 0.0
	for _, term := range terms {
		sum += math.Exp(term - maximum)
	}
	p := math.Exp(maximum) * sum
	if p > 1 {
		p = 1
	}
	return p
}

func oddsRatio(k, K, n, N int) float64 {
	a := float64(k)
	b := float64(n - k)
	c := float64(K - k)
	d := float64(N - K - n + k)
	if a == 0 || b == 0 || c == 0 || d == 0 {
		// Haldane-Anscombe correction
		a, b, c, d = a+0.5, b+0.5, c+0.5, d+0.5
	}
	return (a * d) / (b * c)
}

// OverRepresentation tests every set in the collection for
// over-representation of the gene list against the universe. Genes
// outside the universe are dropped from the list. The returned table
// is sorted by q-value.
func OverRepresentation(list []string, collection *geneset.Collection, universe *geneset.Universe) *Table {
	listMask := universe.Mask(list)
	listSize := int(listMask.Count())
	universeSize := universe.Len()

	table := &Table{Results: make([]Result, 0, len(collection.Sets))}
	pvalues := make([]float64, 0, len(collection.Sets))
	for _, set := range collection.Sets {
		setMask := universe.Mask(set.Genes)
		setSize := int(setMask.Count())
		overlapMask := listMask.Intersection(setMask)
		overlap := int(overlapMask.Count())
		var genes []string
		for i, ok := overlapMask.NextSet(0); ok; i, ok = overlapMask.NextSet(i + 1) {
			genes = append(genes, universe.Genes[i])
		}
		table.Results = append(table.Results, Result{
			Set:          set.Name,
			Description:  set.Description,
			Overlap:      overlap,
			SetSize:      setSize,
			ListSize:     listSize,
			UniverseSize: universeSize,
			OddsRatio:    oddsRatio(overlap, setSize, listSize, universeSize),
			PValue:       HypergeometricUpperTail(overlap, setSize, listSize, universeSize),
		})
		table.Results[len(table.Results)-1].Genes = genes
		pvalues = append(pvalues, table.Results[len(table.Results)-1].PValue)
	}

	qvalues := dge.AdjustBH(pvalues)
	for i := range table.Results {
		table.Results[i].QValue = qvalues[i]
	}
	sort.SliceStable(table.Results, func(i, j int) bool {
		if table.Results[i].QValue != table.Results[j].QValue {
			return table.Results[i].QValue < table.Results[j].QValue
		}
		return table.Results[i].PValue < table.Results[j].PValue
	})
	return table
}

const tableHeader = "set\tdescription\toverlap\tsetSize\tlistSize\tuniverseSize\toddsRatio\tpvalue\tqvalue\tgenes"

// Format writes the enrichment table in the format parsed by
// ParseTable.
func (t *Table) Format(w io.Writer) {
	out := bufio.NewWriter(w)
	fmt.Fprintln(out, tableHeader)
	for i := range t.Results {
		r := &t.Results[i]
		fmt.Fprintf(out, "%v\t%v\t%d\t%d\t%d\t%d\t%g\t%g\t%g\t%v\n",
			r.Set, r.Description, r.Overlap, r.SetSize, r.ListSize, r.UniverseSize,
			r.OddsRatio, r.PValue, r.QValue, strings.Join(r.Genes, ","))
	}
	if err := out.Flush(); err != nil {
		log.Panic(err)
	}
}

// WriteTable writes the enrichment table to a file.
func WriteTable(t *Table, filename string) {
	file := internal.FileCreate(filename)
	defer internal.Close(file)
	t.Format(file)
}

// ParseTable parses an enrichment table file.
func ParseTable(filename string) *Table {
	file := internal.FileOpen(filename)
	defer internal.Close(file)

	t := new(Table)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line == tableHeader {
			continue
		}
		data := strings.Split(line, "\t")
		if len(data) != 10 {
			log.Panicf("badly formatted enrichment table %v - invalid number of columns", filename)
		}
		r := Result{
			Set:          data[0],
			Description:  data[1],
			Overlap:      int(internal.ParseInt(data[2], 10, 64)),
			SetSize:      int(internal.ParseInt(data[3], 10, 64)),
			ListSize:     int(internal.ParseInt(data[4], 10, 64)),
			UniverseSize: int(internal.ParseInt(data[5], 10, 64)),
			OddsRatio:    internal.ParseFloat(data[6], 64),
			PValue:       internal.ParseFloat(data[7], 64),
			QValue:       internal.ParseFloat(data[8], 64),
		}
		if data[9] != "" {
			r.Genes = strings.Split(data[9], ",")
		}
		t.Results = append(t.Results, r)
	}
	if err := scanner.Err(); err != nil {
		log.Panic(err)
	}
	return t
}
