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

package gsea

import (
	"fmt"
	"math"
	"testing"

	"github.com/exascience/eldge/geneset"
)

func TestEnrichmentScore(t *testing.T) {
	scores := []float64{4, 3, 2, 1, 0.5, 0.4, 0.3, 0.2, 0.1, 0.05}

	// all hits at the top of the list
	es, peak := enrichmentScore([]int{0, 1, 2}, scores, 1)
	if es <= 0 {
		t.Error("top-ranked set should have a positive enrichment score: ", es)
	}
	if peak != 2 {
		t.Error("peak should be at the last top hit: ", peak)
	}

	// all hits at the bottom of the list
	es, peak = enrichmentScore([]int{7, 8, 9}, scores, 1)
	if es >= 0 {
		t.Error("bottom-ranked set should have a negative enrichment score: ", es)
	}
	if peak != 6 {
		t.Error("peak should be just before the first bottom hit: ", peak)
	}

	// classic statistic with weight 0 ignores the scores
	es0, _ := enrichmentScore([]int{0, 1, 2}, scores, 0)
	if math.Abs(es0-1) > 1e-12 {
		t.Error("weight 0 score for a perfect top set should be 1, got ", es0)
	}

	if es, _ = enrichmentScore(nil, scores, 1); es != 0 {
		t.Error("empty set should score 0")
	}
}

func gseaTestData() ([]string, []float64, *geneset.Collection) {
	ngenes := 100
	genes := make([]string, ngenes)
	scores := make([]float64, ngenes)
	for i := range genes {
		genes[i] = fmt.Sprintf("g%03d", i)
		scores[i] = float64(ngenes-i)/10 - 5
	}
	top := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		top = append(top, genes[i])
	}
	spread := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		spread = append(spread, genes[i*6+3])
	}
	collection := &geneset.Collection{Sets: []geneset.Set{
		{Name: "top", Genes: top},
		{Name: "spread", Genes: spread},
	}}
	return genes, scores, collection
}

func TestPreranked(t *testing.T) {
	genes, scores, collection := gseaTestData()
	options := DefaultOptions
	options.Permutations = 200
	table, err := Preranked(genes, scores, collection, options)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Results) != 2 {
		t.Fatal("Preranked number of results failed")
	}
	top := &table.Results[0]
	if top.Set != "top" {
		t.Fatal("top-ranked set should sort first: ", top.Set)
	}
	if top.ES <= 0 || top.NES <= 0 {
		t.Error("top-ranked set scores failed: ", top.ES, top.NES)
	}
	if top.PValue > 0.05 {
		t.Error("top-ranked set should be significant, got p ", top.PValue)
	}
	if top.QValue > 0.25 {
		t.Error("top-ranked set q-value failed: ", top.QValue)
	}
	if top.Size != 15 {
		t.Error("set size failed: ", top.Size)
	}
	if len(top.LeadingEdge) == 0 || len(top.LeadingEdge) > 15 {
		t.Error("leading edge failed: ", top.LeadingEdge)
	}
	for _, gene := range top.LeadingEdge {
		if gene >= "g015" {
			t.Error("leading edge of the top set should only contain top genes: ", gene)
		}
	}
	if spread := &table.Results[1]; spread.PValue < 0.05 {
		t.Error("evenly spread set should not be significant, got p ", spread.PValue)
	}
}

func TestPrerankedDeterministic(t *testing.T) {
	genes, scores, collection := gseaTestData()
	options := DefaultOptions
	options.Permutations = 100
	table1, err := Preranked(genes, scores, collection, options)
	if err != nil {
		t.Fatal(err)
	}
	table2, err := Preranked(genes, scores, collection, options)
	if err != nil {
		t.Fatal(err)
	}
	for i := range table1.Results {
		r1, r2 := &table1.Results[i], &table2.Results[i]
		if r1.Set != r2.Set || r1.NES != r2.NES || r1.PValue != r2.PValue || r1.QValue != r2.QValue {
			t.Error("Preranked should be deterministic for a fixed seed")
		}
	}
}

func TestPrerankedErrors(t *testing.T) {
	genes, scores, collection := gseaTestData()
	if _, err := Preranked(genes, scores[:10], collection, DefaultOptions); err == nil {
		t.Error("Preranked should reject mismatched genes and scores")
	}
	unsorted := append([]float64(nil), scores...)
	unsorted[0], unsorted[1] = unsorted[1], unsorted[0]
	if _, err := Preranked(genes, unsorted, collection, DefaultOptions); err == nil {
		t.Error("Preranked should reject an unsorted ranking")
	}
	options := DefaultOptions
	options.MinSetSize = 50
	if _, err := Preranked(genes, scores, collection, options); err == nil {
		t.Error("Preranked should fail when no set is within the size bounds")
	}
	options = DefaultOptions
	options.Permutations = 0
	if _, err := Preranked(genes, scores, collection, options); err == nil {
		t.Error("Preranked should reject zero permutations")
	}
}
