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

// Package geneset implements gene set collections in the GMT format
// and indexed set membership over a gene universe.
package geneset

import (
	"bufio"
	"log"
	"strings"

	"github.com/willf/bitset"

	"github.com/exascience/eldge/internal"
)

// Set is a named collection of gene identifiers.
type Set struct {
	Name        string
	Description string
	Genes       []string
}

// Collection is an ordered list of gene sets.
type Collection struct {
	Sets []Set
}

// ParseGMT parses a gene set collection in the GMT format: one set
// per line, tab-separated, set name and description followed by the
// member genes.
func ParseGMT(filename string) *Collection {
	file := internal.FileOpen(filename)
	defer internal.Close(file)

	collection := new(Collection)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	seen := make(map[string]bool)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		data := strings.Split(line, "\t")
		if len(data) < 3 {
			log.Panicf("badly formatted gene set file %v - set %v has no genes", filename, data[0])
		}
		if seen[data[0]] {
			log.Panicf("duplicate gene set %v in %v", data[0], filename)
		}
		seen[data[0]] = true
		var genes []string
		for _, gene := range data[2:] {
			if gene != "" {
				genes = append(genes, gene)
			}
		}
		collection.Sets = append(collection.Sets, Set{
			Name:        data[0],
			Description: data[1],
			Genes:       genes,
		})
	}
	if err := scanner.Err(); err != nil {
		log.Panic(err)
	}
	return collection
}

// FilterSize returns a new collection that keeps only the sets whose
// intersection with the universe has between min and max genes.
func (c *Collection) FilterSize(u *Universe, min, max int) *Collection {
	filtered := new(Collection)
	for _, set := range c.Sets {
		size := int(u.Mask(set.Genes).Count())
		if size >= min && size <= max {
			filtered.Sets = append(filtered.Sets, set)
		}
	}
	return filtered
}

// Universe indexes a gene universe so that gene sets can be
// represented as bitmasks over it.
type Universe struct {
	Genes []string
	index map[string]int
}

// NewUniverse indexes the given genes. Duplicates are kept at their
// first position.
func NewUniverse(genes []string) *Universe {
	u := &Universe{Genes: genes, index: make(map[string]int, len(genes))}
	for i, gene := range genes {
		if _, ok := u.index[gene]; !ok {
			u.index[gene] = i
		}
	}
	return u
}

// Index returns the position of a gene in the universe.
func (u *Universe) Index(gene string) (int, bool) {
	i, ok := u.index[gene]
	return i, ok
}

// Len returns the number of genes in the universe.
func (u *Universe) Len() int {
	return len(u.Genes)
}

// Mask returns the membership bitmask of the given genes over the
// universe. Genes outside the universe are ignored.
func (u *Universe) Mask(genes []string) *bitset.BitSet {
	mask := bitset.New(uint(len(u.Genes)))
	for _, gene := range genes {
		if i, ok := u.index[gene]; ok {
			mask.Set(uint(i))
		}
	}
	return mask
}

// Overlap returns the number of genes two masks have in common.
func Overlap(mask1, mask2 *bitset.BitSet) int {
	return int(mask1.IntersectionCardinality(mask2))
}
