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

package internal

import "testing"

func TestRandDeterministic(t *testing.T) {
	r1 := NewRand(149)
	r2 := NewRand(149)
	for i := 0; i < 1000; i++ {
		if r1.Int31() != r2.Int31() {
			t.Fatal("same seed should produce the same stream")
		}
	}
	r3 := NewRand(150)
	same := true
	r1 = NewRand(149)
	for i := 0; i < 10; i++ {
		if r1.Int31() != r3.Int31() {
			same = false
		}
	}
	if same {
		t.Error("different seeds should produce different streams")
	}
}

func TestInt31n(t *testing.T) {
	r := NewRand(1)
	seen := make(map[int32]bool)
	for i := 0; i < 1000; i++ {
		v := r.Int31n(7)
		if v < 0 || v >= 7 {
			t.Fatal("Int31n out of bounds: ", v)
		}
		seen[v] = true
	}
	if len(seen) != 7 {
		t.Error("Int31n should reach all values below the bound: ", len(seen))
	}
}

func TestPerm(t *testing.T) {
	r := NewRand(42)
	p := r.Perm(20)
	if len(p) != 20 {
		t.Fatal("Perm length failed")
	}
	seen := make([]bool, 20)
	for _, v := range p {
		if v < 0 || v >= 20 || seen[v] {
			t.Fatal("Perm is not a permutation: ", p)
		}
		seen[v] = true
	}
}
