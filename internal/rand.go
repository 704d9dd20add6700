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

// Rand is a small linear congruential random number generator. Its
// stream is fixed by the seed and does not depend on the Go release,
// so permutation-based statistics are reproducible.
type Rand struct {
	seed int64
}

const (
	multiplier = 0x5DEECE66D
	addend     = 0xB
	bits       = 31
	mask       = (1 << 48) - 1
)

// NewRand returns a random number generator for the given seed.
func NewRand(seed int64) *Rand {
	return &Rand{seed: (seed ^ multiplier) & mask}
}

// Int31 produces the next int32.
func (r *Rand) Int31() int32 {
	r.seed = (r.seed*multiplier + addend) & mask
	b := uint(48 - bits)
	return int32((r.seed >> b) + (2 << ^b))
}

// Int31n produces the next int32 bounded by n.
func (r *Rand) Int31n(n int32) int32 {
	l := r.Int31()
	m := n - 1
	if (n & m) == 0 {
		l = int32((int(n) * int(l)) >> 31)
	} else {
		u := l
		for {
			l = u % n
			if u-l+m >= 0 {
				break
			}
			u = r.Int31()
		}
	}
	return l
}

// Shuffle performs a Fisher-Yates shuffle over n elements.
func (r *Rand) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := int(r.Int31n(int32(i + 1)))
		swap(i, j)
	}
}

// Perm returns a shuffled slice of the integers 0..n-1.
func (r *Rand) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	r.Shuffle(n, func(i, j int) {
		p[i], p[j] = p[j], p[i]
	})
	return p
}
