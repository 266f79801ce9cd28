/*
 * dimension.go, part of dfdct.
 *
 * Copyright 2024 The dfdct Authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package symm

import (
	"fmt"
	"strings"
)

//Dimension is a vector with one count per irrep.
type Dimension []int

//Uniform returns a Dimension over nirrep irreps with the value n in every irrep.
//It is what the auxiliary index of a B tensor looks like.
func Uniform(nirrep, n int) Dimension {
	D := make(Dimension, nirrep)
	for i := range D {
		D[i] = n
	}
	return D
}

//Sum returns the total count over all irreps.
func (D Dimension) Sum() int {
	s := 0
	for _, v := range D {
		s += v
	}
	return s
}

//Max returns the largest per-irrep count, 0 for an empty Dimension.
func (D Dimension) Max() int {
	m := 0
	for _, v := range D {
		if v > m {
			m = v
		}
	}
	return m
}

//Equal returns true if both Dimensions have the same irrep count and the same values.
func (D Dimension) Equal(E Dimension) bool {
	if len(D) != len(E) {
		return false
	}
	for i, v := range D {
		if E[i] != v {
			return false
		}
	}
	return true
}

//Copy returns a fresh copy of D.
func (D Dimension) Copy() Dimension {
	r := make(Dimension, len(D))
	copy(r, D)
	return r
}

//Add returns D+E. It panics if the irrep counts differ.
func (D Dimension) Add(E Dimension) Dimension {
	if len(D) != len(E) {
		panic(ErrShape)
	}
	r := D.Copy()
	for i, v := range E {
		r[i] += v
	}
	return r
}

//Sub returns D-E. It panics if the irrep counts differ.
func (D Dimension) Sub(E Dimension) Dimension {
	if len(D) != len(E) {
		panic(ErrShape)
	}
	r := D.Copy()
	for i, v := range E {
		r[i] -= v
	}
	return r
}

func (D Dimension) String() string {
	s := make([]string, len(D))
	for i, v := range D {
		s[i] = fmt.Sprint(v)
	}
	return "[ " + strings.Join(s, " ") + " ]"
}
