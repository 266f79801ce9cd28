/*
 * basis.go, part of dfdct.
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

package basis

import (
	"math"

	"github.com/pkg/errors"
)

//Shell is a contracted Gaussian shell. Coefs already include the
//normalization of the primitives and of the contraction.
//Only s shells (L=0) are supported by the integral engine.
type Shell struct {
	L      int
	Atom   int
	Center [3]float64
	Exps   []float64
	Coefs  []float64
}

//NFunctions returns the number of basis functions in the shell.
func (S *Shell) NFunctions() int { return 2*S.L + 1 }

//Set is a basis set placed on a molecule.
type Set struct {
	name    string
	shells  []*Shell
	offsets []int
	nbf     int
}

//NewSet builds a basis set from already normalized shells.
func NewSet(name string, shells []*Shell) (*Set, error) {
	B := &Set{name: name, shells: shells, offsets: make([]int, len(shells))}
	for i, s := range shells {
		if s.L != 0 {
			return nil, errors.Errorf("basis %s: shell %d has L=%d, only s shells are supported", name, i, s.L)
		}
		if len(s.Exps) != len(s.Coefs) || len(s.Exps) == 0 {
			return nil, errors.Errorf("basis %s: shell %d has %d exponents and %d coefficients", name, i, len(s.Exps), len(s.Coefs))
		}
		B.offsets[i] = B.nbf
		B.nbf += s.NFunctions()
	}
	return B, nil
}

//Zero returns the placeholder basis: one shell with a single exponent-0 primitive
//at the origin, i.e. the constant function 1. Using it as a center turns the
//four-center formula into the two- and three-center ones.
func Zero() *Set {
	return &Set{name: "zero", shells: []*Shell{{Exps: []float64{0}, Coefs: []float64{1}}}, offsets: []int{0}, nbf: 1}
}

//Name returns the name of the basis set
func (B *Set) Name() string { return B.name }

//NShell returns the number of shells.
func (B *Set) NShell() int { return len(B.shells) }

//NBF returns the number of basis functions.
func (B *Set) NBF() int { return B.nbf }

//Shell returns the ith shell. It must not be modified.
func (B *Set) Shell(i int) *Shell { return B.shells[i] }

//FunctionOffset returns the index of the first basis function of shell i.
func (B *Set) FunctionOffset(i int) int { return B.offsets[i] }

//ShellsOnAtom returns the indexes of the shells centered on the atom at.
func (B *Set) ShellsOnAtom(at int) []int {
	var r []int
	for i, s := range B.shells {
		if s.Atom == at {
			r = append(r, i)
		}
	}
	return r
}

//primitiveNorm is the normalization of an s primitive.
func primitiveNorm(a float64) float64 {
	return math.Pow(2*a/math.Pi, 0.75)
}

//NormalizeS returns a normalized s shell from raw exponents and contraction
//coefficients, which refer to normalized primitives.
func NormalizeS(atom int, center [3]float64, exps, coefs []float64) *Shell {
	s := &Shell{Atom: atom, Center: center, Exps: append([]float64(nil), exps...), Coefs: make([]float64, len(coefs))}
	for k := range coefs {
		s.Coefs[k] = coefs[k] * primitiveNorm(exps[k])
	}
	self := 0.0
	for k := range exps {
		for l := range exps {
			self += s.Coefs[k] * s.Coefs[l] * math.Pow(math.Pi/(exps[k]+exps[l]), 1.5)
		}
	}
	f := 1 / math.Sqrt(self)
	for k := range s.Coefs {
		s.Coefs[k] *= f
	}
	return s
}
