/*
 * orbitals.go, part of dfdct.
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

package dct

import (
	"fmt"
	"math"

	"github.com/rmera/dfdct"
	"github.com/rmera/dfdct/symm"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

//Spin labels the alpha and beta orbitals.
type Spin int

const (
	Alpha Spin = iota
	Beta
)

func (s Spin) String() string {
	if s == Alpha {
		return "alpha"
	}
	return "beta"
}

//Space is an orbital subspace.
type Space int

const (
	Occ Space = iota
	Vir
	All
)

//Orbitals holds the SO coefficients of both spins, nso x nmo per irrep, with the
//occupied orbitals first. For a restricted reference both spins share the alpha data.
type Orbitals struct {
	ref   dfdct.Reference
	nsopi symm.Dimension
	occ   [2]symm.Dimension
	c     [2]*symm.Matrix
}

//NewOrbitals builds the orbital set. Cb and occB are ignored for RHF, and can be nil.
func NewOrbitals(ref dfdct.Reference, Ca, Cb *symm.Matrix, occA, occB symm.Dimension) (*Orbitals, error) {
	if ref.Restricted() {
		Cb, occB = Ca, occA
	}
	if Ca == nil || Cb == nil {
		return nil, symm.Errorf(symm.ErrShape, "NewOrbitals", "missing coefficients for a %v reference", ref)
	}
	O := &Orbitals{ref: ref, nsopi: Ca.Rowspi(), occ: [2]symm.Dimension{occA.Copy(), occB.Copy()}, c: [2]*symm.Matrix{Ca, Cb}}
	for s, C := range O.c {
		if C.Symmetry() != 0 || !C.Rowspi().Equal(O.nsopi) || !C.Colspi().Equal(O.nsopi) {
			return nil, symm.Errorf(symm.ErrShape, "NewOrbitals", "%s coefficients are %v x %v, expected square blocks of %v", Spin(s), C.Rowspi(), C.Colspi(), O.nsopi)
		}
		if len(O.occ[s]) != len(O.nsopi) {
			return nil, symm.Errorf(symm.ErrShape, "NewOrbitals", "%s occupations %v for %d irreps", Spin(s), O.occ[s], len(O.nsopi))
		}
		for h, n := range O.occ[s] {
			if n < 0 || n > O.nsopi[h] {
				return nil, symm.Errorf(symm.ErrShape, "NewOrbitals", "%d %s occupied orbitals in irrep %d, which has %d", n, Spin(s), h, O.nsopi[h])
			}
		}
	}
	return O, nil
}

//Reference returns the reference type of the orbitals.
func (O *Orbitals) Reference() dfdct.Reference { return O.ref }

//Nsopi returns the SOs per irrep, which is also the orbital count per irrep.
func (O *Orbitals) Nsopi() symm.Dimension { return O.nsopi.Copy() }

//Dim returns the per-irrep size of a subspace.
func (O *Orbitals) Dim(s Spin, sp Space) symm.Dimension {
	switch sp {
	case Occ:
		return O.occ[s].Copy()
	case Vir:
		return O.nsopi.Sub(O.occ[s])
	}
	return O.nsopi.Copy()
}

//C returns the full coefficient matrix of a spin.
func (O *Orbitals) C(s Spin) *symm.Matrix { return O.c[s] }

//Subset returns the coefficients of a subspace, nso x n per irrep.
func (O *Orbitals) Subset(s Spin, sp Space) (*symm.Matrix, error) {
	start := symm.Uniform(len(O.nsopi), 0)
	if sp == Vir {
		start = O.occ[s].Copy()
	}
	return O.c[s].Columns(fmt.Sprintf("C %s %s", s, spaceNames[sp]), start, O.Dim(s, sp))
}

var spaceNames = [...]string{Occ: "occupied", Vir: "virtual", All: "all"}

//Occupations distributes n occupied orbitals over the irreps, in proportion to
//their sizes. The remainder goes to the first irreps with room left.
func Occupations(n int, nsopi symm.Dimension) (symm.Dimension, error) {
	total := nsopi.Sum()
	if n < 0 || n > total {
		return nil, symm.Errorf(symm.ErrShape, "Occupations", "%d occupied orbitals for %d SOs", n, total)
	}
	occ := make(symm.Dimension, len(nsopi))
	left := n
	for h, m := range nsopi {
		occ[h] = n * m / total
		left -= occ[h]
	}
	for h := 0; left > 0; h = (h + 1) % len(nsopi) {
		if occ[h] < nsopi[h] {
			occ[h]++
			left--
		}
	}
	return occ, nil
}

//SeededCoefficients returns reproducible orbital coefficients that are orthonormal
//in the metric S (the SO overlap): C = S^-1/2 Q, with Q the orthogonal factor of the QR
//decomposition of a random matrix.
func SeededCoefficients(S *symm.Matrix, seed uint64) (*symm.Matrix, error) {
	r := rand.New(rand.NewSource(seed))
	n := S.Rowspi()
	C := symm.NewMatrix("C (seeded)", n, n, 0)
	for h := range n {
		if n[h] == 0 {
			continue
		}
		var es mat.EigenSym
		if ok := es.Factorize(mat.NewSymDense(n[h], mat.DenseCopyOf(S.Dense(h)).RawMatrix().Data), true); !ok {
			return nil, symm.Errorf(symm.ErrShape, "SeededCoefficients", "eigendecomposition of the overlap failed in irrep %d", h)
		}
		vals := es.Values(nil)
		var V mat.Dense
		es.VectorsTo(&V)
		W := mat.DenseCopyOf(&V)
		for k, l := range vals {
			if l <= 0 {
				return nil, symm.Errorf(symm.ErrShape, "SeededCoefficients", "the overlap is not positive definite in irrep %d", h)
			}
			f := 1 / math.Sqrt(l)
			for i := 0; i < n[h]; i++ {
				W.Set(i, k, W.At(i, k)*f)
			}
		}
		var Sm12 mat.Dense
		Sm12.Mul(W, V.T())
		R := mat.NewDense(n[h], n[h], nil)
		for i := 0; i < n[h]; i++ {
			for j := 0; j < n[h]; j++ {
				R.Set(i, j, r.Float64()-0.5)
			}
		}
		var qr mat.QR
		qr.Factorize(R)
		var Q mat.Dense
		qr.QTo(&Q)
		C.Dense(h).Mul(&Sm12, &Q)
	}
	return C, nil
}
