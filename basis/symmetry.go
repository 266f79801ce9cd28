/*
 * symmetry.go, part of dfdct.
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
	"strings"

	"github.com/pkg/errors"
	"github.com/rmera/dfdct/symm"
	"gonum.org/v1/gonum/mat"
)

//Operation is the non-identity operation of an order-2 point group.
type Operation string

const (
	C1 Operation = "c1" //no operation, one irrep
	Ci Operation = "ci" //inversion through the origin
	Cs Operation = "cs" //reflection through the xy plane
	C2 Operation = "c2" //rotation by pi around z
)

//ParseOperation reads the point group name.
func ParseOperation(s string) (Operation, error) {
	o := Operation(strings.ToLower(strings.TrimSpace(s)))
	switch o {
	case C1, Ci, Cs, C2:
		return o, nil
	}
	return C1, errors.Errorf("unsupported point group %q, use c1, ci, cs or c2", s)
}

//NIrrep returns the number of irreps of the group.
func (O Operation) NIrrep() int {
	if O == C1 {
		return 1
	}
	return 2
}

//Apply returns the image of r under the operation.
func (O Operation) Apply(r [3]float64) [3]float64 {
	switch O {
	case Ci:
		return [3]float64{-r[0], -r[1], -r[2]}
	case Cs:
		return [3]float64{r[0], r[1], -r[2]}
	case C2:
		return [3]float64{-r[0], -r[1], r[2]}
	}
	return r
}

//AtomMap returns, for each atom, the index of the atom it is sent to by the operation.
//It fails if the molecule is not symmetric within tol bohr.
func (O Operation) AtomMap(mol *Molecule, tol float64) ([]int, error) {
	m := make([]int, mol.Len())
	for i, a := range mol.Atoms {
		img := O.Apply(a.Coord)
		m[i] = -1
		for j, b := range mol.Atoms {
			if a.Symbol == b.Symbol && dist2(img, b.Coord) < tol*tol {
				m[i] = j
				break
			}
		}
		if m[i] < 0 {
			return nil, errors.Errorf("atom %d (%s) has no image under %s", i, a.Symbol, O)
		}
	}
	return m, nil
}

//AOToSO returns the AO->SO coefficients of B, as a matrix with nao rows in every irrep and
//the number of SOs of each irrep as columns. For C1 it is the identity. For the order-2
//groups, each pair of functions exchanged by the operation gives one symmetric and one
//antisymmetric combination, and functions sent onto themselves (s functions on atoms
//on the symmetry element) are symmetric.
func AOToSO(O Operation, mol *Molecule, B *Set) (*symm.Matrix, error) {
	nao := B.NBF()
	if O == C1 {
		U := symm.NewMatrix("AO->SO", symm.Dimension{nao}, symm.Dimension{nao}, 0)
		for i := 0; i < nao; i++ {
			U.Set(0, i, i, 1)
		}
		return U, nil
	}
	atoms, err := O.AtomMap(mol, 1e-6)
	if err != nil {
		return nil, err
	}
	//functions are matched by their position among the shells of each atom
	fmap := make([]int, nao)
	for at, img := range atoms {
		from, to := B.ShellsOnAtom(at), B.ShellsOnAtom(img)
		if len(from) != len(to) {
			return nil, errors.Errorf("atoms %d and %d carry different basis functions", at, img)
		}
		for k := range from {
			fmap[B.FunctionOffset(from[k])] = B.FunctionOffset(to[k])
		}
	}
	type column struct{ f, g int }
	var sym, anti []column
	for f, g := range fmap {
		switch {
		case f == g:
			sym = append(sym, column{f, g})
		case f < g:
			sym = append(sym, column{f, g})
			anti = append(anti, column{f, g})
		}
	}
	U := symm.NewMatrix("AO->SO", symm.Uniform(2, nao), symm.Dimension{len(sym), len(anti)}, 0)
	r := 1 / math.Sqrt2
	for j, c := range sym {
		if c.f == c.g {
			U.Set(0, c.f, j, 1)
			continue
		}
		U.Set(0, c.f, j, r)
		U.Set(0, c.g, j, r)
	}
	for j, c := range anti {
		U.Set(1, c.f, j, r)
		U.Set(1, c.g, j, -r)
	}
	return U, nil
}

//OverlapSO returns the overlap matrix of B in the SO basis given by U.
func OverlapSO(B *Set, U *symm.Matrix) *symm.Matrix {
	nao := B.NBF()
	S := symm.NewMatrix("S AO", symm.Dimension{nao}, symm.Dimension{nao}, 0)
	for i := 0; i < B.NShell(); i++ {
		for j := 0; j <= i; j++ {
			v := Overlap(B, i, B, j)
			S.Set(0, B.FunctionOffset(i), B.FunctionOffset(j), v)
			S.Set(0, B.FunctionOffset(j), B.FunctionOffset(i), v)
		}
	}
	nirrep := U.NIrrep()
	Sso := symm.NewMatrix("S SO", U.Colspi(), U.Colspi(), 0)
	for h := 0; h < nirrep; h++ {
		Uh := U.Dense(h)
		if Uh == nil {
			continue
		}
		var tmp mat.Dense
		tmp.Mul(S.Dense(0), Uh)
		Sso.Dense(h).Mul(Uh.T(), &tmp)
	}
	return Sso
}
