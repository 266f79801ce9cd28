/*
 * contract.go, part of dfdct.
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
	"github.com/rmera/dfdct/symm"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

//Blocks is a four-index quantity that is read one irrep at a time.
//A *store.Buffer is one.
type Blocks interface {
	Name() string
	NIrrep() int
	RowTot(h int) int
	ColTot(h int) int
	ReadIrrep(h int) error
	Irrep(h int) blas64.General
	CloseIrrep(h int)
}

//InMemory wraps an in-memory four-index quantity as Blocks.
func InMemory(Q *symm.Quad) Blocks { return quadBlocks{Q} }

type quadBlocks struct {
	*symm.Quad
}

func (q quadBlocks) RowTot(h int) int { return q.Rows(h) }
func (q quadBlocks) ColTot(h int) int { return q.Cols(h) }
func (q quadBlocks) ReadIrrep(h int) error { return nil }
func (q quadBlocks) Irrep(h int) blas64.General { return q.Block(h) }
func (q quadBlocks) CloseIrrep(h int) {}

//Contract343 computes result[h] = alpha b[h] op(G[h]) + beta result[h], where op
//transposes G if transpose is true. b and result are three-index
//quantities with the same rows, G is a four-index one.
func Contract343(b *symm.Matrix, G Blocks, result *symm.Matrix, transpose bool, alpha, beta float64) error {
	nirrep := b.NIrrep()
	if G.NIrrep() != nirrep || result.NIrrep() != nirrep {
		return symm.Errorf(symm.ErrShape, "Contract343", "irreps: %d, %d, %d", nirrep, G.NIrrep(), result.NIrrep())
	}
	if !b.Rowspi().Equal(result.Rowspi()) {
		return symm.Errorf(symm.ErrShape, "Contract343", "%s has %v rows, %s has %v", b.Name(), b.Rowspi(), result.Name(), result.Rowspi())
	}
	tG := blas.NoTrans
	if transpose {
		tG = blas.Trans
	}
	for h := 0; h < nirrep; h++ {
		K, N := G.RowTot(h), G.ColTot(h)
		if transpose {
			K, N = N, K
		}
		if b.Cols(h) != K || result.Cols(h) != N {
			return symm.Errorf(symm.ErrShape, "Contract343", "irrep %d: %s has %d columns and %s %d, %s is %d x %d (transposed: %v)",
				h, b.Name(), b.Cols(h), result.Name(), result.Cols(h), G.Name(), G.RowTot(h), G.ColTot(h), transpose)
		}
		if b.Rows(h) == 0 || N == 0 {
			continue
		}
		if K == 0 {
			result.Dense(h).Scale(beta, result.Dense(h))
			continue
		}
		if err := G.ReadIrrep(h); err != nil {
			return err
		}
		blas64.Gemm(blas.NoTrans, tG, alpha, b.Block(h), G.Irrep(h), beta, result.Block(h))
		G.CloseIrrep(h)
	}
	return nil
}

//Contract233 returns J^T B[h] for every irrep h of B. J has one irrep.
func Contract233(J, B *symm.Matrix) (*symm.Matrix, error) {
	if J.NIrrep() != 1 {
		return nil, symm.Errorf(symm.ErrSymmetry, "Contract233", "%s has %d irreps", J.Name(), J.NIrrep())
	}
	nirrep := B.NIrrep()
	R := symm.NewMatrix("Contract233", symm.Uniform(nirrep, J.Cols(0)), B.Colspi(), 0)
	for h := 0; h < nirrep; h++ {
		if B.Cols(h) == 0 {
			continue
		}
		if B.Rows(h) != J.Rows(0) {
			return nil, symm.Errorf(symm.ErrShape, "Contract233", "irrep %d: %s has %d rows, %s %d", h, B.Name(), B.Rows(h), J.Name(), J.Rows(0))
		}
		blas64.Gemm(blas.Trans, blas.NoTrans, 1, J.Block(0), B.Block(h), 0, R.Block(h))
	}
	return R, nil
}

//Contract123 returns the outer product of the auxiliary vector Q (1 x nQ, one irrep)
//and the totally symmetric matrix G, as a three-index quantity with nQ rows in every
//irrep and the pairs of BlockLayout(G.rows, G.cols) as columns. Only the totally
//symmetric pair irrep is non-zero.
func Contract123(Q, G *symm.Matrix) (*symm.Matrix, error) {
	if Q.NIrrep() != 1 || Q.Rows(0) != 1 {
		return nil, symm.Errorf(symm.ErrShape, "Contract123", "%s must be a single row, it is %v x %v", Q.Name(), Q.Rowspi(), Q.Colspi())
	}
	if G.Symmetry() != 0 {
		return nil, symm.Errorf(symm.ErrSymmetry, "Contract123", "%s has symmetry %d", G.Name(), G.Symmetry())
	}
	nQ, nirrep := Q.Cols(0), G.NIrrep()
	L := symm.NewBlockLayout(G.Rowspi(), G.Colspi())
	R := symm.NewMatrix("Contract123", symm.Uniform(nirrep, nQ), L.Dims(), 0)
	q := blas64.Vector{N: nQ, Inc: 1, Data: Q.Row(0, 0)}
	for h := 0; h < nirrep; h++ {
		r, c := G.Rows(h), G.Cols(h)
		if r*c == 0 || nQ == 0 {
			continue
		}
		vec := blas64.Vector{N: r * c, Inc: 1, Data: denseData(G.Block(h))}
		dst := R.View(0, 0, L.Offset(0, h), nQ, r*c)
		blas64.Ger(1, q, vec, dst)
	}
	return R, nil
}

//denseData returns the elements of b, row after row.
func denseData(b blas64.General) []float64 {
	if b.Stride == b.Cols {
		return b.Data[:b.Rows*b.Cols]
	}
	d := make([]float64, 0, b.Rows*b.Cols)
	for i := 0; i < b.Rows; i++ {
		d = append(d, b.Data[i*b.Stride:i*b.Stride+b.Cols]...)
	}
	return d
}
