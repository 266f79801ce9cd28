/*
 * transform.go, part of dfdct.
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

package df

import (
	"context"

	"github.com/rmera/dfdct/symm"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

//AO2SO transforms the AO B tensor bao (one irrep, nQ x nao*nao) to the SO basis, with the
//AO->SO coefficients U (nao x nsopi[h] in irrep h). The result has nQ rows in every irrep
//and the SO pairs of BlockLayout(nsopi, nsopi) as columns.
func (E *Engine) AO2SO(ctx context.Context, bao, U *symm.Matrix) (*symm.Matrix, error) {
	defer Timer(E.log, "B AO -> SO")()
	if bao.NIrrep() != 1 {
		return nil, symm.Errorf(symm.ErrSymmetry, "AO2SO", "the AO tensor %s has %d irreps", bao.Name(), bao.NIrrep())
	}
	nQ := bao.Rows(0)
	nirrep := U.NIrrep()
	nao := U.Rows(0)
	if bao.Cols(0) != nao*nao {
		return nil, symm.Errorf(symm.ErrShape, "AO2SO", "%s has %d columns for %d AOs", bao.Name(), bao.Cols(0), nao)
	}
	nsopi := U.Colspi()
	L := symm.NewBlockLayout(nsopi, nsopi)
	so := symm.NewMatrix(bao.Name()+" (SO)", symm.Uniform(nirrep, nQ), L.Dims(), 0)
	for h := 0; h < nirrep; h++ {
		for hm := 0; hm < nirrep; hm++ {
			hn := h ^ hm
			if nsopi[hm] == 0 || nsopi[hn] == 0 {
				continue
			}
			//first half: (nQ*nao x nao) . U[hn]
			tmp := make([]float64, nQ*nao*nsopi[hn])
			blas64.Gemm(blas.NoTrans, blas.NoTrans, 1, sub(bao.Block(0).Data, 0, nQ*nao, nao), U.Block(hn), 0, sub(tmp, 0, nQ*nao, nsopi[hn]))
			off := L.Offset(h, hm)
			err := E.pool.For(ctx, nQ, func(_, Q int) error {
				dst := sub(so.Row(h, Q), off, nsopi[hm], nsopi[hn])
				blas64.Gemm(blas.Trans, blas.NoTrans, 1, U.Block(hm), sub(tmp, Q*nao*nsopi[hn], nao, nsopi[hn]), 0, dst)
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return so, nil
}

//SO2AO transforms a three-index quantity from the SO basis back to the AO basis. It is the
//transpose of AO2SO, so for an orthogonal U it undoes it.
func (E *Engine) SO2AO(ctx context.Context, so, U *symm.Matrix) (*symm.Matrix, error) {
	defer Timer(E.log, "SO -> AO")()
	nirrep := U.NIrrep()
	if so.NIrrep() != nirrep || so.Symmetry() != 0 {
		return nil, symm.Errorf(symm.ErrSymmetry, "SO2AO", "%s has %d irreps and symmetry %d, the SOs have %d irreps", so.Name(), so.NIrrep(), so.Symmetry(), nirrep)
	}
	nQ, nao := so.Rows(0), U.Rows(0)
	nsopi := U.Colspi()
	L := symm.NewBlockLayout(nsopi, nsopi)
	if !so.Colspi().Equal(L.Dims()) || !so.Rowspi().Equal(symm.Uniform(nirrep, nQ)) {
		return nil, symm.Errorf(symm.ErrShape, "SO2AO", "%s is %v x %v, the SO pairs are %v", so.Name(), so.Rowspi(), so.Colspi(), L.Dims())
	}
	ao := symm.NewMatrix("AO basis quantity", symm.Dimension{nQ}, symm.Dimension{nao * nao}, 0)
	arena := NewArena(E.pool.Threads(), nsopi.Max()*nao)
	for h := 0; h < nirrep; h++ {
		for hm := 0; hm < nirrep; hm++ {
			hn := h ^ hm
			morbs, norbs := nsopi[hm], nsopi[hn]
			if morbs == 0 || norbs == 0 {
				continue
			}
			off := L.Offset(h, hm)
			err := E.pool.For(ctx, nQ, func(w, Q int) error {
				tmp := sub(arena.Scratch(w, morbs*nao), 0, morbs, nao)
				blas64.Gemm(blas.NoTrans, blas.Trans, 1, sub(so.Row(h, Q), off, morbs, norbs), U.Block(hn), 0, tmp)
				blas64.Gemm(blas.NoTrans, blas.NoTrans, 1, U.Block(hm), tmp, 1, sub(ao.Row(0, Q), 0, nao, nao))
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return ao, nil
}

//PrimaryTransformGemm computes, for every auxiliary index Q and every pair irrep,
//result(Q|pq) = alpha sum_mn left(m,p) right(n,q) three(Q|mn) + beta result(Q|pq).
//All operands must be totally symmetric, with the same irrep count, and three and
//result must have the same rows. The columns of three must be the pairs
//of BlockLayout(left.rows, right.rows), and those of result the pairs of
//BlockLayout(left.cols, right.cols). Irrep pairs with an empty side are left untouched.
func (E *Engine) PrimaryTransformGemm(ctx context.Context, three, left, right, result *symm.Matrix, alpha, beta float64) error {
	if three.Symmetry() != 0 || left.Symmetry() != 0 || right.Symmetry() != 0 || result.Symmetry() != 0 {
		return symm.Errorf(symm.ErrSymmetry, "PrimaryTransformGemm", "can only handle totally symmetric matrices")
	}
	nirrep := three.NIrrep()
	if left.NIrrep() != nirrep || right.NIrrep() != nirrep || result.NIrrep() != nirrep {
		return symm.Errorf(symm.ErrShape, "PrimaryTransformGemm", "the number of irreps differ")
	}
	if !three.Rowspi().Equal(result.Rowspi()) {
		return symm.Errorf(symm.ErrShape, "PrimaryTransformGemm", "%s and %s disagree on the number of auxiliary functions", three.Name(), result.Name())
	}
	in := symm.NewBlockLayout(left.Rowspi(), right.Rowspi())
	out := symm.NewBlockLayout(left.Colspi(), right.Colspi())
	for h := 0; h < nirrep; h++ {
		if in.Dims()[h] != three.Cols(h) {
			return symm.Errorf(symm.ErrShape, "PrimaryTransformGemm", "Dimension mismatch: %s has %d columns in irrep %d, the coefficients span %d", three.Name(), three.Cols(h), h, in.Dims()[h])
		}
		if out.Dims()[h] != result.Cols(h) {
			return symm.Errorf(symm.ErrShape, "PrimaryTransformGemm", "Dimension mismatch: %s has %d columns in irrep %d, the coefficients give %d", result.Name(), result.Cols(h), h, out.Dims()[h])
		}
	}
	scratch := 0
	for hL := 0; hL < nirrep; hL++ {
		for hR := 0; hR < nirrep; hR++ {
			scratch = max(scratch, left.Rows(hL)*right.Cols(hR))
		}
	}
	arena := NewArena(E.pool.Threads(), scratch)
	for h := 0; h < nirrep; h++ {
		for hL := 0; hL < nirrep; hL++ {
			hR := h ^ hL
			lr, lc, rr, rc := left.Rows(hL), left.Cols(hL), right.Rows(hR), right.Cols(hR)
			if lr == 0 || lc == 0 || rr == 0 || rc == 0 {
				continue
			}
			inOff, outOff := in.Offset(h, hL), out.Offset(h, hL)
			err := E.pool.For(ctx, three.Rows(h), func(w, Q int) error {
				tmp := sub(arena.Scratch(w, lr*rc), 0, lr, rc)
				blas64.Gemm(blas.NoTrans, blas.NoTrans, 1, sub(three.Row(h, Q), inOff, lr, rr), right.Block(hR), 0, tmp)
				blas64.Gemm(blas.Trans, blas.NoTrans, alpha, left.Block(hL), tmp, beta, sub(result.Row(h, Q), outOff, lc, rc))
				return nil
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

//PrimaryTransform returns a new tensor with three(Q|mn) transformed by left and right.
//See PrimaryTransformGemm.
func (E *Engine) PrimaryTransform(ctx context.Context, three, left, right *symm.Matrix) (*symm.Matrix, error) {
	out := symm.NewBlockLayout(left.Colspi(), right.Colspi())
	result := symm.NewMatrix("Three-Index Tensor", three.Rowspi(), out.Dims(), 0)
	if err := E.PrimaryTransformGemm(ctx, three, left, right, result, 1, 0); err != nil {
		return nil, err
	}
	return result, nil
}
