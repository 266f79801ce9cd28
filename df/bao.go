/*
 * bao.go, part of dfdct.
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

	"github.com/rmera/dfdct"
	"github.com/rmera/dfdct/basis"
	"github.com/rmera/dfdct/store"
	"github.com/rmera/dfdct/symm"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

//auxBlocks splits the auxiliary shells in blocks of at most maxRows functions.
//It returns the first shell of each block, and the shell count as the last element.
func auxBlocks(aux *basis.Set, maxRows int) []int {
	starts := []int{0}
	counter := 0
	for P := 0; P < aux.NShell(); P++ {
		nP := aux.Shell(P).NFunctions()
		if counter+nP > maxRows && counter > 0 {
			counter = 0
			starts = append(starts, P)
		}
		counter += nP
	}
	return append(starts, aux.NShell())
}

//FormBAO builds the AO B tensor b(Q|mn) = sum_P J^-1/2(Q,P) (P|mn) for the primary basis
//and the auxiliary basis aux, given J^-1/2 for aux. The result has one irrep, nQ rows and
//nao*nao columns, and is saved, by blocks, under the name of the fitting.
func (E *Engine) FormBAO(ctx context.Context, primary, aux *basis.Set, Jm12 *symm.Matrix, fit dfdct.Fitting) (*symm.Matrix, error) {
	defer Timer(E.log, "form B(Q|mn) "+string(fit))()
	nQ, nso := aux.NBF(), primary.NBF()
	if Jm12.NIrrep() != 1 || Jm12.Rows(0) != nQ || Jm12.Cols(0) != nQ {
		return nil, symm.Errorf(symm.ErrShape, "FormBAO", "J^-1/2 is %vx%v, the auxiliary basis has %d functions", Jm12.Rowspi(), Jm12.Colspi(), nQ)
	}
	type shellPair struct{ M, N int }
	var pairs []shellPair
	for M := 0; M < primary.NShell(); M++ {
		for N := 0; N <= M; N++ {
			pairs = append(pairs, shellPair{M, N})
		}
	}
	npairs := len(pairs)
	raw := make([]float64, nQ*nso*nso)
	f := basis.NewFactory(aux, basis.Zero(), primary, primary)
	evals := make([]*basis.Evaluator, E.pool.Threads())
	for i := range evals {
		evals[i] = f.ERI()
	}
	//Only one block while the whole raw tensor is kept in memory.
	maxRows := aux.NShell()
	starts := auxBlocks(aux, maxRows)
	E.log.WithFields(logrus.Fields{"fitting": fit, "nQ": nQ, "nso": nso, "pairs": npairs, "blocks": len(starts) - 1}).Debug("three-center integrals")
	for b := 0; b < len(starts)-1; b++ {
		Pstart, NP := starts[b], starts[b+1]-starts[b]
		err := E.pool.For(ctx, NP*npairs, func(w, PMN int) error {
			P := Pstart + PMN/npairs
			M, N := pairs[PMN%npairs].M, pairs[PMN%npairs].N
			buf := evals[w].ComputeShell(P, 0, M, N)
			oP, nP := aux.FunctionOffset(P), aux.Shell(P).NFunctions()
			oM, nM := primary.FunctionOffset(M), primary.Shell(M).NFunctions()
			oN, nN := primary.FunctionOffset(N), primary.Shell(N).NFunctions()
			index := 0
			for p := 0; p < nP; p++ {
				row := raw[(oP+p)*nso*nso:]
				for m := 0; m < nM; m++ {
					for n := 0; n < nN; n++ {
						row[(oM+m)*nso+oN+n] = buf[index]
						row[(oN+n)*nso+oM+m] = buf[index]
						index++
					}
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	B := symm.NewMatrix(dfdct.BName(fit), symm.Dimension{nQ}, symm.Dimension{nso * nso}, 0)
	blas64.Gemm(blas.NoTrans, blas.NoTrans, 1, Jm12.Block(0), sub(raw, 0, nQ, nso*nso), 0, B.Block(0))
	if err := E.save(B, store.SubBlocks); err != nil {
		return nil, err
	}
	return B, nil
}
