/*
 * metric.go, part of dfdct.
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
	"math"

	"github.com/rmera/dfdct"
	"github.com/rmera/dfdct/basis"
	"github.com/rmera/dfdct/store"
	"github.com/rmera/dfdct/symm"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

//EigenThreshold is the smallest metric eigenvalue kept when forming J^-1/2.
const EigenThreshold = 1e-12

//Metric is the result of FormJm12.
type Metric struct {
	Jm12        *symm.Matrix
	Eigenvalues []float64 //all the eigenvalues of J, ascending
	Retained    int
}

//Coulomb returns the two-center Coulomb metric J(P|Q) of aux, as a one-irrep matrix.
func (E *Engine) Coulomb(ctx context.Context, aux *basis.Set) (*symm.Matrix, error) {
	n := aux.NBF()
	J := symm.NewMatrix("J(P|Q)", symm.Dimension{n}, symm.Dimension{n}, 0)
	f := basis.NewFactory(aux, basis.Zero(), aux, basis.Zero())
	evals := make([]*basis.Evaluator, E.pool.Threads())
	for i := range evals {
		evals[i] = f.ERI()
	}
	err := E.pool.For(ctx, aux.NShell(), func(w, P int) error {
		oP, nP := aux.FunctionOffset(P), aux.Shell(P).NFunctions()
		for Q := 0; Q <= P; Q++ {
			oQ, nQ := aux.FunctionOffset(Q), aux.Shell(Q).NFunctions()
			buf := evals[w].ComputeShell(P, 0, Q, 0)
			for p := 0; p < nP; p++ {
				for q := 0; q < nQ; q++ {
					v := buf[p*nQ+q]
					J.Set(0, oP+p, oQ+q, v)
					J.Set(0, oQ+q, oP+p, v)
				}
			}
		}
		return nil
	})
	return J, err
}

//FormJm12 forms J^-1/2 for the auxiliary basis aux, from the eigendecomposition of J.
//Eigenvalues below EigenThreshold are dropped, so for a near-singular metric the
//result is the inverse square root over the retained space. The matrix is saved,
//as a lower triangle, under the name of the fitting.
func (E *Engine) FormJm12(ctx context.Context, aux *basis.Set, fit dfdct.Fitting) (*Metric, error) {
	n := aux.NBF()
	if n == 0 {
		return nil, symm.Errorf(symm.ErrShape, "FormJm12", "the %s auxiliary basis %q has no functions", fit, aux.Name())
	}
	defer Timer(E.log, "form J^-1/2 "+string(fit))()
	J, err := E.Coulomb(ctx, aux)
	if err != nil {
		return nil, err
	}
	var es mat.EigenSym
	if ok := es.Factorize(mat.NewSymDense(n, J.Block(0).Data), true); !ok {
		return nil, symm.Errorf(symm.ErrShape, "FormJm12", "eigendecomposition of the %s metric failed", fit)
	}
	vals := es.Values(nil)
	var V mat.Dense
	es.VectorsTo(&V)
	W := mat.DenseCopyOf(&V)
	retained := 0
	for k, l := range vals {
		f := 0.0
		if l > EigenThreshold {
			f = 1 / math.Sqrt(l)
			retained++
		}
		for i := 0; i < n; i++ {
			W.Set(i, k, W.At(i, k)*f)
		}
	}
	M := symm.NewMatrix(dfdct.JName(fit), symm.Dimension{n}, symm.Dimension{n}, 0)
	M.Dense(0).Mul(W, V.T())
	E.log.WithFields(logrus.Fields{"fitting": fit, "nQ": n, "retained": retained, "smallest": vals[0]}).Debug("metric eigenvalues")
	if err := E.save(M, store.LowerTriangle); err != nil {
		return nil, err
	}
	return &Metric{Jm12: M, Eigenvalues: vals, Retained: retained}, nil
}
