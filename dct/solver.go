/*
 * solver.go, part of dfdct.
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
	"context"

	"github.com/pkg/errors"
	"github.com/rmera/dfdct"
	"github.com/rmera/dfdct/basis"
	"github.com/rmera/dfdct/df"
	"github.com/rmera/dfdct/store"
	"github.com/rmera/dfdct/symm"
	"github.com/sirupsen/logrus"
)

//Bases are the basis sets of a calculation and the AO->SO transformation of the primary one.
type Bases struct {
	Primary     *basis.Set
	Correlation *basis.Set //DF_BASIS_DCT
	Reference   *basis.Set //DF_BASIS_SCF
	U           *symm.Matrix
}

func (B Bases) aux(fit dfdct.Fitting) *basis.Set {
	if fit == dfdct.FitReference {
		return B.Reference
	}
	return B.Correlation
}

//Solver drives the density-fitted integral and density steps of a DCT calculation.
type Solver struct {
	E        *df.Engine
	st       *store.Store
	log      logrus.FieldLogger
	bases    Bases
	metrics  map[dfdct.Fitting]*df.Metric
	bSO      map[dfdct.Fitting]*symm.Matrix
	orb      *Orbitals
	cache    *TensorCache[*symm.Matrix]
	MemoryMB float64 //memory budget, in MB
}

//NewSolver returns a solver over the given bases. The store is required, log can be nil.
func NewSolver(pool *df.Pool, st *store.Store, log logrus.FieldLogger, B Bases, memoryMB float64) (*Solver, error) {
	if st == nil {
		return nil, errors.New("NewSolver: a store is required")
	}
	if B.Primary == nil || B.Correlation == nil || B.Reference == nil || B.U == nil {
		return nil, errors.New("NewSolver: missing basis set or AO->SO transformation")
	}
	if B.U.Rows(0) != B.Primary.NBF() {
		return nil, symm.Errorf(symm.ErrShape, "NewSolver", "the AO->SO matrix has %d rows for %d basis functions", B.U.Rows(0), B.Primary.NBF())
	}
	if log == nil {
		log = df.Discard()
	}
	return &Solver{
		E:        df.NewEngine(pool, st, log),
		st:       st,
		log:      log,
		bases:    B,
		metrics:  make(map[dfdct.Fitting]*df.Metric),
		bSO:      make(map[dfdct.Fitting]*symm.Matrix),
		cache:    NewTensorCache[*symm.Matrix](),
		MemoryMB: memoryMB,
	}, nil
}

//Store returns the integral store of the solver.
func (S *Solver) Store() *store.Store { return S.st }

//Orbitals returns the current orbitals, or nil.
func (S *Solver) Orbitals() *Orbitals { return S.orb }

//SetOrbitals replaces the orbitals. Every cached MO tensor is dropped.
func (S *Solver) SetOrbitals(O *Orbitals) error {
	if !O.Nsopi().Equal(S.bases.U.Colspi()) {
		return symm.Errorf(symm.ErrShape, "SetOrbitals", "orbitals for %v SOs, the basis has %v", O.Nsopi(), S.bases.U.Colspi())
	}
	S.orb = O
	S.cache.Invalidate()
	S.log.WithFields(logrus.Fields{"reference": O.Reference(), "occA": O.Dim(Alpha, Occ), "occB": O.Dim(Beta, Occ)}).Debug("orbitals updated")
	return nil
}

//Metric returns the metric of a fitting, once BuildB has run.
func (S *Solver) Metric(fit dfdct.Fitting) *df.Metric { return S.metrics[fit] }

//BSO returns the SO B tensor of a fitting, once BuildB has run.
func (S *Solver) BSO(fit dfdct.Fitting) *symm.Matrix { return S.bSO[fit] }

//BuildB forms, for both fittings, J^-1/2 and the AO B tensor, and transforms the latter
//to the SO basis.
func (S *Solver) BuildB(ctx context.Context) error {
	defer df.Timer(S.log, "build B")()
	for _, fit := range []dfdct.Fitting{dfdct.FitCorrelation, dfdct.FitReference} {
		aux := S.bases.aux(fit)
		M, err := S.E.FormJm12(ctx, aux, fit)
		if err != nil {
			return errors.Wrapf(err, "%s metric", fit)
		}
		bao, err := S.E.FormBAO(ctx, S.bases.Primary, aux, M.Jm12, fit)
		if err != nil {
			return errors.Wrapf(err, "%s B tensor", fit)
		}
		so, err := S.E.AO2SO(ctx, bao, S.bases.U)
		if err != nil {
			return errors.Wrapf(err, "%s B tensor", fit)
		}
		S.metrics[fit] = M
		S.bSO[fit] = so
	}
	S.cache.Invalidate()
	return nil
}

//Sizes returns the dimensions that enter the memory estimate.
func (S *Solver) Sizes() df.Sizes {
	s := df.Sizes{NSO: S.bases.Primary.NBF(), NQ: S.bases.Correlation.NBF()}
	if S.orb != nil {
		s.NAlpha = S.orb.Dim(Alpha, Occ).Sum()
		vir := S.orb.Dim(Alpha, Vir)
		s.NAVir, s.NAVirMax = vir.Sum(), vir.Max()
	}
	return s
}

//TransformB computes the MO B tensors of the (O,O), (O,V), (V,V) and (all,all) pairs,
//for the alpha and, for UHF, the beta orbitals.
func (S *Solver) TransformB(ctx context.Context) error {
	defer df.Timer(S.log, "transform B")()
	if S.orb == nil {
		return errors.New("TransformB: no orbitals")
	}
	S.E.CheckMemory(S.orb.Reference(), S.Sizes(), S.MemoryMB)
	keys := []Key{IJA, IAA, ABA, PQA}
	if !S.orb.Reference().Restricted() {
		keys = append(keys, IJB, IAB, ABB, PQB)
	}
	for _, k := range keys {
		if _, err := S.B(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

//B returns the MO B tensor k, from the correlation fitting, computing it if needed.
//For RHF the beta tensors are the alpha ones.
func (S *Solver) B(ctx context.Context, k Key) (*symm.Matrix, error) {
	if S.orb == nil {
		return nil, errors.Errorf("B(Q|%s): no orbitals", k)
	}
	if S.orb.Reference().Restricted() {
		k = k.Alpha()
	}
	if k == AIA || k == AIB {
		ia, err := S.B(ctx, "ia"+k[len(k)-1:])
		if err != nil {
			return nil, err
		}
		s := k.Spin()
		return S.cache.GetOrCompute(k, func() (*symm.Matrix, error) {
			return PermuteAI(ia, S.orb.Dim(s, Occ), S.orb.Dim(s, Vir))
		})
	}
	return S.cache.GetOrCompute(k, func() (*symm.Matrix, error) {
		return S.transform(ctx, k)
	})
}

func (S *Solver) transform(ctx context.Context, k Key) (*symm.Matrix, error) {
	b := S.bSO[dfdct.FitCorrelation]
	if b == nil {
		return nil, errors.Errorf("B(Q|%s): BuildB has not run", k)
	}
	s := k.Spin()
	l, r := k.Spaces()
	left, err := S.orb.Subset(s, l)
	if err != nil {
		return nil, err
	}
	right, err := S.orb.Subset(s, r)
	if err != nil {
		return nil, err
	}
	mo, err := S.E.PrimaryTransform(ctx, b, left, right)
	if err != nil {
		return nil, errors.Wrapf(err, "B(Q|%s)", k)
	}
	mo.SetName(keyName(k))
	S.log.WithFields(logrus.Fields{"tensor": mo.Name(), "cols": mo.Colspi()}).Debug("MO B tensor")
	return mo, nil
}

func keyName(k Key) string {
	return "b(Q|" + string(k[:len(k)-1]) + ") " + k.Spin().String()
}

//PermuteAI returns b(Q|ai) from b(Q|ia) by reordering the columns of every
//pair irrep. occ and vir are the orbital counts per irrep.
func PermuteAI(ia *symm.Matrix, occ, vir symm.Dimension) (*symm.Matrix, error) {
	iaL := symm.NewBlockLayout(occ, vir)
	aiL := symm.NewBlockLayout(vir, occ)
	if !ia.Colspi().Equal(iaL.Dims()) {
		return nil, symm.Errorf(symm.ErrShape, "PermuteAI", "%s has %v columns, the (O,V) pairs are %v", ia.Name(), ia.Colspi(), iaL.Dims())
	}
	name := ia.Name()
	if len(name) > 6 && name[:6] == "b(Q|ia" {
		name = "b(Q|ai" + name[6:]
	}
	ai := symm.NewMatrix(name, ia.Rowspi(), aiL.Dims(), 0)
	nirrep := len(occ)
	for h := 0; h < nirrep; h++ {
		for hi := 0; hi < nirrep; hi++ {
			ha := h ^ hi
			src, dst := iaL.Offset(h, hi), aiL.Offset(h, ha)
			for Q := 0; Q < ia.Rows(h); Q++ {
				in, out := ia.Row(h, Q), ai.Row(h, Q)
				for i := 0; i < occ[hi]; i++ {
					for a := 0; a < vir[ha]; a++ {
						out[dst+a*occ[hi]+i] = in[src+i*vir[ha]+a]
					}
				}
			}
		}
	}
	return ai, nil
}
