/*
 * density.go, part of dfdct.
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
	"github.com/rmera/dfdct/df"
	"github.com/rmera/dfdct/store"
	"github.com/rmera/dfdct/symm"
	"github.com/sirupsen/logrus"
)

//accumulator names one of the three-index cumulant partial densities.
type accumulator string

const (
	accIJ accumulator = "IJ"
	accij accumulator = "ij"
	accAB accumulator = "AB"
	accab accumulator = "ab"
	accIA accumulator = "IA"
	accia accumulator = "ia"
)

var accumulators = []accumulator{accIJ, accij, accAB, accab, accIA, accia}

func (a accumulator) name() string { return "3-Center PDM B: " + string(a) }

//key returns the B tensor whose pair space the accumulator spans.
func (a accumulator) key() Key {
	return map[accumulator]Key{accIJ: IJA, accij: IJB, accAB: ABA, accab: ABB, accIA: IAA, accia: IAB}[a]
}

type contribution struct {
	acc       accumulator
	b         Key
	transpose bool
	alpha     float64
	reset     bool
}

type cumulantStep struct {
	source   string
	contribs []contribution
}

//The cumulant contributions, in order. Each accumulator is reset by its first
//contribution and only read afterwards.
var cumulantSteps = []cumulantStep{
	{"Lambda (OO|OO)", []contribution{{accIJ, IJA, false, 1, true}}},
	{"Lambda (oo|OO)", []contribution{{accIJ, IJB, false, 1, false}, {accij, IJA, true, 1, true}}},
	{"Lambda (oo|oo)", []contribution{{accij, IJB, false, 1, false}}},
	{"K (OO|VV)", []contribution{{accAB, IJA, false, -1, true}, {accIJ, ABA, true, -1, false}}},
	{"K (OV|OV)", []contribution{{accIA, IAA, true, 1, true}}},
	{"K (oo|vv)", []contribution{{accab, IJB, false, -1, true}, {accij, ABB, true, -1, false}}},
	{"K (ov|ov)", []contribution{{accia, IAB, true, 1, true}}},
	{"K (OO|vv)", []contribution{{accab, IJA, false, -1, false}, {accIJ, ABB, true, -1, false}}},
	{"K (oo|VV)", []contribution{{accAB, IJB, false, -1, false}, {accij, ABA, true, -1, false}}},
	{"K (OV|ov)", []contribution{{accia, IAA, false, 1, false}, {accIA, IAB, true, 1, false}}},
	{"Lambda (OV|OV)", []contribution{{accIA, IAA, false, 1, false}}},
	{"Lambda (OV|ov)", []contribution{{accIA, IAB, true, 1, false}, {accia, IAA, false, 1, false}}},
	{"Lambda (ov|ov)", []contribution{{accia, IAB, false, 1, false}}},
}

//The sorted cumulants the chain reads, from the antisymmetrized <pq|rs> ones.
var cumulantSorts = []struct{ src, order, dst string }{
	{"I <OO|OO>", "prqs", "Lambda (OO|OO)"},
	{"I <Oo|Oo>", "qspr", "Lambda (oo|OO)"},
	{"I <oo|oo>", "prqs", "Lambda (oo|oo)"},
}

//accumulatorStore keeps the accumulators in memory or, when staged, in the store.
type accumulatorStore struct {
	st     *store.Store
	staged bool
	mem    map[accumulator]*symm.Matrix
	shapes map[accumulator]*symm.Matrix //the B tensor of each accumulator
}

func (A *accumulatorStore) get(a accumulator, reset bool) (*symm.Matrix, error) {
	if !A.staged {
		M, ok := A.mem[a]
		if !ok || reset {
			b := A.shapes[a]
			M = symm.NewMatrix(a.name(), b.Rowspi(), b.Colspi(), 0)
			A.mem[a] = M
		}
		return M, nil
	}
	if reset {
		b := A.shapes[a]
		return symm.NewMatrix(a.name(), b.Rowspi(), b.Colspi(), 0), nil
	}
	return A.st.Load(dfdct.DensityFile, a.name())
}

func (A *accumulatorStore) put(M *symm.Matrix) error {
	if !A.staged {
		return nil
	}
	return A.st.Save(dfdct.DensityFile, M, store.SubBlocks)
}

//flush saves the in-memory accumulators.
func (A *accumulatorStore) flush() error {
	if A.staged {
		return nil
	}
	for _, a := range accumulators {
		if M, ok := A.mem[a]; ok {
			if err := A.st.Save(dfdct.DensityFile, M, store.SubBlocks); err != nil {
				return err
			}
		}
	}
	return nil
}

//accumulatorMB returns the memory, in MB, of the six accumulators.
func accumulatorMB(shapes map[accumulator]*symm.Matrix) float64 {
	n := 0
	for _, b := range shapes {
		n += b.NumElements()
	}
	return float64(n) * 8 / (1024 * 1024)
}

//CumulantDensity builds the three-index density of the cumulant, "3-Center Correlation
//Density", in the AO basis. It contracts the correlation-fitted MO B tensors with the
//cumulant blocks of the amplitude file into six partial densities, which are kept in
//memory when they fit in the budget and staged in the store otherwise, and transforms
//them back with J^-1/2 and the orbitals.
//The (VV|VV) cumulant does not contribute.
func (S *Solver) CumulantDensity(ctx context.Context) error {
	defer df.Timer(S.log, "cumulant density")()
	if S.orb == nil {
		return errors.New("CumulantDensity: no orbitals")
	}
	for _, s := range cumulantSorts {
		src, err := S.st.LoadQuad(dfdct.AmplitudeFile, s.src)
		if err != nil {
			return errors.Wrapf(err, "sorting %s", s.src)
		}
		dst, err := symm.Sort(src, s.order, s.dst)
		if err != nil {
			return err
		}
		if err := S.st.SaveQuad(dfdct.AmplitudeFile, dst); err != nil {
			return err
		}
	}
	A := &accumulatorStore{st: S.st, mem: make(map[accumulator]*symm.Matrix), shapes: make(map[accumulator]*symm.Matrix)}
	for _, a := range accumulators {
		b, err := S.B(ctx, a.key())
		if err != nil {
			return err
		}
		A.shapes[a] = b
	}
	need := accumulatorMB(A.shapes)
	A.staged = need > S.MemoryMB
	S.log.WithFields(logrus.Fields{"required_mb": need, "available_mb": S.MemoryMB, "staged": A.staged}).Info("cumulant density accumulators")
	for _, step := range cumulantSteps {
		if err := ctx.Err(); err != nil {
			return err
		}
		G, err := S.st.OpenExisting(dfdct.AmplitudeFile, step.source)
		if err != nil {
			return errors.Wrapf(err, "cumulant %s", step.source)
		}
		for _, c := range step.contribs {
			err = S.contribute(ctx, A, G, c)
			if err != nil {
				break
			}
		}
		G.Close()
		if err != nil {
			return errors.Wrapf(err, "cumulant %s", step.source)
		}
	}
	if err := A.flush(); err != nil {
		return err
	}
	return S.cumulantToAO(ctx, A)
}

func (S *Solver) contribute(ctx context.Context, A *accumulatorStore, G Blocks, c contribution) error {
	b, err := S.B(ctx, c.b)
	if err != nil {
		return err
	}
	M, err := A.get(c.acc, c.reset)
	if err != nil {
		return err
	}
	beta := 1.0
	if c.reset {
		beta = 0
	}
	if err := Contract343(b, G, M, c.transpose, c.alpha, beta); err != nil {
		return err
	}
	return A.put(M)
}

//The coefficient subsets that take each accumulator back to the SO basis.
var backTransforms = map[accumulator][2]orbSpace{
	accIJ: {oA, oA},
	accij: {oB, oB},
	accAB: {vA, vA},
	accab: {vB, vB},
	accIA: {oA, vA},
	accia: {oB, vB},
}

func (S *Solver) cumulantToAO(ctx context.Context, A *accumulatorStore) error {
	J, err := S.st.Load(dfdct.DensityFile, dfdct.JName(dfdct.FitCorrelation))
	if err != nil {
		return err
	}
	var so *symm.Matrix
	for _, a := range accumulators {
		M, ok := A.mem[a]
		if A.staged || !ok {
			if M, err = S.st.Load(dfdct.DensityFile, a.name()); err != nil {
				return err
			}
		}
		int55, err := Contract233(J, M)
		if err != nil {
			return errors.Wrapf(err, "%s", a.name())
		}
		bt := backTransforms[a]
		l, err := S.orb.Subset(bt[0].s, bt[0].sp)
		if err != nil {
			return err
		}
		r, err := S.orb.Subset(bt[1].s, bt[1].sp)
		if err != nil {
			return err
		}
		part, err := S.E.PrimaryTransform(ctx, int55, l.T(), r.T())
		if err != nil {
			return errors.Wrapf(err, "%s", a.name())
		}
		if so == nil {
			so = part
			continue
		}
		if err := so.Add(part); err != nil {
			return err
		}
	}
	ao, err := S.E.SO2AO(ctx, so, S.bases.U)
	if err != nil {
		return err
	}
	ao.SetName(dfdct.DensityName(dfdct.FitCorrelation))
	return S.st.Save(dfdct.AOTPDMFile, ao, store.Full)
}

//SeparableDensity builds the three-index density of the reference-like part of the
//two-particle density, "3-Center Reference Density", in the AO basis, from the
//one-particle densities gamma. It needs the auxiliary vector saved by GbarGamma.
//gamma[Beta] is ignored for RHF.
func (S *Solver) SeparableDensity(ctx context.Context, gamma [2]*symm.Matrix) error {
	defer df.Timer(S.log, "separable density")()
	if S.orb == nil {
		return errors.New("SeparableDensity: no orbitals")
	}
	bref := S.bSO[dfdct.FitReference]
	if bref == nil {
		return errors.New("SeparableDensity: BuildB has not run")
	}
	Q, err := S.st.Load(dfdct.DensityFile, QGammaName)
	if err != nil {
		return errors.Wrap(err, "SeparableDensity: GbarGamma has not run")
	}
	J, err := S.st.Load(dfdct.DensityFile, dfdct.JName(dfdct.FitReference))
	if err != nil {
		return err
	}
	if S.orb.Reference().Restricted() {
		//the stored vector holds the alpha density only
		Q.Scale(2)
		gamma[Beta] = gamma[Alpha]
	}
	var so *symm.Matrix
	for _, s := range []Spin{Alpha, Beta} {
		part, err := S.separable(ctx, bref, Q, J, gamma[s], S.orb.C(s))
		if err != nil {
			return errors.Wrapf(err, "%s separable density", s)
		}
		if so == nil {
			so = part
			continue
		}
		if err := so.Add(part); err != nil {
			return err
		}
	}
	ao, err := S.E.SO2AO(ctx, so, S.bases.U)
	if err != nil {
		return err
	}
	ao.SetName(dfdct.DensityName(dfdct.FitReference))
	return S.st.Save(dfdct.AOTPDMFile, ao, store.Full)
}

//separable returns the SO contribution of one spin: the Coulomb part Q x gamma minus
//the exchange part, fitted with J^-1/2.
func (S *Solver) separable(ctx context.Context, bref, Q, J, gamma, C *symm.Matrix) (*symm.Matrix, error) {
	if gamma == nil {
		return nil, errors.New("missing one-particle density")
	}
	temp, err := Contract123(Q, gamma)
	if err != nil {
		return nil, err
	}
	g, err := symm.Doublet(C, gamma, false, false)
	if err != nil {
		return nil, err
	}
	if err := S.E.PrimaryTransformGemm(ctx, bref, g, g, temp, -1, 1); err != nil {
		return nil, err
	}
	int55, err := Contract233(J, temp)
	if err != nil {
		return nil, err
	}
	Ct := C.T()
	return S.E.PrimaryTransform(ctx, int55, Ct, Ct)
}

//MetricDensity builds "Metric <fit> Density", the contraction of the fitted B tensor
//with the three-index density of the same fitting: G = (J^T b) g^T.
func (S *Solver) MetricDensity(fit dfdct.Fitting) error {
	defer df.Timer(S.log, "metric density "+string(fit))()
	b, err := S.st.Load(dfdct.DensityFile, dfdct.BName(fit))
	if err != nil {
		return err
	}
	J, err := S.st.Load(dfdct.DensityFile, dfdct.JName(fit))
	if err != nil {
		return err
	}
	g, err := S.st.Load(dfdct.AOTPDMFile, dfdct.DensityName(fit))
	if err != nil {
		return errors.Wrapf(err, "the %s three-index density has not been built", fit)
	}
	c, err := symm.Doublet(J, b, true, false)
	if err != nil {
		return err
	}
	G, err := symm.Doublet(c, g, false, true)
	if err != nil {
		return err
	}
	G.SetName(dfdct.MetricDensityName(fit))
	return S.st.Save(dfdct.AOTPDMFile, G, store.LowerTriangle)
}
