/*
 * gbar.go, part of dfdct.
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
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
)

//QGammaName is the store name of the contraction of the reference B tensor with the
//one-particle density.
const QGammaName = "b(Q|SR)gamma<R|S>"

//view returns the r x c sub-block of g that starts at row i, column j.
func view(g blas64.General, i, j, r, c int) blas64.General {
	if r == 0 || c == 0 {
		return blas64.General{Rows: r, Cols: c, Stride: max(g.Stride, 1)}
	}
	return blas64.General{Rows: r, Cols: c, Stride: g.Stride, Data: g.Data[i*g.Stride+j:]}
}

type gbarCase struct {
	amp, out string
	ac, bd   Key
	s0, s1   Spin //spins of the first and second electron
}

func (S *Solver) gbarCases() []gbarCase {
	if S.orb.Reference().Restricted() {
		return []gbarCase{{"Amplitude SF <OO|VV>", "tau(temp) SF <OO|VV>", ABA, ABA, Alpha, Alpha}}
	}
	return []gbarCase{
		{"Amplitude <OO|VV>", "tau(temp) <OO|VV>", ABA, ABA, Alpha, Alpha},
		{"Amplitude <oo|vv>", "tau(temp) <oo|vv>", ABB, ABB, Beta, Beta},
		{"Amplitude <Oo|Vv>", "tau(temp) <Oo|Vv>", ABA, ABB, Alpha, Beta},
	}
}

//GbarLambda computes G<IJ|AB> = sum_CD L<IJ|CD> g(AC|BD) for every spin case, with
//the (VV|VV) integrals g built on the fly from the MO B tensors, one virtual A at a time.
//The amplitudes L are read from the amplitude file, and G is written there.
func (S *Solver) GbarLambda(ctx context.Context) error {
	defer df.Timer(S.log, "gbar lambda")()
	if S.orb == nil {
		return errors.New("GbarLambda: no orbitals")
	}
	for _, c := range S.gbarCases() {
		if err := S.gbarLambda(ctx, c); err != nil {
			return errors.Wrapf(err, "%s", c.out)
		}
	}
	return nil
}

func (S *Solver) gbarLambda(ctx context.Context, c gbarCase) error {
	bAC, err := S.B(ctx, c.ac)
	if err != nil {
		return err
	}
	bBD, err := S.B(ctx, c.bd)
	if err != nil {
		return err
	}
	o0, o1 := S.orb.Dim(c.s0, Occ), S.orb.Dim(c.s1, Occ)
	v0, v1 := S.orb.Dim(c.s0, Vir), S.orb.Dim(c.s1, Vir)
	acL := symm.NewBlockLayout(v0, v0)
	bdL := symm.NewBlockLayout(v1, v1)
	abL := symm.NewBlockLayout(v0, v1)
	L, err := S.st.OpenExisting(dfdct.AmplitudeFile, c.amp)
	if err != nil {
		return err
	}
	defer L.Close()
	want := [4]symm.Dimension{o0, o1, v0, v1}
	if sp := L.Spaces(); !sp[0].Equal(want[0]) || !sp[1].Equal(want[1]) || !sp[2].Equal(want[2]) || !sp[3].Equal(want[3]) {
		return symm.Errorf(symm.ErrShape, "GbarLambda", "%s spans %v, expected %v", c.amp, sp, want)
	}
	G, err := S.st.CreateBuffer(dfdct.AmplitudeFile, c.out, o0, o1, v0, v1)
	if err != nil {
		return err
	}
	defer G.Close()
	nirrep := len(v0)
	scratch := 0
	for hc := 0; hc < nirrep; hc++ {
		for hb := 0; hb < nirrep; hb++ {
			scratch = max(scratch, v0[hc]*v1.Max()*v1[hb])
		}
	}
	cbd := df.NewArena(S.E.Pool().Threads(), scratch)
	cdb := df.NewArena(S.E.Pool().Threads(), scratch)
	for hij := 0; hij < nirrep; hij++ {
		rows, cols := G.RowTot(hij), G.ColTot(hij)
		if rows == 0 || cols == 0 {
			continue
		}
		G.InitIrrep(hij)
		if err := L.ReadIrrep(hij); err != nil {
			return err
		}
		Lh, Gh := L.Irrep(hij), G.Irrep(hij)
		for ha := 0; ha < nirrep; ha++ {
			hb := hij ^ ha
			nA, nB := v0[ha], v1[hb]
			if nA == 0 || nB == 0 {
				continue
			}
			for hc := 0; hc < nirrep; hc++ {
				hd := hij ^ hc
				hac := ha ^ hc //also the irrep of the (B,D) pair
				nC, nD := v0[hc], v1[hd]
				if nC == 0 || nD == 0 {
					continue
				}
				nQ := bAC.Rows(hac)
				if bBD.Rows(hac) != nQ {
					return symm.Errorf(symm.ErrShape, "GbarLambda", "%s and %s have %d and %d auxiliary functions", bAC.Name(), bBD.Name(), nQ, bBD.Rows(hac))
				}
				if nQ == 0 {
					continue
				}
				acOff, bdOff := acL.Offset(hac, ha), bdL.Offset(hac, hb)
				cdOff, abOff := abL.Offset(hij, hc), abL.Offset(hij, ha)
				Lcd := view(Lh, 0, cdOff, rows, nC*nD)
				err := S.E.Pool().For(ctx, nA, func(w, A int) error {
					//g(A'C|BD) for this A, as a (C x B*D) matrix
					CBD := blas64.General{Rows: nC, Cols: nB * nD, Stride: nB * nD, Data: cbd.Scratch(w, nC*nB*nD)}
					blas64.Gemm(blas.Trans, blas.NoTrans, 1,
						bAC.View(hac, 0, acOff+A*nC, nQ, nC),
						bBD.View(hac, 0, bdOff, nQ, nB*nD), 0, CBD)
					//(C*D x B)
					CDB := blas64.General{Rows: nC * nD, Cols: nB, Stride: nB, Data: cdb.Scratch(w, nC*nB*nD)}
					for C := 0; C < nC; C++ {
						for b := 0; b < nB; b++ {
							for d := 0; d < nD; d++ {
								CDB.Data[(C*nD+d)*nB+b] = CBD.Data[C*nB*nD+b*nD+d]
							}
						}
					}
					blas64.Gemm(blas.NoTrans, blas.NoTrans, 1, Lcd, CDB, 1, view(Gh, 0, abOff+A*nB, rows, nB))
					return nil
				})
				if err != nil {
					return err
				}
			}
		}
		L.CloseIrrep(hij)
		if err := G.WriteIrrep(hij); err != nil {
			return err
		}
		G.CloseIrrep(hij)
	}
	S.log.WithFields(logrus.Fields{"amplitudes": c.amp, "entry": c.out}).Debug("gbar lambda written")
	return nil
}

//Gamma returns the one-particle density tau + kappa.
func Gamma(tau, kappa *symm.Matrix) (*symm.Matrix, error) {
	g := tau.Clone()
	if err := g.Add(kappa); err != nil {
		return nil, err
	}
	g.SetName("Gamma <P|Q>")
	return g, nil
}

//GbarGamma returns, for each spin, the contraction of the (reference-fitted) two-electron
//integrals with the one-particle densities gamma: the Coulomb term over both spins minus
//the exchange term of the same spin. gamma[Beta] is ignored for RHF, and the returned
//beta matrix is then the alpha one. The auxiliary vector of the Coulomb term is saved.
func (S *Solver) GbarGamma(ctx context.Context, gamma [2]*symm.Matrix) ([2]*symm.Matrix, error) {
	defer df.Timer(S.log, "gbar gamma")()
	var F [2]*symm.Matrix
	if S.orb == nil {
		return F, errors.New("GbarGamma: no orbitals")
	}
	bref := S.bSO[dfdct.FitReference]
	if bref == nil {
		return F, errors.New("GbarGamma: BuildB has not run")
	}
	restricted := S.orb.Reference().Restricted()
	spins := []Spin{Alpha, Beta}
	if restricted {
		spins = spins[:1]
	}
	n := S.orb.Nsopi()
	L := symm.NewBlockLayout(n, n)
	nirrep, nQ := len(n), bref.Rows(0)
	var bpq [2]*symm.Matrix
	for _, s := range spins {
		if gamma[s] == nil || !gamma[s].Rowspi().Equal(n) || !gamma[s].Colspi().Equal(n) || gamma[s].Symmetry() != 0 {
			return F, symm.Errorf(symm.ErrShape, "GbarGamma", "the %s density must be totally symmetric with %v orbitals per irrep", s, n)
		}
		var err error
		bpq[s], err = S.E.PrimaryTransform(ctx, bref, S.orb.C(s), S.orb.C(s))
		if err != nil {
			return F, err
		}
	}
	Q := symm.NewMatrix(QGammaName, symm.Dimension{1}, symm.Dimension{nQ}, 0)
	q := blas64.Vector{N: nQ, Inc: 1, Data: Q.Row(0, 0)}
	for _, s := range spins {
		for hr := 0; hr < nirrep; hr++ {
			if n[hr] == 0 || nQ == 0 {
				continue
			}
			g := blas64.Vector{N: n[hr] * n[hr], Inc: 1, Data: denseData(gamma[s].Block(hr))}
			blas64.Gemv(blas.NoTrans, 1, bpq[s].View(0, 0, L.Offset(0, hr), nQ, n[hr]*n[hr]), g, 1, q)
		}
	}
	if err := S.st.Save(dfdct.DensityFile, Q, store.SubBlocks); err != nil {
		return F, err
	}
	factor := 1.0
	if restricted {
		factor = 2
	}
	scratch := 0
	for _, m := range n {
		scratch = max(scratch, m*m)
	}
	arena := df.NewArena(S.E.Pool().Threads(), scratch)
	for _, s := range spins {
		Fs := symm.NewMatrix("F <P|Q> "+s.String(), n, n, 0)
		b := bpq[s]
		for hq := 0; hq < nirrep; hq++ {
			nq := n[hq]
			if nq == 0 || nQ == 0 {
				continue
			}
			f := blas64.Vector{N: nq * nq, Inc: 1, Data: Fs.Block(hq).Data}
			blas64.Gemv(blas.Trans, factor, b.View(0, 0, L.Offset(0, hq), nQ, nq*nq), q, 0, f)
			err := S.E.Pool().For(ctx, nq, func(w, qi int) error {
				for hr := 0; hr < nirrep; hr++ {
					nr := n[hr]
					if nr == 0 {
						continue
					}
					h := hq ^ hr
					off := L.Offset(h, hq)
					g := denseData(gamma[s].Block(hr))
					rs := blas64.General{Rows: nr, Cols: nr, Stride: nr, Data: arena.Scratch(w, nr*nr)}
					for p := qi; p < nq; p++ {
						blas64.Gemm(blas.Trans, blas.NoTrans, 1,
							b.View(h, 0, off+qi*nr, nQ, nr),
							b.View(h, 0, off+p*nr, nQ, nr), 0, rs)
						v := -floats.Dot(rs.Data, g)
						Fs.AddAt(hq, qi, p, v)
						if p != qi {
							Fs.AddAt(hq, p, qi, v)
						}
					}
				}
				return nil
			})
			if err != nil {
				return F, err
			}
		}
		F[s] = Fs
	}
	if restricted {
		F[Beta] = F[Alpha]
	}
	return F, nil
}
