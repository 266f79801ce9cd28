/*
 * df_test.go, part of dfdct.
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
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rmera/dfdct"
	"github.com/rmera/dfdct/basis"
	"github.com/rmera/dfdct/store"
	"github.com/rmera/dfdct/symm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

const formaldehyde = `4
formaldehyde
C     0.000000    0.000000    0.000000
O     0.000000    0.000000    1.205000
H     0.000000    0.943000   -0.587000
H     0.000000   -0.943000   -0.587000
`

func random(r *rand.Rand, name string, rows, cols symm.Dimension) *symm.Matrix {
	M := symm.NewMatrix(name, rows, cols, 0)
	for h := 0; h < M.NIrrep(); h++ {
		for i := 0; i < M.Rows(h); i++ {
			for j := 0; j < M.Cols(h); j++ {
				M.Set(h, i, j, r.Float64()-0.5)
			}
		}
	}
	return M
}

//primitives returns a primary basis of single-primitive s shells, and the auxiliary
//basis made of all their pair products, which fits them exactly.
func primitives(Te *testing.T) (*basis.Set, *basis.Set) {
	centers := [][3]float64{{0, 0, 0}, {0, 0, 1.4}, {0, 1.0, 0.5}}
	exps := []float64{0.8, 1.3, 0.45}
	var shells, auxShells []*basis.Shell
	for i := range centers {
		shells = append(shells, basis.NormalizeS(i, centers[i], exps[i:i+1], []float64{1}))
		for j := 0; j <= i; j++ {
			p := exps[i] + exps[j]
			var P [3]float64
			for k := range P {
				P[k] = (exps[i]*centers[i][k] + exps[j]*centers[j][k]) / p
			}
			auxShells = append(auxShells, basis.NormalizeS(i, P, []float64{p}, []float64{1}))
		}
	}
	B, err := basis.NewSet("primitives", shells)
	require.NoError(Te, err)
	aux, err := basis.NewSet("products", auxShells)
	require.NoError(Te, err)
	return B, aux
}

func TestPool(Te *testing.T) {
	P := NewPool(4)
	n := 1000
	seen := make([]int, n)
	var mu sync.Mutex
	workers := map[int]bool{}
	err := P.For(context.Background(), n, func(w, i int) error {
		seen[i]++
		mu.Lock()
		workers[w] = true
		mu.Unlock()
		return nil
	})
	require.NoError(Te, err)
	for i := range seen {
		assert.Equal(Te, 1, seen[i])
	}
	for w := range workers {
		assert.Less(Te, w, 4)
	}
	boom := errors.New("boom")
	err = P.For(context.Background(), n, func(w, i int) error {
		if i == 10 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(Te, err, boom)
	assert.NoError(Te, P.For(context.Background(), 0, nil))
	A := NewArena(2, 8)
	assert.Len(Te, A.Scratch(1, 5), 5)
	assert.Panics(Te, func() { A.Scratch(0, 9) })
}

func TestMetric(Te *testing.T) {
	_, aux := primitives(Te)
	st, err := store.Open("", store.Options{})
	require.NoError(Te, err)
	defer st.Close()
	E := NewEngine(NewPool(3), st, nil)
	ctx := context.Background()
	M, err := E.FormJm12(ctx, aux, dfdct.FitCorrelation)
	require.NoError(Te, err)
	n := aux.NBF()
	assert.Equal(Te, n, M.Retained)
	J, err := E.Coulomb(ctx, aux)
	require.NoError(Te, err)
	var tmp, id mat.Dense
	tmp.Mul(J.Dense(0), M.Jm12.Dense(0))
	id.Mul(M.Jm12.Dense(0).T(), &tmp)
	assert.True(Te, mat.EqualApprox(&id, eye(n), 1e-8))
	S, err := st.Load(dfdct.DensityFile, dfdct.JName(dfdct.FitCorrelation))
	require.NoError(Te, err)
	assert.True(Te, mat.EqualApprox(S.Dense(0), M.Jm12.Dense(0), 1e-14))

	//a repeated function makes the metric singular, which is truncated without error
	dup := []*basis.Shell{aux.Shell(0), aux.Shell(1), aux.Shell(0)}
	D, err := basis.NewSet("dup", dup)
	require.NoError(Te, err)
	M, err = E.FormJm12(ctx, D, dfdct.FitReference)
	require.NoError(Te, err)
	assert.Equal(Te, 2, M.Retained)

	empty, err := basis.NewSet("empty", nil)
	require.NoError(Te, err)
	_, err = E.FormJm12(ctx, empty, dfdct.FitReference)
	assert.ErrorIs(Te, err, symm.ErrShape)
}

//TestFitExact checks the DF integrals against the four-center ones, with an auxiliary
//basis that spans all the products of the primary functions.
func TestFitExact(Te *testing.T) {
	B, aux := primitives(Te)
	E := NewEngine(NewPool(2), nil, nil)
	ctx := context.Background()
	M, err := E.FormJm12(ctx, aux, dfdct.FitCorrelation)
	require.NoError(Te, err)
	b, err := E.FormBAO(ctx, B, aux, M.Jm12, dfdct.FitCorrelation)
	require.NoError(Te, err)
	nso, nQ := B.NBF(), aux.NBF()
	assert.Equal(Te, nQ, b.Rows(0))
	assert.Equal(Te, nso*nso, b.Cols(0))
	for p := 0; p < nso; p++ {
		for q := 0; q < nso; q++ {
			for r := 0; r < nso; r++ {
				for s := 0; s < nso; s++ {
					v := 0.0
					for Q := 0; Q < nQ; Q++ {
						v += b.At(0, Q, p*nso+q) * b.At(0, Q, r*nso+s)
					}
					assert.InDelta(Te, basis.ERI(B, p, q, r, s), v, 1e-8, "(%d%d|%d%d)", p, q, r, s)
				}
			}
		}
	}
	bad := symm.NewMatrix("J", symm.Dimension{nQ + 1}, symm.Dimension{nQ + 1}, 0)
	_, err = E.FormBAO(ctx, B, aux, bad, dfdct.FitCorrelation)
	assert.ErrorIs(Te, err, symm.ErrShape)
}

func formaldehydeC2(Te *testing.T) (*basis.Set, *symm.Matrix) {
	mol, err := basis.DecodeXYZ(strings.NewReader(formaldehyde))
	require.NoError(Te, err)
	L, err := basis.NewLibrary()
	require.NoError(Te, err)
	B, err := L.Build("s-min", mol)
	require.NoError(Te, err)
	U, err := basis.AOToSO(basis.C2, mol, B)
	require.NoError(Te, err)
	return B, U
}

func TestAOSORoundTrip(Te *testing.T) {
	B, U := formaldehydeC2(Te)
	nao := B.NBF()
	r := rand.New(rand.NewSource(7))
	bao := random(r, "B(Q|mn)", symm.Dimension{4}, symm.Dimension{nao * nao})
	E := NewEngine(NewPool(3), nil, nil)
	so, err := E.AO2SO(context.Background(), bao, U)
	require.NoError(Te, err)
	assert.Equal(Te, symm.Dimension{8*8 + 2*2, 2 * 8 * 2}, so.Colspi())
	back, err := E.SO2AO(context.Background(), so, U)
	require.NoError(Te, err)
	assert.True(Te, mat.EqualApprox(bao.Dense(0), back.Dense(0), 1e-12))
	_, err = E.SO2AO(context.Background(), bao, U)
	assert.Error(Te, err)
}

//TestPrimaryTransform compares the SO->MO transform with the direct AO->MO one.
func TestPrimaryTransform(Te *testing.T) {
	B, U := formaldehydeC2(Te)
	nao := B.NBF()
	nsopi := U.Colspi()
	r := rand.New(rand.NewSource(3))
	nQ := 3
	bao := random(r, "B(Q|mn)", symm.Dimension{nQ}, symm.Dimension{nao * nao})
	E := NewEngine(NewPool(2), nil, nil)
	ctx := context.Background()
	so, err := E.AO2SO(ctx, bao, U)
	require.NoError(Te, err)
	nocc, nvir := symm.Dimension{3, 1}, symm.Dimension{5, 1}
	CO := random(r, "CO", nsopi, nocc)
	CV := random(r, "CV", nsopi, nvir)
	mo, err := E.PrimaryTransform(ctx, so, CO, CV)
	require.NoError(Te, err)
	L := symm.NewBlockLayout(nocc, nvir)
	assert.True(Te, L.Dims().Equal(mo.Colspi()))
	aoCoefs := func(C *symm.Matrix, h int) *mat.Dense {
		var R mat.Dense
		R.Mul(U.Dense(h), C.Dense(h))
		return &R
	}
	for hi := 0; hi < 2; hi++ {
		for ha := 0; ha < 2; ha++ {
			h := hi ^ ha
			Ci, Ca := aoCoefs(CO, hi), aoCoefs(CV, ha)
			for Q := 0; Q < nQ; Q++ {
				for i := 0; i < nocc[hi]; i++ {
					for a := 0; a < nvir[ha]; a++ {
						want := 0.0
						for m := 0; m < nao; m++ {
							for n := 0; n < nao; n++ {
								want += Ci.At(m, i) * Ca.At(n, a) * bao.At(0, Q, m*nao+n)
							}
						}
						got := mo.At(h, Q, L.Offset(h, hi)+i*nvir[ha]+a)
						assert.InDelta(Te, want, got, 1e-12)
					}
				}
			}
		}
	}
	//accumulation with alpha and beta
	acc := mo.Clone()
	require.NoError(Te, E.PrimaryTransformGemm(ctx, so, CO, CV, acc, -1, 1))
	assert.InDelta(Te, 0, acc.Norm(), 1e-12)

	sym := symm.NewMatrix("X", nsopi, nocc, 1)
	err = E.PrimaryTransformGemm(ctx, so, sym, CV, acc, 1, 0)
	assert.ErrorIs(Te, err, symm.ErrSymmetry)
	short := symm.NewMatrix("short", symm.Dimension{nQ - 1, nQ - 1}, L.Dims(), 0)
	err = E.PrimaryTransformGemm(ctx, so, CO, CV, short, 1, 0)
	assert.ErrorIs(Te, err, symm.ErrShape)
	wrong := random(r, "wrong", symm.Dimension{8, 1}, nocc)
	err = E.PrimaryTransformGemm(ctx, so, wrong, CV, acc, 1, 0)
	assert.ErrorIs(Te, err, symm.ErrShape)
	one := symm.NewMatrix("one", symm.Dimension{nao}, symm.Dimension{1}, 0)
	err = E.PrimaryTransformGemm(ctx, so, one, one, acc, 1, 0)
	assert.ErrorIs(Te, err, symm.ErrShape)
}

func TestEstimate(Te *testing.T) {
	s := Sizes{NQ: 10, NSO: 4, NAlpha: 2, NAVir: 2, NAVirMax: 2}
	rhf := 100.0 + 2*10*16 + 10*4 + 2*10*4 + 10*4 + 10*16 + 2*8
	assert.InDelta(Te, rhf*8/(1024*1024), Estimate(dfdct.RHF, s), 1e-15)
	uhf := 100.0 + 2*10*16 + 2*10*4 + 4*10*4 + 2*10*4 + 2*10*16 + 2*8
	assert.InDelta(Te, uhf*8/(1024*1024), Estimate(dfdct.UHF, s), 1e-15)
	E := NewEngine(nil, nil, nil)
	assert.Greater(Te, E.CheckMemory(dfdct.UHF, s, 0), 0.0)
}

func eye(n int) *mat.Dense {
	I := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		I.Set(i, i, 1)
	}
	return I
}
