/*
 * dct_test.go, part of dfdct.
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
	"errors"
	"strings"
	"testing"

	"github.com/rmera/dfdct"
	"github.com/rmera/dfdct/basis"
	"github.com/rmera/dfdct/df"
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

//primitives returns three single-primitive s functions, with the basis of all their
//products as both auxiliary sets, so the fitting is exact.
func primitives(Te *testing.T) Bases {
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
	U := symm.NewMatrix("AO->SO", symm.Dimension{3}, symm.Dimension{3}, 0)
	for i := 0; i < 3; i++ {
		U.Set(0, i, i, 1)
	}
	return Bases{Primary: B, Correlation: aux, Reference: aux, U: U}
}

func formaldehydeBases(Te *testing.T, op basis.Operation) Bases {
	mol, err := basis.DecodeXYZ(strings.NewReader(formaldehyde))
	require.NoError(Te, err)
	L, err := basis.NewLibrary()
	require.NoError(Te, err)
	var sets [3]*basis.Set
	for i, name := range []string{"s-min", "s-fit", "s-jkfit"} {
		sets[i], err = L.Build(name, mol)
		require.NoError(Te, err)
	}
	U, err := basis.AOToSO(op, mol, sets[0])
	require.NoError(Te, err)
	return Bases{Primary: sets[0], Correlation: sets[1], Reference: sets[2], U: U}
}

func newSolver(Te *testing.T, B Bases, memoryMB float64) *Solver {
	st, err := store.Open("", store.Options{})
	require.NoError(Te, err)
	Te.Cleanup(func() { st.Close() })
	S, err := NewSolver(df.NewPool(3), st, nil, B, memoryMB)
	require.NoError(Te, err)
	require.NoError(Te, S.BuildB(context.Background()))
	return S
}

func orbitals(Te *testing.T, B Bases, ref dfdct.Reference, nalpha, nbeta int, seed uint64) *Orbitals {
	Sso := basis.OverlapSO(B.Primary, B.U)
	Ca, err := SeededCoefficients(Sso, seed)
	require.NoError(Te, err)
	Cb, err := SeededCoefficients(Sso, seed+1)
	require.NoError(Te, err)
	occA, err := Occupations(nalpha, Sso.Rowspi())
	require.NoError(Te, err)
	occB, err := Occupations(nbeta, Sso.Rowspi())
	require.NoError(Te, err)
	O, err := NewOrbitals(ref, Ca, Cb, occA, occB)
	require.NoError(Te, err)
	return O
}

//aoERI returns all the four-center integrals of B.
func aoERI(B *basis.Set) []float64 {
	n := B.NBF()
	eri := make([]float64, n*n*n*n)
	for p := 0; p < n; p++ {
		for q := 0; q < n; q++ {
			for r := 0; r < n; r++ {
				for s := 0; s < n; s++ {
					eri[((p*n+q)*n+r)*n+s] = basis.ERI(B, p, q, r, s)
				}
			}
		}
	}
	return eri
}

//moERI transforms the four-center integrals with one coefficient matrix per index.
func moERI(eri []float64, n int, C [4]*mat.Dense) func(p, q, r, s int) float64 {
	return func(p, q, r, s int) float64 {
		v := 0.0
		for m := 0; m < n; m++ {
			for k := 0; k < n; k++ {
				for l := 0; l < n; l++ {
					for t := 0; t < n; t++ {
						v += C[0].At(m, p) * C[1].At(k, q) * C[2].At(l, r) * C[3].At(t, s) * eri[((m*n+k)*n+l)*n+t]
					}
				}
			}
		}
		return v
	}
}

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

func diff(A, B *symm.Matrix) float64 {
	D := A.Clone()
	if err := D.Axpy(-1, B); err != nil {
		panic(err)
	}
	return D.Norm()
}

func TestOccupations(Te *testing.T) {
	occ, err := Occupations(8, symm.Dimension{8, 2})
	require.NoError(Te, err)
	assert.Equal(Te, symm.Dimension{7, 1}, occ)
	occ, err = Occupations(3, symm.Dimension{1, 1, 1, 1})
	require.NoError(Te, err)
	assert.Equal(Te, 3, occ.Sum())
	_, err = Occupations(11, symm.Dimension{8, 2})
	assert.ErrorIs(Te, err, symm.ErrShape)
}

func TestSeededCoefficients(Te *testing.T) {
	B := formaldehydeBases(Te, basis.C2)
	Sso := basis.OverlapSO(B.Primary, B.U)
	C, err := SeededCoefficients(Sso, 11)
	require.NoError(Te, err)
	StC, err := symm.Doublet(C, Sso, true, false)
	require.NoError(Te, err)
	id, err := symm.Doublet(StC, C, false, false)
	require.NoError(Te, err)
	for h := 0; h < id.NIrrep(); h++ {
		for i := 0; i < id.Rows(h); i++ {
			for j := 0; j < id.Cols(h); j++ {
				want := 0.0
				if i == j {
					want = 1
				}
				assert.InDelta(Te, want, id.At(h, i, j), 1e-10)
			}
		}
	}
	again, err := SeededCoefficients(Sso, 11)
	require.NoError(Te, err)
	assert.Equal(Te, 0.0, diff(C, again))
	O, err := NewOrbitals(dfdct.UHF, C, again, symm.Dimension{7, 1}, symm.Dimension{9, 1})
	assert.Nil(Te, O)
	assert.ErrorIs(Te, err, symm.ErrShape)
}

func TestTensorCache(Te *testing.T) {
	C := NewTensorCache[int]()
	calls := 0
	fn := func() (int, error) {
		calls++
		return 42, nil
	}
	for i := 0; i < 3; i++ {
		v, err := C.GetOrCompute(IJA, fn)
		require.NoError(Te, err)
		assert.Equal(Te, 42, v)
	}
	assert.Equal(Te, 1, calls)
	boom := errors.New("boom")
	_, err := C.GetOrCompute(ABB, func() (int, error) { return 0, boom })
	assert.ErrorIs(Te, err, boom)
	_, ok := C.Get(ABB)
	assert.False(Te, ok)
	assert.Equal(Te, 1, C.Len())
	C.Invalidate()
	assert.Equal(Te, 0, C.Len())
	_, err = C.GetOrCompute(IJA, fn)
	require.NoError(Te, err)
	assert.Equal(Te, 2, calls)
	assert.Equal(Te, Beta, IAB.Spin())
	assert.Equal(Te, AIA, AIB.Alpha())
	l, r := AIA.Spaces()
	assert.Equal(Te, [2]Space{Vir, Occ}, [2]Space{l, r})
}

func TestContract343(Te *testing.T) {
	r := rand.New(rand.NewSource(2))
	o, v := symm.Dimension{2, 1}, symm.Dimension{1, 1}
	G := symm.NewQuad("G", o, o, v, v)
	R := random(r, "G", G.Rowspi(), G.Colspi())
	require.NoError(Te, G.CopyFrom(R))
	nQ := symm.Dimension{4, 4}
	b := random(r, "b(Q|ij)", nQ, G.Rowspi())
	res := random(r, "result", nQ, G.Colspi())
	want := res.Clone()
	require.NoError(Te, want.Gemm(false, false, 0.7, b, G.Matrix, 0.3))
	require.NoError(Te, Contract343(b, InMemory(G), res, false, 0.7, 0.3))
	assert.InDelta(Te, 0, diff(want, res), 1e-13)

	//transposed, reading through a buffer
	st, err := store.Open("", store.Options{})
	require.NoError(Te, err)
	defer st.Close()
	require.NoError(Te, st.SaveQuad(dfdct.AmplitudeFile, G))
	buf, err := st.OpenExisting(dfdct.AmplitudeFile, "G")
	require.NoError(Te, err)
	defer buf.Close()
	bt := random(r, "b(Q|ab)", nQ, G.Colspi())
	rt := symm.NewMatrix("result", nQ, G.Rowspi(), 0)
	require.NoError(Te, Contract343(bt, buf, rt, true, 1, 0))
	want = symm.NewMatrix("want", nQ, G.Rowspi(), 0)
	require.NoError(Te, want.Gemm(false, true, 1, bt, G.Matrix, 0))
	assert.InDelta(Te, 0, diff(want, rt), 1e-13)

	err = Contract343(b, InMemory(G), rt, false, 1, 0)
	assert.ErrorIs(Te, err, symm.ErrShape)
	err = Contract343(random(r, "short", symm.Dimension{3, 3}, G.Rowspi()), InMemory(G), res, false, 1, 0)
	assert.ErrorIs(Te, err, symm.ErrShape)
}

func TestContract233(Te *testing.T) {
	r := rand.New(rand.NewSource(9))
	nQ := 5
	J := random(r, "J", symm.Dimension{nQ}, symm.Dimension{nQ})
	B := random(r, "B", symm.Uniform(2, nQ), symm.Dimension{3, 0})
	R, err := Contract233(J, B)
	require.NoError(Te, err)
	var want mat.Dense
	want.Mul(J.Dense(0).T(), B.Dense(0))
	assert.True(Te, mat.EqualApprox(&want, R.Dense(0), 1e-13))
	assert.Equal(Te, symm.Dimension{3, 0}, R.Colspi())
	_, err = Contract233(B, B)
	assert.ErrorIs(Te, err, symm.ErrSymmetry)
}

func TestContract123(Te *testing.T) {
	r := rand.New(rand.NewSource(4))
	nQ := 3
	n := symm.Dimension{2, 1}
	Q := random(r, "Q", symm.Dimension{1}, symm.Dimension{nQ})
	G := random(r, "G", n, n)
	R, err := Contract123(Q, G)
	require.NoError(Te, err)
	L := symm.NewBlockLayout(n, n)
	assert.Equal(Te, L.Dims(), R.Colspi())
	assert.Equal(Te, symm.Dimension{nQ, nQ}, R.Rowspi())
	for P := 0; P < nQ; P++ {
		for h := 0; h < 2; h++ {
			for i := 0; i < n[h]; i++ {
				for j := 0; j < n[h]; j++ {
					assert.InDelta(Te, Q.At(0, 0, P)*G.At(h, i, j), R.At(0, P, L.Offset(0, h)+i*n[h]+j), 1e-15)
				}
			}
		}
	}
	assert.Equal(Te, 0.0, mat.Norm(R.Dense(1), 2))
	_, err = Contract123(Q, symm.NewMatrix("X", n, n, 1))
	assert.ErrorIs(Te, err, symm.ErrSymmetry)
	_, err = Contract123(G, G)
	assert.ErrorIs(Te, err, symm.ErrShape)
}

//TestPermuteAI compares b(Q|ai) from the permutation with the direct (V,O) transform.
func TestPermuteAI(Te *testing.T) {
	B := formaldehydeBases(Te, basis.C2)
	S := newSolver(Te, B, 500)
	O := orbitals(Te, B, dfdct.UHF, 8, 6, 3)
	require.NoError(Te, S.SetOrbitals(O))
	ctx := context.Background()
	for _, s := range []Spin{Alpha, Beta} {
		key := AIA
		if s == Beta {
			key = AIB
		}
		ai, err := S.B(ctx, key)
		require.NoError(Te, err)
		CV, err := O.Subset(s, Vir)
		require.NoError(Te, err)
		CO, err := O.Subset(s, Occ)
		require.NoError(Te, err)
		direct, err := S.E.PrimaryTransform(ctx, S.BSO(dfdct.FitCorrelation), CV, CO)
		require.NoError(Te, err)
		assert.InDelta(Te, 0, diff(direct, ai), 1e-12, "%s", s)
	}
	//RHF shares the alpha tensors
	R := orbitals(Te, B, dfdct.RHF, 8, 8, 3)
	require.NoError(Te, S.SetOrbitals(R))
	assert.Equal(Te, 0, S.cache.Len())
	ij, err := S.B(ctx, IJA)
	require.NoError(Te, err)
	ijb, err := S.B(ctx, IJB)
	require.NoError(Te, err)
	assert.Same(Te, ij, ijb)
}

//TestIntegralsExact checks every integral class against four-center integrals, with
//an auxiliary set that makes the fitting exact.
func TestIntegralsExact(Te *testing.T) {
	B := primitives(Te)
	S := newSolver(Te, B, 500)
	O := orbitals(Te, B, dfdct.RHF, 1, 1, 5)
	require.NoError(Te, S.SetOrbitals(O))
	require.NoError(Te, S.TransformB(context.Background()))
	require.NoError(Te, S.FormIntegrals(context.Background()))
	C := O.C(Alpha).Dense(0)
	mo := moERI(aoERI(B.Primary), 3, [4]*mat.Dense{C, C, C, C})
	nocc := 1
	orb := func(sp Space, k int) int {
		if sp == Vir {
			return nocc + k
		}
		return k
	}
	classes := map[string][4]Space{
		"MO Ints (OV|OV)": {Occ, Vir, Occ, Vir},
		"MO Ints (OO|OO)": {Occ, Occ, Occ, Occ},
		"MO Ints (VV|OO)": {Vir, Vir, Occ, Occ},
		"MO Ints (VO|OO)": {Vir, Occ, Occ, Occ},
		"MO Ints (OV|VV)": {Occ, Vir, Vir, Vir},
		"MO Ints (VV|VV)": {Vir, Vir, Vir, Vir},
	}
	names, err := S.Store().Names(dfdct.IntegralFile)
	require.NoError(Te, err)
	assert.Len(Te, names, len(classes))
	for name, sp := range classes {
		Q, err := S.Store().LoadQuad(dfdct.IntegralFile, name)
		require.NoError(Te, err, name)
		count := 0
		Q.Each(func(ix [4]symm.Index, v float64) {
			want := mo(orb(sp[0], ix[0].N), orb(sp[1], ix[1].N), orb(sp[2], ix[2].N), orb(sp[3], ix[3].N))
			assert.InDelta(Te, want, v, 1e-6, "%s %v", name, ix)
			count++
		})
		assert.Greater(Te, count, 0, name)
	}
}

func TestTargets(Te *testing.T) {
	counts := map[Class][2]int{OVOV: {1, 3}, OOOO: {1, 3}, VVOO: {1, 4}, VOOO: {1, 4}, OVVV: {1, 4}, VVVV: {1, 3}}
	var all []string
	for c, n := range counts {
		assert.Len(Te, Targets(c, dfdct.RHF), n[0], string(c))
		assert.Len(Te, Targets(c, dfdct.UHF), n[1], string(c))
		all = append(all, Targets(c, dfdct.UHF)...)
	}
	assert.NotContains(Te, Targets(VVOO, dfdct.UHF), "MO Ints (VV|OO)")

	B := formaldehydeBases(Te, basis.C2)
	S := newSolver(Te, B, 500)
	O := orbitals(Te, B, dfdct.UHF, 8, 6, 7)
	require.NoError(Te, S.SetOrbitals(O))
	require.NoError(Te, S.FormIntegrals(context.Background()))
	names, err := S.Store().Names(dfdct.IntegralFile)
	require.NoError(Te, err)
	assert.ElementsMatch(Te, all, names)

	//only the totally symmetric quadruples are stored
	Q, err := S.Store().LoadQuad(dfdct.IntegralFile, "MO Ints (OO|oo)")
	require.NoError(Te, err)
	oa, ob := O.Dim(Alpha, Occ), O.Dim(Beta, Occ)
	allowed := 0
	for h1 := 0; h1 < 2; h1++ {
		for h2 := 0; h2 < 2; h2++ {
			for h3 := 0; h3 < 2; h3++ {
				h4 := h1 ^ h2 ^ h3
				allowed += oa[h1] * oa[h2] * ob[h3] * ob[h4]
			}
		}
	}
	assert.Equal(Te, allowed, Q.NumElements())
	assert.Error(Te, S.FormClass(context.Background(), Class("xxxx")))
}

//TestScenario runs formaldehyde in C1 with 8 occupied orbitals, and checks the (OO|OO)
//block against the one assembled by brute force from the stored AO B tensor.
func TestScenario(Te *testing.T) {
	B := formaldehydeBases(Te, basis.C1)
	S := newSolver(Te, B, 500)
	O := orbitals(Te, B, dfdct.RHF, 8, 8, 1)
	require.NoError(Te, S.SetOrbitals(O))
	ctx := context.Background()
	require.NoError(Te, S.TransformB(ctx))
	require.NoError(Te, S.FormClass(ctx, OOOO))
	I, err := S.Store().LoadQuad(dfdct.IntegralFile, "MO Ints (OO|OO)")
	require.NoError(Te, err)
	assert.Equal(Te, symm.Dimension{64}, I.Rowspi())

	b, err := S.Store().Load(dfdct.DensityFile, dfdct.BName(dfdct.FitCorrelation))
	require.NoError(Te, err)
	nQ, nao, nocc := b.Rows(0), B.Primary.NBF(), 8
	C := O.C(Alpha).Dense(0)
	bij := mat.NewDense(nQ, nocc*nocc, nil)
	for Q := 0; Q < nQ; Q++ {
		bmn := mat.NewDense(nao, nao, b.Row(0, Q))
		var tmp, ij mat.Dense
		tmp.Mul(bmn, C.Slice(0, nao, 0, nocc))
		ij.Mul(C.Slice(0, nao, 0, nocc).T(), &tmp)
		for i := 0; i < nocc; i++ {
			for j := 0; j < nocc; j++ {
				bij.Set(Q, i*nocc+j, ij.At(i, j))
			}
		}
	}
	var want mat.Dense
	want.Mul(bij.T(), bij)
	assert.InEpsilon(Te, mat.Norm(&want, 2), I.Norm(), 1e-8)
}
