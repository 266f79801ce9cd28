/*
 * basis_test.go, part of dfdct.
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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const formaldehyde = `4
formaldehyde
C     0.000000    0.000000    0.000000
O     0.000000    0.000000    1.205000
H     0.000000    0.943000   -0.587000
H     0.000000   -0.943000   -0.587000
`

func h2sto3g(Te *testing.T) *Set {
	exps := []float64{3.42525091, 0.62391373, 0.16885540}
	coefs := []float64{0.15432897, 0.53532814, 0.44463454}
	B, err := NewSet("sto-3g", []*Shell{
		NormalizeS(0, [3]float64{0, 0, 0}, exps, coefs),
		NormalizeS(1, [3]float64{0, 0, 1.4}, exps, coefs),
	})
	require.NoError(Te, err)
	return B
}

//TestH2 compares with the textbook STO-3G values for H2 at 1.4 bohr (Szabo & Ostlund).
func TestH2(Te *testing.T) {
	B := h2sto3g(Te)
	assert.InDelta(Te, 1.0, Overlap(B, 0, B, 0), 1e-8)
	assert.InDelta(Te, 0.6593, Overlap(B, 0, B, 1), 1e-4)
	assert.InDelta(Te, 0.7746, ERI(B, 0, 0, 0, 0), 1e-4)
	assert.InDelta(Te, 0.5697, ERI(B, 0, 0, 1, 1), 1e-4)
	assert.InDelta(Te, 0.4441, ERI(B, 1, 0, 0, 0), 1e-4)
	assert.InDelta(Te, 0.2970, ERI(B, 1, 0, 1, 0), 1e-4)
	//permutational symmetry
	assert.InDelta(Te, ERI(B, 1, 0, 0, 0), ERI(B, 0, 0, 0, 1), 1e-12)
	assert.InDelta(Te, ERI(B, 0, 0, 1, 1), ERI(B, 1, 1, 0, 0), 1e-12)
}

func TestBoys(Te *testing.T) {
	assert.InDelta(Te, 1.0, boys(0, 0), 1e-14)
	for _, x := range []float64{1e-11, 0.3, 2, 17.5} {
		want := 0.5 * math.Sqrt(math.Pi/x) * math.Erf(math.Sqrt(x))
		assert.InDelta(Te, want, boys(0, x), 1e-10, "x=%g", x)
	}
}

//TestZeroBasis checks that the placeholder basis turns the quartet into the
//two-center Coulomb integral.
func TestZeroBasis(Te *testing.T) {
	aux, err := NewSet("aux", []*Shell{
		{Center: [3]float64{0, 0, 0}, Exps: []float64{0.7}, Coefs: []float64{1.3}},
		{Center: [3]float64{0.4, -0.2, 1.1}, Exps: []float64{2.1}, Coefs: []float64{0.6}},
	})
	require.NoError(Te, err)
	zero := Zero()
	E := NewFactory(aux, zero, aux, zero).ERI()
	a, b := 0.7, 2.1
	R2 := 0.4*0.4 + 0.2*0.2 + 1.1*1.1
	want := 1.3 * 0.6 * 2 * math.Pow(math.Pi, 2.5) / (a * b * math.Sqrt(a+b)) * boys(0, a*b/(a+b)*R2)
	buf := E.ComputeShell(0, 0, 1, 0)
	require.Len(Te, buf, 1)
	assert.InDelta(Te, want, buf[0], 1e-12)
	buf = E.ComputeShell(1, 0, 0, 0)
	assert.InDelta(Te, want, buf[0], 1e-12)
}

func TestLibrary(Te *testing.T) {
	L, err := NewLibrary()
	require.NoError(Te, err)
	assert.Equal(Te, []string{"s-fit", "s-jkfit", "s-min"}, L.Names())
	mol, err := DecodeXYZ(strings.NewReader(formaldehyde))
	require.NoError(Te, err)
	assert.Equal(Te, 16, mol.NElectrons())
	na, nb, err := mol.AlphaBeta()
	require.NoError(Te, err)
	assert.Equal(Te, 8, na)
	assert.Equal(Te, 8, nb)
	B, err := L.Build("s-min", mol)
	require.NoError(Te, err)
	assert.Equal(Te, 10, B.NBF())
	for i := 0; i < B.NShell(); i++ {
		assert.InDelta(Te, 1.0, Overlap(B, i, B, i), 1e-10)
	}
	_, err = L.Build("sto-3g", mol)
	assert.Error(Te, err)
	err = L.Decode(strings.NewReader("name = \"p\"\n[[elements.H.shells]]\nl = 1\nexponents = [1.0]\ncoefficients = [1.0]\n"))
	assert.Error(Te, err)
}

//TestAOToSO builds the C2 symmetry orbitals of formaldehyde and checks that they
//form an orthogonal transformation of the AOs.
func TestAOToSO(Te *testing.T) {
	mol, err := DecodeXYZ(strings.NewReader(formaldehyde))
	require.NoError(Te, err)
	L, err := NewLibrary()
	require.NoError(Te, err)
	B, err := L.Build("s-min", mol)
	require.NoError(Te, err)
	_, err = Cs.AtomMap(mol, 1e-6)
	assert.Error(Te, err)
	U, err := AOToSO(C2, mol, B)
	require.NoError(Te, err)
	nsopi := U.Colspi()
	assert.Equal(Te, 8, nsopi[0])
	assert.Equal(Te, 2, nsopi[1])
	sum := mat.NewDense(10, 10, nil)
	for h := 0; h < 2; h++ {
		var p mat.Dense
		p.Mul(U.Dense(h), U.Dense(h).T())
		sum.Add(sum, &p)
	}
	assert.True(Te, mat.EqualApprox(sum, eye(10), 1e-12))
	S := OverlapSO(B, U)
	for h := 0; h < 2; h++ {
		for i := 0; i < nsopi[h]; i++ {
			assert.Greater(Te, S.At(h, i, i), 0.0)
		}
	}
}

func eye(n int) *mat.Dense {
	I := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		I.Set(i, i, 1)
	}
	return I
}
