/*
 * symm_test.go, part of dfdct.
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

package symm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func fill(M *Matrix, start float64) {
	v := start
	for h := 0; h < M.NIrrep(); h++ {
		b := M.Block(h)
		for i := range b.Data {
			b.Data[i] = v
			v += 0.25
		}
	}
}

//TestBlockLayout checks the offset table of an occupied x virtual space in a
//four-irrep group.
func TestBlockLayout(Te *testing.T) {
	occ := Dimension{3, 0, 1, 2}
	vir := Dimension{4, 2, 0, 3}
	L := NewBlockLayout(occ, vir)
	dims := L.Dims()
	total := 0
	for h := 0; h < L.NIrrep(); h++ {
		sum := 0
		prev := -1
		for hl, b := range L.Blocks(h) {
			assert.Equal(Te, hl, b.Left)
			assert.Equal(Te, h^hl, b.Right)
			assert.Equal(Te, occ[hl]*vir[h^hl], b.Width)
			assert.Equal(Te, sum, b.Offset)
			assert.GreaterOrEqual(Te, b.Offset, prev)
			prev = b.Offset
			sum += b.Width
		}
		assert.Equal(Te, sum, dims[h])
		total += sum
	}
	assert.Equal(Te, occ.Sum()*vir.Sum(), total)
	h, c := L.Index(2, 0, 3, 1)
	assert.Equal(Te, 1, h)
	assert.Equal(Te, L.Offset(1, 2)+0*vir[3]+1, c)
}

//TestElementCount checks that the irrep blocks never hold more or less than
//the symmetry-allowed elements.
func TestElementCount(Te *testing.T) {
	rows := Dimension{2, 3, 1, 4}
	cols := Dimension{5, 0, 2, 1}
	for s := 0; s < 4; s++ {
		M := NewMatrix("M", rows, cols, s)
		want := 0
		for h := range rows {
			want += rows[h] * cols[h^s]
			assert.Equal(Te, cols[h^s], M.Cols(h))
		}
		assert.Equal(Te, want, M.NumElements())
	}
	//a B tensor over a pair space holds exactly the unblocked elements.
	L := NewBlockLayout(Dimension{2, 1}, Dimension{3, 2})
	B := NewMatrix("B", Uniform(2, 7), L.Dims(), 0)
	assert.Equal(Te, 7*3*5, B.NumElements())
}

func TestDoubletAndTranspose(Te *testing.T) {
	A := NewMatrix("A", Dimension{2, 3}, Dimension{4, 1}, 0)
	B := NewMatrix("B", Dimension{2, 3}, Dimension{3, 2}, 0)
	fill(A, 1)
	fill(B, -2)
	C, err := Doublet(A, B, true, false)
	require.NoError(Te, err)
	for h := 0; h < 2; h++ {
		var want mat.Dense
		want.Mul(A.Dense(h).T(), B.Dense(h))
		assert.True(Te, mat.EqualApprox(&want, C.Dense(h), 1e-12), "irrep %d", h)
	}
	AT := A.T()
	assert.True(Te, AT.Rowspi().Equal(A.Colspi()))
	assert.Equal(Te, A.At(1, 2, 0), AT.At(1, 0, 2))
	_, err = Doublet(A, B, false, false)
	assert.True(Te, errors.Is(err, ErrShape), "expected a shape error, got %v", err)
	S := NewMatrix("S", Dimension{2, 2}, Dimension{2, 2}, 1)
	_, err = Doublet(S, B, false, false)
	assert.True(Te, errors.Is(err, ErrSymmetry))
}

func TestColumns(Te *testing.T) {
	C := NewMatrix("C", Dimension{3, 2}, Dimension{3, 2}, 0)
	fill(C, 0)
	V, err := C.Columns("C vir", Dimension{1, 1}, Dimension{2, 1})
	require.NoError(Te, err)
	assert.Equal(Te, C.At(0, 2, 2), V.At(0, 2, 1))
	assert.Equal(Te, C.At(1, 1, 1), V.At(1, 1, 0))
	_, err = C.Columns("bad", Dimension{2, 0}, Dimension{2, 1})
	assert.True(Te, errors.Is(err, ErrShape))
}

//TestSort checks the prqs and qspr reorderings used for the cumulant blocks.
func TestSort(Te *testing.T) {
	o := Dimension{2, 1}
	v := Dimension{1, 2}
	src := NewQuad("I <OV|OV>", o, v, o, v)
	fill(src.Matrix, 0.5)
	dst, err := Sort(src, "prqs", "I (OO|VV)")
	require.NoError(Te, err)
	sp := dst.Spaces()
	assert.True(Te, sp[0].Equal(o) && sp[1].Equal(o) && sp[2].Equal(v) && sp[3].Equal(v))
	n := 0
	src.Each(func(idx [4]Index, val float64) {
		n++
		got := dst.Elem([4]Index{idx[0], idx[2], idx[1], idx[3]})
		assert.Equal(Te, val, got)
	})
	assert.Equal(Te, src.NumElements(), n)
	back, err := Sort(dst, "prqs", "again")
	require.NoError(Te, err)
	assert.Equal(Te, src.Norm(), back.Norm())
	for h := 0; h < 2; h++ {
		assert.Equal(Te, src.Block(h).Data, back.Block(h).Data)
	}
	q, err := Sort(src, "qspr", "qspr")
	require.NoError(Te, err)
	src.Each(func(idx [4]Index, val float64) {
		assert.Equal(Te, val, q.Elem([4]Index{idx[1], idx[3], idx[0], idx[2]}))
	})
	_, err = Sort(src, "ppqs", "bad")
	assert.True(Te, errors.Is(err, ErrPermutation))
}
