/*
 * store_test.go, part of dfdct.
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

package store

import (
	"path/filepath"
	"testing"

	"github.com/rmera/dfdct/symm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(M *symm.Matrix) {
	v := 0.5
	for h := 0; h < M.NIrrep(); h++ {
		for i := 0; i < M.Rows(h); i++ {
			for j := 0; j < M.Cols(h); j++ {
				M.Set(h, i, j, v)
				v += 0.25
			}
		}
	}
}

func backends(Te *testing.T) map[string]*Store {
	mem, err := New(NewMemory(), Options{})
	require.NoError(Te, err)
	sq, err := Open(":memory:", Options{})
	require.NoError(Te, err)
	Te.Cleanup(func() {
		mem.Close()
		sq.Close()
	})
	return map[string]*Store{"memory": mem, "sqlite": sq}
}

func TestSaveLoad(Te *testing.T) {
	for name, S := range backends(Te) {
		Te.Run(name, func(Te *testing.T) {
			B := symm.NewMatrix("B(Q|mn) Correlation", symm.Dimension{4, 4}, symm.Dimension{6, 3}, 0)
			fill(B)
			X := symm.NewMatrix("X", symm.Dimension{2, 3}, symm.Dimension{4, 1}, 1)
			fill(X)
			for _, L := range []Layout{Full, SubBlocks} {
				require.NoError(Te, S.Save(1, B, L))
				R, err := S.Load(1, B.Name())
				require.NoError(Te, err)
				assert.Equal(Te, B.String(), R.String(), "layout %s", L)
				require.NoError(Te, S.Save(2, X, L))
				R, err = S.Load(2, "X")
				require.NoError(Te, err)
				assert.Equal(Te, 1, R.Symmetry())
				assert.Equal(Te, X.String(), R.String(), "layout %s", L)
			}
			assert.ErrorIs(Te, S.Save(2, X, LowerTriangle), ErrLayout)
			assert.True(Te, S.Exists(1, B.Name()))
			assert.False(Te, S.Exists(2, B.Name()))
			names, err := S.Names(2)
			require.NoError(Te, err)
			assert.Equal(Te, []string{"X"}, names)
			assert.ErrorIs(Te, S.Save(2, X, Layout("packed")), ErrLayout)
			R, err := S.Load(2, "X")
			require.NoError(Te, err)
			assert.Equal(Te, X.String(), R.String())
			require.NoError(Te, S.Remove(1, B.Name()))
			_, err = S.Load(1, B.Name())
			assert.ErrorIs(Te, err, ErrNotFound)
		})
	}
}

func TestLowerTriangle(Te *testing.T) {
	for name, S := range backends(Te) {
		Te.Run(name, func(Te *testing.T) {
			G := symm.NewMatrix("Metric Correlation Density", symm.Dimension{3, 2}, symm.Dimension{3, 2}, 0)
			fill(G)
			require.NoError(Te, S.Save(1, G, LowerTriangle))
			R := symm.NewMatrix(G.Name(), symm.Dimension{3, 2}, symm.Dimension{3, 2}, 0)
			require.NoError(Te, S.LoadInto(1, R))
			for h := 0; h < 2; h++ {
				for i := 0; i < G.Rows(h); i++ {
					for j := 0; j <= i; j++ {
						assert.Equal(Te, G.At(h, i, j), R.At(h, i, j))
						assert.Equal(Te, G.At(h, i, j), R.At(h, j, i))
					}
				}
			}
			wrong := symm.NewMatrix(G.Name(), symm.Dimension{2, 3}, symm.Dimension{2, 3}, 0)
			assert.ErrorIs(Te, S.LoadInto(1, wrong), ErrShape)
		})
	}
}

func TestBuffer(Te *testing.T) {
	for name, S := range backends(Te) {
		Te.Run(name, func(Te *testing.T) {
			o, v := symm.Dimension{2, 1}, symm.Dimension{1, 2}
			B, err := S.OpenBuffer(2, "Lambda <OO|VV>", o, o, v, v)
			require.NoError(Te, err)
			_, err = S.OpenBuffer(2, "Lambda <OO|VV>", o, o, v, v)
			assert.ErrorIs(Te, err, ErrBusy)
			for h := 0; h < B.NIrrep(); h++ {
				B.InitIrrep(h)
				for i := 0; i < B.RowTot(h); i++ {
					for j := 0; j < B.ColTot(h); j++ {
						B.Set(h, i, j, float64(100*h+10*i+j))
					}
				}
				require.NoError(Te, B.WriteIrrep(h))
				B.CloseIrrep(h)
			}
			assert.Error(Te, B.WriteIrrep(0))
			require.NoError(Te, B.Close())

			B, err = S.OpenBuffer(2, "Lambda <OO|VV>", o, o, v, v)
			require.NoError(Te, err)
			require.NoError(Te, B.ReadIrrep(1))
			assert.Equal(Te, 112.0, B.At(1, 1, 2))
			require.NoError(Te, B.Close())
			_, err = S.OpenBuffer(2, "Lambda <OO|VV>", v, v, o, o)
			assert.ErrorIs(Te, err, ErrShape)

			Q, err := S.LoadQuad(2, "Lambda <OO|VV>")
			require.NoError(Te, err)
			assert.Equal(Te, o, Q.Spaces()[0])
			assert.Equal(Te, 112.0, Q.At(1, 1, 2))
			Q.SetName("copy")
			require.NoError(Te, S.SaveQuad(3, Q))
			C, err := S.LoadQuad(3, "copy")
			require.NoError(Te, err)
			assert.Equal(Te, Q.String(), C.String())

			//a new entry reads as zeros
			Z, err := S.OpenBuffer(2, "empty", o, v, o, v)
			require.NoError(Te, err)
			require.NoError(Te, Z.ReadIrrep(0))
			assert.Equal(Te, 0.0, Z.At(0, 0, 0))
			require.NoError(Te, Z.Close())

			//an output buffer replaces the old entry, even with another shape
			W, err := S.CreateBuffer(2, "Lambda <OO|VV>", v, v, o, o)
			require.NoError(Te, err)
			_, err = S.CreateBuffer(2, "Lambda <OO|VV>", v, v, o, o)
			assert.ErrorIs(Te, err, ErrBusy)
			require.NoError(Te, W.ReadIrrep(1))
			assert.Equal(Te, 0.0, W.At(1, 1, 2))
			require.NoError(Te, W.Close())
			H, err := S.Header(2, "Lambda <OO|VV>")
			require.NoError(Te, err)
			assert.Equal(Te, [][]int{v, v, o, o}, H.Spaces)
		})
	}
}

func TestErrors(Te *testing.T) {
	S, err := New(NewMemory(), Options{})
	require.NoError(Te, err)
	defer S.Close()
	_, err = S.Load(1, "nothing")
	var e *Error
	require.ErrorAs(Te, err, &e)
	assert.ErrorIs(Te, err, ErrNotFound)
	assert.False(Te, e.Critical())
	assert.Equal(Te, []string{"Load"}, e.Decorate("Load"))

	X := symm.NewMatrix("X", symm.Dimension{2}, symm.Dimension{3}, 0)
	err = S.Save(1, X, LowerTriangle)
	require.ErrorAs(Te, err, &e)
	assert.True(Te, e.Critical())
	assert.Contains(Te, err.Error(), "dfdct/store")
}

//TestPersistence checks that entries written by one session can be read by the next.
func TestPersistence(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "dfdct.db")
	S, err := Open(path, Options{})
	require.NoError(Te, err)
	M := symm.NewMatrix("J^-1/2 Reference", symm.Dimension{5}, symm.Dimension{5}, 0)
	fill(M)
	require.NoError(Te, S.Save(1, M, SubBlocks))
	first := S.opts.Session
	require.NoError(Te, S.Close())

	S, err = Open(path, Options{})
	require.NoError(Te, err)
	defer S.Close()
	assert.NotEqual(Te, first, S.opts.Session)
	H, err := S.Header(1, M.Name())
	require.NoError(Te, err)
	assert.Equal(Te, first, H.Session)
	assert.Equal(Te, SubBlocks, H.Layout)
	R, err := S.Load(1, M.Name())
	require.NoError(Te, err)
	assert.Equal(Te, M.String(), R.String())
}
