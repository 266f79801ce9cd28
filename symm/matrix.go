/*
 * matrix.go, part of dfdct.
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
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//Matrix is the symmetry-blocked container. It holds one dense, row-major block per irrep.
//Block h has rowspi[h] rows and colspi[h^symmetry] columns, so only
//the row/column irrep pairs allowed by the symmetry label are ever stored.
//A B tensor is a Matrix with symmetry 0, nQ rows in every irrep and, as columns,
//the pair space of a BlockLayout.
type Matrix struct {
	name     string
	rowspi   Dimension
	colspi   Dimension
	symmetry int
	blocks   []blas64.General
}

//NewMatrix returns a zeroed Matrix. It panics with ErrShape if rowspi and colspi
//have different irrep counts and with ErrSymmetry if the label is not a valid irrep.
func NewMatrix(name string, rowspi, colspi Dimension, symmetry int) *Matrix {
	if len(rowspi) != len(colspi) {
		panic(ErrShape)
	}
	n := len(rowspi)
	if symmetry < 0 || (n > 0 && symmetry >= n) {
		panic(ErrSymmetry)
	}
	M := &Matrix{name: name, rowspi: rowspi.Copy(), colspi: colspi.Copy(), symmetry: symmetry, blocks: make([]blas64.General, n)}
	for h := 0; h < n; h++ {
		r, c := rowspi[h], colspi[h^symmetry]
		M.blocks[h] = blas64.General{Rows: r, Cols: c, Stride: c, Data: make([]float64, r*c)}
	}
	return M
}

//NewDense wraps a single dense matrix as a Matrix with one irrep.
//The data is copied.
func NewDense(name string, D mat.Matrix) *Matrix {
	r, c := D.Dims()
	M := NewMatrix(name, Dimension{r}, Dimension{c}, 0)
	d := mat.NewDense(r, c, M.blocks[0].Data)
	d.Copy(D)
	return M
}

//Name returns the name of the matrix. Named matrices are what the store saves.
func (M *Matrix) Name() string { return M.name }

//SetName sets the name of the matrix
func (M *Matrix) SetName(name string) { M.name = name }

//NIrrep returns the number of irreps.
func (M *Matrix) NIrrep() int { return len(M.blocks) }

//Symmetry returns the symmetry label, 0 for a totally symmetric matrix.
func (M *Matrix) Symmetry() int { return M.symmetry }

//Rowspi returns a copy of the row dimension.
func (M *Matrix) Rowspi() Dimension { return M.rowspi.Copy() }

//Colspi returns a copy of the column dimension.
func (M *Matrix) Colspi() Dimension { return M.colspi.Copy() }

//Rows returns the number of rows of the block h.
func (M *Matrix) Rows(h int) int { return M.blocks[h].Rows }

//Cols returns the number of columns of the block h, i.e. colspi[h^symmetry].
func (M *Matrix) Cols(h int) int { return M.blocks[h].Cols }

//Block returns the raw block h. Changes to it are reflected in the matrix.
func (M *Matrix) Block(h int) blas64.General { return M.blocks[h] }

//Dense returns a *mat.Dense sharing the data of block h, or nil if the block is empty.
func (M *Matrix) Dense(h int) *mat.Dense {
	b := M.blocks[h]
	if b.Rows == 0 || b.Cols == 0 {
		return nil
	}
	return mat.NewDense(b.Rows, b.Cols, b.Data)
}

//View returns the r x c sub-block of block h starting at row i, column j.
//The view shares memory with M. Empty views have nil data.
func (M *Matrix) View(h, i, j, r, c int) blas64.General {
	b := M.blocks[h]
	if r == 0 || c == 0 {
		return blas64.General{Rows: r, Cols: c, Stride: 1}
	}
	if i < 0 || j < 0 || i+r > b.Rows || j+c > b.Cols {
		panic(ErrIndex)
	}
	return blas64.General{Rows: r, Cols: c, Stride: b.Stride, Data: b.Data[i*b.Stride+j:]}
}

//Row returns the row i of block h as a slice sharing memory with M.
func (M *Matrix) Row(h, i int) []float64 {
	b := M.blocks[h]
	return b.Data[i*b.Stride : i*b.Stride+b.Cols]
}

//At returns the element (i,j) of block h.
func (M *Matrix) At(h, i, j int) float64 {
	b := M.blocks[h]
	return b.Data[i*b.Stride+j]
}

//Set sets the element (i,j) of block h to v.
func (M *Matrix) Set(h, i, j int, v float64) {
	b := M.blocks[h]
	b.Data[i*b.Stride+j] = v
}

//AddAt adds v to the element (i,j) of block h.
func (M *Matrix) AddAt(h, i, j int, v float64) {
	b := M.blocks[h]
	b.Data[i*b.Stride+j] += v
}

//NumElements returns the number of stored elements, summed over the irrep blocks.
func (M *Matrix) NumElements() int {
	n := 0
	for _, b := range M.blocks {
		n += b.Rows * b.Cols
	}
	return n
}

//SameShape returns true if M and B have the same row and column dimensions
//and symmetry.
func (M *Matrix) SameShape(B *Matrix) bool {
	return M.symmetry == B.symmetry && M.rowspi.Equal(B.rowspi) && M.colspi.Equal(B.colspi)
}

//Zero sets every element to 0.
func (M *Matrix) Zero() {
	for _, b := range M.blocks {
		for i := range b.Data {
			b.Data[i] = 0
		}
	}
}

//Scale multiplies every element by f.
func (M *Matrix) Scale(f float64) {
	for _, b := range M.blocks {
		floats.Scale(f, b.Data)
	}
}

//Add puts M+B in the receiver. Both must have the same shape.
func (M *Matrix) Add(B *Matrix) error {
	return M.Axpy(1, B)
}

//Axpy puts M+alpha*B in the receiver. Both must have the same shape.
func (M *Matrix) Axpy(alpha float64, B *Matrix) error {
	if !M.SameShape(B) {
		return Errorf(ErrShape, "Axpy", "%s %v x %v (%d) vs %s %v x %v (%d)", M.name, M.rowspi, M.colspi, M.symmetry, B.name, B.rowspi, B.colspi, B.symmetry)
	}
	for h, b := range M.blocks {
		floats.AddScaled(b.Data, alpha, B.blocks[h].Data)
	}
	return nil
}

//Clone returns a deep copy of M.
func (M *Matrix) Clone() *Matrix {
	R := NewMatrix(M.name, M.rowspi, M.colspi, M.symmetry)
	for h, b := range M.blocks {
		copy(R.blocks[h].Data, b.Data)
	}
	return R
}

//CopyFrom copies the elements of B into M. Both must have the same shape.
func (M *Matrix) CopyFrom(B *Matrix) error {
	if !M.SameShape(B) {
		return Errorf(ErrShape, "CopyFrom", "%s vs %s", M.name, B.name)
	}
	for h, b := range M.blocks {
		copy(b.Data, B.blocks[h].Data)
	}
	return nil
}

//T returns a new matrix, the transpose of M.
func (M *Matrix) T() *Matrix {
	s := M.symmetry
	R := NewMatrix(M.name+"^T", M.colspi, M.rowspi, s)
	for h := range R.blocks {
		src := M.blocks[h^s]
		dst := R.blocks[h]
		for i := 0; i < src.Rows; i++ {
			for j := 0; j < src.Cols; j++ {
				dst.Data[j*dst.Stride+i] = src.Data[i*src.Stride+j]
			}
		}
	}
	return R
}

//Norm returns the Frobenius norm of M.
func (M *Matrix) Norm() float64 {
	s := 0.0
	for _, b := range M.blocks {
		s += floats.Dot(b.Data, b.Data)
	}
	return math.Sqrt(s)
}

//Columns returns a new totally symmetric matrix with the columns start[h]..start[h]+n[h]-1
//of each block. This is how the occupied and virtual coefficient subsets are built.
func (M *Matrix) Columns(name string, start, n Dimension) (*Matrix, error) {
	if M.symmetry != 0 {
		return nil, Errorf(ErrSymmetry, "Columns", "%s has symmetry %d", M.name, M.symmetry)
	}
	if len(start) != M.NIrrep() || len(n) != M.NIrrep() {
		return nil, Errorf(ErrShape, "Columns", "%d irreps requested from %s, which has %d", len(n), M.name, M.NIrrep())
	}
	R := NewMatrix(name, M.rowspi, n, 0)
	for h := range M.blocks {
		if start[h]+n[h] > M.colspi[h] {
			return nil, Errorf(ErrShape, "Columns", "irrep %d: columns %d+%d of %d", h, start[h], n[h], M.colspi[h])
		}
		for i := 0; i < M.rowspi[h]; i++ {
			copy(R.Row(h, i), M.Row(h, i)[start[h]:start[h]+n[h]])
		}
	}
	return R, nil
}

func trans(t bool) blas.Transpose {
	if t {
		return blas.Trans
	}
	return blas.NoTrans
}

//Doublet returns op(A)*op(B) for totally symmetric A and B, where op transposes
//the operand if the corresponding flag is true.
func Doublet(A, B *Matrix, tA, tB bool) (*Matrix, error) {
	if A.symmetry != 0 || B.symmetry != 0 {
		return nil, Errorf(ErrSymmetry, "Doublet", "%s (%d), %s (%d)", A.name, A.symmetry, B.name, B.symmetry)
	}
	if A.NIrrep() != B.NIrrep() {
		return nil, Errorf(ErrShape, "Doublet", "irreps: %d vs %d", A.NIrrep(), B.NIrrep())
	}
	m, k := A.rowspi, A.colspi
	if tA {
		m, k = k, m
	}
	kb, n := B.rowspi, B.colspi
	if tB {
		kb, n = n, kb
	}
	if !k.Equal(kb) {
		return nil, Errorf(ErrShape, "Doublet", "inner dimensions %v vs %v", k, kb)
	}
	R := NewMatrix(fmt.Sprintf("%s * %s", A.name, B.name), m, n, 0)
	if err := R.Gemm(tA, tB, 1, A, B, 0); err != nil {
		return nil, errDecorate(err, "Doublet")
	}
	return R, nil
}

//Gemm puts alpha*op(A)*op(B)+beta*M in the receiver, irrep by irrep.
//All three matrices must be totally symmetric.
func (M *Matrix) Gemm(tA, tB bool, alpha float64, A, B *Matrix, beta float64) error {
	if A.symmetry != 0 || B.symmetry != 0 || M.symmetry != 0 {
		return Errorf(ErrSymmetry, "Gemm", "only totally symmetric operands are supported")
	}
	if A.NIrrep() != M.NIrrep() || B.NIrrep() != M.NIrrep() {
		return Errorf(ErrShape, "Gemm", "irreps: %d, %d and %d", A.NIrrep(), B.NIrrep(), M.NIrrep())
	}
	for h, c := range M.blocks {
		a, b := A.blocks[h], B.blocks[h]
		m, k := a.Rows, a.Cols
		if tA {
			m, k = k, m
		}
		kb, n := b.Rows, b.Cols
		if tB {
			kb, n = n, kb
		}
		if m != c.Rows || n != c.Cols || k != kb {
			return Errorf(ErrShape, "Gemm", "irrep %d: (%d x %d) (%d x %d) -> (%d x %d)", h, m, k, kb, n, c.Rows, c.Cols)
		}
		if m == 0 || n == 0 {
			continue
		}
		if k == 0 {
			floats.Scale(beta, c.Data)
			continue
		}
		blas64.Gemm(trans(tA), trans(tB), alpha, a, b, beta, c)
	}
	return nil
}

//String returns a readable, if long, representation of the matrix.
func (M *Matrix) String() string {
	s := fmt.Sprintf("%s (symmetry %d) rows %v cols %v\n", M.name, M.symmetry, M.rowspi, M.colspi)
	for h := range M.blocks {
		d := M.Dense(h)
		if d == nil {
			continue
		}
		s += fmt.Sprintf("Irrep %d\n%v\n", h, mat.Formatted(d, mat.Squeeze()))
	}
	return s
}
