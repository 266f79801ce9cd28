/*
 * layout.go, part of dfdct.
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

//Block is one (left irrep, right irrep) sub-block of a composite pair space.
//Width is the product of the left and right counts, and Offset the column where
//the sub-block starts inside the irrep block of the composite space.
type Block struct {
	Left   int
	Right  int
	Offset int
	Width  int
}

//BlockLayout is the offset table of a composite pair index space (e.g. occupied x virtual).
//For each pair irrep h there is one Block per left irrep hL, in increasing hL order,
//with right irrep h^hL. Zero-width blocks are kept, so every (h, hL) can be looked up.
//A layout is immutable once built, and it is meant to be computed once and shared.
type BlockLayout struct {
	left   Dimension
	right  Dimension
	blocks [][]Block
	dims   Dimension
}

//NewBlockLayout builds the layout of the pair space left x right.
func NewBlockLayout(left, right Dimension) *BlockLayout {
	if len(left) != len(right) {
		panic(ErrShape)
	}
	n := len(left)
	L := &BlockLayout{left: left.Copy(), right: right.Copy(), blocks: make([][]Block, n), dims: make(Dimension, n)}
	for h := 0; h < n; h++ {
		offset := 0
		L.blocks[h] = make([]Block, n)
		for hl := 0; hl < n; hl++ {
			hr := h ^ hl
			w := left[hl] * right[hr]
			L.blocks[h][hl] = Block{Left: hl, Right: hr, Offset: offset, Width: w}
			offset += w
		}
		L.dims[h] = offset
	}
	return L
}

//NIrrep returns the number of irreps of the layout.
func (L *BlockLayout) NIrrep() int { return len(L.dims) }

//Left returns the per-irrep dimension of the left index.
func (L *BlockLayout) Left() Dimension { return L.left.Copy() }

//Right returns the per-irrep dimension of the right index.
func (L *BlockLayout) Right() Dimension { return L.right.Copy() }

//Dims returns the total width of each pair irrep, i.e. the colspi of
//a B tensor over this space.
func (L *BlockLayout) Dims() Dimension { return L.dims.Copy() }

//Blocks returns the sub-blocks of the pair irrep h. The slice must not be modified.
func (L *BlockLayout) Blocks(h int) []Block { return L.blocks[h] }

//Block returns the sub-block (hl, h^hl) of the pair irrep h.
func (L *BlockLayout) Block(h, hl int) Block { return L.blocks[h][hl] }

//Offset returns the starting column of the sub-block (hl, h^hl) in the pair irrep h.
func (L *BlockLayout) Offset(h, hl int) int { return L.blocks[h][hl].Offset }

//Index returns the pair irrep and the column of the element (i,j), where i is the
//ith function of the left irrep hl and j the jth of the right irrep hr.
func (L *BlockLayout) Index(hl, i, hr, j int) (int, int) {
	h := hl ^ hr
	return h, L.blocks[h][hl].Offset + i*L.right[hr] + j
}

//Equal returns true if both layouts describe the same pair space.
func (L *BlockLayout) Equal(M *BlockLayout) bool {
	return L.left.Equal(M.left) && L.right.Equal(M.right)
}
