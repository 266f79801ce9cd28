/*
 * quad.go, part of dfdct.
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

//Quad is a totally symmetric four-index quantity (pq|rs), stored as a Matrix
//whose rows are the pair space (p,q) and whose columns are the pair space (r,s).
//This is the in-memory shape of the spin blocks of integrals, cumulants and amplitudes.
type Quad struct {
	*Matrix
	spaces [4]Dimension
	row    *BlockLayout
	col    *BlockLayout
}

//NewQuad returns a zeroed four-index quantity over the spaces p, q, r and s.
func NewQuad(name string, p, q, r, s Dimension) *Quad {
	row := NewBlockLayout(p, q)
	col := NewBlockLayout(r, s)
	return &Quad{Matrix: NewMatrix(name, row.Dims(), col.Dims(), 0), spaces: [4]Dimension{p.Copy(), q.Copy(), r.Copy(), s.Copy()}, row: row, col: col}
}

//QuadFrom wraps M as a four-index quantity over the given spaces. M is not copied.
func QuadFrom(M *Matrix, spaces [4]Dimension) (*Quad, error) {
	row := NewBlockLayout(spaces[0], spaces[1])
	col := NewBlockLayout(spaces[2], spaces[3])
	if M.symmetry != 0 {
		return nil, Errorf(ErrSymmetry, "QuadFrom", "%s has symmetry %d", M.name, M.symmetry)
	}
	if !M.rowspi.Equal(row.Dims()) || !M.colspi.Equal(col.Dims()) {
		return nil, Errorf(ErrShape, "QuadFrom", "%s is %v x %v, spaces give %v x %v", M.name, M.rowspi, M.colspi, row.Dims(), col.Dims())
	}
	return &Quad{Matrix: M, spaces: spaces, row: row, col: col}, nil
}

//Spaces returns the four index spaces.
func (Q *Quad) Spaces() [4]Dimension { return Q.spaces }

//RowLayout returns the layout of the (p,q) pair space
func (Q *Quad) RowLayout() *BlockLayout { return Q.row }

//ColLayout returns the layout of the (r,s) pair space
func (Q *Quad) ColLayout() *BlockLayout { return Q.col }

//Index is one orbital, given as its irrep and its position inside the irrep.
type Index struct {
	Irrep int
	N     int
}

func (Q *Quad) position(idx [4]Index) (int, int, int, bool) {
	h, r := Q.row.Index(idx[0].Irrep, idx[0].N, idx[1].Irrep, idx[1].N)
	hc, c := Q.col.Index(idx[2].Irrep, idx[2].N, idx[3].Irrep, idx[3].N)
	return h, r, c, h == hc
}

//Elem returns the element (pq|rs). Symmetry-forbidden elements are 0.
func (Q *Quad) Elem(idx [4]Index) float64 {
	h, r, c, ok := Q.position(idx)
	if !ok {
		return 0
	}
	return Q.At(h, r, c)
}

//SetElem sets the element (pq|rs). It panics with ErrSymmetry for a forbidden element.
func (Q *Quad) SetElem(idx [4]Index, v float64) {
	h, r, c, ok := Q.position(idx)
	if !ok {
		panic(ErrSymmetry)
	}
	Q.Set(h, r, c, v)
}

//Each calls fn for every stored element, with its four indexes.
func (Q *Quad) Each(fn func(idx [4]Index, v float64)) {
	var idx [4]Index
	for h := 0; h < Q.NIrrep(); h++ {
		for _, rb := range Q.row.Blocks(h) {
			if rb.Width == 0 {
				continue
			}
			for _, cb := range Q.col.Blocks(h) {
				if cb.Width == 0 {
					continue
				}
				np, nq := Q.spaces[0][rb.Left], Q.spaces[1][rb.Right]
				nr, ns := Q.spaces[2][cb.Left], Q.spaces[3][cb.Right]
				for p := 0; p < np; p++ {
					for q := 0; q < nq; q++ {
						row := rb.Offset + p*nq + q
						for r := 0; r < nr; r++ {
							for s := 0; s < ns; s++ {
								idx[0] = Index{rb.Left, p}
								idx[1] = Index{rb.Right, q}
								idx[2] = Index{cb.Left, r}
								idx[3] = Index{cb.Right, s}
								fn(idx, Q.At(h, row, cb.Offset+r*ns+s))
							}
						}
					}
				}
			}
		}
	}
}

//parsePermutation turns an order such as "prqs" into source positions.
func parsePermutation(order string) ([4]int, error) {
	var perm [4]int
	var seen [4]bool
	if len(order) != 4 {
		return perm, Errorf(ErrPermutation, "Sort", "%q", order)
	}
	for k := 0; k < 4; k++ {
		i := int(order[k]) - 'p'
		if i < 0 || i > 3 || seen[i] {
			return perm, Errorf(ErrPermutation, "Sort", "%q", order)
		}
		seen[i] = true
		perm[k] = i
	}
	return perm, nil
}

//Sort returns a new four-index quantity with the indexes of src reordered.
//order names, for each position of the result, the index of src that goes there,
//using the letters p, q, r and s for the source indexes. With "prqs", the element
//(pr|qs) of the result is the element (pq|rs) of src.
func Sort(src *Quad, order, name string) (*Quad, error) {
	perm, err := parsePermutation(order)
	if err != nil {
		return nil, err
	}
	sp := src.spaces
	dst := NewQuad(name, sp[perm[0]], sp[perm[1]], sp[perm[2]], sp[perm[3]])
	var target [4]Index
	src.Each(func(idx [4]Index, v float64) {
		for k := range target {
			target[k] = idx[perm[k]]
		}
		h, r, c, ok := dst.position(target)
		//the result is totally symmetric whenever the source is
		if ok {
			dst.Set(h, r, c, v)
		}
	})
	return dst, nil
}
