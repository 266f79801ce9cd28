/*
 * buffer.go, part of dfdct.
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
	"github.com/pkg/errors"
	"github.com/rmera/dfdct/symm"
	"gonum.org/v1/gonum/blas/blas64"
)

//Buffer gives per-irrep access to a stored four-index quantity, so that only the
//blocks in use need to be in memory. A Buffer is not safe for concurrent use.
type Buffer struct {
	st     *Store
	file   File
	key    entryKey
	blocks []blas64.General //only in memory between InitIrrep/ReadIrrep and CloseIrrep
	spaces [4]symm.Dimension
	row    *symm.BlockLayout
	col    *symm.BlockLayout
	closed bool
}

//OpenBuffer opens the entry name, over the index spaces p, q, r and s.
//A missing entry is created, with all blocks reading as zero. An existing
//entry must have been stored with the same shape.
func (S *Store) OpenBuffer(file File, name string, p, q, r, s symm.Dimension) (*Buffer, error) {
	return S.openBuffer(file, name, [4]symm.Dimension{p, q, r, s}, false)
}

//CreateBuffer opens a new entry name over the index spaces p, q, r and s, for output.
//Any previous entry with that name is removed first, whatever its shape.
func (S *Store) CreateBuffer(file File, name string, p, q, r, s symm.Dimension) (*Buffer, error) {
	return S.openBuffer(file, name, [4]symm.Dimension{p, q, r, s}, true)
}

func (S *Store) openBuffer(file File, name string, sp [4]symm.Dimension, replace bool) (*Buffer, error) {
	k := entryKey{file, name}
	S.mu.Lock()
	if S.inUse[k] {
		S.mu.Unlock()
		return nil, errorf(ErrBusy, "%q", name)
	}
	S.inUse[k] = true
	S.mu.Unlock()
	B := &Buffer{st: S, file: file, key: k, spaces: [4]symm.Dimension{sp[0].Copy(), sp[1].Copy(), sp[2].Copy(), sp[3].Copy()}}
	B.row = symm.NewBlockLayout(sp[0], sp[1])
	B.col = symm.NewBlockLayout(sp[2], sp[3])
	rows, cols := B.row.Dims(), B.col.Dims()
	var H *Header
	var err error
	if replace {
		if err = S.Remove(file, name); err == nil {
			err = ErrNotFound
		}
	} else {
		H, err = S.Header(file, name)
	}
	switch {
	case errors.Is(err, ErrNotFound):
		H = &Header{Name: name, Layout: SubBlocks, Rowspi: rows, Colspi: cols, Spaces: spaces(B.spaces)}
		err = S.putHeader(file, H)
	case err == nil:
		if H.Layout != SubBlocks || H.Symmetry != 0 || !rows.Equal(H.Rowspi) || !cols.Equal(H.Colspi) {
			err = errorf(ErrShape, "%q is stored as %v x %v, buffer needs %v x %v", name, H.Rowspi, H.Colspi, rows, cols)
		} else if len(H.Spaces) == 4 && !sameSpaces(H.Spaces, B.spaces) {
			err = errorf(ErrShape, "%q is stored over spaces %v", name, H.Spaces)
		}
	}
	if err != nil {
		S.release(k)
		return nil, err
	}
	B.blocks = make([]blas64.General, len(rows))
	return B, nil
}

//OpenExisting opens a buffer on an entry that must already exist, over the index
//spaces recorded in its header.
func (S *Store) OpenExisting(file File, name string) (*Buffer, error) {
	H, err := S.Header(file, name)
	if err != nil {
		return nil, err
	}
	if len(H.Spaces) != 4 {
		return nil, errorf(ErrShape, "%q was not stored as a four-index quantity", name)
	}
	return S.OpenBuffer(file, name, H.Spaces[0], H.Spaces[1], H.Spaces[2], H.Spaces[3])
}

func sameSpaces(a [][]int, b [4]symm.Dimension) bool {
	for i := range b {
		if !b[i].Equal(a[i]) {
			return false
		}
	}
	return true
}

func (S *Store) release(k entryKey) {
	S.mu.Lock()
	delete(S.inUse, k)
	S.mu.Unlock()
}

//Name returns the name of the buffered entry.
func (B *Buffer) Name() string { return B.key.name }

//NIrrep returns the number of irreps.
func (B *Buffer) NIrrep() int { return B.row.NIrrep() }

//RowTot returns the number of (p,q) pairs in irrep h.
func (B *Buffer) RowTot(h int) int { return B.row.Dims()[h] }

//ColTot returns the number of (r,s) pairs in irrep h.
func (B *Buffer) ColTot(h int) int { return B.col.Dims()[h] }

//RowLayout returns the layout of the (p,q) pairs.
func (B *Buffer) RowLayout() *symm.BlockLayout { return B.row }

//ColLayout returns the layout of the (r,s) pairs.
func (B *Buffer) ColLayout() *symm.BlockLayout { return B.col }

//Spaces returns the index spaces of the buffer.
func (B *Buffer) Spaces() [4]symm.Dimension { return B.spaces }

//InitIrrep allocates a zeroed block h.
func (B *Buffer) InitIrrep(h int) {
	r, c := B.RowTot(h), B.ColTot(h)
	B.blocks[h] = blas64.General{Rows: r, Cols: c, Stride: max(c, 1), Data: make([]float64, r*c)}
}

//ReadIrrep allocates block h and fills it from the store.
func (B *Buffer) ReadIrrep(h int) error {
	B.InitIrrep(h)
	return B.st.getBlock(B.file, B.key.name, h, B.blocks[h])
}

//WriteIrrep stores block h, which must have been initialized or read.
func (B *Buffer) WriteIrrep(h int) error {
	if B.blocks[h].Data == nil && B.RowTot(h)*B.ColTot(h) > 0 {
		return errors.Errorf("buffer %q: irrep %d written while not in memory", B.key.name, h)
	}
	return B.st.putBlock(B.file, B.key.name, h, B.blocks[h])
}

//CloseIrrep releases the memory of block h.
func (B *Buffer) CloseIrrep(h int) {
	B.blocks[h] = blas64.General{}
}

//Irrep returns the in-memory block h: rows are (p,q) pairs and columns (r,s) pairs.
func (B *Buffer) Irrep(h int) blas64.General { return B.blocks[h] }

//At returns element (i,j) of the in-memory block h.
func (B *Buffer) At(h, i, j int) float64 {
	b := B.blocks[h]
	return b.Data[i*b.Stride+j]
}

//Set sets element (i,j) of the in-memory block h.
func (B *Buffer) Set(h, i, j int, v float64) {
	b := B.blocks[h]
	b.Data[i*b.Stride+j] = v
}

//Quad reads the whole entry into memory.
func (B *Buffer) Quad() (*symm.Quad, error) {
	Q := symm.NewQuad(B.key.name, B.spaces[0], B.spaces[1], B.spaces[2], B.spaces[3])
	for h := 0; h < B.NIrrep(); h++ {
		if err := B.st.getBlock(B.file, B.key.name, h, Q.Block(h)); err != nil {
			return nil, err
		}
	}
	return Q, nil
}

//Close releases the buffer and the entry. Blocks not written are lost.
func (B *Buffer) Close() error {
	if B.closed {
		return nil
	}
	B.closed = true
	B.blocks = nil
	B.st.release(B.key)
	return nil
}
