/*
 * store.go, part of dfdct.
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
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/rmera/dfdct/symm"
	"gonum.org/v1/gonum/blas/blas64"
	"gopkg.in/yaml.v3"
)

//File is one of the logical files of the store.
type File int

//Layout is how a matrix is laid out when saved whole.
type Layout string

const (
	LowerTriangle Layout = "lower-triangle" //packed lower triangle of each (square, symmetric) block
	Full          Layout = "full"           //one dense matrix over all irreps, off-symmetry elements included
	SubBlocks     Layout = "sub-blocks"     //each irrep block on its own
)

//Header describes a stored entry.
type Header struct {
	Name     string   `yaml:"name"`
	Layout   Layout   `yaml:"layout"`
	Symmetry int      `yaml:"symmetry"`
	Rowspi   []int    `yaml:"rowspi,flow"`
	Colspi   []int    `yaml:"colspi,flow"`
	Spaces   [][]int  `yaml:"spaces,omitempty,flow"`
	Session  string   `yaml:"session,omitempty"`
	Notes    []string `yaml:"notes,omitempty"`
}

//Options tune a Store.
type Options struct {
	Compression zstd.EncoderLevel //zero means zstd.SpeedDefault
	Session     string            //recorded in every header written
}

//Store is the named, file-partitioned store for symmetry-blocked matrices.
//Distinct entries can be written concurrently. An entry can be open in
//only one Buffer at a time.
type Store struct {
	b     Backend
	c     *codec
	opts  Options
	mu    sync.Mutex
	inUse map[entryKey]bool
}

//New returns a Store over the given backend.
func New(b Backend, opts Options) (*Store, error) {
	if opts.Compression == 0 {
		opts.Compression = zstd.SpeedDefault
	}
	c, err := newCodec(opts.Compression)
	if err != nil {
		return nil, err
	}
	return &Store{b: b, c: c, opts: opts, inUse: make(map[entryKey]bool)}, nil
}

//Open returns a store on a SQLite database at path, or in RAM if path is empty.
func Open(path string, opts Options) (*Store, error) {
	var b Backend
	if path == "" {
		b = NewMemory()
	} else {
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		if opts.Session == "" {
			opts.Session = s.Session()
		}
		b = s
	}
	S, err := New(b, opts)
	if err != nil {
		b.Close()
		return nil, err
	}
	return S, nil
}

//Close releases the store and its backend.
func (S *Store) Close() error {
	S.c.close()
	return S.b.Close()
}

//Backend returns the backend of the store.
func (S *Store) Backend() Backend { return S.b }

//Exists returns true if the file contains an entry called name.
func (S *Store) Exists(file File, name string) bool {
	_, err := S.b.Header(file, name)
	return err == nil
}

//Names lists the entries of a file, sorted.
func (S *Store) Names(file File) ([]string, error) {
	return S.b.Names(file)
}

//Remove deletes an entry. Removing a missing entry is not an error.
func (S *Store) Remove(file File, name string) error {
	return S.b.Remove(file, name)
}

//Header returns the header of the entry name.
func (S *Store) Header(file File, name string) (*Header, error) {
	raw, err := S.b.Header(file, name)
	if err != nil {
		return nil, err
	}
	H := new(Header)
	if err := yaml.Unmarshal(raw, H); err != nil {
		return nil, errors.Wrapf(err, "header of %q", name)
	}
	return H, nil
}

func (S *Store) putHeader(file File, H *Header) error {
	H.Session = S.opts.Session
	raw, err := yaml.Marshal(H)
	if err != nil {
		return err
	}
	return S.b.PutHeader(file, H.Name, raw)
}

func newHeader(M *symm.Matrix, layout Layout) *Header {
	return &Header{Name: M.Name(), Layout: layout, Symmetry: M.Symmetry(), Rowspi: M.Rowspi(), Colspi: M.Colspi()}
}

//Save writes M, under its name, with the given layout, replacing any previous entry.
//LowerTriangle needs a totally symmetric matrix with square blocks, and only the lower
//triangle of each block is kept.
func (S *Store) Save(file File, M *symm.Matrix, layout Layout) error {
	switch layout {
	case LowerTriangle:
		if M.Symmetry() != 0 || !M.Rowspi().Equal(M.Colspi()) {
			return errorf(ErrLayout, "%s as %s", M.Name(), layout)
		}
	case Full, SubBlocks:
	default:
		return errorf(ErrLayout, "unknown layout %q", layout)
	}
	if err := S.Remove(file, M.Name()); err != nil {
		return err
	}
	H := newHeader(M, layout)
	switch layout {
	case LowerTriangle:
		if err := S.putHeader(file, H); err != nil {
			return err
		}
		for h := 0; h < M.NIrrep(); h++ {
			n := M.Rows(h)
			if n == 0 {
				continue
			}
			packed := make([]float64, 0, n*(n+1)/2)
			for i := 0; i < n; i++ {
				packed = append(packed, M.Row(h, i)[:i+1]...)
			}
			blob, err := S.c.vector(packed)
			if err != nil {
				return err
			}
			if err := S.b.PutBlock(file, M.Name(), h, blob); err != nil {
				return err
			}
		}
	case Full:
		if err := S.putHeader(file, H); err != nil {
			return err
		}
		r, c, data := full(M)
		if r*c == 0 {
			return nil
		}
		blob, err := S.c.dense(r, c, data)
		if err != nil {
			return err
		}
		return S.b.PutBlock(file, M.Name(), 0, blob)
	case SubBlocks:
		if err := S.putHeader(file, H); err != nil {
			return err
		}
		for h := 0; h < M.NIrrep(); h++ {
			if err := S.putBlock(file, M.Name(), h, M.Block(h)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (S *Store) putBlock(file File, name string, h int, b blas64.General) error {
	if b.Rows*b.Cols == 0 {
		return nil
	}
	blob, err := S.c.dense(b.Rows, b.Cols, b.Data)
	if err != nil {
		return err
	}
	return S.b.PutBlock(file, name, h, blob)
}

//getBlock reads block h of the entry name into b. Blocks never written read as zeros.
func (S *Store) getBlock(file File, name string, h int, b blas64.General) error {
	if b.Rows*b.Cols == 0 {
		return nil
	}
	blob, err := S.b.Block(file, name, h)
	if errors.Is(err, ErrNotFound) {
		for i := range b.Data {
			b.Data[i] = 0
		}
		return nil
	}
	if err != nil {
		return err
	}
	return S.c.undense(blob, b.Rows, b.Cols, b.Data)
}

//Load reads the entry name into a new matrix with the stored shape.
func (S *Store) Load(file File, name string) (*symm.Matrix, error) {
	H, err := S.Header(file, name)
	if err != nil {
		return nil, err
	}
	M := symm.NewMatrix(name, symm.Dimension(H.Rowspi), symm.Dimension(H.Colspi), H.Symmetry)
	return M, S.read(file, H, M)
}

//LoadInto reads the entry named like M into M, which must have the stored shape.
func (S *Store) LoadInto(file File, M *symm.Matrix) error {
	H, err := S.Header(file, M.Name())
	if err != nil {
		return err
	}
	if H.Symmetry != M.Symmetry() || !M.Rowspi().Equal(H.Rowspi) || !M.Colspi().Equal(H.Colspi) {
		return errorf(ErrShape, "%s is stored as %v x %v (symmetry %d)", M.Name(), H.Rowspi, H.Colspi, H.Symmetry)
	}
	return S.read(file, H, M)
}

func (S *Store) read(file File, H *Header, M *symm.Matrix) error {
	switch H.Layout {
	case LowerTriangle:
		for h := 0; h < M.NIrrep(); h++ {
			n := M.Rows(h)
			if n == 0 {
				continue
			}
			blob, err := S.b.Block(file, H.Name, h)
			if err != nil {
				return err
			}
			packed, err := S.c.unvector(blob, n*(n+1)/2)
			if err != nil {
				return err
			}
			k := 0
			for i := 0; i < n; i++ {
				for j := 0; j <= i; j++ {
					M.Set(h, i, j, packed[k])
					M.Set(h, j, i, packed[k])
					k++
				}
			}
		}
	case Full:
		r, c := symm.Dimension(H.Rowspi).Sum(), symm.Dimension(H.Colspi).Sum()
		if r*c == 0 {
			return nil
		}
		blob, err := S.b.Block(file, H.Name, 0)
		if err != nil {
			return err
		}
		data := make([]float64, r*c)
		if err := S.c.undense(blob, r, c, data); err != nil {
			return err
		}
		unfull(M, data)
	case SubBlocks:
		for h := 0; h < M.NIrrep(); h++ {
			if err := S.getBlock(file, H.Name, h, M.Block(h)); err != nil {
				return err
			}
		}
	default:
		return errorf(ErrLayout, "unknown layout %q", H.Layout)
	}
	return nil
}

//full places the blocks of M into one dense matrix over all irreps.
func full(M *symm.Matrix) (int, int, []float64) {
	rowoff, r := offsets(M.Rowspi())
	coloff, c := offsets(M.Colspi())
	data := make([]float64, r*c)
	for h := 0; h < M.NIrrep(); h++ {
		hc := h ^ M.Symmetry()
		for i := 0; i < M.Rows(h); i++ {
			copy(data[(rowoff[h]+i)*c+coloff[hc]:], M.Row(h, i))
		}
	}
	return r, c, data
}

func unfull(M *symm.Matrix, data []float64) {
	rowoff, _ := offsets(M.Rowspi())
	coloff, c := offsets(M.Colspi())
	for h := 0; h < M.NIrrep(); h++ {
		hc := h ^ M.Symmetry()
		for i := 0; i < M.Rows(h); i++ {
			start := (rowoff[h]+i)*c + coloff[hc]
			copy(M.Row(h, i), data[start:start+M.Cols(h)])
		}
	}
}

func offsets(d symm.Dimension) ([]int, int) {
	off := make([]int, len(d))
	n := 0
	for h, v := range d {
		off[h] = n
		n += v
	}
	return off, n
}

//SaveQuad writes a four-index quantity block by block, recording its index spaces.
func (S *Store) SaveQuad(file File, Q *symm.Quad) error {
	if err := S.Remove(file, Q.Name()); err != nil {
		return err
	}
	H := newHeader(Q.Matrix, SubBlocks)
	H.Spaces = spaces(Q.Spaces())
	if err := S.putHeader(file, H); err != nil {
		return err
	}
	for h := 0; h < Q.NIrrep(); h++ {
		if err := S.putBlock(file, Q.Name(), h, Q.Block(h)); err != nil {
			return err
		}
	}
	return nil
}

//LoadQuad reads a four-index quantity written by SaveQuad or through a Buffer.
func (S *Store) LoadQuad(file File, name string) (*symm.Quad, error) {
	H, err := S.Header(file, name)
	if err != nil {
		return nil, err
	}
	if len(H.Spaces) != 4 {
		return nil, errorf(ErrShape, "%s has no index spaces", name)
	}
	M, err := S.Load(file, name)
	if err != nil {
		return nil, err
	}
	var sp [4]symm.Dimension
	for i := range sp {
		sp[i] = symm.Dimension(H.Spaces[i])
	}
	return symm.QuadFrom(M, sp)
}

func spaces(sp [4]symm.Dimension) [][]int {
	r := make([][]int, 4)
	for i, d := range sp {
		r[i] = d.Copy()
	}
	return r
}
