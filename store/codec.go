/*
 * codec.go, part of dfdct.
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
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

//codec turns dense blocks into compressed blobs and back.
//EncodeAll and DecodeAll can be used concurrently, so one codec serves the whole store.
type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCodec(level zstd.EncoderLevel) (*codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, errors.Wrap(err, "zstd encoder")
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, errors.Wrap(err, "zstd decoder")
	}
	return &codec{enc: enc, dec: dec}, nil
}

func (c *codec) close() {
	c.enc.Close()
	c.dec.Close()
}

//dense encodes an r x c block.
func (c *codec) dense(r, cols int, data []float64) ([]byte, error) {
	b, err := mat.NewDense(r, cols, data).MarshalBinary()
	if err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(b, nil), nil
}

//undense decodes a block into dst, which must have the stored shape.
func (c *codec) undense(blob []byte, r, cols int, dst []float64) error {
	raw, err := c.dec.DecodeAll(blob, nil)
	if err != nil {
		return errors.Wrap(err, "zstd")
	}
	var D mat.Dense
	if err := D.UnmarshalBinary(raw); err != nil {
		return err
	}
	dr, dc := D.Dims()
	if dr != r || dc != cols {
		return errorf(ErrShape, "stored block is %dx%d, expected %dx%d", dr, dc, r, cols)
	}
	mat.NewDense(r, cols, dst).Copy(&D)
	return nil
}

//vector encodes a packed vector, used for lower triangles.
func (c *codec) vector(v []float64) ([]byte, error) {
	b, err := mat.NewVecDense(len(v), v).MarshalBinary()
	if err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(b, nil), nil
}

func (c *codec) unvector(blob []byte, n int) ([]float64, error) {
	raw, err := c.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, errors.Wrap(err, "zstd")
	}
	var v mat.VecDense
	if err := v.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	if v.Len() != n {
		return nil, errorf(ErrShape, "stored vector has %d elements, expected %d", v.Len(), n)
	}
	return v.RawVector().Data, nil
}
