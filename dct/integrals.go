/*
 * integrals.go, part of dfdct.
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

	"github.com/pkg/errors"
	"github.com/rmera/dfdct"
	"github.com/rmera/dfdct/df"
	"github.com/rmera/dfdct/symm"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

//Class is a class of MO integrals, by the orbital spaces of its indexes.
type Class string

const (
	OVOV Class = "ovov"
	OOOO Class = "oooo"
	VVOO Class = "vvoo"
	VOOO Class = "vooo"
	OVVV Class = "ovvv"
	VVVV Class = "vvvv"
)

//Classes lists every integral class, in the order FormIntegrals builds them.
var Classes = []Class{OVOV, OOOO, VVOO, VOOO, OVVV, VVVV}

//which references a target applies to
type refs int

const (
	both refs = iota
	rhfOnly
	uhfOnly
)

type target struct {
	name        string
	left, right Key
	refs        refs
}

func (t target) applies(ref dfdct.Reference) bool {
	switch t.refs {
	case rhfOnly:
		return ref.Restricted()
	case uhfOnly:
		return !ref.Restricted()
	}
	return true
}

var targets = map[Class][]target{
	OVOV: {
		{"MO Ints (OV|OV)", IAA, IAA, both},
		{"MO Ints (OV|ov)", IAA, IAB, uhfOnly},
		{"MO Ints (ov|ov)", IAB, IAB, uhfOnly},
	},
	OOOO: {
		{"MO Ints (OO|OO)", IJA, IJA, both},
		{"MO Ints (OO|oo)", IJA, IJB, uhfOnly},
		{"MO Ints (oo|oo)", IJB, IJB, uhfOnly},
	},
	VVOO: {
		{"MO Ints (VV|OO)", ABA, IJA, rhfOnly},
		{"MO Ints (VV|oo)", ABA, IJB, uhfOnly},
		{"MO Ints (OO|VV)", IJA, ABA, uhfOnly},
		{"MO Ints (OO|vv)", IJA, ABB, uhfOnly},
		{"MO Ints (oo|vv)", IJB, ABB, uhfOnly},
	},
	VOOO: {
		{"MO Ints (VO|OO)", AIA, IJA, both},
		{"MO Ints (VO|oo)", AIA, IJB, uhfOnly},
		{"MO Ints (vo|oo)", AIB, IJB, uhfOnly},
		{"MO Ints (OO|vo)", IJA, AIB, uhfOnly},
	},
	OVVV: {
		{"MO Ints (OV|VV)", IAA, ABA, both},
		{"MO Ints (OV|vv)", IAA, ABB, uhfOnly},
		{"MO Ints (ov|vv)", IAB, ABB, uhfOnly},
		{"MO Ints (VV|ov)", ABA, IAB, uhfOnly},
	},
	VVVV: {
		{"MO Ints (VV|VV)", ABA, ABA, both},
		{"MO Ints (VV|vv)", ABA, ABB, uhfOnly},
		{"MO Ints (vv|vv)", ABB, ABB, uhfOnly},
	},
}

//Targets returns the store names of the integral blocks of class c for the given reference.
func Targets(c Class, ref dfdct.Reference) []string {
	var names []string
	for _, t := range targets[c] {
		if t.applies(ref) {
			names = append(names, t.name)
		}
	}
	return names
}

//FormIntegrals builds every class of MO integrals and writes them to the integral file.
func (S *Solver) FormIntegrals(ctx context.Context) error {
	defer df.Timer(S.log, "form integrals")()
	for _, c := range Classes {
		if err := S.FormClass(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

//FormClass builds the integral blocks of class c, (pq|rs) = sum_Q b(Q|pq) b(Q|rs).
func (S *Solver) FormClass(ctx context.Context, c Class) error {
	list, ok := targets[c]
	if !ok {
		return errors.Errorf("unknown integral class %q", c)
	}
	if S.orb == nil {
		return errors.New("FormClass: no orbitals")
	}
	ref := S.orb.Reference()
	for _, t := range list {
		if !t.applies(ref) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := S.formTarget(ctx, t); err != nil {
			return errors.Wrapf(err, "%s", t.name)
		}
	}
	return nil
}

func (S *Solver) formTarget(ctx context.Context, t target) error {
	Bl, err := S.B(ctx, t.left)
	if err != nil {
		return err
	}
	Br, err := S.B(ctx, t.right)
	if err != nil {
		return err
	}
	p, q := S.spaces(t.left)
	r, s := S.spaces(t.right)
	I, err := S.st.CreateBuffer(dfdct.IntegralFile, t.name, p, q, r, s)
	if err != nil {
		return err
	}
	defer I.Close()
	for h := 0; h < I.NIrrep(); h++ {
		if I.RowTot(h) == 0 || I.ColTot(h) == 0 {
			continue
		}
		I.InitIrrep(h)
		if Bl.Rows(h) > 0 {
			blas64.Gemm(blas.Trans, blas.NoTrans, 1, Bl.Block(h), Br.Block(h), 0, I.Irrep(h))
		}
		if err := I.WriteIrrep(h); err != nil {
			return err
		}
		I.CloseIrrep(h)
	}
	S.log.WithFields(logrus.Fields{"entry": t.name, "left": t.left, "right": t.right}).Debug("integrals written")
	return nil
}

//spaces returns the dimensions of the two indexes of the pair space of k.
func (S *Solver) spaces(k Key) (p, q symm.Dimension) {
	s := k.Spin()
	if S.orb.Reference().Restricted() {
		s = Alpha
	}
	l, r := k.Spaces()
	return S.orb.Dim(s, l), S.orb.Dim(s, r)
}
