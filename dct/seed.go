/*
 * seed.go, part of dfdct.
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
	"github.com/pkg/errors"
	"github.com/rmera/dfdct"
	"github.com/rmera/dfdct/store"
	"github.com/rmera/dfdct/symm"
	"golang.org/x/exp/rand"
)

//The store names of the one-particle densities.
var (
	TauNames   = [2]string{"Tau A", "Tau B"}
	KappaNames = [2]string{"Kappa A", "Kappa B"}
)

//SeedScale is the largest magnitude of the seeded cumulant and amplitude elements.
const SeedScale = 0.05

type seedEntry struct {
	name  string
	space [4]orbSpace
}

//orbSpace is an orbital subspace of one spin.
type orbSpace struct {
	s  Spin
	sp Space
}

var (
	oA = orbSpace{Alpha, Occ}
	vA = orbSpace{Alpha, Vir}
	oB = orbSpace{Beta, Occ}
	vB = orbSpace{Beta, Vir}
)

var seedEntries = []seedEntry{
	{"I <OO|OO>", [4]orbSpace{oA, oA, oA, oA}},
	{"I <Oo|Oo>", [4]orbSpace{oA, oB, oA, oB}},
	{"I <oo|oo>", [4]orbSpace{oB, oB, oB, oB}},
	{"K (OO|VV)", [4]orbSpace{oA, oA, vA, vA}},
	{"K (OV|OV)", [4]orbSpace{oA, vA, oA, vA}},
	{"K (oo|vv)", [4]orbSpace{oB, oB, vB, vB}},
	{"K (ov|ov)", [4]orbSpace{oB, vB, oB, vB}},
	{"K (OO|vv)", [4]orbSpace{oA, oA, vB, vB}},
	{"K (oo|VV)", [4]orbSpace{oB, oB, vA, vA}},
	{"K (OV|ov)", [4]orbSpace{oA, vA, oB, vB}},
	{"Lambda (OV|OV)", [4]orbSpace{oA, vA, oA, vA}},
	{"Lambda (OV|ov)", [4]orbSpace{oA, vA, oB, vB}},
	{"Lambda (ov|ov)", [4]orbSpace{oB, vB, oB, vB}},
}

var rhfAmplitudes = []seedEntry{
	{"Amplitude SF <OO|VV>", [4]orbSpace{oA, oA, vA, vA}},
}

var uhfAmplitudes = []seedEntry{
	{"Amplitude <OO|VV>", [4]orbSpace{oA, oA, vA, vA}},
	{"Amplitude <oo|vv>", [4]orbSpace{oB, oB, vB, vB}},
	{"Amplitude <Oo|Vv>", [4]orbSpace{oA, oB, vA, vB}},
}

//Seed writes reproducible cumulants, amplitudes and one-particle densities for the
//orbitals O to the amplitude file, in place of the ones a DCT solution would provide.
//The cumulant blocks are written for both spins even for RHF.
func Seed(st *store.Store, O *Orbitals, seed uint64) error {
	r := rand.New(rand.NewSource(seed))
	entries := append([]seedEntry{}, seedEntries...)
	if O.Reference().Restricted() {
		entries = append(entries, rhfAmplitudes...)
	} else {
		entries = append(entries, uhfAmplitudes...)
	}
	for _, e := range entries {
		var sp [4]symm.Dimension
		for k, s := range e.space {
			sp[k] = O.Dim(s.s, s.sp)
		}
		Q := symm.NewQuad(e.name, sp[0], sp[1], sp[2], sp[3])
		fillRandom(r, Q.Matrix, SeedScale)
		if err := st.SaveQuad(dfdct.AmplitudeFile, Q); err != nil {
			return errors.Wrapf(err, "seeding %s", e.name)
		}
	}
	n := O.Nsopi()
	for s := range TauNames {
		tau := symm.NewMatrix(TauNames[s], n, n, 0)
		fillRandom(r, tau, SeedScale)
		symmetrize(tau)
		kappa := symm.NewMatrix(KappaNames[s], n, n, 0)
		occ := O.Dim(Spin(s), Occ)
		for h := range n {
			for i := 0; i < occ[h]; i++ {
				kappa.Set(h, i, i, 1)
			}
		}
		for _, M := range []*symm.Matrix{tau, kappa} {
			if err := st.Save(dfdct.AmplitudeFile, M, store.SubBlocks); err != nil {
				return errors.Wrapf(err, "seeding %s", M.Name())
			}
		}
	}
	return nil
}

//LoadDensities reads tau and kappa, for both spins, from the amplitude file, and
//returns gamma = tau + kappa for each spin.
func LoadDensities(st *store.Store) ([2]*symm.Matrix, error) {
	var gamma [2]*symm.Matrix
	for s := range gamma {
		tau, err := st.Load(dfdct.AmplitudeFile, TauNames[s])
		if err != nil {
			return gamma, err
		}
		kappa, err := st.Load(dfdct.AmplitudeFile, KappaNames[s])
		if err != nil {
			return gamma, err
		}
		if gamma[s], err = Gamma(tau, kappa); err != nil {
			return gamma, err
		}
	}
	return gamma, nil
}

func fillRandom(r *rand.Rand, M *symm.Matrix, scale float64) {
	for h := 0; h < M.NIrrep(); h++ {
		d := M.Block(h).Data
		for i := range d {
			d[i] = scale * (2*r.Float64() - 1)
		}
	}
}

//symmetrize replaces each square block of M by its symmetric part.
func symmetrize(M *symm.Matrix) {
	for h := 0; h < M.NIrrep(); h++ {
		for i := 0; i < M.Rows(h); i++ {
			for j := 0; j < i; j++ {
				v := 0.5 * (M.At(h, i, j) + M.At(h, j, i))
				M.Set(h, i, j, v)
				M.Set(h, j, i, v)
			}
		}
	}
}
