/*
 * molecule.go, part of dfdct.
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

package basis

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

//AngstromToBohr converts Angstrom to atomic units of length.
const AngstromToBohr = 1 / 0.52917721092

//elements is indexed by atomic number.
var elements = []string{"X",
	"H", "He",
	"Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar",
	"K", "Ca", "Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn", "Ga", "Ge", "As", "Se", "Br", "Kr",
}

//AtomicNumber returns the atomic number of the element with the given symbol, or an error
//if the symbol is unknown.
func AtomicNumber(symbol string) (int, error) {
	z := slices.Index(elements, symbol)
	if z <= 0 {
		return 0, errors.Errorf("unknown element %q", symbol)
	}
	return z, nil
}

//Atom is a nucleus, with its position in bohr.
type Atom struct {
	Symbol string
	Z      int
	Coord  [3]float64
}

//Molecule is a set of atoms with a charge and a spin multiplicity.
type Molecule struct {
	Atoms        []*Atom
	Charge       int
	Multiplicity int
}

//Len returns the number of atoms
func (M *Molecule) Len() int { return len(M.Atoms) }

//NElectrons returns the number of electrons of the molecule.
func (M *Molecule) NElectrons() int {
	n := -M.Charge
	for _, a := range M.Atoms {
		n += a.Z
	}
	return n
}

//AlphaBeta returns the number of alpha and beta electrons, or an error if
//the charge and multiplicity are not compatible.
func (M *Molecule) AlphaBeta() (int, int, error) {
	n := M.NElectrons()
	mult := M.Multiplicity
	if mult < 1 {
		mult = 1
	}
	unpaired := mult - 1
	if n < unpaired || (n-unpaired)%2 != 0 {
		return 0, 0, errors.Errorf("%d electrons are not compatible with multiplicity %d", n, mult)
	}
	beta := (n - unpaired) / 2
	return beta + unpaired, beta, nil
}

//ReadXYZ reads a molecule from an XYZ file, with coordinates in Angstrom.
func ReadXYZ(xyzname string) (*Molecule, error) {
	xyzfile, err := os.Open(xyzname)
	if err != nil {
		return nil, err
	}
	defer xyzfile.Close()
	mol, err := DecodeXYZ(xyzfile)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", xyzname)
	}
	return mol, nil
}

//DecodeXYZ reads a molecule in XYZ format from r. The comment line is ignored.
func DecodeXYZ(r io.Reader) (*Molecule, error) {
	xyz := bufio.NewReader(r)
	line, err := xyz.ReadString('\n')
	if err != nil {
		return nil, errors.New("Ill formatted XYZ file")
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return nil, errors.Wrapf(err, "Ill formatted XYZ file")
	}
	_, _ = xyz.ReadString('\n') //We dont care about this line
	mol := &Molecule{Atoms: make([]*Atom, 0, natoms), Multiplicity: 1}
	for i := 0; i < natoms; i++ {
		line, err = xyz.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
			return nil, errors.Errorf("expected %d atoms, found %d", natoms, i)
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, errors.Errorf("Line number %d ill formed", i+3)
		}
		at := &Atom{Symbol: fields[0]}
		if at.Z, err = AtomicNumber(at.Symbol); err != nil {
			return nil, err
		}
		for j := 0; j < 3; j++ {
			c, err := strconv.ParseFloat(fields[j+1], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "Line number %d", i+3)
			}
			at.Coord[j] = c * AngstromToBohr
		}
		mol.Atoms = append(mol.Atoms, at)
	}
	return mol, nil
}
