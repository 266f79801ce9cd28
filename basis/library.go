/*
 * library.go, part of dfdct.
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
	"embed"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

//go:embed data/*.toml
var builtin embed.FS

//Library is a collection of basis sets, by name, read from TOML files like:
//
//	name = "s-min"
//	[[elements.H.shells]]
//	l = 0
//	exponents = [3.42525091, 0.62391373, 0.16885540]
//	coefficients = [0.15432897, 0.53532814, 0.44463454]
type Library struct {
	sets map[string]*libraryFile
}

type libraryFile struct {
	Name     string                  `toml:"name"`
	Elements map[string]elementEntry `toml:"elements"`
}

type elementEntry struct {
	Shells []shellEntry `toml:"shells"`
}

type shellEntry struct {
	L            int       `toml:"l"`
	Exponents    []float64 `toml:"exponents"`
	Coefficients []float64 `toml:"coefficients"`
}

//NewLibrary returns a library with the built-in basis sets.
func NewLibrary() (*Library, error) {
	L := &Library{sets: make(map[string]*libraryFile)}
	files, err := builtin.ReadDir("data")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		r, err := builtin.Open("data/" + f.Name())
		if err != nil {
			return nil, err
		}
		err = L.Decode(r)
		r.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "built-in basis %s", f.Name())
		}
	}
	return L, nil
}

//Decode reads one basis set in TOML format and adds it to the library, replacing any
//set with the same name.
func (L *Library) Decode(r io.Reader) error {
	f := new(libraryFile)
	if _, err := toml.NewDecoder(r).Decode(f); err != nil {
		return err
	}
	if f.Name == "" {
		return errors.New("basis set without a name")
	}
	for el, e := range f.Elements {
		for i, s := range e.Shells {
			if s.L != 0 {
				return errors.Errorf("basis %s, element %s, shell %d: L=%d, only s shells are supported", f.Name, el, i, s.L)
			}
			if len(s.Exponents) == 0 || len(s.Exponents) != len(s.Coefficients) {
				return errors.Errorf("basis %s, element %s, shell %d: %d exponents and %d coefficients", f.Name, el, i, len(s.Exponents), len(s.Coefficients))
			}
		}
	}
	L.sets[strings.ToLower(f.Name)] = f
	return nil
}

//Load adds the basis set in the TOML file path to the library.
func (L *Library) Load(path string) error {
	r, err := os.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	if err := L.Decode(r); err != nil {
		return errors.Wrapf(err, "%s", path)
	}
	return nil
}

//Names returns the names of the basis sets in the library, sorted.
func (L *Library) Names() []string {
	r := make([]string, 0, len(L.sets))
	for _, f := range L.sets {
		r = append(r, f.Name)
	}
	sort.Strings(r)
	return r
}

//Build places the basis set name on the atoms of mol.
func (L *Library) Build(name string, mol *Molecule) (*Set, error) {
	f, ok := L.sets[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("basis set %q not found", name)
	}
	var shells []*Shell
	for i, at := range mol.Atoms {
		e, ok := f.Elements[at.Symbol]
		if !ok {
			return nil, errors.Errorf("basis set %s has no functions for element %s", f.Name, at.Symbol)
		}
		for _, s := range e.Shells {
			shells = append(shells, NormalizeS(i, at.Coord, s.Exponents, s.Coefficients))
		}
	}
	return NewSet(f.Name, shells)
}
