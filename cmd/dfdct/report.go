/*
 * report.go, part of dfdct.
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

package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rmera/dfdct"
	"github.com/rmera/dfdct/basis"
	"github.com/rmera/dfdct/dct"
	"github.com/rmera/dfdct/diag"
	"github.com/rmera/dfdct/store"
	"gopkg.in/yaml.v3"
)

//EntryReport describes one stored quantity.
type EntryReport struct {
	Name     string  `yaml:"name"`
	Elements int     `yaml:"elements"`
	Norm     float64 `yaml:"norm"`
}

type BasisReport struct {
	Role      string `yaml:"role"`
	Name      string `yaml:"name"`
	Functions int    `yaml:"functions"`
}

//Report is the summary of a run.
type Report struct {
	RunID      string         `yaml:"run_id"`
	Started    time.Time      `yaml:"started"`
	Seconds    float64        `yaml:"seconds"`
	Molecule   string         `yaml:"molecule"`
	Atoms      int            `yaml:"atoms"`
	Reference  string         `yaml:"reference"`
	Symmetry   string         `yaml:"symmetry"`
	Electrons  [2]int         `yaml:"electrons,flow"`
	Bases      []BasisReport  `yaml:"bases"`
	SOs        []int          `yaml:"sos_per_irrep,flow"`
	Occupied   [2][]int       `yaml:"occupied_per_irrep,flow"`
	MemoryMB   float64        `yaml:"memory_estimate_mb"`
	Amplitudes string         `yaml:"amplitudes"`
	Metrics    []diag.Summary `yaml:"metrics"`
	Integrals  []EntryReport  `yaml:"integrals"`
	Densities  []EntryReport  `yaml:"densities,omitempty"`
}

func (s *session) newReport(start time.Time) *Report {
	R := &Report{
		RunID:     s.runID,
		Started:   start,
		Molecule:  s.cfg.Molecule,
		Atoms:     s.mol.Len(),
		Reference: s.ref.String(),
		Symmetry:  string(s.op),
		Electrons: [2]int{s.nalpha, s.nbeta},
		SOs:       s.bases.U.Colspi(),
	}
	roles := []string{"primary", string(dfdct.FitCorrelation), string(dfdct.FitReference)}
	for i, B := range []*basis.Set{s.bases.Primary, s.bases.Correlation, s.bases.Reference} {
		R.Bases = append(R.Bases, BasisReport{Role: roles[i], Name: B.Name(), Functions: B.NBF()})
	}
	return R
}

//entry loads a stored quantity and describes it.
func (s *session) entry(file store.File, name string) (EntryReport, error) {
	M, err := s.st.Load(file, name)
	if err != nil {
		return EntryReport{}, err
	}
	return EntryReport{Name: name, Elements: M.NumElements(), Norm: M.Norm()}, nil
}

//collect adds the integral blocks and, if built, the densities to the report.
func (s *session) collect(R *Report, densities bool) error {
	for _, c := range dct.Classes {
		for _, name := range dct.Targets(c, s.ref) {
			e, err := s.entry(dfdct.IntegralFile, name)
			if err != nil {
				return err
			}
			R.Integrals = append(R.Integrals, e)
		}
	}
	if !densities {
		return nil
	}
	for _, fit := range []dfdct.Fitting{dfdct.FitCorrelation, dfdct.FitReference} {
		for _, name := range []string{dfdct.DensityName(fit), dfdct.MetricDensityName(fit)} {
			e, err := s.entry(dfdct.AOTPDMFile, name)
			if err != nil {
				return err
			}
			R.Densities = append(R.Densities, e)
		}
	}
	return nil
}

func writeReport(path string, R *Report) error {
	out, err := yaml.Marshal(R)
	if err != nil {
		return errors.Wrap(err, "encoding report")
	}
	return errors.Wrap(os.WriteFile(path, out, 0o644), "writing report")
}

func readReport(path string) (*Report, error) {
	in, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	R := new(Report)
	return R, yaml.Unmarshal(in, R)
}
