/*
 * session.go, part of dfdct.
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
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rmera/dfdct"
	"github.com/rmera/dfdct/basis"
	"github.com/rmera/dfdct/dct"
	"github.com/rmera/dfdct/df"
	"github.com/rmera/dfdct/store"
	"github.com/sirupsen/logrus"
)

//session is a molecule with its basis sets, a store and a solver on them.
type session struct {
	cfg    Config
	log    logrus.FieldLogger
	runID  string
	mol    *basis.Molecule
	ref    dfdct.Reference
	op     basis.Operation
	nalpha int
	nbeta  int
	bases  dct.Bases
	st     *store.Store
	solver *dct.Solver
}

func newSession(cfg Config, log *logrus.Logger) (*session, error) {
	if cfg.Molecule == "" {
		return nil, errors.New("no molecule given")
	}
	s := &session{cfg: cfg, runID: uuid.NewString()}
	s.log = log.WithField("run", s.runID[:8])
	var err error
	if s.mol, err = basis.ReadXYZ(cfg.Molecule); err != nil {
		return nil, err
	}
	s.mol.Charge, s.mol.Multiplicity = cfg.Charge, cfg.Multiplicity
	if s.nalpha, s.nbeta, err = s.mol.AlphaBeta(); err != nil {
		return nil, err
	}
	if s.ref, err = dfdct.ParseReference(cfg.Reference); err != nil {
		return nil, err
	}
	if s.ref.Restricted() && s.nalpha != s.nbeta {
		return nil, errors.Errorf("an RHF reference needs a closed shell, got %d alpha and %d beta electrons", s.nalpha, s.nbeta)
	}
	if s.op, err = basis.ParseOperation(cfg.Symmetry); err != nil {
		return nil, err
	}
	L, err := basis.NewLibrary()
	if err != nil {
		return nil, err
	}
	if cfg.Basis.Library != "" {
		if err := L.Load(cfg.Basis.Library); err != nil {
			return nil, errors.Wrap(err, "loading basis library")
		}
	}
	names := [3]string{cfg.Basis.Primary, cfg.Basis.Correlation, cfg.Basis.Reference}
	var sets [3]*basis.Set
	for i, name := range names {
		if sets[i], err = L.Build(name, s.mol); err != nil {
			return nil, err
		}
	}
	U, err := basis.AOToSO(s.op, s.mol, sets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "adapting %s to %s", sets[0].Name(), s.op)
	}
	s.bases = dct.Bases{Primary: sets[0], Correlation: sets[1], Reference: sets[2], U: U}
	if s.st, err = store.Open(cfg.Store.Path, store.Options{Session: s.runID}); err != nil {
		return nil, err
	}
	s.solver, err = dct.NewSolver(df.NewPool(cfg.Threads), s.st, s.log, s.bases, cfg.MemoryMB)
	if err != nil {
		s.st.Close()
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"atoms":       s.mol.Len(),
		"reference":   s.ref,
		"symmetry":    s.op,
		"primary":     sets[0].NBF(),
		"correlation": sets[1].NBF(),
		"scf_fit":     sets[2].NBF(),
		"sos":         U.Colspi(),
	}).Info("session ready")
	return s, nil
}

//orbitals returns the seeded orbitals of the session, with the occupied orbitals spread
//over the irreps in proportion to their sizes.
func (s *session) orbitals() (*dct.Orbitals, error) {
	Sso := basis.OverlapSO(s.bases.Primary, s.bases.U)
	Ca, err := dct.SeededCoefficients(Sso, s.cfg.Seed)
	if err != nil {
		return nil, err
	}
	Cb, err := dct.SeededCoefficients(Sso, s.cfg.Seed+1)
	if err != nil {
		return nil, err
	}
	occA, err := dct.Occupations(s.nalpha, Sso.Rowspi())
	if err != nil {
		return nil, err
	}
	occB, err := dct.Occupations(s.nbeta, Sso.Rowspi())
	if err != nil {
		return nil, err
	}
	return dct.NewOrbitals(s.ref, Ca, Cb, occA, occB)
}

func (s *session) Close() error {
	return s.st.Close()
}
