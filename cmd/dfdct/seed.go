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

package main

import (
	"github.com/rmera/dfdct/dct"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write seeded amplitudes and one-particle densities to the store",
	Long: `seed writes reproducible cumulants, amplitudes and one-particle densities for the
seeded orbitals of the molecule, so a later run on the same store can use them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := prepare(cmd)
		if err != nil {
			return err
		}
		return seed(cfg, log)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func seed(cfg Config, log *logrus.Logger) error {
	s, err := newSession(cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()
	if cfg.Store.Path == "" || cfg.Store.Path == ":memory:" {
		s.log.Warn("the store is not persistent, the seeded amplitudes will be lost")
	}
	O, err := s.orbitals()
	if err != nil {
		return err
	}
	if err := dct.Seed(s.st, O, cfg.Seed); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"seed": cfg.Seed, "store": cfg.Store.Path}).Info("amplitudes seeded")
	return nil
}
