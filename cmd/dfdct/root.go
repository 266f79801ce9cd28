/*
 * root.go, part of dfdct.
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
	"context"
	"os"
	"os/signal"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	conf    = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "dfdct",
	Short: "Density-fitted integrals and densities for DCT",
	Long: `dfdct builds the Coulomb metrics and the three-index B tensors of two auxiliary
basis sets, transforms them to the MO basis, and from them writes the MO integral
blocks and the three-index densities of a DCT calculation to a store.

Options come from the flags, DFDCT_* environment variables and dfdct.yaml or
dfdct.toml, in that order of precedence.`,
	SilenceUsage: true,
}

func init() {
	setDefaults(conf)
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "configuration file (default ./dfdct.yaml or ./dfdct.toml)")
	f.String("molecule", "", "XYZ file of the molecule, in Angstrom")
	f.Int("charge", 0, "molecular charge")
	f.Int("multiplicity", 1, "spin multiplicity")
	f.String("reference", "RHF", "RHF or UHF")
	f.String("symmetry", "c1", "point group: c1, ci, cs or c2")
	f.Int("threads", runtime.NumCPU(), "worker threads")
	f.Float64("memory-mb", 500, "memory budget, in MB")
	f.String("store", ":memory:", "SQLite store path, empty for a store in RAM")
	f.Uint64("seed", 1, "seed for the orbital coefficients and the amplitudes")
	f.String("plot", "", "file for the metric spectrum plot")
	f.String("report", "", "file for the YAML report")
	f.String("log-level", "info", "debug, info, warn or error")
	if err := bindFlags(conf, f); err != nil {
		panic(err)
	}
}

//prepare loads the configuration and sets up the logger for a command.
func prepare(cmd *cobra.Command) (Config, *logrus.Logger, error) {
	cfg, err := loadConfig(conf, cfgFile)
	if err != nil {
		return cfg, nil, err
	}
	log := setupLogger(cfg.LogLevel)
	log.SetOutput(cmd.ErrOrStderr())
	return cfg, log, nil
}

//interruptible returns a context that is cancelled on an interrupt signal.
func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
