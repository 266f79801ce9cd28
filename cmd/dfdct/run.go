/*
 * run.go, part of dfdct.
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
	"time"

	"github.com/pkg/errors"
	"github.com/rmera/dfdct"
	"github.com/rmera/dfdct/dct"
	"github.com/rmera/dfdct/df"
	"github.com/rmera/dfdct/diag"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the integrals and the three-index densities",
	Long: `run forms J^-1/2 and the B tensors of both auxiliary sets, transforms them to
the MO basis of seeded orbitals and writes every MO integral block. With amplitudes
and densities in the store (see seed) it then builds gbar lambda, gbar gamma, and
the cumulant, separable and metric three-index densities.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := prepare(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := interruptible()
		defer cancel()
		R, err := run(ctx, cfg, log)
		if err != nil {
			return err
		}
		if cfg.Report != "" {
			return writeReport(cfg.Report, R)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().Bool("seed-amplitudes", true, "seed the amplitudes and densities when the store has none")
	if err := conf.BindPFlag("seed_amplitudes", runCmd.Flags().Lookup("seed-amplitudes")); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(runCmd)
}

var fittings = []dfdct.Fitting{dfdct.FitCorrelation, dfdct.FitReference}

//run executes the whole pipeline and returns its report.
func run(ctx context.Context, cfg Config, log *logrus.Logger) (*Report, error) {
	start := time.Now()
	s, err := newSession(cfg, log)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	R := s.newReport(start)
	S := s.solver
	if err := S.BuildB(ctx); err != nil {
		return nil, err
	}
	spectra := make([]diag.Spectrum, 0, len(fittings))
	for _, fit := range fittings {
		sp := diag.Spectrum{Name: string(fit), Eigenvalues: S.Metric(fit).Eigenvalues}
		sum, err := diag.Summarize(sp, df.EigenThreshold)
		if err != nil {
			return nil, err
		}
		if sum.Retained < sum.Functions {
			s.log.WithFields(logrus.Fields{"fitting": fit, "dropped": sum.Functions - sum.Retained}).Warn("near-singular metric")
		}
		spectra = append(spectra, sp)
		R.Metrics = append(R.Metrics, sum)
	}
	if cfg.Plot != "" {
		if err := diag.SaveSpectrumPlot(cfg.Plot, "Coulomb metric spectra", df.EigenThreshold, spectra...); err != nil {
			return nil, errors.Wrap(err, "plotting the metric spectra")
		}
	}
	O, err := s.orbitals()
	if err != nil {
		return nil, err
	}
	if err := S.SetOrbitals(O); err != nil {
		return nil, err
	}
	R.Occupied = [2][]int{O.Dim(dct.Alpha, dct.Occ), O.Dim(dct.Beta, dct.Occ)}
	R.MemoryMB = df.Estimate(s.ref, S.Sizes())
	if err := S.TransformB(ctx); err != nil {
		return nil, err
	}
	if err := S.FormIntegrals(ctx); err != nil {
		return nil, err
	}
	R.Amplitudes = "store"
	if !s.st.Exists(dfdct.AmplitudeFile, dct.TauNames[dct.Alpha]) {
		if !cfg.SeedAmplitudes {
			s.log.Warn("no amplitudes in the store, the densities will not be built")
			R.Amplitudes = "missing"
			err = s.collect(R, false)
			R.Seconds = time.Since(start).Seconds()
			return R, err
		}
		if err := dct.Seed(s.st, O, cfg.Seed); err != nil {
			return nil, err
		}
		R.Amplitudes = "seeded"
	}
	if err := densities(ctx, S); err != nil {
		return nil, err
	}
	if err := s.collect(R, true); err != nil {
		return nil, err
	}
	R.Seconds = time.Since(start).Seconds()
	s.log.WithField("seconds", R.Seconds).Info("run finished")
	return R, nil
}

//densities runs the amplitude-dependent stages.
func densities(ctx context.Context, S *dct.Solver) error {
	if err := S.GbarLambda(ctx); err != nil {
		return err
	}
	gamma, err := dct.LoadDensities(S.Store())
	if err != nil {
		return err
	}
	if _, err := S.GbarGamma(ctx, gamma); err != nil {
		return err
	}
	if err := S.CumulantDensity(ctx); err != nil {
		return err
	}
	if err := S.SeparableDensity(ctx, gamma); err != nil {
		return err
	}
	for _, fit := range fittings {
		if err := S.MetricDensity(fit); err != nil {
			return err
		}
	}
	return nil
}
