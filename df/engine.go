/*
 * engine.go, part of dfdct.
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

package df

import (
	"io"
	"time"

	"github.com/rmera/dfdct"
	"github.com/rmera/dfdct/store"
	"github.com/rmera/dfdct/symm"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/blas/blas64"
)

//Engine runs the density-fitting kernels. The store is optional, without it nothing is persisted.
type Engine struct {
	pool *Pool
	st   *store.Store
	log  logrus.FieldLogger
}

//NewEngine returns an engine on the given pool. st and log can be nil.
func NewEngine(pool *Pool, st *store.Store, log logrus.FieldLogger) *Engine {
	if pool == nil {
		pool = NewPool(0)
	}
	if log == nil {
		log = Discard()
	}
	return &Engine{pool: pool, st: st, log: log}
}

//Pool returns the worker pool of the engine.
func (E *Engine) Pool() *Pool { return E.pool }

//Discard returns a logger that writes nothing.
func Discard() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

//Timer logs the wall time of a stage, at info level, when the returned function is called.
func Timer(log logrus.FieldLogger, stage string) func() {
	start := time.Now()
	return func() {
		log.WithFields(logrus.Fields{"stage": stage, "elapsed": time.Since(start).Round(time.Microsecond)}).Info("stage done")
	}
}

func (E *Engine) save(M *symm.Matrix, layout store.Layout) error {
	if E.st == nil {
		return nil
	}
	E.log.WithFields(logrus.Fields{"entry": M.Name(), "layout": layout}).Debug("saving")
	return E.st.Save(dfdct.DensityFile, M, layout)
}

//Sizes are the dimensions that enter the memory estimate.
type Sizes struct {
	NQ       int //auxiliary functions
	NSO      int //SOs
	NAlpha   int //alpha occupied orbitals
	NAVir    int //alpha virtual orbitals
	NAVirMax int //largest per-irrep alpha virtual count
}

//Estimate returns the minimum memory, in MB, that the density-fitted
//quantities need: the metric, the AO and SO B tensors, the MO B tensors and
//the (V'V|VV) scratch of the gbar-lambda contraction.
func Estimate(ref dfdct.Reference, s Sizes) float64 {
	nQ, nso, no, nv, vm := float64(s.NQ), float64(s.NSO), float64(s.NAlpha), float64(s.NAVir), float64(s.NAVirMax)
	cost := nQ*nQ + 2*nQ*nso*nso
	if ref.Restricted() {
		cost += nQ*no*no + 2*nQ*no*nv + nQ*nv*nv + nQ*nso*nso
	} else {
		cost += 2*nQ*no*no + 4*nQ*no*nv + 2*nQ*nv*nv + 2*nQ*nso*nso
	}
	cost += 2 * vm * vm * vm
	return cost * 8 / (1024 * 1024)
}

//CheckMemory logs the memory estimate and warns if it exceeds availableMB.
//It never fails.
func (E *Engine) CheckMemory(ref dfdct.Reference, s Sizes, availableMB float64) float64 {
	need := Estimate(ref, s)
	l := E.log.WithFields(logrus.Fields{"required_mb": need, "available_mb": availableMB, "nQ": s.NQ, "nso": s.NSO, "threads": E.pool.Threads()})
	if need > availableMB {
		l.Warn("the density-fitted quantities may not fit in the available memory")
	} else {
		l.Info("memory requirement")
	}
	return need
}

//sub returns the r x c row-major sub-block of data that starts at off.
func sub(data []float64, off, r, c int) blas64.General {
	return blas64.General{Rows: r, Cols: c, Stride: max(c, 1), Data: data[off : off+r*c]}
}
