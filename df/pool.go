/*
 * pool.go, part of dfdct.
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
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

//Pool runs data-parallel loops on a fixed number of workers.
type Pool struct {
	threads int
}

//NewPool returns a pool with the given number of workers. Non-positive values
//give one worker per CPU.
func NewPool(threads int) *Pool {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return &Pool{threads: threads}
}

//Threads returns the number of workers of the pool.
func (P *Pool) Threads() int { return P.threads }

//For calls fn(worker, i) for every i in [0,n). Iterations are handed out one at a time
//to the first free worker. worker is in [0, Threads()) and no two concurrent calls share it,
//so it can index per-worker state. The first error stops the remaining iterations
//and is returned.
func (P *Pool) For(ctx context.Context, n int, fn func(worker, i int) error) error {
	if n <= 0 {
		return nil
	}
	workers := min(P.threads, n)
	g, ctx := errgroup.WithContext(ctx)
	var next atomic.Int64
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				i := int(next.Add(1) - 1)
				if i >= n {
					return nil
				}
				if err := fn(w, i); err != nil {
					return err
				}
			}
		})
	}
	return g.Wait()
}

//Arena holds one scratch slice per worker. It is allocated before a parallel
//region, and each worker only touches its own slice.
type Arena struct {
	scratch [][]float64
}

//NewArena allocates n floats for each of workers workers.
func NewArena(workers, n int) *Arena {
	A := &Arena{scratch: make([][]float64, workers)}
	for i := range A.scratch {
		A.scratch[i] = make([]float64, n)
	}
	return A
}

//Scratch returns the scratch of worker, with length n. It panics if n exceeds the
//size the arena was created with.
func (A *Arena) Scratch(worker, n int) []float64 {
	return A.scratch[worker][:n]
}
