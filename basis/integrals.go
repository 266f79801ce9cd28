/*
 * integrals.go, part of dfdct.
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
	"math"

	"gonum.org/v1/gonum/mathext"
)

//boys returns the Boys function F_n(x), from the regularized lower incomplete gamma function.
func boys(n int, x float64) float64 {
	nf := float64(n)
	if x < 1e-10 {
		//first two terms of the series, exact enough here.
		return 1/(2*nf+1) - x/(2*nf+3)
	}
	return mathext.GammaIncReg(nf+0.5, x) * math.Gamma(nf+0.5) / (2 * math.Pow(x, nf+0.5))
}

func dist2(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dx*dx + dy*dy + dz*dz
}

//pair is the Gaussian product of two primitives.
type pair struct {
	p float64
	P [3]float64
	K float64
}

func gaussianProduct(a float64, A [3]float64, b float64, B [3]float64) pair {
	p := a + b
	var P [3]float64
	for i := range P {
		P[i] = (a*A[i] + b*B[i]) / p
	}
	return pair{p: p, P: P, K: math.Exp(-a * b / p * dist2(A, B))}
}

//primitiveERI is (ab|cd) over unnormalized s primitives, given as their products.
func primitiveERI(ab, cd pair) float64 {
	p, q := ab.p, cd.p
	t := p * q / (p + q) * dist2(ab.P, cd.P)
	return 2 * math.Pow(math.Pi, 2.5) / (p * q * math.Sqrt(p+q)) * ab.K * cd.K * boys(0, t)
}

func contractedERI(s1, s2, s3, s4 *Shell) float64 {
	v := 0.0
	for i, a := range s1.Exps {
		for j, b := range s2.Exps {
			ab := gaussianProduct(a, s1.Center, b, s2.Center)
			cab := s1.Coefs[i] * s2.Coefs[j]
			for k, c := range s3.Exps {
				for l, d := range s4.Exps {
					cd := gaussianProduct(c, s3.Center, d, s4.Center)
					v += cab * s3.Coefs[k] * s4.Coefs[l] * primitiveERI(ab, cd)
				}
			}
		}
	}
	return v
}

//Overlap returns the overlap integral between shell i of A and shell j of B.
func Overlap(A *Set, i int, B *Set, j int) float64 {
	s1, s2 := A.shells[i], B.shells[j]
	v := 0.0
	for k, a := range s1.Exps {
		for l, b := range s2.Exps {
			p := a + b
			v += s1.Coefs[k] * s2.Coefs[l] * math.Pow(math.Pi/p, 1.5) * math.Exp(-a*b/p*dist2(s1.Center, s2.Center))
		}
	}
	return v
}

//Factory creates integral evaluators over a quartet of basis sets.
type Factory struct {
	sets [4]*Set
}

//NewFactory returns a factory for (b1 b2|b3 b4) integrals. Pass the Zero basis for
//the missing centers of two- and three-center integrals.
func NewFactory(b1, b2, b3, b4 *Set) *Factory {
	return &Factory{sets: [4]*Set{b1, b2, b3, b4}}
}

//ERI returns a new electron repulsion evaluator. Evaluators own their buffer,
//so one must be created for each goroutine.
func (F *Factory) ERI() *Evaluator {
	return &Evaluator{sets: F.sets, buffer: make([]float64, 0, 1)}
}

//Evaluator computes electron repulsion integrals over shell quartets.
//An Evaluator is not safe for concurrent use.
type Evaluator struct {
	sets   [4]*Set
	buffer []float64
}

//ComputeShell computes the (PQ|RS) integrals over the given shells, and returns them
//in a buffer owned by the evaluator, in row-major order over the functions of
//P, Q, R and S. The buffer is overwritten by the next call.
func (E *Evaluator) ComputeShell(P, Q, R, S int) []float64 {
	s1, s2, s3, s4 := E.sets[0].shells[P], E.sets[1].shells[Q], E.sets[2].shells[R], E.sets[3].shells[S]
	n := s1.NFunctions() * s2.NFunctions() * s3.NFunctions() * s4.NFunctions()
	E.buffer = E.buffer[:0]
	for i := 0; i < n; i++ {
		E.buffer = append(E.buffer, contractedERI(s1, s2, s3, s4))
	}
	return E.buffer
}

//ERI returns the four-center integral (pq|rs) over the shells of a single basis set.
//It is meant for reference values, the DF code never calls it.
func ERI(B *Set, p, q, r, s int) float64 {
	return contractedERI(B.shells[p], B.shells[q], B.shells[r], B.shells[s])
}
