/*
 * doc.go, part of dfdct.
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

/*Package dfdct is the main package of the dfdct library. It provides the density-fitted
three-index integral machinery of a Density Cumulant Theory (DCT) code: the fitting
metric, the b(Q|mn) tensors, their transformations between the atomic, symmetry and
molecular orbital bases, the on-demand four-index integral blocks and the three-index
densities used by gradients.



	**dfdct Capabilities**


    Builds J(P|Q)^-1/2 for an auxiliary basis, dropping near-singular directions.

    Builds b(Q|mn) = Sum_P (mn|P) [J^-1/2]_PQ concurrently over shell pairs.

    Transforms B tensors AO->SO, SO->AO and SO->MO for any Abelian point group,
	with a shared block layout for each composite orbital-pair space.

    Materializes the (OV|OV), (OO|OO), (VV|OO), (VO|OO), (OV|VV) and (VV|VV)
	integral blocks, and their beta and mixed-spin analogs for unrestricted
	references.

    Builds the gbar*lambda and gbar*Gamma intermediates.

    Contracts cumulants and one-particle densities into the three-index
	correlation and reference densities, and their metric densities.

    Keeps everything in a named, zstd-compressed store, in memory or in SQLite.

    Plots the eigenvalue spectrum of the fitting metric (uses gonum/plot).


The packages are:

	symm: symmetry-blocked matrices, block layouts and four-index sorts.
	basis: molecules, s-type Gaussian basis sets, the integral engine and symmetry adaptation.
	store: the named integral store.
	df: metric, B tensor builder, basis transformer and the worker pool.
	dct: the spin-block orchestrator, the gbar intermediates and the density engine.
	diag: diagnostic plots and statistics.

The program cmd/dfdct drives the whole pipeline.
*/
package dfdct
