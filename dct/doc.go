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

//Package dct contains the density-fitted integral and density steps of a density cumulant
//theory calculation.
//
//A Solver holds the metric and SO B tensors of the correlation and reference fittings,
//and the MO B tensors of the current orbitals in a TensorCache. From those it writes the
//MO integral blocks of every class and spin case to the integral file, and contracts the
//cumulant and the one-particle densities back into the three-index densities that the
//gradient code reads from the AO TPDM file.
//
//The cumulant, amplitude and one-particle density blocks are not computed here, they
//are read from the amplitude file. Seed writes reproducible ones.
package dct
