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

//Package df builds and transforms density-fitted three-index tensors.
//
//It forms the inverse square root of the Coulomb metric of an auxiliary basis, the AO
//B tensor b(Q|mn) = sum_P J^-1/2(Q,P) (P|mn), and moves B tensors between the AO, SO
//and MO bases. B tensors are symm.Matrix values with nQ rows in every irrep and the
//orbital pairs of a symm.BlockLayout as columns.
//
//The data-parallel loops run on a Pool, with per-worker scratch from an Arena.
package df
