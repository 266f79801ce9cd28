/*
 * interfaces.go, part of dfdct.
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

package dfdct

import (
	"fmt"
	"strings"
)

//Reference distinguishes spin-restricted from spin-unrestricted references.
//Restricted calculations skip every beta and mixed-spin quantity.
type Reference int

const (
	RHF Reference = iota
	UHF
)

func (R Reference) String() string {
	if R == RHF {
		return "RHF"
	}
	return "UHF"
}

//Restricted returns true for a spin-restricted reference.
func (R Reference) Restricted() bool { return R == RHF }

//ParseReference reads "RHF" or "UHF", in any case.
func ParseReference(s string) (Reference, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RHF":
		return RHF, nil
	case "UHF":
		return UHF, nil
	}
	return RHF, fmt.Errorf("unknown reference %q, expected RHF or UHF", s)
}

//Fitting is the role of an auxiliary basis. Correlation fitting (DF_BASIS_DCT) is used for the
//cumulant quantities, reference fitting (DF_BASIS_SCF) for the mean-field ones.
type Fitting string

const (
	FitCorrelation Fitting = "Correlation"
	FitReference   Fitting = "Reference"
)

//The files of the integral store. They can be used as store.File values.
const (
	DensityFile   = 1 //metric, B tensors, partial densities
	AmplitudeFile = 2 //cumulants, amplitudes and their intermediates
	IntegralFile  = 3 //MO integral blocks
	AOTPDMFile    = 4 //final three-index densities
)

//JName is the store name of J^-1/2 for the given fitting.
func JName(f Fitting) string { return "J^-1/2 " + string(f) }

//BName is the store name of the AO b(Q|mn) for the given fitting.
func BName(f Fitting) string { return "B(Q|mn) " + string(f) }

//DensityName is the store name of the AO three-index density for the given fitting.
func DensityName(f Fitting) string { return "3-Center " + string(f) + " Density" }

//MetricDensityName is the store name of the metric density for the given fitting.
func MetricDensityName(f Fitting) string { return "Metric " + string(f) + " Density" }

//Errors

// Error is the interface for errors that all packages in this library implement. The Decorate method allows to add and retrieve info from the
// error, without changing it's type or wrapping it around something else.
type Error interface {
	Error() string
	Decorate(string) []string //Each call also returns the "decoration" slice of strings resulting from the current call. If passed an empty string, it should just return the current value, not add the empty string to the slice.
}

//Critical errors abort the whole pipeline. Every error in this library that implements
//this interface and returns true is fatal.
type Critical interface {
	Error
	Critical() bool
}
