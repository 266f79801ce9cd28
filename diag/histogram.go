/*
 * histogram.go, part of dfdct.
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

package diag

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Histogram counts the data points that fall between consecutive dividers.
//Points outside [Dividers[0], Dividers[len-1]) are not counted.
type Histogram struct {
	Dividers []float64 `yaml:"dividers,flow"`
	Counts   []float64 `yaml:"counts,flow"`
	Total    int       `yaml:"total"`
}

//NewHistogram returns the histogram of rawdata with the given dividers, which must be
//sorted and at least 2. rawdata is not modified.
func NewHistogram(dividers, rawdata []float64) *Histogram {
	H := &Histogram{Dividers: append([]float64(nil), dividers...)}
	data := append([]float64(nil), rawdata...)
	sort.Float64s(data)
	//stat.Histogram panics on values out of range, so those go first.
	maxi := sort.SearchFloat64s(data, dividers[len(dividers)-1])
	mini := sort.SearchFloat64s(data, dividers[0])
	data = data[mini:maxi]
	H.Total = len(data)
	H.Counts = stat.Histogram(nil, H.Dividers, data, nil)
	return H
}

//Normalized returns the fraction of the counted points in each bin.
func (H *Histogram) Normalized() []float64 {
	r := append([]float64(nil), H.Counts...)
	if H.Total > 0 {
		floats.Scale(1/float64(H.Total), r)
	}
	return r
}

//DecadeHistogram returns the histogram of log10 of the positive values of ev, with one bin
//per decade, or nil if no value is positive.
func DecadeHistogram(ev []float64) *Histogram {
	logs := make([]float64, 0, len(ev))
	for _, v := range ev {
		if v > 0 {
			logs = append(logs, math.Log10(v))
		}
	}
	if len(logs) == 0 {
		return nil
	}
	lo, hi := math.Floor(floats.Min(logs)), math.Floor(floats.Max(logs))+1
	dividers := make([]float64, 0, int(hi-lo)+1)
	for d := lo; d <= hi; d++ {
		dividers = append(dividers, d)
	}
	return NewHistogram(dividers, logs)
}
