/*
 * spectrum.go, part of dfdct.
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
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

//Spectrum is the set of eigenvalues of one metric.
type Spectrum struct {
	Name        string
	Eigenvalues []float64
}

//Summary contains statistics on a metric spectrum. Condition is the ratio between
//the largest and the smallest retained eigenvalue, it is +Inf when nothing is retained.
type Summary struct {
	Name          string     `yaml:"name"`
	Functions     int        `yaml:"functions"`
	Retained      int        `yaml:"retained"`
	NonPositive   int        `yaml:"non_positive"`
	Min           float64    `yaml:"min"`
	Max           float64    `yaml:"max"`
	Mean          float64    `yaml:"mean"`
	StdDev        float64    `yaml:"std_dev"`
	GeometricMean float64    `yaml:"geometric_mean"` //over the positive eigenvalues
	Condition     float64    `yaml:"condition"`
	Decades       *Histogram `yaml:"decades,omitempty"` //log10 of the positive eigenvalues
}

//Summarize returns the statistics of the spectrum S, where the eigenvalues
//of at least threshold are the retained ones.
func Summarize(S Spectrum, threshold float64) (Summary, error) {
	ev := S.Eigenvalues
	if len(ev) == 0 {
		return Summary{}, fmt.Errorf("Summarize: %s has no eigenvalues", S.Name)
	}
	ret := Summary{Name: S.Name, Functions: len(ev), Min: floats.Min(ev), Max: floats.Max(ev)}
	ret.Mean, ret.StdDev = stat.MeanStdDev(ev, nil)
	var positive, retained []float64
	for _, v := range ev {
		if v <= 0 {
			ret.NonPositive++
			continue
		}
		positive = append(positive, v)
		if v >= threshold {
			retained = append(retained, v)
		}
	}
	ret.Retained = len(retained)
	ret.Decades = DecadeHistogram(ev)
	if len(positive) > 0 {
		ret.GeometricMean = stat.GeometricMean(positive, nil)
	}
	ret.Condition = math.Inf(1)
	if len(retained) > 0 {
		ret.Condition = floats.Max(retained) / floats.Min(retained)
	}
	return ret, nil
}

func basicSpectrumPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "Eigenvalue index"
	p.Y.Label.Text = "Eigenvalue"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

//SpectrumPlot plots the positive eigenvalues of each spectrum, in ascending order,
//on a logarithmic scale, with a horizontal line at threshold.
func SpectrumPlot(title string, threshold float64, spectra ...Spectrum) (*plot.Plot, error) {
	if len(spectra) == 0 {
		return nil, fmt.Errorf("SpectrumPlot: no spectra given")
	}
	p := basicSpectrumPlot(title)
	ymin, ymax, xmax := threshold, threshold, 1.0
	for key, S := range spectra {
		pts := make(plotter.XYs, 0, len(S.Eigenvalues))
		for i, v := range S.Eigenvalues {
			if v <= 0 {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(i), Y: v})
			ymin = math.Min(ymin, v)
			ymax = math.Max(ymax, v)
		}
		if len(pts) == 0 {
			return nil, fmt.Errorf("SpectrumPlot: %s has no positive eigenvalues", S.Name)
		}
		xmax = math.Max(xmax, float64(len(S.Eigenvalues)-1))
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = colors(key, len(spectra))
		//past the 4th spectrum we just get rings
		s.GlyphStyle.Shape, _ = glyph(key)
		p.Add(s)
		p.Legend.Add(S.Name, s)
	}
	l, err := plotter.NewLine(plotter.XYs{{X: 0, Y: threshold}, {X: xmax, Y: threshold}})
	if err != nil {
		return nil, err
	}
	l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(l)
	p.Legend.Add("threshold", l)
	p.Y.Min, p.Y.Max = ymin/10, ymax*10
	return p, nil
}

//SaveSpectrumPlot builds the spectrum plot and saves it to filename. The format is
//taken from the extension (png, svg, pdf, eps...).
func SaveSpectrumPlot(filename, title string, threshold float64, spectra ...Spectrum) error {
	p, err := SpectrumPlot(title, threshold, spectra...)
	if err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, filename)
}
