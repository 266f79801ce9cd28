/*
 * diag_test.go, part of dfdct.
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
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot/vg"
)

func TestSummarize(Te *testing.T) {
	S := Spectrum{Name: "Correlation", Eigenvalues: []float64{-1e-16, 1e-14, 1e-3, 0.5, 2, 4}}
	s, err := Summarize(S, 1e-12)
	require.NoError(Te, err)
	assert.Equal(Te, "Correlation", s.Name)
	assert.Equal(Te, 6, s.Functions)
	assert.Equal(Te, 4, s.Retained)
	assert.Equal(Te, 1, s.NonPositive)
	assert.Equal(Te, -1e-16, s.Min)
	assert.Equal(Te, 4.0, s.Max)
	assert.InDelta(Te, 4000, s.Condition, 1e-9)
	assert.InDelta(Te, (1e-14+1e-3+0.5+2+4-1e-16)/6, s.Mean, 1e-14)
	want := math.Pow(1e-14*1e-3*0.5*2*4, 1.0/5)
	assert.InEpsilon(Te, want, s.GeometricMean, 1e-10)

	s, err = Summarize(Spectrum{Name: "tiny", Eigenvalues: []float64{1e-15}}, 1e-12)
	require.NoError(Te, err)
	assert.Equal(Te, 0, s.Retained)
	assert.True(Te, math.IsInf(s.Condition, 1))

	_, err = Summarize(Spectrum{Name: "empty"}, 1e-12)
	assert.Error(Te, err)
}

func TestSpectrumPlot(Te *testing.T) {
	spectra := []Spectrum{
		{Name: "Correlation", Eigenvalues: []float64{-1e-17, 1e-10, 1e-4, 0.3, 1.2, 5}},
		{Name: "Reference", Eigenvalues: []float64{1e-6, 1e-2, 0.8, 2.5}},
	}
	p, err := SpectrumPlot("Metric spectra", 1e-12, spectra...)
	require.NoError(Te, err)
	assert.InDelta(Te, 1e-13, p.Y.Min, 1e-25)
	assert.InDelta(Te, 50, p.Y.Max, 1e-12)
	w, err := p.WriterTo(4*vg.Inch, 3*vg.Inch, "svg")
	require.NoError(Te, err)
	var buf bytes.Buffer
	_, err = w.WriteTo(&buf)
	require.NoError(Te, err)
	assert.Contains(Te, buf.String(), "<svg")

	name := filepath.Join(Te.TempDir(), "spectrum.png")
	require.NoError(Te, SaveSpectrumPlot(name, "Metric spectra", 1e-12, spectra...))
	info, err := os.Stat(name)
	require.NoError(Te, err)
	assert.Greater(Te, info.Size(), int64(0))

	_, err = SpectrumPlot("bad", 1e-12, Spectrum{Name: "negative", Eigenvalues: []float64{-1, -2}})
	assert.Error(Te, err)
	_, err = SpectrumPlot("none", 1e-12)
	assert.Error(Te, err)
}

func TestColors(Te *testing.T) {
	seen := make(map[[3]uint8]bool)
	for k := 0; k < 4; k++ {
		c := colors(k, 4)
		assert.Equal(Te, uint8(255), c.A)
		seen[[3]uint8{c.R, c.G, c.B}] = true
		_, err := glyph(k)
		assert.NoError(Te, err)
	}
	assert.Len(Te, seen, 4)
	_, err := glyph(4)
	assert.Error(Te, err)
	r, g, b := hsv2RGB(0, 1, 0)
	assert.Equal(Te, [3]uint8{255, 255, 255}, [3]uint8{r, g, b})
}

func TestDecadeHistogram(Te *testing.T) {
	H := DecadeHistogram([]float64{-1e-16, 2e-14, 2e-3, 0.5, 2, 4})
	require.NotNil(Te, H)
	assert.Equal(Te, -14.0, H.Dividers[0])
	assert.Equal(Te, 1.0, H.Dividers[len(H.Dividers)-1])
	require.Len(Te, H.Counts, 15)
	assert.Equal(Te, 5, H.Total)
	assert.Equal(Te, 1.0, H.Counts[0])  //[-14,-13)
	assert.Equal(Te, 1.0, H.Counts[11]) //[-3,-2)
	assert.Equal(Te, 1.0, H.Counts[13]) //[-1,0)
	assert.Equal(Te, 2.0, H.Counts[14]) //[0,1)
	assert.InDelta(Te, 1, floats.Sum(H.Normalized()), 1e-14)
	assert.Nil(Te, DecadeHistogram([]float64{-1, 0}))

	raw := []float64{3, 0.5, 1, 7, 2.5, -1}
	H = NewHistogram([]float64{0, 1, 2, 3}, raw)
	assert.Equal(Te, []float64{1, 1, 1}, H.Counts)
	assert.Equal(Te, 3, H.Total)
	assert.Equal(Te, []float64{3, 0.5, 1, 7, 2.5, -1}, raw)
}
