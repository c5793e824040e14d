// Package enhance holds the 8-bit intensity remaps: brightness, contrast,
// histogram equalisation and binary thresholding.
package enhance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"golden-forge/internal/raster"
)

func checkFactor(name string, f float64) error {
	if !(f > 0) || math.IsInf(f, 1) {
		return fmt.Errorf("%w: %s factor must be positive and finite, got %g", raster.ErrParameter, name, f)
	}
	return nil
}

// Brightness scales every sample: clamp(round(v * factor), 0, 255).
func Brightness(g *raster.Gray8, factor float64) (*raster.Gray8, error) {
	if err := checkFactor("brightness", factor); err != nil {
		return nil, err
	}
	return remap(g, func(v float64) float64 { return v * factor }), nil
}

// Contrast scales each sample's deviation from the image mean:
// clamp(round(mean + (v - mean) * factor), 0, 255). The mean is taken over
// the first channel and rounded to an integer level first.
func Contrast(g *raster.Gray8, factor float64) (*raster.Gray8, error) {
	if err := checkFactor("contrast", factor); err != nil {
		return nil, err
	}
	mean := math.Round(Mean(g))
	return remap(g, func(v float64) float64 { return mean + (v-mean)*factor }), nil
}

// Mean is the average level of the first channel.
func Mean(g *raster.Gray8) float64 {
	xs := make([]float64, g.Width*g.Height)
	for i := range xs {
		xs[i] = float64(g.Pix[i*g.Channels])
	}
	return stat.Mean(xs, nil)
}

func remap(g *raster.Gray8, f func(float64) float64) *raster.Gray8 {
	var lut [256]uint8
	for i := range lut {
		lut[i] = clampByte(math.Round(f(float64(i))))
	}
	out := g.Clone()
	for i, v := range out.Pix {
		out.Pix[i] = lut[v]
	}
	return out
}

func clampByte(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

// Equalize spreads the histogram of a single-channel grid through the
// full range by mapping each level through the normalised cumulative
// histogram. A grid with one level is returned unchanged.
func Equalize(g *raster.Gray8) *raster.Gray8 {
	var hist [256]int
	n := g.Width * g.Height
	for i := 0; i < n; i++ {
		hist[g.Pix[i*g.Channels]]++
	}
	var cdf [256]int
	run := 0
	for i, c := range hist {
		run += c
		cdf[i] = run
	}
	cdfMin := 0
	for _, c := range cdf {
		if c > 0 {
			cdfMin = c
			break
		}
	}
	if cdfMin == n {
		return g.Clone()
	}
	var lut [256]uint8
	for i := range lut {
		if hist[i] == 0 {
			continue
		}
		lut[i] = clampByte(math.Round(float64(cdf[i]-cdfMin) / float64(n-cdfMin) * 255))
	}
	out := g.Clone()
	for i, v := range out.Pix {
		out.Pix[i] = lut[v]
	}
	return out
}

// Threshold marks samples strictly greater than t.
func Threshold(b *raster.Buffer, t float64) *raster.Mask {
	m := raster.NewMask(b.Width, b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			m.Set(x, y, b.At(x, y) > t)
		}
	}
	return m
}
