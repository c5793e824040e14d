package features

import (
	"fmt"

	"golden-forge/internal/filters"
	"golden-forge/internal/raster"
)

type HarrisParams struct {
	Sigma     float64
	K         float64
	Threshold float64
}

func DefaultHarrisParams() HarrisParams {
	return HarrisParams{Sigma: 1.0, K: 0.04, Threshold: 0.01}
}

func (p HarrisParams) Validate() error {
	if !(p.Sigma > 0) {
		return fmt.Errorf("%w: harris sigma must be positive, got %g", raster.ErrParameter, p.Sigma)
	}
	if !(p.K > 0) {
		return fmt.Errorf("%w: harris k must be positive, got %g", raster.ErrParameter, p.K)
	}
	return nil
}

// HarrisResponse computes det(M) - k*trace(M)^2 per pixel, where M is the
// structure tensor built from Gaussian-smoothed gradient products.
func HarrisResponse(b *raster.Buffer, sigma, k float64) (*raster.Buffer, error) {
	g := filters.Sobel(b)
	ixx, _ := raster.Combine(g.X, g.X, mul)
	iyy, _ := raster.Combine(g.Y, g.Y, mul)
	ixy, _ := raster.Combine(g.X, g.Y, mul)

	window, err := filters.GaussianKernel(sigma)
	if err != nil {
		return nil, err
	}
	sxx := filters.Convolve(ixx, window)
	syy := filters.Convolve(iyy, window)
	sxy := filters.Convolve(ixy, window)

	out := raster.New(b.Width, b.Height)
	for i := range out.Pix {
		a, c, d := sxx.Pix[i], syy.Pix[i], sxy.Pix[i]
		det := a*c - d*d
		trace := a + c
		out.Pix[i] = det - k*trace*trace
	}
	return out, nil
}

// Harris marks pixels whose raw response exceeds p.Threshold.
func Harris(b *raster.Buffer, p HarrisParams) (*raster.Mask, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r, err := HarrisResponse(b, p.Sigma, p.K)
	if err != nil {
		return nil, err
	}
	m := raster.NewMask(b.Width, b.Height)
	for i, v := range r.Pix {
		m.Bits[i] = v > p.Threshold
	}
	return m, nil
}

func mul(a, b float64) float64 {
	return a * b
}
