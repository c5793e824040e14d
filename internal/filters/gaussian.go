package filters

import (
	"fmt"

	"golden-forge/internal/raster"
)

// Gaussian smooths b with an isotropic Gaussian of spread sigma.
func Gaussian(b *raster.Buffer, sigma float64) (*raster.Buffer, error) {
	k, err := GaussianKernel(sigma)
	if err != nil {
		return nil, err
	}
	return Convolve(b, k), nil
}

// GaussianXY smooths each axis with its own spread. A zero sigma leaves
// that axis untouched.
func GaussianXY(b *raster.Buffer, sigmaX, sigmaY float64) (*raster.Buffer, error) {
	if sigmaX < 0 || sigmaY < 0 {
		return nil, fmt.Errorf("%w: negative gaussian sigma (%g, %g)", raster.ErrParameter, sigmaX, sigmaY)
	}
	var wx, wy []float64
	if sigmaX > 0 {
		k, err := GaussianKernel(sigmaX)
		if err != nil {
			return nil, err
		}
		wx = k.Weights
	}
	if sigmaY > 0 {
		k, err := GaussianKernel(sigmaY)
		if err != nil {
			return nil, err
		}
		wy = k.Weights
	}
	return Separable(b, wx, wy), nil
}

// GaussianLaplace is the Laplacian of the Gaussian-smoothed image,
// d2/dx2 + d2/dy2, computed from two separable passes.
func GaussianLaplace(b *raster.Buffer, sigma float64) (*raster.Buffer, error) {
	g, err := GaussianKernel(sigma)
	if err != nil {
		return nil, err
	}
	d2, err := GaussianSecondDerivativeKernel(sigma)
	if err != nil {
		return nil, err
	}
	xx := Separable(b, d2.Weights, g.Weights)
	yy := Separable(b, g.Weights, d2.Weights)
	return raster.Combine(xx, yy, func(a, c float64) float64 { return a + c })
}
