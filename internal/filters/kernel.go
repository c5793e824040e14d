// Package filters implements the convolution filters of the pipeline:
// separable Gaussian smoothing, Gaussian Laplacian and Sobel gradients.
//
// All filters read outside the grid through raster.Buffer.AtClamped, so
// borders extend the nearest edge sample.
package filters

import (
	"fmt"
	"math"

	"golden-forge/internal/raster"
)

// Kernel is a convolution kernel of size 2*Radius+1 per axis. A separable
// kernel stores one axis of weights and is applied along rows, then
// columns; otherwise Weights holds the full row-major square.
type Kernel struct {
	Radius    int
	Weights   []float64
	Separable bool
}

// Size is the number of taps along one axis.
func (k Kernel) Size() int {
	return 2*k.Radius + 1
}

func (k Kernel) Sum() float64 {
	var s float64
	for _, w := range k.Weights {
		s += w
	}
	return s
}

// GaussianRadius is ceil(3*sigma): the kernel covers +-3 sigma.
func GaussianRadius(sigma float64) int {
	return int(math.Ceil(3 * sigma))
}

// GaussianKernel builds the normalized 1-D Gaussian of the given spread.
func GaussianKernel(sigma float64) (Kernel, error) {
	if !(sigma > 0) {
		return Kernel{}, fmt.Errorf("%w: gaussian sigma must be positive, got %g", raster.ErrParameter, sigma)
	}
	r := GaussianRadius(sigma)
	w := make([]float64, 2*r+1)
	var sum float64
	for i := range w {
		x := float64(i - r)
		w[i] = math.Exp(-x * x / (2 * sigma * sigma))
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return Kernel{Radius: r, Weights: w, Separable: true}, nil
}

// GaussianSecondDerivativeKernel is d2/dx2 of the normalized Gaussian,
// shifted to sum to zero so flat regions respond with exactly 0.
func GaussianSecondDerivativeKernel(sigma float64) (Kernel, error) {
	g, err := GaussianKernel(sigma)
	if err != nil {
		return Kernel{}, err
	}
	s2 := sigma * sigma
	w := make([]float64, len(g.Weights))
	var mean float64
	for i, gw := range g.Weights {
		x := float64(i - g.Radius)
		w[i] = gw * (x*x - s2) / (s2 * s2)
		mean += w[i]
	}
	mean /= float64(len(w))
	for i := range w {
		w[i] -= mean
	}
	return Kernel{Radius: g.Radius, Weights: w, Separable: true}, nil
}
