package filters

import (
	"math"

	"golden-forge/internal/raster"
)

var (
	sobelX = Kernel{Radius: 1, Weights: []float64{
		1, 0, -1,
		2, 0, -2,
		1, 0, -1,
	}}
	sobelY = Kernel{Radius: 1, Weights: []float64{
		1, 2, 1,
		0, 0, 0,
		-1, -2, -1,
	}}
)

// Gradient holds the horizontal and vertical Sobel derivatives of an image.
type Gradient struct {
	X *raster.Buffer
	Y *raster.Buffer
}

// Sobel convolves b with the 3x3 Sobel kernels. X grows to the right and
// Y grows downwards.
func Sobel(b *raster.Buffer) Gradient {
	return Gradient{
		X: Convolve(b, sobelX),
		Y: Convolve(b, sobelY),
	}
}

// Magnitude is the Euclidean norm sqrt(gx^2 + gy^2) per pixel.
func (g Gradient) Magnitude() *raster.Buffer {
	out, _ := raster.Combine(g.X, g.Y, math.Hypot)
	return out
}

// Direction is atan2(gy, gx) in (-pi, pi].
func (g Gradient) Direction() *raster.Buffer {
	out, _ := raster.Combine(g.X, g.Y, func(x, y float64) float64 {
		a := math.Atan2(y, x)
		if a == -math.Pi {
			return math.Pi
		}
		return a
	})
	return out
}
