package resize

import (
	"fmt"
	"math"

	"golden-forge/internal/filters"
	"golden-forge/internal/raster"
)

// Canonical resizes b to width x height with bilinear interpolation on
// pixel centres: output index o samples source (o + 0.5)*in/out - 0.5.
// An axis that shrinks is first smoothed with a Gaussian of sigma
// (in/out - 1) / 2 to suppress aliasing.
func Canonical(b *raster.Buffer, width, height int) (*raster.Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: canonical size %dx%d", raster.ErrParameter, width, height)
	}
	scaleX := float64(b.Width) / float64(width)
	scaleY := float64(b.Height) / float64(height)

	src, err := filters.GaussianXY(b, antialiasSigma(scaleX), antialiasSigma(scaleY))
	if err != nil {
		return nil, err
	}

	out := raster.New(width, height)
	for y := 0; y < height; y++ {
		sy := (float64(y)+0.5)*scaleY - 0.5
		for x := 0; x < width; x++ {
			sx := (float64(x)+0.5)*scaleX - 0.5
			out.Set(x, y, bilinear(src, sx, sy))
		}
	}
	return out, nil
}

func antialiasSigma(scale float64) float64 {
	return math.Max(0, (scale-1)/2)
}
