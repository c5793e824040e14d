// Package features holds the detectors of the pipeline: Canny edges,
// Harris corners and scale-space blobs. Each consumes a normalized
// single-channel buffer and none depends on another.
package features

import (
	"fmt"
	"math"

	"golden-forge/internal/filters"
	"golden-forge/internal/raster"
)

// CannyParams configures the edge detector. Thresholds apply to the raw
// gradient magnitude of the smoothed image.
type CannyParams struct {
	Sigma float64
	Low   float64
	High  float64
}

func DefaultCannyParams() CannyParams {
	return CannyParams{Sigma: 1.0, Low: 0.1, High: 0.2}
}

func (p CannyParams) Validate() error {
	if !(p.Sigma > 0) {
		return fmt.Errorf("%w: canny sigma must be positive, got %g", raster.ErrParameter, p.Sigma)
	}
	if p.Low < 0 || p.High < p.Low {
		return fmt.Errorf("%w: canny thresholds need 0 <= low <= high, got %g and %g", raster.ErrParameter, p.Low, p.High)
	}
	return nil
}

// Canny smooths b, takes Sobel gradients, thins them by non-maximum
// suppression and keeps strong pixels plus weak pixels 8-connected to a
// strong one.
func Canny(b *raster.Buffer, p CannyParams) (*raster.Mask, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	smoothed, err := filters.Gaussian(b, p.Sigma)
	if err != nil {
		return nil, err
	}
	g := filters.Sobel(smoothed)
	thin := NonMaxSuppression(g.Magnitude(), g.Direction())
	return hysteresis(thin, p.Low, p.High), nil
}

// NonMaxSuppression keeps a magnitude only where it is a maximum along
// the gradient direction, quantised to multiples of 45 degrees. Ties are
// resolved towards the pixel on the negative side so that a symmetric
// ridge keeps exactly one pixel. The one-pixel border is always zero.
func NonMaxSuppression(mag, dir *raster.Buffer) *raster.Buffer {
	out := raster.New(mag.Width, mag.Height)
	for y := 1; y < mag.Height-1; y++ {
		for x := 1; x < mag.Width-1; x++ {
			m := mag.At(x, y)
			if m == 0 {
				continue
			}
			a := math.Round(dir.At(x, y)/(math.Pi/4)) * (math.Pi / 4)
			dx := int(math.Round(math.Cos(a)))
			dy := int(math.Round(math.Sin(a)))
			if m >= mag.At(x+dx, y+dy) && m > mag.At(x-dx, y-dy) {
				out.Set(x, y, m)
			}
		}
	}
	return out
}

// hysteresis seeds from pixels at or above high and grows through
// 8-connected pixels at or above low. Suppressed (zero) pixels never join.
func hysteresis(thin *raster.Buffer, low, high float64) *raster.Mask {
	w, h := thin.Width, thin.Height
	edges := raster.NewMask(w, h)
	var stack []int
	for i, v := range thin.Pix {
		if v > 0 && v >= high {
			edges.Bits[i] = true
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if !edges.Bits[j] && thin.Pix[j] > 0 && thin.Pix[j] >= low {
					edges.Bits[j] = true
					stack = append(stack, j)
				}
			}
		}
	}
	return edges
}
