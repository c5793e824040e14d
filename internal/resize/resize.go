// Package resize maps grids to new spatial sizes with nearest, bilinear
// or bicubic interpolation. Source coordinates outside the grid clamp to
// the nearest edge sample.
package resize

import (
	"fmt"
	"math"
	"strings"

	"golden-forge/internal/raster"
)

// Method selects the interpolation kernel.
type Method int

const (
	Nearest Method = iota
	Bilinear
	Bicubic
)

// cubicA is the Keys cubic convolution coefficient.
const cubicA = -0.5

func (m Method) String() string {
	switch m {
	case Nearest:
		return "nearest"
	case Bilinear:
		return "bilinear"
	case Bicubic:
		return "bicubic"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(name) {
	case "nearest":
		return Nearest, nil
	case "bilinear":
		return Bilinear, nil
	case "bicubic":
		return Bicubic, nil
	default:
		return 0, fmt.Errorf("%w: unknown interpolation %q", raster.ErrParameter, name)
	}
}

// Methods lists every kernel in output order.
func Methods() []Method {
	return []Method{Nearest, Bilinear, Bicubic}
}

// ZoomSize is round(dim * factor), never less than 1.
func ZoomSize(dim int, factor float64) int {
	n := int(math.Round(float64(dim) * factor))
	if n < 1 {
		return 1
	}
	return n
}

// Zoom scales both axes of b by factor.
func Zoom(b *raster.Buffer, factor float64, m Method) (*raster.Buffer, error) {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return nil, fmt.Errorf("%w: scale factor must be positive, got %g", raster.ErrParameter, factor)
	}
	return Resize(b, ZoomSize(b.Width, factor), ZoomSize(b.Height, factor), m)
}

// Resize produces a width x height grid. Output index o on an axis maps
// to source coordinate o*(in-1)/(out-1), so the corner samples of source
// and output coincide and a same-size resize is the identity.
func Resize(b *raster.Buffer, width, height int, m Method) (*raster.Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: target size %dx%d", raster.ErrParameter, width, height)
	}
	if m < Nearest || m > Bicubic {
		return nil, fmt.Errorf("%w: unknown interpolation %v", raster.ErrParameter, m)
	}
	out := raster.New(width, height)
	for y := 0; y < height; y++ {
		sy := alignCorners(y, b.Height, height)
		for x := 0; x < width; x++ {
			out.Set(x, y, Sample(b, alignCorners(x, b.Width, width), sy, m))
		}
	}
	return out, nil
}

func alignCorners(o, in, out int) float64 {
	if out == 1 {
		return 0
	}
	return float64(o*(in-1)) / float64(out-1)
}

// Sample interpolates b at the fractional source position (x, y).
func Sample(b *raster.Buffer, x, y float64, m Method) float64 {
	switch m {
	case Nearest:
		return b.AtClamped(int(math.Round(x)), int(math.Round(y)))
	case Bilinear:
		return bilinear(b, x, y)
	default:
		return bicubic(b, x, y)
	}
}

func bilinear(b *raster.Buffer, x, y float64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)

	top := lerp(b.AtClamped(ix, iy), b.AtClamped(ix+1, iy), fx)
	bottom := lerp(b.AtClamped(ix, iy+1), b.AtClamped(ix+1, iy+1), fx)
	return lerp(top, bottom, fy)
}

// lerp is exact when a == b, so flat regions stay flat.
func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func bicubic(b *raster.Buffer, x, y float64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	wx := cubicWeights(x - x0)
	wy := cubicWeights(y - y0)
	ix, iy := int(x0), int(y0)

	var acc float64
	for j := 0; j < 4; j++ {
		var row float64
		for i := 0; i < 4; i++ {
			row += wx[i] * b.AtClamped(ix-1+i, iy-1+j)
		}
		acc += wy[j] * row
	}
	return acc
}

// cubicWeights returns the four tap weights for taps at offsets -1..2
// from floor(x), where t = x - floor(x).
func cubicWeights(t float64) [4]float64 {
	return [4]float64{
		cubicKernel(t + 1),
		cubicKernel(t),
		cubicKernel(1 - t),
		cubicKernel(2 - t),
	}
}

func cubicKernel(s float64) float64 {
	s = math.Abs(s)
	switch {
	case s <= 1:
		return ((cubicA+2)*s-(cubicA+3))*s*s + 1
	case s < 2:
		return ((cubicA*s-5*cubicA)*s+8*cubicA)*s - 4*cubicA
	default:
		return 0
	}
}
