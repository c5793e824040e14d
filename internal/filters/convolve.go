package filters

import (
	"golden-forge/internal/raster"
)

// Convolve applies k to a single-channel buffer and returns a new one.
func Convolve(b *raster.Buffer, k Kernel) *raster.Buffer {
	if k.Separable {
		return Separable(b, k.Weights, k.Weights)
	}
	return convolve2D(b, k)
}

// Separable convolves rows with wx, then columns with wy. Both weight
// slices must have odd length; either may be nil to skip that axis.
func Separable(b *raster.Buffer, wx, wy []float64) *raster.Buffer {
	out := b
	if wx != nil {
		out = convolveRows(out, wx)
	}
	if wy != nil {
		out = convolveCols(out, wy)
	}
	if out == b {
		out = b.Clone()
	}
	return out
}

func convolveRows(b *raster.Buffer, w []float64) *raster.Buffer {
	r := len(w) / 2
	out := raster.New(b.Width, b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			var acc float64
			for i, wi := range w {
				acc += wi * b.AtClamped(x-(i-r), y)
			}
			out.Set(x, y, acc)
		}
	}
	return out
}

func convolveCols(b *raster.Buffer, w []float64) *raster.Buffer {
	r := len(w) / 2
	out := raster.New(b.Width, b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			var acc float64
			for i, wi := range w {
				acc += wi * b.AtClamped(x, y-(i-r))
			}
			out.Set(x, y, acc)
		}
	}
	return out
}

func convolve2D(b *raster.Buffer, k Kernel) *raster.Buffer {
	r, n := k.Radius, k.Size()
	out := raster.New(b.Width, b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			var acc float64
			for j := 0; j < n; j++ {
				for i := 0; i < n; i++ {
					w := k.Weights[j*n+i]
					if w == 0 {
						continue
					}
					acc += w * b.AtClamped(x-(i-r), y-(j-r))
				}
			}
			out.Set(x, y, acc)
		}
	}
	return out
}
