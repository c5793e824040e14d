package raster

import (
	"fmt"
	"math"
)

// Gray8 is an 8-bit grid with 1 or 3 interleaved channels. It is the
// input of the contrast/brightness enhancer and of the bitmap encoder.
type Gray8 struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

func NewGray8(width, height int) *Gray8 {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("raster: invalid dimensions %dx%d", width, height))
	}
	return &Gray8{Width: width, Height: height, Channels: 1, Pix: make([]uint8, width*height)}
}

func (g *Gray8) At(x, y int) uint8 {
	return g.Pix[(y*g.Width+x)*g.Channels]
}

func (g *Gray8) Set(x, y int, v uint8) {
	g.Pix[(y*g.Width+x)*g.Channels] = v
}

func (g *Gray8) Clone() *Gray8 {
	pix := make([]uint8, len(g.Pix))
	copy(pix, g.Pix)
	return &Gray8{Width: g.Width, Height: g.Height, Channels: g.Channels, Pix: pix}
}

// RGB replicates a single channel three times. 3-channel grids are
// returned unchanged.
func (g *Gray8) RGB() *Gray8 {
	if g.Channels == 3 {
		return g
	}
	out := &Gray8{Width: g.Width, Height: g.Height, Channels: 3, Pix: make([]uint8, len(g.Pix)*3)}
	for i, v := range g.Pix {
		out.Pix[3*i] = v
		out.Pix[3*i+1] = v
		out.Pix[3*i+2] = v
	}
	return out
}

// Buffer converts to floats in [0,1]. Only the first channel is kept.
func (g *Gray8) Buffer() *Buffer {
	out := New(g.Width, g.Height)
	for i := range out.Pix {
		out.Pix[i] = float64(g.Pix[i*g.Channels]) / 255
	}
	return out
}

// Quantize scales a [0,1] single-channel buffer to [0,255] by
// truncation, uint8(v * 255). Out-of-range and NaN samples clamp.
func Quantize(b *Buffer) *Gray8 {
	out := NewGray8(b.Width, b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			out.Set(x, y, toByte(b.At(x, y)*255))
		}
	}
	return out
}

// Display normalizes b and quantizes the result, the final step of
// every float-valued stage.
func Display(b *Buffer) *Gray8 {
	return Quantize(Normalize(b))
}

// DisplayLevels normalizes b, truncates each sample to a whole level and
// then scales by 255. Only samples equal to the maximum survive, as 255;
// every other sample is 0.
func DisplayLevels(b *Buffer) *Gray8 {
	n := Normalize(b)
	out := NewGray8(b.Width, b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			out.Set(x, y, toByte(math.Trunc(n.At(x, y)))*255)
		}
	}
	return out
}

func toByte(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
