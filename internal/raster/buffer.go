// Package raster holds the sample grids that flow through the transform
// pipeline, the min/max normalizer and the portable bitmap codec.
package raster

import (
	"fmt"
)

// Buffer is a row-major grid of float samples. Single-channel buffers are
// the working representation for every filter; 3-channel buffers only
// appear at decode time.
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []float64
}

// New allocates a zeroed single-channel buffer. It panics on non-positive
// dimensions, which are programming errors at this layer.
func New(width, height int) *Buffer {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("raster: invalid dimensions %dx%d", width, height))
	}
	return &Buffer{
		Width:    width,
		Height:   height,
		Channels: 1,
		Pix:      make([]float64, width*height),
	}
}

// FromSamples wraps pix after checking len(pix) == width*height*channels.
func FromSamples(width, height, channels int, pix []float64) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrParameter, width, height)
	}
	if channels != 1 && channels != 3 {
		return nil, fmt.Errorf("%w: unsupported channel count %d", ErrParameter, channels)
	}
	if len(pix) != width*height*channels {
		return nil, fmt.Errorf("%w: %d samples for %dx%dx%d grid", ErrParameter, len(pix), width, height, channels)
	}
	return &Buffer{Width: width, Height: height, Channels: channels, Pix: pix}, nil
}

func (b *Buffer) Stride() int {
	return b.Width * b.Channels
}

func (b *Buffer) At(x, y int) float64 {
	return b.Pix[y*b.Stride()+x*b.Channels]
}

func (b *Buffer) Set(x, y int, v float64) {
	b.Pix[y*b.Stride()+x*b.Channels] = v
}

// AtClamped reads with coordinates clamped to the nearest edge sample.
// This is the border policy of every filter in the module.
func (b *Buffer) AtClamped(x, y int) float64 {
	return b.At(clamp(x, 0, b.Width-1), clamp(y, 0, b.Height-1))
}

func (b *Buffer) Row(y int) []float64 {
	s := b.Stride()
	return b.Pix[y*s : (y+1)*s]
}

func (b *Buffer) Clone() *Buffer {
	pix := make([]float64, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Channels: b.Channels, Pix: pix}
}

// SameShape reports whether o has the same spatial size and channel count.
func (b *Buffer) SameShape(o *Buffer) bool {
	return b.Width == o.Width && b.Height == o.Height && b.Channels == o.Channels
}

// Map returns a new buffer with f applied to every sample.
func (b *Buffer) Map(f func(float64) float64) *Buffer {
	out := &Buffer{Width: b.Width, Height: b.Height, Channels: b.Channels, Pix: make([]float64, len(b.Pix))}
	for i, v := range b.Pix {
		out.Pix[i] = f(v)
	}
	return out
}

// Combine applies f sample-wise to two buffers of the same shape.
func Combine(a, b *Buffer, f func(x, y float64) float64) (*Buffer, error) {
	if !a.SameShape(b) {
		return nil, fmt.Errorf("%w: shape mismatch %dx%dx%d vs %dx%dx%d", ErrParameter,
			a.Width, a.Height, a.Channels, b.Width, b.Height, b.Channels)
	}
	out := &Buffer{Width: a.Width, Height: a.Height, Channels: a.Channels, Pix: make([]float64, len(a.Pix))}
	for i := range a.Pix {
		out.Pix[i] = f(a.Pix[i], b.Pix[i])
	}
	return out, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
