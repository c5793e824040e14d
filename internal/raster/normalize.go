package raster

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// MinMax returns the smallest and largest sample of b.
func MinMax(b *Buffer) (lo, hi float64) {
	return floats.Min(b.Pix), floats.Max(b.Pix)
}

// IsDegenerate reports whether every sample of b is equal.
func IsDegenerate(b *Buffer) bool {
	lo, hi := MinMax(b)
	return lo == hi
}

// Normalize maps every sample v to (v - min) / (max - min).
//
// A uniform grid has no range to divide by; it normalizes to all zeros.
// Use NormalizeStrict when the caller needs to know that happened.
func Normalize(b *Buffer) *Buffer {
	lo, hi := MinMax(b)
	return normalizeRange(b, lo, hi)
}

func normalizeRange(b *Buffer, lo, hi float64) *Buffer {
	if lo == hi {
		return &Buffer{Width: b.Width, Height: b.Height, Channels: b.Channels, Pix: make([]float64, len(b.Pix))}
	}
	span := hi - lo
	return b.Map(func(v float64) float64 {
		return (v - lo) / span
	})
}

// NormalizeStrict is Normalize but reports ErrDegenerate alongside the
// all-zero fallback grid for uniform input.
func NormalizeStrict(b *Buffer) (*Buffer, error) {
	lo, hi := MinMax(b)
	out := normalizeRange(b, lo, hi)
	if lo == hi {
		return out, fmt.Errorf("%w: all %d samples equal %g", ErrDegenerate, len(b.Pix), lo)
	}
	return out, nil
}
