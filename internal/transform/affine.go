// Package transform applies planar affine warps to single-channel
// buffers. Matrices map source pixel coordinates (x right, y down) to
// destination coordinates; warping walks the destination and samples the
// source through the inverse.
package transform

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"golden-forge/internal/raster"
	"golden-forge/internal/resize"
)

// edgeTolerance admits sample positions that land a rounding error
// outside the source grid.
const edgeTolerance = 1e-9

// Affine is a 3x3 homogeneous matrix whose last row is 0 0 1.
type Affine struct {
	m *mat.Dense
}

func newAffine(a, b, c, d, e, f float64) Affine {
	return Affine{m: mat.NewDense(3, 3, []float64{
		a, b, c,
		d, e, f,
		0, 0, 1,
	})}
}

func Identity() Affine {
	return newAffine(1, 0, 0, 0, 1, 0)
}

func Translation(tx, ty float64) Affine {
	return newAffine(1, 0, tx, 0, 1, ty)
}

func Scaling(sx, sy float64) Affine {
	return newAffine(sx, 0, 0, 0, sy, 0)
}

func Shear(kx, ky float64) Affine {
	return newAffine(1, kx, 0, ky, 1, 0)
}

// Rotation turns by deg degrees counter-clockwise as displayed (y down)
// around (cx, cy).
func Rotation(deg, cx, cy float64) Affine {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	r := newAffine(cos, sin, 0, -sin, cos, 0)
	return Translation(cx, cy).Then(r).Then(Translation(-cx, -cy))
}

// Then returns the product a * next. Applied to a point, next acts first.
func (a Affine) Then(next Affine) Affine {
	var out mat.Dense
	out.Mul(a.m, next.m)
	return Affine{m: &out}
}

// Apply maps (x, y) through the transform.
func (a Affine) Apply(x, y float64) (float64, float64) {
	m := a.m
	return m.At(0, 0)*x + m.At(0, 1)*y + m.At(0, 2),
		m.At(1, 0)*x + m.At(1, 1)*y + m.At(1, 2)
}

func (a Affine) Inverse() (Affine, error) {
	var inv mat.Dense
	if err := inv.Inverse(a.m); err != nil {
		return Affine{}, fmt.Errorf("%w: affine matrix is not invertible: %v", raster.ErrParameter, err)
	}
	return Affine{m: &inv}, nil
}

// Warp resamples b through a into a width x height buffer. Destination
// pixels whose source position falls outside b are zero.
func Warp(b *raster.Buffer, a Affine, width, height int, m resize.Method) (*raster.Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: warp size %dx%d", raster.ErrParameter, width, height)
	}
	inv, err := a.Inverse()
	if err != nil {
		return nil, err
	}
	maxX := float64(b.Width-1) + edgeTolerance
	maxY := float64(b.Height-1) + edgeTolerance
	out := raster.New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx, sy := inv.Apply(float64(x), float64(y))
			if sx < -edgeTolerance || sy < -edgeTolerance || sx > maxX || sy > maxY {
				continue
			}
			out.Set(x, y, resize.Sample(b, sx, sy, m))
		}
	}
	return out, nil
}

// Rotate turns b by deg degrees about its centre, keeping its size.
func Rotate(b *raster.Buffer, deg float64, m resize.Method) (*raster.Buffer, error) {
	cx := float64(b.Width-1) / 2
	cy := float64(b.Height-1) / 2
	return Warp(b, Rotation(deg, cx, cy), b.Width, b.Height, m)
}
