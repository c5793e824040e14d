// Package crosscheck runs the filters that have an OpenCV counterpart
// through both implementations and reports how far apart they land.
// OpenCV works in float32, so small differences are expected.
package crosscheck

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"golden-forge/internal/filters"
	"golden-forge/internal/opencv/bridge"
	"golden-forge/internal/opencv/safe"
	"golden-forge/internal/raster"
	"golden-forge/internal/resize"
)

// Check is the largest absolute difference for one operation.
type Check struct {
	Name    string
	MaxDiff float64
}

// Run compares Gaussian smoothing at sigma, both Sobel derivatives and a
// bilinear 2x upscale of b.
func Run(b *raster.Buffer, sigma float64) ([]Check, error) {
	src, err := bridge.BufferToMat(b, "crosscheck_source")
	if err != nil {
		return nil, err
	}
	defer src.Close()

	steps := []struct {
		name   string
		native func() (*raster.Buffer, error)
		opencv func(src, dst *gocv.Mat)
	}{
		{
			name:   "gaussian",
			native: func() (*raster.Buffer, error) { return filters.Gaussian(b, sigma) },
			opencv: func(src, dst *gocv.Mat) {
				size := 2*filters.GaussianRadius(sigma) + 1
				gocv.GaussianBlur(*src, dst, image.Pt(size, size), sigma, sigma, gocv.BorderReplicate)
			},
		},
		{
			name:   "sobel_x",
			native: func() (*raster.Buffer, error) { return filters.Sobel(b).X, nil },
			opencv: func(src, dst *gocv.Mat) {
				gocv.Sobel(*src, dst, gocv.MatTypeCV32F, 1, 0, 3, 1, 0, gocv.BorderReplicate)
			},
		},
		{
			name:   "sobel_y",
			native: func() (*raster.Buffer, error) { return filters.Sobel(b).Y, nil },
			opencv: func(src, dst *gocv.Mat) {
				gocv.Sobel(*src, dst, gocv.MatTypeCV32F, 0, 1, 3, 1, 0, gocv.BorderReplicate)
			},
		},
		{
			name: "bilinear_upscale",
			native: func() (*raster.Buffer, error) {
				return resize.Canonical(b, 2*b.Width, 2*b.Height)
			},
			opencv: func(src, dst *gocv.Mat) {
				gocv.Resize(*src, dst, image.Pt(2*b.Width, 2*b.Height), 0, 0, gocv.InterpolationLinear)
			},
		},
	}

	checks := make([]Check, 0, len(steps))
	for _, st := range steps {
		want, err := st.native()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", st.name, err)
		}
		got, err := runOpenCV(src, st.opencv, st.name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", st.name, err)
		}
		d, err := MaxAbsDiff(want, got)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", st.name, err)
		}
		checks = append(checks, Check{Name: st.name, MaxDiff: d})
	}
	return checks, nil
}

func runOpenCV(src *safe.Mat, op func(src, dst *gocv.Mat), name string) (*raster.Buffer, error) {
	if err := safe.ValidateMatForOperation(src, name); err != nil {
		return nil, err
	}
	in := src.GetMat()
	out := gocv.NewMat()
	op(&in, &out)
	dst, err := safe.Adopt(out, name)
	if err != nil {
		return nil, err
	}
	defer dst.Close()
	return bridge.MatToBuffer(dst)
}

// MaxAbsDiff is the largest |a - b| over two same-shaped buffers.
func MaxAbsDiff(a, b *raster.Buffer) (float64, error) {
	if !a.SameShape(b) {
		return 0, fmt.Errorf("%w: shape mismatch %dx%d vs %dx%d", raster.ErrParameter, a.Width, a.Height, b.Width, b.Height)
	}
	var worst float64
	for i := range a.Pix {
		worst = math.Max(worst, math.Abs(a.Pix[i]-b.Pix[i]))
	}
	return worst, nil
}
