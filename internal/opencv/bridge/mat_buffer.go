// Package bridge converts between raster buffers and OpenCV matrices.
package bridge

import (
	"fmt"

	"gocv.io/x/gocv"

	"golden-forge/internal/opencv/safe"
	"golden-forge/internal/raster"
)

// BufferToMat copies a single-channel buffer into a CV_32FC1 matrix.
// Samples lose precision to float32.
func BufferToMat(b *raster.Buffer, tag string) (*safe.Mat, error) {
	if b.Channels != 1 {
		return nil, fmt.Errorf("%w: BufferToMat needs 1 channel, got %d", raster.ErrParameter, b.Channels)
	}
	m, err := safe.NewMat(b.Height, b.Width, gocv.MatTypeCV32FC1, tag)
	if err != nil {
		return nil, err
	}
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if err := m.SetFloatAt(y, x, float32(b.At(x, y))); err != nil {
				m.Close()
				return nil, err
			}
		}
	}
	return m, nil
}

// MatToBuffer copies a CV_32FC1 matrix into a new buffer.
func MatToBuffer(m *safe.Mat) (*raster.Buffer, error) {
	if err := safe.ValidateMatForOperation(m, "MatToBuffer"); err != nil {
		return nil, err
	}
	if m.Type() != gocv.MatTypeCV32FC1 {
		return nil, fmt.Errorf("MatToBuffer needs CV_32FC1, got %v", m.Type())
	}
	b := raster.New(m.Cols(), m.Rows())
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			v, err := m.GetFloatAt(y, x)
			if err != nil {
				return nil, fmt.Errorf("failed to get sample at (%d,%d): %w", x, y, err)
			}
			b.Set(x, y, float64(v))
		}
	}
	return b, nil
}
