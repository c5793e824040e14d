// Package safe wraps gocv.Mat with validity tracking so a closed or empty
// matrix is reported as an error instead of crashing inside OpenCV.
package safe

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// maxDimension bounds either side of a matrix.
const maxDimension = 32768

type Mat struct {
	mat     gocv.Mat
	isValid int32
	mu      sync.RWMutex
	tag     string
}

// NewMat allocates a rows x cols matrix of matType. tag names the matrix
// in error messages.
func NewMat(rows, cols int, matType gocv.MatType, tag string) (*Mat, error) {
	if err := validateDimensions(rows, cols); err != nil {
		return nil, err
	}

	mat := gocv.NewMatWithSize(rows, cols, matType)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("failed to create Mat %s with size %dx%d", tag, cols, rows)
	}
	return wrap(mat, tag), nil
}

// Adopt takes ownership of mat; the caller must not close it afterwards.
func Adopt(mat gocv.Mat, tag string) (*Mat, error) {
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("source Mat %s is empty", tag)
	}
	return wrap(mat, tag), nil
}

func wrap(mat gocv.Mat, tag string) *Mat {
	sm := &Mat{mat: mat, isValid: 1, tag: tag}
	runtime.SetFinalizer(sm, (*Mat).finalize)
	return sm
}

func (sm *Mat) IsValid() bool {
	return atomic.LoadInt32(&sm.isValid) == 1
}

func (sm *Mat) Empty() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return true
	}
	return sm.mat.Empty()
}

func (sm *Mat) Rows() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return 0
	}
	return sm.mat.Rows()
}

func (sm *Mat) Cols() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return 0
	}
	return sm.mat.Cols()
}

func (sm *Mat) Channels() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return 0
	}
	return sm.mat.Channels()
}

func (sm *Mat) Type() gocv.MatType {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return gocv.MatTypeCV8UC1
	}
	return sm.mat.Type()
}

func (sm *Mat) Tag() string {
	return sm.tag
}

func (sm *Mat) GetFloatAt(row, col int) (float32, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if err := sm.validateCoordinates(row, col); err != nil {
		return 0, err
	}
	return sm.mat.GetFloatAt(row, col), nil
}

func (sm *Mat) SetFloatAt(row, col int, value float32) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if err := sm.validateCoordinates(row, col); err != nil {
		return err
	}
	sm.mat.SetFloatAt(row, col, value)
	return nil
}

// GetMat exposes the underlying matrix for OpenCV calls. It stays owned
// by sm.
func (sm *Mat) GetMat() gocv.Mat {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.mat
}

func (sm *Mat) Close() {
	if !atomic.CompareAndSwapInt32(&sm.isValid, 1, 0) {
		return
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.mat.Empty() {
		sm.mat.Close()
	}
	runtime.SetFinalizer(sm, nil)
	sm.mat = gocv.Mat{}
}

func (sm *Mat) finalize() {
	if atomic.LoadInt32(&sm.isValid) == 1 {
		sm.Close()
	}
}

func (sm *Mat) validateCoordinates(row, col int) error {
	if !sm.IsValid() {
		return fmt.Errorf("Mat %s is invalid", sm.tag)
	}

	if row < 0 || row >= sm.mat.Rows() || col < 0 || col >= sm.mat.Cols() {
		return fmt.Errorf("coordinates out of bounds: (%d,%d) for size %dx%d",
			col, row, sm.mat.Cols(), sm.mat.Rows())
	}
	return nil
}

func validateDimensions(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", cols, rows)
	}
	if rows > maxDimension || cols > maxDimension {
		return fmt.Errorf("dimensions %dx%d exceed maximum size", cols, rows)
	}
	return nil
}

func ValidateMatForOperation(mat *Mat, operation string) error {
	if mat == nil {
		return fmt.Errorf("Mat is nil for operation: %s", operation)
	}

	if !mat.IsValid() {
		return fmt.Errorf("Mat is invalid for operation: %s", operation)
	}

	if mat.Empty() {
		return fmt.Errorf("Mat is empty for operation: %s", operation)
	}

	if mat.Rows() <= 0 || mat.Cols() <= 0 {
		return fmt.Errorf("Mat has invalid dimensions %dx%d for operation: %s",
			mat.Cols(), mat.Rows(), operation)
	}
	return nil
}
