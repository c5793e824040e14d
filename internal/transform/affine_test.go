package transform

import (
	"errors"
	"math"
	"testing"

	"golden-forge/internal/raster"
	"golden-forge/internal/resize"
)

func indexed(width, height int) *raster.Buffer {
	b := raster.New(width, height)
	for i := range b.Pix {
		b.Pix[i] = float64(i + 1)
	}
	return b
}

func TestRotationApply(t *testing.T) {
	tests := []struct {
		deg          float64
		x, y         float64
		wantX, wantY float64
	}{
		{0, 3, 1, 3, 1},
		{90, 1, 0, 0, -1},
		{180, 1, 2, -1, -2},
		{-90, 1, 0, 0, 1},
	}
	for _, tt := range tests {
		gx, gy := Rotation(tt.deg, 0, 0).Apply(tt.x, tt.y)
		if math.Abs(gx-tt.wantX) > 1e-12 || math.Abs(gy-tt.wantY) > 1e-12 {
			t.Errorf("Rotation(%v).Apply(%v,%v): got (%v,%v), want (%v,%v)",
				tt.deg, tt.x, tt.y, gx, gy, tt.wantX, tt.wantY)
		}
	}
}

func TestRotationAboutCentreFixesCentre(t *testing.T) {
	x, y := Rotation(37, 4, 2).Apply(4, 2)
	if math.Abs(x-4) > 1e-12 || math.Abs(y-2) > 1e-12 {
		t.Errorf("centre moved to (%v,%v)", x, y)
	}
}

func TestRotateIdentity(t *testing.T) {
	b := indexed(5, 4)
	out, err := Rotate(b, 0, resize.Bilinear)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	for i := range b.Pix {
		if math.Abs(out.Pix[i]-b.Pix[i]) > 1e-9 {
			t.Fatalf("sample %d: got %v, want %v", i, out.Pix[i], b.Pix[i])
		}
	}
}

func TestRotate180(t *testing.T) {
	b := indexed(5, 3)
	out, err := Rotate(b, 180, resize.Nearest)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	n := len(b.Pix)
	for i := range b.Pix {
		if out.Pix[i] != b.Pix[n-1-i] {
			t.Errorf("sample %d: got %v, want %v", i, out.Pix[i], b.Pix[n-1-i])
		}
	}
}

func TestWarpOutsideIsZero(t *testing.T) {
	b := indexed(4, 4)
	out, err := Warp(b, Translation(2, 0), 4, 4, resize.Bilinear)
	if err != nil {
		t.Fatalf("Warp: %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 2; x++ {
			if out.At(x, y) != 0 {
				t.Errorf("(%d,%d): got %v, want 0", x, y, out.At(x, y))
			}
		}
		if got, want := out.At(2, y), b.At(0, y); got != want {
			t.Errorf("(2,%d): got %v, want %v", y, got, want)
		}
	}
}

func TestWarpRejectsSingular(t *testing.T) {
	_, err := Warp(indexed(3, 3), Scaling(0, 1), 3, 3, resize.Bilinear)
	if !errors.Is(err, raster.ErrParameter) {
		t.Errorf("got %v, want ErrParameter", err)
	}
}

func TestThenComposes(t *testing.T) {
	a := Translation(1, 2).Then(Scaling(2, 3))
	x, y := a.Apply(1, 1)
	if x != 3 || y != 5 {
		t.Errorf("got (%v,%v), want (3,5)", x, y)
	}
	inv, err := a.Inverse()
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	bx, by := inv.Apply(x, y)
	if math.Abs(bx-1) > 1e-12 || math.Abs(by-1) > 1e-12 {
		t.Errorf("inverse: got (%v,%v), want (1,1)", bx, by)
	}
	if sx, sy := Shear(1, 0).Apply(1, 2); sx != 3 || sy != 2 {
		t.Errorf("shear: got (%v,%v), want (3,2)", sx, sy)
	}
}
