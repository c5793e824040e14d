package resize

import (
	"errors"
	"math"
	"testing"

	"golden-forge/internal/raster"
)

func checker(width, height int) *raster.Buffer {
	b := raster.New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			b.Set(x, y, float64((x*7+y*13)%17)/16)
		}
	}
	return b
}

func TestResizeShape(t *testing.T) {
	src := checker(13, 7)
	sizes := [][2]int{{1, 1}, {26, 14}, {6, 3}, {256, 128}, {5, 40}}
	for _, m := range Methods() {
		for _, sz := range sizes {
			out, err := Resize(src, sz[0], sz[1], m)
			if err != nil {
				t.Fatalf("%v %v: %v", m, sz, err)
			}
			if out.Width != sz[0] || out.Height != sz[1] {
				t.Errorf("%v: got %dx%d, want %dx%d", m, out.Width, out.Height, sz[0], sz[1])
			}
			if len(out.Pix) != sz[0]*sz[1] {
				t.Errorf("%v: got %d samples, want %d", m, len(out.Pix), sz[0]*sz[1])
			}
		}
	}
}

func TestZoomIdentity(t *testing.T) {
	src := checker(9, 5)
	for _, m := range Methods() {
		out, err := Zoom(src, 1.0, m)
		if err != nil {
			t.Fatal(err)
		}
		for i := range src.Pix {
			if math.Abs(out.Pix[i]-src.Pix[i]) > 1e-12 {
				t.Fatalf("%v Pix[%d]: got %v, want %v", m, i, out.Pix[i], src.Pix[i])
			}
		}
	}

	nearest, _ := Zoom(src, 1.0, Nearest)
	for i := range src.Pix {
		if nearest.Pix[i] != src.Pix[i] {
			t.Fatalf("nearest Pix[%d]: got %v, want exactly %v", i, nearest.Pix[i], src.Pix[i])
		}
	}
}

func TestZoomSize(t *testing.T) {
	tests := []struct {
		dim    int
		factor float64
		want   int
	}{
		{256, 0.5, 128},
		{128, 2.0, 256},
		{3, 0.5, 2},
		{1, 0.1, 1},
	}
	for _, tt := range tests {
		if got := ZoomSize(tt.dim, tt.factor); got != tt.want {
			t.Errorf("ZoomSize(%d, %v): got %d, want %d", tt.dim, tt.factor, got, tt.want)
		}
	}
}

func TestZoomRejectsFactor(t *testing.T) {
	src := checker(4, 4)
	for _, f := range []float64{0, -2, math.NaN(), math.Inf(1)} {
		if _, err := Zoom(src, f, Bilinear); !errors.Is(err, raster.ErrParameter) {
			t.Errorf("Zoom(%v): got %v, want ErrParameter", f, err)
		}
	}
}

func TestBilinearMidpoint(t *testing.T) {
	src := raster.New(2, 1)
	copy(src.Pix, []float64{0, 1})

	out, err := Resize(src, 3, 1, Bilinear)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 0.5, 1}
	for i, w := range want {
		if math.Abs(out.Pix[i]-w) > 1e-12 {
			t.Errorf("Pix[%d]: got %v, want %v", i, out.Pix[i], w)
		}
	}
}

func TestNearestNoBlending(t *testing.T) {
	src := checker(5, 5)
	out, err := Zoom(src, 2.0, Nearest)
	if err != nil {
		t.Fatal(err)
	}
	allowed := map[float64]bool{}
	for _, v := range src.Pix {
		allowed[v] = true
	}
	for i, v := range out.Pix {
		if !allowed[v] {
			t.Fatalf("Pix[%d]: %v is not a source sample", i, v)
		}
	}
}

func TestCubicWeightsPartitionUnity(t *testing.T) {
	for _, tt := range []float64{0, 0.25, 0.5, 0.9} {
		w := cubicWeights(tt)
		sum := w[0] + w[1] + w[2] + w[3]
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("t=%v: sum %v, want 1", tt, sum)
		}
	}
}

func TestCanonical(t *testing.T) {
	src := checker(40, 30)
	out, err := Canonical(src, 256, 128)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width != 256 || out.Height != 128 {
		t.Fatalf("size: got %dx%d, want 256x128", out.Width, out.Height)
	}

	flat := raster.New(500, 300)
	for i := range flat.Pix {
		flat.Pix[i] = 0.75
	}
	small, err := Canonical(flat, 256, 128)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range small.Pix {
		if math.Abs(v-0.75) > 1e-12 {
			t.Fatalf("Pix[%d]: got %v, want 0.75", i, v)
		}
	}

	if _, err := Canonical(src, 0, 128); !errors.Is(err, raster.ErrParameter) {
		t.Errorf("zero width: got %v, want ErrParameter", err)
	}
}

func TestParseMethod(t *testing.T) {
	for _, m := range Methods() {
		got, err := ParseMethod(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMethod(%q): got %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMethod("lanczos"); !errors.Is(err, raster.ErrParameter) {
		t.Errorf("lanczos: got %v, want ErrParameter", err)
	}
}
