package verify

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"golden-forge/internal/logger"
	"golden-forge/internal/raster"
)

func levels(pix ...uint8) *raster.Gray8 {
	g := raster.NewGray8(len(pix), 1)
	copy(g.Pix, pix)
	return g
}

func writePPM(t *testing.T, path string, g *raster.Gray8) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := raster.EncodePPM(f, g); err != nil {
		t.Fatal(err)
	}
}

func TestCompare(t *testing.T) {
	same, err := Compare(levels(1, 2, 3), levels(1, 2, 3))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !same.Exact || same.MaxDiff != 0 || !math.IsInf(same.PSNR, 1) {
		t.Errorf("identical: got %+v", same)
	}

	diff, err := Compare(levels(0, 100, 200, 255), levels(0, 103, 190, 255))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if diff.Exact || diff.MaxDiff != 10 {
		t.Errorf("different: got exact %v max %d, want false 10", diff.Exact, diff.MaxDiff)
	}
	// mse = (9 + 100) / 4
	want := 10 * math.Log10(255*255/(109.0/4))
	if math.Abs(diff.PSNR-want) > 1e-9 {
		t.Errorf("PSNR: got %v, want %v", diff.PSNR, want)
	}

	if _, err := Compare(levels(1, 2), levels(1, 2, 3)); !errors.Is(err, raster.ErrInput) {
		t.Errorf("shape mismatch: got %v, want ErrInput", err)
	}
}

func TestBinaryMetrics(t *testing.T) {
	golden := levels(255, 255, 0, 0, 255)
	candidate := levels(255, 0, 255, 0, 255)
	m, err := CompareBinary(golden, candidate)
	if err != nil {
		t.Fatalf("CompareBinary: %v", err)
	}
	if m.TruePositives != 2 || m.FalseNegatives != 1 || m.FalsePositives != 1 || m.TrueNegatives != 1 {
		t.Fatalf("confusion: got %+v", m)
	}
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"precision", m.Precision(), 2.0 / 3},
		{"recall", m.Recall(), 2.0 / 3},
		{"fmeasure", m.FMeasure(), 2.0 / 3},
		{"pseudo fmeasure", m.PseudoFMeasure(), 2.0 / 3},
		{"nrm", m.NRM(), (1.0/3 + 1.0/2) / 2},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > 1e-12 {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	empty := &BinaryMetrics{}
	if empty.FMeasure() != 0 || empty.NRM() != 0 {
		t.Errorf("empty metrics: got F %v NRM %v", empty.FMeasure(), empty.NRM())
	}
}

func TestIsBinaryStage(t *testing.T) {
	tests := map[string]bool{
		"a_expected_canny.ppm":         true,
		"a_expected_harris.ppm":        true,
		"a_expected_threshold_0.5.ppm": true,
		"a_expected_gaussian.ppm":      false,
		"a_expected_canny_x.ppm":       false,
		"canny.ppm":                    false,
	}
	for name, want := range tests {
		if got := isBinaryStage(name); got != want {
			t.Errorf("isBinaryStage(%q): got %v, want %v", name, got, want)
		}
	}
}

func TestVerifyDir(t *testing.T) {
	goldenDir, candidateDir := t.TempDir(), t.TempDir()
	writePPM(t, filepath.Join(goldenDir, "img_expected_canny.ppm"), levels(0, 255, 255, 0))
	writePPM(t, filepath.Join(candidateDir, "img_expected_canny.ppm"), levels(0, 255, 255, 0))
	writePPM(t, filepath.Join(goldenDir, "img_expected_gaussian.ppm"), levels(10, 20, 30))
	writePPM(t, filepath.Join(candidateDir, "img_expected_gaussian.ppm"), levels(11, 20, 30))
	writePPM(t, filepath.Join(goldenDir, "img_expected_dark.ppm"), levels(1))

	tests := []struct {
		tolerance  int
		wantFailed int
	}{
		{0, 2},
		{1, 1},
	}
	for _, tt := range tests {
		s, err := NewVerifier(tt.tolerance, logger.NewNop()).VerifyDir(goldenDir, candidateDir)
		if err != nil {
			t.Fatalf("VerifyDir: %v", err)
		}
		if len(s.Results) != 3 {
			t.Fatalf("results: got %d, want 3", len(s.Results))
		}
		if got := s.Failed(); got != tt.wantFailed {
			t.Errorf("tolerance %d: got %d failures, want %d", tt.tolerance, got, tt.wantFailed)
		}
	}

	s, _ := NewVerifier(0, logger.NewNop()).VerifyDir(goldenDir, candidateDir)
	byName := make(map[string]Result)
	for _, r := range s.Results {
		byName[r.Name] = r
	}
	if r := byName["img_expected_canny.ppm"]; r.Binary == nil || r.Binary.FMeasure() != 1 {
		t.Errorf("canny binary metrics: got %+v", r.Binary)
	}
	if r := byName["img_expected_dark.ppm"]; !errors.Is(r.Err, raster.ErrInput) {
		t.Errorf("missing candidate: got %v, want ErrInput", r.Err)
	}
}

func TestVerifyDirEmpty(t *testing.T) {
	if _, err := NewVerifier(0, logger.NewNop()).VerifyDir(t.TempDir(), t.TempDir()); !errors.Is(err, raster.ErrInput) {
		t.Errorf("got %v, want ErrInput", err)
	}
}
