package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"golden-forge/internal/config"
	"golden-forge/internal/logger"
	"golden-forge/internal/raster"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func colourImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 8), B: uint8((x + y) * 2), A: 255})
		}
	}
	return img
}

func testCoordinator(t *testing.T, mutate func(*config.Config)) (*Coordinator, string) {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = filepath.Join(t.TempDir(), "golden")
	cfg.Workers = 2
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := NewCoordinator(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	return c, cfg.OutputDir
}

func TestProcessBatch(t *testing.T) {
	in := t.TempDir()
	writePNG(t, filepath.Join(in, "colour.png"), colourImage(40, 30))
	gray := image.NewGray(image.Rect(0, 0, 20, 20))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i)
	}
	writePNG(t, filepath.Join(in, "gray.png"), gray)
	if err := os.WriteFile(filepath.Join(in, "broken.png"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	paths, err := ListImages(in)
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("ListImages: got %d paths, want 3", len(paths))
	}

	c, out := testCoordinator(t, nil)
	report, err := c.ProcessBatch(context.Background(), paths)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if got := report.Failed(); got != 1 {
		t.Fatalf("failed images: got %d, want 1", got)
	}
	broken := report.Images[0]
	if filepath.Base(broken.Input) != "broken.png" || !errors.Is(broken.Err, raster.ErrInput) {
		t.Errorf("broken image: got %+v, want ErrInput", broken)
	}
	for _, img := range report.Images[1:] {
		if img.Err != nil {
			t.Errorf("%s: %v", img.Input, img.Err)
		}
		if len(img.Outputs) != 19 {
			t.Errorf("%s: got %d outputs, want 19", img.Input, len(img.Outputs))
		}
	}

	f, err := os.Open(filepath.Join(out, "colour_expected_gaussian.ppm"))
	if err != nil {
		t.Fatalf("open gaussian output: %v", err)
	}
	defer f.Close()
	g, err := raster.DecodePPM(f)
	if err != nil {
		t.Fatalf("DecodePPM: %v", err)
	}
	if g.Width != 256 || g.Height != 128 {
		t.Errorf("gaussian size: got %dx%d, want 256x128", g.Width, g.Height)
	}
	if _, err := os.Stat(filepath.Join(out, "gray_expected_bicubic_2.0.ppm")); err != nil {
		t.Errorf("bicubic output missing: %v", err)
	}

	leftovers, _ := filepath.Glob(filepath.Join(out, ".*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestProcessFileUniformImage(t *testing.T) {
	in := t.TempDir()
	flat := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range flat.Pix {
		flat.Pix[i] = 128
	}
	path := filepath.Join(in, "flat.png")
	writePNG(t, path, flat)

	c, out := testCoordinator(t, nil)
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}
	report := c.ProcessFile(context.Background(), path)
	if report.Err != nil {
		t.Fatalf("ProcessFile: %v", report.Err)
	}
	if len(report.Degenerate) == 0 {
		t.Error("uniform image produced no degenerate outputs")
	}
}

func TestProcessBatchCancelled(t *testing.T) {
	in := t.TempDir()
	path := filepath.Join(in, "colour.png")
	writePNG(t, path, colourImage(8, 8))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, _ := testCoordinator(t, nil)
	report, err := c.ProcessBatch(ctx, []string{path, path})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if report.Failed() != 2 {
		t.Errorf("failed: got %d, want 2", report.Failed())
	}
}

func TestNewCoordinatorRejectsConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Gaussian.Sigma = -1
	if _, err := NewCoordinator(cfg, logger.NewNop()); !errors.Is(err, raster.ErrParameter) {
		t.Errorf("got %v, want ErrParameter", err)
	}
}

func TestToGray(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.Pix[0], gray.Pix[1] = 0, 255
	b, ch := toGray(gray)
	if ch != 1 || b.At(0, 0) != 0 || b.At(1, 0) != 1 {
		t.Errorf("gray: got %v with %d channels", b.Pix, ch)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, 3, 1))
	rgba.Set(0, 0, color.RGBA{R: 255, A: 255})
	rgba.Set(1, 0, color.RGBA{G: 255, A: 255})
	rgba.Set(2, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	b, ch = toGray(rgba)
	if ch != 3 {
		t.Errorf("channels: got %d, want 3", ch)
	}
	want := []float64{lumaR, lumaG, lumaR + lumaG + lumaB}
	for i, w := range want {
		if math.Abs(b.Pix[i]-w) > 1e-12 {
			t.Errorf("sample %d: got %v, want %v", i, b.Pix[i], w)
		}
	}
}

func TestToGrayCompositesAlphaOverWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(0, 0, color.NRGBA{})
	img.SetNRGBA(1, 0, color.NRGBA{R: 255, A: 128})
	img.SetNRGBA(2, 0, color.NRGBA{G: 255, A: 255})

	b, _ := toGray(img)

	bg := 1 - 128.0/255
	want := []float64{
		lumaR + lumaG + lumaB,
		lumaR*(128.0/255+bg) + lumaG*bg + lumaB*bg,
		lumaG,
	}
	for i, w := range want {
		if math.Abs(b.Pix[i]-w) > 1e-12 {
			t.Errorf("sample %d: got %v, want %v", i, b.Pix[i], w)
		}
	}
}

func TestToGrayOffsetBounds(t *testing.T) {
	img := image.NewGray(image.Rect(5, 5, 7, 6))
	img.SetGray(6, 5, color.Gray{Y: 255})
	b, _ := toGray(img)
	if b.Width != 2 || b.Height != 1 || b.At(1, 0) != 1 {
		t.Errorf("got %dx%d %v", b.Width, b.Height, b.Pix)
	}
}

func TestAtomicWriter(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.ppm")

	w, err := CreateAtomic(target)
	if err != nil {
		t.Fatalf("CreateAtomic: %v", err)
	}
	if _, err := w.Write([]byte("partial")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Errorf("target visible before Close: %v", err)
	}
	w.Abort()
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Abort left %d files", len(entries))
	}

	w, err = CreateAtomic(target)
	if err != nil {
		t.Fatalf("CreateAtomic: %v", err)
	}
	w.Write([]byte("done"))
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil || string(data) != "done" {
		t.Errorf("target: got %q, %v", data, err)
	}
	if got := w.URI().Name(); got != "out.ppm" {
		t.Errorf("URI name: got %q", got)
	}
}

func TestOpenFileMissing(t *testing.T) {
	if _, err := OpenFile(filepath.Join(t.TempDir(), "nope.png")); !errors.Is(err, raster.ErrInput) {
		t.Errorf("got %v, want ErrInput", err)
	}
}

func TestLoadImageLogsMissingFile(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDir = filepath.Join(t.TempDir(), "golden")
	var buf bytes.Buffer
	c, err := NewCoordinator(cfg, logger.NewZerolog(&buf, zerolog.DebugLevel))
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	path := filepath.Join(t.TempDir(), "gone.png")
	if _, err := c.LoadImage(path); !errors.Is(err, raster.ErrInput) {
		t.Fatalf("LoadImage: got %v, want ErrInput", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"operation":"load_image"`) || !strings.Contains(out, "gone.png") {
		t.Errorf("log output missing load failure: %s", out)
	}
}

func TestPrepareFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colour.png")
	writePNG(t, path, colourImage(40, 30))
	c, _ := testCoordinator(t, func(cfg *config.Config) {
		cfg.Canonical = config.Size{Width: 32, Height: 16}
	})
	in, err := c.PrepareFile(context.Background(), path)
	if err != nil {
		t.Fatalf("PrepareFile: %v", err)
	}
	if in.Normalized.Width != 32 || in.Normalized.Height != 16 {
		t.Errorf("size: got %dx%d, want 32x16", in.Normalized.Width, in.Normalized.Height)
	}
	lo, hi := raster.MinMax(in.Normalized)
	if lo != 0 || hi != 1 {
		t.Errorf("range: got [%v,%v], want [0,1]", lo, hi)
	}
}
