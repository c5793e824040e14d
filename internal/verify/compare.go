// Package verify checks bitmaps produced by an implementation under test
// against golden bitmaps of the same name.
package verify

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"golden-forge/internal/logger"
	"golden-forge/internal/raster"
)

// binaryStages name the outputs that only ever hold 0 and 255.
var binaryStages = []string{"canny", "harris", "threshold_"}

// Result describes one golden/candidate pair.
type Result struct {
	Name    string
	Exact   bool
	MaxDiff int
	PSNR    float64
	Binary  *BinaryMetrics
	Pass    bool
	Err     error
}

// Compare measures how far candidate is from golden. Both must have the
// same size and channel count.
func Compare(golden, candidate *raster.Gray8) (Result, error) {
	if golden.Width != candidate.Width || golden.Height != candidate.Height || golden.Channels != candidate.Channels {
		return Result{}, fmt.Errorf("%w: shape mismatch %dx%dx%d vs %dx%dx%d", raster.ErrInput,
			golden.Width, golden.Height, golden.Channels, candidate.Width, candidate.Height, candidate.Channels)
	}
	want := make([]float64, len(golden.Pix))
	got := make([]float64, len(candidate.Pix))
	maxDiff := 0
	for i := range golden.Pix {
		want[i] = float64(golden.Pix[i])
		got[i] = float64(candidate.Pix[i])
		d := int(golden.Pix[i]) - int(candidate.Pix[i])
		if d < 0 {
			d = -d
		}
		maxDiff = max(maxDiff, d)
	}
	return Result{Exact: maxDiff == 0, MaxDiff: maxDiff, PSNR: PSNR(want, got)}, nil
}

// PSNR is the peak signal-to-noise ratio in dB for 8-bit samples, +Inf
// for identical inputs.
func PSNR(want, got []float64) float64 {
	d := floats.Distance(want, got, 2)
	if d == 0 {
		return math.Inf(1)
	}
	mse := d * d / float64(len(want))
	return 10 * math.Log10(255*255/mse)
}

func isBinaryStage(name string) bool {
	_, stage, ok := strings.Cut(strings.TrimSuffix(name, ".ppm"), "_expected_")
	if !ok {
		return false
	}
	for _, s := range binaryStages {
		if stage == s || (strings.HasSuffix(s, "_") && strings.HasPrefix(stage, s)) {
			return true
		}
	}
	return false
}

// Summary collects every comparison of a directory run.
type Summary struct {
	Results []Result
}

func (s *Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if !r.Pass {
			n++
		}
	}
	return n
}

type Verifier struct {
	logger    logger.Logger
	tolerance int
}

// NewVerifier accepts a candidate when no sample differs by more than
// tolerance.
func NewVerifier(tolerance int, log logger.Logger) *Verifier {
	return &Verifier{logger: log, tolerance: tolerance}
}

// VerifyDir compares every .ppm in goldenDir with the file of the same
// name in candidateDir. Missing or unreadable candidates fail.
func (v *Verifier) VerifyDir(goldenDir, candidateDir string) (*Summary, error) {
	names, err := filepath.Glob(filepath.Join(goldenDir, "*.ppm"))
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no golden bitmaps in %s", raster.ErrInput, goldenDir)
	}
	sort.Strings(names)

	summary := &Summary{}
	for _, goldenPath := range names {
		name := filepath.Base(goldenPath)
		r := v.verifyFile(goldenPath, filepath.Join(candidateDir, name))
		r.Name = name
		if r.Err != nil {
			v.logger.Error("Verifier", r.Err, logger.Fields{"file": name})
		} else if !r.Pass {
			v.logger.Warning("Verifier", "candidate differs", logger.Fields{
				"file":     name,
				"max_diff": r.MaxDiff,
				"psnr":     r.PSNR,
			})
		} else {
			v.logger.Debug("Verifier", "candidate matches", logger.Fields{"file": name, "exact": r.Exact})
		}
		summary.Results = append(summary.Results, r)
	}

	v.logger.Info("Verifier", "verification completed", logger.Fields{
		"files":     len(summary.Results),
		"failed":    summary.Failed(),
		"tolerance": v.tolerance,
	})
	return summary, nil
}

func (v *Verifier) verifyFile(goldenPath, candidatePath string) Result {
	golden, err := readPPM(goldenPath)
	if err != nil {
		return Result{Err: err}
	}
	candidate, err := readPPM(candidatePath)
	if err != nil {
		return Result{Err: err}
	}
	r, err := Compare(golden, candidate)
	if err != nil {
		return Result{Err: err}
	}
	if isBinaryStage(filepath.Base(goldenPath)) {
		r.Binary, _ = CompareBinary(golden, candidate)
	}
	r.Pass = r.MaxDiff <= v.tolerance
	return r
}

func readPPM(path string) (*raster.Gray8, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", raster.ErrInput, err)
	}
	defer f.Close()
	g, err := raster.DecodePPM(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
