package features

import (
	"fmt"
	"math"
	"sort"

	"golden-forge/internal/filters"
	"golden-forge/internal/raster"
)

// Blob is the centre and characteristic radius of a detected blob.
type Blob struct {
	Row    float64
	Col    float64
	Radius float64
}

type LoGParams struct {
	MinSigma  float64
	MaxSigma  float64
	NumSigma  int
	Threshold float64
	// Overlap is the fraction of the smaller blob's area that another blob
	// may cover before the smaller one is dropped.
	Overlap float64
	// LogScale spaces the sigmas evenly in log space instead of linearly.
	LogScale bool
}

type DoGParams struct {
	MinSigma   float64
	MaxSigma   float64
	SigmaRatio float64
	Threshold  float64
	Overlap    float64
}

func DefaultLoGParams() LoGParams {
	return LoGParams{MinSigma: 1, MaxSigma: 10, NumSigma: 3, Threshold: 0.01, Overlap: 0.5, LogScale: true}
}

func DefaultDoGParams() DoGParams {
	return DoGParams{MinSigma: 1, MaxSigma: 10, SigmaRatio: 1.6, Threshold: 0.01, Overlap: 0.5}
}

func (p LoGParams) Validate() error {
	if err := validateSigmaRange(p.MinSigma, p.MaxSigma); err != nil {
		return err
	}
	if p.NumSigma < 1 {
		return fmt.Errorf("%w: num_sigma must be at least 1, got %d", raster.ErrParameter, p.NumSigma)
	}
	return validateOverlap(p.Overlap)
}

func (p DoGParams) Validate() error {
	if err := validateSigmaRange(p.MinSigma, p.MaxSigma); err != nil {
		return err
	}
	if !(p.SigmaRatio > 1) {
		return fmt.Errorf("%w: sigma_ratio must exceed 1, got %g", raster.ErrParameter, p.SigmaRatio)
	}
	return validateOverlap(p.Overlap)
}

func validateSigmaRange(lo, hi float64) error {
	if !(lo > 0) || !(hi > 0) {
		return fmt.Errorf("%w: blob sigmas must be positive, got %g and %g", raster.ErrParameter, lo, hi)
	}
	if lo > hi {
		return fmt.Errorf("%w: min_sigma %g exceeds max_sigma %g", raster.ErrParameter, lo, hi)
	}
	return nil
}

func validateOverlap(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: overlap must be in [0,1], got %g", raster.ErrParameter, v)
	}
	return nil
}

// LoGSigmas returns the scales probed by BlobLoG.
func (p LoGParams) LoGSigmas() []float64 {
	if p.NumSigma == 1 {
		return []float64{p.MinSigma}
	}
	lo, hi := p.MinSigma, p.MaxSigma
	if p.LogScale {
		lo, hi = math.Log10(lo), math.Log10(hi)
	}
	sigmas := make([]float64, p.NumSigma)
	step := (hi - lo) / float64(p.NumSigma-1)
	for i := range sigmas {
		s := lo + float64(i)*step
		if p.LogScale {
			s = math.Pow(10, s)
		}
		sigmas[i] = s
	}
	return sigmas
}

// DoGSigmas returns min*ratio^i for i = 0..k with
// k = floor(ln(max/min)/ln(ratio) + 1).
func (p DoGParams) DoGSigmas() []float64 {
	k := int(math.Log(p.MaxSigma/p.MinSigma)/math.Log(p.SigmaRatio) + 1)
	sigmas := make([]float64, k+1)
	for i := range sigmas {
		sigmas[i] = p.MinSigma * math.Pow(p.SigmaRatio, float64(i))
	}
	return sigmas
}

// BlobLoG finds bright blobs as maxima of the scale-normalised negative
// Laplacian of Gaussian, -sigma^2 * LoG, over space and scale.
func BlobLoG(b *raster.Buffer, p LoGParams) ([]Blob, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	sigmas := p.LoGSigmas()
	cube := make([]*raster.Buffer, len(sigmas))
	for i, s := range sigmas {
		lap, err := filters.GaussianLaplace(b, s)
		if err != nil {
			return nil, err
		}
		scale := -s * s
		cube[i] = lap.Map(func(v float64) float64 { return v * scale })
	}
	return pruneBlobs(scaleSpaceMaxima(cube, sigmas, p.Threshold), p.Overlap), nil
}

// BlobDoG approximates BlobLoG by differencing Gaussian-smoothed copies
// at a geometric progression of scales.
func BlobDoG(b *raster.Buffer, p DoGParams) ([]Blob, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	sigmas := p.DoGSigmas()
	smoothed := make([]*raster.Buffer, len(sigmas))
	for i, s := range sigmas {
		g, err := filters.Gaussian(b, s)
		if err != nil {
			return nil, err
		}
		smoothed[i] = g
	}
	cube := make([]*raster.Buffer, len(sigmas)-1)
	for i := range cube {
		s := sigmas[i]
		cube[i], _ = raster.Combine(smoothed[i], smoothed[i+1], func(a, c float64) float64 {
			return (a - c) * s
		})
	}
	return pruneBlobs(scaleSpaceMaxima(cube, sigmas[:len(cube)], p.Threshold), p.Overlap), nil
}

// scaleSpaceMaxima reports every sample above threshold that is no
// smaller than any of its 26 neighbours in (scale, row, col). Neighbours
// outside the cube clamp to the edge.
func scaleSpaceMaxima(cube []*raster.Buffer, sigmas []float64, threshold float64) []Blob {
	var blobs []Blob
	last := len(cube) - 1
	for s, layer := range cube {
		for y := 0; y < layer.Height; y++ {
			for x := 0; x < layer.Width; x++ {
				v := layer.At(x, y)
				if !(v > threshold) || !isLocalMax(cube, s, x, y, v, last) {
					continue
				}
				blobs = append(blobs, Blob{
					Row:    float64(y),
					Col:    float64(x),
					Radius: sigmas[s] * math.Sqrt2,
				})
			}
		}
	}
	return blobs
}

func isLocalMax(cube []*raster.Buffer, s, x, y int, v float64, last int) bool {
	for ds := -1; ds <= 1; ds++ {
		layer := cube[min(max(s+ds, 0), last)]
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if layer.AtClamped(x+dx, y+dy) > v {
					return false
				}
			}
		}
	}
	return true
}

// pruneBlobs drops the smaller of any two blobs whose overlap exceeds the
// given fraction. Blobs are visited in (row, col, radius) order so the
// result does not depend on detection order.
func pruneBlobs(blobs []Blob, overlap float64) []Blob {
	sort.Slice(blobs, func(i, j int) bool {
		a, b := blobs[i], blobs[j]
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		return a.Radius < b.Radius
	})
	dropped := make([]bool, len(blobs))
	for i := range blobs {
		if dropped[i] {
			continue
		}
		for j := i + 1; j < len(blobs); j++ {
			if dropped[j] {
				continue
			}
			if blobOverlap(blobs[i], blobs[j]) <= overlap {
				continue
			}
			if blobs[i].Radius > blobs[j].Radius {
				dropped[j] = true
			} else if blobs[j].Radius > blobs[i].Radius {
				dropped[i] = true
				break
			} else {
				dropped[j] = true
			}
		}
	}
	kept := blobs[:0]
	for i, b := range blobs {
		if !dropped[i] {
			kept = append(kept, b)
		}
	}
	return kept
}

// blobOverlap is the area shared by two blob discs divided by the area of
// the smaller disc.
func blobOverlap(a, b Blob) float64 {
	r1, r2 := a.Radius, b.Radius
	if r1 <= 0 || r2 <= 0 {
		return 0
	}
	d := math.Hypot(a.Row-b.Row, a.Col-b.Col)
	if d >= r1+r2 {
		return 0
	}
	small := math.Min(r1, r2)
	if d <= math.Abs(r1-r2) {
		return 1
	}
	ratio1 := clampUnit((d*d + r1*r1 - r2*r2) / (2 * d * r1))
	ratio2 := clampUnit((d*d + r2*r2 - r1*r1) / (2 * d * r2))
	acos1 := math.Acos(ratio1)
	acos2 := math.Acos(ratio2)

	a1 := -d + r2 + r1
	b1 := d - r2 + r1
	c1 := d + r2 - r1
	d1 := d + r2 + r1
	area := r1*r1*acos1 + r2*r2*acos2 - 0.5*math.Sqrt(math.Abs(a1*b1*c1*d1))
	return area / (math.Pi * small * small)
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// RenderBlobs draws each blob as the single pixel at its rounded centre
// holding the blob radius; every other pixel is zero. Where two blobs
// round to the same pixel the larger radius wins.
func RenderBlobs(blobs []Blob, width, height int) *raster.Buffer {
	out := raster.New(width, height)
	for _, b := range blobs {
		x := int(math.Round(b.Col))
		y := int(math.Round(b.Row))
		if x < 0 || y < 0 || x >= width || y >= height {
			continue
		}
		if b.Radius > out.At(x, y) {
			out.Set(x, y, b.Radius)
		}
	}
	return out
}
