package verify

import (
	"fmt"

	"golden-forge/internal/raster"
)

// BinaryMetrics is the confusion matrix of a candidate mask against a
// golden one. A sample counts as foreground when its first channel is
// non-zero.
type BinaryMetrics struct {
	TruePositives  int
	TrueNegatives  int
	FalsePositives int
	FalseNegatives int
	TotalPixels    int
}

// CompareBinary counts agreement between two same-sized masks.
func CompareBinary(golden, candidate *raster.Gray8) (*BinaryMetrics, error) {
	if golden.Width != candidate.Width || golden.Height != candidate.Height {
		return nil, fmt.Errorf("%w: dimension mismatch %dx%d vs %dx%d", raster.ErrInput,
			golden.Width, golden.Height, candidate.Width, candidate.Height)
	}
	m := &BinaryMetrics{TotalPixels: golden.Width * golden.Height}
	for y := 0; y < golden.Height; y++ {
		for x := 0; x < golden.Width; x++ {
			want := golden.At(x, y) != 0
			got := candidate.At(x, y) != 0
			switch {
			case want && got:
				m.TruePositives++
			case want:
				m.FalseNegatives++
			case got:
				m.FalsePositives++
			default:
				m.TrueNegatives++
			}
		}
	}
	return m, nil
}

func (m *BinaryMetrics) Precision() float64 {
	if m.TruePositives+m.FalsePositives == 0 {
		return 0.0
	}
	return float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
}

func (m *BinaryMetrics) Recall() float64 {
	if m.TruePositives+m.FalseNegatives == 0 {
		return 0.0
	}
	return float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
}

func (m *BinaryMetrics) FMeasure() float64 {
	precision := m.Precision()
	recall := m.Recall()
	if precision+recall == 0 {
		return 0.0
	}
	return 2.0 * (precision * recall) / (precision + recall)
}

// PseudoFMeasure weights precision with beta = 0.5.
func (m *BinaryMetrics) PseudoFMeasure() float64 {
	precision := m.Precision()
	recall := m.Recall()
	betaSq := 0.25
	if betaSq*precision+recall == 0 {
		return 0.0
	}
	return (1.0 + betaSq) * (precision * recall) / (betaSq*precision + recall)
}

// NRM is the negative rate metric, the mean of the false negative and
// false positive rates. 0 is a perfect match.
func (m *BinaryMetrics) NRM() float64 {
	var fnr, fpr float64
	if p := m.FalseNegatives + m.TruePositives; p > 0 {
		fnr = float64(m.FalseNegatives) / float64(p)
	}
	if n := m.FalsePositives + m.TrueNegatives; n > 0 {
		fpr = float64(m.FalsePositives) / float64(n)
	}
	return (fnr + fpr) / 2
}
