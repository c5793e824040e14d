package algorithms

import (
	"context"

	"golden-forge/internal/config"
	"golden-forge/internal/enhance"
	"golden-forge/internal/features"
	"golden-forge/internal/filters"
	"golden-forge/internal/raster"
	"golden-forge/internal/resize"
	"golden-forge/internal/transform"
)

// display normalizes a float result for encoding and flags uniform ones.
func display(name string, b *raster.Buffer) Output {
	return Output{Name: name, Image: raster.Display(b), Degenerate: raster.IsDegenerate(b)}
}

// sparseOutput keeps only the pixels holding the largest value.
func sparseOutput(name string, b *raster.Buffer) Output {
	return Output{Name: name, Image: raster.DisplayLevels(b), Degenerate: raster.IsDegenerate(b)}
}

func maskOutput(name string, m *raster.Mask) Output {
	return Output{Name: name, Image: m.Gray8()}
}

type blobLoGStage struct {
	name   string
	params features.LoGParams
}

func newBlobLoGStage(p features.LoGParams) *blobLoGStage {
	return &blobLoGStage{name: "blob_log", params: p}
}

func (s *blobLoGStage) GetName() string { return s.name }

func (s *blobLoGStage) Process(_ context.Context, in *Input) ([]Output, error) {
	blobs, err := features.BlobLoG(in.Normalized, s.params)
	if err != nil {
		return nil, err
	}
	rendered := features.RenderBlobs(blobs, in.Normalized.Width, in.Normalized.Height)
	return []Output{sparseOutput(s.name, rendered)}, nil
}

type blobDoGStage struct {
	name   string
	params features.DoGParams
}

func newBlobDoGStage(p features.DoGParams) *blobDoGStage {
	return &blobDoGStage{name: "blob_dog", params: p}
}

func (s *blobDoGStage) GetName() string { return s.name }

func (s *blobDoGStage) Process(_ context.Context, in *Input) ([]Output, error) {
	blobs, err := features.BlobDoG(in.Normalized, s.params)
	if err != nil {
		return nil, err
	}
	rendered := features.RenderBlobs(blobs, in.Normalized.Width, in.Normalized.Height)
	return []Output{sparseOutput(s.name, rendered)}, nil
}

type cannyStage struct {
	name   string
	params features.CannyParams
}

func newCannyStage(p features.CannyParams) *cannyStage {
	return &cannyStage{name: "canny", params: p}
}

func (s *cannyStage) GetName() string { return s.name }

func (s *cannyStage) Process(_ context.Context, in *Input) ([]Output, error) {
	edges, err := features.Canny(in.Normalized, s.params)
	if err != nil {
		return nil, err
	}
	return []Output{maskOutput(s.name, edges)}, nil
}

type gaussianStage struct {
	name  string
	sigma float64
}

func newGaussianStage(sigma float64) *gaussianStage {
	return &gaussianStage{name: "gaussian", sigma: sigma}
}

func (s *gaussianStage) GetName() string { return s.name }

func (s *gaussianStage) Process(_ context.Context, in *Input) ([]Output, error) {
	smoothed, err := filters.Gaussian(in.Normalized, s.sigma)
	if err != nil {
		return nil, err
	}
	return []Output{display(s.name, smoothed)}, nil
}

// gradientStage emits both Sobel components, the magnitude and the
// direction, each min/max normalized on its own.
type gradientStage struct {
	name string
}

func newGradientStage() *gradientStage {
	return &gradientStage{name: "sobel"}
}

func (s *gradientStage) GetName() string { return s.name }

func (s *gradientStage) Process(_ context.Context, in *Input) ([]Output, error) {
	g := filters.Sobel(in.Normalized)
	return []Output{
		display("sobel_x", g.X),
		display("sobel_y", g.Y),
		display("grad_magnitude", g.Magnitude()),
		display("grad_direction", g.Direction()),
	}, nil
}

type harrisStage struct {
	name   string
	params features.HarrisParams
}

func newHarrisStage(p features.HarrisParams) *harrisStage {
	return &harrisStage{name: "harris", params: p}
}

func (s *harrisStage) GetName() string { return s.name }

func (s *harrisStage) Process(_ context.Context, in *Input) ([]Output, error) {
	corners, err := features.Harris(in.Normalized, s.params)
	if err != nil {
		return nil, err
	}
	return []Output{maskOutput(s.name, corners)}, nil
}

type resizeStage struct {
	name   string
	scales []float64
}

func newResizeStage(scales []float64) *resizeStage {
	return &resizeStage{name: "resize", scales: scales}
}

func (s *resizeStage) GetName() string { return s.name }

func (s *resizeStage) Process(ctx context.Context, in *Input) ([]Output, error) {
	var outputs []Output
	for _, m := range resize.Methods() {
		for _, scale := range s.scales {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			zoomed, err := resize.Zoom(in.Normalized, scale, m)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, display(m.String()+"_"+FormatParam(scale), zoomed))
		}
	}
	return outputs, nil
}

type enhanceStage struct {
	name    string
	factors config.Enhance
}

func newEnhanceStage(f config.Enhance) *enhanceStage {
	return &enhanceStage{name: "enhance", factors: f}
}

func (s *enhanceStage) GetName() string { return s.name }

func (s *enhanceStage) Process(_ context.Context, in *Input) ([]Output, error) {
	steps := []struct {
		name   string
		factor float64
		apply  func(*raster.Gray8, float64) (*raster.Gray8, error)
	}{
		{"dark", s.factors.Dark, enhance.Brightness},
		{"bright", s.factors.Bright, enhance.Brightness},
		{"strong_contrast", s.factors.StrongContrast, enhance.Contrast},
		{"weak_contrast", s.factors.WeakContrast, enhance.Contrast},
	}
	outputs := make([]Output, 0, len(steps))
	for _, st := range steps {
		img, err := st.apply(in.Levels, st.factor)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, Output{Name: st.name, Image: img})
	}
	return outputs, nil
}

type equalizeStage struct {
	name string
}

func newEqualizeStage() *equalizeStage {
	return &equalizeStage{name: config.StageEqualized}
}

func (s *equalizeStage) GetName() string { return s.name }

func (s *equalizeStage) Process(_ context.Context, in *Input) ([]Output, error) {
	return []Output{{Name: s.name, Image: enhance.Equalize(in.Levels)}}, nil
}

type thresholdStage struct {
	name       string
	thresholds []float64
}

func newThresholdStage(thresholds []float64) *thresholdStage {
	return &thresholdStage{name: config.StageThreshold, thresholds: thresholds}
}

func (s *thresholdStage) GetName() string { return s.name }

func (s *thresholdStage) Process(_ context.Context, in *Input) ([]Output, error) {
	outputs := make([]Output, 0, len(s.thresholds))
	for _, t := range s.thresholds {
		m := enhance.Threshold(in.Normalized, t)
		outputs = append(outputs, maskOutput(s.name+"_"+FormatParam(t), m))
	}
	return outputs, nil
}

type rotateStage struct {
	name    string
	degrees []float64
}

func newRotateStage(degrees []float64) *rotateStage {
	return &rotateStage{name: config.StageRotate, degrees: degrees}
}

func (s *rotateStage) GetName() string { return s.name }

func (s *rotateStage) Process(ctx context.Context, in *Input) ([]Output, error) {
	outputs := make([]Output, 0, len(s.degrees))
	for _, deg := range s.degrees {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rotated, err := transform.Rotate(in.Normalized, deg, resize.Bilinear)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, display(s.name+"_"+FormatParam(deg), rotated))
	}
	return outputs, nil
}

// resizedStage writes the canonical working image itself.
type resizedStage struct {
	name string
}

func newResizedStage() *resizedStage {
	return &resizedStage{name: config.StageResized}
}

func (s *resizedStage) GetName() string { return s.name }

func (s *resizedStage) Process(_ context.Context, in *Input) ([]Output, error) {
	return []Output{{Name: s.name, Image: in.Levels.Clone(), Degenerate: raster.IsDegenerate(in.Normalized)}}, nil
}
