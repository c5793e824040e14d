// Package algorithms registers the golden-image stages and runs them in
// a fixed order over one prepared image.
package algorithms

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golden-forge/internal/config"
	"golden-forge/internal/raster"
)

// Input is what every stage consumes: the canonical, normalized
// grayscale buffer and its 8-bit quantization for the enhancer.
type Input struct {
	Normalized *raster.Buffer
	Levels     *raster.Gray8
}

// NewInput quantizes normalized for the 8-bit stages.
func NewInput(normalized *raster.Buffer) *Input {
	return &Input{Normalized: normalized, Levels: raster.Quantize(normalized)}
}

// Output is one encoded-ready result. Name is the file suffix after
// "_expected_", for example "sobel_x" or "bicubic_0.5".
type Output struct {
	Name  string
	Image *raster.Gray8
	// Degenerate is set when the stage result was uniform and normalized
	// to all zeros.
	Degenerate bool
}

type Stage interface {
	GetName() string
	Process(ctx context.Context, in *Input) ([]Output, error)
}

type Manager struct {
	stages []Stage
	byName map[string]Stage
}

// NewManager builds the reference stages from cfg, followed by whichever
// extra stages cfg enables.
func NewManager(cfg config.Config) *Manager {
	m := &Manager{byName: make(map[string]Stage)}
	m.register(newBlobLoGStage(cfg.LoGParams()))
	m.register(newBlobDoGStage(cfg.DoGParams()))
	m.register(newCannyStage(cfg.CannyParams()))
	m.register(newGaussianStage(cfg.Gaussian.Sigma))
	m.register(newGradientStage())
	m.register(newHarrisStage(cfg.HarrisParams()))
	m.register(newResizeStage(cfg.Resize.Scales))
	m.register(newEnhanceStage(cfg.Enhance))

	if cfg.HasExtra(config.StageEqualized) {
		m.register(newEqualizeStage())
	}
	if cfg.HasExtra(config.StageThreshold) {
		m.register(newThresholdStage(cfg.Extras.Thresholds))
	}
	if cfg.HasExtra(config.StageRotate) {
		m.register(newRotateStage(cfg.Extras.Rotations))
	}
	if cfg.HasExtra(config.StageResized) {
		m.register(newResizedStage())
	}
	return m
}

func (m *Manager) register(s Stage) {
	m.stages = append(m.stages, s)
	m.byName[s.GetName()] = s
}

func (m *Manager) GetStage(name string) (Stage, error) {
	if s, exists := m.byName[name]; exists {
		return s, nil
	}
	return nil, fmt.Errorf("unknown stage: %s", name)
}

// GetAvailableStages lists stage names in run order.
func (m *Manager) GetAvailableStages() []string {
	names := make([]string, len(m.stages))
	for i, s := range m.stages {
		names[i] = s.GetName()
	}
	return names
}

// Run processes in through every stage in order and hands each output to
// emit. It stops at the first stage or emit error.
func (m *Manager) Run(ctx context.Context, in *Input, emit func(Output) error) error {
	for _, s := range m.stages {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		outputs, err := s.Process(ctx, in)
		if err != nil {
			return fmt.Errorf("stage %s: %w", s.GetName(), err)
		}
		for _, out := range outputs {
			if err := emit(out); err != nil {
				return fmt.Errorf("stage %s output %s: %w", s.GetName(), out.Name, err)
			}
		}
	}
	return nil
}

// FormatParam renders a numeric name suffix the way the reference files
// spell it: shortest decimal form, always with a fractional part.
func FormatParam(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FileName is the conventional output name for one stage result.
func FileName(base, output string) string {
	return base + "_expected_" + output + ".ppm"
}
