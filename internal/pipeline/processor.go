package pipeline

import (
	"context"
	"errors"
	"fmt"

	"golden-forge/internal/algorithms"
	"golden-forge/internal/logger"
	"golden-forge/internal/raster"
	"golden-forge/internal/resize"
)

type imageProcessor struct {
	logger           logger.Logger
	algorithmManager *algorithms.Manager
	width            int
	height           int
}

// Prepare resizes the decoded gray buffer to the canonical working size
// and normalizes it. A uniform image still yields an all-zero input, but
// the condition is logged.
func (p *imageProcessor) Prepare(ctx context.Context, inputData *ImageData) (*algorithms.Input, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	canonical, err := resize.Canonical(inputData.Gray, p.width, p.height)
	if err != nil {
		return nil, fmt.Errorf("canonical resize failed: %w", err)
	}

	normalized, err := raster.NormalizeStrict(canonical)
	if errors.Is(err, raster.ErrDegenerate) {
		p.logger.Warning("ImageProcessor", "uniform input normalized to zeros", logger.Fields{
			"image": baseName(inputData),
		})
	}

	return algorithms.NewInput(normalized), nil
}

// ProcessImageWithContext runs every registered stage over inputData and
// passes each result to emit.
func (p *imageProcessor) ProcessImageWithContext(ctx context.Context, inputData *ImageData, emit func(algorithms.Output) error) error {
	in, err := p.Prepare(ctx, inputData)
	if err != nil {
		return err
	}

	err = p.algorithmManager.Run(ctx, in, func(out algorithms.Output) error {
		if out.Degenerate {
			p.logger.Warning("ImageProcessor", "uniform stage result normalized to zeros", logger.Fields{
				"image": baseName(inputData),
				"stage": out.Name,
			})
		}
		return emit(out)
	})
	if err != nil {
		return fmt.Errorf("stage processing failed: %w", err)
	}

	p.logger.Debug("ImageProcessor", "processing completed", logger.Fields{
		"image":      baseName(inputData),
		"input_size": fmt.Sprintf("%dx%d", inputData.Width, inputData.Height),
		"work_size":  fmt.Sprintf("%dx%d", p.width, p.height),
	})
	return nil
}
