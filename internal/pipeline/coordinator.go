// Package pipeline turns input image files into golden bitmaps: it
// decodes, prepares the canonical working image, runs every stage and
// writes each result under the conventional file name.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"golang.org/x/sync/errgroup"

	"golden-forge/internal/algorithms"
	"golden-forge/internal/config"
	"golden-forge/internal/logger"
	"golden-forge/internal/raster"
)

type ImageLoader interface {
	LoadFromReader(reader fyne.URIReadCloser) (*ImageData, error)
	LoadFromBytes(data []byte, format string) (*ImageData, error)
}

type ImageSaver interface {
	SaveToWriter(writer io.Writer, g *raster.Gray8) error
	SaveToPath(path string, g *raster.Gray8) error
}

type ImageProcessor interface {
	Prepare(ctx context.Context, inputData *ImageData) (*algorithms.Input, error)
	ProcessImageWithContext(ctx context.Context, inputData *ImageData, emit func(algorithms.Output) error) error
}

type ImageData struct {
	Image       image.Image
	Gray        *raster.Buffer
	Width       int
	Height      int
	Channels    int
	Format      string
	Decoder     string
	OriginalURI fyne.URI
}

func baseName(d *ImageData) string {
	if d == nil || d.OriginalURI == nil {
		return ""
	}
	name := d.OriginalURI.Name()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// ImageReport is the outcome for one input file.
type ImageReport struct {
	Input      string
	Outputs    []string
	Degenerate []string
	Elapsed    time.Duration
	Err        error
}

// Report collects per-image outcomes of a batch in input order.
type Report struct {
	Images []ImageReport
}

func (r *Report) Failed() int {
	n := 0
	for _, img := range r.Images {
		if img.Err != nil {
			n++
		}
	}
	return n
}

func (r *Report) Outputs() int {
	n := 0
	for _, img := range r.Images {
		n += len(img.Outputs)
	}
	return n
}

type Coordinator struct {
	logger           logger.Logger
	algorithmManager *algorithms.Manager
	loader           ImageLoader
	processor        ImageProcessor
	saver            ImageSaver
	outputDir        string
	workers          int
}

// NewCoordinator validates cfg and wires the loader, processor and saver.
func NewCoordinator(cfg config.Config, log logger.Logger) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	algMgr := algorithms.NewManager(cfg)

	coord := &Coordinator{
		logger:           log,
		algorithmManager: algMgr,
		outputDir:        cfg.OutputDir,
		workers:          cfg.Workers,
	}
	coord.loader = &imageLoader{logger: log}
	coord.processor = &imageProcessor{
		logger:           log,
		algorithmManager: algMgr,
		width:            cfg.Canonical.Width,
		height:           cfg.Canonical.Height,
	}
	coord.saver = &imageSaver{logger: log}

	log.Info("PipelineCoordinator", "initialized", logger.Fields{
		"stages":     strings.Join(algMgr.GetAvailableStages(), ","),
		"output_dir": cfg.OutputDir,
		"workers":    cfg.Workers,
	})
	return coord, nil
}

// LoadImage decodes one file.
func (c *Coordinator) LoadImage(path string) (*ImageData, error) {
	start := time.Now()
	reader, err := OpenFile(path)
	if err != nil {
		c.logger.Error("PipelineCoordinator", err, logger.Fields{
			"operation": "load_image",
			"path":      path,
		})
		return nil, err
	}
	defer reader.Close()

	imageData, err := c.loader.LoadFromReader(reader)
	if err != nil {
		c.logger.Error("PipelineCoordinator", err, logger.Fields{
			"operation": "load_image",
			"path":      path,
		})
		return nil, err
	}

	c.logger.Debug("PipelineCoordinator", "image loaded", logger.Fields{
		"path":      path,
		"load_time": time.Since(start),
	})
	return imageData, nil
}

// ProcessFile generates every golden output for one input file. Outputs
// already written stay in place if a later stage fails.
func (c *Coordinator) ProcessFile(ctx context.Context, path string) ImageReport {
	start := time.Now()
	report := ImageReport{Input: path}

	imageData, err := c.LoadImage(path)
	if err != nil {
		report.Err = err
		return report
	}
	base := baseName(imageData)

	var mu sync.Mutex
	err = c.processor.ProcessImageWithContext(ctx, imageData, func(out algorithms.Output) error {
		target := filepath.Join(c.outputDir, algorithms.FileName(base, out.Name))
		if err := c.saver.SaveToPath(target, out.Image); err != nil {
			return err
		}
		mu.Lock()
		report.Outputs = append(report.Outputs, target)
		if out.Degenerate {
			report.Degenerate = append(report.Degenerate, out.Name)
		}
		mu.Unlock()
		return nil
	})
	report.Elapsed = time.Since(start)
	if err != nil {
		report.Err = fmt.Errorf("%s: %w", path, err)
		c.logger.Error("PipelineCoordinator", report.Err, logger.Fields{
			"operation": "process_image",
			"image":     base,
		})
		return report
	}

	c.logger.Info("PipelineCoordinator", "image processed", logger.Fields{
		"image":           base,
		"outputs":         len(report.Outputs),
		"processing_time": report.Elapsed,
	})
	return report
}

// ProcessBatch runs ProcessFile over paths with at most the configured
// number of images in flight. A failing image does not stop the others;
// cancelling ctx does, and unstarted images report the context error.
func (c *Coordinator) ProcessBatch(ctx context.Context, paths []string) (*Report, error) {
	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating output directory: %v", raster.ErrEncoding, err)
	}

	report := &Report{Images: make([]ImageReport, len(paths))}
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				report.Images[i] = ImageReport{Input: path, Err: err}
				return nil
			}
			report.Images[i] = c.ProcessFile(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	c.logger.Info("PipelineCoordinator", "batch completed", logger.Fields{
		"images":     len(paths),
		"failed":     report.Failed(),
		"outputs":    report.Outputs(),
		"batch_time": time.Since(start),
	})
	return report, ctx.Err()
}

// PrepareFile decodes path and returns the canonical normalized input the
// stages would see, without running them.
func (c *Coordinator) PrepareFile(ctx context.Context, path string) (*algorithms.Input, error) {
	imageData, err := c.LoadImage(path)
	if err != nil {
		return nil, err
	}
	return c.processor.Prepare(ctx, imageData)
}
