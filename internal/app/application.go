// Package app wires configuration, logging and the pipeline into the
// operations the command line exposes.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golden-forge/internal/config"
	"golden-forge/internal/logger"
	"golden-forge/internal/opencv/crosscheck"
	"golden-forge/internal/pipeline"
	"golden-forge/internal/verify"
)

const (
	AppName    = "golden-forge"
	AppVersion = "1.0.0"
)

type Application struct {
	cfg         config.Config
	logger      logger.Logger
	coordinator *pipeline.Coordinator
	ctx         context.Context
	cancel      context.CancelFunc
	stopSignals func()
}

// NewApplication validates cfg and builds the pipeline. The returned
// application cancels its work on SIGINT or SIGTERM; call Close when done.
func NewApplication(cfg config.Config, log logger.Logger) (*Application, error) {
	coordinator, err := pipeline.NewCoordinator(cfg, log)
	if err != nil {
		return nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(ctx)

	log.Info("Application", "starting application", logger.Fields{
		"version": AppVersion,
		"workers": cfg.Workers,
	})

	return &Application{
		cfg:         cfg,
		logger:      log,
		coordinator: coordinator,
		ctx:         ctx,
		cancel:      cancel,
		stopSignals: stop,
	}, nil
}

// Context is cancelled by a shutdown signal or Close.
func (a *Application) Context() context.Context {
	return a.ctx
}

// ResolveInputs expands directories to the images directly inside them.
// Plain file arguments are kept as given.
func ResolveInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := pipeline.ListImages(arg)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input images found")
	}
	return paths, nil
}

// Generate writes golden bitmaps for every input image.
func (a *Application) Generate(inputs []string) (*pipeline.Report, error) {
	start := time.Now()
	report, err := a.coordinator.ProcessBatch(a.ctx, inputs)
	if report != nil {
		a.logger.Info("Application", "generation finished", logger.Fields{
			"images":  len(report.Images),
			"failed":  report.Failed(),
			"outputs": report.Outputs(),
			"elapsed": time.Since(start),
		})
	}
	return report, err
}

// Verify compares the candidate directory against the golden one using
// the configured tolerance.
func (a *Application) Verify(goldenDir, candidateDir string) (*verify.Summary, error) {
	return verify.NewVerifier(a.cfg.Verify.Tolerance, a.logger).VerifyDir(goldenDir, candidateDir)
}

// Crosscheck runs the OpenCV comparison on the canonical form of each
// input and logs the differences.
func (a *Application) Crosscheck(inputs []string) (map[string][]crosscheck.Check, error) {
	results := make(map[string][]crosscheck.Check, len(inputs))
	for _, path := range inputs {
		if err := a.ctx.Err(); err != nil {
			return results, err
		}
		in, err := a.coordinator.PrepareFile(a.ctx, path)
		if err != nil {
			return results, err
		}
		checks, err := crosscheck.Run(in.Normalized, a.cfg.Gaussian.Sigma)
		if err != nil {
			return results, fmt.Errorf("%s: %w", path, err)
		}
		for _, c := range checks {
			a.logger.Info("Crosscheck", "compared with OpenCV", logger.Fields{
				"image":    path,
				"check":    c.Name,
				"max_diff": c.MaxDiff,
			})
		}
		results[path] = checks
	}
	return results, nil
}

func (a *Application) Close() {
	a.cancel()
	a.stopSignals()
	a.logger.Debug("Application", "shutdown completed", nil)
}
