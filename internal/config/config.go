// Package config carries every tunable of a generation run. Defaults
// reproduce the fixed reference parameters; a TOML file may override any
// subset of them.
package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"golden-forge/internal/features"
	"golden-forge/internal/raster"
)

// maxThreshold bounds every detector threshold.
const maxThreshold = 1e6

// Extra stage names accepted in Stages.
const (
	StageEqualized = "equalized"
	StageThreshold = "threshold"
	StageRotate    = "rotate"
	StageResized   = "resized"
)

type Config struct {
	OutputDir string `toml:"output_dir"`
	Workers   int    `toml:"workers"`
	LogLevel  string `toml:"log_level"`

	Canonical Size    `toml:"canonical"`
	Gaussian  Sigma   `toml:"gaussian"`
	Canny     Canny   `toml:"canny"`
	Harris    Harris  `toml:"harris"`
	LoG       LoG     `toml:"blob_log"`
	DoG       DoG     `toml:"blob_dog"`
	Resize    Resize  `toml:"resize"`
	Enhance   Enhance `toml:"enhance"`
	Extras    Extras  `toml:"extras"`
	Verify    Verify  `toml:"verify"`
}

type Size struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

type Sigma struct {
	Sigma float64 `toml:"sigma"`
}

type Canny struct {
	Sigma float64 `toml:"sigma"`
	Low   float64 `toml:"low"`
	High  float64 `toml:"high"`
}

type Harris struct {
	Sigma     float64 `toml:"sigma"`
	K         float64 `toml:"k"`
	Threshold float64 `toml:"threshold"`
}

type LoG struct {
	MinSigma  float64 `toml:"min_sigma"`
	MaxSigma  float64 `toml:"max_sigma"`
	NumSigma  int     `toml:"num_sigma"`
	Threshold float64 `toml:"threshold"`
	Overlap   float64 `toml:"overlap"`
	LogScale  bool    `toml:"log_scale"`
}

type DoG struct {
	MinSigma   float64 `toml:"min_sigma"`
	MaxSigma   float64 `toml:"max_sigma"`
	SigmaRatio float64 `toml:"sigma_ratio"`
	Threshold  float64 `toml:"threshold"`
	Overlap    float64 `toml:"overlap"`
}

type Resize struct {
	Scales []float64 `toml:"scales"`
}

type Enhance struct {
	Dark           float64 `toml:"dark"`
	Bright         float64 `toml:"bright"`
	StrongContrast float64 `toml:"strong_contrast"`
	WeakContrast   float64 `toml:"weak_contrast"`
}

// Extras switches on the stages that are not part of the reference set.
type Extras struct {
	Stages     []string  `toml:"stages"`
	Thresholds []float64 `toml:"thresholds"`
	Rotations  []float64 `toml:"rotations"`
}

type Verify struct {
	// Tolerance is the largest per-sample difference still counted as a
	// match.
	Tolerance int `toml:"tolerance"`
}

func Default() Config {
	return Config{
		OutputDir: "golden",
		Workers:   4,
		LogLevel:  "info",
		Canonical: Size{Width: 256, Height: 128},
		Gaussian:  Sigma{Sigma: 3.0},
		Canny:     Canny{Sigma: 1.0, Low: 0.1, High: 0.2},
		Harris:    Harris{Sigma: 1.0, K: 0.04, Threshold: 0.01},
		LoG:       LoG{MinSigma: 1, MaxSigma: 10, NumSigma: 3, Threshold: 0.01, Overlap: 0.5, LogScale: true},
		DoG:       DoG{MinSigma: 1, MaxSigma: 10, SigmaRatio: 1.6, Threshold: 0.01, Overlap: 0.5},
		Resize:    Resize{Scales: []float64{0.5, 2.0}},
		Enhance:   Enhance{Dark: 0.3, Bright: 1.5, StrongContrast: 4.0, WeakContrast: 0.3},
		Extras:    Extras{Thresholds: []float64{0.5}, Rotations: []float64{45}},
	}
}

// Load reads path over the defaults. Keys the file sets that Config does
// not know are an error, so typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%w: reading config %s: %v", raster.ErrParameter, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%w: unknown config keys in %s: %s", raster.ErrParameter, path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Validate checks every parameter and joins all problems into one error.
func (c Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	positive := func(name string, v float64) {
		if !(v > 0) || math.IsInf(v, 1) {
			add(fmt.Errorf("%w: %s must be positive, got %g", raster.ErrParameter, name, v))
		}
	}
	threshold := func(name string, v float64) {
		if !(v >= 0 && v <= maxThreshold) {
			add(fmt.Errorf("%w: %s must be in [0, %g], got %g", raster.ErrParameter, name, float64(maxThreshold), v))
		}
	}

	if c.OutputDir == "" {
		add(fmt.Errorf("%w: output_dir is empty", raster.ErrParameter))
	}
	if c.Workers < 1 {
		add(fmt.Errorf("%w: workers must be at least 1, got %d", raster.ErrParameter, c.Workers))
	}
	if c.Canonical.Width <= 0 || c.Canonical.Height <= 0 {
		add(fmt.Errorf("%w: canonical size %dx%d", raster.ErrParameter, c.Canonical.Width, c.Canonical.Height))
	}
	positive("gaussian.sigma", c.Gaussian.Sigma)

	add(c.CannyParams().Validate())
	threshold("canny.low", c.Canny.Low)
	threshold("canny.high", c.Canny.High)

	add(c.HarrisParams().Validate())
	threshold("harris.threshold", c.Harris.Threshold)

	add(c.LoGParams().Validate())
	threshold("blob_log.threshold", c.LoG.Threshold)
	add(c.DoGParams().Validate())
	threshold("blob_dog.threshold", c.DoG.Threshold)

	if len(c.Resize.Scales) == 0 {
		add(fmt.Errorf("%w: resize.scales is empty", raster.ErrParameter))
	}
	for _, s := range c.Resize.Scales {
		positive("resize scale", s)
	}
	positive("enhance.dark", c.Enhance.Dark)
	positive("enhance.bright", c.Enhance.Bright)
	positive("enhance.strong_contrast", c.Enhance.StrongContrast)
	positive("enhance.weak_contrast", c.Enhance.WeakContrast)

	for _, s := range c.Extras.Stages {
		switch s {
		case StageEqualized, StageThreshold, StageRotate, StageResized:
		default:
			add(fmt.Errorf("%w: unknown extra stage %q", raster.ErrParameter, s))
		}
	}
	for _, t := range c.Extras.Thresholds {
		if !(t >= 0 && t <= 1) {
			add(fmt.Errorf("%w: extras threshold must be in [0, 1], got %g", raster.ErrParameter, t))
		}
	}
	for _, r := range c.Extras.Rotations {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			add(fmt.Errorf("%w: rotation must be finite, got %g", raster.ErrParameter, r))
		}
	}
	if c.Verify.Tolerance < 0 || c.Verify.Tolerance > 255 {
		add(fmt.Errorf("%w: verify.tolerance must be in [0, 255], got %d", raster.ErrParameter, c.Verify.Tolerance))
	}
	return errors.Join(errs...)
}

// HasExtra reports whether the named extra stage is enabled.
func (c Config) HasExtra(name string) bool {
	for _, s := range c.Extras.Stages {
		if s == name {
			return true
		}
	}
	return false
}

func (c Config) CannyParams() features.CannyParams {
	return features.CannyParams{Sigma: c.Canny.Sigma, Low: c.Canny.Low, High: c.Canny.High}
}

func (c Config) HarrisParams() features.HarrisParams {
	return features.HarrisParams{Sigma: c.Harris.Sigma, K: c.Harris.K, Threshold: c.Harris.Threshold}
}

func (c Config) LoGParams() features.LoGParams {
	return features.LoGParams{
		MinSigma:  c.LoG.MinSigma,
		MaxSigma:  c.LoG.MaxSigma,
		NumSigma:  c.LoG.NumSigma,
		Threshold: c.LoG.Threshold,
		Overlap:   c.LoG.Overlap,
		LogScale:  c.LoG.LogScale,
	}
}

func (c Config) DoGParams() features.DoGParams {
	return features.DoGParams{
		MinSigma:   c.DoG.MinSigma,
		MaxSigma:   c.DoG.MaxSigma,
		SigmaRatio: c.DoG.SigmaRatio,
		Threshold:  c.DoG.Threshold,
		Overlap:    c.DoG.Overlap,
	}
}
