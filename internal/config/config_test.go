package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golden-forge/internal/raster"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forge.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate(): %v", err)
	}
}

func TestDefaultMatchesReferenceParameters(t *testing.T) {
	c := Default()
	if c.Canonical.Width != 256 || c.Canonical.Height != 128 {
		t.Errorf("canonical: got %dx%d, want 256x128", c.Canonical.Width, c.Canonical.Height)
	}
	if c.Gaussian.Sigma != 3 {
		t.Errorf("gaussian sigma: got %v, want 3", c.Gaussian.Sigma)
	}
	if c.LoG.NumSigma != 3 || !c.LoG.LogScale || c.DoG.SigmaRatio != 1.6 {
		t.Errorf("blob params: got num_sigma %d log_scale %v ratio %v", c.LoG.NumSigma, c.LoG.LogScale, c.DoG.SigmaRatio)
	}
	if c.Harris.K != 0.04 || c.Harris.Threshold != 0.01 {
		t.Errorf("harris: got %+v", c.Harris)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
workers = 2

[gaussian]
sigma = 1.5

[resize]
scales = [0.25]

[extras]
stages = ["equalized", "rotate"]
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Workers != 2 {
		t.Errorf("workers: got %d, want 2", c.Workers)
	}
	if c.Gaussian.Sigma != 1.5 {
		t.Errorf("sigma: got %v, want 1.5", c.Gaussian.Sigma)
	}
	if len(c.Resize.Scales) != 1 || c.Resize.Scales[0] != 0.25 {
		t.Errorf("scales: got %v, want [0.25]", c.Resize.Scales)
	}
	if c.Harris.Threshold != 0.01 {
		t.Errorf("untouched harris threshold: got %v, want 0.01", c.Harris.Threshold)
	}
	if !c.HasExtra(StageRotate) || c.HasExtra(StageThreshold) {
		t.Errorf("extras: got %v", c.Extras.Stages)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[gaussian]
sigmaa = 2
`)
	_, err := Load(path)
	if !errors.Is(err, raster.ErrParameter) {
		t.Fatalf("got %v, want ErrParameter", err)
	}
	if !strings.Contains(err.Error(), "gaussian.sigmaa") {
		t.Errorf("error %q does not name the key", err)
	}
}

func TestLoadRejectsMalformed(t *testing.T) {
	if _, err := Load(writeConfig(t, "workers = ")); !errors.Is(err, raster.ErrParameter) {
		t.Errorf("got %v, want ErrParameter", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file: got nil error")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero gaussian sigma", func(c *Config) { c.Gaussian.Sigma = 0 }},
		{"negative scale", func(c *Config) { c.Resize.Scales = []float64{-1} }},
		{"no scales", func(c *Config) { c.Resize.Scales = nil }},
		{"zero num_sigma", func(c *Config) { c.LoG.NumSigma = 0 }},
		{"ratio one", func(c *Config) { c.DoG.SigmaRatio = 1 }},
		{"inverted sigmas", func(c *Config) { c.LoG.MinSigma = 20 }},
		{"negative threshold", func(c *Config) { c.Harris.Threshold = -1 }},
		{"huge threshold", func(c *Config) { c.DoG.Threshold = 1e9 }},
		{"unknown stage", func(c *Config) { c.Extras.Stages = []string{"sharpen"} }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"zero canonical", func(c *Config) { c.Canonical.Width = 0 }},
		{"zero factor", func(c *Config) { c.Enhance.Dark = 0 }},
		{"tolerance", func(c *Config) { c.Verify.Tolerance = 300 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, raster.ErrParameter) {
				t.Errorf("got %v, want ErrParameter", err)
			}
		})
	}
}
