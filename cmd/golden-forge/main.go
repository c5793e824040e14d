// Command golden-forge generates golden reference bitmaps from input
// images, verifies candidate bitmaps against them and cross-checks the
// filters against OpenCV.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"golden-forge/internal/app"
	"golden-forge/internal/config"
	"golden-forge/internal/logger"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s <command> [flags] [args]\n\n", app.AppName)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  generate [flags] <image|dir>...      write golden bitmaps")
	fmt.Fprintln(w, "  verify [flags] <golden-dir> <candidate-dir>")
	fmt.Fprintln(w, "                                       compare candidate bitmaps")
	fmt.Fprintln(w, "  crosscheck [flags] <image|dir>...    compare filters with OpenCV")
	fmt.Fprintln(w, "  version                              print the version")
}

// commonFlags are accepted by every subcommand.
type commonFlags struct {
	configPath string
	logLevel   string
	outputDir  string
	workers    int
	tolerance  int
}

func newFlagSet(name string, stderr io.Writer, c *commonFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&c.configPath, "config", "", "TOML configuration file")
	fs.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")
	return fs
}

// loadConfig reads the config file if given and applies flags that were
// set explicitly on the command line.
func loadConfig(fs *flag.FlagSet, c *commonFlags) (config.Config, error) {
	cfg := config.Default()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.LogLevel = c.logLevel
		case "out":
			cfg.OutputDir = c.outputDir
		case "workers":
			cfg.Workers = c.workers
		case "tolerance":
			cfg.Verify.Tolerance = c.tolerance
		}
	})
	return cfg, cfg.Validate()
}

func newApplication(cfg config.Config, stderr io.Writer) (*app.Application, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log := logger.NewZerolog(stderr, level)
	if stderr == os.Stderr {
		log = logger.NewConsoleLogger(level)
	}
	return app.NewApplication(cfg, log)
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}

	var c commonFlags
	command := args[0]
	fs := newFlagSet(command, stderr, &c)

	switch command {
	case "generate":
		fs.StringVar(&c.outputDir, "out", "", "output directory for golden bitmaps")
		fs.IntVar(&c.workers, "workers", 0, "images processed in parallel")
	case "verify":
		fs.IntVar(&c.tolerance, "tolerance", 0, "largest per-sample difference accepted")
	case "crosscheck":
	case "version":
		fmt.Fprintf(stdout, "%s %s\n", app.AppName, app.AppVersion)
		return exitOK
	case "help", "-h", "--help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n", command)
		usage(stderr)
		return exitUsage
	}

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	cfg, err := loadConfig(fs, &c)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return exitUsage
	}

	switch command {
	case "generate":
		return runGenerate(cfg, fs.Args(), stdout, stderr)
	case "verify":
		return runVerify(cfg, fs.Args(), stdout, stderr)
	default:
		return runCrosscheck(cfg, fs.Args(), stdout, stderr)
	}
}

func runGenerate(cfg config.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "generate: no inputs given")
		return exitUsage
	}
	inputs, err := app.ResolveInputs(args)
	if err != nil {
		fmt.Fprintf(stderr, "generate: %v\n", err)
		return exitUsage
	}
	application, err := newApplication(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "generate: %v\n", err)
		return exitUsage
	}
	defer application.Close()

	report, err := application.Generate(inputs)
	if report == nil {
		fmt.Fprintf(stderr, "generate: %v\n", err)
		return exitFailure
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INPUT\tOUTPUTS\tDEGENERATE\tSTATUS")
	for _, img := range report.Images {
		status := "ok"
		if img.Err != nil {
			status = img.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", img.Input, len(img.Outputs), len(img.Degenerate), status)
	}
	tw.Flush()

	if err != nil || report.Failed() > 0 {
		return exitFailure
	}
	return exitOK
}

func runVerify(cfg config.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(stderr, "verify: need <golden-dir> <candidate-dir>")
		return exitUsage
	}
	application, err := newApplication(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "verify: %v\n", err)
		return exitUsage
	}
	defer application.Close()

	summary, err := application.Verify(args[0], args[1])
	if err != nil {
		fmt.Fprintf(stderr, "verify: %v\n", err)
		return exitFailure
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tRESULT\tMAX_DIFF\tPSNR\tF_MEASURE\tNRM")
	for _, r := range summary.Results {
		result := "pass"
		switch {
		case r.Err != nil:
			result = "error: " + r.Err.Error()
		case !r.Pass:
			result = "FAIL"
		}
		fmeasure, nrm := "-", "-"
		if r.Binary != nil {
			fmeasure = fmt.Sprintf("%.4f", r.Binary.FMeasure())
			nrm = fmt.Sprintf("%.4f", r.Binary.NRM())
		}
		psnr := "inf"
		if !math.IsInf(r.PSNR, 1) {
			psnr = fmt.Sprintf("%.2f", r.PSNR)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", r.Name, result, r.MaxDiff, psnr, fmeasure, nrm)
	}
	tw.Flush()

	if summary.Failed() > 0 {
		return exitFailure
	}
	return exitOK
}

func runCrosscheck(cfg config.Config, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "crosscheck: no inputs given")
		return exitUsage
	}
	inputs, err := app.ResolveInputs(args)
	if err != nil {
		fmt.Fprintf(stderr, "crosscheck: %v\n", err)
		return exitUsage
	}
	application, err := newApplication(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "crosscheck: %v\n", err)
		return exitUsage
	}
	defer application.Close()

	results, err := application.Crosscheck(inputs)
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INPUT\tCHECK\tMAX_DIFF")
	for _, path := range inputs {
		for _, c := range results[path] {
			fmt.Fprintf(tw, "%s\t%s\t%.3g\n", path, c.Name, c.MaxDiff)
		}
	}
	tw.Flush()
	if err != nil {
		fmt.Fprintf(stderr, "crosscheck: %v\n", err)
		return exitFailure
	}
	return exitOK
}
