// Command printmaker bakes per-triangle diffuse colors from a glTF scene
// asset and renders them as a flat orthographic PNG, with optional CSV and
// binary STL exports of the baked triangles.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/fogleman/fauxgl"
	"github.com/schollz/progressbar/v3"
	"github.com/stickerforge/printmaker"
	"github.com/stickerforge/printmaker/flatten"
	"github.com/stickerforge/printmaker/sampler"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// jobConfig mirrors the command line flags so repeatable jobs can live in a
// YAML file. Flags set explicitly on the command line win over the file.
type jobConfig struct {
	Model       string    `yaml:"model"`
	Output      string    `yaml:"output"`
	Table       string    `yaml:"table"`
	STL         string    `yaml:"stl"`
	View        []float64 `yaml:"view"`
	Width       int       `yaml:"width"`
	Height      int       `yaml:"height"`
	Padding     float64   `yaml:"padding"`
	Samples     int       `yaml:"samples"`
	Supersample int       `yaml:"supersample"`
	Background  string    `yaml:"background"`
	Concurrency int       `yaml:"concurrency"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "printmaker:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "YAML job file; explicit flags override its values")
		model      = flag.String("model", "", "input glTF/GLB scene asset (required)")
		output     = flag.String("out", "out.png", "output PNG path")
		table      = flag.String("table", "", "optional CSV export of baked triangles")
		stl        = flag.String("stl", "", "optional binary STL export of baked geometry")
		viewFlag   = flag.String("view", "0,0,-1", "view direction as x,y,z")
		width      = flag.Int("width", 1024, "canvas width in pixels")
		height     = flag.Int("height", 1024, "canvas height in pixels")
		padding    = flag.Float64("padding", 16, "canvas margin in pixels")
		samples    = flag.Int("samples", sampler.DefaultSamplesPerTriangle, "texture samples per triangle")
		super      = flag.Int("supersample", 1, "supersampling factor for the render")
		background = flag.String("background", "", "background color as hex, empty for transparent")
		workers    = flag.Int("concurrency", runtime.NumCPU(), "bake worker count")
		verbose    = flag.Bool("v", false, "log progress detail to stderr")
	)
	flag.Parse()

	if *verbose {
		printmaker.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	cfg := jobConfig{
		Model: *model, Output: *output, Table: *table, STL: *stl,
		Width: *width, Height: *height, Padding: *padding,
		Samples: *samples, Supersample: *super,
		Background: *background, Concurrency: *workers,
	}
	var err error
	if cfg.View, err = parseView(*viewFlag); err != nil {
		return err
	}
	if *configPath != "" {
		if err := loadConfig(*configPath, &cfg); err != nil {
			return err
		}
		// Re-apply any flag the user passed explicitly.
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "model":
				cfg.Model = *model
			case "out":
				cfg.Output = *output
			case "table":
				cfg.Table = *table
			case "stl":
				cfg.STL = *stl
			case "view":
				cfg.View, _ = parseView(*viewFlag)
			case "width":
				cfg.Width = *width
			case "height":
				cfg.Height = *height
			case "padding":
				cfg.Padding = *padding
			case "samples":
				cfg.Samples = *samples
			case "supersample":
				cfg.Supersample = *super
			case "background":
				cfg.Background = *background
			case "concurrency":
				cfg.Concurrency = *workers
			}
		})
	}
	if cfg.Model == "" {
		return errors.New("no input model; pass -model or set model: in -config")
	}
	if len(cfg.View) != 3 {
		return fmt.Errorf("view needs 3 components, got %d", len(cfg.View))
	}
	return runJob(cfg)
}

func runJob(cfg jobConfig) error {
	var (
		mu  sync.Mutex
		bar *progressbar.ProgressBar
	)
	tris, err := sampler.Analyze(cfg.Model, sampler.Options{
		SamplesPerTriangle: cfg.Samples,
		Concurrency:        cfg.Concurrency,
		Progress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			if bar == nil {
				bar = progressbar.Default(int64(total), "baking")
			}
			bar.Set(done)
		},
	})
	if err != nil {
		return fmt.Errorf("analyze %s: %w", cfg.Model, err)
	}

	if cfg.Table != "" {
		if err := printmaker.CreateTable(cfg.Table, tris); err != nil {
			return fmt.Errorf("write table: %w", err)
		}
	}
	if cfg.STL != "" {
		if err := printmaker.CreateSTL(cfg.STL, tris); err != nil {
			return fmt.Errorf("write stl: %w", err)
		}
	}

	var bg color.Color
	if cfg.Background != "" {
		bg = fauxgl.HexColor(cfg.Background).NRGBA()
	}
	err = flatten.CreatePNG(cfg.Output, tris, flatten.Options{
		View:        r3.Vec{X: cfg.View[0], Y: cfg.View[1], Z: cfg.View[2]},
		Width:       cfg.Width,
		Height:      cfg.Height,
		Padding:     cfg.Padding,
		Background:  bg,
		Supersample: cfg.Supersample,
	})
	switch {
	case errors.Is(err, flatten.ErrNoFrontFacing):
		return fmt.Errorf("%w; try the opposite -view", err)
	case err != nil:
		return fmt.Errorf("render %s: %w", cfg.Output, err)
	}
	return nil
}

func loadConfig(path string, cfg *jobConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(cfg.View) != 0 && len(cfg.View) != 3 {
		return fmt.Errorf("config %s: view needs 3 components, got %d", path, len(cfg.View))
	}
	return nil
}

func parseView(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("view %q: need x,y,z", s)
	}
	v := make([]float64, 3)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("view %q: %w", s, err)
		}
		v[i] = f
	}
	return v, nil
}
