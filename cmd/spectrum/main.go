// Command spectrum runs the full spectral-reconstruction pipeline over an
// analysed event list and writes the result snapshot as JSON.
//
// Usage:
//
//	spectrum [flags] -config analysis.yaml
//
// The YAML configuration names the input files and analysis parameters;
// flags override the output path and logging verbosity.
//
// Examples:
//
//	spectrum -config crab.yaml
//	spectrum -config crab.yaml -output crab_spectrum.json -verbose
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mblnk/spectra/exposure/ontime"
	"github.com/mblnk/spectra/spectrum"
)

// config is the YAML analysis description.
type config struct {
	DataFile             string    `yaml:"data_file"`
	MCDataFile           string    `yaml:"mc_data_file"`
	MCFiles              []string  `yaml:"mc_files"`
	RunList              string    `yaml:"run_list"`
	ThetaSquare          float64   `yaml:"theta_square"`
	Alpha                float64   `yaml:"alpha"`
	UseCorrectionFactors bool      `yaml:"use_correction_factors"`
	EnergyEdges          []float64 `yaml:"energy_binning"`
	ZenithEdges          []float64 `yaml:"zenith_binning"`

	OptimizeTheta  bool `yaml:"optimize_theta"`
	OptimizeEnergy bool `yaml:"optimize_energy_binning"`

	Chunks  int  `yaml:"chunks"`
	Workers int  `yaml:"workers"`
	Serial  bool `yaml:"serial"`
}

func main() {
	configPath := flag.String("config", "", "YAML analysis configuration (required)")
	output := flag.String("output", "spectrum.json", "result snapshot path")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: spectrum [flags] -config analysis.yaml\n\n")
		fmt.Fprintf(os.Stderr, "Runs the spectral-reconstruction pipeline and writes a JSON snapshot.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *configPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	log, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "spectrum:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(*configPath, *output, log); err != nil {
		log.Fatal("pipeline failed", zap.Error(err))
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(configPath, output string, log *zap.Logger) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	opts := []spectrum.Option{
		spectrum.WithLogger(log),
		spectrum.WithDataFile(cfg.DataFile),
		spectrum.WithMCDataFile(cfg.MCDataFile),
		spectrum.WithMCFiles(cfg.MCFiles),
		spectrum.WithThetaSquareCut(cfg.ThetaSquare),
		spectrum.WithAlpha(cfg.Alpha),
		spectrum.WithCorrectionFactors(cfg.UseCorrectionFactors),
		spectrum.WithChunks(cfg.Chunks),
		spectrum.WithWorkers(cfg.Workers),
		spectrum.WithParallel(!cfg.Serial),
	}

	if cfg.RunList != "" {
		runs, err := ontime.LoadRuns(cfg.RunList)
		if err != nil {
			return err
		}
		opts = append(opts, spectrum.WithRuns(runs))
	}

	s := spectrum.New(opts...)

	if len(cfg.EnergyEdges) > 0 {
		if err := s.SetEnergyBinning(cfg.EnergyEdges, nil); err != nil {
			return err
		}
	}
	if len(cfg.ZenithEdges) > 0 {
		if err := s.SetZenithBinning(cfg.ZenithEdges, nil); err != nil {
			return err
		}
	}

	if cfg.OptimizeTheta {
		if _, err := s.OptimizeThetaCut(); err != nil {
			return err
		}
	}
	if cfg.OptimizeEnergy {
		if err := s.OptimizeEnergyBinning(); err != nil {
			return err
		}
	}

	if err := s.ComputeFlux(); err != nil {
		return err
	}
	s.FillStats()

	if err := s.Save(output); err != nil {
		return err
	}
	log.Info("wrote result snapshot",
		zap.String("path", output),
		zap.Any("stats", s.Stats))
	return nil
}

func loadConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
