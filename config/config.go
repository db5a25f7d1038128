package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"iconresizer/contracts"
	"iconresizer/logging"
)

// Config is the YAML configuration. Flags given on the command line take
// precedence over the file.
type Config struct {
	Sizes           []int          `yaml:"sizes"`
	OutputDir       string         `yaml:"output_dir"`
	Workers         int            `yaml:"workers"`
	IsolateFailures bool           `yaml:"isolate_failures"`
	Rasterizer      string         `yaml:"rasterizer"`
	PreviewPDF      bool           `yaml:"preview_pdf"`
	WriteOriginal   bool           `yaml:"write_original"`
	Log             logging.Config `yaml:"log"`
}

func Default() *Config {
	sizes := make([]int, len(contracts.DefaultSizes))
	for i, s := range contracts.DefaultSizes {
		sizes[i] = int(s)
	}
	return &Config{
		Sizes:      sizes,
		OutputDir:  ".",
		Workers:    1,
		Rasterizer: "oksvg",
		Log:        logging.DefaultConfig(),
	}
}

// Load reads the configuration file on top of the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyFlags overrides fields that were set on the command line.
func (c *Config) ApplyFlags(flags contracts.InputFlags, changed func(name string) bool) {
	if changed("sizes") {
		c.Sizes = flags.Sizes
	}
	if changed("output") {
		c.OutputDir = flags.OutputDir
	}
	if changed("workers") {
		c.Workers = flags.Workers
	}
	if changed("isolate") {
		c.IsolateFailures = flags.IsolateFailures
	}
	if changed("rasterizer") {
		c.Rasterizer = flags.Rasterizer
	}
	if changed("preview-pdf") {
		c.PreviewPDF = flags.PreviewPDF
	}
	if changed("write-original") {
		c.WriteOriginal = flags.WriteOriginal
	}
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.Sizes) == 0 {
		errs = append(errs, errors.New("sizes: at least one size required"))
	}
	seen := make(map[int]bool, len(c.Sizes))
	for _, s := range c.Sizes {
		if s <= 0 {
			errs = append(errs, fmt.Errorf("sizes: %d is not positive", s))
		}
		if seen[s] {
			errs = append(errs, fmt.Errorf("sizes: %d listed twice", s))
		}
		seen[s] = true
	}
	if c.Workers < 0 || c.Workers > runtime.NumCPU()*4 {
		errs = append(errs, fmt.Errorf("workers: %d out of range", c.Workers))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	return errors.Join(errs...)
}

func (c *Config) TargetSizes() []contracts.TargetSize {
	out := make([]contracts.TargetSize, len(c.Sizes))
	for i, s := range c.Sizes {
		out[i] = contracts.TargetSize(s)
	}
	return out
}
