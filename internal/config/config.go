// Package config collects the run settings from defaults, an optional YAML
// file and the command line, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HamletTheHamster/esr-splitting/internal/dataset"
	"github.com/HamletTheHamster/esr-splitting/internal/dips"
	"github.com/HamletTheHamster/esr-splitting/internal/fit"
	"github.com/HamletTheHamster/esr-splitting/internal/spectrum"
	"github.com/HamletTheHamster/esr-splitting/internal/splitting"
)

var ErrInvalid = errors.New("config: invalid setting")

type Config struct {
	File string `yaml:"-"`

	DataDir   string `yaml:"data_dir"`
	IdleDir   string `yaml:"idle_dir"`
	ActiveDir string `yaml:"active_dir"`

	Window       int     `yaml:"window_length"`
	Order        int     `yaml:"poly_order"`
	ClipFraction float64 `yaml:"clip_fraction"`
	Distance     int     `yaml:"distance"`
	Keep         int     `yaml:"keep"`
	Pixel        []int   `yaml:"pixel"`
	Axis         int     `yaml:"normalize_axis"`

	Fit            bool   `yaml:"fit"`
	Solver         string `yaml:"solver"`
	MaxEvaluations int    `yaml:"max_evaluations"`
	Unit           string `yaml:"unit"`

	PlotBackend string `yaml:"plot_backend"`
	PlotDir     string `yaml:"plot_dir"`
	Note        string `yaml:"note"`
	Slide       bool   `yaml:"slide"`

	Workers  int    `yaml:"workers"`
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

var backends = []string{"gonum", "gnuplot", "none"}

func Default() Config {
	return Config{
		DataDir:        "data",
		IdleDir:        dataset.DefaultIdleDir,
		ActiveDir:      dataset.DefaultActiveDir,
		Window:         15,
		Order:          3,
		ClipFraction:   spectrum.DefaultClipFraction,
		Distance:       dips.DefaultDistance,
		Keep:           dips.ClusterSize,
		Pixel:          []int{0, 0},
		Axis:           1,
		Fit:            true,
		Solver:         "lm",
		MaxEvaluations: fit.DefaultMaxEvaluations,
		Unit:           string(splitting.GHz),
		PlotBackend:    "gonum",
		PlotDir:        "plots",
		Workers:        1,
		LogLevel:       "info",
	}
}

// Load reads a YAML file over the defaults.
func Load(
	path string,
) (
	Config, error,
) {

	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	cfg.File = path

	return cfg, nil
}

// Parse builds the configuration from args. A -config file is applied first
// and every flag given on the command line overrides it.
func Parse(
	args []string,
) (
	Config, error,
) {

	cfg := Default()
	if err := cfg.flags().Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.File != "" {
		file, err := Load(cfg.File)
		if err != nil {
			return Config{}, err
		}
		if err := file.flags().Parse(args); err != nil {
			return Config{}, err
		}
		cfg = file
	}

	return cfg, cfg.Validate()
}

func (c *Config) flags() *flag.FlagSet {
	fs := flag.NewFlagSet("esrsplit", flag.ContinueOnError)

	fs.StringVar(&c.File, "config", c.File, "YAML configuration file")
	fs.StringVar(&c.DataDir, "data", c.DataDir, "data folder holding the idle and active sub-folders")
	fs.StringVar(&c.IdleDir, "idle", c.IdleDir, "sub-folder of idle sweeps")
	fs.StringVar(&c.ActiveDir, "active", c.ActiveDir, "sub-folder of active sweeps")
	fs.IntVar(&c.Window, "window", c.Window, "Savitzky-Golay window length")
	fs.IntVar(&c.Order, "order", c.Order, "Savitzky-Golay polynomial order")
	fs.Float64Var(&c.ClipFraction, "clip", c.ClipFraction, "fraction of the first step interval clipped from each end")
	fs.IntVar(&c.Distance, "distance", c.Distance, "minimum samples between dips")
	fs.IntVar(&c.Keep, "keep", c.Keep, "deepest dips kept per sub-band")
	fs.Var((*intList)(&c.Pixel), "pixel", "pixel address of the analysed trace, e.g. 0,0")
	fs.IntVar(&c.Axis, "axis", c.Axis, "per-channel axis summed by the normalization")
	fs.BoolVar(&c.Fit, "fit", c.Fit, "fit the multiplet after detection")
	fs.StringVar(&c.Solver, "solver", c.Solver, "least squares solver: lm or gonum")
	fs.IntVar(&c.MaxEvaluations, "maxfev", c.MaxEvaluations, "maximum residual evaluations per fit")
	fs.StringVar(&c.Unit, "unit", c.Unit, "unit of the reported differences: Hz, kHz, MHz, GHz")
	fs.StringVar(&c.PlotBackend, "plot", c.PlotBackend, "plot backend: gonum, gnuplot or none")
	fs.StringVar(&c.PlotDir, "plots", c.PlotDir, "folder receiving dated run folders")
	fs.StringVar(&c.Note, "note", c.Note, "note to append folder name")
	fs.BoolVar(&c.Slide, "slide", c.Slide, "format figures for slide presentation")
	fs.IntVar(&c.Workers, "workers", c.Workers, "file pairs processed concurrently")
	fs.StringVar(&c.LogLevel, "log", c.LogLevel, "log level")
	fs.BoolVar(&c.LogJSON, "json", c.LogJSON, "log JSON lines")

	return fs
}

func (c Config) Validate() error {
	switch {
	case c.Order < 0 || c.Window <= c.Order:
		return fmt.Errorf("%w: window %d must exceed polynomial order %d", ErrInvalid, c.Window, c.Order)
	case c.ClipFraction < 0 || c.ClipFraction >= 0.5:
		return fmt.Errorf("%w: clip fraction %v outside [0, 0.5)", ErrInvalid, c.ClipFraction)
	case c.Distance < 1:
		return fmt.Errorf("%w: dip distance %d below 1", ErrInvalid, c.Distance)
	case c.Keep < 1:
		return fmt.Errorf("%w: keep %d below 1", ErrInvalid, c.Keep)
	case c.Axis < 0:
		return fmt.Errorf("%w: negative normalization axis", ErrInvalid)
	case c.MaxEvaluations < 1:
		return fmt.Errorf("%w: max evaluations %d below 1", ErrInvalid, c.MaxEvaluations)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers %d below 1", ErrInvalid, c.Workers)
	case c.DataDir == "":
		return fmt.Errorf("%w: empty data folder", ErrInvalid)
	}

	if _, err := splitting.ParseUnit(c.Unit); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if _, err := fit.NewSolver(c.Solver); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if !contains(backends, c.PlotBackend) {
		return fmt.Errorf("%w: plot backend %q", ErrInvalid, c.PlotBackend)
	}

	return nil
}

func contains(
	s []string,
	e string,
) bool {
	for _, a := range s {
		if a == e {
			return true
		}
	}
	return false
}

// intList is a comma separated flag value.
type intList []int

func (l *intList) String() string {
	if l == nil {
		return ""
	}
	s := make([]string, len(*l))
	for i, v := range *l {
		s[i] = strconv.Itoa(v)
	}
	return strings.Join(s, ",")
}

func (l *intList) Set(v string) error {
	var out []int
	for _, f := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return fmt.Errorf("%w: pixel %q", ErrInvalid, v)
		}
		out = append(out, n)
	}
	*l = out
	return nil
}
