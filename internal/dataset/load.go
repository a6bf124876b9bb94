package dataset

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sbinet/npyio"
	"gopkg.in/yaml.v3"

	"github.com/HamletTheHamster/esr-splitting/internal/spectrum"
)

// Meta is the part of the acquisition metadata the analysis reads.
type Meta struct {
	FrequencyValues []float64 `yaml:"frequency_values"`
	StepIntervals   []int     `yaml:"step_intervals"`
}

// Scan is one loaded sweep.
type Scan struct {
	Stem  string
	Freq  []float64
	Cube  spectrum.Cube
	Steps spectrum.Boundaries
}

// Loader reads the sweep behind a stem.
type Loader func(stem string) (Scan, error)

// Load reads <stem>.npy and <stem>.yaml.
func Load(
	stem string,
) (
	Scan, error,
) {

	cube, err := ReadCube(stem + arrayExt)
	if err != nil {
		return Scan{}, err
	}

	meta, err := ReadMeta(stem + metaExt)
	if err != nil {
		return Scan{}, err
	}

	if len(meta.FrequencyValues) == 0 || len(meta.StepIntervals) == 0 {
		return Scan{}, fmt.Errorf("%w: %s lacks frequency_values or step_intervals", ErrMetaMismatch, stem)
	}

	steps := spectrum.Boundaries(meta.StepIntervals)
	if steps.Sum() != len(meta.FrequencyValues) {
		return Scan{}, fmt.Errorf(
			"%w: step intervals sum to %d for %d frequencies", ErrMetaMismatch, steps.Sum(), len(meta.FrequencyValues),
		)
	}

	return Scan{Stem: stem, Freq: meta.FrequencyValues, Cube: cube, Steps: steps}, nil
}

// ReadMeta decodes a metadata file.
func ReadMeta(
	path string,
) (
	Meta, error,
) {

	b, err := os.ReadFile(path)
	if err != nil {
		return Meta{}, fmt.Errorf("dataset: %w", err)
	}

	var meta Meta
	if err := yaml.Unmarshal(b, &meta); err != nil {
		return Meta{}, fmt.Errorf("dataset: decoding %s: %w", path, err)
	}

	return meta, nil
}

// ReadCube decodes a C-ordered float32 or float64 .npy array.
func ReadCube(
	path string,
) (
	spectrum.Cube, error,
) {

	f, err := os.Open(path)
	if err != nil {
		return spectrum.Cube{}, fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()

	r, err := npyio.NewReader(bufio.NewReader(f))
	if err != nil {
		return spectrum.Cube{}, fmt.Errorf("dataset: reading %s: %w", path, err)
	}

	descr := r.Header.Descr
	if descr.Fortran {
		return spectrum.Cube{}, fmt.Errorf("%w: %s is Fortran ordered", ErrUnsupportedArray, path)
	}

	shape := append([]int(nil), descr.Shape...)

	var data []float64
	switch descr.Type {
	case "<f8", "f8", "float64":
		if err := r.Read(&data); err != nil {
			return spectrum.Cube{}, fmt.Errorf("dataset: reading %s: %w", path, err)
		}
	case "<f4", "f4", "float32":
		var single []float32
		if err := r.Read(&single); err != nil {
			return spectrum.Cube{}, fmt.Errorf("dataset: reading %s: %w", path, err)
		}
		data = make([]float64, len(single))
		for i, v := range single {
			data[i] = float64(v)
		}
	default:
		return spectrum.Cube{}, fmt.Errorf("%w: %s has dtype %s", ErrUnsupportedArray, path, descr.Type)
	}

	return spectrum.Cube{Shape: shape, Data: data}, nil
}
