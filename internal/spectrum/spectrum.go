// Package spectrum holds the signal conditioning stages of the splitting
// analysis: channel normalization, Savitzky-Golay smoothing, edge clipping
// and the partition of a trace into its acquisition sub-bands.
package spectrum

import "fmt"

// Spectrum is a frequency axis and the intensity sampled on it. Stages that
// derive a new spectrum return a new value and leave the source untouched.
type Spectrum struct {
	Freq      []float64
	Intensity []float64
}

// New pairs a frequency axis with an intensity trace of the same length.
func New(
	freq, intensity []float64,
) (
	Spectrum, error,
) {

	if len(freq) == 0 {
		return Spectrum{}, ErrEmptyInput
	}

	if len(freq) != len(intensity) {
		return Spectrum{}, fmt.Errorf(
			"%w: %d frequencies, %d intensities", ErrInvalidShape, len(freq), len(intensity),
		)
	}

	for i := 1; i < len(freq); i++ {
		if !(freq[i] > freq[i-1]) {
			return Spectrum{}, fmt.Errorf("%w: sample %d", ErrNotIncreasing, i)
		}
	}

	return Spectrum{Freq: freq, Intensity: intensity}, nil
}

func (s Spectrum) Len() int {
	return len(s.Freq)
}

// Boundaries lists the length of every sub-band of a sweep, in sweep order.
type Boundaries []int

func (b Boundaries) Sum() int {
	var n int
	for _, v := range b {
		n += v
	}
	return n
}

func (b Boundaries) Clone() Boundaries {
	return append(Boundaries(nil), b...)
}
