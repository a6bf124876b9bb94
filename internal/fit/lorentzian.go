// Package fit fits the 18-dip multiplet with a sum of Lorentzian dips.
package fit

import (
	"errors"
	"fmt"

	"github.com/HamletTheHamster/esr-splitting/internal/dips"
)

const (
	// ParamsPerDip is amplitude, center and width.
	ParamsPerDip = 3
	ParamCount   = dips.Count * ParamsPerDip
)

var (
	ErrWrongParamCount = errors.New("fit: wrong number of parameters")
	ErrIndexRange      = errors.New("fit: dip index outside the sweep")
	ErrFitFailed       = errors.New("fit: optimization failed")
)

// Params describes one Lorentzian dip.
type Params struct {
	Amplitude float64
	Center    float64
	Width     float64
}

// Lorentzian is a dip of depth amp and half width wid centered on cen.
func Lorentzian(
	x, amp, cen, wid float64,
) float64 {
	d := x - cen
	return -amp * wid * wid / (d*d + wid*wid)
}

// Model writes the sum of the 18 dips described by params, taken as
// consecutive (amplitude, center, width) triples, at every x into dst.
func Model(
	dst, x, params []float64,
) error {

	if len(params) != ParamCount {
		return fmt.Errorf("%w: have %d, want %d", ErrWrongParamCount, len(params), ParamCount)
	}

	if len(dst) != len(x) {
		return fmt.Errorf("fit: model output has %d slots for %d points", len(dst), len(x))
	}

	for i, xi := range x {
		var y float64
		for k := 0; k < ParamCount; k += ParamsPerDip {
			y += Lorentzian(xi, params[k], params[k+1], params[k+2])
		}
		dst[i] = y
	}

	return nil
}

// Curve is Model into a new slice.
func Curve(
	x, params []float64,
) (
	[]float64, error,
) {
	y := make([]float64, len(x))
	if err := Model(y, x, params); err != nil {
		return nil, err
	}
	return y, nil
}

// Unpack splits a flat parameter vector into its dips.
func Unpack(
	params []float64,
) (
	[]Params, error,
) {

	if len(params) != ParamCount {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrWrongParamCount, len(params), ParamCount)
	}

	out := make([]Params, 0, dips.Count)
	for k := 0; k < ParamCount; k += ParamsPerDip {
		out = append(out, Params{Amplitude: params[k], Center: params[k+1], Width: params[k+2]})
	}

	return out, nil
}

// InitialGuess seeds every dip of each cluster with the intensity and
// frequency at its detected sample and a width of half the cluster span.
func InitialGuess(
	freq, intensity []float64,
	seq dips.Sequence,
) (
	[]float64, error,
) {

	if seq.Max() >= len(freq) || seq.Max() >= len(intensity) {
		return nil, fmt.Errorf(
			"%w: index %d, %d frequencies, %d intensities", ErrIndexRange, seq.Max(), len(freq), len(intensity),
		)
	}

	guess := make([]float64, 0, ParamCount)
	for k := 0; k < dips.Clusters; k++ {
		c := seq.Cluster(k)
		width := (freq[c[2]] - freq[c[0]]) / 2
		for _, i := range c {
			guess = append(guess, intensity[i], freq[i], width)
		}
	}

	return guess, nil
}
