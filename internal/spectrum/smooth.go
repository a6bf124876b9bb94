package spectrum

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Smooth applies a Savitzky-Golay filter of the given window and polynomial
// order. Samples closer than half a window to either end are evaluated on the
// polynomial fitted to the first or last full window.
func Smooth(
	trace []float64,
	window, order int,
) (
	[]float64, error,
) {

	if len(trace) == 0 {
		return nil, fmt.Errorf("%w: nothing to smooth", ErrEmptyInput)
	}

	if order < 0 || window <= order {
		return nil, fmt.Errorf("%w: window %d must exceed order %d", ErrInvalidWindow, window, order)
	}

	if window > len(trace) {
		return nil, fmt.Errorf(
			"%w: window %d longer than trace of %d samples", ErrInvalidWindow, window, len(trace),
		)
	}

	h, err := projection(window, order)
	if err != nil {
		return nil, err
	}

	n := len(trace)
	half := (window - 1) / 2
	out := make([]float64, n)

	for i := range out {
		start := i - half
		if start < 0 {
			start = 0
		}
		if start > n-window {
			start = n - window
		}

		row := h.RawRowView(i - start)
		var v float64
		for j, c := range row {
			v += c * trace[start+j]
		}
		out[i] = v
	}

	return out, nil
}

// projection returns the hat matrix A(AᵀA)⁻¹Aᵀ of a polynomial least squares
// fit over one window. Row k evaluates the fitted polynomial at sample k.
func projection(
	window, order int,
) (
	*mat.Dense, error,
) {

	center := float64(window-1) / 2

	a := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		t := float64(i) - center
		v := 1.
		for k := 0; k <= order; k++ {
			a.Set(i, k, v)
			v *= t
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)

	var x mat.Dense
	if err := x.Solve(&ata, a.T()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}

	var h mat.Dense
	h.Mul(a, &x)

	return &h, nil
}
