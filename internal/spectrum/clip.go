package spectrum

import (
	"fmt"
	"math"
)

// DefaultClipFraction is the share of the first sub-band trimmed from each
// end of a sweep.
const DefaultClipFraction = 0.10

// ClipAmount is floor(b[0] * fraction).
func ClipAmount(
	b Boundaries,
	fraction float64,
) (
	int, error,
) {

	if len(b) == 0 {
		return 0, ErrEmptyBoundaries
	}

	return int(math.Floor(float64(b[0]) * fraction)), nil
}

// Clip drops amount samples from both ends of s and returns the boundaries
// of the clipped sweep. b itself is left unchanged.
func Clip(
	s Spectrum,
	b Boundaries,
	amount int,
) (
	Spectrum, Boundaries, error,
) {

	if len(b) == 0 {
		return Spectrum{}, nil, ErrEmptyBoundaries
	}

	if amount < 0 {
		return Spectrum{}, nil, fmt.Errorf("%w: negative clip %d", ErrClipTooLarge, amount)
	}

	n := s.Len()
	if 2*amount >= n {
		return Spectrum{}, nil, fmt.Errorf(
			"%w: clipping %d from each end of %d samples", ErrClipTooLarge, amount, n,
		)
	}

	adjusted := b.Clone()
	adjusted[0] -= amount
	adjusted[len(adjusted)-1] -= amount

	if adjusted[0] < 0 || adjusted[len(adjusted)-1] < 0 {
		return Spectrum{}, nil, fmt.Errorf(
			"%w: clip %d longer than an edge sub-band %v", ErrClipTooLarge, amount, []int(b),
		)
	}

	clipped := Spectrum{
		Freq:      append([]float64(nil), s.Freq[amount:n-amount]...),
		Intensity: append([]float64(nil), s.Intensity[amount:n-amount]...),
	}

	return clipped, adjusted, nil
}
