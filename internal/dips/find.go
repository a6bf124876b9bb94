// Package dips locates resonance dips in a smoothed sweep and assembles the
// ordered 18-dip multiplet the fit and splitting stages work on.
package dips

import (
	"errors"
	"sort"
)

var (
	ErrEmptyChunk     = errors.New("dips: empty chunk")
	ErrWrongPeakCount = errors.New("dips: wrong number of dips")
)

// DefaultDistance is the minimum spacing, in samples, between two dips.
const DefaultDistance = 5

// Find returns the ascending indices of the local minima of chunk. The first
// and last samples are never reported, and the midpoint of a flat minimum
// stands for the whole plateau. Minima closer than distance samples to a
// deeper one are dropped; between equally deep minima the leftmost is kept.
func Find(
	chunk []float64,
	distance int,
) (
	[]int, error,
) {

	if len(chunk) == 0 {
		return nil, ErrEmptyChunk
	}

	if distance < 1 {
		distance = 1
	}

	minima := localMinima(chunk)
	if distance == 1 || len(minima) < 2 {
		return minima, nil
	}

	// Deepest first, leftmost first among equals
	order := make([]int, len(minima))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return chunk[minima[order[a]]] < chunk[minima[order[b]]]
	})

	keep := make([]bool, len(minima))
	for i := range keep {
		keep[i] = true
	}

	for _, j := range order {
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && minima[j]-minima[k] < distance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(minima) && minima[k]-minima[j] < distance; k++ {
			keep[k] = false
		}
	}

	var found []int
	for i, m := range minima {
		if keep[i] {
			found = append(found, m)
		}
	}

	return found, nil
}

func localMinima(
	x []float64,
) []int {

	var minima []int
	last := len(x) - 1

	for i := 1; i < last; i++ {
		if !(x[i-1] > x[i]) {
			continue
		}

		ahead := i + 1
		for ahead < last && x[ahead] == x[i] {
			ahead++
		}

		if x[ahead] > x[i] {
			minima = append(minima, (i+ahead-1)/2)
			i = ahead
		}
	}

	return minima
}
