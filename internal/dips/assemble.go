package dips

import (
	"fmt"
	"sort"
)

// Candidate is a detected dip. Local indexes its chunk, Global the whole
// clipped sweep.
type Candidate struct {
	Local  int
	Global int
	Height float64
}

// Rank orders the dips found in one chunk from deepest to shallowest and
// keeps the first keep of them. A chunk with fewer dips than keep fails.
func Rank(
	chunk []float64,
	found []int,
	offset, keep int,
) (
	[]Candidate, error,
) {

	if len(found) < keep {
		return nil, fmt.Errorf("%w: found %d of %d", ErrWrongPeakCount, len(found), keep)
	}

	candidates := make([]Candidate, len(found))
	for i, local := range found {
		candidates[i] = Candidate{Local: local, Global: local + offset, Height: chunk[local]}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Height < candidates[b].Height
	})

	return candidates[:keep], nil
}

// Assemble merges the ranked dips of every chunk into sweep order.
func Assemble(
	ranked [][]Candidate,
) (
	Sequence, error,
) {

	var all []Candidate
	for _, r := range ranked {
		all = append(all, r...)
	}

	sort.SliceStable(all, func(a, b int) bool {
		return all[a].Global < all[b].Global
	})

	indices := make([]int, len(all))
	for i, c := range all {
		indices[i] = c.Global
	}

	return NewSequence(indices)
}

// Detect runs Find and Rank over consecutive chunks of one sweep and
// assembles the result. It also returns every retained candidate in sweep
// order.
func Detect(
	chunks [][]float64,
	distance, keep int,
) (
	Sequence, []Candidate, error,
) {

	ranked := make([][]Candidate, 0, len(chunks))
	offset := 0

	for i, chunk := range chunks {
		found, err := Find(chunk, distance)
		if err != nil {
			return Sequence{}, nil, fmt.Errorf("chunk %d: %w", i+1, err)
		}

		r, err := Rank(chunk, found, offset, keep)
		if err != nil {
			return Sequence{}, nil, fmt.Errorf("chunk %d: %w", i+1, err)
		}

		ranked = append(ranked, r)
		offset += len(chunk)
	}

	seq, err := Assemble(ranked)
	if err != nil {
		return Sequence{}, nil, err
	}

	var kept []Candidate
	for _, r := range ranked {
		kept = append(kept, r...)
	}
	sort.Slice(kept, func(a, b int) bool {
		return kept[a].Global < kept[b].Global
	})

	return seq, kept, nil
}
