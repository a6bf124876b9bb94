package dips

import (
	"fmt"
	"sort"
)

const (
	ClusterSize = 3
	Clusters    = 6
	Count       = Clusters * ClusterSize
)

// Sequence is the ordered multiplet: 18 ascending sample indices into a
// clipped sweep, read as six consecutive clusters of three. Holding a
// Sequence guarantees the count; consumers do not re-check it.
type Sequence struct {
	idx [Count]int
}

// NewSequence validates and orders a set of dip indices.
func NewSequence(
	indices []int,
) (
	Sequence, error,
) {

	if len(indices) != Count {
		return Sequence{}, fmt.Errorf("%w: have %d, want %d", ErrWrongPeakCount, len(indices), Count)
	}

	var s Sequence
	copy(s.idx[:], indices)
	sort.Ints(s.idx[:])

	if s.idx[0] < 0 {
		return Sequence{}, fmt.Errorf("%w: negative index %d", ErrWrongPeakCount, s.idx[0])
	}

	return s, nil
}

func (s Sequence) Indices() []int {
	return append([]int(nil), s.idx[:]...)
}

func (s Sequence) At(i int) int {
	return s.idx[i]
}

// Cluster returns the three indices of cluster k, counted from 0.
func (s Sequence) Cluster(k int) [ClusterSize]int {
	var c [ClusterSize]int
	copy(c[:], s.idx[k*ClusterSize:(k+1)*ClusterSize])
	return c
}

// Max is the largest index in the sequence.
func (s Sequence) Max() int {
	return s.idx[Count-1]
}
