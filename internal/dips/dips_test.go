package dips_test

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/HamletTheHamster/esr-splitting/internal/dips"
)

// referenceMinima is a brute-force dip finder for signals without plateaus:
// strict interior minima, accepted deepest first unless an accepted dip lies
// closer than distance.
func referenceMinima(x []float64, distance int) []int {
	var cands []int
	for i := 1; i < len(x)-1; i++ {
		if x[i] < x[i-1] && x[i] < x[i+1] {
			cands = append(cands, i)
		}
	}

	sort.SliceStable(cands, func(a, b int) bool { return x[cands[a]] < x[cands[b]] })

	var accepted []int
	for _, c := range cands {
		ok := true
		for _, a := range accepted {
			d := c - a
			if d < 0 {
				d = -d
			}
			if d < distance {
				ok = false
				break
			}
		}
		if ok {
			accepted = append(accepted, c)
		}
	}

	sort.Ints(accepted)
	return accepted
}

func TestFind_Empty(t *testing.T) {
	if _, err := dips.Find(nil, 5); !errors.Is(err, dips.ErrEmptyChunk) {
		t.Fatalf("expected ErrEmptyChunk, got %v", err)
	}
}

func TestFind_EdgesAreNotDips(t *testing.T) {
	trace := []float64{2, 4, 6, 8, 10, 9, 7, 5, 3, 1}

	got, err := dips.Find(trace, 5)
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}

	want := referenceMinima(trace, 5)
	if !equalInts(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if len(got) != 0 {
		t.Fatalf("expected no interior dip, got %v", got)
	}
}

func TestFind_MatchesReferenceOnNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 20; trial++ {
		x := make([]float64, 100)
		for i := range x {
			x[i] = rng.NormFloat64() + float64(i)/100
		}

		for _, distance := range []int{1, 2, 5, 11} {
			got, err := dips.Find(x, distance)
			if err != nil {
				t.Fatalf("Find error: %v", err)
			}
			want := referenceMinima(x, distance)
			if !equalInts(got, want) {
				t.Fatalf("trial %d distance %d: expected %v, got %v", trial, distance, want, got)
			}
		}
	}
}

func TestFind_Cases(t *testing.T) {
	tests := []struct {
		name     string
		trace    []float64
		distance int
		want     []int
	}{
		{"odd plateau", []float64{3, 1, 1, 1, 3}, 1, []int{2}},
		{"even plateau", []float64{3, 1, 1, 3}, 1, []int{1}},
		{"open plateau", []float64{3, 1, 1, 1}, 1, nil},
		{"deepest suppresses", []float64{5, 1, 5, 2, 5, 0, 5}, 3, []int{1, 5}},
		{"tie keeps leftmost", []float64{5, 1, 5, 1, 5}, 3, []int{1}},
		{"far enough", []float64{5, 1, 5, 5, 1, 5}, 3, []int{1, 4}},
		{"distance below one", []float64{5, 1, 5, 1, 5}, 0, []int{1, 3}},
	}

	for _, tt := range tests {
		got, err := dips.Find(tt.trace, tt.distance)
		if err != nil {
			t.Fatalf("%s: Find error: %v", tt.name, err)
		}
		if !equalInts(got, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestRank_KeepsDeepest(t *testing.T) {
	chunk := []float64{9, 3, 9, 1, 9, 2, 9, 4, 9}

	got, err := dips.Rank(chunk, []int{1, 3, 5, 7}, 100, 3)
	if err != nil {
		t.Fatalf("Rank error: %v", err)
	}

	want := []dips.Candidate{
		{Local: 3, Global: 103, Height: 1},
		{Local: 5, Global: 105, Height: 2},
		{Local: 1, Global: 101, Height: 3},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidate %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestRank_TooFew(t *testing.T) {
	if _, err := dips.Rank([]float64{3, 1, 3}, []int{1}, 0, 3); !errors.Is(err, dips.ErrWrongPeakCount) {
		t.Fatalf("expected ErrWrongPeakCount, got %v", err)
	}
}

func TestNewSequence(t *testing.T) {
	if _, err := dips.NewSequence(make([]int, 17)); !errors.Is(err, dips.ErrWrongPeakCount) {
		t.Fatalf("expected ErrWrongPeakCount, got %v", err)
	}

	idx := make([]int, dips.Count)
	for i := range idx {
		idx[i] = 100 - 5*i
	}

	seq, err := dips.NewSequence(idx)
	if err != nil {
		t.Fatalf("NewSequence error: %v", err)
	}
	if seq.At(0) != 15 || seq.Max() != 100 {
		t.Fatalf("sequence not sorted: %v", seq.Indices())
	}
	if c := seq.Cluster(1); c != [3]int{30, 35, 40} {
		t.Fatalf("unexpected cluster 1: %v", c)
	}
	if idx[0] != 100 {
		t.Fatalf("input slice reordered")
	}
}

// multiplet builds six chunks of width 30, each with three dips of
// decreasing depth plus a shallow decoy.
func multiplet() ([][]float64, []int) {
	var chunks [][]float64
	var want []int

	for c := 0; c < dips.Clusters; c++ {
		chunk := make([]float64, 30)
		for i := range chunk {
			chunk[i] = 10
		}

		for k, pos := range []int{6, 13, 20} {
			depth := 3. - float64(k)*0.5
			for i := range chunk {
				d := float64(i - pos)
				chunk[i] -= depth / (1 + d*d)
			}
			want = append(want, c*30+pos)
		}

		// decoy
		chunk[26] -= 0.2

		chunks = append(chunks, chunk)
	}

	return chunks, want
}

func TestDetect_AssemblesMultiplet(t *testing.T) {
	chunks, want := multiplet()

	seq, kept, err := dips.Detect(chunks, dips.DefaultDistance, dips.ClusterSize)
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}

	if !equalInts(seq.Indices(), want) {
		t.Fatalf("expected %v, got %v", want, seq.Indices())
	}
	if len(kept) != dips.Count {
		t.Fatalf("expected %d candidates, got %d", dips.Count, len(kept))
	}
	for i, c := range kept {
		if c.Global != want[i] || c.Global-c.Local != (i/3)*30 {
			t.Fatalf("candidate %d has wrong offset: %+v", i, c)
		}
	}
}

func TestDetect_UnderfilledChunkNamed(t *testing.T) {
	chunks, _ := multiplet()
	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 10 - math.Abs(float64(i-15))*0.01
	}
	chunks[1] = flat

	_, _, err := dips.Detect(chunks, dips.DefaultDistance, dips.ClusterSize)
	if !errors.Is(err, dips.ErrWrongPeakCount) {
		t.Fatalf("expected ErrWrongPeakCount, got %v", err)
	}
	if !strings.Contains(err.Error(), "chunk 2") {
		t.Fatalf("expected error to name chunk 2, got %v", err)
	}
}

func TestAssemble_WrongTotal(t *testing.T) {
	ranked := [][]dips.Candidate{{{Global: 1}, {Global: 2}, {Global: 3}}}

	if _, err := dips.Assemble(ranked); !errors.Is(err, dips.ErrWrongPeakCount) {
		t.Fatalf("expected ErrWrongPeakCount, got %v", err)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
