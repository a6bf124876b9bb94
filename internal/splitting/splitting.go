// Package splitting measures the frequency separation of symmetric cluster
// pairs of a multiplet and compares it between the idle and active sweeps.
package splitting

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/HamletTheHamster/esr-splitting/internal/dips"
)

var (
	ErrIndexRange  = errors.New("splitting: dip index outside the frequency axis")
	ErrUnknownUnit = errors.New("splitting: unknown frequency unit")
)

// Metrics holds the separation of clusters 1-6, 2-5 and 3-4 in Hz.
type Metrics struct {
	Delta16 float64
	Delta25 float64
	Delta34 float64
}

func (m Metrics) Values() [3]float64 {
	return [3]float64{m.Delta16, m.Delta25, m.Delta34}
}

// Compute averages the frequencies of every cluster of seq and returns the
// separations of the symmetric cluster pairs.
func Compute(
	seq dips.Sequence,
	freq []float64,
) (
	Metrics, error,
) {

	if seq.Max() >= len(freq) {
		return Metrics{}, fmt.Errorf("%w: index %d, %d frequencies", ErrIndexRange, seq.Max(), len(freq))
	}

	var centers [dips.Clusters]float64
	for k := range centers {
		for _, i := range seq.Cluster(k) {
			centers[k] += freq[i]
		}
		centers[k] /= dips.ClusterSize
	}

	return fromClusters(centers), nil
}

// FromCenters computes the same separations from 18 fitted dip centers.
func FromCenters(
	centers []float64,
) (
	Metrics, error,
) {

	if len(centers) != dips.Count {
		return Metrics{}, fmt.Errorf("%w: have %d centers", dips.ErrWrongPeakCount, len(centers))
	}

	sorted := append([]float64(nil), centers...)
	sort.Float64s(sorted)

	var clusters [dips.Clusters]float64
	for k := range clusters {
		for _, c := range sorted[k*dips.ClusterSize : (k+1)*dips.ClusterSize] {
			clusters[k] += c
		}
		clusters[k] /= dips.ClusterSize
	}

	return fromClusters(clusters), nil
}

func fromClusters(c [dips.Clusters]float64) Metrics {
	return Metrics{
		Delta16: math.Abs(c[0] - c[5]),
		Delta25: math.Abs(c[1] - c[4]),
		Delta34: math.Abs(c[2] - c[3]),
	}
}

// Unit is the frequency unit results are reported in.
type Unit string

const (
	Hz  Unit = "Hz"
	KHz Unit = "kHz"
	MHz Unit = "MHz"
	GHz Unit = "GHz"
)

var scales = map[Unit]float64{Hz: 1, KHz: 1e-3, MHz: 1e-6, GHz: 1e-9}

func ParseUnit(s string) (Unit, error) {
	for u := range scales {
		if strings.EqualFold(string(u), s) {
			return u, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
}

// Scale converts Hz to u.
func (u Unit) Scale() float64 {
	if s, ok := scales[u]; ok {
		return s
	}
	return 1
}

// Comparison is active - idle for each separation, in Unit.
type Comparison struct {
	Delta16 float64
	Delta25 float64
	Delta34 float64
	Unit    Unit
}

func Compare(
	idle, active Metrics,
	unit Unit,
) Comparison {

	s := unit.Scale()

	return Comparison{
		Delta16: (active.Delta16 - idle.Delta16) * s,
		Delta25: (active.Delta25 - idle.Delta25) * s,
		Delta34: (active.Delta34 - idle.Delta34) * s,
		Unit:    unit,
	}
}
