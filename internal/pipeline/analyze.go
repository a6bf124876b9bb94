// Package pipeline runs the dip analysis of one sweep and drives it over
// every idle and active file pair.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/HamletTheHamster/esr-splitting/internal/dataset"
	"github.com/HamletTheHamster/esr-splitting/internal/dips"
	"github.com/HamletTheHamster/esr-splitting/internal/render"
	"github.com/HamletTheHamster/esr-splitting/internal/spectrum"
	"github.com/HamletTheHamster/esr-splitting/internal/splitting"
)

// Params are the analysis settings shared by every sweep of a run.
type Params struct {
	Window       int
	Order        int
	ClipFraction float64
	Distance     int
	Keep         int
	Pixel        []int
	Axis         int
	Unit         splitting.Unit
}

func DefaultParams() Params {
	return Params{
		Window:       15,
		Order:        3,
		ClipFraction: spectrum.DefaultClipFraction,
		Distance:     dips.DefaultDistance,
		Keep:         dips.ClusterSize,
		Pixel:        []int{0, 0},
		Axis:         1,
		Unit:         splitting.GHz,
	}
}

type Condition string

const (
	Idle   Condition = "idle"
	Active Condition = "active"
)

// Brush is the plot color index of the condition.
func (c Condition) Brush() int {
	if c == Active {
		return render.Active
	}
	return render.Idle
}

// Analysis is everything derived from one sweep up to the dip metrics.
type Analysis struct {
	Condition  Condition
	Stem       string
	Shape      []int
	Stats      []spectrum.Stats
	Plane      spectrum.Plane
	Raw        spectrum.Spectrum
	Clip       int
	Spectrum   spectrum.Spectrum
	Boundaries spectrum.Boundaries
	Sequence   dips.Sequence
	Candidates []dips.Candidate
	Metrics    splitting.Metrics
}

// Analyze normalizes, smooths and clips the sweep, then locates its 18 dips
// and computes their cluster splittings.
func Analyze(
	ctx context.Context,
	p Params,
	cond Condition,
	scan dataset.Scan,
	logger *zap.Logger,
) (
	Analysis, error,
) {

	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("stem", scan.Stem), zap.String("condition", string(cond)))

	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}

	a := Analysis{Condition: cond, Stem: scan.Stem, Shape: append([]int(nil), scan.Cube.Shape...)}

	// Statistics
	stats, err := spectrum.ChannelStats(scan.Cube)
	if err != nil {
		return Analysis{}, fmt.Errorf("statistics: %w", err)
	}
	a.Stats = stats
	for _, s := range stats {
		logger.Debug("channel statistics",
			zap.Int("channel", s.Channel),
			zap.Float64("mean", s.Mean),
			zap.Float64("std", s.StdDev),
		)
	}

	if len(scan.Cube.Shape) >= 3 {
		plane, err := scan.Cube.Image(0, make([]int, len(scan.Cube.Shape)-3)...)
		if err != nil {
			logger.Debug("no camera image", zap.Error(err))
		} else {
			a.Plane = plane
		}
	}

	// Normalize
	field, err := spectrum.Normalize(scan.Cube, p.Axis)
	if err != nil {
		return Analysis{}, fmt.Errorf("normalize: %w", err)
	}

	trace, err := field.Trace(p.Pixel...)
	if err != nil {
		return Analysis{}, fmt.Errorf("trace: %w", err)
	}

	a.Raw, err = spectrum.New(scan.Freq, trace)
	if err != nil {
		return Analysis{}, fmt.Errorf("trace: %w", err)
	}

	// Smooth
	smoothed, err := spectrum.Smooth(a.Raw.Intensity, p.Window, p.Order)
	if err != nil {
		return Analysis{}, fmt.Errorf("smooth: %w", err)
	}
	s := spectrum.Spectrum{Freq: a.Raw.Freq, Intensity: smoothed}

	// Clip
	a.Clip, err = spectrum.ClipAmount(scan.Steps, p.ClipFraction)
	if err != nil {
		return Analysis{}, fmt.Errorf("clip: %w", err)
	}

	a.Spectrum, a.Boundaries, err = spectrum.Clip(s, scan.Steps, a.Clip)
	if err != nil {
		return Analysis{}, fmt.Errorf("clip: %w", err)
	}
	logger.Debug("clipped", zap.Int("clip", a.Clip), zap.Ints("boundaries", a.Boundaries))

	// Detect
	chunks, err := spectrum.Chunk(a.Spectrum.Intensity, a.Boundaries)
	if err != nil {
		return Analysis{}, fmt.Errorf("chunk: %w", err)
	}

	a.Sequence, a.Candidates, err = dips.Detect(chunks, p.Distance, p.Keep)
	if err != nil {
		return Analysis{}, fmt.Errorf("detect: %w", err)
	}
	logger.Debug("dips", zap.Ints("indices", a.Sequence.Indices()))

	a.Metrics, err = splitting.Compute(a.Sequence, a.Spectrum.Freq)
	if err != nil {
		return Analysis{}, fmt.Errorf("splitting: %w", err)
	}

	return a, nil
}
