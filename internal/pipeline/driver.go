package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HamletTheHamster/esr-splitting/internal/dataset"
	"github.com/HamletTheHamster/esr-splitting/internal/fit"
	"github.com/HamletTheHamster/esr-splitting/internal/render"
	"github.com/HamletTheHamster/esr-splitting/internal/splitting"
)

var ErrPanic = errors.New("pipeline: recovered panic")

// FitSummary is one condition's multiplet fit and the splittings of its
// fitted centers.
type FitSummary struct {
	Result  fit.Result
	Metrics splitting.Metrics
	Curve   []float64
}

// PairResult is the outcome of one idle and active pair. Err is set when any
// stage failed; the fields after the failing stage are then zero.
type PairResult struct {
	Index  int
	Idle   string
	Active string

	IdleAnalysis   Analysis
	ActiveAnalysis Analysis
	Diff           splitting.Comparison

	IdleFit    *FitSummary
	ActiveFit  *FitSummary
	FitDiff    *splitting.Comparison
	FitElapsed time.Duration

	// Elapsed covers loading through the dip comparison, without fitting.
	Elapsed time.Duration
	Err     error
}

type Driver struct {
	params   Params
	load     dataset.Loader
	fitter   *fit.Fitter
	sink     render.Sink
	logger   *zap.Logger
	workers  int
	onResult func(PairResult)
}

type Option func(*Driver)

func WithLoader(l dataset.Loader) Option {
	return func(d *Driver) { d.load = l }
}

// WithFitter enables the multiplet fit. Without it pairs stop after the dip
// comparison.
func WithFitter(f *fit.Fitter) Option {
	return func(d *Driver) { d.fitter = f }
}

func WithSink(s render.Sink) Option {
	return func(d *Driver) { d.sink = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

func WithWorkers(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithResultHook calls fn for every finished pair, in completion order, from
// the goroutine running Run.
func WithResultHook(fn func(PairResult)) Option {
	return func(d *Driver) { d.onResult = fn }
}

func NewDriver(
	params Params,
	opts ...Option,
) *Driver {

	d := &Driver{
		params:  params,
		load:    dataset.Load,
		sink:    render.Nop{},
		logger:  zap.NewNop(),
		workers: 1,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Run processes the cross product of set. A failing pair is logged and
// recorded in its result; the other pairs still run. The results are in
// cross-product order. When ctx is canceled no further pairs are started and
// the context error is returned with the pairs finished so far.
func (d *Driver) Run(
	ctx context.Context,
	set dataset.FileSet,
) (
	[]PairResult, error,
) {

	pairs := set.Pairs()

	jobs := make(chan int)
	resultCh := make(chan PairResult, len(pairs))
	var wg sync.WaitGroup

	for w := 0; w < d.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				resultCh <- d.pair(ctx, i, pairs[i])
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range pairs {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Collect the results
	var results []PairResult
	for r := range resultCh {
		if d.onResult != nil {
			d.onResult(r)
		}
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	if len(results) < len(pairs) {
		return results, ctx.Err()
	}

	return results, nil
}

// pair runs one pair inside its own failure boundary.
func (d *Driver) pair(
	ctx context.Context,
	index int,
	p dataset.Pair,
) (
	r PairResult,
) {

	r = PairResult{Index: index, Idle: p.Idle, Active: p.Active}
	logger := d.logger.With(zap.String("idle", p.Idle), zap.String("active", p.Active))

	defer func() {
		if v := recover(); v != nil {
			r.Err = fmt.Errorf("%w: %v", ErrPanic, v)
		}
		if r.Err != nil {
			logger.Error("pair failed", zap.Error(r.Err))
		}
	}()

	r.Err = d.process(ctx, &r, logger)

	return r
}

func (d *Driver) process(
	ctx context.Context,
	r *PairResult,
	logger *zap.Logger,
) error {

	start := time.Now()

	idle, err := d.analyze(ctx, r.Index, Idle, r.Idle, logger)
	if err != nil {
		return err
	}
	r.IdleAnalysis = idle

	active, err := d.analyze(ctx, r.Index, Active, r.Active, logger)
	if err != nil {
		return err
	}
	r.ActiveAnalysis = active

	r.Diff = splitting.Compare(idle.Metrics, active.Metrics, d.params.Unit)
	r.Elapsed = time.Since(start)

	logger.Info("dips compared",
		zap.Float64("delta16", r.Diff.Delta16),
		zap.Float64("delta25", r.Diff.Delta25),
		zap.Float64("delta34", r.Diff.Delta34),
		zap.String("unit", string(r.Diff.Unit)),
		zap.Duration("elapsed", r.Elapsed),
	)

	if d.fitter == nil {
		return nil
	}

	start = time.Now()

	if r.IdleFit, err = d.fit(ctx, r.Index, idle); err != nil {
		return err
	}
	if r.ActiveFit, err = d.fit(ctx, r.Index, active); err != nil {
		return err
	}

	diff := splitting.Compare(r.IdleFit.Metrics, r.ActiveFit.Metrics, d.params.Unit)
	r.FitDiff = &diff
	r.FitElapsed = time.Since(start)

	logger.Info("multiplets fitted",
		zap.Float64("idle_cost", r.IdleFit.Result.Cost),
		zap.Float64("active_cost", r.ActiveFit.Result.Cost),
		zap.Float64("delta16", diff.Delta16),
		zap.Duration("elapsed", r.FitElapsed),
	)

	return nil
}

func (d *Driver) analyze(
	ctx context.Context,
	index int,
	cond Condition,
	stem string,
	logger *zap.Logger,
) (
	Analysis, error,
) {

	scan, err := d.load(stem)
	if err != nil {
		return Analysis{}, fmt.Errorf("%s: %w", cond, err)
	}

	a, err := Analyze(ctx, d.params, cond, scan, logger)
	if err != nil {
		return Analysis{}, fmt.Errorf("%s %s: %w", cond, dataset.Base(stem), err)
	}

	name := figure(index, cond, stem)
	d.sink.Trace(name+"_trace", cond.Brush(), a.Raw)
	d.sink.Dips(name+"_dips", cond.Brush(), a.Spectrum, a.Sequence)
	if a.Plane.Rows > 0 {
		d.sink.Image(name+"_image", a.Plane)
	}

	return a, nil
}

func (d *Driver) fit(
	ctx context.Context,
	index int,
	a Analysis,
) (
	*FitSummary, error,
) {

	res, err := d.fitter.Fit(ctx, a.Spectrum.Freq, a.Spectrum.Intensity, a.Sequence)
	if err != nil {
		return nil, fmt.Errorf("%s fit: %w", a.Condition, err)
	}

	m, err := splitting.FromCenters(res.Centers())
	if err != nil {
		return nil, fmt.Errorf("%s fit: %w", a.Condition, err)
	}

	curve, err := fit.Curve(a.Spectrum.Freq, res.X)
	if err != nil {
		return nil, fmt.Errorf("%s fit: %w", a.Condition, err)
	}

	d.sink.Fit(figure(index, a.Condition, a.Stem)+"_fit", a.Condition.Brush(), a.Spectrum, curve)

	return &FitSummary{Result: res, Metrics: m, Curve: curve}, nil
}

// figure names the plots of one sweep within one pair.
func figure(index int, cond Condition, stem string) string {
	return fmt.Sprintf("pair%d_%s_%s", index+1, cond, dataset.Base(stem))
}
