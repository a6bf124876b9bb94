package fit

import (
	"context"
	"fmt"
	"math"

	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/mat"

	"github.com/HamletTheHamster/esr-splitting/internal/dips"
)

// DefaultMaxEvaluations bounds the residual evaluations of one fit.
const DefaultMaxEvaluations = 200000

// Result is a converged multiplet fit.
type Result struct {
	Params []Params
	// X is the flat parameter vector behind Params.
	X []float64
	// Covariance is the 54x54 parameter covariance, scaled by the residual
	// variance.
	Covariance  *mat.SymDense
	Cost        float64
	Evaluations int
}

// Centers lists the fitted dip centers in parameter order.
func (r Result) Centers() []float64 {
	c := make([]float64, len(r.Params))
	for i, p := range r.Params {
		c[i] = p.Center
	}
	return c
}

// StdErr returns the standard error of parameter i.
func (r Result) StdErr(i int) float64 {
	return math.Sqrt(r.Covariance.At(i, i))
}

type Fitter struct {
	solver         Solver
	maxEvaluations int
}

type FitterOption func(*Fitter)

func WithMaxEvaluations(n int) FitterOption {
	return func(f *Fitter) {
		if n > 0 {
			f.maxEvaluations = n
		}
	}
}

// NewFitter returns a Fitter that delegates the minimization to solver, or to
// Levenberg-Marquardt when solver is nil.
func NewFitter(
	solver Solver,
	opts ...FitterOption,
) *Fitter {

	if solver == nil {
		solver = LMSolver{}
	}

	f := &Fitter{solver: solver, maxEvaluations: DefaultMaxEvaluations}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fit fits the multiplet at seq, starting from InitialGuess.
func (f *Fitter) Fit(
	ctx context.Context,
	freq, intensity []float64,
	seq dips.Sequence,
) (
	Result, error,
) {

	guess, err := InitialGuess(freq, intensity, seq)
	if err != nil {
		return Result{}, err
	}

	return f.FitFrom(ctx, freq, intensity, guess)
}

// FitFrom fits the multiplet starting from an explicit parameter vector.
func (f *Fitter) FitFrom(
	ctx context.Context,
	freq, intensity, guess []float64,
) (
	Result, error,
) {

	if len(guess) != ParamCount {
		return Result{}, fmt.Errorf("%w: have %d, want %d", ErrWrongParamCount, len(guess), ParamCount)
	}

	if len(freq) != len(intensity) {
		return Result{}, fmt.Errorf(
			"fit: %d frequencies for %d intensities", len(freq), len(intensity),
		)
	}

	residual := residuals(freq, intensity)

	solution, err := f.solver.Solve(ctx, Problem{
		Dim:            ParamCount,
		Size:           len(freq),
		Residual:       residual,
		Init:           guess,
		MaxEvaluations: f.maxEvaluations,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrFitFailed, err)
	}

	if len(solution.X) != ParamCount {
		return Result{}, fmt.Errorf(
			"%w: solver returned %d parameters", ErrFitFailed, len(solution.X),
		)
	}

	r := make([]float64, len(freq))
	residual(r, solution.X)

	var ssr float64
	for _, v := range r {
		ssr += v * v
	}

	if math.IsNaN(ssr) || math.IsInf(ssr, 0) {
		return Result{}, fmt.Errorf("%w: residual is not finite", ErrFitFailed)
	}

	cov, err := covariance(residual, solution.X, len(freq), ssr)
	if err != nil {
		return Result{}, err
	}

	params, _ := Unpack(solution.X)

	return Result{
		Params:      params,
		X:           solution.X,
		Covariance:  cov,
		Cost:        ssr,
		Evaluations: solution.Evaluations,
	}, nil
}

// residuals returns model - data at every sample.
func residuals(
	freq, intensity []float64,
) func(dst, params []float64) {

	return func(dst, params []float64) {
		if err := Model(dst, freq, params); err != nil {
			for i := range dst {
				dst[i] = math.NaN()
			}
			return
		}
		for i := range dst {
			dst[i] -= intensity[i]
		}
	}
}

// covariance estimates inv(JᵀJ) * ssr/(m-n) at x. With no more samples than
// parameters the residual variance is undefined and the covariance is +Inf.
func covariance(
	residual func(dst, params []float64),
	x []float64,
	size int,
	ssr float64,
) (
	*mat.SymDense, error,
) {

	n := len(x)

	jac := mat.NewDense(size, n, nil)
	nj := lm.NumJac{Func: residual}
	nj.Jac(jac, x)

	jtj := mat.NewSymDense(n, nil)
	jtj.SymOuterK(1, jac.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(jtj); !ok {
		return nil, fmt.Errorf("%w: singular jacobian at the optimum", ErrFitFailed)
	}

	cov := mat.NewSymDense(n, nil)
	if err := chol.InverseTo(cov); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFitFailed, err)
	}

	dof := size - n
	if dof <= 0 {
		inf := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				inf.SetSym(i, j, math.Inf(1))
			}
		}
		return inf, nil
	}

	cov.ScaleSym(ssr/float64(dof), cov)

	return cov, nil
}
