package fit

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// GonumSolver minimizes half the residual sum of squares with gonum's
// LBFGS and a central-difference gradient.
type GonumSolver struct {
	GradientThreshold float64
}

func (s GonumSolver) Solve(
	ctx context.Context,
	p Problem,
) (
	Solution, error,
) {

	if err := ctx.Err(); err != nil {
		return Solution{}, err
	}

	// A gradient costs 2*Dim residuals, so a function and a gradient
	// evaluation together cost 2*Dim+1.
	budget := p.MaxEvaluations / (2*p.Dim + 1)
	if budget < 1 {
		return Solution{}, fmt.Errorf(
			"lbfgs: %d evaluations do not cover one gradient", p.MaxEvaluations,
		)
	}

	var calls evaluations
	r := make([]float64, p.Size)
	residual := counted(p.Residual, &calls)

	cost := func(x []float64) float64 {
		residual(r, x)
		var ssr float64
		for _, v := range r {
			ssr += v * v
		}
		return ssr / 2
	}

	problem := optimize.Problem{
		Func: cost,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, cost, x, &fd.Settings{Formula: fd.Central})
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations:   budget,
		GradEvaluations:   budget,
		GradientThreshold: or(s.GradientThreshold, 1e-12),
	}

	result, err := optimize.Minimize(problem, append([]float64(nil), p.Init...), settings, &optimize.LBFGS{})
	n := calls.count()
	if err != nil {
		return Solution{Evaluations: n}, fmt.Errorf("lbfgs: %w", err)
	}

	switch result.Status {
	case optimize.FunctionEvaluationLimit, optimize.GradientEvaluationLimit,
		optimize.IterationLimit, optimize.RuntimeLimit:
		return Solution{Evaluations: n}, fmt.Errorf("lbfgs: stopped before convergence: %v", result.Status)
	}

	if n > p.MaxEvaluations {
		return Solution{Evaluations: n}, fmt.Errorf(
			"lbfgs: %d evaluations exceed the limit of %d", n, p.MaxEvaluations,
		)
	}

	return Solution{X: result.X, Evaluations: n}, nil
}
