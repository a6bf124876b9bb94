package fit

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
)

// Problem is a nonlinear least squares problem: minimize the sum of squares
// of the Size residuals written by Residual for Dim parameters.
type Problem struct {
	Dim            int
	Size           int
	Residual       func(dst, params []float64)
	Init           []float64
	MaxEvaluations int
}

// Solution is the optimum reported by a Solver.
type Solution struct {
	X           []float64
	Evaluations int
}

// Solver minimizes a Problem. Implementations return an error when the
// minimization did not converge; callers do not retry.
type Solver interface {
	Solve(ctx context.Context, p Problem) (Solution, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, p Problem) (Solution, error)

func (f SolverFunc) Solve(ctx context.Context, p Problem) (Solution, error) {
	return f(ctx, p)
}

// NewSolver returns the solver registered under name: "lm" or "gonum".
func NewSolver(
	name string,
) (
	Solver, error,
) {

	switch strings.ToLower(name) {
	case "", "lm":
		return LMSolver{}, nil
	case "gonum", "lbfgs":
		return GonumSolver{}, nil
	}

	return nil, fmt.Errorf("fit: unknown solver %q", name)
}

// evaluations counts residual calls. The Jacobian of lm evaluates columns
// concurrently.
type evaluations struct{ n atomic.Int64 }

func (e *evaluations) count() int { return int(e.n.Load()) }

// counted wraps a residual function and counts its calls.
func counted(
	f func(dst, params []float64),
	n *evaluations,
) func(dst, params []float64) {
	return func(dst, params []float64) {
		n.n.Add(1)
		f(dst, params)
	}
}
