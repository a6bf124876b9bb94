package fit

import (
	"context"
	"fmt"

	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/optimize"
)

// LMSolver runs Levenberg-Marquardt with a central-difference Jacobian.
// Zero fields take the defaults below.
type LMSolver struct {
	Tau          float64
	Eps1         float64
	Eps2         float64
	ObjectiveTol float64
}

const (
	lmTau          = 1e-6
	lmEps          = 1e-8
	lmObjectiveTol = 1e-16
)

func (s LMSolver) Solve(
	ctx context.Context,
	p Problem,
) (
	sol Solution,
	err error,
) {

	if err := ctx.Err(); err != nil {
		return Solution{}, err
	}

	var calls evaluations
	f := counted(p.Residual, &calls)
	jacobian := lm.NumJac{Func: f}

	// The start costs one residual and one Jacobian of 2*Dim residuals. An
	// accepted step costs two residuals and a Jacobian, a rejected one a
	// single residual.
	jac := 2 * p.Dim
	iterations := (p.MaxEvaluations - jac - 1) / (jac + 2)
	if iterations < 1 {
		return Solution{}, fmt.Errorf(
			"levenberg-marquardt: %d evaluations do not cover one iteration", p.MaxEvaluations,
		)
	}

	toBeSolved := lm.LMProblem{
		Dim:        p.Dim,
		Size:       p.Size,
		Func:       f,
		Jac:        jacobian.Jac,
		InitParams: append([]float64(nil), p.Init...),
		Tau:        or(s.Tau, lmTau),
		Eps1:       or(s.Eps1, lmEps),
		Eps2:       or(s.Eps2, lmEps),
	}

	// lm panics on a singular damped normal matrix
	defer func() {
		if r := recover(); r != nil {
			sol = Solution{Evaluations: calls.count()}
			err = fmt.Errorf("levenberg-marquardt: %v", r)
		}
	}()

	results, err := lm.LM(toBeSolved, &lm.Settings{
		Iterations:   iterations,
		ObjectiveTol: or(s.ObjectiveTol, lmObjectiveTol),
	})
	n := calls.count()
	if err != nil {
		return Solution{Evaluations: n}, fmt.Errorf("levenberg-marquardt: %w", err)
	}

	if results.Status == optimize.IterationLimit {
		return Solution{Evaluations: n}, fmt.Errorf(
			"levenberg-marquardt: stopped before convergence: %v after %d evaluations", results.Status, n,
		)
	}

	if n > p.MaxEvaluations {
		return Solution{Evaluations: n}, fmt.Errorf(
			"levenberg-marquardt: %d evaluations exceed the limit of %d", n, p.MaxEvaluations,
		)
	}

	return Solution{X: results.X, Evaluations: n}, nil
}

func or(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
