package ik

import (
	"context"

	"github.com/golang/geo/r3"

	"github.com/armsim/armsim/logging"
)

// Solve runs a complete search synchronously, stepping until the search ends or ctx is done. The
// budget is options.MaxIterations. If ctx is done first the search is cancelled and the context
// error is returned along with the last result.
func Solve(
	ctx context.Context,
	fk Kinematics,
	target r3.Vector,
	seed []float64,
	options Options,
	logger logging.Logger,
) (StepResult, error) {
	solver, err := NewSolver(fk, options, logger)
	if err != nil {
		return StepResult{}, err
	}
	if err := solver.Start(target, seed, 0); err != nil {
		return StepResult{}, err
	}
	result := StepResult{Angles: solver.Angles(), Status: Running}
	for {
		if err := ctx.Err(); err != nil {
			solver.Cancel()
			result.Status = Cancelled
			return result, err
		}
		result, err = solver.Step()
		if err != nil {
			return result, err
		}
		if result.Status.Terminal() {
			return result, nil
		}
	}
}
