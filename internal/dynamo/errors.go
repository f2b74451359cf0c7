package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrIntegrationDivergence indicates the retry budget of a single step was
	// exhausted before the local error tolerance could be met.
	ErrIntegrationDivergence = errors.New("dynamo: integration diverged")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrRejectTrial marks an attempt whose intermediate state could not be
	// evaluated. The stepper shrinks the step and retries.
	ErrRejectTrial = errors.New("dynamo: trial state rejected")

	// ErrSingularMatrix indicates the implicit iteration matrix could not be factorized.
	ErrSingularMatrix = errors.New("dynamo: iteration matrix is singular")

	// ErrInvalidHorizon indicates a step target at or before the current time.
	ErrInvalidHorizon = errors.New("dynamo: horizon must exceed current time")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// SimulationError wraps an error with step context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
