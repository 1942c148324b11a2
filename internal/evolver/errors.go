package evolver

import (
	"errors"
	"fmt"
)

// Configuration and contract errors for evolver construction and stepping.
var (
	// ErrNilState indicates construction with no initial state.
	ErrNilState = errors.New("evolver: nil initial state")

	// ErrTooFewSteps indicates Evolve was called with steps <= 1.
	ErrTooFewSteps = errors.New("evolver: evolve requires steps > 1")

	// ErrNotNormalizable indicates normalize was requested but the state
	// does not implement state.Normalizer.
	ErrNotNormalizable = errors.New("evolver: state does not support normalization")

	// ErrNotFusable indicates fused stepping was requested but the state
	// does not implement state.Applier.
	ErrNotFusable = errors.New("evolver: state does not support fused expressions")

	// ErrFusionUnavailable indicates fused stepping was requested but the
	// expression backend failed its startup probe.
	ErrFusionUnavailable = errors.New("evolver: expression backend unavailable")

	// ErrTimeDrift indicates the accumulated time diverged from
	// t0 + steps*dt beyond floating-point tolerance.
	ErrTimeDrift = errors.New("evolver: time drifted from t0 + steps*dt")
)

// StepError wraps an error with the step context it occurred in.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
