package evolver

import (
	"fmt"
	"math"

	"github.com/forbes-group/timeode/internal/state"
)

// Options configures evolver construction. The zero value gives the
// defaults: start at t=0, copy the initial state, no normalization, full
// Runge-Kutta bootstrap, direct (unfused) stepping.
type Options struct {
	// T0 is the initial time.
	T0 float64

	// Normalize applies the state's Normalize after every step. The state
	// must implement state.Normalizer.
	Normalize bool

	// NoCopy hands ownership of the initial state to the evolver instead
	// of copying it. The caller must not touch the state afterwards.
	NoCopy bool

	// NoRungeKutta (ABM only) skips the Runge-Kutta bootstrap and seeds
	// the history as if the previous steps were stationary. This is an
	// accuracy/startup-cost tradeoff appropriate only when the true
	// initial derivatives are negligible or unknown.
	NoRungeKutta bool

	// Fuse (ABM only) evaluates the predictor/corrector arithmetic through
	// compiled fused expressions, one pass per array. The state must
	// implement state.Applier and the backend must be available; callers
	// typically pass expr.Available() here.
	Fuse bool
}

// base carries the bookkeeping shared by both evolvers: the current time,
// the fixed step, and the normalization policy.
type base struct {
	t, dt     float64
	normalize bool
}

// T returns the current time.
func (b *base) T() float64 { return b.t }

// Dt returns the fixed step size.
func (b *base) Dt() float64 { return b.dt }

// run drives the fixed-step loop. Each step derives its time analytically
// from the step index rather than accumulating dt, and the cumulative
// result is still validated before the final time is stamped onto the
// current state. cur is consulted after the loop because the ABM evolver's
// state changes identity as its ring rotates.
func (b *base) run(steps int, step func(k int, first, final bool), cur func() state.State) error {
	if steps <= 1 {
		return fmt.Errorf("%w (got %d)", ErrTooFewSteps, steps)
	}
	t0 := b.t
	for k := 0; k < steps; k++ {
		step(k, k == 0, k == steps-1)
	}
	want := t0 + float64(steps)*b.dt
	if math.Abs(b.t-want) > 1e-10*math.Max(1, math.Abs(want)) {
		return &StepError{Step: steps, Time: b.t, Wrapped: ErrTimeDrift}
	}
	b.t = want
	cur().SetTime(b.t)
	return nil
}

// computeDy stamps y with the evaluation time, marks it read-only for the
// duration of the derivative computation (restoring the prior flag even if
// the computation panics), and writes y' into dy. The read-only window is
// advisory: it exists to catch derivative functions that mutate their
// input.
func computeDy(y state.State, t float64, dy state.State) state.State {
	ay := y.(state.ABMState)
	y.SetTime(t)
	prev := y.Writeable()
	y.SetWriteable(false)
	defer y.SetWriteable(prev)
	return ay.ComputeDy(dy)
}

// checkNormalize validates the normalization policy against the state's
// capabilities at construction time. The capability is re-asserted per use
// because the ABM evolver's current state changes identity as its history
// ring rotates.
func checkNormalize(y state.State, opts Options) error {
	if !opts.Normalize {
		return nil
	}
	if _, ok := y.(state.Normalizer); !ok {
		return fmt.Errorf("%w (%T)", ErrNotNormalizable, y)
	}
	return nil
}
