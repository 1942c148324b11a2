package evolver

import (
	"fmt"

	"github.com/forbes-group/timeode/internal/expr"
	"github.com/forbes-group/timeode/internal/state"
)

// ABM is a 4th-order Adams-Bashforth-Moulton predictor-corrector evolver
// with a classical Runge-Kutta bootstrap.
//
// History lives in three fixed-capacity rings, most recent entry first:
// the 2 latest states (ys), the 4 latest derivatives (dys), and the 2
// latest scaled predictor-corrector differences 161/170*(c-p) (dcps).
// A warm step retires exactly one buffer per ring: the retiring slots are
// used as scratch for the new values, and the rings rotate only once the
// step has fully succeeded, so a derivative computation that panics leaves
// the observable history intact.
//
// After bootstrap the evolver owns 8 state-sized buffers (9 on the fused
// path); a bootstrap step peaks at 10. No buffers are allocated during
// warm stepping.
type ABM struct {
	base
	y0   state.ABMState // pending initial state until init
	ys   ring
	dys  ring
	dcps ring

	noRK bool
	fuse bool

	// Predictor, modifier and corrector coefficients, derived from dt once
	// at init. The fractions (119/48, 161/170, ...) come from matching the
	// local truncation errors of the 4th-order AB and AM formulas and are
	// exact.
	ap [4]float64
	am float64
	ac [4]float64

	// Bootstrap scratch: stage point and stage derivative, released (or
	// repurposed as the fusion buffer) once the history is warm.
	ytmp, kbuf state.State

	// Fused path: compiled expressions for the predictor, the correction
	// term, and the final combination, plus the one extra buffer the
	// output-distinct-from-input rule requires.
	exprM, exprDcp, exprY *expr.Expression
	tmp                   state.State

	inited bool
}

// NewABM returns an ABM evolver for y with fixed step dt. The initial
// state is copied unless opts.NoCopy is set.
func NewABM(y state.ABMState, dt float64, opts Options) (*ABM, error) {
	if y == nil {
		return nil, ErrNilState
	}
	if err := checkNormalize(y, opts); err != nil {
		return nil, err
	}
	if opts.Fuse {
		if _, ok := y.(state.Applier); !ok {
			return nil, fmt.Errorf("%w (%T)", ErrNotFusable, y)
		}
		if !expr.Available() {
			return nil, ErrFusionUnavailable
		}
	}
	if !opts.NoCopy {
		y = y.Copy().(state.ABMState)
	}
	y.SetTime(opts.T0)
	return &ABM{
		base: base{t: opts.T0, dt: dt, normalize: opts.Normalize},
		y0:   y,
		noRK: opts.NoRungeKutta,
		fuse: opts.Fuse,
	}, nil
}

// Y returns the most recent state, live from the history ring, never a
// disconnected copy.
func (e *ABM) Y() state.State {
	if e.inited {
		return e.ys.at(0)
	}
	return e.y0
}

// SetY replaces the current state and drops the entire accumulated
// history, returning the evolver to the bootstrapping phase.
func (e *ABM) SetY(y state.ABMState) {
	e.y0 = y
	e.ys.reset()
	e.dys.reset()
	e.dcps.reset()
	e.ytmp, e.kbuf, e.tmp = nil, nil, nil
	e.inited = false
}

func (e *ABM) init() error {
	e.deriveCoefficients()

	y0 := e.y0
	e.ys = newRing(2)
	e.dys = newRing(4)
	e.dcps = newRing(2)

	if e.noRK {
		// Seed the history as if the previous steps were stationary: zero
		// derivatives, zero corrections, and a duplicated state.
		e.ys.push(y0.Copy())
		e.ys.push(y0)
		for i := 0; i < 4; i++ {
			e.dys.push(state.ZeroLike(y0))
		}
		e.dcps.push(state.ZeroLike(y0))
		e.dcps.push(state.ZeroLike(y0))
		if e.fuse {
			e.tmp = y0.Empty()
		}
	} else {
		e.ys.push(y0)
		e.dcps.push(state.ZeroLike(y0))
		e.ytmp = y0.Empty()
		e.kbuf = y0.Empty()
	}

	if e.fuse {
		if err := e.compileExpressions(y0.Dtype()); err != nil {
			return err
		}
	}
	e.inited = true
	return nil
}

// deriveCoefficients computes the step-scaled ABM coefficients: the
// Adams-Bashforth predictor weights and the Milne-modified Adams-Moulton
// corrector weights.
func (e *ABM) deriveCoefficients() {
	h := e.dt
	p := [4]float64{119, -99, 69, -17}
	for i := range p {
		e.ap[i] = h / 48 * p[i]
	}
	g := h * 161 / 48 / 170
	e.am = g * 17
	c := [4]float64{-68, 102, -68, 17}
	for i := range c {
		e.ac[i] = g * c[i]
	}
}

func (e *ABM) compileExpressions(dt state.Dtype) error {
	consts := map[string]complex128{"h": complex(e.dt, 0)}
	var err error
	e.exprM, err = expr.New(
		"(y0+y1)/2 + h/48*(119*dy0-99*dy1+69*dy2-17*dy3) + dcp0",
		[]string{"y0", "y1", "dy0", "dy1", "dy2", "dy3", "dcp0"}, consts, dt)
	if err != nil {
		return err
	}
	e.exprDcp, err = expr.New(
		"h*161/48/170*(17*dm-68*dy0+102*dy1-68*dy2+17*dy3)",
		[]string{"dm", "dy0", "dy1", "dy2", "dy3"}, consts, dt)
	if err != nil {
		return err
	}
	e.exprY, err = expr.New(
		"m + dcp - dcp0",
		[]string{"m", "dcp", "dcp0"}, consts, dt)
	return err
}

// Evolve advances the state by steps fixed steps of dt. steps must be
// greater than 1.
func (e *ABM) Evolve(steps int) error {
	if !e.inited {
		if err := e.init(); err != nil {
			return err
		}
	}
	t0 := e.t
	return e.run(steps, func(k int, first, final bool) {
		if e.dys.len() < 4 {
			e.stepRungeKutta()
			if e.dys.len() == 4 {
				e.finishBootstrap()
			}
		} else if e.fuse {
			e.stepFused()
		} else {
			e.stepDirect()
		}
		e.t = t0 + float64(k+1)*e.dt
	}, e.Y)
}

// stepRungeKutta takes one classical 4-stage RK4 step, accumulating the
// stage combinations in place so that a single stage point and a single
// stage derivative buffer serve all four stages.
func (e *ABM) stepRungeKutta() {
	t := e.t
	h := e.dt
	ycur := e.ys.at(0)

	if e.dys.len() < e.ys.len() {
		// First call: sample the derivative of the initial state.
		e.dys.push(computeDy(ycur, t, ycur.Empty()))
	}
	dy0 := e.dys.at(0)

	// The accumulator reuses the retiring state buffer once the state ring
	// is full; only the very first bootstrap step allocates one.
	var acc state.State
	reuse := e.ys.full()
	if reuse {
		acc = e.ys.last()
		acc.CopyFrom(ycur)
	} else {
		acc = ycur.Copy()
	}

	ytmp, k := e.ytmp, e.kbuf

	acc.Axpy(dy0, complex(h/6, 0))
	ytmp.CopyFrom(ycur)
	ytmp.Axpy(dy0, complex(h/2, 0))

	k = computeDy(ytmp, t+h/2, k)
	acc.Axpy(k, complex(h/3, 0))
	ytmp.CopyFrom(ycur)
	ytmp.Axpy(k, complex(h/2, 0))

	k = computeDy(ytmp, t+h/2, k)
	acc.Axpy(k, complex(h/3, 0))
	ytmp.CopyFrom(ycur)
	ytmp.Axpy(k, complex(h, 0))

	k = computeDy(ytmp, t+h, k)
	acc.Axpy(k, complex(h/6, 0))

	if e.normalize {
		acc.(state.Normalizer).Normalize()
	}

	dy := computeDy(acc, t+h, acc.Empty())

	// Commit.
	if reuse {
		e.ys.rotateIn(acc)
	} else {
		e.ys.push(acc)
	}
	e.dys.push(dy)
	if e.dcps.full() {
		old := e.dcps.last()
		old.Scale(0)
		e.dcps.rotateIn(old)
	} else {
		e.dcps.push(state.ZeroLike(ycur))
	}
}

// finishBootstrap releases the Runge-Kutta scratch once four derivatives
// are stored; the fused path keeps one of the buffers as its extra array.
func (e *ABM) finishBootstrap() {
	if e.fuse && e.tmp == nil {
		e.tmp = e.ytmp
	}
	e.ytmp = nil
	e.kbuf = nil
}

// stepDirect performs one warm ABM step with explicit axpy arithmetic.
//
// Predictor (Adams-Bashforth, with the previous correction as modifier):
//
//	m = (y0+y1)/2 + h/48*(119 dy0 - 99 dy1 + 69 dy2 - 17 dy3) + dcp0
//
// Correction term (Milne-modified Adams-Moulton):
//
//	dcp = h*161/(48*170) * (17 m' - 68 dy0 + 102 dy1 - 68 dy2 + 17 dy3)
//
// New state: y = m + dcp - dcp0.
func (e *ABM) stepDirect() {
	t := e.t
	h := e.dt

	// The retiring state buffer accumulates the predictor, then becomes
	// the new state.
	m := e.ys.last()
	m.Scale(0.5)
	m.Axpy(e.ys.at(0), 0.5)
	for i := 0; i < 4; i++ {
		m.Axpy(e.dys.at(i), complex(e.ap[i], 0))
	}
	m.Axpy(e.dcps.at(0), 1)

	// The retiring correction buffer receives m', then the correction.
	dcp := computeDy(m, t+h, e.dcps.last())
	dcp.Scale(complex(e.am, 0))
	for i := 0; i < 4; i++ {
		dcp.Axpy(e.dys.at(i), complex(e.ac[i], 0))
	}

	m.Axpy(dcp, 1)
	m.Axpy(e.dcps.at(0), -1)

	if e.normalize {
		m.(state.Normalizer).Normalize()
	}

	dy := computeDy(m, t+h, e.dys.last())

	// Commit: all three rings rotate in place.
	e.ys.rotateIn(m)
	e.dcps.rotateIn(dcp)
	e.dys.rotateIn(dy)
}

// stepFused performs the same step as stepDirect but evaluates the three
// multi-term expressions in one pass per array. The buffers swap roles
// across rings: the retiring state ends up holding the new correction,
// the retiring correction becomes the spare, and the spare becomes the
// new state.
func (e *ABM) stepFused() {
	t := e.t
	h := e.dt

	bufA := e.ys.last()   // retiring state -> new correction
	bufB := e.dcps.last() // retiring correction -> predictor m -> spare
	bufC := e.tmp         // spare -> m' -> new state

	m := bufB
	e.apply(m, e.exprM, map[string]state.State{
		"y0": bufA, "y1": e.ys.at(0),
		"dy0": e.dys.at(0), "dy1": e.dys.at(1),
		"dy2": e.dys.at(2), "dy3": e.dys.at(3),
		"dcp0": e.dcps.at(0),
	})

	dm := computeDy(m, t+h, bufC)

	dcp := bufA
	e.apply(dcp, e.exprDcp, map[string]state.State{
		"dm":  dm,
		"dy0": e.dys.at(0), "dy1": e.dys.at(1),
		"dy2": e.dys.at(2), "dy3": e.dys.at(3),
	})

	y := bufC // overwrites dm; the expression reads only m, dcp, dcp0
	e.apply(y, e.exprY, map[string]state.State{
		"m": m, "dcp": dcp, "dcp0": e.dcps.at(0),
	})

	if e.normalize {
		y.(state.Normalizer).Normalize()
	}

	dy := computeDy(y, t+h, e.dys.last())

	// Commit. ys releases bufA, which carries the correction into dcps;
	// dcps releases bufB, which becomes the spare.
	e.ys.rotateIn(y)
	e.tmp = e.dcps.rotateIn(bufA)
	e.dys.rotateIn(dy)
}

func (e *ABM) apply(dst state.State, ex *expr.Expression, args map[string]state.State) {
	if err := dst.(state.Applier).Apply(ex, args); err != nil {
		// Compiled at init against the same signature; a failure here is a
		// programming error, not a recoverable condition.
		panic(err)
	}
}
