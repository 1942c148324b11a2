package state

import "errors"

// ErrNotWriteable is the panic value raised by conforming states when an
// in-place mutation is attempted while the writeable flag is false.
var ErrNotWriteable = errors.New("state: mutation of read-only state")

// Dtype tags the numeric kind of a state's storage. Real states promise
// that no complex arithmetic is ever required, which permits cheaper
// kernels downstream.
type Dtype int

const (
	Real Dtype = iota
	Complex
)

func (d Dtype) String() string {
	switch d {
	case Real:
		return "real"
	case Complex:
		return "complex"
	}
	return "unknown"
}

// State is the minimal contract every evolvable state must satisfy.
//
// Copy and Empty return states of the same concrete type as the receiver;
// evolvers rely on this when they hand buffers produced by one state method
// back to another.
type State interface {
	// Copy returns an independent, writeable deep copy. Later mutation of
	// the copy must not affect the receiver.
	Copy() State

	// Empty returns an independent, writeable state with the same shape and
	// metadata but unspecified contents. Implementations should skip value
	// initialization when they can; callers must fully overwrite the result
	// before reading it.
	Empty() State

	// CopyFrom overwrites the receiver's contents (and time tag) with
	// other's. The receiver must be writeable; its identity and allocated
	// buffers are preserved.
	CopyFrom(other State)

	// Axpy performs self += a*x in place. The receiver must be writeable;
	// x is never mutated.
	Axpy(x State, a complex128)

	// Scale performs self *= f in place. The receiver must be writeable.
	Scale(f complex128)

	// Writeable reports whether in-place mutation is currently permitted.
	Writeable() bool

	// SetWriteable toggles the mutation flag. This is metadata, not data:
	// it may be called regardless of the current flag.
	SetWriteable(ok bool)

	// Time returns the state's time tag.
	Time() float64

	// SetTime stamps the state with a new time tag. Like SetWriteable this
	// is metadata and is permitted on read-only states.
	SetTime(t float64)

	// Dtype reports the numeric kind of the underlying storage.
	Dtype() Dtype
}

// ABMState is the contract required by multistep (ABM) and Runge-Kutta
// integration.
type ABMState interface {
	State

	// ComputeDy writes the time derivative of the receiver, evaluated at
	// the receiver's current time tag, into the provided buffer and returns
	// it for chaining. The receiver must not be mutated; dy must be
	// writeable and of the same concrete type as the receiver.
	ComputeDy(dy State) State
}

// SplitState is the contract required by split-operator evolution of
// i dy/dt = (K+V) y.
type SplitState interface {
	State

	// ApplyExpK applies the exponential kinetic propagator exp(-i K dt)
	// in place.
	ApplyExpK(dt float64)

	// ApplyExpV applies the exponential potential propagator exp(-i V dt)
	// in place. For nonlinear problems the potential is resolved from ref;
	// ref may be the receiver itself. When Linear() is true ref may be nil.
	ApplyExpV(dt float64, ref State)

	// Linear reports whether the potential is independent of the state, in
	// which case the evolver takes a cheaper path with no corrector.
	Linear() bool
}

// Potentials is a small, independently copyable object representing the
// potential part of the generator at an instant. It supports just enough
// arithmetic for the evolver to form midpoint corrections.
type Potentials interface {
	Copy() Potentials
	Axpy(x Potentials, a float64)
	Scale(f float64)
}

// PotentialState is an optional specialization of SplitState for states
// that can expose their potentials as a standalone object, letting the
// evolver precompute and interpolate them without touching the full state.
type PotentialState interface {
	SplitState

	// Potentials returns the potentials at time t, resolved against the
	// receiver's current contents.
	Potentials(t float64) Potentials

	// ApplyExpVPot applies exp(-i V dt) in place using a precomputed
	// potentials object.
	ApplyExpVPot(dt float64, v Potentials)
}

// Normalizer is an optional capability: project or rescale the state to
// satisfy a conserved-quantity constraint. Evolvers invoke it after each
// step when their normalize policy is enabled (imaginary-time cooling, for
// example, is non-unitary and needs this).
type Normalizer interface {
	State
	Normalize()
}

// Expr is a compiled elementwise expression evaluated in a single pass.
// It is satisfied by expr.Expression; the indirection keeps this package
// free of a dependency on the compiler.
type Expr interface {
	Eval(out []complex128, args map[string][]complex128) error
}

// Applier is an optional capability: evaluate a fused expression over all
// of the state's components, writing into the receiver. Arguments of the
// receiver's concrete type are resolved component-wise.
type Applier interface {
	State
	Apply(e Expr, args map[string]State) error
}
