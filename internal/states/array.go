// Package states provides concrete implementations of the state capability
// contract: a generic array-backed state, a named multi-component composite,
// and a 1D Gross-Pitaevskii wavefunction on a periodic grid.
package states

import (
	"github.com/forbes-group/timeode/internal/state"
)

// Deriv computes dy/dt for an array state: given t and the current values,
// it fills dy. It must not modify y.
type Deriv func(t float64, y, dy []complex128)

// Array is a single contiguous array of complex values with a pluggable
// derivative function. It implements the full minimal contract plus
// state.ABMState and state.Applier.
type Array struct {
	data      []complex128
	t         float64
	writeable bool
	dtype     state.Dtype
	deriv     Deriv
}

// NewArray returns a writeable complex array state over a copy of data.
// deriv may be nil for states that are never evolved with ABM.
func NewArray(data []complex128, deriv Deriv) *Array {
	d := make([]complex128, len(data))
	copy(d, data)
	return &Array{data: d, writeable: true, dtype: state.Complex, deriv: deriv}
}

// NewRealArray is like NewArray but tags the state as real-valued: the
// imaginary parts are promised to stay zero, permitting real-only kernels.
func NewRealArray(data []float64, deriv Deriv) *Array {
	d := make([]complex128, len(data))
	for i, v := range data {
		d[i] = complex(v, 0)
	}
	return &Array{data: d, writeable: true, dtype: state.Real, deriv: deriv}
}

// Data exposes the backing array. Mutating it directly bypasses the
// write-protection contract; callers should prefer the state operations.
func (a *Array) Data() []complex128 { return a.data }

func (a *Array) mustWrite() {
	if !a.writeable {
		panic(state.ErrNotWriteable)
	}
}

func (a *Array) Copy() state.State {
	c := &Array{
		data:      make([]complex128, len(a.data)),
		t:         a.t,
		writeable: true,
		dtype:     a.dtype,
		deriv:     a.deriv,
	}
	copy(c.data, a.data)
	return c
}

func (a *Array) Empty() state.State {
	return &Array{
		data:      make([]complex128, len(a.data)),
		t:         a.t,
		writeable: true,
		dtype:     a.dtype,
		deriv:     a.deriv,
	}
}

func (a *Array) CopyFrom(other state.State) {
	a.mustWrite()
	o := other.(*Array)
	copy(a.data, o.data)
	a.t = o.t
}

func (a *Array) Axpy(x state.State, alpha complex128) {
	a.mustWrite()
	o := x.(*Array)
	for i := range a.data {
		a.data[i] += alpha * o.data[i]
	}
}

func (a *Array) Scale(f complex128) {
	a.mustWrite()
	for i := range a.data {
		a.data[i] *= f
	}
}

func (a *Array) Writeable() bool      { return a.writeable }
func (a *Array) SetWriteable(ok bool) { a.writeable = ok }
func (a *Array) Time() float64        { return a.t }
func (a *Array) SetTime(t float64)    { a.t = t }
func (a *Array) Dtype() state.Dtype   { return a.dtype }

// ComputeDy evaluates the derivative at the receiver's time tag into dy.
func (a *Array) ComputeDy(dy state.State) state.State {
	d := dy.(*Array)
	d.mustWrite()
	a.deriv(a.t, a.data, d.data)
	d.t = a.t
	return d
}

// Apply evaluates a fused expression into the receiver. Arguments that are
// themselves *Array are resolved to their backing arrays.
func (a *Array) Apply(e state.Expr, args map[string]state.State) error {
	a.mustWrite()
	m := make(map[string][]complex128, len(args))
	for name, s := range args {
		m[name] = s.(*Array).data
	}
	return e.Eval(a.data, m)
}
