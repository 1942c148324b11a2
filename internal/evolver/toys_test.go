package evolver

import (
	"math"
	"math/cmplx"

	"github.com/forbes-group/timeode/internal/state"
)

// Toy states for the evolver tests: a minimal ABM state without the fused
// capability, an allocation-counting variant, and a two-level quantum
// system with exact propagators for the split tests.

// bareState implements state.ABMState and nothing else.
type bareState struct {
	data      []complex128
	t         float64
	writeable bool
	deriv     func(t float64, y, dy []complex128)
}

func newBareState() *bareState {
	return &bareState{
		data:      []complex128{1},
		writeable: true,
		deriv:     chirp,
	}
}

func (s *bareState) mustWrite() {
	if !s.writeable {
		panic(state.ErrNotWriteable)
	}
}

func (s *bareState) Copy() state.State {
	c := &bareState{data: make([]complex128, len(s.data)), t: s.t, writeable: true, deriv: s.deriv}
	copy(c.data, s.data)
	return c
}

func (s *bareState) Empty() state.State {
	return &bareState{data: make([]complex128, len(s.data)), t: s.t, writeable: true, deriv: s.deriv}
}

func (s *bareState) CopyFrom(other state.State) {
	s.mustWrite()
	o := other.(*bareState)
	copy(s.data, o.data)
	s.t = o.t
}

func (s *bareState) Axpy(x state.State, a complex128) {
	s.mustWrite()
	o := x.(*bareState)
	for i := range s.data {
		s.data[i] += a * o.data[i]
	}
}

func (s *bareState) Scale(f complex128) {
	s.mustWrite()
	for i := range s.data {
		s.data[i] *= f
	}
}

func (s *bareState) Writeable() bool      { return s.writeable }
func (s *bareState) SetWriteable(ok bool) { s.writeable = ok }
func (s *bareState) Time() float64        { return s.t }
func (s *bareState) SetTime(t float64)    { s.t = t }
func (s *bareState) Dtype() state.Dtype   { return state.Complex }

func (s *bareState) ComputeDy(dy state.State) state.State {
	d := dy.(*bareState)
	d.mustWrite()
	s.deriv(s.t, s.data, d.data)
	d.t = s.t
	return d
}

// countingState counts every state-sized allocation (Copy and Empty) into
// a shared counter, and additionally implements state.Applier so the
// fused path can be instrumented too.
type countingState struct {
	bareState
	allocs *int
}

func newCountingState(allocs *int) *countingState {
	return &countingState{
		bareState: bareState{data: []complex128{1}, writeable: true, deriv: chirp},
		allocs:    allocs,
	}
}

func (s *countingState) clone(copyValues bool) *countingState {
	*s.allocs++
	c := &countingState{
		bareState: bareState{data: make([]complex128, len(s.data)), t: s.t, writeable: true, deriv: s.deriv},
		allocs:    s.allocs,
	}
	if copyValues {
		copy(c.data, s.data)
	}
	return c
}

func (s *countingState) Copy() state.State  { return s.clone(true) }
func (s *countingState) Empty() state.State { return s.clone(false) }

func (s *countingState) CopyFrom(other state.State) {
	s.mustWrite()
	o := other.(*countingState)
	copy(s.data, o.data)
	s.t = o.t
}

func (s *countingState) Axpy(x state.State, a complex128) {
	s.mustWrite()
	o := x.(*countingState)
	for i := range s.data {
		s.data[i] += a * o.data[i]
	}
}

func (s *countingState) ComputeDy(dy state.State) state.State {
	d := dy.(*countingState)
	d.mustWrite()
	s.deriv(s.t, s.data, d.data)
	d.t = s.t
	return d
}

func (s *countingState) Apply(e state.Expr, args map[string]state.State) error {
	s.mustWrite()
	m := make(map[string][]complex128, len(args))
	for name, st := range args {
		m[name] = st.(*countingState).data
	}
	return e.Eval(s.data, m)
}

// herm2 is a 2x2 Hermitian matrix: [[a, c],[conj(c), b]] with real a, b.
type herm2 struct {
	a, b float64
	c    complex128
}

func (h herm2) add(o herm2) herm2 {
	return herm2{a: h.a + o.a, b: h.b + o.b, c: h.c + o.c}
}

// expmApply applies exp(-i theta H) to psi in place, via the Pauli
// decomposition H = n*I + b.sigma:
//
//	exp(-i theta H) = e^{-i theta n} (cos(theta|b|) I - i sin(theta|b|) bhat.sigma)
func (h herm2) expmApply(theta float64, psi []complex128) {
	n := (h.a + h.b) / 2
	bz := (h.a - h.b) / 2
	bx := real(h.c)
	by := -imag(h.c)
	bn := math.Sqrt(bx*bx + by*by + bz*bz)

	phase := cmplx.Exp(complex(0, -theta*n))
	c := complex(math.Cos(theta*bn), 0)
	var sx complex128
	if bn > 0 {
		sn := math.Sin(theta*bn) / bn
		sx = complex(0, -sn)
	}

	p0, p1 := psi[0], psi[1]
	// (c I - i s bhat.sigma) psi, with s folded into the components.
	q0 := c*p0 + sx*(complex(bz, 0)*p0+complex(bx, -by)*p1)
	q1 := c*p1 + sx*(complex(bx, by)*p0+complex(-bz, 0)*p1)
	psi[0] = phase * q0
	psi[1] = phase * q1
}

// spin2 is a two-level system evolving under i dpsi/dt = (K+V) psi with
// exact 2x2 propagators. With g != 0 the potential gains a density
// dependence, exercising the generic nonlinear split path.
type spin2 struct {
	psi       []complex128
	k, v      herm2
	g         float64
	t         float64
	writeable bool
	allocs    *int
}

func newSpin2(psi0 [2]complex128, k, v herm2, g float64, allocs *int) *spin2 {
	return &spin2{
		psi:       []complex128{psi0[0], psi0[1]},
		k:         k,
		v:         v,
		g:         g,
		writeable: true,
		allocs:    allocs,
	}
}

func (s *spin2) mustWrite() {
	if !s.writeable {
		panic(state.ErrNotWriteable)
	}
}

func (s *spin2) clone() *spin2 {
	if s.allocs != nil {
		*s.allocs++
	}
	c := &spin2{
		psi: make([]complex128, 2), k: s.k, v: s.v, g: s.g,
		t: s.t, writeable: true, allocs: s.allocs,
	}
	copy(c.psi, s.psi)
	return c
}

func (s *spin2) Copy() state.State  { return s.clone() }
func (s *spin2) Empty() state.State { return s.clone() }

func (s *spin2) CopyFrom(other state.State) {
	s.mustWrite()
	o := other.(*spin2)
	copy(s.psi, o.psi)
	s.t = o.t
}

func (s *spin2) Axpy(x state.State, a complex128) {
	s.mustWrite()
	o := x.(*spin2)
	for i := range s.psi {
		s.psi[i] += a * o.psi[i]
	}
}

func (s *spin2) Scale(f complex128) {
	s.mustWrite()
	for i := range s.psi {
		s.psi[i] *= f
	}
}

func (s *spin2) Writeable() bool      { return s.writeable }
func (s *spin2) SetWriteable(ok bool) { s.writeable = ok }
func (s *spin2) Time() float64        { return s.t }
func (s *spin2) SetTime(t float64)    { s.t = t }
func (s *spin2) Dtype() state.Dtype   { return state.Complex }

func (s *spin2) ApplyExpK(dt float64) {
	s.mustWrite()
	s.k.expmApply(dt, s.psi)
}

func (s *spin2) effectiveV(ref *spin2) herm2 {
	v := s.v
	if s.g != 0 {
		p0, p1 := ref.psi[0], ref.psi[1]
		v.a += s.g * (real(p0)*real(p0) + imag(p0)*imag(p0))
		v.b += s.g * (real(p1)*real(p1) + imag(p1)*imag(p1))
	}
	return v
}

func (s *spin2) ApplyExpV(dt float64, ref state.State) {
	s.mustWrite()
	r := s
	if ref != nil {
		r = ref.(*spin2)
	}
	s.effectiveV(r).expmApply(dt, s.psi)
}

func (s *spin2) Linear() bool { return s.g == 0 }

// diagPot is the standalone potentials object for spin2Pot: the two
// diagonal entries of the effective potential.
type diagPot struct {
	v [2]float64
}

func (p *diagPot) Copy() state.Potentials {
	c := *p
	return &c
}

func (p *diagPot) Axpy(x state.Potentials, a float64) {
	o := x.(*diagPot)
	p.v[0] += a * o.v[0]
	p.v[1] += a * o.v[1]
}

func (p *diagPot) Scale(f float64) {
	p.v[0] *= f
	p.v[1] *= f
}

// spin2Pot is a spin2 with a diagonal potential exposed through the
// state.PotentialState capability. The bare potential must have no
// off-diagonal part.
type spin2Pot struct {
	spin2
}

func newSpin2Pot(psi0 [2]complex128, k herm2, va, vb, g float64, allocs *int) *spin2Pot {
	return &spin2Pot{spin2: *newSpin2(psi0, k, herm2{a: va, b: vb}, g, allocs)}
}

func (s *spin2Pot) Copy() state.State  { return &spin2Pot{spin2: *s.spin2.clone()} }
func (s *spin2Pot) Empty() state.State { return &spin2Pot{spin2: *s.spin2.clone()} }

func (s *spin2Pot) CopyFrom(other state.State) {
	s.spin2.CopyFrom(&other.(*spin2Pot).spin2)
}

func (s *spin2Pot) Axpy(x state.State, a complex128) {
	s.spin2.Axpy(&x.(*spin2Pot).spin2, a)
}

func (s *spin2Pot) ApplyExpV(dt float64, ref state.State) {
	if ref == nil {
		s.spin2.ApplyExpV(dt, nil)
		return
	}
	s.spin2.ApplyExpV(dt, &ref.(*spin2Pot).spin2)
}

func (s *spin2Pot) Potentials(t float64) state.Potentials {
	v := s.effectiveV(&s.spin2)
	return &diagPot{v: [2]float64{v.a, v.b}}
}

func (s *spin2Pot) ApplyExpVPot(dt float64, v state.Potentials) {
	s.mustWrite()
	p := v.(*diagPot)
	s.psi[0] *= cmplx.Exp(complex(0, -dt*p.v[0]))
	s.psi[1] *= cmplx.Exp(complex(0, -dt*p.v[1]))
}
