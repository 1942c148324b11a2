package states

import (
	"math"
	"math/cmplx"

	"github.com/forbes-group/timeode/internal/fft"
	"github.com/forbes-group/timeode/internal/state"
)

// Potential is an external potential V(x, t) on the grid.
type Potential func(x, t float64) float64

// Wavefunction is a 1D Gross-Pitaevskii state on a periodic grid:
//
//	i dpsi/dt = (-1/2 d2/dx2 + Vext(x,t) + g |psi|^2) psi
//
// The kinetic propagator is applied spectrally, the potential propagator
// pointwise, so the state supports both evolver families: it implements
// state.ABMState, state.SplitState, state.PotentialState, state.Normalizer
// and state.Applier.
type Wavefunction struct {
	psi       []complex128
	t         float64
	writeable bool

	// Grid and physics, shared read-only between copies.
	x    []float64
	k    []float64
	dx   float64
	g    float64
	vext Potential

	// Spectral scratch, per instance so copies never share mutable data.
	kbuf []complex128
}

// NewWavefunction builds a zeroed wavefunction on an n-point periodic grid
// of the given length centered on the origin. g is the nonlinear coupling;
// vext may be nil for no external potential.
func NewWavefunction(n int, length, g float64, vext Potential) *Wavefunction {
	dx := length / float64(n)
	x := make([]float64, n)
	for i := range x {
		x[i] = -length/2 + float64(i)*dx
	}
	return &Wavefunction{
		psi:       make([]complex128, n),
		writeable: true,
		x:         x,
		k:         fft.Wavenumbers(n, dx),
		dx:        dx,
		g:         g,
		vext:      vext,
		kbuf:      make([]complex128, n),
	}
}

// SetGaussian initializes a normalized Gaussian packet centered at x0 with
// width sigma and momentum k0.
func (w *Wavefunction) SetGaussian(x0, sigma, k0 float64) {
	w.mustWrite()
	for i, x := range w.x {
		env := math.Exp(-(x - x0) * (x - x0) / (4 * sigma * sigma))
		w.psi[i] = complex(env, 0) * cmplx.Exp(complex(0, k0*x))
	}
	w.Normalize()
}

// Psi exposes the backing array.
func (w *Wavefunction) Psi() []complex128 { return w.psi }

// X returns the grid points.
func (w *Wavefunction) X() []float64 { return w.x }

// Density returns |psi|^2 on the grid as a fresh slice.
func (w *Wavefunction) Density() []float64 {
	d := make([]float64, len(w.psi))
	for i, p := range w.psi {
		d[i] = real(p)*real(p) + imag(p)*imag(p)
	}
	return d
}

// Norm returns the integral of |psi|^2 over the grid.
func (w *Wavefunction) Norm() float64 {
	sum := 0.0
	for _, p := range w.psi {
		sum += real(p)*real(p) + imag(p)*imag(p)
	}
	return sum * w.dx
}

// Energy returns the total energy <psi|H|psi> with the interaction term
// counted at g/2.
func (w *Wavefunction) Energy() float64 {
	n := len(w.psi)
	fft.Forward(w.kbuf, w.psi)
	kin := 0.0
	for i, p := range w.kbuf {
		kin += 0.5 * w.k[i] * w.k[i] * (real(p)*real(p) + imag(p)*imag(p))
	}
	kin *= w.dx / float64(n) // Parseval normalization for go-dsp's unscaled forward transform
	pot := 0.0
	for i, p := range w.psi {
		den := real(p)*real(p) + imag(p)*imag(p)
		v := 0.0
		if w.vext != nil {
			v = w.vext(w.x[i], w.t)
		}
		pot += (v + 0.5*w.g*den) * den
	}
	return kin + pot*w.dx
}

func (w *Wavefunction) mustWrite() {
	if !w.writeable {
		panic(state.ErrNotWriteable)
	}
}

func (w *Wavefunction) clone(copyValues bool) *Wavefunction {
	c := &Wavefunction{
		psi:       make([]complex128, len(w.psi)),
		t:         w.t,
		writeable: true,
		x:         w.x,
		k:         w.k,
		dx:        w.dx,
		g:         w.g,
		vext:      w.vext,
		kbuf:      make([]complex128, len(w.psi)),
	}
	if copyValues {
		copy(c.psi, w.psi)
	}
	return c
}

func (w *Wavefunction) Copy() state.State  { return w.clone(true) }
func (w *Wavefunction) Empty() state.State { return w.clone(false) }

func (w *Wavefunction) CopyFrom(other state.State) {
	w.mustWrite()
	o := other.(*Wavefunction)
	copy(w.psi, o.psi)
	w.t = o.t
}

func (w *Wavefunction) Axpy(x state.State, alpha complex128) {
	w.mustWrite()
	o := x.(*Wavefunction)
	for i := range w.psi {
		w.psi[i] += alpha * o.psi[i]
	}
}

func (w *Wavefunction) Scale(f complex128) {
	w.mustWrite()
	for i := range w.psi {
		w.psi[i] *= f
	}
}

func (w *Wavefunction) Writeable() bool      { return w.writeable }
func (w *Wavefunction) SetWriteable(ok bool) { w.writeable = ok }
func (w *Wavefunction) Time() float64        { return w.t }
func (w *Wavefunction) SetTime(t float64)    { w.t = t }
func (w *Wavefunction) Dtype() state.Dtype   { return state.Complex }

// potential returns Vext(x,t) + g|ref|^2 at grid index i.
func (w *Wavefunction) potential(i int, t float64, ref []complex128) float64 {
	v := 0.0
	if w.vext != nil {
		v = w.vext(w.x[i], t)
	}
	p := ref[i]
	return v + w.g*(real(p)*real(p)+imag(p)*imag(p))
}

// ComputeDy writes -i*(K+V)psi into dy.
func (w *Wavefunction) ComputeDy(dy state.State) state.State {
	d := dy.(*Wavefunction)
	d.mustWrite()
	// Kinetic term via the spectral grid, accumulated in d's scratch.
	fft.Forward(d.kbuf, w.psi)
	for i := range d.kbuf {
		d.kbuf[i] *= complex(0.5*w.k[i]*w.k[i], 0)
	}
	fft.Inverse(d.kbuf, d.kbuf)
	for i := range d.psi {
		h := d.kbuf[i] + complex(w.potential(i, w.t, w.psi), 0)*w.psi[i]
		d.psi[i] = complex(0, -1) * h
	}
	d.t = w.t
	return d
}

// ApplyExpK applies exp(-i dt k^2/2) spectrally, in place.
func (w *Wavefunction) ApplyExpK(dt float64) {
	w.mustWrite()
	fft.Forward(w.kbuf, w.psi)
	for i := range w.kbuf {
		w.kbuf[i] *= cmplx.Exp(complex(0, -dt*0.5*w.k[i]*w.k[i]))
	}
	fft.Inverse(w.psi, w.kbuf)
}

// ApplyExpV applies exp(-i dt V) pointwise, resolving the nonlinear part
// of V against ref (or the receiver when ref is nil).
func (w *Wavefunction) ApplyExpV(dt float64, ref state.State) {
	w.mustWrite()
	src := w.psi
	t := w.t
	if ref != nil {
		r := ref.(*Wavefunction)
		src = r.psi
		t = r.t
	}
	for i := range w.psi {
		w.psi[i] *= cmplx.Exp(complex(0, -dt*w.potential(i, t, src)))
	}
}

// Linear reports a state-independent potential (no interaction term).
func (w *Wavefunction) Linear() bool { return w.g == 0 }

// Potentials returns the combined potential at time t resolved against the
// current density.
func (w *Wavefunction) Potentials(t float64) state.Potentials {
	v := make([]float64, len(w.psi))
	for i := range v {
		v[i] = w.potential(i, t, w.psi)
	}
	return &GridPotentials{v: v}
}

// ApplyExpVPot applies exp(-i dt V) with a precomputed potentials object.
func (w *Wavefunction) ApplyExpVPot(dt float64, v state.Potentials) {
	w.mustWrite()
	g := v.(*GridPotentials)
	for i := range w.psi {
		w.psi[i] *= cmplx.Exp(complex(0, -dt*g.v[i]))
	}
}

// Normalize rescales to unit norm.
func (w *Wavefunction) Normalize() {
	w.mustWrite()
	n := w.Norm()
	if n == 0 {
		return
	}
	w.Scale(complex(1/math.Sqrt(n), 0))
}

// Apply evaluates a fused expression over the backing array.
func (w *Wavefunction) Apply(e state.Expr, args map[string]state.State) error {
	w.mustWrite()
	m := make(map[string][]complex128, len(args))
	for name, s := range args {
		m[name] = s.(*Wavefunction).psi
	}
	return e.Eval(w.psi, m)
}

// GridPotentials is a potentials-on-the-grid object supporting the
// arithmetic the split evolver needs for midpoint corrections.
type GridPotentials struct {
	v []float64
}

// Values returns the backing grid values.
func (g *GridPotentials) Values() []float64 { return g.v }

func (g *GridPotentials) Copy() state.Potentials {
	v := make([]float64, len(g.v))
	copy(v, g.v)
	return &GridPotentials{v: v}
}

func (g *GridPotentials) Axpy(x state.Potentials, a float64) {
	o := x.(*GridPotentials)
	for i := range g.v {
		g.v[i] += a * o.v[i]
	}
}

func (g *GridPotentials) Scale(f float64) {
	for i := range g.v {
		g.v[i] *= f
	}
}
