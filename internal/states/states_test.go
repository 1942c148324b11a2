package states_test

import (
	"math/cmplx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/forbes-group/timeode/internal/expr"
	"github.com/forbes-group/timeode/internal/state"
	"github.com/forbes-group/timeode/internal/states"
)

func expectClose(got, want []complex128, tol float64) {
	GinkgoHelper()
	Expect(got).To(HaveLen(len(want)))
	for i := range want {
		Expect(cmplx.Abs(got[i]-want[i])).To(BeNumerically("<=", tol),
			"element %d: got %v, want %v", i, got[i], want[i])
	}
}

var doubling states.Deriv = func(t float64, y, dy []complex128) {
	for i := range y {
		dy[i] = 2 * y[i]
	}
}

var _ = Describe("Array", func() {
	var a *states.Array

	BeforeEach(func() {
		a = states.NewArray([]complex128{1, 2i, -3}, doubling)
	})

	It("constructs over a copy of the input", func() {
		in := []complex128{1, 2}
		s := states.NewArray(in, nil)
		in[0] = 99
		Expect(s.Data()[0]).To(Equal(complex128(1)))
	})

	It("copies independently", func() {
		c := a.Copy().(*states.Array)
		c.Scale(10)
		Expect(a.Data()).To(Equal([]complex128{1, 2i, -3}))
		Expect(c.Data()).To(Equal([]complex128{10, 20i, -30}))
	})

	It("produces empties of the same shape", func() {
		e := a.Empty().(*states.Array)
		Expect(e.Data()).To(HaveLen(3))
		Expect(e.Writeable()).To(BeTrue())
		Expect(e.Dtype()).To(Equal(state.Complex))
	})

	It("copies contents and time with CopyFrom", func() {
		b := states.NewArray([]complex128{7, 8, 9}, nil)
		b.SetTime(4.5)
		a.CopyFrom(b)
		Expect(a.Data()).To(Equal([]complex128{7, 8, 9}))
		Expect(a.Time()).To(Equal(4.5))
	})

	It("performs in-place axpy and scale", func() {
		b := states.NewArray([]complex128{1, 1, 1}, nil)
		a.Axpy(b, 2i)
		Expect(a.Data()).To(Equal([]complex128{1 + 2i, 4i, -3 + 2i}))
		a.Scale(2)
		Expect(a.Data()).To(Equal([]complex128{2 + 4i, 8i, -6 + 4i}))
	})

	It("evaluates the derivative at the time tag", func() {
		dy := a.Empty()
		got := a.ComputeDy(dy)
		Expect(got).To(BeIdenticalTo(dy))
		Expect(dy.(*states.Array).Data()).To(Equal([]complex128{2, 4i, -6}))
	})

	It("tags real arrays", func() {
		r := states.NewRealArray([]float64{1, 2}, nil)
		Expect(r.Dtype()).To(Equal(state.Real))
		Expect(r.Data()).To(Equal([]complex128{1, 2}))
	})

	Describe("write protection", func() {
		BeforeEach(func() {
			a.SetWriteable(false)
		})

		It("panics on mutation and leaves the data intact", func() {
			Expect(func() { a.Scale(2) }).To(PanicWith(state.ErrNotWriteable))
			Expect(func() { a.Axpy(a, 1) }).To(PanicWith(state.ErrNotWriteable))
			Expect(func() { a.CopyFrom(a) }).To(PanicWith(state.ErrNotWriteable))
			Expect(a.Data()).To(Equal([]complex128{1, 2i, -3}))
		})

		It("still permits metadata updates", func() {
			Expect(func() { a.SetTime(9) }).NotTo(Panic())
			Expect(a.Time()).To(Equal(9.0))
			a.SetWriteable(true)
			Expect(func() { a.Scale(2) }).NotTo(Panic())
		})
	})

	Describe("fused expressions", func() {
		It("applies an expression over the backing arrays", func() {
			e, err := expr.New("x + 2*y", []string{"x", "y"}, nil, state.Complex)
			Expect(err).NotTo(HaveOccurred())

			x := states.NewArray([]complex128{1, 2, 3}, nil)
			y := states.NewArray([]complex128{10, 20, 30}, nil)
			dst := x.Empty().(*states.Array)
			Expect(dst.Apply(e, map[string]state.State{"x": x, "y": y})).To(Succeed())
			Expect(dst.Data()).To(Equal([]complex128{21, 42, 63}))
		})
	})
})

var _ = Describe("Multi", func() {
	var m *states.Multi

	BeforeEach(func() {
		var err error
		m, err = states.NewMulti(
			[]string{"n", "v"},
			[]*states.Array{
				states.NewArray([]complex128{1, 2}, doubling),
				states.NewArray([]complex128{3, 4}, doubling),
			})
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects mismatched names and components", func() {
		_, err := states.NewMulti([]string{"only"}, nil)
		Expect(err).To(HaveOccurred())
	})

	It("looks up components by name", func() {
		Expect(m.Part("v").Data()).To(Equal([]complex128{3, 4}))
		Expect(m.Part("missing")).To(BeNil())
	})

	It("distributes arithmetic over components", func() {
		c := m.Copy().(*states.Multi)
		c.Axpy(m, 1)
		Expect(c.Part("n").Data()).To(Equal([]complex128{2, 4}))
		Expect(c.Part("v").Data()).To(Equal([]complex128{6, 8}))

		c.Scale(0.5)
		Expect(c.Part("n").Data()).To(Equal([]complex128{1, 2}))
	})

	It("cascades the writeable flag and time", func() {
		m.SetWriteable(false)
		Expect(func() { m.Part("n").Scale(2) }).To(PanicWith(state.ErrNotWriteable))
		m.SetWriteable(true)

		m.SetTime(2.5)
		Expect(m.Part("v").Time()).To(Equal(2.5))
	})

	It("computes derivatives component-wise", func() {
		dy := m.Empty().(*states.Multi)
		m.ComputeDy(dy)
		Expect(dy.Part("n").Data()).To(Equal([]complex128{2, 4}))
		Expect(dy.Part("v").Data()).To(Equal([]complex128{6, 8}))
	})

	It("applies fused expressions per component", func() {
		e, err := expr.New("a + b", []string{"a", "b"}, nil, state.Complex)
		Expect(err).NotTo(HaveOccurred())

		dst := m.Empty().(*states.Multi)
		Expect(dst.Apply(e, map[string]state.State{"a": m, "b": m})).To(Succeed())
		Expect(dst.Part("n").Data()).To(Equal([]complex128{2, 4}))
		Expect(dst.Part("v").Data()).To(Equal([]complex128{6, 8}))
	})
})

var _ = Describe("Wavefunction", func() {
	newWave := func(g float64, vext states.Potential) *states.Wavefunction {
		w := states.NewWavefunction(128, 20.0, g, vext)
		w.SetGaussian(0, 1.0, 1.5)
		return w
	}

	It("normalizes the initial Gaussian", func() {
		w := newWave(0, nil)
		Expect(w.Norm()).To(BeNumerically("~", 1.0, 1e-12))
	})

	It("has the analytic free-packet energy", func() {
		// Kinetic energy of a width-sigma packet with momentum k0 is
		// 1/(8 sigma^2) + k0^2/2.
		w := newWave(0, nil)
		Expect(w.Energy()).To(BeNumerically("~", 0.125+1.125, 1e-3))
	})

	It("conserves norm and free energy under the kinetic propagator", func() {
		w := newWave(0, nil)
		e0 := w.Energy()
		w.ApplyExpK(0.3)
		Expect(w.Norm()).To(BeNumerically("~", 1.0, 1e-10))
		Expect(w.Energy()).To(BeNumerically("~", e0, 1e-10))
	})

	It("leaves the density untouched by the potential propagator", func() {
		w := newWave(1.0, func(x, t float64) float64 { return 0.5 * x * x })
		before := w.Density()
		w.ApplyExpV(0.1, nil)
		after := w.Density()
		for i := range before {
			Expect(after[i]).To(BeNumerically("~", before[i], 1e-12))
		}
	})

	It("agrees between ApplyExpV and the precomputed potentials path", func() {
		mk := func() *states.Wavefunction {
			return newWave(0.5, func(x, t float64) float64 { return 0.5 * x * x })
		}
		direct := mk()
		direct.ApplyExpV(0.1, nil)

		precomp := mk()
		precomp.ApplyExpVPot(0.1, precomp.Potentials(precomp.Time()))

		expectClose(precomp.Psi(), direct.Psi(), 1e-12)
	})

	It("interpolates potentials with the grid arithmetic", func() {
		w := newWave(0, func(x, t float64) float64 { return t * x })
		v0 := w.Potentials(0).(*states.GridPotentials)
		v1 := w.Potentials(1)
		v1.Axpy(v0, -1)
		v1.Scale(0.5)
		// (V(1)-V(0))/2 = x/2 on the grid.
		Expect(v1.(*states.GridPotentials).Values()[10]).To(
			BeNumerically("~", w.X()[10]/2, 1e-12))
	})

	It("reports linearity from the coupling", func() {
		Expect(newWave(0, nil).Linear()).To(BeTrue())
		Expect(newWave(1, nil).Linear()).To(BeFalse())
	})

	It("enforces write protection", func() {
		w := newWave(0, nil)
		w.SetWriteable(false)
		Expect(func() { w.ApplyExpK(0.1) }).To(PanicWith(state.ErrNotWriteable))
		Expect(func() { w.Normalize() }).To(PanicWith(state.ErrNotWriteable))
	})

	It("rescales to unit norm", func() {
		w := newWave(0, nil)
		w.Scale(3)
		w.Normalize()
		Expect(w.Norm()).To(BeNumerically("~", 1.0, 1e-12))
	})
})
