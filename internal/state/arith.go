package state

// Derived arithmetic built purely on Copy, Axpy and Scale. These replace
// the operator overloads a state would otherwise have to implement; their
// algebraic consistency with the primitives (Add(a, b) equals
// a.Copy().Axpy(b, 1)) is part of the contract and is tested.

// Add returns a + b as a fresh state.
func Add(a, b State) State {
	r := a.Copy()
	r.Axpy(b, 1)
	return r
}

// Sub returns a - b as a fresh state.
func Sub(a, b State) State {
	r := a.Copy()
	r.Axpy(b, -1)
	return r
}

// Mul returns f*a as a fresh state.
func Mul(a State, f complex128) State {
	r := a.Copy()
	r.Scale(f)
	return r
}

// Div returns a/f as a fresh state.
func Div(a State, f complex128) State {
	r := a.Copy()
	r.Scale(1 / f)
	return r
}

// Neg returns -a as a fresh state.
func Neg(a State) State {
	return Mul(a, -1)
}

// ZeroLike returns a fresh writeable state of a's shape holding all zeros.
func ZeroLike(a State) State {
	r := a.Copy()
	r.Scale(0)
	return r
}
