// Package evolver advances an abstract state forward in time under a
// user-supplied evolution law, using only the capability interfaces of
// package state.
//
// Two fixed-step integrators are provided:
//
//   - [Split]: symmetric Strang splitting for i dy/dt = (K+V) y, with a
//     self-consistent predictor/corrector for nonlinear potentials
//   - [ABM]: 4th-order Adams-Bashforth-Moulton predictor-corrector with a
//     Runge-Kutta bootstrap and bounded peak memory
//
// # Example
//
//	e, err := evolver.NewABM(psi, 0.01, evolver.Options{})
//	if err != nil { ... }
//	if err := e.Evolve(100); err != nil { ... }
//	y, t := e.Y(), e.T()
//
// # Memory
//
// Both evolvers reuse a fixed set of state-sized buffers. ABM holds 8
// states after bootstrap (9 on the fused path) and peaks at 10 during a
// Runge-Kutta bootstrap step; Split on a linear problem allocates nothing
// beyond the state it owns. These bounds hold regardless of step count.
//
// # Thread Safety
//
// Evolvers are NOT thread-safe and a state must never be shared between
// two evolvers. The write-protection toggled around derivative computation
// is an advisory convention for catching mutation bugs, not a lock.
package evolver
