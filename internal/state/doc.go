// Package state defines the capability contract between time evolvers and
// the states they advance.
//
// A state is an opaque value (typically one or more large arrays) that the
// evolvers manipulate only through a small set of primitives:
//
//   - [State]: copy, in-place axpy/scale, write protection, time tag
//   - [ABMState]: derivative computation for multistep integrators
//   - [SplitState]: kinetic/potential exponential propagators
//   - [PotentialState]: precomputed-potential specialization
//   - [Normalizer]: optional per-step constraint projection
//   - [Applier]: optional fused-expression evaluation
//
// The interfaces are deliberately split per capability so that evolvers can
// depend on exactly what they use; concrete states opt in by implementing
// the relevant subset. Derived arithmetic ([Add], [Sub], [Mul], [Div]) is
// provided as free functions built purely on the primitives, so concrete
// types get a full operator set for free.
//
// # Write Protection
//
// A state whose Writeable flag is false must reject every in-place mutation
// by panicking with [ErrNotWriteable], leaving its data untouched. Evolvers
// use this as an advisory lock around derivative computation to catch user
// code that mutates its input.
package state
