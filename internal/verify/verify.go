// Package verify provides capability checks for candidate state types,
// raising descriptive errors that name the missing or malformed method.
//
// The evolvers never need this at runtime: Go's interface satisfaction is
// checked statically. The package exists as a testing and documentation
// aid for authors of new state implementations, mirroring the checks a
// dynamic interface-verification layer would perform.
package verify

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/forbes-group/timeode/internal/state"
)

var (
	stateType     = reflect.TypeOf((*state.State)(nil)).Elem()
	abmType       = reflect.TypeOf((*state.ABMState)(nil)).Elem()
	splitType     = reflect.TypeOf((*state.SplitState)(nil)).Elem()
	potentialType = reflect.TypeOf((*state.PotentialState)(nil)).Elem()
	normType      = reflect.TypeOf((*state.Normalizer)(nil)).Elem()
	applierType   = reflect.TypeOf((*state.Applier)(nil)).Elem()
)

// State checks the minimal contract.
func State(v any) error { return check(v, stateType, "state.State") }

// ForABM checks the contract required by the ABM evolver.
func ForABM(v any) error { return check(v, abmType, "state.ABMState") }

// ForSplit checks the contract required by the split-operator evolver.
func ForSplit(v any) error { return check(v, splitType, "state.SplitState") }

// WithPotentials checks the precomputed-potentials specialization.
func WithPotentials(v any) error { return check(v, potentialType, "state.PotentialState") }

// WithNormalize checks the normalization capability.
func WithNormalize(v any) error { return check(v, normType, "state.Normalizer") }

// WithApply checks the fused-expression capability.
func WithApply(v any) error { return check(v, applierType, "state.Applier") }

// check reports nil when v satisfies iface; otherwise it enumerates every
// missing or wrongly typed method by name.
func check(v any, iface reflect.Type, name string) error {
	if v == nil {
		return fmt.Errorf("verify: nil value cannot implement %s", name)
	}
	t := reflect.TypeOf(v)
	if t.Implements(iface) {
		return nil
	}
	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(iface) {
		return fmt.Errorf("verify: %s implements %s only through its pointer; pass *%s",
			t, name, t)
	}
	var problems []string
	for i := 0; i < iface.NumMethod(); i++ {
		want := iface.Method(i)
		got, ok := t.MethodByName(want.Name)
		if !ok {
			problems = append(problems, fmt.Sprintf("missing method %s%s",
				want.Name, signature(want.Type, false)))
			continue
		}
		if !sameSignature(got.Type, want.Type) {
			problems = append(problems, fmt.Sprintf("method %s has signature %s, want %s",
				want.Name, signature(got.Type, true), signature(want.Type, false)))
		}
	}
	if len(problems) == 0 {
		problems = append(problems, "unsatisfiable for unknown reasons")
	}
	return fmt.Errorf("verify: %s does not implement %s:\n\t%s",
		t, name, strings.Join(problems, "\n\t"))
}

// sameSignature compares a concrete method (receiver included) with an
// interface method (receiver excluded).
func sameSignature(got, want reflect.Type) bool {
	if got.NumIn()-1 != want.NumIn() || got.NumOut() != want.NumOut() {
		return false
	}
	for i := 0; i < want.NumIn(); i++ {
		if got.In(i+1) != want.In(i) {
			return false
		}
	}
	for i := 0; i < want.NumOut(); i++ {
		if got.Out(i) != want.Out(i) {
			return false
		}
	}
	return true
}

func signature(t reflect.Type, hasReceiver bool) string {
	var b strings.Builder
	b.WriteByte('(')
	start := 0
	if hasReceiver {
		start = 1
	}
	for i := start; i < t.NumIn(); i++ {
		if i > start {
			b.WriteString(", ")
		}
		b.WriteString(t.In(i).String())
	}
	b.WriteByte(')')
	if t.NumOut() == 1 {
		b.WriteByte(' ')
		b.WriteString(t.Out(0).String())
	} else if t.NumOut() > 1 {
		b.WriteString(" (")
		for i := 0; i < t.NumOut(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(t.Out(i).String())
		}
		b.WriteByte(')')
	}
	return b.String()
}
