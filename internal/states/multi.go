package states

import (
	"fmt"

	"github.com/forbes-group/timeode/internal/state"
)

// Multi is a composite state holding named Array components, for systems
// whose state is naturally several coupled fields. All state operations
// distribute over the components; fused expressions are applied
// component-wise.
type Multi struct {
	names     []string
	parts     []*Array
	t         float64
	writeable bool
}

// NewMulti builds a composite from named components in the given order.
// The components are taken over, not copied.
func NewMulti(names []string, parts []*Array) (*Multi, error) {
	if len(names) != len(parts) {
		return nil, fmt.Errorf("states: %d names for %d components", len(names), len(parts))
	}
	return &Multi{names: names, parts: parts, writeable: true}, nil
}

// Part returns the named component, or nil.
func (m *Multi) Part(name string) *Array {
	for i, n := range m.names {
		if n == name {
			return m.parts[i]
		}
	}
	return nil
}

func (m *Multi) mustWrite() {
	if !m.writeable {
		panic(state.ErrNotWriteable)
	}
}

func (m *Multi) clone(copyValues bool) *Multi {
	c := &Multi{
		names:     m.names,
		parts:     make([]*Array, len(m.parts)),
		t:         m.t,
		writeable: true,
	}
	for i, p := range m.parts {
		if copyValues {
			c.parts[i] = p.Copy().(*Array)
		} else {
			c.parts[i] = p.Empty().(*Array)
		}
	}
	return c
}

func (m *Multi) Copy() state.State  { return m.clone(true) }
func (m *Multi) Empty() state.State { return m.clone(false) }

func (m *Multi) CopyFrom(other state.State) {
	m.mustWrite()
	o := other.(*Multi)
	for i, p := range m.parts {
		p.CopyFrom(o.parts[i])
	}
	m.t = o.t
}

func (m *Multi) Axpy(x state.State, alpha complex128) {
	m.mustWrite()
	o := x.(*Multi)
	for i, p := range m.parts {
		p.Axpy(o.parts[i], alpha)
	}
}

func (m *Multi) Scale(f complex128) {
	m.mustWrite()
	for _, p := range m.parts {
		p.Scale(f)
	}
}

func (m *Multi) Writeable() bool { return m.writeable }

// SetWriteable toggles the composite and all components together.
func (m *Multi) SetWriteable(ok bool) {
	m.writeable = ok
	for _, p := range m.parts {
		p.SetWriteable(ok)
	}
}

func (m *Multi) Time() float64 { return m.t }

func (m *Multi) SetTime(t float64) {
	m.t = t
	for _, p := range m.parts {
		p.SetTime(t)
	}
}

// Dtype is complex if any component is complex.
func (m *Multi) Dtype() state.Dtype {
	for _, p := range m.parts {
		if p.Dtype() == state.Complex {
			return state.Complex
		}
	}
	return state.Real
}

// ComputeDy delegates to each component's derivative function.
func (m *Multi) ComputeDy(dy state.State) state.State {
	d := dy.(*Multi)
	d.mustWrite()
	for i, p := range m.parts {
		p.ComputeDy(d.parts[i])
	}
	d.t = m.t
	return d
}

// Apply evaluates the expression once per component, projecting *Multi
// arguments onto the matching component.
func (m *Multi) Apply(e state.Expr, args map[string]state.State) error {
	m.mustWrite()
	for i, p := range m.parts {
		part := make(map[string]state.State, len(args))
		for name, s := range args {
			part[name] = s.(*Multi).parts[i]
		}
		if err := p.Apply(e, part); err != nil {
			return err
		}
	}
	return nil
}
