package evolver

import (
	"fmt"

	"github.com/forbes-group/timeode/internal/state"
)

// Snapshots separate an evolver's data from its derived state: only the
// constructor-relevant fields and the history ring contents are captured.
// Cached step coefficients and compiled expressions are recomputed on
// restore by re-running the one-time initialization.

// SplitSnapshot captures the persistent fields of a Split evolver.
type SplitSnapshot struct {
	T, Dt     float64
	Normalize bool
	Y         state.SplitState
}

// Snapshot returns a deep copy of the evolver's persistent state.
func (s *Split) Snapshot() *SplitSnapshot {
	return &SplitSnapshot{
		T:         s.t,
		Dt:        s.dt,
		Normalize: s.normalize,
		Y:         s.y.Copy().(state.SplitState),
	}
}

// RestoreSplit reconstructs a Split evolver from a snapshot. The potential
// strategy and any scratch state are re-derived on the next Evolve.
func RestoreSplit(snap *SplitSnapshot) (*Split, error) {
	if snap == nil || snap.Y == nil {
		return nil, ErrNilState
	}
	return NewSplit(snap.Y, snap.Dt, Options{T0: snap.T, Normalize: snap.Normalize})
}

// ABMSnapshot captures the persistent fields of an ABM evolver: policy
// flags, the step, the time, and the three history rings with the most
// recent entry first. Coefficients and fused expressions are not stored.
type ABMSnapshot struct {
	T, Dt        float64
	Normalize    bool
	NoRungeKutta bool
	Fuse         bool
	Ys           []state.State
	Dys          []state.State
	Dcps         []state.State
}

// Snapshot returns a deep copy of the evolver's persistent state,
// including a partially filled bootstrap history.
func (e *ABM) Snapshot() *ABMSnapshot {
	snap := &ABMSnapshot{
		T:            e.t,
		Dt:           e.dt,
		Normalize:    e.normalize,
		NoRungeKutta: e.noRK,
		Fuse:         e.fuse,
	}
	if !e.inited {
		snap.Ys = []state.State{e.y0.Copy()}
		return snap
	}
	snap.Ys = copyRing(&e.ys)
	snap.Dys = copyRing(&e.dys)
	snap.Dcps = copyRing(&e.dcps)
	return snap
}

func copyRing(r *ring) []state.State {
	out := make([]state.State, r.len())
	for i := range out {
		out[i] = r.at(i).Copy()
	}
	return out
}

// RestoreABM reconstructs an ABM evolver from a snapshot, re-deriving the
// step coefficients and recompiling any fused expressions.
func RestoreABM(snap *ABMSnapshot) (*ABM, error) {
	if snap == nil || len(snap.Ys) == 0 {
		return nil, ErrNilState
	}
	y0, ok := snap.Ys[0].(state.ABMState)
	if !ok {
		return nil, fmt.Errorf("%w: snapshot state %T does not implement state.ABMState",
			ErrNilState, snap.Ys[0])
	}
	e, err := NewABM(y0, snap.Dt, Options{
		T0:           snap.T,
		Normalize:    snap.Normalize,
		NoRungeKutta: snap.NoRungeKutta,
		Fuse:         snap.Fuse,
	})
	if err != nil {
		return nil, err
	}
	if len(snap.Dys) > 0 || len(snap.Ys) > 1 || len(snap.Dcps) > 0 {
		if err := e.restoreHistory(snap); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// restoreHistory seeds the rings from snapshot copies and re-runs the
// derived-state setup, leaving the evolver exactly where the snapshot was
// taken (including mid-bootstrap).
func (e *ABM) restoreHistory(snap *ABMSnapshot) error {
	e.deriveCoefficients()
	e.ys = newRing(2)
	e.dys = newRing(4)
	e.dcps = newRing(2)
	seedRing(&e.ys, snap.Ys)
	seedRing(&e.dys, snap.Dys)
	seedRing(&e.dcps, snap.Dcps)

	y0 := e.ys.at(0)
	if e.dys.len() < 4 {
		e.ytmp = y0.Empty()
		e.kbuf = y0.Empty()
	} else if e.fuse {
		e.tmp = y0.Empty()
	}
	if e.fuse {
		if err := e.compileExpressions(y0.Dtype()); err != nil {
			return err
		}
	}
	e.y0 = nil
	e.inited = true
	return nil
}

func seedRing(r *ring, entries []state.State) {
	for i := len(entries) - 1; i >= 0; i-- {
		r.push(entries[i].Copy())
	}
}
