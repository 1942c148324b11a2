package evolver

import "github.com/forbes-group/timeode/internal/state"

// ring is a fixed-capacity history buffer with index 0 the most recent
// entry. A step writes its results into the retiring (oldest) slots and
// only then rotates; the rotation is a pure index update, so a panic
// mid-step leaves the observable history untouched.
type ring struct {
	buf  []state.State
	head int
	n    int
}

func newRing(capacity int) ring {
	return ring{buf: make([]state.State, capacity)}
}

func (r *ring) len() int { return r.n }

func (r *ring) full() bool { return r.n == len(r.buf) }

// at returns the i-th most recent entry; at(0) is the newest.
func (r *ring) at(i int) state.State {
	return r.buf[(r.head+i)%len(r.buf)]
}

// last returns the oldest entry, the one a full ring retires next.
func (r *ring) last() state.State {
	return r.at(r.n - 1)
}

// push inserts s as the newest entry. The ring must not be full.
func (r *ring) push(s state.State) {
	r.head = (r.head - 1 + len(r.buf)) % len(r.buf)
	r.buf[r.head] = s
	r.n++
}

// rotateIn commits one step: s becomes the newest entry, overwriting the
// oldest slot, and the displaced buffer is returned for reuse. Passing the
// ring's own last() buffer rotates in place. The ring must be full.
func (r *ring) rotateIn(s state.State) state.State {
	i := (r.head - 1 + len(r.buf)) % len(r.buf)
	old := r.buf[i]
	r.buf[i] = s
	r.head = i
	return old
}

func (r *ring) reset() {
	for i := range r.buf {
		r.buf[i] = nil
	}
	r.head = 0
	r.n = 0
}
