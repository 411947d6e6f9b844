package canteen

import (
	"errors"

	"github.com/canteen-sim/canteen/pkg/sim"
)

// ErrNotHolding is returned when a hold is released more than once. It always
// means an acquire/release mismatch in the caller.
var ErrNotHolding = errors.New("arbiter: release without a held employee")

// Arbiter acquires any free employee from an interchangeable pool. It
// broadcasts one request per employee, keeps the first one granted and
// withdraws the rest; a loser whose grant slipped through anyway is released
// on the spot. While the arbiter holds at least one employee, a further
// acquisition does not broadcast at all: it escalates a single request on
// the earliest-held employee at Extraordinary priority, so the employee
// assigned to the job in progress is pulled back instead of racing for
// another.
//
// Every acquisition gets its own Hold, so overlapping acquisitions through
// the same arbiter each release exactly the employee they were granted, in
// any order.
type Arbiter struct {
	pool  []*Employee
	holds []*Hold

	// err records a failed loser-grant release until the next Release
	// can report it.
	err error
}

// NewArbiter creates an arbiter over the given employee pool.
func NewArbiter(pool []*Employee) *Arbiter {
	return &Arbiter{pool: pool}
}

// Hold is one granted acquisition on the arbiter.
type Hold struct {
	a        *Arbiter
	employee *Employee
	released bool
}

// Employee returns the employee this hold pins.
func (h *Hold) Employee() *Employee { return h.employee }

// Release gives this hold's employee back and hands the slot to the next
// waiter, if any. Releasing the same hold twice is an invariant violation
// reported as ErrNotHolding.
func (h *Hold) Release() error {
	if h.released {
		return ErrNotHolding
	}
	h.released = true
	h.a.drop(h)
	if err := h.employee.Res.Release(); err != nil {
		return err
	}
	if err := h.a.err; err != nil {
		h.a.err = nil
		return err
	}
	return nil
}

// Current returns the earliest-held employee, nil when none is held.
func (a *Arbiter) Current() *Employee {
	if len(a.holds) == 0 {
		return nil
	}
	return a.holds[0].employee
}

// Acquire parks the process until an employee from the pool is held, and
// returns the hold.
func (a *Arbiter) Acquire(p *sim.Proc, priority Priority) *Hold {
	if len(a.holds) > 0 {
		e := a.holds[0].employee
		e.Res.Acquire(p, int(Extraordinary))
		h := &Hold{a: a, employee: e}
		a.holds = append(a.holds, h)
		return h
	}

	var won *Employee
	reqs := make([]*sim.Request, len(a.pool))
	for i, e := range a.pool {
		e := e
		reqs[i] = e.Res.Submit(int(priority), func() {
			if won == nil {
				won = e
				p.Wake()
				return
			}
			// Grant raced the winner at the same instant; give the
			// slot straight back.
			if err := e.Res.Release(); err != nil {
				a.err = err
			}
		})
	}
	p.Park()

	for i, e := range a.pool {
		if e != won {
			reqs[i].Cancel()
		}
	}
	h := &Hold{a: a, employee: won}
	a.holds = append(a.holds, h)
	return h
}

// drop removes a released hold from the active list.
func (a *Arbiter) drop(h *Hold) {
	for i, held := range a.holds {
		if held == h {
			a.holds = append(a.holds[:i], a.holds[i+1:]...)
			return
		}
	}
}
