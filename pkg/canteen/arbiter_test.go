package canteen

import (
	"errors"
	"testing"

	"github.com/canteen-sim/canteen/pkg/sim"
)

func testPool(s *sim.Scheduler, n int) []*Employee {
	pool := make([]*Employee, n)
	for i := range pool {
		pool[i] = NewEmployee(s, 2)
	}
	return pool
}

func TestBroadcastTakesFirstFreeEmployee(t *testing.T) {
	s := sim.NewScheduler()
	pool := testPool(s, 3)
	a := NewArbiter(pool)

	var won *Employee
	s.Go(func(p *sim.Proc) {
		won = a.Acquire(p, Normal).Employee()
	})
	s.RunUntil(1)

	if won == nil {
		t.Fatal("no employee acquired from a fully free pool")
	}
	if a.Current() != won {
		t.Error("Current() does not match the acquired employee")
	}

	// Exactly one slot held across the pool, and no dangling waiters
	// from the cancelled broadcast.
	held := 0
	for _, e := range pool {
		held += e.Res.InUse()
		if e.Res.Waiting() != 0 {
			t.Errorf("employee left with %d queued requests after cancel", e.Res.Waiting())
		}
	}
	if held != 1 {
		t.Errorf("%d slots held across the pool, want 1", held)
	}
}

func TestBroadcastWaitsForFirstRelease(t *testing.T) {
	s := sim.NewScheduler()
	pool := testPool(s, 2)

	// Both employees busy with other jobs of different lengths.
	for i, e := range pool {
		e := e
		hold := float64(i+1) * 2 // 2 and 4 minutes
		s.Go(func(p *sim.Proc) {
			e.Res.Acquire(p, int(Normal))
			p.Delay(hold)
			e.Res.Release()
		})
	}

	a := NewArbiter(pool)
	var won *Employee
	var at float64
	s.Go(func(p *sim.Proc) {
		won = a.Acquire(p, Normal).Employee()
		at = p.Now()
	})
	s.RunUntil(10)

	if won != pool[0] {
		t.Error("arbiter did not take the first employee to free up")
	}
	if at != 2 {
		t.Errorf("acquired at %v, want 2", at)
	}
	if pool[1].Res.Waiting() != 0 {
		t.Errorf("losing request left queued on the slower employee")
	}
}

func TestAcquireWhileHoldingEscalatesWithoutBroadcast(t *testing.T) {
	s := sim.NewScheduler()
	pool := testPool(s, 2)
	a := NewArbiter(pool)

	var first, second *Employee
	s.Go(func(p *sim.Proc) {
		hold := a.Acquire(p, Normal)
		first = hold.Employee()
		p.Delay(5)
		if err := hold.Release(); err != nil {
			t.Errorf("Release() = %v", err)
		}
	})

	s.Go(func(p *sim.Proc) {
		p.Delay(1)
		hold := a.Acquire(p, Normal)
		second = hold.Employee()
		if err := hold.Release(); err != nil {
			t.Errorf("Release() = %v", err)
		}
	})
	s.RunUntil(10)

	if first == nil || second == nil {
		t.Fatal("acquisitions did not complete")
	}
	if second != first {
		t.Error("escalated acquire did not reuse the held employee")
	}

	// The second acquire must not have broadcast: each pool member saw
	// exactly the initial broadcast, the winner one escalated request more.
	if got := pool[1].Res.Submitted(); got != 1 {
		t.Errorf("other pool member received %d requests, want 1 (initial broadcast only)", got)
	}
	if got := pool[0].Res.Submitted(); got != 2 {
		t.Errorf("held employee received %d requests, want 2", got)
	}
}

func TestEscalatedRequestBeatsQueuedWork(t *testing.T) {
	s := sim.NewScheduler()
	pool := testPool(s, 1)
	a := NewArbiter(pool)

	var order []string
	s.Go(func(p *sim.Proc) {
		hold := a.Acquire(p, Normal)
		p.Delay(2)
		hold.Release()
	})
	// An outside job queues at urgent priority at t=1...
	s.Go(func(p *sim.Proc) {
		p.Delay(1)
		pool[0].Res.Acquire(p, int(Urgent))
		order = append(order, "outside")
		pool[0].Res.Release()
	})
	// ...but the arbiter's own follow-up, arriving later, still wins.
	s.Go(func(p *sim.Proc) {
		p.Delay(1.5)
		hold := a.Acquire(p, Normal)
		order = append(order, "escalated")
		hold.Release()
	})
	s.RunUntil(10)

	if len(order) != 2 || order[0] != "escalated" || order[1] != "outside" {
		t.Errorf("grant order = %v, want [escalated outside]", order)
	}
}

func TestSameInstantHandoffKeepsHoldsSeparate(t *testing.T) {
	// One job hands its employee to an escalated waiter while a third job
	// acquires in the same instant, before that grant lands. The two live
	// holds must stay independent: each release frees its own employee.
	s := sim.NewScheduler()
	pool := testPool(s, 2)
	a := NewArbiter(pool)

	var third *sim.Proc
	var escEmp, newEmp *Employee
	var escErr, newErr error

	s.Go(func(p *sim.Proc) {
		hold := a.Acquire(p, Normal)
		p.Delay(2)
		// Wake the third job after the release below assigns the slot
		// but before the escalated grant fires.
		s.Schedule(0, third.Wake)
		if err := hold.Release(); err != nil {
			t.Errorf("Release() = %v", err)
		}
	})
	s.Go(func(p *sim.Proc) {
		p.Delay(1)
		hold := a.Acquire(p, Normal) // escalates on the held employee
		escEmp = hold.Employee()
		p.Delay(1)
		escErr = hold.Release()
	})
	s.Go(func(p *sim.Proc) {
		third = p
		p.Park()
		hold := a.Acquire(p, Normal)
		newEmp = hold.Employee()
		p.Delay(1)
		newErr = hold.Release()
	})
	s.RunUntil(10)

	if escEmp == nil || newEmp == nil {
		t.Fatal("acquisitions did not complete")
	}
	if escEmp == newEmp {
		t.Error("overlapping holds landed on the same employee")
	}
	if escErr != nil || newErr != nil {
		t.Errorf("releases failed: %v, %v", escErr, newErr)
	}
	for i, e := range pool {
		if e.Res.InUse() != 0 {
			t.Errorf("pool[%d] slot still held after all jobs finished", i)
		}
	}
	if a.Current() != nil {
		t.Error("arbiter still tracks a hold after all releases")
	}
}

func TestDoubleReleaseIsInvariantViolation(t *testing.T) {
	s := sim.NewScheduler()
	pool := testPool(s, 1)
	a := NewArbiter(pool)

	var first, second error
	s.Go(func(p *sim.Proc) {
		hold := a.Acquire(p, Normal)
		first = hold.Release()
		second = hold.Release()
	})
	s.RunUntil(1)

	if first != nil {
		t.Errorf("first Release() = %v", first)
	}
	if !errors.Is(second, ErrNotHolding) {
		t.Errorf("second Release() = %v, want ErrNotHolding", second)
	}
}

func TestLoserReleaseErrorSurfaces(t *testing.T) {
	s := sim.NewScheduler()
	pool := testPool(s, 1)
	a := NewArbiter(pool)

	planted := errors.New("slot bookkeeping out of sync")
	var got error
	s.Go(func(p *sim.Proc) {
		hold := a.Acquire(p, Normal)
		a.err = planted
		got = hold.Release()
	})
	s.RunUntil(1)

	if !errors.Is(got, planted) {
		t.Errorf("Release() = %v, want the recorded loser-release error", got)
	}
}
