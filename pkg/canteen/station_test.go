package canteen

import (
	"math"
	"testing"

	"github.com/canteen-sim/canteen/pkg/sim"
)

func testCustomer(arrival float64, speed int, menu []bool) *Customer {
	c := &Customer{Arrival: arrival, Speed: speed, Menu: menu}
	return c
}

// kitchenFor builds a production station mirroring one product of a counter.
func kitchenFor(s *sim.Scheduler, product string, capacity int, prep, production, refill float64, keep bool, pool []*Employee, m *Metrics) *ProductionStation {
	return NewProductionStation(s, "kitchen", []string{product}, []int{capacity},
		map[string]float64{product: prep},
		map[string]float64{product: production},
		map[string]float64{product: refill},
		map[string]bool{product: keep},
		pool, m)
}

func TestSelfServiceTimingUsesSpeedPenalty(t *testing.T) {
	s := sim.NewScheduler()
	m := NewMetrics()
	store := sim.NewStore(s, sim.Clamping, []string{"salad"}, []int{10}, true)
	st := NewSelfServiceStation(s, "side", store, map[string]float64{"salad": 2.0}, map[string]int{"salad": 0}, nil, m)

	var done float64
	s.Go(func(p *sim.Proc) {
		c := testCustomer(0, 0, nil) // slowest: penalty 0.3
		if err := st.Serve(p, c, "salad", Normal); err != nil {
			t.Errorf("Serve() = %v", err)
		}
		done = p.Now()
	})
	s.RunUntil(100)

	if want := 2.0 * 1.3; math.Abs(done-want) > 1e-9 {
		t.Errorf("serve finished at %v, want %v", done, want)
	}
	if store.Level("salad") != 9 {
		t.Errorf("level = %d, want 9", store.Level("salad"))
	}
}

func TestSingleInFlightReplenishment(t *testing.T) {
	s := sim.NewScheduler()
	m := NewMetrics()
	pool := testPool(s, 1)
	supplier := kitchenFor(s, "cake", 3, 0, 50, 0, false, pool, m)
	store := sim.NewStore(s, sim.Clamping, []string{"cake"}, []int{3}, true)
	st := NewSelfServiceStation(s, "sweet", store, map[string]float64{"cake": 0}, map[string]int{"cake": 2}, supplier, m)

	// Two customers deplete below the reorder level in quick succession,
	// long before the slow replenishment lands.
	for i := 0; i < 2; i++ {
		s.Go(func(p *sim.Proc) {
			if err := st.Serve(p, testCustomer(0, 5, nil), "cake", Normal); err != nil {
				t.Errorf("Serve() = %v", err)
			}
		})
	}
	s.RunUntil(10)

	if got := supplier.WorkStarted(); got != 1 {
		t.Errorf("replenishment cycles started = %d, want exactly 1", got)
	}
	if !st.WaitingRefill("cake") {
		t.Error("waiting-refill guard not set while replenishment is in flight")
	}
}

func TestReorderScenario(t *testing.T) {
	// Capacity 3, reorder level 0, zero service time, an always-free
	// employee and production_time=2: the third take triggers exactly one
	// cycle and a fourth customer waits until the batch lands at t=2.
	s := sim.NewScheduler()
	m := NewMetrics()
	pool := testPool(s, 1)
	supplier := kitchenFor(s, "yogurt", 3, 0, 2, 0, false, pool, m)
	store := sim.NewStore(s, sim.Clamping, []string{"yogurt"}, []int{3}, true)
	st := NewSelfServiceStation(s, "sweet", store, map[string]float64{"yogurt": 0}, map[string]int{"yogurt": 0}, supplier, m)

	for i := 0; i < 3; i++ {
		s.Go(func(p *sim.Proc) {
			if err := st.Serve(p, testCustomer(0, 5, nil), "yogurt", Normal); err != nil {
				t.Errorf("Serve() = %v", err)
			}
		})
	}

	var fourthDone float64
	s.Go(func(p *sim.Proc) {
		p.Delay(1)
		if err := st.Serve(p, testCustomer(1, 5, nil), "yogurt", Normal); err != nil {
			t.Errorf("Serve() = %v", err)
		}
		fourthDone = p.Now()
	})

	s.RunUntil(50)

	if got := supplier.WorkStarted(); got != 1 {
		t.Errorf("replenishment cycles started = %d, want exactly 1", got)
	}
	if fourthDone != 2 {
		t.Errorf("fourth customer served at %v, want 2 (when the batch lands)", fourthDone)
	}
	if st.WaitingRefill("yogurt") {
		t.Error("waiting-refill guard still set after the batch landed")
	}
	if got := store.Level("yogurt"); got != 2 {
		t.Errorf("level after refill and fourth take = %d, want 2", got)
	}
}

func TestAttendedServiceTiresAndReleasesEmployee(t *testing.T) {
	s := sim.NewScheduler()
	m := NewMetrics()
	pool := testPool(s, 1)
	store := sim.NewStore(s, sim.Clamping, []string{"pizza"}, []int{5}, true)
	st := NewServiceStation(s, "pizza", store, map[string]float64{"pizza": 2.0}, map[string]int{"pizza": 0}, pool, nil, m)

	var done float64
	s.Go(func(p *sim.Proc) {
		if err := st.Serve(p, testCustomer(0, 5, nil), "pizza", Normal); err != nil {
			t.Errorf("Serve() = %v", err)
		}
		done = p.Now()
	})
	s.RunUntil(100)

	// Experience 2 and energy 100 mean no employee penalty; speed 5 means
	// no customer penalty either.
	if math.Abs(done-2.0) > 1e-9 {
		t.Errorf("serve finished at %v, want 2", done)
	}
	if pool[0].Energy != 99 {
		t.Errorf("employee energy = %d, want 99", pool[0].Energy)
	}
	if st.Arbiter().Current() != nil {
		t.Error("employee still held after service")
	}
	if pool[0].Res.InUse() != 0 {
		t.Errorf("employee slot still in use after service")
	}
}

func TestProductionReleasesEmployeeDuringCook(t *testing.T) {
	s := sim.NewScheduler()
	m := NewMetrics()
	pool := testPool(s, 1)
	supplier := kitchenFor(s, "ragu", 4, 1, 6, 1, false, pool, m)
	store := sim.NewStore(s, sim.Clamping, []string{"ragu"}, []int{4}, false)
	st := NewSelfServiceStation(s, "first", store, map[string]float64{"ragu": 0}, map[string]int{"ragu": 0}, supplier, m)

	s.Go(func(p *sim.Proc) {
		if err := supplier.Work(p, "ragu", st, Urgent, Medium); err != nil {
			t.Errorf("Work() = %v", err)
		}
	})

	// Mid-cook (prep done at t=1, cook runs until t=7) the employee must
	// be free for other jobs.
	var freeDuringCook bool
	s.Schedule(3, func() { freeDuringCook = pool[0].Res.InUse() == 0 })
	s.RunUntil(100)

	if !freeDuringCook {
		t.Error("employee not released during the unattended cook time")
	}
	if got := store.Level("ragu"); got != 4 {
		t.Errorf("target level = %d, want full batch of 4", got)
	}
}

func TestProductionKeepsEmployeeWhenFlagged(t *testing.T) {
	s := sim.NewScheduler()
	m := NewMetrics()
	pool := testPool(s, 1)
	supplier := kitchenFor(s, "pizza", 1, 1, 6, 1, true, pool, m)
	store := sim.NewStore(s, sim.Clamping, []string{"pizza"}, []int{1}, false)
	st := NewSelfServiceStation(s, "pizza", store, map[string]float64{"pizza": 0}, map[string]int{"pizza": 0}, supplier, m)

	s.Go(func(p *sim.Proc) {
		if err := supplier.Work(p, "pizza", st, Urgent, Medium); err != nil {
			t.Errorf("Work() = %v", err)
		}
	})

	var heldDuringCook bool
	s.Schedule(3, func() { heldDuringCook = pool[0].Res.InUse() == 1 })
	s.RunUntil(100)

	if !heldDuringCook {
		t.Error("keep flag did not hold the employee through the cook time")
	}
	if pool[0].Energy != 99 {
		t.Errorf("employee energy = %d, want 99 after the kept cycle", pool[0].Energy)
	}
	if pool[0].Res.InUse() != 0 {
		t.Error("employee slot still in use after the cycle finished")
	}
}

func TestCheckoutPayTiming(t *testing.T) {
	s := sim.NewScheduler()
	m := NewMetrics()
	cashier := NewEmployee(s, 1)
	ck := NewCheckout(s, "checkout", 5.0, 1, cashier, m)

	c := testCustomer(0, 0, nil)
	s.Go(func(p *sim.Proc) {
		if err := ck.Serve(p, c, "", Normal); err != nil {
			t.Errorf("Serve() = %v", err)
		}
	})
	s.RunUntil(100)

	// pay_time * (1 + speed penalty 0.3 + energy penalty at 100, which is
	// ln(1)*0.05 = 0).
	want := 5.0 * 1.3
	if math.Abs(c.Exit-want) > 1e-9 {
		t.Errorf("exit at %v, want %v", c.Exit, want)
	}
	if cashier.Energy != 99 {
		t.Errorf("cashier energy = %d, want 99", cashier.Energy)
	}
}
