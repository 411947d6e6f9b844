package canteen

import (
	"fmt"

	"github.com/canteen-sim/canteen/pkg/sim"
)

// Station is any stop on a customer's menu. Serve blocks the customer's
// process for the full service, including any queueing for stock or staff.
// The checkout implements it too, with an empty product list.
type Station interface {
	Name() string
	Products() []string
	Serve(p *sim.Proc, c *Customer, product string, priority Priority) error
}

// counter is the inventory side shared by the self-service and attended
// stations: a product store, per-product service times and reorder levels,
// and the guard that keeps replenishment to one in-flight request per
// product.
type counter struct {
	name          string
	s             *sim.Scheduler
	store         *sim.Store
	serviceTimes  map[string]float64
	reorderLevels map[string]int
	waitingRefill map[string]bool
	supplier      *ProductionStation
	metrics       *Metrics
}

// Name returns the station name.
func (ct *counter) Name() string { return ct.name }

// Products returns the products on offer, in configuration order.
func (ct *counter) Products() []string { return ct.store.Products() }

// Level returns the current stock of a product.
func (ct *counter) Level(product string) int { return ct.store.Level(product) }

// WaitingRefill reports whether a replenishment for the product is in flight.
func (ct *counter) WaitingRefill(product string) bool { return ct.waitingRefill[product] }

// Refill delivers a replenished batch into the counter's store and clears
// the waiting-refill guard. Called by the supplying production station at
// the end of its cycle.
func (ct *counter) Refill(p *sim.Proc, product string, amount int) error {
	if _, err := ct.store.Put(p, product, amount); err != nil {
		return err
	}
	ct.waitingRefill[product] = false
	ct.metrics.Add(Event{
		Time:    p.Now(),
		Type:    EventRefillCompleted,
		Station: ct.name,
		Product: product,
		Message: fmt.Sprintf("%s restocked with %d %s", ct.name, amount, product),
	})
	return nil
}

// checkReorder fires a detached replenishment cycle when stock is at or
// below the reorder level. The waiting-refill guard makes sure a run of
// customers draining the same product triggers exactly one cycle.
func (ct *counter) checkReorder(product string) {
	if ct.supplier == nil {
		return
	}
	if ct.store.Level(product) > ct.reorderLevels[product] || ct.waitingRefill[product] {
		return
	}
	ct.waitingRefill[product] = true
	ct.metrics.Add(Event{
		Time:    ct.s.Now(),
		Type:    EventRefillRequested,
		Station: ct.name,
		Product: product,
		Message: fmt.Sprintf("%s low on %s, replenishment requested", ct.name, product),
	})
	ct.s.Go(func(p *sim.Proc) {
		if err := ct.supplier.Work(p, product, ct, Urgent, Medium); err != nil {
			ct.metrics.Add(Event{
				Time:      p.Now(),
				Type:      EventVisitFailed,
				Station:   ct.name,
				Product:   product,
				Message:   fmt.Sprintf("replenishment of %s failed: %v", product, err),
				IsWarning: true,
			})
		}
	})
}

// SelfServiceStation dispenses straight from its store: the customer takes a
// portion, spends the service time at their own pace, and moves on.
type SelfServiceStation struct {
	counter
}

// NewSelfServiceStation creates an unstaffed station. The store starts full.
func NewSelfServiceStation(s *sim.Scheduler, name string, store *sim.Store, serviceTimes map[string]float64, reorderLevels map[string]int, supplier *ProductionStation, metrics *Metrics) *SelfServiceStation {
	return &SelfServiceStation{counter: counter{
		name:          name,
		s:             s,
		store:         store,
		serviceTimes:  serviceTimes,
		reorderLevels: reorderLevels,
		waitingRefill: make(map[string]bool),
		supplier:      supplier,
		metrics:       metrics,
	}}
}

// Serve takes one portion of product for the customer, waiting for stock if
// the bin is empty, then triggers a reorder check.
func (st *SelfServiceStation) Serve(p *sim.Proc, c *Customer, product string, _ Priority) error {
	if _, err := st.store.Get(p, product, 1); err != nil {
		return err
	}
	p.Delay(st.serviceTimes[product] * (1 + c.SpeedPenalty()))
	st.checkReorder(product)
	return nil
}

// ServiceStation is an attended counter: dispensing additionally needs an
// employee from the shared pool, acquired through the arbiter. The portion
// is taken from the bin before staff is claimed, so a customer stuck on an
// empty bin never sits on the very employee the kitchen needs to refill it.
type ServiceStation struct {
	counter
	arbiter *Arbiter
}

// NewServiceStation creates an attended station over the given employee
// pool. The store starts full.
func NewServiceStation(s *sim.Scheduler, name string, store *sim.Store, serviceTimes map[string]float64, reorderLevels map[string]int, pool []*Employee, supplier *ProductionStation, metrics *Metrics) *ServiceStation {
	return &ServiceStation{
		counter: counter{
			name:          name,
			s:             s,
			store:         store,
			serviceTimes:  serviceTimes,
			reorderLevels: reorderLevels,
			waitingRefill: make(map[string]bool),
			supplier:      supplier,
			metrics:       metrics,
		},
		arbiter: NewArbiter(pool),
	}
}

// Arbiter exposes the station's arbiter.
func (st *ServiceStation) Arbiter() *Arbiter { return st.arbiter }

// Serve dispenses one portion with an employee's help. The service time is
// stretched by the customer's speed and the employee's fatigue and skill;
// the employee loses one unit of energy and is released before the reorder
// check runs.
func (st *ServiceStation) Serve(p *sim.Proc, c *Customer, product string, priority Priority) error {
	if _, err := st.store.Get(p, product, 1); err != nil {
		return err
	}
	hold := st.arbiter.Acquire(p, priority)
	emp := hold.Employee()
	p.Delay(st.serviceTimes[product] * (1 + c.SpeedPenalty() + emp.Penalty()))
	emp.Tire()
	if err := hold.Release(); err != nil {
		return err
	}
	st.checkReorder(product)
	return nil
}

// RefillTarget is where a production station delivers a finished batch.
type RefillTarget interface {
	Name() string
	Refill(p *sim.Proc, product string, amount int) error
}

// ProductionStation is the kitchen side of a counter: it turns an employee's
// time into a full batch of product and carries it to the target station.
// Its own store buffers finished batches and always clamps, so a batch
// shrinks to whatever the target can absorb rather than blocking the cycle.
// Work cycles for different products run interleaved and contend for the
// same employee pool through the station's arbiter.
type ProductionStation struct {
	name        string
	s           *sim.Scheduler
	store       *sim.Store
	batches     map[string]int
	prepTimes   map[string]float64
	prodTimes   map[string]float64
	refillTimes map[string]float64
	keep        map[string]bool
	arbiter     *Arbiter
	metrics     *Metrics

	workStarted int
}

// NewProductionStation creates a kitchen for the given products. Batch sizes
// equal the per-product capacities; the buffer store starts empty.
func NewProductionStation(s *sim.Scheduler, name string, products []string, capacities []int, prepTimes, prodTimes, refillTimes map[string]float64, keep map[string]bool, pool []*Employee, metrics *Metrics) *ProductionStation {
	batches := make(map[string]int, len(products))
	for i, prod := range products {
		batches[prod] = capacities[i]
	}
	return &ProductionStation{
		name:        name,
		s:           s,
		store:       sim.NewStore(s, sim.Clamping, products, capacities, false),
		batches:     batches,
		prepTimes:   prepTimes,
		prodTimes:   prodTimes,
		refillTimes: refillTimes,
		keep:        keep,
		arbiter:     NewArbiter(pool),
		metrics:     metrics,
	}
}

// Arbiter exposes the station's arbiter.
func (ps *ProductionStation) Arbiter() *Arbiter { return ps.arbiter }

// WorkStarted returns how many production cycles were ever started.
func (ps *ProductionStation) WorkStarted() int { return ps.workStarted }

// Work runs one production cycle for a product and delivers the batch to
// the target: acquire an employee, prepare, cook (with the employee released
// for the unattended cook time unless the product keeps them), then carry
// the batch over and release. Durations stretch with the working employee's
// fatigue and skill.
func (ps *ProductionStation) Work(p *sim.Proc, product string, target RefillTarget, productionPriority, refillPriority Priority) error {
	batch, ok := ps.batches[product]
	if !ok {
		return fmt.Errorf("production station %s: unknown product %q", ps.name, product)
	}
	ps.workStarted++

	hold := ps.arbiter.Acquire(p, productionPriority)
	emp := hold.Employee()
	factor := 1 + emp.Penalty()
	p.Delay(ps.prepTimes[product] * factor)

	kept := ps.keep[product]
	if !kept {
		// The cook time is unattended; free the employee for other
		// jobs in the meantime.
		if err := hold.Release(); err != nil {
			return err
		}
	}

	p.Delay(ps.prodTimes[product] * factor)
	if _, err := ps.store.Put(p, product, batch); err != nil {
		return err
	}
	if kept {
		emp.Tire()
	} else {
		hold = ps.arbiter.Acquire(p, refillPriority)
		emp = hold.Employee()
		factor = 1 + emp.Penalty()
	}

	p.Delay(ps.refillTimes[product] * factor)

	// The hand-over is atomic: no suspension between taking the batch
	// out, delivering it and clearing the target's refill guard.
	moved, err := ps.store.Get(p, product, batch)
	if err != nil {
		return err
	}
	if err := target.Refill(p, product, moved); err != nil {
		return err
	}
	return hold.Release()
}

// Checkout is the single dedicated lane where a visit ends. Its employee is
// bound at construction and not shared with any other station.
type Checkout struct {
	name     string
	s        *sim.Scheduler
	payTime  float64
	employee *Employee
	gate     *sim.PriorityResource
	metrics  *Metrics
}

// NewCheckout creates a checkout with the given number of lanes, normally 1.
func NewCheckout(s *sim.Scheduler, name string, payTime float64, capacity int, employee *Employee, metrics *Metrics) *Checkout {
	return &Checkout{
		name:     name,
		s:        s,
		payTime:  payTime,
		employee: employee,
		gate:     sim.NewPriorityResource(s, capacity),
		metrics:  metrics,
	}
}

// Name returns the station name.
func (ck *Checkout) Name() string { return ck.name }

// Products returns nil: nothing is dispensed at the checkout.
func (ck *Checkout) Products() []string { return nil }

// Employee returns the checkout's dedicated employee.
func (ck *Checkout) Employee() *Employee { return ck.employee }

// Serve handles payment: queue for a lane, pay at a pace set by the
// customer's speed and the cashier's fatigue, and stamp the customer's exit.
func (ck *Checkout) Serve(p *sim.Proc, c *Customer, _ string, priority Priority) error {
	ck.gate.Acquire(p, int(priority))
	p.Delay(ck.payTime * (1 + c.SpeedPenalty() + ck.employee.EnergyPenalty()))
	ck.employee.Tire()
	c.Exit = p.Now()
	c.Record(p.Now(), "pay", ck.name)
	ck.metrics.CustomerPaid()
	ck.metrics.Add(Event{
		Time:     p.Now(),
		Type:     EventCustomerPaid,
		Customer: c.ID.String(),
		Station:  ck.name,
		Message:  fmt.Sprintf("customer paid after %.1f minutes inside", p.Now()-c.Arrival),
	})
	return ck.gate.Release()
}
