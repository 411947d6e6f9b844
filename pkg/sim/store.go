package sim

import (
	"fmt"
)

// Semantics selects how a Store settles get/put requests.
//
// Clamping is the canonical behavior: a get takes min(level, amount) and a
// put stores min(amount, free space), so a request settles as soon as any
// nonzero transfer is possible. Exact settles only the precise amount and
// blocks until it fits; it never shrinks a batch but can park a producer
// forever when capacities and reorder levels are misconfigured.
type Semantics int

const (
	Clamping Semantics = iota
	Exact
)

// String returns the yaml spelling of the semantics.
func (m Semantics) String() string {
	if m == Exact {
		return "exact"
	}
	return "clamping"
}

// transfer is a parked get or put waiting for the bin to change.
type transfer struct {
	amount int
	moved  int
	p      *Proc
}

// bin is one product's bounded counter plus its FIFO waiting lists.
type bin struct {
	capacity int
	level    int
	getters  []*transfer
	putters  []*transfer
}

func (b *bin) tryGet(mode Semantics, amount int) (int, bool) {
	if mode == Exact {
		if b.level < amount {
			return 0, false
		}
		b.level -= amount
		return amount, true
	}
	if b.level == 0 {
		return 0, false
	}
	n := amount
	if n > b.level {
		n = b.level
	}
	b.level -= n
	return n, true
}

func (b *bin) tryPut(mode Semantics, amount int) (int, bool) {
	free := b.capacity - b.level
	if mode == Exact {
		if free < amount {
			return 0, false
		}
		b.level += amount
		return amount, true
	}
	if free == 0 {
		return 0, false
	}
	n := amount
	if n > free {
		n = free
	}
	b.level += n
	return n, true
}

// Store is a set of independent bounded counters, one per product. Gets and
// puts settle immediately when the configured semantics allow and otherwise
// park the calling process until another process changes the level.
type Store struct {
	s     *Scheduler
	mode  Semantics
	order []string
	bins  map[string]*bin
}

// NewStore creates a store holding the given products. Bins start full when
// full is true (a stocked service counter) and empty otherwise (a production
// buffer).
func NewStore(s *Scheduler, mode Semantics, products []string, capacities []int, full bool) *Store {
	st := &Store{
		s:     s,
		mode:  mode,
		order: append([]string(nil), products...),
		bins:  make(map[string]*bin, len(products)),
	}
	for i, p := range products {
		level := 0
		if full {
			level = capacities[i]
		}
		st.bins[p] = &bin{capacity: capacities[i], level: level}
	}
	return st
}

// Mode returns the settlement semantics of this store.
func (st *Store) Mode() Semantics { return st.mode }

// Products returns the products in construction order.
func (st *Store) Products() []string {
	return append([]string(nil), st.order...)
}

// Level returns the current quantity of a product, zero if unknown.
func (st *Store) Level(product string) int {
	if b, ok := st.bins[product]; ok {
		return b.level
	}
	return 0
}

// Capacity returns the bin capacity of a product, zero if unknown.
func (st *Store) Capacity(product string) int {
	if b, ok := st.bins[product]; ok {
		return b.capacity
	}
	return 0
}

// Get takes amount units of product, parking the process until the request
// settles under the store's semantics. It returns the quantity actually
// taken: amount under Exact, up to amount under Clamping.
func (st *Store) Get(p *Proc, product string, amount int) (int, error) {
	b, ok := st.bins[product]
	if !ok {
		return 0, fmt.Errorf("store: unknown product %q", product)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("store: get amount must be positive, got %d", amount)
	}
	if n, ok := b.tryGet(st.mode, amount); ok {
		st.settle(b)
		return n, nil
	}
	t := &transfer{amount: amount, p: p}
	b.getters = append(b.getters, t)
	p.Park()
	return t.moved, nil
}

// Put stores amount units of product, parking the process until the request
// settles under the store's semantics. It returns the quantity actually
// stored: amount under Exact, up to amount under Clamping.
func (st *Store) Put(p *Proc, product string, amount int) (int, error) {
	b, ok := st.bins[product]
	if !ok {
		return 0, fmt.Errorf("store: unknown product %q", product)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("store: put amount must be positive, got %d", amount)
	}
	if n, ok := b.tryPut(st.mode, amount); ok {
		st.settle(b)
		return n, nil
	}
	t := &transfer{amount: amount, p: p}
	b.putters = append(b.putters, t)
	p.Park()
	return t.moved, nil
}

// settle re-examines a bin's waiting lists after a level change. Waiters are
// visited in arrival order; a satisfiable one has its transfer applied right
// away and its process woken through the event queue at the current instant.
// Satisfied getters can unblock putters and vice versa, so the scan repeats
// until a full pass makes no progress.
func (st *Store) settle(b *bin) {
	for changed := true; changed; {
		changed = false

		rest := b.putters[:0]
		for _, t := range b.putters {
			if n, ok := b.tryPut(st.mode, t.amount); ok {
				t.moved = n
				st.s.Schedule(0, t.p.Wake)
				changed = true
			} else {
				rest = append(rest, t)
			}
		}
		b.putters = rest

		rest = b.getters[:0]
		for _, t := range b.getters {
			if n, ok := b.tryGet(st.mode, t.amount); ok {
				t.moved = n
				st.s.Schedule(0, t.p.Wake)
				changed = true
			} else {
				rest = append(rest, t)
			}
		}
		b.getters = rest
	}
}
