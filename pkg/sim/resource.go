package sim

import (
	"container/heap"
	"errors"
)

// ErrNotHeld is returned when a resource is released more times than it was
// acquired. It signals an acquire/release mismatch in the caller, never a
// condition to recover from.
var ErrNotHeld = errors.New("resource released but not held")

// requestState tracks a request through the resource queue.
type requestState int

const (
	requestPending requestState = iota
	requestGranted
	requestCanceled
)

// Request is one outstanding claim on a PriorityResource. It is created by
// Submit and can be cancelled while it still sits in the queue; cancelling a
// request whose grant already fired is a safe no-op.
type Request struct {
	r        *PriorityResource
	priority int
	seq      uint64
	onGrant  func()
	state    requestState
	grantEv  *Event
	index    int
}

// Granted reports whether the request was assigned a slot.
func (req *Request) Granted() bool {
	return req.state == requestGranted
}

// Cancel withdraws the request. A queued request is removed from the waiting
// list. A request whose slot was assigned but whose grant has not fired yet
// gives the slot back to the next waiter. Anything else is a no-op.
func (req *Request) Cancel() {
	switch req.state {
	case requestPending:
		heap.Remove(&req.r.waiters, req.index)
		req.state = requestCanceled
	case requestGranted:
		if req.grantEv != nil && !req.grantEv.fired {
			req.grantEv.Cancel()
			req.grantEv = nil
			req.state = requestCanceled
			req.r.inUse--
			req.r.grantNext()
		}
	}
}

// waiterQueue is a min-heap of requests ordered by (priority, arrival).
// Lower priority values are served first; the sequence number keeps equal
// priorities FIFO.
type waiterQueue []*Request

func (q waiterQueue) Len() int { return len(q) }

func (q waiterQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q waiterQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *waiterQueue) Push(x any) {
	req := x.(*Request)
	req.index = len(*q)
	*q = append(*q, req)
}

func (q *waiterQueue) Pop() any {
	old := *q
	n := len(old)
	req := old[n-1]
	old[n-1] = nil
	req.index = -1
	*q = old[:n-1]
	return req
}

// PriorityResource is a capacity-limited resource with priority-ordered,
// preemption-free waiters. Waiters with a lower priority value are granted
// first; ties break in arrival order. With a single shared priority value it
// degrades to a plain FIFO gate.
type PriorityResource struct {
	s         *Scheduler
	capacity  int
	inUse     int
	seq       uint64
	waiters   waiterQueue
	submitted int
}

// NewPriorityResource creates a resource with the given slot capacity.
func NewPriorityResource(s *Scheduler, capacity int) *PriorityResource {
	if capacity < 1 {
		capacity = 1
	}
	r := &PriorityResource{s: s, capacity: capacity}
	heap.Init(&r.waiters)
	return r
}

// Capacity returns the number of slots.
func (r *PriorityResource) Capacity() int { return r.capacity }

// InUse returns the number of slots currently assigned.
func (r *PriorityResource) InUse() int { return r.inUse }

// Waiting returns the number of queued requests.
func (r *PriorityResource) Waiting() int { return r.waiters.Len() }

// Submitted returns how many requests this resource has ever received.
func (r *PriorityResource) Submitted() int { return r.submitted }

// Submit queues a claim on the resource. When a slot is assigned, onGrant
// runs from scheduler context at the assignment timestamp; a free slot is
// assigned immediately (the grant still fires through the event queue, at
// the current instant, to keep resumption order deterministic).
func (r *PriorityResource) Submit(priority int, onGrant func()) *Request {
	req := &Request{r: r, priority: priority, seq: r.seq, onGrant: onGrant, index: -1}
	r.seq++
	r.submitted++
	heap.Push(&r.waiters, req)
	r.grantNext()
	return req
}

// grantNext assigns free slots to the best-placed waiters. The slot count is
// bumped at assignment time so holders never exceed capacity even while the
// grant event is still in flight.
func (r *PriorityResource) grantNext() {
	for r.inUse < r.capacity && r.waiters.Len() > 0 {
		req := heap.Pop(&r.waiters).(*Request)
		req.state = requestGranted
		r.inUse++
		req.grantEv = r.s.Schedule(0, func() {
			req.grantEv = nil
			req.onGrant()
		})
	}
}

// Acquire blocks the calling process until it holds a slot.
func (r *PriorityResource) Acquire(p *Proc, priority int) {
	r.Submit(priority, p.Wake)
	p.Park()
}

// Release frees one slot and hands it to the head of the waiting list, if
// any. Releasing a resource with no slot in use is an invariant violation
// and reported as ErrNotHeld.
func (r *PriorityResource) Release() error {
	if r.inUse == 0 {
		return ErrNotHeld
	}
	r.inUse--
	r.grantNext()
	return nil
}
