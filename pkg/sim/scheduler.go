// Package sim provides the discrete-event kernel the canteen model runs on:
// a simulated clock with a time-ordered event queue, cooperative processes
// that suspend and resume through the queue, priority resources and
// multi-product stores.
//
// Exactly one process runs at any simulated instant. The scheduler goroutine
// and the process goroutines hand control to each other synchronously, so
// concurrency is logical interleaving only and runs are fully deterministic:
// events at the same timestamp fire in the order they were scheduled.
package sim

import (
	"container/heap"
)

// Event is a pending resumption in the event queue. It can be cancelled
// before it fires; firing a cancelled event is a no-op.
type Event struct {
	time     float64
	seq      uint64
	fn       func()
	canceled bool
	fired    bool
}

// Cancel withdraws the event. Cancelling an event that already fired (or was
// already cancelled) does nothing.
func (e *Event) Cancel() {
	e.canceled = true
}

// Canceled reports whether the event was withdrawn before firing.
func (e *Event) Canceled() bool {
	return e.canceled
}

// eventQueue is a min-heap ordered by (time, scheduling sequence). The
// sequence number gives the FIFO tie-break at equal timestamps.
type eventQueue []*Event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(*Event)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return ev
}

// Scheduler owns the simulated clock and the event queue, and drives every
// process in the simulation.
type Scheduler struct {
	now   float64
	seq   uint64
	queue eventQueue

	// ready carries control from the running process back to the scheduler.
	ready chan struct{}
}

// NewScheduler creates a scheduler with the clock at zero.
func NewScheduler() *Scheduler {
	s := &Scheduler{
		queue: make(eventQueue, 0, 64),
		ready: make(chan struct{}),
	}
	heap.Init(&s.queue)
	return s
}

// Now returns the current simulated time in minutes.
func (s *Scheduler) Now() float64 {
	return s.now
}

// Schedule enqueues fn to run delay minutes from now. A negative delay is
// treated as zero. The returned event can be cancelled until it fires.
func (s *Scheduler) Schedule(delay float64, fn func()) *Event {
	if delay < 0 {
		delay = 0
	}
	ev := &Event{time: s.now + delay, seq: s.seq, fn: fn}
	s.seq++
	heap.Push(&s.queue, ev)
	return ev
}

// Pending returns the number of events still in the queue, cancelled ones
// included.
func (s *Scheduler) Pending() int {
	return s.queue.Len()
}

// RunUntil pops and fires events in timestamp order until the queue is empty
// or the next event is stamped at or after end. The clock finishes pinned to
// end (or to the last fired event when the queue drains early and end is
// infinite).
func (s *Scheduler) RunUntil(end float64) {
	for s.queue.Len() > 0 {
		ev := s.queue[0]
		if ev.canceled {
			heap.Pop(&s.queue)
			continue
		}
		if ev.time >= end {
			s.now = end
			return
		}
		heap.Pop(&s.queue)
		s.now = ev.time
		ev.fired = true
		ev.fn()
	}
	if s.now < end {
		s.now = end
	}
}

// Proc is a cooperative process. Each process runs in its own goroutine but
// only ever while the scheduler has handed it control; it gives control back
// whenever it parks or finishes.
type Proc struct {
	s *Scheduler

	// resume is buffered so a wake that fires before the process reaches
	// its receive is not lost.
	resume chan struct{}
}

// Go starts fn as a new process at the current simulated time.
func (s *Scheduler) Go(fn func(p *Proc)) {
	p := &Proc{s: s, resume: make(chan struct{}, 1)}
	s.Schedule(0, func() {
		go func() {
			fn(p)
			s.ready <- struct{}{}
		}()
		<-s.ready
	})
}

// Scheduler returns the scheduler driving this process.
func (p *Proc) Scheduler() *Scheduler {
	return p.s
}

// Now returns the current simulated time.
func (p *Proc) Now() float64 {
	return p.s.now
}

// Park suspends the process until some event callback calls Wake. Must be
// called from the process goroutine.
func (p *Proc) Park() {
	p.s.ready <- struct{}{}
	<-p.resume
}

// Wake resumes a parked process and blocks until it parks again or finishes.
// Must be called from an event callback, i.e. from scheduler context.
func (p *Proc) Wake() {
	p.resume <- struct{}{}
	<-p.s.ready
}

// Delay suspends the process for d simulated minutes.
func (p *Proc) Delay(d float64) {
	p.s.Schedule(d, func() { p.Wake() })
	p.Park()
}
