package canteen

// EventType defines the type of event in the simulation
type EventType string

const (
	EventCustomerArrived  EventType = "customer-arrived"
	EventCustomerAdmitted EventType = "customer-admitted"
	EventCustomerWaiting  EventType = "customer-waiting"
	EventCustomerServed   EventType = "customer-served"
	EventCustomerPaid     EventType = "customer-paid"
	EventCustomerLeft     EventType = "customer-left"
	EventRefillRequested  EventType = "refill-requested"
	EventRefillCompleted  EventType = "refill-completed"
	EventVisitFailed      EventType = "visit-failed"
)

// Event is a point-in-time occurrence worth reporting after the run.
type Event struct {
	Time      float64
	Type      EventType
	Customer  string
	Station   string
	Product   string
	Message   string
	IsWarning bool
}

// TimePoint samples the canteen's state at a specific simulated minute.
type TimePoint struct {
	Time           float64
	Occupancy      int
	WaitingOutside int
}

// Metrics collects the run's event timeline and periodic occupancy samples.
type Metrics struct {
	events     []Event
	timePoints []TimePoint

	occupancy      int
	waitingOutside int
	served         int
}

// NewMetrics creates an empty metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Add appends an event to the timeline.
func (m *Metrics) Add(event Event) {
	m.events = append(m.events, event)
}

// Sample records the occupancy state at time t.
func (m *Metrics) Sample(t float64) {
	m.timePoints = append(m.timePoints, TimePoint{
		Time:           t,
		Occupancy:      m.occupancy,
		WaitingOutside: m.waitingOutside,
	})
}

// CustomerQueued notes a customer waiting outside the admission gate.
func (m *Metrics) CustomerQueued() { m.waitingOutside++ }

// CustomerAdmitted notes a customer passing the admission gate.
func (m *Metrics) CustomerAdmitted() {
	m.waitingOutside--
	m.occupancy++
}

// CustomerPaid notes a completed payment.
func (m *Metrics) CustomerPaid() { m.served++ }

// CustomerLeft notes a customer leaving, paid or not.
func (m *Metrics) CustomerLeft() { m.occupancy-- }

// Served returns the number of customers that paid and completed their visit.
func (m *Metrics) Served() int { return m.served }

// Occupancy returns the number of customers currently inside.
func (m *Metrics) Occupancy() int { return m.occupancy }

// Events returns all events
func (m *Metrics) Events() []Event {
	return m.events
}

// TimePoints returns all time points
func (m *Metrics) TimePoints() []TimePoint {
	return m.timePoints
}

// Warnings returns all warning events
func (m *Metrics) Warnings() []Event {
	warnings := []Event{}
	for _, event := range m.events {
		if event.IsWarning {
			warnings = append(warnings, event)
		}
	}
	return warnings
}
