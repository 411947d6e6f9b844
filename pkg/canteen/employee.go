package canteen

import (
	"math"

	"github.com/google/uuid"

	"github.com/canteen-sim/canteen/pkg/sim"
)

// Employee is a member of staff: a capacity-1 priority resource plus the two
// scalars that slow their work down. Experience is fixed at hiring; energy
// only decreases, one unit per completed task, and is only ever touched by
// the process currently holding the employee.
type Employee struct {
	ID         uuid.UUID
	Experience int
	Energy     int

	Res *sim.PriorityResource
}

// NewEmployee creates an employee with full energy.
func NewEmployee(s *sim.Scheduler, experience int) *Employee {
	return &Employee{
		ID:         uuid.New(),
		Experience: experience,
		Energy:     100,
		Res:        sim.NewPriorityResource(s, 1),
	}
}

// NewStaff creates one employee per experience level.
func NewStaff(s *sim.Scheduler, experiences []int) []*Employee {
	staff := make([]*Employee, len(experiences))
	for i, exp := range experiences {
		staff[i] = NewEmployee(s, exp)
	}
	return staff
}

// EnergyPenalty is the fatigue slowdown: ln(101-energy) * 0.05. Zero at full
// energy, about 0.23 when exhausted.
func (e *Employee) EnergyPenalty() float64 {
	return math.Log(float64(101-e.Energy)) * 0.05
}

// ExperiencePenalty is the skill slowdown: 0.2 - (experience-1) * 0.2. Zero
// at experience level 2, negative (a speedup) above it.
func (e *Employee) ExperiencePenalty() float64 {
	return 0.2 - float64(e.Experience-1)*0.2
}

// Penalty is the combined duration multiplier contribution of this employee.
func (e *Employee) Penalty() float64 {
	return e.EnergyPenalty() + e.ExperiencePenalty()
}

// Tire burns one unit of energy after a completed task. Energy bottoms out
// at 1 so the fatigue penalty stays finite.
func (e *Employee) Tire() {
	if e.Energy > 1 {
		e.Energy--
	}
}
