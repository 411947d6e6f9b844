package canteen

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/canteen-sim/canteen/pkg/sim"
)

// HistoryEvent is one timestamped entry in a customer's personal log.
type HistoryEvent struct {
	Timestamp   float64
	Title       string
	Description string
}

// Customer is one visitor. Speed indexes how quick they are at self-service
// and paying; Hungry drives how many stations end up in the menu. Menu is a
// bit-vector aligned to the canteen's station order, the last bit being the
// checkout and always set.
type Customer struct {
	ID      uuid.UUID
	Arrival float64
	Speed   int
	Hungry  int
	Menu    []bool

	Exit    float64
	History []HistoryEvent
}

// SpeedPenalty is the customer's personal slowdown: 0.3 - speed * 0.06.
// Zero for the fastest customers (speed 5), 0.3 for the slowest.
func (c *Customer) SpeedPenalty() float64 {
	return 0.3 - float64(c.Speed)*0.06
}

// Record appends a timestamped entry to the customer's history.
func (c *Customer) Record(t float64, title, description string) {
	c.History = append(c.History, HistoryEvent{Timestamp: t, Title: title, Description: description})
}

// RushWindow is a recurring surge in arrivals: whenever the cron schedule
// matches, the arrival rate is multiplied by Factor for Duration minutes.
type RushWindow struct {
	Schedule cron.Schedule
	Duration float64
	Factor   float64
}

// ArrivalProfile describes how customers show up over the horizon: an
// exponential base inter-arrival time modulated by cron-scheduled rush
// windows. Anchor maps minute zero of the simulation onto wall-clock time
// so the cron schedules have something to match against.
type ArrivalProfile struct {
	MeanInterval float64
	Rushes       []RushWindow
	Anchor       time.Time
}

// window is one expanded rush occurrence in simulated minutes.
type window struct {
	start, end, factor float64
}

// expand walks every rush schedule forward from the anchor and collects the
// occurrences that overlap the horizon.
func (a *ArrivalProfile) expand(horizon float64) []window {
	var windows []window
	endWall := a.Anchor.Add(time.Duration(horizon * float64(time.Minute)))
	for _, rush := range a.Rushes {
		if rush.Schedule == nil || rush.Factor <= 0 {
			continue
		}
		// Start just before the anchor so a window already open at
		// minute zero is not missed.
		t := a.Anchor.Add(-time.Duration(rush.Duration * float64(time.Minute)))
		for {
			next := rush.Schedule.Next(t)
			if next.IsZero() || next.After(endWall) {
				break
			}
			start := next.Sub(a.Anchor).Minutes()
			windows = append(windows, window{
				start:  start,
				end:    start + rush.Duration,
				factor: rush.Factor,
			})
			t = next.Add(time.Minute)
		}
	}
	return windows
}

// factorAt multiplies the factors of every window containing t.
func factorAt(windows []window, t float64) float64 {
	factor := 1.0
	for _, w := range windows {
		if t >= w.start && t < w.end {
			factor *= w.factor
		}
	}
	return factor
}

// SourceCustomers starts the arrival generator: customers are created one
// inter-arrival time apart until the horizon, each immediately beginning its
// visit. The rng drives inter-arrival sampling and customer attributes, so a
// fixed seed reproduces the exact arrival sequence.
func SourceCustomers(s *sim.Scheduler, cn *Canteen, profile *ArrivalProfile, horizon float64, rng *rand.Rand) {
	windows := profile.expand(horizon)
	s.Go(func(p *sim.Proc) {
		for {
			interval := rng.ExpFloat64() * profile.MeanInterval
			if f := factorAt(windows, p.Now()); f > 0 {
				interval /= f
			}
			p.Delay(interval)
			if p.Now() >= horizon {
				return
			}
			c := newCustomer(p.Now(), len(cn.Stations()), rng)
			cn.Enter(c)
		}
	})
}

// newCustomer samples a customer arriving now. Hungrier customers visit more
// of the food stations; which ones is drawn uniformly. The checkout bit is
// always set.
func newCustomer(arrival float64, stations int, rng *rand.Rand) *Customer {
	c := &Customer{
		ID:      uuid.New(),
		Arrival: arrival,
		Speed:   rng.Intn(6),
		Hungry:  1 + rng.Intn(5),
		Menu:    make([]bool, stations),
	}
	food := stations - 1
	if food > 0 {
		visits := food * c.Hungry / 5
		if visits < 1 {
			visits = 1
		}
		for _, i := range rng.Perm(food)[:visits] {
			c.Menu[i] = true
		}
	}
	if stations > 0 {
		c.Menu[stations-1] = true
	}
	return c
}
