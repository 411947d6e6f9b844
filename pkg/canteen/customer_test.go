package canteen

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
)

func TestSpeedPenalty(t *testing.T) {
	cases := []struct {
		speed int
		want  float64
	}{
		{0, 0.3},
		{2, 0.18},
		{5, 0.0},
	}
	for _, tc := range cases {
		c := &Customer{Speed: tc.speed}
		if got := c.SpeedPenalty(); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("SpeedPenalty(speed=%d) = %v, want %v", tc.speed, got, tc.want)
		}
	}
}

func TestNewCustomerMenuShape(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		c := newCustomer(0, 8, rng)

		if !c.Menu[7] {
			t.Fatal("checkout bit not set")
		}
		if c.Speed < 0 || c.Speed > 5 {
			t.Fatalf("speed %d out of range", c.Speed)
		}
		if c.Hungry < 1 || c.Hungry > 5 {
			t.Fatalf("hungry %d out of range", c.Hungry)
		}

		visits := 0
		for _, bit := range c.Menu[:7] {
			if bit {
				visits++
			}
		}
		if visits < 1 {
			t.Fatal("menu visits no food station at all")
		}
		if want := 7 * c.Hungry / 5; visits != max(1, want) {
			t.Fatalf("hungry %d visits %d stations, want %d", c.Hungry, visits, max(1, want))
		}
	}
}

func TestRushWindowExpansion(t *testing.T) {
	schedule, err := cron.ParseStandard("30 12 * * *")
	if err != nil {
		t.Fatal(err)
	}
	// Anchor on a Monday midnight; a two-day horizon holds two lunches.
	anchor := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	profile := &ArrivalProfile{
		MeanInterval: 2,
		Anchor:       anchor,
		Rushes:       []RushWindow{{Schedule: schedule, Duration: 60, Factor: 3}},
	}

	windows := profile.expand(2 * 24 * 60)
	if len(windows) != 2 {
		t.Fatalf("expanded %d windows, want 2", len(windows))
	}
	if windows[0].start != 12*60+30 {
		t.Errorf("first window starts at minute %v, want 750", windows[0].start)
	}
	if windows[0].end != windows[0].start+60 {
		t.Errorf("window length = %v, want 60", windows[0].end-windows[0].start)
	}

	if got := factorAt(windows, 13*60); got != 3 {
		t.Errorf("factor during lunch = %v, want 3", got)
	}
	if got := factorAt(windows, 10*60); got != 1 {
		t.Errorf("factor outside lunch = %v, want 1", got)
	}
}

func TestRecordAppendsHistory(t *testing.T) {
	c := &Customer{}
	c.Record(1.5, "arrive", "")
	c.Record(3.0, "served", "soup at first")

	if len(c.History) != 2 {
		t.Fatalf("history has %d entries, want 2", len(c.History))
	}
	if c.History[1].Timestamp != 3.0 || c.History[1].Title != "served" {
		t.Errorf("unexpected history entry: %+v", c.History[1])
	}
}
