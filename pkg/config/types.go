package config

// Config represents the entire topology and run configuration for the
// canteen simulator
type Config struct {
	HorizonMinutes     float64   `yaml:"horizonMinutes"`
	CanteenCapacity    int       `yaml:"canteenCapacity"`
	Seed               int64     `yaml:"seed"`
	SampleEveryMinutes float64   `yaml:"sampleEveryMinutes"`
	Arrival            Arrival   `yaml:"arrival"`
	EmployeeExperience []int     `yaml:"employeeExperience"`
	Stations           []Station `yaml:"stations"`
	Checkout           Checkout  `yaml:"checkout"`
}

// Arrival describes how customers show up over the horizon
type Arrival struct {
	MeanIntervalMinutes float64 `yaml:"meanIntervalMinutes"`
	Rushes              []Rush  `yaml:"rushes,omitempty"`
}

// Rush is a recurring arrival surge: whenever the cron schedule matches,
// arrivals come Factor times as fast for DurationMinutes
type Rush struct {
	CronSchedule    string  `yaml:"cronSchedule"`
	DurationMinutes float64 `yaml:"durationMinutes"`
	Factor          float64 `yaml:"factor"`
}

// StationKind defines how a station serves its customers
type StationKind string

const (
	// KindSelfService stations are unstaffed; customers help themselves
	KindSelfService StationKind = "self-service"
	// KindAttended stations need an employee for every serving
	KindAttended StationKind = "attended"
)

// Store settlement semantics
const (
	SemanticsClamping = "clamping"
	SemanticsExact    = "exact"
)

// Station configures one counter and the production station behind it.
// All per-product slices are aligned with Products
type Station struct {
	Name           string      `yaml:"name"`
	Kind           StationKind `yaml:"kind"`
	Products       []string    `yaml:"products"`
	Capacities     []int       `yaml:"capacities"`
	ServiceTimes   []float64   `yaml:"serviceTimes"`
	RefillingTimes []float64   `yaml:"refillingTimes"`
	ReorderLevels  []int       `yaml:"reorderLevels"`

	// Production-side settings; filled with defaults when omitted
	PreparationTimes []float64 `yaml:"preparationTimes,omitempty"`
	ProductionTimes  []float64 `yaml:"productionTimes,omitempty"`
	Keep             []bool    `yaml:"keep,omitempty"`

	// Semantics selects clamping (default) or exact store settlement
	Semantics string `yaml:"semantics,omitempty"`
}

// Checkout configures the cash point
type Checkout struct {
	PayTimeMinutes float64 `yaml:"payTimeMinutes"`
	Capacity       int     `yaml:"capacity,omitempty"`
}
