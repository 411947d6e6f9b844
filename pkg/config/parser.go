package config

import (
	"fmt"
	"os"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads and parses the configuration file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyDefaults fills the optional parts of the configuration
func applyDefaults(config *Config) {
	if config.SampleEveryMinutes == 0 {
		config.SampleEveryMinutes = 10
	}
	if config.Checkout.Capacity == 0 {
		config.Checkout.Capacity = 1
	}
	for i := range config.Stations {
		station := &config.Stations[i]
		n := len(station.Products)
		if len(station.PreparationTimes) == 0 {
			station.PreparationTimes = make([]float64, n)
			for j := range station.PreparationTimes {
				station.PreparationTimes[j] = 1.0
			}
		}
		if len(station.ProductionTimes) == 0 {
			station.ProductionTimes = make([]float64, n)
			for j := range station.ProductionTimes {
				station.ProductionTimes[j] = 3.0
			}
		}
		if len(station.Keep) == 0 {
			station.Keep = make([]bool, n)
		}
		if station.Semantics == "" {
			station.Semantics = SemanticsClamping
		}
	}
}

// validateConfig validates the configuration. Besides the basic shape it
// rejects topologies that would starve the simulation: zero-capacity bins
// or staffed stations with nobody to staff them
func validateConfig(config *Config) error {
	if config.HorizonMinutes <= 0 {
		return fmt.Errorf("horizonMinutes must be greater than 0")
	}

	if config.CanteenCapacity <= 0 {
		return fmt.Errorf("canteenCapacity must be greater than 0")
	}

	if config.Arrival.MeanIntervalMinutes <= 0 {
		return fmt.Errorf("arrival.meanIntervalMinutes must be greater than 0")
	}

	for i, rush := range config.Arrival.Rushes {
		if _, err := cron.ParseStandard(rush.CronSchedule); err != nil {
			return fmt.Errorf("arrival rush %d: invalid cronSchedule: %w", i, err)
		}
		if rush.DurationMinutes <= 0 {
			return fmt.Errorf("arrival rush %d: durationMinutes must be greater than 0", i)
		}
		if rush.Factor <= 0 {
			return fmt.Errorf("arrival rush %d: factor must be greater than 0", i)
		}
	}

	for i, exp := range config.EmployeeExperience {
		if exp < 1 {
			return fmt.Errorf("employee %d: experience must be at least 1", i)
		}
	}

	if len(config.Stations) == 0 {
		return fmt.Errorf("at least one station must be defined")
	}

	needStaff := false
	for _, station := range config.Stations {
		if err := validateStation(&station); err != nil {
			return err
		}
		if station.Kind == KindAttended {
			needStaff = true
		}
	}
	if needStaff && len(config.EmployeeExperience) == 0 {
		return fmt.Errorf("attended stations need at least one employee")
	}

	if config.Checkout.PayTimeMinutes <= 0 {
		return fmt.Errorf("checkout.payTimeMinutes must be greater than 0")
	}

	if config.Checkout.Capacity <= 0 {
		return fmt.Errorf("checkout.capacity must be greater than 0")
	}

	return nil
}

// validateStation validates one station entry
func validateStation(station *Station) error {
	if station.Name == "" {
		return fmt.Errorf("every station needs a name")
	}

	if station.Kind != KindSelfService && station.Kind != KindAttended {
		return fmt.Errorf("station %s: kind must be either 'self-service' or 'attended'", station.Name)
	}

	if station.Semantics != SemanticsClamping && station.Semantics != SemanticsExact {
		return fmt.Errorf("station %s: semantics must be either 'clamping' or 'exact'", station.Name)
	}

	n := len(station.Products)
	if n == 0 {
		return fmt.Errorf("station %s: at least one product is required", station.Name)
	}

	if len(station.Capacities) != n || len(station.ServiceTimes) != n ||
		len(station.RefillingTimes) != n || len(station.ReorderLevels) != n ||
		len(station.PreparationTimes) != n || len(station.ProductionTimes) != n ||
		len(station.Keep) != n {
		return fmt.Errorf("station %s: per-product lists must all match the number of products", station.Name)
	}

	for i, product := range station.Products {
		if product == "" {
			return fmt.Errorf("station %s: product %d has an empty name", station.Name, i)
		}
		if station.Capacities[i] <= 0 {
			return fmt.Errorf("station %s: capacity of %s must be greater than 0", station.Name, product)
		}
		if station.ServiceTimes[i] < 0 || station.RefillingTimes[i] < 0 ||
			station.PreparationTimes[i] < 0 || station.ProductionTimes[i] < 0 {
			return fmt.Errorf("station %s: times for %s must not be negative", station.Name, product)
		}
		if station.ReorderLevels[i] < 0 || station.ReorderLevels[i] >= station.Capacities[i] {
			return fmt.Errorf("station %s: reorder level of %s must be in [0, capacity)", station.Name, product)
		}
	}

	return nil
}

// Default returns the built-in topology used when no configuration file is
// given: seven counters plus the cash point, five employees and a lunch rush
func Default() *Config {
	config := &Config{
		HorizonMinutes:  300,
		CanteenCapacity: 20,
		Seed:            1,
		Arrival: Arrival{
			MeanIntervalMinutes: 1.5,
			Rushes: []Rush{
				{CronSchedule: "30 12 * * *", DurationMinutes: 60, Factor: 3},
			},
		},
		EmployeeExperience: []int{3, 3, 2, 2, 1},
		Stations: []Station{
			{
				Name:           "starters",
				Kind:           KindSelfService,
				Products:       []string{"caprese", "coldrice", "ham"},
				Capacities:     []int{3, 3, 3},
				ServiceTimes:   []float64{1.5, 1.5, 1.5},
				RefillingTimes: []float64{3.0, 3.0, 3.0},
				ReorderLevels:  []int{0, 0, 0},
			},
			{
				Name:           "pizza",
				Kind:           KindAttended,
				Products:       []string{"pizza"},
				Capacities:     []int{1},
				ServiceTimes:   []float64{2.5},
				RefillingTimes: []float64{3.0},
				ReorderLevels:  []int{0},
				Keep:           []bool{true},
			},
			{
				Name:           "first",
				Kind:           KindAttended,
				Products:       []string{"carbonara", "ragu", "rice"},
				Capacities:     []int{6, 6, 6},
				ServiceTimes:   []float64{5.0, 5.0, 5.0},
				RefillingTimes: []float64{8.0, 8.0, 8.0},
				ReorderLevels:  []int{2, 2, 2},
			},
			{
				Name:           "second",
				Kind:           KindAttended,
				Products:       []string{"meat", "fish", "roast"},
				Capacities:     []int{10, 10, 10},
				ServiceTimes:   []float64{2.0, 2.0, 2.0},
				RefillingTimes: []float64{8.0, 8.0, 8.0},
				ReorderLevels:  []int{3, 3, 3},
			},
			{
				Name:           "side",
				Kind:           KindSelfService,
				Products:       []string{"salad", "corn", "potatoes"},
				Capacities:     []int{3, 3, 3},
				ServiceTimes:   []float64{6.0, 6.0, 6.0},
				RefillingTimes: []float64{1.0, 1.0, 1.0},
				ReorderLevels:  []int{1, 1, 1},
			},
			{
				Name:           "sweet",
				Kind:           KindSelfService,
				Products:       []string{"yogurt", "cake", "fruit"},
				Capacities:     []int{10, 10, 10},
				ServiceTimes:   []float64{0.5, 0.5, 0.5},
				RefillingTimes: []float64{5.0, 5.0, 5.0},
				ReorderLevels:  []int{2, 2, 2},
			},
			{
				Name:           "drink",
				Kind:           KindSelfService,
				Products:       []string{"coke", "water", "beer"},
				Capacities:     []int{30, 30, 30},
				ServiceTimes:   []float64{0.5, 0.5, 0.5},
				RefillingTimes: []float64{15.0, 15.0, 15.0},
				ReorderLevels:  []int{7, 7, 7},
			},
		},
		Checkout: Checkout{PayTimeMinutes: 5.0},
	}
	applyDefaults(config)
	return config
}
