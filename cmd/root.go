package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canteen-sim/canteen/pkg/canteen"
	"github.com/canteen-sim/canteen/pkg/chart"
	"github.com/canteen-sim/canteen/pkg/config"
	"github.com/canteen-sim/canteen/pkg/report"
)

var (
	configFile       string
	seed             int64
	showTimeline     bool
	timelineLimit    int
	showEventSummary bool
	reportDB         string
)

var rootCmd = &cobra.Command{
	Use:   "canteen",
	Short: "Self-Service Canteen Simulator",
	Long: `A CLI tool that simulates a self-service canteen over a working day.

Customers stream in, queue at the admission gate, take food at self-service
and staffed counters, and pay at the checkout, while a limited pool of
employees serves, cooks and restocks. The tool reads a topology file
describing stations, staff and arrivals, runs the discrete-event simulation
and renders an occupancy chart with warnings for queueing trouble.`,
	RunE: runSimulation,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to topology file (built-in topology when empty)")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "Override the configured random seed")
	rootCmd.Flags().BoolVarP(&showTimeline, "timeline", "t", false, "Show detailed timeline of events")
	rootCmd.Flags().IntVarP(&timelineLimit, "timeline-limit", "l", 50, "Limit number of timeline events to display")
	rootCmd.Flags().BoolVarP(&showEventSummary, "summary", "s", true, "Show event summary")
	rootCmd.Flags().StringVar(&reportDB, "report-db", "", "Append the run to a SQLite report database")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}

	fmt.Printf("Topology: %d stations + checkout\n", len(cfg.Stations))
	fmt.Printf("  - Canteen Capacity: %d\n", cfg.CanteenCapacity)
	fmt.Printf("  - Employees: %d\n", len(cfg.EmployeeExperience))
	fmt.Printf("  - Horizon: %.0f minutes\n", cfg.HorizonMinutes)
	fmt.Printf("  - Seed: %d\n\n", cfg.Seed)

	// Build and run the canteen
	cn, err := canteen.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to build canteen: %w", err)
	}
	cn.Run()

	metrics := cn.Metrics()
	fmt.Printf("Customers served: %d\n", metrics.Served())

	// Generate and display chart
	chartGen := chart.NewGenerator()

	occupancyChart := chartGen.GenerateOccupancyChart(metrics.TimePoints(), cfg.CanteenCapacity)
	fmt.Println(occupancyChart)

	// Display event summary
	if showEventSummary {
		eventSummary := chartGen.GenerateEventSummary(metrics.Events())
		fmt.Println(eventSummary)
	}

	// Display warnings
	warningsOutput := chartGen.GenerateWarnings(metrics.Warnings())
	fmt.Println(warningsOutput)

	// Display detailed timeline if requested
	if showTimeline {
		timeline := chartGen.GenerateDetailedTimeline(metrics.Events(), timelineLimit)
		fmt.Println(timeline)
	}

	// Persist the run if requested
	if reportDB != "" {
		store, err := report.Open(reportDB)
		if err != nil {
			return fmt.Errorf("failed to open report database: %w", err)
		}
		defer store.Close()

		runID, err := store.SaveRun(report.Run{
			Seed:           cfg.Seed,
			HorizonMinutes: cfg.HorizonMinutes,
			Capacity:       cfg.CanteenCapacity,
			Served:         metrics.Served(),
		}, metrics.Events())
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		fmt.Printf("Run %s saved to %s\n", runID, reportDB)
	}

	return nil
}
