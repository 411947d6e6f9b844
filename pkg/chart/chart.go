package chart

import (
	"fmt"
	"strings"

	"github.com/canteen-sim/canteen/pkg/canteen"
)

const (
	chartWidth  = 80
	chartHeight = 20
)

// Generator generates ASCII charts
type Generator struct {
	width  int
	height int
}

// NewGenerator creates a new chart generator
func NewGenerator() *Generator {
	return &Generator{
		width:  chartWidth,
		height: chartHeight,
	}
}

// GenerateOccupancyChart generates an ASCII chart showing how full the
// canteen was over time, with the customers queueing outside drawn above
// the capacity line
func (g *Generator) GenerateOccupancyChart(timePoints []canteen.TimePoint, capacity int) string {
	if len(timePoints) == 0 {
		return "No data to display"
	}

	var sb strings.Builder

	// Header
	sb.WriteString("\n")
	sb.WriteString("Canteen Occupancy Over Time\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	// Find max queue outside to determine chart height
	maxWaiting := 0
	for _, tp := range timePoints {
		if tp.WaitingOutside > maxWaiting {
			maxWaiting = tp.WaitingOutside
		}
	}

	totalRows := capacity + maxWaiting
	plotWidth := g.width - 6

	pointAt := func(x int) canteen.TimePoint {
		index := int(float64(x) / float64(plotWidth) * float64(len(timePoints)-1))
		if index >= len(timePoints) {
			index = len(timePoints) - 1
		}
		return timePoints[index]
	}

	// Queue-outside rows first, top to bottom
	for row := totalRows; row > capacity; row-- {
		sb.WriteString(fmt.Sprintf("%3d |", row))

		for x := 0; x < len(timePoints) && x < plotWidth; x++ {
			tp := pointAt(x)
			if row-capacity <= tp.WaitingOutside {
				sb.WriteString("*")
			} else {
				sb.WriteString(" ")
			}
		}
		sb.WriteString("\n")
	}

	// Separator line between the queue and the admission slots
	if maxWaiting > 0 {
		sb.WriteString("    ")
		sb.WriteString(strings.Repeat("-", g.width-4))
		sb.WriteString("\n")
	}

	// Admission slots, capacity down to 1
	for slot := capacity; slot >= 1; slot-- {
		sb.WriteString(fmt.Sprintf("%3d |", slot))

		for x := 0; x < len(timePoints) && x < plotWidth; x++ {
			tp := pointAt(x)
			if tp.Occupancy >= slot {
				sb.WriteString("█")
			} else {
				sb.WriteString(" ")
			}
		}
		sb.WriteString("\n")
	}

	// X-axis
	sb.WriteString("    +")
	sb.WriteString(strings.Repeat("-", plotWidth))
	sb.WriteString("\n")

	// X-axis labels - marks every simulated hour
	start := timePoints[0].Time
	end := timePoints[len(timePoints)-1].Time
	total := end - start

	labelLine := make([]rune, plotWidth)
	for i := range labelLine {
		labelLine[i] = ' '
	}

	hour := 0
	for total > 0 {
		offset := float64(hour) * 60
		if offset > total {
			break
		}

		position := int(offset / total * float64(plotWidth))
		marker := fmt.Sprintf("%dh", hour)

		if position+len(marker) <= plotWidth {
			for i, ch := range marker {
				labelLine[position+i] = ch
			}
		}

		hour++
	}

	sb.WriteString("    ")
	sb.WriteString(string(labelLine))
	sb.WriteString("\n")

	// Legend
	sb.WriteString("\n")
	sb.WriteString("Legend:\n")
	sb.WriteString(fmt.Sprintf("  Admission slots (1-%d):\n", capacity))
	sb.WriteString("    █ - Customer inside\n")
	sb.WriteString("    (space) - Free slot\n")
	if maxWaiting > 0 {
		sb.WriteString(fmt.Sprintf("  Queue rows (>%d):\n", capacity))
		sb.WriteString("    * - Customer waiting outside\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// GenerateEventSummary generates a summary of events
func (g *Generator) GenerateEventSummary(events []canteen.Event) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("Event Summary\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	// Group events by type
	eventsByType := make(map[canteen.EventType]int)
	for _, event := range events {
		eventsByType[event.Type]++
	}

	sb.WriteString(fmt.Sprintf("Total Events: %d\n", len(events)))
	sb.WriteString(fmt.Sprintf("  - Customers Arrived: %d\n", eventsByType[canteen.EventCustomerArrived]))
	sb.WriteString(fmt.Sprintf("  - Customers Admitted: %d\n", eventsByType[canteen.EventCustomerAdmitted]))
	sb.WriteString(fmt.Sprintf("  - Servings: %d\n", eventsByType[canteen.EventCustomerServed]))
	sb.WriteString(fmt.Sprintf("  - Payments: %d\n", eventsByType[canteen.EventCustomerPaid]))
	sb.WriteString(fmt.Sprintf("  - Refills Requested: %d\n", eventsByType[canteen.EventRefillRequested]))
	sb.WriteString(fmt.Sprintf("  - Refills Completed: %d\n", eventsByType[canteen.EventRefillCompleted]))
	sb.WriteString("\n")

	return sb.String()
}

// GenerateWarnings generates a list of warnings
func (g *Generator) GenerateWarnings(warnings []canteen.Event) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("Warnings\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	if len(warnings) == 0 {
		sb.WriteString("No warnings!\n")
		return sb.String()
	}

	for _, warning := range warnings {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", FormatMinutes(warning.Time), warning.Message))
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Total Warnings: %d\n", len(warnings)))
	sb.WriteString("\n")

	return sb.String()
}

// GenerateDetailedTimeline generates a detailed timeline of events
func (g *Generator) GenerateDetailedTimeline(events []canteen.Event, limit int) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("Detailed Timeline")
	if limit > 0 && limit < len(events) {
		sb.WriteString(fmt.Sprintf(" (showing first %d events)", limit))
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", g.width))
	sb.WriteString("\n\n")

	displayCount := len(events)
	if limit > 0 && limit < displayCount {
		displayCount = limit
	}

	for i := 0; i < displayCount; i++ {
		event := events[i]

		typeIcon := " "
		switch event.Type {
		case canteen.EventCustomerArrived:
			typeIcon = "+"
		case canteen.EventCustomerAdmitted:
			typeIcon = ">"
		case canteen.EventCustomerServed:
			typeIcon = "."
		case canteen.EventCustomerPaid:
			typeIcon = "$"
		case canteen.EventCustomerLeft:
			typeIcon = "-"
		case canteen.EventRefillRequested:
			typeIcon = "R"
		case canteen.EventRefillCompleted:
			typeIcon = "F"
		case canteen.EventVisitFailed:
			typeIcon = "!"
		}

		sb.WriteString(fmt.Sprintf("[%s] %s %s\n",
			FormatMinutes(event.Time),
			typeIcon,
			event.Message))
	}

	if limit > 0 && limit < len(events) {
		sb.WriteString(fmt.Sprintf("\n... and %d more events\n", len(events)-limit))
	}

	sb.WriteString("\n")

	return sb.String()
}

// FormatMinutes formats a simulated timestamp as h:mm.t
func FormatMinutes(t float64) string {
	hours := int(t) / 60
	minutes := t - float64(hours*60)
	return fmt.Sprintf("%d:%04.1f", hours, minutes)
}
