// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/wearmon/internal/ui/styles"
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	width = max(width, 20)
	height = max(height, 3)

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// RenderHeartRateChart plots heart rate readings. The series is colored by
// the zone of its latest reading against maxHR.
func RenderHeartRateChart(bpm []float64, maxHR float64, width, height int) string {
	if len(bpm) == 0 {
		return styles.HelpStyle.Render("Waiting for heart rate...")
	}

	width = max(width, 20)
	height = max(height, 3)

	lo, hi := bpm[0], bpm[0]
	for _, v := range bpm {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	last := bpm[len(bpm)-1]
	caption := fmt.Sprintf("Heart rate (bpm)  min %.0f  max %.0f  now %.0f", lo, hi, last)

	return asciigraph.Plot(bpm,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(lo-5),
		asciigraph.UpperBound(hi+5),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(zoneSeriesColor(styles.Zone(last, maxHR))),
		asciigraph.Caption(caption),
	)
}

func zoneSeriesColor(zone int) asciigraph.AnsiColor {
	switch zone {
	case 5:
		return asciigraph.Red
	case 4:
		return asciigraph.Goldenrod
	case 3:
		return asciigraph.Green
	case 2:
		return asciigraph.DodgerBlue
	default:
		return asciigraph.Gray
	}
}

// RenderBarChart creates a simple horizontal bar chart.
func RenderBarChart(values []float64, labels []string, width int) string {
	if len(values) == 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, len(l))
	}

	// Leave room for label and value
	barWidth := max(width-maxLabelLen-10, 10)

	var lines []string
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}

		paddedLabel := fmt.Sprintf("%*s", maxLabelLen, label)
		barLen := max(int((v/maxVal)*float64(barWidth)), 0)

		bar := strings.Repeat("█", barLen)
		valueStr := fmt.Sprintf(" %.1f", v)

		lines = append(lines, paddedLabel+" │"+bar+valueStr)
	}

	return strings.Join(lines, "\n")
}

// RenderNightlyPattern renders one sparkline cell per night, scaled to the
// longest night, with its label underneath.
func RenderNightlyPattern(hours []float64, labels []string) string {
	if len(hours) == 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range hours {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	var parts []string
	for i, v := range hours {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		idx := min(max(int((v/maxVal)*float64(len(sparkChars)-1)), 0), len(sparkChars)-1)
		parts = append(parts, fmt.Sprintf("%s %s", label, string(sparkChars[idx])))
	}

	return strings.Join(parts, " ")
}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	// Show the most recent values when there are more than fit.
	if len(values) > width {
		values = values[len(values)-width:]
	}

	var result strings.Builder
	for _, v := range values {
		idx := min(max(int(((v-lo)/span)*float64(len(sparkChars)-1)), 0), len(sparkChars)-1)
		result.WriteRune(sparkChars[idx])
	}

	return result.String()
}

// RenderZoneSparkline creates a sparkline whose cells are colored by heart
// rate zone.
func RenderZoneSparkline(bpm []float64, maxHR float64, width int) string {
	if len(bpm) == 0 || width <= 0 {
		return ""
	}

	plain := []rune(RenderSparkline(bpm, width))
	if len(bpm) > width {
		bpm = bpm[len(bpm)-width:]
	}

	var result strings.Builder
	for i, r := range plain {
		style := styles.GetZoneStyle(styles.Zone(bpm[i], maxHR))
		result.WriteString(style.Render(string(r)))
	}
	return result.String()
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	var parts []string
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}
