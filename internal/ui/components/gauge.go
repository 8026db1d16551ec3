package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/wearmon/internal/logger"
	"github.com/j-veylop/wearmon/internal/ui/styles"
)

// ZoneBar renders the current heart rate against the configured maximum.
type ZoneBar struct {
	progress progress.Model
}

// NewZoneBar creates a zone bar with a green to red gradient.
func NewZoneBar() ZoneBar {
	p := progress.New(
		progress.WithScaledGradient("#51cf66", "#ff6b6b"),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)
	return ZoneBar{progress: p}
}

// View renders the bar for bpm. A missing reading renders an empty bar.
func (z ZoneBar) View(bpm *float64, maxHR float64, width int) string {
	z.progress.Width = max(width-16, 10)

	if bpm == nil || maxHR <= 0 {
		empty := lipgloss.NewStyle().Foreground(styles.Subtle).Render(strings.Repeat("░", z.progress.Width))
		return lipgloss.JoinHorizontal(lipgloss.Center, empty, " ", styles.HelpStyle.Render("no reading"))
	}

	ratio := min(max(*bpm/maxHR, 0), 1)
	zone := styles.Zone(*bpm, maxHR)
	zoneStr := styles.GetZoneStyle(zone).
		Width(14).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("Z%d %3.0f%%", zone, ratio*100))

	return lipgloss.JoinHorizontal(lipgloss.Center, z.progress.ViewAs(ratio), " ", zoneStr)
}

// StageShare is one segment of a stacked stage bar.
type StageShare struct {
	Stage   string
	Percent int
}

// RenderStageBar renders sleep stage shares as one stacked bar. Shares are
// percentages of the total and may add up to less than 100.
func RenderStageBar(shares []StageShare, width int) string {
	if width < 1 {
		return ""
	}

	var b strings.Builder
	used := 0
	for _, s := range shares {
		cells := min(max(s.Percent*width/100, 0), width-used)
		if cells == 0 {
			continue
		}
		style := lipgloss.NewStyle().Foreground(styles.GetStageColor(s.Stage))
		b.WriteString(style.Render(strings.Repeat("█", cells)))
		used += cells
	}
	if used < width {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render(strings.Repeat("░", width-used)))
	}
	return b.String()
}

// RenderGradientBar renders just the bar part with gradient colors.
func RenderGradientBar(percent float64, width int, fromHex, toHex string) string {
	if width < 1 {
		return ""
	}

	filled := min(max(int(float64(width)*percent/100), 0), width)

	var barChars []string
	for i := range width {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor(fromHex, toHex, t)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			barChars = append(barChars, style.Render("█"))
		} else {
			style := lipgloss.NewStyle().Foreground(styles.Subtle)
			barChars = append(barChars, style.Render("░"))
		}
	}

	return strings.Join(barChars, "")
}

// RenderLoadingBar renders a shimmering placeholder bar for frame.
func RenderLoadingBar(width, frame int) string {
	width = max(width, 10)

	const cycle = 120
	t := float64(frame%cycle) / float64(cycle)
	p := t * 2
	if t >= 0.5 {
		p = (1 - t) * 2
	}
	eased := p * p * (3 - 2*p)
	shimmerPos := int(eased * float64(width))

	var barChars []string
	for i := range width {
		dist := shimmerPos - i
		if dist < 0 {
			dist = -dist
		}

		var char string
		var style lipgloss.Style
		switch {
		case dist < 3:
			char = "▓"
			style = lipgloss.NewStyle().Foreground(styles.Primary)
		case dist < 5:
			char = "▒"
			style = lipgloss.NewStyle().Foreground(styles.TextSecondary)
		default:
			char = "░"
			style = lipgloss.NewStyle().Foreground(styles.BgLight)
		}
		barChars = append(barChars, style.Render(char))
	}

	return strings.Join(barChars, "")
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
