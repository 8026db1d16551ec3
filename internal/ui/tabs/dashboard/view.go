package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/wearmon/internal/models"
	"github.com/j-veylop/wearmon/internal/ui/components"
	"github.com/j-veylop/wearmon/internal/ui/styles"
)

// View renders the dashboard component.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	snap := m.state.GetSnapshot()
	cardWidth := max(m.width-6, 40)

	sections := []string{
		m.renderTitle(snap),
		m.renderStatusCard(snap, cardWidth),
		m.renderMetricsCard(snap, cardWidth),
		m.renderChartCard(cardWidth),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle(snap models.AggregateSnapshot) string {
	title := styles.TitleStyle.Render("Live Session")

	subtitle := "Press space to start recording"
	if snap.SessionOn {
		subtitle = "Recording, press space to stop"
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(subtitle), "")
}

func (m *Model) renderStatusCard(snap models.AggregateSnapshot, width int) string {
	icon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	rows := []string{fmt.Sprintf("%s %s", icon, styles.CardTitleStyle.Render("Status")), ""}

	stateStyle := styles.HelpStyle
	switch snap.SessionState {
	case models.SessionActive:
		stateStyle = styles.RecordingStyle
	case models.SessionPreparing, models.SessionEnding:
		stateStyle = styles.WarningTextStyle
	}
	rows = append(rows, renderField("Session", stateStyle.Render(snap.SessionState.String())))

	if snap.SessionID != "" {
		rows = append(rows, renderField("Session ID", styles.MetricUnitStyle.Render(shortID(snap.SessionID))))
	}

	activity := snap.Activity.String()
	rows = append(rows,
		renderField("Activity", styles.GetActivityStyle(activity).Render(activity)),
		renderField("Active Time", styles.MetricValueStyle.Render(formatActiveDuration(snap.ActiveDuration))),
	)

	if snap.HasSleep() {
		rows = append(rows, renderField("Last Night",
			styles.MetricValueStyle.Render(snap.Sleep.Summary.TotalHoursLabel())))
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderMetricsCard(snap models.AggregateSnapshot, width int) string {
	icon := lipgloss.NewStyle().Foreground(styles.Primary).Render("♥")
	rows := []string{fmt.Sprintf("%s %s", icon, styles.CardTitleStyle.Render("Metrics")), ""}

	g := snap.Gauges
	var shown *float64
	if g.HeartRateBPM != nil {
		v := m.heartRate.Current
		if v == 0 {
			v = *g.HeartRateBPM
		}
		shown = &v
	}

	rows = append(rows,
		renderMetric("Heart Rate", formatFloat(g.HeartRateBPM, "%.0f"), "bpm", snap.AvailabilityOf(models.MetricHeartRate)),
		"  "+m.zoneBar.View(shown, m.maxHR, width-6),
		renderMetric("Cadence", formatFloat(g.CadenceSPM, "%.0f"), "spm", snap.AvailabilityOf(models.MetricCadence)),
		renderMetric("Speed", formatFloat(g.SpeedMPS, "%.2f"), "m/s", snap.AvailabilityOf(models.MetricSpeed)),
		renderMetric("Pace", formatPace(g.PaceMsPerKm), "/km", snap.AvailabilityOf(models.MetricPace)),
		"",
	)

	t := snap.Totals
	rows = append(rows,
		renderMetric("Steps", fmt.Sprintf("%d", t.Steps), "", snap.AvailabilityOf(models.MetricSteps)),
		renderMetric("Calories", fmt.Sprintf("%.0f", t.CaloriesKcal), "kcal", snap.AvailabilityOf(models.MetricCalories)),
		renderMetric("Distance", fmt.Sprintf("%.2f", t.DistanceMeters/1000), "km", snap.AvailabilityOf(models.MetricDistance)),
		renderMetric("Elevation", fmt.Sprintf("%.0f", t.ElevationGainMeters), "m", snap.AvailabilityOf(models.MetricElevationGain)),
		renderMetric("Floors", fmt.Sprintf("%.0f", t.Floors), "", snap.AvailabilityOf(models.MetricFloors)),
	)

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderChartCard(width int) string {
	history := m.state.HeartRateHistory()
	chartWidth := max(width-14, 20)

	rows := []string{
		styles.CardTitleStyle.Render("Heart Rate"),
		"",
		components.RenderHeartRateChart(history, m.maxHR, chartWidth, 6),
	}
	if len(history) > 0 {
		rows = append(rows, "", components.RenderZoneSparkline(history, m.maxHR, chartWidth))
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderField(label, value string) string {
	return styles.MetricLabelStyle.Width(14).Render(label) + value
}

func renderMetric(label, value, unit string, avail models.Availability) string {
	v := styles.MetricValueStyle.Width(10).Align(lipgloss.Right).Render(value)
	u := styles.MetricUnitStyle.Width(6).Render(" " + unit)
	a := styles.GetAvailabilityStyle(avail.String()).Render(avail.String())
	return renderField(label, v) + u + " " + a
}

func formatFloat(v *float64, format string) string {
	if v == nil {
		return "--"
	}
	return fmt.Sprintf(format, *v)
}

// formatPace renders milliseconds per kilometer as m:ss.
func formatPace(msPerKm *float64) string {
	if msPerKm == nil || *msPerKm <= 0 {
		return "--"
	}
	secs := int(*msPerKm / 1000)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func formatActiveDuration(d *time.Duration) string {
	if d == nil {
		return "--:--:--"
	}
	total := int(d.Truncate(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return strings.ToUpper(id[:8])
}
