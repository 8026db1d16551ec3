package sleep

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/wearmon/internal/models"
	"github.com/j-veylop/wearmon/internal/ui/components"
	"github.com/j-veylop/wearmon/internal/ui/styles"
)

// View renders the sleep tab.
func (m *Model) View() string {
	reports, r := m.state.GetSleepHistory()
	cardWidth := max(m.width-6, 40)

	sections := []string{
		m.renderHeader(r),
		m.renderLastNight(cardWidth),
		m.renderHistory(reports, r, cardWidth),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderHeader(r models.TimeRange) string {
	title := styles.TitleStyle.Render("Sleep")

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	rangeIndicator := rangeStyle.Render(fmt.Sprintf("[t] %s", r.String()))
	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeIndicator)

	return lipgloss.JoinVertical(lipgloss.Left, header, "")
}

func (m *Model) renderLastNight(width int) string {
	icon := lipgloss.NewStyle().Foreground(styles.StageDeep).Render("☾")
	rows := []string{fmt.Sprintf("%s %s", icon, styles.CardTitleStyle.Render("Last Night")), ""}

	snap := m.state.GetSnapshot()
	switch {
	case m.state.IsLoading("sleep"):
		rows = append(rows, styles.HelpStyle.Render("  Loading sleep summary..."))
	case !snap.HasSleep():
		rows = append(rows,
			styles.HelpStyle.Render("  No sleep session in the last night."),
			styles.InfoTextStyle.Render("  ╰─▶ Press r to reload or d to insert a debug night"),
		)
	default:
		rows = append(rows, renderReport(*snap.Sleep, width-4)...)
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderReport(report models.SleepReport, width int) []string {
	s, p := report.Summary, report.Shares

	title := report.Title
	if title == "" {
		title = "Sleep"
	}
	header := fmt.Sprintf("%s  %s → %s  %s",
		styles.MetricValueStyle.Render(title),
		report.Start.Local().Format("Jan 2 15:04"),
		report.End.Local().Format("15:04"),
		styles.MetricValueStyle.Render(s.TotalHoursLabel()),
	)

	rows := []string{
		header,
		"",
		components.RenderStageBar(stageShares(p), max(width-2, 10)),
		"",
		renderStageRow("Deep", "deep", s.DeepMinutes, p.Deep),
		renderStageRow("Light", "light", s.LightMinutes, p.Light),
		renderStageRow("REM", "rem", s.REMMinutes, p.REM),
		renderStageRow("Awake", "awake", s.AwakeMinutes, p.Awake),
		"",
		components.RenderLegend([]components.LegendItem{
			{Label: "Deep", Color: styles.StageDeep},
			{Label: "Light", Color: styles.StageLight},
			{Label: "REM", Color: styles.StageREM},
			{Label: "Awake", Color: styles.StageAwake},
		}),
	}
	return rows
}

func stageShares(p models.SleepPercentages) []components.StageShare {
	return []components.StageShare{
		{Stage: "deep", Percent: p.Deep},
		{Stage: "light", Percent: p.Light},
		{Stage: "rem", Percent: p.REM},
		{Stage: "awake", Percent: p.Awake},
	}
}

func renderStageRow(label, stage string, minutes, percent int) string {
	name := lipgloss.NewStyle().Foreground(styles.GetStageColor(stage)).Width(8).Render(label)
	value := styles.MetricValueStyle.Width(8).Align(lipgloss.Right).Render(fmt.Sprintf("%d min", minutes))
	share := styles.MetricUnitStyle.Width(6).Align(lipgloss.Right).Render(fmt.Sprintf("%d%%", percent))
	return "  " + name + value + share
}

func (m *Model) renderHistory(reports []models.SleepReport, r models.TimeRange, width int) string {
	icon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	rows := []string{fmt.Sprintf("%s %s", icon, styles.CardTitleStyle.Render("History: "+r.String())), ""}

	switch {
	case m.state.IsLoading("history"):
		rows = append(rows, styles.HelpStyle.Render("  Loading sleep history..."))
	case len(reports) == 0:
		rows = append(rows, styles.HelpStyle.Render("  No sleep sessions recorded in this range."))
	default:
		rows = append(rows, renderPattern(reports), "")
		for _, rep := range reports {
			rows = append(rows, renderHistoryRow(rep, width-4))
		}
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderPattern plots total hours per night, oldest first.
func renderPattern(reports []models.SleepReport) string {
	ordered := slices.Clone(reports)
	slices.Reverse(ordered)

	hours := make([]float64, len(ordered))
	labels := make([]string, len(ordered))
	for i, rep := range ordered {
		hours[i] = float64(rep.Summary.TotalMinutes) / 60
		labels[i] = rep.End.Local().Format("Mon")
	}
	return "  " + components.RenderNightlyPattern(hours, labels)
}

func renderHistoryRow(rep models.SleepReport, width int) string {
	date := styles.MetricLabelStyle.Width(12).Render(rep.End.Local().Format("Mon Jan 2"))
	total := styles.MetricValueStyle.Width(7).Align(lipgloss.Right).Render(rep.Summary.TotalHoursLabel())
	bar := components.RenderStageBar(stageShares(rep.Shares), max(min(width-24, 40), 10))
	return "  " + date + total + "  " + bar
}
