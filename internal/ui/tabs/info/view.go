package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/wearmon/internal/config"
	"github.com/j-veylop/wearmon/internal/ui/styles"
	"github.com/j-veylop/wearmon/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderAboutCard(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and build information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 80)
}

func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration"), ""}

	if cfg := m.config; cfg != nil {
		rows = append(rows,
			renderRow("Database", cfg.DatabasePath),
			renderRow("Log File", cfg.LogFile),
			renderRow("Log Level", cfg.LogLevel),
			renderRow("Measurements", string(cfg.MeasurementSource)),
			renderRow("Activity", activitySource(cfg)),
			renderRow("Exercise Type", cfg.ExerciseType),
			renderRow("HR Alert", fmt.Sprintf("%.0f bpm", cfg.HeartRateAlertBPM)),
			renderRow("Sleep Lookback", cfg.SleepLookback.String()),
			renderRow("History Lookback", cfg.HistoryLookback.String()),
		)
		if cfg.MeasurementSource == config.SourceMQTT || cfg.ActivitySource == config.SourceMQTT {
			rows = append(rows,
				renderRow("MQTT Broker", cfg.MQTT.Broker),
				renderRow("MQTT Topics", cfg.MQTT.TopicPrefix+"/#"),
			)
		}
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func activitySource(cfg *config.Config) string {
	if cfg.ActivitySource == config.SourceFile {
		return fmt.Sprintf("%s (%s)", cfg.ActivitySource, cfg.ActivityStateFile)
	}
	return string(cfg.ActivitySource)
}

func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	if value == "" {
		value = "-"
	}
	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About " + version.Name),
		"",
		renderRow("Version", version.GetVersion()),
		renderRow("Build Date", version.GetDate()),
		renderRow("Git Commit", version.GetCommit()),
		renderRow("Go Version", runtime.Version()),
		renderRow("Platform", version.Platform()),
	}

	if m.state != nil {
		snap := m.state.GetSnapshot()
		rows = append(rows, "",
			fmt.Sprintf("Snapshot version: %s",
				styles.InfoTextStyle.Render(fmt.Sprintf("%d", snap.Version))),
		)
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
