package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func TestSpinner_Methods(t *testing.T) {
	s := NewSpinner("Init")

	s.SetLabel("Loading")
	if s.Label() != "Loading" {
		t.Errorf("Label = %s, want Loading", s.Label())
	}

	if s.View() == "" {
		t.Error("View returned empty")
	}
	if !strings.Contains(s.ViewWithLabel(), "Loading") {
		t.Error("ViewWithLabel should contain the label")
	}
	if s.Init() == nil {
		t.Error("Init should return command")
	}
	if _, cmd := s.Update(spinner.TickMsg{}); cmd == nil {
		t.Error("Update should return command for tick")
	}
	if s.Tick() == nil {
		t.Error("Tick should return command")
	}
}

func TestRenderSpinnerCentered(t *testing.T) {
	s := NewSpinner("Connecting...")
	view := RenderSpinnerCentered(s, 40, 5)
	if !strings.Contains(view, "Connecting...") {
		t.Error("RenderSpinnerCentered should contain the label")
	}
}

func TestRenderLineChart(t *testing.T) {
	if s := RenderLineChart(nil, 20, 5, "Empty"); !strings.Contains(s, "No data") {
		t.Error("empty chart should say so")
	}
	s := RenderLineChart([]float64{1, 2, 3, 4}, 20, 5, "Test")
	if !strings.Contains(s, "Test") {
		t.Error("RenderLineChart should contain the caption")
	}
}

func TestRenderHeartRateChart(t *testing.T) {
	if s := RenderHeartRateChart(nil, 190, 40, 5); !strings.Contains(s, "Waiting") {
		t.Error("empty chart should show the waiting message")
	}

	s := ansi.Strip(RenderHeartRateChart([]float64{120, 135, 150}, 190, 40, 5))
	if !strings.Contains(s, "min 120") || !strings.Contains(s, "now 150") {
		t.Errorf("caption missing from chart:\n%s", s)
	}

	// A flat series must not panic on a zero span.
	_ = RenderHeartRateChart([]float64{100, 100, 100}, 190, 40, 5)
}

func TestRenderBarChart(t *testing.T) {
	s := RenderBarChart([]float64{10, 20}, []string{"A", "B"}, 20)
	if len(strings.Split(s, "\n")) != 2 {
		t.Errorf("RenderBarChart should render one line per value:\n%s", s)
	}
	if RenderBarChart(nil, nil, 20) != "" {
		t.Error("empty bar chart should be empty")
	}
}

func TestRenderNightlyPattern(t *testing.T) {
	s := RenderNightlyPattern([]float64{6, 8, 0}, []string{"Mon", "Tue", "Wed"})
	if !strings.Contains(s, "Tue █") {
		t.Errorf("longest night should render a full cell: %q", s)
	}
	if !strings.Contains(s, "Wed ▁") {
		t.Errorf("empty night should render the lowest cell: %q", s)
	}
}

func TestRenderSparkline(t *testing.T) {
	s := RenderSparkline([]float64{1, 2, 3}, 10)
	if s != "▁▄█" {
		t.Errorf("RenderSparkline = %q, want ▁▄█", s)
	}

	// Only the latest values fit.
	s = RenderSparkline([]float64{9, 1, 2, 3}, 3)
	if len([]rune(s)) != 3 {
		t.Errorf("RenderSparkline width = %d, want 3", len([]rune(s)))
	}

	if RenderSparkline(nil, 10) != "" {
		t.Error("empty sparkline should be empty")
	}
}

func TestRenderZoneSparkline(t *testing.T) {
	s := ansi.Strip(RenderZoneSparkline([]float64{100, 150, 180}, 190, 10))
	if len([]rune(s)) != 3 {
		t.Errorf("RenderZoneSparkline = %q", s)
	}
}

func TestZoneBar(t *testing.T) {
	bar := NewZoneBar()

	if s := bar.View(nil, 190, 40); !strings.Contains(s, "no reading") {
		t.Error("missing reading should be labelled")
	}

	bpm := 171.0
	s := ansi.Strip(bar.View(&bpm, 190, 40))
	if !strings.Contains(s, "Z5") || !strings.Contains(s, "90%") {
		t.Errorf("zone bar = %q, want Z5 at 90%%", s)
	}
}

func TestRenderStageBar(t *testing.T) {
	shares := []StageShare{
		{Stage: "deep", Percent: 25},
		{Stage: "light", Percent: 50},
		{Stage: "rem", Percent: 20},
		{Stage: "awake", Percent: 0},
	}

	s := ansi.Strip(RenderStageBar(shares, 20))
	if got := strings.Count(s, "█"); got != 19 {
		t.Errorf("filled cells = %d, want 19", got)
	}
	if got := strings.Count(s, "░"); got != 1 {
		t.Errorf("empty cells = %d, want 1", got)
	}

	// Shares above 100 are clipped to the bar width.
	s = ansi.Strip(RenderStageBar([]StageShare{{"deep", 80}, {"light", 80}}, 10))
	if got := len([]rune(s)); got != 10 {
		t.Errorf("bar width = %d, want 10", got)
	}
}

func TestRenderGradientBar(t *testing.T) {
	s := ansi.Strip(RenderGradientBar(50, 10, "#000000", "#ffffff"))
	if strings.Count(s, "█") != 5 || strings.Count(s, "░") != 5 {
		t.Errorf("RenderGradientBar = %q", s)
	}
	if RenderGradientBar(50, 0, "#000000", "#ffffff") != "" {
		t.Error("zero width should render nothing")
	}
}

func TestRenderLoadingBar(t *testing.T) {
	s := ansi.Strip(RenderLoadingBar(20, 30))
	if len([]rune(s)) != 20 {
		t.Errorf("loading bar width = %d, want 20", len([]rune(s)))
	}
}

func TestInterpolateColor(t *testing.T) {
	if got := interpolateColor("#000000", "#ffffff", 0); got != "#000000" {
		t.Errorf("t=0 -> %s", got)
	}
	if got := interpolateColor("#000000", "#ffffff", 1); got != "#ffffff" {
		t.Errorf("t=1 -> %s", got)
	}
	if got := hexToRGB("zz"); got != [3]int{0, 0, 0} {
		t.Errorf("invalid hex -> %v", got)
	}
}

func TestRenderLegend(t *testing.T) {
	items := []LegendItem{
		{Label: "Deep", Color: lipgloss.Color("#ffffff")},
	}
	if s := RenderLegend(items); !strings.Contains(s, "Deep") {
		t.Error("RenderLegend should contain the label")
	}
}
