package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/j-veylop/wearmon/internal/models"
)

func init() {
	color.NoColor = true
}

func setTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "wearmon.db"))
	t.Setenv("LOG_FILE", filepath.Join(dir, "wearmon.log"))
	t.Setenv("MEASUREMENT_SOURCE", "sim")
	t.Setenv("ACTIVITY_SOURCE", "sim")
	return dir
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"dashboard", "sleep", "workouts", "db", "version"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	if out := execute(t, "version"); !strings.HasPrefix(out, "wearmon ") {
		t.Errorf("version output = %q", out)
	}
}

func TestSleepDebugThenSummary(t *testing.T) {
	setTestEnv(t)

	out := execute(t, "sleep", "debug")
	if !strings.Contains(out, "Inserted debug sleep session") {
		t.Errorf("debug output = %q", out)
	}

	out = execute(t, "sleep", "summary")
	if !strings.Contains(out, "480 min") {
		t.Errorf("summary output = %q, want 480 min total", out)
	}

	out = execute(t, "sleep", "summary", "--days", "7")
	if strings.Count(out, "Total") != 1 {
		t.Errorf("history output = %q, want one night", out)
	}
}

func TestSleepSummary_Empty(t *testing.T) {
	setTestEnv(t)

	if out := execute(t, "sleep", "summary"); !strings.Contains(out, "No sleep session found") {
		t.Errorf("summary output = %q", out)
	}
}

func TestSleepImport(t *testing.T) {
	dir := setTestEnv(t)

	end := time.Now().Add(-time.Hour).UTC().Truncate(time.Minute)
	start := end.Add(-2 * time.Hour)
	data := "sessions:\n" +
		"  - id: imported-1\n" +
		"    title: Nap\n" +
		"    start: " + start.Format(time.RFC3339) + "\n" +
		"    end: " + end.Format(time.RFC3339) + "\n" +
		"    stages:\n" +
		"      - stage: deep\n" +
		"        start: " + start.Format(time.RFC3339) + "\n" +
		"        end: " + end.Format(time.RFC3339) + "\n"
	path := filepath.Join(dir, "sleep.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	if out := execute(t, "sleep", "import", path); !strings.Contains(out, "Imported 1 sleep session") {
		t.Errorf("import output = %q", out)
	}
	if out := execute(t, "sleep", "summary"); !strings.Contains(out, "Nap") {
		t.Errorf("summary output = %q, want the imported night", out)
	}
}

func TestSleepDelete(t *testing.T) {
	setTestEnv(t)

	out := execute(t, "sleep", "debug")
	i := strings.Index(out, "  id ")
	if i < 0 {
		t.Fatalf("debug output has no id: %q", out)
	}
	id := strings.Fields(out[i+len("  id "):])[0]

	if out := execute(t, "sleep", "delete", id); !strings.Contains(out, "Deleted sleep session "+id) {
		t.Errorf("delete output = %q", out)
	}
	if out := execute(t, "sleep", "summary"); !strings.Contains(out, "No sleep session found") {
		t.Errorf("summary after delete = %q", out)
	}

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"sleep", "delete", id})
	if err := root.Execute(); err == nil {
		t.Error("deleting a missing session should fail")
	}
}

func TestDBInfoAndVacuum(t *testing.T) {
	dir := setTestEnv(t)
	execute(t, "sleep", "debug")

	out := execute(t, "db", "info")
	for _, want := range []string{filepath.Join(dir, "wearmon.db"), "v2", "Sleep sessions  1"} {
		if !strings.Contains(out, want) {
			t.Errorf("db info missing %q:\n%s", want, out)
		}
	}

	if out := execute(t, "db", "vacuum"); !strings.Contains(out, "Database vacuumed") {
		t.Errorf("vacuum output = %q", out)
	}
}

func TestWorkouts_Empty(t *testing.T) {
	setTestEnv(t)

	if out := execute(t, "workouts", "-n", "5"); !strings.Contains(out, "No workouts recorded") {
		t.Errorf("workouts output = %q", out)
	}
}

func TestRangeForDays(t *testing.T) {
	tests := []struct {
		days int
		want models.TimeRange
	}{
		{0, models.TimeRangeLastNight},
		{1, models.TimeRangeLastNight},
		{2, models.TimeRange3Days},
		{3, models.TimeRange3Days},
		{7, models.TimeRange7Days},
		{30, models.TimeRange7Days},
	}
	for _, tt := range tests {
		if got := rangeForDays(tt.days); got != tt.want {
			t.Errorf("rangeForDays(%d) = %v, want %v", tt.days, got, tt.want)
		}
	}
}

func TestPrintWorkouts(t *testing.T) {
	var buf bytes.Buffer
	printWorkouts(&buf, []models.Workout{{
		StartedAt:      time.Date(2024, 5, 1, 7, 30, 0, 0, time.Local),
		ExerciseType:   "running",
		ActiveDuration: 30*time.Minute + 500*time.Millisecond,
		Totals:         models.CumulativeTotals{Steps: 4200, DistanceMeters: 5000},
		MaxHeartRate:   171,
	}})

	out := buf.String()
	for _, want := range []string{"2024-05-01 07:30", "running", "30m0s", "4200", "5.00km", "171"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
